// Package encode writes rendered views and elevation images to disk.
package encode

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Encoder encodes an image into file bytes.
type Encoder interface {
	// Encode encodes an image to bytes in the file format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality), nil
	case "terrarium":
		return &TerrariumEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported image format: %q (supported: jpeg, png, webp, terrarium)", format)
	}
}

// ForPath picks an encoder from the extension of path.
func ForPath(path string, quality int) (Encoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("%s has no file extension", path)
	}
	return NewEncoder(ext, quality)
}

// WriteFile encodes img with enc and writes it to path.
func WriteFile(path string, img image.Image, enc Encoder) error {
	data, err := enc.Encode(img)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", enc.Format(), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
