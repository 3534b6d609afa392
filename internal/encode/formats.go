package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/gen2brain/webp"
)

const defaultQuality = 85

// PNGEncoder writes lossless PNG. The zero value uses default compression.
type PNGEncoder struct {
	Level png.CompressionLevel
}

func (e *PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: e.Level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) Format() string       { return "png" }
func (e *PNGEncoder) FileExtension() string { return ".png" }

// JPEGEncoder writes JPEG. Translucent pixels are composited over Matte
// (white when nil) since JPEG has no alpha.
type JPEGEncoder struct {
	Quality int
	Matte   color.Color
}

func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	quality := e.Quality
	if quality <= 0 {
		quality = defaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img, e.Matte), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *JPEGEncoder) Format() string       { return "jpeg" }
func (e *JPEGEncoder) FileExtension() string { return ".jpg" }

// flatten returns img unchanged when it is opaque, else img drawn over matte.
func flatten(img image.Image, matte color.Color) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	if matte == nil {
		matte = color.White
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(matte), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}

// WebPEncoder writes WebP through gen2brain/webp, which uses a system
// libwebp when present and a WASM build otherwise.
type WebPEncoder struct {
	Quality  int
	Lossless bool
}

// newWebPEncoder treats quality 100 as a request for lossless output.
func newWebPEncoder(quality int) *WebPEncoder {
	if quality <= 0 {
		quality = defaultQuality
	}
	return &WebPEncoder{Quality: quality, Lossless: quality >= 100}
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: e.Quality, Lossless: e.Lossless}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string       { return "webp" }
func (e *WebPEncoder) FileExtension() string { return ".webp" }
