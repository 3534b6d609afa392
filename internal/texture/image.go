// Package texture turns imagery rasters into GPU-ready texture buffers.
package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/pspoerri/terrainview/internal/coord"
)

// ErrUnsupportedFormat is returned for sample layouts no upload path handles.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// PixelFormat is the channel layout of the pixel data.
type PixelFormat int

const (
	FormatRed PixelFormat = iota
	FormatRGB
	FormatRGBA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRed:
		return "RED"
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// DataType is the per-channel storage type of the pixel data.
type DataType int

const (
	UnsignedByte DataType = iota
	UnsignedShort
	UnsignedInt
	Float
)

func (t DataType) String() string {
	switch t {
	case UnsignedByte:
		return "UNSIGNED_BYTE"
	case UnsignedShort:
		return "UNSIGNED_SHORT"
	case UnsignedInt:
		return "UNSIGNED_INT"
	case Float:
		return "FLOAT"
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// InternalFormat is the storage format requested from the GPU.
type InternalFormat int

const (
	R8 InternalFormat = iota
	RGB8
	RGBA8
	R16
	RGB16
	RGBA16
	R32F
	RGB32F
	RGBA32F
)

var internalFormatNames = [...]string{"R8", "RGB8", "RGBA8", "R16", "RGB16", "RGBA16", "R32F", "RGB32F", "RGBA32F"}

func (f InternalFormat) String() string {
	if f >= 0 && int(f) < len(internalFormatNames) {
		return internalFormatNames[f]
	}
	return fmt.Sprintf("InternalFormat(%d)", int(f))
}

// Footprint is the pixel grid a texture covers in projected space.
type Footprint struct {
	Transform coord.GeoTransform
	Width     int
	Height    int
}

// Image is a normalized texture: tightly packed rows of little-endian
// samples plus the metadata needed to upload and place it.
type Image struct {
	Width, Height  int
	Channels       int
	BitDepth       int
	Float          bool
	Format         PixelFormat
	InternalFormat InternalFormat
	DataType       DataType
	Pix            []byte

	// Transform georeferences the source raster. SourceWidth and
	// SourceHeight are its pixel size before any downsizing, so texture
	// coordinates are computed against the original grid.
	Transform    coord.GeoTransform
	SourceWidth  int
	SourceHeight int
}

// Footprint returns the source pixel grid of the texture.
func (img *Image) Footprint() Footprint {
	w, h := img.SourceWidth, img.SourceHeight
	if w == 0 || h == 0 {
		w, h = img.Width, img.Height
	}
	return Footprint{Transform: img.Transform, Width: w, Height: h}
}

// Stride is the byte length of one row.
func (img *Image) Stride() int {
	return img.Width * img.Channels * img.BitDepth / 8
}

// newRGB8 allocates an 8-bit RGB or RGBA image.
func newRGB8(w, h, channels int) *Image {
	img := &Image{
		Width:    w,
		Height:   h,
		Channels: channels,
		BitDepth: 8,
		DataType: UnsignedByte,
		Pix:      make([]byte, w*h*channels),
	}
	if channels == 4 {
		img.Format, img.InternalFormat = FormatRGBA, RGBA8
	} else {
		img.Format, img.InternalFormat = FormatRGB, RGB8
	}
	return img
}

// describe fills in GPU format metadata for a generic layout.
func describe(channels, bits int, float bool) (PixelFormat, InternalFormat, DataType, error) {
	var pf PixelFormat
	var row int
	switch channels {
	case 1:
		pf, row = FormatRed, 0
	case 3:
		pf, row = FormatRGB, 1
	case 4:
		pf, row = FormatRGBA, 2
	default:
		return 0, 0, 0, fmt.Errorf("%d channels: %w", channels, ErrUnsupportedFormat)
	}
	if float && bits != 32 {
		return 0, 0, 0, fmt.Errorf("%d-bit float samples: %w", bits, ErrUnsupportedFormat)
	}
	switch bits {
	case 8:
		return pf, R8 + InternalFormat(row), UnsignedByte, nil
	case 16:
		return pf, R16 + InternalFormat(row), UnsignedShort, nil
	case 32:
		dt := UnsignedInt
		if float {
			dt = Float
		}
		return pf, R32F + InternalFormat(row), dt, nil
	}
	return 0, 0, 0, fmt.Errorf("%d-bit samples: %w", bits, ErrUnsupportedFormat)
}

// channel8 reads channel c of pixel i scaled to 8 bits.
func (img *Image) channel8(i, c int) uint8 {
	bps := img.BitDepth / 8
	o := (i*img.Channels + c) * bps
	switch {
	case bps == 1:
		return img.Pix[o]
	case bps == 2:
		return uint8(binary.LittleEndian.Uint16(img.Pix[o:]) >> 8)
	case img.Float:
		v := math.Float32frombits(binary.LittleEndian.Uint32(img.Pix[o:]))
		if !(v > 0) {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	default:
		return uint8(binary.LittleEndian.Uint32(img.Pix[o:]) >> 24)
	}
}

// ToImage converts the texture to 8-bit RGBA. Single-channel textures are
// shown as gray.
func (img *Image) ToImage() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			var c color.NRGBA
			switch img.Channels {
			case 1:
				v := img.channel8(i, 0)
				c = color.NRGBA{v, v, v, 255}
			case 4:
				c = color.NRGBA{img.channel8(i, 0), img.channel8(i, 1), img.channel8(i, 2), img.channel8(i, 3)}
			default:
				c = color.NRGBA{img.channel8(i, 0), img.channel8(i, 1), img.channel8(i, 2), 255}
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
