package texture

import (
	"fmt"
	"log"

	"github.com/nfnt/resize"

	"github.com/pspoerri/terrainview/internal/coord"
	"github.com/pspoerri/terrainview/internal/raster"
)

// DefaultMaxSize is the largest texture edge uploaded without downsizing.
const DefaultMaxSize = 8192

// Normalize reads ds into an Image georeferenced by gt. Paletted and gray
// 8-bit rasters expand to RGB, 16-bit rasters are contrast stretched to
// 8 bits, and everything else is passed through as-is when a GPU format
// exists for it.
func Normalize(ds *raster.Dataset, gt coord.GeoTransform) (*Image, error) {
	var (
		img *Image
		err error
	)
	bits, format := ds.BitsPerSample(), ds.SampleFormat()
	switch {
	case ds.Bands() == 1 && bits == 8 && format == raster.SampleUint:
		img, err = expandPalette(ds)
	case bits == 16 && format != raster.SampleFloat:
		img, err = stretchBands(ds)
	default:
		img, err = readNative(ds)
	}
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", ds.Path(), err)
	}
	img.Transform = gt
	img.SourceWidth, img.SourceHeight = img.Width, img.Height
	return img, nil
}

// expandPalette maps single-band bytes through the color table, or a gray
// ramp when the raster has none.
func expandPalette(ds *raster.Dataset) (*Image, error) {
	vals, err := ds.ReadBandUint8(1)
	if err != nil {
		return nil, err
	}

	var lut [256][3]uint8
	for i := range lut {
		lut[i] = [3]uint8{uint8(i), uint8(i), uint8(i)}
	}
	if table, ok := ds.ColorTable(); ok {
		for i := 0; i < len(table) && i < len(lut); i++ {
			lut[i] = [3]uint8{table[i].R, table[i].G, table[i].B}
		}
	}

	img := newRGB8(ds.Width(), ds.Height(), 3)
	for i, v := range vals {
		copy(img.Pix[3*i:3*i+3], lut[v][:])
	}
	return img, nil
}

// stretchBands stretches each 16-bit band independently. One band becomes
// gray RGB, four bands keep alpha, and any other count uses the first three.
func stretchBands(ds *raster.Dataset) (*Image, error) {
	bands := ds.Bands()
	src := 3
	switch {
	case bands == 1 || bands == 2:
		src = 1
	case bands == 4:
		src = 4
	}
	channels := max(src, 3)

	img := newRGB8(ds.Width(), ds.Height(), channels)
	for b := 0; b < src; b++ {
		vals, err := ds.ReadBandUint16(b + 1)
		if err != nil {
			return nil, err
		}
		out := Stretch16(vals)
		for i, v := range out {
			if src == 1 {
				img.Pix[3*i], img.Pix[3*i+1], img.Pix[3*i+2] = v, v, v
				continue
			}
			img.Pix[i*channels+b] = v
		}
	}
	return img, nil
}

// readNative copies scanlines unchanged.
func readNative(ds *raster.Dataset) (*Image, error) {
	bits := ds.BitsPerSample()
	float := ds.SampleFormat() == raster.SampleFloat
	if f := ds.SampleFormat(); f != raster.SampleUint && f != raster.SampleFloat {
		return nil, fmt.Errorf("sample format %d: %w", f, ErrUnsupportedFormat)
	}
	pf, ifmt, dt, err := describe(ds.Bands(), bits, float)
	if err != nil {
		return nil, err
	}

	img := &Image{
		Width:          ds.Width(),
		Height:         ds.Height(),
		Channels:       ds.Bands(),
		BitDepth:       bits,
		Float:          float,
		Format:         pf,
		InternalFormat: ifmt,
		DataType:       dt,
	}
	stride := img.Stride()
	img.Pix = make([]byte, stride*img.Height)
	for y := 0; y < img.Height; y++ {
		if err := ds.ReadScanline(y, img.Pix[y*stride:(y+1)*stride]); err != nil {
			return nil, fmt.Errorf("reading scanline %d: %w", y, err)
		}
	}
	return img, nil
}

// Fit downsizes img so neither edge exceeds maxSize. The result is 8-bit
// RGB or RGBA and keeps the source footprint. Images that already fit are
// returned unchanged.
func Fit(img *Image, maxSize int) *Image {
	if maxSize <= 0 || (img.Width <= maxSize && img.Height <= maxSize) {
		return img
	}
	small := resize.Thumbnail(uint(maxSize), uint(maxSize), img.ToImage(), resize.Lanczos3)
	b := small.Bounds()

	channels := 3
	if img.Channels == 4 {
		channels = 4
	}
	out := newRGB8(b.Dx(), b.Dy(), channels)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := small.At(b.Min.X+x, b.Min.Y+y).RGBA()
			o := (y*b.Dx() + x) * channels
			out.Pix[o], out.Pix[o+1], out.Pix[o+2] = uint8(r>>8), uint8(g>>8), uint8(bl>>8)
			if channels == 4 {
				out.Pix[o+3] = uint8(a >> 8)
			}
		}
	}
	fp := img.Footprint()
	out.Transform = fp.Transform
	out.SourceWidth, out.SourceHeight = fp.Width, fp.Height
	return out
}

// Load opens an imagery raster, georeferences it through l and normalizes
// it, downsizing to maxSize when it is larger.
func Load(l *raster.Loader, path string, maxSize int) (*Image, error) {
	ds, err := raster.Open(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	gt, err := l.Georeference(ds)
	if err != nil {
		return nil, err
	}
	img, err := Normalize(ds, gt)
	if err != nil {
		return nil, err
	}

	fitted := Fit(img, maxSize)
	if l.Verbose {
		log.Printf("Loaded texture %s: %dx%d %s/%s -> %dx%d %s",
			path, img.Width, img.Height, img.InternalFormat, img.DataType,
			fitted.Width, fitted.Height, fitted.InternalFormat)
	}
	return fitted, nil
}
