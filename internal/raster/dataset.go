package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pspoerri/terrainview/internal/coord"
)

var (
	// ErrLoad wraps every failure to open or read a raster.
	ErrLoad = errors.New("raster load failure")
	// ErrNoGeoTransform is returned when neither GeoTIFF tags nor a world
	// file georeference the raster.
	ErrNoGeoTransform = errors.New("raster has no geotransform")
)

// Dataset provides row and band access to a TIFF/GeoTIFF/BigTIFF file.
// The file is memory-mapped where the platform allows it.
type Dataset struct {
	data    []byte
	release func() error
	bo      binary.ByteOrder
	ifd     *IFD
	nIFD    int
	geo     GeoInfo
	world   string // world file used for georeferencing, if any
	path    string
	cache   *chunkCache
}

// Open memory-maps a TIFF file and parses its first (full resolution) image.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v: %w", path, err, ErrLoad)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %v: %w", path, err, ErrLoad)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: empty file: %w", path, ErrLoad)
	}

	data, release, err := mapFile(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %v: %w", path, err, ErrLoad)
	}

	ds, err := newDataset(path, data, release)
	if err != nil {
		release()
		return nil, err
	}
	return ds, nil
}

func newDataset(path string, data []byte, release func() error) (*Dataset, error) {
	ifds, bo, err := parseTIFF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %v: %w", path, err, ErrLoad)
	}
	if len(ifds) == 0 {
		return nil, fmt.Errorf("%s: no IFDs found: %w", path, ErrLoad)
	}

	ifd := &ifds[0]
	if err := validateIFD(ifd); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrLoad)
	}

	ds := &Dataset{
		data:    data,
		release: release,
		bo:      bo,
		ifd:     ifd,
		nIFD:    len(ifds),
		geo:     parseGeoInfo(ifd),
		path:    path,
		cache:   newChunkCache(2 * ifd.ChunksAcross() * int(ifd.SamplesPerPixel)),
	}

	if !ds.geo.HasTransform {
		if wf := findWorldFile(path); wf != "" {
			tfw, err := parseWorldFile(wf)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", err, ErrLoad)
			}
			ds.geo.Transform = tfw.GeoTransform()
			ds.geo.HasTransform = true
			ds.world = wf
		}
	}
	return ds, nil
}

func validateIFD(ifd *IFD) error {
	if ifd.Width == 0 || ifd.Height == 0 {
		return fmt.Errorf("invalid dimensions %dx%d", ifd.Width, ifd.Height)
	}
	if ifd.SamplesPerPixel == 0 {
		return fmt.Errorf("zero samples per pixel")
	}
	bits := ifd.Bits()
	for _, b := range ifd.BitsPerSample {
		if int(b) != bits {
			return fmt.Errorf("mixed bit depths %v are not supported", ifd.BitsPerSample)
		}
	}
	switch bits {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("unsupported bit depth %d", bits)
	}
	switch ifd.Format() {
	case SampleUint, SampleInt:
	case SampleFloat:
		if bits != 32 && bits != 64 {
			return fmt.Errorf("unsupported %d-bit floating point samples", bits)
		}
	default:
		return fmt.Errorf("unsupported sample format %d", ifd.Format())
	}
	if ifd.PlanarConfig != 1 && ifd.PlanarConfig != 2 {
		return fmt.Errorf("unsupported planar configuration %d", ifd.PlanarConfig)
	}

	want := ifd.ChunksAcross() * ifd.ChunksDown()
	if ifd.PlanarConfig == 2 {
		want *= int(ifd.SamplesPerPixel)
	}
	if len(ifd.ChunkOffsets()) < want || len(ifd.ChunkByteCounts()) < want {
		return fmt.Errorf("expected %d chunk offsets, have %d", want, len(ifd.ChunkOffsets()))
	}
	return nil
}

// Close unmaps the file.
func (d *Dataset) Close() error {
	if d.data == nil {
		return nil
	}
	err := d.release()
	d.data = nil
	d.cache.reset()
	return err
}

// Path returns the file path.
func (d *Dataset) Path() string { return d.path }

// Width returns the raster width in pixels.
func (d *Dataset) Width() int { return int(d.ifd.Width) }

// Height returns the raster height in pixels.
func (d *Dataset) Height() int { return int(d.ifd.Height) }

// Bands returns the number of samples per pixel.
func (d *Dataset) Bands() int { return int(d.ifd.SamplesPerPixel) }

// BitsPerSample returns the bit depth shared by all bands.
func (d *Dataset) BitsPerSample() int { return d.ifd.Bits() }

// SampleFormat returns SampleUint, SampleInt or SampleFloat.
func (d *Dataset) SampleFormat() int { return d.ifd.Format() }

// Compression returns the TIFF compression code.
func (d *Dataset) Compression() int { return int(d.ifd.Compression) }

// Tiled reports whether the raster is tiled.
func (d *Dataset) Tiled() bool { return d.ifd.Tiled() }

// ChunkSize returns the tile or strip size in pixels.
func (d *Dataset) ChunkSize() (int, int) { return d.ifd.ChunkSize() }

// IFDCount returns the number of images in the file (full resolution plus overviews and masks).
func (d *Dataset) IFDCount() int { return d.nIFD }

// EPSG returns the CRS code from the GeoKeys, 0 if unknown.
func (d *Dataset) EPSG() int { return d.geo.EPSG }

// GeoInfo returns the parsed georeferencing.
func (d *Dataset) GeoInfo() GeoInfo { return d.geo }

// WorldFile returns the sidecar used for georeferencing, or "".
func (d *Dataset) WorldFile() string { return d.world }

// GeoTransform returns the pixel-to-CRS transform as stored in the file.
func (d *Dataset) GeoTransform() (coord.GeoTransform, error) {
	if !d.geo.HasTransform {
		return coord.GeoTransform{}, fmt.Errorf("%s: %w", d.path, ErrNoGeoTransform)
	}
	return d.geo.Transform, nil
}

// DataType names the sample type the way GDAL does.
func (d *Dataset) DataType() string {
	bits := d.BitsPerSample()
	switch d.SampleFormat() {
	case SampleFloat:
		return "Float" + strconv.Itoa(bits)
	case SampleInt:
		if bits == 8 {
			return "Int8"
		}
		return "Int" + strconv.Itoa(bits)
	default:
		if bits == 8 {
			return "Byte"
		}
		return "UInt" + strconv.Itoa(bits)
	}
}

// ColorTable returns the palette of an 8-bit paletted image, with 16-bit
// entries scaled to 8 bits.
func (d *Dataset) ColorTable() ([]color.RGBA, bool) {
	cm := d.ifd.ColorMap
	if len(cm) == 0 || len(cm)%3 != 0 {
		return nil, false
	}
	n := len(cm) / 3
	table := make([]color.RGBA, n)
	for i := range table {
		table[i] = color.RGBA{
			R: uint8(cm[i] / 257),
			G: uint8(cm[n+i] / 257),
			B: uint8(cm[2*n+i] / 257),
			A: 255,
		}
	}
	return table, true
}

// NoData returns the GDAL_NODATA value if the file declares one.
func (d *Dataset) NoData() (float64, bool) {
	s := strings.TrimSpace(d.ifd.NoData)
	if s == "" {
		return 0, false
	}
	if strings.EqualFold(s, "nan") {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// sampleBytes is the size of one sample in bytes.
func (d *Dataset) sampleBytes() int { return d.ifd.Bits() / 8 }

// ScanlineSize is the byte length of one pixel-interleaved row.
func (d *Dataset) ScanlineSize() int {
	return d.Width() * d.Bands() * d.sampleBytes()
}

// chunk returns the decoded chunk at (cx, cy) of the given plane.
func (d *Dataset) chunk(plane, cx, cy int) ([]byte, chunkLayout, error) {
	ifd := d.ifd
	cw, ch := ifd.ChunkSize()
	l := chunkLayout{width: cw, height: ch, samples: int(ifd.SamplesPerPixel), bytes: d.sampleBytes()}
	if ifd.PlanarConfig == 2 {
		l.samples = 1
	}

	if d.data == nil {
		return nil, l, fmt.Errorf("%s: dataset is closed: %w", d.path, ErrLoad)
	}

	across := ifd.ChunksAcross()
	idx := plane*across*ifd.ChunksDown() + cy*across + cx
	key := chunkKey{plane: plane, index: idx}
	if cached := d.cache.get(key); cached != nil {
		return cached, l, nil
	}

	offset := ifd.ChunkOffsets()[idx]
	size := ifd.ChunkByteCounts()[idx]

	var decoded []byte
	if size == 0 {
		// Sparse chunk.
		decoded = make([]byte, l.size())
	} else {
		end := offset + size
		if end > uint64(len(d.data)) {
			return nil, l, fmt.Errorf("chunk %d data [%d:%d] exceeds file size %d: %w", idx, offset, end, len(d.data), ErrLoad)
		}
		var err error
		decoded, err = decodeChunk(ifd, d.bo, d.data[offset:end], l)
		if err != nil {
			return nil, l, fmt.Errorf("chunk %d: %v: %w", idx, err, ErrLoad)
		}
	}

	d.cache.put(key, decoded)
	return decoded, l, nil
}

// ReadScanline fills dst with row's samples, pixel-interleaved, in
// little-endian byte order. dst must hold ScanlineSize bytes.
func (d *Dataset) ReadScanline(row int, dst []byte) error {
	if row < 0 || row >= d.Height() {
		return fmt.Errorf("row %d out of range [0,%d): %w", row, d.Height(), ErrLoad)
	}
	if len(dst) < d.ScanlineSize() {
		return fmt.Errorf("scanline buffer too small (%d < %d)", len(dst), d.ScanlineSize())
	}

	ifd := d.ifd
	cw, ch := ifd.ChunkSize()
	cy, ly := row/ch, row%ch
	spp := d.Bands()
	bps := d.sampleBytes()

	for cx := 0; cx < ifd.ChunksAcross(); cx++ {
		x0 := cx * cw
		n := min(cw, d.Width()-x0)

		if ifd.PlanarConfig != 2 {
			c, l, err := d.chunk(0, cx, cy)
			if err != nil {
				return err
			}
			start := ly * l.rowBytes()
			copy(dst[x0*spp*bps:(x0+n)*spp*bps], c[start:start+n*spp*bps])
			continue
		}

		for p := 0; p < spp; p++ {
			c, l, err := d.chunk(p, cx, cy)
			if err != nil {
				return err
			}
			start := ly * l.rowBytes()
			for x := 0; x < n; x++ {
				o := ((x0+x)*spp + p) * bps
				copy(dst[o:o+bps], c[start+x*bps:start+(x+1)*bps])
			}
		}
	}
	return nil
}

// sampleValue decodes one little-endian sample.
func sampleValue(b []byte, bits, format int) float64 {
	switch bits {
	case 8:
		if format == SampleInt {
			return float64(int8(b[0]))
		}
		return float64(b[0])
	case 16:
		v := binary.LittleEndian.Uint16(b)
		if format == SampleInt {
			return float64(int16(v))
		}
		return float64(v)
	case 32:
		v := binary.LittleEndian.Uint32(b)
		switch format {
		case SampleFloat:
			return float64(math.Float32frombits(v))
		case SampleInt:
			return float64(int32(v))
		}
		return float64(v)
	case 64:
		v := binary.LittleEndian.Uint64(b)
		switch format {
		case SampleFloat:
			return math.Float64frombits(v)
		case SampleInt:
			return float64(int64(v))
		}
		return float64(v)
	}
	return 0
}

// readBand walks one band row by row and hands every sample to fn.
func (d *Dataset) readBand(band int, fn func(i int, v float64)) error {
	if band < 1 || band > d.Bands() {
		return fmt.Errorf("band %d out of range [1,%d]: %w", band, d.Bands(), ErrLoad)
	}
	w := d.Width()
	spp := d.Bands()
	bps := d.sampleBytes()
	bits, format := d.BitsPerSample(), d.SampleFormat()
	line := make([]byte, d.ScanlineSize())

	for y := 0; y < d.Height(); y++ {
		if err := d.ReadScanline(y, line); err != nil {
			return fmt.Errorf("reading row %d of %s: %w", y, d.path, err)
		}
		for x := 0; x < w; x++ {
			o := (x*spp + band - 1) * bps
			fn(y*w+x, sampleValue(line[o:o+bps], bits, format))
		}
	}
	return nil
}

// ReadBandFloat32 reads a band (1-based) as row-major float32 values.
func (d *Dataset) ReadBandFloat32(band int) ([]float32, error) {
	out := make([]float32, d.Width()*d.Height())
	err := d.readBand(band, func(i int, v float64) { out[i] = float32(v) })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadBandUint16 reads a band as unsigned 16-bit values. Values outside
// [0, 65535] saturate, so negative signed samples read as 0.
func (d *Dataset) ReadBandUint16(band int) ([]uint16, error) {
	out := make([]uint16, d.Width()*d.Height())
	err := d.readBand(band, func(i int, v float64) {
		switch {
		case v <= 0 || math.IsNaN(v):
			out[i] = 0
		case v >= math.MaxUint16:
			out[i] = math.MaxUint16
		default:
			out[i] = uint16(v + 0.5)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadBandUint8 reads a band as bytes, saturating to [0, 255].
func (d *Dataset) ReadBandUint8(band int) ([]uint8, error) {
	out := make([]uint8, d.Width()*d.Height())
	err := d.readBand(band, func(i int, v float64) {
		switch {
		case v <= 0 || math.IsNaN(v):
			out[i] = 0
		case v >= math.MaxUint8:
			out[i] = math.MaxUint8
		default:
			out[i] = uint8(v + 0.5)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
