// Package rastertest writes small synthetic GeoTIFFs for tests.
package rastertest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/klauspost/compress/zlib"
)

// Sample formats, matching the TIFF SampleFormat tag.
const (
	Uint  = 1
	Int   = 2
	Float = 3
)

// Compression codes supported by the writer.
const (
	None     = 1
	Deflate  = 8
	PackBits = 32773
)

// Spec describes the file to write. Data holds Width*Height*Bands samples,
// pixel-interleaved, little-endian.
type Spec struct {
	Width, Height int
	Bands         int
	Bits          int
	Format        int
	Data          []byte

	Compression  int
	Predictor    int // 2 for horizontal differencing
	TileSize     int // 0 writes strips
	RowsPerStrip int // 0 writes one strip
	Planar       bool
	BigEndian    bool

	// Transform is a GDAL geotransform. When nil no georeferencing is
	// written. Rotated transforms, or ModelTransformation set, use the
	// ModelTransformation tag; otherwise tiepoint plus pixel scale.
	Transform           *[6]float64
	ModelTransformation bool
	EPSG                int
	Geographic          bool

	ColorMap []uint16
	NoData   string
}

// Float32s encodes values little-endian.
func Float32s(vals []float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

// Uint16s encodes values little-endian.
func Uint16s(vals []uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[2*i:], v)
	}
	return out
}

// Write encodes spec and writes it to path.
func Write(path string, s Spec) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteWorldFile writes a six-line world file for gt next to a raster.
func WriteWorldFile(path string, gt [6]float64) error {
	// World files address the center of the upper-left pixel.
	c := gt[0] + 0.5*gt[1] + 0.5*gt[2]
	f := gt[3] + 0.5*gt[4] + 0.5*gt[5]
	body := fmt.Sprintf("%.12f\n%.12f\n%.12f\n%.12f\n%.12f\n%.12f\n", gt[1], gt[4], gt[2], gt[5], c, f)
	return os.WriteFile(path, []byte(body), 0o644)
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

// Encode builds a classic TIFF in memory.
func Encode(s Spec) ([]byte, error) {
	if s.Bands <= 0 {
		s.Bands = 1
	}
	if s.Format == 0 {
		s.Format = Uint
	}
	if s.Compression == 0 {
		s.Compression = None
	}
	bps := s.Bits / 8
	if len(s.Data) != s.Width*s.Height*s.Bands*bps {
		return nil, fmt.Errorf("data has %d bytes, want %d", len(s.Data), s.Width*s.Height*s.Bands*bps)
	}

	var bo binary.ByteOrder = binary.LittleEndian
	magic := []byte("II")
	if s.BigEndian {
		bo = binary.BigEndian
		magic = []byte("MM")
	}

	chunkW, chunkH := s.Width, s.Height
	if s.TileSize > 0 {
		chunkW, chunkH = s.TileSize, s.TileSize
	} else if s.RowsPerStrip > 0 {
		chunkH = s.RowsPerStrip
	}
	across := (s.Width + chunkW - 1) / chunkW
	down := (s.Height + chunkH - 1) / chunkH
	planes, spc := 1, s.Bands
	if s.Planar {
		planes, spc = s.Bands, 1
	}

	var body bytes.Buffer
	body.Write(make([]byte, 8))
	var offsets, counts []uint32

	for p := 0; p < planes; p++ {
		for cy := 0; cy < down; cy++ {
			for cx := 0; cx < across; cx++ {
				rows := chunkH
				if s.TileSize == 0 && (cy+1)*chunkH > s.Height {
					rows = s.Height - cy*chunkH
				}
				raw := extractChunk(s, p, cx*chunkW, cy*chunkH, chunkW, rows, spc, bps)
				if s.Predictor == 2 {
					applyPredictor(raw, chunkW, rows, spc, bps)
				}
				if s.BigEndian {
					swap(raw, bps)
				}
				packed, err := compress(raw, s.Compression)
				if err != nil {
					return nil, err
				}
				offsets = append(offsets, uint32(body.Len()))
				counts = append(counts, uint32(len(packed)))
				body.Write(packed)
				if body.Len()%2 == 1 {
					body.WriteByte(0)
				}
			}
		}
	}

	short := func(vals ...uint16) []byte {
		b := make([]byte, 2*len(vals))
		for i, v := range vals {
			bo.PutUint16(b[2*i:], v)
		}
		return b
	}
	long := func(vals ...uint32) []byte {
		b := make([]byte, 4*len(vals))
		for i, v := range vals {
			bo.PutUint32(b[4*i:], v)
		}
		return b
	}
	double := func(vals ...float64) []byte {
		b := make([]byte, 8*len(vals))
		for i, v := range vals {
			bo.PutUint64(b[8*i:], math.Float64bits(v))
		}
		return b
	}
	repeat := func(v uint16) []uint16 {
		out := make([]uint16, s.Bands)
		for i := range out {
			out[i] = v
		}
		return out
	}

	photometric := uint16(1)
	switch {
	case len(s.ColorMap) > 0:
		photometric = 3
	case s.Bands >= 3:
		photometric = 2
	}
	planarConfig := uint16(1)
	if s.Planar {
		planarConfig = 2
	}

	entries := []entry{
		{256, 4, 1, long(uint32(s.Width))},
		{257, 4, 1, long(uint32(s.Height))},
		{258, 3, uint32(s.Bands), short(repeat(uint16(s.Bits))...)},
		{259, 3, 1, short(uint16(s.Compression))},
		{262, 3, 1, short(photometric)},
		{277, 3, 1, short(uint16(s.Bands))},
		{284, 3, 1, short(planarConfig)},
		{339, 3, uint32(s.Bands), short(repeat(uint16(s.Format))...)},
	}
	if s.TileSize > 0 {
		entries = append(entries,
			entry{322, 4, 1, long(uint32(chunkW))},
			entry{323, 4, 1, long(uint32(chunkH))},
			entry{324, 4, uint32(len(offsets)), long(offsets...)},
			entry{325, 4, uint32(len(counts)), long(counts...)},
		)
	} else {
		entries = append(entries,
			entry{273, 4, uint32(len(offsets)), long(offsets...)},
			entry{278, 4, 1, long(uint32(chunkH))},
			entry{279, 4, uint32(len(counts)), long(counts...)},
		)
	}
	if s.Predictor > 1 {
		entries = append(entries, entry{317, 3, 1, short(uint16(s.Predictor))})
	}
	if len(s.ColorMap) > 0 {
		entries = append(entries, entry{320, 3, uint32(len(s.ColorMap)), short(s.ColorMap...)})
	}
	if s.Bands == 4 {
		entries = append(entries, entry{338, 3, 1, short(2)})
	}
	if gt := s.Transform; gt != nil {
		if s.ModelTransformation || gt[2] != 0 || gt[4] != 0 {
			entries = append(entries, entry{34264, 12, 16, double(
				gt[1], gt[2], 0, gt[0],
				gt[4], gt[5], 0, gt[3],
				0, 0, 0, 0,
				0, 0, 0, 1,
			)})
		} else {
			entries = append(entries,
				entry{33550, 12, 3, double(gt[1], -gt[5], 0)},
				entry{33922, 12, 6, double(0, 0, 0, gt[0], gt[3], 0)},
			)
		}
		modelType, crsKey := uint16(1), uint16(3072)
		if s.Geographic {
			modelType, crsKey = 2, 2048
		}
		keys := []uint16{1, 1, 0, 2, 1024, 0, 1, modelType, 1025, 0, 1, 1}
		if s.EPSG > 0 {
			keys[3] = 3
			keys = append(keys, crsKey, 0, 1, uint16(s.EPSG))
		}
		entries = append(entries, entry{34735, 3, uint32(len(keys)), short(keys...)})
	}
	if s.NoData != "" {
		v := append([]byte(s.NoData), 0)
		entries = append(entries, entry{42113, 2, uint32(len(v)), v})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	ifdOffset := uint32(body.Len())
	extOffset := ifdOffset + 2 + 12*uint32(len(entries)) + 4
	var ifd, ext bytes.Buffer
	ifd.Write(short(uint16(len(entries))))
	for _, e := range entries {
		ifd.Write(short(e.tag, e.typ))
		ifd.Write(long(e.count))
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			ifd.Write(v)
			continue
		}
		ifd.Write(long(extOffset + uint32(ext.Len())))
		ext.Write(e.data)
		if ext.Len()%2 == 1 {
			ext.WriteByte(0)
		}
	}
	ifd.Write(long(0))

	out := body.Bytes()
	copy(out[0:2], magic)
	bo.PutUint16(out[2:4], 42)
	bo.PutUint32(out[4:8], ifdOffset)
	out = append(out, ifd.Bytes()...)
	out = append(out, ext.Bytes()...)
	return out, nil
}

// extractChunk copies one chunk's samples out of the interleaved image,
// zero-padding past the image edge.
func extractChunk(s Spec, plane, x0, y0, w, h, spc, bps int) []byte {
	out := make([]byte, w*h*spc*bps)
	for y := 0; y < h; y++ {
		sy := y0 + y
		if sy >= s.Height {
			break
		}
		for x := 0; x < w; x++ {
			sx := x0 + x
			if sx >= s.Width {
				break
			}
			for c := 0; c < spc; c++ {
				band := c
				if s.Planar {
					band = plane
				}
				src := ((sy*s.Width+sx)*s.Bands + band) * bps
				dst := ((y*w+x)*spc + c) * bps
				copy(out[dst:dst+bps], s.Data[src:src+bps])
			}
		}
	}
	return out
}

// applyPredictor performs horizontal differencing on little-endian samples.
func applyPredictor(data []byte, w, h, spc, bps int) {
	rowBytes := w * spc * bps
	n := w * spc
	for y := 0; y < h; y++ {
		row := data[y*rowBytes : (y+1)*rowBytes]
		for i := n - 1; i >= spc; i-- {
			switch bps {
			case 1:
				row[i] -= row[i-spc]
			case 2:
				v := binary.LittleEndian.Uint16(row[2*i:]) - binary.LittleEndian.Uint16(row[2*(i-spc):])
				binary.LittleEndian.PutUint16(row[2*i:], v)
			case 4:
				v := binary.LittleEndian.Uint32(row[4*i:]) - binary.LittleEndian.Uint32(row[4*(i-spc):])
				binary.LittleEndian.PutUint32(row[4*i:], v)
			}
		}
	}
}

func swap(data []byte, bps int) {
	for i := 0; i+bps <= len(data); i += bps {
		for a, b := i, i+bps-1; a < b; a, b = a+1, b-1 {
			data[a], data[b] = data[b], data[a]
		}
	}
}

func compress(raw []byte, scheme int) ([]byte, error) {
	switch scheme {
	case None:
		return raw, nil
	case Deflate:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case PackBits:
		return packBits(raw), nil
	default:
		return nil, fmt.Errorf("rastertest: unsupported compression %d", scheme)
	}
}

// packBits encodes runs of three or more equal bytes as repeats and
// everything else as literals.
func packBits(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < 128 {
			run++
		}
		if run >= 3 {
			out = append(out, byte(int8(1-run)), src[i])
			i += run
			continue
		}
		start := i
		for i < len(src) && i-start < 128 {
			if i+2 < len(src) && src[i] == src[i+1] && src[i] == src[i+2] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, src[start:i]...)
	}
	return out
}
