package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/klauspost/compress/zlib"
)

// chunkLayout describes the decoded shape of one tile or strip.
type chunkLayout struct {
	width   int // pixels per row
	height  int // rows
	samples int // samples per pixel stored in this chunk
	bytes   int // bytes per sample
}

func (l chunkLayout) rowBytes() int { return l.width * l.samples * l.bytes }
func (l chunkLayout) size() int     { return l.rowBytes() * l.height }

// decodeChunk decompresses one chunk and returns its samples in
// little-endian byte order with any predictor undone.
func decodeChunk(ifd *IFD, bo binary.ByteOrder, raw []byte, l chunkLayout) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch ifd.Compression {
	case compressionNone:
		data = append(make([]byte, 0, l.size()), raw...)
	case compressionLZW:
		data, err = decodeLZW(raw, l.size())
	case compressionDeflate, compressionDeflate2:
		data, err = inflate(raw, l.size())
	case compressionPackBits:
		data, err = unpackBits(raw, l.size())
	case compressionJPEG:
		// JPEG output is 8-bit and never predicted.
		data, err = decodeJPEGChunk(ifd.JPEGTables, raw, l)
		if err != nil {
			return nil, err
		}
		return fitLength(data, l.size()), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %d", ifd.Compression)
	}
	if err != nil {
		return nil, fmt.Errorf("decompressing chunk (compression %d): %w", ifd.Compression, err)
	}

	data = fitLength(data, l.size())

	switch ifd.Predictor {
	case 1:
		swapToLittleEndian(data, bo, l.bytes)
	case 2:
		swapToLittleEndian(data, bo, l.bytes)
		undoHorizontalPredictor(data, l)
	case 3:
		undoFloatPredictor(data, l)
	default:
		return nil, fmt.Errorf("unsupported predictor: %d", ifd.Predictor)
	}
	return data, nil
}

// fitLength pads a short chunk (last strip, truncated stream) with zeros or
// trims trailing bytes.
func fitLength(data []byte, n int) []byte {
	if len(data) >= n {
		return data[:n]
	}
	return append(data, make([]byte, n-len(data))...)
}

func inflate(raw []byte, sizeHint int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	buf := bytes.NewBuffer(make([]byte, 0, sizeHint))
	if _, err := io.Copy(buf, zr); err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unpackBits decodes Apple PackBits run-length data.
func unpackBits(src []byte, sizeHint int) ([]byte, error) {
	out := make([]byte, 0, sizeHint)
	for i := 0; i < len(src); {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			end := i + n + 1
			if end > len(src) {
				return nil, fmt.Errorf("packbits: literal run of %d overruns input", n+1)
			}
			out = append(out, src[i:end]...)
			i = end
		case n != -128:
			if i >= len(src) {
				return nil, fmt.Errorf("packbits: missing repeat byte")
			}
			for k := 0; k < 1-n; k++ {
				out = append(out, src[i])
			}
			i++
		}
	}
	return out, nil
}

// decodeJPEGChunk decodes a JPEG tile or strip, splicing in the shared
// JPEGTables when present.
func decodeJPEGChunk(tables, data []byte, l chunkLayout) ([]byte, error) {
	jpegData := data
	if len(tables) > 0 {
		// Strip the trailing EOI from tables and the leading SOI from data.
		if len(tables) >= 2 && tables[len(tables)-2] == 0xFF && tables[len(tables)-1] == 0xD9 {
			tables = tables[:len(tables)-2]
		}
		if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 {
			data = data[2:]
		}
		jpegData = make([]byte, 0, len(tables)+len(data))
		jpegData = append(jpegData, tables...)
		jpegData = append(jpegData, data...)
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("decoding JPEG chunk: %w", err)
	}

	out := make([]byte, 0, l.size())
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && l.samples == 1 {
		for y := 0; y < l.height && y < b.Dy(); y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+min(l.width, b.Dx())]
			out = append(out, row...)
			out = append(out, make([]byte, l.width-len(row))...)
		}
		return out, nil
	}
	for y := 0; y < l.height; y++ {
		for x := 0; x < l.width; x++ {
			if x >= b.Dx() || y >= b.Dy() {
				out = append(out, make([]byte, l.samples)...)
				continue
			}
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			px := [3]byte{byte(r >> 8), byte(g >> 8), byte(bb >> 8)}
			for s := 0; s < l.samples; s++ {
				out = append(out, px[min(s, 2)])
			}
		}
	}
	return out, nil
}

func swapToLittleEndian(data []byte, bo binary.ByteOrder, sampleBytes int) {
	if bo == binary.LittleEndian || sampleBytes == 1 {
		return
	}
	for i := 0; i+sampleBytes <= len(data); i += sampleBytes {
		for a, b := i, i+sampleBytes-1; a < b; a, b = a+1, b-1 {
			data[a], data[b] = data[b], data[a]
		}
	}
}

// undoHorizontalPredictor reverses TIFF predictor 2 on little-endian samples.
func undoHorizontalPredictor(data []byte, l chunkLayout) {
	rowBytes := l.rowBytes()
	stride := l.samples
	for y := 0; y < l.height; y++ {
		row := data[y*rowBytes : (y+1)*rowBytes]
		n := l.width * l.samples
		switch l.bytes {
		case 1:
			for i := stride; i < n; i++ {
				row[i] += row[i-stride]
			}
		case 2:
			for i := stride; i < n; i++ {
				v := binary.LittleEndian.Uint16(row[2*i:]) + binary.LittleEndian.Uint16(row[2*(i-stride):])
				binary.LittleEndian.PutUint16(row[2*i:], v)
			}
		case 4:
			for i := stride; i < n; i++ {
				v := binary.LittleEndian.Uint32(row[4*i:]) + binary.LittleEndian.Uint32(row[4*(i-stride):])
				binary.LittleEndian.PutUint32(row[4*i:], v)
			}
		case 8:
			for i := stride; i < n; i++ {
				v := binary.LittleEndian.Uint64(row[8*i:]) + binary.LittleEndian.Uint64(row[8*(i-stride):])
				binary.LittleEndian.PutUint64(row[8*i:], v)
			}
		}
	}
}

// undoFloatPredictor reverses TIFF predictor 3: byte-wise differencing over
// a row whose sample bytes are stored as most-significant-byte planes. The
// output is little-endian regardless of the file byte order.
func undoFloatPredictor(data []byte, l chunkLayout) {
	rowBytes := l.rowBytes()
	count := l.width * l.samples
	tmp := make([]byte, rowBytes)
	for y := 0; y < l.height; y++ {
		row := data[y*rowBytes : (y+1)*rowBytes]
		for i := l.samples; i < rowBytes; i++ {
			row[i] += row[i-l.samples]
		}
		copy(tmp, row)
		for i := 0; i < count; i++ {
			for b := 0; b < l.bytes; b++ {
				row[l.bytes*i+b] = tmp[(l.bytes-b-1)*count+i]
			}
		}
	}
}
