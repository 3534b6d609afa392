package raster

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// TIFF tag IDs.
const (
	tagNewSubfileType      = 254
	tagImageWidth          = 256
	tagImageLength         = 257
	tagBitsPerSample       = 258
	tagCompression         = 259
	tagPhotometric         = 262
	tagStripOffsets        = 273
	tagSamplesPerPixel     = 277
	tagRowsPerStrip        = 278
	tagStripByteCounts     = 279
	tagPlanarConfig        = 284
	tagPredictor           = 317
	tagColorMap            = 320
	tagTileWidth           = 322
	tagTileLength          = 323
	tagTileOffsets         = 324
	tagTileByteCounts      = 325
	tagSampleFormat        = 339
	tagJPEGTables          = 347
	tagModelPixelScaleTag  = 33550
	tagModelTiepointTag    = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectoryTag  = 34735
	tagGeoDoubleParamsTag  = 34736
	tagGeoAsciiParamsTag   = 34737
	tagGDALNoData          = 42113
)

// TIFF data types.
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndef     = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
	dtLong8     = 16
	dtSLong8    = 17
	dtIFD8      = 18
)

// Compression schemes.
const (
	compressionNone     = 1
	compressionLZW      = 5
	compressionOldJPEG  = 6
	compressionJPEG     = 7
	compressionDeflate  = 8
	compressionPackBits = 32773
	compressionDeflate2 = 32946
)

// Sample formats.
const (
	SampleUint  = 1
	SampleInt   = 2
	SampleFloat = 3
)

// maxIFDEntries guards against corrupt entry counts.
const maxIFDEntries = 4096

// IFD represents a parsed TIFF Image File Directory.
type IFD struct {
	SubfileType         uint32
	Width               uint32
	Height              uint32
	BitsPerSample       []uint16
	SamplesPerPixel     uint16
	SampleFormat        []uint16
	Compression         uint16
	Photometric         uint16
	PlanarConfig        uint16
	Predictor           uint16
	RowsPerStrip        uint32
	StripOffsets        []uint64
	StripByteCounts     []uint64
	TileWidth           uint32
	TileHeight          uint32
	TileOffsets         []uint64
	TileByteCounts      []uint64
	ColorMap            []uint16
	JPEGTables          []byte
	ModelTiepoint       []float64
	ModelPixelScale     []float64
	ModelTransformation []float64
	GeoKeys             []uint16
	GeoDoubleParams     []float64
	GeoAsciiParams      string
	NoData              string
}

// Tiled reports whether the image uses tile layout rather than strips.
func (ifd *IFD) Tiled() bool {
	return ifd.TileWidth > 0 && ifd.TileHeight > 0
}

// ChunkSize returns the pixel size of one tile or strip.
func (ifd *IFD) ChunkSize() (w, h int) {
	if ifd.Tiled() {
		return int(ifd.TileWidth), int(ifd.TileHeight)
	}
	rows := ifd.RowsPerStrip
	if rows == 0 || rows > ifd.Height {
		rows = ifd.Height
	}
	return int(ifd.Width), int(rows)
}

// ChunksAcross returns the number of chunks in the horizontal direction.
func (ifd *IFD) ChunksAcross() int {
	w, _ := ifd.ChunkSize()
	return (int(ifd.Width) + w - 1) / w
}

// ChunksDown returns the number of chunks in the vertical direction.
func (ifd *IFD) ChunksDown() int {
	_, h := ifd.ChunkSize()
	return (int(ifd.Height) + h - 1) / h
}

// ChunkOffsets returns tile or strip offsets.
func (ifd *IFD) ChunkOffsets() []uint64 {
	if ifd.Tiled() {
		return ifd.TileOffsets
	}
	return ifd.StripOffsets
}

// ChunkByteCounts returns tile or strip byte counts.
func (ifd *IFD) ChunkByteCounts() []uint64 {
	if ifd.Tiled() {
		return ifd.TileByteCounts
	}
	return ifd.StripByteCounts
}

// Bits returns the bit depth of the first sample.
func (ifd *IFD) Bits() int {
	if len(ifd.BitsPerSample) == 0 {
		return 1
	}
	return int(ifd.BitsPerSample[0])
}

// Format returns the sample format of the first sample.
func (ifd *IFD) Format() int {
	if len(ifd.SampleFormat) == 0 {
		return SampleUint
	}
	return int(ifd.SampleFormat[0])
}

// tiffEntry is a raw TIFF directory entry.
type tiffEntry struct {
	Tag      uint16
	DataType uint16
	Count    uint64
	Value    []byte // raw value bytes or inline value
}

// parseTIFF reads all IFDs from a TIFF file.
func parseTIFF(r io.ReadSeeker) ([]IFD, binary.ByteOrder, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, nil, fmt.Errorf("reading TIFF header: %w", err)
	}

	var bo binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("invalid TIFF byte order: %x", header[0:2])
	}

	magic := bo.Uint16(header[2:4])
	isBigTIFF := magic == 43
	if magic != 42 && magic != 43 {
		return nil, nil, fmt.Errorf("invalid TIFF magic: %d", magic)
	}

	var firstIFDOffset uint64
	if isBigTIFF {
		// BigTIFF: bytes 4-5 = offset size (8), bytes 6-7 = 0, bytes 8-15 = first IFD offset
		var bigHeader [8]byte
		if _, err := io.ReadFull(r, bigHeader[:]); err != nil {
			return nil, nil, fmt.Errorf("reading BigTIFF header: %w", err)
		}
		firstIFDOffset = bo.Uint64(bigHeader[:])
	} else {
		firstIFDOffset = uint64(bo.Uint32(header[4:8]))
	}

	var ifds []IFD
	seen := make(map[uint64]bool)
	for offset := firstIFDOffset; offset != 0; {
		if seen[offset] {
			return nil, nil, fmt.Errorf("IFD loop at offset %d", offset)
		}
		seen[offset] = true

		ifd, next, err := parseOneIFD(r, bo, offset, isBigTIFF)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing IFD at offset %d: %w", offset, err)
		}
		ifds = append(ifds, ifd)
		offset = next
	}

	return ifds, bo, nil
}

func parseOneIFD(r io.ReadSeeker, bo binary.ByteOrder, offset uint64, bigTIFF bool) (IFD, uint64, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return IFD{}, 0, err
	}

	countSize, entrySize, nextSize := 2, 12, 4
	if bigTIFF {
		countSize, entrySize, nextSize = 8, 20, 8
	}

	buf := make([]byte, countSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return IFD{}, 0, err
	}
	numEntries := readOffset(buf, bo)
	if numEntries > maxIFDEntries {
		return IFD{}, 0, fmt.Errorf("implausible entry count %d", numEntries)
	}

	raw := make([]byte, int(numEntries)*entrySize+nextSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return IFD{}, 0, err
	}

	entries := make([]tiffEntry, numEntries)
	for i := range entries {
		entries[i] = parseTiffEntry(raw[i*entrySize:(i+1)*entrySize], bo, bigTIFF)
	}
	nextOffset := readOffset(raw[len(raw)-nextSize:], bo)

	for i := range entries {
		if err := resolveEntry(r, bo, &entries[i], bigTIFF); err != nil {
			return IFD{}, 0, fmt.Errorf("resolving entry tag %d: %w", entries[i].Tag, err)
		}
	}

	return buildIFD(entries, bo), nextOffset, nil
}

func readOffset(b []byte, bo binary.ByteOrder) uint64 {
	switch len(b) {
	case 2:
		return uint64(bo.Uint16(b))
	case 4:
		return uint64(bo.Uint32(b))
	default:
		return bo.Uint64(b)
	}
}

func parseTiffEntry(buf []byte, bo binary.ByteOrder, bigTIFF bool) tiffEntry {
	e := tiffEntry{
		Tag:      bo.Uint16(buf[0:2]),
		DataType: bo.Uint16(buf[2:4]),
	}
	if bigTIFF {
		e.Count = bo.Uint64(buf[4:12])
		e.Value = append([]byte(nil), buf[12:20]...)
	} else {
		e.Count = uint64(bo.Uint32(buf[4:8]))
		e.Value = append([]byte(nil), buf[8:12]...)
	}
	return e
}

func dataTypeSize(dt uint16) int {
	switch dt {
	case dtByte, dtASCII, dtSByte, dtUndef:
		return 1
	case dtShort, dtSShort:
		return 2
	case dtLong, dtSLong, dtFloat:
		return 4
	case dtRational, dtSRational, dtDouble, dtLong8, dtSLong8, dtIFD8:
		return 8
	default:
		return 1
	}
}

// resolveEntry reads the actual data for an entry if it doesn't fit inline.
// Counts whose data would not fit in the file are rejected before any
// allocation.
func resolveEntry(r io.ReadSeeker, bo binary.ByteOrder, e *tiffEntry, bigTIFF bool) error {
	typeSize := uint64(dataTypeSize(e.DataType))
	if typeSize != 0 && e.Count > math.MaxUint64/typeSize {
		return fmt.Errorf("value count %d overflows", e.Count)
	}
	totalSize := e.Count * typeSize

	inlineSize := 4
	if bigTIFF {
		inlineSize = 8
	}
	if totalSize <= uint64(inlineSize) {
		return nil
	}

	fileSize, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	dataOffset := readOffset(e.Value[:inlineSize], bo)
	if totalSize > uint64(fileSize) || dataOffset > uint64(fileSize)-totalSize {
		return fmt.Errorf("%d value bytes at offset %d exceed the %d byte file", totalSize, dataOffset, fileSize)
	}
	if _, err := r.Seek(int64(dataOffset), io.SeekStart); err != nil {
		return err
	}

	data := make([]byte, totalSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return err
	}
	e.Value = data
	return nil
}

func buildIFD(entries []tiffEntry, bo binary.ByteOrder) IFD {
	ifd := IFD{
		SamplesPerPixel: 1,
		Compression:     compressionNone,
		PlanarConfig:    1,
		Predictor:       1,
	}

	for _, e := range entries {
		switch e.Tag {
		case tagNewSubfileType:
			ifd.SubfileType = uint32(firstUint(e, bo))
		case tagImageWidth:
			ifd.Width = uint32(firstUint(e, bo))
		case tagImageLength:
			ifd.Height = uint32(firstUint(e, bo))
		case tagBitsPerSample:
			ifd.BitsPerSample = toUint16s(uintValues(e, bo))
		case tagSamplesPerPixel:
			ifd.SamplesPerPixel = uint16(firstUint(e, bo))
		case tagSampleFormat:
			ifd.SampleFormat = toUint16s(uintValues(e, bo))
		case tagCompression:
			ifd.Compression = uint16(firstUint(e, bo))
		case tagPhotometric:
			ifd.Photometric = uint16(firstUint(e, bo))
		case tagPlanarConfig:
			ifd.PlanarConfig = uint16(firstUint(e, bo))
		case tagPredictor:
			ifd.Predictor = uint16(firstUint(e, bo))
		case tagRowsPerStrip:
			ifd.RowsPerStrip = uint32(firstUint(e, bo))
		case tagStripOffsets:
			ifd.StripOffsets = uintValues(e, bo)
		case tagStripByteCounts:
			ifd.StripByteCounts = uintValues(e, bo)
		case tagTileWidth:
			ifd.TileWidth = uint32(firstUint(e, bo))
		case tagTileLength:
			ifd.TileHeight = uint32(firstUint(e, bo))
		case tagTileOffsets:
			ifd.TileOffsets = uintValues(e, bo)
		case tagTileByteCounts:
			ifd.TileByteCounts = uintValues(e, bo)
		case tagColorMap:
			ifd.ColorMap = toUint16s(uintValues(e, bo))
		case tagJPEGTables:
			ifd.JPEGTables = append([]byte(nil), e.Value...)
		case tagModelTiepointTag:
			ifd.ModelTiepoint = floatValues(e, bo)
		case tagModelPixelScaleTag:
			ifd.ModelPixelScale = floatValues(e, bo)
		case tagModelTransformation:
			ifd.ModelTransformation = floatValues(e, bo)
		case tagGeoKeyDirectoryTag:
			ifd.GeoKeys = toUint16s(uintValues(e, bo))
		case tagGeoDoubleParamsTag:
			ifd.GeoDoubleParams = floatValues(e, bo)
		case tagGeoAsciiParamsTag:
			ifd.GeoAsciiParams = asciiValue(e)
		case tagGDALNoData:
			ifd.NoData = asciiValue(e)
		}
	}

	return ifd
}

func asciiValue(e tiffEntry) string {
	n := int(e.Count)
	if n > len(e.Value) {
		n = len(e.Value)
	}
	return strings.TrimRight(string(e.Value[:n]), "\x00 ")
}

func firstUint(e tiffEntry, bo binary.ByteOrder) uint64 {
	vals := uintValues(e, bo)
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// uintValues decodes an entry of any unsigned integer type.
func uintValues(e tiffEntry, bo binary.ByteOrder) []uint64 {
	size := dataTypeSize(e.DataType)
	n := int(e.Count)
	if n*size > len(e.Value) {
		n = len(e.Value) / size
	}
	result := make([]uint64, n)
	for i := 0; i < n; i++ {
		b := e.Value[i*size:]
		switch e.DataType {
		case dtShort, dtSShort:
			result[i] = uint64(bo.Uint16(b))
		case dtLong, dtSLong:
			result[i] = uint64(bo.Uint32(b))
		case dtLong8, dtSLong8, dtIFD8:
			result[i] = bo.Uint64(b)
		default:
			result[i] = uint64(b[0])
		}
	}
	return result
}

func toUint16s(vals []uint64) []uint16 {
	out := make([]uint16, len(vals))
	for i, v := range vals {
		out[i] = uint16(v)
	}
	return out
}

func floatValues(e tiffEntry, bo binary.ByteOrder) []float64 {
	size := dataTypeSize(e.DataType)
	n := int(e.Count)
	if n*size > len(e.Value) {
		n = len(e.Value) / size
	}
	result := make([]float64, n)
	for i := 0; i < n; i++ {
		b := e.Value[i*size:]
		switch e.DataType {
		case dtDouble:
			result[i] = math.Float64frombits(bo.Uint64(b))
		case dtFloat:
			result[i] = float64(math.Float32frombits(bo.Uint32(b)))
		}
	}
	return result
}
