package raster

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pspoerri/terrainview/internal/raster/rastertest"
)

// gradient16 returns w*h*bands little-endian uint16 samples where the value
// encodes position and band.
func gradient16(w, h, bands int) []uint16 {
	vals := make([]uint16, w*h*bands)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for b := 0; b < bands; b++ {
				vals[(y*w+x)*bands+b] = uint16(y*1000 + x*10 + b)
			}
		}
	}
	return vals
}

func writeTIFF(t *testing.T, name string, s rastertest.Spec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := rastertest.Write(path, s); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestOpen_Layouts(t *testing.T) {
	const w, h, bands = 37, 23, 3
	want := gradient16(w, h, bands)
	gt := [6]float64{500000, 30, 0, 4400000, 0, -30}

	tests := []struct {
		name string
		spec rastertest.Spec
	}{
		{"single strip", rastertest.Spec{}},
		{"strips", rastertest.Spec{RowsPerStrip: 5}},
		{"tiles", rastertest.Spec{TileSize: 16}},
		{"deflate tiles", rastertest.Spec{TileSize: 16, Compression: rastertest.Deflate}},
		{"deflate predictor", rastertest.Spec{RowsPerStrip: 4, Compression: rastertest.Deflate, Predictor: 2}},
		{"packbits", rastertest.Spec{RowsPerStrip: 7, Compression: rastertest.PackBits}},
		{"planar", rastertest.Spec{Planar: true, RowsPerStrip: 6}},
		{"planar tiles", rastertest.Spec{Planar: true, TileSize: 16}},
		{"big endian", rastertest.Spec{BigEndian: true, RowsPerStrip: 3}},
		{"big endian predictor", rastertest.Spec{BigEndian: true, Predictor: 2, TileSize: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.spec
			s.Width, s.Height, s.Bands, s.Bits = w, h, bands, 16
			s.Data = rastertest.Uint16s(want)
			s.Transform = &gt
			path := writeTIFF(t, "img.tif", s)

			ds, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer ds.Close()

			if ds.Width() != w || ds.Height() != h || ds.Bands() != bands {
				t.Fatalf("size = %dx%dx%d, want %dx%dx%d", ds.Width(), ds.Height(), ds.Bands(), w, h, bands)
			}
			if ds.DataType() != "UInt16" {
				t.Errorf("DataType() = %q, want UInt16", ds.DataType())
			}

			line := make([]byte, ds.ScanlineSize())
			for y := 0; y < h; y++ {
				if err := ds.ReadScanline(y, line); err != nil {
					t.Fatalf("ReadScanline(%d): %v", y, err)
				}
				for i := 0; i < w*bands; i++ {
					got := binary.LittleEndian.Uint16(line[2*i:])
					if exp := want[y*w*bands+i]; got != exp {
						t.Fatalf("row %d sample %d = %d, want %d", y, i, got, exp)
					}
				}
			}

			band2, err := ds.ReadBandUint16(2)
			if err != nil {
				t.Fatalf("ReadBandUint16: %v", err)
			}
			if band2[5*w+7] != uint16(5*1000+7*10+1) {
				t.Errorf("band 2 at (7,5) = %d", band2[5*w+7])
			}
		})
	}
}

func TestOpen_Float32DEM(t *testing.T) {
	const w, h = 4, 3
	heights := []float32{
		-4, 0, 100.5, 250,
		500, 750, 1000, 1250,
		1466, 1500, 12.25, -0.5,
	}
	gt := [6]float64{116.0, 0.001, 0, 40.0, 0, -0.001}
	path := writeTIFF(t, "dem.tif", rastertest.Spec{
		Width: w, Height: h, Bands: 1, Bits: 32, Format: rastertest.Float,
		Data: rastertest.Float32s(heights), Transform: &gt, EPSG: 4326, Geographic: true,
		Compression: rastertest.Deflate,
	})

	ds, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ds.Close()

	if ds.DataType() != "Float32" {
		t.Errorf("DataType() = %q", ds.DataType())
	}
	if ds.EPSG() != 4326 {
		t.Errorf("EPSG() = %d, want 4326", ds.EPSG())
	}
	got, err := ds.GeoTransform()
	if err != nil {
		t.Fatalf("GeoTransform: %v", err)
	}
	for i := range gt {
		if math.Abs(got[i]-gt[i]) > 1e-12 {
			t.Errorf("gt[%d] = %v, want %v", i, got[i], gt[i])
		}
	}

	vals, err := ds.ReadBandFloat32(1)
	if err != nil {
		t.Fatalf("ReadBandFloat32: %v", err)
	}
	for i := range heights {
		if vals[i] != heights[i] {
			t.Errorf("height[%d] = %v, want %v", i, vals[i], heights[i])
		}
	}
}

func TestOpen_SignedSaturates(t *testing.T) {
	vals := []uint16{0xFFFF, 0x8000, 100, 0x7FFF} // -1, -32768, 100, 32767 as int16
	path := writeTIFF(t, "s16.tif", rastertest.Spec{
		Width: 2, Height: 2, Bands: 1, Bits: 16, Format: rastertest.Int,
		Data: rastertest.Uint16s(vals),
	})
	ds, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ds.Close()

	got, err := ds.ReadBandUint16(1)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint16{0, 0, 100, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
	f, _ := ds.ReadBandFloat32(1)
	if f[0] != -1 || f[1] != -32768 {
		t.Errorf("signed float values = %v", f[:2])
	}
}

func TestOpen_ModelTransformation(t *testing.T) {
	gt := [6]float64{1000, 2, 0.5, 2000, 0.25, -2}
	path := writeTIFF(t, "rot.tif", rastertest.Spec{
		Width: 2, Height: 2, Bands: 1, Bits: 8, Data: []byte{1, 2, 3, 4}, Transform: &gt,
	})
	ds, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()
	got, err := ds.GeoTransform()
	if err != nil {
		t.Fatal(err)
	}
	if [6]float64(got) != gt {
		t.Errorf("GeoTransform() = %v, want %v", got, gt)
	}
}

func TestOpen_WorldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.tif")
	if err := rastertest.Write(path, rastertest.Spec{Width: 2, Height: 2, Bands: 1, Bits: 8, Data: []byte{1, 2, 3, 4}}); err != nil {
		t.Fatal(err)
	}

	ds, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.GeoTransform(); !errors.Is(err, ErrNoGeoTransform) {
		t.Errorf("GeoTransform() err = %v, want ErrNoGeoTransform", err)
	}
	ds.Close()

	gt := [6]float64{600000, 10, 0, 3500000, 0, -10}
	if err := rastertest.WriteWorldFile(filepath.Join(dir, "plain.tfw"), gt); err != nil {
		t.Fatal(err)
	}
	ds, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()
	got, err := ds.GeoTransform()
	if err != nil {
		t.Fatalf("GeoTransform with world file: %v", err)
	}
	for i := range gt {
		if math.Abs(got[i]-gt[i]) > 1e-6 {
			t.Errorf("gt[%d] = %v, want %v", i, got[i], gt[i])
		}
	}
	if ds.WorldFile() == "" {
		t.Error("WorldFile() is empty")
	}
}

func TestOpen_ColorTableAndNoData(t *testing.T) {
	cm := make([]uint16, 3*256)
	cm[1] = 0xFFFF     // red of entry 1
	cm[256+2] = 0x8080 // green of entry 2
	cm[512+3] = 0x0101 // blue of entry 3
	path := writeTIFF(t, "pal.tif", rastertest.Spec{
		Width: 2, Height: 2, Bands: 1, Bits: 8, Data: []byte{0, 1, 2, 3},
		ColorMap: cm, NoData: "-9999",
	})
	ds, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	table, ok := ds.ColorTable()
	if !ok || len(table) != 256 {
		t.Fatalf("ColorTable() = %d entries, %v", len(table), ok)
	}
	if table[1].R != 255 || table[2].G != 128 || table[3].B != 1 || table[0].R != 0 {
		t.Errorf("palette entries = %v %v %v", table[1], table[2], table[3])
	}

	nd, ok := ds.NoData()
	if !ok || nd != -9999 {
		t.Errorf("NoData() = (%v, %v), want (-9999, true)", nd, ok)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.tif")
	os.WriteFile(empty, nil, 0o644)
	garbage := filepath.Join(dir, "garbage.tif")
	os.WriteFile(garbage, []byte("this is not a tiff file"), 0o644)

	for _, path := range []string{filepath.Join(dir, "missing.tif"), empty, garbage} {
		if _, err := Open(path); !errors.Is(err, ErrLoad) {
			t.Errorf("Open(%s) err = %v, want ErrLoad", filepath.Base(path), err)
		}
	}
}

// oversizedEntryTIFF is a classic TIFF whose single IFD entry claims far
// more value bytes than the file holds.
func oversizedEntryTIFF(count uint32, offset uint32) []byte {
	buf := make([]byte, 8+2+12+4)
	copy(buf, "II*\x00")
	binary.LittleEndian.PutUint32(buf[4:], 8)
	binary.LittleEndian.PutUint16(buf[8:], 1)
	entry := buf[10:22]
	binary.LittleEndian.PutUint16(entry[0:], 256)
	binary.LittleEndian.PutUint16(entry[2:], 3)
	binary.LittleEndian.PutUint32(entry[4:], count)
	binary.LittleEndian.PutUint32(entry[8:], offset)
	return buf
}

func TestParseTIFF_OversizedEntry(t *testing.T) {
	tests := []struct {
		name   string
		count  uint32
		offset uint32
	}{
		{"huge count", 0x7FFFFFFF, 8},
		{"max count", math.MaxUint32, 0},
		{"offset past end", 4, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := oversizedEntryTIFF(tt.count, tt.offset)
			if _, _, err := parseTIFF(bytes.NewReader(data)); err == nil {
				t.Fatal("parseTIFF accepted an entry larger than the file")
			}

			path := filepath.Join(t.TempDir(), "oversized.tif")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path); !errors.Is(err, ErrLoad) {
				t.Errorf("Open err = %v, want ErrLoad", err)
			}
		})
	}
}

func TestReadScanline_Bounds(t *testing.T) {
	path := writeTIFF(t, "small.tif", rastertest.Spec{Width: 2, Height: 2, Bands: 1, Bits: 8, Data: []byte{1, 2, 3, 4}})
	ds, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	line := make([]byte, ds.ScanlineSize())
	if err := ds.ReadScanline(2, line); !errors.Is(err, ErrLoad) {
		t.Errorf("ReadScanline(2) err = %v, want ErrLoad", err)
	}
	if err := ds.ReadScanline(0, line[:1]); err == nil {
		t.Error("ReadScanline with short buffer succeeded")
	}
	if _, err := ds.ReadBandFloat32(2); !errors.Is(err, ErrLoad) {
		t.Errorf("ReadBandFloat32(2) err = %v, want ErrLoad", err)
	}
}
