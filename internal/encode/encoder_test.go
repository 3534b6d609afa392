package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gen2brain/webp"

	"github.com/pspoerri/terrainview/internal/coord"
	"github.com/pspoerri/terrainview/internal/raster"
)

// testImage is an opaque size x size gradient.
func testImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), uint8(x + y), 255})
		}
	}
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		format  string
		wantFmt string
		wantExt string
		wantErr bool
	}{
		{"jpeg", "jpeg", ".jpg", false},
		{"JPG", "jpeg", ".jpg", false},
		{"png", "png", ".png", false},
		{"webp", "webp", ".webp", false},
		{"terrarium", "terrarium", ".png", false},
		{"bmp", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			enc, err := NewEncoder(tt.format, 85)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewEncoder(%q) succeeded", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if enc.Format() != tt.wantFmt || enc.FileExtension() != tt.wantExt {
				t.Errorf("got (%q, %q), want (%q, %q)", enc.Format(), enc.FileExtension(), tt.wantFmt, tt.wantExt)
			}
		})
	}
}

func TestNewEncoder_WebPLossless(t *testing.T) {
	enc, _ := NewEncoder("webp", 100)
	if w := enc.(*WebPEncoder); !w.Lossless {
		t.Error("quality 100 did not select lossless WebP")
	}
	enc, _ = NewEncoder("webp", 0)
	if w := enc.(*WebPEncoder); w.Lossless || w.Quality != defaultQuality {
		t.Errorf("quality 0 gave %+v", w)
	}
}

func TestPNGEncoder_Lossless(t *testing.T) {
	img := testImage(64)
	img.SetNRGBA(3, 4, color.NRGBA{10, 20, 30, 0})

	data, err := (&PNGEncoder{}).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	for _, p := range []image.Point{{0, 0}, {63, 0}, {20, 41}, {3, 4}} {
		if got, want := rgbaAt(decoded, p.X, p.Y), rgbaAt(img, p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
}

func TestJPEGEncoder(t *testing.T) {
	img := testImage(64)
	data, err := (&JPEGEncoder{Quality: 90}).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("decoded size = %v", b)
	}
	got, want := rgbaAt(decoded, 32, 32), rgbaAt(img, 32, 32)
	if d := int(got.R) - int(want.R); d > 20 || d < -20 {
		t.Errorf("center red = %d, want ~%d", got.R, want.R)
	}
}

func TestJPEGEncoder_Matte(t *testing.T) {
	blank := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	tests := []struct {
		name  string
		matte color.Color
		want  uint8
	}{
		{"default white", nil, 255},
		{"black", color.Black, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := (&JPEGEncoder{Matte: tt.matte}).Encode(blank)
			if err != nil {
				t.Fatal(err)
			}
			decoded, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if c := rgbaAt(decoded, 8, 8); int(c.G)-int(tt.want) > 3 || int(tt.want)-int(c.G) > 3 {
				t.Errorf("transparent pixel became %v, want gray %d", c, tt.want)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"view.png", "png", false},
		{"out/view.JPEG", "jpeg", false},
		{"view.webp", "webp", false},
		{"view", "", true},
		{"view.tif", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			enc, err := ForPath(tt.path, 90)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ForPath(%q) succeeded", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if enc.Format() != tt.want {
				t.Errorf("Format() = %q, want %q", enc.Format(), tt.want)
			}
		})
	}
}

func TestWriteFile_WebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.webp")
	enc, err := ForPath(path, 90)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, testImage(32), enc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("webp.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("decoded size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestWriteFile_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "view.png")
	if err := WriteFile(path, testImage(4), &PNGEncoder{}); err == nil {
		t.Error("WriteFile into a missing directory succeeded")
	}
}

func TestTerrarium_RoundTrip(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-32768, -32768},
		{-40000, -32768},
		{-4, -4},
		{0, 0},
		{0.5, 0.5},
		{1466, 1466},
		{8848.25, 8848.25},
		{40000, 32767 + 255.0/256},
	}
	for _, tt := range tests {
		c := ElevationToTerrarium(tt.in)
		if got := TerrariumToElevation(c); math.Abs(got-tt.want) > 1.0/256 {
			t.Errorf("elevation %v -> %v -> %v, want %v", tt.in, c, got, tt.want)
		}
	}
	if c := ElevationToTerrarium(math.NaN()); c.A != 0 {
		t.Errorf("NaN encodes as %v, want transparent", c)
	}
	if c := ElevationToTerrarium(math.Inf(1)); c.A != 0 {
		t.Errorf("+Inf encodes as %v, want transparent", c)
	}
	if !math.IsNaN(TerrariumToElevation(color.RGBA{})) {
		t.Error("transparent pixel did not decode to NaN")
	}
}

func TestTerrariumImage(t *testing.T) {
	dem, err := raster.NewDemGrid(3, 2, []float32{0, 1, 2, 100, 200, 300}, coord.NorthUp(0, 0, 1, -1), 0, false)
	if err != nil {
		t.Fatal(err)
	}
	img := TerrariumImage(dem)
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("size = %v", b)
	}
	if got := TerrariumToElevation(img.RGBAAt(2, 1)); got != 300 {
		t.Errorf("pixel (2,1) = %v m, want 300", got)
	}

	data, err := (&TerrariumEncoder{}).Encode(img)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got := TerrariumToElevation(rgbaAt(decoded, 1, 0)); got != 1 {
		t.Errorf("decoded pixel (1,0) = %v m, want 1", got)
	}
}
