package colorramp

import (
	"image/color"
	"math"
	"testing"
)

func near(a, b [3]float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestColorFor(t *testing.T) {
	s := Default()
	tests := []struct {
		name string
		e    float32
		want [3]float32
	}{
		{"below first", -100, [3]float32{0, 0, 1}},
		{"at first", -4, [3]float32{0, 0, 1}},
		{"at last", 1466, [3]float32{1, 0, 0}},
		{"above last", 9000, [3]float32{1, 0, 0}},
		{"at second", 250, [3]float32{0, 207.0 / 255, 65.0 / 255}},
		{"between yellow and orange", 875, [3]float32{1, (1 + 165.0/255) / 2, 0}},
		{"quarter into first span", -4 + 254.0/4, [3]float32{0, 207.0 / 255 / 4, 0.75 + 65.0/255/4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ColorFor(tt.e); !near(got, tt.want) {
				t.Errorf("ColorFor(%v) = %v, want %v", tt.e, got, tt.want)
			}
		})
	}
}

func TestColorFor_NaN(t *testing.T) {
	if got := Default().ColorFor(float32(math.NaN())); got != [3]float32{0, 0, 1} {
		t.Errorf("ColorFor(NaN) = %v", got)
	}
}

func TestRamp_ApplyReset(t *testing.T) {
	r := New()
	if err := r.Apply(make([]color.RGBA, 6)); err == nil {
		t.Error("Apply accepted six colors")
	}
	if r.Scheme() != Default() {
		t.Error("failed Apply changed the scheme")
	}

	colors := make([]color.RGBA, Stops)
	for i := range colors {
		colors[i] = color.RGBA{uint8(i * 10), 0, 0, 0}
	}
	if err := r.Apply(colors); err != nil {
		t.Fatal(err)
	}
	if c := r.Scheme()[3]; c.R != 30 || c.A != 0xFF {
		t.Errorf("applied color 4 = %v", c)
	}
	if u := r.Scheme().Uniforms(); u[6][0] != 60.0/255 {
		t.Errorf("Uniforms()[6] = %v", u[6])
	}

	r.Reset()
	if r.Scheme() != Default() {
		t.Error("Reset did not restore the default scheme")
	}
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme(Default().Hex())
	if err != nil {
		t.Fatal(err)
	}
	if s != Default() {
		t.Errorf("parsed %v", s)
	}
	if got := Default().Hex()[1]; got != "#00CF41" {
		t.Errorf("Hex()[1] = %s", got)
	}

	for _, bad := range [][]string{
		{"#000000"},
		{"#000000", "#000000", "#000000", "#000000", "#000000", "#000000", "#GG0000"},
		{"#000000", "#000000", "#000000", "#000000", "#000000", "#000000", "#0000"},
	} {
		if _, err := ParseScheme(bad); err == nil {
			t.Errorf("ParseScheme(%v) succeeded", bad)
		}
	}
}

func TestRGBA(t *testing.T) {
	if c := Default().RGBA(1000); c != (color.RGBA{0xFF, 0xA5, 0x00, 0xFF}) {
		t.Errorf("RGBA(1000) = %v", c)
	}
}

func TestRamp_ResetThenApplyDefaults(t *testing.T) {
	r := New()
	if err := r.Apply(make([]color.RGBA, Stops)); err != nil {
		t.Fatal(err)
	}
	r.Reset()

	def := Default()
	if err := r.Apply(def[:]); err != nil {
		t.Fatal(err)
	}
	if r.Scheme() != def {
		t.Errorf("scheme = %v, want defaults %v", r.Scheme(), def)
	}
	if want := [Stops]float32{-4, 250, 500, 750, 1000, 1250, 1466}; Breakpoints != want {
		t.Errorf("Breakpoints = %v, want %v", Breakpoints, want)
	}
	for i, h := range Breakpoints {
		if got := r.Scheme().RGBA(h); got != def[i] {
			t.Errorf("RGBA(%v) = %v, want stop %d %v", h, got, i, def[i])
		}
	}
}
