package coord

import (
	"errors"
	"math"
	"testing"
)

// failingProjection rejects every point east of a cutoff longitude.
type failingProjection struct {
	WGS84Identity
	cutoff float64
}

func (f *failingProjection) FromWGS84(lon, lat float64) (float64, float64, error) {
	if lon > f.cutoff {
		return 0, 0, ErrProjection
	}
	return lon * 1000, lat * 1000, nil
}

func TestReprojector_ThreePoint(t *testing.T) {
	target, err := ForEPSG(4548) // CGCS2000 CM 117E
	if err != nil {
		t.Fatal(err)
	}
	r := NewReprojector(target, SourceForce)

	geo := GeoTransform{116, 0.001, 0, 40, 0, -0.001}
	got, err := r.Reproject(geo, 100, 100)
	if err != nil {
		t.Fatalf("Reproject: %v", err)
	}

	tlX, tlY, _ := target.FromWGS84(116, 40)
	rX, _, _ := target.FromWGS84(116.001, 40)
	_, dY, _ := target.FromWGS84(116, 39.999)

	want := GeoTransform{tlX, rX - tlX, 0, tlY, 0, dY - tlY}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("gt[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got[2] != 0 || got[4] != 0 {
		t.Errorf("rotation terms = (%v, %v), want 0", got[2], got[4])
	}
	// About 85 m per 0.001 degree of longitude at 40N, about 111 m per 0.001 degree of latitude.
	if got[1] < 80 || got[1] > 90 || got[5] > -105 || got[5] < -115 {
		t.Errorf("pixel size = (%v, %v), want ~(85, -111)", got[1], got[5])
	}
}

func TestReprojector_Modes(t *testing.T) {
	target, _ := ForEPSG(4548)
	projected := GeoTransform{414605, 30, 0, 4430008, 0, -30}
	geographic := GeoTransform{116, 0.001, 0, 40, 0, -0.001}

	auto := NewReprojector(target, SourceAuto)
	got, err := auto.Reproject(projected, 10, 10)
	if err != nil || got != projected {
		t.Errorf("auto on projected = (%v, %v), want unchanged", got, err)
	}
	got, err = auto.Reproject(geographic, 10, 10)
	if err != nil || got == geographic {
		t.Errorf("auto on geographic = (%v, %v), want reprojected", got, err)
	}

	never := NewReprojector(nil, SourceNever)
	if got, err := never.Reproject(geographic, 10, 10); err != nil || got != geographic {
		t.Errorf("never = (%v, %v), want unchanged", got, err)
	}
}

func TestReprojector_Failures(t *testing.T) {
	geo := GeoTransform{116, 0.001, 0, 40, 0, -0.001}

	tests := []struct {
		name string
		r    *Reprojector
	}{
		{"no target", NewReprojector(nil, SourceForce)},
		{"origin fails", NewReprojector(&failingProjection{cutoff: 115}, SourceForce)},
		{"right point fails", NewReprojector(&failingProjection{cutoff: 116.0005}, SourceForce)},
		{"outside zone", NewReprojector(&TransverseMercator{Label: "far", Ellipsoid: WGS84, CentralMeridian: -60, ScaleFactor: 1}, SourceForce)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.r.Reproject(geo, 10, 10); !errors.Is(err, ErrProjection) {
				t.Errorf("err = %v, want ErrProjection", err)
			}
		})
	}
}

func TestParseSourceMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceMode
		wantErr bool
	}{
		{"", SourceForce, false},
		{"force", SourceForce, false},
		{"AUTO", SourceAuto, false},
		{"never", SourceNever, false},
		{"sometimes", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSourceMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSourceMode(%q) = (%v, %v)", tt.in, got, err)
		}
	}
}
