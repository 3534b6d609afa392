package coord

import (
	"errors"
	"math"
	"testing"
)

func TestForEPSG(t *testing.T) {
	tests := []struct {
		epsg    int
		wantErr bool
		wantCM  float64 // only checked for transverse Mercator
	}{
		{4326, false, 0},
		{3857, false, 0},
		{4534, false, 75},
		{4539, false, 90},
		{4554, false, 135},
		{4513, false, 75},
		{4533, false, 135},
		{32632, false, 9},
		{32750, false, 117},
		{2056, false, 0},
		{27700, true, 0},
		{32661, true, 0},
		{0, true, 0},
	}
	for _, tt := range tests {
		p, err := ForEPSG(tt.epsg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForEPSG(%d) = %v, want error", tt.epsg, p.Name())
			} else if !errors.Is(err, ErrProjection) {
				t.Errorf("ForEPSG(%d) error = %v, want ErrProjection", tt.epsg, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ForEPSG(%d): %v", tt.epsg, err)
		}
		if got := p.EPSG(); got != tt.epsg {
			t.Errorf("ForEPSG(%d).EPSG() = %d", tt.epsg, got)
		}
		if tm, ok := p.(*TransverseMercator); ok && tm.CentralMeridian != tt.wantCM {
			t.Errorf("ForEPSG(%d) central meridian = %v, want %v", tt.epsg, tm.CentralMeridian, tt.wantCM)
		}
	}
}

func TestForEPSG_FalseOrigins(t *testing.T) {
	tests := []struct {
		epsg   int
		fe, fn float64
	}{
		{4534, 500000, 0},
		{4513, 25500000, 0},
		{4527, 39500000, 0},
		{32632, 500000, 0},
		{32733, 500000, 10000000},
	}
	for _, tt := range tests {
		p, err := ForEPSG(tt.epsg)
		if err != nil {
			t.Fatalf("ForEPSG(%d): %v", tt.epsg, err)
		}
		tm := p.(*TransverseMercator)
		if tm.FalseEasting != tt.fe || tm.FalseNorthing != tt.fn {
			t.Errorf("EPSG:%d false origin = (%v, %v), want (%v, %v)",
				tt.epsg, tm.FalseEasting, tm.FalseNorthing, tt.fe, tt.fn)
		}
	}
}

func TestWGS84Identity(t *testing.T) {
	w := &WGS84Identity{}

	if w.EPSG() != 4326 {
		t.Errorf("WGS84Identity.EPSG() = %d, want 4326", w.EPSG())
	}

	lon, lat := 116.3912, 39.9075 // Beijing
	gotLon, gotLat, err := w.ToWGS84(lon, lat)
	if err != nil || gotLon != lon || gotLat != lat {
		t.Errorf("ToWGS84(%v, %v) = (%v, %v, %v), want (%v, %v)", lon, lat, gotLon, gotLat, err, lon, lat)
	}

	gotLon, gotLat, err = w.FromWGS84(lon, lat)
	if err != nil || gotLon != lon || gotLat != lat {
		t.Errorf("FromWGS84(%v, %v) = (%v, %v, %v), want (%v, %v)", lon, lat, gotLon, gotLat, err, lon, lat)
	}
}

// TestProjectionRoundTrip verifies that ToWGS84(FromWGS84(lon, lat)) ≈ (lon, lat) for all built-ins.
func TestProjectionRoundTrip(t *testing.T) {
	points := [][2]float64{
		{116.3912, 39.9075},
		{117.2, 31.8},
		{115.1, 22.6},
		{118.4, 45.0},
	}

	for _, epsg := range []int{4326, 3857, 4539, 4527, 32650} {
		proj, err := ForEPSG(epsg)
		if err != nil {
			t.Fatalf("ForEPSG(%d): %v", epsg, err)
		}
		for _, pt := range points {
			lon, lat := pt[0], pt[1]

			x, y, err := proj.FromWGS84(lon, lat)
			if err != nil {
				t.Fatalf("EPSG:%d FromWGS84(%v, %v): %v", epsg, lon, lat, err)
			}
			gotLon, gotLat, err := proj.ToWGS84(x, y)
			if err != nil {
				t.Fatalf("EPSG:%d ToWGS84(%v, %v): %v", epsg, x, y, err)
			}

			tol := 1e-8
			if dLon := math.Abs(gotLon - lon); dLon > tol {
				t.Errorf("EPSG:%d roundtrip lon for (%.4f, %.4f): got %.9f, want %.9f (delta=%.2e)",
					epsg, lon, lat, gotLon, lon, dLon)
			}
			if dLat := math.Abs(gotLat - lat); dLat > tol {
				t.Errorf("EPSG:%d roundtrip lat for (%.4f, %.4f): got %.9f, want %.9f (delta=%.2e)",
					epsg, lon, lat, gotLat, lat, dLat)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	p, err := Resolve(4534, "")
	if err != nil {
		t.Fatalf("Resolve(4534, \"\"): %v", err)
	}
	if p.EPSG() != 4534 {
		t.Errorf("Resolve(4534).EPSG() = %d", p.EPSG())
	}

	p, err = Resolve(4534, "+proj=utm +zone=50 +ellps=WGS84 +datum=WGS84 +units=m +no_defs")
	if err != nil {
		t.Fatalf("Resolve with proj4: %v", err)
	}
	if p.EPSG() != 0 {
		t.Errorf("proj4 projection EPSG() = %d, want 0", p.EPSG())
	}

	if _, err := Resolve(0, "+proj=nonsense"); !errors.Is(err, ErrProjection) {
		t.Errorf("Resolve with bad proj4: err = %v, want ErrProjection", err)
	}
}

func TestWebMercatorProj_KnownValues(t *testing.T) {
	wm := &WebMercatorProj{}

	lon, lat, _ := wm.ToWGS84(0, 0)
	if math.Abs(lon) > 1e-10 || math.Abs(lat) > 1e-10 {
		t.Errorf("ToWGS84(0, 0) = (%v, %v), want (0, 0)", lon, lat)
	}

	x, _, _ := wm.FromWGS84(180, 0)
	if math.Abs(x-OriginShift) > 1 {
		t.Errorf("FromWGS84(180, 0).x = %v, want ~%v", x, OriginShift)
	}

	if _, _, err := wm.FromWGS84(0, 89); !errors.Is(err, ErrProjection) {
		t.Errorf("FromWGS84(0, 89) err = %v, want ErrProjection", err)
	}
}
