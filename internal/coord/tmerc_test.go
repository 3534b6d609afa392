package coord

import (
	"errors"
	"math"
	"testing"
)

func TestTransverseMercator_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		epsg     int
		lon, lat float64
		x, y     float64
		tolM     float64
	}{
		// On the central meridian at the equator the false origin is returned.
		{"UTM 32N origin", 32632, 9, 0, 500000, 0, 1e-6},
		{"CGCS2000 CM75 origin", 4534, 75, 0, 500000, 0, 1e-6},
		// Northing on the central meridian is k0 times the meridian arc (4984944.378 m at 45N).
		{"UTM 32N meridian arc 45N", 32632, 9, 45, 500000, 4982950.400, 0.01},
		{"UTM 32N off meridian", 32632, 10, 47, 576025.312, 5205649.348, 0.01},
		{"UTM 32S origin", 32732, 9, 0, 500000, 10000000, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ForEPSG(tt.epsg)
			if err != nil {
				t.Fatal(err)
			}
			x, y, err := p.FromWGS84(tt.lon, tt.lat)
			if err != nil {
				t.Fatalf("FromWGS84: %v", err)
			}
			if math.Abs(x-tt.x) > tt.tolM || math.Abs(y-tt.y) > tt.tolM {
				t.Errorf("FromWGS84(%v, %v) = (%.3f, %.3f), want (%.3f, %.3f)", tt.lon, tt.lat, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestTransverseMercator_Symmetry(t *testing.T) {
	p, _ := ForEPSG(4539) // CM 90E
	xE, yE, _ := p.FromWGS84(91, 40)
	xW, yW, _ := p.FromWGS84(89, 40)
	if math.Abs((xE-500000)+(xW-500000)) > 1e-6 {
		t.Errorf("eastings not symmetric about CM: %.6f, %.6f", xE, xW)
	}
	if math.Abs(yE-yW) > 1e-6 {
		t.Errorf("northings differ across CM: %.6f, %.6f", yE, yW)
	}
}

func TestTransverseMercator_OutOfDomain(t *testing.T) {
	p, _ := ForEPSG(4534)
	for _, pt := range [][2]float64{{170, 10}, {-20, 0}, {165, 0}, {75, 90}, {75, -90}, {math.NaN(), 0}} {
		if _, _, err := p.FromWGS84(pt[0], pt[1]); !errors.Is(err, ErrProjection) {
			t.Errorf("FromWGS84(%v, %v) err = %v, want ErrProjection", pt[0], pt[1], err)
		}
	}
}

// Lushan lies 41 degrees east of the 75E central meridian; reference values
// come from the sixth-order Krueger series used by PROJ's etmerc.
func TestTransverseMercator_FarFromMeridian(t *testing.T) {
	p, err := ForEPSG(4534)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		lon, lat float64
		x, y     float64
	}{
		{115.85, 29.65, 4619629.3389, 4097285.5292},
		{116.5, 29.4, 4703683.2205, 4096745.2792},
	}
	for _, tt := range tests {
		x, y, err := p.FromWGS84(tt.lon, tt.lat)
		if err != nil {
			t.Fatalf("FromWGS84(%v, %v): %v", tt.lon, tt.lat, err)
		}
		if math.Abs(x-tt.x) > 0.05 || math.Abs(y-tt.y) > 0.05 {
			t.Errorf("FromWGS84(%v, %v) = (%.4f, %.4f), want (%.4f, %.4f)", tt.lon, tt.lat, x, y, tt.x, tt.y)
		}
		lon, lat, err := p.ToWGS84(x, y)
		if err != nil {
			t.Fatalf("ToWGS84: %v", err)
		}
		if math.Abs(lon-tt.lon) > 1e-7 || math.Abs(lat-tt.lat) > 1e-7 {
			t.Errorf("round trip = (%.9f, %.9f), want (%v, %v)", lon, lat, tt.lon, tt.lat)
		}
	}
}
