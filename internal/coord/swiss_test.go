package coord

import (
	"errors"
	"math"
	"testing"
)

// Bern is the LV95 origin; Zurich and Geneva are near the edges where the
// polynomial is least accurate.
var swissRefPoints = []struct {
	name              string
	easting, northing float64
	lon, lat          float64
	tolDeg            float64
}{
	{"Bern", 2_600_000, 1_200_000, 7.438632, 46.951083, 0.001},
	{"Zurich", 2_683_474, 1_247_862, 8.5417, 47.3769, 0.005},
	{"Geneva", 2_500_560, 1_118_017, 6.1432, 46.2075, 0.01},
}

func TestSwissLV95_ReferencePoints(t *testing.T) {
	s := &SwissLV95{}
	for _, ref := range swissRefPoints {
		t.Run(ref.name, func(t *testing.T) {
			lon, lat, err := s.ToWGS84(ref.easting, ref.northing)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(lon-ref.lon) > ref.tolDeg || math.Abs(lat-ref.lat) > ref.tolDeg {
				t.Errorf("ToWGS84 = (%.6f, %.6f), want ~(%.6f, %.6f)", lon, lat, ref.lon, ref.lat)
			}

			e, n, err := s.FromWGS84(ref.lon, ref.lat)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(e-ref.easting) > 600 || math.Abs(n-ref.northing) > 600 {
				t.Errorf("FromWGS84 = (%.1f, %.1f), want ~(%.1f, %.1f)", e, n, ref.easting, ref.northing)
			}
		})
	}
}

func TestSwissLV95_RoundTrip(t *testing.T) {
	s := &SwissLV95{}
	lon, lat, err := s.ToWGS84(2_650_000, 1_180_000)
	if err != nil {
		t.Fatal(err)
	}
	e, n, err := s.FromWGS84(lon, lat)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(e-2_650_000) > 5 || math.Abs(n-1_180_000) > 5 {
		t.Errorf("round trip = (%.1f, %.1f)", e, n)
	}
}

func TestSwissLV95_OutOfDomain(t *testing.T) {
	s := &SwissLV95{}
	if _, _, err := s.FromWGS84(116.4, 39.9); !errors.Is(err, ErrProjection) {
		t.Errorf("FromWGS84(Beijing) err = %v, want ErrProjection", err)
	}
	if _, _, err := s.ToWGS84(500000, 4400000); !errors.Is(err, ErrProjection) {
		t.Errorf("ToWGS84(far) err = %v, want ErrProjection", err)
	}

	p, err := ForEPSG(2056)
	if err != nil || p.EPSG() != 2056 {
		t.Errorf("ForEPSG(2056) = %v, %v", p, err)
	}
}
