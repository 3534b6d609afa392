package coord

import "fmt"

// SwissLV95 is EPSG:2056 (CH1903+ / LV95) using swisstopo's polynomial
// approximation, good to about a meter inside Switzerland.
type SwissLV95 struct{}

func (s *SwissLV95) EPSG() int    { return 2056 }
func (s *SwissLV95) Name() string { return "CH1903+ / LV95" }

// ToWGS84 converts LV95 easting/northing to longitude/latitude.
func (s *SwissLV95) ToWGS84(easting, northing float64) (lon, lat float64, err error) {
	// Offsets from the Bern origin in 1000 km.
	y := (easting - 2_600_000) / 1_000_000
	x := (northing - 1_200_000) / 1_000_000
	if y < -1 || y > 1 || x < -1 || x > 1 {
		return 0, 0, fmt.Errorf("LV95 (%.0f, %.0f) far outside Switzerland: %w", easting, northing, ErrProjection)
	}

	// Results in units of 10000".
	lonSec := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y
	latSec := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	return lonSec * 100 / 36, latSec * 100 / 36, nil
}

// FromWGS84 converts longitude/latitude to LV95 easting/northing.
func (s *SwissLV95) FromWGS84(lon, lat float64) (easting, northing float64, err error) {
	phi := (lat*3600 - 169028.66) / 10000
	lambda := (lon*3600 - 26782.5) / 10000
	if phi < -10 || phi > 10 || lambda < -10 || lambda > 10 {
		return 0, 0, fmt.Errorf("(%g, %g) far outside Switzerland: %w", lon, lat, ErrProjection)
	}

	easting = 2_600_072.37 +
		211_455.93*lambda -
		10_938.51*lambda*phi -
		0.36*lambda*phi*phi -
		44.54*lambda*lambda*lambda
	northing = 1_200_147.07 +
		308_807.95*phi +
		3_745.25*lambda*lambda +
		76.63*phi*phi -
		194.56*lambda*lambda*phi +
		119.79*phi*phi*phi
	return easting, northing, nil
}
