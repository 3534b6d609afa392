package profile

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a profile.
type Summary struct {
	Length  float64 // meters
	Min     float64
	Max     float64
	Mean    float64
	Ascent  float64 // summed rises between consecutive samples
	Descent float64 // summed drops, positive
}

// Summarize computes the summary of samples. An empty profile yields the
// zero Summary.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	elev := Elevations(samples)
	s := Summary{
		Length: samples[len(samples)-1].Distance,
		Min:    floats.Min(elev),
		Max:    floats.Max(elev),
		Mean:   stat.Mean(elev, nil),
	}
	for i := 1; i < len(elev); i++ {
		if d := elev[i] - elev[i-1]; d > 0 {
			s.Ascent += d
		} else {
			s.Descent -= d
		}
	}
	return s
}

// Elevations returns the sample elevations as float64.
func Elevations(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.Elevation)
	}
	return out
}

// Distances returns the sample distances.
func Distances(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Distance
	}
	return out
}
