package texture

import "math"

const (
	stretchLow   = 0.02
	stretchHigh  = 0.98
	stretchGamma = 0.5
)

// Stretch16 maps 16-bit samples to 8 bits with a 2%-98% cumulative
// histogram cut and a gamma of 0.5.
func Stretch16(vals []uint16) []uint8 {
	out := make([]uint8, len(vals))
	if len(vals) == 0 {
		return out
	}
	lo, hi := stretchBounds(vals)
	span := float64(hi - lo)
	for i, v := range vals {
		switch {
		case int(v) < lo:
			out[i] = 0
		case int(v) > hi:
			out[i] = 255
		case hi <= lo:
			out[i] = 0
		default:
			scaled := math.Pow(float64(int(v)-lo)/span, stretchGamma)
			out[i] = uint8(scaled * 255)
		}
	}
	return out
}

// stretchBounds returns the first value whose cumulative frequency exceeds
// 2% and the last value whose cumulative frequency is still below 98%.
func stretchBounds(vals []uint16) (lo, hi int) {
	srcMax := 0
	for _, v := range vals {
		srcMax = max(srcMax, int(v))
	}
	hist := make([]float64, srcMax+1)
	for _, v := range vals {
		hist[v]++
	}
	total := float64(len(vals))
	accum := make([]float64, srcMax+1)
	sum := 0.0
	for i, n := range hist {
		sum += n / total
		accum[i] = sum
	}

	lo, hi = 0, srcMax
	for i := 0; i <= srcMax; i++ {
		if accum[i] > stretchLow {
			lo = i
			break
		}
	}
	for i := srcMax; i >= 0; i-- {
		if accum[i] < stretchHigh {
			hi = i
			break
		}
	}
	return lo, hi
}
