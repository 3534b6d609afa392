package mesh

import "fmt"

const (
	// DefaultVerticalScale multiplies DEM heights into scene units.
	DefaultVerticalScale float32 = 0.03
	// MinVerticalScale is the floor for DecreaseScale.
	MinVerticalScale float32 = 0.001

	coarseStep float32 = 0.01
	fineStep   float32 = 0.004
)

// IncreaseScale steps s up: by 0.01 once s is at least 1:1 (s*100 >= 1),
// otherwise by 0.004.
func IncreaseScale(s float32) float32 {
	if s*100 >= 1 {
		return s + coarseStep
	}
	return s + fineStep
}

// DecreaseScale steps s down: by 0.01 above 1:1, otherwise by 0.004, and
// never below MinVerticalScale.
func DecreaseScale(s float32) float32 {
	if s*100 > 1 {
		s -= coarseStep
	} else {
		s -= fineStep
	}
	return max(s, MinVerticalScale)
}

// ScaleLabel renders the exaggeration shown in the view overlay.
func ScaleLabel(s float32) string {
	if s*100 >= 1 {
		return fmt.Sprintf("%.0f:1", s*100)
	}
	return fmt.Sprintf("%.2f:1", s*100)
}
