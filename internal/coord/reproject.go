package coord

import (
	"fmt"
	"strings"
)

// SourceMode controls when a raster's geotransform is treated as geographic.
type SourceMode int

const (
	// SourceForce always reprojects from WGS84 degrees.
	SourceForce SourceMode = iota
	// SourceAuto reprojects only when the extent looks like degrees.
	SourceAuto
	// SourceNever uses the geotransform as-is.
	SourceNever
)

// ParseSourceMode parses "force", "auto" or "never".
func ParseSourceMode(s string) (SourceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "force":
		return SourceForce, nil
	case "auto":
		return SourceAuto, nil
	case "never":
		return SourceNever, nil
	default:
		return 0, fmt.Errorf("unknown source mode %q (want force, auto or never)", s)
	}
}

func (m SourceMode) String() string {
	switch m {
	case SourceAuto:
		return "auto"
	case SourceNever:
		return "never"
	default:
		return "force"
	}
}

// Reprojector converts a geographic geotransform into the target CRS.
type Reprojector struct {
	Target Projection
	Mode   SourceMode
}

// NewReprojector returns a Reprojector into target.
func NewReprojector(target Projection, mode SourceMode) *Reprojector {
	return &Reprojector{Target: target, Mode: mode}
}

// Reproject transforms three reference points of gt (origin, one pixel to the
// right, one pixel down) and builds a north-up transform from them. Rotation
// terms of the result are always zero.
func (r *Reprojector) Reproject(gt GeoTransform, width, height int) (GeoTransform, error) {
	switch r.Mode {
	case SourceNever:
		return gt, nil
	case SourceAuto:
		if !gt.LooksGeographic(width, height) {
			return gt, nil
		}
	}
	if r.Target == nil {
		return GeoTransform{}, fmt.Errorf("no target CRS configured: %w", ErrProjection)
	}

	tlLon, tlLat := gt.Apply(0, 0)
	rLon, rLat := gt.Apply(1, 0)
	dLon, dLat := gt.Apply(0, 1)

	tlX, tlY, err := r.Target.FromWGS84(tlLon, tlLat)
	if err != nil {
		return GeoTransform{}, fmt.Errorf("reprojecting origin: %w", err)
	}
	rX, _, err := r.Target.FromWGS84(rLon, rLat)
	if err != nil {
		return GeoTransform{}, fmt.Errorf("reprojecting right reference point: %w", err)
	}
	_, dY, err := r.Target.FromWGS84(dLon, dLat)
	if err != nil {
		return GeoTransform{}, fmt.Errorf("reprojecting lower reference point: %w", err)
	}

	return NorthUp(tlX, tlY, rX-tlX, dY-tlY), nil
}
