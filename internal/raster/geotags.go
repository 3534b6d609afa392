package raster

import "github.com/pspoerri/terrainview/internal/coord"

// GeoTIFF GeoKey IDs.
const (
	gkModelTypeGeoKey       = 1024
	gkRasterTypeGeoKey      = 1025
	gkGeographicTypeGeoKey  = 2048
	gkProjectedCSTypeGeoKey = 3072
)

// GeoKey values.
const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
	rasterPixelIsPoint  = 2
)

// GeoInfo holds parsed GeoTIFF metadata.
type GeoInfo struct {
	EPSG         int                // projected or geographic CRS code, 0 if unknown
	ModelType    int                // 1 projected, 2 geographic, 0 unknown
	PixelIsPoint bool               // tiepoints address pixel centers
	Transform    coord.GeoTransform // pixel corner to CRS
	HasTransform bool
}

// parseGeoInfo extracts georeferencing from an IFD. A ModelTransformation tag
// wins over tiepoint plus pixel scale.
func parseGeoInfo(ifd *IFD) GeoInfo {
	info := GeoInfo{}
	info.EPSG, info.ModelType, info.PixelIsPoint = parseGeoKeys(ifd.GeoKeys)

	switch {
	case len(ifd.ModelTransformation) >= 16:
		m := ifd.ModelTransformation
		info.Transform = coord.GeoTransform{m[3], m[0], m[1], m[7], m[4], m[5]}
		info.HasTransform = true
	case len(ifd.ModelTiepoint) >= 6 && len(ifd.ModelPixelScale) >= 2:
		// ModelTiepoint: [I, J, K, X, Y, Z] maps pixel (I,J) to (X,Y).
		sx, sy := ifd.ModelPixelScale[0], ifd.ModelPixelScale[1]
		tp := ifd.ModelTiepoint
		info.Transform = coord.NorthUp(tp[3]-tp[0]*sx, tp[4]+tp[1]*sy, sx, -sy)
		info.HasTransform = true
	}

	if info.HasTransform && info.PixelIsPoint {
		gt := &info.Transform
		gt[0] -= 0.5*gt[1] + 0.5*gt[2]
		gt[3] -= 0.5*gt[4] + 0.5*gt[5]
	}
	return info
}

// parseGeoKeys extracts the CRS code, model type and raster type from the
// GeoKey directory. A projected CRS code is preferred over the geographic one.
func parseGeoKeys(geoKeys []uint16) (epsg, modelType int, pixelIsPoint bool) {
	if len(geoKeys) < 4 {
		return 0, 0, false
	}

	// Header: [KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys]
	numKeys := int(geoKeys[3])
	var projected, geographic int

	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(geoKeys) {
			break
		}
		keyID := geoKeys[base]
		location := geoKeys[base+1]
		value := int(geoKeys[base+3])
		if location != 0 {
			// Value lives in GeoDoubleParams or GeoAsciiParams.
			continue
		}

		switch keyID {
		case gkModelTypeGeoKey:
			modelType = value
		case gkRasterTypeGeoKey:
			pixelIsPoint = value == rasterPixelIsPoint
		case gkProjectedCSTypeGeoKey:
			if value > 0 && value != 32767 {
				projected = value
			}
		case gkGeographicTypeGeoKey:
			if value > 0 && value != 32767 {
				geographic = value
			}
		}
	}

	if projected != 0 {
		return projected, modelType, pixelIsPoint
	}
	return geographic, modelType, pixelIsPoint
}
