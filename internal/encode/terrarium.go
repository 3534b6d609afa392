package encode

import (
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/pspoerri/terrainview/internal/raster"
)

// TerrariumEncoder writes elevation images as Terrarium PNG, where
// elevation = R*256 + G + B/256 - 32768. Input pixels must already carry
// Terrarium values, as produced by TerrariumImage.
type TerrariumEncoder struct{}

func (e *TerrariumEncoder) Encode(img image.Image) ([]byte, error) {
	return (&PNGEncoder{Level: png.BestSpeed}).Encode(img)
}

func (e *TerrariumEncoder) Format() string       { return "terrarium" }
func (e *TerrariumEncoder) FileExtension() string { return ".png" }

// maxTerrarium is the largest offset elevation three bytes can hold.
const maxTerrarium = 65535 + 255.0/256

// ElevationToTerrarium encodes meters as a Terrarium pixel, clamping to
// [-32768, 32767.996]. NaN and infinities become transparent.
func ElevationToTerrarium(elevation float64) color.RGBA {
	if math.IsNaN(elevation) || math.IsInf(elevation, 0) {
		return color.RGBA{}
	}
	v := min(max(elevation+32768, 0), maxTerrarium)
	whole := math.Floor(v)
	return color.RGBA{
		R: uint8(int(whole) >> 8),
		G: uint8(int(whole) & 0xFF),
		B: uint8(min((v-whole)*256, 255)),
		A: 255,
	}
}

// TerrariumToElevation decodes a Terrarium pixel; transparent is NaN.
func TerrariumToElevation(c color.RGBA) float64 {
	if c.A == 0 {
		return math.NaN()
	}
	return float64(c.R)*256 + float64(c.G) + float64(c.B)/256 - 32768
}

// TerrariumImage encodes every DEM cell as a Terrarium pixel, one pixel per
// cell in raster order.
func TerrariumImage(dem *raster.DemGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, dem.Width, dem.Height))
	for row := 0; row < dem.Height; row++ {
		for col := 0; col < dem.Width; col++ {
			img.SetRGBA(col, row, ElevationToTerrarium(float64(dem.At(col, row))))
		}
	}
	return img
}
