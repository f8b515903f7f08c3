package colorconv

import (
	"fmt"
	"math"
)

// Point is a CIE 1931 chromaticity coordinate. Points compare exactly, round
// coordinates from measured sources with RoundPoint before comparing.
type Point struct {
	X, Y float64
}

// XYZ returns the unnormalized XYZ column (x/y, 1, (1-x-y)/y) of the chromaticity.
func (p Point) XYZ() Matrix {
	return Vec3(p.X/p.Y, 1, (1-p.X-p.Y)/p.Y)
}

func (p Point) String() string { return fmt.Sprintf("(%.4f, %.4f)", p.X, p.Y) }

type ColorSpace struct {
	Red, Green, Blue, White Point
}

func (c ColorSpace) String() string {
	if name := c.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("ColorSpace{R: %s G: %s B: %s W: %s}", c.Red, c.Green, c.Blue, c.White)
}

// Name returns the name of a well known color space or the empty string.
func (c ColorSpace) Name() string {
	for i, q := range ColorSpaces {
		if q == c {
			return ColorSpaceNames[i]
		}
	}
	return ""
}

var D65 = Point{X: 0.3127, Y: 0.3290}

// D50 is the XYZ profile connection space white.
var D50 = Vec3(0.9642, 1, 0.8249)

var (
	SRGB = ColorSpace{
		Red:   Point{0.64, 0.33},
		Green: Point{0.3, 0.6},
		Blue:  Point{0.15, 0.06},
		White: D65,
	}
	DisplayP3 = ColorSpace{
		Red:   Point{0.68, 0.32},
		Green: Point{0.265, 0.69},
		Blue:  Point{0.15, 0.06},
		White: D65,
	}
	AdobeRGB = ColorSpace{
		Red:   Point{0.64, 0.33},
		Green: Point{0.21, 0.71},
		Blue:  Point{0.15, 0.06},
		White: D65,
	}
)

// ColorSpaces is indexed by the target number used in monitor configuration.
var ColorSpaces = [...]ColorSpace{SRGB, DisplayP3, AdobeRGB}
var ColorSpaceNames = [...]string{"sRGB", "Display P3", "Adobe RGB"}

func ColorSpaceByIndex(i int) (ColorSpace, error) {
	if i < 0 || i >= len(ColorSpaces) {
		return ColorSpace{}, fmt.Errorf("unknown target color space index: %d", i)
	}
	return ColorSpaces[i], nil
}

// RoundPoint rounds both coordinates to three decimals, the precision EDID
// chromaticity data is meaningful to.
func RoundPoint(x, y float64) Point {
	r := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return Point{r(x), r(y)}
}

// EDIDColorSpace builds a color space from raw EDID chromaticity coordinates.
func EDIDColorSpace(red, green, blue, white [2]float64) ColorSpace {
	return ColorSpace{
		Red:   RoundPoint(red[0], red[1]),
		Green: RoundPoint(green[0], green[1]),
		Blue:  RoundPoint(blue[0], blue[1]),
		White: RoundPoint(white[0], white[1]),
	}
}
