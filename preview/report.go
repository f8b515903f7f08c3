package preview

import (
	"fmt"
	"image"
	"math"

	"github.com/kovidgoyal/gpucolor/colorconv"
)

// Stats summarizes the CIE76 color difference between two images.
type Stats struct {
	Mean, Max float64
	Pixels    int
}

func (s Stats) String() string {
	return fmt.Sprintf("ΔE76 mean: %.3f max: %.3f over %d pixels", s.Mean, s.Max, s.Pixels)
}

// Report compares two images of the same size pixel by pixel, with both
// taken as sRGB encoded. Alpha is ignored.
func Report(before, after image.Image) (ans Stats, err error) {
	if before.Bounds().Size() != after.Bounds().Size() {
		return ans, fmt.Errorf("cannot compare images of different sizes: %v and %v", before.Bounds().Size(), after.Bounds().Size())
	}
	m, err := colorconv.RGBToXYZ(colorconv.SRGB)
	if err != nil {
		return ans, err
	}
	white := m.MustMul(colorconv.Ones3x1())
	lab := func(s []uint8) colorconv.Lab {
		rgb := colorconv.Vec3(to_unit(s[0], s[1]), to_unit(s[2], s[3]), to_unit(s[4], s[5])).Map(default_curve.SampleAt)
		return colorconv.XYZToLab(m.MustMul(rgb), white)
	}
	a, b := to_nrgba64(before), to_nrgba64(after)
	width, height := a.Rect.Dx(), a.Rect.Dy()
	var sum float64
	for y := range height {
		ra, rb := a.Pix[a.Stride*y:], b.Pix[b.Stride*y:]
		for x := range width {
			e := colorconv.DeltaE76(lab(ra[8*x:8*x+6]), lab(rb[8*x:8*x+6]))
			sum += e
			ans.Max = math.Max(ans.Max, e)
		}
	}
	if ans.Pixels = width * height; ans.Pixels > 0 {
		ans.Mean = sum / float64(ans.Pixels)
	}
	return ans, nil
}
