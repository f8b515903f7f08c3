package icc

import (
	"fmt"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/tonecurve"
)

// The number of points along the neutral axis used to derive response
// curves from a lookup table.
const NeutralAxisSamples = 4096

func chromaticity(xyz [3]float64) (colorconv.Point, error) {
	s := xyz[0] + xyz[1] + xyz[2]
	if s <= 0 || xyz[1] <= 0 {
		return colorconv.Point{}, fmt.Errorf("non-positive luminance: %v", xyz)
	}
	return colorconv.Point{X: xyz[0] / s, Y: xyz[1] / s}, nil
}

// normalize_lut derives an equivalent colorant matrix and per-channel
// response curves from a lookup table producing PCSXYZ.
func normalize_lut(l *Lut16) (m colorconv.Matrix, trcs [3]tonecurve.Curve, err error) {
	black := l.SampleAt(0, 0, 0)
	var cs colorconv.ColorSpace
	points := []*colorconv.Point{&cs.Red, &cs.Green, &cs.Blue, &cs.White}
	names := []string{"red", "green", "blue", "white"}
	for i, c := range [4][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}} {
		s := l.SampleAt(c[0], c[1], c[2])
		for j := range s {
			s[j] -= black[j]
		}
		if *points[i], err = chromaticity(s); err != nil {
			return m, trcs, fmt.Errorf("lookup table has a degenerate %s corner: %w", names[i], err)
		}
	}
	if m, err = colorconv.RGBToPCSXYZ(cs); err != nil {
		return
	}
	inv, err := m.Inverse()
	if err != nil {
		return m, trcs, fmt.Errorf("lookup table primaries are not invertible: %w", err)
	}
	var curves [3][]float64
	for i := range curves {
		curves[i] = make([]float64, NeutralAxisSamples)
	}
	last := NeutralAxisSamples - 1
	f := func(start, limit int) {
		for i := start; i < limit; i++ {
			xyz := l.SampleGrayscaleAt(float64(i) / float64(last))
			rgb := inv.MustMul(colorconv.Vec3(xyz[0], xyz[1], xyz[2])).Column()
			for c := range curves {
				curves[c][i] = min(max(rgb[c], 0), 1)
			}
		}
	}
	if err = parallel.Run_in_parallel_over_range(0, f, 0, NeutralAxisSamples); err != nil {
		return
	}
	for c := range curves {
		curves[c][last] = 1
		if trcs[c], err = tonecurve.SampledFloat(curves[c]); err != nil {
			return
		}
	}
	return
}
