package csc

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/icc"
	"github.com/kovidgoyal/gpucolor/tonecurve"
)

var _ = fmt.Print

// The number of distinguishable degamma steps when ramp reduction is on.
const OptimizationSteps = 255

type options struct {
	optimize bool
}

type Option func(*options)

// WithOptimization controls ramp reduction. When on, consecutive degamma
// entries that quantize to the same one of OptimizationSteps steps share a
// single sample of the curve. On by default.
func WithOptimization(on bool) Option {
	return func(o *options) { o.optimize = on }
}

func float32_matrix(m colorconv.Matrix) (ans *Matrix3x4, err error) {
	if m.IsColumn() {
		return nil, &colorconv.ShapeError{Op: "conversion matrix", Left: m.Shape(), Right: [2]int{3, 3}}
	}
	ans = &Matrix3x4{}
	for i := range 3 {
		for j := range 3 {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("conversion matrix has a non-finite entry at (%d, %d): %v", i, j, v)
			}
			ans[i][j] = float32(v)
		}
	}
	return
}

// FromMatrix returns the matrix only descriptor for m, with zero offsets.
func FromMatrix(m colorconv.Matrix) (*Descriptor, error) {
	m1, err := float32_matrix(m)
	if err != nil {
		return nil, err
	}
	return &Descriptor{ContentColorSpace: ColorSpaceLinear, MonitorColorSpace: ColorSpaceLinear, Matrix1: m1}, nil
}

func fill_degamma(ramp *[RampSize][3]float32, curve tonecurve.Curve, optimize bool) {
	var steps [OptimizationSteps + 1]float32
	if optimize {
		for s := range steps {
			steps[s] = float32(curve.SampleAt(float64(s) / OptimizationSteps))
		}
	}
	// index zero is left at zero
	for i := 1; i < RampSize; i++ {
		var v float32
		if optimize {
			v = steps[int(math.Round(float64(i)*OptimizationSteps/(RampSize-1)))]
		} else {
			v = float32(curve.SampleAt(float64(i) / (RampSize - 1)))
		}
		ramp[i] = [3]float32{v, v, v}
	}
}

func fill_regamma(ramp *[RampSize][3]float32, trcs [3]tonecurve.Curve, vcgt *[3]tonecurve.Curve) error {
	// invertibility depends only on the kind of curve
	for c, trc := range trcs {
		if _, err := trc.SampleInverseAt(1); err != nil {
			return fmt.Errorf("cannot build the regamma ramp for channel %d: %w", c, err)
		}
	}
	f := func(start, limit int) {
		for i := start; i < limit; i++ {
			x := float64(i) / (RampSize - 1)
			for c, trc := range trcs {
				v, _ := trc.SampleInverseAt(x)
				if vcgt != nil {
					v = vcgt[c].SampleAt(v)
				}
				ramp[i][c] = float32(v)
			}
		}
	}
	return parallel.Run_in_parallel_over_range(0, f, 0, RampSize)
}

func check_ramp(name string, ramp *[RampSize][3]float32) error {
	for i, e := range ramp {
		for c, v := range e {
			if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%s ramp has a non-finite entry at (%d, %d): %v", name, i, c, v)
			}
		}
	}
	return nil
}

// Build combines the conversion matrix with the calibration curve and the
// display response curves. Without a curve the result is the same as
// FromMatrix. With one, the degamma ramp samples the curve and the regamma
// ramp inverts the response curves, followed by the optional video card
// gamma curves.
func Build(m colorconv.Matrix, curve *tonecurve.Curve, trcs [3]tonecurve.Curve, vcgt *[3]tonecurve.Curve, opts ...Option) (*Descriptor, error) {
	o := options{optimize: true}
	for _, f := range opts {
		f(&o)
	}
	ans, err := FromMatrix(m)
	if err != nil || curve == nil {
		return ans, err
	}
	ans.Ramps = &Ramps{}
	fill_degamma(ans.Ramps.Degamma(), *curve, o.optimize)
	if err = fill_regamma(ans.Ramps.Regamma(), trcs, vcgt); err != nil {
		return nil, err
	}
	if err = check_ramp("degamma", ans.Ramps.Degamma()); err == nil {
		err = check_ramp("regamma", ans.Ramps.Regamma())
	}
	if err != nil {
		return nil, err
	}
	return ans, nil
}

// ConversionMatrix maps display RGB to target RGB through the profile
// connection space.
func ConversionMatrix(p *icc.MatrixProfile, target colorconv.ColorSpace) (colorconv.Matrix, error) {
	inv, err := p.Matrix.Inverse()
	if err != nil {
		return inv, fmt.Errorf("the profile matrix is not invertible: %w", err)
	}
	t, err := colorconv.RGBToPCSXYZ(target)
	if err != nil {
		return t, err
	}
	return inv.Mul(t)
}

// ForProfile builds the descriptor that makes a display described by p
// render target. The curve, if any, is the calibration curve target content
// is decoded with.
func ForProfile(p *icc.MatrixProfile, target colorconv.ColorSpace, curve *tonecurve.Curve, opts ...Option) (*Descriptor, error) {
	m, err := ConversionMatrix(p, target)
	if err != nil {
		return nil, err
	}
	return Build(m, curve, p.TRCs, p.VCGT, opts...)
}
