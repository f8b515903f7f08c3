package colorconv

import (
	"fmt"
	"math"
)

// This package derives the linear transforms between device RGB primaries and
// CIE XYZ. Every function returns freshly allocated values, none of them keep
// state between calls.
//
// Notes:
// - Chromaticities are CIE 1931 (x, y) pairs. XYZ values are normalized so that
//   the white point has Y = 1.
// - Chromatic adaptation uses the Bradford cone response matrix.
// - The profile connection space white is the ICC D50 value, which differs
//   slightly from the CIE D50 value in its Z component.

var _ = fmt.Print

// Bradford transform matrix
var bradford = Mat3([3][3]float64{
	{0.8951, 0.2664, -0.1614},
	{-0.7502, 1.7135, 0.0367},
	{0.0389, -0.0685, 1.0296},
})

var invBradford = func() Matrix {
	ans, err := bradford.Inverse()
	if err != nil {
		panic(err)
	}
	return ans
}()

// RGBToXYZ returns the matrix converting linear RGB in the given space to XYZ
// relative to the space's own white point.
func RGBToXYZ(cs ColorSpace) (Matrix, error) {
	r, g, b := cs.Red.XYZ(), cs.Green.XYZ(), cs.Blue.XYZ()
	mprime := Mat3([3][3]float64{
		{r.v[0][0], g.v[0][0], b.v[0][0]},
		{r.v[1][0], g.v[1][0], b.v[1][0]},
		{r.v[2][0], g.v[2][0], b.v[2][0]},
	})
	inv, err := mprime.Inverse()
	if err != nil {
		return Matrix{}, fmt.Errorf("primaries of %s are degenerate: %w", cs, err)
	}
	s, err := FromDiagonal(inv.MustMul(cs.White.XYZ()))
	if err != nil {
		return Matrix{}, err
	}
	return mprime.MustMul(s), nil
}

func XYZToRGB(cs ColorSpace) (Matrix, error) {
	m, err := RGBToXYZ(cs)
	if err != nil {
		return m, err
	}
	return m.Inverse()
}

// RGBToRGB returns the matrix converting linear RGB in from to linear RGB in to.
func RGBToRGB(from, to ColorSpace) (Matrix, error) {
	a, err := RGBToXYZ(from)
	if err != nil {
		return a, err
	}
	b, err := XYZToRGB(to)
	if err != nil {
		return b, err
	}
	return b.MustMul(a), nil
}

// ChromaticAdaptation constructs a 3x3 matrix that adapts XYZ values
// from sourceWhite to targetWhite (both 3x1 XYZ columns) using the Bradford method.
func ChromaticAdaptation(sourceWhite, targetWhite Matrix) (Matrix, error) {
	if !sourceWhite.IsColumn() || !targetWhite.IsColumn() {
		return Matrix{}, &ShapeError{Op: "adapt", Left: sourceWhite.Shape(), Right: targetWhite.Shape()}
	}
	// Convert whites to LMS using Bradford
	src := bradford.MustMul(sourceWhite)
	tgt := bradford.MustMul(targetWhite)
	diag := FromDiagonalValues(tgt.v[0][0]/src.v[0][0], tgt.v[1][0]/src.v[1][0], tgt.v[2][0]/src.v[2][0])
	// adapt = invB * diag * B
	return invBradford.MustMul(diag.MustMul(bradford)), nil
}

// RGBToAdaptedXYZ returns the RGB to XYZ matrix of cs followed by a Bradford
// adaptation of its white point onto targetWhite.
func RGBToAdaptedXYZ(cs ColorSpace, targetWhite Matrix) (Matrix, error) {
	xyz, err := RGBToXYZ(cs)
	if err != nil {
		return xyz, err
	}
	adapt, err := ChromaticAdaptation(cs.White.XYZ(), targetWhite)
	if err != nil {
		return adapt, err
	}
	return adapt.MustMul(xyz), nil
}

func RGBToPCSXYZ(cs ColorSpace) (Matrix, error) { return RGBToAdaptedXYZ(cs, D50) }

func PCSXYZToRGB(cs ColorSpace) (Matrix, error) {
	m, err := RGBToPCSXYZ(cs)
	if err != nil {
		return m, err
	}
	return m.Inverse()
}

// XYZScale rescales each row of the 3x3 matrix m so that the white it implies
// (m applied to RGB 1,1,1) lands exactly on target.
func XYZScale(m, target Matrix) (ans Matrix, err error) {
	if m.IsColumn() || !target.IsColumn() {
		return ans, &ShapeError{Op: "xyz scale", Left: m.Shape(), Right: target.Shape()}
	}
	white := m.MustMul(Ones3x1())
	ans = Zero3x3()
	for i := range 3 {
		for j := range 3 {
			ans.v[i][j] = m.v[i][j] * target.v[i][0] / white.v[i][0]
		}
	}
	return ans, nil
}

func XYZScaleToD50(m Matrix) (Matrix, error) { return XYZScale(m, D50) }

func finv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	// when t <= delta: 3*delta^2*(t - 4/29)
	return 3 * delta * delta * (t - 4.0/29.0)
}

// LightnessToLuminance converts CIE L* in [0, 100] to relative luminance Y in [0, 1].
func LightnessToLuminance(L float64) float64 {
	return finv((L + 16.0) / 116.0)
}

func ff(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	// t <= delta^3
	return t/(3*delta*delta) + 4.0/29.0
}

type Lab struct{ L, A, B float64 }

// XYZToLab converts the 3x1 XYZ column into CIELAB relative to the 3x1 white.
func XYZToLab(xyz, white Matrix) Lab {
	fx := ff(xyz.v[0][0] / white.v[0][0])
	fy := ff(xyz.v[1][0] / white.v[1][0])
	fz := ff(xyz.v[2][0] / white.v[2][0])
	return Lab{L: 116.0*fy - 16.0, A: 500.0 * (fx - fy), B: 200.0 * (fy - fz)}
}

func LabToXYZ(c Lab, white Matrix) Matrix {
	fy := (c.L + 16.0) / 116.0
	fx := fy + (c.A / 500.0)
	fz := fy - (c.B / 200.0)
	return Vec3(finv(fx)*white.v[0][0], finv(fy)*white.v[1][0], finv(fz)*white.v[2][0])
}

// DeltaE76 is the euclidean distance between two CIELAB colors.
func DeltaE76(a, b Lab) float64 {
	dl, da, db := a.L-b.L, a.A-b.A, a.B-b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}
