package colorconv

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var _ = fmt.Print

// Determinants with a magnitude below this are treated as zero by Inverse().
// Well formed RGB to XYZ matrices have determinants around 1e-1, degenerate
// primaries produce values at the level of float64 rounding noise.
const SingularTolerance = 1e-12

var (
	ErrShape          = errors.New("matrix shape mismatch")
	ErrSingularMatrix = errors.New("matrix is singular")
)

type ShapeError struct {
	Op          string
	Left, Right [2]int // rows, cols of the operands, Right is zero for unary operations
}

func (e *ShapeError) Error() string {
	if e.Right == [2]int{} {
		return fmt.Sprintf("%s: unsupported matrix shape %dx%d", e.Op, e.Left[0], e.Left[1])
	}
	return fmt.Sprintf("%s: incompatible matrix shapes %dx%d and %dx%d", e.Op, e.Left[0], e.Left[1], e.Right[0], e.Right[1])
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

type SingularMatrixError struct {
	Determinant float64
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("matrix is singular and cannot be inverted (determinant: %g)", e.Determinant)
}

func (e *SingularMatrixError) Is(target error) bool { return target == ErrSingularMatrix }

// Matrix is a 3x3 or 3x1 matrix of doubles. It is a value type, copies never
// share storage and no operation modifies its operands.
type Matrix struct {
	cols int
	v    [3][3]float64
}

func Mat3(v [3][3]float64) Matrix { return Matrix{cols: 3, v: v} }

func Vec3(x, y, z float64) Matrix {
	return Matrix{cols: 1, v: [3][3]float64{{x}, {y}, {z}}}
}

// NewMatrix creates a matrix from rows, which must describe a 3x3 or 3x1 matrix.
func NewMatrix(rows [][]float64) (ans Matrix, err error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	bad := len(rows) != 3 || (cols != 3 && cols != 1)
	for _, r := range rows {
		if len(r) != cols {
			bad = true
		}
	}
	if bad {
		return ans, &ShapeError{Op: "new", Left: [2]int{len(rows), cols}}
	}
	ans.cols = cols
	for i, r := range rows {
		copy(ans.v[i][:], r)
	}
	return ans, nil
}

func Identity() Matrix { return FromDiagonalValues(1, 1, 1) }
func Zero3x3() Matrix  { return Matrix{cols: 3} }
func Zero3x1() Matrix  { return Matrix{cols: 1} }
func Ones3x1() Matrix  { return Vec3(1, 1, 1) }

func FromDiagonalValues(a, b, c float64) Matrix {
	return Mat3([3][3]float64{{a, 0, 0}, {0, b, 0}, {0, 0, c}})
}

// FromDiagonal creates a 3x3 matrix with the entries of the 3x1 column on its diagonal.
func FromDiagonal(column Matrix) (Matrix, error) {
	if !column.IsColumn() {
		return Matrix{}, &ShapeError{Op: "diagonal", Left: column.Shape()}
	}
	return FromDiagonalValues(column.v[0][0], column.v[1][0], column.v[2][0]), nil
}

func (m Matrix) Rows() int { return 3 }

// Cols returns 3 or 1. The zero Matrix value is treated as a 3x3 zero matrix.
func (m Matrix) Cols() int {
	if m.cols == 0 {
		return 3
	}
	return m.cols
}

func (m Matrix) Shape() [2]int       { return [2]int{3, m.Cols()} }
func (m Matrix) IsColumn() bool      { return m.cols == 1 }
func (m Matrix) At(i, j int) float64 { return m.v[i][j] }

// Component returns entry i of a 3x1 matrix.
func (m Matrix) Component(i int) float64 { return m.v[i][0] }

// Column returns the entries of a 3x1 matrix, or the first column of a 3x3 one.
func (m Matrix) Column() [3]float64 { return [3]float64{m.v[0][0], m.v[1][0], m.v[2][0]} }

// Array returns a copy of the backing values, unused columns are zero.
func (m Matrix) Array() [3][3]float64 { return m.v }

func (a Matrix) Mul(b Matrix) (ans Matrix, err error) {
	if a.IsColumn() {
		return ans, &ShapeError{Op: "multiply", Left: a.Shape(), Right: b.Shape()}
	}
	ans.cols = b.Cols()
	for i := range 3 {
		for j := range ans.cols {
			sum := 0.0
			for k := range 3 {
				sum += a.v[i][k] * b.v[k][j]
			}
			ans.v[i][j] = sum
		}
	}
	return ans, nil
}

// MustMul is Mul for operands whose shapes are known to be compatible by
// construction. It panics on a shape mismatch.
func (a Matrix) MustMul(b Matrix) Matrix {
	ans, err := a.Mul(b)
	if err != nil {
		panic(err)
	}
	return ans
}

func (m Matrix) Scale(s float64) Matrix {
	return m.Map(func(x float64) float64 { return x * s })
}

func (m Matrix) Div(s float64) Matrix {
	return m.Map(func(x float64) float64 { return x / s })
}

func (a Matrix) elementwise(op string, b Matrix, f func(x, y float64) float64) (ans Matrix, err error) {
	if a.Cols() != b.Cols() {
		return ans, &ShapeError{Op: op, Left: a.Shape(), Right: b.Shape()}
	}
	ans.cols = a.Cols()
	for i := range 3 {
		for j := range ans.cols {
			ans.v[i][j] = f(a.v[i][j], b.v[i][j])
		}
	}
	return
}

func (a Matrix) Add(b Matrix) (Matrix, error) {
	return a.elementwise("add", b, func(x, y float64) float64 { return x + y })
}

func (a Matrix) Sub(b Matrix) (Matrix, error) {
	return a.elementwise("subtract", b, func(x, y float64) float64 { return x - y })
}

// Map returns a new matrix of the same shape with f applied to every entry.
func (m Matrix) Map(f func(float64) float64) (ans Matrix) {
	ans.cols = m.Cols()
	for i := range 3 {
		for j := range ans.cols {
			ans.v[i][j] = f(m.v[i][j])
		}
	}
	return
}

func (m Matrix) Determinant() float64 {
	v := &m.v
	return v[0][0]*(v[1][1]*v[2][2]-v[1][2]*v[2][1]) -
		v[0][1]*(v[1][0]*v[2][2]-v[1][2]*v[2][0]) +
		v[0][2]*(v[1][0]*v[2][1]-v[1][1]*v[2][0])
}

func (m Matrix) Inverse() (ans Matrix, err error) {
	if m.IsColumn() {
		return ans, &ShapeError{Op: "inverse", Left: m.Shape()}
	}
	det := m.Determinant()
	if math.Abs(det) < SingularTolerance || math.IsNaN(det) {
		return ans, &SingularMatrixError{Determinant: det}
	}
	v := &m.v
	adj := [3][3]float64{
		{
			v[1][1]*v[2][2] - v[1][2]*v[2][1],
			v[0][2]*v[2][1] - v[0][1]*v[2][2],
			v[0][1]*v[1][2] - v[0][2]*v[1][1],
		},
		{
			v[1][2]*v[2][0] - v[1][0]*v[2][2],
			v[0][0]*v[2][2] - v[0][2]*v[2][0],
			v[0][2]*v[1][0] - v[0][0]*v[1][2],
		},
		{
			v[1][0]*v[2][1] - v[1][1]*v[2][0],
			v[0][1]*v[2][0] - v[0][0]*v[2][1],
			v[0][0]*v[1][1] - v[0][1]*v[1][0],
		},
	}
	return Mat3(adj).Div(det), nil
}

func (a Matrix) ApproxEqual(b Matrix, tolerance float64) bool {
	if a.Cols() != b.Cols() {
		return false
	}
	for i := range 3 {
		for j := range a.Cols() {
			if math.Abs(a.v[i][j]-b.v[i][j]) > tolerance {
				return false
			}
		}
	}
	return true
}

func (m Matrix) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i := range 3 {
		if i > 0 {
			b.WriteString("; ")
		}
		for j := range m.Cols() {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%.6g", m.v[i][j])
		}
	}
	b.WriteString("]")
	return b.String()
}
