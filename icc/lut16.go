package icc

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/gpucolor/tonecurve"
)

// u1Fixed15 full scale, the encoding of PCSXYZ values in 16-bit lookup tables
const xyzLutScale = float64(math.MaxUint16) / 32768

// Lut16 is a three dimensional RGB lookup table with per-channel input and
// output curves, as stored in a lut16Type tag.
type Lut16 struct {
	grid          int
	samples       []uint16
	input, output [3]tonecurve.Curve
	scale         float64
}

// NewLut16 creates a lookup table with gridPoints samples per axis. The
// samples are ordered with the first channel varying slowest and hold three
// output values per lattice point.
func NewLut16(gridPoints int, samples []uint16, input, output [3]tonecurve.Curve) (*Lut16, error) {
	if gridPoints < 2 {
		return nil, fmt.Errorf("a lookup table needs at least two grid points per axis, got: %d", gridPoints)
	}
	if expected := gridPoints * gridPoints * gridPoints * 3; len(samples) != expected {
		return nil, fmt.Errorf("a lookup table with %d grid points needs %d samples, got: %d", gridPoints, expected, len(samples))
	}
	return &Lut16{grid: gridPoints, samples: samples, input: input, output: output, scale: 1}, nil
}

func (l *Lut16) GridPoints() int { return l.grid }

func (l *Lut16) lattice(x, y, z int) (r, g, b float64) {
	last := l.grid - 1
	x, y, z = min(x, last), min(y, last), min(z, last)
	idx := ((x*l.grid+y)*l.grid + z) * 3
	return float64(l.samples[idx]) / math.MaxUint16, float64(l.samples[idx+1]) / math.MaxUint16, float64(l.samples[idx+2]) / math.MaxUint16
}

type corner struct{ dx, dy, dz int }

// SampleCLUT interpolates the lattice at the specified coordinates, each in
// [0, 1], using tetrahedral interpolation. Each unit cube is split into six
// tetrahedra sharing the main diagonal and the one containing the point is
// selected by the ordering of the fractional coordinates.
func (l *Lut16) SampleCLUT(r, g, b float64) (ans [3]float64) {
	last := float64(l.grid - 1)
	var n [3]int
	var f [3]float64
	for i, v := range [3]float64{r, g, b} {
		v = min(max(v, 0), 1) * last
		fl := math.Floor(v)
		n[i], f[i] = int(fl), v-fl
	}
	// weights and corners of the selected tetrahedron, the first corner
	// is always the origin and the last is always the opposite corner
	var w [4]float64
	var c1, c2 corner
	if f[0] > f[1] {
		switch {
		case f[1] > f[2]:
			w = [4]float64{1 - f[0], f[0] - f[1], f[1] - f[2], f[2]}
			c1, c2 = corner{1, 0, 0}, corner{1, 1, 0}
		case f[0] > f[2]:
			w = [4]float64{1 - f[0], f[0] - f[2], f[2] - f[1], f[1]}
			c1, c2 = corner{1, 0, 0}, corner{1, 0, 1}
		default:
			w = [4]float64{1 - f[2], f[2] - f[0], f[0] - f[1], f[1]}
			c1, c2 = corner{0, 0, 1}, corner{1, 0, 1}
		}
	} else {
		switch {
		case f[2] > f[1]:
			w = [4]float64{1 - f[2], f[2] - f[1], f[1] - f[0], f[0]}
			c1, c2 = corner{0, 0, 1}, corner{0, 1, 1}
		case f[2] > f[0]:
			w = [4]float64{1 - f[1], f[1] - f[2], f[2] - f[0], f[0]}
			c1, c2 = corner{0, 1, 0}, corner{0, 1, 1}
		default:
			w = [4]float64{1 - f[1], f[1] - f[0], f[0] - f[2], f[2]}
			c1, c2 = corner{0, 1, 0}, corner{1, 1, 0}
		}
	}
	corners := [4]corner{{0, 0, 0}, c1, c2, {1, 1, 1}}
	for i, c := range corners {
		x, y, z := l.lattice(n[0]+c.dx, n[1]+c.dy, n[2]+c.dz)
		ans[0] += w[i] * x
		ans[1] += w[i] * y
		ans[2] += w[i] * z
	}
	return
}

// SampleAt runs the input curves, the lattice and the output curves, in that
// order. For tables whose outputs are PCSXYZ the result is XYZ.
func (l *Lut16) SampleAt(r, g, b float64) (ans [3]float64) {
	in := [3]float64{r, g, b}
	for i := range in {
		in[i] = l.input[i].SampleAt(in[i])
	}
	ans = l.SampleCLUT(in[0], in[1], in[2])
	for i := range ans {
		ans[i] = l.output[i].SampleAt(ans[i]) * l.scale
	}
	return
}

func (l *Lut16) SampleGrayscaleAt(v float64) [3]float64 { return l.SampleAt(v, v, v) }
