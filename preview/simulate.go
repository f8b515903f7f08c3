// Package preview renders the effect of a conversion descriptor in software,
// for checking descriptors without the adapter, and handles the image I/O
// needed to look at the result.
package preview

import (
	"fmt"
	"image"
	"math"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/gpucolor/csc"
	"github.com/kovidgoyal/gpucolor/tonecurve"
)

var _ = fmt.Print

// the curves the adapter uses when a descriptor carries no ramps
var default_curve = tonecurve.SRGB(0)

type pipeline struct {
	degamma, regamma *[csc.RampSize][3]float32
	matrix           [3][3]float64
	offset           [3]float64
}

func lookup(ramp *[csc.RampSize][3]float32, c int, x float64) float64 {
	x = min(1, max(0, x))
	pos := x * (csc.RampSize - 1)
	i := int(pos)
	if i >= csc.RampSize-1 {
		return float64(ramp[csc.RampSize-1][c])
	}
	frac := pos - float64(i)
	return float64(ramp[i][c])*(1-frac) + float64(ramp[i+1][c])*frac
}

func new_pipeline(d *csc.Descriptor) *pipeline {
	p := &pipeline{}
	m1 := d.Matrix1
	for i := range 3 {
		for j := range 3 {
			p.matrix[i][j] = float64(m1[i][j])
		}
		p.offset[i] = float64(m1[i][3])
	}
	if m2 := d.Matrix2; m2 != nil {
		// matrix2 runs first: m1·(m2·x + o2) + o1
		var m [3][3]float64
		var o [3]float64
		for i := range 3 {
			for j := range 3 {
				for k := range 3 {
					m[i][j] += p.matrix[i][k] * float64(m2[k][j])
				}
				o[i] += p.matrix[i][j] * float64(m2[j][3])
			}
			o[i] += p.offset[i]
		}
		p.matrix, p.offset = m, o
	}
	if d.Ramps != nil {
		p.degamma, p.regamma = d.Ramps.Degamma(), d.Ramps.Regamma()
	}
	return p
}

func (p *pipeline) convert(rgb *[3]float64) {
	var lin [3]float64
	for c, v := range rgb {
		if p.degamma != nil {
			lin[c] = lookup(p.degamma, c, v)
		} else {
			lin[c] = default_curve.SampleAt(v)
		}
	}
	for i := range 3 {
		v := p.offset[i]
		for j := range 3 {
			v += p.matrix[i][j] * lin[j]
		}
		v = min(1, max(0, v))
		if p.regamma != nil {
			rgb[i] = lookup(p.regamma, i, v)
		} else {
			rgb[i], _ = default_curve.SampleInverseAt(v)
		}
	}
}

func to_unit(hi, lo uint8) float64 { return float64(uint16(hi)<<8|uint16(lo)) / math.MaxUint16 }

func from_unit(v float64) uint16 {
	return uint16(math.Round(min(1, max(0, v)) * math.MaxUint16))
}

// Simulate returns the signal the adapter would send to the display for img
// when programmed with d. Pixel values are taken as encoded content. A nil
// or disabled descriptor leaves colors unchanged. Alpha is preserved.
func Simulate(img image.Image, d *csc.Descriptor) (*image.NRGBA64, error) {
	ans := to_nrgba64(img)
	if d == nil || !d.IsActive() || d.Matrix1 == nil {
		return ans, nil
	}
	p := new_pipeline(d)
	width := ans.Rect.Dx()
	if width == 0 {
		return ans, nil
	}
	f := func(start, limit int) {
		var rgb [3]float64
		for y := start; y < limit; y++ {
			row := ans.Pix[ans.Stride*y:]
			_ = row[8*(width-1)]
			for range width {
				s := row[0:8:8]
				rgb[0], rgb[1], rgb[2] = to_unit(s[0], s[1]), to_unit(s[2], s[3]), to_unit(s[4], s[5])
				p.convert(&rgb)
				for c, v := range rgb {
					u := from_unit(v)
					s[2*c] = uint8(u >> 8)
					s[2*c+1] = uint8(u)
				}
				row = row[8:]
			}
		}
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, ans.Rect.Dy()); err != nil {
		return nil, fmt.Errorf("failed to simulate the conversion: %w", err)
	}
	return ans, nil
}

// TestPattern returns an opaque image with horizontal bands of red, green,
// blue and gray ramps running from black on the left to full intensity on
// the right.
func TestPattern(width, height int) *image.NRGBA64 {
	ans := image.NewNRGBA64(image.Rect(0, 0, width, height))
	for y := range height {
		band := min(3, 4*y/max(1, height))
		row := ans.Pix[ans.Stride*y:]
		for x := range width {
			v := 1.0
			if width > 1 {
				v = float64(x) / float64(width-1)
			}
			u := from_unit(v)
			var rgb [3]uint16
			if band == 3 {
				rgb = [3]uint16{u, u, u}
			} else {
				rgb[band] = u
			}
			s := row[8*x : 8*x+8 : 8*x+8]
			for c, v := range rgb {
				s[2*c], s[2*c+1] = uint8(v>>8), uint8(v)
			}
			s[6], s[7] = 0xff, 0xff
		}
	}
	return ans
}
