// Package csc builds and serializes the color space conversion descriptor
// programmed into the display adapter. The adapter pipeline is: content
// degamma, matrix2, matrix1, monitor regamma. Only the 3x3 parts of the
// matrices compose, offsets are added.
package csc

import (
	"fmt"
	"strings"
)

const (
	RampSize      = 1024
	BufferSize    = 2 * RampSize * 3 * 4 // 0x6000
	RegammaOffset = BufferSize / 2       // 0x3000

	VersionV1 uint32 = 0x1007C
	VersionV2 uint32 = 0x200A0

	// Color space codes understood by the adapter. ColorSpaceLinear is the
	// default content space and selects the linear/adapted path when used
	// for the monitor. Zero for the monitor disables conversion.
	ColorSpaceDisabled uint32 = 0
	ColorSpaceLinear   uint32 = 2
)

// Matrix3x4 holds per-channel gains in the first three columns and an
// offset in the last.
type Matrix3x4 [3][4]float32

func (m Matrix3x4) String() string {
	rows := make([]string, 3)
	for i, r := range m {
		rows[i] = fmt.Sprintf("%9.6f %9.6f %9.6f | %9.6f", r[0], r[1], r[2], r[3])
	}
	return strings.Join(rows, "\n")
}

// Ramps is the contiguous ramp buffer, interleaved RGB degamma entries
// followed by interleaved RGB regamma entries.
type Ramps [2][RampSize][3]float32

func (r *Ramps) Degamma() *[RampSize][3]float32 { return &r[0] }
func (r *Ramps) Regamma() *[RampSize][3]float32 { return &r[1] }

type Descriptor struct {
	ContentColorSpace uint32     `json:"content_color_space"`
	MonitorColorSpace uint32     `json:"monitor_color_space"`
	Matrix1           *Matrix3x4 `json:"matrix1,omitempty"`
	Matrix2           *Matrix3x4 `json:"matrix2,omitempty"`
	Ramps             *Ramps     `json:"ramps,omitempty"`
}

// Version is the ABI version the descriptor serializes to, descriptors
// with ramps need the larger layout.
func (d *Descriptor) Version() uint32 {
	if d.Ramps != nil {
		return VersionV2
	}
	return VersionV1
}

// IsActive reports whether a descriptor read back from the adapter has
// conversion enabled.
func (d *Descriptor) IsActive() bool { return d.MonitorColorSpace != ColorSpaceDisabled }

func (d *Descriptor) Clone() *Descriptor {
	ans := *d
	if d.Matrix1 != nil {
		m := *d.Matrix1
		ans.Matrix1 = &m
	}
	if d.Matrix2 != nil {
		m := *d.Matrix2
		ans.Matrix2 = &m
	}
	if d.Ramps != nil {
		r := *d.Ramps
		ans.Ramps = &r
	}
	return &ans
}

func (d *Descriptor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Descriptor{version: 0x%X content: %d monitor: %d", d.Version(), d.ContentColorSpace, d.MonitorColorSpace)
	for i, m := range []*Matrix3x4{d.Matrix1, d.Matrix2} {
		if m != nil {
			fmt.Fprintf(&b, "\nmatrix%d:\n%s", i+1, m)
		}
	}
	if d.Ramps != nil {
		dg, rg := d.Ramps.Degamma(), d.Ramps.Regamma()
		fmt.Fprintf(&b, "\ndegamma: %v ... %v\nregamma: %v ... %v", dg[1], dg[RampSize-1], rg[0], rg[RampSize-1])
	}
	b.WriteString("}")
	return b.String()
}

// Disable returns the descriptor that turns conversion off.
func Disable() *Descriptor { return &Descriptor{ContentColorSpace: ColorSpaceLinear} }
