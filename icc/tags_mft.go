package icc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kovidgoyal/gpucolor/tonecurve"
)

const mftHeaderSize = 52

func load_16bit_table(raw []byte, n int) (output []uint16, leftover []byte, ok bool) {
	if len(raw) < 2*n {
		return nil, raw, false
	}
	output = make([]uint16, n)
	for i := range n {
		output[i] = binary.BigEndian.Uint16(raw)
		raw = raw[2:]
	}
	return output, raw, true
}

func load_16bit_curves(sig Signature, t tag, raw []byte, entries int) (ans [3]tonecurve.Curve, leftover []byte, err error) {
	for i := range ans {
		var values []uint16
		var ok bool
		if values, raw, ok = load_16bit_table(raw, entries); !ok {
			return ans, raw, truncated(sig, t.offset)
		}
		if ans[i], err = tonecurve.Sampled16(values, math.MaxUint16); err != nil {
			return ans, raw, fmt.Errorf("invalid curve in the %s tag: %w", sig, err)
		}
	}
	return ans, raw, nil
}

// section 10.11 (lut16Type) in ICC.1-2022-05.pdf. Only three input and three
// output channels are supported. The matrix is ignored since it only applies
// to XYZ inputs.
func decode_mft16(sig Signature, t tag) (ans *Lut16, err error) {
	raw := t.data
	switch typ := t.Type(); typ {
	case Lut16TypeSignature:
	default:
		return nil, &UnsupportedTagTypeError{Tag: sig, Type: typ, Detail: "only lut16 lookup tables are supported"}
	}
	if len(raw) < mftHeaderSize {
		return nil, truncated(sig, t.offset)
	}
	in_channels, out_channels, grid_points := int(raw[8]), int(raw[9]), int(raw[10])
	if in_channels != 3 || out_channels != 3 {
		return nil, &UnsupportedTagTypeError{Tag: sig, Type: Lut16TypeSignature, Detail: fmt.Sprintf("%d input and %d output channels", in_channels, out_channels)}
	}
	if grid_points < 2 {
		return nil, &InvalidProfileError{Offset: t.offset + 10, Reason: fmt.Sprintf("mft2 tag has invalid number of CLUT grid points: %d", grid_points)}
	}
	input_entries, output_entries := int(binary.BigEndian.Uint16(raw[48:50])), int(binary.BigEndian.Uint16(raw[50:52]))
	if input_entries < 2 || output_entries < 2 {
		return nil, &InvalidProfileError{Offset: t.offset + 48, Reason: fmt.Sprintf("mft2 tag has too few table entries: %d input and %d output", input_entries, output_entries)}
	}
	raw = raw[mftHeaderSize:]
	var input, output [3]tonecurve.Curve
	if input, raw, err = load_16bit_curves(sig, t, raw, input_entries); err != nil {
		return nil, err
	}
	samples, raw, ok := load_16bit_table(raw, grid_points*grid_points*grid_points*out_channels)
	if !ok {
		return nil, truncated(sig, t.offset)
	}
	if output, _, err = load_16bit_curves(sig, t, raw, output_entries); err != nil {
		return nil, err
	}
	if ans, err = NewLut16(grid_points, samples, input, output); err != nil {
		return nil, err
	}
	ans.scale = xyzLutScale
	return ans, nil
}
