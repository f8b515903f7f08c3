package icc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kovidgoyal/gpucolor/tonecurve"
)

var _ = fmt.Print

// decode_curve_tag decodes a curveType TRC. Zero entries is the identity, one
// entry is a u8Fixed8 exponent, anything else is a table of 16-bit samples.
func decode_curve_tag(sig Signature, t tag) (tonecurve.Curve, error) {
	raw := t.data
	if typ := t.Type(); typ != CurveTypeSignature {
		return tonecurve.Curve{}, &UnsupportedTagTypeError{Tag: sig, Type: typ, Detail: "only curv tone response curves are supported"}
	}
	if len(raw) < 12 {
		return tonecurve.Curve{}, truncated(sig, t.offset)
	}
	count := int(binary.BigEndian.Uint32(raw[8:12]))
	switch count {
	case 0:
		return tonecurve.Gamma(1), nil
	case 1:
		if len(raw) < 14 {
			return tonecurve.Curve{}, truncated(sig, t.offset)
		}
		return tonecurve.Gamma(fixed88ToFloat(raw[12:14])), nil
	default:
		if len(raw) < 12+2*count {
			return tonecurve.Curve{}, truncated(sig, t.offset)
		}
		points := make([]uint16, count)
		if _, err := binary.Decode(raw[12:], binary.BigEndian, points); err != nil {
			return tonecurve.Curve{}, truncated(sig, t.offset)
		}
		return tonecurve.Sampled16(points, math.MaxUint16)
	}
}
