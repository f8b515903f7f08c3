package icc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kovidgoyal/gpucolor/tonecurve"
)

const (
	vcgtTableType = 0
	vcgtChannels  = 3
)

// decode_vcgt_tag decodes the Apple video card gamma tag. Only the table
// form is supported, with one or two bytes per entry.
func decode_vcgt_tag(sig Signature, t tag) (ans [3]tonecurve.Curve, err error) {
	raw := t.data
	if typ := t.Type(); typ != VideoCardGammaTypeSignature {
		return ans, &UnsupportedTagTypeError{Tag: sig, Type: typ}
	}
	if len(raw) < 18 {
		return ans, truncated(sig, t.offset)
	}
	if gt := binary.BigEndian.Uint32(raw[8:12]); gt != vcgtTableType {
		return ans, &UnsupportedTagTypeError{Tag: sig, Type: VideoCardGammaTypeSignature, Detail: fmt.Sprintf("gamma type %d is not a table", gt)}
	}
	channels := int(binary.BigEndian.Uint16(raw[12:14]))
	entries := int(binary.BigEndian.Uint16(raw[14:16]))
	entry_size := int(binary.BigEndian.Uint16(raw[16:18]))
	if channels != vcgtChannels {
		return ans, &UnsupportedTagTypeError{Tag: sig, Type: VideoCardGammaTypeSignature, Detail: fmt.Sprintf("%d channels instead of %d", channels, vcgtChannels)}
	}
	if entries < 2 {
		return ans, &InvalidProfileError{Offset: t.offset + 14, Reason: fmt.Sprintf("the %s tag needs at least two entries per channel, got: %d", sig, entries)}
	}
	var divisor uint16
	switch entry_size {
	case 1:
		divisor = math.MaxUint8
	case 2:
		divisor = math.MaxUint16
	default:
		return ans, &UnsupportedTagTypeError{Tag: sig, Type: VideoCardGammaTypeSignature, Detail: fmt.Sprintf("entry size of %d bytes", entry_size)}
	}
	raw = raw[18:]
	if len(raw) < channels*entries*entry_size {
		return ans, truncated(sig, t.offset)
	}
	for c := range channels {
		values := make([]uint16, entries)
		for i := range values {
			if entry_size == 1 {
				values[i] = uint16(raw[0])
			} else {
				values[i] = binary.BigEndian.Uint16(raw)
			}
			raw = raw[entry_size:]
		}
		if ans[c], err = tonecurve.Sampled16(values, divisor); err != nil {
			return ans, fmt.Errorf("invalid %s channel %d: %w", sig, c, err)
		}
	}
	return
}
