package icc

import (
	"encoding/binary"
)

func readS15Fixed16BE(raw []byte) float64 {
	return float64(int32(binary.BigEndian.Uint32(raw))) / 65536
}

func fixed88ToFloat(raw []byte) float64 {
	return float64(uint16(raw[0])<<8|uint16(raw[1])) / 256
}

// section 10.31 (XYZType) in ICC.1-2022-05.pdf, only the first XYZ number is used
func decode_xyz_tag(sig Signature, t tag) (xyz [3]float64, err error) {
	if typ := t.Type(); typ != XYZTypeSignature {
		return xyz, &UnsupportedTagTypeError{Tag: sig, Type: typ}
	}
	if len(t.data) < 8+12 {
		return xyz, truncated(sig, t.offset)
	}
	for i := range 3 {
		xyz[i] = readS15Fixed16BE(t.data[8+4*i:])
	}
	return
}
