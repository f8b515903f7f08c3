package csc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Layout of the adapter structure. The pointer slots of the second version
// are filled in by the caller that owns the buffer, they serialize as zero.
type abi_v1 struct {
	Version           uint32
	ContentColorSpace uint32
	MonitorColorSpace uint32
	Unknown1          uint32
	Unknown2          uint32
	UseMatrix1        uint32
	Matrix1           [12]float32
	UseMatrix2        uint32
	Matrix2           [12]float32
}

type abi_v2 struct {
	abi_v1
	_          uint32
	Degamma    uint64
	Regamma    uint64
	Buffer     uint64
	BufferSize int32
	_          uint32
}

var (
	SizeV1 = binary.Size(abi_v1{})
	SizeV2 = binary.Size(abi_v2{})
)

func flatten(m *Matrix3x4) (use uint32, ans [12]float32) {
	if m == nil {
		return
	}
	for i, row := range m {
		copy(ans[i*4:], row[:])
	}
	return 1, ans
}

func unflatten(use uint32, v [12]float32) *Matrix3x4 {
	if use != 1 {
		return nil
	}
	ans := &Matrix3x4{}
	for i := range ans {
		copy(ans[i][:], v[i*4:])
	}
	return ans
}

func (d *Descriptor) header() abi_v1 {
	h := abi_v1{Version: d.Version(), ContentColorSpace: d.ContentColorSpace, MonitorColorSpace: d.MonitorColorSpace}
	h.UseMatrix1, h.Matrix1 = flatten(d.Matrix1)
	h.UseMatrix2, h.Matrix2 = flatten(d.Matrix2)
	return h
}

// MarshalBinary serializes to the little endian adapter layout. Descriptors
// with ramps produce the second version header followed by the ramp buffer.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	var b bytes.Buffer
	h := d.header()
	if d.Ramps == nil {
		b.Grow(SizeV1)
		if err := binary.Write(&b, binary.LittleEndian, &h); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}
	b.Grow(SizeV2 + BufferSize)
	if err := binary.Write(&b, binary.LittleEndian, &abi_v2{abi_v1: h, BufferSize: BufferSize}); err != nil {
		return nil, err
	}
	if err := binary.Write(&b, binary.LittleEndian, d.Ramps); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (d *Descriptor) UnmarshalBinary(data []byte) error {
	var h abi_v1
	if len(data) < SizeV1 {
		return fmt.Errorf("color space conversion data too short: %d < %d", len(data), SizeV1)
	}
	if _, err := binary.Decode(data, binary.LittleEndian, &h); err != nil {
		return err
	}
	ans := Descriptor{ContentColorSpace: h.ContentColorSpace, MonitorColorSpace: h.MonitorColorSpace}
	ans.Matrix1 = unflatten(h.UseMatrix1, h.Matrix1)
	ans.Matrix2 = unflatten(h.UseMatrix2, h.Matrix2)
	switch h.Version {
	case VersionV1:
	case VersionV2:
		var h2 abi_v2
		if len(data) < SizeV2+BufferSize {
			return fmt.Errorf("color space conversion data with ramps too short: %d < %d", len(data), SizeV2+BufferSize)
		}
		if _, err := binary.Decode(data, binary.LittleEndian, &h2); err != nil {
			return err
		}
		if h2.BufferSize != BufferSize {
			return fmt.Errorf("unsupported ramp buffer size: 0x%x", h2.BufferSize)
		}
		ans.Ramps = &Ramps{}
		if _, err := binary.Decode(data[SizeV2:], binary.LittleEndian, ans.Ramps); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown color space conversion version: 0x%x", h.Version)
	}
	*d = ans
	return nil
}
