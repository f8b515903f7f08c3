package icc

import (
	"bytes"
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding/unicode"
)

type test_tag struct {
	sig  Signature
	data []byte
}

type profile_builder struct {
	class, color_space, pcs, file_signature Signature
	tags                                    []test_tag
}

func new_profile_builder() *profile_builder {
	return &profile_builder{class: DisplayClassSignature, color_space: ColorSpaceRGB, pcs: ColorSpaceXYZ, file_signature: ProfileFileSignature}
}

func (b *profile_builder) add(sig Signature, data []byte) *profile_builder {
	b.tags = append(b.tags, test_tag{sig, data})
	return b
}

func (b *profile_builder) remove(sig Signature) *profile_builder {
	tags := b.tags[:0]
	for _, t := range b.tags {
		if t.sig != sig {
			tags = append(tags, t)
		}
	}
	b.tags = tags
	return b
}

func (b *profile_builder) bytes() []byte {
	header := make([]byte, HeaderSize)
	copy(header[4:], "test")
	header[8] = 2
	binary.BigEndian.PutUint32(header[deviceClassAt:], uint32(b.class))
	binary.BigEndian.PutUint32(header[colorSpaceAt:], uint32(b.color_space))
	binary.BigEndian.PutUint32(header[pcsAt:], uint32(b.pcs))
	binary.BigEndian.PutUint32(header[fileSignatureAt:], uint32(b.file_signature))
	var table, body bytes.Buffer
	_ = binary.Write(&table, binary.BigEndian, uint32(len(b.tags)))
	offset := HeaderSize + 4 + len(b.tags)*tagEntrySize
	for _, t := range b.tags {
		_ = binary.Write(&table, binary.BigEndian, [3]uint32{uint32(t.sig), uint32(offset + body.Len()), uint32(len(t.data))})
		body.Write(t.data)
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}
	ans := append(header, table.Bytes()...)
	ans = append(ans, body.Bytes()...)
	binary.BigEndian.PutUint32(ans, uint32(len(ans)))
	return ans
}

func tag_header(typ Signature) []byte {
	ans := make([]byte, 8)
	binary.BigEndian.PutUint32(ans, uint32(typ))
	return ans
}

func s15(v float64) uint32 { return uint32(int32(math.Round(v * 65536))) }

func xyz_tag(x, y, z float64) []byte {
	return binary.BigEndian.AppendUint32(binary.BigEndian.AppendUint32(binary.BigEndian.AppendUint32(tag_header(XYZTypeSignature), s15(x)), s15(y)), s15(z))
}

func gamma_tag(gamma float64) []byte {
	ans := binary.BigEndian.AppendUint32(tag_header(CurveTypeSignature), 1)
	return binary.BigEndian.AppendUint16(ans, uint16(math.Round(gamma*256)))
}

func table_tag(values ...uint16) []byte {
	ans := binary.BigEndian.AppendUint32(tag_header(CurveTypeSignature), uint32(len(values)))
	for _, v := range values {
		ans = binary.BigEndian.AppendUint16(ans, v)
	}
	return ans
}

func vcgt_tag(gamma_type uint32, entry_size int, channels ...[]uint16) []byte {
	ans := binary.BigEndian.AppendUint32(tag_header(VideoCardGammaTypeSignature), gamma_type)
	ans = binary.BigEndian.AppendUint16(ans, uint16(len(channels)))
	ans = binary.BigEndian.AppendUint16(ans, uint16(len(channels[0])))
	ans = binary.BigEndian.AppendUint16(ans, uint16(entry_size))
	for _, c := range channels {
		for _, v := range c {
			if entry_size == 1 {
				ans = append(ans, byte(v))
			} else {
				ans = binary.BigEndian.AppendUint16(ans, v)
			}
		}
	}
	return ans
}

func desc_tag(text string) []byte {
	ans := binary.BigEndian.AppendUint32(tag_header(DescSignature), uint32(len(text)+1))
	ans = append(ans, text...)
	ans = append(ans, 0)
	// empty unicode and scriptcode parts
	return append(ans, make([]byte, 4+4+2+1+67)...)
}

func mluc_tag(records ...[3]string) []byte {
	ans := binary.BigEndian.AppendUint32(tag_header(MultiLocalisedUnicodeSignature), uint32(len(records)))
	ans = binary.BigEndian.AppendUint32(ans, 12)
	offset := 16 + 12*len(records)
	var strings []byte
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	for _, r := range records {
		s, err := enc.Bytes([]byte(r[2]))
		if err != nil {
			panic(err)
		}
		ans = append(ans, r[0][:2]...)
		ans = append(ans, r[1][:2]...)
		ans = binary.BigEndian.AppendUint32(ans, uint32(len(s)))
		ans = binary.BigEndian.AppendUint32(ans, uint32(offset+len(strings)))
		strings = append(strings, s...)
	}
	return append(ans, strings...)
}

// mft2_tag builds a lut16 tag with identity input and output tables whose
// lattice holds f at each grid point.
func mft2_tag(grid int, f func(r, g, b float64) [3]uint16) []byte {
	ans := tag_header(Lut16TypeSignature)
	ans = append(ans, 3, 3, byte(grid), 0)
	for i := range 9 {
		v := 0.0
		if i%4 == 0 {
			v = 1
		}
		ans = binary.BigEndian.AppendUint32(ans, s15(v))
	}
	ans = binary.BigEndian.AppendUint16(ans, 2)
	ans = binary.BigEndian.AppendUint16(ans, 2)
	identity := func() {
		for range 3 {
			ans = binary.BigEndian.AppendUint16(ans, 0)
			ans = binary.BigEndian.AppendUint16(ans, math.MaxUint16)
		}
	}
	identity()
	last := float64(grid - 1)
	for r := range grid {
		for g := range grid {
			for b := range grid {
				for _, v := range f(float64(r)/last, float64(g)/last, float64(b)/last) {
					ans = binary.BigEndian.AppendUint16(ans, v)
				}
			}
		}
	}
	identity()
	return ans
}

// a profile with sRGB colorants adapted to D50 and pure power law TRCs
func gamma_profile(gamma float64) *profile_builder {
	b := new_profile_builder()
	b.add(DescSignature, desc_tag("Test gamma profile"))
	b.add(RedColorantTagSignature, xyz_tag(0.4360747, 0.2225045, 0.0139322))
	b.add(GreenColorantTagSignature, xyz_tag(0.3850649, 0.7168786, 0.0971045))
	b.add(BlueColorantTagSignature, xyz_tag(0.1430804, 0.0606169, 0.7141733))
	for _, sig := range RequiredMatrixTags[3:] {
		b.add(sig, gamma_tag(gamma))
	}
	return b
}
