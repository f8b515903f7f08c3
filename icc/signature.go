package icc

type Signature uint32

const (
	ProfileFileSignature  Signature = 0x61637370 // 'acsp'
	DisplayClassSignature Signature = 0x6d6e7472 // 'mntr'
	ColorSpaceRGB         Signature = 0x52474220 // 'RGB '
	ColorSpaceXYZ         Signature = 0x58595a20 // 'XYZ '

	RedColorantTagSignature    Signature = 0x7258595a // 'rXYZ'
	GreenColorantTagSignature  Signature = 0x6758595a // 'gXYZ'
	BlueColorantTagSignature   Signature = 0x6258595a // 'bXYZ'
	RedTRCTagSignature         Signature = 0x72545243 // 'rTRC'
	GreenTRCTagSignature       Signature = 0x67545243 // 'gTRC'
	BlueTRCTagSignature        Signature = 0x62545243 // 'bTRC'
	AToB1TagSignature          Signature = 0x41324231 // 'A2B1'
	VideoCardGammaTagSignature Signature = 0x76636774 // 'vcgt'
	DescSignature              Signature = 0x64657363 // 'desc'

	XYZTypeSignature               Signature = 0x58595a20 // 'XYZ '
	CurveTypeSignature             Signature = 0x63757276 // 'curv'
	ParametricCurveTypeSignature   Signature = 0x70617261 // 'para'
	Lut16TypeSignature             Signature = 0x6d667432 // 'mft2'
	Lut8TypeSignature              Signature = 0x6d667431 // 'mft1'
	VideoCardGammaTypeSignature    Signature = 0x76636774 // 'vcgt'
	MultiLocalisedUnicodeSignature Signature = 0x6D6C7563 // 'mluc'
)

// The tags a matrix/TRC profile must contain
var RequiredMatrixTags = [...]Signature{
	RedColorantTagSignature, GreenColorantTagSignature, BlueColorantTagSignature,
	RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature,
}

func maskNull(b byte) byte {
	switch b {
	case 0:
		return ' '
	default:
		return b
	}
}

func (s Signature) String() string {
	v := []byte{
		(maskNull(byte((s >> 24) & 0xff))),
		(maskNull(byte((s >> 16) & 0xff))),
		(maskNull(byte((s >> 8) & 0xff))),
		(maskNull(byte(s & 0xff))),
	}
	return "'" + string(v) + "'"
}
