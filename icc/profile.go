package icc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/tonecurve"
)

var _ = fmt.Print

// MatrixProfile is a display profile reduced to a colorant matrix adapted
// to the D50 profile connection space and three tone response curves.
// Profiles built from a lookup table have a derived matrix and sampled
// curves. A MatrixProfile is not modified after it is returned.
type MatrixProfile struct {
	Matrix      colorconv.Matrix
	TRCs        [3]tonecurve.Curve
	VCGT        *[3]tonecurve.Curve
	Description string
	// DescriptionError is set when the profile has a description tag that
	// could not be decoded, the profile is usable regardless.
	DescriptionError error
	IsCLUT           bool
	Tags             TagTable
}

// BlackLuminance returns the luminance the display produces for zero input.
func (p *MatrixProfile) BlackLuminance() float64 {
	black := colorconv.Vec3(p.TRCs[0].SampleAt(0), p.TRCs[1].SampleAt(0), p.TRCs[2].SampleAt(0))
	return p.Matrix.MustMul(black).Component(1)
}

// Primaries returns the chromaticities of the colorants and of the white
// produced by driving all three at full strength.
func (p *MatrixProfile) Primaries() (ans colorconv.ColorSpace, err error) {
	points := []*colorconv.Point{&ans.Red, &ans.Green, &ans.Blue, &ans.White}
	cols := [4]colorconv.Matrix{colorconv.Vec3(1, 0, 0), colorconv.Vec3(0, 1, 0), colorconv.Vec3(0, 0, 1), colorconv.Ones3x1()}
	for i, c := range cols {
		if *points[i], err = chromaticity(p.Matrix.MustMul(c).Column()); err != nil {
			return ans, err
		}
	}
	return
}

func check_signature(data []byte, offset int, expected Signature) error {
	if got := Signature(binary.BigEndian.Uint32(data[offset:])); got != expected {
		return &InvalidProfileError{Offset: offset, Expected: expected, Got: got}
	}
	return nil
}

func validate_header(data []byte) (err error) {
	if len(data) < HeaderSize {
		return &InvalidProfileError{Offset: len(data), Reason: fmt.Sprintf("profile is only %d bytes, smaller than the header", len(data))}
	}
	for _, x := range []struct {
		offset int
		sig    Signature
	}{{fileSignatureAt, ProfileFileSignature}, {deviceClassAt, DisplayClassSignature}, {colorSpaceAt, ColorSpaceRGB}, {pcsAt, ColorSpaceXYZ}} {
		if err = check_signature(data, x.offset, x.sig); err != nil {
			return err
		}
	}
	return nil
}

func decode_colorants(tags TagTable) (m colorconv.Matrix, err error) {
	var cols [3][3]float64
	for i, sig := range RequiredMatrixTags[:3] {
		t, _ := tags.get(sig)
		if cols[i], err = decode_xyz_tag(sig, t); err != nil {
			return
		}
	}
	var v [3][3]float64
	for r := range 3 {
		for c := range 3 {
			v[r][c] = cols[c][r]
		}
	}
	return colorconv.Mat3(v), nil
}

func decode_matrix_profile(p *MatrixProfile) (err error) {
	var missing []Signature
	for _, sig := range RequiredMatrixTags {
		if !p.Tags.Has(sig) {
			missing = append(missing, sig)
		}
	}
	if len(missing) > 0 {
		return &IncompleteProfileError{Missing: missing}
	}
	colorants, err := decode_colorants(p.Tags)
	if err != nil {
		return err
	}
	for i, sig := range RequiredMatrixTags[3:] {
		t, _ := p.Tags.get(sig)
		if p.TRCs[i], err = decode_curve_tag(sig, t); err != nil {
			return err
		}
	}
	if p.Matrix, err = colorconv.XYZScaleToD50(colorants); err != nil {
		return fmt.Errorf("the colorant tags do not form a usable matrix: %w", err)
	}
	return nil
}

func decode_clut_profile(p *MatrixProfile, t tag) (err error) {
	lut, err := decode_mft16(AToB1TagSignature, t)
	if err != nil {
		return err
	}
	p.IsCLUT = true
	p.Matrix, p.TRCs, err = normalize_lut(lut)
	return
}

// Decode parses a display profile. The data is not retained.
func Decode(data []byte) (p *MatrixProfile, err error) {
	if err = validate_header(data); err != nil {
		return nil, err
	}
	p = &MatrixProfile{}
	if p.Tags, err = parse_tag_table(data); err != nil {
		return nil, err
	}
	if t, ok := p.Tags.get(AToB1TagSignature); ok {
		err = decode_clut_profile(p, t)
	} else {
		err = decode_matrix_profile(p)
	}
	if err != nil {
		return nil, err
	}
	if t, ok := p.Tags.get(VideoCardGammaTagSignature); ok {
		vcgt, err := decode_vcgt_tag(VideoCardGammaTagSignature, t)
		if err != nil {
			return nil, err
		}
		p.VCGT = &vcgt
	}
	if t, ok := p.Tags.get(DescSignature); ok {
		if p.Description, p.DescriptionError = decode_description(DescSignature, t); p.DescriptionError != nil {
			p.Description = ""
		}
	}
	p.Tags.detach()
	return p, nil
}

func Read(r io.Reader) (*MatrixProfile, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return Decode(buf.Bytes())
}

// Load opens the file read-only, parses it and closes it.
func Load(path string) (p *MatrixProfile, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if p, err = Read(f); err != nil {
		return nil, fmt.Errorf("failed to load ICC profile from %s: %w", path, err)
	}
	return
}
