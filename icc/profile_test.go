package icc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/tonecurve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func TestMatrixProfile(t *testing.T) {
	data := gamma_profile(2.2).bytes()
	p, err := Decode(data)
	require.NoError(t, err)
	assert.False(t, p.IsCLUT)
	assert.Nil(t, p.VCGT)
	assert.Equal(t, "Test gamma profile", p.Description)

	colorants := [3][3]float64{
		{0.4360747, 0.2225045, 0.0139322},
		{0.3850649, 0.7168786, 0.0971045},
		{0.1430804, 0.0606169, 0.7141733},
	}
	d50 := colorconv.D50.Column()
	for row := range 3 {
		var q [3]float64
		sum := 0.0
		for col := range 3 {
			q[col] = math.Round(colorants[col][row]*65536) / 65536
			sum += q[col]
		}
		for col := range 3 {
			assert.InDelta(t, q[col]*d50[row]/sum, p.Matrix.At(row, col), 1e-6, "matrix entry (%d, %d)", row, col)
		}
	}
	white := p.Matrix.MustMul(colorconv.Ones3x1())
	for i := range 3 {
		assert.InDelta(t, d50[i], white.Component(i), 1e-12)
	}
	for i, trc := range p.TRCs {
		assert.Equal(t, tonecurve.KindGamma, trc.Kind())
		assert.InDelta(t, math.Pow(0.5, 2.2), trc.SampleAt(0.5), 1e-3, "channel %d", i)
	}
	assert.Equal(t, 0.0, p.BlackLuminance())

	cs, err := p.Primaries()
	require.NoError(t, err)
	assert.InDelta(t, 0.3457, cs.White.X, 1e-3)
	assert.InDelta(t, 0.3585, cs.White.Y, 1e-3)

	assert.Equal(t, []Signature{DescSignature, RedColorantTagSignature, GreenColorantTagSignature, BlueColorantTagSignature,
		RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature}, p.Tags.Signatures())
	offset, size, found := p.Tags.Location(RedColorantTagSignature)
	require.True(t, found)
	assert.Equal(t, 20, size)
	assert.Equal(t, xyz_tag(0.4360747, 0.2225045, 0.0139322), data[offset:offset+size])
	_, _, found = p.Tags.Location(AToB1TagSignature)
	assert.False(t, found)
}

func TestProfileCurves(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		b := gamma_profile(2.2).remove(GreenTRCTagSignature).add(GreenTRCTagSignature, table_tag())
		p, err := Decode(b.bytes())
		require.NoError(t, err)
		assert.Equal(t, tonecurve.Gamma(1), p.TRCs[1])
	})
	t.Run("sampled", func(t *testing.T) {
		b := gamma_profile(2.2).remove(BlueTRCTagSignature).add(BlueTRCTagSignature, table_tag(0, 32768, 65535))
		p, err := Decode(b.bytes())
		require.NoError(t, err)
		assert.Equal(t, tonecurve.KindSampled, p.TRCs[2].Kind())
		assert.InDelta(t, 32768.0/65535/2, p.TRCs[2].SampleAt(0.25), 1e-12)
	})
	t.Run("black level", func(t *testing.T) {
		b := gamma_profile(2.2)
		for _, sig := range RequiredMatrixTags[3:] {
			b.remove(sig).add(sig, table_tag(655, 65535))
		}
		p, err := Decode(b.bytes())
		require.NoError(t, err)
		assert.InDelta(t, 655.0/65535, p.BlackLuminance(), 1e-12)
	})
	t.Run("parametric", func(t *testing.T) {
		para := binary.BigEndian.AppendUint32(tag_header(ParametricCurveTypeSignature), 0)
		para = binary.BigEndian.AppendUint32(para, s15(2.2))
		b := gamma_profile(2.2).remove(RedTRCTagSignature).add(RedTRCTagSignature, para)
		_, err := Decode(b.bytes())
		require.ErrorIs(t, err, ErrUnsupportedTagType)
		var ue *UnsupportedTagTypeError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, RedTRCTagSignature, ue.Tag)
		assert.Equal(t, ParametricCurveTypeSignature, ue.Type)
	})
	t.Run("truncated", func(t *testing.T) {
		b := gamma_profile(2.2).remove(RedTRCTagSignature).add(RedTRCTagSignature, table_tag(1, 2, 3, 4, 5)[:16])
		_, err := Decode(b.bytes())
		require.ErrorIs(t, err, ErrInvalidProfile)
	})
}

func TestProfileValidation(t *testing.T) {
	check := func(t *testing.T, data []byte, offset int, expected, got Signature) {
		t.Helper()
		_, err := Decode(data)
		require.ErrorIs(t, err, ErrInvalidProfile)
		var ie *InvalidProfileError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, offset, ie.Offset)
		assert.Equal(t, expected, ie.Expected)
		assert.Equal(t, got, ie.Got)
	}
	t.Run("device class", func(t *testing.T) {
		b := gamma_profile(2.2)
		b.class = 0x73636e72 // 'scnr'
		check(t, b.bytes(), 0x0C, DisplayClassSignature, b.class)
	})
	t.Run("file signature", func(t *testing.T) {
		b := gamma_profile(2.2)
		b.file_signature = 0
		// checked before the device class
		b.class = 0x73636e72
		check(t, b.bytes(), 0x24, ProfileFileSignature, 0)
	})
	t.Run("color space", func(t *testing.T) {
		b := gamma_profile(2.2)
		b.color_space = 0x434d594b // 'CMYK'
		check(t, b.bytes(), 0x10, ColorSpaceRGB, b.color_space)
	})
	t.Run("pcs", func(t *testing.T) {
		b := gamma_profile(2.2)
		b.pcs = 0x4c616220 // 'Lab '
		check(t, b.bytes(), 0x14, ColorSpaceXYZ, b.pcs)
	})
	t.Run("too short", func(t *testing.T) {
		_, err := Decode(gamma_profile(2.2).bytes()[:100])
		require.ErrorIs(t, err, ErrInvalidProfile)
		_, err = Decode(gamma_profile(2.2).bytes()[:HeaderSize+2])
		require.ErrorIs(t, err, ErrInvalidProfile)
		_, err = Decode(gamma_profile(2.2).bytes()[:HeaderSize+20])
		require.ErrorIs(t, err, ErrInvalidProfile)
	})
	t.Run("tag out of bounds", func(t *testing.T) {
		data := gamma_profile(2.2).bytes()
		binary.BigEndian.PutUint32(data[tagTableAt+4+8:], uint32(len(data)))
		_, err := Decode(data)
		require.ErrorIs(t, err, ErrInvalidProfile)
	})
	t.Run("missing colorant", func(t *testing.T) {
		_, err := Decode(gamma_profile(2.2).remove(BlueColorantTagSignature).bytes())
		require.ErrorIs(t, err, ErrIncompleteProfile)
		var ie *IncompleteProfileError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, []Signature{BlueColorantTagSignature}, ie.Missing)
		assert.Contains(t, err.Error(), "'bXYZ'")
	})
	t.Run("missing curves", func(t *testing.T) {
		_, err := Decode(gamma_profile(2.2).remove(RedTRCTagSignature).remove(BlueTRCTagSignature).bytes())
		var ie *IncompleteProfileError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, []Signature{RedTRCTagSignature, BlueTRCTagSignature}, ie.Missing)
	})
	t.Run("wrong colorant type", func(t *testing.T) {
		_, err := Decode(gamma_profile(2.2).remove(RedColorantTagSignature).add(RedColorantTagSignature, gamma_tag(1)).bytes())
		require.ErrorIs(t, err, ErrUnsupportedTagType)
	})
	t.Run("degenerate colorants", func(t *testing.T) {
		b := gamma_profile(2.2)
		for _, sig := range RequiredMatrixTags[:3] {
			b.remove(sig).add(sig, xyz_tag(0, 0, 0))
		}
		_, err := Decode(b.bytes())
		require.Error(t, err)
	})
}

func TestVideoCardGamma(t *testing.T) {
	ramp := []uint16{0, 64, 128, 255}
	t.Run("8bit", func(t *testing.T) {
		p, err := Decode(gamma_profile(2.2).add(VideoCardGammaTagSignature, vcgt_tag(0, 1, ramp, ramp, []uint16{0, 0, 0, 255})).bytes())
		require.NoError(t, err)
		require.NotNil(t, p.VCGT)
		assert.Equal(t, []float64{0, 64.0 / 255, 128.0 / 255, 1}, p.VCGT[0].Samples())
		assert.Equal(t, 0.0, p.VCGT[2].SampleAt(0.5))
	})
	t.Run("16bit", func(t *testing.T) {
		r16 := []uint16{0, 1000, 65535}
		p, err := Decode(gamma_profile(2.2).add(VideoCardGammaTagSignature, vcgt_tag(0, 2, r16, r16, r16)).bytes())
		require.NoError(t, err)
		require.NotNil(t, p.VCGT)
		assert.Equal(t, []float64{0, 1000.0 / 65535, 1}, p.VCGT[1].Samples())
	})
	for name, data := range map[string][]byte{
		"formula":    vcgt_tag(1, 2, ramp, ramp, ramp),
		"channels":   vcgt_tag(0, 2, ramp, ramp),
		"entry size": vcgt_tag(0, 3, ramp, ramp, ramp),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(gamma_profile(2.2).add(VideoCardGammaTagSignature, data).bytes())
			require.ErrorIs(t, err, ErrUnsupportedTagType)
		})
	}
	t.Run("truncated", func(t *testing.T) {
		data := vcgt_tag(0, 2, ramp, ramp, ramp)
		_, err := Decode(gamma_profile(2.2).add(VideoCardGammaTagSignature, data[:len(data)-3]).bytes())
		require.ErrorIs(t, err, ErrInvalidProfile)
	})
	t.Run("too few entries", func(t *testing.T) {
		for _, r := range [][]uint16{{}, {65535}} {
			_, err := Decode(gamma_profile(2.2).add(VideoCardGammaTagSignature, vcgt_tag(0, 2, r, r, r)).bytes())
			require.ErrorIs(t, err, ErrInvalidProfile)
			var ipe *InvalidProfileError
			require.ErrorAs(t, err, &ipe)
			assert.Contains(t, ipe.Reason, fmt.Sprintf("got: %d", len(r)))
		}
	})
}

func TestProfileDescription(t *testing.T) {
	for _, tc := range []struct {
		name     string
		tag      []byte
		expected string
	}{
		{"desc", desc_tag("Monitor 1"), "Monitor 1"},
		{"mluc en_US", mluc_tag([3]string{"fr", "FR", "Moniteur"}, [3]string{"en", "US", "Monitor ✓"}), "Monitor ✓"},
		{"mluc english", mluc_tag([3]string{"de", "DE", "Bildschirm"}, [3]string{"en", "GB", "Monitor"}), "Monitor"},
		{"mluc other", mluc_tag([3]string{"de", "DE", "Bildschirm"}), "Bildschirm"},
		{"mluc empty", mluc_tag(), ""},
		{"bad type", xyz_tag(1, 1, 1), ""},
		{"truncated desc", desc_tag("Monitor 1")[:14], ""},
		{"bad mluc record size", append(mluc_tag([3]string{"en", "US", "Monitor"})[:12], 0, 0, 0, 1, 0, 0, 0, 4), ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode(gamma_profile(2.2).remove(DescSignature).add(DescSignature, tc.tag).bytes())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p.Description)
			switch tc.name {
			case "bad type":
				require.Error(t, p.DescriptionError)
			case "truncated desc", "bad mluc record size":
				require.ErrorIs(t, p.DescriptionError, ErrInvalidProfile)
			default:
				require.NoError(t, p.DescriptionError)
			}
		})
	}
}

func TestCLUTProfile(t *testing.T) {
	m, err := colorconv.RGBToPCSXYZ(colorconv.SRGB)
	require.NoError(t, err)
	encode := func(r, g, b float64) (ans [3]uint16) {
		xyz := m.MustMul(colorconv.Vec3(r, g, b)).Column()
		for i, v := range xyz {
			ans[i] = uint16(math.Round(v * 32768))
		}
		return
	}
	b := new_profile_builder().add(AToB1TagSignature, mft2_tag(5, encode))
	b.add(DescSignature, mluc_tag([3]string{"en", "US", "LUT"}))
	p, err := Decode(b.bytes())
	require.NoError(t, err)
	assert.True(t, p.IsCLUT)
	assert.Equal(t, "LUT", p.Description)
	require.True(t, m.ApproxEqual(p.Matrix, 1e-3), "%s != %s", p.Matrix, m)
	for i, trc := range p.TRCs {
		assert.Equal(t, tonecurve.KindSampled, trc.Kind())
		assert.Len(t, trc.Samples(), NeutralAxisSamples)
		assert.Equal(t, 1.0, trc.SampleAt(1))
		for _, x := range []float64{0, 0.25, 0.5, 0.75} {
			assert.InDelta(t, x, trc.SampleAt(x), 2e-3, "channel %d at %v", i, x)
		}
	}
	assert.InDelta(t, 0, p.BlackLuminance(), 1e-3)

	t.Run("overrides matrix tags", func(t *testing.T) {
		p2, err := Decode(gamma_profile(2.2).add(AToB1TagSignature, mft2_tag(5, encode)).bytes())
		require.NoError(t, err)
		assert.True(t, p2.IsCLUT)
		assert.Equal(t, p.TRCs, p2.TRCs)
	})
	t.Run("matrix tags not required", func(t *testing.T) {
		_, err := Decode(new_profile_builder().add(AToB1TagSignature, mft2_tag(2, encode)).bytes())
		require.NoError(t, err)
	})
	t.Run("lut8", func(t *testing.T) {
		data := mft2_tag(2, encode)
		binary.BigEndian.PutUint32(data, uint32(Lut8TypeSignature))
		_, err := Decode(new_profile_builder().add(AToB1TagSignature, data).bytes())
		require.ErrorIs(t, err, ErrUnsupportedTagType)
	})
	t.Run("channels", func(t *testing.T) {
		data := mft2_tag(2, encode)
		data[9] = 4
		_, err := Decode(new_profile_builder().add(AToB1TagSignature, data).bytes())
		require.ErrorIs(t, err, ErrUnsupportedTagType)
	})
	t.Run("truncated", func(t *testing.T) {
		data := mft2_tag(3, encode)
		_, err := Decode(new_profile_builder().add(AToB1TagSignature, data[:len(data)-20]).bytes())
		require.ErrorIs(t, err, ErrInvalidProfile)
	})
	t.Run("degenerate", func(t *testing.T) {
		flat := func(r, g, b float64) [3]uint16 { return [3]uint16{100, 100, 100} }
		_, err := Decode(new_profile_builder().add(AToB1TagSignature, mft2_tag(2, flat)).bytes())
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	data := gamma_profile(1.8).bytes()
	path := filepath.Join(t.TempDir(), "test.icc")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	p, err := Load(path)
	require.NoError(t, err)
	q, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	if diff := cmp.Diff(p.TRCs[0].String(), q.TRCs[0].String()); diff != "" {
		t.Fatalf("Unexpected difference between loaded and read profiles:\n%s", diff)
	}
	assert.True(t, p.Matrix.ApproxEqual(q.Matrix, 0))
	_, err = Load(filepath.Join(t.TempDir(), "missing.icc"))
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, os.WriteFile(path, data[:50], 0o644))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrInvalidProfile)
	assert.Contains(t, err.Error(), path)
}
