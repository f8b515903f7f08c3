package csc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/icc"
	"github.com/kovidgoyal/gpucolor/tonecurve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

var test_matrix = colorconv.Mat3([3][3]float64{{0.8, 0.15, 0.05}, {0.03, 0.9, 0.07}, {0.01, 0.04, 0.95}})

func srgb_trcs() [3]tonecurve.Curve {
	c := tonecurve.SRGB(0)
	return [3]tonecurve.Curve{c, c, c}
}

func TestFromMatrix(t *testing.T) {
	d, err := FromMatrix(test_matrix)
	require.NoError(t, err)
	assert.Equal(t, ColorSpaceLinear, d.ContentColorSpace)
	assert.Equal(t, ColorSpaceLinear, d.MonitorColorSpace)
	assert.Nil(t, d.Matrix2)
	assert.Nil(t, d.Ramps)
	assert.Equal(t, VersionV1, d.Version())
	assert.True(t, d.IsActive())
	require.NotNil(t, d.Matrix1)
	for i := range 3 {
		for j := range 3 {
			assert.Equal(t, float32(test_matrix.At(i, j)), d.Matrix1[i][j])
		}
		assert.Equal(t, float32(0), d.Matrix1[i][3])
	}

	_, err = FromMatrix(colorconv.Vec3(1, 2, 3))
	require.ErrorIs(t, err, colorconv.ErrShape)
	_, err = FromMatrix(test_matrix.Map(func(float64) float64 { return math.NaN() }))
	require.Error(t, err)

	same, err := Build(test_matrix, nil, srgb_trcs(), nil)
	require.NoError(t, err)
	if diff := cmp.Diff(d, same); diff != "" {
		t.Fatalf("Build without a curve differs from FromMatrix:\n%s", diff)
	}
}

func TestBuildRamps(t *testing.T) {
	curve := tonecurve.BT1886(0.001)
	for _, optimize := range []bool{true, false} {
		t.Run(fmt.Sprintf("optimize=%v", optimize), func(t *testing.T) {
			d, err := Build(test_matrix, &curve, srgb_trcs(), nil, WithOptimization(optimize))
			require.NoError(t, err)
			require.NotNil(t, d.Ramps)
			assert.Equal(t, VersionV2, d.Version())
			dg, rg := d.Ramps.Degamma(), d.Ramps.Regamma()
			assert.Len(t, dg, RampSize)
			assert.Len(t, rg, RampSize)
			assert.Equal(t, [3]float32{}, dg[0])
			assert.InDelta(t, 1, dg[RampSize-1][0], 1e-6)
			assert.Equal(t, [3]float32{1, 1, 1}, rg[RampSize-1])
			assert.Equal(t, [3]float32{}, rg[0])
			for i := 1; i < RampSize; i++ {
				require.GreaterOrEqual(t, dg[i][0], dg[i-1][0])
				require.Equal(t, dg[i][0], dg[i][1])
				require.Equal(t, dg[i][0], dg[i][2])
				require.GreaterOrEqual(t, rg[i][0], rg[i-1][0])
			}
			x := 600.0 / 1023
			expected, err := tonecurve.SRGB(0).SampleInverseAt(x)
			require.NoError(t, err)
			assert.Equal(t, float32(expected), rg[600][1])
			if !optimize {
				assert.Equal(t, float32(curve.SampleAt(x)), dg[600][0])
			}
		})
	}
	t.Run("reduction", func(t *testing.T) {
		d, err := Build(test_matrix, &curve, srgb_trcs(), nil)
		require.NoError(t, err)
		dg := d.Ramps.Degamma()
		distinct := map[float32]bool{}
		for i := 1; i < RampSize; i++ {
			step := int(math.Round(float64(i) * OptimizationSteps / (RampSize - 1)))
			require.Equal(t, float32(curve.SampleAt(float64(step)/OptimizationSteps)), dg[i][0], "index: %d", i)
			distinct[dg[i][0]] = true
		}
		// indices 1 and 2 quantize to step 0
		assert.Equal(t, dg[1], dg[2])
		assert.Len(t, distinct, OptimizationSteps+1)
	})
	t.Run("vcgt", func(t *testing.T) {
		half, err := tonecurve.SampledFloat([]float64{0, 0.5})
		require.NoError(t, err)
		id := tonecurve.Gamma(1)
		d, err := Build(test_matrix, &curve, srgb_trcs(), &[3]tonecurve.Curve{id, half, id})
		require.NoError(t, err)
		rg := d.Ramps.Regamma()
		assert.Equal(t, float32(1), rg[RampSize-1][0])
		assert.Equal(t, float32(0.5), rg[RampSize-1][1])
	})
	t.Run("uninvertible", func(t *testing.T) {
		l := tonecurve.LStar(0)
		_, err := Build(test_matrix, &curve, [3]tonecurve.Curve{l, l, l}, nil)
		require.ErrorIs(t, err, tonecurve.ErrUnsupported)
	})
	t.Run("non-finite", func(t *testing.T) {
		c := tonecurve.GammaWithBlack(12, 0.001, 1, true)
		for _, optimize := range []bool{true, false} {
			d, err := Build(test_matrix, &c, srgb_trcs(), nil, WithOptimization(optimize))
			require.ErrorContains(t, err, "degamma ramp has a non-finite entry")
			assert.Nil(t, d)
		}
		nan, err := tonecurve.SampledFloat([]float64{0, math.NaN(), 1})
		require.NoError(t, err)
		_, err = Build(test_matrix, &curve, srgb_trcs(), &[3]tonecurve.Curve{nan, nan, nan})
		require.ErrorContains(t, err, "regamma ramp has a non-finite entry")
	})
}

func TestForProfile(t *testing.T) {
	pcs, err := colorconv.RGBToPCSXYZ(colorconv.DisplayP3)
	require.NoError(t, err)
	p := &icc.MatrixProfile{Matrix: pcs, TRCs: srgb_trcs()}
	m, err := ConversionMatrix(p, colorconv.SRGB)
	require.NoError(t, err)
	expected, err := colorconv.RGBToRGB(colorconv.SRGB, colorconv.DisplayP3)
	require.NoError(t, err)
	require.True(t, expected.ApproxEqual(m, 1e-9), "%s != %s", m, expected)
	d, err := ForProfile(p, colorconv.SRGB, nil)
	require.NoError(t, err)
	assert.Nil(t, d.Ramps)
	assert.InDelta(t, expected.At(0, 0), d.Matrix1[0][0], 1e-6)
	c := tonecurve.SRGB(0)
	d, err = ForProfile(p, colorconv.SRGB, &c, WithOptimization(false))
	require.NoError(t, err)
	require.NotNil(t, d.Ramps)
	for i := 1; i < RampSize; i++ {
		x := float64(i) / (RampSize - 1)
		require.Equal(t, float32(c.SampleAt(x)), d.Ramps.Degamma()[i][0])
		// the sRGB response curve undoes the sRGB calibration curve
		require.InDelta(t, x, c.SampleAt(float64(d.Ramps.Regamma()[i][0])), 1e-5)
	}

	p.Matrix = colorconv.Zero3x3()
	_, err = ForProfile(p, colorconv.SRGB, nil)
	require.ErrorIs(t, err, colorconv.ErrSingularMatrix)
}

func TestABI(t *testing.T) {
	assert.Equal(t, 124, SizeV1)
	assert.Equal(t, 160, SizeV2)
	assert.Equal(t, 0x6000, BufferSize)
	assert.Equal(t, 0x3000, RegammaOffset)

	d, err := FromMatrix(test_matrix)
	require.NoError(t, err)
	d.Matrix2 = &Matrix3x4{{1, 0, 0, 0.5}, {0, 1, 0, 0}, {0, 0, 1, 0}}
	data, err := d.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, SizeV1)
	le := binary.LittleEndian
	assert.Equal(t, VersionV1, le.Uint32(data))
	assert.Equal(t, ColorSpaceLinear, le.Uint32(data[4:]))
	assert.Equal(t, ColorSpaceLinear, le.Uint32(data[8:]))
	assert.Equal(t, uint32(1), le.Uint32(data[20:]))
	assert.Equal(t, float32(test_matrix.At(0, 1)), math.Float32frombits(le.Uint32(data[24+4:])))
	assert.Equal(t, float32(test_matrix.At(1, 0)), math.Float32frombits(le.Uint32(data[24+16:])))
	assert.Equal(t, uint32(1), le.Uint32(data[72:]))
	assert.Equal(t, float32(0.5), math.Float32frombits(le.Uint32(data[76+12:])))
	var back Descriptor
	require.NoError(t, back.UnmarshalBinary(data))
	if diff := cmp.Diff(d, &back); diff != "" {
		t.Fatalf("Unexpected difference after round trip:\n%s", diff)
	}

	curve := tonecurve.Gamma(2.2)
	d, err = Build(test_matrix, &curve, srgb_trcs(), nil)
	require.NoError(t, err)
	data, err = d.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, SizeV2+BufferSize)
	assert.Equal(t, VersionV2, le.Uint32(data))
	assert.Equal(t, uint64(0), le.Uint64(data[128:]))
	assert.Equal(t, int32(BufferSize), int32(le.Uint32(data[152:])))
	ramps := data[SizeV2:]
	assert.Equal(t, d.Ramps.Degamma()[RampSize-1][2], math.Float32frombits(le.Uint32(ramps[RegammaOffset-4:])))
	assert.Equal(t, d.Ramps.Regamma()[5][1], math.Float32frombits(le.Uint32(ramps[RegammaOffset+(5*3+1)*4:])))
	back = Descriptor{}
	require.NoError(t, back.UnmarshalBinary(data))
	if diff := cmp.Diff(d, &back); diff != "" {
		t.Fatalf("Unexpected difference after round trip:\n%s", diff)
	}

	data, err = Disable().MarshalBinary()
	require.NoError(t, err)
	expected := make([]byte, SizeV1)
	le.PutUint32(expected, VersionV1)
	le.PutUint32(expected[4:], ColorSpaceLinear)
	assert.Equal(t, expected, data)

	require.Error(t, back.UnmarshalBinary(data[:100]))
	le.PutUint32(data, 7)
	require.Error(t, back.UnmarshalBinary(data))
	le.PutUint32(data, VersionV2)
	require.Error(t, back.UnmarshalBinary(data))
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()
	active, err := IsActive(ctx, s, 1)
	require.NoError(t, err)
	assert.False(t, active)

	curve := tonecurve.SRGB(0)
	d, err := Build(test_matrix, &curve, srgb_trcs(), nil)
	require.NoError(t, err)
	require.NoError(t, s.SetColorSpaceConversion(ctx, 1, d))
	active, err = IsActive(ctx, s, 1)
	require.NoError(t, err)
	assert.True(t, active)
	got, err := s.GetColorSpaceConversion(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got.Ramps)
	assert.Equal(t, d.Matrix1, got.Matrix1)
	if diff := cmp.Diff(d, s.Current(1)); diff != "" {
		t.Fatalf("Stored descriptor differs:\n%s", diff)
	}
	assert.Nil(t, s.Current(2))

	// the stored state is independent of the submitted descriptor
	d.Matrix1[0][0] = 7
	assert.NotEqual(t, float32(7), s.Current(1).Matrix1[0][0])

	calls := s.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "SetColorSpaceConversion", calls[1].Op)
	assert.Equal(t, uint32(1), calls[1].DisplayID)

	s.Fail = func(op string, id uint32) error {
		if id == 3 {
			return &StatusError{Op: op, Code: -1, Busy: true}
		}
		return nil
	}
	err = s.SetColorSpaceConversion(ctx, 3, Disable())
	require.ErrorIs(t, err, ErrDriverBusy)
	assert.Contains(t, err.Error(), "SetColorSpaceConversion failed with error code -1")
	require.NoError(t, s.SetColorSpaceConversion(ctx, 2, Disable()))
	assert.False(t, errors.Is(&StatusError{Op: "x", Code: -5}, ErrDriverBusy))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, s.SetColorSpaceConversion(cctx, 1, d), context.Canceled)
	_, err = s.GetColorSpaceConversion(cctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDescriptorString(t *testing.T) {
	s := Disable().String()
	assert.Contains(t, s, "version: 0x1007C")
	assert.Contains(t, s, "monitor: 0")
	d, err := FromMatrix(colorconv.Identity())
	require.NoError(t, err)
	assert.Contains(t, d.String(), "matrix1:")
	assert.NotContains(t, d.String(), "matrix2:")
}
