package tonecurve

import (
	"errors"
	"fmt"
	"math"

	"github.com/kovidgoyal/gpucolor/colorconv"
)

var _ = fmt.Print

type Kind uint8

const (
	KindGamma   Kind = iota // a*max(x+b, 0)^gamma + c
	KindSRGB                // sRGB EOTF rescaled into [black, 1]
	KindLStar               // CIE L* EOTF rescaled into [black, 1]
	KindSampled             // uniformly spaced breakpoints over [0, 1]
)

func (k Kind) String() string {
	switch k {
	case KindGamma:
		return "gamma"
	case KindSRGB:
		return "sRGB"
	case KindLStar:
		return "L*"
	case KindSampled:
		return "sampled"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Bounds for the exponent search done by relative gamma curves.
const (
	MinRelativeGamma       = 1.0
	MaxRelativeGamma       = 8.0
	MaxBisectionIterations = 200
	BisectionTolerance     = 1e-12
)

var (
	ErrUnsupported = errors.New("operation not supported by tone curve")
	ErrInvalid     = errors.New("invalid tone curve")
)

type UnsupportedError struct {
	Kind   Kind
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cannot invert %s tone curve: %s", e.Kind, e.Reason)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// Curve maps normalized code values to normalized linear light. It is a
// tagged union over the supported curve shapes, the zero value is the
// identity gamma curve with exponent zero and should not be used, construct
// curves with the functions in this package instead. Curves are immutable
// and safe for concurrent use.
type Curve struct {
	kind           Kind
	a, b, c, gamma float64
	black          float64
	samples        []float64
}

func (c Curve) Kind() Kind { return c.kind }

// Black returns the value the curve produces at zero.
func (c Curve) Black() float64 { return c.SampleAt(0) }

// GammaParams returns the parameters of a gamma curve.
func (c Curve) GammaParams() (a, b, cc, gamma float64) { return c.a, c.b, c.c, c.gamma }

// Samples returns a copy of the breakpoints of a sampled curve.
func (c Curve) Samples() []float64 { return append([]float64(nil), c.samples...) }

func (c Curve) String() string {
	switch c.kind {
	case KindGamma:
		return fmt.Sprintf("Gamma{a: %.6g b: %.6g c: %.6g gamma: %.6g}", c.a, c.b, c.c, c.gamma)
	case KindSRGB, KindLStar:
		return fmt.Sprintf("%s{black: %.6g}", c.kind, c.black)
	default:
		return fmt.Sprintf("Sampled{points: %d}", len(c.samples))
	}
}

// Gamma returns the pure power law curve x^gamma.
func Gamma(gamma float64) Curve {
	return Curve{kind: KindGamma, a: 1, gamma: gamma}
}

// GammaWithBlack returns a power law curve that produces black at zero. When
// outputOffset is 1 the curve is x^gamma scaled into [black, 1]. Otherwise the
// BT.1886 shape is used, with outputOffset*black added as a constant offset
// and the remaining black level absorbed by the input offset. In relative mode
// the exponent is adjusted so that the curve passes through 0.5^gamma at 0.5.
func GammaWithBlack(gamma, black, outputOffset float64, relative bool) Curve {
	ans := Gamma(gamma)
	if black == 0 {
		return ans
	}
	if outputOffset == 1 {
		if relative {
			p := math.Pow(2, gamma)
			ans.gamma = math.Log2((black - 1) * p / (black*p - 1))
		}
		ans.a = 1 - black
		ans.c = black
		return ans
	}
	outBlack := outputOffset * black
	white, btBlack := 1-outBlack, black-outBlack
	ans.c = outBlack
	if !relative {
		ans.bt1886(white, btBlack)
		return ans
	}
	target := math.Pow(0.5, gamma)
	lo, hi := MinRelativeGamma, MaxRelativeGamma
	for range MaxBisectionIterations {
		ans.gamma = (lo + hi) / 2
		ans.bt1886(white, btBlack)
		sample := ans.SampleAt(0.5)
		if math.Abs(sample-target) <= BisectionTolerance || hi-lo <= BisectionTolerance {
			break
		}
		// larger exponents produce smaller mid tones
		if sample > target {
			lo = ans.gamma
		} else {
			hi = ans.gamma
		}
	}
	return ans
}

func (c *Curve) bt1886(white, black float64) {
	lwg := math.Pow(white, 1/c.gamma)
	lbg := math.Pow(black, 1/c.gamma)
	c.a = math.Pow(lwg-lbg, c.gamma)
	c.b = lbg / (lwg - lbg)
}

// BT1886 is the ITU-R BT.1886 EOTF with exponent 2.4 for a display with the
// specified black level.
func BT1886(black float64) Curve { return GammaWithBlack(2.4, black, 0, false) }

func SRGB(black float64) Curve  { return Curve{kind: KindSRGB, black: black} }
func LStar(black float64) Curve { return Curve{kind: KindLStar, black: black} }

// SampledFloat returns a curve linearly interpolating the values, which are
// uniformly spaced over [0, 1]. At least two values are required.
func SampledFloat(values []float64) (Curve, error) {
	if len(values) < 2 {
		return Curve{}, fmt.Errorf("a sampled tone curve needs at least two points, got: %d", len(values))
	}
	return Curve{kind: KindSampled, samples: append([]float64(nil), values...)}, nil
}

// Sampled16 is SampledFloat for integer samples with the specified full
// scale value, usually 65535.
func Sampled16(values []uint16, divisor uint16) (Curve, error) {
	if divisor == 0 {
		return Curve{}, errors.New("divisor for sampled tone curve must be non-zero")
	}
	fv := make([]float64, len(values))
	for i, v := range values {
		fv[i] = float64(v) / float64(divisor)
	}
	return SampledFloat(fv)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate reports an error wrapping ErrInvalid if the curve parameters
// cannot produce finite output. Relative gamma curves whose black level is
// too high for the requested exponent end up here.
func (c Curve) Validate() error {
	switch c.kind {
	case KindGamma:
		for _, x := range [...]struct {
			name string
			v    float64
		}{{"a", c.a}, {"b", c.b}, {"c", c.c}, {"gamma", c.gamma}} {
			if !finite(x.v) {
				return fmt.Errorf("%w: %s has non-finite %s: %v", ErrInvalid, c, x.name, x.v)
			}
		}
		if c.gamma <= 0 {
			return fmt.Errorf("%w: %s has non-positive exponent", ErrInvalid, c)
		}
	case KindSRGB, KindLStar:
		if !finite(c.black) || c.black < 0 || c.black >= 1 {
			return fmt.Errorf("%w: %s has black level outside [0, 1)", ErrInvalid, c)
		}
	case KindSampled:
		for i, v := range c.samples {
			if !finite(v) {
				return fmt.Errorf("%w: sample %d is %v", ErrInvalid, i, v)
			}
		}
	}
	return nil
}

func (c Curve) SampleAt(x float64) float64 {
	switch c.kind {
	case KindGamma:
		if x >= 1 {
			return 1
		}
		return c.a*math.Pow(max(x+c.b, 0), c.gamma) + c.c
	case KindSRGB:
		if x >= 1 {
			return 1
		}
		x = max(x, 0)
		var v float64
		if x <= 0.04045 {
			v = x / 12.92
		} else {
			v = math.Pow((x+0.055)/1.055, 2.4)
		}
		return v*(1-c.black) + c.black
	case KindLStar:
		if x <= 0 {
			return c.black
		}
		if x >= 1 {
			return 1
		}
		return colorconv.LightnessToLuminance(x*100)*(1-c.black) + c.black
	case KindSampled:
		return sampled_value(c.samples, x)
	}
	panic(fmt.Sprintf("unknown tone curve kind: %d", c.kind))
}

// SampleInverseAt maps linear light back to a code value. Curves without an
// exact inverse return an error matching ErrUnsupported.
func (c Curve) SampleInverseAt(x float64) (float64, error) {
	switch c.kind {
	case KindGamma:
		if c.a != 1 {
			return 0, &UnsupportedError{Kind: c.kind, Reason: "curve has a black level offset"}
		}
		if x >= 1 {
			return 1, nil
		}
		if x <= c.c {
			return max(0, -c.b), nil
		}
		return math.Pow(x-c.c, 1/c.gamma) - c.b, nil
	case KindSRGB:
		if c.black != 0 {
			return 0, &UnsupportedError{Kind: c.kind, Reason: "curve has a black level offset"}
		}
		if x >= 1 {
			return 1, nil
		}
		if x <= 0.0031308 {
			return 12.92 * max(x, 0), nil
		}
		return 1.055*math.Pow(x, 1/2.4) - 0.055, nil
	case KindLStar:
		return 0, &UnsupportedError{Kind: c.kind, Reason: "no inverse is implemented"}
	case KindSampled:
		return sampled_inverse(c.samples, x), nil
	}
	return 0, &UnsupportedError{Kind: c.kind, Reason: "unknown curve kind"}
}

// Table samples the curve at n uniformly spaced points over [0, 1].
func (c Curve) Table(n int) []float64 {
	ans := make([]float64, n)
	if n == 1 {
		ans[0] = c.SampleAt(0)
		return ans
	}
	m := 1 / float64(n-1)
	for i := range ans {
		ans[i] = c.SampleAt(float64(i) * m)
	}
	return ans
}

func sampled_value(samples []float64, x float64) float64 {
	last := len(samples) - 1
	if x <= 0 {
		return samples[0]
	}
	if x >= 1 {
		return samples[last]
	}
	idx := x * float64(last)
	lo := int(idx)
	if lo >= last {
		return samples[last]
	}
	frac := idx - float64(lo)
	return samples[lo]*(1-frac) + samples[lo+1]*frac
}

func sampled_inverse(samples []float64, v float64) float64 {
	last := len(samples) - 1
	if samples[0] >= v {
		return 0
	}
	if samples[last] <= v {
		return 1
	}
	lower := 0
	for i, s := range samples[:last] {
		if s <= v {
			lower = i
		}
	}
	lo, hi := samples[lower], samples[lower+1]
	frac := 0.0
	if hi > lo {
		frac = min(1, (v-lo)/(hi-lo))
	}
	return (float64(lower) + frac) / float64(last)
}
