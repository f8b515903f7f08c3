package gpucolor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kovidgoyal/gpucolor/colorconv"
	"github.com/kovidgoyal/gpucolor/csc"
	"github.com/kovidgoyal/gpucolor/icc"
	"github.com/kovidgoyal/gpucolor/tonecurve"
)

// Monitor is a display as seen by the adapter.
type Monitor struct {
	ID        uint32
	Name      string
	EDID      colorconv.ColorSpace
	HDRActive bool
}

// NewMonitor creates a monitor from the EDID primaries. The EDID white point
// is ignored in favor of D65.
func NewMonitor(id uint32, name string, red, green, blue [2]float64, hdr bool) Monitor {
	cs := colorconv.EDIDColorSpace(red, green, blue, [2]float64{})
	cs.White = colorconv.D65
	if name == "" {
		name = "<no name>"
	}
	return Monitor{ID: id, Name: name, EDID: cs, HDRActive: hdr}
}

var ErrCannotApply = errors.New("no conversion can be applied")

// SettleDelay is the pause between disabling and re-enabling conversion on
// a display, the adapter can ignore a change submitted immediately after
// another.
var SettleDelay = 100 * time.Millisecond

// CalibrationCurve returns the curve content is decoded with when
// calibrating to the profile, or nil when calibration is off. The curve's
// black level is the black luminance of the profiled display.
func CalibrationCurve(p *icc.MatrixProfile, o MonitorOptions) (*tonecurve.Curve, error) {
	if !o.CalibrateGamma {
		return nil, nil
	}
	black := p.BlackLuminance()
	var c tonecurve.Curve
	switch o.SelectedGamma {
	case GammaSRGB:
		c = tonecurve.SRGB(black)
	case GammaBT1886:
		c = tonecurve.BT1886(black)
	case GammaCustomAbsolute:
		c = tonecurve.GammaWithBlack(o.CustomGamma, black, o.CustomPercentage/100, false)
	case GammaCustomRelative:
		c = tonecurve.GammaWithBlack(o.CustomGamma, black, o.CustomPercentage/100, true)
		if _, _, _, g := c.GammaParams(); black > 0 && (g < tonecurve.MinRelativeGamma || g > tonecurve.MaxRelativeGamma) {
			return nil, fmt.Errorf("%w: relative gamma %v with black level %v needs exponent %v, outside [%v, %v]",
				tonecurve.ErrInvalid, o.CustomGamma, black, g, tonecurve.MinRelativeGamma, tonecurve.MaxRelativeGamma)
		}
	case GammaLStar:
		c = tonecurve.LStar(black)
	default:
		return nil, fmt.Errorf("unsupported gamma type: %d", int(o.SelectedGamma))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("calibration curve for %s: %w", o.SelectedGamma, err)
	}
	return &c, nil
}

// CanApply reports whether the options result in a conversion for the
// monitor. Nothing is applied while HDR is active.
func CanApply(m Monitor, o MonitorOptions) bool {
	if m.HDRActive {
		return false
	}
	if o.UseICC {
		return o.ICCPath != ""
	}
	target, err := o.TargetColorSpace()
	return err == nil && target != m.EDID
}

// Compute builds the descriptor for the monitor. With EDID data the
// conversion maps target RGB onto the monitor's primaries. With an ICC
// profile the conversion uses the profile and, optionally, calibrates the
// tone response.
func Compute(m Monitor, o MonitorOptions) (*csc.Descriptor, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if !CanApply(m, o) {
		return nil, fmt.Errorf("monitor %d (%s): %w", m.ID, m.Name, ErrCannotApply)
	}
	target, _ := o.TargetColorSpace()
	log := Logger().With(slog.Uint64("monitor", uint64(m.ID)), slog.String("target", target.String()))
	if !o.UseICC {
		mat, err := colorconv.RGBToRGB(target, m.EDID)
		if err != nil {
			return nil, fmt.Errorf("cannot map %s onto the EDID primaries of monitor %d: %w", target, m.ID, err)
		}
		log.Debug("EDID conversion", "edid", m.EDID.String(), "matrix", mat.String())
		return csc.FromMatrix(mat)
	}
	p, err := icc.Load(o.ICCPath)
	if err != nil {
		return nil, err
	}
	if p.DescriptionError != nil {
		log.Warn("ignoring unreadable profile description", "path", o.ICCPath, "error", p.DescriptionError)
	}
	curve, err := CalibrationCurve(p, o)
	if err != nil {
		return nil, err
	}
	if curve != nil {
		log.Debug("ICC conversion", "profile", p.Description, "clut", p.IsCLUT, "curve", curve.String(), "black", p.BlackLuminance())
	} else {
		log.Debug("ICC conversion", "profile", p.Description, "clut", p.IsCLUT)
	}
	d, err := csc.ForProfile(p, target, curve, csc.WithOptimization(!o.DisableOptimization))
	if err != nil {
		return nil, fmt.Errorf("cannot build a conversion from %s: %w", o.ICCPath, err)
	}
	return d, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Apply brings the monitor's conversion in line with the options. The
// descriptor is computed first, so a configuration error leaves the display
// untouched. An active conversion is disabled before a new one is set. If
// setting fails the display is left disabled, callers can query the sink to
// find the actual state.
func Apply(ctx context.Context, sink csc.Sink, m Monitor, o MonitorOptions) (err error) {
	var d *csc.Descriptor
	if o.Clamp && CanApply(m, o) {
		if d, err = Compute(m, o); err != nil {
			return err
		}
	} else if o.Clamp {
		Logger().Warn("conversion requested but cannot be applied", "monitor", m.ID, "hdr", m.HDRActive)
	}
	active, err := csc.IsActive(ctx, sink, m.ID)
	if err != nil {
		return fmt.Errorf("failed to query the conversion state of monitor %d: %w", m.ID, err)
	}
	if active {
		if err = Disable(ctx, sink, m.ID); err != nil {
			return err
		}
	}
	if d == nil {
		return nil
	}
	if active {
		if err = sleep(ctx, SettleDelay); err != nil {
			return err
		}
	}
	if err = sink.SetColorSpaceConversion(ctx, m.ID, d); err != nil {
		return fmt.Errorf("failed to set the conversion of monitor %d: %w", m.ID, err)
	}
	Logger().Info("conversion applied", "monitor", m.ID, "icc", o.UseICC, "ramps", d.Ramps != nil)
	return nil
}

func Disable(ctx context.Context, sink csc.Sink, id uint32) error {
	if err := sink.SetColorSpaceConversion(ctx, id, csc.Disable()); err != nil {
		return fmt.Errorf("failed to disable the conversion of monitor %d: %w", id, err)
	}
	Logger().Info("conversion disabled", "monitor", id)
	return nil
}

// ApplyDither sets the dithering of the display and returns the setting the
// adapter reports afterwards, which can differ from d when the driver
// decides. Sinks without dither control fail with csc.ErrDitherUnsupported.
func ApplyDither(ctx context.Context, sink csc.Sink, id uint32, d csc.DitherControl) (csc.DitherControl, error) {
	ds, err := csc.AsDitherSink(sink)
	if err != nil {
		return csc.DitherControl{}, err
	}
	if err = ds.SetDitherControl(ctx, id, d); err != nil {
		return csc.DitherControl{}, fmt.Errorf("failed to set the dithering of monitor %d: %w", id, err)
	}
	ans, err := ds.GetDitherControl(ctx, id)
	if err != nil {
		return ans, fmt.Errorf("failed to query the dithering of monitor %d: %w", id, err)
	}
	Logger().Info("dithering applied", "monitor", id, "dither", ans.String())
	return ans, nil
}
