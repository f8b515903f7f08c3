package csc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DitherControlVersion is the version word of the adapter's dither
// control structure.
const DitherControlVersion = 0x10018

type DitherState int32

const (
	DitherDefault  DitherState = iota // the driver decides
	DitherEnabled                     // forced on with the specified bits and mode
	DitherDisabled                    // forced off
)

// DitherBits selects the output depth dithering targets.
type DitherBits int32

const (
	Dither6Bit DitherBits = iota
	Dither8Bit
	Dither10Bit
)

// Depth returns the number of bits per channel, 6, 8 or 10.
func (b DitherBits) Depth() int { return 6 + 2*int(b) }

type DitherMode int32

const (
	DitherSpatialDynamic DitherMode = iota
	DitherSpatialStatic
	DitherSpatialDynamic2x2
	DitherSpatialStatic2x2
	DitherTemporal
)

var dither_mode_names = [...]string{"SpatialDynamic", "SpatialStatic", "SpatialDynamic2x2", "SpatialStatic2x2", "Temporal"}

func (m DitherMode) String() string {
	if m >= 0 && int(m) < len(dither_mode_names) {
		return dither_mode_names[m]
	}
	return fmt.Sprintf("DitherMode(%d)", int32(m))
}

// DitherControl is the dithering applied to a display after the ramps.
// The zero value leaves dithering to the driver with nothing configured.
type DitherControl struct {
	State DitherState `json:"state"`
	Bits  DitherBits  `json:"bits"`
	Mode  DitherMode  `json:"mode"`
}

func (d DitherControl) String() string {
	switch {
	case d.State == DitherDisabled:
		return "Disabled (forced)"
	case d.State == DitherDefault && d.Bits == 0 && d.Mode == 0:
		return "Disabled (default)"
	}
	how := "default"
	if d.State != DitherDefault {
		how = "forced"
	}
	return fmt.Sprintf("%d bit %s (%s)", d.Bits.Depth(), d.Mode, how)
}

func (d DitherControl) Validate() error {
	if d.State < DitherDefault || d.State > DitherDisabled {
		return fmt.Errorf("unknown dither state: %d", d.State)
	}
	if d.Bits < Dither6Bit || d.Bits > Dither10Bit {
		return fmt.Errorf("unknown dither depth: %d", d.Bits)
	}
	if d.Mode < DitherSpatialDynamic || d.Mode > DitherTemporal {
		return fmt.Errorf("unknown dither mode: %d", d.Mode)
	}
	return nil
}

// ParseDitherControl accepts "default", "disabled" or a forced setting
// written as depth and mode, for example "8,Temporal". Mode names are case
// insensitive.
func ParseDitherControl(s string) (ans DitherControl, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default":
		return ans, nil
	case "disabled":
		return DitherControl{State: DitherDisabled}, nil
	}
	depth, mode, found := strings.Cut(s, ",")
	if !found {
		return ans, fmt.Errorf("dither setting must be default, disabled or depth,mode, got: %#v", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(depth))
	if err != nil || n < 6 || n > 10 || n%2 != 0 {
		return ans, fmt.Errorf("dither depth must be 6, 8 or 10, got: %#v", depth)
	}
	ans = DitherControl{State: DitherEnabled, Bits: DitherBits((n - 6) / 2), Mode: -1}
	for i, name := range dither_mode_names {
		if strings.EqualFold(name, strings.TrimSpace(mode)) {
			ans.Mode = DitherMode(i)
		}
	}
	if ans.Mode < 0 {
		return DitherControl{}, fmt.Errorf("unknown dither mode: %#v", mode)
	}
	return ans, nil
}

var ErrDitherUnsupported = errors.New("adapter does not support dither control")

// DitherSink is implemented by adapters that expose dithering. It is
// optional, use AsDitherSink to query a Sink for it.
type DitherSink interface {
	GetDitherControl(ctx context.Context, displayID uint32) (DitherControl, error)
	SetDitherControl(ctx context.Context, displayID uint32, d DitherControl) error
}

func AsDitherSink(s Sink) (DitherSink, error) {
	if ds, ok := s.(DitherSink); ok {
		return ds, nil
	}
	return nil, fmt.Errorf("%T: %w", s, ErrDitherUnsupported)
}
