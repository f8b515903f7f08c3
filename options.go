package gpucolor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kovidgoyal/gpucolor/colorconv"
)

// GammaKind selects the calibration curve used with ICC profiles.
type GammaKind int

const (
	GammaSRGB GammaKind = iota
	GammaBT1886
	GammaCustomAbsolute
	GammaCustomRelative
	GammaLStar
)

func (g GammaKind) String() string {
	switch g {
	case GammaSRGB:
		return "sRGB"
	case GammaBT1886:
		return "BT.1886"
	case GammaCustomAbsolute:
		return "custom"
	case GammaCustomRelative:
		return "custom relative"
	case GammaLStar:
		return "L*"
	}
	return fmt.Sprintf("GammaKind(%d)", int(g))
}

const (
	DefaultCustomGamma      = 2.2
	DefaultCustomPercentage = 100
)

// MonitorOptions is the persisted configuration of a single monitor. The
// JSON field names are those of the configuration file.
type MonitorOptions struct {
	ID                  uint32    `json:"Id"`
	UseICC              bool      `json:"UseIcc"`
	ICCPath             string    `json:"IccPath"`
	CalibrateGamma      bool      `json:"CalibrateGamma"`
	SelectedGamma       GammaKind `json:"SelectedGamma"`
	CustomGamma         float64   `json:"CustomGamma"`
	CustomPercentage    float64   `json:"CustomPercentage"`
	Target              int       `json:"Target"`
	DisableOptimization bool      `json:"DisableOptimization,omitempty"`
	// Clamp is whether conversion should be active for the monitor
	Clamp bool `json:"Clamp,omitempty"`
}

func DefaultMonitorOptions(id uint32) MonitorOptions {
	return MonitorOptions{ID: id, CustomGamma: DefaultCustomGamma, CustomPercentage: DefaultCustomPercentage}
}

// UnmarshalJSON fills in defaults for missing and null fields.
func (o *MonitorOptions) UnmarshalJSON(data []byte) error {
	type raw MonitorOptions
	r := raw(DefaultMonitorOptions(0))
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*o = MonitorOptions(r)
	return nil
}

func (o MonitorOptions) TargetColorSpace() (colorconv.ColorSpace, error) {
	return colorconv.ColorSpaceByIndex(o.Target)
}

// Validate checks that the options describe a computable conversion. All
// problems are reported, joined.
func (o MonitorOptions) Validate() error {
	var errs []error
	if _, err := o.TargetColorSpace(); err != nil {
		errs = append(errs, err)
	}
	if o.UseICC && o.CalibrateGamma {
		if o.SelectedGamma < GammaSRGB || o.SelectedGamma > GammaLStar {
			errs = append(errs, fmt.Errorf("unsupported gamma type: %d", int(o.SelectedGamma)))
		}
		if o.SelectedGamma == GammaCustomAbsolute || o.SelectedGamma == GammaCustomRelative {
			if !(o.CustomGamma > 0) {
				errs = append(errs, fmt.Errorf("custom gamma must be positive, got: %v", o.CustomGamma))
			}
			if !(o.CustomPercentage >= 0 && o.CustomPercentage <= 100) {
				errs = append(errs, fmt.Errorf("custom percentage must be in [0, 100], got: %v", o.CustomPercentage))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid options for monitor %d: %w", o.ID, err)
	}
	return nil
}

type optionsFile struct {
	MonitorsOptions struct {
		MonitorOptions []MonitorOptions `json:"MonitorOptions"`
	} `json:"MonitorsOptions"`
}

// ParseOptions parses the configuration file contents.
func ParseOptions(data []byte) ([]MonitorOptions, error) {
	var f optionsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse monitor configuration: %w", err)
	}
	return f.MonitorsOptions.MonitorOptions, nil
}

func LoadOptions(path string) ([]MonitorOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ans, err := ParseOptions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ans, nil
}

func MarshalOptions(opts []MonitorOptions) ([]byte, error) {
	var f optionsFile
	f.MonitorsOptions.MonitorOptions = opts
	return json.MarshalIndent(&f, "", "  ")
}

func SaveOptions(path string, opts []MonitorOptions) error {
	data, err := MarshalOptions(opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o666)
}

// FindOptions returns the options for the monitor, or defaults if there are none.
func FindOptions(opts []MonitorOptions, id uint32) (MonitorOptions, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return DefaultMonitorOptions(id), false
}
