/*
Package gpucolor computes the color space conversion programmed into a
display adapter so that a wide gamut monitor renders a reference color space
such as sRGB or Display P3.

The conversion is derived either from the chromaticities reported by the
monitor in its EDID or from an ICC display profile. In the latter case the
profile's tone response curves can also be used to calibrate the monitor to
a chosen EOTF (sRGB, BT.1886, a custom gamma or L*).

The numerical work is done by the sub-packages: colorconv (matrices and
colorimetry), tonecurve (EOTFs and sampled curves), icc (profile parsing)
and csc (descriptor construction and serialization). This package ties them
to per-monitor configuration and submits the result to a csc.Sink.
*/
package gpucolor

import (
	"cmp"
	"fmt"
)

// VersionNumber is the release of the library the command line tools report.
type VersionNumber struct {
	Major, Minor, Patch uint
}

func (v VersionNumber) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1 as v orders before, equal to or after o.
func (v VersionNumber) Compare(o VersionNumber) int {
	return cmp.Or(cmp.Compare(v.Major, o.Major), cmp.Compare(v.Minor, o.Minor), cmp.Compare(v.Patch, o.Patch))
}

func (v VersionNumber) Before(o VersionNumber) bool { return v.Compare(o) < 0 }
func (v VersionNumber) After(o VersionNumber) bool  { return v.Compare(o) > 0 }

// VersionBanner is what the command line tools print for -version.
func VersionBanner(program string) string {
	return fmt.Sprintf("%s (gpucolor %s)", program, Version)
}

var Version = VersionNumber{1, 0, 0}
