package preview

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"time"

	"github.com/kettek/apng"
)

// as_fraction converts a duration to the best rational approximation in
// seconds whose numerator and denominator fit in an uint16.
func as_fraction(d time.Duration) (num, den uint16) {
	if d <= 0 {
		return 0, 1
	}
	val := d.Seconds()
	bestNum, bestDen := uint16(0), uint16(1)
	bestError := math.Abs(val)

	// continued fraction convergents
	var h, k [3]int64
	h[0], k[0] = 0, 1
	h[1], k[1] = 1, 0
	f := val
	for i := 2; i < 100; i++ {
		a := int64(f)
		h[2] = a*h[1] + h[0]
		k[2] = a*k[1] + k[0]
		if h[2] > math.MaxUint16 || k[2] > math.MaxUint16 {
			break
		}
		n, m := uint16(h[2]), uint16(k[2])
		if e := math.Abs(val - float64(n)/float64(m)); e < bestError {
			bestError, bestNum, bestDen = e, n, m
		}
		if f-float64(a) == 0 {
			break
		}
		f = 1.0 / (f - float64(a))
		h[0], h[1] = h[1], h[2]
		k[0], k[1] = k[1], k[2]
	}
	return bestNum, bestDen
}

// EncodeFlip writes an endlessly looping animated PNG alternating between
// before and after, each shown for delay.
func EncodeFlip(w io.Writer, before, after image.Image, delay time.Duration) error {
	if before.Bounds().Size() != after.Bounds().Size() {
		return fmt.Errorf("cannot animate images of different sizes: %v and %v", before.Bounds().Size(), after.Bounds().Size())
	}
	num, den := as_fraction(delay)
	var a apng.APNG
	for _, img := range []image.Image{before, after} {
		a.Frames = append(a.Frames, apng.Frame{
			Image: to_nrgba64(img), DisposeOp: apng.DISPOSE_OP_NONE, BlendOp: apng.BLEND_OP_SOURCE,
			DelayNumerator: num, DelayDenominator: den,
		})
	}
	return apng.Encode(w, a)
}

// SaveFlip writes the before/after animation to the named file.
func SaveFlip(before, after image.Image, filename string, delay time.Duration) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	err = EncodeFlip(file, before, after, delay)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}
