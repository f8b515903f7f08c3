package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var _ = fmt.Print

type decodeConfig struct {
	ignore_orientation bool
}

// DecodeOption changes how Decode and Open interpret the input.
type DecodeOption func(*decodeConfig)

// AutoOrientation controls whether the EXIF orientation of a photo is
// applied after decoding so that the comparison happens on the image as it is
// viewed. It is on unless disabled.
func AutoOrientation(enabled bool) DecodeOption {
	return func(c *decodeConfig) { c.ignore_orientation = !enabled }
}

// orientation is an EXIF flag that specifies the transformation
// that should be applied to image to display it correctly.
type orientation int

const (
	orientationUnspecified orientation = 0
	orientationNormal      orientation = 1
	orientationFlipH       orientation = 2
	orientationRotate180   orientation = 3
	orientationFlipV       orientation = 4
	orientationTranspose   orientation = 5
	orientationRotate270   orientation = 6
	orientationTransverse  orientation = 7
	orientationRotate90    orientation = 8
)

func exif_orientation(data []byte) orientation {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return orientationUnspecified
	}
	orient, err := x.Get(exif.Orientation)
	if err == nil && orient != nil && orient.Format() == exif_tiff.IntVal {
		if v, err := orient.Int(0); err == nil && v > 0 && v < 9 {
			return orientation(v)
		}
	}
	return orientationUnspecified
}

// fix_orientation returns img transformed for display according to the
// orientation flag. Rotations by 90 and 270 degrees swap the dimensions.
func fix_orientation(img image.Image, o orientation) image.Image {
	if o <= orientationNormal || o > orientationRotate90 {
		return img
	}
	src := to_nrgba64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := w, h
	if o >= orientationTranspose {
		dw, dh = h, w
	}
	// maps a destination pixel to its source
	var at func(x, y int) (int, int)
	switch o {
	case orientationFlipH:
		at = func(x, y int) (int, int) { return w - 1 - x, y }
	case orientationRotate180:
		at = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case orientationFlipV:
		at = func(x, y int) (int, int) { return x, h - 1 - y }
	case orientationTranspose:
		at = func(x, y int) (int, int) { return y, x }
	case orientationRotate270:
		at = func(x, y int) (int, int) { return y, h - 1 - x }
	case orientationTransverse:
		at = func(x, y int) (int, int) { return w - 1 - y, h - 1 - x }
	case orientationRotate90:
		at = func(x, y int) (int, int) { return w - 1 - y, x }
	}
	dst := image.NewNRGBA64(image.Rect(0, 0, dw, dh))
	for y := range dh {
		row := dst.Pix[y*dst.Stride:]
		for x := range dw {
			sx, sy := at(x, y)
			copy(row[8*x:8*x+8], src.Pix[sy*src.Stride+8*sx:])
		}
	}
	return dst
}

// to_nrgba64 returns a copy of img as an *image.NRGBA64 with its origin at
// zero.
func to_nrgba64(img image.Image) *image.NRGBA64 {
	b := img.Bounds()
	ans := image.NewNRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(ans, ans.Rect, img, b.Min, draw.Src)
	return ans
}

// Decode reads an image from r. PNG, JPEG, GIF, TIFF, BMP and WebP are
// supported.
func Decode(r io.Reader, opts ...DecodeOption) (image.Image, error) {
	var cfg decodeConfig
	for _, f := range opts {
		f(&cfg)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if !cfg.ignore_orientation {
		img = fix_orientation(img, exif_orientation(data))
	}
	return img, nil
}

// Open loads an image from file.
func Open(filename string, opts ...DecodeOption) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := Decode(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image from %s: %w", filename, err)
	}
	return img, nil
}

type encodeConfig struct {
	jpeg_quality   int
	gif_colors     int
	png_compressor png.CompressionLevel
}

// EncodeOption changes the output of Encode and Save for the lossy and
// compressed formats. Options for other formats are ignored.
type EncodeOption func(*encodeConfig)

// JPEGQuality is the JPEG quality in [1, 100]. Simulated previews are
// encoded at 95 by default since compression artifacts skew the ΔE report.
func JPEGQuality(quality int) EncodeOption {
	return func(c *encodeConfig) { c.jpeg_quality = quality }
}

// GIFNumColors is the size of the GIF palette in [1, 256], 256 by default.
func GIFNumColors(n int) EncodeOption {
	return func(c *encodeConfig) { c.gif_colors = n }
}

func PNGCompressionLevel(level png.CompressionLevel) EncodeOption {
	return func(c *encodeConfig) { c.png_compressor = level }
}

func encode_config(opts []EncodeOption) (ans encodeConfig, err error) {
	ans = encodeConfig{jpeg_quality: 95, gif_colors: 256, png_compressor: png.DefaultCompression}
	for _, f := range opts {
		f(&ans)
	}
	if ans.jpeg_quality < 1 || ans.jpeg_quality > 100 {
		return ans, fmt.Errorf("JPEG quality must be in [1, 100], got: %d", ans.jpeg_quality)
	}
	if ans.gif_colors < 1 || ans.gif_colors > 256 {
		return ans, fmt.Errorf("GIF palette size must be in [1, 256], got: %d", ans.gif_colors)
	}
	return ans, nil
}

// Encode writes img to w in format, which must be one that CanEncode.
func Encode(w io.Writer, img image.Image, format Format, opts ...EncodeOption) error {
	cfg, err := encode_config(opts)
	if err != nil {
		return err
	}
	switch format {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: cfg.jpeg_quality})
	case PNG:
		e := png.Encoder{CompressionLevel: cfg.png_compressor}
		return e.Encode(w, img)
	case GIF:
		return gif.Encode(w, img, &gif.Options{NumColors: cfg.gif_colors})
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case BMP:
		return bmp.Encode(w, img)
	}
	return ErrUnsupportedFormat
}

// Save encodes img to filename in the format implied by its extension.
func Save(img image.Image, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	if !f.CanEncode() {
		return fmt.Errorf("cannot save %s images: %w", f, ErrUnsupportedFormat)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	err = Encode(file, img, f, opts...)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}
