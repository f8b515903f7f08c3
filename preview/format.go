package preview

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format is an image file format.
type Format int

// Image file formats.
const (
	UNKNOWN Format = iota
	JPEG
	PNG
	GIF
	TIFF
	WEBP
	BMP
)

var FormatExts = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"gif":  GIF,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
	"bmp":  BMP,
}

var formatNames = map[Format]string{
	JPEG: "JPEG",
	PNG:  "PNG",
	GIF:  "GIF",
	TIFF: "TIFF",
	WEBP: "WEBP",
	BMP:  "BMP",
}

func (f Format) String() string {
	return formatNames[f]
}

// CanEncode reports whether images can be saved in this format. WebP is
// decode only.
func (f Format) CanEncode() bool {
	switch f {
	case JPEG, PNG, GIF, TIFF, BMP:
		return true
	}
	return false
}

// ErrUnsupportedFormat means the given image format is not supported.
var ErrUnsupportedFormat = errors.New("preview: unsupported image format")

// FormatFromExtension parses image format from filename extension:
// "jpg" (or "jpeg"), "png", "gif", "tif" (or "tiff"), "webp" and "bmp" are supported.
func FormatFromExtension(ext string) (Format, error) {
	if f, ok := FormatExts[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}
	return UNKNOWN, ErrUnsupportedFormat
}

func FormatFromFilename(filename string) (Format, error) {
	return FormatFromExtension(filepath.Ext(filename))
}
