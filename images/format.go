package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	// FormatBMP is an uncompressed 24-bit Windows bitmap.
	FormatBMP ImageFormat = "bmp"
)

// FormatFromPath returns the format implied by a file extension.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp", ".dib":
		return FormatBMP, true
	default:
		return "", false
	}
}
