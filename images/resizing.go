package images

import (
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ResampleFilter defines the resampling algorithm used for image scaling.
type ResampleFilter int

const (
	// NearestNeighborFilter uses nearest-neighbor interpolation (fastest, lowest quality).
	NearestNeighborFilter ResampleFilter = iota
	// BilinearFilter uses bilinear interpolation (fast, good quality).
	BilinearFilter
	// BicubicFilter uses bicubic interpolation (slower, better quality).
	BicubicFilter
	// MitchellNetravaliFilter uses the Mitchell-Netravali cubic filter (balanced).
	MitchellNetravaliFilter
	// LanczosFilter uses Lanczos resampling with a=3 (slowest, best quality).
	LanczosFilter
)

// interpolation maps each filter to its nfnt/resize implementation.
var interpolation = map[ResampleFilter]resize.InterpolationFunction{
	NearestNeighborFilter:   resize.NearestNeighbor,
	BilinearFilter:          resize.Bilinear,
	BicubicFilter:           resize.Bicubic,
	MitchellNetravaliFilter: resize.MitchellNetravali,
	LanczosFilter:           resize.Lanczos3,
}

// ParseResampleFilter maps a filter name to its ResampleFilter.
func ParseResampleFilter(name string) (ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest", "nearest-neighbor":
		return NearestNeighborFilter, nil
	case "bilinear":
		return BilinearFilter, nil
	case "bicubic":
		return BicubicFilter, nil
	case "mitchell", "mitchell-netravali":
		return MitchellNetravaliFilter, nil
	case "", "lanczos", "lanczos3":
		return LanczosFilter, nil
	default:
		return 0, errors.Wrapf(ErrInvalidParameter, "unknown resample filter %q", name)
	}
}

// Resize scales src to width x height.
//
// Arguments:
// - src: The source buffer. It is only read.
// - width: The target width in pixels.
// - height: The target height in pixels.
// - filter: The resampling filter to use for interpolation.
//
// Returns:
// - Buffer: The resized buffer.
// - error: ErrInvalidParameter for bad or oversized dimensions, a bad source or an unknown filter.
//
// @example
// thumb, err := Resize(buf, buf.Width/2, buf.Height/2, LanczosFilter)
func Resize(src Buffer, width, height int, filter ResampleFilter) (Buffer, error) {
	if err := src.Validate(); err != nil {
		return Buffer{}, errors.Wrap(err, "resize")
	}
	if err := CheckDimensions(width, height); err != nil {
		return Buffer{}, errors.Wrap(err, "resize")
	}
	interp, ok := interpolation[filter]
	if !ok {
		return Buffer{}, errors.Wrapf(ErrInvalidParameter, "resize: unknown filter %d", filter)
	}

	// Same size is a copy; the caller still gets a buffer it owns.
	if width == src.Width && height == src.Height {
		return src.Clone(), nil
	}

	resized := resize.Resize(uint(width), uint(height), src.ToRGBA(), interp)

	return FromImage(resized)
}
