package images

import (
	"strings"

	"github.com/pkg/errors"
)

// Direction is the sense of a quarter-turn rotation.
type Direction int

const (
	// RotateLeft turns the picture 90 degrees counter-clockwise.
	RotateLeft Direction = iota
	// RotateRight turns the picture 90 degrees clockwise.
	RotateRight
)

// String returns the direction name used in transform specs.
func (d Direction) String() string {
	switch d {
	case RotateLeft:
		return "left"
	case RotateRight:
		return "right"
	default:
		return "unknown"
	}
}

// ParseDirection accepts "left"/"ccw" and "right"/"cw".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "ccw":
		return RotateLeft, nil
	case "right", "cw":
		return RotateRight, nil
	default:
		return 0, errors.Wrapf(ErrInvalidParameter, "unknown rotation direction %q", s)
	}
}

// Rotate returns a new buffer holding src turned a quarter turn in the given
// direction. Width and height are swapped in the result.
//
// Coordinates are (col, row) in the bottom-up buffer. With w and h the source
// dimensions, a source pixel lands at:
//
//	left:  (h-1-row, col)
//	right: (row, w-1-col)
//
// which is a bijection between the two pixel grids. Rotating left then right
// (or right then left) restores src exactly, as do four rotations in the same
// direction.
//
// Arguments:
// - src: The source buffer. It is only read.
// - dir: RotateLeft or RotateRight.
//
// Returns:
// - Buffer: The rotated buffer, freshly allocated.
// - error: ErrInvalidParameter for a malformed buffer or unknown direction.
func Rotate(src Buffer, dir Direction) (Buffer, error) {
	if err := src.Validate(); err != nil {
		return Buffer{}, errors.Wrap(err, "rotate")
	}
	if dir != RotateLeft && dir != RotateRight {
		return Buffer{}, errors.Wrapf(ErrInvalidParameter, "rotate: unknown direction %d", dir)
	}

	w, h := src.Width, src.Height
	dst := Buffer{
		Pix:    make([]byte, len(src.Pix)),
		Width:  h,
		Height: w,
	}

	err := Parallel(h, func(partStart, partEnd int) error {
		for row := partStart; row < partEnd; row++ {
			for col := 0; col < w; col++ {
				var dstCol, dstRow int
				if dir == RotateLeft {
					dstCol, dstRow = h-1-row, col
				} else {
					dstCol, dstRow = row, w-1-col
				}

				s := src.PixOffset(col, row)
				d := dst.PixOffset(dstCol, dstRow)
				copy(dst.Pix[d:d+BytesPerPixel], src.Pix[s:s+BytesPerPixel])
			}
		}
		return nil
	})
	if err != nil {
		return Buffer{}, err
	}

	return dst, nil
}
