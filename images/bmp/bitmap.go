package bmp

import (
	"bytes"
	"math"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

// MaxPixels caps the pixel count accepted from a header before anything is
// allocated for it.
const MaxPixels = images.MaxPixels

// Bitmap is a decoded image: both headers, whatever sat between the headers
// and the pixel rows, and the pixel buffer.
//
// A Bitmap is a value. Transforms take Pix, produce a new buffer, and
// WithBuffer builds the next Bitmap around it; nothing is shared between the
// old and new records except the header values copied into the new one.
type Bitmap struct {
	// File is the file header. FileSize always describes the encoded form of
	// this record.
	File FileHeader
	// Info is the info header. Width and Height always match Pix; the sign of
	// Height records the on-disk row order.
	Info InfoHeader
	// Gap holds the bytes between the end of the info header and
	// File.OffsetData: extended header fields, masks, or a palette.
	Gap []byte
	// Pix is the bottom-up BGR pixel buffer.
	Pix images.Buffer
}

// New returns a black width x height bitmap with a plain 54-byte header.
func New(width, height int) (Bitmap, error) {
	buf, err := images.NewBuffer(width, height)
	if err != nil {
		return Bitmap{}, err
	}

	bm := Bitmap{
		File: FileHeader{
			Signature:  Magic,
			OffsetData: HeaderSize,
		},
		Info: InfoHeader{
			Size:          InfoHeaderSize,
			Planes:        1,
			BitCount:      BitCount,
			Compression:   CompressionRGB,
			XPelsPerMeter: defaultPixelsPerMeter,
			YPelsPerMeter: defaultPixelsPerMeter,
		},
	}

	bm, err = bm.WithBuffer(buf)
	if err != nil {
		return Bitmap{}, err
	}
	// Non-zero from here on, so WithBuffer keeps it current.
	bm.Info.SizeImage = uint32(pixelRegionSize(width, height))

	return bm, nil
}

// Width returns the image width in pixels.
func (b Bitmap) Width() int {
	return b.Pix.Width
}

// Height returns the image height in pixels, regardless of row order.
func (b Bitmap) Height() int {
	return b.Pix.Height
}

// TopDown reports whether rows are stored top row first on disk.
func (b Bitmap) TopDown() bool {
	return b.Info.Height < 0
}

// WithBuffer returns a copy of b holding buf, with the header dimensions, file
// size and (when present) image size recomputed for it. Row order, reserved
// fields, resolution and gap bytes carry over.
//
// Arguments:
// - buf: The new pixel buffer; the returned Bitmap takes ownership of it.
//
// Returns:
// - Bitmap: The new record.
// - error: ErrInvalidParameter if buf is malformed or too large for the format.
func (b Bitmap) WithBuffer(buf images.Buffer) (Bitmap, error) {
	if err := buf.Validate(); err != nil {
		return Bitmap{}, err
	}
	if buf.Width > math.MaxInt32 || buf.Height > math.MaxInt32 {
		return Bitmap{}, errors.Wrapf(images.ErrInvalidParameter, "%dx%d exceeds the format limits", buf.Width, buf.Height)
	}

	region := pixelRegionSize(buf.Width, buf.Height)
	if uint64(b.File.OffsetData)+region > math.MaxUint32 {
		return Bitmap{}, errors.Wrapf(images.ErrInvalidParameter, "%dx%d exceeds the 4 GiB file limit", buf.Width, buf.Height)
	}

	next := b
	next.Gap = bytes.Clone(b.Gap)
	next.Pix = buf
	next.Info.Width = int32(buf.Width)
	if b.TopDown() {
		next.Info.Height = -int32(buf.Height)
	} else {
		next.Info.Height = int32(buf.Height)
	}
	if b.Info.SizeImage != 0 {
		next.Info.SizeImage = uint32(region)
	}
	next.File.FileSize = b.File.OffsetData + uint32(region)

	return next, nil
}
