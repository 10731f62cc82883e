// Package images - BGR pixel buffers and the transforms that operate on them.
package images

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

const (
	// BytesPerPixel is the size of one B, G, R triple.
	BytesPerPixel = 3
	// MaxPixels caps the pixel count of any buffer, decoded or produced.
	MaxPixels = 1 << 28
)

// Buffer is a tightly packed 24-bit pixel buffer.
//
// Pixels are stored as B, G, R bytes. Rows are stored bottom-up: row 0 is the
// bottom row of the picture. There is no row padding. A Buffer is owned by
// whichever stage holds it; transforms read their input and return a freshly
// allocated Buffer.
type Buffer struct {
	// Pix holds exactly Width*Height*3 bytes.
	Pix []byte `json:"-" yaml:"-"`
	// Width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// Height of the image in pixels.
	Height int `json:"height" yaml:"height"`
}

// NewBuffer allocates a black buffer of the given dimensions.
//
// Arguments:
// - width: The width in pixels, must be positive.
// - height: The height in pixels, must be positive.
//
// Returns:
// - Buffer: The zeroed buffer.
// - error: ErrInvalidParameter for non-positive or oversized dimensions.
func NewBuffer(width, height int) (Buffer, error) {
	if err := CheckDimensions(width, height); err != nil {
		return Buffer{}, err
	}

	return Buffer{
		Pix:    make([]byte, width*height*BytesPerPixel),
		Width:  width,
		Height: height,
	}, nil
}

// CheckDimensions rejects sizes that are not positive, exceed math.MaxInt32 on
// either side, or hold more than MaxPixels pixels.
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "invalid dimensions: width=%d, height=%d", width, height)
	}
	if width > math.MaxInt32 || height > math.MaxInt32 {
		return errors.Wrapf(ErrInvalidParameter, "dimensions %dx%d exceed %d per side", width, height, math.MaxInt32)
	}
	if uint64(width)*uint64(height) > MaxPixels {
		return errors.Wrapf(ErrInvalidParameter, "%dx%d exceeds %d pixels", width, height, MaxPixels)
	}

	return nil
}

// PixOffset returns the index of the blue byte of the pixel at (col, row).
// Every pixel access in this module goes through this formula:
//
//	3*(row*width + col) + channel, channel 0=B, 1=G, 2=R
func (b Buffer) PixOffset(col, row int) int {
	return BytesPerPixel * (row*b.Width + col)
}

// Validate checks the dimension and length invariants.
func (b Buffer) Validate() error {
	if err := CheckDimensions(b.Width, b.Height); err != nil {
		return err
	}
	if want := b.Width * b.Height * BytesPerPixel; len(b.Pix) != want {
		return errors.Wrapf(ErrInvalidParameter, "buffer length %d does not match %dx%d (want %d)",
			len(b.Pix), b.Width, b.Height, want)
	}

	return nil
}

// BGR returns the channels of the pixel at (col, row).
func (b Buffer) BGR(col, row int) (blue, green, red uint8) {
	i := b.PixOffset(col, row)
	p := b.Pix[i : i+3 : i+3]
	return p[0], p[1], p[2]
}

// SetBGR sets the channels of the pixel at (col, row).
func (b Buffer) SetBGR(col, row int, blue, green, red uint8) {
	i := b.PixOffset(col, row)
	p := b.Pix[i : i+3 : i+3]
	p[0], p[1], p[2] = blue, green, red
}

// Fill paints every pixel with one color.
func (b Buffer) Fill(blue, green, red uint8) {
	for i := 0; i+2 < len(b.Pix); i += BytesPerPixel {
		b.Pix[i+0] = blue
		b.Pix[i+1] = green
		b.Pix[i+2] = red
	}
}

// Clone returns a deep copy.
func (b Buffer) Clone() Buffer {
	return Buffer{
		Pix:    bytes.Clone(b.Pix),
		Width:  b.Width,
		Height: b.Height,
	}
}

// Equal reports whether both buffers have the same dimensions and bytes.
func (b Buffer) Equal(o Buffer) bool {
	return b.Width == o.Width && b.Height == o.Height && bytes.Equal(b.Pix, o.Pix)
}

// ToRGBA converts the buffer to an opaque *image.RGBA. Image y=0 is the top
// row, so buffer rows are flipped.
func (b Buffer) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		row := b.Height - 1 - y
		for x := 0; x < b.Width; x++ {
			s := b.PixOffset(x, row)
			d := dst.PixOffset(x, y)
			dst.Pix[d+0] = b.Pix[s+2]
			dst.Pix[d+1] = b.Pix[s+1]
			dst.Pix[d+2] = b.Pix[s+0]
			dst.Pix[d+3] = 0xff
		}
	}

	return dst
}

// FromImage converts any image.Image into a Buffer. Alpha is dropped.
func FromImage(img image.Image) (Buffer, error) {
	bounds := img.Bounds()
	dst, err := NewBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return Buffer{}, err
	}

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < dst.Height; y++ {
			row := dst.Height - 1 - y
			for x := 0; x < dst.Width; x++ {
				s := rgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				dst.SetBGR(x, row, rgba.Pix[s+2], rgba.Pix[s+1], rgba.Pix[s+0])
			}
		}
		return dst, nil
	}

	for y := 0; y < dst.Height; y++ {
		row := dst.Height - 1 - y
		for x := 0; x < dst.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			dst.SetBGR(x, row, c.B, c.G, c.R)
		}
	}

	return dst, nil
}
