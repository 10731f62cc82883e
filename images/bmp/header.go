// Package bmp reads and writes uncompressed 24-bit Windows bitmaps.
//
// The on-disk layout is little-endian:
//
//	0-1    magic "BM"
//	2-5    file size
//	6-9    two reserved uint16, passed through
//	10-13  offset of the pixel data
//	14-53  BITMAPINFOHEADER
//	offset rows of width*3 BGR bytes, padded to a multiple of 4
package bmp

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

const (
	// FileHeaderSize is the size of the BITMAPFILEHEADER record.
	FileHeaderSize = 14
	// InfoHeaderSize is the size of the BITMAPINFOHEADER record.
	InfoHeaderSize = 40
	// HeaderSize is the minimum offset of the pixel data.
	HeaderSize = FileHeaderSize + InfoHeaderSize

	// BitCount is the only supported depth.
	BitCount = 24
	// CompressionRGB marks uncompressed pixel data (BI_RGB).
	CompressionRGB = 0

	// defaultPixelsPerMeter is roughly 72 DPI.
	defaultPixelsPerMeter = 2835
)

// Magic is the two-byte signature at the start of every bitmap.
var Magic = [2]byte{'B', 'M'}

// FileHeader is the 14-byte BITMAPFILEHEADER.
type FileHeader struct {
	// Signature must be "BM".
	Signature [2]byte
	// FileSize is the total length of the file in bytes.
	FileSize uint32
	// Reserved1 is preserved verbatim.
	Reserved1 uint16
	// Reserved2 is preserved verbatim.
	Reserved2 uint16
	// OffsetData is the offset from the start of the file to the pixel rows.
	OffsetData uint32
}

// InfoHeader is the 40-byte BITMAPINFOHEADER.
type InfoHeader struct {
	// Size of this header; 40, or larger for V4/V5 headers.
	Size uint32
	// Width in pixels.
	Width int32
	// Height in pixels. Positive means rows are stored bottom-up.
	Height int32
	// Planes must be 1.
	Planes uint16
	// BitCount must be 24.
	BitCount uint16
	// Compression must be 0 (BI_RGB).
	Compression uint32
	// SizeImage is the size of the padded pixel region; may be 0.
	SizeImage uint32
	// XPelsPerMeter is the horizontal resolution.
	XPelsPerMeter int32
	// YPelsPerMeter is the vertical resolution.
	YPelsPerMeter int32
	// ColorsUsed is the palette size (0 for 24-bit).
	ColorsUsed uint32
	// ColorsImportant is the number of important palette entries.
	ColorsImportant uint32
}

// readHeaders reads both headers. Fewer than 54 bytes is ErrTruncatedFile.
func readHeaders(r io.Reader) (FileHeader, InfoHeader, error) {
	var (
		fh FileHeader
		ih InfoHeader
	)

	if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
		return fh, ih, readError(err, "reading file header")
	}
	if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
		return fh, ih, readError(err, "reading info header")
	}

	return fh, ih, nil
}

// writeHeaders writes both headers verbatim.
func writeHeaders(w io.Writer, fh FileHeader, ih InfoHeader) error {
	if err := binary.Write(w, binary.LittleEndian, &fh); err != nil {
		return errors.Wrapf(images.ErrWriteError, "writing file header: %v", err)
	}
	if err := binary.Write(w, binary.LittleEndian, &ih); err != nil {
		return errors.Wrapf(images.ErrWriteError, "writing info header: %v", err)
	}

	return nil
}

// validate rejects anything other than an uncompressed 24-bit bitmap.
func validate(fh FileHeader, ih InfoHeader) error {
	switch {
	case fh.Signature != Magic:
		return errors.Wrapf(images.ErrUnsupportedFormat, "bad signature %q", fh.Signature[:])
	case fh.OffsetData < HeaderSize:
		return errors.Wrapf(images.ErrUnsupportedFormat, "pixel offset %d inside headers", fh.OffsetData)
	case ih.Size < InfoHeaderSize:
		return errors.Wrapf(images.ErrUnsupportedFormat, "info header size %d", ih.Size)
	case uint64(ih.Size)+FileHeaderSize > uint64(fh.OffsetData):
		return errors.Wrapf(images.ErrUnsupportedFormat, "info header size %d overlaps pixel offset %d", ih.Size, fh.OffsetData)
	case ih.Planes != 1:
		return errors.Wrapf(images.ErrUnsupportedFormat, "%d color planes", ih.Planes)
	case ih.BitCount != BitCount:
		return errors.Wrapf(images.ErrUnsupportedFormat, "%d bits per pixel", ih.BitCount)
	case ih.Compression != CompressionRGB:
		return errors.Wrapf(images.ErrUnsupportedFormat, "compression %d", ih.Compression)
	case ih.Width <= 0:
		return errors.Wrapf(images.ErrUnsupportedFormat, "width %d", ih.Width)
	case ih.Height == 0 || ih.Height == math.MinInt32:
		return errors.Wrapf(images.ErrUnsupportedFormat, "height %d", ih.Height)
	}

	return nil
}
