package bmp

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

// DecodeFile reads the bitmap at path.
//
// Arguments:
// - path: The source file.
//
// Returns:
// - Bitmap: The decoded headers and bottom-up pixel buffer.
// - error: ErrFileNotFound, ErrTruncatedFile or ErrUnsupportedFormat.
func DecodeFile(path string) (Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return Bitmap{}, errors.Wrapf(images.ErrFileNotFound, "%s: %v", path, err)
	}
	defer f.Close()

	size := int64(-1)
	if info, statErr := f.Stat(); statErr == nil && info.Mode().IsRegular() {
		size = info.Size()
	}

	bm, err := decode(f, size)
	if err != nil {
		return Bitmap{}, errors.Wrap(err, path)
	}

	return bm, nil
}

// Decode reads a bitmap from r.
//
// Both headers are read little-endian and validated. Bytes between the info
// header and the pixel offset are kept in Bitmap.Gap. Rows are read with their
// padding discarded; top-down files are reordered so the buffer is always
// bottom-up. File.FileSize is recomputed from the offset and the padded pixel
// region.
func Decode(r io.Reader) (Bitmap, error) {
	return decode(r, -1)
}

// decode does the work for Decode. A non-negative size is the number of bytes
// available, checked against the headers before the pixel buffer is allocated.
func decode(r io.Reader, size int64) (Bitmap, error) {
	br := bufio.NewReader(r)

	fh, ih, err := readHeaders(br)
	if err != nil {
		return Bitmap{}, err
	}
	if err := validate(fh, ih); err != nil {
		return Bitmap{}, err
	}

	width := int(ih.Width)
	height := int(ih.Height)
	topDown := height < 0
	if topDown {
		height = -height
	}
	if uint64(width)*uint64(height) > MaxPixels {
		return Bitmap{}, errors.Wrapf(images.ErrUnsupportedFormat, "%dx%d exceeds %d pixels", width, height, MaxPixels)
	}

	region := pixelRegionSize(width, height)
	if size >= 0 && uint64(size) < uint64(fh.OffsetData)+region {
		return Bitmap{}, errors.Wrapf(images.ErrTruncatedFile, "%dx%d needs %d bytes, have %d",
			width, height, uint64(fh.OffsetData)+region, size)
	}

	var gap bytes.Buffer
	if n := int64(fh.OffsetData) - HeaderSize; n > 0 {
		if _, err := io.CopyN(&gap, br, n); err != nil {
			return Bitmap{}, readError(err, "skipping to pixel data")
		}
	}

	buf, err := images.NewBuffer(width, height)
	if err != nil {
		return Bitmap{}, err
	}
	if err := readRows(br, buf, topDown); err != nil {
		return Bitmap{}, err
	}

	fh.FileSize = fh.OffsetData + uint32(region)

	bm := Bitmap{
		File: fh,
		Info: ih,
		Pix:  buf,
	}
	if gap.Len() > 0 {
		bm.Gap = gap.Bytes()
	}

	return bm, nil
}

// readRows fills buf from on-disk rows. When rows carry no padding and are
// already bottom-up, the whole region is one read.
func readRows(r io.Reader, buf images.Buffer, topDown bool) error {
	stride, padding := RowStride(buf.Width)

	if padding == 0 && !topDown {
		if _, err := io.ReadFull(r, buf.Pix); err != nil {
			return readError(err, "reading pixel data")
		}
		return nil
	}

	pad := make([]byte, padding)
	for i := 0; i < buf.Height; i++ {
		row := i
		if topDown {
			row = buf.Height - 1 - i
		}

		off := buf.PixOffset(0, row)
		if _, err := io.ReadFull(r, buf.Pix[off:off+stride]); err != nil {
			return readError(err, "reading pixel row")
		}
		if _, err := io.ReadFull(r, pad); err != nil {
			return readError(err, "reading row padding")
		}
	}

	return nil
}

func readError(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(images.ErrTruncatedFile, what)
	}
	return errors.Wrap(err, what)
}
