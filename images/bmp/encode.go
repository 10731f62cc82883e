package bmp

import (
	"bufio"
	"io"
	"os"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

// EncodeFile writes bm to path, creating or truncating it. The record is
// checked first, so an inconsistent bitmap leaves an existing file untouched.
// A partially written file is removed.
//
// Arguments:
// - path: The destination file.
// - bm: The bitmap to write.
//
// Returns:
// - error: ErrWriteError if the file cannot be created or written,
// ErrInvalidParameter/ErrUnsupportedFormat for an inconsistent record.
func EncodeFile(path string, bm Bitmap) (err error) {
	if err := bm.check(); err != nil {
		return errors.Wrap(err, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(images.ErrWriteError, "%s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(images.ErrWriteError, "%s: closing: %v", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err = Encode(f, bm); err != nil {
		return errors.Wrap(err, path)
	}

	return nil
}

// Encode writes bm to w: file header, info header, the gap bytes (zero-filled
// up to File.OffsetData), then the pixel rows. Rows carry zero padding up to a
// multiple of four bytes; padding read at decode time is never reproduced.
func Encode(w io.Writer, bm Bitmap) error {
	if err := bm.check(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	if err := writeHeaders(bw, bm.File, bm.Info); err != nil {
		return err
	}
	if err := writeGap(bw, bm.Gap, int(bm.File.OffsetData)-HeaderSize); err != nil {
		return err
	}
	if err := writeRows(bw, bm.Pix, bm.TopDown()); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrapf(images.ErrWriteError, "flushing: %v", err)
	}

	return nil
}

// check verifies that b can be encoded as it stands.
func (b Bitmap) check() error {
	if err := b.Pix.Validate(); err != nil {
		return errors.Wrap(err, "encode")
	}
	if err := validate(b.File, b.Info); err != nil {
		return errors.Wrap(err, "encode")
	}
	if int(b.Info.Width) != b.Pix.Width || abs32(b.Info.Height) != b.Pix.Height {
		return errors.Wrapf(images.ErrInvalidParameter, "encode: header says %dx%d, buffer is %dx%d",
			b.Info.Width, abs32(b.Info.Height), b.Pix.Width, b.Pix.Height)
	}

	return nil
}

// writeGap writes exactly n bytes: gap, truncated or zero-extended.
func writeGap(w io.Writer, gap []byte, n int) error {
	if n <= 0 {
		return nil
	}
	if len(gap) > n {
		gap = gap[:n]
	}
	if _, err := w.Write(gap); err != nil {
		return errors.Wrapf(images.ErrWriteError, "writing header gap: %v", err)
	}
	if rest := n - len(gap); rest > 0 {
		if _, err := w.Write(make([]byte, rest)); err != nil {
			return errors.Wrapf(images.ErrWriteError, "writing header gap: %v", err)
		}
	}

	return nil
}

func writeRows(w io.Writer, buf images.Buffer, topDown bool) error {
	stride, padding := RowStride(buf.Width)

	if padding == 0 && !topDown {
		if _, err := w.Write(buf.Pix); err != nil {
			return errors.Wrapf(images.ErrWriteError, "writing pixel data: %v", err)
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
		if _, err := w.Write(buf.Pix[off : off+stride]); err != nil {
			return errors.Wrapf(images.ErrWriteError, "writing pixel row %d: %v", row, err)
		}
		if _, err := w.Write(pad); err != nil {
			return errors.Wrapf(images.ErrWriteError, "writing row padding: %v", err)
		}
	}

	return nil
}

func abs32(v int32) int {
	if v < 0 {
		return -int(v)
	}
	return int(v)
}
