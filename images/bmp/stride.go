package bmp

import "github.com/nvr-ai/go-bmp/images"

// RowStride returns the number of pixel bytes in one row of the given width and
// the number of padding bytes that follow it on disk, so that
// (stride+padding)%4 == 0 and 0 <= padding < 4.
//
// It depends on width only and must be recomputed whenever width changes
// (after a rotation, for example).
func RowStride(width int) (stride, padding int) {
	stride = width * images.BytesPerPixel
	padding = (4 - stride%4) % 4
	return stride, padding
}

// pixelRegionSize is the on-disk size of height padded rows.
func pixelRegionSize(width, height int) uint64 {
	stride, padding := RowStride(width)
	return uint64(stride+padding) * uint64(height)
}
