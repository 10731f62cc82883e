package kernels

import (
	"strings"
	"sync"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

// BorderMode defines what happens to pixels closer than Radius/2 to an edge,
// where the kernel has no full neighborhood.
//   - Copy: the source pixel is copied unchanged (default).
//   - Black: the pixel is set to zero.
//   - Clamp: the full kernel is applied, repeating edge pixels.
//   - Mirror: the full kernel is applied, reflecting coordinates.
//   - Clip: only in-range taps are used, with their weights renormalized.
type BorderMode int

const (
	BorderCopy BorderMode = iota
	BorderBlack
	BorderClamp
	BorderMirror
	BorderClip
)

var borderNames = map[BorderMode]string{
	BorderCopy:   "copy",
	BorderBlack:  "black",
	BorderClamp:  "clamp",
	BorderMirror: "mirror",
	BorderClip:   "clip",
}

// String returns the name accepted by ParseBorderMode.
func (m BorderMode) String() string {
	if name, ok := borderNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseBorderMode maps a name to its BorderMode. The empty string is BorderCopy.
func ParseBorderMode(name string) (BorderMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return BorderCopy, nil
	case "zero":
		return BorderBlack, nil
	}
	for mode, n := range borderNames {
		if n == name {
			return mode, nil
		}
	}
	return 0, errors.Wrapf(images.ErrInvalidParameter, "unknown border mode %q", name)
}

// Options configures a blur call.
type Options struct {
	Border   BorderMode // Border policy.
	Pool     *Pool      // Optional buffer pool for the output.
	Parallel bool       // Partition output rows across goroutines.
}

// Pool lets callers reuse pixel buffers across a chain of transforms.
// A buffer handed to Put must no longer be referenced by the caller.
type Pool struct {
	pix sync.Pool // *[]byte
}

// Get returns a width x height buffer with unspecified contents.
func (p *Pool) Get(width, height int) images.Buffer {
	n := width * height * images.BytesPerPixel
	if p != nil {
		if v := p.pix.Get(); v != nil {
			if pix := *v.(*[]byte); cap(pix) >= n {
				return images.Buffer{Pix: pix[:n], Width: width, Height: height}
			}
		}
	}
	return images.Buffer{Pix: make([]byte, n), Width: width, Height: height}
}

// Put releases a buffer for reuse.
func (p *Pool) Put(b images.Buffer) {
	if p == nil || b.Pix == nil {
		return
	}
	pix := b.Pix
	p.pix.Put(&pix)
}

// GaussianBlur generates a radius x radius Gaussian kernel and applies it.
//
// Arguments:
// - src: The source buffer. It is only read.
// - radius: The kernel side length; odd and at least 3.
// - sigma: Standard deviation of the Gaussian.
// - opt: Border policy, pooling and parallelism.
//
// Returns:
// - images.Buffer: The blurred buffer, same dimensions as src.
// - error: ErrInvalidParameter for bad parameters or a malformed buffer.
func GaussianBlur(src images.Buffer, radius int, sigma float64, opt Options) (images.Buffer, error) {
	k, err := GenerateGaussianKernel(radius, sigma)
	if err != nil {
		return images.Buffer{}, err
	}
	return Apply(src, k, opt)
}

// Apply convolves src with k into a new buffer.
//
// Pixels at least k.Half() away from every edge get the kernel-weighted sum
// of their neighborhood, per channel, rounded and clamped to a byte. The rest
// follow opt.Border. The output is computed entirely from reads of src, so
// every output pixel sees the original neighborhood.
func Apply(src images.Buffer, k Kernel, opt Options) (images.Buffer, error) {
	if err := src.Validate(); err != nil {
		return images.Buffer{}, errors.Wrap(err, "blur")
	}
	if err := k.Validate(); err != nil {
		return images.Buffer{}, errors.Wrap(err, "blur")
	}
	if _, ok := borderNames[opt.Border]; !ok {
		return images.Buffer{}, errors.Wrapf(images.ErrInvalidParameter, "blur: unknown border mode %d", opt.Border)
	}

	dst := opt.Pool.Get(src.Width, src.Height)
	c := convolver{src: src, dst: dst, k: k, border: opt.Border}

	var err error
	if opt.Parallel {
		err = images.Parallel(src.Height, c.rows)
	} else {
		err = c.rows(0, src.Height)
	}
	if err != nil {
		opt.Pool.Put(dst)
		return images.Buffer{}, err
	}

	return dst, nil
}

// convolver writes rows of dst from src. Distinct row ranges touch disjoint
// parts of dst, so ranges may run concurrently.
type convolver struct {
	src, dst images.Buffer
	k        Kernel
	border   BorderMode
}

func (c convolver) rows(partStart, partEnd int) error {
	w, h := c.src.Width, c.src.Height
	half := c.k.Half()

	for row := partStart; row < partEnd; row++ {
		for col := 0; col < w; col++ {
			d := c.dst.PixOffset(col, row)
			out := c.dst.Pix[d : d+3 : d+3]

			if row >= half && row < h-half && col >= half && col < w-half {
				c.interior(col, row, out)
				continue
			}

			switch c.border {
			case BorderCopy:
				s := c.src.PixOffset(col, row)
				copy(out, c.src.Pix[s:s+3])
			case BorderBlack:
				out[0], out[1], out[2] = 0, 0, 0
			case BorderClamp, BorderMirror:
				c.mapped(col, row, out)
			case BorderClip:
				c.clipped(col, row, out)
			}
		}
	}

	return nil
}

// interior handles pixels whose whole neighborhood is inside the image.
func (c convolver) interior(col, row int, out []byte) {
	half := c.k.Half()
	size := c.k.Radius

	var b, g, r float64
	for m := 0; m < size; m++ {
		weights := c.k.Weights[m*size : (m+1)*size]
		p := c.src.PixOffset(col-half, row-half+m)
		for _, wt := range weights {
			b += wt * float64(c.src.Pix[p+0])
			g += wt * float64(c.src.Pix[p+1])
			r += wt * float64(c.src.Pix[p+2])
			p += images.BytesPerPixel
		}
	}

	out[0] = images.ClampUint8(b)
	out[1] = images.ClampUint8(g)
	out[2] = images.ClampUint8(r)
}

// mapped applies the full kernel, remapping out-of-range taps.
func (c convolver) mapped(col, row int, out []byte) {
	half := c.k.Half()
	w, h := c.src.Width, c.src.Height

	var b, g, r float64
	for m := -half; m <= half; m++ {
		sy := mapCoord(row+m, h, c.border)
		for n := -half; n <= half; n++ {
			sx := mapCoord(col+n, w, c.border)
			wt := c.k.At(m, n)
			p := c.src.PixOffset(sx, sy)
			b += wt * float64(c.src.Pix[p+0])
			g += wt * float64(c.src.Pix[p+1])
			r += wt * float64(c.src.Pix[p+2])
		}
	}

	out[0] = images.ClampUint8(b)
	out[1] = images.ClampUint8(g)
	out[2] = images.ClampUint8(r)
}

// clipped uses only in-range taps and divides by their total weight.
func (c convolver) clipped(col, row int, out []byte) {
	half := c.k.Half()
	w, h := c.src.Width, c.src.Height

	var b, g, r, total float64
	for m := -half; m <= half; m++ {
		sy := row + m
		if sy < 0 || sy >= h {
			continue
		}
		for n := -half; n <= half; n++ {
			sx := col + n
			if sx < 0 || sx >= w {
				continue
			}
			wt := c.k.At(m, n)
			p := c.src.PixOffset(sx, sy)
			b += wt * float64(c.src.Pix[p+0])
			g += wt * float64(c.src.Pix[p+1])
			r += wt * float64(c.src.Pix[p+2])
			total += wt
		}
	}

	// The center tap is always in range, so total > 0.
	out[0] = images.ClampUint8(b / total)
	out[1] = images.ClampUint8(g / total)
	out[2] = images.ClampUint8(r / total)
}

// mapCoord maps an index i to [0, n) according to the border mode.
// For Clamp: clamp to [0, n-1].
// For Mirror: reflect symmetrically about the edge, so the edge pixel repeats:
// ... -2,-1,0,1,2, ... -> 1,0,0,1,2, ... and n, n+1 -> n-1, n-2.
func mapCoord(i, n int, mode BorderMode) int {
	switch mode {
	case BorderMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}
