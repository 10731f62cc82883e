package kernels

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allBorders = []BorderMode{BorderCopy, BorderBlack, BorderClamp, BorderMirror, BorderClip}

func genBuffer(tb testing.TB, w, h int) images.Buffer {
	buf, err := images.NewBuffer(w, h)
	require.NoError(tb, err)
	rng := rand.New(rand.NewSource(1))
	for i := range buf.Pix {
		buf.Pix[i] = uint8(rng.Intn(256))
	}
	return buf
}

func uniform(tb testing.TB, w, h int, b, g, r uint8) images.Buffer {
	buf, err := images.NewBuffer(w, h)
	require.NoError(tb, err)
	buf.Fill(b, g, r)
	return buf
}

// referenceInterior convolves one interior pixel the obvious way.
func referenceInterior(src images.Buffer, k Kernel, col, row int) [3]float64 {
	var sum [3]float64
	half := k.Half()
	for m := -half; m <= half; m++ {
		for n := -half; n <= half; n++ {
			b, g, r := src.BGR(col+n, row+m)
			w := k.At(m, n)
			sum[0] += w * float64(b)
			sum[1] += w * float64(g)
			sum[2] += w * float64(r)
		}
	}
	return sum
}

func TestBlurBlackFourByFour(t *testing.T) {
	src := uniform(t, 4, 4, 0, 0, 0)

	for _, border := range allBorders {
		t.Run(border.String(), func(t *testing.T) {
			out, err := GaussianBlur(src, 3, 1.0, Options{Border: border})
			require.NoError(t, err)
			assert.Equal(t, 4, out.Width)
			assert.Equal(t, 4, out.Height)
			assert.Equal(t, make([]byte, 48), out.Pix)
		})
	}
}

func TestBlurUniformInterior(t *testing.T) {
	src := uniform(t, 24, 17, 37, 128, 250)

	for _, radius := range []int{3, 5, 9} {
		for _, border := range allBorders {
			t.Run(fmt.Sprintf("r=%d/%s", radius, border), func(t *testing.T) {
				out, err := GaussianBlur(src, radius, 1.7, Options{Border: border})
				require.NoError(t, err)

				half := radius / 2
				for row := half; row < src.Height-half; row++ {
					for col := half; col < src.Width-half; col++ {
						b, g, r := out.BGR(col, row)
						require.InDelta(t, 37, int(b), 1, "(%d,%d)", col, row)
						require.InDelta(t, 128, int(g), 1, "(%d,%d)", col, row)
						require.InDelta(t, 250, int(r), 1, "(%d,%d)", col, row)
					}
				}
			})
		}
	}
}

func TestBlurInteriorMatchesReference(t *testing.T) {
	src := genBuffer(t, 31, 23)
	k, err := GenerateGaussianKernel(5, 1.2)
	require.NoError(t, err)

	out, err := Apply(src, k, Options{})
	require.NoError(t, err)

	for row := 2; row < src.Height-2; row++ {
		for col := 2; col < src.Width-2; col++ {
			want := referenceInterior(src, k, col, row)
			b, g, r := out.BGR(col, row)
			require.InDelta(t, want[0], float64(b), 0.5+1e-9)
			require.InDelta(t, want[1], float64(g), 0.5+1e-9)
			require.InDelta(t, want[2], float64(r), 0.5+1e-9)
		}
	}
}

func TestBlurSinglePixelImpulse(t *testing.T) {
	src := uniform(t, 3, 3, 0, 0, 0)
	src.SetBGR(1, 1, 255, 255, 255)
	k, err := GenerateGaussianKernel(3, 1)
	require.NoError(t, err)

	out, err := Apply(src, k, Options{Border: BorderBlack})
	require.NoError(t, err)

	b, g, r := out.BGR(1, 1)
	want := images.ClampUint8(255 * k.At(0, 0))
	assert.Equal(t, [3]uint8{want, want, want}, [3]uint8{b, g, r})

	// Everything else is border.
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if col == 1 && row == 1 {
				continue
			}
			b, _, _ := out.BGR(col, row)
			assert.Zero(t, b)
		}
	}
}

func TestBlurBorderModes(t *testing.T) {
	src := genBuffer(t, 9, 7)
	k, err := GenerateGaussianKernel(5, 1)
	require.NoError(t, err)

	outs := make(map[BorderMode]images.Buffer, len(allBorders))
	for _, border := range allBorders {
		out, err := Apply(src, k, Options{Border: border})
		require.NoError(t, err)
		outs[border] = out
	}

	half := k.Half()
	for row := 0; row < src.Height; row++ {
		for col := 0; col < src.Width; col++ {
			interior := row >= half && row < src.Height-half && col >= half && col < src.Width-half
			i := src.PixOffset(col, row)

			if interior {
				for _, border := range allBorders[1:] {
					assert.Equal(t, outs[BorderCopy].Pix[i:i+3], outs[border].Pix[i:i+3],
						"%s interior (%d,%d)", border, col, row)
				}
				continue
			}

			assert.Equal(t, src.Pix[i:i+3], outs[BorderCopy].Pix[i:i+3], "copy (%d,%d)", col, row)
			assert.Equal(t, []byte{0, 0, 0}, outs[BorderBlack].Pix[i:i+3], "black (%d,%d)", col, row)
		}
	}
}

func TestBlurEdgeAwareModesKeepUniformImage(t *testing.T) {
	src := uniform(t, 6, 5, 200, 10, 90)

	for _, border := range []BorderMode{BorderClamp, BorderMirror, BorderClip} {
		out, err := GaussianBlur(src, 5, 2, Options{Border: border})
		require.NoError(t, err)
		for row := 0; row < 5; row++ {
			for col := 0; col < 6; col++ {
				b, g, r := out.BGR(col, row)
				require.InDelta(t, 200, int(b), 1, "%s (%d,%d)", border, col, row)
				require.InDelta(t, 10, int(g), 1, "%s (%d,%d)", border, col, row)
				require.InDelta(t, 90, int(r), 1, "%s (%d,%d)", border, col, row)
			}
		}
	}
}

func TestBlurImageSmallerThanKernel(t *testing.T) {
	src := genBuffer(t, 2, 3)

	for _, border := range allBorders {
		out, err := GaussianBlur(src, 7, 1, Options{Border: border})
		require.NoError(t, err, border.String())
		assert.Equal(t, src.Width, out.Width)
		assert.Equal(t, src.Height, out.Height)
		if border == BorderCopy {
			assert.True(t, src.Equal(out))
		}
	}
}

func TestBlurLeavesSourceUntouched(t *testing.T) {
	src := genBuffer(t, 20, 20)
	before := src.Clone()

	_, err := GaussianBlur(src, 5, 1, Options{Border: BorderMirror, Parallel: true})
	require.NoError(t, err)
	assert.True(t, before.Equal(src))
}

func TestBlurParallelMatchesSerial(t *testing.T) {
	src := genBuffer(t, 320, 240)
	pool := &Pool{}

	for _, border := range allBorders {
		serial, err := GaussianBlur(src, 7, 2, Options{Border: border, Pool: pool})
		require.NoError(t, err)
		parallel, err := GaussianBlur(src, 7, 2, Options{Border: border, Pool: pool, Parallel: true})
		require.NoError(t, err)

		assert.True(t, serial.Equal(parallel), border.String())
	}
}

func TestBlurInvalid(t *testing.T) {
	src := genBuffer(t, 5, 5)

	_, err := GaussianBlur(src, 4, 1, Options{})
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))

	_, err = GaussianBlur(src, 3, 0, Options{})
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))

	_, err = GaussianBlur(images.Buffer{Pix: make([]byte, 4), Width: 2, Height: 2}, 3, 1, Options{})
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))

	_, err = GaussianBlur(src, 3, 1, Options{Border: BorderMode(99)})
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))

	_, err = Apply(src, Kernel{Radius: 3, Weights: make([]float64, 3)}, Options{})
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))
}

func TestMapCoord(t *testing.T) {
	tests := []struct {
		i, n int
		mode BorderMode
		want int
	}{
		{-1, 5, BorderMirror, 0},
		{-2, 5, BorderMirror, 1},
		{5, 5, BorderMirror, 4},
		{6, 5, BorderMirror, 3},
		{-7, 3, BorderMirror, 0},
		{-4, 1, BorderMirror, 0},
		{2, 5, BorderMirror, 2},
		{-3, 5, BorderClamp, 0},
		{7, 5, BorderClamp, 4},
		{3, 5, BorderClamp, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapCoord(tt.i, tt.n, tt.mode), "%s(%d, %d)", tt.mode, tt.i, tt.n)
	}
}

func TestParseBorderMode(t *testing.T) {
	tests := map[string]BorderMode{
		"":        BorderCopy,
		"copy":    BorderCopy,
		"Black":   BorderBlack,
		"zero":    BorderBlack,
		"clamp":   BorderClamp,
		" mirror": BorderMirror,
		"clip":    BorderClip,
	}
	for in, want := range tests {
		got, err := ParseBorderMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBorderMode("wrap")
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))

	for _, mode := range allBorders {
		got, err := ParseBorderMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	assert.Equal(t, "unknown", BorderMode(42).String())
}

func TestPool(t *testing.T) {
	var nilPool *Pool
	buf := nilPool.Get(4, 3)
	assert.Len(t, buf.Pix, 36)
	nilPool.Put(buf)

	pool := &Pool{}
	big := pool.Get(10, 10)
	assert.Len(t, big.Pix, 300)
	assert.Equal(t, 10, big.Width)
	pool.Put(big)

	// Whatever comes back is resliced to the requested size.
	small := pool.Get(2, 2)
	assert.Len(t, small.Pix, 12)
	assert.NoError(t, small.Validate())

	pool.Put(small)
	larger := pool.Get(20, 20)
	assert.Len(t, larger.Pix, 1200)

	pool.Put(images.Buffer{})
}
