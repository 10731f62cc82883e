package pipeline

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/nvr-ai/go-bmp/images/bmp"
	"github.com/nvr-ai/go-bmp/images/kernels"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBitmap writes a w x h bitmap with a distinct color per pixel.
func writeBitmap(t *testing.T, path string, w, h int) bmp.Bitmap {
	t.Helper()
	bm, err := bmp.New(w, h)
	require.NoError(t, err)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			bm.Pix.SetBGR(col, row, uint8(col*9), uint8(row*5), uint8(col^row))
		}
	}
	require.NoError(t, bmp.EncodeFile(path, bm))
	return bm
}

func newTestPipeline(t *testing.T, logs *bytes.Buffer, transforms ...string) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Transforms = transforms
	p, err := New(cfg)
	require.NoError(t, err)
	p.Logger = log.New(logs, "", 0)
	return p
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bmp")
	dst := filepath.Join(dir, "out.bmp")
	orig := writeBitmap(t, src, 13, 7)

	var logs bytes.Buffer
	p := newTestPipeline(t, &logs, "rotate-left", "blur(1.2, 3)")

	report, err := p.Process(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, report.Stages, 4)
	assert.Equal(t, "decode", report.Stages[0].Name)
	assert.Equal(t, 13, report.Stages[0].Width)
	assert.Equal(t, "rotate-left", report.Stages[1].Name)
	assert.Equal(t, 7, report.Stages[1].Width)
	assert.Equal(t, 13, report.Stages[1].Height)
	assert.Equal(t, "encode", report.Stages[3].Name)

	// The file holds exactly what the core functions produce.
	rotated, err := images.Rotate(orig.Pix, images.RotateLeft)
	require.NoError(t, err)
	want, err := kernels.GaussianBlur(rotated, 3, 1.2, kernels.Options{})
	require.NoError(t, err)

	out, err := bmp.DecodeFile(dst)
	require.NoError(t, err)
	assert.True(t, want.Equal(out.Pix))
	assert.Equal(t, images.ComputeChecksum(want), report.Checksum)
	assert.Equal(t, out.File.FileSize, report.FileSize)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, int64(report.FileSize), info.Size())

	assert.Contains(t, logs.String(), "decoded")
	assert.Contains(t, logs.String(), "rotate-left: 7x13")
	assert.Contains(t, logs.String(), "wrote")

	stats := p.Profiler.Operations()
	require.Len(t, stats, 4)
	assert.Equal(t, int64(1), stats[0].Count)
}

func TestProcessInverseChainIsIdentity(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bmp")
	dst := filepath.Join(dir, "out.bmp")
	writeBitmap(t, src, 5, 3)

	p := newTestPipeline(t, &bytes.Buffer{}, "rotate-left", "rotate-right", "rotate(ccw)", "rotate(cw)")
	_, err := p.Process(context.Background(), src, dst)
	require.NoError(t, err)

	in, err := os.ReadFile(src)
	require.NoError(t, err)
	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, &bytes.Buffer{}, "rotate-left")

	_, err := p.Process(context.Background(), filepath.Join(dir, "missing.bmp"), filepath.Join(dir, "out.bmp"))
	assert.True(t, errors.Is(err, images.ErrFileNotFound))

	notBMP := filepath.Join(dir, "fake.bmp")
	require.NoError(t, os.WriteFile(notBMP, bytes.Repeat([]byte{'x'}, 100), 0o644))
	_, err = p.Process(context.Background(), notBMP, filepath.Join(dir, "out.bmp"))
	assert.True(t, errors.Is(err, images.ErrUnsupportedFormat))

	src := filepath.Join(dir, "in.bmp")
	writeBitmap(t, src, 4, 4)
	_, err = p.Process(context.Background(), src, filepath.Join(dir, "no", "such", "out.bmp"))
	assert.True(t, errors.Is(err, images.ErrWriteError))
}

func TestProcessStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bmp")
	dst := filepath.Join(dir, "out.bmp")
	writeBitmap(t, src, 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, &bytes.Buffer{}, "rotate-left", "blur")
	_, err := p.Process(ctx, src, dst)
	assert.True(t, errors.Is(err, context.Canceled))

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "nothing is written after cancellation")
}

func TestProcessBitmapLeavesHeadersConsistent(t *testing.T) {
	bm, err := bmp.New(10, 4)
	require.NoError(t, err)

	p := newTestPipeline(t, &bytes.Buffer{}, "rotate-right", "resize(width*2, height)")
	out, stages, err := p.ProcessBitmap(context.Background(), bm)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	assert.Equal(t, 8, out.Width())
	assert.Equal(t, 10, out.Height())
	assert.Equal(t, int32(8), out.Info.Width)
	assert.Equal(t, int32(10), out.Info.Height)

	stride, padding := bmp.RowStride(8)
	assert.Equal(t, uint32(bmp.HeaderSize+10*(stride+padding)), out.File.FileSize)
}

func TestProcessDir(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")

	names := []string{"a.bmp", "b.bmp", "c.bmp"}
	for i, name := range names {
		writeBitmap(t, filepath.Join(in, name), 3+i, 2+i)
	}
	require.NoError(t, os.WriteFile(filepath.Join(in, "README.txt"), []byte("skip me"), 0o644))

	var logs bytes.Buffer
	p := newTestPipeline(t, &logs, "rotate-right")

	reports, err := p.ProcessDir(context.Background(), in, out, 2)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	for i, name := range names {
		assert.Equal(t, filepath.Join(in, name), reports[i].Source)
		assert.Equal(t, filepath.Join(out, name), reports[i].Destination)

		bm, err := bmp.DecodeFile(filepath.Join(out, name))
		require.NoError(t, err)
		assert.Equal(t, 2+i, bm.Width(), name)
		assert.Equal(t, 3+i, bm.Height(), name)
		assert.Equal(t, images.ComputeChecksum(bm.Pix), reports[i].Checksum)
	}

	_, err = os.Stat(filepath.Join(out, "README.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, logs.String(), "processing 3 bitmap(s)")

	stats := p.Profiler.Operations()
	require.NotEmpty(t, stats)
	assert.Equal(t, int64(3), stats[0].Count)
}

func TestProcessDirFailure(t *testing.T) {
	in := t.TempDir()
	writeBitmap(t, filepath.Join(in, "good.bmp"), 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(in, "bad.bmp"), []byte("BM"), 0o644))

	p := newTestPipeline(t, &bytes.Buffer{}, "blur")
	_, err := p.ProcessDir(context.Background(), in, t.TempDir(), 0)
	assert.True(t, errors.Is(err, images.ErrTruncatedFile), "got %v", err)

	_, err = p.ProcessDir(context.Background(), filepath.Join(in, "missing"), t.TempDir(), 1)
	assert.True(t, errors.Is(err, images.ErrFileNotFound))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bmp")
	writeBitmap(t, src, 6, 6)

	cfg := DefaultConfig()
	cfg.Source = src
	cfg.Destination = filepath.Join(dir, "out.bmp")
	cfg.Transforms = []string{"blur(sigma=2, radius=5)"}
	cfg.Border = "clip"

	reports, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.FileExists(t, cfg.Destination)

	batch := DefaultConfig()
	batch.InputDir = dir
	batch.OutputDir = filepath.Join(dir, "out")
	reports, err = Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Len(t, reports, 2, "in.bmp and out.bmp")

	_, err = Run(context.Background(), Config{})
	assert.True(t, errors.Is(err, images.ErrInvalidParameter))
}
