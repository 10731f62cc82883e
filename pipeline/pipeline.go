// Package pipeline chains bitmap decoding, buffer transforms and encoding.
package pipeline

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/nvr-ai/go-bmp/images/bmp"
	"github.com/nvr-ai/go-bmp/images/kernels"
	"github.com/nvr-ai/go-bmp/profiler"
	"github.com/nvr-ai/go-bmp/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Pipeline applies a fixed list of transforms to bitmaps.
type Pipeline struct {
	// Transforms run in order.
	Transforms []Transform
	// Profiler receives per-stage timings; never nil after New.
	Profiler *profiler.Profiler
	// Logger receives one status line per stage.
	Logger *log.Logger

	pool *kernels.Pool
}

// StageReport describes one completed stage.
type StageReport struct {
	Name     string        `json:"name"     yaml:"name"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Width    int           `json:"width"    yaml:"width"`
	Height   int           `json:"height"   yaml:"height"`
}

// Report describes one processed file.
type Report struct {
	Source      string        `json:"source"      yaml:"source"`
	Destination string        `json:"destination" yaml:"destination"`
	Stages      []StageReport `json:"stages"      yaml:"stages"`
	Checksum    string        `json:"checksum"    yaml:"checksum"`
	FileSize    uint32        `json:"file_size"   yaml:"file_size"`
}

// New builds a pipeline from a validated config.
func New(cfg Config) (*Pipeline, error) {
	opt, err := cfg.BlurOptions()
	if err != nil {
		return nil, err
	}

	pool := &kernels.Pool{}
	opt.Pool = pool

	transforms, err := ParseTransforms(cfg.Transforms, opt)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Transforms: transforms,
		Profiler:   profiler.New(),
		Logger:     log.Default(),
		pool:       pool,
	}, nil
}

// Run executes cfg: a single file, or a whole directory in batch mode.
func Run(ctx context.Context, cfg Config) ([]Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Batch() {
		return p.ProcessDir(ctx, cfg.InputDir, cfg.OutputDir, cfg.Workers)
	}

	report, err := p.Process(ctx, cfg.Source, cfg.Destination)
	if err != nil {
		return nil, err
	}
	return []Report{report}, nil
}

// Process decodes src, applies every transform and encodes the result to dst.
// The context is checked between stages; a stage in progress is not interrupted.
func (p *Pipeline) Process(ctx context.Context, src, dst string) (Report, error) {
	report := Report{Source: src, Destination: dst}

	done := p.Profiler.StartOperation("decode")
	bm, err := bmp.DecodeFile(src)
	if err != nil {
		return report, err
	}
	report.Stages = append(report.Stages, StageReport{
		Name:     "decode",
		Duration: done(),
		Width:    bm.Width(),
		Height:   bm.Height(),
	})
	p.Logger.Printf("📥 decoded %s: %dx%d, %s", src, bm.Width(), bm.Height(),
		profiler.FormatBytes(uint64(bm.File.FileSize)))

	bm, stages, err := p.ProcessBitmap(ctx, bm)
	report.Stages = append(report.Stages, stages...)
	if err != nil {
		return report, errors.Wrap(err, src)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	done = p.Profiler.StartOperation("encode")
	if err := bmp.EncodeFile(dst, bm); err != nil {
		return report, err
	}
	report.Stages = append(report.Stages, StageReport{
		Name:     "encode",
		Duration: done(),
		Width:    bm.Width(),
		Height:   bm.Height(),
	})
	report.Checksum = images.ComputeChecksum(bm.Pix)
	report.FileSize = bm.File.FileSize
	p.Logger.Printf("💾 wrote %s: %dx%d, %s", dst, bm.Width(), bm.Height(),
		profiler.FormatBytes(uint64(bm.File.FileSize)))

	p.pool.Put(bm.Pix)

	return report, nil
}

// ProcessBitmap applies every transform to bm and returns the new record.
// Each stage's input buffer is released to the pipeline's pool once the stage
// has produced its output, so bm.Pix must not be used after this call.
func (p *Pipeline) ProcessBitmap(ctx context.Context, bm bmp.Bitmap) (bmp.Bitmap, []StageReport, error) {
	stages := make([]StageReport, 0, len(p.Transforms))

	for _, t := range p.Transforms {
		if err := ctx.Err(); err != nil {
			return bm, stages, err
		}

		done := p.Profiler.StartOperation(t.Name())
		out, err := t.Apply(bm.Pix)
		if err != nil {
			return bm, stages, errors.Wrap(err, t.Name())
		}

		next, err := bm.WithBuffer(out)
		if err != nil {
			return bm, stages, errors.Wrap(err, t.Name())
		}
		p.pool.Put(bm.Pix)
		bm = next

		stage := StageReport{
			Name:     t.Name(),
			Duration: done(),
			Width:    bm.Width(),
			Height:   bm.Height(),
		}
		stages = append(stages, stage)
		p.Logger.Printf("🔧 %s: %dx%d in %v", stage.Name, stage.Width, stage.Height,
			stage.Duration.Truncate(time.Microsecond))
	}

	return bm, stages, nil
}

// ProcessDir runs every bitmap in inDir through the pipeline into outDir,
// at most workers files at a time (workers <= 0 means one per CPU).
// The first failure cancels the remaining files.
func (p *Pipeline) ProcessDir(ctx context.Context, inDir, outDir string, workers int) ([]Report, error) {
	files, err := util.ListImageFiles(inDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(images.ErrWriteError, "output directory %s: %v", outDir, err)
	}

	p.Logger.Printf("📂 processing %d bitmap(s) from %s", len(files), inDir)

	reports := make([]Report, len(files))
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			report, err := p.Process(ctx, f.Path, filepath.Join(outDir, f.Name))
			reports[i] = report
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return reports, err
	}

	return reports, nil
}
