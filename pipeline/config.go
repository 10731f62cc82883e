package pipeline

import (
	"bytes"
	"os"
	"runtime"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/nvr-ai/go-bmp/images/kernels"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes one pipeline run: either a single Source/Destination pair
// or every bitmap in InputDir written to OutputDir.
type Config struct {
	// Source is the bitmap to read.
	Source string `json:"source" yaml:"source"`
	// Destination is the bitmap to write.
	Destination string `json:"destination" yaml:"destination"`
	// InputDir selects batch mode: every .bmp directly inside it is processed.
	InputDir string `json:"input_dir" yaml:"input_dir"`
	// OutputDir receives batch outputs under their source names.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Transforms are applied in order; see ParseTransform for the syntax.
	Transforms []string `json:"transforms" yaml:"transforms"`
	// Border is the blur border policy: copy, black, clamp, mirror or clip.
	Border string `json:"border" yaml:"border"`
	// Parallel partitions blur rows across goroutines.
	Parallel bool `json:"parallel" yaml:"parallel"`
	// Workers bounds the number of files processed at once in batch mode.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Border:   kernels.BorderCopy.String(),
		Parallel: true,
		Workers:  runtime.NumCPU(),
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig. Unknown keys are
// rejected.
//
// Arguments:
// - path: The YAML file.
//
// Returns:
// - Config: The merged configuration.
// - error: ErrFileNotFound if the file cannot be read, or a parse error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(images.ErrFileNotFound, "config %s: %v", path, err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}

	return cfg, nil
}

// Batch reports whether the config selects directory mode.
func (c Config) Batch() bool {
	return c.InputDir != ""
}

// BlurOptions returns the kernel options implied by the config.
func (c Config) BlurOptions() (kernels.Options, error) {
	border, err := kernels.ParseBorderMode(c.Border)
	if err != nil {
		return kernels.Options{}, err
	}
	return kernels.Options{Border: border, Parallel: c.Parallel}, nil
}

// Validate checks paths, the border policy and every transform spec.
func (c Config) Validate() error {
	switch {
	case c.Batch() && (c.Source != "" || c.Destination != ""):
		return errors.Wrap(images.ErrInvalidParameter, "input_dir cannot be combined with source/destination")
	case c.Batch() && c.OutputDir == "":
		return errors.Wrap(images.ErrInvalidParameter, "input_dir requires output_dir")
	case !c.Batch() && (c.Source == "" || c.Destination == ""):
		return errors.Wrap(images.ErrInvalidParameter, "source and destination are required")
	case c.Workers < 0:
		return errors.Wrapf(images.ErrInvalidParameter, "workers must not be negative, got %d", c.Workers)
	}

	opt, err := c.BlurOptions()
	if err != nil {
		return err
	}
	_, err = ParseTransforms(c.Transforms, opt)
	return err
}
