package kernels

import (
	"math"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

// MaxRadius bounds the kernel side length.
const MaxRadius = 255

// Kernel is a square, normalized convolution kernel.
type Kernel struct {
	// Radius is the side length of the square; odd and at least 3. The reach
	// from the center pixel is Radius/2.
	Radius int
	// Sigma is the standard deviation the weights were generated with.
	Sigma float64
	// Weights holds exactly Radius*Radius values, row-major, center at
	// index (Radius/2)*Radius + Radius/2.
	Weights []float64
}

// Half returns the reach of the kernel from its center pixel.
func (k Kernel) Half() int {
	return k.Radius / 2
}

// At returns the weight at row offset m and column offset n from the center,
// with m, n in [-Half, Half].
func (k Kernel) At(m, n int) float64 {
	h := k.Half()
	return k.Weights[(m+h)*k.Radius+(n+h)]
}

// Sum returns the total of all weights; 1 within rounding for a generated kernel.
func (k Kernel) Sum() float64 {
	sum := 0.0
	for _, w := range k.Weights {
		sum += w
	}
	return sum
}

// Validate checks the shape invariants.
func (k Kernel) Validate() error {
	if err := validateRadius(k.Radius); err != nil {
		return err
	}
	if len(k.Weights) != k.Radius*k.Radius {
		return errors.Wrapf(images.ErrInvalidParameter, "kernel has %d weights, want %d", len(k.Weights), k.Radius*k.Radius)
	}
	return nil
}

// GenerateGaussianKernel creates a 2-D Gaussian kernel normalized to sum to 1.0,
// so a blur with it neither darkens nor brightens a uniform image.
//
// The weight at offset (m, n) from the center is
//
//	exp(-(m*m + n*n) / (2*sigma*sigma))
//
// before normalization.
//
// Arguments:
// - radius: The kernel side length; odd and at least 3.
// - sigma: Standard deviation of the Gaussian; positive and finite.
//
// Returns:
// - Kernel: The normalized kernel with exactly radius*radius weights.
// - error: ErrInvalidParameter for a bad radius or sigma.
//
// @example
// kernel, err := GenerateGaussianKernel(5, 1.0)
func GenerateGaussianKernel(radius int, sigma float64) (Kernel, error) {
	if err := validateRadius(radius); err != nil {
		return Kernel{}, err
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return Kernel{}, errors.Wrapf(images.ErrInvalidParameter, "sigma must be positive and finite, got %v", sigma)
	}

	half := radius / 2
	denom := 2.0 * sigma * sigma
	weights := make([]float64, radius*radius)

	sum := 0.0
	for m := -half; m <= half; m++ {
		for n := -half; n <= half; n++ {
			w := math.Exp(-float64(m*m+n*n) / denom)
			weights[(m+half)*radius+(n+half)] = w
			sum += w
		}
	}

	// The center weight is exp(0) = 1, so sum >= 1 and this never divides by zero.
	for i := range weights {
		weights[i] /= sum
	}

	return Kernel{
		Radius:  radius,
		Sigma:   sigma,
		Weights: weights,
	}, nil
}

func validateRadius(radius int) error {
	if radius < 3 || radius%2 == 0 || radius > MaxRadius {
		return errors.Wrapf(images.ErrInvalidParameter, "radius must be odd and within [3, %d], got %d", MaxRadius, radius)
	}
	return nil
}
