package images

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Clamp restricts a value to the specified range [min, max].
//
// Arguments:
// - value: The value to clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampUint8 rounds an accumulated channel value to the nearest byte.
// Clamping happens before the conversion; a float-to-uint8 conversion of an
// out-of-range value is implementation defined.
func ClampUint8(value float64) uint8 {
	return uint8(Clamp(value, 0, 255) + 0.5)
}

// Parallel splits [0, dataSize) into contiguous partitions and runs fn on each
// partition in its own goroutine. Small inputs run serially on the caller's
// goroutine.
//
// Arguments:
// - dataSize: The size of the data to process (rows, typically).
// - fn: Function to execute for each partition (receives start and end indices).
//
// Returns:
// - The first error returned by any partition.
//
// @example
//
//	err := Parallel(height, func(start, end int) error {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	    return nil
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int) error) error {
	numGoroutines := runtime.GOMAXPROCS(0)

	// Parallel overhead isn't worth it for a handful of rows.
	if numGoroutines < 2 || dataSize < numGoroutines*2 {
		return fn(0, dataSize)
	}

	partSize := dataSize / numGoroutines

	var g errgroup.Group
	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		g.Go(func() error {
			return fn(partStart, partEnd)
		})
	}

	return g.Wait()
}
