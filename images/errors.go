package images

import (
	"github.com/pkg/errors"
)

// Error taxonomy shared by the codec and the transforms. Callers match with
// errors.Is; the returned errors wrap these sentinels with context.
var (
	// ErrFileNotFound is returned when a source path cannot be opened.
	ErrFileNotFound = errors.New("file not found")
	// ErrTruncatedFile is returned when fewer bytes are available than the headers imply.
	ErrTruncatedFile = errors.New("truncated file")
	// ErrUnsupportedFormat is returned for a bad magic, bit depth other than 24,
	// or any compression.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrInvalidParameter is returned for bad transform parameters or malformed buffers.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrWriteError is returned when a destination cannot be created or written.
	ErrWriteError = errors.New("write error")
)
