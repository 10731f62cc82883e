package images

import (
	"crypto/md5"
	"fmt"
)

// ComputeChecksum generates a deterministic checksum of a buffer's pixels and
// dimensions, used to verify idempotency of transform chains.
//
// Arguments:
// - b: The buffer to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty buffer.
//
// Example:
//
// ```go
//
//	checksum := ComputeChecksum(buf)
//	fmt.Printf("Buffer checksum: %s\n", checksum)
//
// ```
func ComputeChecksum(b Buffer) string {
	if len(b.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", b.Width, b.Height)
	hash.Write(b.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
