package util

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/nvr-ai/go-bmp/images"
	"github.com/pkg/errors"
)

// ImageFile represents an image file found in a directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the base name of the file.
	Name string
	// Format is the format implied by the extension.
	Format images.ImageFormat
	// Size is the file size in bytes.
	Size int64
}

// ListImageFiles returns the bitmap files directly inside dir, sorted by name.
// Subdirectories and other extensions are skipped.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The files found.
// - error: Error if the directory cannot be read.
func ListImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(images.ErrFileNotFound, "%s: %v", dir, err)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		format, ok := images.FormatFromPath(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, errors.Wrap(err, entry.Name())
		}

		files = append(files, ImageFile{
			Path:   filepath.Join(dir, entry.Name()),
			Name:   entry.Name(),
			Format: format,
			Size:   info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}
