// Package snapshot writes screen grabs as lossless WebP files.
package snapshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/HugoSmits86/nativewebp"
)

// DefaultDir is where shots go when no path is given.
const DefaultDir = "shots"

// DefaultPath returns a timestamped file name under dir.
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, "tree-"+now.Format("20060102-150405")+".webp")
}

// Save encodes img to path, creating the directory if needed. A partially
// written file is removed on error.
func Save(path string, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("snapshot: empty image")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("snapshot: encode %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
