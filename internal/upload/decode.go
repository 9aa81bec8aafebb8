// Package upload turns user image files into decoded photos for the scene.
// Decoding runs off the render loop; the render loop collects finished
// photos with Pipeline.Drain between frames.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// DefaultMaxEdge caps the long edge of decoded photos, in pixels.
const DefaultMaxEdge = 512

// MaxPixels caps width×height of a source image. Larger files are rejected
// before their pixels are decoded.
const MaxPixels = 40_000_000

var (
	// ErrNotImage is returned for files that are not a supported image.
	ErrNotImage = errors.New("not a supported image")
	// ErrTooLarge is returned for images above MaxPixels.
	ErrTooLarge = errors.New("image too large")
)

type codec struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

// codecs is keyed by the extension filetype reports for the sniffed content.
// The image registry is not used: tga registers an empty magic string that
// would claim every file.
var codecs = map[string]codec{
	"png":  {png.Decode, png.DecodeConfig},
	"jpg":  {jpeg.Decode, jpeg.DecodeConfig},
	"gif":  {gif.Decode, gif.DecodeConfig},
	"bmp":  {bmp.Decode, bmp.DecodeConfig},
	"tif":  {tiff.Decode, tiff.DecodeConfig},
	"webp": {webp.Decode, webp.DecodeConfig},
}

var tgaCodec = codec{tga.Decode, tga.DecodeConfig}

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".tga"}

// IsImagePath reports whether name has a supported image extension.
func IsImagePath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Photo is a decoded image ready to become a texture.
type Photo struct {
	Name  string
	Path  string
	Size  int64 // file size in bytes
	Image *image.RGBA
}

// Aspect returns width/height.
func (p Photo) Aspect() float32 {
	b := p.Image.Bounds()
	if b.Dy() == 0 {
		return 1
	}
	return float32(b.Dx()) / float32(b.Dy())
}

// Decode reads and decodes the image at path, shrinking it so the long edge
// is at most maxEdge pixels (maxEdge <= 0 keeps the original size).
func Decode(path string, maxEdge int) (Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Photo{}, fmt.Errorf("upload: %w", err)
	}
	img, err := decodeBytes(data, strings.ToLower(filepath.Ext(path)) == ".tga")
	if err != nil {
		return Photo{}, fmt.Errorf("upload: %s: %w", filepath.Base(path), err)
	}
	return Photo{
		Name:  filepath.Base(path),
		Path:  path,
		Size:  int64(len(data)),
		Image: fit(img, maxEdge),
	}, nil
}

// decodeBytes sniffs the content and decodes with the matching codec. TGA has
// no magic number, so it is only accepted by extension.
func decodeBytes(data []byte, isTGA bool) (image.Image, error) {
	c := tgaCodec
	if !isTGA {
		kind, err := filetype.Match(data)
		if err != nil {
			return nil, ErrNotImage
		}
		var ok bool
		if c, ok = codecs[kind.Extension]; !ok {
			return nil, ErrNotImage
		}
	}
	cfg, err := c.config(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrNotImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, err := c.decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrNotImage
	}
	return img, nil
}

func fit(img image.Image, maxEdge int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return clone.AsRGBA(img)
	}
	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	return transform.Resize(img, w, h, transform.Linear)
}
