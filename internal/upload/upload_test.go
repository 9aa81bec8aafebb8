package upload

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// pngHeader returns a PNG signature and IHDR chunk claiming w×h RGBA pixels,
// with no pixel data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 6 // 8-bit RGBA
	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	dir := t.TempDir()
	t.Run("should decode a png", func(t *testing.T) {
		path := writePNG(t, dir, "a.png", 40, 20)
		p, err := Decode(path, 512)
		require.NoError(t, err)
		assert.Equal(t, "a.png", p.Name)
		assert.Equal(t, 40, p.Image.Bounds().Dx())
		assert.InDelta(t, 2, p.Aspect(), 1e-6)
		assert.Positive(t, p.Size)
	})
	t.Run("should shrink large images keeping the aspect", func(t *testing.T) {
		path := writePNG(t, dir, "big.png", 300, 600)
		p, err := Decode(path, 100)
		require.NoError(t, err)
		assert.Equal(t, 50, p.Image.Bounds().Dx())
		assert.Equal(t, 100, p.Image.Bounds().Dy())
	})
	t.Run("should decode a webp", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
		path := filepath.Join(dir, "c.webp")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, nativewebp.Encode(f, img, nil))
		require.NoError(t, f.Close())
		p, err := Decode(path, 0)
		require.NoError(t, err)
		assert.Equal(t, 16, p.Image.Bounds().Dx())
	})
	t.Run("should decode a jpeg", func(t *testing.T) {
		path := filepath.Join(dir, "d.jpg")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, 12, 6)), nil))
		require.NoError(t, f.Close())
		p, err := Decode(path, 0)
		require.NoError(t, err)
		assert.Equal(t, 12, p.Image.Bounds().Dx())
	})
	t.Run("should decode a tga by extension", func(t *testing.T) {
		path := filepath.Join(dir, "e.tga")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, tga.Encode(f, image.NewNRGBA(image.Rect(0, 0, 5, 7))))
		require.NoError(t, f.Close())
		p, err := Decode(path, 0)
		require.NoError(t, err)
		assert.Equal(t, 7, p.Image.Bounds().Dy())
	})
	t.Run("should refuse images above the pixel cap before decoding", func(t *testing.T) {
		path := filepath.Join(dir, "huge.png")
		require.NoError(t, os.WriteFile(path, pngHeader(30000, 30000), 0644))
		_, err := Decode(path, 0)
		assert.ErrorIs(t, err, ErrTooLarge)
	})
	t.Run("should reject files that are not images", func(t *testing.T) {
		path := filepath.Join(dir, "notes.png")
		require.NoError(t, os.WriteFile(path, []byte("hello, not a picture"), 0644))
		_, err := Decode(path, 0)
		assert.ErrorIs(t, err, ErrNotImage)
	})
	t.Run("should report missing files", func(t *testing.T) {
		_, err := Decode(filepath.Join(dir, "missing.png"), 0)
		assert.Error(t, err)
	})
}

func TestIsImagePath(t *testing.T) {
	assert.True(t, IsImagePath("x/Y.JPG"))
	assert.True(t, IsImagePath("a.tga"))
	assert.False(t, IsImagePath("a.txt"))
	assert.False(t, IsImagePath("png"))
}

func TestPipeline(t *testing.T) {
	t.Run("should deliver decoded photos and report failures", func(t *testing.T) {
		dir := t.TempDir()
		good1 := writePNG(t, dir, "1.png", 8, 8)
		good2 := writePNG(t, dir, "2.png", 8, 4)
		bad := filepath.Join(dir, "3.png")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

		p := NewPipeline(nil, 0)
		var mu sync.Mutex
		var failed []string
		p.OnError = func(path string, err error) {
			mu.Lock()
			failed = append(failed, path)
			mu.Unlock()
		}
		p.Submit(context.Background(), good1, bad, good2)
		p.Wait()

		photos := p.Drain()
		names := []string{}
		for _, ph := range photos {
			names = append(names, ph.Name)
		}
		assert.ElementsMatch(t, []string{"1.png", "2.png"}, names)
		assert.Equal(t, []string{bad}, failed)
		assert.Empty(t, p.Drain())
	})
	t.Run("should skip work after cancel", func(t *testing.T) {
		dir := t.TempDir()
		path := writePNG(t, dir, "1.png", 8, 8)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewPipeline(nil, 0)
		p.Submit(ctx, path)
		p.Wait()
		assert.Empty(t, p.Drain())
	})
}

func TestWatcher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drop")
	p := NewPipeline(nil, 0)
	w, err := Watch(context.Background(), dir, p, nil)
	require.NoError(t, err)
	defer w.Close()

	src := writePNG(t, t.TempDir(), "photo.png", 10, 10)
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	var got []Photo
	assert.Eventually(t, func() bool {
		got = append(got, p.Drain()...)
		return len(got) == 1
	}, 5*time.Second, 50*time.Millisecond)
	if len(got) == 1 {
		assert.Equal(t, "photo.png", got[0].Name)
	}
}

func TestWatcherExistingFiles(t *testing.T) {
	// given a file already in the folder that is rewritten while the watch starts
	dir := t.TempDir()
	path := writePNG(t, dir, "early.png", 6, 6)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	p := NewPipeline(nil, 0)

	// when
	w, err := Watch(context.Background(), dir, p, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, os.WriteFile(path, data, 0644))

	// then it is submitted exactly once
	var got []Photo
	assert.Eventually(t, func() bool {
		got = append(got, p.Drain()...)
		return len(got) >= 1
	}, 5*time.Second, 50*time.Millisecond)
	time.Sleep(3 * settleDelay)
	p.Wait()
	got = append(got, p.Drain()...)
	require.Len(t, got, 1)
	assert.Equal(t, "early.png", got[0].Name)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", 2, 2)
	writePNG(t, dir, "a.png", 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), nil, 0644))
	got, err := ScanDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}, got)

	got, err = ScanDir(filepath.Join(dir, "nope"))
	assert.NoError(t, err)
	assert.Empty(t, got)
}
