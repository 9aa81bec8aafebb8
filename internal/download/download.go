package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; rv:109.0) Gecko/20100101 Firefox/115.0"
	// MaxBytes caps a single download.
	MaxBytes = 32 << 20
)

// ErrNotImage is returned when the fetched body is not an image.
var ErrNotImage = errors.New("download: response is not an image")

// Client fetches images into a directory.
type Client struct {
	HTTP *http.Client
}

// New returns a client with a 60 second timeout.
func New() *Client {
	return &Client{HTTP: &http.Client{Timeout: 60 * time.Second}}
}

// Download fetches rawURL with a default client. See Client.Download.
func Download(ctx context.Context, rawURL, destDir string) (string, error) {
	return New().Download(ctx, rawURL, destDir)
}

// Download fetches rawURL and saves it under destDir. The filename comes from
// Content-Disposition or the URL path; the extension from the sniffed content,
// falling back to Content-Type. Bodies that are not images are rejected and
// nothing is written. Returns the saved path. destDir is created if needed
// and an existing file is never overwritten.
func (c *Client) Download(ctx context.Context, rawURL, destDir string) (savedPath string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("download: invalid url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	if len(data) > MaxBytes {
		return "", fmt.Errorf("download: body larger than %d bytes", MaxBytes)
	}

	ext := extensionFromContent(data)
	if ext == "" {
		return "", ErrNotImage
	}
	name := filenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = filenameFromURL(u)
	}
	name = sanitizeFilename(strings.TrimSuffix(name, filepath.Ext(name)))

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	savedPath, err = writeNew(destDir, name, ext, data)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return savedPath, nil
}

// writeNew writes data to dir/name+ext, adding a counter when the name is
// taken.
func writeNew(dir, name, ext string, data []byte) (string, error) {
	for i := 0; i < 1000; i++ {
		file := name + ext
		if i > 0 {
			file = fmt.Sprintf("%s-%d%s", name, i, ext)
		}
		p := filepath.Join(dir, file)
		out, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, bytes.NewReader(data)); err != nil {
			out.Close()
			_ = os.Remove(p)
			return "", err
		}
		return p, out.Close()
	}
	return "", fmt.Errorf("no free name for %s%s", name, ext)
}

func extensionFromContent(data []byte) string {
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return "." + kind.Extension
}

func filenameFromContentDisposition(cd string) string {
	cd = strings.TrimSpace(cd)
	// filename="..."; or filename*=UTF-8''...
	if i := strings.Index(cd, "filename*=UTF-8''"); i >= 0 {
		s := cd[i+len("filename*=UTF-8''"):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		if un, err := url.PathUnescape(s); err == nil {
			s = un
		}
		return strings.Trim(s, "\"")
	}
	if i := strings.Index(cd, "filename="); i >= 0 {
		s := cd[i+len("filename="):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		return strings.Trim(s, "\" ")
	}
	return ""
}

func filenameFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

var safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

func sanitizeFilename(name string) string {
	name = safeNameRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "photo"
	}
	if len(name) > 96 {
		name = name[:96]
	}
	return name
}
