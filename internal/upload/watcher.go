package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay lets a file finish being written before it is decoded; copies
// show up as one create followed by several writes.
const settleDelay = 250 * time.Millisecond

// Watcher submits image files dropped into a folder.
type Watcher struct {
	dir  string
	fw   *fsnotify.Watcher
	p    *Pipeline
	log  *slog.Logger
	ctx  context.Context
	done chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// Watch starts watching dir (created if missing) and submits the image files
// already in it plus new ones to p until Close. Existing files share the
// debounce with change events, so a file that appears while the folder is
// scanned is submitted once.
func Watch(ctx context.Context, dir string, p *Pipeline, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("upload: %w", err)
	}
	w := &Watcher{
		dir:     dir,
		fw:      fw,
		p:       p,
		log:     log,
		ctx:     ctx,
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}
	go w.loop()
	existing, err := ScanDir(dir)
	if err != nil {
		log.Warn("drop folder scan failed", "dir", dir, "error", err)
	}
	for _, path := range existing {
		w.schedule(path)
	}
	log.Info("watching drop folder", "dir", dir, "existing", len(existing))
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if IsImagePath(ev.Name) {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("drop folder watch error", "error", err)
		}
	}
}

// schedule debounces repeated events for the same file.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.p.Submit(w.ctx, path)
		}
	})
}

// Close stops watching. Pending files that have not settled are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	w.pending = nil
	w.mu.Unlock()
	err := w.fw.Close()
	<-w.done
	return err
}

// ScanDir lists the image files directly inside dir, sorted by name.
// A missing dir is not an error.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("upload: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsImagePath(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
