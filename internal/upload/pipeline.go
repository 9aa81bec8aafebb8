package upload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Pipeline decodes submitted files in the background. Finished photos wait
// in a queue until the render loop drains them, so entities are only ever
// appended between frames.
type Pipeline struct {
	// OnError, if set, is called for every file that could not be decoded.
	// It runs on a decoder goroutine.
	OnError func(path string, err error)

	log     *slog.Logger
	maxEdge int
	limit   int

	mu    sync.Mutex
	ready []Photo
	wg    sync.WaitGroup
}

// NewPipeline returns a Pipeline. maxEdge <= 0 uses DefaultMaxEdge.
func NewPipeline(log *slog.Logger, maxEdge int) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	return &Pipeline{log: log, maxEdge: maxEdge, limit: defaultConcurrency}
}

// Submit queues paths for decoding and returns immediately. A file that fails
// to decode adds nothing; the failure is logged and reported to OnError.
func (p *Pipeline) Submit(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		var g errgroup.Group
		g.SetLimit(p.limit)
		for _, path := range paths {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				photo, err := Decode(path, p.maxEdge)
				if err != nil {
					p.log.Warn("photo rejected", "path", path, "error", err)
					if p.OnError != nil {
						p.OnError(path, err)
					}
					return nil
				}
				p.log.Info("photo decoded", "name", photo.Name, "size", humanize.Bytes(uint64(photo.Size)),
					"width", photo.Image.Bounds().Dx(), "height", photo.Image.Bounds().Dy())
				p.mu.Lock()
				p.ready = append(p.ready, photo)
				p.mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Drain returns and clears the photos decoded so far. Call it from the render
// loop outside entity iteration.
func (p *Pipeline) Drain() []Photo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.ready
	p.ready = nil
	return out
}

// Wait blocks until every submitted file has been processed.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}
