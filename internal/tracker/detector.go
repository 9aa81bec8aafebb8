package tracker

import (
	"context"
	"log/slog"
	"time"

	"particle-tree/internal/gesture"
	"particle-tree/internal/mode"
)

// Rate is how often the detector samples the latest frame.
const Rate = 30

// Detector classifies tracker frames into mode changes. It runs on its own
// goroutine and only touches the shared mode state.
type Detector struct {
	src    Source
	state  *mode.State
	cls    *gesture.Classifier
	photos func() []uint64
	log    *slog.Logger

	last int64
}

// NewDetector returns a detector reading from src. photos lists the photo IDs
// a pinch may focus; it must be safe to call from the detector goroutine.
func NewDetector(src Source, state *mode.State, cls *gesture.Classifier, photos func() []uint64, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	if photos == nil {
		photos = func() []uint64 { return nil }
	}
	return &Detector{src: src, state: state, cls: cls, photos: photos, log: log}
}

// Step processes the latest frame once. It reports false when there is no
// frame or the frame was already processed.
func (d *Detector) Step() bool {
	f, ok := d.src.Latest()
	if !ok || f.Timestamp == d.last {
		return false
	}
	d.last = f.Timestamp
	if len(f.Hands) == 0 {
		d.state.ClearHand()
		return true
	}
	d.cls.Apply(d.state, f.Hands[0], d.photos())
	return true
}

// Run steps at Rate until ctx is done.
func (d *Detector) Run(ctx context.Context) {
	t := time.NewTicker(time.Second / Rate)
	defer t.Stop()
	d.log.Debug("detector started")
	for {
		select {
		case <-ctx.Done():
			d.log.Debug("detector stopped")
			return
		case <-t.C:
			d.Step()
		}
	}
}
