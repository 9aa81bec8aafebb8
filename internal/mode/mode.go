// Package mode holds the display mode state machine shared by the gesture
// detection loop, the pointer handler and the render loop.
package mode

import (
	"log/slog"
	"strings"
	"sync"
)

// Mode is the global display state.
type Mode int

const (
	Tree Mode = iota
	Scatter
	Focus
)

func (m Mode) String() string {
	switch m {
	case Tree:
		return "TREE"
	case Scatter:
		return "SCATTER"
	case Focus:
		return "FOCUS"
	}
	return "UNKNOWN"
}

// Parse maps a case-insensitive name ("tree", "scatter", "focus") to a Mode.
func Parse(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tree":
		return Tree, true
	case "scatter":
		return Scatter, true
	case "focus":
		return Focus, true
	}
	return Tree, false
}

// HandSignal is the most recent hand reading. X and Y are in [-1,1]; X is
// already mirrored to match the on-screen direction.
type HandSignal struct {
	Detected bool
	X, Y     float32
}

// Snapshot is a consistent copy of the shared state for one frame.
type Snapshot struct {
	Mode     Mode
	FocusID  uint64
	HasFocus bool
	Hand     HandSignal
}

// State is the single source of truth for mode, focus target and hand signal.
// Writers (detection loop, pointer, terminal) and the render loop run on
// different goroutines; last write wins.
// The focus target is held by entity ID only and is set only while in Focus.
type State struct {
	mu       sync.Mutex
	mode     Mode
	focusID  uint64
	hasFocus bool
	hand     HandSignal
	log      *slog.Logger
}

// NewState returns a State in Tree mode with no focus. log may be nil.
func NewState(log *slog.Logger) *State {
	if log == nil {
		log = slog.Default()
	}
	return &State{mode: Tree, log: log}
}

// Snapshot returns the current values.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Mode: s.mode, FocusID: s.focusID, HasFocus: s.hasFocus, Hand: s.hand}
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches mode. Any mode other than Focus clears the focus target.
// Entering Focus this way keeps an existing target (none if there was none).
func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(m)
}

func (s *State) setLocked(m Mode) {
	if m != Focus {
		s.hasFocus = false
		s.focusID = 0
	}
	if s.mode != m {
		s.log.Debug("mode changed", "from", s.mode, "to", m)
	}
	s.mode = m
}

// Focus enters Focus mode with id as the focus target.
func (s *State) Focus(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(Focus)
	s.focusID = id
	s.hasFocus = true
	s.log.Debug("focus target set", "id", id)
}

// SetHand stores the latest hand reading.
func (s *State) SetHand(h HandSignal) {
	s.mu.Lock()
	s.hand = h
	s.mu.Unlock()
}

// ClearHand marks the hand as not detected.
func (s *State) ClearHand() {
	s.SetHand(HandSignal{})
}

// Click applies the pointer fallback. A hit focuses that photo regardless of
// the current mode. A miss steps Focus→Scatter, Scatter→Tree, Tree→Scatter.
func (s *State) Click(hitID uint64, hit bool) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hit {
		s.setLocked(Focus)
		s.focusID = hitID
		s.hasFocus = true
		return s.mode
	}
	switch s.mode {
	case Focus:
		s.setLocked(Scatter)
	case Scatter:
		s.setLocked(Tree)
	default:
		s.setLocked(Scatter)
	}
	return s.mode
}

// Update runs fn with exclusive access to mode and focus. fn receives the
// current mode and returns the new mode plus an optional focus target; it is
// the hook the gesture classifier uses so a classification is applied
// atomically.
func (s *State) Update(fn func(current Mode, hasFocus bool) (next Mode, focusID uint64, setFocus bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, id, setFocus := fn(s.mode, s.hasFocus)
	s.setLocked(next)
	if next == Focus && setFocus {
		s.focusID = id
		s.hasFocus = true
	}
}
