// Package gesture turns hand landmark geometry into mode transitions.
package gesture

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"particle-tree/internal/mode"
)

// Landmark is one point of the 21-point hand model in normalized image
// coordinates ([0,1] on X and Y, origin top-left of the unmirrored frame).
type Landmark struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Hand model indices used by the classifier.
const (
	Wrist     = 0
	ThumbTip  = 4
	IndexTip  = 8
	MiddleMCP = 9
	MiddleTip = 12
	RingTip   = 16
	PinkyTip  = 20

	NumLandmarks = 21
)

// Thresholds in normalized image units.
type Thresholds struct {
	Fist  float32
	Open  float32
	Pinch float32
}

// DefaultThresholds returns the tuned values (fist 0.25, open 0.45, pinch 0.08).
func DefaultThresholds() Thresholds {
	return Thresholds{Fist: 0.25, Open: 0.45, Pinch: 0.08}
}

func planar(a, b Landmark) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math32.Sqrt(dx*dx + dy*dy)
}

// Pinch is the planar distance between thumb tip and index tip.
func Pinch(lms []Landmark) float32 {
	return planar(lms[ThumbTip], lms[IndexTip])
}

// Openness is the mean planar distance from the wrist to the four fingertips.
func Openness(lms []Landmark) float32 {
	w := lms[Wrist]
	sum := planar(w, lms[IndexTip]) + planar(w, lms[MiddleTip]) +
		planar(w, lms[RingTip]) + planar(w, lms[PinkyTip])
	return sum / 4
}

// Valid reports whether lms holds a full hand.
func Valid(lms []Landmark) bool {
	return len(lms) >= NumLandmarks
}

// Signal maps the middle-finger base to a rotation control in [-1,1].
// X is mirrored because the camera feed is mirrored.
func Signal(lms []Landmark) mode.HandSignal {
	p := lms[MiddleMCP]
	return mode.HandSignal{
		Detected: true,
		X:        (0.5 - p.X) * 2,
		Y:        (p.Y - 0.5) * 2,
	}
}

// Classifier applies the threshold priorities to the shared state.
type Classifier struct {
	Thresholds Thresholds
	rng        *rand.Rand
}

// NewClassifier returns a classifier. rng picks the focus photo; nil uses the
// global source.
func NewClassifier(th Thresholds, rng *rand.Rand) *Classifier {
	return &Classifier{Thresholds: th, rng: rng}
}

func (c *Classifier) pick(n int) int {
	if c.rng != nil {
		return c.rng.IntN(n)
	}
	return rand.IntN(n)
}

// Decide is the pure transition function. Priority: fist, pinch, open hand.
// A pinch only acts when not already focused; it then picks a photo uniformly
// (no target when photos is empty). An open hand moves to Scatter from any
// other mode, which also releases an active focus. Anything else holds.
func (c *Classifier) Decide(current mode.Mode, openness, pinch float32, photos []uint64) (next mode.Mode, focusID uint64, setFocus bool) {
	th := c.Thresholds
	switch {
	case openness < th.Fist:
		return mode.Tree, 0, false
	case pinch < th.Pinch:
		if current == mode.Focus {
			return current, 0, false
		}
		if len(photos) == 0 {
			return mode.Focus, 0, false
		}
		return mode.Focus, photos[c.pick(len(photos))], true
	case openness > th.Open:
		return mode.Scatter, 0, false
	}
	return current, 0, false
}

// Apply classifies one hand and writes the result and the hand signal to s.
// photos lists the IDs of the photo entities that can be focused.
func (c *Classifier) Apply(s *mode.State, lms []Landmark, photos []uint64) {
	if !Valid(lms) {
		s.ClearHand()
		return
	}
	open := Openness(lms)
	pinch := Pinch(lms)
	s.Update(func(current mode.Mode, _ bool) (mode.Mode, uint64, bool) {
		return c.Decide(current, open, pinch, photos)
	})
	s.SetHand(Signal(lms))
}
