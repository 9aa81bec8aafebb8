package rig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"particle-tree/internal/mode"
)

func run(r *Rig, steps int, m mode.Mode, h mode.HandSignal, p Pointer) {
	for range steps {
		r.Step(1.0/60, m, h, p)
	}
}

func TestStep(t *testing.T) {
	hand := mode.HandSignal{Detected: true, X: 0.5, Y: -0.5}
	pointer := Pointer{X: -1, Y: 1}
	t.Run("should follow the hand in scatter and focus", func(t *testing.T) {
		for _, m := range []mode.Mode{mode.Scatter, mode.Focus} {
			var r Rig
			run(&r, 600, m, hand, pointer)
			assert.InDelta(t, 0.5*handYaw, r.RotY, 1e-3)
			assert.InDelta(t, -0.5*handPitch, r.RotX, 1e-3)
		}
	})
	t.Run("should follow the pointer without a hand", func(t *testing.T) {
		var r Rig
		run(&r, 600, mode.Scatter, mode.HandSignal{}, pointer)
		assert.InDelta(t, -pointerYaw, r.RotY, 1e-3)
		assert.InDelta(t, -pointerTilt, r.RotX, 1e-3)
	})
	t.Run("should auto rotate in tree mode regardless of hand", func(t *testing.T) {
		var r Rig
		r.Step(0.5, mode.Tree, hand, pointer)
		assert.InDelta(t, AutoRotate*0.5, r.RotY, 1e-6)
		run(&r, 600, mode.Tree, hand, pointer)
		assert.InDelta(t, -pointerTilt, r.RotX, 1e-3)
	})
	t.Run("should smooth instead of snapping", func(t *testing.T) {
		var r Rig
		r.Step(1.0/60, mode.Scatter, hand, pointer)
		assert.Greater(t, r.RotY, float32(0))
		assert.Less(t, r.RotY, float32(0.5*handYaw))
	})
	t.Run("should hold still with dt zero", func(t *testing.T) {
		r := Rig{RotX: 0.2, RotY: 1}
		r.Step(0, mode.Tree, hand, pointer)
		r.Step(0, mode.Scatter, hand, pointer)
		assert.Equal(t, Rig{RotX: 0.2, RotY: 1}, r)
	})
}

func TestMatrix(t *testing.T) {
	var r Rig
	assert.Equal(t, r.Matrix(), r.Matrix())
	r.RotY = 1.5707964
	p := r.Matrix().MulDir([3]float32{0, 0, 1})
	assert.InDelta(t, 1, p[0], 1e-6)
}

func TestPointerFromScreen(t *testing.T) {
	assert.Equal(t, Pointer{}, PointerFromScreen(400, 300, 800, 600))
	assert.Equal(t, Pointer{X: -1, Y: 1}, PointerFromScreen(0, 0, 800, 600))
	assert.Equal(t, Pointer{X: 1, Y: -1}, PointerFromScreen(900, 700, 800, 600), "clamped outside the window")
	assert.Equal(t, Pointer{}, PointerFromScreen(10, 10, 0, 0))
}
