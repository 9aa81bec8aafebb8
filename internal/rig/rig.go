// Package rig smooths the rotation of the particle group from hand, pointer
// and auto-rotation input.
package rig

import (
	"math"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/mode"
)

const (
	// AutoRotate is the vertical-axis spin in Tree mode, rad/s.
	AutoRotate = 0.3

	handYaw     = math.Pi // half a turn at the frame edge
	handPitch   = 0.6
	pointerYaw  = 0.8
	pointerTilt = 0.4
	rate        = 3
)

// Pointer is the cursor position normalized to [-1,1] per axis, +Y up.
type Pointer struct {
	X, Y float32
}

// Rig holds the group rotation. The zero value faces the camera.
type Rig struct {
	RotX, RotY float32
}

// Step advances the rotation by dt. A detected hand drives the group in
// Scatter and Focus and takes priority over the pointer. Tree mode spins
// around Y on its own while the pointer tilts X.
func (r *Rig) Step(dt float32, m mode.Mode, hand mode.HandSignal, p Pointer) {
	if m == mode.Tree {
		r.RotY = mathutil.WrapAngle(r.RotY + AutoRotate*dt)
		r.RotX = mathutil.Damp(r.RotX, -p.Y*pointerTilt, rate, dt)
		return
	}
	targetY, targetX := p.X*pointerYaw, -p.Y*pointerTilt
	if hand.Detected {
		targetY, targetX = hand.X*handYaw, hand.Y*handPitch
	}
	r.RotY = mathutil.DampAngle(r.RotY, targetY, rate, dt)
	r.RotX = mathutil.Damp(r.RotX, targetX, rate, dt)
}

// Matrix returns the group world transform Ry·Rx.
func (r *Rig) Matrix() mathutil.Mat4 {
	return mathutil.RotY(r.RotY).Mul(mathutil.RotX(r.RotX))
}

// PointerFromScreen normalizes a cursor position in pixels to [-1,1] with +Y
// up. A zero-sized screen yields the centre.
func PointerFromScreen(x, y, w, h float32) Pointer {
	if w <= 0 || h <= 0 {
		return Pointer{}
	}
	p := Pointer{X: 2*x/w - 1, Y: 1 - 2*y/h}
	p.X = max(-1, min(1, p.X))
	p.Y = max(-1, min(1, p.Y))
	return p
}
