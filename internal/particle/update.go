package particle

import (
	"github.com/chewxy/math32"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/mode"
)

// Motion tuning. Rates are exponential smoothing rates in 1/s.
const (
	positionRate      = 2.5
	focusPositionRate = 7
	scaleRate         = 4
	relaxRate         = 3
	treeSpinY         = 0.5

	photoScatterScale = 2.5
	focusScale        = 6
	focusShrink       = 0.5

	twinkleSpeed = 3
	twinkleBase  = 0.6
	twinkleDepth = 0.4

	// FocusDistance is how far in front of the camera the focus target rests.
	FocusDistance = 12
)

// FocusPoint is the world-space resting point of the focus target: on the
// line from the camera to the origin, FocusDistance in front of the camera.
func FocusPoint(camera mathutil.Vec3) mathutil.Vec3 {
	dir := camera.Scale(-1).Normalize()
	return camera.Add(dir.Scale(FocusDistance))
}

// Update advances the entity by dt seconds. It only touches e.Pose.
// With dt == 0 position and scale are unchanged.
func (e *Entity) Update(dt, elapsed float32, f Frame) {
	focused := e.IsFocus(f)
	inv := mathutil.Identity()
	if focused {
		if m, ok := f.Group.Inverse(); ok {
			inv = m
		}
	}

	target, rate := e.targetPosition(f, focused, inv), float32(positionRate)
	if focused {
		rate = focusPositionRate
	}
	e.Pose.Position = mathutil.DampVec3(e.Pose.Position, target, rate, dt)

	rot := &e.Pose.Rotation
	switch {
	case focused:
		camLocal := inv.MulPoint(f.Camera)
		*rot = mathutil.LookAtEuler(camLocal.Sub(e.Pose.Position))
	case f.Mode == mode.Tree:
		rot[0] = mathutil.Damp(rot[0], 0, relaxRate, dt)
		rot[2] = mathutil.Damp(rot[2], 0, relaxRate, dt)
		rot[1] = mathutil.WrapAngle(rot[1] + treeSpinY*dt)
	default:
		for i := range rot {
			rot[i] = mathutil.WrapAngle(rot[i] + e.Spin[i]*dt)
		}
	}

	e.Pose.Scale = mathutil.Damp(e.Pose.Scale, e.targetScale(elapsed, f, focused), scaleRate, dt)
}

func (e *Entity) targetPosition(f Frame, focused bool, inv mathutil.Mat4) mathutil.Vec3 {
	switch f.Mode {
	case mode.Tree:
		return e.TreePos
	case mode.Focus:
		if focused {
			return inv.MulPoint(FocusPoint(f.Camera))
		}
	}
	return e.ScatterPos
}

func (e *Entity) targetScale(elapsed float32, f Frame, focused bool) float32 {
	if focused {
		return e.BaseScale * focusScale
	}
	s := e.BaseScale
	switch {
	case e.IsDust:
		if f.Mode == mode.Tree {
			return 0
		}
		s *= twinkleBase + twinkleDepth*math32.Sin(twinkleSpeed*elapsed+2*math32.Pi*e.Seed)
	case e.Kind == KindPhoto && f.Mode != mode.Tree:
		s *= photoScatterScale
	}
	if f.Mode == mode.Focus {
		s *= focusShrink
	}
	return s
}
