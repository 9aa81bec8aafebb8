package mathutil

import "github.com/chewxy/math32"

// DampFactor is the frame-rate independent blend weight for exponential
// smoothing at the given rate (1/s). dt <= 0 yields 0.
func DampFactor(rate, dt float32) float32 {
	if dt <= 0 || rate <= 0 {
		return 0
	}
	return 1 - math32.Exp(-rate*dt)
}

// Damp moves current toward target by exponential smoothing.
func Damp(current, target, rate, dt float32) float32 {
	return current + (target-current)*DampFactor(rate, dt)
}

// DampVec3 is Damp applied per component.
func DampVec3(current, target Vec3, rate, dt float32) Vec3 {
	return current.Lerp(target, DampFactor(rate, dt))
}

// WrapAngle maps a to (-Pi, Pi].
func WrapAngle(a float32) float32 {
	if a > -math32.Pi && a <= math32.Pi {
		return a
	}
	a = math32.Mod(a+math32.Pi, 2*math32.Pi)
	if a <= 0 {
		a += 2 * math32.Pi
	}
	return a - math32.Pi
}

// DampAngle smooths an angle toward target along the shortest arc.
func DampAngle(current, target, rate, dt float32) float32 {
	diff := WrapAngle(target - current)
	return current + diff*DampFactor(rate, dt)
}
