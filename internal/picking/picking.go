// Package picking resolves pointer rays against photo boxes.
package picking

import (
	"github.com/chewxy/math32"

	"particle-tree/internal/mathutil"
)

// Ray is a world-space ray. Dir need not be normalized; distances are in
// units of Dir.
type Ray struct {
	Origin mathutil.Vec3
	Dir    mathutil.Vec3
}

// Target is one pickable box: Half are the half extents in model space,
// Model places it in the world.
type Target struct {
	ID    uint64
	Model mathutil.Mat4
	Half  mathutil.Vec3
}

// Intersect returns the ray parameter of the nearest hit on the oriented box.
// The ray is moved into the box's local space so the test is an axis-aligned
// slab test there. Origins inside the box hit at 0.
func Intersect(r Ray, model mathutil.Mat4, half mathutil.Vec3) (float32, bool) {
	inv, ok := model.Inverse()
	if !ok {
		return 0, false
	}
	o := inv.MulPoint(r.Origin)
	d := inv.MulDir(r.Dir)

	tMin := float32(0)
	tMax := math32.Inf(1)
	for i := 0; i < 3; i++ {
		if math32.Abs(d[i]) < 1e-9 {
			if o[i] < -half[i] || o[i] > half[i] {
				return 0, false
			}
			continue
		}
		t1 := (-half[i] - o[i]) / d[i]
		t2 := (half[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = max(tMin, t1)
		tMax = min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// Nearest returns the ID of the closest target hit by r.
func Nearest(r Ray, targets []Target) (uint64, bool) {
	var (
		bestID uint64
		best   = math32.Inf(1)
		found  bool
	)
	for _, t := range targets {
		d, ok := Intersect(r, t.Model, t.Half)
		if !ok || d >= best {
			continue
		}
		best, bestID, found = d, t.ID, true
	}
	return bestID, found
}
