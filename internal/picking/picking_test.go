package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"particle-tree/internal/mathutil"
)

var unit = mathutil.Vec3{0.5, 0.5, 0.05}

func TestIntersect(t *testing.T) {
	down := Ray{Origin: mathutil.Vec3{0, 0, 10}, Dir: mathutil.Vec3{0, 0, -1}}
	t.Run("should hit a box in front of the ray", func(t *testing.T) {
		d, ok := Intersect(down, mathutil.Identity(), unit)
		assert.True(t, ok)
		assert.InDelta(t, 9.95, d, 1e-4)
	})
	t.Run("should miss a box off to the side", func(t *testing.T) {
		_, ok := Intersect(down, mathutil.Translate(mathutil.Vec3{3, 0, 0}), unit)
		assert.False(t, ok)
	})
	t.Run("should miss a box behind the ray", func(t *testing.T) {
		_, ok := Intersect(down, mathutil.Translate(mathutil.Vec3{0, 0, 20}), unit)
		assert.False(t, ok)
	})
	t.Run("should account for scale and rotation", func(t *testing.T) {
		// edge-on thin box, scaled up so the edge still covers the ray
		m := mathutil.Compose(mathutil.Vec3{1.5, 0, 0}, mathutil.Vec3{0, 1.5707964, 0}, 4)
		_, ok := Intersect(down, m, unit)
		assert.False(t, ok)
		m = mathutil.Compose(mathutil.Vec3{1.5, 0, 0}, mathutil.Vec3{}, 4)
		_, ok = Intersect(down, m, unit)
		assert.True(t, ok)
	})
	t.Run("should hit from inside", func(t *testing.T) {
		d, ok := Intersect(Ray{Dir: mathutil.Vec3{1, 0, 0}}, mathutil.Identity(), unit)
		assert.True(t, ok)
		assert.Zero(t, d)
	})
	t.Run("should reject singular models", func(t *testing.T) {
		_, ok := Intersect(down, mathutil.ScaleMat(mathutil.Vec3{}), unit)
		assert.False(t, ok)
	})
}

func TestNearest(t *testing.T) {
	r := Ray{Origin: mathutil.Vec3{0, 0, 10}, Dir: mathutil.Vec3{0, 0, -1}}
	targets := []Target{
		{ID: 1, Model: mathutil.Translate(mathutil.Vec3{0, 0, -5}), Half: unit},
		{ID: 2, Model: mathutil.Translate(mathutil.Vec3{0, 0, 3}), Half: unit},
		{ID: 3, Model: mathutil.Translate(mathutil.Vec3{5, 0, 8}), Half: unit},
	}
	id, ok := Nearest(r, targets)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), id)

	_, ok = Nearest(Ray{Origin: mathutil.Vec3{0, 50, 10}, Dir: mathutil.Vec3{0, 0, -1}}, targets)
	assert.False(t, ok)
}
