package particle

import (
	"math/rand/v2"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/mode"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func frame(m mode.Mode) Frame {
	return Frame{Mode: m, Group: mathutil.Identity(), Camera: mathutil.Vec3{0, 0, 50}}
}

func TestSampleTree(t *testing.T) {
	rng := newRand()
	const h, r = 24, 8
	for range 5000 {
		p := SampleTree(h, r, rng)
		assert.GreaterOrEqual(t, p[1], float32(-h/2))
		assert.LessOrEqual(t, p[1], float32(h/2))
		tt := (p[1] + h/2) / h
		bound := max(r*(1-tt), minTreeRadius) * 1.2
		radial := math32.Hypot(p[0], p[2])
		assert.LessOrEqual(t, radial, bound+1e-3)
		assert.LessOrEqual(t, radial, float32(r)*1.2+1e-3)
	}
}

func TestSampleTreeBiasesTowardBase(t *testing.T) {
	rng := newRand()
	var below int
	const n = 10000
	for range n {
		if SampleTree(24, 8, rng)[1] < 0 {
			below++
		}
	}
	// P(U^0.8 < 0.5) = 0.5^1.25 ≈ 0.42
	assert.InDelta(t, 0.42, float64(below)/n, 0.03)
}

func TestSampleScatter(t *testing.T) {
	t.Run("should stay on the configured shell", func(t *testing.T) {
		rng := newRand()
		for range 5000 {
			l := SampleScatter(10, 25, rng).Len()
			assert.GreaterOrEqual(t, l, float32(10)-1e-3)
			assert.LessOrEqual(t, l, float32(25)+1e-3)
		}
	})
	t.Run("should be uniform in direction", func(t *testing.T) {
		// For a uniform direction each axis component of the unit vector is
		// uniform on [-1,1]: check octant counts and the z histogram.
		rng := newRand()
		const n = 40000
		var octants [8]int
		var bins [4]int
		for range n {
			d := SampleScatter(10, 25, rng).Normalize()
			o := 0
			for i := range 3 {
				if d[i] > 0 {
					o |= 1 << i
				}
			}
			octants[o]++
			b := int((d[2] + 1) / 2 * 4)
			bins[min(b, 3)]++
		}
		for _, c := range octants {
			assert.InDelta(t, n/8, c, n/8*0.08)
		}
		for _, c := range bins {
			assert.InDelta(t, n/4, c, n/4*0.05)
		}
	})
}

func TestNew(t *testing.T) {
	rng := newRand()
	l := DefaultLayout()
	t.Run("should start ornaments on the tree", func(t *testing.T) {
		e := New(1, KindBauble, Handle{Mesh: "sphere"}, 0.4, l, rng)
		assert.Equal(t, e.TreePos, e.Pose.Position)
		assert.Equal(t, float32(0.4), e.Pose.Scale)
		assert.False(t, e.IsDust)
	})
	t.Run("should use the larger shell for dust", func(t *testing.T) {
		for range 200 {
			e := New(2, KindDust, Handle{}, 0.1, l, rng)
			assert.True(t, e.IsDust)
			assert.GreaterOrEqual(t, e.ScatterPos.Len(), l.DustScatterMin-1e-3)
			assert.LessOrEqual(t, e.ScatterPos.Len(), l.DustScatterMax+1e-3)
			assert.Zero(t, e.Pose.Scale)
		}
	})
	t.Run("should start photos in the cloud", func(t *testing.T) {
		e := NewPhoto(3, Handle{Texture: 9, Aspect: 1.5}, 1, l, rng)
		assert.Equal(t, KindPhoto, e.Kind)
		assert.Equal(t, e.ScatterPos, e.Pose.Position)
		l := e.ScatterPos.Len()
		assert.True(t, l >= 10-1e-3 && l <= 25+1e-3)
	})
}

func TestUpdateFixedPoint(t *testing.T) {
	rng := newRand()
	l := DefaultLayout()
	kinds := []Kind{KindBauble, KindGift, KindCandy, KindDust, KindPhoto}
	for _, m := range []mode.Mode{mode.Tree, mode.Scatter, mode.Focus} {
		for _, k := range kinds {
			e := New(5, k, Handle{}, 0.5, l, rng)
			f := frame(m)
			if m == mode.Focus {
				f.FocusID, f.HasFocus = 5, true
			}
			for range 20 {
				e.Update(1.0/60, 1, f)
			}
			pos, scale := e.Pose.Position, e.Pose.Scale
			for i := range 10 {
				e.Update(0, float32(i), f)
			}
			assert.Equal(t, pos, e.Pose.Position, "%s/%s", m, k)
			assert.Equal(t, scale, e.Pose.Scale, "%s/%s", m, k)
		}
	}
}

func settle(e *Entity, f Frame) {
	for range 600 {
		e.Update(1.0/30, 0, f)
	}
}

func TestUpdateTargets(t *testing.T) {
	l := DefaultLayout()
	t.Run("should converge to the tree layout in tree mode", func(t *testing.T) {
		e := New(1, KindGift, Handle{}, 0.5, l, newRand())
		e.Pose.Position = e.ScatterPos
		settle(e, frame(mode.Tree))
		assert.InDelta(t, 0, e.Pose.Position.Sub(e.TreePos).Len(), 1e-3)
		assert.InDelta(t, 0, e.Pose.Rotation[0], 1e-3)
		assert.InDelta(t, 0, e.Pose.Rotation[2], 1e-3)
	})
	t.Run("should converge to the scatter layout in scatter mode", func(t *testing.T) {
		e := New(1, KindGift, Handle{}, 0.5, l, newRand())
		settle(e, frame(mode.Scatter))
		assert.InDelta(t, 0, e.Pose.Position.Sub(e.ScatterPos).Len(), 1e-3)
	})
	t.Run("should hide dust in tree mode", func(t *testing.T) {
		e := New(1, KindDust, Handle{}, 0.2, l, newRand())
		e.Pose.Scale = 0.2
		settle(e, frame(mode.Tree))
		assert.InDelta(t, 0, e.Pose.Scale, 1e-4)
	})
	t.Run("should enlarge photos in scatter mode", func(t *testing.T) {
		e := NewPhoto(1, Handle{}, 1, l, newRand())
		settle(e, frame(mode.Scatter))
		assert.InDelta(t, photoScatterScale, e.Pose.Scale, 1e-3)
	})
	t.Run("should smooth scale changes", func(t *testing.T) {
		e := NewPhoto(1, Handle{}, 1, l, newRand())
		e.Update(1.0/60, 0, frame(mode.Scatter))
		assert.Greater(t, e.Pose.Scale, float32(1))
		assert.Less(t, e.Pose.Scale, float32(photoScatterScale))
	})
	t.Run("should spin in scatter mode", func(t *testing.T) {
		e := New(1, KindBauble, Handle{}, 0.5, l, newRand())
		e.Spin = mathutil.Vec3{0.5, 0.25, -0.5}
		e.Update(0.1, 0, frame(mode.Scatter))
		assert.InDelta(t, 0.05, e.Pose.Rotation[0], 1e-6)
		assert.InDelta(t, 0.025, e.Pose.Rotation[1], 1e-6)
		assert.InDelta(t, -0.05, e.Pose.Rotation[2], 1e-6)
	})
}

func TestUpdateFocus(t *testing.T) {
	l := DefaultLayout()
	t.Run("should match scatter except for the shrink without a focus target", func(t *testing.T) {
		for _, k := range []Kind{KindBauble, KindDust, KindPhoto} {
			a := New(1, k, Handle{}, 0.5, l, newRand())
			b := New(1, k, Handle{}, 0.5, l, newRand())
			require.Equal(t, a.Pose, b.Pose)
			var sa, sb float32
			for i := range 600 {
				el := float32(i) / 30
				a.Update(1.0/30, el, frame(mode.Scatter))
				b.Update(1.0/30, el, frame(mode.Focus))
				sa, sb = a.targetScale(el, frame(mode.Scatter), false), b.targetScale(el, frame(mode.Focus), false)
			}
			assert.Equal(t, a.Pose.Position, b.Pose.Position, k.String())
			assert.Equal(t, a.Pose.Rotation, b.Pose.Rotation, k.String())
			assert.InDelta(t, sa*focusShrink, sb, 1e-6, k.String())
		}
	})
	t.Run("should bring the focus target in front of the camera despite group rotation", func(t *testing.T) {
		e := NewPhoto(4, Handle{}, 1, l, newRand())
		group := mathutil.RotY(1.2).Mul(mathutil.RotX(0.3))
		f := Frame{Mode: mode.Focus, FocusID: 4, HasFocus: true, Group: group, Camera: mathutil.Vec3{0, 2, 50}}
		settle(e, f)
		world := group.MulPoint(e.Pose.Position)
		want := FocusPoint(f.Camera)
		assert.InDelta(t, 0, world.Sub(want).Len(), 1e-2)
		assert.InDelta(t, focusScale, e.Pose.Scale, 1e-3)
	})
	t.Run("should face the camera", func(t *testing.T) {
		e := NewPhoto(4, Handle{}, 1, l, newRand())
		group := mathutil.RotY(-0.7)
		f := Frame{Mode: mode.Focus, FocusID: 4, HasFocus: true, Group: group, Camera: mathutil.Vec3{0, 0, 50}}
		for range 5 {
			e.Update(1.0/60, 0, f)
		}
		facing := e.Model(group).MulDir(mathutil.Vec3{0, 0, 1}).Normalize()
		toCamera := f.Camera.Sub(group.MulPoint(e.Pose.Position)).Normalize()
		assert.InDelta(t, 1, facing.Dot(toCamera), 1e-3)
	})
	t.Run("should move faster when focused", func(t *testing.T) {
		focused := NewPhoto(4, Handle{}, 1, l, newRand())
		other := NewPhoto(5, Handle{}, 1, l, newRand())
		f := Frame{Mode: mode.Focus, FocusID: 4, HasFocus: true, Group: mathutil.Identity(), Camera: mathutil.Vec3{0, 0, 50}}
		assert.Greater(t, mathutil.DampFactor(focusPositionRate, 0.1), mathutil.DampFactor(positionRate, 0.1))
		focused.Update(0.1, 0, f)
		other.Update(0.1, 0, f)
		assert.InDelta(t, 0, other.Pose.Position.Sub(other.ScatterPos).Len(), 1e-4)
		assert.Greater(t, focused.Pose.Position.Sub(focused.ScatterPos).Len(), float32(0))
		assert.Less(t, other.Pose.Scale, mathutil.Damp(1, photoScatterScale, scaleRate, 0.1))
	})
}

func TestCollection(t *testing.T) {
	rng := newRand()
	l := DefaultLayout()
	c := NewCollection()
	c.Append(New(c.NextID(), KindBauble, Handle{}, 0.5, l, rng))
	c.Append(NewPhoto(c.NextID(), Handle{}, 1, l, rng))
	c.Append(New(c.NextID(), KindDust, Handle{}, 0.1, l, rng))
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []uint64{2}, c.Photos())
	e, ok := c.ByID(2)
	require.True(t, ok)
	assert.Equal(t, KindPhoto, e.Kind)
	_, ok = c.ByID(99)
	assert.False(t, ok)
	assert.Equal(t, uint64(4), c.NextID())
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("candy")
	assert.True(t, ok)
	assert.Equal(t, KindCandy, k)
	_, ok = ParseKind("star")
	assert.False(t, ok)
}
