package ornament

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particle-tree/internal/particle"
)

func TestDefault(t *testing.T) {
	tbl := Default()
	for _, k := range []particle.Kind{particle.KindBauble, particle.KindGift, particle.KindCandy, particle.KindDust, particle.KindPhoto} {
		s, ok := tbl.ForKind(k)
		if assert.True(t, ok, k.String()) {
			assert.NotEmpty(t, s.Mesh)
			assert.LessOrEqual(t, s.ScaleMin, s.ScaleMax)
		}
	}
}

func TestParse(t *testing.T) {
	t.Run("should reject unknown kinds", func(t *testing.T) {
		_, err := Parse([]byte("styles:\n  - kind: star\n    mesh: cube\n"))
		assert.Error(t, err)
	})
	t.Run("should reject bad colors", func(t *testing.T) {
		_, err := Parse([]byte("styles:\n  - kind: gift\n    mesh: cube\n    colors: [\"#12\"]\n"))
		assert.Error(t, err)
	})
	t.Run("should default to white and swap an inverted range", func(t *testing.T) {
		tbl, err := Parse([]byte("styles:\n  - kind: gift\n    mesh: cube\n    weight: 1\n    scale_min: 2\n    scale_max: 1\n"))
		require.NoError(t, err)
		s, _ := tbl.ForKind(particle.KindGift)
		assert.Equal(t, float32(1), s.ScaleMin)
		assert.Equal(t, [4]uint8{255, 255, 255, 255}, s.Handle(rand.New(rand.NewPCG(1, 1))).Color)
	})
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#d4af37")
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{0xd4, 0xaf, 0x37, 0xff}, c)
	c, err = ParseHexColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{0x10, 0x20, 0x30, 0x40}, c)
	_, err = ParseHexColor("#zzzzzz")
	assert.Error(t, err)
}

func TestPickOrnament(t *testing.T) {
	tbl := Default()
	rng := rand.New(rand.NewPCG(3, 4))
	counts := map[particle.Kind]int{}
	const n = 10000
	for range n {
		s, ok := tbl.PickOrnament(rng)
		require.True(t, ok)
		counts[s.EntityKind()]++
	}
	assert.Zero(t, counts[particle.KindDust])
	assert.Zero(t, counts[particle.KindPhoto])
	// weights 5:3:2
	assert.InDelta(t, 0.5, float64(counts[particle.KindBauble])/n, 0.03)
	assert.InDelta(t, 0.3, float64(counts[particle.KindGift])/n, 0.03)
	assert.InDelta(t, 0.2, float64(counts[particle.KindCandy])/n, 0.03)
}

func TestFrameHalfExtents(t *testing.T) {
	h := FrameHalfExtents(2)
	assert.InDelta(t, 1+FrameBorder, h[0], 1e-6)
	assert.InDelta(t, 0.5+FrameBorder, h[1], 1e-6)
	assert.Equal(t, FrameHalfExtents(1), FrameHalfExtents(0))
}
