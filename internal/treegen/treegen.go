// Package treegen builds the particle population: the initial tree of
// ornaments and dust, and photo entities added later.
package treegen

import (
	"math/rand/v2"
	"time"

	"particle-tree/internal/ornament"
	"particle-tree/internal/particle"
)

// Options controls scene construction. Zero fields take the defaults;
// Seed == 0 uses a time-based seed.
type Options struct {
	Ornaments int
	Dust      int
	Height    float32
	Radius    float32
	Seed      uint64
}

// DefaultOptions returns the scene constants.
func DefaultOptions() Options {
	return Options{
		Ornaments: 1500,
		Dust:      2500,
		Height:    24,
		Radius:    8,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Ornaments < 0 {
		o.Ornaments = 0
	} else if o.Ornaments == 0 {
		o.Ornaments = d.Ornaments
	}
	if o.Dust < 0 {
		o.Dust = 0
	} else if o.Dust == 0 {
		o.Dust = d.Dust
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Radius <= 0 {
		o.Radius = d.Radius
	}
	if o.Seed == 0 {
		o.Seed = uint64(time.Now().UnixNano())
	}
	return o
}

// Builder creates entities with a shared random source and layout.
// It is used from the render loop only.
type Builder struct {
	opts   Options
	layout particle.Layout
	styles ornament.Table
	rng    *rand.Rand
}

// New returns a Builder. Negative counts mean none.
func New(opts Options, styles ornament.Table) *Builder {
	opts = opts.normalized()
	l := particle.DefaultLayout()
	l.Height, l.Radius = opts.Height, opts.Radius
	return &Builder{
		opts:   opts,
		layout: l,
		styles: styles,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// Options returns the effective options.
func (b *Builder) Options() Options {
	return b.opts
}

// Layout returns the layout shared by all entities.
func (b *Builder) Layout() particle.Layout {
	return b.layout
}

// Generate appends the ornaments and dust of a fresh tree to c.
func (b *Builder) Generate(c *particle.Collection) {
	for range b.opts.Ornaments {
		s, ok := b.styles.PickOrnament(b.rng)
		if !ok {
			break
		}
		c.Append(particle.New(c.NextID(), s.EntityKind(), s.Handle(b.rng), s.Scale(b.rng), b.layout, b.rng))
	}
	dust, ok := b.styles.ForKind(particle.KindDust)
	if !ok {
		return
	}
	for range b.opts.Dust {
		c.Append(particle.New(c.NextID(), particle.KindDust, dust.Handle(b.rng), dust.Scale(b.rng), b.layout, b.rng))
	}
}

// AddPhoto appends one photo entity at a freshly sampled scatter point and
// returns it. texture is the scene's key for the uploaded image.
func (b *Builder) AddPhoto(c *particle.Collection, texture uint64, aspect float32) *particle.Entity {
	h := particle.Handle{Mesh: "frame", Color: [4]uint8{255, 255, 255, 255}, Texture: texture, Aspect: aspect}
	scale := float32(1.6)
	if s, ok := b.styles.ForKind(particle.KindPhoto); ok {
		sh := s.Handle(b.rng)
		h.Mesh, h.Color = sh.Mesh, sh.Color
		scale = s.Scale(b.rng)
	}
	e := particle.NewPhoto(c.NextID(), h, scale, b.layout, b.rng)
	c.Append(e)
	return e
}
