// Package particle holds the animatable scene entities: ornaments, dust and
// framed photos, each with a fixed tree layout and scatter layout.
package particle

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/mode"
)

// Kind tags the visual variant of an entity.
type Kind int

const (
	KindBauble Kind = iota
	KindGift
	KindCandy
	KindDust
	KindPhoto
)

func (k Kind) String() string {
	switch k {
	case KindBauble:
		return "bauble"
	case KindGift:
		return "gift"
	case KindCandy:
		return "candy"
	case KindDust:
		return "dust"
	case KindPhoto:
		return "photo"
	}
	return "unknown"
}

// ParseKind maps a style table name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k := KindBauble; k <= KindPhoto; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Handle points at the renderable resource of an entity. The entity does not
// own it: meshes belong to the primitives registry and photo textures to the
// scene's texture store, keyed by Texture.
type Handle struct {
	Mesh    string
	Color   [4]uint8
	Texture uint64
	Aspect  float32 // width/height, photos only
}

// Pose is the per-frame transform, relative to the parent group.
type Pose struct {
	Position mathutil.Vec3
	Rotation mathutil.Vec3 // YXZ euler
	Scale    float32
}

// Entity is one animatable particle.
type Entity struct {
	ID         uint64
	Kind       Kind
	IsDust     bool
	Handle     Handle
	TreePos    mathutil.Vec3
	ScatterPos mathutil.Vec3
	BaseScale  float32
	Spin       mathutil.Vec3
	Seed       float32 // random identity in [0,1); also the twinkle phase
	Pose       Pose
}

// Layout sizes the two resting layouts.
type Layout struct {
	Height         float32
	Radius         float32
	ScatterMin     float32
	ScatterMax     float32
	DustScatterMin float32
	DustScatterMax float32
}

// DefaultLayout returns the scene constants.
func DefaultLayout() Layout {
	return Layout{
		Height:         24,
		Radius:         8,
		ScatterMin:     10,
		ScatterMax:     25,
		DustScatterMin: 15,
		DustScatterMax: 40,
	}
}

const (
	minTreeRadius = 0.5
	treeTurns     = 50 * math32.Pi
	maxSpin       = 1
)

// New builds an entity and samples both layouts once. Ornaments and dust start
// on the tree; photos start in the cloud.
func New(id uint64, kind Kind, h Handle, baseScale float32, l Layout, rng *rand.Rand) *Entity {
	e := &Entity{
		ID:        id,
		Kind:      kind,
		IsDust:    kind == KindDust,
		Handle:    h,
		BaseScale: baseScale,
		Seed:      rng.Float32(),
	}
	e.initializeLayouts(l, rng)
	e.Spin = mathutil.Vec3{
		(rng.Float32()*2 - 1) * maxSpin,
		(rng.Float32()*2 - 1) * maxSpin,
		(rng.Float32()*2 - 1) * maxSpin,
	}
	e.Pose = Pose{Position: e.TreePos, Scale: baseScale}
	switch kind {
	case KindPhoto:
		e.Pose.Position = e.ScatterPos
	case KindDust:
		e.Pose.Scale = 0
	}
	return e
}

// NewPhoto builds a photo entity positioned at a freshly sampled scatter point.
func NewPhoto(id uint64, h Handle, baseScale float32, l Layout, rng *rand.Rand) *Entity {
	return New(id, KindPhoto, h, baseScale, l, rng)
}

func (e *Entity) initializeLayouts(l Layout, rng *rand.Rand) {
	e.TreePos = SampleTree(l.Height, l.Radius, rng)
	lo, hi := l.ScatterMin, l.ScatterMax
	if e.IsDust {
		lo, hi = l.DustScatterMin, l.DustScatterMax
	}
	e.ScatterPos = SampleScatter(lo, hi, rng)
}

// SampleTree returns a point on the spiral cone. t = U^0.8 biases toward the
// base; the radius shrinks linearly with height down to a floor and the angle
// winds faster near the top.
func SampleTree(height, radius float32, rng *rand.Rand) mathutil.Vec3 {
	t := math32.Pow(rng.Float32(), 0.8)
	y := t*height - height/2
	rMax := max(radius*(1-t), minTreeRadius)
	angle := t*treeTurns + rng.Float32()*2*math32.Pi
	r := rMax * (0.8 + rng.Float32()*0.4)
	s, c := math32.Sincos(angle)
	return mathutil.Vec3{c * r, y, s * r}
}

// SampleScatter returns a point uniformly distributed in direction on a shell
// with radius in [lo, hi].
func SampleScatter(lo, hi float32, rng *rand.Rand) mathutil.Vec3 {
	r := lo + rng.Float32()*(hi-lo)
	theta := rng.Float32() * 2 * math32.Pi
	phi := math32.Acos(2*rng.Float32() - 1)
	sp, cp := math32.Sincos(phi)
	st, ct := math32.Sincos(theta)
	return mathutil.Vec3{r * sp * ct, r * sp * st, r * cp}
}

// Frame is the shared per-frame input to Update.
type Frame struct {
	Mode     mode.Mode
	FocusID  uint64
	HasFocus bool
	// Group is the parent group's world transform.
	Group mathutil.Mat4
	// Camera is the camera position in world space.
	Camera mathutil.Vec3
}

// IsFocus reports whether e is the active focus target for f.
func (e *Entity) IsFocus(f Frame) bool {
	return f.Mode == mode.Focus && f.HasFocus && f.FocusID == e.ID
}

// Model returns the entity's world matrix under the given group transform.
func (e *Entity) Model(group mathutil.Mat4) mathutil.Mat4 {
	return group.Mul(mathutil.Compose(e.Pose.Position, e.Pose.Rotation, e.Pose.Scale))
}
