// Package scene ties the shared mode state, the particle collection and the
// upload queue to the raylib camera and draw calls. All methods run on the
// render goroutine unless noted.
package scene

import (
	"log/slog"
	"sync"
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"

	"particle-tree/internal/mathutil"
	"particle-tree/internal/mode"
	"particle-tree/internal/ornament"
	"particle-tree/internal/particle"
	"particle-tree/internal/picking"
	"particle-tree/internal/primitives"
	"particle-tree/internal/rig"
	"particle-tree/internal/treegen"
	"particle-tree/internal/upload"
)

const (
	cameraDistance = 50
	cameraHeight   = 2
	cameraFovy     = 45
	// WarmUp is the delay between construction and the ready signal, seconds.
	WarmUp = 1.5
	// maxFrameTime caps dt so a stalled frame does not teleport entities.
	maxFrameTime = 0.1
	// minDrawScale skips entities too small to see (dust at start-up).
	minDrawScale = 1e-3
)

var lightDir = mathutil.Vec3{0.4, 1, 0.6}

// Stats is a snapshot for the HUD.
type Stats struct {
	Entities int
	Photos   int
	Ready    bool
}

// Scene holds the camera, the particle group and the GPU resources of
// uploaded photos.
type Scene struct {
	Camera rl.Camera3D
	// InputBlocked, if set and true, suppresses pointer clicks (e.g. while
	// the terminal has focus).
	InputBlocked func() bool

	log      *slog.Logger
	state    *mode.State
	pipeline *upload.Pipeline
	builder  *treegen.Builder
	coll     *particle.Collection
	prims    *primitives.Registry
	rig      rig.Rig
	group    mathutil.Mat4

	textures map[uint64]rl.Texture2D
	nextTex  uint64

	elapsed   float32
	ready     chan struct{}
	readyOnce sync.Once
	photos    atomic.Pointer[[]uint64]
}

// New builds the initial tree. GPU resources are created lazily, so New may
// run before the window exists; Update and Draw may not.
func New(state *mode.State, pipeline *upload.Pipeline, opts treegen.Options, styles ornament.Table, log *slog.Logger) *Scene {
	if log == nil {
		log = slog.Default()
	}
	s := &Scene{
		log:      log,
		state:    state,
		pipeline: pipeline,
		builder:  treegen.New(opts, styles),
		coll:     particle.NewCollection(),
		prims:    primitives.NewRegistry(),
		group:    mathutil.Identity(),
		textures: make(map[uint64]rl.Texture2D),
		ready:    make(chan struct{}),
	}
	s.Camera.Position = rl.NewVector3(0, cameraHeight, cameraDistance)
	s.Camera.Target = rl.NewVector3(0, 0, 0)
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = cameraFovy
	s.Camera.Projection = rl.CameraPerspective

	s.builder.Generate(s.coll)
	s.publishPhotos()
	o := s.builder.Options()
	log.Info("tree built", "entities", s.coll.Len(), "ornaments", o.Ornaments, "dust", o.Dust, "seed", o.Seed)
	return s
}

// Ready is closed once, WarmUp seconds after the first update.
func (s *Scene) Ready() <-chan struct{} {
	return s.ready
}

// PhotoIDs returns the current photo entity IDs. Safe for any goroutine.
func (s *Scene) PhotoIDs() []uint64 {
	if p := s.photos.Load(); p != nil {
		return *p
	}
	return nil
}

// Stats returns counts for the HUD.
func (s *Scene) Stats() Stats {
	ready := false
	select {
	case <-s.ready:
		ready = true
	default:
	}
	return Stats{Entities: s.coll.Len(), Photos: len(s.PhotoIDs()), Ready: ready}
}

func (s *Scene) publishPhotos() {
	ids := s.coll.Photos()
	s.photos.Store(&ids)
}

func (s *Scene) camera() mathutil.Vec3 {
	p := s.Camera.Position
	return mathutil.Vec3{p.X, p.Y, p.Z}
}

// Update advances one frame: new photos, pointer input, group rotation and
// every entity.
func (s *Scene) Update() {
	dt := min(rl.GetFrameTime(), maxFrameTime)
	s.elapsed += dt
	if s.elapsed >= WarmUp {
		s.readyOnce.Do(func() {
			close(s.ready)
			s.log.Info("scene ready")
		})
	}

	// Appends happen here, outside the entity pass below.
	s.addPhotos(s.pipeline.Drain())

	blocked := s.InputBlocked != nil && s.InputBlocked()
	mouse := rl.GetMousePosition()
	pointer := rig.PointerFromScreen(mouse.X, mouse.Y, float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
	if !blocked && rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		s.click(mouse)
	}

	snap := s.state.Snapshot()
	s.rig.Step(dt, snap.Mode, snap.Hand, pointer)
	s.group = s.rig.Matrix()
	s.coll.Update(dt, s.elapsed, particle.Frame{
		Mode:     snap.Mode,
		FocusID:  snap.FocusID,
		HasFocus: snap.HasFocus,
		Group:    s.group,
		Camera:   s.camera(),
	})
}

func (s *Scene) addPhotos(photos []upload.Photo) {
	if len(photos) == 0 {
		return
	}
	for _, p := range photos {
		img := rl.NewImageFromImage(p.Image)
		tex := rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		if !rl.IsTextureValid(tex) {
			s.log.Warn("photo texture upload failed", "name", p.Name)
			continue
		}
		rl.SetTextureFilter(tex, rl.FilterBilinear)
		s.nextTex++
		s.textures[s.nextTex] = tex
		e := s.builder.AddPhoto(s.coll, s.nextTex, p.Aspect())
		s.log.Info("photo added", "name", p.Name, "id", e.ID)
	}
	s.publishPhotos()
}

func (s *Scene) click(mouse rl.Vector2) {
	r := rl.GetScreenToWorldRay(mouse, s.Camera)
	ray := picking.Ray{
		Origin: mathutil.Vec3{r.Position.X, r.Position.Y, r.Position.Z},
		Dir:    mathutil.Vec3{r.Direction.X, r.Direction.Y, r.Direction.Z},
	}
	var targets []picking.Target
	for _, id := range s.PhotoIDs() {
		e, ok := s.coll.ByID(id)
		if !ok {
			continue
		}
		targets = append(targets, picking.Target{
			ID:    id,
			Model: e.Model(s.group),
			Half:  ornament.FrameHalfExtents(e.Handle.Aspect),
		})
	}
	id, hit := picking.Nearest(ray, targets)
	m := s.state.Click(id, hit)
	s.log.Debug("click", "hit", hit, "id", id, "mode", m)
}

// Draw renders the particle group. Call after ClearBackground and before the
// 2D overlay.
func (s *Scene) Draw() {
	rl.BeginMode3D(s.Camera)
	s.prims.SetView(s.camera(), lightDir)
	for _, e := range s.coll.All() {
		if e.Pose.Scale < minDrawScale {
			continue
		}
		model := e.Model(s.group)
		if e.Kind == particle.KindPhoto {
			s.prims.DrawPhoto(model, e.Handle.Aspect, e.Handle.Color, s.textures[e.Handle.Texture])
			continue
		}
		s.prims.Draw(e.Handle.Mesh, model, e.Handle.Color)
	}
	rl.EndMode3D()
}

// Close releases textures and meshes. Call before the window closes.
func (s *Scene) Close() {
	for id, tex := range s.textures {
		rl.UnloadTexture(tex)
		delete(s.textures, id)
	}
	s.prims.Unload()
}
