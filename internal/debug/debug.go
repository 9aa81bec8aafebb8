package debug

import (
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"

	"particle-tree/internal/mode"
)

const (
	fpsFontSize   = 20
	fpsPadding    = 12
	fpsLineHeight = fpsFontSize + 4
	// updateInterval: only refresh FPS/Mem text every N frames to reduce allocations.
	updateInterval = 30
)

var hudColor = rl.NewColor(245, 230, 200, 230)

// HUDInfo is what the heads-up display shows.
type HUDInfo struct {
	State    mode.Snapshot
	Entities int
	Photos   int
	Ready    bool
	Tracker  string
}

// Lines formats the HUD, one entry per line.
func (h HUDInfo) Lines() []string {
	lines := make([]string, 0, 4)
	m := h.State.Mode.String()
	if h.State.HasFocus {
		m = fmt.Sprintf("%s #%d", m, h.State.FocusID)
	}
	lines = append(lines, "mode: "+m)
	hand := "none"
	if h.State.Hand.Detected {
		hand = fmt.Sprintf("%+.2f %+.2f", h.State.Hand.X, h.State.Hand.Y)
	}
	lines = append(lines, "hand: "+hand+"  tracker: "+h.Tracker)
	lines = append(lines, fmt.Sprintf("photos: %d  particles: %s", h.Photos, humanize.Comma(int64(h.Entities))))
	if !h.Ready {
		lines = append(lines, "warming up...")
	}
	return lines
}

// Debug holds runtime overlays (FPS, memory, HUD). FPS and memory are off by default.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowHUD      bool
	// HUD supplies the HUD content each frame it is drawn.
	HUD func() HUDInfo

	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastMemStats runtime.MemStats
}

// New returns a Debug system with all overlays hidden.
func New() *Debug {
	return &Debug{}
}

// Draw renders any enabled overlays. Call after scene and terminal in the draw loop.
// FPS and memory are drawn top-right in green; the HUD top-left.
// FPS/memory text is only recomputed every updateInterval frames to limit allocations.
func (d *Debug) Draw() {
	d.frameCount++
	update := (d.frameCount % updateInterval) == 0
	if d.ShowFPS && d.lastFpsText == "" {
		update = true
	}
	if d.ShowMemAlloc && d.lastMemText == "" {
		update = true
	}

	screenW := int32(rl.GetScreenWidth())
	y := int32(fpsPadding)

	if d.ShowFPS {
		if update {
			d.lastFpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
		}
		drawRight(d.lastFpsText, screenW, y)
		y += fpsLineHeight
	}

	if d.ShowMemAlloc {
		if update {
			runtime.ReadMemStats(&d.lastMemStats)
			d.lastMemText = "Mem: " + humanize.IBytes(d.lastMemStats.Alloc)
		}
		drawRight(d.lastMemText, screenW, y)
	}

	if d.ShowHUD && d.HUD != nil {
		for i, line := range d.HUD().Lines() {
			rl.DrawText(line, fpsPadding, int32(fpsPadding+i*fpsLineHeight), fpsFontSize, hudColor)
		}
	}
}

func drawRight(text string, screenW, y int32) {
	if text == "" {
		return
	}
	w := rl.MeasureText(text, fpsFontSize)
	rl.DrawText(text, screenW-w-fpsPadding, y, fpsFontSize, rl.Green)
}
