package graphics

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrNoWindow is returned when the window or its GL context could not be created.
var ErrNoWindow = errors.New("graphics: window could not be created")

// Options configures the window.
type Options struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	TargetFPS  int
	Background rl.Color
	// Done, if set, ends the loop when closed (e.g. on SIGINT).
	Done <-chan struct{}
}

// DefaultOptions returns a 1280×800 window at 60 FPS on a deep green background.
func DefaultOptions() Options {
	return Options{
		Title:      "particle tree",
		Width:      1280,
		Height:     800,
		TargetFPS:  60,
		Background: rl.NewColor(4, 18, 12, 255),
	}
}

// Run starts the window and main loop. Each frame it calls update (e.g. input), then clears the screen and calls draw.
// Returns ErrNoWindow if there is no render surface; the caller treats that as fatal.
// ESC toggles the terminal, so the window is closed via its close button.
// onReady, if set, runs once after the window exists and before the first frame;
// onClose runs before the window is destroyed so GPU resources can be released.
func Run(opts Options, onReady func(), update, draw func(), onClose func()) error {
	flags := uint32(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	if opts.Fullscreen {
		flags |= rl.FlagFullscreenMode
	}
	rl.SetConfigFlags(flags)
	w, h := int32(opts.Width), int32(opts.Height)
	rl.InitWindow(w, h, opts.Title)
	if !rl.IsWindowReady() {
		return ErrNoWindow
	}
	defer rl.CloseWindow()
	if opts.Fullscreen {
		m := rl.GetCurrentMonitor()
		rl.SetWindowSize(rl.GetMonitorWidth(m), rl.GetMonitorHeight(m))
	}

	rl.SetExitKey(rl.KeyNull) // ESC is used to toggle terminal, not to quit; close via window button
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}
	if onReady != nil {
		onReady()
	}
	if onClose != nil {
		defer onClose()
	}

	for !rl.WindowShouldClose() && !closed(opts.Done) {
		update()

		rl.BeginDrawing()
		rl.ClearBackground(opts.Background)
		draw()
		rl.EndDrawing()
	}
	return nil
}

func closed(done <-chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
