package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"particle-tree/internal/commands"
	"particle-tree/internal/debug"
	"particle-tree/internal/engineconfig"
	"particle-tree/internal/env"
	"particle-tree/internal/gesture"
	"particle-tree/internal/graphics"
	"particle-tree/internal/logger"
	"particle-tree/internal/mode"
	"particle-tree/internal/ornament"
	"particle-tree/internal/scene"
	"particle-tree/internal/terminal"
	"particle-tree/internal/tracker"
	"particle-tree/internal/treegen"
	"particle-tree/internal/upload"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := env.Load(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "ignoring .env:", err)
	}
	prefs, err := engineconfig.Load()
	if err != nil {
		return err
	}
	lg := logger.New(logger.Options{Path: prefs.LogFile, Level: logger.ParseLevel(prefs.LogLevel)})
	defer lg.Close()
	log := lg.Slog()
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	state := mode.NewState(log.With("component", "mode"))
	pipeline := upload.NewPipeline(log.With("component", "upload"), upload.DefaultMaxEdge)
	pipeline.OnError = func(path string, err error) {
		lg.Log("upload failed: " + err.Error())
	}
	defer pipeline.Wait()
	defer cancel()

	opts := treegen.DefaultOptions()
	opts.Seed = prefs.Seed
	scn := scene.New(state, pipeline, opts, ornament.Default(), log.With("component", "scene"))

	watcher, err := upload.Watch(ctx, prefs.UploadDir, pipeline, log.With("component", "watcher"))
	if err != nil {
		log.Warn("drop folder not watched", "dir", prefs.UploadDir, "error", err)
		if paths, err := upload.ScanDir(prefs.UploadDir); err == nil {
			pipeline.Submit(ctx, paths...)
		}
	} else {
		defer watcher.Close()
	}
	// The watcher submits what is already in the drop folder; PhotoDir is a
	// one-off load.
	if prefs.PhotoDir != "" && prefs.PhotoDir != prefs.UploadDir {
		paths, err := upload.ScanDir(prefs.PhotoDir)
		if err != nil {
			log.Warn("photo folder unreadable", "dir", prefs.PhotoDir, "error", err)
		}
		pipeline.Submit(ctx, paths...)
	}

	trackerStatus := startTracker(ctx, prefs.TrackerAddr, state, scn, log.With("component", "tracker"))

	dbg := debug.New()
	dbg.ShowFPS, dbg.ShowMemAlloc, dbg.ShowHUD = prefs.ShowFPS, prefs.ShowMemAlloc, prefs.ShowHUD
	dbg.HUD = func() debug.HUDInfo {
		st := scn.Stats()
		return debug.HUDInfo{
			State:    state.Snapshot(),
			Entities: st.Entities,
			Photos:   st.Photos,
			Ready:    st.Ready,
			Tracker:  trackerStatus,
		}
	}

	reg := commands.NewRegistry()
	term := terminal.New(lg, reg)
	shots := &shotQueue{log: lg}
	cmds := &app{
		ctx:      ctx,
		prefs:    &prefs,
		lg:       lg,
		state:    state,
		pipeline: pipeline,
		scene:    scn,
		debug:    dbg,
		shots:    shots,
		watching: watcher != nil,
	}
	cmds.register(reg)
	scn.InputBlocked = term.IsOpen

	go func() {
		select {
		case <-scn.Ready():
			lg.Log("press ESC for the terminal, type help for commands")
		case <-ctx.Done():
		}
	}()

	gopts := graphics.DefaultOptions()
	gopts.Width, gopts.Height = prefs.Window.Width, prefs.Window.Height
	gopts.Fullscreen = prefs.Window.Fullscreen
	gopts.Done = ctx.Done()

	update := func() {
		term.Update()
		scn.Update()
	}
	draw := func() {
		scn.Draw()
		shots.capture()
		term.Draw()
		dbg.Draw()
	}
	if err := graphics.Run(gopts, nil, update, draw, scn.Close); err != nil {
		return err
	}
	log.Info("shutting down")
	return nil
}

// startTracker brings up the landmark server and the detector. Failure is
// logged and the scene stays pointer-only.
func startTracker(ctx context.Context, addr string, state *mode.State, scn *scene.Scene, log *slog.Logger) string {
	if addr == "" {
		log.Info("tracker disabled, pointer only")
		return "off"
	}
	srv := tracker.NewServer(addr, log)
	if err := srv.Start(ctx); err != nil {
		log.Error("tracker unavailable, pointer only", "error", err)
		return "unavailable"
	}
	cls := gesture.NewClassifier(gesture.DefaultThresholds(), nil)
	det := tracker.NewDetector(srv, state, cls, scn.PhotoIDs, log)
	go det.Run(ctx)
	return srv.Addr()
}
