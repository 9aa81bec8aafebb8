package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"particle-tree/internal/commands"
	"particle-tree/internal/debug"
	"particle-tree/internal/download"
	"particle-tree/internal/engineconfig"
	"particle-tree/internal/logger"
	"particle-tree/internal/mode"
	"particle-tree/internal/scene"
	"particle-tree/internal/snapshot"
	"particle-tree/internal/upload"
)

// app carries what the terminal commands act on. Commands run on the render goroutine.
type app struct {
	ctx      context.Context
	prefs    *engineconfig.Prefs
	lg       *logger.Logger
	state    *mode.State
	pipeline *upload.Pipeline
	scene    *scene.Scene
	debug    *debug.Debug
	shots    *shotQueue
	watching bool
}

func (a *app) register(reg *commands.Registry) {
	modeFS := commands.NewFlagSet("mode")
	reg.Register("mode", "mode tree|scatter|focus", modeFS, func() error {
		if modeFS.NArg() != 1 {
			return fmt.Errorf("usage: mode tree|scatter|focus")
		}
		m, ok := mode.Parse(modeFS.Arg(0))
		if !ok {
			return fmt.Errorf("unknown mode %q", modeFS.Arg(0))
		}
		if m == mode.Focus {
			if ids := a.scene.PhotoIDs(); len(ids) > 0 {
				a.state.Focus(ids[rand.IntN(len(ids))])
				return nil
			}
		}
		a.state.SetMode(m)
		return nil
	})

	uploadFS := commands.NewFlagSet("upload")
	reg.Register("upload", "upload <file-or-dir...>", uploadFS, func() error {
		if uploadFS.NArg() == 0 {
			return fmt.Errorf("usage: upload <file-or-dir...>")
		}
		var paths []string
		for _, p := range uploadFS.Args() {
			if fi, err := os.Stat(p); err == nil && fi.IsDir() {
				found, err := upload.ScanDir(p)
				if err != nil {
					return err
				}
				paths = append(paths, found...)
				continue
			}
			paths = append(paths, p)
		}
		a.pipeline.Submit(a.ctx, paths...)
		a.lg.Log(fmt.Sprintf("decoding %d file(s)", len(paths)))
		return nil
	})

	fetchFS := commands.NewFlagSet("fetch")
	reg.Register("fetch", "fetch <url>", fetchFS, func() error {
		if fetchFS.NArg() != 1 {
			return fmt.Errorf("usage: fetch <url>")
		}
		url, dir := fetchFS.Arg(0), a.prefs.UploadDir
		go func() {
			path, err := download.Download(a.ctx, url, dir)
			if err != nil {
				a.lg.Log("fetch failed: " + err.Error())
				return
			}
			a.lg.Log("saved " + path)
			if !a.watching {
				a.pipeline.Submit(a.ctx, path)
			}
		}()
		return nil
	})

	reg.Toggle("fps", func(show bool) error {
		a.debug.ShowFPS, a.prefs.ShowFPS = show, show
		return a.save()
	})
	reg.Toggle("memalloc", func(show bool) error {
		a.debug.ShowMemAlloc, a.prefs.ShowMemAlloc = show, show
		return a.save()
	})
	reg.Toggle("hud", func(show bool) error {
		a.debug.ShowHUD, a.prefs.ShowHUD = show, show
		return a.save()
	})

	shotFS := commands.NewFlagSet("shot")
	reg.Register("shot", "shot [path.webp]", shotFS, func() error {
		path := snapshot.DefaultPath(snapshot.DefaultDir, time.Now())
		if shotFS.NArg() > 0 {
			path = shotFS.Arg(0)
		}
		a.shots.pending = path
		return nil
	})

	reg.Register("help", "help", nil, func() error {
		a.lg.Log("commands: " + strings.Join(reg.Help(), ", "))
		return nil
	})
}

func (a *app) save() error {
	if err := engineconfig.Save(*a.prefs); err != nil {
		return fmt.Errorf("preferences not saved: %w", err)
	}
	return nil
}

// shotQueue grabs the frame after the scene pass, before the overlays.
type shotQueue struct {
	log     *logger.Logger
	pending string
}

func (q *shotQueue) capture() {
	if q.pending == "" {
		return
	}
	path := q.pending
	q.pending = ""
	img := rl.LoadImageFromScreen()
	frame := img.ToImage()
	rl.UnloadImage(img)
	go func() {
		if err := snapshot.Save(path, frame); err != nil {
			q.log.Log(err.Error())
			return
		}
		q.log.Log("saved " + path)
	}()
}
