// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command composite renders a layer scene.
//
// Without -scene it builds a sample scene of four quadrants and a centered
// overlay. Frames can be written to a PNG file, previewed in the terminal,
// or both:
//
//	composite -frames 1 -output frame.png
//	composite -scene scene.toml -term -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gdamore/tcell/v2"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/effect"
	"github.com/gogpu/compose/present/term"
	"github.com/gogpu/compose/render"
	"github.com/gogpu/compose/scenefile"
)

type config struct {
	scene   string
	width   int
	height  int
	frames  int
	fps     int
	output  string
	term    bool
	watch   bool
	verbose bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.scene, "scene", "", "TOML scene file (default: built-in sample scene)")
	flag.IntVar(&cfg.width, "width", 1920, "canvas width of the sample scene")
	flag.IntVar(&cfg.height, "height", 1080, "canvas height of the sample scene")
	flag.IntVar(&cfg.frames, "frames", 1, "frames to render, 0 to run until interrupted")
	flag.IntVar(&cfg.fps, "fps", 30, "frame rate when previewing")
	flag.StringVar(&cfg.output, "output", "composite.png", "PNG file for the last frame, empty to skip")
	flag.BoolVar(&cfg.term, "term", false, "preview frames in the terminal")
	flag.BoolVar(&cfg.watch, "watch", false, "reload -scene when it changes")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "composite:", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	if cfg.watch && cfg.scene == "" {
		return errors.New("-watch needs -scene")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		presenter *term.Presenter
		logOut    io.Writer = os.Stderr
	)
	if cfg.term {
		p, err := term.Open()
		if err != nil {
			return err
		}
		defer p.Close()
		presenter = p
		// The terminal belongs to the preview.
		logOut = io.Discard
		go pollQuit(ctx, p.Screen(), stop)
	}
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	compose.SetLogger(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))
	log := compose.Logger()

	var opts []render.SoftwareOption
	if presenter != nil {
		opts = append(opts, render.WithPresenter(presenter))
	}
	backend := render.NewSoftwareBackend(opts...)

	c, binding, camera, err := build(cfg, backend)
	if err != nil {
		backend.Destroy()
		return err
	}
	defer c.Destroy()

	scenes := make(chan *scenefile.Scene, 1)
	if cfg.watch {
		go func() {
			err := scenefile.Watch(ctx, cfg.scene, func(s *scenefile.Scene, err error) {
				if err != nil {
					return
				}
				offerLatest(scenes, s)
			})
			if err != nil && ctx.Err() == nil {
				log.Error("composite: watch stopped", "error", err)
			}
		}()
	}

	var tick <-chan time.Time
	if cfg.term || cfg.watch {
		t := time.NewTicker(time.Second / time.Duration(max(cfg.fps, 1)))
		defer t.Stop()
		tick = t.C
	}

	start := time.Now()
	for n := 0; cfg.frames == 0 || n < cfg.frames; n++ {
		if tick != nil && n > 0 {
			select {
			case <-ctx.Done():
				return finish(c, cfg.output, n, start)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return finish(c, cfg.output, n, start)
		}

		select {
		case s := <-scenes:
			if err := binding.Apply(s); err != nil {
				log.Warn("composite: scene not applied", "error", err)
			}
		default:
		}

		animate(camera, c.FrameIndex())
		if err := c.RenderFrame(); err != nil {
			return err
		}
	}
	return finish(c, cfg.output, cfg.frames, start)
}

// build creates the compositor from the scene file or the sample scene.
func build(cfg config, backend render.Backend) (*compose.Compositor, *scenefile.Binding, *effect.Transform, error) {
	if cfg.scene != "" {
		s, err := scenefile.Load(cfg.scene)
		if err != nil {
			return nil, nil, nil, err
		}
		c, b, err := scenefile.NewCompositor(backend, s, filepath.Dir(cfg.scene))
		if err != nil {
			return nil, nil, nil, err
		}
		return c, b, nil, nil
	}

	c, err := compose.New(backend, cfg.width, cfg.height,
		compose.WithBackgroundColor(color.RGBA{A: 255}))
	if err != nil {
		return nil, nil, nil, err
	}
	camera, err := sampleScene(c)
	if err != nil {
		c.Destroy()
		return nil, nil, nil, err
	}
	return c, nil, camera, nil
}

func finish(c *compose.Compositor, output string, frames int, start time.Time) error {
	elapsed := time.Since(start)
	compose.Logger().Info("composite: done",
		"frames", frames,
		"elapsed", elapsed.Round(time.Millisecond),
		"stats", fmt.Sprintf("%+v", c.Stats()),
		"pool", fmt.Sprintf("%+v", c.Pool().Stats()))

	if output == "" || c.Canvas() == nil {
		return nil
	}
	img, err := c.Backend().ReadTexture(c.Canvas().Texture())
	if err != nil {
		return err
	}
	if err := imaging.Save(img, output); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}
	compose.Logger().Info("composite: saved", "path", output, "size", img.Rect.Size())
	return nil
}

// pollQuit cancels on q, Escape or Ctrl-C in the terminal.
func pollQuit(ctx context.Context, screen tcell.Screen, cancel context.CancelFunc) {
	for ctx.Err() == nil {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				cancel()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

// offerLatest replaces any scene still waiting in ch with s. ch must have
// a buffer of one and a single sender.
func offerLatest(ch chan *scenefile.Scene, s *scenefile.Scene) {
	select {
	case <-ch:
	default:
	}
	ch <- s
}
