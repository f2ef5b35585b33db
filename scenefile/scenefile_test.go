// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/effect"
	"github.com/gogpu/compose/render"
)

const quadScene = `
[canvas]
width = 4
height = 4
background = "#000000"

[[layer]]
id = 0
rect = [0, 0, 2, 2]
source = { kind = "solid", color = "#ff0000" }
effects = [{ name = "invert" }]

[[layer]]
id = 1
rect = [2, 0, 2, 2]
z = 1
mixer = "add"
source = { kind = "solid", color = "#0000ff" }
masks = [2]

[[layer]]
id = 2
exclude_from_blend = true
mixer = "add"
source = { kind = "solid", color = "#00ff00" }

[[global_effect]]
name = "transform"
matrix = [1, 0, 0, 0, 1, 0]
`

func decode(t *testing.T, src string) *Scene {
	t.Helper()
	s, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestDecode(t *testing.T) {
	s := decode(t, quadScene)
	if s.Canvas.Width != 4 || s.Canvas.Background != "#000000" {
		t.Errorf("canvas = %+v", s.Canvas)
	}
	if len(s.Layers) != 3 {
		t.Fatalf("layers = %d, want 3", len(s.Layers))
	}
	l := s.Layers[1]
	if l.Mixer != "add" || l.Z != 1 || len(l.Masks) != 1 || l.Source.Color != "#0000ff" {
		t.Errorf("layer 1 = %+v", l)
	}
	if !s.Layers[2].ExcludeFromBlend || len(s.Layers[2].Rect) != 0 {
		t.Errorf("layer 2 = %+v", s.Layers[2])
	}
	if s.Layers[0].Effects[0].Name() != "invert" {
		t.Errorf("effect = %v", s.Layers[0].Effects[0])
	}
	if len(s.GlobalEffects) != 1 || s.GlobalEffects[0].Name() != "transform" {
		t.Errorf("globals = %v", s.GlobalEffects)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDecodeSyntaxError(t *testing.T) {
	if _, err := Decode(strings.NewReader("[canvas\nwidth = 1")); err == nil {
		t.Error("Decode(broken) = nil error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Scene { return decode(t, quadScene) }
	tests := []struct {
		name   string
		mutate func(*Scene)
		want   string
		is     error
	}{
		{"canvas", func(s *Scene) { s.Canvas.Width = 0 }, "canvas 0x4", nil},
		{"background", func(s *Scene) { s.Canvas.Background = "black" }, "background", ErrInvalidColor},
		{"duplicate id", func(s *Scene) { s.Layers[1].ID = 0 }, "layer 0: duplicate id", nil},
		{"rect outside canvas", func(s *Scene) { s.Layers[0].Rect = []int{3, 3, 2, 2} }, "layer 0:", compose.ErrInvalidRect},
		{"rect arity", func(s *Scene) { s.Layers[0].Rect = []int{1, 2} }, "rect needs 4 values", nil},
		{"mixer", func(s *Scene) { s.Layers[1].Mixer = "glow" }, "layer 1:", compose.ErrUnknownMixer},
		{"source kind", func(s *Scene) { s.Layers[0].Source.Kind = "video" }, `unknown source kind "video"`, nil},
		{"no source", func(s *Scene) { s.Layers[0].Source = SourceSpec{} }, "layer 0:", compose.ErrNoSource},
		{"effect", func(s *Scene) { s.Layers[0].Effects[0]["name"] = "vignette" }, "layer 0: effect 0", effect.ErrUnknownEffect},
		{"effect param", func(s *Scene) { s.Layers[0].Effects[0]["radius"] = 2.0 }, "layer 0:", render.ErrUnknownParameter},
		{"missing mask", func(s *Scene) { s.Layers[1].Masks = []int{9} }, "mask 9", compose.ErrLayerNotFound},
		{"self mask", func(s *Scene) { s.Layers[1].Masks = []int{1} }, "layer 1: layer masks itself", nil},
		{"missing matte", func(s *Scene) { s.Layers[0].Matte = &MatteSpec{ID: 7} }, "matte 7", compose.ErrLayerNotFound},
		{"matrix arity", func(s *Scene) { s.GlobalEffects[0]["matrix"] = []any{1.0, 2.0} }, "global effect 0", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("Validate() = nil")
			}
			if !errors.Is(err, ErrInvalidScene) {
				t.Errorf("error %v does not wrap ErrInvalidScene", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error %v does not wrap %v", err, tt.is)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	s := decode(t, quadScene)
	s.Layers[0].Mixer = "glow"
	s.Layers[1].Masks = []int{9}
	err := s.Validate()
	for _, want := range []string{"layer 0:", "layer 1:"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, want mention of %q", err, want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff8000", color.NRGBA{255, 128, 0, 255}, false},
		{"#00000080", color.NRGBA{0, 0, 0, 128}, false},
		{" #FFFFFF ", color.NRGBA{255, 255, 255, 255}, false},
		{"ff8000", color.NRGBA{}, true},
		{"#fff", color.NRGBA{}, true},
		{"#gg0000", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestEffectSpecBuild(t *testing.T) {
	fx, err := EffectSpec{"name": "transform", "zoom": int64(2), "matrix": []any{int64(1), 0.0, 3.0, 0.0, 1.0, 0.0}}.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fx.(*effect.Transform); !ok {
		t.Fatalf("Build() = %T, want *effect.Transform", fx)
	}

	fx, err = EffectSpec{"name": "tint", "color": []any{1.0, 0.5, 0.0}}.Build()
	if err != nil {
		t.Fatal(err)
	}
	if fx.Node().Name() != "tint" {
		t.Errorf("name = %q", fx.Node().Name())
	}

	bad := []EffectSpec{
		{"name": "grayscale", "matrix": []any{1.0, 0.0, 0.0, 0.0, 1.0, 0.0}},
		{"name": "blur", "radius": "wide"},
		{"name": "tint", "color": []any{1.0, 1.0, 1.0, 1.0, 1.0}},
	}
	for _, e := range bad {
		if _, err := e.Build(); err == nil {
			t.Errorf("Build(%v) = nil error", e)
		}
	}
}

func canvasAt(t *testing.T, c *compose.Compositor, x, y int) color.RGBA {
	t.Helper()
	img, err := c.Backend().ReadTexture(c.Canvas().Texture())
	if err != nil {
		t.Fatal(err)
	}
	return img.RGBAAt(x, y)
}

func TestApply(t *testing.T) {
	s := decode(t, quadScene)
	c, b, err := NewCompositor(render.NewSoftwareBackend(), s, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Destroy)

	if got := len(c.Layers()); got != 3 {
		t.Fatalf("layers = %d, want 3", got)
	}
	l1 := c.Layer(1)
	if !l1.Mixer().IsSame(compose.MixerAdd) || len(l1.Masks()) != 1 || l1.Masks()[0] != c.Layer(2) {
		t.Errorf("layer 1 not wired: mixer %v, masks %v", l1.Mixer(), l1.Masks())
	}
	if len(c.GlobalEffects()) != 1 {
		t.Errorf("globals = %d, want 1", len(c.GlobalEffects()))
	}

	if err := c.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	if got := canvasAt(t, c, 0, 0); got != (color.RGBA{0, 255, 255, 255}) {
		t.Errorf("inverted red = %v, want cyan", got)
	}
	if got := canvasAt(t, c, 3, 1); got != (color.RGBA{0, 255, 255, 255}) {
		t.Errorf("blue masked by green = %v, want cyan", got)
	}
	if got := canvasAt(t, c, 1, 3); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("background = %v, want black", got)
	}

	// Unchanged sources survive a reapply; changed ones are rebuilt.
	src0, src1 := c.Layer(0).Source(), c.Layer(1).Source()
	s.Layers[1].Source.Color = "#ffffff"
	s.Layers[0].Effects = nil
	s.Layers = s.Layers[:2]
	s.Layers[1].Masks = nil
	s.Layers[0].Matte = &MatteSpec{ID: 1, Mixer: "alpha", StillBlend: true}
	if err := b.Apply(s); err != nil {
		t.Fatal(err)
	}
	if c.Layer(0).Source() != src0 {
		t.Error("unchanged source was rebuilt")
	}
	if c.Layer(1).Source() == src1 {
		t.Error("changed source was kept")
	}
	if c.Layer(2) != nil {
		t.Error("layer 2 not removed")
	}
	if l0 := c.Layer(0); l0.Matte() != 1 || !l0.MatteStillBlend() || !l0.MatteMixer().IsSame(compose.MixerAlphaMatte) {
		t.Errorf("matte = %d still=%v", l0.Matte(), l0.MatteStillBlend())
	}
	if len(c.Layer(0).Effects()) != 0 {
		t.Error("effects not replaced")
	}

	s.Layers[0].Matte = nil
	if err := b.Apply(s); err != nil {
		t.Fatal(err)
	}
	if c.Layer(0).HasMatte() {
		t.Error("matte not cleared")
	}
}

const maskedScene = `
[canvas]
width = 4
height = 4

[[layer]]
id = 0
rect = [0, 0, 2, 2]
source = { kind = "solid", color = "#ff0000" }
masks = [1]

[[layer]]
id = 1
source = { kind = "solid", color = "#00ff00" }
`

func TestApplyRemovingLayerKeepsItsMask(t *testing.T) {
	c, b, err := NewCompositor(render.NewSoftwareBackend(), decode(t, maskedScene), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Destroy)
	if err := c.RenderFrame(); err != nil {
		t.Fatal(err)
	}

	next := decode(t, maskedScene)
	next.Layers = next.Layers[1:]
	if err := b.Apply(next); err != nil {
		t.Fatal(err)
	}
	if err := c.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	if got := c.Stats().LayersComposited; got != 1 {
		t.Errorf("LayersComposited = %d, want 1", got)
	}
	if got := canvasAt(t, c, 3, 3); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("canvas(3,3) = %v, want green from layer 1", got)
	}
}

func TestApplyResizes(t *testing.T) {
	s := decode(t, quadScene)
	c, b, err := NewCompositor(render.NewSoftwareBackend(), s, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Destroy)

	s.Canvas.Width, s.Canvas.Height = 8, 8
	s.Canvas.Background = "#ffffff80"
	if err := b.Apply(s); err != nil {
		t.Fatal(err)
	}
	if c.CanvasWidth() != 8 || c.CanvasHeight() != 8 {
		t.Errorf("canvas = %dx%d, want 8x8", c.CanvasWidth(), c.CanvasHeight())
	}
	if got := c.BackgroundColor(); got != (color.RGBA{128, 128, 128, 128}) {
		t.Errorf("background = %v, want premultiplied half white", got)
	}
	if r := c.Layer(2).Rect(); r != compose.XYWH(0, 0, 8, 8) {
		t.Errorf("full-canvas layer rect = %v", r)
	}
}

func TestApplyRejectsInvalid(t *testing.T) {
	s := decode(t, quadScene)
	c, b, err := NewCompositor(render.NewSoftwareBackend(), s, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Destroy)

	s.Layers[0].Mixer = "glow"
	if err := b.Apply(s); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("Apply() = %v, want ErrInvalidScene", err)
	}
	if !c.Layer(0).Mixer().IsSame(compose.MixerNormal) {
		t.Error("invalid scene partly applied")
	}
}

func TestLoadImageScene(t *testing.T) {
	dir := t.TempDir()
	scene := `
[canvas]
width = 2
height = 2

[[layer]]
id = 0
source = { kind = "image", path = "missing.png", fit = "fill" }
`
	path := filepath.Join(dir, "scene.toml")
	if err := os.WriteFile(path, []byte(scene), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewCompositor(render.NewSoftwareBackend(), s, dir); err == nil {
		t.Error("NewCompositor with missing image = nil error")
	}
	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("Load(missing) = nil error")
	}
}

func TestWatch(t *testing.T) {
	old := DebounceInterval
	DebounceInterval = 10 * time.Millisecond
	t.Cleanup(func() { DebounceInterval = old })

	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	if err := os.WriteFile(path, []byte(quadScene), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Scene, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s *Scene, err error) {
			if err == nil {
				got <- s
			}
		})
	}()

	// Keep writing until the watcher is up and reports a reload.
	updated := strings.Replace(quadScene, "width = 4", "width = 6", 1)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case s := <-got:
			if s.Canvas.Width == 6 {
				break loop
			}
		case <-tick.C:
			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				t.Fatal(err)
			}
			// Unrelated files in the directory are ignored.
			if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
