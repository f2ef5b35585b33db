// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenefile describes compositor scenes in TOML.
//
// A scene file lists the canvas, the layers with their sources, effects,
// masks and mattes, and the global effects:
//
//	[canvas]
//	width = 1920
//	height = 1080
//	background = "#000000"
//
//	[[layer]]
//	id = 0
//	rect = [0, 0, 960, 540]
//	mixer = "normal"
//	source = { kind = "image", path = "spring.jpg", fit = "fill" }
//	effects = [{ name = "grayscale" }, { name = "blur", radius = 2.0 }]
//	masks = [2]
//	matte = { id = 3, mixer = "alpha", still_blend = false }
//
//	[[global_effect]]
//	name = "transform"
//	zoom = 1.1
//
// Load and Decode parse a file, Validate checks it, and a Binding applies
// it to a compose.Compositor. Watch reloads a file whenever it changes.
package scenefile

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/effect"
	"github.com/gogpu/compose/source"
)

var (
	// ErrInvalidScene wraps every validation failure.
	ErrInvalidScene = errors.New("scenefile: invalid scene")

	// ErrInvalidColor is returned for colors that are not #rrggbb or
	// #rrggbbaa.
	ErrInvalidColor = errors.New("scenefile: invalid color")
)

// Source kinds.
const (
	KindImage    = "image"
	KindSolid    = "solid"
	KindText     = "text"
	KindGradient = "gradient"
)

// Scene is a decoded scene file.
type Scene struct {
	Canvas        Canvas       `toml:"canvas"`
	Layers        []Layer      `toml:"layer"`
	GlobalEffects []EffectSpec `toml:"global_effect"`
}

// Canvas is the [canvas] table.
type Canvas struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// Layer is one [[layer]] table.
type Layer struct {
	ID int `toml:"id"`
	// Rect is x, y, width, height. Empty means the whole canvas.
	Rect    []int  `toml:"rect"`
	Z       int    `toml:"z"`
	Visible *bool  `toml:"visible"`
	Mixer   string `toml:"mixer"`
	// Strength is forwarded to the canvas mixer when set.
	Strength         *float64     `toml:"strength"`
	ExcludeFromBlend bool         `toml:"exclude_from_blend"`
	Source           SourceSpec   `toml:"source"`
	Effects          []EffectSpec `toml:"effects"`
	Masks            []int        `toml:"masks"`
	Matte            *MatteSpec   `toml:"matte"`
}

// SourceSpec selects and configures a layer source.
type SourceSpec struct {
	Kind string `toml:"kind"`

	// image
	Path string `toml:"path"`
	Fit  string `toml:"fit"`

	// solid and text
	Color string `toml:"color"`

	// text
	Text string  `toml:"text"`
	Size float64 `toml:"size"`

	// gradient
	From     string `toml:"from"`
	To       string `toml:"to"`
	Vertical bool   `toml:"vertical"`

	// Width and Height override the source size. Zero uses the layer rect.
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// MatteSpec is a layer's matte reference.
type MatteSpec struct {
	ID         int    `toml:"id"`
	Mixer      string `toml:"mixer"`
	StillBlend bool   `toml:"still_blend"`
}

// EffectSpec is an effect table: "name" plus parameters. Numbers become
// scalar parameters, arrays of up to four numbers become vectors. The
// transform effect also accepts "matrix", six numbers of an affine matrix.
type EffectSpec map[string]any

// Name returns the effect name.
func (e EffectSpec) Name() string {
	s, _ := e["name"].(string)
	return s
}

// Decode parses a scene from r. Unknown keys are logged, not rejected.
func Decode(r io.Reader) (*Scene, error) {
	var s Scene
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("scenefile: decode: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		compose.Logger().Warn("scenefile: unknown keys ignored", "keys", names)
	}
	return &s, nil
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the canvas, every layer and every global effect. All
// problems are reported together, each naming the offending layer.
func (s *Scene) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidScene}, args...)...))
	}

	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		fail("canvas %dx%d", s.Canvas.Width, s.Canvas.Height)
	}
	if s.Canvas.Background != "" {
		if _, err := ParseColor(s.Canvas.Background); err != nil {
			fail("canvas background: %w", err)
		}
	}

	ids := make(map[int]bool, len(s.Layers))
	for _, l := range s.Layers {
		if l.ID < 0 {
			fail("layer %d: negative id", l.ID)
		} else if ids[l.ID] {
			fail("layer %d: duplicate id", l.ID)
		}
		ids[l.ID] = true
	}

	for _, l := range s.Layers {
		for _, err := range l.validate(s.Canvas, ids) {
			fail("layer %d: %w", l.ID, err)
		}
	}
	for i, e := range s.GlobalEffects {
		if _, err := e.Build(); err != nil {
			fail("global effect %d: %w", i, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Layer) validate(c Canvas, ids map[int]bool) []error {
	var errs []error
	if _, err := l.ViewRect(c.Width, c.Height); err != nil {
		errs = append(errs, err)
	}
	if l.Mixer != "" {
		if _, err := compose.ParseMixerType(l.Mixer); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.Source.validate(); err != nil {
		errs = append(errs, err)
	}
	for i, e := range l.Effects {
		if _, err := e.Build(); err != nil {
			errs = append(errs, fmt.Errorf("effect %d: %w", i, err))
		}
	}
	for _, m := range l.Masks {
		switch {
		case m == l.ID:
			errs = append(errs, errors.New("layer masks itself"))
		case !ids[m]:
			errs = append(errs, fmt.Errorf("mask %d: %w", m, compose.ErrLayerNotFound))
		}
	}
	if l.Matte != nil {
		if !ids[l.Matte.ID] {
			errs = append(errs, fmt.Errorf("matte %d: %w", l.Matte.ID, compose.ErrLayerNotFound))
		}
		if _, err := l.Matte.MixerType(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ViewRect returns the layer rect validated against a canvas. An empty
// rect covers the whole canvas.
func (l *Layer) ViewRect(canvasWidth, canvasHeight int) (compose.Rect, error) {
	var r compose.Rect
	switch len(l.Rect) {
	case 0:
		r = compose.XYWH(0, 0, canvasWidth, canvasHeight)
	case 4:
		r = compose.XYWH(l.Rect[0], l.Rect[1], l.Rect[2], l.Rect[3])
	default:
		return r, fmt.Errorf("rect needs 4 values, got %d", len(l.Rect))
	}
	if err := r.Validate(canvasWidth, canvasHeight); err != nil {
		return r, err
	}
	return r, nil
}

// MixerType returns the matte mixer, alpha matte by default.
func (m *MatteSpec) MixerType() (compose.MixerType, error) {
	if m.Mixer == "" {
		return compose.MixerAlphaMatte, nil
	}
	return compose.ParseMixerType(m.Mixer)
}

func (s SourceSpec) validate() error {
	switch s.Kind {
	case KindImage:
		if s.Path == "" {
			return errors.New("image source without path")
		}
		if _, err := source.ParseFit(s.Fit); err != nil {
			return err
		}
	case KindSolid:
		if _, err := ParseColor(s.Color); err != nil {
			return err
		}
	case KindText:
		if s.Color != "" {
			if _, err := ParseColor(s.Color); err != nil {
				return err
			}
		}
	case KindGradient:
		for _, c := range []string{s.From, s.To} {
			if _, err := ParseColor(c); err != nil {
				return err
			}
		}
	case "":
		return compose.ErrNoSource
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("source size %dx%d", s.Width, s.Height)
	}
	return nil
}

// Build creates the effect. Parameters are applied through the effect's
// node, so unknown names fail the same way as at runtime.
func (e EffectSpec) Build() (compose.Effect, error) {
	name := e.Name()
	params := make(effect.Params, len(e))
	var matrix []float64
	for k, v := range e {
		switch k {
		case "name":
			continue
		case "matrix":
			m, err := numbers(v)
			if err != nil || len(m) != 6 {
				return nil, fmt.Errorf("effect %s: matrix needs 6 numbers", name)
			}
			matrix = m
			continue
		}
		n, err := numbers(v)
		if err != nil || len(n) == 0 || len(n) > 4 {
			return nil, fmt.Errorf("effect %s: parameter %q: want 1 to 4 numbers", name, k)
		}
		var p [4]float32
		for i, f := range n {
			p[i] = float32(f)
		}
		params[k] = p
	}

	fx, err := effect.New(name, params)
	if err != nil {
		return nil, err
	}
	if matrix != nil {
		t, ok := fx.(*effect.Transform)
		if !ok {
			return nil, fmt.Errorf("effect %s: matrix is only accepted by transform", name)
		}
		t.SetMatrix([6]float64(matrix))
	}
	return fx, nil
}

func numbers(v any) ([]float64, error) {
	switch v := v.(type) {
	case int64:
		return []float64{float64(v)}, nil
	case float64:
		return []float64{v}, nil
	case []any:
		out := make([]float64, 0, len(v))
		for _, x := range v {
			n, err := numbers(x)
			if err != nil || len(n) != 1 {
				return nil, fmt.Errorf("not a number: %v", x)
			}
			out = append(out, n[0])
		}
		return out, nil
	}
	return nil, fmt.Errorf("not a number: %v", v)
}

// ParseColor parses #rrggbb or #rrggbbaa into a straight-alpha color.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
