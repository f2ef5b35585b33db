// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/render"
	"github.com/gogpu/compose/source"
)

// Binding keeps a compositor in sync with successive scenes. Sources are
// rebuilt only when their description changes, so reapplying a scene with
// new effects or mixers keeps loaded images.
type Binding struct {
	comp    *compose.Compositor
	dir     string
	sources map[int]SourceSpec
}

// Bind returns a binding for c. Relative image paths resolve against dir.
func Bind(c *compose.Compositor, dir string) *Binding {
	return &Binding{comp: c, dir: dir, sources: make(map[int]SourceSpec)}
}

// NewCompositor creates a compositor sized for s over backend and applies
// s to it.
func NewCompositor(backend render.Backend, s *Scene, dir string, opts ...compose.Option) (*compose.Compositor, *Binding, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	c, err := compose.New(backend, s.Canvas.Width, s.Canvas.Height, opts...)
	if err != nil {
		return nil, nil, err
	}
	b := Bind(c, dir)
	if err := b.Apply(s); err != nil {
		c.Destroy()
		return nil, nil, err
	}
	return c, b, nil
}

// Compositor returns the bound compositor.
func (b *Binding) Compositor() *compose.Compositor { return b.comp }

// Apply reconciles the compositor with s: the canvas is resized, layers
// missing from s are removed and destroyed, new layers are added and every
// layer and the global effects are reconfigured. Apply must be called
// between frames.
func (b *Binding) Apply(s *Scene) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c := b.comp
	if err := c.Resize(s.Canvas.Width, s.Canvas.Height); err != nil {
		return fmt.Errorf("scenefile: %w", err)
	}
	var bg color.RGBA
	if s.Canvas.Background != "" {
		nc, _ := ParseColor(s.Canvas.Background)
		bg = color.RGBAModel.Convert(nc).(color.RGBA)
	}
	c.SetBackgroundColor(bg)

	keep := make(map[int]bool, len(s.Layers))
	for _, l := range s.Layers {
		keep[l.ID] = true
	}
	for _, l := range c.Layers() {
		if keep[l.ID()] {
			continue
		}
		old, err := c.RemoveLayer(l.ID())
		if err != nil {
			return fmt.Errorf("scenefile: %w", err)
		}
		old.Destroy()
		delete(b.sources, l.ID())
	}

	for i := range s.Layers {
		if err := b.applyLayer(&s.Layers[i]); err != nil {
			return fmt.Errorf("scenefile: layer %d: %w", s.Layers[i].ID, err)
		}
	}
	// Masks and mattes reference other layers, so they are wired once every
	// layer exists.
	for _, spec := range s.Layers {
		l := c.Layer(spec.ID)
		l.ClearMasks()
		for _, id := range spec.Masks {
			l.AddMask(c.Layer(id))
		}
		if spec.Matte == nil {
			l.SetMatte(compose.NoMatte, compose.MixerAlphaMatte, false)
			continue
		}
		t, _ := spec.Matte.MixerType()
		l.SetMatte(spec.Matte.ID, t, spec.Matte.StillBlend)
	}

	c.ClearGlobalEffects()
	for i, e := range s.GlobalEffects {
		fx, err := e.Build()
		if err != nil {
			return fmt.Errorf("scenefile: global effect %d: %w", i, err)
		}
		if err := c.AddGlobalEffect(fx); err != nil {
			return fmt.Errorf("scenefile: global effect %d: %w", i, err)
		}
	}

	compose.Logger().Info("scenefile: scene applied",
		"layers", len(s.Layers),
		"globals", len(s.GlobalEffects),
		"width", s.Canvas.Width,
		"height", s.Canvas.Height)
	return nil
}

func (b *Binding) applyLayer(spec *Layer) error {
	c := b.comp
	l := c.Layer(spec.ID)
	if l == nil {
		l = compose.NewLayer(spec.ID)
		if err := c.AddLayer(l); err != nil {
			return err
		}
	}

	r, err := spec.ViewRect(c.CanvasWidth(), c.CanvasHeight())
	if err != nil {
		return err
	}
	if err := l.SetRect(r); err != nil {
		return err
	}
	l.SetZOrder(spec.Z)
	l.SetVisible(spec.Visible == nil || *spec.Visible)
	l.SetExcludeFromBlend(spec.ExcludeFromBlend)

	mt := compose.MixerNormal
	if spec.Mixer != "" {
		if mt, err = compose.ParseMixerType(spec.Mixer); err != nil {
			return err
		}
	}
	l.SetMixer(mt)
	if spec.Strength != nil {
		if err := l.UpdateMixerValue("strength", [4]float32{float32(*spec.Strength)}); err != nil {
			return err
		}
	}

	if prev, ok := b.sources[spec.ID]; !ok || prev != spec.Source || l.Source() == nil {
		src, err := b.buildSource(spec.Source, r)
		if err != nil {
			return err
		}
		l.SetSource(src)
		b.sources[spec.ID] = spec.Source
	}

	effects := make([]compose.Effect, 0, len(spec.Effects))
	for i, e := range spec.Effects {
		fx, err := e.Build()
		if err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
		effects = append(effects, fx)
	}
	return l.SetEffects(effects...)
}

func (b *Binding) buildSource(s SourceSpec, r compose.Rect) (compose.Source, error) {
	w, h := s.Width, s.Height
	if w == 0 {
		w = r.Width
	}
	if h == 0 {
		h = r.Height
	}

	switch s.Kind {
	case KindImage:
		fit, err := source.ParseFit(s.Fit)
		if err != nil {
			return nil, err
		}
		path := s.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.dir, path)
		}
		return source.OpenFile(path, w, h, fit)

	case KindSolid:
		c, err := ParseColor(s.Color)
		if err != nil {
			return nil, err
		}
		src := source.NewSolid(c)
		src.SetSize(s.Width, s.Height)
		return src, nil

	case KindText:
		var fg color.Color = color.White
		if s.Color != "" {
			c, err := ParseColor(s.Color)
			if err != nil {
				return nil, err
			}
			fg = c
		}
		size := s.Size
		if size <= 0 {
			size = 32
		}
		return source.NewText(s.Text, size, fg)

	case KindGradient:
		from, err := ParseColor(s.From)
		if err != nil {
			return nil, err
		}
		to, err := ParseColor(s.To)
		if err != nil {
			return nil, err
		}
		return source.NewGradient(w, h, from, to, s.Vertical), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", s.Kind)
}
