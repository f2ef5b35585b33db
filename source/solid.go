// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package source

import (
	"image/color"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/framebuffer"
)

// Solid is a single-color source. Its buffer is 1x1 unless a size is set;
// the compositor stretches it over the layer rect.
type Solid struct {
	c     color.RGBA
	w, h  int
	dirty bool
	up    upload
}

// NewSolid returns a 1x1 source of color c.
func NewSolid(c color.Color) *Solid {
	return &Solid{c: premultiplied(c), w: 1, h: 1, dirty: true}
}

// Color returns the premultiplied fill color.
func (s *Solid) Color() color.RGBA { return s.c }

// SetColor changes the fill color.
func (s *Solid) SetColor(c color.Color) {
	s.c = premultiplied(c)
	s.dirty = true
}

// SetSize sets the buffer size. Non-positive sizes are ignored.
func (s *Solid) SetSize(w, h int) {
	if w > 0 && h > 0 {
		s.w, s.h = w, h
	}
}

// Render clears a pooled buffer to the color when it is new or the color
// changed, and returns it.
func (s *Solid) Render(ctx *compose.FrameContext) (*framebuffer.FrameBuffer, error) {
	fb, fresh, err := s.up.ensure(ctx, s.w, s.h)
	if err != nil {
		return nil, err
	}
	if fresh || s.dirty {
		if err := ctx.Backend.Clear(fb.Texture(), s.c); err != nil {
			return nil, err
		}
		s.dirty = false
	}
	return fb, nil
}

// Output returns the filled buffer.
func (s *Solid) Output() *framebuffer.FrameBuffer { return s.up.fb }

// Release returns the buffer to its pool. The next Render fills a new one.
func (s *Solid) Release() { s.up.release() }

func premultiplied(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	return color.RGBAModel.Convert(c).(color.RGBA)
}
