// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package source

import (
	"image"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/framebuffer"
)

// DrawFunc draws one frame into img, which is cleared to transparent
// before every call.
type DrawFunc func(img *image.RGBA, frame uint64)

// Func is a procedural source redrawn and uploaded every frame.
type Func struct {
	img *image.RGBA
	fn  DrawFunc
	up  upload
}

// NewFunc returns a w x h procedural source.
func NewFunc(w, h int, fn DrawFunc) *Func {
	return &Func{img: image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1))), fn: fn}
}

// Render clears the buffer, calls the draw function with the frame index
// and uploads the result. It runs every frame.
func (s *Func) Render(ctx *compose.FrameContext) (*framebuffer.FrameBuffer, error) {
	clear(s.img.Pix)
	if s.fn != nil {
		s.fn(s.img, ctx.Frame)
	}
	return s.up.write(ctx, s.img)
}

// Output returns the last uploaded buffer.
func (s *Func) Output() *framebuffer.FrameBuffer { return s.up.fb }

// Release returns the buffer to its pool.
func (s *Func) Release() { s.up.release() }
