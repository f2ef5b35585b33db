// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package source provides ready-made layer sources.
//
// Static sources (Image, Solid, Text) upload their pixels once and reuse
// the same frame buffer every frame until their content changes. Func
// redraws every frame. All sources keep one pooled buffer checked out
// between frames and return it on Release.
package source

import (
	"fmt"
	"image"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/framebuffer"
)

// upload owns the pooled buffer a source renders into.
type upload struct {
	fb   *framebuffer.FrameBuffer
	pool *framebuffer.Pool
}

// ensure returns a buffer of size w x h from the frame's pool. The
// returned flag reports whether the buffer is new and must be filled.
func (u *upload) ensure(ctx *compose.FrameContext, w, h int) (*framebuffer.FrameBuffer, bool, error) {
	if u.fb != nil && u.pool == ctx.Pool && u.fb.Width() == w && u.fb.Height() == h {
		return u.fb, false, nil
	}
	u.release()
	fb, err := ctx.Pool.Get(w, h)
	if err != nil {
		return nil, false, fmt.Errorf("source: %w", err)
	}
	u.fb, u.pool = fb, ctx.Pool
	compose.Logger().Debug("source: buffer acquired", "size", fb.Size())
	return fb, true, nil
}

// write uploads img, reallocating when its size changed.
func (u *upload) write(ctx *compose.FrameContext, img *image.RGBA) (*framebuffer.FrameBuffer, error) {
	fb, _, err := u.ensure(ctx, img.Rect.Dx(), img.Rect.Dy())
	if err != nil {
		return nil, err
	}
	if err := ctx.Backend.WriteTexture(fb.Texture(), img); err != nil {
		return nil, fmt.Errorf("source: upload: %w", err)
	}
	return fb, nil
}

func (u *upload) release() {
	if u.fb != nil {
		u.pool.Recycle(u.fb)
	}
	u.fb, u.pool = nil, nil
}
