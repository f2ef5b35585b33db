// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framebuffer provides pooled, backend-owned image targets.
//
// A FrameBuffer is checked out from a Pool by exactly one consumer at a time.
// Each checkout is identified by a Handle; recycling the buffer invalidates
// the handle so a stale reference can never reach a buffer that was handed
// to someone else.
package framebuffer

import (
	"fmt"
	"image"

	"github.com/gogpu/compose/render"
	"github.com/gogpu/gputypes"
)

// Handle identifies one checkout of a pooled buffer.
// The zero Handle never resolves.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// String returns "index@generation".
func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.index, h.generation)
}

// FrameBuffer is a GPU-backed image target owned by a Pool.
type FrameBuffer struct {
	width, height int
	format        gputypes.TextureFormat
	tex           render.Texture
	handle        Handle
	pool          *Pool
}

// Width returns the buffer width in pixels.
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the buffer height in pixels.
func (fb *FrameBuffer) Height() int { return fb.height }

// Size returns the buffer dimensions.
func (fb *FrameBuffer) Size() image.Point { return image.Pt(fb.width, fb.height) }

// Bounds returns the buffer rectangle at the origin.
func (fb *FrameBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, fb.width, fb.height) }

// Format returns the pixel format.
func (fb *FrameBuffer) Format() gputypes.TextureFormat { return fb.format }

// Texture returns the backend texture behind the buffer.
func (fb *FrameBuffer) Texture() render.Texture { return fb.tex }

// Handle returns the handle of the current checkout.
// It is the zero Handle while the buffer is idle.
func (fb *FrameBuffer) Handle() Handle { return fb.handle }

// String returns a short description for logs.
func (fb *FrameBuffer) String() string {
	if fb == nil {
		return "<nil>"
	}
	return fmt.Sprintf("framebuffer(%dx%d %s)", fb.width, fb.height, fb.handle)
}
