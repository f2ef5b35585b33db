// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/render"
)

// FrameContext is what a Source sees while rendering a frame.
type FrameContext struct {
	// Pool allocates frame buffers. Buffers a source keeps across frames
	// stay checked out until Release.
	Pool *framebuffer.Pool

	// Backend uploads pixels and runs passes.
	Backend render.Backend

	// CanvasWidth and CanvasHeight are the compositor canvas size.
	CanvasWidth, CanvasHeight int

	// Frame is the index of the frame being built, starting at 0.
	Frame uint64
}

// Source produces the pixels of a layer.
//
// Render is called at most once per frame per layer. The returned buffer
// belongs to the source and must stay valid until the next Render or
// Release; the compositor only reads it.
type Source interface {
	// Render produces this frame's output.
	Render(ctx *FrameContext) (*framebuffer.FrameBuffer, error)

	// Output returns the last produced buffer, nil before the first Render.
	Output() *framebuffer.FrameBuffer

	// Release returns every buffer the source holds to its pool.
	Release()
}
