// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"fmt"

	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/render"
)

// Execute runs every stage in order on backend. Temporaries are checked out
// of pool on first write and recycled after their last read; on error every
// temporary still held is recycled before returning.
func (p *Plan) Execute(backend render.Backend, pool *framebuffer.Pool) error {
	lastUse := make([]int, len(p.temps)+1)
	for i, s := range p.stages {
		for _, r := range []Ref{s.input, s.second, s.output} {
			if r.IsTemp() {
				lastUse[r.temp] = i
			}
		}
	}

	held := make([]*framebuffer.FrameBuffer, len(p.temps)+1)
	defer func() {
		for _, fb := range held {
			pool.Recycle(fb)
		}
	}()

	resolve := func(r Ref) *framebuffer.FrameBuffer {
		if r.IsTemp() {
			return held[r.temp]
		}
		return r.fb
	}

	for i, s := range p.stages {
		if t := s.output.temp; t > 0 && held[t] == nil {
			size := p.temps[t-1]
			fb, err := pool.Get(size.X, size.Y)
			if err != nil {
				return fmt.Errorf("graph: stage %d %q: %w", i, s.label, err)
			}
			held[t] = fb
		}

		pass := render.Pass{
			Kind:     s.kind.pass(),
			Label:    s.label,
			Program:  s.program,
			Input:    resolve(s.input).Texture(),
			Output:   resolve(s.output).Texture(),
			Viewport: s.viewport,
		}
		if s.kind == TwoInput {
			pass.Second = resolve(s.second).Texture()
		}
		if err := backend.Execute(pass); err != nil {
			return fmt.Errorf("graph: stage %d %q: %w", i, s.label, err)
		}

		for _, r := range []Ref{s.input, s.second, s.output} {
			if r.IsTemp() && lastUse[r.temp] == i && held[r.temp] != nil {
				pool.Recycle(held[r.temp])
				held[r.temp] = nil
			}
		}
	}
	return nil
}
