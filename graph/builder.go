// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"fmt"
	"image"

	"github.com/gogpu/compose/render"
)

// Builder accumulates stages for a Plan. A Builder is used once.
type Builder struct {
	stages []Stage
	temps  []image.Point
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Temp declares a temporary buffer of the given size. It is checked out of
// the pool when first written and recycled after its last read.
func (b *Builder) Temp(width, height int) Ref {
	b.temps = append(b.temps, image.Pt(width, height))
	return Ref{temp: len(b.temps)}
}

// Single appends a single-input stage. A nil program stretches the input
// into the viewport unchanged.
func (b *Builder) Single(label string, p render.Program, in, out Ref, viewport image.Rectangle) *Builder {
	b.stages = append(b.stages, Stage{
		kind:     SingleInput,
		label:    label,
		program:  p,
		input:    in,
		output:   out,
		viewport: viewport,
	})
	return b
}

// Merge appends a two-input stage mixing second over primary.
func (b *Builder) Merge(label string, p render.BlendProgram, primary, second, out Ref, viewport image.Rectangle) *Builder {
	var prog render.Program
	if p != nil {
		prog = p
	}
	b.stages = append(b.stages, Stage{
		kind:     TwoInput,
		label:    label,
		program:  prog,
		input:    primary,
		second:   second,
		output:   out,
		viewport: viewport,
	})
	return b
}

// Len returns the number of stages added so far.
func (b *Builder) Len() int { return len(b.stages) }

// Build validates the stages and returns the plan.
func (b *Builder) Build() (*Plan, error) {
	written := make([]bool, len(b.temps)+1)
	for i, s := range b.stages {
		if err := b.check(s, written); err != nil {
			return nil, fmt.Errorf("stage %d %q: %w", i, s.label, err)
		}
		if s.output.IsTemp() {
			written[s.output.temp] = true
		}
	}
	p := &Plan{
		stages: make([]Stage, len(b.stages)),
		temps:  make([]image.Point, len(b.temps)),
	}
	copy(p.stages, b.stages)
	copy(p.temps, b.temps)
	return p, nil
}

func (b *Builder) check(s Stage, written []bool) error {
	if s.output.IsZero() {
		return ErrUnboundOutput
	}
	reads := []Ref{s.input}
	switch s.kind {
	case SingleInput:
		if _, ok := s.program.(render.BlendProgram); ok {
			return ErrWrongProgram
		}
	case TwoInput:
		if _, ok := s.program.(render.BlendProgram); !ok {
			return ErrWrongProgram
		}
		reads = append(reads, s.second)
	}
	for _, r := range reads {
		if r.IsZero() {
			return ErrUnboundInput
		}
		if r.IsTemp() && (r.temp >= len(written) || !written[r.temp]) {
			return fmt.Errorf("%w: %s", ErrUnwrittenTemp, r)
		}
	}
	if s.output.IsTemp() && s.output.temp >= len(written) {
		return fmt.Errorf("%w: %s", ErrUnboundOutput, s.output)
	}
	return nil
}
