// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package graph builds and executes the per-frame processing plan.
//
// A Plan is an immutable list of stages with explicit buffer bindings. It is
// built from layer configuration at the start of every frame, executed once
// and discarded, so no edge or output assignment survives into the next
// frame.
//
//	b := graph.NewBuilder()
//	tmp := b.Temp(w, h)
//	b.Single("grayscale", gray, graph.Buffer(src), tmp, local)
//	b.Single("blur", blur, tmp, graph.Buffer(result), view)
//	plan, err := b.Build()
//	err = plan.Execute(backend, pool)
package graph

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/render"
)

// Plan errors.
var (
	// ErrUnboundInput is returned for stages reading a missing buffer.
	ErrUnboundInput = errors.New("graph: stage input not bound")

	// ErrUnboundOutput is returned for stages without an output buffer.
	ErrUnboundOutput = errors.New("graph: stage output not bound")

	// ErrUnwrittenTemp is returned when a temporary is read before any
	// stage has written it.
	ErrUnwrittenTemp = errors.New("graph: temporary read before written")

	// ErrWrongProgram is returned when a stage program does not fit its kind.
	ErrWrongProgram = errors.New("graph: program does not match stage kind")
)

// Kind distinguishes stages.
type Kind uint8

const (
	// SingleInput stages sample one input through a filter program.
	SingleInput Kind = iota

	// TwoInput stages mix a second input over a primary input.
	TwoInput
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case SingleInput:
		return "SingleInput"
	case TwoInput:
		return "TwoInput"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (k Kind) pass() render.PassKind {
	if k == TwoInput {
		return render.PassTwoInput
	}
	return render.PassSingleInput
}

// Ref binds a stage to a buffer: either an existing frame buffer or a
// temporary owned by the plan.
type Ref struct {
	fb   *framebuffer.FrameBuffer
	temp int // 1-based temporary index, 0 for none
}

// Buffer returns a Ref to an existing frame buffer.
func Buffer(fb *framebuffer.FrameBuffer) Ref {
	return Ref{fb: fb}
}

// IsTemp reports whether r names a plan temporary.
func (r Ref) IsTemp() bool { return r.temp > 0 }

// IsZero reports whether r is unbound.
func (r Ref) IsZero() bool { return r.fb == nil && r.temp == 0 }

// FrameBuffer returns the bound buffer, nil for temporaries.
func (r Ref) FrameBuffer() *framebuffer.FrameBuffer { return r.fb }

func (r Ref) String() string {
	switch {
	case r.temp > 0:
		return fmt.Sprintf("temp%d", r.temp)
	case r.fb != nil:
		return r.fb.String()
	default:
		return "<unbound>"
	}
}

// Stage is one processing step of a plan.
type Stage struct {
	kind     Kind
	label    string
	program  render.Program
	input    Ref
	second   Ref
	output   Ref
	viewport image.Rectangle
}

// Kind returns the stage kind.
func (s Stage) Kind() Kind { return s.kind }

// Label returns the stage label.
func (s Stage) Label() string { return s.label }

// Program returns the stage program.
func (s Stage) Program() render.Program { return s.program }

// Input returns the primary input binding.
func (s Stage) Input() Ref { return s.input }

// Second returns the second input binding of a TwoInput stage.
func (s Stage) Second() Ref { return s.second }

// Output returns the output binding.
func (s Stage) Output() Ref { return s.output }

// Viewport returns the region of the output the stage writes.
func (s Stage) Viewport() image.Rectangle { return s.viewport }

// Plan is an immutable, validated list of stages.
type Plan struct {
	stages []Stage
	temps  []image.Point
}

// Len returns the number of stages.
func (p *Plan) Len() int { return len(p.stages) }

// Temps returns the number of temporaries the plan allocates.
func (p *Plan) Temps() int { return len(p.temps) }

// Stages returns a copy of the stages in execution order.
func (p *Plan) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// String renders the plan one stage per line.
func (p *Plan) String() string {
	var sb strings.Builder
	for i, s := range p.stages {
		name := "<default>"
		if s.program != nil {
			name = s.program.Name()
		}
		fmt.Fprintf(&sb, "%d %s %s(%s", i, s.kind, name, s.input)
		if s.kind == TwoInput {
			fmt.Fprintf(&sb, ", %s", s.second)
		}
		fmt.Fprintf(&sb, ") -> %s %v\n", s.output, s.viewport)
	}
	return sb.String()
}
