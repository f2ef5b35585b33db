// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package effect

import (
	"fmt"
	"image"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/internal/filter"
	"github.com/gogpu/compose/render"
)

// Blur is a Gaussian blur effect. Samples never leave the layer's view
// rect. Parameter: "radius" (v[0], pixels).
type Blur struct {
	prog *kernelProgram
	node *compose.Node
}

// NewBlur returns a blur of the given radius. A radius of 0 passes the
// input through.
func NewBlur(radius float32) *Blur {
	p := &kernelProgram{name: "blur", param: "radius", value: radius, run: filter.Blur}
	return &Blur{prog: p, node: compose.NewSingleInputNode(p)}
}

// Node returns the single-input node of the effect.
func (e *Blur) Node() *compose.Node { return e.node }

// Radius returns the blur radius.
func (e *Blur) Radius() float32 { return e.prog.value }

// Sharpen is an unsharp-mask effect. Parameter: "sigma" (v[0]).
type Sharpen struct {
	prog *kernelProgram
	node *compose.Node
}

// NewSharpen returns a sharpen effect of the given strength.
func NewSharpen(sigma float32) *Sharpen {
	p := &kernelProgram{name: "sharpen", param: "sigma", value: sigma, run: filter.Sharpen}
	return &Sharpen{prog: p, node: compose.NewSingleInputNode(p)}
}

// Node returns the single-input node of the effect.
func (e *Sharpen) Node() *compose.Node { return e.node }

// Sigma returns the sharpen strength.
func (e *Sharpen) Sigma() float32 { return e.prog.value }

// kernelProgram runs a one-parameter convolution kernel.
type kernelProgram struct {
	name  string
	param string
	value float32
	run   func(img *image.RGBA, r image.Rectangle, v float64)
}

func (p *kernelProgram) Name() string { return p.name }

func (p *kernelProgram) Process(img *image.RGBA, r image.Rectangle) {
	p.run(img, r, float64(p.value))
}

func (p *kernelProgram) SetValue(name string, v [4]float32) error {
	if name != p.param && name != "value" {
		return fmt.Errorf("%w: %s has no parameter %q", render.ErrUnknownParameter, p.name, name)
	}
	p.value = max(v[0], 0)
	return nil
}
