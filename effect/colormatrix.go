// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package effect provides ready-made effects for compose layers and global
// effect chains.
//
// Every effect is a single-input node running a CPU kernel on the software
// backend. Parameters are updated through the node:
//
//	blur := effect.NewBlur(2)
//	layer.AddEffect(blur)
//	blur.Node().SetValue("radius", [4]float32{4})
//
// Effects can also be created by name with [New], which is what scene files
// use.
package effect

import (
	"fmt"
	"image"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/internal/filter"
	"github.com/gogpu/compose/render"
)

// ColorMatrix is an effect applying a 4x5 color matrix.
//
// All color matrix effects accept "amount" (v[0] in [0, 1]), which blends
// between the unchanged input and the full effect. Parametric effects also
// accept "value" or their own parameter name, listed on each constructor.
type ColorMatrix struct {
	prog *matrixProgram
	node *compose.Node
}

// Node returns the single-input node of the effect.
func (e *ColorMatrix) Node() *compose.Node { return e.node }

// Matrix returns the matrix currently applied, amount included.
func (e *ColorMatrix) Matrix() [20]float32 { return e.prog.m }

// matrixProgram rebuilds its matrix whenever a parameter changes.
type matrixProgram struct {
	name   string
	param  string
	build  func(v [4]float32) filter.ColorMatrix
	value  [4]float32
	amount float32
	m      filter.ColorMatrix
}

func newColorMatrix(name, param string, value [4]float32, build func(v [4]float32) filter.ColorMatrix) *ColorMatrix {
	p := &matrixProgram{name: name, param: param, build: build, value: value, amount: 1}
	p.rebuild()
	return &ColorMatrix{prog: p, node: compose.NewSingleInputNode(p)}
}

func (p *matrixProgram) rebuild() {
	p.m = p.build(p.value)
	if p.amount < 1 {
		p.m = p.m.Lerp(p.amount)
	}
}

func (p *matrixProgram) Name() string { return p.name }

func (p *matrixProgram) Process(img *image.RGBA, r image.Rectangle) {
	p.m.Apply(img, r)
}

func (p *matrixProgram) SetValue(name string, v [4]float32) error {
	switch {
	case name == "amount":
		p.amount = min(max(v[0], 0), 1)
	case p.param != "" && (name == "value" || name == p.param):
		p.value = v
	default:
		return fmt.Errorf("%w: %s has no parameter %q", render.ErrUnknownParameter, p.name, name)
	}
	p.rebuild()
	return nil
}

// NewColorMatrix returns an effect applying m. Coefficients work on
// straight-alpha values in [0, 255].
func NewColorMatrix(m [20]float32) *ColorMatrix {
	return newColorMatrix("color_matrix", "", [4]float32{}, func([4]float32) filter.ColorMatrix {
		return filter.ColorMatrix(m)
	})
}

// Grayscale converts to Rec. 709 luminance.
func Grayscale() *ColorMatrix {
	return newColorMatrix("grayscale", "", [4]float32{}, func([4]float32) filter.ColorMatrix {
		return filter.Grayscale()
	})
}

// Sepia applies a sepia tone.
func Sepia() *ColorMatrix {
	return newColorMatrix("sepia", "", [4]float32{}, func([4]float32) filter.ColorMatrix {
		return filter.Sepia()
	})
}

// Invert inverts the color channels.
func Invert() *ColorMatrix {
	return newColorMatrix("invert", "", [4]float32{}, func([4]float32) filter.ColorMatrix {
		return filter.Invert()
	})
}

// Brightness scales the color channels by factor: 0 is black, 1 unchanged.
// Parameter: "factor".
func Brightness(factor float32) *ColorMatrix {
	return newColorMatrix("brightness", "factor", [4]float32{factor}, func(v [4]float32) filter.ColorMatrix {
		return filter.Brightness(v[0])
	})
}

// Contrast scales around mid gray: 0 is flat gray, 1 unchanged.
// Parameter: "factor".
func Contrast(factor float32) *ColorMatrix {
	return newColorMatrix("contrast", "factor", [4]float32{factor}, func(v [4]float32) filter.ColorMatrix {
		return filter.Contrast(v[0])
	})
}

// Saturation scales saturation: 0 is grayscale, 1 unchanged.
// Parameter: "factor".
func Saturation(factor float32) *ColorMatrix {
	return newColorMatrix("saturation", "factor", [4]float32{factor}, func(v [4]float32) filter.ColorMatrix {
		return filter.Saturation(v[0])
	})
}

// HueRotate rotates hue by degrees. Parameter: "degrees".
func HueRotate(degrees float32) *ColorMatrix {
	return newColorMatrix("hue_rotate", "degrees", [4]float32{degrees}, func(v [4]float32) filter.ColorMatrix {
		return filter.HueRotate(float64(v[0]))
	})
}

// Opacity scales alpha by factor. Parameter: "factor".
func Opacity(factor float32) *ColorMatrix {
	return newColorMatrix("opacity", "factor", [4]float32{factor}, func(v [4]float32) filter.ColorMatrix {
		return filter.Opacity(v[0])
	})
}

// Tint recolors to (r, g, b) in [0, 1], keeping luminance.
// Parameter: "color".
func Tint(r, g, b float32) *ColorMatrix {
	return newColorMatrix("tint", "color", [4]float32{r, g, b}, func(v [4]float32) filter.ColorMatrix {
		return filter.Tint(v[0], v[1], v[2])
	})
}
