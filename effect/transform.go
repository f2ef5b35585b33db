// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package effect

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/math/f64"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/internal/filter"
	"github.com/gogpu/compose/render"
)

// Transform is a 2D camera effect: the input is fitted to the viewport,
// then zoomed and rotated about the viewport center and panned. Pixels
// uncovered by the transformed input are transparent.
//
// Parameters:
//   - "zoom": v[0], 1 is unchanged
//   - "rotate": v[0] in degrees, clockwise on screen
//   - "pan": v[0], v[1] in pixels
//
// Transform is typically added as a global effect.
type Transform struct {
	prog *transformProgram
	node *compose.Node
}

// NewTransform returns an identity camera transform.
func NewTransform() *Transform {
	p := &transformProgram{zoom: 1, extra: identity(), quality: render.QualityBilinear}
	return &Transform{prog: p, node: compose.NewSingleInputNode(p)}
}

// Node returns the single-input node of the effect.
func (e *Transform) Node() *compose.Node { return e.node }

// SetZoom sets the zoom factor. Non-positive values are ignored.
func (e *Transform) SetZoom(z float64) {
	if z > 0 {
		e.prog.zoom = z
	}
}

// SetRotation sets the rotation in degrees.
func (e *Transform) SetRotation(degrees float64) { e.prog.rotate = degrees }

// SetPan sets the translation in pixels.
func (e *Transform) SetPan(x, y float64) { e.prog.panX, e.prog.panY = x, y }

// SetMatrix sets an additional affine matrix applied to the fitted input
// before the camera. It maps input pixels to viewport-relative pixels.
func (e *Transform) SetMatrix(m f64.Aff3) { e.prog.extra = m }

// SetQuality selects the resampling kernel.
func (e *Transform) SetQuality(q render.Quality) { e.prog.quality = q }

// Matrix returns the full matrix used for an input of size src drawn into a
// viewport of size dst.
func (e *Transform) Matrix(src, dst image.Point) f64.Aff3 {
	return e.prog.matrix(src, dst)
}

type transformProgram struct {
	zoom       float64
	rotate     float64
	panX, panY float64
	extra      f64.Aff3
	quality    render.Quality
}

func (p *transformProgram) Name() string { return "transform" }

func (p *transformProgram) Sample(dst *image.RGBA, viewport image.Rectangle, src *image.RGBA) {
	m := p.matrix(src.Bounds().Size(), viewport.Size())
	filter.Transform(dst, viewport, src, m, p.quality)
}

func (p *transformProgram) SetValue(name string, v [4]float32) error {
	switch name {
	case "zoom":
		if v[0] > 0 {
			p.zoom = float64(v[0])
		}
	case "rotate":
		p.rotate = float64(v[0])
	case "pan":
		p.panX, p.panY = float64(v[0]), float64(v[1])
	default:
		return fmt.Errorf("%w: transform has no parameter %q", render.ErrUnknownParameter, name)
	}
	return nil
}

// matrix composes fit, extra and the camera:
//
//	T(center + pan) * R(rotate) * S(zoom) * T(-center) * extra * fit
func (p *transformProgram) matrix(src, dst image.Point) f64.Aff3 {
	m := identity()
	if src.X > 0 && src.Y > 0 {
		m = scale(float64(dst.X)/float64(src.X), float64(dst.Y)/float64(src.Y))
	}
	m = multiply(p.extra, m)

	cx, cy := float64(dst.X)/2, float64(dst.Y)/2
	m = multiply(translate(-cx, -cy), m)
	m = multiply(scale(p.zoom, p.zoom), m)
	m = multiply(rotate(p.rotate*math.Pi/180), m)
	m = multiply(translate(cx+p.panX, cy+p.panY), m)
	return m
}

func identity() f64.Aff3 {
	return f64.Aff3{
		1, 0, 0,
		0, 1, 0,
	}
}

func translate(x, y float64) f64.Aff3 {
	return f64.Aff3{
		1, 0, x,
		0, 1, y,
	}
}

func scale(x, y float64) f64.Aff3 {
	return f64.Aff3{
		x, 0, 0,
		0, y, 0,
	}
}

func rotate(angle float64) f64.Aff3 {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return f64.Aff3{
		cos, -sin, 0,
		sin, cos, 0,
	}
}

// multiply returns m * n: n is applied first.
func multiply(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3],
		m[0]*n[1] + m[1]*n[4],
		m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3],
		m[3]*n[1] + m[4]*n[4],
		m[3]*n[2] + m[4]*n[5] + m[5],
	}
}
