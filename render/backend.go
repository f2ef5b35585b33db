// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Backend errors.
var (
	// ErrInvalidDimensions is returned for zero-sized texture requests.
	ErrInvalidDimensions = errors.New("render: invalid texture dimensions")

	// ErrUnsupportedFormat is returned for formats the backend cannot store.
	ErrUnsupportedFormat = errors.New("render: unsupported texture format")

	// ErrOutOfMemory is returned when the backend cannot allocate a texture.
	ErrOutOfMemory = errors.New("render: texture memory exhausted")

	// ErrForeignTexture is returned for textures created by another backend.
	ErrForeignTexture = errors.New("render: texture does not belong to this backend")

	// ErrTextureDestroyed is returned when a destroyed texture is used.
	ErrTextureDestroyed = errors.New("render: texture has been destroyed")

	// ErrSizeMismatch is returned when uploaded pixels do not match a texture.
	ErrSizeMismatch = errors.New("render: image size does not match texture")

	// ErrInvalidPass is returned for passes missing a required binding.
	ErrInvalidPass = errors.New("render: invalid pass")

	// ErrBackendDestroyed is returned by every call after Destroy.
	ErrBackendDestroyed = errors.New("render: backend destroyed")
)

// Backend is the rendering device seen by the compositor.
//
// The compositor only allocates textures, uploads source pixels, executes
// passes and presents the canvas. Device and shader lifecycle belong to the
// backend and the host that created it.
//
// Thread Safety: Backends are NOT thread-safe. A frame is built and executed
// on one goroutine.
type Backend interface {
	// NewTexture allocates a texture. Failures are reported, never replaced
	// by a placeholder.
	NewTexture(desc TextureDescriptor) (Texture, error)

	// WriteTexture uploads img into tex. Sizes must match.
	WriteTexture(tex Texture, img *image.RGBA) error

	// ReadTexture copies the current contents of tex.
	ReadTexture(tex Texture) (*image.RGBA, error)

	// Clear fills tex with c.
	Clear(tex Texture, c color.RGBA) error

	// Execute runs one processing stage.
	Execute(pass Pass) error

	// Present shows tex as the finished frame.
	Present(tex Texture) error

	// Capabilities reports backend limits.
	Capabilities() Capabilities

	// Destroy releases every texture the backend still owns.
	Destroy()
}

// Capabilities describes the features supported by a backend.
type Capabilities struct {
	// IsGPU indicates if passes run on a GPU.
	IsGPU bool

	// MaxTextureSize is the maximum texture dimension (0 = unlimited).
	MaxTextureSize int

	// MaxTextures is the maximum number of live textures (0 = unlimited).
	MaxTextures int
}

// PassKind distinguishes the two shapes of processing stage.
type PassKind uint8

const (
	// PassSingleInput samples one input through a filter program.
	PassSingleInput PassKind = iota

	// PassTwoInput mixes a second input over a primary input.
	PassTwoInput
)

// String returns the kind name.
func (k PassKind) String() string {
	switch k {
	case PassSingleInput:
		return "SingleInput"
	case PassTwoInput:
		return "TwoInput"
	default:
		return fmt.Sprintf("PassKind(%d)", k)
	}
}

// Pass is one processing stage with explicit bindings.
//
// Single-input: the output is cleared, Input is stretched over Viewport and
// the program filters that region.
//
// Two-input: inside Viewport the output is the program's mix of Second
// over Input, both stretched over the viewport; outside it the output is
// transparent. When Output is the same texture as Input the primary is read
// in place and pixels outside the viewport are preserved, which is how
// layers are blended onto the canvas.
type Pass struct {
	Kind     PassKind
	Label    string
	Program  Program
	Input    Texture
	Second   Texture
	Output   Texture
	Viewport image.Rectangle
}

// Validate checks that the bindings required by the pass kind are present.
func (p *Pass) Validate() error {
	switch {
	case p.Output == nil:
		return fmt.Errorf("%w: %q has no output", ErrInvalidPass, p.Label)
	case p.Input == nil:
		return fmt.Errorf("%w: %q has no input", ErrInvalidPass, p.Label)
	}
	switch p.Kind {
	case PassSingleInput:
		if p.Program != nil {
			if _, ok := p.Program.(BlendProgram); ok {
				return fmt.Errorf("%w: %q binds blend program %s to a single-input pass", ErrInvalidPass, p.Label, p.Program.Name())
			}
		}
	case PassTwoInput:
		if p.Second == nil {
			return fmt.Errorf("%w: %q has no second input", ErrInvalidPass, p.Label)
		}
		if _, ok := p.Program.(BlendProgram); !ok {
			return fmt.Errorf("%w: %q needs a blend program", ErrInvalidPass, p.Label)
		}
	default:
		return fmt.Errorf("%w: %q has unknown kind %v", ErrInvalidPass, p.Label, p.Kind)
	}
	return nil
}

// Program is the processing a pass runs.
type Program interface {
	// Name identifies the program in logs and errors.
	Name() string
}

// FilterProgram rewrites the viewport of an already sampled image in place.
type FilterProgram interface {
	Program
	Process(img *image.RGBA, viewport image.Rectangle)
}

// SamplerProgram replaces the default stretch sampling of a single-input
// pass, e.g. for geometric transforms.
type SamplerProgram interface {
	Program
	Sample(dst *image.RGBA, viewport image.Rectangle, src *image.RGBA)
}

// BlendFunc mixes a premultiplied source over a premultiplied destination.
type BlendFunc func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// BlendProgram is the program of a two-input pass.
type BlendProgram interface {
	Program

	// Blend returns the per-pixel operator.
	Blend() BlendFunc

	// Strength returns the interpolation factor in [0, 1] between the
	// primary input and the mixed result.
	Strength() float32
}

// Parameterized programs accept named values, the equivalent of shader
// uniforms.
type Parameterized interface {
	SetValue(name string, v [4]float32) error
}

// ErrUnknownParameter is returned by Parameterized programs for names they
// do not define.
var ErrUnknownParameter = errors.New("render: unknown program parameter")

// Presenter receives finished frames from a CPU backend.
// The image is only valid during the call.
type Presenter interface {
	Present(img *image.RGBA) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(img *image.RGBA) error

// Present calls f(img).
func (f PresenterFunc) Present(img *image.RGBA) error {
	return f(img)
}
