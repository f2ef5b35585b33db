// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucanvas shows composited frames in a gogpu window.
//
// The compositor renders on the CPU and hands every finished frame to a
// Presenter through the software backend. The window's draw callback then
// uploads the latest frame to a GPU texture and draws it:
//
//	p := gpucanvas.New()
//	backend := render.NewSoftwareBackend(render.WithPresenter(p))
//	c, _ := compose.New(backend, 1920, 1080)
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    _ = c.RenderFrame()
//	    _ = p.RenderTo(dc.AsTextureDrawer())
//	})
//
// Present and RenderTo may run on different goroutines.
package gpucanvas

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/compose"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("gpucanvas: presenter closed")

	// ErrNoTextureCreator is returned when the draw context cannot create
	// textures.
	ErrNoTextureCreator = errors.New("gpucanvas: draw context has no texture creator")

	// ErrNotTexture is returned when the created texture cannot be drawn.
	ErrNotTexture = errors.New("gpucanvas: created texture is not drawable")
)

type destroyer interface {
	Destroy()
}

// Presenter keeps the latest frame and uploads it on demand. It implements
// render.Presenter.
type Presenter struct {
	mu     sync.Mutex
	pix    []byte
	width  int
	height int
	dirty  bool
	frames uint64

	texture any
	// old is the texture replaced by a resize. It is destroyed after the
	// next upload, once the GPU no longer reads it.
	old         any
	sizeChanged bool
	closed      bool
}

// New returns an empty presenter.
func New() *Presenter {
	return &Presenter{}
}

// Present copies img as the next frame to upload.
func (p *Presenter) Present(img *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w != p.width || h != p.height {
		p.width, p.height = w, h
		p.pix = make([]byte, 4*w*h)
		p.sizeChanged = true
		compose.Logger().Debug("gpucanvas: frame size", "width", w, "height", h)
	}
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(p.pix[y*4*w:(y+1)*4*w], img.Pix[off:off+4*w])
	}
	p.dirty = true
	p.frames++
	return nil
}

// Size returns the size of the latest frame.
func (p *Presenter) Size() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Frames returns the number of frames presented.
func (p *Presenter) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// RenderTo uploads the latest frame if it changed and draws it at the
// origin. Nothing is drawn before the first frame.
func (p *Presenter) RenderTo(dc gpucontext.TextureDrawer) error {
	return p.RenderAt(dc, 0, 0)
}

// RenderAt is RenderTo at position (x, y).
func (p *Presenter) RenderAt(dc gpucontext.TextureDrawer, x, y float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.pix == nil {
		return nil
	}

	if p.sizeChanged {
		if p.texture != nil {
			destroy(p.old)
			p.old = p.texture
			p.texture = nil
		}
		p.sizeChanged = false
	}

	switch {
	case p.texture == nil:
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}
		tex, err := creator.NewTextureFromRGBA(p.width, p.height, p.pix)
		if err != nil {
			return fmt.Errorf("gpucanvas: create texture: %w", err)
		}
		// Compositor output is premultiplied.
		if pt, ok := any(tex).(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}
		p.texture = tex
		destroy(p.old)
		p.old = nil

	case p.dirty:
		if u, ok := p.texture.(gpucontext.TextureUpdater); ok {
			if err := u.UpdateData(p.pix); err != nil {
				return fmt.Errorf("gpucanvas: update texture: %w", err)
			}
		}
	}
	p.dirty = false

	tex, ok := p.texture.(gpucontext.Texture)
	if !ok {
		return ErrNotTexture
	}
	return dc.DrawTexture(tex, x, y)
}

// Close destroys the textures. Close is idempotent.
func (p *Presenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	destroy(p.old)
	destroy(p.texture)
	p.old, p.texture, p.pix = nil, nil, nil
	return nil
}

func destroy(tex any) {
	if d, ok := tex.(destroyer); ok {
		d.Destroy()
	}
}
