// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package term previews composited frames in a terminal.
//
// Each terminal cell shows two vertically stacked pixels with the upper
// half block character: the foreground is the upper pixel and the
// background the lower one. Frames are scaled to the screen size.
//
//	p, err := term.Open()
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	backend := render.NewSoftwareBackend(render.WithPresenter(p))
package term

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"

	"github.com/gogpu/compose"
)

// ErrClosed is returned by Present after Close.
var ErrClosed = errors.New("term: presenter closed")

// HalfBlock is the rune drawn in every cell.
const HalfBlock = '▀'

// Presenter draws frames onto a tcell screen. It implements
// render.Presenter.
type Presenter struct {
	mu     sync.Mutex
	screen tcell.Screen
	scaled *image.RGBA
	frames uint64
}

// New returns a presenter drawing onto an initialized screen.
func New(screen tcell.Screen) *Presenter {
	return &Presenter{screen: screen}
}

// Open initializes the terminal screen and returns a presenter for it.
func Open() (*Presenter, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	screen.HideCursor()
	screen.Clear()
	return New(screen), nil
}

// Screen returns the underlying screen, for event polling.
func (p *Presenter) Screen() tcell.Screen { return p.screen }

// Frames returns the number of frames presented.
func (p *Presenter) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Present scales img to the screen and shows it. Premultiplied pixels are
// shown as if composited over black.
func (p *Presenter) Present(img *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen == nil {
		return ErrClosed
	}

	cols, rows := p.screen.Size()
	if cols <= 0 || rows <= 0 {
		return nil
	}
	size := image.Rect(0, 0, cols, rows*2)
	if p.scaled == nil || p.scaled.Rect != size {
		p.scaled = image.NewRGBA(size)
		compose.Logger().Debug("term: screen size", "cols", cols, "rows", rows)
	}
	draw.ApproxBiLinear.Scale(p.scaled, size, img, img.Bounds(), draw.Src, nil)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := p.scaled.RGBAAt(x, 2*y)
			bottom := p.scaled.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			p.screen.SetContent(x, y, HalfBlock, nil, style)
		}
	}
	p.screen.Show()
	p.frames++
	return nil
}

// Close restores the terminal.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen != nil {
		p.screen.Fini()
		p.screen = nil
	}
}
