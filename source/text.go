// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package source

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/compose/internal/cache"
)

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error

	// faces holds one face per point size. Faces are not safe for
	// concurrent use, so drawing holds facesMu.
	faces   = cache.New[float64, font.Face](16)
	facesMu sync.Mutex
)

func regularFont() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Text is a static label rendered with the Go Regular font.
type Text struct {
	Image
	label string
	size  float64
	fg    color.Color
}

// NewText renders label at size points (72 DPI) in color fg on a
// transparent background, padded to whole pixels. A nil fg is white.
func NewText(label string, size float64, fg color.Color) (*Text, error) {
	if fg == nil {
		fg = color.White
	}
	t := &Text{label: label, size: size, fg: fg}
	if err := t.render(); err != nil {
		return nil, err
	}
	return t, nil
}

// Label returns the rendered text.
func (t *Text) Label() string { return t.label }

// SetLabel re-renders the text; it is uploaded on the next frame.
func (t *Text) SetLabel(label string) error {
	old := t.label
	t.label = label
	if err := t.render(); err != nil {
		t.label = old
		return err
	}
	return nil
}

func (t *Text) render() error {
	f, err := regularFont()
	if err != nil {
		return fmt.Errorf("source: text font: %w", err)
	}
	face, err := faces.GetOrLoad(t.size, func() (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    t.size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	if err != nil {
		return fmt.Errorf("source: text face: %w", err)
	}
	facesMu.Lock()
	defer facesMu.Unlock()

	m := face.Metrics()
	width := font.MeasureString(face, t.label).Ceil()
	height := (m.Ascent + m.Descent).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(t.fg),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: m.Ascent},
	}
	d.DrawString(t.label)

	t.img = img
	t.dirty = true
	return nil
}
