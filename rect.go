// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"fmt"
	"image"
)

// Rect is a region of the canvas in pixels.
// The zero Rect is valid and means the layer has not been placed yet.
type Rect struct {
	X, Y          int
	Width, Height int
}

// XYWH returns a Rect.
func XYWH(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Local returns r moved to the origin.
func (r Rect) Local() Rect {
	return Rect{Width: r.Width, Height: r.Height}
}

// Bounds converts r to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate checks r against a canvas of the given size.
func (r Rect) Validate(canvasWidth, canvasHeight int) error {
	if r.X < 0 || r.Y < 0 || r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: %v has negative components", ErrInvalidRect, r)
	}
	if r.X+r.Width > canvasWidth || r.Y+r.Height > canvasHeight {
		return fmt.Errorf("%w: %v exceeds canvas %dx%d", ErrInvalidRect, r, canvasWidth, canvasHeight)
	}
	return nil
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
