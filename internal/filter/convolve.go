// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Blur applies a Gaussian blur of the given radius to img inside r.
// Samples never cross the edge of r so a layer never bleeds into its
// neighbours on a shared canvas.
func Blur(img *image.RGBA, r image.Rectangle, radius float64) {
	r = r.Intersect(img.Bounds())
	if r.Empty() || radius <= 0 {
		return
	}
	out := blur.Gaussian(Region(img, r), radius)
	draw.Draw(img, r, out, out.Bounds().Min, draw.Src)
}

// Sharpen applies an unsharp mask with the given sigma to img inside r.
func Sharpen(img *image.RGBA, r image.Rectangle, sigma float64) {
	r = r.Intersect(img.Bounds())
	if r.Empty() || sigma <= 0 {
		return
	}
	out := imaging.Sharpen(Region(img, r), sigma)
	draw.Draw(img, r, out, out.Bounds().Min, draw.Src)
}
