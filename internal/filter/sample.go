// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package filter

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Quality selects the resampling kernel used when sizes differ.
type Quality uint8

const (
	// QualityNearest uses nearest-neighbor sampling.
	QualityNearest Quality = iota
	// QualityBilinear uses approximate bilinear sampling.
	QualityBilinear
	// QualityBest uses Catmull-Rom sampling.
	QualityBest
)

func (q Quality) scaler() draw.Interpolator {
	switch q {
	case QualityBilinear:
		return draw.ApproxBiLinear
	case QualityBest:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// Stretch replaces the pixels of dst inside r with src scaled to fill r.
// Equal sizes copy exactly.
func Stretch(dst *image.RGBA, r image.Rectangle, src *image.RGBA, q Quality) {
	if r.Empty() {
		return
	}
	sb := src.Bounds()
	if sb.Size() == r.Size() {
		draw.Draw(dst, r, src, sb.Min, draw.Src)
		return
	}
	q.scaler().Scale(dst, r, src, sb, draw.Src, nil)
}

// Clear zeroes the pixels of img inside r.
func Clear(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		clear(img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)])
	}
}

// Transform clears r and draws src mapped through m, clipped to r.
// m maps source coordinates to destination coordinates relative to r.Min.
func Transform(dst *image.RGBA, r image.Rectangle, src *image.RGBA, m f64.Aff3, q Quality) {
	Clear(dst, r)
	sub, ok := dst.SubImage(r).(*image.RGBA)
	if !ok || sub.Bounds().Empty() {
		return
	}
	abs := m
	abs[2] += float64(r.Min.X)
	abs[5] += float64(r.Min.Y)
	q.scaler().Transform(sub, abs, src, src.Bounds(), draw.Over, nil)
}

// Region copies the pixels of img inside r into a new zero-origin image.
func Region(img *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}
