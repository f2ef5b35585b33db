// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/effect"
	"github.com/gogpu/compose/source"
)

// sampleScene builds four quadrant layers and a centered overlay:
//
//	+-----------+-----------+
//	| gradient  | plasma    |
//	| grayscale | masked    |
//	+-----------+-----------+
//	| text      | stripes   |
//	| blurred   | hue       |
//	+-----------+-----------+
//
// The overlay is alpha-matted by a disc and added on top. A global
// transform slowly turns the whole canvas.
func sampleScene(c *compose.Compositor) (*effect.Transform, error) {
	w, h := c.CanvasWidth(), c.CanvasHeight()
	qw, qh := w/2, h/2
	quads := [4]compose.Rect{
		compose.XYWH(0, 0, qw, qh),
		compose.XYWH(qw, 0, w-qw, qh),
		compose.XYWH(0, qh, qw, h-qh),
		compose.XYWH(qw, qh, w-qw, h-qh),
	}

	gradient := compose.NewLayer(0)
	gradient.SetSource(source.NewGradient(qw, qh,
		color.RGBA{200, 60, 20, 255}, color.RGBA{20, 80, 220, 255}, false))
	if err := gradient.AddEffect(effect.Grayscale()); err != nil {
		return nil, err
	}

	plasma := compose.NewLayer(1)
	plasma.SetSource(source.NewFunc(160, 90, drawPlasma))
	plasma.SetMixer(compose.MixerScreen)

	vignette := compose.NewLayer(5)
	vignette.SetSource(source.NewFunc(64, 64, drawDisc))
	vignette.SetMixer(compose.MixerMultiply)
	vignette.SetExcludeFromBlend(true)
	plasma.AddMask(vignette)

	label, err := source.NewText("compose", 48, color.White)
	if err != nil {
		return nil, err
	}
	text := compose.NewLayer(2)
	text.SetSource(label)
	if err := text.AddEffect(effect.NewBlur(1.5)); err != nil {
		return nil, err
	}

	stripes := compose.NewLayer(3)
	stripes.SetSource(source.NewFunc(64, 64, drawStripes))
	if err := stripes.AddEffect(effect.HueRotate(90)); err != nil {
		return nil, err
	}

	disc := compose.NewLayer(6)
	disc.SetSource(source.NewFunc(64, 64, drawDisc))

	overlay := compose.NewLayer(4)
	overlay.SetSource(source.NewSolid(color.RGBA{255, 200, 0, 255}))
	overlay.SetMixer(compose.MixerAdd)
	overlay.SetZOrder(1)
	overlay.SetMatte(disc.ID(), compose.MixerAlphaMatte, false)
	if err := overlay.UpdateMixerValue("strength", [4]float32{0.6}); err != nil {
		return nil, err
	}

	for _, l := range []*compose.Layer{gradient, plasma, text, stripes, overlay, vignette, disc} {
		if err := c.AddLayer(l); err != nil {
			return nil, err
		}
	}
	for i, l := range []*compose.Layer{gradient, plasma, text, stripes} {
		if err := l.SetRect(quads[i]); err != nil {
			return nil, err
		}
	}
	if err := overlay.SetRect(compose.XYWH(w/4, h/4, qw, qh)); err != nil {
		return nil, err
	}

	camera := effect.NewTransform()
	if err := c.AddGlobalEffect(camera); err != nil {
		return nil, err
	}
	return camera, nil
}

// animate advances the camera for frame n.
func animate(camera *effect.Transform, n uint64) {
	if camera == nil {
		return
	}
	t := float64(n) / 60
	camera.SetRotation(2 * math.Sin(t))
	camera.SetZoom(1 + 0.03*math.Sin(t*0.7))
}

func drawPlasma(img *image.RGBA, frame uint64) {
	t := float64(frame) / 10
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := math.Sin(float64(x)/8+t) + math.Sin(float64(y)/6-t) + math.Sin(float64(x+y)/12+t/2)
			u := uint8(127 + 42*v)
			img.SetRGBA(x, y, color.RGBA{u, 255 - u, uint8(128 + 40*math.Sin(v+t)), 255})
		}
	}
}

func drawStripes(img *image.RGBA, frame uint64) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBA{40, 40, 40, 255}
			if (x+y+int(frame))/8%2 == 0 {
				c = color.RGBA{220, 40, 40, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
}

func drawDisc(img *image.RGBA, _ uint64) {
	b := img.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	r := math.Min(cx, cy)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			a := uint8(255 * math.Max(0, math.Min(1, r-d)))
			img.SetRGBA(x, y, color.RGBA{a, a, a, a})
		}
	}
}
