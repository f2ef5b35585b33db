// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose_test

import (
	"image/color"
	"testing"

	"github.com/gogpu/compose"
	"github.com/gogpu/compose/effect"
	"github.com/gogpu/compose/render"
	"github.com/gogpu/compose/source"
)

func pixel(t *testing.T, c *compose.Compositor, l *compose.Layer, x, y int) color.RGBA {
	t.Helper()
	fb := c.Canvas()
	if l != nil {
		fb = l.Result()
	}
	if fb == nil {
		t.Fatal("no buffer")
	}
	img, err := c.Backend().ReadTexture(fb.Texture())
	if err != nil {
		t.Fatal(err)
	}
	return img.RGBAAt(x, y)
}

// Two quadrants on a full HD canvas: A is grayscaled, B is masked by C
// with an additive mixer and added onto the canvas.
func TestQuadrantScene(t *testing.T) {
	c, err := compose.New(render.NewSoftwareBackend(), 1920, 1080)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Destroy()

	a := compose.NewLayer(0)
	a.SetSource(source.NewSolid(color.RGBA{200, 100, 50, 255}))
	if err := a.AddEffect(effect.Grayscale()); err != nil {
		t.Fatal(err)
	}

	b := compose.NewLayer(1)
	b.SetSource(source.NewSolid(color.RGBA{100, 0, 0, 255}))
	b.SetMixer(compose.MixerAdd)

	mask := compose.NewLayer(2)
	mask.SetSource(source.NewSolid(color.RGBA{0, 50, 0, 255}))
	mask.SetMixer(compose.MixerAdd)
	mask.SetExcludeFromBlend(true)
	b.AddMask(mask)

	for _, l := range []*compose.Layer{a, b, mask} {
		if err := c.AddLayer(l); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.SetRect(compose.XYWH(0, 0, 960, 540)); err != nil {
		t.Fatal(err)
	}
	if err := b.SetRect(compose.XYWH(960, 0, 960, 540)); err != nil {
		t.Fatal(err)
	}

	gray := color.RGBA{118, 118, 118, 255}
	masked := color.RGBA{100, 50, 0, 255}
	for frame := 0; frame < 2; frame++ {
		if err := c.RenderFrame(); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}

		if got := pixel(t, c, a, 480, 270); got != gray {
			t.Errorf("frame %d: A result = %v, want %v", frame, got, gray)
		}
		if got := pixel(t, c, a, 1440, 270); got != (color.RGBA{}) {
			t.Errorf("frame %d: A result outside its rect = %v", frame, got)
		}
		if got := pixel(t, c, b, 1440, 270); got != masked {
			t.Errorf("frame %d: B result = %v, want %v", frame, got, masked)
		}
		if got := pixel(t, c, b, 480, 270); got != (color.RGBA{}) {
			t.Errorf("frame %d: B result outside its rect = %v", frame, got)
		}

		if got := pixel(t, c, nil, 959, 539); got != gray {
			t.Errorf("frame %d: canvas A corner = %v, want %v", frame, got, gray)
		}
		if got := pixel(t, c, nil, 960, 0); got != masked {
			t.Errorf("frame %d: canvas B corner = %v, want %v", frame, got, masked)
		}
		if got := pixel(t, c, nil, 960, 540); got != (color.RGBA{}) {
			t.Errorf("frame %d: canvas below quadrants = %v, want transparent", frame, got)
		}
	}

	st := c.Stats()
	if st.LayersComposited != 2 || st.LayersSubmitted != 3 {
		t.Errorf("Stats() = %+v", st)
	}
}
