// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucanvas

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gpucontext"
)

type mockTexture struct {
	gpucontext.Texture
	width, height int
	data          []byte
	updates       int
	premultiplied bool
	destroyed     bool
}

func (m *mockTexture) UpdateData(data []byte) error {
	m.data = append(m.data[:0], data...)
	m.updates++
	return nil
}

func (m *mockTexture) SetPremultiplied(v bool) { m.premultiplied = v }

func (m *mockTexture) Destroy() { m.destroyed = true }

type mockCreator struct {
	textures []*mockTexture
	fail     bool
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.fail {
		return nil, errors.New("out of memory")
	}
	tex := &mockTexture{width: width, height: height, data: append([]byte(nil), data...)}
	m.textures = append(m.textures, tex)
	return tex, nil
}

type mockDrawer struct {
	gpucontext.TextureDrawer
	creator *mockCreator
	drawn   gpucontext.Texture
	x, y    float32
	draws   int
}

func (m *mockDrawer) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	m.drawn, m.x, m.y = tex, x, y
	m.draws++
	return nil
}

func (m *mockDrawer) TextureCreator() gpucontext.TextureCreator {
	if m.creator == nil {
		return nil
	}
	return m.creator
}

func frame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestRenderBeforeFirstFrame(t *testing.T) {
	dc := &mockDrawer{creator: &mockCreator{}}
	if err := New().RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if dc.draws != 0 {
		t.Errorf("draws = %d, want 0", dc.draws)
	}
}

func TestUploadAndUpdate(t *testing.T) {
	p := New()
	creator := &mockCreator{}
	dc := &mockDrawer{creator: creator}

	if err := p.Present(frame(2, 2, color.RGBA{255, 0, 0, 255})); err != nil {
		t.Fatal(err)
	}
	if err := p.RenderAt(dc, 3, 4); err != nil {
		t.Fatal(err)
	}
	if len(creator.textures) != 1 {
		t.Fatalf("textures = %d, want 1", len(creator.textures))
	}
	tex := creator.textures[0]
	if tex.width != 2 || tex.height != 2 || tex.data[0] != 255 || !tex.premultiplied {
		t.Errorf("texture = %dx%d data[0]=%d premultiplied=%v", tex.width, tex.height, tex.data[0], tex.premultiplied)
	}
	if dc.drawn != gpucontext.Texture(tex) || dc.x != 3 || dc.y != 4 {
		t.Errorf("drawn %v at %v,%v", dc.drawn, dc.x, dc.y)
	}

	// Unchanged frames are drawn without uploading.
	if err := p.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updates != 0 {
		t.Errorf("updates = %d, want 0", tex.updates)
	}

	if err := p.Present(frame(2, 2, color.RGBA{0, 0, 255, 255})); err != nil {
		t.Fatal(err)
	}
	if err := p.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updates != 1 || tex.data[2] != 255 {
		t.Errorf("updates = %d, data[2] = %d", tex.updates, tex.data[2])
	}
	if len(creator.textures) != 1 || dc.draws != 3 {
		t.Errorf("textures = %d draws = %d", len(creator.textures), dc.draws)
	}
}

func TestResizeRecreatesTexture(t *testing.T) {
	p := New()
	creator := &mockCreator{}
	dc := &mockDrawer{creator: creator}

	for _, size := range []int{2, 4} {
		if err := p.Present(frame(size, size, color.RGBA{A: 255})); err != nil {
			t.Fatal(err)
		}
		if err := p.RenderTo(dc); err != nil {
			t.Fatal(err)
		}
	}
	if len(creator.textures) != 2 {
		t.Fatalf("textures = %d, want 2", len(creator.textures))
	}
	if !creator.textures[0].destroyed {
		t.Error("old texture not destroyed after upload")
	}
	if w, h := p.Size(); w != 4 || h != 4 {
		t.Errorf("Size() = %dx%d", w, h)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !creator.textures[1].destroyed {
		t.Error("Close() kept the texture")
	}
}

func TestSubImageFrame(t *testing.T) {
	p := New()
	img := frame(4, 4, color.RGBA{A: 255})
	img.SetRGBA(2, 2, color.RGBA{9, 9, 9, 255})
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)
	if err := p.Present(sub); err != nil {
		t.Fatal(err)
	}
	if p.pix[0] != 9 || len(p.pix) != 16 {
		t.Errorf("staged pixels = %v", p.pix)
	}
}

func TestErrors(t *testing.T) {
	p := New()
	if err := p.Present(frame(1, 1, color.RGBA{})); err != nil {
		t.Fatal(err)
	}
	if err := p.RenderTo(&mockDrawer{}); !errors.Is(err, ErrNoTextureCreator) {
		t.Errorf("RenderTo(no creator) = %v", err)
	}
	if err := p.RenderTo(&mockDrawer{creator: &mockCreator{fail: true}}); err == nil {
		t.Error("RenderTo(failing creator) = nil error")
	}

	p.Close()
	if err := p.Present(frame(1, 1, color.RGBA{})); !errors.Is(err, ErrClosed) {
		t.Errorf("Present after Close = %v", err)
	}
	if err := p.RenderTo(&mockDrawer{}); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderTo after Close = %v", err)
	}
	if p.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", p.Frames())
	}
}
