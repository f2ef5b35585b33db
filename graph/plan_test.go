// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package graph

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/render"
)

// addRed adds a fixed amount of red to every pixel it processes.
type addRed struct{ amount byte }

func (addRed) Name() string { return "add-red" }

func (a addRed) Process(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			c.R += a.amount
			img.SetRGBA(x, y, c)
		}
	}
}

type over struct{}

func (over) Name() string { return "over" }

func (over) Blend() render.BlendFunc {
	return func(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
		if sa == 255 {
			return sr, sg, sb, sa
		}
		return dr, dg, db, da
	}
}

func (over) Strength() float32 { return 1 }

// failingBackend fails the n-th Execute call.
type failingBackend struct {
	render.Backend
	n, calls int
}

var errBoom = errors.New("boom")

func (f *failingBackend) Execute(p render.Pass) error {
	f.calls++
	if f.calls == f.n {
		return errBoom
	}
	return f.Backend.Execute(p)
}

type env struct {
	backend *render.SoftwareBackend
	pool    *framebuffer.Pool
}

func newEnv(t *testing.T) env {
	t.Helper()
	b := render.NewSoftwareBackend(render.WithQuality(render.QualityNearest))
	p := framebuffer.NewPool(b)
	t.Cleanup(func() {
		p.Destroy()
		b.Destroy()
	})
	return env{backend: b, pool: p}
}

func (e env) filled(t *testing.T, w, h int, c color.RGBA) *framebuffer.FrameBuffer {
	t.Helper()
	fb, err := e.pool.Get(w, h)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.backend.Clear(fb.Texture(), c); err != nil {
		t.Fatal(err)
	}
	return fb
}

func (e env) at(t *testing.T, fb *framebuffer.FrameBuffer, x, y int) color.RGBA {
	t.Helper()
	img, err := e.backend.ReadTexture(fb.Texture())
	if err != nil {
		t.Fatal(err)
	}
	return img.RGBAAt(x, y)
}

func TestBuildValidation(t *testing.T) {
	e := newEnv(t)
	fb := e.filled(t, 2, 2, color.RGBA{})

	tests := []struct {
		name    string
		build   func(b *Builder)
		wantErr error
	}{
		{
			name:    "missing output",
			build:   func(b *Builder) { b.Single("s", addRed{}, Buffer(fb), Ref{}, image.Rectangle{}) },
			wantErr: ErrUnboundOutput,
		},
		{
			name:    "missing input",
			build:   func(b *Builder) { b.Single("s", addRed{}, Ref{}, Buffer(fb), image.Rectangle{}) },
			wantErr: ErrUnboundInput,
		},
		{
			name: "temp read before write",
			build: func(b *Builder) {
				tmp := b.Temp(2, 2)
				b.Single("s", addRed{}, tmp, Buffer(fb), image.Rectangle{})
			},
			wantErr: ErrUnwrittenTemp,
		},
		{
			name:    "merge without second",
			build:   func(b *Builder) { b.Merge("m", over{}, Buffer(fb), Ref{}, Buffer(fb), image.Rectangle{}) },
			wantErr: ErrUnboundInput,
		},
		{
			name:    "merge without blend program",
			build:   func(b *Builder) { b.Merge("m", nil, Buffer(fb), Buffer(fb), Buffer(fb), image.Rectangle{}) },
			wantErr: ErrWrongProgram,
		},
		{
			name:    "blend program on single stage",
			build:   func(b *Builder) { b.Single("s", over{}, Buffer(fb), Buffer(fb), image.Rectangle{}) },
			wantErr: ErrWrongProgram,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			if _, err := b.Build(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlanIsImmutable(t *testing.T) {
	e := newEnv(t)
	fb := e.filled(t, 2, 2, color.RGBA{})

	b := NewBuilder()
	b.Single("first", addRed{1}, Buffer(fb), Buffer(fb), image.Rectangle{})
	plan, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	b.Single("late", addRed{1}, Buffer(fb), Buffer(fb), image.Rectangle{})

	if plan.Len() != 1 {
		t.Errorf("Len() = %d after builder reuse, want 1", plan.Len())
	}
	stages := plan.Stages()
	stages[0] = Stage{}
	if plan.Stages()[0].Label() != "first" {
		t.Error("Stages() exposed internal slice")
	}
}

func TestExecuteChain(t *testing.T) {
	e := newEnv(t)
	src := e.filled(t, 2, 2, color.RGBA{10, 0, 0, 255})
	dst := e.filled(t, 4, 4, color.RGBA{})

	b := NewBuilder()
	tmp := b.Temp(2, 2)
	b.Single("a", addRed{5}, Buffer(src), tmp, image.Rect(0, 0, 2, 2))
	b.Single("b", addRed{7}, tmp, Buffer(dst), image.Rect(2, 2, 4, 4))
	plan, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := plan.Execute(e.backend, e.pool); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := e.at(t, dst, 3, 3); got != (color.RGBA{22, 0, 0, 255}) {
		t.Errorf("dst inside = %v, want both stages applied once", got)
	}
	if got := e.at(t, dst, 0, 0); got != (color.RGBA{}) {
		t.Errorf("dst outside = %v, want transparent", got)
	}
	if st := e.pool.Stats(); st.InUse != 2 || st.Idle != 1 {
		t.Errorf("pool InUse = %d, Idle = %d; want 2 (src, dst), 1 (temp)", st.InUse, st.Idle)
	}
}

func TestExecuteTwiceDoesNotAccumulate(t *testing.T) {
	e := newEnv(t)
	src := e.filled(t, 1, 1, color.RGBA{10, 0, 0, 255})
	dst := e.filled(t, 1, 1, color.RGBA{})

	for frame := 0; frame < 3; frame++ {
		b := NewBuilder()
		b.Single("a", addRed{5}, Buffer(src), Buffer(dst), image.Rectangle{})
		plan, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		if err := plan.Execute(e.backend, e.pool); err != nil {
			t.Fatal(err)
		}
		if got := e.at(t, dst, 0, 0); got.R != 15 {
			t.Errorf("frame %d: R = %d, want 15", frame, got.R)
		}
	}
}

func TestExecuteReusesTempsWithDisjointLifetimes(t *testing.T) {
	e := newEnv(t)
	src := e.filled(t, 2, 2, color.RGBA{0, 0, 0, 255})
	dst := e.filled(t, 2, 2, color.RGBA{})
	before := e.pool.Stats().Allocations

	b := NewBuilder()
	t1 := b.Temp(2, 2)
	t2 := b.Temp(2, 2)
	t3 := b.Temp(2, 2)
	b.Single("1", addRed{1}, Buffer(src), t1, image.Rectangle{})
	b.Single("2", addRed{1}, t1, t2, image.Rectangle{})
	b.Single("3", addRed{1}, t2, t3, image.Rectangle{})
	b.Single("4", addRed{1}, t3, Buffer(dst), image.Rectangle{})
	plan, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := plan.Execute(e.backend, e.pool); err != nil {
		t.Fatal(err)
	}

	if got := e.pool.Stats().Allocations - before; got != 2 {
		t.Errorf("temp allocations = %d, want 2", got)
	}
	if got := e.at(t, dst, 0, 0); got.R != 4 {
		t.Errorf("R = %d, want 4", got.R)
	}
}

func TestExecuteMerge(t *testing.T) {
	e := newEnv(t)
	base := e.filled(t, 4, 1, color.RGBA{0, 0, 50, 255})
	top := e.filled(t, 1, 1, color.RGBA{0, 60, 0, 255})

	b := NewBuilder()
	b.Merge("canvas", over{}, Buffer(base), Buffer(top), Buffer(base), image.Rect(2, 0, 4, 1))
	plan, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := plan.Execute(e.backend, e.pool); err != nil {
		t.Fatal(err)
	}
	if got := e.at(t, base, 0, 0); got != (color.RGBA{0, 0, 50, 255}) {
		t.Errorf("outside = %v, want preserved", got)
	}
	if got := e.at(t, base, 3, 0); got != (color.RGBA{0, 60, 0, 255}) {
		t.Errorf("inside = %v, want top", got)
	}
}

func TestExecuteErrorRecyclesTemps(t *testing.T) {
	e := newEnv(t)
	src := e.filled(t, 2, 2, color.RGBA{})
	dst := e.filled(t, 2, 2, color.RGBA{})

	b := NewBuilder()
	tmp := b.Temp(2, 2)
	b.Single("1", addRed{1}, Buffer(src), tmp, image.Rectangle{})
	b.Single("2", addRed{1}, tmp, Buffer(dst), image.Rectangle{})
	plan, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	fb := &failingBackend{Backend: e.backend, n: 2}
	err = plan.Execute(fb, e.pool)
	if !errors.Is(err, errBoom) {
		t.Fatalf("Execute() error = %v, want errBoom", err)
	}
	if !strings.Contains(err.Error(), `"2"`) {
		t.Errorf("error %q does not name the failing stage", err)
	}
	if got := e.pool.Stats().InUse; got != 2 {
		t.Errorf("InUse = %d, want 2 (temp recycled)", got)
	}
}

func TestExecutePoolExhaustion(t *testing.T) {
	b := render.NewSoftwareBackend()
	pool := framebuffer.NewPool(b, framebuffer.WithMaxBuffers(1))
	defer b.Destroy()
	src, err := pool.Get(2, 2)
	if err != nil {
		t.Fatal(err)
	}

	bld := NewBuilder()
	tmp := bld.Temp(2, 2)
	bld.Single("1", nil, Buffer(src), tmp, image.Rectangle{})
	plan, err := bld.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := plan.Execute(b, pool); !errors.Is(err, framebuffer.ErrPoolExhausted) {
		t.Errorf("Execute() error = %v, want ErrPoolExhausted", err)
	}
}

func TestPlanString(t *testing.T) {
	b := NewBuilder()
	tmp := b.Temp(1, 1)
	b.Single("s", nil, tmp, tmp, image.Rectangle{})
	p := &Plan{stages: b.stages, temps: b.temps}
	if got := p.String(); !strings.Contains(got, "SingleInput <default>(temp1) -> temp1") {
		t.Errorf("String() = %q", got)
	}
}
