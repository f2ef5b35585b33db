// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"cmp"
	"fmt"
	"image/color"
	"slices"

	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/graph"
	"github.com/gogpu/compose/render"
)

// FrameStats describes the last frame built by a compositor.
type FrameStats struct {
	// LayersSubmitted counts layers that produced a result.
	LayersSubmitted int
	// LayersSkipped counts layers skipped for missing source or bad rect.
	LayersSkipped int
	// LayersComposited counts layers blended onto the canvas.
	LayersComposited int
	// MatteCycles counts matte or mask references skipped as cycles.
	MatteCycles int
	// Stages counts executed processing stages, canvas pass included.
	Stages int
}

// frameState is shared by every layer submitted in one frame.
type frameState struct {
	comp  *Compositor
	ctx   *FrameContext
	token uint64
	stats *FrameStats
}

// Compositor arranges layers onto a canvas every frame.
//
// A frame is built with Begin, Submit, Frame and End, or with RenderFrame:
//
//	for running {
//	    if err := c.RenderFrame(); err != nil {
//	        return err
//	    }
//	}
//
// Begin clears the canvas. Submit renders every layer in z-order, blends the
// visible ones onto the canvas with their mixers and applies the global
// effects. Frame presents the canvas through the backend. End closes the
// frame.
//
// Thread Safety: Compositor is NOT thread-safe. Configure layers and build
// frames from one goroutine.
type Compositor struct {
	backend render.Backend
	pool    *framebuffer.Pool
	width   int
	height  int

	opts    options
	layers  []*Layer
	nextSeq int
	globals []Effect

	canvas  *framebuffer.FrameBuffer
	ctx     FrameContext
	frame   uint64
	inFrame bool
	stats   FrameStats

	destroyed bool
}

// New creates a compositor with a canvas of width x height pixels rendering
// through backend.
func New(backend render.Backend, width, height int, opts ...Option) (*Compositor, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, width, height)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	pool := o.pool
	if pool == nil {
		pool = framebuffer.NewPool(backend, o.poolOptions...)
	}

	c := &Compositor{
		backend: backend,
		pool:    pool,
		width:   width,
		height:  height,
		opts:    o,
	}
	c.propagateLogger(Logger())
	register(c)
	Logger().Info("compose: compositor created", "width", width, "height", height)
	return c, nil
}

// CanvasWidth returns the canvas width in pixels.
func (c *Compositor) CanvasWidth() int { return c.width }

// CanvasHeight returns the canvas height in pixels.
func (c *Compositor) CanvasHeight() int { return c.height }

// Pool returns the frame buffer pool.
func (c *Compositor) Pool() *framebuffer.Pool { return c.pool }

// Backend returns the rendering backend.
func (c *Compositor) Backend() render.Backend { return c.backend }

// FrameIndex returns the index of the next frame to be built.
func (c *Compositor) FrameIndex() uint64 { return c.frame }

// Stats returns counters for the last submitted frame.
func (c *Compositor) Stats() FrameStats { return c.stats }

// Canvas returns the canvas of the current or last frame, nil before the
// first Begin.
func (c *Compositor) Canvas() *framebuffer.FrameBuffer { return c.canvas }

// AddLayer registers a layer. A layer with id NoMatte (-1) is assigned the
// next free id.
func (c *Compositor) AddLayer(l *Layer) error {
	if err := c.editable(); err != nil {
		return err
	}
	if l == nil {
		return ErrNilLayer
	}
	if l.comp != nil {
		return fmt.Errorf("%w: layer %d", ErrLayerAttached, l.id)
	}
	if l.id == NoMatte {
		l.id = c.nextID()
	} else if l.id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLayerID, l.id)
	} else if c.lookup(l.id) != nil {
		return fmt.Errorf("%w: %d", ErrDuplicateLayer, l.id)
	}
	if err := l.rect.Validate(c.width, c.height); err != nil {
		return fmt.Errorf("layer %d: %w", l.id, err)
	}
	l.comp = c
	l.seq = c.nextSeq
	c.nextSeq++
	c.layers = append(c.layers, l)
	return nil
}

func (c *Compositor) nextID() int {
	id := 0
	for _, l := range c.layers {
		if l.id >= id {
			id = l.id + 1
		}
	}
	return id
}

// RemoveLayer unregisters a layer and returns it. Its result buffer is
// recycled; the caller owns the layer afterwards.
func (c *Compositor) RemoveLayer(id int) (*Layer, error) {
	if err := c.editable(); err != nil {
		return nil, err
	}
	i := slices.IndexFunc(c.layers, func(l *Layer) bool { return l.id == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrLayerNotFound, id)
	}
	l := c.layers[i]
	c.layers = slices.Delete(c.layers, i, i+1)
	l.releaseResult()
	l.comp = nil
	return l, nil
}

// Layer returns the layer with the given id, nil if none.
func (c *Compositor) Layer(id int) *Layer { return c.lookup(id) }

func (c *Compositor) lookup(id int) *Layer {
	for _, l := range c.layers {
		if l.id == id {
			return l
		}
	}
	return nil
}

// Layers returns the registered layers in render order: ascending z-order,
// ties in insertion order.
func (c *Compositor) Layers() []*Layer {
	out := slices.Clone(c.layers)
	slices.SortStableFunc(out, func(a, b *Layer) int {
		return cmp.Or(cmp.Compare(a.z, b.z), cmp.Compare(a.seq, b.seq))
	})
	return out
}

// AddGlobalEffect appends an effect applied to the whole canvas after the
// layers are composited. Mixers are rejected.
func (c *Compositor) AddGlobalEffect(e Effect) error {
	if err := checkEffect(e); err != nil {
		Logger().Warn("compose: global effect rejected", "error", err)
		return err
	}
	c.globals = append(c.globals, e)
	return nil
}

// RemoveGlobalEffect removes e and reports whether it was present.
func (c *Compositor) RemoveGlobalEffect(e Effect) bool {
	i := slices.Index(c.globals, e)
	if i < 0 {
		return false
	}
	c.globals = slices.Delete(c.globals, i, i+1)
	return true
}

// ClearGlobalEffects removes every global effect.
func (c *Compositor) ClearGlobalEffects() { c.globals = nil }

// GlobalEffects returns a copy of the global effects.
func (c *Compositor) GlobalEffects() []Effect { return slices.Clone(c.globals) }

// Resize changes the canvas size between frames. Canvas and layer result
// buffers are reacquired at the new size on the next frame; layers whose
// rect no longer fits are skipped until moved.
func (c *Compositor) Resize(width, height int) error {
	if err := c.editable(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, width, height)
	}
	if width == c.width && height == c.height {
		return nil
	}
	c.pool.Recycle(c.canvas)
	c.canvas = nil
	for _, l := range c.layers {
		l.releaseResult()
	}
	c.pool.Purge()
	c.width, c.height = width, height
	Logger().Info("compose: canvas resized", "width", width, "height", height)
	return nil
}

// BackgroundColor returns the premultiplied canvas clear color.
func (c *Compositor) BackgroundColor() color.RGBA { return c.opts.background }

// SetBackgroundColor changes the canvas clear color from the next frame on.
func (c *Compositor) SetBackgroundColor(bg color.RGBA) { c.opts.background = bg }

func (c *Compositor) editable() error {
	switch {
	case c.destroyed:
		return ErrDestroyed
	case c.inFrame:
		return ErrFrameInProgress
	}
	return nil
}

// Begin opens a frame and clears the canvas to the background color.
func (c *Compositor) Begin() error {
	if err := c.editable(); err != nil {
		return err
	}
	if c.canvas == nil {
		fb, err := c.pool.Get(c.width, c.height)
		if err != nil {
			return fmt.Errorf("compose: canvas: %w", err)
		}
		c.canvas = fb
	}
	if err := c.backend.Clear(c.canvas.Texture(), c.opts.background); err != nil {
		return fmt.Errorf("compose: clear canvas: %w", err)
	}
	c.ctx = FrameContext{
		Pool:         c.pool,
		Backend:      c.backend,
		CanvasWidth:  c.width,
		CanvasHeight: c.height,
		Frame:        c.frame,
	}
	c.stats = FrameStats{}
	c.inFrame = true
	return nil
}

// Submit renders every layer, composites the visible ones onto the canvas
// and applies the global effects. Resource failures abort the frame and
// are returned; configuration problems are logged and the affected layer
// is skipped.
func (c *Compositor) Submit() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.inFrame {
		return ErrFrameNotBegun
	}
	fs := &frameState{comp: c, ctx: &c.ctx, token: c.frame + 1, stats: &c.stats}

	ordered := c.Layers()
	for _, l := range ordered {
		l.stripMasks()
	}
	for _, l := range ordered {
		if err := l.submit(fs); err != nil {
			return fmt.Errorf("compose: frame %d: %w", c.frame, err)
		}
	}

	if err := c.composite(ordered); err != nil {
		return fmt.Errorf("compose: frame %d: %w", c.frame, err)
	}
	if err := c.applyGlobals(); err != nil {
		return fmt.Errorf("compose: frame %d: %w", c.frame, err)
	}
	Logger().Debug("compose: frame submitted",
		"frame", c.frame,
		"layers", c.stats.LayersSubmitted,
		"composited", c.stats.LayersComposited,
		"stages", c.stats.Stages)
	return nil
}

// composite blends every visible, non-excluded layer onto the canvas.
func (c *Compositor) composite(ordered []*Layer) error {
	// Matte layers referenced without stillBlend only feed their matte.
	matteOnly := make(map[int]bool)
	for _, l := range ordered {
		if l.HasMatte() && !l.matteStillBlend {
			matteOnly[l.matteID] = true
		}
	}

	canvas := graph.Buffer(c.canvas)
	full := Rect{Width: c.width, Height: c.height}.Bounds()
	b := graph.NewBuilder()
	for _, l := range ordered {
		out := l.Get()
		if !l.visible || l.excluded || l.destroyed || matteOnly[l.id] || out == nil {
			continue
		}
		// Result buffers are canvas sized and already placed; raw source
		// output is placed at the layer rect.
		vp := full
		if out != l.result {
			if l.rect.Empty() {
				continue
			}
			vp = l.rect.Bounds()
		}
		b.Merge(fmt.Sprintf("canvas layer %d", l.id), l.mixer.Node().BlendProgram(),
			canvas, graph.Buffer(out), canvas, vp)
		c.stats.LayersComposited++
	}
	if b.Len() == 0 {
		return nil
	}
	plan, err := b.Build()
	if err != nil {
		return err
	}
	if err := plan.Execute(c.backend, c.pool); err != nil {
		return err
	}
	c.stats.Stages += plan.Len()
	return nil
}

// applyGlobals runs the global effects over the canvas. The last effect
// writes a new canvas buffer and the previous one is recycled.
func (c *Compositor) applyGlobals() error {
	if len(c.globals) == 0 {
		return nil
	}
	next, err := c.pool.Get(c.width, c.height)
	if err != nil {
		return fmt.Errorf("global effects: %w", err)
	}

	b := graph.NewBuilder()
	cur := graph.Buffer(c.canvas)
	for i, e := range c.globals {
		out := graph.Buffer(next)
		if i < len(c.globals)-1 {
			out = b.Temp(c.width, c.height)
		}
		n := e.Node()
		b.Single("global "+n.Name(), n.Program(), cur, out, Rect{Width: c.width, Height: c.height}.Bounds())
		cur = out
	}
	plan, err := b.Build()
	if err == nil {
		err = plan.Execute(c.backend, c.pool)
	}
	if err != nil {
		c.pool.Recycle(next)
		return fmt.Errorf("global effects: %w", err)
	}
	c.stats.Stages += plan.Len()
	c.pool.Recycle(c.canvas)
	c.canvas = next
	return nil
}

// Frame presents the canvas through the backend.
func (c *Compositor) Frame() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.inFrame {
		return ErrFrameNotBegun
	}
	if err := c.backend.Present(c.canvas.Texture()); err != nil {
		return fmt.Errorf("compose: frame %d: %w", c.frame, err)
	}
	return nil
}

// End closes the frame and advances the frame index.
func (c *Compositor) End() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.inFrame {
		return ErrFrameNotBegun
	}
	c.inFrame = false
	c.frame++
	return nil
}

// RenderFrame builds and presents one frame. The frame is closed even when
// a step fails.
func (c *Compositor) RenderFrame() error {
	if err := c.Begin(); err != nil {
		return err
	}
	err := c.Submit()
	if err == nil {
		err = c.Frame()
	}
	if endErr := c.End(); err == nil {
		err = endErr
	}
	return err
}

// Destroy tears down the layers, then the pool, then the backend.
// Destroy is idempotent.
func (c *Compositor) Destroy() {
	if c.destroyed {
		return
	}
	for _, l := range c.layers {
		l.Destroy()
		l.comp = nil
	}
	c.layers = nil
	c.globals = nil
	c.pool.Recycle(c.canvas)
	c.canvas = nil
	c.pool.Destroy()
	c.backend.Destroy()
	c.destroyed = true
	c.inFrame = false
	unregister(c)
}
