// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/compose/framebuffer"
	"github.com/gogpu/compose/graph"
)

// NoMatte clears a layer's matte reference. It is also the id of a layer
// that has not been assigned one yet.
const NoMatte = -1

// Layer is a composable visual unit: a source, an effect chain, masks, an
// optional matte and the mixer that blends the result onto the canvas.
//
// Layers are configured between frames and submitted by the compositor
// once per frame. A Layer is NOT thread-safe.
type Layer struct {
	id       int
	seq      int
	comp     *Compositor
	rect     Rect
	visible  bool
	z        int
	excluded bool
	isMask   bool

	source  Source
	effects []Effect
	masks   []*Layer

	matteID         int
	matteStillBlend bool
	mixer           *Mixer
	matteMixer      *Mixer

	// result is the persistent canvas-sized result buffer.
	result *framebuffer.FrameBuffer
	pool   *framebuffer.Pool
	// output is this frame's visible result: the source output or result.
	output *framebuffer.FrameBuffer

	submittedFrame uint64
	submitting     bool
	destroyed      bool
}

// NewLayer creates a visible layer with a normal mixer and no matte.
// Pass NoMatte (-1) as id to have the compositor assign one.
func NewLayer(id int) *Layer {
	return &Layer{
		id:      id,
		visible: true,
		matteID: NoMatte,
		mixer:   NewMixer(MixerNormal),
	}
}

// ID returns the layer id.
func (l *Layer) ID() int { return l.id }

// Rect returns the view rect in canvas pixels.
func (l *Layer) Rect() Rect { return l.rect }

// SetRect places the layer. When the layer belongs to a compositor the rect
// is validated against the canvas.
func (l *Layer) SetRect(r Rect) error {
	w, h := maxInt, maxInt
	if l.comp != nil {
		w, h = l.comp.width, l.comp.height
	}
	if err := r.Validate(w, h); err != nil {
		return fmt.Errorf("layer %d: %w", l.id, err)
	}
	l.rect = r
	return nil
}

const maxInt = int(^uint(0) >> 1)

// Visible reports whether the layer is composited onto the canvas.
func (l *Layer) Visible() bool { return l.visible }

// SetVisible shows or hides the layer. Hidden layers are still submitted
// so they can serve as masks or mattes.
func (l *Layer) SetVisible(v bool) { l.visible = v }

// ZOrder returns the render priority; lower is drawn first.
func (l *Layer) ZOrder() int { return l.z }

// SetZOrder sets the render priority. Layers with equal z-order are drawn
// in the order they were added.
func (l *Layer) SetZOrder(z int) { l.z = z }

// ExcludedFromBlend reports whether the layer is left out of the canvas
// pass.
func (l *Layer) ExcludedFromBlend() bool { return l.excluded }

// SetExcludeFromBlend marks a layer that only feeds masks or mattes. It is
// still submitted every frame but never composited onto the canvas.
func (l *Layer) SetExcludeFromBlend(v bool) { l.excluded = v }

// IsMask reports whether the layer has been added as another layer's mask.
func (l *Layer) IsMask() bool { return l.isMask }

// Source returns the layer source.
func (l *Layer) Source() Source { return l.source }

// SetSource replaces the layer source. The previous source is released.
func (l *Layer) SetSource(s Source) {
	if l.source == s {
		return
	}
	if old := l.source; old != nil {
		if l.output != nil && l.output == old.Output() {
			l.output = nil
		}
		old.Release()
	}
	l.source = s
}

// Effects returns a copy of the effect chain.
func (l *Layer) Effects() []Effect { return slices.Clone(l.effects) }

// AddEffect appends an effect to the chain. Mixers are rejected with a
// logged warning and the chain is left unchanged.
func (l *Layer) AddEffect(e Effect) error {
	if err := checkEffect(e); err != nil {
		Logger().Warn("compose: effect rejected", "layer", l.id, "error", err)
		return err
	}
	l.effects = append(l.effects, e)
	return nil
}

// SetEffects replaces the effect chain. If any effect is rejected the chain
// is left unchanged.
func (l *Layer) SetEffects(effects ...Effect) error {
	for _, e := range effects {
		if err := checkEffect(e); err != nil {
			Logger().Warn("compose: effect rejected", "layer", l.id, "error", err)
			return err
		}
	}
	l.effects = slices.Clone(effects)
	return nil
}

// RemoveEffect removes the first occurrence of e and reports whether it was
// present.
func (l *Layer) RemoveEffect(e Effect) bool {
	i := slices.Index(l.effects, e)
	if i < 0 {
		return false
	}
	l.effects = slices.Delete(l.effects, i, i+1)
	return true
}

// ClearEffects empties the effect chain.
func (l *Layer) ClearEffects() { l.effects = nil }

// Masks returns a copy of the mask list.
func (l *Layer) Masks() []*Layer { return slices.Clone(l.masks) }

// AddMask appends a mask layer. The mask is merged over the layer's source
// with the mask's own mixer, in the order masks were added. A nil mask is
// ignored.
func (l *Layer) AddMask(m *Layer) {
	if m == nil {
		return
	}
	m.isMask = true
	l.masks = append(l.masks, m)
}

// ClearMasks empties the mask list.
func (l *Layer) ClearMasks() { l.masks = nil }

// SetMatte sets the layer whose output is composited against this layer's
// result with a mixer of type t, over the full canvas. id is resolved
// through the compositor every frame. NoMatte clears the matte and drops
// the matte mixer. stillBlend keeps the matte layer in the canvas pass.
func (l *Layer) SetMatte(id int, t MixerType, stillBlend bool) {
	if id == NoMatte {
		l.matteID = NoMatte
		l.matteMixer = nil
		l.matteStillBlend = false
		return
	}
	l.matteID = id
	l.matteStillBlend = stillBlend
	if !l.matteMixer.IsSame(t) {
		l.matteMixer = NewMixer(t)
	}
}

// Matte returns the matte layer id, or NoMatte.
func (l *Layer) Matte() int { return l.matteID }

// HasMatte reports whether a matte is set.
func (l *Layer) HasMatte() bool { return l.matteID != NoMatte }

// MatteStillBlend reports whether the matte layer is still composited onto
// the canvas on its own.
func (l *Layer) MatteStillBlend() bool { return l.matteStillBlend }

// MatteMixer returns the matte mixer, nil without a matte.
func (l *Layer) MatteMixer() *Mixer { return l.matteMixer }

// UpdateMatteMixerValue forwards a parameter to the matte mixer.
func (l *Layer) UpdateMatteMixerValue(name string, v [4]float32) error {
	if l.matteMixer == nil {
		return fmt.Errorf("layer %d: no matte mixer", l.id)
	}
	return l.matteMixer.UpdateValue(name, v)
}

// Mixer returns the mixer blending the layer onto the canvas.
func (l *Layer) Mixer() *Mixer { return l.mixer }

// SetMixer switches the canvas mixer. The same type keeps the current mixer
// and its parameters; a different type replaces it.
func (l *Layer) SetMixer(t MixerType) {
	if l.mixer.IsSame(t) {
		return
	}
	l.mixer = NewMixer(t)
}

// UpdateMixerValue forwards a parameter, such as "strength", to the canvas
// mixer without replacing it.
func (l *Layer) UpdateMixerValue(name string, v [4]float32) error {
	return l.mixer.UpdateValue(name, v)
}

// Get returns the layer's visible result for the current frame: the source
// output when there are no effects, masks or matte, otherwise the
// persistent result buffer. It is nil before the first submit.
func (l *Layer) Get() *framebuffer.FrameBuffer { return l.output }

// Result returns the persistent canvas-sized result buffer, nil if the
// layer has never needed one.
func (l *Layer) Result() *framebuffer.FrameBuffer { return l.result }

// Destroy recycles the result buffer, releases the source, and drops both
// mixers and the mask list. Masks that are not registered with a compositor
// are owned by the layer and destroyed with it; registered masks are left
// to their compositor. Destroy is idempotent.
func (l *Layer) Destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	l.releaseResult()
	if l.source != nil {
		l.source.Release()
		l.source = nil
	}
	for _, m := range l.masks {
		if m.comp == nil {
			m.Destroy()
		}
	}
	l.masks = nil
	l.effects = nil
	l.output = nil
	l.mixer = nil
	l.matteMixer = nil
	l.matteID = NoMatte
}

func (l *Layer) releaseResult() {
	if l.result != nil && l.pool != nil {
		l.pool.Recycle(l.result)
	}
	if l.output == l.result {
		l.output = nil
	}
	l.result = nil
}

// ensureResult checks out the persistent result buffer at canvas size.
func (l *Layer) ensureResult(fs *frameState) (*framebuffer.FrameBuffer, error) {
	if l.result != nil && l.pool == fs.ctx.Pool &&
		l.result.Width() == fs.ctx.CanvasWidth && l.result.Height() == fs.ctx.CanvasHeight {
		return l.result, nil
	}
	l.releaseResult()
	fb, err := fs.ctx.Pool.Get(fs.ctx.CanvasWidth, fs.ctx.CanvasHeight)
	if err != nil {
		return nil, err
	}
	l.result, l.pool = fb, fs.ctx.Pool
	return fb, nil
}

// submit renders the layer for the current frame. It runs at most once per
// frame; later calls in the same frame return immediately. Only resource
// failures are returned, configuration problems are logged and the layer
// is skipped.
func (l *Layer) submit(fs *frameState) error {
	if l.submittedFrame == fs.token {
		return nil
	}
	if l.submitting {
		return ErrMatteCycle
	}
	l.submitting = true
	defer func() {
		l.submitting = false
		l.submittedFrame = fs.token
	}()

	log := Logger()
	if l.destroyed {
		return nil
	}
	if l.source == nil {
		log.Error("compose: layer has no source", "layer", l.id, "error", ErrNoSource)
		fs.stats.LayersSkipped++
		return nil
	}
	if l.rect.Empty() && (len(l.effects) > 0 || len(l.masks) > 0) {
		log.Warn("compose: layer has an empty view rect", "layer", l.id)
		fs.stats.LayersSkipped++
		return nil
	}
	if err := l.rect.Validate(fs.ctx.CanvasWidth, fs.ctx.CanvasHeight); err != nil {
		log.Warn("compose: layer skipped", "layer", l.id, "error", err)
		fs.stats.LayersSkipped++
		return nil
	}

	matte, err := l.resolveMatte(fs)
	if err != nil {
		return err
	}

	src, err := l.source.Render(fs.ctx)
	if err != nil {
		return fmt.Errorf("layer %d: source: %w", l.id, err)
	}
	if src == nil {
		log.Error("compose: source produced no output", "layer", l.id)
		fs.stats.LayersSkipped++
		return nil
	}

	if len(l.effects) == 0 && len(l.masks) == 0 {
		if matte == nil {
			// No processing: the result buffer is not needed.
			l.releaseResult()
			l.output = src
			fs.stats.LayersSubmitted++
			return nil
		}
		if err := l.composeMatte(fs, src, matte); err != nil {
			return err
		}
		fs.stats.LayersSubmitted++
		return nil
	}

	// With a matte pending the chain writes to a fresh buffer; the matte
	// step then writes the persistent result.
	var target *framebuffer.FrameBuffer
	if matte == nil {
		target, err = l.ensureResult(fs)
	} else {
		target, err = fs.ctx.Pool.Get(fs.ctx.CanvasWidth, fs.ctx.CanvasHeight)
	}
	if err != nil {
		return fmt.Errorf("layer %d: result buffer: %w", l.id, err)
	}

	if err := l.runChain(fs, src, target); err != nil {
		if matte != nil {
			fs.ctx.Pool.Recycle(target)
		}
		return err
	}

	if matte != nil {
		err := l.composeMatte(fs, target, matte)
		fs.ctx.Pool.Recycle(target)
		if err != nil {
			return err
		}
	} else {
		l.output = target
	}
	fs.stats.LayersSubmitted++
	return nil
}

// resolveMatte looks up and submits the matte layer. It returns nil when
// there is no usable matte this frame.
func (l *Layer) resolveMatte(fs *frameState) (*Layer, error) {
	if l.matteID == NoMatte {
		return nil, nil
	}
	log := Logger()
	matte := fs.comp.lookup(l.matteID)
	if matte == nil {
		log.Warn("compose: matte layer not found", "layer", l.id, "matte", l.matteID)
		return nil, nil
	}
	if err := matte.submit(fs); err != nil {
		if errors.Is(err, ErrMatteCycle) {
			fs.stats.MatteCycles++
			log.Warn("compose: matte skipped", "layer", l.id, "matte", l.matteID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("layer %d: matte %d: %w", l.id, l.matteID, err)
	}
	if matte.Get() == nil {
		log.Warn("compose: matte layer produced no output", "layer", l.id, "matte", l.matteID)
		return nil, nil
	}
	return matte, nil
}

// stripMasks clears the effects and masks of every mask layer. Masks are
// evaluated as plain mattes.
func (l *Layer) stripMasks() {
	for _, m := range l.masks {
		m.ClearEffects()
		m.ClearMasks()
	}
}

// runChain merges the masks and applies the effects, writing the final
// stage into target at the layer's canvas position.
func (l *Layer) runChain(fs *frameState, src, target *framebuffer.FrameBuffer) error {
	log := Logger()

	type maskInput struct {
		mask *Layer
		out  *framebuffer.FrameBuffer
	}
	var masks []maskInput
	l.stripMasks()
	for _, m := range l.masks {
		if err := m.submit(fs); err != nil {
			if errors.Is(err, ErrMatteCycle) {
				fs.stats.MatteCycles++
				log.Warn("compose: mask skipped", "layer", l.id, "mask", m.id, "error", err)
				continue
			}
			return fmt.Errorf("layer %d: mask %d: %w", l.id, m.id, err)
		}
		if out := m.Get(); out != nil {
			masks = append(masks, maskInput{m, out})
		} else {
			log.Warn("compose: mask produced no output", "layer", l.id, "mask", m.id)
		}
	}

	local := l.rect.Local().Bounds()
	view := l.rect.Bounds()
	stages := len(masks) + len(l.effects)

	// Interior stages write layer-sized temporaries at the origin; the last
	// stage writes the canvas-sized target at the layer's position.
	b := graph.NewBuilder()
	dest := func(i int) (graph.Ref, image.Rectangle) {
		if i == stages-1 {
			return graph.Buffer(target), view
		}
		return b.Temp(l.rect.Width, l.rect.Height), local
	}

	cur := graph.Buffer(src)
	i := 0
	for _, m := range masks {
		out, vp := dest(i)
		b.Merge(fmt.Sprintf("layer %d mask %d", l.id, m.mask.id), m.mask.mixer.Node().BlendProgram(),
			cur, graph.Buffer(m.out), out, vp)
		cur = out
		i++
	}
	for _, e := range l.effects {
		out, vp := dest(i)
		n := e.Node()
		b.Single(fmt.Sprintf("layer %d %s", l.id, n.Name()), n.Program(), cur, out, vp)
		cur = out
		i++
	}
	if stages == 0 {
		// Every mask was skipped: place the source as is.
		b.Single(fmt.Sprintf("layer %d copy", l.id), nil, cur, graph.Buffer(target), view)
	}

	plan, err := b.Build()
	if err != nil {
		return fmt.Errorf("layer %d: %w", l.id, err)
	}
	log.Debug("compose: layer plan", "layer", l.id, "stages", plan.Len(), "temps", plan.Temps())
	if err := plan.Execute(fs.ctx.Backend, fs.ctx.Pool); err != nil {
		return fmt.Errorf("layer %d: %w", l.id, err)
	}
	fs.stats.Stages += plan.Len()
	return nil
}

// composeMatte mixes the matte layer's output over pre across the full
// canvas and writes the persistent result.
func (l *Layer) composeMatte(fs *frameState, pre *framebuffer.FrameBuffer, matte *Layer) error {
	result, err := l.ensureResult(fs)
	if err != nil {
		return fmt.Errorf("layer %d: result buffer: %w", l.id, err)
	}
	screen := Rect{Width: fs.ctx.CanvasWidth, Height: fs.ctx.CanvasHeight}.Bounds()

	b := graph.NewBuilder()
	b.Merge(fmt.Sprintf("layer %d matte %d", l.id, matte.id), l.matteMixer.Node().BlendProgram(),
		graph.Buffer(pre), graph.Buffer(matte.Get()), graph.Buffer(result), screen)
	plan, err := b.Build()
	if err != nil {
		return fmt.Errorf("layer %d: matte: %w", l.id, err)
	}
	if err := plan.Execute(fs.ctx.Backend, fs.ctx.Pool); err != nil {
		return fmt.Errorf("layer %d: matte: %w", l.id, err)
	}
	fs.stats.Stages += plan.Len()
	l.output = result
	return nil
}
