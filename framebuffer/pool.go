// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framebuffer

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/gogpu/compose/render"
	"github.com/gogpu/gputypes"
)

// Pool errors.
var (
	// ErrPoolExhausted is returned when a buffer cannot be allocated.
	ErrPoolExhausted = errors.New("framebuffer: pool exhausted")

	// ErrInvalidSize is returned for non-positive buffer dimensions.
	ErrInvalidSize = errors.New("framebuffer: invalid size")

	// ErrStaleHandle is returned when resolving a handle whose buffer has
	// been recycled, destroyed, or never existed.
	ErrStaleHandle = errors.New("framebuffer: stale handle")

	// ErrPoolDestroyed is returned by Get after Destroy.
	ErrPoolDestroyed = errors.New("framebuffer: pool destroyed")
)

// PoolOption configures a Pool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	maxIdle    int
	maxBuffers int
	format     gputypes.TextureFormat
}

// WithMaxIdle caps the idle buffers kept per size. Buffers recycled beyond
// the cap are destroyed. Zero means unlimited.
func WithMaxIdle(n int) PoolOption {
	return func(o *poolOptions) {
		if n >= 0 {
			o.maxIdle = n
		}
	}
}

// WithMaxBuffers caps the number of live buffers, idle or checked out.
// Get fails with ErrPoolExhausted beyond the cap. Zero means unlimited.
func WithMaxBuffers(n int) PoolOption {
	return func(o *poolOptions) {
		if n >= 0 {
			o.maxBuffers = n
		}
	}
}

// WithFormat sets the pixel format of every buffer the pool allocates.
func WithFormat(f gputypes.TextureFormat) PoolOption {
	return func(o *poolOptions) {
		o.format = f
	}
}

// Stats reports pool activity.
type Stats struct {
	// Allocations counts buffers created through the backend.
	Allocations int
	// Reuses counts Get calls served from idle buffers.
	Reuses int
	// InUse is the number of buffers currently checked out.
	InUse int
	// Idle is the number of buffers waiting for reuse.
	Idle int
	// Destroyed counts buffers released to the backend.
	Destroyed int
	// Rejected counts Recycle calls for buffers that were not checked out.
	Rejected int
}

type sizeKey struct{ w, h int }

// slot is the pool's record of one buffer.
type slot struct {
	fb         *FrameBuffer
	generation uint32
	inUse      bool
}

// Pool is a checkout/recycle cache of frame buffers keyed by exact size.
//
// A request for a size with no idle buffer always allocates; buffers of a
// different size are never handed out. Reuse is last-in first-out, so a
// buffer recycled and immediately requested again is the same buffer.
//
// Thread Safety: Pool is NOT thread-safe. It is used from the frame loop.
type Pool struct {
	backend   render.Backend
	opts      poolOptions
	slots     []slot
	free      []uint32
	idle      map[sizeKey][]uint32
	stats     Stats
	destroyed bool
}

// NewPool creates a pool allocating through backend.
func NewPool(backend render.Backend, opts ...PoolOption) *Pool {
	o := poolOptions{format: render.DefaultFormat}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool{
		backend: backend,
		opts:    o,
		idle:    make(map[sizeKey][]uint32),
	}
}

// SetLogger sets the logger for the framebuffer package.
func (p *Pool) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Backend returns the backend the pool allocates from.
func (p *Pool) Backend() render.Backend { return p.backend }

// Format returns the pixel format of pooled buffers.
func (p *Pool) Format() gputypes.TextureFormat { return p.opts.format }

// Get checks out a buffer of exactly width x height.
// Reused buffers are cleared to transparent.
func (p *Pool) Get(width, height int) (*FrameBuffer, error) {
	if p.destroyed {
		return nil, ErrPoolDestroyed
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %w: %dx%d", ErrPoolExhausted, ErrInvalidSize, width, height)
	}

	key := sizeKey{width, height}
	if bucket := p.idle[key]; len(bucket) > 0 {
		idx := bucket[len(bucket)-1]
		p.idle[key] = bucket[:len(bucket)-1]
		s := &p.slots[idx]
		if err := p.backend.Clear(s.fb.tex, color.RGBA{}); err != nil {
			p.release(idx)
			return nil, fmt.Errorf("framebuffer: clear %dx%d: %w", width, height, err)
		}
		p.checkout(idx)
		p.stats.Reuses++
		return s.fb, nil
	}

	if p.opts.maxBuffers > 0 && p.live() >= p.opts.maxBuffers {
		return nil, fmt.Errorf("%w: %d buffers live", ErrPoolExhausted, p.live())
	}

	desc := render.DefaultTextureDescriptor(uint32(width), uint32(height), p.opts.format)
	desc.Label = fmt.Sprintf("framebuffer %dx%d", width, height)
	tex, err := p.backend.NewTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate %dx%d: %w", ErrPoolExhausted, width, height, err)
	}

	fb := &FrameBuffer{
		width:  width,
		height: height,
		format: tex.Format(),
		tex:    tex,
		pool:   p,
	}
	idx := p.newSlot(fb)
	p.checkout(idx)
	p.stats.Allocations++
	slogger().Debug("framebuffer: allocated", "width", width, "height", height, "live", p.live())
	return fb, nil
}

func (p *Pool) newSlot(fb *FrameBuffer) uint32 {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		p.slots[idx].fb = fb
		return idx
	}
	p.slots = append(p.slots, slot{fb: fb})
	return uint32(len(p.slots) - 1)
}

func (p *Pool) checkout(idx uint32) {
	s := &p.slots[idx]
	s.generation++
	s.inUse = true
	s.fb.handle = Handle{index: idx + 1, generation: s.generation}
}

// Recycle returns fb to the pool. Recycling nil is a no-op. A buffer that is
// not currently checked out from this pool is rejected with a warning.
func (p *Pool) Recycle(fb *FrameBuffer) {
	if fb == nil || p.destroyed {
		return
	}
	idx, ok := p.slotOf(fb)
	if !ok {
		p.stats.Rejected++
		slogger().Warn("framebuffer: recycle of buffer not checked out", "buffer", fb.String())
		return
	}

	s := &p.slots[idx]
	s.inUse = false
	s.generation++
	fb.handle = Handle{}

	key := sizeKey{fb.width, fb.height}
	if p.opts.maxIdle > 0 && len(p.idle[key]) >= p.opts.maxIdle {
		p.release(idx)
		return
	}
	p.idle[key] = append(p.idle[key], idx)
}

// slotOf returns the slot index of a checked-out buffer of this pool.
func (p *Pool) slotOf(fb *FrameBuffer) (uint32, bool) {
	if fb.pool != p || fb.handle.IsZero() {
		return 0, false
	}
	idx := fb.handle.index - 1
	if int(idx) >= len(p.slots) {
		return 0, false
	}
	s := &p.slots[idx]
	if s.fb != fb || !s.inUse || s.generation != fb.handle.generation {
		return 0, false
	}
	return idx, true
}

// release destroys the buffer in slot idx and frees the slot.
func (p *Pool) release(idx uint32) {
	s := &p.slots[idx]
	if s.fb == nil {
		return
	}
	s.fb.tex.Destroy()
	s.fb.handle = Handle{}
	s.fb = nil
	s.inUse = false
	s.generation++
	p.free = append(p.free, idx)
	p.stats.Destroyed++
}

// Resolve returns the buffer checked out under h.
func (p *Pool) Resolve(h Handle) (*FrameBuffer, error) {
	if h.index == 0 || int(h.index) > len(p.slots) {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s := &p.slots[h.index-1]
	if s.fb == nil || !s.inUse || s.generation != h.generation {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return s.fb, nil
}

// Purge destroys every idle buffer. Checked-out buffers are untouched.
func (p *Pool) Purge() {
	n := 0
	for key, bucket := range p.idle {
		for _, idx := range bucket {
			p.release(idx)
			n++
		}
		delete(p.idle, key)
	}
	if n > 0 {
		slogger().Debug("framebuffer: purged idle buffers", "count", n)
	}
}

// Stats returns current counters.
func (p *Pool) Stats() Stats {
	st := p.stats
	st.InUse, st.Idle = 0, 0
	for i := range p.slots {
		switch s := &p.slots[i]; {
		case s.fb == nil:
		case s.inUse:
			st.InUse++
		default:
			st.Idle++
		}
	}
	return st
}

func (p *Pool) live() int {
	return len(p.slots) - len(p.free)
}

// Destroy destroys every buffer, idle or checked out. Further Get calls fail
// with ErrPoolDestroyed and Recycle becomes a no-op.
func (p *Pool) Destroy() {
	if p.destroyed {
		return
	}
	if inUse := p.Stats().InUse; inUse > 0 {
		slogger().Debug("framebuffer: destroying pool with buffers checked out", "in_use", inUse)
	}
	for i := range p.slots {
		p.release(uint32(i))
	}
	p.idle = make(map[sizeKey][]uint32)
	p.destroyed = true
}
