// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"image/color"

	"github.com/gogpu/compose/framebuffer"
)

// Option configures a Compositor during creation.
//
// Example:
//
//	// Default pool over the backend
//	c, err := compose.New(backend, 1920, 1080)
//
//	// Shared pool and an opaque background
//	c, err := compose.New(backend, 1920, 1080,
//	    compose.WithPool(pool),
//	    compose.WithBackgroundColor(color.RGBA{A: 255}))
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	pool        *framebuffer.Pool
	poolOptions []framebuffer.PoolOption
	background  color.RGBA
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{
		pool:       nil, // created over the backend if nil
		background: color.RGBA{},
	}
}

// WithPool sets the frame buffer pool. The pool must allocate from the same
// backend passed to New. The compositor destroys it on Destroy.
func WithPool(p *framebuffer.Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithPoolOptions configures the pool the compositor creates when WithPool
// is not given.
func WithPoolOptions(opts ...framebuffer.PoolOption) Option {
	return func(o *options) {
		o.poolOptions = append(o.poolOptions, opts...)
	}
}

// WithBackgroundColor sets the premultiplied color the canvas is cleared to
// at the start of every frame. Default is transparent.
func WithBackgroundColor(c color.RGBA) Option {
	return func(o *options) {
		o.background = c
	}
}
