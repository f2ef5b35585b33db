// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compose is a real-time layer compositing engine.
//
// # Overview
//
// A [Compositor] arranges any number of [Layer] values on a shared canvas
// every frame. Each layer has a [Source] producing its pixels, an ordered
// chain of effects, optional masks, an optional matte reference and a
// [Mixer] that blends the layer result onto the canvas.
//
// # Quick Start
//
//	backend := render.NewSoftwareBackend()
//	c, err := compose.New(backend, 1920, 1080)
//	if err != nil {
//	    return err
//	}
//	defer c.Destroy()
//
//	l := compose.NewLayer(compose.NoMatte)
//	l.SetSource(source.NewSolid(color.RGBA{255, 0, 0, 255}))
//	l.AddEffect(effect.Grayscale())
//	_ = c.AddLayer(l)
//	_ = l.SetRect(compose.Rect{Width: 960, Height: 540})
//
//	for running {
//	    if err := c.RenderFrame(); err != nil {
//	        return err
//	    }
//	}
//
// # Frame Graph
//
// Every frame each layer builds an immutable [graph.Plan]: masks are merged
// over the source in the order they were added, effects run in sequence and
// the final stage writes the layer result at the layer's view rect. Interior
// stages use pooled temporaries that are recycled as soon as the plan no
// longer reads them. A layer with a matte mixes the matte layer's output
// over its result across the full canvas.
//
// Layers are submitted in ascending z-order; layers with equal z-order keep
// their insertion order. A layer is processed at most once per frame, even
// when it also serves as another layer's matte.
//
// # Architecture
//
// The module is organized into:
//   - compose: Compositor, Layer, Mixer, effects contract, sources contract
//   - render: backend contract and the CPU SoftwareBackend
//   - framebuffer: frame buffers and the exact-size buffer pool
//   - graph: per-frame processing plans
//   - effect, source: ready-made effects and sources
//   - scenefile: TOML scene descriptions
//   - present: terminal and host GPU presenters
//
// # Logging
//
// compose is silent by default. See [SetLogger].
package compose
