// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the device contract the compositor renders through
// and a CPU reference implementation of it.
//
// # Architecture
//
// A Backend owns textures and runs passes. A Pass is one processing stage
// with explicit bindings: a program, one or two inputs, an output and a
// viewport inside the output. The compositor builds a fresh list of passes
// every frame and hands them to the backend in order.
//
//	┌────────────┐   Pass{Input, Second, Output, Viewport}   ┌─────────┐
//	│ compositor │ ────────────────────────────────────────▶ │ Backend │
//	└────────────┘                                            └─────────┘
//
// Programs come in three shapes:
//   - FilterProgram rewrites a sampled region in place
//   - SamplerProgram replaces the default stretch sampling
//   - BlendProgram mixes the second input over the first
//
// # Backends
//
// SoftwareBackend executes every pass on the CPU and is used for headless
// rendering and tests. GPU hosts supply their own Backend and own the device
// lifecycle; the compositor never creates or destroys a device. The
// present/gpucanvas package uploads finished frames to a gpucontext host.
package render
