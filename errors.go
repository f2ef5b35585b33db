// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import "errors"

// Compositor and layer errors.
var (
	// ErrInvalidRect is returned for view rects with negative components or
	// extending past the canvas.
	ErrInvalidRect = errors.New("compose: invalid view rect")

	// ErrInvalidCanvas is returned for non-positive canvas dimensions.
	ErrInvalidCanvas = errors.New("compose: invalid canvas size")

	// ErrNilBackend is returned by New without a backend.
	ErrNilBackend = errors.New("compose: nil backend")

	// ErrNilLayer is returned when a nil layer is added.
	ErrNilLayer = errors.New("compose: nil layer")

	// ErrInvalidLayerID is returned for negative ids other than NoMatte.
	ErrInvalidLayerID = errors.New("compose: invalid layer id")

	// ErrDuplicateLayer is returned when a layer id is already registered.
	ErrDuplicateLayer = errors.New("compose: duplicate layer id")

	// ErrLayerAttached is returned when a layer already belongs to a
	// compositor.
	ErrLayerAttached = errors.New("compose: layer already attached")

	// ErrLayerNotFound is returned for unknown layer ids.
	ErrLayerNotFound = errors.New("compose: layer not found")

	// ErrNilEffect is returned when a nil effect is added.
	ErrNilEffect = errors.New("compose: nil effect")

	// ErrMixerAsEffect is returned when a two-input node is attached where
	// a single-input effect is expected.
	ErrMixerAsEffect = errors.New("compose: mixer cannot be used as an effect")

	// ErrNoSource is logged when a layer without a source is submitted.
	ErrNoSource = errors.New("compose: layer has no source")

	// ErrMatteCycle is reported when matte references form a loop.
	ErrMatteCycle = errors.New("compose: matte reference cycle")

	// ErrUnknownMixer is returned by ParseMixerType.
	ErrUnknownMixer = errors.New("compose: unknown mixer type")

	// ErrFrameNotBegun is returned by Submit, Frame and End outside
	// Begin/End.
	ErrFrameNotBegun = errors.New("compose: frame not begun")

	// ErrFrameInProgress is returned by Begin, Resize and AddLayer-style
	// structural changes while a frame is open.
	ErrFrameInProgress = errors.New("compose: frame in progress")

	// ErrDestroyed is returned by every call after Destroy.
	ErrDestroyed = errors.New("compose: compositor destroyed")
)
