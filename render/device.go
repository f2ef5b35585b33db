// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/gputypes"

// TextureDescriptor describes parameters for creating a texture.
// This mirrors the WebGPU GPUTextureDescriptor specification.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be sampled by a pass.
	TextureUsageTextureBinding

	// TextureUsageRenderAttachment allows the texture to be a pass output.
	TextureUsageRenderAttachment
)

// DefaultFormat is the pixel format of every frame buffer unless a pool is
// configured otherwise.
const DefaultFormat = gputypes.TextureFormatRGBA8Unorm

// DefaultTextureDescriptor returns a descriptor for a frame buffer: sampled,
// rendered into, and copyable in both directions.
func DefaultTextureDescriptor(width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	if format == gputypes.TextureFormatUndefined {
		format = DefaultFormat
	}
	return TextureDescriptor{
		Width:  width,
		Height: height,
		Format: format,
		Usage: TextureUsageTextureBinding | TextureUsageRenderAttachment |
			TextureUsageCopySrc | TextureUsageCopyDst,
	}
}

// Texture is a backend-owned image target.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// Label returns the debug label given at creation.
	Label() string

	// Destroy releases the resources behind the texture.
	// Destroy is idempotent.
	Destroy()
}
