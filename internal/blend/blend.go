// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package blend implements the per-pixel mixing operators used by layer
// mixers and matte mixers.
//
// All operations work on premultiplied alpha values in the range 0-255,
// matching the memory layout of *image.RGBA. The "source" of every operator
// is the second input of a two-input pass (the layer being blended in, the
// mask, or the matte) and the "destination" is the primary input (the
// backdrop).
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import "fmt"

// Mode identifies a mixing operator.
type Mode uint8

const (
	// ModeNormal composites source over destination: S + D*(1-Sa).
	ModeNormal Mode = iota
	// ModeAdd adds source and destination, clamped: min(S+D, 1).
	ModeAdd
	// ModeMultiply multiplies unpremultiplied channels.
	ModeMultiply
	// ModeScreen is the inverse of multiply: 1-(1-S)*(1-D).
	ModeScreen
	// ModeOverlay is HardLight with source and destination swapped.
	ModeOverlay
	// ModeDarken keeps the darker channel.
	ModeDarken
	// ModeLighten keeps the lighter channel.
	ModeLighten
	// ModeColorDodge brightens the destination to reflect the source.
	ModeColorDodge
	// ModeColorBurn darkens the destination to reflect the source.
	ModeColorBurn
	// ModeHardLight multiplies or screens depending on the source.
	ModeHardLight
	// ModeSoftLight is a softer HardLight.
	ModeSoftLight
	// ModeDifference is |S-D|.
	ModeDifference
	// ModeExclusion is S+D-2*S*D.
	ModeExclusion
	// ModeSubtract is max(D-S, 0) on color, source-over on alpha.
	ModeSubtract
	// ModeDestinationIn keeps the destination where the source is opaque: D*Sa.
	ModeDestinationIn
	// ModeDestinationOut keeps the destination where the source is transparent: D*(1-Sa).
	ModeDestinationOut
	// ModeLumaIn keeps the destination scaled by the source luminance.
	ModeLumaIn

	modeCount
)

var modeNames = [modeCount]string{
	ModeNormal:         "Normal",
	ModeAdd:            "Add",
	ModeMultiply:       "Multiply",
	ModeScreen:         "Screen",
	ModeOverlay:        "Overlay",
	ModeDarken:         "Darken",
	ModeLighten:        "Lighten",
	ModeColorDodge:     "ColorDodge",
	ModeColorBurn:      "ColorBurn",
	ModeHardLight:      "HardLight",
	ModeSoftLight:      "SoftLight",
	ModeDifference:     "Difference",
	ModeExclusion:      "Exclusion",
	ModeSubtract:       "Subtract",
	ModeDestinationIn:  "DestinationIn",
	ModeDestinationOut: "DestinationOut",
	ModeLumaIn:         "LumaIn",
}

// String returns the operator name.
func (m Mode) String() string {
	if m < modeCount {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Valid reports whether m names a known operator.
func (m Mode) Valid() bool {
	return m < modeCount
}

// Func is the signature of a mixing operator.
// Parameters are the premultiplied source (sr, sg, sb, sa) and destination
// (dr, dg, db, da); the result is the premultiplied mixed color.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// FuncFor returns the operator for m. Unknown modes fall back to ModeNormal.
func FuncFor(m Mode) Func {
	switch m {
	case ModeNormal:
		return sourceOver
	case ModeAdd:
		return plus
	case ModeMultiply:
		return multiply
	case ModeScreen:
		return screen
	case ModeOverlay:
		return overlay
	case ModeDarken:
		return darken
	case ModeLighten:
		return lighten
	case ModeColorDodge:
		return colorDodge
	case ModeColorBurn:
		return colorBurn
	case ModeHardLight:
		return hardLight
	case ModeSoftLight:
		return softLight
	case ModeDifference:
		return difference
	case ModeExclusion:
		return exclusion
	case ModeSubtract:
		return subtract
	case ModeDestinationIn:
		return destinationIn
	case ModeDestinationOut:
		return destinationOut
	case ModeLumaIn:
		return lumaIn
	default:
		return sourceOver
	}
}

// Row mixes n pixels of src into dst, writing the result to out.
// All three slices hold RGBA premultiplied pixels; out may alias dst.
// strength in [0, 255] linearly interpolates between dst (0) and the mixed
// result (255).
func Row(out, dst, src []byte, n int, fn Func, strength byte) {
	for i := 0; i < n; i++ {
		o := i * 4
		dr, dg, db, da := dst[o], dst[o+1], dst[o+2], dst[o+3]
		r, g, b, a := fn(src[o], src[o+1], src[o+2], src[o+3], dr, dg, db, da)
		if strength != 255 {
			r = lerp(dr, r, strength)
			g = lerp(dg, g, strength)
			b = lerp(db, b, strength)
			a = lerp(da, a, strength)
		}
		out[o], out[o+1], out[o+2], out[o+3] = r, g, b, a
	}
}
