// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

// mulDiv255 multiplies two bytes and divides by 255 with rounding.
// Formula: (a * b + 127) / 255
func mulDiv255(a, b byte) byte {
	return byte((uint16(a)*uint16(b) + 127) / 255)
}

// addClamp adds two bytes and clamps to 255.
func addClamp(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

// subClamp subtracts b from a, clamping to 0.
func subClamp(a, b byte) byte {
	if b >= a {
		return 0
	}
	return a - b
}

// lerp interpolates from a to b by t/255.
func lerp(a, b, t byte) byte {
	if a == b {
		return a
	}
	if b > a {
		return a + mulDiv255(b-a, t)
	}
	return a - mulDiv255(a-b, t)
}

// unpremultiply recovers the straight channel value from a premultiplied one.
func unpremultiply(c, a byte) byte {
	if a == 0 {
		return 0
	}
	v := (uint16(c)*255 + uint16(a)/2) / uint16(a)
	if v > 255 {
		return 255
	}
	return byte(v)
}

func minByte(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

func maxByte(a, b byte) byte {
	if a > b {
		return a
	}
	return b
}

// luma returns the Rec. 709 luminance of a premultiplied color.
func luma(r, g, b byte) byte {
	l := (uint32(r)*2126 + uint32(g)*7152 + uint32(b)*722 + 5000) / 10000
	if l > 255 {
		return 255
	}
	return byte(l)
}
