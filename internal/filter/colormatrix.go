// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package filter provides the CPU kernels behind effect programs.
//
// Kernels operate in place on a rectangle of a premultiplied *image.RGBA:
// the software backend first samples the pass input into the viewport and
// then lets the kernel rewrite that region.
package filter

import (
	"image"
	"math"
)

// ColorMatrix is a 4x5 color transformation in row-major order:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// Coefficients apply to straight-alpha values in [0, 255]; the fifth column
// is an offset in the same range.
type ColorMatrix [20]float32

// Rec. 709 luminance weights.
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

// Identity returns the pass-through matrix.
func Identity() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Brightness scales color channels: 0 = black, 1 = unchanged.
func Brightness(factor float32) ColorMatrix {
	return ColorMatrix{
		factor, 0, 0, 0, 0,
		0, factor, 0, 0, 0,
		0, 0, factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Contrast scales around mid gray: 0 = flat gray, 1 = unchanged.
func Contrast(factor float32) ColorMatrix {
	offset := 128 * (1 - factor)
	return ColorMatrix{
		factor, 0, 0, 0, offset,
		0, factor, 0, 0, offset,
		0, 0, factor, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// Saturation blends between luminance (0) and the input (1).
func Saturation(factor float32) ColorMatrix {
	inv := 1 - factor
	return ColorMatrix{
		lumR*inv + factor, lumG * inv, lumB * inv, 0, 0,
		lumR * inv, lumG*inv + factor, lumB * inv, 0, 0,
		lumR * inv, lumG * inv, lumB*inv + factor, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Grayscale maps every pixel to its luminance.
func Grayscale() ColorMatrix {
	return Saturation(0)
}

// Sepia applies the classic sepia tone.
func Sepia() ColorMatrix {
	return ColorMatrix{
		0.393, 0.769, 0.189, 0, 0,
		0.349, 0.686, 0.168, 0, 0,
		0.272, 0.534, 0.131, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Invert inverts color channels and keeps alpha.
func Invert() ColorMatrix {
	return ColorMatrix{
		-1, 0, 0, 0, 255,
		0, -1, 0, 0, 255,
		0, 0, -1, 0, 255,
		0, 0, 0, 1, 0,
	}
}

// Opacity scales alpha.
func Opacity(factor float32) ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, factor, 0,
	}
}

// Tint replaces chroma with the given color while keeping luminance.
// Components are straight-alpha values in [0, 1].
func Tint(r, g, b float32) ColorMatrix {
	return ColorMatrix{
		lumR * r, lumG * r, lumB * r, 0, 0,
		lumR * g, lumG * g, lumB * g, 0, 0,
		lumR * b, lumG * b, lumB * b, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// HueRotate rotates hue by the given angle in degrees.
func HueRotate(degrees float64) ColorMatrix {
	rad := degrees * math.Pi / 180
	c := float32(math.Cos(rad))
	s := float32(math.Sin(rad))
	const (
		r = 0.213
		g = 0.715
		b = 0.072
	)
	return ColorMatrix{
		r + c*(1-r) + s*(-r), g + c*(-g) + s*(-g), b + c*(-b) + s*(1-b), 0, 0,
		r + c*(-r) + s*0.143, g + c*(1-g) + s*0.140, b + c*(-b) + s*(-0.283), 0, 0,
		r + c*(-r) + s*(-(1 - r)), g + c*(-g) + s*g, b + c*(1-b) + s*b, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Then returns the matrix applying m first and next second.
func (m ColorMatrix) Then(next ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += next[row*5+k] * m[k*5+col]
			}
			out[row*5+col] = sum
		}
		out[row*5+4] = next[row*5+0]*m[4] + next[row*5+1]*m[9] +
			next[row*5+2]*m[14] + next[row*5+3]*m[19] + next[row*5+4]
	}
	return out
}

// Lerp interpolates between the identity (t=0) and m (t=1).
func (m ColorMatrix) Lerp(t float32) ColorMatrix {
	id := Identity()
	var out ColorMatrix
	for i := range m {
		out[i] = id[i] + (m[i]-id[i])*t
	}
	return out
}

// Apply transforms the pixels of img inside r in place.
func (m *ColorMatrix) Apply(img *image.RGBA, r image.Rectangle) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			a := float32(row[i+3])

			// The matrix expects straight alpha.
			var cr, cg, cb float32
			if a > 0 {
				cr = float32(row[i+0]) * 255 / a
				cg = float32(row[i+1]) * 255 / a
				cb = float32(row[i+2]) * 255 / a
			}

			nr := m[0]*cr + m[1]*cg + m[2]*cb + m[3]*a + m[4]
			ng := m[5]*cr + m[6]*cg + m[7]*cb + m[8]*a + m[9]
			nb := m[10]*cr + m[11]*cg + m[12]*cb + m[13]*a + m[14]
			na := clamp(m[15]*cr + m[16]*cg + m[17]*cb + m[18]*a + m[19])

			f := na / 255
			row[i+0] = toByte(clamp(nr) * f)
			row[i+1] = toByte(clamp(ng) * f)
			row[i+2] = toByte(clamp(nb) * f)
			row[i+3] = toByte(na)
		}
	}
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func toByte(v float32) uint8 {
	return uint8(v + 0.5)
}
