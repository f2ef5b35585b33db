// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

import "testing"

type rgba [4]byte

func apply(m Mode, src, dst rgba) rgba {
	r, g, b, a := FuncFor(m)(src[0], src[1], src[2], src[3], dst[0], dst[1], dst[2], dst[3])
	return rgba{r, g, b, a}
}

func TestMulDiv255(t *testing.T) {
	tests := []struct {
		name string
		a, b byte
		want byte
	}{
		{"zero * zero", 0, 0, 0},
		{"zero * max", 0, 255, 0},
		{"max * max", 255, 255, 255},
		{"half * half", 128, 128, 64},
		{"255 * 128", 255, 128, 128},
		{"1 * 1", 1, 1, 0},
		{"100 * 100", 100, 100, 39},
		{"200 * 200", 200, 200, 157},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mulDiv255(tt.a, tt.b); got != tt.want {
				t.Errorf("mulDiv255(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFuncFor(t *testing.T) {
	red := rgba{255, 0, 0, 255}
	blue := rgba{0, 0, 255, 255}
	white := rgba{255, 255, 255, 255}
	black := rgba{0, 0, 0, 255}
	transparent := rgba{0, 0, 0, 0}
	gray := rgba{100, 150, 200, 255}

	tests := []struct {
		name     string
		mode     Mode
		src, dst rgba
		want     rgba
	}{
		{"normal opaque source wins", ModeNormal, red, blue, red},
		{"normal transparent source keeps backdrop", ModeNormal, transparent, gray, gray},
		{"add sums channels", ModeAdd, rgba{100, 50, 0, 255}, rgba{100, 250, 10, 255}, rgba{200, 255, 10, 255}},
		{"subtract clamps at zero", ModeSubtract, rgba{50, 200, 0, 255}, gray, rgba{50, 0, 200, 255}},
		{"multiply by white is identity", ModeMultiply, white, gray, gray},
		{"multiply by black is black", ModeMultiply, black, gray, black},
		{"screen with black is identity", ModeScreen, black, gray, gray},
		{"difference of equal colors is black", ModeDifference, gray, gray, black},
		{"darken picks minimum", ModeDarken, rgba{50, 200, 100, 255}, gray, rgba{50, 150, 100, 255}},
		{"lighten picks maximum", ModeLighten, rgba{50, 200, 100, 255}, gray, rgba{100, 200, 200, 255}},
		{"destination in opaque matte keeps backdrop", ModeDestinationIn, white, gray, gray},
		{"destination in clear matte removes backdrop", ModeDestinationIn, transparent, gray, transparent},
		{"destination out opaque matte removes backdrop", ModeDestinationOut, black, gray, transparent},
		{"destination out clear matte keeps backdrop", ModeDestinationOut, transparent, gray, gray},
		{"luma white keeps backdrop", ModeLumaIn, white, gray, gray},
		{"luma black removes backdrop", ModeLumaIn, black, gray, transparent},
		{"separable transparent source keeps backdrop", ModeOverlay, transparent, gray, gray},
		{"separable transparent backdrop takes source", ModeHardLight, gray, transparent, gray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apply(tt.mode, tt.src, tt.dst); got != tt.want {
				t.Errorf("%v(%v, %v) = %v, want %v", tt.mode, tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestFuncForUnknownFallsBackToNormal(t *testing.T) {
	src := rgba{10, 20, 30, 255}
	dst := rgba{200, 200, 200, 255}
	if got, want := apply(Mode(200), src, dst), apply(ModeNormal, src, dst); got != want {
		t.Errorf("unknown mode = %v, want normal %v", got, want)
	}
}

func TestNonCommutativeModes(t *testing.T) {
	a := rgba{200, 40, 40, 255}
	b := rgba{30, 30, 220, 128}
	for _, m := range []Mode{ModeNormal, ModeSubtract, ModeDestinationIn, ModeOverlay} {
		if apply(m, a, b) == apply(m, b, a) {
			t.Errorf("%v should not be commutative for %v and %v", m, a, b)
		}
	}
}

func TestRowStrength(t *testing.T) {
	dst := []byte{0, 0, 255, 255, 10, 20, 30, 255}
	src := []byte{255, 0, 0, 255, 255, 0, 0, 255}

	t.Run("zero strength keeps destination", func(t *testing.T) {
		out := make([]byte, len(dst))
		Row(out, dst, src, 2, FuncFor(ModeNormal), 0)
		for i := range out {
			if out[i] != dst[i] {
				t.Fatalf("out = %v, want %v", out, dst)
			}
		}
	})

	t.Run("full strength takes mixed result", func(t *testing.T) {
		out := make([]byte, len(dst))
		Row(out, dst, src, 2, FuncFor(ModeNormal), 255)
		for i := range out {
			if out[i] != src[i] {
				t.Fatalf("out = %v, want %v", out, src)
			}
		}
	})

	t.Run("half strength interpolates", func(t *testing.T) {
		out := make([]byte, 4)
		Row(out, dst[:4], src[:4], 1, FuncFor(ModeNormal), 128)
		want := []byte{128, 0, 127, 255}
		for i := range want {
			if out[i] != want[i] {
				t.Fatalf("out = %v, want %v", out, want)
			}
		}
	})

	t.Run("output may alias destination", func(t *testing.T) {
		buf := append([]byte(nil), dst...)
		Row(buf, buf, src, 2, FuncFor(ModeAdd), 255)
		if buf[0] != 255 || buf[2] != 255 || buf[4] != 255 || buf[5] != 20 {
			t.Errorf("aliased row = %v", buf)
		}
	})
}

func TestModeString(t *testing.T) {
	if got := ModeLumaIn.String(); got != "LumaIn" {
		t.Errorf("String() = %q, want LumaIn", got)
	}
	if got := Mode(99).String(); got != "Mode(99)" {
		t.Errorf("String() = %q, want Mode(99)", got)
	}
	if Mode(99).Valid() {
		t.Error("Mode(99).Valid() = true")
	}
}
