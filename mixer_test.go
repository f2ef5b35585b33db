// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/compose/render"
)

func TestParseMixerType(t *testing.T) {
	tests := []struct {
		in      string
		want    MixerType
		wantErr bool
	}{
		{"normal", MixerNormal, false},
		{"ADD", MixerAdd, false},
		{"color-dodge", MixerColorDodge, false},
		{"Soft Light", MixerSoftLight, false},
		{"alpha", MixerAlphaMatte, false},
		{"alpha_inverted_matte", MixerAlphaInvertedMatte, false},
		{"luma", MixerLumaMatte, false},
		{"plus", MixerAdd, false},
		{"dissolve", MixerNormal, true},
		{"", MixerNormal, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMixerType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMixerType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownMixer) {
				t.Errorf("error = %v, want ErrUnknownMixer", err)
			}
			if got != tt.want {
				t.Errorf("ParseMixerType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMixerTypeStringRoundTrip(t *testing.T) {
	for mt := MixerType(0); mt < mixerTypeCount; mt++ {
		got, err := ParseMixerType(mt.String())
		if err != nil || got != mt {
			t.Errorf("ParseMixerType(%q) = %v, %v; want %v", mt.String(), got, err, mt)
		}
	}
	if MixerType(200).Valid() {
		t.Error("MixerType(200).Valid() = true")
	}
	if got := MixerType(200).String(); got != "MixerType(200)" {
		t.Errorf("String() = %q", got)
	}
}

func TestMixerTypeIsMatte(t *testing.T) {
	for mt := MixerType(0); mt < mixerTypeCount; mt++ {
		want := mt == MixerAlphaMatte || mt == MixerAlphaInvertedMatte || mt == MixerLumaMatte
		if mt.IsMatte() != want {
			t.Errorf("%v.IsMatte() = %v, want %v", mt, mt.IsMatte(), want)
		}
	}
}

func TestMixerNode(t *testing.T) {
	m := NewMixer(MixerMultiply)
	n := m.Node()
	if n.Kind() != TwoInput {
		t.Fatalf("Kind() = %v, want TwoInput", n.Kind())
	}
	if n.BlendProgram() == nil {
		t.Fatal("BlendProgram() = nil")
	}
	if got := n.Name(); got != "mixer/multiply" {
		t.Errorf("Name() = %q", got)
	}
	if !m.IsSame(MixerMultiply) || m.IsSame(MixerAdd) {
		t.Error("IsSame() compares by type")
	}
	var nilMixer *Mixer
	if nilMixer.IsSame(MixerNormal) || nilMixer.Node() != nil {
		t.Error("nil mixer must not match any type")
	}
}

func TestMixerUpdateValue(t *testing.T) {
	tests := []struct {
		name    string
		param   string
		v       float32
		want    float32
		wantErr bool
	}{
		{"strength", "strength", 0.25, 0.25, false},
		{"opacity alias", "opacity", 0.5, 0.5, false},
		{"clamped high", "strength", 3, 1, false},
		{"clamped low", "strength", -1, 0, false},
		{"unknown", "radius", 2, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMixer(MixerAdd)
			err := m.UpdateValue(tt.param, [4]float32{tt.v})
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdateValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, render.ErrUnknownParameter) {
				t.Errorf("error = %v, want ErrUnknownParameter", err)
			}
			if got := m.Strength(); got != tt.want {
				t.Errorf("Strength() = %v, want %v", got, tt.want)
			}
			if got := m.Node().BlendProgram().Strength(); got != tt.want {
				t.Errorf("program Strength() = %v, want %v", got, tt.want)
			}
		})
	}
}

// nopFilter is a filter program that leaves pixels unchanged.
type nopFilter struct{}

func (nopFilter) Name() string                         { return "nop" }
func (nopFilter) Process(*image.RGBA, image.Rectangle) {}

func TestCheckEffect(t *testing.T) {
	var nilMixer *Mixer
	tests := []struct {
		name    string
		e       Effect
		wantErr error
	}{
		{"filter", NewEffect(nopFilter{}), nil},
		{"copy", NewEffect(nil), nil},
		{"nil", nil, ErrNilEffect},
		{"nil mixer", nilMixer, ErrNilEffect},
		{"mixer", NewMixer(MixerAdd), ErrMixerAsEffect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkEffect(tt.e); !errors.Is(err, tt.wantErr) {
				t.Errorf("checkEffect() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNodeSetValueWithoutParameters(t *testing.T) {
	n := NewEffect(nopFilter{}).Node()
	if err := n.SetValue("amount", [4]float32{1}); !errors.Is(err, render.ErrUnknownParameter) {
		t.Errorf("SetValue() = %v, want ErrUnknownParameter", err)
	}
	if got := NewEffect(nil).Node().Name(); got != "copy" {
		t.Errorf("Name() = %q, want copy", got)
	}
}
