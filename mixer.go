// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"fmt"
	"strings"

	"github.com/gogpu/compose/internal/blend"
	"github.com/gogpu/compose/render"
)

// MixerType selects how a second input is mixed over a primary input.
type MixerType uint8

const (
	// MixerNormal is source-over.
	MixerNormal MixerType = iota
	MixerAdd
	MixerMultiply
	MixerScreen
	MixerOverlay
	MixerDarken
	MixerLighten
	MixerColorDodge
	MixerColorBurn
	MixerHardLight
	MixerSoftLight
	MixerDifference
	MixerExclusion
	MixerSubtract

	// MixerAlphaMatte keeps the primary where the second input is opaque.
	MixerAlphaMatte

	// MixerAlphaInvertedMatte keeps the primary where the second input is
	// transparent.
	MixerAlphaInvertedMatte

	// MixerLumaMatte keeps the primary in proportion to the luminance of
	// the second input.
	MixerLumaMatte

	mixerTypeCount
)

var mixerTypes = [mixerTypeCount]struct {
	name string
	mode blend.Mode
}{
	MixerNormal:             {"normal", blend.ModeNormal},
	MixerAdd:                {"add", blend.ModeAdd},
	MixerMultiply:           {"multiply", blend.ModeMultiply},
	MixerScreen:             {"screen", blend.ModeScreen},
	MixerOverlay:            {"overlay", blend.ModeOverlay},
	MixerDarken:             {"darken", blend.ModeDarken},
	MixerLighten:            {"lighten", blend.ModeLighten},
	MixerColorDodge:         {"color_dodge", blend.ModeColorDodge},
	MixerColorBurn:          {"color_burn", blend.ModeColorBurn},
	MixerHardLight:          {"hard_light", blend.ModeHardLight},
	MixerSoftLight:          {"soft_light", blend.ModeSoftLight},
	MixerDifference:         {"difference", blend.ModeDifference},
	MixerExclusion:          {"exclusion", blend.ModeExclusion},
	MixerSubtract:           {"subtract", blend.ModeSubtract},
	MixerAlphaMatte:         {"alpha_matte", blend.ModeDestinationIn},
	MixerAlphaInvertedMatte: {"alpha_inverted_matte", blend.ModeDestinationOut},
	MixerLumaMatte:          {"luma_matte", blend.ModeLumaIn},
}

// mixerAliases are accepted by ParseMixerType in addition to the canonical
// names.
var mixerAliases = map[string]MixerType{
	"alpha":          MixerAlphaMatte,
	"alpha_inverted": MixerAlphaInvertedMatte,
	"luma":           MixerLumaMatte,
	"over":           MixerNormal,
	"plus":           MixerAdd,
}

// String returns the configuration name of t.
func (t MixerType) String() string {
	if t < mixerTypeCount {
		return mixerTypes[t].name
	}
	return fmt.Sprintf("MixerType(%d)", t)
}

// Valid reports whether t is a known mixer type.
func (t MixerType) Valid() bool {
	return t < mixerTypeCount
}

// IsMatte reports whether t is one of the matte types.
func (t MixerType) IsMatte() bool {
	return t == MixerAlphaMatte || t == MixerAlphaInvertedMatte || t == MixerLumaMatte
}

// ParseMixerType parses a mixer name. Matching ignores case and accepts
// '-' or ' ' in place of '_'.
func ParseMixerType(s string) (MixerType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for t := MixerType(0); t < mixerTypeCount; t++ {
		if mixerTypes[t].name == key {
			return t, nil
		}
	}
	if t, ok := mixerAliases[key]; ok {
		return t, nil
	}
	return MixerNormal, fmt.Errorf("%w: %q", ErrUnknownMixer, s)
}

// Mixer is a blend-mode strategy implemented as a two-input node.
type Mixer struct {
	typ  MixerType
	prog *mixProgram
	node *Node
}

// NewMixer returns a mixer of type t at full strength.
// Unknown types mix like MixerNormal.
func NewMixer(t MixerType) *Mixer {
	p := &mixProgram{
		typ:      t,
		fn:       render.BlendFunc(blend.FuncFor(t.mode())),
		strength: 1,
	}
	return &Mixer{typ: t, prog: p, node: NewTwoInputNode(p)}
}

func (t MixerType) mode() blend.Mode {
	if t < mixerTypeCount {
		return mixerTypes[t].mode
	}
	return blend.ModeNormal
}

// Type returns the mixer type.
func (m *Mixer) Type() MixerType { return m.typ }

// IsSame reports whether m mixes with type t.
func (m *Mixer) IsSame(t MixerType) bool { return m != nil && m.typ == t }

// Node returns the two-input node behind the mixer.
func (m *Mixer) Node() *Node {
	if m == nil {
		return nil
	}
	return m.node
}

// Strength returns the interpolation factor between the primary input and
// the mixed result.
func (m *Mixer) Strength() float32 { return m.prog.strength }

// UpdateValue forwards a named parameter to the mixer without rebuilding
// it. The only parameter is "strength" (v[0], clamped to [0, 1]).
func (m *Mixer) UpdateValue(name string, v [4]float32) error {
	return m.node.SetValue(name, v)
}

func (m *Mixer) String() string {
	return "mixer(" + m.typ.String() + ")"
}

// mixProgram is the blend program of a Mixer.
type mixProgram struct {
	typ      MixerType
	fn       render.BlendFunc
	strength float32
}

func (p *mixProgram) Name() string            { return "mixer/" + p.typ.String() }
func (p *mixProgram) Blend() render.BlendFunc { return p.fn }
func (p *mixProgram) Strength() float32       { return p.strength }

func (p *mixProgram) SetValue(name string, v [4]float32) error {
	switch name {
	case "strength", "opacity":
		p.strength = min(max(v[0], 0), 1)
		return nil
	default:
		return fmt.Errorf("%w: %s has no parameter %q", render.ErrUnknownParameter, p.Name(), name)
	}
}
