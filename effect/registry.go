// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package effect

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/compose"
)

// ErrUnknownEffect is returned by New for names it does not know.
var ErrUnknownEffect = errors.New("effect: unknown effect")

// Params holds named effect parameters, as passed to Node.SetValue.
type Params map[string][4]float32

var constructors = map[string]func() compose.Effect{
	"grayscale":  func() compose.Effect { return Grayscale() },
	"sepia":      func() compose.Effect { return Sepia() },
	"invert":     func() compose.Effect { return Invert() },
	"brightness": func() compose.Effect { return Brightness(1) },
	"contrast":   func() compose.Effect { return Contrast(1) },
	"saturation": func() compose.Effect { return Saturation(1) },
	"hue_rotate": func() compose.Effect { return HueRotate(0) },
	"opacity":    func() compose.Effect { return Opacity(1) },
	"tint":       func() compose.Effect { return Tint(1, 1, 1) },
	"blur":       func() compose.Effect { return NewBlur(0) },
	"sharpen":    func() compose.Effect { return NewSharpen(0) },
	"transform":  func() compose.Effect { return NewTransform() },
	"copy":       func() compose.Effect { return compose.NewEffect(nil) },
}

// Names returns the effect names accepted by New, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(constructors))
}

// New creates the effect registered under name and applies params in key
// order.
func New(name string, params Params) (compose.Effect, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	e := ctor()
	for _, k := range slices.Sorted(maps.Keys(params)) {
		if err := e.Node().SetValue(k, params[k]); err != nil {
			return nil, fmt.Errorf("effect %s: %w", name, err)
		}
	}
	return e, nil
}
