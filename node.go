// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compose

import (
	"fmt"

	"github.com/gogpu/compose/render"
)

// NodeKind distinguishes processing nodes.
type NodeKind uint8

const (
	// SingleInput nodes filter one input. Effects are single-input nodes.
	SingleInput NodeKind = iota

	// TwoInput nodes mix a second input over a primary one. Mixers are
	// two-input nodes.
	TwoInput
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case SingleInput:
		return "SingleInput"
	case TwoInput:
		return "TwoInput"
	default:
		return fmt.Sprintf("NodeKind(%d)", k)
	}
}

// Node is a processing stage template: a kind and the program it runs.
// A Node carries no buffer bindings; those are assigned per frame when the
// plan is built.
type Node struct {
	kind   NodeKind
	filter render.Program
	blend  render.BlendProgram
}

// NewSingleInputNode returns a node running p on one input.
// A nil program copies the input unchanged.
func NewSingleInputNode(p render.Program) *Node {
	return &Node{kind: SingleInput, filter: p}
}

// NewTwoInputNode returns a node mixing two inputs with p.
func NewTwoInputNode(p render.BlendProgram) *Node {
	return &Node{kind: TwoInput, blend: p}
}

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// Program returns the node program, nil for a pass-through node.
func (n *Node) Program() render.Program {
	if n.kind == TwoInput {
		if n.blend == nil {
			return nil
		}
		return n.blend
	}
	return n.filter
}

// BlendProgram returns the program of a TwoInput node, nil otherwise.
func (n *Node) BlendProgram() render.BlendProgram { return n.blend }

// Name returns the program name, or "copy" for a pass-through node.
func (n *Node) Name() string {
	if p := n.Program(); p != nil {
		return p.Name()
	}
	return "copy"
}

// SetValue forwards a named parameter to the program.
func (n *Node) SetValue(name string, v [4]float32) error {
	p, ok := n.Program().(render.Parameterized)
	if !ok {
		return fmt.Errorf("%w: %s has no parameter %q", render.ErrUnknownParameter, n.Name(), name)
	}
	return p.SetValue(name, v)
}

// Effect is anything that can be attached to a layer's effect chain or to
// the compositor's global effects.
//
// Only single-input nodes are valid effects. Mixers also satisfy Effect so
// that attaching one by mistake is detected and rejected instead of failing
// to compile in dynamic configurations.
type Effect interface {
	Node() *Node
}

// programEffect is the Effect returned by NewEffect.
type programEffect struct {
	node *Node
}

func (e *programEffect) Node() *Node { return e.node }

// NewEffect wraps a filter or sampler program as an Effect.
func NewEffect(p render.Program) Effect {
	return &programEffect{node: NewSingleInputNode(p)}
}

// checkEffect rejects nil effects and two-input nodes.
func checkEffect(e Effect) error {
	if e == nil || e.Node() == nil {
		return ErrNilEffect
	}
	if n := e.Node(); n.Kind() != SingleInput {
		return fmt.Errorf("%w: %s", ErrMixerAsEffect, n.Name())
	}
	return nil
}
