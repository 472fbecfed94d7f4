// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader probes compiled shader interfaces.
//
// A Reflection maps binding names to their slot, kind, byte size and the
// stages they are visible in. Reflections for individual stages are
// produced by Probe and combined with Merge, which ORs stage visibility
// for bindings shared across stages and rejects disagreements on kind or
// size.
package shader

import (
	"errors"

	"github.com/gogpu/ngl/layout"
)

var (
	// ErrMalformedShader is returned when shader source fails to parse
	// or lower.
	ErrMalformedShader = errors.New("shader: malformed shader")

	// ErrBindingMismatch is returned when the same binding name appears
	// in several stages with an incompatible kind or size.
	ErrBindingMismatch = errors.New("shader: binding mismatch across stages")
)

// StageMask is a bit set of shader stages a binding is visible in.
type StageMask uint32

const (
	StageVertex StageMask = 1 << iota
	StageFragment
	StageCompute
)

func (m StageMask) String() string {
	switch m {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	}
	s := ""
	if m&StageVertex != 0 {
		s += "vertex|"
	}
	if m&StageFragment != 0 {
		s += "fragment|"
	}
	if m&StageCompute != 0 {
		s += "compute|"
	}
	if s == "" {
		return "none"
	}
	return s[:len(s)-1]
}

// BindingKind classifies a reflected interface point.
type BindingKind uint8

const (
	KindUniformBuffer BindingKind = iota
	KindStorageBuffer
	KindSampler
	KindTexture
	KindPushConstant
	KindAttribute
)

var kindNames = [...]string{
	KindUniformBuffer: "uniform buffer",
	KindStorageBuffer: "storage buffer",
	KindSampler:       "sampler",
	KindTexture:       "texture",
	KindPushConstant:  "push constant",
	KindAttribute:     "attribute",
}

func (k BindingKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Binding is one reflected interface point of a compiled program.
// Immutable after reflection.
type Binding struct {
	// Name is the binding's declared name.
	Name string

	// Kind classifies the binding.
	Kind BindingKind

	// Group is the descriptor group the binding lives in. Zero for
	// attributes and push constants.
	Group int

	// Binding is the slot within the group, or the attribute location
	// for KindAttribute.
	Binding int

	// Size is the byte size of the binding's data. Zero for samplers
	// and textures.
	Size int

	// Stages is the set of stages the binding is visible in.
	Stages StageMask

	// Fields holds the block member layout for buffer-backed kinds.
	Fields []layout.Field
}

// Reflection maps binding names to their reflected description for one
// or more shader stages.
type Reflection struct {
	bindings map[string]*Binding
	order    []string
}

func newReflection() *Reflection {
	return &Reflection{bindings: make(map[string]*Binding)}
}

func (r *Reflection) add(b *Binding) {
	if _, ok := r.bindings[b.Name]; !ok {
		r.order = append(r.order, b.Name)
	}
	r.bindings[b.Name] = b
}

// Lookup returns the binding with the given name, or nil.
func (r *Reflection) Lookup(name string) *Binding {
	return r.bindings[name]
}

// Len returns the number of distinct bindings.
func (r *Reflection) Len() int { return len(r.order) }

// Names returns the binding names in declaration order.
func (r *Reflection) Names() []string { return r.order }

// Count returns the number of bindings of the given kind.
func (r *Reflection) Count(kind BindingKind) int {
	n := 0
	for _, name := range r.order {
		if r.bindings[name].Kind == kind {
			n++
		}
	}
	return n
}
