// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/ngl"
)

// Probe reflects the binding interface of one shader stage from its
// WGSL source. The source is validated through naga's parser and
// lowering pass; sources naga rejects fail with ErrMalformedShader.
//
// The returned Reflection is immutable. Probing multiple stages of one
// program and combining the results is Merge's job.
func Probe(stage StageMask, source string) (*Reflection, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShader, err)
	}
	if _, err := naga.Lower(ast); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedShader, err)
	}

	info := scanSource(source)
	r := newReflection()
	if err := info.scanBindings(stage, r); err != nil {
		return nil, err
	}
	if stage == StageVertex {
		if err := info.scanAttributes(r); err != nil {
			return nil, err
		}
	}

	log := ngl.Logger()
	for _, name := range r.order {
		b := r.bindings[name]
		log.Debug("binding probed", "stage", stage.String(),
			"name", b.Name, "kind", b.Kind.String(),
			"group", b.Group, "binding", b.Binding, "size", b.Size)
	}
	return r, nil
}

// Merge combines per-stage reflections into one program-wide
// reflection. A binding appearing in several stages must agree on kind
// and size; its stage masks are ORed. Disagreement is a build defect
// and fails with ErrBindingMismatch.
func Merge(stages ...*Reflection) (*Reflection, error) {
	merged := newReflection()
	for _, r := range stages {
		if r == nil {
			continue
		}
		for _, name := range r.order {
			b := r.bindings[name]
			prev, ok := merged.bindings[name]
			if !ok {
				clone := *b
				merged.add(&clone)
				continue
			}
			if prev.Kind != b.Kind {
				return nil, fmt.Errorf("%w: %q is %s in one stage and %s in another",
					ErrBindingMismatch, name, prev.Kind, b.Kind)
			}
			if prev.Size != b.Size {
				return nil, fmt.Errorf("%w: %q is %d bytes in one stage and %d in another",
					ErrBindingMismatch, name, prev.Size, b.Size)
			}
			prev.Stages |= b.Stages
		}
	}
	return merged, nil
}
