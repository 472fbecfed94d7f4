// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/ngl"
)

// Program holds the compiled stages of one shader program together
// with their merged reflection.
type Program struct {
	reflection *Reflection
	spirv      map[StageMask][]byte
}

// StageSource pairs one stage with its WGSL source.
type StageSource struct {
	Stage  StageMask
	Source string
}

// NewProgram probes and compiles every stage and merges the per-stage
// reflections. Compilation to SPIR-V goes through naga's backend; a
// source that fails to compile fails the whole program with
// ErrMalformedShader.
func NewProgram(stages ...StageSource) (*Program, error) {
	p := &Program{spirv: make(map[StageMask][]byte)}

	reflections := make([]*Reflection, 0, len(stages))
	backend := spirv.NewBackend(spirv.DefaultOptions())
	for _, s := range stages {
		r, err := Probe(s.Stage, s.Source)
		if err != nil {
			return nil, err
		}
		reflections = append(reflections, r)

		ast, err := naga.Parse(s.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedShader, err)
		}
		ir, err := naga.Lower(ast)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedShader, err)
		}
		code, err := backend.Compile(ir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedShader, err)
		}
		p.spirv[s.Stage] = code

		ngl.Logger().Debug("stage compiled",
			"stage", s.Stage.String(), "spirv_bytes", len(code))
	}

	merged, err := Merge(reflections...)
	if err != nil {
		return nil, err
	}
	p.reflection = merged
	return p, nil
}

// Reflection returns the merged binding interface of all stages.
func (p *Program) Reflection() *Reflection { return p.reflection }

// SPIRV returns the compiled SPIR-V code for the given stage, or nil
// if the program has no such stage.
func (p *Program) SPIRV(stage StageMask) []byte { return p.spirv[stage] }

// Stages returns the mask of stages the program was built with.
func (p *Program) Stages() StageMask {
	var m StageMask
	for s := range p.spirv {
		m |= s
	}
	return m
}
