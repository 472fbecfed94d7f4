// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"testing"

	"github.com/gogpu/ngl/layout"
)

const fragSource = `
struct Params {
    color: vec4<f32>,
    opacity: f32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex0_sampler: sampler;
@group(0) @binding(2) var tex0: texture_2d<f32>;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(tex0, tex0_sampler, uv) * params.color * params.opacity;
}
`

const vertSource = `
struct VertexInput {
    @location(0) ngl_position: vec3<f32>,
    @location(1) ngl_uvcoord: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;

struct Params {
    color: vec4<f32>,
    opacity: f32,
}

@vertex
fn vs_main(input: VertexInput) -> VertexOutput {
    var output: VertexOutput;
    output.position = vec4<f32>(input.ngl_position, 1.0);
    output.uv = input.ngl_uvcoord;
    return output;
}
`

func TestScanBindings(t *testing.T) {
	info := scanSource(fragSource)
	r := newReflection()
	if err := info.scanBindings(StageFragment, r); err != nil {
		t.Fatalf("scanBindings: %v", err)
	}

	tests := []struct {
		name    string
		kind    BindingKind
		binding int
		size    int
	}{
		{"params", KindUniformBuffer, 0, 32},
		{"tex0_sampler", KindSampler, 1, 0},
		{"tex0", KindTexture, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := r.Lookup(tt.name)
			if b == nil {
				t.Fatalf("binding %q not found", tt.name)
			}
			if b.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", b.Kind, tt.kind)
			}
			if b.Binding != tt.binding {
				t.Errorf("binding = %d, want %d", b.Binding, tt.binding)
			}
			if b.Size != tt.size {
				t.Errorf("size = %d, want %d", b.Size, tt.size)
			}
			if b.Stages != StageFragment {
				t.Errorf("stages = %v, want fragment", b.Stages)
			}
		})
	}
}

func TestScanBlockFields(t *testing.T) {
	info := scanSource(fragSource)
	r := newReflection()
	if err := info.scanBindings(StageFragment, r); err != nil {
		t.Fatalf("scanBindings: %v", err)
	}
	b := r.Lookup("params")
	if len(b.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(b.Fields))
	}
	if b.Fields[0].Name != "color" || b.Fields[0].Type != layout.TypeVec4 {
		t.Errorf("field 0 = %v %v, want color vec4", b.Fields[0].Name, b.Fields[0].Type)
	}
	if b.Fields[1].Name != "opacity" || b.Fields[1].Type != layout.TypeFloat {
		t.Errorf("field 1 = %v %v, want opacity float", b.Fields[1].Name, b.Fields[1].Type)
	}
}

func TestScanAttributes(t *testing.T) {
	info := scanSource(vertSource)
	r := newReflection()
	if err := info.scanAttributes(r); err != nil {
		t.Fatalf("scanAttributes: %v", err)
	}

	pos := r.Lookup("ngl_position")
	if pos == nil || pos.Kind != KindAttribute {
		t.Fatal("ngl_position attribute not found")
	}
	if pos.Binding != 0 || pos.Size != 12 {
		t.Errorf("ngl_position location %d size %d, want 0 and 12", pos.Binding, pos.Size)
	}
	uv := r.Lookup("ngl_uvcoord")
	if uv == nil || uv.Binding != 1 || uv.Size != 8 {
		t.Fatal("ngl_uvcoord attribute not reflected at location 1 size 8")
	}
}

func TestScanStorageBuffer(t *testing.T) {
	src := `
struct Particles {
    velocity: array<vec4<f32>, 64>,
}
@group(0) @binding(0) var<storage, read_write> particles: Particles;
`
	info := scanSource(src)
	r := newReflection()
	if err := info.scanBindings(StageCompute, r); err != nil {
		t.Fatalf("scanBindings: %v", err)
	}
	b := r.Lookup("particles")
	if b == nil || b.Kind != KindStorageBuffer {
		t.Fatal("storage binding not reflected")
	}
	if b.Size != 64*16 {
		t.Errorf("size = %d, want %d", b.Size, 64*16)
	}
}

func TestScanArrayMemberBetweenScalars(t *testing.T) {
	src := `
struct Uniforms {
    opacity: f32,
    weights: array<vec4<f32>, 4>,
    scale: vec2<f32>,
}
@group(0) @binding(0) var<uniform> ngl_uniforms: Uniforms;
`
	info := scanSource(src)
	r := newReflection()
	if err := info.scanBindings(StageFragment, r); err != nil {
		t.Fatalf("scanBindings: %v", err)
	}
	b := r.Lookup("ngl_uniforms")
	if b == nil {
		t.Fatal("uniform binding not reflected")
	}
	// The comma inside array<vec4<f32>, 4> must not split the member.
	if len(b.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(b.Fields))
	}
	w := b.Fields[1]
	if w.Name != "weights" || w.Type != layout.TypeVec4 || w.Count != 4 {
		t.Errorf("weights field = %s %v x%d, want weights vec4 x4", w.Name, w.Type, w.Count)
	}
	if b.Fields[2].Name != "scale" || b.Fields[2].Type != layout.TypeVec2 {
		t.Errorf("field 2 = %s %v, want scale vec2", b.Fields[2].Name, b.Fields[2].Type)
	}
}

func TestProbeValid(t *testing.T) {
	r, err := Probe(StageFragment, fragSource)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	if got := r.Count(KindTexture); got != 1 {
		t.Errorf("texture count = %d, want 1", got)
	}
}

func TestProbeMalformed(t *testing.T) {
	_, err := Probe(StageFragment, "@fragment fn broken( -> {")
	if !errors.Is(err, ErrMalformedShader) {
		t.Errorf("err = %v, want ErrMalformedShader", err)
	}
}

func TestMergeStageMasks(t *testing.T) {
	vert, err := Probe(StageVertex, vertSource)
	if err != nil {
		t.Fatalf("Probe vertex: %v", err)
	}
	frag, err := Probe(StageFragment, fragSource)
	if err != nil {
		t.Fatalf("Probe fragment: %v", err)
	}
	merged, err := Merge(vert, frag)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	b := merged.Lookup("params")
	if b == nil {
		t.Fatal("merged binding params not found")
	}
	if b.Stages != StageVertex|StageFragment {
		t.Errorf("stages = %v, want vertex|fragment", b.Stages)
	}
}

func TestMergeKindMismatch(t *testing.T) {
	a := newReflection()
	a.add(&Binding{Name: "shared", Kind: KindUniformBuffer, Size: 16, Stages: StageVertex})
	b := newReflection()
	b.add(&Binding{Name: "shared", Kind: KindStorageBuffer, Size: 16, Stages: StageFragment})

	if _, err := Merge(a, b); !errors.Is(err, ErrBindingMismatch) {
		t.Errorf("err = %v, want ErrBindingMismatch", err)
	}
}

func TestMergeSizeMismatch(t *testing.T) {
	a := newReflection()
	a.add(&Binding{Name: "shared", Kind: KindUniformBuffer, Size: 16, Stages: StageVertex})
	b := newReflection()
	b.add(&Binding{Name: "shared", Kind: KindUniformBuffer, Size: 32, Stages: StageFragment})

	if _, err := Merge(a, b); !errors.Is(err, ErrBindingMismatch) {
		t.Errorf("err = %v, want ErrBindingMismatch", err)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := newReflection()
	a.add(&Binding{Name: "shared", Kind: KindUniformBuffer, Size: 16, Stages: StageVertex})
	b := newReflection()
	b.add(&Binding{Name: "shared", Kind: KindUniformBuffer, Size: 16, Stages: StageFragment})

	if _, err := Merge(a, b); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if a.Lookup("shared").Stages != StageVertex {
		t.Error("Merge mutated its input reflection")
	}
}
