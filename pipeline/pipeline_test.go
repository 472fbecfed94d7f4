// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/backend"
	"github.com/gogpu/ngl/backend/native"
	"github.com/gogpu/ngl/layout"
	"github.com/gogpu/ngl/scene"
	"github.com/gogpu/ngl/shader"
)

const vertSource = `
struct Transforms {
    modelview: mat4x4<f32>,
    projection: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> ngl_transforms: Transforms;

struct VertexInput {
    @location(0) ngl_position: vec3<f32>,
    @location(1) ngl_uvcoord: vec2<f32>,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(v: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = ngl_transforms.projection * ngl_transforms.modelview * vec4<f32>(v.ngl_position, 1.0);
    out.uv = v.ngl_uvcoord;
    return out;
}
`

const fragSource = `
struct Uniforms {
    opacity: f32,
    tex0_coord_matrix: mat4x4<f32>,
    tex0_dimensions: vec2<f32>,
    tex0_ts: f32,
}

@group(0) @binding(1) var<uniform> ngl_uniforms: Uniforms;
@group(0) @binding(2) var tex0: texture_2d<f32>;
@group(0) @binding(3) var tex0_sampler: sampler;
@group(0) @binding(4) var<storage, read> weights: array<vec4<f32>, 8>;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let tc = ngl_uniforms.tex0_coord_matrix * vec4<f32>(uv, 0.0, 1.0);
    let color = textureSample(tex0, tex0_sampler, tc.xy);
    return color * ngl_uniforms.opacity * weights[0].x;
}
`

type testSurface struct {
	w, h   int
	format gputypes.TextureFormat
}

func (s *testSurface) Width() int  { return s.w }
func (s *testSurface) Height() int { return s.h }

func (s *testSurface) Format() gputypes.TextureFormat { return s.format }

func mergedReflection(t *testing.T) *shader.Reflection {
	t.Helper()
	vr, err := shader.Probe(shader.StageVertex, vertSource)
	if err != nil {
		t.Fatalf("probe vertex: %v", err)
	}
	fr, err := shader.Probe(shader.StageFragment, fragSource)
	if err != nil {
		t.Fatalf("probe fragment: %v", err)
	}
	r, err := shader.Merge(vr, fr)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	return r
}

func testResources(t *testing.T) (*Resources, *scene.Texture) {
	t.Helper()

	attrs := scene.NewDict()
	attrs.Set(AttrPosition, scene.NewBuffer(layout.TypeVec3, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))
	attrs.Set(AttrUVCoord, scene.NewBuffer(layout.TypeVec2, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))
	// Reserved name missing from the shader: dropped silently.
	attrs.Set(AttrNormal, scene.NewBuffer(layout.TypeVec3, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))
	// Non-reserved miss: dropped with a warning.
	attrs.Set("color", scene.NewBuffer(layout.TypeVec4, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))

	opacity := scene.NewUniform(layout.TypeFloat)
	if err := opacity.SetFloat(0.5); err != nil {
		t.Fatal(err)
	}
	uniforms := scene.NewDict()
	uniforms.Set("opacity", opacity)
	uniforms.Set("unused_scale", scene.NewUniform(layout.TypeFloat))

	tex, err := scene.NewTexture(4, 2, ngl.PixelFormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	unusedTex, err := scene.NewTexture(1, 1, ngl.PixelFormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	textures := scene.NewDict()
	textures.Set("tex0", tex)
	textures.Set("tex9", unusedTex)

	weights := scene.NewBlock(layout.Std430,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err := weights.AddField("values", scene.NewBuffer(layout.TypeVec4, 8,
		gputypes.BufferUsageStorage)); err != nil {
		t.Fatal(err)
	}
	blocks := scene.NewDict()
	blocks.Set("weights", weights)
	blocks.Set("orphan", scene.NewBlock(layout.Std430, gputypes.BufferUsageStorage))

	return &Resources{
		Attributes: attrs,
		Uniforms:   uniforms,
		Textures:   textures,
		Blocks:     blocks,
	}, tex
}

func TestResolvePairs(t *testing.T) {
	r := mergedReflection(t)
	res, _ := testResources(t)

	b, err := Resolve(r, res)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(b.Attributes) != 2 {
		t.Fatalf("attribute pairs = %d, want 2", len(b.Attributes))
	}
	for i, want := range []struct {
		name     string
		location int
	}{
		{AttrPosition, 0},
		{AttrUVCoord, 1},
	} {
		ap := b.Attributes[i]
		if ap.Name != want.name || ap.Location != want.location || ap.Slot != i {
			t.Errorf("attribute %d = {%s loc=%d slot=%d}, want {%s loc=%d slot=%d}",
				i, ap.Name, ap.Location, ap.Slot, want.name, want.location, i)
		}
	}

	// opacity at 0, mat4 at 16, vec2 at 80, float at 88, padded to 96.
	if got := b.StagingSize(); got != 96 {
		t.Errorf("StagingSize() = %d, want 96", got)
	}
	wantUniforms := []struct {
		name   string
		offset int
		size   int
	}{
		{"opacity", 0, 4},
		{"tex0_coord_matrix", 16, 64},
		{"tex0_dimensions", 80, 8},
		{"tex0_ts", 88, 4},
	}
	if len(b.Uniforms) != len(wantUniforms) {
		t.Fatalf("uniform pairs = %d, want %d", len(b.Uniforms), len(wantUniforms))
	}
	for i, want := range wantUniforms {
		up := b.Uniforms[i]
		if up.Name != want.name || up.Offset != want.offset || up.Size != want.size {
			t.Errorf("uniform %d = {%s off=%d size=%d}, want {%s off=%d size=%d}",
				i, up.Name, up.Offset, up.Size, want.name, want.offset, want.size)
		}
	}

	if len(b.Textures) != 1 {
		t.Fatalf("texture pairs = %d, want 1", len(b.Textures))
	}
	tp := b.Textures[0]
	if tp.Name != "tex0" || tp.TextureBinding != 2 || tp.SamplerBinding != 3 {
		t.Errorf("texture pair = {%s tex=%d sampler=%d}, want {tex0 tex=2 sampler=3}",
			tp.Name, tp.TextureBinding, tp.SamplerBinding)
	}

	if len(b.Blocks) != 1 {
		t.Fatalf("block pairs = %d, want 1", len(b.Blocks))
	}
	if bp := b.Blocks[0]; bp.Name != "weights" || bp.Binding != 4 {
		t.Errorf("block pair = {%s binding=%d}, want {weights binding=4}", bp.Name, bp.Binding)
	}
}

func TestResolveUnusedTextureZeroPairs(t *testing.T) {
	r := mergedReflection(t)

	tex, err := scene.NewTexture(1, 1, ngl.PixelFormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	textures := scene.NewDict()
	textures.Set("tex9", tex)

	b, err := Resolve(r, &Resources{Textures: textures})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(b.Textures) != 0 || len(b.Uniforms) != 0 {
		t.Errorf("unused texture contributed %d texture and %d uniform pairs, want 0/0",
			len(b.Textures), len(b.Uniforms))
	}
}

func TestResolveDerivedOnlyTexture(t *testing.T) {
	const src = `
struct Uniforms {
    tex0_coord_matrix: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> ngl_uniforms: Uniforms;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return ngl_uniforms.tex0_coord_matrix * vec4<f32>(uv, 0.0, 1.0);
}
`
	r, err := shader.Probe(shader.StageFragment, src)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}

	tex, err := scene.NewTexture(2, 2, ngl.PixelFormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	textures := scene.NewDict()
	textures.Set("tex0", tex)

	b, err := Resolve(r, &Resources{Textures: textures})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// The shader reads only the coord matrix, yet the texture must join
	// the pair collection so the frame cycle evaluates it.
	if len(b.Textures) != 1 {
		t.Fatalf("texture pairs = %d, want 1", len(b.Textures))
	}
	tp := b.Textures[0]
	if tp.TextureBinding != -1 || tp.SamplerBinding != -1 {
		t.Errorf("texture pair bindings = tex=%d sampler=%d, want -1/-1",
			tp.TextureBinding, tp.SamplerBinding)
	}
	if len(b.Uniforms) != 1 || b.Uniforms[0].Name != "tex0_coord_matrix" {
		t.Fatalf("uniform pairs = %d, want one coord matrix pair", len(b.Uniforms))
	}

	// A full pipeline acquires and evaluates the texture even without a
	// sampled binding.
	const vert = `
@vertex
fn vs_main(@location(0) ngl_position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(ngl_position, 1.0);
}
`
	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: vert},
		shader.StageSource{Stage: shader.StageFragment, Source: src},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	a := native.New()
	defer a.Close()
	attrs := scene.NewDict()
	attrs.Set(AttrPosition, scene.NewBuffer(layout.TypeVec3, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))
	p, err := New(a, &Config{
		Program:   program,
		Resources: Resources{Attributes: attrs, Textures: textures},
		Surface:   &testSurface{w: 32, h: 32, format: gputypes.TextureFormatRGBA8Unorm},
		Topology:  gputypes.PrimitiveTopologyTriangleList,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Release()
	if a.Stats().TexturesCreated == 0 {
		t.Errorf("derived-only texture has no GPU storage")
	}
	if err := p.Update(0); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestResolveBadNodeType(t *testing.T) {
	r := mergedReflection(t)

	attrs := scene.NewDict()
	attrs.Set(AttrPosition, scene.NewUniform(layout.TypeVec3))
	if _, err := Resolve(r, &Resources{Attributes: attrs}); !errors.Is(err, scene.ErrNodeType) {
		t.Errorf("Resolve with uniform as attribute = %v, want ErrNodeType", err)
	}
}

func TestDerivedNames(t *testing.T) {
	for _, tc := range []struct {
		role Role
		want string
	}{
		{RoleSampler, "tex0_sampler"},
		{RoleCoordMatrix, "tex0_coord_matrix"},
		{RoleDimensions, "tex0_dimensions"},
		{RoleTimestamp, "tex0_ts"},
	} {
		if got := DerivedName("tex0", tc.role); got != tc.want {
			t.Errorf("DerivedName(tex0, %s) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func buildPipeline(t *testing.T, a backend.Adapter, surface Surface) (*Pipeline, *scene.Texture) {
	t.Helper()

	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: vertSource},
		shader.StageSource{Stage: shader.StageFragment, Source: fragSource},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	res, tex := testResources(t)
	p, err := New(a, &Config{
		Program:   program,
		Resources: *res,
		Surface:   surface,
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		Label:     "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, tex
}

func TestPipelineLifecycle(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 640, h: 480, format: gputypes.TextureFormatRGBA8Unorm}

	p, _ := buildPipeline(t, a, surface)
	defer p.Release()

	if p.State() != StateBuilt {
		t.Fatalf("State() = %s, want built", p.State())
	}
	st := a.Stats()
	if st.PipelinesCreated != 1 {
		t.Errorf("PipelinesCreated = %d, want 1", st.PipelinesCreated)
	}
	if st.LayoutsCreated != 1 {
		t.Errorf("LayoutsCreated = %d, want 1", st.LayoutsCreated)
	}
	if st.BindGroupsCreated != 1 {
		t.Errorf("BindGroupsCreated = %d, want 1", st.BindGroupsCreated)
	}

	if err := p.Update(0); err != nil {
		t.Fatalf("Update: %v", err)
	}

	target, err := a.CreateRenderTarget(surface.w, surface.h, surface.format)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	defer a.DestroyRenderTarget(target)
	enc, err := a.BeginRenderPass(target)
	if err != nil {
		t.Fatalf("BeginRenderPass: %v", err)
	}
	if err := p.Bind(enc, ngl.Identity, ngl.Identity); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	enc.Draw(3, 1)
	enc.End()
	a.Submit()
	if err := p.Unbind(); err != nil {
		t.Fatalf("Unbind: %v", err)
	}

	p.Release()
	if p.State() != StateDestroyed {
		t.Fatalf("State() = %s after Release, want destroyed", p.State())
	}
	st = a.Stats()
	if st.PipelinesDestroyed != st.PipelinesCreated {
		t.Errorf("PipelinesDestroyed = %d, want %d", st.PipelinesDestroyed, st.PipelinesCreated)
	}
	if st.BuffersDestroyed != st.BuffersCreated {
		t.Errorf("BuffersDestroyed = %d, want %d", st.BuffersDestroyed, st.BuffersCreated)
	}
	if st.TexturesDestroyed != st.TexturesCreated {
		t.Errorf("TexturesDestroyed = %d, want %d", st.TexturesDestroyed, st.TexturesCreated)
	}

	// Release is idempotent.
	p.Release()
	if got := a.Stats().PipelinesDestroyed; got != st.PipelinesDestroyed {
		t.Errorf("second Release destroyed again: %d", got)
	}
}

func TestPipelineRebuildOnSurfaceChange(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 640, h: 480, format: gputypes.TextureFormatRGBA8Unorm}

	p, _ := buildPipeline(t, a, surface)
	defer p.Release()

	created := a.Stats().PipelinesCreated

	// Unchanged dimensions: zero native object churn.
	for i := 0; i < 3; i++ {
		if err := p.Update(float64(i)); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	st := a.Stats()
	if st.PipelinesCreated != created || st.PipelinesDestroyed != 0 {
		t.Fatalf("stable surface churned pipelines: created=%d destroyed=%d",
			st.PipelinesCreated, st.PipelinesDestroyed)
	}

	// Dimension change: exactly one destroy-then-create, preceded by an
	// idle wait.
	waits := st.WaitIdleCalls
	surface.w, surface.h = 1280, 720
	if err := p.Update(3); err != nil {
		t.Fatalf("Update after resize: %v", err)
	}
	st = a.Stats()
	if st.PipelinesCreated != created+1 {
		t.Errorf("PipelinesCreated = %d after resize, want %d", st.PipelinesCreated, created+1)
	}
	if st.PipelinesDestroyed != 1 {
		t.Errorf("PipelinesDestroyed = %d after resize, want 1", st.PipelinesDestroyed)
	}
	if st.WaitIdleCalls <= waits {
		t.Errorf("no idle wait before stale pipeline destruction")
	}
	if p.State() != StateBuilt {
		t.Errorf("State() = %s after rebuild, want built", p.State())
	}

	// Same dimensions again: back to no churn.
	if err := p.Update(4); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := a.Stats().PipelinesCreated; got != created+1 {
		t.Errorf("PipelinesCreated = %d on stable resized surface, want %d", got, created+1)
	}
}

func TestPipelineStagingContent(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 64, h: 64, format: gputypes.TextureFormatRGBA8Unorm}

	p, tex := buildPipeline(t, a, surface)
	defer p.Release()

	px := make([]byte, 4*2*4)
	if err := tex.SetData(px, 2.5); err != nil {
		t.Fatal(err)
	}

	if err := p.Update(0); err != nil {
		t.Fatalf("Update: %v", err)
	}

	gpu, ok := a.BufferData(p.uniformBuf)
	if !ok {
		t.Fatalf("uniform buffer missing")
	}
	if got := testFloat(gpu[0:4]); got != 0.5 {
		t.Errorf("opacity slot = %g, want 0.5", got)
	}
	// Coord matrix defaults to identity.
	if got := testFloat(gpu[16:20]); got != 1 {
		t.Errorf("coord matrix [0] = %g, want 1", got)
	}
	if got := testFloat(gpu[80:84]); got != 4 {
		t.Errorf("dimensions.x = %g, want 4", got)
	}
	if got := testFloat(gpu[84:88]); got != 2 {
		t.Errorf("dimensions.y = %g, want 2", got)
	}
	if got := testFloat(gpu[88:92]); got != 2.5 {
		t.Errorf("timestamp slot = %g, want 2.5", got)
	}

	// An unchanged frame does not rewrite the staging buffer.
	writes := a.Stats().BufferWrites
	if err := p.Update(1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := a.Stats().BufferWrites; got != writes {
		t.Errorf("BufferWrites = %d after unchanged frame, want %d", got, writes)
	}

	// A timestamp change dirties exactly its slot on the next frame.
	if err := tex.SetData(px, 7.0); err != nil {
		t.Fatal(err)
	}
	if err := p.Update(2); err != nil {
		t.Fatalf("Update: %v", err)
	}
	gpu3, _ := a.BufferData(p.uniformBuf)
	if got := testFloat(gpu3[88:92]); got != 7.0 {
		t.Errorf("timestamp slot = %g after change, want 7", got)
	}
}

func TestPipelineTransformUpload(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 64, h: 64, format: gputypes.TextureFormatRGBA8Unorm}

	p, _ := buildPipeline(t, a, surface)
	defer p.Release()

	if err := p.Update(0); err != nil {
		t.Fatal(err)
	}
	target, err := a.CreateRenderTarget(surface.w, surface.h, surface.format)
	if err != nil {
		t.Fatal(err)
	}
	defer a.DestroyRenderTarget(target)
	enc, err := a.BeginRenderPass(target)
	if err != nil {
		t.Fatal(err)
	}

	var mv f32.Mat4 = ngl.Identity
	mv[12] = 3 // translation x
	if err := p.Bind(enc, mv, ngl.Identity); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	enc.End()

	gpu, ok := a.BufferData(p.transformBuf)
	if !ok {
		t.Fatalf("transform buffer missing")
	}
	if got := testFloat(gpu[48:52]); got != 3 {
		t.Errorf("modelview translation = %g, want 3", got)
	}
	// Projection occupies the second matrix slot.
	if got := testFloat(gpu[64:68]); got != 1 {
		t.Errorf("projection [0] = %g, want 1", got)
	}
}

func TestPipelineBindAfterRelease(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 32, h: 32, format: gputypes.TextureFormatRGBA8Unorm}

	p, _ := buildPipeline(t, a, surface)
	p.Release()

	if err := p.Update(0); !errors.Is(err, ErrState) {
		t.Errorf("Update after Release = %v, want ErrState", err)
	}
	if err := p.Bind(nil, ngl.Identity, ngl.Identity); !errors.Is(err, ErrState) {
		t.Errorf("Bind after Release = %v, want ErrState", err)
	}
}

func TestPipelineSharedNodeRefcount(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 32, h: 32, format: gputypes.TextureFormatRGBA8Unorm}

	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: vertSource},
		shader.StageSource{Stage: shader.StageFragment, Source: fragSource},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	// One position buffer shared by two pipelines: a single GPU buffer.
	pos := scene.NewBuffer(layout.TypeVec3, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)

	make1 := func() *Pipeline {
		attrs := scene.NewDict()
		attrs.Set(AttrPosition, pos)
		p, err := New(a, &Config{
			Program:   program,
			Resources: Resources{Attributes: attrs},
			Surface:   surface,
			Topology:  gputypes.PrimitiveTopologyTriangleList,
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return p
	}

	p1 := make1()
	buffersAfterOne := a.Stats().BuffersCreated
	p2 := make1()

	// The second pipeline allocates its own uniform buffers but reuses
	// the shared vertex buffer.
	if pos.GPUBuffer() == backend.InvalidID {
		t.Fatalf("shared buffer not allocated")
	}
	grew := a.Stats().BuffersCreated - buffersAfterOne
	if grew != buffersAfterOne-1 {
		t.Errorf("second pipeline created %d buffers, want %d (all but the shared one)",
			grew, buffersAfterOne-1)
	}

	p1.Release()
	if pos.GPUBuffer() == backend.InvalidID {
		t.Errorf("shared buffer freed while still referenced")
	}
	p2.Release()
	if pos.GPUBuffer() != backend.InvalidID {
		t.Errorf("shared buffer not freed on last release")
	}
}

func TestPipelineFailedBuildKeepsSharedNodes(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 32, h: 32, format: gputypes.TextureFormatRGBA8Unorm}

	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: vertSource},
		shader.StageSource{Stage: shader.StageFragment, Source: fragSource},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	pos := scene.NewBuffer(layout.TypeVec3, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	attrs := scene.NewDict()
	attrs.Set(AttrPosition, pos)
	p, err := New(a, &Config{
		Program:   program,
		Resources: Resources{Attributes: attrs},
		Surface:   surface,
		Topology:  gputypes.PrimitiveTopologyTriangleList,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Release()
	destroyed := a.Stats().BuffersDestroyed

	// A second pipeline sharing pos, with an empty uv buffer declared
	// ahead of it that fails to allocate.
	badAttrs := scene.NewDict()
	badAttrs.Set(AttrUVCoord, scene.NewBuffer(layout.TypeVec2, 0,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))
	badAttrs.Set(AttrPosition, pos)
	if _, err := New(a, &Config{
		Program:   program,
		Resources: Resources{Attributes: badAttrs},
		Surface:   surface,
		Topology:  gputypes.PrimitiveTopologyTriangleList,
	}); !errors.Is(err, backend.ErrAllocation) {
		t.Fatalf("New with empty buffer = %v, want ErrAllocation", err)
	}

	// The failed construction must not drop the reference held by the
	// surviving pipeline.
	if pos.GPUBuffer() == backend.InvalidID {
		t.Errorf("shared buffer freed by failed construction")
	}
	if got := a.Stats().BuffersDestroyed; got != destroyed {
		t.Errorf("BuffersDestroyed = %d after failed construction, want %d", got, destroyed)
	}
	if err := p.Update(0); err != nil {
		t.Errorf("Update on surviving pipeline: %v", err)
	}
}

func TestPipelineFixedFunctionState(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 64, h: 64, format: gputypes.TextureFormatRGBA8Unorm}

	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: vertSource},
		shader.StageSource{Stage: shader.StageFragment, Source: fragSource},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	res, _ := testResources(t)
	ff := backend.FixedFunction{
		Blend:              backend.BlendAlpha,
		CullMode:           gputypes.CullModeBack,
		DepthStencilFormat: gputypes.TextureFormatDepth24PlusStencil8,
		DepthWriteEnabled:  true,
		DepthCompare:       gputypes.CompareFunctionLess,
	}
	p, err := New(a, &Config{
		Program:       program,
		Resources:     *res,
		Surface:       surface,
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		FixedFunction: ff,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Release()

	desc, ok := a.PipelineDesc(p.pso)
	if !ok {
		t.Fatalf("pipeline descriptor missing")
	}
	if desc.FixedFunction != ff {
		t.Errorf("fixed function = %+v, want %+v", desc.FixedFunction, ff)
	}

	// A rebuild after a surface change carries the same snapshot.
	surface.w = 128
	if err := p.Update(0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	desc, ok = a.PipelineDesc(p.pso)
	if !ok {
		t.Fatalf("pipeline descriptor missing after rebuild")
	}
	if desc.FixedFunction != ff {
		t.Errorf("rebuilt fixed function = %+v, want %+v", desc.FixedFunction, ff)
	}
}

const vertTexSource = `
@group(0) @binding(0) var tex0: texture_2d<f32>;
@group(0) @binding(1) var tex0_sampler: sampler;

@vertex
fn vs_main(@location(0) ngl_position: vec3<f32>) -> @builtin(position) vec4<f32> {
    let h = textureSampleLevel(tex0, tex0_sampler, ngl_position.xy, 0.0);
    return vec4<f32>(ngl_position + h.xyz, 1.0);
}
`

const flatFragSource = `
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func TestPipelineVertexTextureVisibility(t *testing.T) {
	a := native.New()
	defer a.Close()
	surface := &testSurface{w: 32, h: 32, format: gputypes.TextureFormatRGBA8Unorm}

	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: vertTexSource},
		shader.StageSource{Stage: shader.StageFragment, Source: flatFragSource},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	tex, err := scene.NewTexture(2, 2, ngl.PixelFormatRGBA8)
	if err != nil {
		t.Fatal(err)
	}
	textures := scene.NewDict()
	textures.Set("tex0", tex)
	attrs := scene.NewDict()
	attrs.Set(AttrPosition, scene.NewBuffer(layout.TypeVec3, 3,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst))

	p, err := New(a, &Config{
		Program:   program,
		Resources: Resources{Attributes: attrs, Textures: textures},
		Surface:   surface,
		Topology:  gputypes.PrimitiveTopologyTriangleList,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Release()

	entries, ok := a.LayoutEntries(p.groupLayout)
	if !ok {
		t.Fatalf("group layout missing")
	}
	if len(entries) != 2 {
		t.Fatalf("layout entries = %d, want 2", len(entries))
	}
	// Both the texture and its sampler are consumed by the vertex stage
	// only; the layout visibility must follow the reflection.
	for _, e := range entries {
		if e.Visibility != gputypes.ShaderStageVertex {
			t.Errorf("binding %d visibility = %d, want vertex", e.Binding, e.Visibility)
		}
	}
}

func testFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
