// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline resolves scene resources against a compiled shader
// interface and drives the per-frame update and bind cycle.
//
// A Pipeline owns the native pipeline object, the descriptor layout and
// bind group, a shared uniform staging buffer and the resolved binding
// pairs. The native pipeline object is built for specific output surface
// dimensions and lazily rebuilt when they change; everything else
// survives surface changes.
package pipeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/backend"
	"github.com/gogpu/ngl/layout"
	"github.com/gogpu/ngl/shader"
)

var (
	// ErrState is returned when an operation is attempted in a pipeline
	// state that does not permit it.
	ErrState = errors.New("pipeline: invalid state")

	// ErrNoVertexStage is returned when the program lacks a vertex
	// stage.
	ErrNoVertexStage = errors.New("pipeline: program has no vertex stage")

	// ErrAttributeType is returned when a declared attribute's element
	// type cannot be expressed as a vertex input format.
	ErrAttributeType = errors.New("pipeline: unsupported attribute type")
)

// State tracks the pipeline lifecycle.
type State uint8

const (
	// StateUninitialized is the zero value before construction finishes.
	StateUninitialized State = iota

	// StateBuilt means the native pipeline object matches the current
	// surface dimensions and the pipeline may bind and draw.
	StateBuilt

	// StateStale means the surface changed and the native pipeline
	// object must be rebuilt before the next bind.
	StateStale

	// StateDestroyed is terminal.
	StateDestroyed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateBuilt:         "built",
	StateStale:         "stale",
	StateDestroyed:     "destroyed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Surface reports the current output dimensions and pixel format. The
// pipeline queries it once per frame to detect staleness.
type Surface interface {
	Width() int
	Height() int
	Format() gputypes.TextureFormat
}

// transformSize is the byte size of the transform uniform block:
// modelview and projection, one mat4 each.
const transformSize = 2 * 64

// Config describes a pipeline to build.
type Config struct {
	// Program supplies the compiled stages and their reflection.
	Program *shader.Program

	// Resources are the declared scene dictionaries.
	Resources Resources

	// Surface reports the current output dimensions and format.
	Surface Surface

	// Topology is the primitive topology.
	Topology gputypes.PrimitiveTopology

	// FixedFunction is the blend, cull and depth/stencil snapshot baked
	// into the native pipeline object. The zero value blends
	// premultiplied alpha, culls nothing and has no depth/stencil.
	FixedFunction backend.FixedFunction

	// Label names GPU objects for debugging.
	Label string
}

// Pipeline aggregates the compiled program, the resolved binding pairs,
// the descriptor objects and the native pipeline object for one draw
// call.
type Pipeline struct {
	adapter  backend.Adapter
	program  *shader.Program
	surface  Surface
	topology gputypes.PrimitiveTopology
	fixed    backend.FixedFunction
	label    string

	bindings *Bindings
	state    State

	width  int
	height int
	format gputypes.TextureFormat

	vertexModule   backend.ShaderModuleID
	fragmentModule backend.ShaderModuleID
	groupLayout    backend.BindGroupLayoutID
	pipeLayout     backend.PipelineLayoutID
	bindGroup      backend.BindGroupID
	pso            backend.PipelineID

	staging      []byte
	stagingDirty bool
	uniformBuf   backend.BufferID

	transformBuf  backend.BufferID
	transformData []byte
}

// New resolves cfg's resources against the program reflection, acquires
// GPU storage for every paired node, creates the descriptor objects and
// builds the native pipeline object for the current surface dimensions.
//
// Descriptor and pipeline creation failures are unrecoverable and abort
// construction with the backend error.
func New(a backend.Adapter, cfg *Config) (*Pipeline, error) {
	vs := cfg.Program.SPIRV(shader.StageVertex)
	if vs == nil {
		return nil, ErrNoVertexStage
	}

	b, err := Resolve(cfg.Program.Reflection(), &cfg.Resources)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		adapter:  a,
		program:  cfg.Program,
		surface:  cfg.Surface,
		topology: cfg.Topology,
		fixed:    cfg.FixedFunction,
		label:    cfg.Label,
		bindings: b,
	}

	if err := p.acquireNodes(); err != nil {
		return nil, err
	}
	if err := p.createResources(vs); err != nil {
		p.Release()
		return nil, err
	}
	if err := p.buildPipeline(); err != nil {
		p.Release()
		return nil, err
	}
	p.state = StateBuilt

	ngl.Logger().Debug("pipeline built", "label", p.label,
		"attributes", len(b.Attributes), "uniforms", len(b.Uniforms),
		"textures", len(b.Textures), "blocks", len(b.Blocks),
		"width", p.width, "height", p.height)
	return p, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return p.state }

// Bindings returns the resolved pair collections.
func (p *Pipeline) Bindings() *Bindings { return p.bindings }

// pairedNode is the GPU storage surface shared by all paired node types.
type pairedNode interface {
	Acquire(backend.Adapter) error
	Release(backend.Adapter)
}

// pairedNodes returns every paired node in acquisition order.
func (p *Pipeline) pairedNodes() []pairedNode {
	nodes := make([]pairedNode, 0,
		len(p.bindings.Attributes)+len(p.bindings.Blocks)+len(p.bindings.Textures))
	for i := range p.bindings.Attributes {
		nodes = append(nodes, p.bindings.Attributes[i].Node)
	}
	for i := range p.bindings.Blocks {
		nodes = append(nodes, p.bindings.Blocks[i].Node)
	}
	for i := range p.bindings.Textures {
		nodes = append(nodes, p.bindings.Textures[i].Node)
	}
	return nodes
}

// acquireNodes takes a GPU reference on every paired node. On failure it
// drops only the references it already took; a node referenced by
// another pipeline must not lose that pipeline's reference.
func (p *Pipeline) acquireNodes() error {
	nodes := p.pairedNodes()
	for i, n := range nodes {
		if err := n.Acquire(p.adapter); err != nil {
			for _, done := range nodes[:i] {
				done.Release(p.adapter)
			}
			return err
		}
	}
	return nil
}

// releaseNodes drops the GPU references taken by a completed
// acquireNodes.
func (p *Pipeline) releaseNodes() {
	for _, n := range p.pairedNodes() {
		n.Release(p.adapter)
	}
}

// createResources creates the shader modules, buffers, descriptor
// layout and bind group.
func (p *Pipeline) createResources(vs []byte) error {
	var err error
	p.vertexModule, err = p.adapter.CreateShaderModule(vs, p.label+" vs")
	if err != nil {
		return err
	}
	if fs := p.program.SPIRV(shader.StageFragment); fs != nil {
		p.fragmentModule, err = p.adapter.CreateShaderModule(fs, p.label+" fs")
		if err != nil {
			return err
		}
	}

	if size := p.bindings.StagingSize(); size > 0 {
		p.staging = make([]byte, size)
		p.stagingDirty = true
		p.uniformBuf, err = p.adapter.CreateBuffer(size,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
	}
	if p.bindings.transformBinding >= 0 {
		p.transformData = make([]byte, transformSize)
		p.transformBuf, err = p.adapter.CreateBuffer(transformSize,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return err
		}
	}

	return p.createDescriptors()
}

// createDescriptors builds the bind group layout from the resolved
// bindings, the pipeline layout and the bind group. Layout entries are
// sized from the actual pair counts, never from a fixed capacity.
func (p *Pipeline) createDescriptors() error {
	b := p.bindings
	var layoutEntries []gputypes.BindGroupLayoutEntry
	var groupEntries []backend.BindGroupEntry

	if b.uniformBinding >= 0 && p.uniformBuf != backend.InvalidID {
		layoutEntries = append(layoutEntries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(b.uniformBinding),
			Visibility: stageVisibility(b.uniformStages),
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
		groupEntries = append(groupEntries, backend.BindGroupEntry{
			Binding: uint32(b.uniformBinding),
			Buffer:  p.uniformBuf,
			Size:    uint64(len(p.staging)),
		})
	}
	if b.transformBinding >= 0 {
		layoutEntries = append(layoutEntries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(b.transformBinding),
			Visibility: stageVisibility(b.transformStages),
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		})
		groupEntries = append(groupEntries, backend.BindGroupEntry{
			Binding: uint32(b.transformBinding),
			Buffer:  p.transformBuf,
			Size:    transformSize,
		})
	}
	for i := range b.Textures {
		tp := &b.Textures[i]
		if tp.TextureBinding >= 0 {
			layoutEntries = append(layoutEntries, gputypes.BindGroupLayoutEntry{
				Binding:    uint32(tp.TextureBinding),
				Visibility: stageVisibility(tp.TextureStages),
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			})
			groupEntries = append(groupEntries, backend.BindGroupEntry{
				Binding: uint32(tp.TextureBinding),
				Texture: tp.Node.GPUTexture(),
			})
		}
		if tp.SamplerBinding >= 0 {
			layoutEntries = append(layoutEntries, gputypes.BindGroupLayoutEntry{
				Binding:    uint32(tp.SamplerBinding),
				Visibility: stageVisibility(tp.SamplerStages),
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			})
			groupEntries = append(groupEntries, backend.BindGroupEntry{
				Binding: uint32(tp.SamplerBinding),
				Sampler: tp.Node.GPUSampler(),
			})
		}
	}
	for i := range b.Blocks {
		bp := &b.Blocks[i]
		layoutEntries = append(layoutEntries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(bp.Binding),
			Visibility: stageVisibility(bp.Stages),
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		})
		groupEntries = append(groupEntries, backend.BindGroupEntry{
			Binding: uint32(bp.Binding),
			Buffer:  bp.Node.GPUBuffer(),
			Size:    uint64(bp.Node.Size()),
		})
	}

	var err error
	p.groupLayout, err = p.adapter.CreateBindGroupLayout(layoutEntries, p.label+" layout")
	if err != nil {
		return err
	}
	p.pipeLayout, err = p.adapter.CreatePipelineLayout([]backend.BindGroupLayoutID{p.groupLayout})
	if err != nil {
		return err
	}
	p.bindGroup, err = p.adapter.CreateBindGroup(p.groupLayout, groupEntries, p.label+" group")
	return err
}

// buildPipeline creates the native pipeline object for the current
// surface dimensions.
func (p *Pipeline) buildPipeline() error {
	p.width = p.surface.Width()
	p.height = p.surface.Height()
	p.format = p.surface.Format()

	buffers := make([]backend.VertexBufferDesc, len(p.bindings.Attributes))
	for i := range p.bindings.Attributes {
		ap := &p.bindings.Attributes[i]
		format, err := vertexFormat(ap.Node.Type())
		if err != nil {
			return fmt.Errorf("%w: %s", err, ap.Name)
		}
		step := gputypes.VertexStepModeVertex
		if ap.PerInstance {
			step = gputypes.VertexStepModeInstance
		}
		buffers[i] = backend.VertexBufferDesc{
			Stride:   uint64(ap.Node.Stride()),
			StepMode: step,
			Attributes: []backend.VertexAttributeDesc{
				{Location: uint32(ap.Location), Offset: 0, Format: format},
			},
		}
	}

	pso, err := p.adapter.CreateRenderPipeline(&backend.RenderPipelineDesc{
		Label:          p.label,
		Layout:         p.pipeLayout,
		VertexShader:   p.vertexModule,
		FragmentShader: p.fragmentModule,
		VertexEntry:    "vs_main",
		FragmentEntry:  "fs_main",
		VertexBuffers:  buffers,
		Topology:       p.topology,
		FixedFunction:  p.fixed,
		ColorFormat:    p.format,
		Width:          p.width,
		Height:         p.height,
	})
	if err != nil {
		return err
	}
	p.pso = pso
	return nil
}

// Update runs the per-frame cycle at timeline time t: it evaluates every
// paired node, re-uploads buffer-backed pairs whose content changed,
// repacks changed uniform values into the staging buffer and flushes it,
// and rebuilds the native pipeline object if the surface changed.
//
// A node evaluation or upload failure aborts the frame and propagates.
func (p *Pipeline) Update(t float64) error {
	if p.state != StateBuilt && p.state != StateStale {
		return fmt.Errorf("%w: update in state %s", ErrState, p.state)
	}

	for i := range p.bindings.Attributes {
		n := p.bindings.Attributes[i].Node
		if err := n.Update(t); err != nil {
			return err
		}
		if err := n.Upload(p.adapter); err != nil {
			return err
		}
	}
	for i := range p.bindings.Blocks {
		n := p.bindings.Blocks[i].Node
		if err := n.Update(t); err != nil {
			return err
		}
		if err := n.Upload(p.adapter); err != nil {
			return err
		}
	}
	for i := range p.bindings.Textures {
		n := p.bindings.Textures[i].Node
		if err := n.Update(t); err != nil {
			return err
		}
		if err := n.Upload(p.adapter); err != nil {
			return err
		}
	}

	if err := p.updateStaging(t); err != nil {
		return err
	}
	return p.ensureSurface()
}

// updateStaging writes changed uniform pair values into the staging
// buffer at their resolved offsets and flushes it to the GPU when dirty.
func (p *Pipeline) updateStaging(t float64) error {
	for i := range p.bindings.Uniforms {
		up := &p.bindings.Uniforms[i]
		if up.Texture != nil {
			if p.writeDerived(up) {
				p.stagingDirty = true
			}
			continue
		}
		if err := up.Node.Update(t); err != nil {
			return err
		}
		rev := up.Node.Revision()
		if rev == up.uploaded {
			continue
		}
		src := up.Node.Bytes()
		n := len(src)
		if n > up.Size {
			n = up.Size
		}
		copy(p.staging[up.Offset:up.Offset+n], src[:n])
		up.uploaded = rev
		p.stagingDirty = true
	}

	if p.stagingDirty && p.uniformBuf != backend.InvalidID {
		if err := p.adapter.WriteBuffer(p.uniformBuf, 0, p.staging); err != nil {
			return err
		}
		p.stagingDirty = false
	}
	return nil
}

// writeDerived encodes one texture-derived value into the staging buffer
// and reports whether the bytes changed.
func (p *Pipeline) writeDerived(up *UniformPair) bool {
	img := up.Texture.Image()
	var scratch [64]byte
	var enc []byte
	switch up.Role {
	case RoleCoordMatrix:
		enc = scratch[:64]
		putFloats(enc, img.CoordMatrix[:]...)
	case RoleDimensions:
		enc = scratch[:8]
		putFloats(enc, float32(up.Texture.Width()), float32(up.Texture.Height()))
	case RoleTimestamp:
		enc = scratch[:4]
		putFloats(enc, float32(img.Timestamp))
	default:
		return false
	}
	if len(enc) > up.Size {
		enc = enc[:up.Size]
	}
	dst := p.staging[up.Offset : up.Offset+len(enc)]
	if bytes.Equal(dst, enc) {
		return false
	}
	copy(dst, enc)
	return true
}

// ensureSurface compares the current surface dimensions against the ones
// the native pipeline object was built for and rebuilds it on change.
// Rebuilding at unchanged dimensions performs no native object calls.
func (p *Pipeline) ensureSurface() error {
	w, h, f := p.surface.Width(), p.surface.Height(), p.surface.Format()
	if w == p.width && h == p.height && f == p.format && p.state == StateBuilt {
		return nil
	}
	p.state = StateStale
	ngl.Logger().Debug("pipeline stale", "label", p.label,
		"width", w, "height", h)

	// The old pipeline object may still be referenced by in-flight GPU
	// work. Wait for it before destruction.
	p.adapter.WaitIdle()
	p.adapter.DestroyPipeline(p.pso)
	p.pso = backend.InvalidID

	if err := p.buildPipeline(); err != nil {
		return err
	}
	p.state = StateBuilt
	return nil
}

// Bind records the pipeline, vertex buffer and bind group bindings into
// enc and uploads the caller's current transform matrices. It must be
// called after Update within the same frame.
func (p *Pipeline) Bind(enc backend.RenderEncoder, modelview, projection f32.Mat4) error {
	if p.state != StateBuilt {
		return fmt.Errorf("%w: bind in state %s", ErrState, p.state)
	}

	if p.transformBuf != backend.InvalidID {
		putFloats(p.transformData[:64], modelview[:]...)
		putFloats(p.transformData[64:], projection[:]...)
		if err := p.adapter.WriteBuffer(p.transformBuf, 0, p.transformData); err != nil {
			return err
		}
	}

	enc.SetPipeline(p.pso)
	for i := range p.bindings.Attributes {
		ap := &p.bindings.Attributes[i]
		enc.SetVertexBuffer(ap.Slot, ap.Node.GPUBuffer())
	}
	enc.SetBindGroup(0, p.bindGroup)
	return nil
}

// Unbind is the symmetrical counterpart of Bind. No current backend
// needs unbinding work, so it only validates the state.
func (p *Pipeline) Unbind() error {
	if p.state != StateBuilt {
		return fmt.Errorf("%w: unbind in state %s", ErrState, p.state)
	}
	return nil
}

// Release waits for the GPU, destroys every owned native object and
// drops the references on the paired nodes. Safe to call more than
// once.
func (p *Pipeline) Release() {
	if p.state == StateDestroyed {
		return
	}
	p.adapter.WaitIdle()

	if p.pso != backend.InvalidID {
		p.adapter.DestroyPipeline(p.pso)
		p.pso = backend.InvalidID
	}
	if p.bindGroup != backend.InvalidID {
		p.adapter.DestroyBindGroup(p.bindGroup)
		p.bindGroup = backend.InvalidID
	}
	if p.pipeLayout != backend.InvalidID {
		p.adapter.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = backend.InvalidID
	}
	if p.groupLayout != backend.InvalidID {
		p.adapter.DestroyBindGroupLayout(p.groupLayout)
		p.groupLayout = backend.InvalidID
	}
	if p.uniformBuf != backend.InvalidID {
		p.adapter.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = backend.InvalidID
	}
	if p.transformBuf != backend.InvalidID {
		p.adapter.DestroyBuffer(p.transformBuf)
		p.transformBuf = backend.InvalidID
	}
	if p.vertexModule != backend.InvalidID {
		p.adapter.DestroyShaderModule(p.vertexModule)
		p.vertexModule = backend.InvalidID
	}
	if p.fragmentModule != backend.InvalidID {
		p.adapter.DestroyShaderModule(p.fragmentModule)
		p.fragmentModule = backend.InvalidID
	}

	p.releaseNodes()
	p.state = StateDestroyed
}

// stageVisibility converts a reflection stage mask to the backend
// visibility flags.
func stageVisibility(m shader.StageMask) gputypes.ShaderStage {
	var v gputypes.ShaderStage
	if m&shader.StageVertex != 0 {
		v |= gputypes.ShaderStageVertex
	}
	if m&shader.StageFragment != 0 {
		v |= gputypes.ShaderStageFragment
	}
	if m&shader.StageCompute != 0 {
		v |= gputypes.ShaderStageCompute
	}
	return v
}

// vertexFormat maps an element type to the backend vertex input format.
func vertexFormat(t layout.Type) (gputypes.VertexFormat, error) {
	switch t {
	case layout.TypeFloat:
		return gputypes.VertexFormatFloat32, nil
	case layout.TypeVec2:
		return gputypes.VertexFormatFloat32x2, nil
	case layout.TypeVec3:
		return gputypes.VertexFormatFloat32x3, nil
	case layout.TypeVec4, layout.TypeQuat:
		return gputypes.VertexFormatFloat32x4, nil
	case layout.TypeInt:
		return gputypes.VertexFormatSint32, nil
	case layout.TypeIVec2:
		return gputypes.VertexFormatSint32x2, nil
	case layout.TypeIVec3:
		return gputypes.VertexFormatSint32x3, nil
	case layout.TypeIVec4:
		return gputypes.VertexFormatSint32x4, nil
	case layout.TypeUInt:
		return gputypes.VertexFormatUint32, nil
	case layout.TypeUVec2:
		return gputypes.VertexFormatUint32x2, nil
	case layout.TypeUVec3:
		return gputypes.VertexFormatUint32x3, nil
	case layout.TypeUVec4:
		return gputypes.VertexFormatUint32x4, nil
	default:
		return gputypes.VertexFormatUndefined, ErrAttributeType
	}
}

// putFloats encodes vals into dst as little-endian 32-bit floats.
func putFloats(dst []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[4*i:], math32.Float32bits(v))
	}
}
