// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// SamplerID is an opaque handle to a texture sampler.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// PipelineID is an opaque handle to a native pipeline object.
type PipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// RenderTargetID is an opaque handle to an offscreen render target.
type RenderTargetID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BindGroupEntry binds one concrete resource to a slot of a bind group
// layout. Exactly one of Buffer, Texture or Sampler is set.
type BindGroupEntry struct {
	// Binding is the slot index within the group.
	Binding uint32

	// Buffer is the buffer to bind, for buffer bindings.
	Buffer BufferID

	// Offset is the byte offset into the buffer.
	Offset uint64

	// Size is the byte size of the buffer range to bind.
	// Zero binds the rest of the buffer from Offset.
	Size uint64

	// Texture is the texture to bind, for texture bindings.
	Texture TextureID

	// Sampler is the sampler to bind, for sampler bindings.
	Sampler SamplerID
}

// VertexAttributeDesc places one attribute inside a vertex buffer slot.
type VertexAttributeDesc struct {
	// Location is the shader-side attribute location.
	Location uint32

	// Offset is the byte offset within one vertex.
	Offset uint64

	// Format is the attribute's data format.
	Format gputypes.VertexFormat
}

// VertexBufferDesc describes one vertex input slot.
type VertexBufferDesc struct {
	// Stride is the byte distance between consecutive elements.
	Stride uint64

	// StepMode selects per-vertex or per-instance advancement.
	StepMode gputypes.VertexStepMode

	// Attributes are the attributes read from this slot.
	Attributes []VertexAttributeDesc
}

// BlendMode selects the blend equation of the color target.
type BlendMode uint8

const (
	// BlendPremultiplied is source-over blending of premultiplied
	// alpha. The zero value.
	BlendPremultiplied BlendMode = iota

	// BlendAlpha is source-over blending of straight alpha.
	BlendAlpha

	// BlendReplace writes the source color unblended.
	BlendReplace

	// BlendNone disables blending on the color target.
	BlendNone
)

// FixedFunction is the fixed-function state snapshot baked into a
// render pipeline.
type FixedFunction struct {
	// Blend is the color target blend mode.
	Blend BlendMode

	// CullMode selects face culling. The zero value culls nothing.
	CullMode gputypes.CullMode

	// DepthStencilFormat enables depth/stencil state when not
	// Undefined. The render pass must carry a matching attachment.
	DepthStencilFormat gputypes.TextureFormat

	// DepthWriteEnabled enables depth writes.
	DepthWriteEnabled bool

	// DepthCompare is the depth comparison function. The zero value
	// means always pass.
	DepthCompare gputypes.CompareFunction
}

// RenderPipelineDesc describes a render pipeline.
type RenderPipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the pipeline layout.
	Layout PipelineLayoutID

	// VertexShader holds the vertex stage module.
	VertexShader ShaderModuleID

	// FragmentShader holds the fragment stage module.
	FragmentShader ShaderModuleID

	// VertexEntry is the vertex stage entry point name.
	VertexEntry string

	// FragmentEntry is the fragment stage entry point name.
	FragmentEntry string

	// VertexBuffers describe the vertex input slots in binding order.
	VertexBuffers []VertexBufferDesc

	// Topology is the primitive topology.
	Topology gputypes.PrimitiveTopology

	// FixedFunction is the blend, cull and depth/stencil snapshot.
	FixedFunction FixedFunction

	// ColorFormat is the render target pixel format.
	ColorFormat gputypes.TextureFormat

	// Width and Height are the output surface dimensions the
	// pipeline object is built for.
	Width  int
	Height int
}
