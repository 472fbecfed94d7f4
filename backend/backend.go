// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend defines the GPU capability set the pipeline layer is
// built against.
//
// An Adapter exposes the subset of a graphics API needed for descriptor
// binding and uniform upload: buffers, textures, samplers, bind groups,
// pipeline objects and render targets. Two implementations exist: a
// pure Go in-memory adapter (backend/native) used for tests and
// headless runs, and a WebGPU HAL adapter (backend/wgpu). Selection
// goes through the registry; the wgpu backend wins when available.
package backend

import (
	"errors"

	"github.com/gogpu/gputypes"
)

var (
	// ErrAllocation is returned when the driver rejects creation of a
	// GPU resource. Fatal for the construction that requested it.
	ErrAllocation = errors.New("backend: allocation failed")

	// ErrUpload is returned when a host-to-device copy fails. Fatal
	// for the frame that attempted it.
	ErrUpload = errors.New("backend: upload failed")

	// ErrBackendNotAvailable is returned when no backend is registered.
	ErrBackendNotAvailable = errors.New("backend: no backend available")
)

// Capabilities reports the optional GPU features a backend provides.
type Capabilities struct {
	// StorageBuffers reports whether storage buffer bindings are
	// available. Without them only the padded uniform block layout can
	// be used.
	StorageBuffers bool
}

// Adapter is the capability set a pipeline needs from a GPU backend.
//
// Resources are created via Create* methods, addressed by opaque IDs
// and released via Destroy* methods. IDs become invalid after
// destruction. Creation failures wrap ErrAllocation, upload failures
// wrap ErrUpload.
type Adapter interface {
	// Name returns the registry name of the backend.
	Name() string

	// Init prepares the backend for use.
	Init() error

	// Capabilities reports the optional features this backend provides.
	Capabilities() Capabilities

	// Close releases everything the backend still holds.
	Close()

	// CreateShaderModule creates a shader module from SPIR-V bytecode.
	CreateShaderModule(spirv []byte, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// CreateBuffer creates a GPU buffer.
	CreateBuffer(size int, usage gputypes.BufferUsage) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into a buffer at the given byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// CreateTexture creates a GPU texture.
	CreateTexture(width, height int, format gputypes.TextureFormat) (TextureID, error)

	// DestroyTexture releases a GPU texture.
	DestroyTexture(id TextureID)

	// WriteTexture replaces the full contents of a texture.
	WriteTexture(id TextureID, data []byte) error

	// CreateSampler creates a texture sampler.
	CreateSampler(label string) (SamplerID, error)

	// DestroySampler releases a sampler.
	DestroySampler(id SamplerID)

	// CreateBindGroupLayout creates a bind group layout from the given
	// entries.
	CreateBindGroupLayout(entries []gputypes.BindGroupLayoutEntry, label string) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts into a
	// pipeline layout.
	CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateBindGroup binds concrete resources against a layout.
	CreateBindGroup(layout BindGroupLayoutID, entries []BindGroupEntry, label string) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// CreateRenderPipeline creates a native render pipeline object.
	// The pipeline is built against the surface dimensions in the
	// descriptor and must be recreated when they change.
	CreateRenderPipeline(desc *RenderPipelineDesc) (PipelineID, error)

	// DestroyPipeline releases a pipeline object.
	DestroyPipeline(id PipelineID)

	// CreateRenderTarget creates an offscreen render target.
	CreateRenderTarget(width, height int, format gputypes.TextureFormat) (RenderTargetID, error)

	// DestroyRenderTarget releases a render target.
	DestroyRenderTarget(id RenderTargetID)

	// BeginRenderPass starts recording a render pass into the target.
	BeginRenderPass(target RenderTargetID) (RenderEncoder, error)

	// Submit executes all recorded command buffers.
	Submit()

	// WaitIdle blocks until all submitted GPU work has completed.
	WaitIdle()
}

// RenderEncoder records binding and draw state for one render pass.
// Single use; no method may be called after End.
type RenderEncoder interface {
	// SetPipeline selects the active render pipeline.
	SetPipeline(id PipelineID)

	// SetVertexBuffer binds a vertex buffer to the given input slot.
	SetVertexBuffer(slot int, id BufferID)

	// SetBindGroup binds a bind group at the given group index.
	SetBindGroup(index int, id BindGroupID)

	// Draw records a draw of vertexCount vertices over instanceCount
	// instances.
	Draw(vertexCount, instanceCount int)

	// End finishes the pass. The encoder cannot be reused.
	End()
}
