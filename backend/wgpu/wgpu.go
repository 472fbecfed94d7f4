// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the backend adapter over the WebGPU HAL.
//
// The adapter bridges opaque backend IDs to hal resources. The device
// and queue are received from the host application, not created here;
// hosts integrating through the gpucontext ecosystem can hand over a
// gpucontext.DeviceProvider via Configure.
package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ngl/backend"
)

func init() {
	backend.Register(backend.BackendWGPU, func() backend.Adapter {
		if defaultDevice == nil || defaultQueue == nil {
			return nil
		}
		return NewAdapter(defaultDevice, defaultQueue)
	})
}

var (
	defaultDevice hal.Device
	defaultQueue  hal.Queue
)

// SetDefaultDevice installs the device and queue used when the backend
// is instantiated through the registry. Hosts that construct adapters
// directly with NewAdapter do not need this.
func SetDefaultDevice(device hal.Device, queue hal.Queue) {
	defaultDevice = device
	defaultQueue = queue
}

type textureEntry struct {
	texture hal.Texture
	view    hal.TextureView
	width   int
	height  int
	format  gputypes.TextureFormat
}

type renderTarget struct {
	texture hal.Texture
	view    hal.TextureView
	format  gputypes.TextureFormat
}

// Adapter implements backend.Adapter using gogpu/wgpu/hal directly.
// All resource operations are protected by a mutex.
type Adapter struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	nextID atomic.Uint64

	buffers       map[backend.BufferID]hal.Buffer
	textures      map[backend.TextureID]*textureEntry
	samplers      map[backend.SamplerID]hal.Sampler
	shaderModules map[backend.ShaderModuleID]hal.ShaderModule
	groupLayouts  map[backend.BindGroupLayoutID]hal.BindGroupLayout
	pipeLayouts   map[backend.PipelineLayoutID]hal.PipelineLayout
	bindGroups    map[backend.BindGroupID]hal.BindGroup
	pipelines     map[backend.PipelineID]hal.RenderPipeline
	renderTargets map[backend.RenderTargetID]*renderTarget

	pending []hal.CommandBuffer
}

// NewAdapter creates an adapter wrapping the given device and queue.
func NewAdapter(device hal.Device, queue hal.Queue) *Adapter {
	a := &Adapter{
		device:        device,
		queue:         queue,
		buffers:       make(map[backend.BufferID]hal.Buffer),
		textures:      make(map[backend.TextureID]*textureEntry),
		samplers:      make(map[backend.SamplerID]hal.Sampler),
		shaderModules: make(map[backend.ShaderModuleID]hal.ShaderModule),
		groupLayouts:  make(map[backend.BindGroupLayoutID]hal.BindGroupLayout),
		pipeLayouts:   make(map[backend.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:    make(map[backend.BindGroupID]hal.BindGroup),
		pipelines:     make(map[backend.PipelineID]hal.RenderPipeline),
		renderTargets: make(map[backend.RenderTargetID]*renderTarget),
	}
	// 0 is InvalidID
	a.nextID.Store(1)
	return a
}

func (a *Adapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// Name returns the registry name of the backend.
func (a *Adapter) Name() string { return backend.BackendWGPU }

// Init prepares the backend for use.
func (a *Adapter) Init() error {
	if a.device == nil || a.queue == nil {
		return fmt.Errorf("%w: device and queue are required", backend.ErrBackendNotAvailable)
	}
	return nil
}

// Capabilities reports the optional features this backend provides.
// Storage buffers are part of the WebGPU base feature set.
func (a *Adapter) Capabilities() backend.Capabilities {
	return backend.Capabilities{StorageBuffers: true}
}

// Close releases every resource still tracked by the adapter.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, p := range a.pipelines {
		a.device.DestroyRenderPipeline(p)
		delete(a.pipelines, id)
	}
	for id, b := range a.buffers {
		a.device.DestroyBuffer(b)
		delete(a.buffers, id)
	}
	for id, t := range a.textures {
		a.device.DestroyTextureView(t.view)
		a.device.DestroyTexture(t.texture)
		delete(a.textures, id)
	}
	for id, m := range a.shaderModules {
		a.device.DestroyShaderModule(m)
		delete(a.shaderModules, id)
	}
}

func (a *Adapter) CreateShaderModule(spirv []byte, label string) (backend.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return backend.InvalidID, fmt.Errorf("%w: empty SPIR-V bytecode", backend.ErrAllocation)
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}

	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: shader module %q: %v", backend.ErrAllocation, label, err)
	}

	id := backend.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.shaderModules[id] = module
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyShaderModule(id backend.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	if ok {
		delete(a.shaderModules, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyShaderModule(module)
	}
}

func (a *Adapter) CreateBuffer(size int, usage gputypes.BufferUsage) (backend.BufferID, error) {
	if size <= 0 {
		return backend.InvalidID, fmt.Errorf("%w: buffer size must be positive", backend.ErrAllocation)
	}
	buffer, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Size:  uint64(size),
		Usage: usage,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: buffer of %d bytes: %v", backend.ErrAllocation, size, err)
	}

	id := backend.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = buffer
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyBuffer(id backend.BufferID) {
	a.mu.Lock()
	buffer, ok := a.buffers[id]
	if ok {
		delete(a.buffers, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyBuffer(buffer)
	}
}

func (a *Adapter) WriteBuffer(id backend.BufferID, offset uint64, data []byte) error {
	a.mu.RLock()
	buffer, ok := a.buffers[id]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d not found", backend.ErrUpload, id)
	}
	if len(data) > 0 {
		a.queue.WriteBuffer(buffer, offset, data)
	}
	return nil
}

func (a *Adapter) CreateTexture(width, height int, format gputypes.TextureFormat) (backend.TextureID, error) {
	if width <= 0 || height <= 0 {
		return backend.InvalidID, fmt.Errorf("%w: texture dimensions must be positive", backend.ErrAllocation)
	}
	texture, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: texture %dx%d: %v", backend.ErrAllocation, width, height, err)
	}
	view, err := a.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Format:    format,
		Dimension: gputypes.TextureViewDimension2D,
	})
	if err != nil {
		a.device.DestroyTexture(texture)
		return backend.InvalidID, fmt.Errorf("%w: texture view: %v", backend.ErrAllocation, err)
	}

	id := backend.TextureID(a.newID())
	a.mu.Lock()
	a.textures[id] = &textureEntry{texture: texture, view: view, width: width, height: height, format: format}
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyTexture(id backend.TextureID) {
	a.mu.Lock()
	entry, ok := a.textures[id]
	if ok {
		delete(a.textures, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyTextureView(entry.view)
		a.device.DestroyTexture(entry.texture)
	}
}

func (a *Adapter) WriteTexture(id backend.TextureID, data []byte) error {
	a.mu.RLock()
	entry, ok := a.textures[id]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: texture %d not found", backend.ErrUpload, id)
	}
	if len(data) == 0 {
		return nil
	}
	bytesPerRow := len(data) / entry.height
	a.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  entry.texture,
			MipLevel: 0,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bytesPerRow),
			RowsPerImage: uint32(entry.height),
		},
		&hal.Extent3D{
			Width:              uint32(entry.width),
			Height:             uint32(entry.height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (a *Adapter) CreateSampler(label string) (backend.SamplerID, error) {
	sampler, err := a.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: sampler %q: %v", backend.ErrAllocation, label, err)
	}

	id := backend.SamplerID(a.newID())
	a.mu.Lock()
	a.samplers[id] = sampler
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroySampler(id backend.SamplerID) {
	a.mu.Lock()
	sampler, ok := a.samplers[id]
	if ok {
		delete(a.samplers, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroySampler(sampler)
	}
}

func (a *Adapter) CreateBindGroupLayout(entries []gputypes.BindGroupLayoutEntry, label string) (backend.BindGroupLayoutID, error) {
	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: bind group layout %q: %v", backend.ErrAllocation, label, err)
	}

	id := backend.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.groupLayouts[id] = layout
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyBindGroupLayout(id backend.BindGroupLayoutID) {
	a.mu.Lock()
	layout, ok := a.groupLayouts[id]
	if ok {
		delete(a.groupLayouts, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyBindGroupLayout(layout)
	}
}

func (a *Adapter) CreatePipelineLayout(layouts []backend.BindGroupLayoutID) (backend.PipelineLayoutID, error) {
	a.mu.RLock()
	halLayouts := make([]hal.BindGroupLayout, 0, len(layouts))
	for _, l := range layouts {
		layout, ok := a.groupLayouts[l]
		if !ok {
			a.mu.RUnlock()
			return backend.InvalidID, fmt.Errorf("%w: bind group layout %d not found", backend.ErrAllocation, l)
		}
		halLayouts = append(halLayouts, layout)
	}
	a.mu.RUnlock()

	layout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: pipeline layout: %v", backend.ErrAllocation, err)
	}

	id := backend.PipelineLayoutID(a.newID())
	a.mu.Lock()
	a.pipeLayouts[id] = layout
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyPipelineLayout(id backend.PipelineLayoutID) {
	a.mu.Lock()
	layout, ok := a.pipeLayouts[id]
	if ok {
		delete(a.pipeLayouts, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyPipelineLayout(layout)
	}
}

func (a *Adapter) CreateBindGroup(layoutID backend.BindGroupLayoutID, entries []backend.BindGroupEntry, label string) (backend.BindGroupID, error) {
	a.mu.RLock()
	layout, ok := a.groupLayouts[layoutID]
	if !ok {
		a.mu.RUnlock()
		return backend.InvalidID, fmt.Errorf("%w: bind group layout %d not found", backend.ErrAllocation, layoutID)
	}
	halEntries := make([]gputypes.BindGroupEntry, 0, len(entries))
	for _, e := range entries {
		he := gputypes.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != backend.InvalidID:
			buffer, ok := a.buffers[e.Buffer]
			if !ok {
				a.mu.RUnlock()
				return backend.InvalidID, fmt.Errorf("%w: buffer %d not found", backend.ErrAllocation, e.Buffer)
			}
			he.Resource = gputypes.BufferBinding{
				Buffer: buffer.NativeHandle(),
				Offset: e.Offset,
				Size:   e.Size,
			}
		case e.Texture != backend.InvalidID:
			entry, ok := a.textures[e.Texture]
			if !ok {
				a.mu.RUnlock()
				return backend.InvalidID, fmt.Errorf("%w: texture %d not found", backend.ErrAllocation, e.Texture)
			}
			he.Resource = gputypes.TextureViewBinding{
				TextureView: entry.view.NativeHandle(),
			}
		case e.Sampler != backend.InvalidID:
			sampler, ok := a.samplers[e.Sampler]
			if !ok {
				a.mu.RUnlock()
				return backend.InvalidID, fmt.Errorf("%w: sampler %d not found", backend.ErrAllocation, e.Sampler)
			}
			he.Resource = gputypes.SamplerBinding{
				Sampler: sampler.NativeHandle(),
			}
		}
		halEntries = append(halEntries, he)
	}
	a.mu.RUnlock()

	group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: halEntries,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: bind group %q: %v", backend.ErrAllocation, label, err)
	}

	id := backend.BindGroupID(a.newID())
	a.mu.Lock()
	a.bindGroups[id] = group
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyBindGroup(id backend.BindGroupID) {
	a.mu.Lock()
	group, ok := a.bindGroups[id]
	if ok {
		delete(a.bindGroups, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyBindGroup(group)
	}
}

func (a *Adapter) CreateRenderPipeline(desc *backend.RenderPipelineDesc) (backend.PipelineID, error) {
	a.mu.RLock()
	layout, ok := a.pipeLayouts[desc.Layout]
	if !ok {
		a.mu.RUnlock()
		return backend.InvalidID, fmt.Errorf("%w: pipeline layout %d not found", backend.ErrAllocation, desc.Layout)
	}
	vertModule, ok := a.shaderModules[desc.VertexShader]
	if !ok {
		a.mu.RUnlock()
		return backend.InvalidID, fmt.Errorf("%w: vertex shader module %d not found", backend.ErrAllocation, desc.VertexShader)
	}
	var fragModule hal.ShaderModule
	if desc.FragmentShader != backend.InvalidID {
		fragModule, ok = a.shaderModules[desc.FragmentShader]
		if !ok {
			a.mu.RUnlock()
			return backend.InvalidID, fmt.Errorf("%w: fragment shader module %d not found", backend.ErrAllocation, desc.FragmentShader)
		}
	}
	a.mu.RUnlock()

	buffers := make([]gputypes.VertexBufferLayout, 0, len(desc.VertexBuffers))
	for _, vb := range desc.VertexBuffers {
		attrs := make([]gputypes.VertexAttribute, 0, len(vb.Attributes))
		for _, attr := range vb.Attributes {
			attrs = append(attrs, gputypes.VertexAttribute{
				Format:         attr.Format,
				Offset:         attr.Offset,
				ShaderLocation: attr.Location,
			})
		}
		buffers = append(buffers, gputypes.VertexBufferLayout{
			ArrayStride: vb.Stride,
			StepMode:    vb.StepMode,
			Attributes:  attrs,
		})
	}

	halDesc := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vertModule,
			EntryPoint: desc.VertexEntry,
			Buffers:    buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: desc.Topology,
			CullMode: desc.FixedFunction.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if ds := desc.FixedFunction.DepthStencilFormat; ds != gputypes.TextureFormatUndefined {
		compare := desc.FixedFunction.DepthCompare
		if compare == 0 {
			compare = gputypes.CompareFunctionAlways
		}
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		halDesc.DepthStencil = &hal.DepthStencilState{
			Format:            ds,
			DepthWriteEnabled: desc.FixedFunction.DepthWriteEnabled,
			DepthCompare:      compare,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	}
	if fragModule != nil {
		target := gputypes.ColorTargetState{
			Format:    desc.ColorFormat,
			WriteMask: gputypes.ColorWriteMaskAll,
		}
		if blend, ok := blendState(desc.FixedFunction.Blend); ok {
			target.Blend = &blend
		}
		halDesc.Fragment = &hal.FragmentState{
			Module:     fragModule,
			EntryPoint: desc.FragmentEntry,
			Targets:    []gputypes.ColorTargetState{target},
		}
	}

	pipeline, err := a.device.CreateRenderPipeline(halDesc)
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: render pipeline %q: %v", backend.ErrAllocation, desc.Label, err)
	}

	id := backend.PipelineID(a.newID())
	a.mu.Lock()
	a.pipelines[id] = pipeline
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyPipeline(id backend.PipelineID) {
	a.mu.Lock()
	pipeline, ok := a.pipelines[id]
	if ok {
		delete(a.pipelines, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyRenderPipeline(pipeline)
	}
}

func (a *Adapter) CreateRenderTarget(width, height int, format gputypes.TextureFormat) (backend.RenderTargetID, error) {
	texture, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return backend.InvalidID, fmt.Errorf("%w: render target %dx%d: %v", backend.ErrAllocation, width, height, err)
	}
	view, err := a.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Format:    format,
		Dimension: gputypes.TextureViewDimension2D,
	})
	if err != nil {
		a.device.DestroyTexture(texture)
		return backend.InvalidID, fmt.Errorf("%w: render target view: %v", backend.ErrAllocation, err)
	}

	id := backend.RenderTargetID(a.newID())
	a.mu.Lock()
	a.renderTargets[id] = &renderTarget{texture: texture, view: view, format: format}
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyRenderTarget(id backend.RenderTargetID) {
	a.mu.Lock()
	target, ok := a.renderTargets[id]
	if ok {
		delete(a.renderTargets, id)
	}
	a.mu.Unlock()
	if ok {
		a.device.DestroyTextureView(target.view)
		a.device.DestroyTexture(target.texture)
	}
}

func (a *Adapter) BeginRenderPass(targetID backend.RenderTargetID) (backend.RenderEncoder, error) {
	a.mu.RLock()
	target, ok := a.renderTargets[targetID]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: render target %d not found", backend.ErrAllocation, targetID)
	}

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: command encoder: %v", backend.ErrAllocation, err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return nil, fmt.Errorf("%w: begin encoding: %v", backend.ErrAllocation, err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	return &renderEncoder{adapter: a, encoder: encoder, pass: rp}, nil
}

func (a *Adapter) Submit() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	if _, err := a.queue.Submit(pending); err != nil {
		return
	}
	for _, cb := range pending {
		a.device.FreeCommandBuffer(cb)
	}
}

func (a *Adapter) WaitIdle() {
	a.Submit()
	_ = a.device.WaitIdle()
}

// blendState maps a blend mode to the hal blend description. The false
// return disables blending.
func blendState(mode backend.BlendMode) (gputypes.BlendState, bool) {
	switch mode {
	case backend.BlendAlpha:
		return gputypes.BlendStateAlpha(), true
	case backend.BlendReplace:
		return gputypes.BlendStateReplace(), true
	case backend.BlendNone:
		return gputypes.BlendState{}, false
	default:
		return gputypes.BlendStatePremultiplied(), true
	}
}

// renderEncoder adapts a hal render pass to the backend encoder.
type renderEncoder struct {
	adapter *Adapter
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
}

func (e *renderEncoder) SetPipeline(id backend.PipelineID) {
	e.adapter.mu.RLock()
	pipeline, ok := e.adapter.pipelines[id]
	e.adapter.mu.RUnlock()
	if ok {
		e.pass.SetPipeline(pipeline)
	}
}

func (e *renderEncoder) SetVertexBuffer(slot int, id backend.BufferID) {
	e.adapter.mu.RLock()
	buffer, ok := e.adapter.buffers[id]
	e.adapter.mu.RUnlock()
	if ok {
		e.pass.SetVertexBuffer(uint32(slot), buffer, 0)
	}
}

func (e *renderEncoder) SetBindGroup(index int, id backend.BindGroupID) {
	e.adapter.mu.RLock()
	group, ok := e.adapter.bindGroups[id]
	e.adapter.mu.RUnlock()
	if ok {
		e.pass.SetBindGroup(uint32(index), group, nil)
	}
}

func (e *renderEncoder) Draw(vertexCount, instanceCount int) {
	e.pass.Draw(uint32(vertexCount), uint32(instanceCount), 0, 0)
}

func (e *renderEncoder) End() {
	e.pass.End()
	cmdBuf, err := e.encoder.EndEncoding()
	if err != nil {
		return
	}
	e.adapter.mu.Lock()
	e.adapter.pending = append(e.adapter.pending, cmdBuf)
	e.adapter.mu.Unlock()
}
