// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native provides a pure Go in-memory backend adapter.
//
// Buffers and textures are plain byte slices, pipeline and descriptor
// objects are table entries. The adapter is used for tests and headless
// runs; it tracks create/destroy counts so callers can assert on
// resource churn.
package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ngl/backend"
)

func init() {
	backend.Register(backend.BackendNative, func() backend.Adapter {
		return New()
	})
}

// Stats counts resource lifecycle events. Snapshot via Adapter.Stats.
type Stats struct {
	BuffersCreated     int
	BuffersDestroyed   int
	BufferWrites       int
	TexturesCreated    int
	TexturesDestroyed  int
	PipelinesCreated   int
	PipelinesDestroyed int
	BindGroupsCreated  int
	LayoutsCreated     int
	WaitIdleCalls      int
	Submits            int
}

type bufferEntry struct {
	data  []byte
	usage gputypes.BufferUsage
}

type textureEntry struct {
	width  int
	height int
	format gputypes.TextureFormat
	data   []byte
}

type pipelineEntry struct {
	desc backend.RenderPipelineDesc
}

type renderTargetEntry struct {
	width  int
	height int
	format gputypes.TextureFormat
}

// Adapter implements backend.Adapter entirely on the host.
type Adapter struct {
	mu     sync.RWMutex
	nextID atomic.Uint64
	stats  Stats
	caps   backend.Capabilities

	buffers       map[backend.BufferID]*bufferEntry
	textures      map[backend.TextureID]*textureEntry
	samplers      map[backend.SamplerID]struct{}
	shaderModules map[backend.ShaderModuleID][]byte
	groupLayouts  map[backend.BindGroupLayoutID][]gputypes.BindGroupLayoutEntry
	pipeLayouts   map[backend.PipelineLayoutID][]backend.BindGroupLayoutID
	bindGroups    map[backend.BindGroupID][]backend.BindGroupEntry
	pipelines     map[backend.PipelineID]*pipelineEntry
	renderTargets map[backend.RenderTargetID]*renderTargetEntry
}

// New creates an empty adapter.
func New() *Adapter {
	a := &Adapter{
		buffers:       make(map[backend.BufferID]*bufferEntry),
		textures:      make(map[backend.TextureID]*textureEntry),
		samplers:      make(map[backend.SamplerID]struct{}),
		shaderModules: make(map[backend.ShaderModuleID][]byte),
		groupLayouts:  make(map[backend.BindGroupLayoutID][]gputypes.BindGroupLayoutEntry),
		pipeLayouts:   make(map[backend.PipelineLayoutID][]backend.BindGroupLayoutID),
		bindGroups:    make(map[backend.BindGroupID][]backend.BindGroupEntry),
		pipelines:     make(map[backend.PipelineID]*pipelineEntry),
		renderTargets: make(map[backend.RenderTargetID]*renderTargetEntry),
		caps:          backend.Capabilities{StorageBuffers: true},
	}
	// 0 is InvalidID
	a.nextID.Store(1)
	return a
}

func (a *Adapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// Name returns the registry name of the backend.
func (a *Adapter) Name() string { return backend.BackendNative }

// Init prepares the backend for use. Always succeeds.
func (a *Adapter) Init() error { return nil }

// Close releases everything the backend still holds.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffers = make(map[backend.BufferID]*bufferEntry)
	a.textures = make(map[backend.TextureID]*textureEntry)
	a.pipelines = make(map[backend.PipelineID]*pipelineEntry)
}

// Capabilities reports the optional features this backend provides.
func (a *Adapter) Capabilities() backend.Capabilities {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.caps
}

// SetCapabilities overrides the reported capabilities. Intended for tests
// that exercise fallback paths.
func (a *Adapter) SetCapabilities(caps backend.Capabilities) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.caps = caps
}

// Stats returns a snapshot of the lifecycle counters.
func (a *Adapter) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// ResetStats zeroes the lifecycle counters.
func (a *Adapter) ResetStats() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = Stats{}
}

func (a *Adapter) CreateShaderModule(spirv []byte, label string) (backend.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return backend.InvalidID, fmt.Errorf("%w: empty shader module %q", backend.ErrAllocation, label)
	}
	id := backend.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.shaderModules[id] = spirv
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyShaderModule(id backend.ShaderModuleID) {
	a.mu.Lock()
	delete(a.shaderModules, id)
	a.mu.Unlock()
}

func (a *Adapter) CreateBuffer(size int, usage gputypes.BufferUsage) (backend.BufferID, error) {
	if size <= 0 {
		return backend.InvalidID, fmt.Errorf("%w: buffer size must be positive", backend.ErrAllocation)
	}
	id := backend.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = &bufferEntry{data: make([]byte, size), usage: usage}
	a.stats.BuffersCreated++
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyBuffer(id backend.BufferID) {
	a.mu.Lock()
	if _, ok := a.buffers[id]; ok {
		delete(a.buffers, id)
		a.stats.BuffersDestroyed++
	}
	a.mu.Unlock()
}

func (a *Adapter) WriteBuffer(id backend.BufferID, offset uint64, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d not found", backend.ErrUpload, id)
	}
	if int(offset)+len(data) > len(buf.data) {
		return fmt.Errorf("%w: write of %d bytes at %d exceeds buffer size %d",
			backend.ErrUpload, len(data), offset, len(buf.data))
	}
	copy(buf.data[offset:], data)
	a.stats.BufferWrites++
	return nil
}

// BufferData returns a copy of the buffer's current contents.
// Test helper; not part of the backend.Adapter surface.
func (a *Adapter) BufferData(id backend.BufferID) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	buf, ok := a.buffers[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(buf.data))
	copy(out, buf.data)
	return out, true
}

// PipelineDesc returns a copy of the descriptor a pipeline was created
// with. Test helper; not part of the backend.Adapter surface.
func (a *Adapter) PipelineDesc(id backend.PipelineID) (backend.RenderPipelineDesc, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.pipelines[id]
	if !ok {
		return backend.RenderPipelineDesc{}, false
	}
	return e.desc, true
}

// LayoutEntries returns a copy of a bind group layout's entries.
// Test helper; not part of the backend.Adapter surface.
func (a *Adapter) LayoutEntries(id backend.BindGroupLayoutID) ([]gputypes.BindGroupLayoutEntry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	entries, ok := a.groupLayouts[id]
	if !ok {
		return nil, false
	}
	out := make([]gputypes.BindGroupLayoutEntry, len(entries))
	copy(out, entries)
	return out, true
}

func (a *Adapter) CreateTexture(width, height int, format gputypes.TextureFormat) (backend.TextureID, error) {
	if width <= 0 || height <= 0 {
		return backend.InvalidID, fmt.Errorf("%w: texture dimensions must be positive", backend.ErrAllocation)
	}
	id := backend.TextureID(a.newID())
	a.mu.Lock()
	a.textures[id] = &textureEntry{width: width, height: height, format: format}
	a.stats.TexturesCreated++
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyTexture(id backend.TextureID) {
	a.mu.Lock()
	if _, ok := a.textures[id]; ok {
		delete(a.textures, id)
		a.stats.TexturesDestroyed++
	}
	a.mu.Unlock()
}

func (a *Adapter) WriteTexture(id backend.TextureID, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	tex, ok := a.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d not found", backend.ErrUpload, id)
	}
	tex.data = make([]byte, len(data))
	copy(tex.data, data)
	return nil
}

func (a *Adapter) CreateSampler(label string) (backend.SamplerID, error) {
	id := backend.SamplerID(a.newID())
	a.mu.Lock()
	a.samplers[id] = struct{}{}
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroySampler(id backend.SamplerID) {
	a.mu.Lock()
	delete(a.samplers, id)
	a.mu.Unlock()
}

func (a *Adapter) CreateBindGroupLayout(entries []gputypes.BindGroupLayoutEntry, label string) (backend.BindGroupLayoutID, error) {
	id := backend.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.groupLayouts[id] = entries
	a.stats.LayoutsCreated++
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyBindGroupLayout(id backend.BindGroupLayoutID) {
	a.mu.Lock()
	delete(a.groupLayouts, id)
	a.mu.Unlock()
}

func (a *Adapter) CreatePipelineLayout(layouts []backend.BindGroupLayoutID) (backend.PipelineLayoutID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range layouts {
		if _, ok := a.groupLayouts[l]; !ok {
			return backend.InvalidID, fmt.Errorf("%w: bind group layout %d not found", backend.ErrAllocation, l)
		}
	}
	id := backend.PipelineLayoutID(a.newID())
	a.pipeLayouts[id] = layouts
	return id, nil
}

func (a *Adapter) DestroyPipelineLayout(id backend.PipelineLayoutID) {
	a.mu.Lock()
	delete(a.pipeLayouts, id)
	a.mu.Unlock()
}

func (a *Adapter) CreateBindGroup(layout backend.BindGroupLayoutID, entries []backend.BindGroupEntry, label string) (backend.BindGroupID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	layoutEntries, ok := a.groupLayouts[layout]
	if !ok {
		return backend.InvalidID, fmt.Errorf("%w: bind group layout %d not found", backend.ErrAllocation, layout)
	}
	if len(entries) != len(layoutEntries) {
		return backend.InvalidID, fmt.Errorf("%w: bind group %q has %d entries, layout expects %d",
			backend.ErrAllocation, label, len(entries), len(layoutEntries))
	}
	id := backend.BindGroupID(a.newID())
	a.bindGroups[id] = entries
	a.stats.BindGroupsCreated++
	return id, nil
}

func (a *Adapter) DestroyBindGroup(id backend.BindGroupID) {
	a.mu.Lock()
	delete(a.bindGroups, id)
	a.mu.Unlock()
}

func (a *Adapter) CreateRenderPipeline(desc *backend.RenderPipelineDesc) (backend.PipelineID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.shaderModules[desc.VertexShader]; !ok {
		return backend.InvalidID, fmt.Errorf("%w: vertex shader module %d not found",
			backend.ErrAllocation, desc.VertexShader)
	}
	if desc.FragmentShader != backend.InvalidID {
		if _, ok := a.shaderModules[desc.FragmentShader]; !ok {
			return backend.InvalidID, fmt.Errorf("%w: fragment shader module %d not found",
				backend.ErrAllocation, desc.FragmentShader)
		}
	}
	if _, ok := a.pipeLayouts[desc.Layout]; !ok {
		return backend.InvalidID, fmt.Errorf("%w: pipeline layout %d not found",
			backend.ErrAllocation, desc.Layout)
	}
	id := backend.PipelineID(a.newID())
	a.pipelines[id] = &pipelineEntry{desc: *desc}
	a.stats.PipelinesCreated++
	return id, nil
}

func (a *Adapter) DestroyPipeline(id backend.PipelineID) {
	a.mu.Lock()
	if _, ok := a.pipelines[id]; ok {
		delete(a.pipelines, id)
		a.stats.PipelinesDestroyed++
	}
	a.mu.Unlock()
}

func (a *Adapter) CreateRenderTarget(width, height int, format gputypes.TextureFormat) (backend.RenderTargetID, error) {
	if width <= 0 || height <= 0 {
		return backend.InvalidID, fmt.Errorf("%w: render target dimensions must be positive", backend.ErrAllocation)
	}
	id := backend.RenderTargetID(a.newID())
	a.mu.Lock()
	a.renderTargets[id] = &renderTargetEntry{width: width, height: height, format: format}
	a.mu.Unlock()
	return id, nil
}

func (a *Adapter) DestroyRenderTarget(id backend.RenderTargetID) {
	a.mu.Lock()
	delete(a.renderTargets, id)
	a.mu.Unlock()
}

func (a *Adapter) BeginRenderPass(target backend.RenderTargetID) (backend.RenderEncoder, error) {
	a.mu.RLock()
	_, ok := a.renderTargets[target]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: render target %d not found", backend.ErrAllocation, target)
	}
	return &encoder{adapter: a}, nil
}

func (a *Adapter) Submit() {
	a.mu.Lock()
	a.stats.Submits++
	a.mu.Unlock()
}

func (a *Adapter) WaitIdle() {
	a.mu.Lock()
	a.stats.WaitIdleCalls++
	a.mu.Unlock()
}

// encoder records the commands of one render pass for inspection.
type encoder struct {
	adapter  *Adapter
	pipeline backend.PipelineID
	groups   map[int]backend.BindGroupID
	vertex   map[int]backend.BufferID
	ended    bool
}

func (e *encoder) SetPipeline(id backend.PipelineID) {
	e.pipeline = id
}

func (e *encoder) SetVertexBuffer(slot int, id backend.BufferID) {
	if e.vertex == nil {
		e.vertex = make(map[int]backend.BufferID)
	}
	e.vertex[slot] = id
}

func (e *encoder) SetBindGroup(index int, id backend.BindGroupID) {
	if e.groups == nil {
		e.groups = make(map[int]backend.BindGroupID)
	}
	e.groups[index] = id
}

func (e *encoder) Draw(vertexCount, instanceCount int) {}

func (e *encoder) End() {
	e.ended = true
}
