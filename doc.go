// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ngl is a scene-graph driven GPU pipeline binding engine.
//
// ngl sits between a scene graph producing typed parameter values
// (uniforms, buffers, blocks, textures) and a GPU backend. It covers the
// plumbing every renderer needs: reflecting compiled shader interfaces,
// computing std140/std430 block layouts, matching scene nodes to shader
// bindings, allocating descriptor state, and re-uploading only the data
// that changed each frame.
//
// The module is organized as follows:
//
//   - ngl (this package): shared plumbing: logging, logical images
//     (multi-plane texture abstraction), color conversion matrices.
//   - layout: block memory layout engine (field offsets, strides,
//     alignment under the dense and padded packing conventions).
//   - shader: shader program compilation (via naga) and interface
//     reflection (bindings, block fields, vertex attributes).
//   - scene: the parameter node types the pipeline binds, plus ordered
//     name dictionaries.
//   - backend: the GPU capability interface with two implementations,
//     backend/wgpu (github.com/gogpu/wgpu) and backend/native (pure Go).
//   - pipeline: binding resolution, pipeline state objects, and the
//     per-frame update/bind cycle.
//   - hwconv: multi-plane (YUV) to RGBA image conversion built on the
//     pipeline core.
//
// By default ngl produces no log output; call [SetLogger] to enable
// diagnostics.
package ngl
