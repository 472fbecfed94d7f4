// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hwconv

import "github.com/gogpu/ngl"

// quadVertSource passes the fullscreen quad through untransformed.
const quadVertSource = `
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
    out.position = vec4<f32>(v.ngl_position, 1.0);
    out.uv = v.ngl_uvcoord;
    return out;
}
`

// singlePlaneFragSource copies one RGBA plane, honoring the coordinate
// transform. Used for the default and platform-opaque layouts.
const singlePlaneFragSource = `
struct Uniforms {
    tex0_coord_matrix: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> ngl_uniforms: Uniforms;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var tex0_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let tc = (ngl_uniforms.tex0_coord_matrix * vec4<f32>(uv, 0.0, 1.0)).xy;
    return textureSample(tex0, tex0_sampler, tc);
}
`

// nv12FragSource reassembles RGB from a full-resolution luma plane and a
// half-resolution interleaved chroma plane.
const nv12FragSource = `
struct Uniforms {
    color_matrix: mat4x4<f32>,
    tex0_coord_matrix: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> ngl_uniforms: Uniforms;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var tex0_sampler: sampler;
@group(0) @binding(3) var tex1: texture_2d<f32>;
@group(0) @binding(4) var tex1_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let tc = (ngl_uniforms.tex0_coord_matrix * vec4<f32>(uv, 0.0, 1.0)).xy;
    let luma = textureSample(tex0, tex0_sampler, tc).r;
    let chroma = textureSample(tex1, tex1_sampler, tc).rg;
    let rgb = ngl_uniforms.color_matrix * vec4<f32>(luma, chroma, 1.0);
    return vec4<f32>(rgb.rgb, 1.0);
}
`

// nv12RectFragSource is the rectangle-texture variant: the coordinate
// matrix yields pixel coordinates which are normalized against the luma
// plane dimensions before sampling.
const nv12RectFragSource = `
struct Uniforms {
    color_matrix: mat4x4<f32>,
    tex0_coord_matrix: mat4x4<f32>,
    tex0_dimensions: vec2<f32>,
}

@group(0) @binding(0) var<uniform> ngl_uniforms: Uniforms;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var tex0_sampler: sampler;
@group(0) @binding(3) var tex1: texture_2d<f32>;
@group(0) @binding(4) var tex1_sampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    let px = (ngl_uniforms.tex0_coord_matrix * vec4<f32>(uv, 0.0, 1.0)).xy;
    let tc = px / ngl_uniforms.tex0_dimensions;
    let luma = textureSample(tex0, tex0_sampler, tc).r;
    let chroma = textureSample(tex1, tex1_sampler, tc).rg;
    let rgb = ngl_uniforms.color_matrix * vec4<f32>(luma, chroma, 1.0);
    return vec4<f32>(rgb.rgb, 1.0);
}
`

// fragSources selects the conversion shader per source layout.
var fragSources = map[ngl.ImageLayout]string{
	ngl.ImageLayoutDefault:       singlePlaneFragSource,
	ngl.ImageLayoutMediaCodec:    singlePlaneFragSource,
	ngl.ImageLayoutNV12:          nv12FragSource,
	ngl.ImageLayoutNV12Rectangle: nv12RectFragSource,
}
