// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hwconv converts multi-plane video images to single-plane RGBA.
//
// Decoded video frames arrive as NV12 or platform-opaque plane sets. A
// Converter builds a small fullscreen pipeline on the core binding
// engine that samples the source planes, applies the coordinate
// transform and the color space conversion matrix, and renders into an
// RGBA target.
package hwconv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/backend"
	"github.com/gogpu/ngl/layout"
	"github.com/gogpu/ngl/pipeline"
	"github.com/gogpu/ngl/scene"
	"github.com/gogpu/ngl/shader"
)

// ErrUnsupportedConversion is returned when the source image layout has
// no conversion path.
var ErrUnsupportedConversion = errors.New("hwconv: unsupported image layout")

// Converter renders a multi-plane source image into an RGBA target.
type Converter struct {
	adapter backend.Adapter
	src     *ngl.Image
	planes  []*scene.Texture

	pipe   *pipeline.Pipeline
	target backend.RenderTargetID

	width  int
	height int
}

// New builds a converter for src rendering into a width x height RGBA
// target. Every plane of src must be a scene texture node. The color
// conversion matrix is fixed at construction from space.
func New(a backend.Adapter, src *ngl.Image, space ngl.ColorSpace, width, height int) (*Converter, error) {
	frag, ok := fragSources[src.Layout()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, src.Layout())
	}

	c := &Converter{
		adapter: a,
		src:     src,
		width:   width,
		height:  height,
	}
	for i := 0; i < src.PlaneCount(); i++ {
		plane, ok := src.Plane(i).(*scene.Texture)
		if !ok {
			return nil, fmt.Errorf("%w: plane %d is not a texture node", scene.ErrNodeType, i)
		}
		c.planes = append(c.planes, plane)
	}

	program, err := shader.NewProgram(
		shader.StageSource{Stage: shader.StageVertex, Source: quadVertSource},
		shader.StageSource{Stage: shader.StageFragment, Source: frag},
	)
	if err != nil {
		return nil, err
	}

	res, err := c.buildResources(space)
	if err != nil {
		return nil, err
	}

	c.pipe, err = pipeline.New(a, &pipeline.Config{
		Program:   program,
		Resources: *res,
		Surface:   c,
		Topology:  gputypes.PrimitiveTopologyTriangleStrip,
		Label:     "hwconv " + src.Layout().String(),
	})
	if err != nil {
		return nil, err
	}

	c.target, err = a.CreateRenderTarget(width, height, c.Format())
	if err != nil {
		c.pipe.Release()
		return nil, err
	}

	ngl.Logger().Debug("converter built", "layout", src.Layout().String(),
		"planes", len(c.planes), "width", width, "height", height)
	return c, nil
}

// Width returns the target width. Part of the pipeline surface contract.
func (c *Converter) Width() int { return c.width }

// Height returns the target height.
func (c *Converter) Height() int { return c.height }

// Format returns the target pixel format.
func (c *Converter) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pipeline returns the conversion pipeline.
func (c *Converter) Pipeline() *pipeline.Pipeline { return c.pipe }

// Target returns the RGBA render target the converter draws into.
func (c *Converter) Target() backend.RenderTargetID { return c.target }

// buildResources assembles the fullscreen quad and the per-plane
// texture dictionary.
func (c *Converter) buildResources(space ngl.ColorSpace) (*pipeline.Resources, error) {
	pos := scene.NewBuffer(layout.TypeVec3, 4,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err := pos.SetData(encodeFloats(
		-1, -1, 0,
		1, -1, 0,
		-1, 1, 0,
		1, 1, 0,
	)); err != nil {
		return nil, err
	}
	uv := scene.NewBuffer(layout.TypeVec2, 4,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err := uv.SetData(encodeFloats(
		0, 1,
		1, 1,
		0, 0,
		1, 0,
	)); err != nil {
		return nil, err
	}

	attrs := scene.NewDict()
	attrs.Set(pipeline.AttrPosition, pos)
	attrs.Set(pipeline.AttrUVCoord, uv)

	textures := scene.NewDict()
	for i, plane := range c.planes {
		textures.Set(fmt.Sprintf("tex%d", i), plane)
	}

	uniforms := scene.NewDict()
	if c.src.PlaneCount() > 1 {
		cm := scene.NewUniform(layout.TypeMat4)
		if err := cm.SetMat4(ngl.ColorMatrixForSpace(space)); err != nil {
			return nil, err
		}
		uniforms.Set("color_matrix", cm)
	}

	return &pipeline.Resources{
		Attributes: attrs,
		Uniforms:   uniforms,
		Textures:   textures,
	}, nil
}

// Convert renders the current source content into the target at
// timeline time t.
func (c *Converter) Convert(t float64) error {
	// The logical image's transform and timestamp live on the source
	// Image; mirror them onto plane 0, which feeds the derived uniform
	// pairs.
	img := c.planes[0].Image()
	img.CoordMatrix = c.src.CoordMatrix
	img.Timestamp = c.src.Timestamp

	if err := c.pipe.Update(t); err != nil {
		return err
	}

	enc, err := c.adapter.BeginRenderPass(c.target)
	if err != nil {
		return err
	}
	if err := c.pipe.Bind(enc, ngl.Identity, ngl.Identity); err != nil {
		enc.End()
		return err
	}
	enc.Draw(4, 1)
	enc.End()
	c.adapter.Submit()
	return nil
}

// Release destroys the pipeline and the render target. Safe to call
// more than once.
func (c *Converter) Release() {
	if c.pipe != nil {
		c.pipe.Release()
		c.pipe = nil
	}
	if c.target != backend.InvalidID {
		c.adapter.DestroyRenderTarget(c.target)
		c.target = backend.InvalidID
	}
}

func encodeFloats(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], math32.Float32bits(v))
	}
	return out
}
