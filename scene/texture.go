// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/backend"
)

// Texture is a single-plane texture node. It owns the pixel bytes on the
// host and a reference counted GPU texture plus sampler. A Texture
// implements ngl.Plane so it can back one plane of a logical ngl.Image.
//
// Multi-plane content (NV12 and friends) is modeled as one Texture per
// plane assembled into an Image by the owner.
type Texture struct {
	width  int
	height int
	format ngl.PixelFormat

	data     []byte
	rev      uint64
	uploaded uint64

	refs    int
	gpu     backend.TextureID
	sampler backend.SamplerID

	// image carries the coordinate and color matrices and the content
	// timestamp for the logical image this texture is plane 0 of.
	image ngl.Image
}

// NewTexture returns a zero-filled texture node of the given size and
// pixel format, initialized as a single-plane default image.
func NewTexture(width, height int, format ngl.PixelFormat) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid texture size %dx%d", ErrNodeType, width, height)
	}
	t := &Texture{
		width:  width,
		height: height,
		format: format,
		data:   make([]byte, width*height*format.BytesPerPixel()),
		rev:    1,
	}
	if err := t.image.Init(ngl.ImageLayoutDefault, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Depth returns 0: texture nodes are 2D.
func (t *Texture) Depth() int { return 0 }

// Format returns the pixel format.
func (t *Texture) Format() ngl.PixelFormat { return t.format }

// Image returns the logical image carrying the coordinate matrix, color
// matrix and timestamp for this texture.
func (t *Texture) Image() *ngl.Image { return &t.image }

// Bytes returns the host pixel bytes.
func (t *Texture) Bytes() []byte { return t.data }

// Revision returns the modification counter.
func (t *Texture) Revision() uint64 { return t.rev }

// Update evaluates the texture at time t. Static texture content does
// not change; streaming sources wrap a Texture and call SetData.
func (t *Texture) Update(tm float64) error { return nil }

// SetData replaces the pixel content and stamps the image with the
// presentation time ts.
func (t *Texture) SetData(data []byte, ts float64) error {
	if len(data) != len(t.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrNodeType, len(data), len(t.data))
	}
	copy(t.data, data)
	t.image.Timestamp = ts
	t.rev++
	return nil
}

// GPUFormat maps the pixel format to the backend texture format.
func (t *Texture) GPUFormat() gputypes.TextureFormat {
	switch t.format {
	case ngl.PixelFormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	case ngl.PixelFormatR8:
		return gputypes.TextureFormatR8Unorm
	case ngl.PixelFormatRG8:
		return gputypes.TextureFormatRG8Unorm
	case ngl.PixelFormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// Acquire takes a reference on the GPU texture and sampler, creating
// them on the first call.
func (t *Texture) Acquire(a backend.Adapter) error {
	if t.refs == 0 {
		tex, err := a.CreateTexture(t.width, t.height, t.GPUFormat())
		if err != nil {
			return err
		}
		smp, err := a.CreateSampler("texture sampler")
		if err != nil {
			a.DestroyTexture(tex)
			return err
		}
		t.gpu = tex
		t.sampler = smp
		t.uploaded = 0
	}
	t.refs++
	return nil
}

// Release drops a reference, destroying the GPU texture and sampler when
// the last one goes away.
func (t *Texture) Release(a backend.Adapter) {
	if t.refs == 0 {
		return
	}
	t.refs--
	if t.refs == 0 {
		a.DestroyTexture(t.gpu)
		a.DestroySampler(t.sampler)
		t.gpu = backend.InvalidID
		t.sampler = backend.InvalidID
	}
}

// GPUTexture returns the live GPU texture handle, or InvalidID.
func (t *Texture) GPUTexture() backend.TextureID { return t.gpu }

// GPUSampler returns the live sampler handle, or InvalidID.
func (t *Texture) GPUSampler() backend.SamplerID { return t.sampler }

// Upload writes the pixel content to the GPU texture if it changed since
// the last upload.
func (t *Texture) Upload(a backend.Adapter) error {
	if t.gpu == backend.InvalidID {
		return fmt.Errorf("%w: texture not acquired", ErrNoGPUResource)
	}
	if t.uploaded == t.rev {
		return nil
	}
	if err := a.WriteTexture(t.gpu, t.data); err != nil {
		return err
	}
	t.uploaded = t.rev
	return nil
}
