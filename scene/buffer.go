// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ngl/backend"
	"github.com/gogpu/ngl/layout"
)

// Buffer is a typed array of values backed by an optional GPU buffer.
// It serves both as a vertex attribute source and as a raw storage block
// source.
//
// The GPU allocation is reference counted: the first Acquire creates the
// native buffer, the matching last Release destroys it. Several pipelines
// can therefore share one buffer node without coordinating ownership.
type Buffer struct {
	typ         layout.Type
	count       int
	usage       gputypes.BufferUsage
	perInstance bool

	data     []byte
	rev      uint64
	uploaded uint64

	refs int
	gpu  backend.BufferID
}

// NewBuffer returns a zero-filled buffer of count values of the given
// type, uploaded with the given usage.
func NewBuffer(typ layout.Type, count int, usage gputypes.BufferUsage) *Buffer {
	return &Buffer{
		typ:   typ,
		count: count,
		usage: usage,
		data:  make([]byte, typ.Size()*count),
		rev:   1,
	}
}

// Type returns the element type.
func (b *Buffer) Type() layout.Type { return b.typ }

// Count returns the number of elements.
func (b *Buffer) Count() int { return b.count }

// Stride returns the byte distance between consecutive elements. Buffer
// data is always densely packed.
func (b *Buffer) Stride() int { return b.typ.Size() }

// SetPerInstance marks the buffer as advancing per instance rather than
// per vertex when bound as a vertex attribute.
func (b *Buffer) SetPerInstance(on bool) { b.perInstance = on }

// PerInstance reports whether the buffer advances per instance.
func (b *Buffer) PerInstance() bool { return b.perInstance }

// Bytes returns the current content.
func (b *Buffer) Bytes() []byte { return b.data }

// Revision returns the modification counter.
func (b *Buffer) Revision() uint64 { return b.rev }

// Update evaluates the buffer at time t. Buffer content is static.
func (b *Buffer) Update(t float64) error { return nil }

// SetData replaces the buffer content. The length of data must match the
// declared element type and count.
func (b *Buffer) SetData(data []byte) error {
	if len(data) != len(b.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrNodeType, len(data), len(b.data))
	}
	copy(b.data, data)
	b.rev++
	return nil
}

// Acquire takes a reference on the GPU buffer, creating it on the first
// call.
func (b *Buffer) Acquire(a backend.Adapter) error {
	if b.refs == 0 {
		id, err := a.CreateBuffer(len(b.data), b.usage)
		if err != nil {
			return err
		}
		b.gpu = id
		b.uploaded = 0
	}
	b.refs++
	return nil
}

// Release drops a reference on the GPU buffer, destroying it when the
// last reference goes away. Releasing an unreferenced buffer is a no-op.
func (b *Buffer) Release(a backend.Adapter) {
	if b.refs == 0 {
		return
	}
	b.refs--
	if b.refs == 0 {
		a.DestroyBuffer(b.gpu)
		b.gpu = backend.InvalidID
	}
}

// GPUBuffer returns the live GPU buffer handle, or InvalidID when the
// buffer is not acquired.
func (b *Buffer) GPUBuffer() backend.BufferID { return b.gpu }

// Upload writes the content to the GPU buffer if it changed since the
// last upload.
func (b *Buffer) Upload(a backend.Adapter) error {
	if b.gpu == backend.InvalidID {
		return fmt.Errorf("%w: buffer not acquired", ErrNoGPUResource)
	}
	if b.uploaded == b.rev {
		return nil
	}
	if err := a.WriteBuffer(b.gpu, 0, b.data); err != nil {
		return err
	}
	b.uploaded = b.rev
	return nil
}
