// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/backend"
	"github.com/gogpu/ngl/layout"
)

// FieldNode is a node that can act as a block member: it exposes its
// element type in addition to the raw bytes. Uniform and Buffer both
// implement it.
type FieldNode interface {
	Source
	Type() layout.Type
}

// Block aggregates typed field nodes into one contiguous GPU buffer laid
// out under a packing convention. Field values are repacked into the
// staging bytes on Update and flushed to the GPU with Upload, both gated
// on per-field revision counters so unchanged fields cost nothing.
//
// Like Buffer, the GPU allocation is reference counted across consumers.
type Block struct {
	conv  layout.Convention
	usage gputypes.BufferUsage

	names []string
	nodes []FieldNode
	lay   *layout.Block
	// packed holds the revision of each field last written to staging.
	packed []uint64

	rev      uint64
	uploaded uint64

	refs int
	gpu  backend.BufferID
}

// NewBlock returns an empty block using the given convention and buffer
// usage.
func NewBlock(conv layout.Convention, usage gputypes.BufferUsage) *Block {
	return &Block{conv: conv, usage: usage, rev: 1}
}

// AddField appends a member to the block and recomputes the layout.
// Fields must be added before the block is acquired.
func (b *Block) AddField(name string, node FieldNode) error {
	if b.refs > 0 {
		return fmt.Errorf("%w: block already acquired", ErrNoGPUResource)
	}
	for _, n := range b.names {
		if n == name {
			return fmt.Errorf("%w: duplicate field %q", ErrNodeType, name)
		}
	}
	b.names = append(b.names, name)
	b.nodes = append(b.nodes, node)
	b.packed = append(b.packed, 0)

	fields := make([]layout.Field, len(b.nodes))
	for i, fn := range b.nodes {
		count := 0
		if buf, ok := fn.(*Buffer); ok {
			count = buf.Count()
		}
		fields[i] = layout.Field{Name: b.names[i], Type: fn.Type(), Count: count}
	}
	b.lay = layout.New(b.conv, fields)
	b.rev++
	return nil
}

// Convention returns the packing convention.
func (b *Block) Convention() layout.Convention { return b.conv }

// Layout returns the computed layout, or nil for an empty block.
func (b *Block) Layout() *layout.Block { return b.lay }

// FieldCount returns the number of members.
func (b *Block) FieldCount() int { return len(b.names) }

// FieldIndex returns the index of the named member, or -1.
func (b *Block) FieldIndex(name string) int {
	for i, n := range b.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Size returns the total byte size of the block.
func (b *Block) Size() int {
	if b.lay == nil {
		return 0
	}
	return b.lay.Size()
}

// Bytes returns the staging bytes.
func (b *Block) Bytes() []byte {
	if b.lay == nil {
		return nil
	}
	return b.lay.Bytes()
}

// Revision returns the modification counter.
func (b *Block) Revision() uint64 { return b.rev }

// Update evaluates every field node at time t and repacks the fields
// whose revision moved since the last pack.
func (b *Block) Update(t float64) error {
	for i, fn := range b.nodes {
		if err := fn.Update(t); err != nil {
			return fmt.Errorf("block field %q: %w", b.names[i], err)
		}
		rev := fn.Revision()
		if rev == b.packed[i] {
			continue
		}
		stride := fn.Type().Size()
		if buf, ok := fn.(*Buffer); ok {
			stride = buf.Stride()
		}
		if err := b.lay.WriteField(i, fn.Bytes(), stride); err != nil {
			return err
		}
		b.packed[i] = rev
		b.rev++
		ngl.Logger().Debug("block field repacked", "field", b.names[i], "revision", rev)
	}
	return nil
}

// Acquire takes a reference on the GPU buffer, creating it on the first
// call. An empty block cannot be acquired.
func (b *Block) Acquire(a backend.Adapter) error {
	if b.Size() == 0 {
		return fmt.Errorf("%w: empty block", ErrNoGPUResource)
	}
	if b.conv == layout.Std430 && !a.Capabilities().StorageBuffers {
		return fmt.Errorf("%w: std430 needs storage buffers", layout.ErrUnsupportedLayout)
	}
	if b.refs == 0 {
		id, err := a.CreateBuffer(b.Size(), b.usage)
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
// last reference goes away.
func (b *Block) Release(a backend.Adapter) {
	if b.refs == 0 {
		return
	}
	b.refs--
	if b.refs == 0 {
		a.DestroyBuffer(b.gpu)
		b.gpu = backend.InvalidID
	}
}

// GPUBuffer returns the live GPU buffer handle, or InvalidID.
func (b *Block) GPUBuffer() backend.BufferID { return b.gpu }

// Upload flushes the staging bytes to the GPU buffer if they changed
// since the last upload.
func (b *Block) Upload(a backend.Adapter) error {
	if b.gpu == backend.InvalidID {
		return fmt.Errorf("%w: block not acquired", ErrNoGPUResource)
	}
	if b.uploaded == b.rev {
		return nil
	}
	if err := a.WriteBuffer(b.gpu, 0, b.lay.Bytes()); err != nil {
		return err
	}
	b.uploaded = b.rev
	return nil
}
