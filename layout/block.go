// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layout

import (
	"fmt"

	"github.com/gogpu/ngl"
)

// Field declares one block member.
type Field struct {
	// Name is the member name as it appears in the shader block.
	Name string

	// Type is the member's semantic type.
	Type Type

	// Count is the array length, or 0 for a single value.
	Count int
}

// align returns the required byte alignment of the field. Array fields
// align to their element stride.
func (f Field) align(conv Convention) int {
	if f.Count > 0 {
		return f.Type.Stride(conv)
	}
	return f.Type.Alignment(conv)
}

// size returns the total byte size of the field. Array fields occupy
// Count stride-sized slots.
func (f Field) size(conv Convention) int {
	if f.Count > 0 {
		return f.Count * f.Type.Stride(conv)
	}
	return f.Type.Size()
}

// Info holds the computed placement of one field inside a block.
type Info struct {
	// Offset is the byte offset of the field from the start of the block.
	Offset int

	// Size is the total byte size of the field.
	Size int

	// Stride is the byte distance between consecutive array elements.
	// Meaningful for array fields only.
	Stride int
}

// Block is an ordered aggregate of typed fields with a computed memory
// layout and a host staging buffer.
//
// Offsets strictly increase in declaration order and every offset is a
// multiple of the field's required alignment for the chosen convention.
// The total size is rounded up to the largest alignment present, so a
// Block can be the element of a larger array.
type Block struct {
	conv   Convention
	fields []Field
	info   []Info
	size   int
	data   []byte
}

// New computes the layout for the given fields under conv and allocates
// the host staging bytes. An empty field list is legal and yields a
// zero-size block with no backing storage.
func New(conv Convention, fields []Field) *Block {
	b := &Block{
		conv:   conv,
		fields: fields,
		info:   make([]Info, len(fields)),
	}

	log := ngl.Logger()

	maxAlign := 1
	offset := 0
	for i, f := range fields {
		align := f.align(conv)
		size := f.size(conv)
		if align > maxAlign {
			maxAlign = align
		}

		offset += (align - offset%align) % align
		b.info[i] = Info{
			Offset: offset,
			Size:   size,
			Stride: f.Type.Stride(conv),
		}
		offset += size

		log.Debug("block field placed",
			"field", f.Name, "type", f.Type.String(),
			"offset", b.info[i].Offset, "size", size, "stride", b.info[i].Stride)
	}

	// Padding law: the block itself must be usable as an array element.
	b.size = offset + (maxAlign-offset%maxAlign)%maxAlign
	if b.size > 0 {
		b.data = make([]byte, b.size)
	}

	log.Debug("block layout computed", "convention", conv.String(),
		"fields", len(fields), "size", b.size)
	return b
}

// Convention returns the packing convention of the block.
func (b *Block) Convention() Convention { return b.conv }

// FieldCount returns the number of declared fields.
func (b *Block) FieldCount() int { return len(b.fields) }

// Field returns the i-th declared field.
func (b *Block) Field(i int) Field { return b.fields[i] }

// Info returns the computed placement of the i-th field.
func (b *Block) Info(i int) Info { return b.info[i] }

// Size returns the total byte size of the block, including trailing
// padding. Zero for an empty block.
func (b *Block) Size() int { return b.size }

// Bytes returns the host staging bytes of the block. Nil for an empty
// block. The slice aliases the block's storage; writes through it are
// visible to subsequent uploads.
func (b *Block) Bytes() []byte { return b.data }

// FieldBytes returns the staging byte range covering the i-th field.
func (b *Block) FieldBytes(i int) []byte {
	fi := b.info[i]
	return b.data[fi.Offset : fi.Offset+fi.Size]
}

// WriteField copies src into the staging range of the i-th field.
//
// srcStride is the byte distance between consecutive elements in src for
// array fields. When it matches the field's layout stride (or the field
// is not an array) the data is copied in one pass; otherwise each element
// is repacked to the layout stride.
func (b *Block) WriteField(i int, src []byte, srcStride int) error {
	if i < 0 || i >= len(b.fields) {
		return fmt.Errorf("layout: field index %d out of range", i)
	}
	f := b.fields[i]
	fi := b.info[i]
	dst := b.data[fi.Offset : fi.Offset+fi.Size]

	if f.Count == 0 || srcStride == 0 || srcStride == fi.Stride {
		n := len(src)
		if n > len(dst) {
			n = len(dst)
		}
		copy(dst, src[:n])
		return nil
	}

	// Array with a mismatching stride: repack element by element.
	elem := f.Type.Size()
	for j := 0; j < f.Count; j++ {
		so := j * srcStride
		if so+elem > len(src) {
			break
		}
		copy(dst[j*fi.Stride:j*fi.Stride+elem], src[so:so+elem])
	}
	return nil
}
