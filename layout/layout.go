// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package layout computes GPU block memory layouts.
//
// A block is an ordered list of typed fields uploaded as one contiguous
// GPU memory region. Two packing conventions are supported: Std140
// (padded, 16-byte vector slots, the uniform buffer default) and Std430
// (dense, used for storage buffers). The package computes per-field
// byte offsets, sizes and array strides, and manages the host staging
// bytes for a block.
package layout

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLayout is returned when the requested packing convention
// requires a GPU feature the active backend does not provide.
var ErrUnsupportedLayout = errors.New("layout: packing convention not supported by backend")

// Convention selects the packing and alignment rule set for a block.
type Convention uint8

const (
	// Std140 is the padded convention: vectors occupy 16-byte slots and
	// array strides are rounded up to 16 bytes.
	Std140 Convention = iota

	// Std430 is the dense convention: fields are packed at their natural
	// component alignment. Requires storage buffer support.
	Std430
)

// String returns the GLSL name of the convention.
func (c Convention) String() string {
	switch c {
	case Std140:
		return "std140"
	case Std430:
		return "std430"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Type is the tagged variant describing a field's semantic type. Each
// type carries its own byte width, alignment and array stride rules so
// that the layout and binding code paths share a single table.
type Type uint8

const (
	// TypeFloat is a 32-bit float scalar.
	TypeFloat Type = iota
	// TypeInt is a 32-bit signed integer scalar.
	TypeInt
	// TypeUInt is a 32-bit unsigned integer scalar.
	TypeUInt
	// TypeVec2 is a 2-component float vector.
	TypeVec2
	// TypeVec3 is a 3-component float vector.
	TypeVec3
	// TypeVec4 is a 4-component float vector.
	TypeVec4
	// TypeIVec2 is a 2-component signed integer vector.
	TypeIVec2
	// TypeIVec3 is a 3-component signed integer vector.
	TypeIVec3
	// TypeIVec4 is a 4-component signed integer vector.
	TypeIVec4
	// TypeUVec2 is a 2-component unsigned integer vector.
	TypeUVec2
	// TypeUVec3 is a 3-component unsigned integer vector.
	TypeUVec3
	// TypeUVec4 is a 4-component unsigned integer vector.
	TypeUVec4
	// TypeMat4 is a 4x4 float matrix, column-major.
	TypeMat4
	// TypeQuat is a quaternion, stored as a 4-component float vector.
	TypeQuat
)

var typeNames = [...]string{
	TypeFloat: "float",
	TypeInt:   "int",
	TypeUInt:  "uint",
	TypeVec2:  "vec2",
	TypeVec3:  "vec3",
	TypeVec4:  "vec4",
	TypeIVec2: "ivec2",
	TypeIVec3: "ivec3",
	TypeIVec4: "ivec4",
	TypeUVec2: "uvec2",
	TypeUVec3: "uvec3",
	TypeUVec4: "uvec4",
	TypeMat4:  "mat4",
	TypeQuat:  "quat",
}

// String returns the GLSL-style name of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// components returns the number of 4-byte components in one value.
func (t Type) components() int {
	switch t {
	case TypeFloat, TypeInt, TypeUInt:
		return 1
	case TypeVec2, TypeIVec2, TypeUVec2:
		return 2
	case TypeVec3, TypeIVec3, TypeUVec3:
		return 3
	case TypeVec4, TypeIVec4, TypeUVec4, TypeQuat:
		return 4
	case TypeMat4:
		return 16
	default:
		return 0
	}
}

// Size returns the natural byte size of a single value of the type,
// without any layout padding.
func (t Type) Size() int { return 4 * t.components() }

// Alignment returns the required byte alignment of a single value under
// the given convention. Matrices always align to a 4-float boundary;
// 3-component vectors occupy a 4-float slot under Std140 only.
func (t Type) Alignment(conv Convention) int {
	switch t {
	case TypeFloat, TypeInt, TypeUInt:
		return 4
	case TypeVec2, TypeIVec2, TypeUVec2:
		return 8
	case TypeVec3, TypeIVec3, TypeUVec3:
		if conv == Std140 {
			return 16
		}
		return 4
	case TypeVec4, TypeIVec4, TypeUVec4, TypeQuat, TypeMat4:
		return 16
	default:
		return 4
	}
}

// Stride returns the byte distance between consecutive array elements of
// the type under the given convention. Under Std140 every element is
// padded to a 4-float slot; under Std430 scalars and 2-vectors keep
// their natural size.
func (t Type) Stride(conv Convention) int {
	switch t {
	case TypeFloat, TypeInt, TypeUInt:
		if conv == Std140 {
			return 16
		}
		return 4
	case TypeVec2, TypeIVec2, TypeUVec2:
		if conv == Std140 {
			return 16
		}
		return 8
	case TypeVec3, TypeIVec3, TypeUVec3, TypeVec4, TypeIVec4, TypeUVec4, TypeQuat:
		return 16
	case TypeMat4:
		return 64
	default:
		return 4
	}
}
