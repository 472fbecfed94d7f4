// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/ngl/layout"
)

// Uniform is a single typed shader value. The value is stored in its
// upload encoding (little-endian 32-bit components) so Bytes can be
// memcpy'd straight into a block slot or a uniform buffer.
//
// A quaternion uniform constructed with AsMat4 reports TypeMat4 and
// encodes the equivalent rotation matrix, which lets a quat drive a mat4
// shader slot without the consumer knowing about quaternions.
type Uniform struct {
	typ    layout.Type
	asMat4 bool
	data   []byte
	rev    uint64
	anim   func(u *Uniform, t float64)
}

// NewUniform returns a zero-valued uniform of the given type.
func NewUniform(typ layout.Type) *Uniform {
	u := &Uniform{typ: typ, rev: 1}
	u.data = make([]byte, typ.Size())
	if typ == layout.TypeMat4 {
		u.storeFloats(identityMat4[:]...)
	}
	return u
}

// NewQuatUniform returns an identity quaternion uniform. When asMat4 is
// true the uniform exposes itself as a mat4 holding the rotation matrix.
func NewQuatUniform(asMat4 bool) *Uniform {
	u := &Uniform{typ: layout.TypeQuat, asMat4: asMat4, rev: 1}
	if asMat4 {
		u.data = make([]byte, layout.TypeMat4.Size())
	} else {
		u.data = make([]byte, layout.TypeQuat.Size())
	}
	u.SetQuat([4]float32{0, 0, 0, 1})
	u.rev = 1
	return u
}

var identityMat4 = f32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Type returns the type the uniform presents to consumers.
func (u *Uniform) Type() layout.Type {
	if u.typ == layout.TypeQuat && u.asMat4 {
		return layout.TypeMat4
	}
	return u.typ
}

// Bytes returns the encoded value.
func (u *Uniform) Bytes() []byte { return u.data }

// Revision returns the modification counter.
func (u *Uniform) Revision() uint64 { return u.rev }

// Animate registers fn to be invoked on every Update with the evaluation
// time. The function typically calls one of the setters.
func (u *Uniform) Animate(fn func(u *Uniform, t float64)) { u.anim = fn }

// Update evaluates the uniform at time t.
func (u *Uniform) Update(t float64) error {
	if u.anim != nil {
		u.anim(u, t)
	}
	return nil
}

// SetFloat sets a TypeFloat uniform.
func (u *Uniform) SetFloat(v float32) error {
	if u.typ != layout.TypeFloat {
		return fmt.Errorf("%w: SetFloat on %s", ErrNodeType, u.typ)
	}
	u.storeFloats(v)
	return nil
}

// SetInt sets a TypeInt uniform.
func (u *Uniform) SetInt(v int32) error {
	if u.typ != layout.TypeInt {
		return fmt.Errorf("%w: SetInt on %s", ErrNodeType, u.typ)
	}
	binary.LittleEndian.PutUint32(u.data, uint32(v))
	u.rev++
	return nil
}

// SetUInt sets a TypeUInt uniform.
func (u *Uniform) SetUInt(v uint32) error {
	if u.typ != layout.TypeUInt {
		return fmt.Errorf("%w: SetUInt on %s", ErrNodeType, u.typ)
	}
	binary.LittleEndian.PutUint32(u.data, v)
	u.rev++
	return nil
}

// SetVec2 sets a TypeVec2 uniform.
func (u *Uniform) SetVec2(v f32.Vec2) error {
	if u.typ != layout.TypeVec2 {
		return fmt.Errorf("%w: SetVec2 on %s", ErrNodeType, u.typ)
	}
	u.storeFloats(v[:]...)
	return nil
}

// SetVec3 sets a TypeVec3 uniform.
func (u *Uniform) SetVec3(v f32.Vec3) error {
	if u.typ != layout.TypeVec3 {
		return fmt.Errorf("%w: SetVec3 on %s", ErrNodeType, u.typ)
	}
	u.storeFloats(v[:]...)
	return nil
}

// SetVec4 sets a TypeVec4 uniform.
func (u *Uniform) SetVec4(v f32.Vec4) error {
	if u.typ != layout.TypeVec4 {
		return fmt.Errorf("%w: SetVec4 on %s", ErrNodeType, u.typ)
	}
	u.storeFloats(v[:]...)
	return nil
}

// SetMat4 sets a TypeMat4 uniform from a column-major matrix.
func (u *Uniform) SetMat4(m f32.Mat4) error {
	if u.typ != layout.TypeMat4 {
		return fmt.Errorf("%w: SetMat4 on %s", ErrNodeType, u.typ)
	}
	u.storeFloats(m[:]...)
	return nil
}

// SetQuat sets a TypeQuat uniform from an (x, y, z, w) quaternion. The
// quaternion is normalized before encoding; a zero quaternion is replaced
// by identity. For an AsMat4 uniform the rotation matrix is encoded
// instead of the raw components.
func (u *Uniform) SetQuat(q [4]float32) error {
	if u.typ != layout.TypeQuat {
		return fmt.Errorf("%w: SetQuat on %s", ErrNodeType, u.typ)
	}
	n := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		q = [4]float32{0, 0, 0, 1}
	} else if n != 1 {
		inv := 1 / n
		q = [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
	}
	if u.asMat4 {
		m := quatToMat4(q)
		u.storeFloats(m[:]...)
		return nil
	}
	u.storeFloats(q[:]...)
	return nil
}

// storeFloats encodes vals into the backing bytes and bumps the revision.
func (u *Uniform) storeFloats(vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(u.data[4*i:], math32.Float32bits(v))
	}
	u.rev++
}

// quatToMat4 returns the column-major rotation matrix of a unit
// quaternion (x, y, z, w).
func quatToMat4(q [4]float32) f32.Mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	return f32.Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0,
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0,
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}
