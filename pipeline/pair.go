// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"

	"github.com/gogpu/ngl"
	"github.com/gogpu/ngl/layout"
	"github.com/gogpu/ngl/scene"
	"github.com/gogpu/ngl/shader"
)

// Reserved attribute names. A declared attribute with one of these names
// that the shader does not consume is dropped without a diagnostic.
const (
	AttrPosition = "ngl_position"
	AttrUVCoord  = "ngl_uvcoord"
	AttrNormal   = "ngl_normal"
)

// UniformBlockName is the reserved name of the shader block that
// receives all scalar uniform values, including texture-derived ones.
const UniformBlockName = "ngl_uniforms"

// TransformBlockName is the reserved name of the shader block that
// receives the modelview and projection matrices supplied at bind time.
const TransformBlockName = "ngl_transforms"

// Role identifies one of the values a texture implicitly contributes to
// the shader interface. Each role maps to a fixed name suffix appended
// to the texture's dictionary key.
type Role uint8

const (
	// RoleSampler is the texture sampler, suffix "_sampler".
	RoleSampler Role = iota

	// RoleCoordMatrix is the texture coordinate transform, suffix
	// "_coord_matrix".
	RoleCoordMatrix

	// RoleDimensions is the texture size as a vec2, suffix "_dimensions".
	RoleDimensions

	// RoleTimestamp is the content presentation time, suffix "_ts".
	RoleTimestamp
)

var roleSuffixes = [...]string{
	RoleSampler:     "_sampler",
	RoleCoordMatrix: "_coord_matrix",
	RoleDimensions:  "_dimensions",
	RoleTimestamp:   "_ts",
}

var roleNames = [...]string{
	RoleSampler:     "sampler",
	RoleCoordMatrix: "coord matrix",
	RoleDimensions:  "dimensions",
	RoleTimestamp:   "timestamp",
}

// Suffix returns the name suffix of the role.
func (r Role) Suffix() string { return roleSuffixes[r] }

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// DerivedName returns the shader-side name of a texture-derived value.
func DerivedName(key string, r Role) string { return key + r.Suffix() }

func isReservedAttr(name string) bool {
	return name == AttrPosition || name == AttrUVCoord || name == AttrNormal
}

// AttributePair binds one vertex buffer node to a shader input location.
type AttributePair struct {
	// Name is the declared attribute name.
	Name string

	// Node supplies the vertex data.
	Node *scene.Buffer

	// Location is the shader input location.
	Location int

	// Slot is the vertex buffer slot assigned in declaration order.
	Slot int

	// PerInstance marks the buffer as advancing per instance.
	PerInstance bool
}

// UniformPair binds one value to a byte range of the shared uniform
// staging buffer. Either Node supplies the value, or Texture does for a
// derived role.
type UniformPair struct {
	// Name is the shader-side field name inside the uniform block.
	Name string

	// Node is the value source for plain uniforms, nil for derived ones.
	Node scene.FieldNode

	// Texture is the source for texture-derived values, nil otherwise.
	Texture *scene.Texture

	// Role selects which derived value Texture contributes.
	Role Role

	// Offset is the byte offset inside the staging buffer.
	Offset int

	// Size is the byte size of the value slot.
	Size int

	// uploaded is the node revision last written into staging.
	uploaded uint64
}

// TexturePair binds one texture node to its descriptor slots.
type TexturePair struct {
	// Name is the texture's dictionary key.
	Name string

	// Node supplies the texture content and sampler.
	Node *scene.Texture

	// TextureBinding is the descriptor slot of the sampled texture, or
	// -1 when the shader does not sample it directly.
	TextureBinding int

	// TextureStages is the reflected visibility of the texture binding.
	TextureStages shader.StageMask

	// SamplerBinding is the descriptor slot of the sampler, or -1.
	SamplerBinding int

	// SamplerStages is the reflected visibility of the sampler binding.
	SamplerStages shader.StageMask
}

// BlockPair binds one storage block node to its descriptor slot.
type BlockPair struct {
	// Name is the block's dictionary key and shader binding name.
	Name string

	// Node supplies the block content.
	Node *scene.Block

	// Binding is the descriptor slot.
	Binding int

	// Stages is the reflected visibility of the block binding.
	Stages shader.StageMask
}

// Resources are the declared scene dictionaries a pipeline draws from.
// Nil dictionaries are treated as empty.
type Resources struct {
	// Attributes are per-vertex buffer nodes.
	Attributes *scene.Dict

	// InstanceAttributes are per-instance buffer nodes.
	InstanceAttributes *scene.Dict

	// Uniforms are scalar value nodes packed into the reserved uniform
	// block.
	Uniforms *scene.Dict

	// Textures are texture nodes, each contributing up to four derived
	// bindings.
	Textures *scene.Dict

	// Blocks are storage block nodes matched 1:1 by name.
	Blocks *scene.Dict
}

// Bindings is the resolver output: the four pair collections a pipeline
// consumes, in the declaration order of the source dictionaries.
type Bindings struct {
	Attributes []AttributePair
	Uniforms   []UniformPair
	Textures   []TexturePair
	Blocks     []BlockPair

	// uniformBinding is the descriptor slot of the reserved uniform
	// block, or -1 when the shader declares none.
	uniformBinding int

	// uniformStages is the visibility of the reserved uniform block.
	uniformStages shader.StageMask

	// uniformLayout places the reserved uniform block's fields.
	uniformLayout *layout.Block

	// transformBinding is the descriptor slot of the reserved transform
	// block, or -1.
	transformBinding int

	// transformStages is the visibility of the transform block.
	transformStages shader.StageMask
}

// StagingSize returns the byte size of the shared uniform staging
// buffer, zero when the shader has no uniform block.
func (b *Bindings) StagingSize() int {
	if b.uniformLayout == nil {
		return 0
	}
	return b.uniformLayout.Size()
}

// Resolve matches the declared dictionaries against the reflected shader
// interface and produces the pair collections.
//
// A declared name with no matching shader binding is dropped: silently
// for the reserved attribute names, with a warning otherwise. A texture
// none of whose derived names resolve contributes zero pairs. Resolve
// fails only when a declared node has the wrong concrete type for its
// dictionary.
func Resolve(r *shader.Reflection, res *Resources) (*Bindings, error) {
	b := &Bindings{uniformBinding: -1, transformBinding: -1}
	log := ngl.Logger()

	if ub := r.Lookup(UniformBlockName); ub != nil && ub.Kind == shader.KindUniformBuffer {
		b.uniformBinding = ub.Binding
		b.uniformStages = ub.Stages
		b.uniformLayout = layout.New(layout.Std140, ub.Fields)
	}
	if tb := r.Lookup(TransformBlockName); tb != nil && tb.Kind == shader.KindUniformBuffer {
		b.transformBinding = tb.Binding
		b.transformStages = tb.Stages
	}

	if err := b.resolveAttributes(r, res.Attributes, false); err != nil {
		return nil, err
	}
	if err := b.resolveAttributes(r, res.InstanceAttributes, true); err != nil {
		return nil, err
	}

	for _, name := range res.Uniforms.Keys() {
		node, ok := res.Uniforms.Get(name).(scene.FieldNode)
		if !ok {
			return nil, fmt.Errorf("%w: uniform %q is not a value node", scene.ErrNodeType, name)
		}
		idx := b.uniformField(name)
		if idx < 0 {
			log.Warn("uniform not consumed by shader", "name", name)
			continue
		}
		info := b.uniformLayout.Info(idx)
		b.Uniforms = append(b.Uniforms, UniformPair{
			Name:   name,
			Node:   node,
			Offset: info.Offset,
			Size:   info.Size,
		})
	}

	for _, name := range res.Textures.Keys() {
		node, ok := res.Textures.Get(name).(*scene.Texture)
		if !ok {
			return nil, fmt.Errorf("%w: texture %q is not a texture node", scene.ErrNodeType, name)
		}
		b.resolveTexture(r, name, node)
	}

	for _, name := range res.Blocks.Keys() {
		node, ok := res.Blocks.Get(name).(*scene.Block)
		if !ok {
			return nil, fmt.Errorf("%w: block %q is not a block node", scene.ErrNodeType, name)
		}
		sb := r.Lookup(name)
		if sb == nil || sb.Kind != shader.KindStorageBuffer {
			log.Warn("block not consumed by shader", "name", name)
			continue
		}
		b.Blocks = append(b.Blocks, BlockPair{Name: name, Node: node, Binding: sb.Binding, Stages: sb.Stages})
	}

	return b, nil
}

func (b *Bindings) resolveAttributes(r *shader.Reflection, dict *scene.Dict, perInstance bool) error {
	log := ngl.Logger()
	for _, name := range dict.Keys() {
		node, ok := dict.Get(name).(*scene.Buffer)
		if !ok {
			return fmt.Errorf("%w: attribute %q is not a buffer node", scene.ErrNodeType, name)
		}
		sb := r.Lookup(name)
		if sb == nil || sb.Kind != shader.KindAttribute {
			if isReservedAttr(name) {
				log.Debug("reserved attribute not consumed by shader", "name", name)
			} else {
				log.Warn("attribute not consumed by shader", "name", name)
			}
			continue
		}
		b.Attributes = append(b.Attributes, AttributePair{
			Name:        name,
			Node:        node,
			Location:    sb.Binding,
			Slot:        len(b.Attributes),
			PerInstance: perInstance || node.PerInstance(),
		})
	}
	return nil
}

// resolveTexture derives the four implicit bindings of one texture and
// keeps those the shader consumes. The texture joins the pair collection
// as soon as any derived name resolves, so the frame cycle evaluates it
// even when the shader only reads its coord matrix, dimensions or
// timestamp.
func (b *Bindings) resolveTexture(r *shader.Reflection, name string, node *scene.Texture) {
	pair := TexturePair{Name: name, Node: node, TextureBinding: -1, SamplerBinding: -1}

	if tb := r.Lookup(name); tb != nil && tb.Kind == shader.KindTexture {
		pair.TextureBinding = tb.Binding
		pair.TextureStages = tb.Stages
	}
	if sb := r.Lookup(DerivedName(name, RoleSampler)); sb != nil && sb.Kind == shader.KindSampler {
		pair.SamplerBinding = sb.Binding
		pair.SamplerStages = sb.Stages
	}

	resolved := 0
	for _, role := range []Role{RoleCoordMatrix, RoleDimensions, RoleTimestamp} {
		derived := DerivedName(name, role)
		idx := b.uniformField(derived)
		if idx < 0 {
			continue
		}
		info := b.uniformLayout.Info(idx)
		b.Uniforms = append(b.Uniforms, UniformPair{
			Name:    derived,
			Texture: node,
			Role:    role,
			Offset:  info.Offset,
			Size:    info.Size,
		})
		resolved++
	}

	if pair.TextureBinding >= 0 || pair.SamplerBinding >= 0 || resolved > 0 {
		b.Textures = append(b.Textures, pair)
	}
}

// uniformField returns the field index of name inside the reserved
// uniform block, or -1.
func (b *Bindings) uniformField(name string) int {
	if b.uniformLayout == nil {
		return -1
	}
	for i := 0; i < b.uniformLayout.FieldCount(); i++ {
		if b.uniformLayout.Field(i).Name == name {
			return i
		}
	}
	return -1
}
