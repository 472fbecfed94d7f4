// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/ngl/layout"
)

// The scanner extracts the binding interface from WGSL source text:
// resource globals, push constants, block struct members and entry point
// attribute inputs. Validation of the source itself is naga's job; the
// scanner assumes source that naga has already parsed and lowered.

var (
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)

	structRe = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	globalRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([\w<>, ]+?)\s*;`)
	pushRe   = regexp.MustCompile(`var<push_constant>\s+(\w+)\s*:\s*(\w+)\s*;`)

	locationRe = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRe  = regexp.MustCompile(`@builtin\([^)]*\)`)
	memberRe   = regexp.MustCompile(`(\w+)\s*:\s*([\w<>, ]+)$`)
	arrayRe    = regexp.MustCompile(`^array<\s*([\w<>]+)\s*,\s*(\d+)\s*>$`)

	vertexFnRe  = regexp.MustCompile(`@vertex\s+fn\s+\w+\s*\(([^)]*)\)`)
	locParamRe  = regexp.MustCompile(`@location\((\d+)\)\s+(\w+)\s*:\s*([\w<>]+)`)
	structArgRe = regexp.MustCompile(`(\w+)\s*:\s*(\w+)\s*$`)
)

// structMember is one declared member of a WGSL struct.
type structMember struct {
	name     string
	typ      string
	location int // attribute location, or -1
}

type sourceInfo struct {
	structs map[string][]structMember
	src     string
}

func scanSource(src string) *sourceInfo {
	src = lineCommentRe.ReplaceAllString(src, "")
	src = blockCommentRe.ReplaceAllString(src, "")

	info := &sourceInfo{
		structs: make(map[string][]structMember),
		src:     src,
	}
	for _, m := range structRe.FindAllStringSubmatch(src, -1) {
		name, body := m[1], m[2]
		var members []structMember
		for _, decl := range splitMembers(body) {
			decl = strings.TrimSpace(decl)
			if decl == "" {
				continue
			}
			loc := -1
			if lm := locationRe.FindStringSubmatch(decl); lm != nil {
				loc, _ = strconv.Atoi(lm[1])
			}
			decl = locationRe.ReplaceAllString(decl, "")
			decl = builtinRe.ReplaceAllString(decl, "")
			decl = strings.TrimSpace(decl)
			dm := memberRe.FindStringSubmatch(decl)
			if dm == nil {
				continue
			}
			members = append(members, structMember{
				name:     dm[1],
				typ:      strings.TrimSpace(dm[2]),
				location: loc,
			})
		}
		info.structs[name] = members
	}
	return info
}

// splitMembers splits a struct body or parameter list on commas at
// angle bracket depth zero, keeping array<T, N> declarations intact.
func splitMembers(body string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range body {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, body[start:])
}

// scalarType maps a WGSL value type to its layout type.
func scalarType(s string) (layout.Type, bool) {
	switch s {
	case "f32":
		return layout.TypeFloat, true
	case "i32":
		return layout.TypeInt, true
	case "u32":
		return layout.TypeUInt, true
	case "vec2<f32>":
		return layout.TypeVec2, true
	case "vec3<f32>":
		return layout.TypeVec3, true
	case "vec4<f32>":
		return layout.TypeVec4, true
	case "vec2<i32>":
		return layout.TypeIVec2, true
	case "vec3<i32>":
		return layout.TypeIVec3, true
	case "vec4<i32>":
		return layout.TypeIVec4, true
	case "vec2<u32>":
		return layout.TypeUVec2, true
	case "vec3<u32>":
		return layout.TypeUVec3, true
	case "vec4<u32>":
		return layout.TypeUVec4, true
	case "mat4x4<f32>":
		return layout.TypeMat4, true
	}
	return 0, false
}

// fieldFor converts one WGSL member declaration to a layout field.
func fieldFor(name, typ string) (layout.Field, error) {
	if am := arrayRe.FindStringSubmatch(typ); am != nil {
		elem, ok := scalarType(am[1])
		if !ok {
			return layout.Field{}, fmt.Errorf("%w: unsupported array element type %q", ErrMalformedShader, am[1])
		}
		count, _ := strconv.Atoi(am[2])
		return layout.Field{Name: name, Type: elem, Count: count}, nil
	}
	t, ok := scalarType(typ)
	if !ok {
		return layout.Field{}, fmt.Errorf("%w: unsupported field type %q", ErrMalformedShader, typ)
	}
	return layout.Field{Name: name, Type: t}, nil
}

// blockFields resolves a global's value type to an ordered field list.
// A struct type contributes its members, a plain value type a single
// anonymous field.
func (info *sourceInfo) blockFields(typ string) ([]layout.Field, error) {
	if members, ok := info.structs[typ]; ok {
		fields := make([]layout.Field, 0, len(members))
		for _, m := range members {
			f, err := fieldFor(m.name, m.typ)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return fields, nil
	}
	f, err := fieldFor("", typ)
	if err != nil {
		return nil, err
	}
	return []layout.Field{f}, nil
}

// scanBindings collects the resource bindings declared in the source.
func (info *sourceInfo) scanBindings(stage StageMask, r *Reflection) error {
	for _, m := range globalRe.FindAllStringSubmatch(info.src, -1) {
		group, _ := strconv.Atoi(m[1])
		slot, _ := strconv.Atoi(m[2])
		space := strings.TrimSpace(m[3])
		name := m[4]
		typ := strings.TrimSpace(m[5])

		b := &Binding{
			Name:    name,
			Group:   group,
			Binding: slot,
			Stages:  stage,
		}
		switch {
		case typ == "sampler" || typ == "sampler_comparison":
			b.Kind = KindSampler
		case strings.HasPrefix(typ, "texture_"):
			b.Kind = KindTexture
		case strings.HasPrefix(space, "storage"):
			fields, err := info.blockFields(typ)
			if err != nil {
				return err
			}
			b.Kind = KindStorageBuffer
			b.Fields = fields
			b.Size = layout.New(layout.Std430, fields).Size()
		case space == "uniform":
			fields, err := info.blockFields(typ)
			if err != nil {
				return err
			}
			b.Kind = KindUniformBuffer
			b.Fields = fields
			b.Size = layout.New(layout.Std140, fields).Size()
		default:
			return fmt.Errorf("%w: unsupported address space %q for %q", ErrMalformedShader, space, name)
		}
		r.add(b)
	}

	for _, m := range pushRe.FindAllStringSubmatch(info.src, -1) {
		fields, err := info.blockFields(strings.TrimSpace(m[2]))
		if err != nil {
			return err
		}
		r.add(&Binding{
			Name:   m[1],
			Kind:   KindPushConstant,
			Stages: stage,
			Fields: fields,
			Size:   layout.New(layout.Std430, fields).Size(),
		})
	}
	return nil
}

// scanAttributes collects the vertex entry point's location-annotated
// inputs, either declared inline or through an input struct.
func (info *sourceInfo) scanAttributes(r *Reflection) error {
	fn := vertexFnRe.FindStringSubmatch(info.src)
	if fn == nil {
		return nil
	}
	for _, param := range splitMembers(fn[1]) {
		param = strings.TrimSpace(param)
		if param == "" {
			continue
		}
		if pm := locParamRe.FindStringSubmatch(param); pm != nil {
			loc, _ := strconv.Atoi(pm[1])
			if err := info.addAttribute(r, pm[2], pm[3], loc); err != nil {
				return err
			}
			continue
		}
		if strings.Contains(param, "@builtin") {
			continue
		}
		sm := structArgRe.FindStringSubmatch(param)
		if sm == nil {
			continue
		}
		for _, member := range info.structs[sm[2]] {
			if member.location < 0 {
				continue
			}
			if err := info.addAttribute(r, member.name, member.typ, member.location); err != nil {
				return err
			}
		}
	}
	return nil
}

func (info *sourceInfo) addAttribute(r *Reflection, name, typ string, location int) error {
	t, ok := scalarType(typ)
	if !ok {
		return fmt.Errorf("%w: unsupported attribute type %q", ErrMalformedShader, typ)
	}
	r.add(&Binding{
		Name:    name,
		Kind:    KindAttribute,
		Binding: location,
		Size:    t.Size(),
		Stages:  StageVertex,
	})
	return nil
}
