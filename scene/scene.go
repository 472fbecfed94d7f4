// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene provides the data nodes that feed a render pipeline:
// uniforms, raw buffers, uniform/storage blocks and textures. Nodes are
// evaluated once per frame with Update and track modification through a
// revision counter so uploads only happen when content actually changed.
package scene

import (
	"errors"
)

var (
	// ErrNodeType is returned when a node value does not match the
	// declared type of the slot it is assigned to.
	ErrNodeType = errors.New("scene: node type mismatch")

	// ErrNoGPUResource is returned when a GPU-backed operation is
	// attempted on a node that has no live GPU allocation.
	ErrNoGPUResource = errors.New("scene: no GPU resource")
)

// Node is the common interface of all scene data nodes.
//
// Update evaluates the node at time t, expressed in seconds. A node whose
// content depends on time (animated uniforms, streaming textures) refreshes
// its value and bumps its revision; static nodes return nil without side
// effects.
type Node interface {
	Update(t float64) error
}

// Source is a Node whose content can be read back as raw bytes and that
// tracks modification with a monotonic revision counter. A consumer records
// the revision it last uploaded and re-uploads only when Revision moved.
type Source interface {
	Node

	// Bytes returns the current content. The slice is owned by the node
	// and valid until the next Update or setter call.
	Bytes() []byte

	// Revision returns the current modification counter. It starts at 1
	// for a freshly constructed node and increments on every content
	// change, so a consumer initialized with 0 always uploads once.
	Revision() uint64
}

// Dict is an ordered name to node mapping. Iteration with Keys follows
// insertion order, which downstream binding resolution relies on for
// deterministic pipeline layouts.
type Dict struct {
	keys  []string
	nodes map[string]Node
}

// NewDict returns an empty ordered dictionary.
func NewDict() *Dict {
	return &Dict{nodes: make(map[string]Node)}
}

// Set associates name with node. Re-setting an existing name replaces the
// node but keeps its original position in the order.
func (d *Dict) Set(name string, node Node) {
	if _, ok := d.nodes[name]; !ok {
		d.keys = append(d.keys, name)
	}
	d.nodes[name] = node
}

// Get returns the node registered under name, or nil.
func (d *Dict) Get(name string) Node {
	if d == nil {
		return nil
	}
	return d.nodes[name]
}

// Keys returns the names in insertion order. The returned slice is owned
// by the dictionary.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Update evaluates every node in insertion order and stops at the first
// error.
func (d *Dict) Update(t float64) error {
	if d == nil {
		return nil
	}
	for _, k := range d.keys {
		if err := d.nodes[k].Update(t); err != nil {
			return err
		}
	}
	return nil
}
