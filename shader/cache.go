// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"container/list"
	"hash/fnv"
	"sync"
)

// ProgramCache memoizes compiled programs keyed by their stage sources.
// Probing and cross-compiling a program is expensive; scenes that
// instantiate many draw nodes from the same shader pair hit the cache
// instead.
//
// The cache is LRU-bounded and safe for concurrent use.
type ProgramCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*list.Element
	order    *list.List

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry struct {
	key     uint64
	program *Program
}

// CacheStats is a snapshot of cache effectiveness counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewProgramCache returns a cache holding at most capacity compiled
// programs. A capacity below 1 is treated as 1.
func NewProgramCache(capacity int) *ProgramCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ProgramCache{
		capacity: capacity,
		entries:  make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

// programKey hashes the stage masks and sources.
func programKey(stages []StageSource) uint64 {
	h := fnv.New64a()
	var b [4]byte
	for _, s := range stages {
		b[0] = byte(s.Stage)
		b[1] = byte(s.Stage >> 8)
		b[2] = byte(s.Stage >> 16)
		b[3] = byte(s.Stage >> 24)
		_, _ = h.Write(b[:])
		_, _ = h.Write([]byte(s.Source))
	}
	return h.Sum64()
}

// Get returns the compiled program for the given stages, compiling and
// inserting it on a miss. Compilation errors are not cached.
func (c *ProgramCache) Get(stages ...StageSource) (*Program, error) {
	key := programKey(stages)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		c.hits++
		p := el.Value.(*cacheEntry).program
		c.mu.Unlock()
		return p, nil
	}
	c.misses++
	c.mu.Unlock()

	// Compile outside the lock; a concurrent miss on the same key just
	// compiles twice and the second insert wins.
	p, err := NewProgram(stages...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).program, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, program: p})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
		c.evictions++
	}
	return p, nil
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of cached programs.
func (c *ProgramCache) Capacity() int { return c.capacity }

// Clear drops every cached program.
func (c *ProgramCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*list.Element)
	c.order.Init()
}

// Stats returns a snapshot of the effectiveness counters.
func (c *ProgramCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}
