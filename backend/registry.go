// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"sync"
)

// Backend names.
const (
	// BackendWGPU is the WebGPU HAL backend.
	BackendWGPU = "wgpu"

	// BackendNative is the pure Go in-memory backend.
	BackendNative = "native"
)

// Factory creates a new adapter instance.
type Factory func() Adapter

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendNative}
)

// Register registers an adapter factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns a list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns an adapter instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend based on priority.
// Returns nil if no backends are registered.
func Default() Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if a := factory(); a != nil {
				return a
			}
		}
	}

	// Fallback: return first available
	for _, factory := range backends {
		if a := factory(); a != nil {
			return a
		}
	}

	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() Adapter {
	a := Default()
	if a == nil {
		panic("backend: no backend available")
	}
	return a
}

// InitDefault initializes the default backend based on availability.
func InitDefault() (Adapter, error) {
	a := Default()
	if a == nil {
		return nil, ErrBackendNotAvailable
	}

	if err := a.Init(); err != nil {
		return nil, err
	}

	return a, nil
}
