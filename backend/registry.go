// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"sync"

	"github.com/molviz/gpu"
)

// Factory constructs a backend's context from the shared options.
type Factory func(Options) (gpu.Context, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)

	// Selection order for Auto (first registered wins). The explicit
	// backend outranks the compatibility backend.
	backendPriority = []string{WebGPU, GL}
)

// Register registers a backend factory under the given tag. Called from
// init in backend subpackages; a factory registered under an existing tag
// replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry. Useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend tags.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a backend is registered under the tag.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns the factory registered under the tag, or nil.
func Get(name string) Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return factories[name]
}

// priority returns the registered tags in Auto selection order.
func priority() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var order []string
	for _, name := range backendPriority {
		if _, ok := factories[name]; ok {
			order = append(order, name)
		}
	}
	return order
}
