// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader manages compiled shader modules for the render pass
// variants of a piece of geometry. A Manager deduplicates module
// compilation by source content, so two definitions sharing a fragment
// program compile it once, and Compile is idempotent per definition id.
package shader

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/cache"
)

// Variant selects which render pass a fragment program serves.
type Variant int

const (
	VariantColor Variant = iota
	VariantPick
	VariantDepth
	VariantMarking
	VariantEmissive
	VariantTracing

	numVariants
)

var variantNames = map[Variant]string{
	VariantColor:    "color",
	VariantPick:     "pick",
	VariantDepth:    "depth",
	VariantMarking:  "marking",
	VariantEmissive: "emissive",
	VariantTracing:  "tracing",
}

func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Definition is one vertex program plus a fragment program per variant.
// Source is backend-native; no translation happens here.
type Definition struct {
	Vertex    string
	Fragments map[Variant]string
}

// Compiled holds the modules produced from one Definition. Module
// handles may be shared with other Compiled sets that used identical
// source; the owning Manager destroys them.
type Compiled struct {
	Vertex    gpu.ShaderModule
	Fragments map[Variant]gpu.ShaderModule
}

// moduleKey addresses shader source by content. The 64-bit hash is
// paired with the source length so a hash collision alone cannot alias
// two programs of different size.
type moduleKey struct {
	hash   uint64
	length int
}

func keyFor(src string) moduleKey {
	return moduleKey{hash: xxhash.Sum64String(src), length: len(src)}
}

// Manager compiles and caches shader modules for one context.
// Like the context it wraps, it is single-owner and not safe for
// concurrent use with that context's other operations.
type Manager struct {
	ctx      gpu.Context
	modules  *cache.Sharded[moduleKey, gpu.ShaderModule]
	compiled map[string]*Compiled
	owned    []gpu.ShaderModule
}

// NewManager creates a manager bound to ctx.
func NewManager(ctx gpu.Context) *Manager {
	return &Manager{
		ctx:      ctx,
		modules:  cache.NewSharded[moduleKey, gpu.ShaderModule](0, func(k moduleKey) uint64 { return k.hash }),
		compiled: make(map[string]*Compiled),
	}
}

// Compile builds every module of def and caches the result under id.
// A second call with the same id returns the first result without
// touching the context, whatever def now says.
func (m *Manager) Compile(id string, def Definition) (*Compiled, error) {
	if c, ok := m.compiled[id]; ok {
		return c, nil
	}
	if def.Vertex == "" {
		return nil, fmt.Errorf("%w: definition %q has no vertex source", gpu.ErrInvalidDescriptor, id)
	}

	vertex, err := m.module(id+"/vertex", def.Vertex)
	if err != nil {
		return nil, err
	}
	out := &Compiled{
		Vertex:    vertex,
		Fragments: make(map[Variant]gpu.ShaderModule, len(def.Fragments)),
	}
	for _, v := range sortedVariants(def.Fragments) {
		mod, err := m.module(fmt.Sprintf("%s/%s", id, v), def.Fragments[v])
		if err != nil {
			return nil, err
		}
		out.Fragments[v] = mod
	}
	m.compiled[id] = out
	return out, nil
}

// Lookup returns the compiled set for id, if Compile has seen it.
func (m *Manager) Lookup(id string) (*Compiled, bool) {
	c, ok := m.compiled[id]
	return c, ok
}

// module returns the cached module for src, compiling on first sight.
func (m *Manager) module(label, src string) (gpu.ShaderModule, error) {
	key := keyFor(src)
	if mod, ok := m.modules.Get(key); ok {
		return mod, nil
	}
	mod, err := m.ctx.CreateShaderModule(&gpu.ShaderModuleDescriptor{Label: label, Code: src})
	if err != nil {
		return nil, err
	}
	m.modules.Set(key, mod)
	m.owned = append(m.owned, mod)
	return mod, nil
}

// CacheStats reports module cache behaviour for diagnostics.
func (m *Manager) CacheStats() cache.Stats { return m.modules.Stats() }

// Destroy releases every module the manager compiled. Safe to call
// more than once.
func (m *Manager) Destroy() {
	for _, mod := range m.owned {
		mod.Destroy()
	}
	m.owned = nil
	m.modules.Clear()
	m.compiled = make(map[string]*Compiled)
}

func sortedVariants(fragments map[Variant]string) []Variant {
	out := make([]Variant, 0, len(fragments))
	for v := range fragments {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
