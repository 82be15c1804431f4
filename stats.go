// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"strings"
)

// Stats is the per-context resource and draw counter bag. Every resource
// constructor and destructor updates the live count for its kind, and every
// draw/dispatch recorded through a pass encoder updates the cumulative
// counters, so leaks and per-frame load show up directly.
//
// All mutation happens on the context's single logical thread; Stats
// deliberately uses plain fields. A caller introducing true multithreading
// around a Context must add its own synchronization here.
type Stats struct {
	// live holds the current number of alive resources per kind.
	live [numResourceKinds]int64

	// DrawCount is the cumulative number of draw calls recorded.
	DrawCount uint64

	// InstanceCount is the cumulative number of instances drawn.
	InstanceCount uint64

	// DispatchCount is the cumulative number of compute dispatches recorded.
	DispatchCount uint64

	// BufferBytes is the total byte size of live buffers.
	BufferBytes uint64

	// TextureBytes is the total byte size of live color textures
	// (depth/stencil formats have backend-defined layouts and are not
	// counted).
	TextureBytes uint64
}

// ResourceCount returns the number of live resources of the given kind.
func (s *Stats) ResourceCount(kind ResourceKind) int64 {
	if kind >= numResourceKinds {
		return 0
	}
	return s.live[kind]
}

// AddResource records the creation of a resource of the given kind.
func (s *Stats) AddResource(kind ResourceKind) {
	if kind < numResourceKinds {
		s.live[kind]++
	}
}

// RemoveResource records the destruction of a resource of the given kind.
// Destroy implementations guard against double-decrement with their own
// destroyed flag; this only performs the bookkeeping.
func (s *Stats) RemoveResource(kind ResourceKind) {
	if kind < numResourceKinds {
		s.live[kind]--
	}
}

// AddDraw records one draw call with the given instance count.
func (s *Stats) AddDraw(instances uint32) {
	s.DrawCount++
	s.InstanceCount += uint64(instances)
}

// AddDispatch records one compute dispatch.
func (s *Stats) AddDispatch() {
	s.DispatchCount++
}

// LiveTotal returns the total number of live resources across all kinds.
func (s *Stats) LiveTotal() int64 {
	var n int64
	for _, c := range s.live {
		n += c
	}
	return n
}

// Report returns a human-readable snapshot for diagnostics.
func (s *Stats) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "draws=%d instances=%d dispatches=%d bufferBytes=%d textureBytes=%d",
		s.DrawCount, s.InstanceCount, s.DispatchCount, s.BufferBytes, s.TextureBytes)
	for kind := ResourceKind(0); kind < numResourceKinds; kind++ {
		if s.live[kind] != 0 {
			fmt.Fprintf(&b, " %s=%d", kind, s.live[kind])
		}
	}
	return b.String()
}
