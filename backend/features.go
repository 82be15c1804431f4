// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import "github.com/molviz/gpu"

// MaxFeatures returns the best-case capability flags a backend tag can
// offer, for planning before a context exists (for example choosing
// which shader variants to precompile). A constructed context may
// report fewer; feature decisions at render time must use
// Context.Features.
func MaxFeatures(name string) (gpu.Features, bool) {
	switch name {
	case WebGPU:
		return gpu.Features{
			ComputeShaders:    true,
			StorageBuffers:    true,
			StorageTextures:   true,
			IndirectDraw:      true,
			Float32Filterable: true,
		}, true
	case GL:
		// GL 4.3+ ceilings; older drivers drop compute and storage.
		return gpu.Features{
			ComputeShaders:    true,
			StorageBuffers:    true,
			StorageTextures:   true,
			IndirectDraw:      true,
			Float32Filterable: true,
		}, true
	}
	return gpu.Features{}, false
}
