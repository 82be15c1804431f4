// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "sync/atomic"

// ResourceKind identifies a class of GPU resource for ID allocation and
// statistics.
type ResourceKind uint32

// Resource kinds.
const (
	KindBuffer ResourceKind = iota
	KindTexture
	KindTextureView
	KindSampler
	KindShaderModule
	KindBindGroupLayout
	KindBindGroup
	KindPipelineLayout
	KindRenderPipeline
	KindComputePipeline
	KindCommandEncoder

	numResourceKinds
)

var resourceKindNames = [numResourceKinds]string{
	"buffer",
	"texture",
	"textureView",
	"sampler",
	"shaderModule",
	"bindGroupLayout",
	"bindGroup",
	"pipelineLayout",
	"renderPipeline",
	"computePipeline",
	"commandEncoder",
}

func (k ResourceKind) String() string {
	if k < numResourceKinds {
		return resourceKindNames[k]
	}
	return "unknown"
}

// idCounters holds one process-wide monotonic counter per resource kind.
// IDs exist for debugging and identity only; they are never persisted and
// never reused within a process.
var idCounters [numResourceKinds]atomic.Uint64

// NextID allocates the next ID for the given resource kind. IDs start at 1;
// zero is never a valid ID.
func NextID(kind ResourceKind) uint64 {
	return idCounters[kind].Add(1)
}
