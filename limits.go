// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// Limits reports the capability limits of the device behind a context.
// Callers size resources and branch on these values rather than probing the
// driver directly.
type Limits struct {
	MaxTextureDimension2D             uint32
	MaxTextureDimension3D             uint32
	MaxTextureArrayLayers             uint32
	MaxBindGroups                     uint32
	MaxBindingsPerBindGroup           uint32
	MaxColorAttachments               uint32
	MaxVertexBuffers                  uint32
	MaxVertexAttributes               uint32
	MaxUniformBufferBindingSize       uint64
	MaxStorageBufferBindingSize       uint64
	MaxBufferSize                     uint64
	MaxComputeWorkgroupSizeX          uint32
	MaxComputeWorkgroupSizeY          uint32
	MaxComputeWorkgroupSizeZ          uint32
	MaxComputeInvocationsPerWorkgroup uint32
	MaxComputeWorkgroupsPerDimension  uint32
	MinUniformBufferOffsetAlignment   uint32
	MinStorageBufferOffsetAlignment   uint32
}

// DefaultLimits returns the guaranteed baseline limits every backend meets.
// A context's actual limits are at least these.
func DefaultLimits() Limits {
	return Limits{
		MaxTextureDimension2D:             8192,
		MaxTextureDimension3D:             2048,
		MaxTextureArrayLayers:             256,
		MaxBindGroups:                     4,
		MaxBindingsPerBindGroup:           640,
		MaxColorAttachments:               4,
		MaxVertexBuffers:                  8,
		MaxVertexAttributes:               16,
		MaxUniformBufferBindingSize:       65536,
		MaxStorageBufferBindingSize:       128 << 20,
		MaxBufferSize:                     256 << 20,
		MaxComputeWorkgroupSizeX:          256,
		MaxComputeWorkgroupSizeY:          256,
		MaxComputeWorkgroupSizeZ:          64,
		MaxComputeInvocationsPerWorkgroup: 256,
		MaxComputeWorkgroupsPerDimension:  65535,
		MinUniformBufferOffsetAlignment:   256,
		MinStorageBufferOffsetAlignment:   256,
	}
}

// Features is the set of boolean capability flags for a context. It is the
// only sanctioned way to take feature-gated code paths; the backend tag is
// for diagnostics, never for feature decisions.
type Features struct {
	ComputeShaders    bool
	StorageBuffers    bool
	StorageTextures   bool
	IndirectDraw      bool
	MultiDrawIndirect bool
	Float32Filterable bool

	// TextureCompressionBC and TextureCompressionETC2 report compressed
	// texture support by family.
	TextureCompressionBC   bool
	TextureCompressionETC2 bool
}
