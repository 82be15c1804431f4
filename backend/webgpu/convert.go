// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/molviz/gpu"
)

// Enum translation between the portable vocabulary and wgpu-native.
// Tables are total over the portable enums; lookups that can fail return
// an ok flag so callers surface ErrInvalidDescriptor instead of silently
// picking a default.

var textureFormats = map[gpu.TextureFormat]wgpu.TextureFormat{
	gpu.TextureFormatR8Unorm:             wgpu.TextureFormatR8Unorm,
	gpu.TextureFormatRG8Unorm:            wgpu.TextureFormatRG8Unorm,
	gpu.TextureFormatRGBA8Unorm:          wgpu.TextureFormatRGBA8Unorm,
	gpu.TextureFormatRGBA8UnormSrgb:      wgpu.TextureFormatRGBA8UnormSrgb,
	gpu.TextureFormatBGRA8Unorm:          wgpu.TextureFormatBGRA8Unorm,
	gpu.TextureFormatBGRA8UnormSrgb:      wgpu.TextureFormatBGRA8UnormSrgb,
	gpu.TextureFormatR16Float:            wgpu.TextureFormatR16Float,
	gpu.TextureFormatRG16Float:           wgpu.TextureFormatRG16Float,
	gpu.TextureFormatRGBA16Float:         wgpu.TextureFormatRGBA16Float,
	gpu.TextureFormatR32Float:            wgpu.TextureFormatR32Float,
	gpu.TextureFormatRG32Float:           wgpu.TextureFormatRG32Float,
	gpu.TextureFormatRGBA32Float:         wgpu.TextureFormatRGBA32Float,
	gpu.TextureFormatR32Uint:             wgpu.TextureFormatR32Uint,
	gpu.TextureFormatDepth16Unorm:        wgpu.TextureFormatDepth16Unorm,
	gpu.TextureFormatDepth24Plus:         wgpu.TextureFormatDepth24Plus,
	gpu.TextureFormatDepth24PlusStencil8: wgpu.TextureFormatDepth24PlusStencil8,
	gpu.TextureFormatDepth32Float:        wgpu.TextureFormatDepth32Float,
}

func textureFormatToWGPU(f gpu.TextureFormat) (wgpu.TextureFormat, bool) {
	out, ok := textureFormats[f]
	return out, ok
}

func textureFormatFromWGPU(f wgpu.TextureFormat) gpu.TextureFormat {
	for portable, native := range textureFormats {
		if native == f {
			return portable
		}
	}
	return gpu.TextureFormatUndefined
}

var bufferUsageBits = []struct {
	portable gpu.BufferUsage
	native   wgpu.BufferUsage
}{
	{gpu.BufferUsageMapRead, wgpu.BufferUsageMapRead},
	{gpu.BufferUsageMapWrite, wgpu.BufferUsageMapWrite},
	{gpu.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
	{gpu.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
	{gpu.BufferUsageIndex, wgpu.BufferUsageIndex},
	{gpu.BufferUsageVertex, wgpu.BufferUsageVertex},
	{gpu.BufferUsageUniform, wgpu.BufferUsageUniform},
	{gpu.BufferUsageStorage, wgpu.BufferUsageStorage},
	{gpu.BufferUsageIndirect, wgpu.BufferUsageIndirect},
	{gpu.BufferUsageQueryResolve, wgpu.BufferUsageQueryResolve},
}

func bufferUsageToWGPU(u gpu.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for _, bit := range bufferUsageBits {
		if u&bit.portable != 0 {
			out |= bit.native
		}
	}
	return out
}

var textureUsageBits = []struct {
	portable gpu.TextureUsage
	native   wgpu.TextureUsage
}{
	{gpu.TextureUsageCopySrc, wgpu.TextureUsageCopySrc},
	{gpu.TextureUsageCopyDst, wgpu.TextureUsageCopyDst},
	{gpu.TextureUsageTextureBinding, wgpu.TextureUsageTextureBinding},
	{gpu.TextureUsageStorageBinding, wgpu.TextureUsageStorageBinding},
	{gpu.TextureUsageRenderAttachment, wgpu.TextureUsageRenderAttachment},
}

func textureUsageToWGPU(u gpu.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	for _, bit := range textureUsageBits {
		if u&bit.portable != 0 {
			out |= bit.native
		}
	}
	return out
}

func textureDimensionToWGPU(d gpu.TextureDimension) wgpu.TextureDimension {
	switch d {
	case gpu.TextureDimension1D:
		return wgpu.TextureDimension1D
	case gpu.TextureDimension3D:
		return wgpu.TextureDimension3D
	}
	return wgpu.TextureDimension2D
}

var vertexFormats = map[gpu.VertexFormat]wgpu.VertexFormat{
	gpu.VertexFormatUint8x2:   wgpu.VertexFormatUint8x2,
	gpu.VertexFormatUint8x4:   wgpu.VertexFormatUint8x4,
	gpu.VertexFormatSint8x2:   wgpu.VertexFormatSint8x2,
	gpu.VertexFormatSint8x4:   wgpu.VertexFormatSint8x4,
	gpu.VertexFormatUnorm8x2:  wgpu.VertexFormatUnorm8x2,
	gpu.VertexFormatUnorm8x4:  wgpu.VertexFormatUnorm8x4,
	gpu.VertexFormatSnorm8x2:  wgpu.VertexFormatSnorm8x2,
	gpu.VertexFormatSnorm8x4:  wgpu.VertexFormatSnorm8x4,
	gpu.VertexFormatUint16x2:  wgpu.VertexFormatUint16x2,
	gpu.VertexFormatUint16x4:  wgpu.VertexFormatUint16x4,
	gpu.VertexFormatSint16x2:  wgpu.VertexFormatSint16x2,
	gpu.VertexFormatSint16x4:  wgpu.VertexFormatSint16x4,
	gpu.VertexFormatUnorm16x2: wgpu.VertexFormatUnorm16x2,
	gpu.VertexFormatUnorm16x4: wgpu.VertexFormatUnorm16x4,
	gpu.VertexFormatSnorm16x2: wgpu.VertexFormatSnorm16x2,
	gpu.VertexFormatSnorm16x4: wgpu.VertexFormatSnorm16x4,
	gpu.VertexFormatFloat16x2: wgpu.VertexFormatFloat16x2,
	gpu.VertexFormatFloat16x4: wgpu.VertexFormatFloat16x4,
	gpu.VertexFormatFloat32:   wgpu.VertexFormatFloat32,
	gpu.VertexFormatFloat32x2: wgpu.VertexFormatFloat32x2,
	gpu.VertexFormatFloat32x3: wgpu.VertexFormatFloat32x3,
	gpu.VertexFormatFloat32x4: wgpu.VertexFormatFloat32x4,
	gpu.VertexFormatUint32:    wgpu.VertexFormatUint32,
	gpu.VertexFormatUint32x2:  wgpu.VertexFormatUint32x2,
	gpu.VertexFormatUint32x3:  wgpu.VertexFormatUint32x3,
	gpu.VertexFormatUint32x4:  wgpu.VertexFormatUint32x4,
	gpu.VertexFormatSint32:    wgpu.VertexFormatSint32,
	gpu.VertexFormatSint32x2:  wgpu.VertexFormatSint32x2,
	gpu.VertexFormatSint32x3:  wgpu.VertexFormatSint32x3,
	gpu.VertexFormatSint32x4:  wgpu.VertexFormatSint32x4,
}

func vertexFormatToWGPU(f gpu.VertexFormat) (wgpu.VertexFormat, bool) {
	out, ok := vertexFormats[f]
	return out, ok
}

func vertexStepModeToWGPU(m gpu.VertexStepMode) wgpu.VertexStepMode {
	if m == gpu.VertexStepModeInstance {
		return wgpu.VertexStepModeInstance
	}
	return wgpu.VertexStepModeVertex
}

func topologyToWGPU(t gpu.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case gpu.PrimitiveTopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	case gpu.PrimitiveTopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case gpu.PrimitiveTopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case gpu.PrimitiveTopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func indexFormatToWGPU(f gpu.IndexFormat) wgpu.IndexFormat {
	switch f {
	case gpu.IndexFormatUint16:
		return wgpu.IndexFormatUint16
	case gpu.IndexFormatUint32:
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUndefined
}

func frontFaceToWGPU(f gpu.FrontFace) wgpu.FrontFace {
	if f == gpu.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func cullModeToWGPU(m gpu.CullMode) wgpu.CullMode {
	switch m {
	case gpu.CullModeFront:
		return wgpu.CullModeFront
	case gpu.CullModeBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

var blendFactors = map[gpu.BlendFactor]wgpu.BlendFactor{
	gpu.BlendFactorZero:              wgpu.BlendFactorZero,
	gpu.BlendFactorOne:               wgpu.BlendFactorOne,
	gpu.BlendFactorSrc:               wgpu.BlendFactorSrc,
	gpu.BlendFactorOneMinusSrc:       wgpu.BlendFactorOneMinusSrc,
	gpu.BlendFactorSrcAlpha:          wgpu.BlendFactorSrcAlpha,
	gpu.BlendFactorOneMinusSrcAlpha:  wgpu.BlendFactorOneMinusSrcAlpha,
	gpu.BlendFactorDst:               wgpu.BlendFactorDst,
	gpu.BlendFactorOneMinusDst:       wgpu.BlendFactorOneMinusDst,
	gpu.BlendFactorDstAlpha:          wgpu.BlendFactorDstAlpha,
	gpu.BlendFactorOneMinusDstAlpha:  wgpu.BlendFactorOneMinusDstAlpha,
	gpu.BlendFactorSrcAlphaSaturated: wgpu.BlendFactorSrcAlphaSaturated,
	gpu.BlendFactorConstant:          wgpu.BlendFactorConstant,
	gpu.BlendFactorOneMinusConstant:  wgpu.BlendFactorOneMinusConstant,
}

func blendFactorToWGPU(f gpu.BlendFactor) wgpu.BlendFactor {
	return blendFactors[f]
}

func blendOperationToWGPU(o gpu.BlendOperation) wgpu.BlendOperation {
	switch o {
	case gpu.BlendOperationSubtract:
		return wgpu.BlendOperationSubtract
	case gpu.BlendOperationReverseSubtract:
		return wgpu.BlendOperationReverseSubtract
	case gpu.BlendOperationMin:
		return wgpu.BlendOperationMin
	case gpu.BlendOperationMax:
		return wgpu.BlendOperationMax
	}
	return wgpu.BlendOperationAdd
}

var compareFunctions = map[gpu.CompareFunction]wgpu.CompareFunction{
	gpu.CompareFunctionUndefined:    wgpu.CompareFunctionUndefined,
	gpu.CompareFunctionNever:        wgpu.CompareFunctionNever,
	gpu.CompareFunctionLess:         wgpu.CompareFunctionLess,
	gpu.CompareFunctionEqual:        wgpu.CompareFunctionEqual,
	gpu.CompareFunctionLessEqual:    wgpu.CompareFunctionLessEqual,
	gpu.CompareFunctionGreater:      wgpu.CompareFunctionGreater,
	gpu.CompareFunctionNotEqual:     wgpu.CompareFunctionNotEqual,
	gpu.CompareFunctionGreaterEqual: wgpu.CompareFunctionGreaterEqual,
	gpu.CompareFunctionAlways:       wgpu.CompareFunctionAlways,
}

func compareFunctionToWGPU(f gpu.CompareFunction) wgpu.CompareFunction {
	return compareFunctions[f]
}

var stencilOperations = map[gpu.StencilOperation]wgpu.StencilOperation{
	gpu.StencilOperationKeep:           wgpu.StencilOperationKeep,
	gpu.StencilOperationZero:           wgpu.StencilOperationZero,
	gpu.StencilOperationReplace:        wgpu.StencilOperationReplace,
	gpu.StencilOperationInvert:         wgpu.StencilOperationInvert,
	gpu.StencilOperationIncrementClamp: wgpu.StencilOperationIncrementClamp,
	gpu.StencilOperationDecrementClamp: wgpu.StencilOperationDecrementClamp,
	gpu.StencilOperationIncrementWrap:  wgpu.StencilOperationIncrementWrap,
	gpu.StencilOperationDecrementWrap:  wgpu.StencilOperationDecrementWrap,
}

func stencilOperationToWGPU(o gpu.StencilOperation) wgpu.StencilOperation {
	return stencilOperations[o]
}

func loadOpToWGPU(o gpu.LoadOp) wgpu.LoadOp {
	if o == gpu.LoadOpLoad {
		return wgpu.LoadOpLoad
	}
	return wgpu.LoadOpClear
}

func storeOpToWGPU(o gpu.StoreOp) wgpu.StoreOp {
	if o == gpu.StoreOpDiscard {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}

func filterModeToWGPU(m gpu.FilterMode) wgpu.FilterMode {
	if m == gpu.FilterModeLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

func mipmapFilterToWGPU(m gpu.FilterMode) wgpu.MipmapFilterMode {
	if m == gpu.FilterModeLinear {
		return wgpu.MipmapFilterModeLinear
	}
	return wgpu.MipmapFilterModeNearest
}

func addressModeToWGPU(m gpu.AddressMode) wgpu.AddressMode {
	switch m {
	case gpu.AddressModeRepeat:
		return wgpu.AddressModeRepeat
	case gpu.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func shaderStageToWGPU(s gpu.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&gpu.ShaderStageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&gpu.ShaderStageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	if s&gpu.ShaderStageCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func colorWriteMaskToWGPU(m gpu.ColorWriteMask) wgpu.ColorWriteMask {
	if m == 0 {
		return wgpu.ColorWriteMaskAll
	}
	var out wgpu.ColorWriteMask
	if m&gpu.ColorWriteMaskRed != 0 {
		out |= wgpu.ColorWriteMaskRed
	}
	if m&gpu.ColorWriteMaskGreen != 0 {
		out |= wgpu.ColorWriteMaskGreen
	}
	if m&gpu.ColorWriteMaskBlue != 0 {
		out |= wgpu.ColorWriteMaskBlue
	}
	if m&gpu.ColorWriteMaskAlpha != 0 {
		out |= wgpu.ColorWriteMaskAlpha
	}
	return out
}

// layoutEntryToWGPU expands one portable layout entry into the native
// tagged-union form.
func layoutEntryToWGPU(e gpu.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	out := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: shaderStageToWGPU(e.Visibility),
	}
	switch e.Type {
	case gpu.BindingTypeUniformBuffer:
		out.Buffer = wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeUniform,
			HasDynamicOffset: e.HasDynamicOffset,
			MinBindingSize:   e.MinBindingSize,
		}
	case gpu.BindingTypeStorageBuffer:
		out.Buffer = wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeStorage,
			HasDynamicOffset: e.HasDynamicOffset,
			MinBindingSize:   e.MinBindingSize,
		}
	case gpu.BindingTypeReadOnlyStorageBuffer:
		out.Buffer = wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeReadOnlyStorage,
			HasDynamicOffset: e.HasDynamicOffset,
			MinBindingSize:   e.MinBindingSize,
		}
	case gpu.BindingTypeSampler:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	case gpu.BindingTypeComparisonSampler:
		out.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison}
	case gpu.BindingTypeSampledTexture:
		out.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case gpu.BindingTypeStorageTexture:
		format, _ := textureFormatToWGPU(e.StorageFormat)
		out.StorageTexture = wgpu.StorageTextureBindingLayout{
			Access:        wgpu.StorageTextureAccessWriteOnly,
			Format:        format,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	}
	return out
}
