// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// Enum vocabulary shared by both backends.
//
// The String forms are the contract: shader and pipeline descriptors in the
// layers above are built against these literal identifiers, so they must
// not change. Backends translate them to native values internally.

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 4

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 5

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7

	// BufferUsageIndirect indicates the buffer can hold indirect draw/dispatch args.
	BufferUsageIndirect BufferUsage = 1 << 8

	// BufferUsageQueryResolve indicates the buffer can receive query results.
	BufferUsageQueryResolve BufferUsage = 1 << 9
)

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopySrc indicates the texture can be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << 0

	// TextureUsageCopyDst indicates the texture can be used as a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << 1

	// TextureUsageTextureBinding indicates the texture can be bound as a sampled texture.
	TextureUsageTextureBinding TextureUsage = 1 << 2

	// TextureUsageStorageBinding indicates the texture can be bound as a storage texture.
	TextureUsageStorageBinding TextureUsage = 1 << 3

	// TextureUsageRenderAttachment indicates the texture can be used as a render target.
	TextureUsageRenderAttachment TextureUsage = 1 << 4
)

// TextureFormat specifies the format of texture data.
// Only the cross-backend intersection is listed; backend-specific formats
// are deliberately not exposed.
type TextureFormat uint32

// Texture formats.
const (
	TextureFormatUndefined TextureFormat = iota

	TextureFormatR8Unorm
	TextureFormatRG8Unorm
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
	TextureFormatR16Float
	TextureFormatRG16Float
	TextureFormatRGBA16Float
	TextureFormatR32Float
	TextureFormatRG32Float
	TextureFormatRGBA32Float
	TextureFormatR32Uint
	TextureFormatDepth16Unorm
	TextureFormatDepth24Plus
	TextureFormatDepth24PlusStencil8
	TextureFormatDepth32Float
)

var textureFormatNames = map[TextureFormat]string{
	TextureFormatUndefined:           "undefined",
	TextureFormatR8Unorm:             "r8unorm",
	TextureFormatRG8Unorm:            "rg8unorm",
	TextureFormatRGBA8Unorm:          "rgba8unorm",
	TextureFormatRGBA8UnormSrgb:      "rgba8unorm-srgb",
	TextureFormatBGRA8Unorm:          "bgra8unorm",
	TextureFormatBGRA8UnormSrgb:      "bgra8unorm-srgb",
	TextureFormatR16Float:            "r16float",
	TextureFormatRG16Float:           "rg16float",
	TextureFormatRGBA16Float:         "rgba16float",
	TextureFormatR32Float:            "r32float",
	TextureFormatRG32Float:           "rg32float",
	TextureFormatRGBA32Float:         "rgba32float",
	TextureFormatR32Uint:             "r32uint",
	TextureFormatDepth16Unorm:        "depth16unorm",
	TextureFormatDepth24Plus:         "depth24plus",
	TextureFormatDepth24PlusStencil8: "depth24plus-stencil8",
	TextureFormatDepth32Float:        "depth32float",
}

func (f TextureFormat) String() string {
	if s, ok := textureFormatNames[f]; ok {
		return s
	}
	return "undefined"
}

// BytesPerTexel returns the size of one texel in bytes, or 0 for
// depth/stencil formats whose layout is backend-defined.
func (f TextureFormat) BytesPerTexel() uint32 {
	switch f {
	case TextureFormatR8Unorm:
		return 1
	case TextureFormatRG8Unorm, TextureFormatR16Float:
		return 2
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSrgb,
		TextureFormatBGRA8Unorm, TextureFormatBGRA8UnormSrgb,
		TextureFormatRG16Float, TextureFormatR32Float, TextureFormatR32Uint:
		return 4
	case TextureFormatRGBA16Float, TextureFormatRG32Float:
		return 8
	case TextureFormatRGBA32Float:
		return 16
	}
	return 0
}

// IsDepthOrStencil reports whether the format has a depth or stencil aspect.
func (f TextureFormat) IsDepthOrStencil() bool {
	switch f {
	case TextureFormatDepth16Unorm, TextureFormatDepth24Plus,
		TextureFormatDepth24PlusStencil8, TextureFormatDepth32Float:
		return true
	}
	return false
}

// TextureDimension specifies the dimensionality of a texture.
type TextureDimension uint32

// Texture dimensions.
const (
	TextureDimension2D TextureDimension = iota
	TextureDimension1D
	TextureDimension3D
)

func (d TextureDimension) String() string {
	switch d {
	case TextureDimension1D:
		return "1d"
	case TextureDimension3D:
		return "3d"
	}
	return "2d"
}

// VertexFormat specifies the format of a vertex attribute.
type VertexFormat uint32

// Vertex formats.
const (
	VertexFormatUndefined VertexFormat = iota
	VertexFormatUint8x2
	VertexFormatUint8x4
	VertexFormatSint8x2
	VertexFormatSint8x4
	VertexFormatUnorm8x2
	VertexFormatUnorm8x4
	VertexFormatSnorm8x2
	VertexFormatSnorm8x4
	VertexFormatUint16x2
	VertexFormatUint16x4
	VertexFormatSint16x2
	VertexFormatSint16x4
	VertexFormatUnorm16x2
	VertexFormatUnorm16x4
	VertexFormatSnorm16x2
	VertexFormatSnorm16x4
	VertexFormatFloat16x2
	VertexFormatFloat16x4
	VertexFormatFloat32
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x3
	VertexFormatUint32x4
	VertexFormatSint32
	VertexFormatSint32x2
	VertexFormatSint32x3
	VertexFormatSint32x4
)

var vertexFormatNames = map[VertexFormat]string{
	VertexFormatUint8x2:   "uint8x2",
	VertexFormatUint8x4:   "uint8x4",
	VertexFormatSint8x2:   "sint8x2",
	VertexFormatSint8x4:   "sint8x4",
	VertexFormatUnorm8x2:  "unorm8x2",
	VertexFormatUnorm8x4:  "unorm8x4",
	VertexFormatSnorm8x2:  "snorm8x2",
	VertexFormatSnorm8x4:  "snorm8x4",
	VertexFormatUint16x2:  "uint16x2",
	VertexFormatUint16x4:  "uint16x4",
	VertexFormatSint16x2:  "sint16x2",
	VertexFormatSint16x4:  "sint16x4",
	VertexFormatUnorm16x2: "unorm16x2",
	VertexFormatUnorm16x4: "unorm16x4",
	VertexFormatSnorm16x2: "snorm16x2",
	VertexFormatSnorm16x4: "snorm16x4",
	VertexFormatFloat16x2: "float16x2",
	VertexFormatFloat16x4: "float16x4",
	VertexFormatFloat32:   "float32",
	VertexFormatFloat32x2: "float32x2",
	VertexFormatFloat32x3: "float32x3",
	VertexFormatFloat32x4: "float32x4",
	VertexFormatUint32:    "uint32",
	VertexFormatUint32x2:  "uint32x2",
	VertexFormatUint32x3:  "uint32x3",
	VertexFormatUint32x4:  "uint32x4",
	VertexFormatSint32:    "sint32",
	VertexFormatSint32x2:  "sint32x2",
	VertexFormatSint32x3:  "sint32x3",
	VertexFormatSint32x4:  "sint32x4",
}

func (f VertexFormat) String() string {
	if s, ok := vertexFormatNames[f]; ok {
		return s
	}
	return "undefined"
}

// Size returns the byte size of one attribute of this format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatUint8x2, VertexFormatSint8x2, VertexFormatUnorm8x2, VertexFormatSnorm8x2:
		return 2
	case VertexFormatUint8x4, VertexFormatSint8x4, VertexFormatUnorm8x4, VertexFormatSnorm8x4,
		VertexFormatUint16x2, VertexFormatSint16x2, VertexFormatUnorm16x2, VertexFormatSnorm16x2,
		VertexFormatFloat16x2, VertexFormatFloat32, VertexFormatUint32, VertexFormatSint32:
		return 4
	case VertexFormatUint16x4, VertexFormatSint16x4, VertexFormatUnorm16x4, VertexFormatSnorm16x4,
		VertexFormatFloat16x4, VertexFormatFloat32x2, VertexFormatUint32x2, VertexFormatSint32x2:
		return 8
	case VertexFormatFloat32x3, VertexFormatUint32x3, VertexFormatSint32x3:
		return 12
	case VertexFormatFloat32x4, VertexFormatUint32x4, VertexFormatSint32x4:
		return 16
	}
	return 0
}

// VertexStepMode specifies whether vertex attributes advance per vertex or
// per instance.
type VertexStepMode uint32

// Vertex step modes.
const (
	VertexStepModeVertex VertexStepMode = iota
	VertexStepModeInstance
)

func (m VertexStepMode) String() string {
	if m == VertexStepModeInstance {
		return "instance"
	}
	return "vertex"
}

// PrimitiveTopology specifies how vertices are assembled into primitives.
type PrimitiveTopology uint32

// Primitive topologies.
const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyPointList
	PrimitiveTopologyLineList
	PrimitiveTopologyLineStrip
	PrimitiveTopologyTriangleStrip
)

func (t PrimitiveTopology) String() string {
	switch t {
	case PrimitiveTopologyPointList:
		return "point-list"
	case PrimitiveTopologyLineList:
		return "line-list"
	case PrimitiveTopologyLineStrip:
		return "line-strip"
	case PrimitiveTopologyTriangleStrip:
		return "triangle-strip"
	}
	return "triangle-list"
}

// IndexFormat specifies the data type of index buffer entries.
type IndexFormat uint32

// Index formats.
const (
	IndexFormatUndefined IndexFormat = iota
	IndexFormatUint16
	IndexFormatUint32
)

func (f IndexFormat) String() string {
	switch f {
	case IndexFormatUint16:
		return "uint16"
	case IndexFormatUint32:
		return "uint32"
	}
	return "undefined"
}

// FrontFace specifies the winding order of front-facing primitives.
type FrontFace uint32

// Front face winding orders.
const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

func (f FrontFace) String() string {
	if f == FrontFaceCW {
		return "cw"
	}
	return "ccw"
}

// CullMode specifies which primitive faces are culled.
type CullMode uint32

// Cull modes.
const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

func (m CullMode) String() string {
	switch m {
	case CullModeFront:
		return "front"
	case CullModeBack:
		return "back"
	}
	return "none"
}

// BlendFactor specifies a blend coefficient.
type BlendFactor uint32

// Blend factors.
const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrc
	BlendFactorOneMinusSrc
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDst
	BlendFactorOneMinusDst
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
	BlendFactorSrcAlphaSaturated
	BlendFactorConstant
	BlendFactorOneMinusConstant
)

var blendFactorNames = map[BlendFactor]string{
	BlendFactorZero:              "zero",
	BlendFactorOne:               "one",
	BlendFactorSrc:               "src",
	BlendFactorOneMinusSrc:       "one-minus-src",
	BlendFactorSrcAlpha:          "src-alpha",
	BlendFactorOneMinusSrcAlpha:  "one-minus-src-alpha",
	BlendFactorDst:               "dst",
	BlendFactorOneMinusDst:       "one-minus-dst",
	BlendFactorDstAlpha:          "dst-alpha",
	BlendFactorOneMinusDstAlpha:  "one-minus-dst-alpha",
	BlendFactorSrcAlphaSaturated: "src-alpha-saturated",
	BlendFactorConstant:          "constant",
	BlendFactorOneMinusConstant:  "one-minus-constant",
}

func (f BlendFactor) String() string {
	if s, ok := blendFactorNames[f]; ok {
		return s
	}
	return "zero"
}

// BlendOperation specifies how source and destination blend factors combine.
type BlendOperation uint32

// Blend operations.
const (
	BlendOperationAdd BlendOperation = iota
	BlendOperationSubtract
	BlendOperationReverseSubtract
	BlendOperationMin
	BlendOperationMax
)

func (o BlendOperation) String() string {
	switch o {
	case BlendOperationSubtract:
		return "subtract"
	case BlendOperationReverseSubtract:
		return "reverse-subtract"
	case BlendOperationMin:
		return "min"
	case BlendOperationMax:
		return "max"
	}
	return "add"
}

// CompareFunction specifies a depth or stencil comparison.
type CompareFunction uint32

// Compare functions. The zero value means "comparison disabled" in sampler
// descriptors and "always" in depth/stencil state.
const (
	CompareFunctionUndefined CompareFunction = iota
	CompareFunctionNever
	CompareFunctionLess
	CompareFunctionEqual
	CompareFunctionLessEqual
	CompareFunctionGreater
	CompareFunctionNotEqual
	CompareFunctionGreaterEqual
	CompareFunctionAlways
)

var compareFunctionNames = map[CompareFunction]string{
	CompareFunctionNever:        "never",
	CompareFunctionLess:         "less",
	CompareFunctionEqual:        "equal",
	CompareFunctionLessEqual:    "less-equal",
	CompareFunctionGreater:      "greater",
	CompareFunctionNotEqual:     "not-equal",
	CompareFunctionGreaterEqual: "greater-equal",
	CompareFunctionAlways:       "always",
}

func (f CompareFunction) String() string {
	if s, ok := compareFunctionNames[f]; ok {
		return s
	}
	return "undefined"
}

// StencilOperation specifies how a stencil value is updated.
type StencilOperation uint32

// Stencil operations.
const (
	StencilOperationKeep StencilOperation = iota
	StencilOperationZero
	StencilOperationReplace
	StencilOperationInvert
	StencilOperationIncrementClamp
	StencilOperationDecrementClamp
	StencilOperationIncrementWrap
	StencilOperationDecrementWrap
)

var stencilOperationNames = map[StencilOperation]string{
	StencilOperationKeep:           "keep",
	StencilOperationZero:           "zero",
	StencilOperationReplace:        "replace",
	StencilOperationInvert:         "invert",
	StencilOperationIncrementClamp: "increment-clamp",
	StencilOperationDecrementClamp: "decrement-clamp",
	StencilOperationIncrementWrap:  "increment-wrap",
	StencilOperationDecrementWrap:  "decrement-wrap",
}

func (o StencilOperation) String() string {
	if s, ok := stencilOperationNames[o]; ok {
		return s
	}
	return "keep"
}

// LoadOp specifies what happens to an attachment at the start of a pass.
type LoadOp uint32

// Load operations.
const (
	LoadOpClear LoadOp = iota
	LoadOpLoad
)

func (o LoadOp) String() string {
	if o == LoadOpLoad {
		return "load"
	}
	return "clear"
}

// StoreOp specifies what happens to an attachment at the end of a pass.
type StoreOp uint32

// Store operations.
const (
	StoreOpStore StoreOp = iota
	StoreOpDiscard
)

func (o StoreOp) String() string {
	if o == StoreOpDiscard {
		return "discard"
	}
	return "store"
}

// FilterMode specifies texture sampling interpolation.
type FilterMode uint32

// Filter modes.
const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

func (m FilterMode) String() string {
	if m == FilterModeLinear {
		return "linear"
	}
	return "nearest"
}

// AddressMode specifies texture coordinate wrapping.
type AddressMode uint32

// Address modes.
const (
	AddressModeClampToEdge AddressMode = iota
	AddressModeRepeat
	AddressModeMirrorRepeat
)

func (m AddressMode) String() string {
	switch m {
	case AddressModeRepeat:
		return "repeat"
	case AddressModeMirrorRepeat:
		return "mirror-repeat"
	}
	return "clamp-to-edge"
}

// ShaderStage is a bitmask of pipeline stages a binding is visible to.
type ShaderStage uint32

// Shader stages.
const (
	ShaderStageVertex   ShaderStage = 1 << 0
	ShaderStageFragment ShaderStage = 1 << 1
	ShaderStageCompute  ShaderStage = 1 << 2
)

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer

	// BindingTypeSampler is a texture sampler binding.
	BindingTypeSampler

	// BindingTypeComparisonSampler is a comparison (shadow) sampler binding.
	BindingTypeComparisonSampler

	// BindingTypeSampledTexture is a sampled texture binding.
	BindingTypeSampledTexture

	// BindingTypeStorageTexture is a write-only storage texture binding.
	BindingTypeStorageTexture
)

// ColorWriteMask selects which color channels a pipeline writes.
type ColorWriteMask uint32

// Color write mask bits.
const (
	ColorWriteMaskRed   ColorWriteMask = 1 << 0
	ColorWriteMaskGreen ColorWriteMask = 1 << 1
	ColorWriteMaskBlue  ColorWriteMask = 1 << 2
	ColorWriteMaskAlpha ColorWriteMask = 1 << 3

	ColorWriteMaskAll = ColorWriteMaskRed | ColorWriteMaskGreen | ColorWriteMaskBlue | ColorWriteMaskAlpha
)
