// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "fmt"

// Extent3D is the size of a texture in texels.
type Extent3D struct {
	Width  uint32
	Height uint32

	// DepthOrArrayLayers is the depth for 3D textures or the array layer
	// count for 2D textures. Zero means 1.
	DepthOrArrayLayers uint32
}

// Color is a double-precision RGBA color used for clear values and blend
// constants.
type Color struct {
	R, G, B, A float64
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes. Must be greater than zero.
	Size uint64

	// Usage is the set of allowed usages. Must be non-empty.
	Usage BufferUsage
}

// Validate checks the descriptor invariants shared by all backends.
func (d *BufferDescriptor) Validate() error {
	if d.Size == 0 {
		return fmt.Errorf("%w: buffer size must be > 0", ErrInvalidDescriptor)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: buffer usage must not be empty", ErrInvalidDescriptor)
	}
	return nil
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is the texture size. Width and Height must be positive;
	// DepthOrArrayLayers defaults to 1.
	Size Extent3D

	// MipLevelCount is the number of mip levels. Zero means 1.
	MipLevelCount uint32

	// SampleCount is the multisample count. Zero means 1.
	SampleCount uint32

	// Dimension is the texture dimensionality. Defaults to 2D.
	Dimension TextureDimension

	// Format is the texel format. Must be a defined cross-backend format.
	Format TextureFormat

	// Usage is the set of allowed usages. Must be non-empty.
	Usage TextureUsage
}

// Validate checks the descriptor invariants shared by all backends.
func (d *TextureDescriptor) Validate() error {
	if d.Size.Width == 0 || d.Size.Height == 0 {
		return fmt.Errorf("%w: texture size must be positive, got %dx%d",
			ErrInvalidDescriptor, d.Size.Width, d.Size.Height)
	}
	if d.Format == TextureFormatUndefined {
		return fmt.Errorf("%w: texture format must be defined", ErrInvalidDescriptor)
	}
	if _, ok := textureFormatNames[d.Format]; !ok {
		return fmt.Errorf("%w: unknown texture format %d", ErrInvalidDescriptor, d.Format)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: texture usage must not be empty", ErrInvalidDescriptor)
	}
	return nil
}

// Resolved returns a copy of the descriptor with zero-value defaults
// replaced (mip=1, sample=1, depth=1). Backends store the resolved form so
// handles report concrete values without querying the driver.
func (d *TextureDescriptor) Resolved() TextureDescriptor {
	r := *d
	if r.Size.DepthOrArrayLayers == 0 {
		r.Size.DepthOrArrayLayers = 1
	}
	if r.MipLevelCount == 0 {
		r.MipLevelCount = 1
	}
	if r.SampleCount == 0 {
		r.SampleCount = 1
	}
	return r
}

// TextureViewDescriptor describes a view into a texture. The zero value
// views the whole texture in its own format.
type TextureViewDescriptor struct {
	Label string

	// Format overrides the texture format when non-zero.
	Format TextureFormat

	BaseMipLevel    uint32
	MipLevelCount   uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// SamplerDescriptor describes a sampler to create. The zero value is a
// nearest-filtered, clamp-to-edge sampler.
type SamplerDescriptor struct {
	Label string

	AddressModeU AddressMode
	AddressModeV AddressMode
	AddressModeW AddressMode

	MagFilter    FilterMode
	MinFilter    FilterMode
	MipmapFilter FilterMode

	// Compare enables comparison sampling when non-zero (shadow samplers).
	Compare CompareFunction

	// MaxAnisotropy is the anisotropic filtering level. Zero means 1.
	MaxAnisotropy uint16
}

// ShaderModuleDescriptor describes a shader module to compile.
//
// Code is an opaque source string in the active backend's native shading
// language (WGSL for backend/webgpu, GLSL for backend/gl). No translation
// is performed at this layer; selecting the right source text per backend
// is the caller's responsibility.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index within the group.
	Binding uint32

	// Visibility is the set of shader stages the binding is visible to.
	Visibility ShaderStage

	// Type is the kind of resource bound at this index.
	Type BindingType

	// HasDynamicOffset marks buffer bindings whose offset is supplied at
	// SetBindGroup time.
	HasDynamicOffset bool

	// MinBindingSize is the minimum buffer size for buffer bindings.
	// Zero for non-buffer bindings.
	MinBindingSize uint64

	// StorageFormat is the texel format for storage texture bindings.
	StorageFormat TextureFormat
}

// BindGroupLayoutDescriptor describes a bind group layout.
// Layouts are immutable once created.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one resource at a binding index. Exactly one of
// Buffer, TextureView, or Sampler must be set, matching the layout entry's
// type.
type BindGroupEntry struct {
	Binding uint32

	Buffer Buffer
	// Offset is the byte offset into Buffer for buffer bindings.
	Offset uint64
	// Size is the bound byte range for buffer bindings; zero binds the
	// remainder of the buffer from Offset.
	Size uint64

	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group: a set of resources matched
// against a layout. It must supply exactly the bindings the layout declares.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// Validate checks the group against its layout. Both backends share this
// check so descriptor violations fail identically everywhere.
func (d *BindGroupDescriptor) Validate() error {
	if d.Layout == nil {
		return fmt.Errorf("%w: bind group layout is required", ErrInvalidDescriptor)
	}
	declared := d.Layout.Entries()
	if len(d.Entries) != len(declared) {
		return fmt.Errorf("%w: bind group supplies %d bindings, layout declares %d",
			ErrInvalidDescriptor, len(d.Entries), len(declared))
	}
	byBinding := make(map[uint32]BindGroupLayoutEntry, len(declared))
	for _, e := range declared {
		byBinding[e.Binding] = e
	}
	for _, e := range d.Entries {
		le, ok := byBinding[e.Binding]
		if !ok {
			return fmt.Errorf("%w: binding %d not declared in layout", ErrInvalidDescriptor, e.Binding)
		}
		switch le.Type {
		case BindingTypeUniformBuffer, BindingTypeStorageBuffer, BindingTypeReadOnlyStorageBuffer:
			if e.Buffer == nil {
				return fmt.Errorf("%w: binding %d requires a buffer", ErrInvalidDescriptor, e.Binding)
			}
		case BindingTypeSampler, BindingTypeComparisonSampler:
			if e.Sampler == nil {
				return fmt.Errorf("%w: binding %d requires a sampler", ErrInvalidDescriptor, e.Binding)
			}
		case BindingTypeSampledTexture, BindingTypeStorageTexture:
			if e.TextureView == nil {
				return fmt.Errorf("%w: binding %d requires a texture view", ErrInvalidDescriptor, e.Binding)
			}
		}
	}
	return nil
}

// PipelineLayoutDescriptor describes a pipeline layout: an ordered list of
// bind group layouts. The slice index is the group index used with
// SetBindGroup during a pass.
type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

// VertexAttribute describes one attribute within a vertex buffer layout.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes the memory layout of one vertex buffer slot.
type VertexBufferLayout struct {
	ArrayStride uint64
	StepMode    VertexStepMode
	Attributes  []VertexAttribute
}

// VertexState is the vertex stage of a render pipeline.
type VertexState struct {
	Module     ShaderModule
	EntryPoint string
	Buffers    []VertexBufferLayout
}

// BlendComponent describes blending for one channel group.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

// BlendState describes color and alpha blending for a color target.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// BlendStateReplace is the no-blending state (source replaces destination).
var BlendStateReplace = BlendState{
	Color: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorZero, Operation: BlendOperationAdd},
	Alpha: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorZero, Operation: BlendOperationAdd},
}

// BlendStatePremultipliedAlpha is standard premultiplied-alpha compositing.
var BlendStatePremultipliedAlpha = BlendState{
	Color: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorOneMinusSrcAlpha, Operation: BlendOperationAdd},
	Alpha: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorOneMinusSrcAlpha, Operation: BlendOperationAdd},
}

// ColorTargetState describes one color attachment a pipeline renders to.
type ColorTargetState struct {
	Format TextureFormat

	// Blend enables blending when non-nil.
	Blend *BlendState

	// WriteMask selects written channels. Zero means all channels
	// (use ColorWriteMaskAll explicitly when combining with other bits).
	WriteMask ColorWriteMask
}

// FragmentState is the fragment stage of a render pipeline.
type FragmentState struct {
	Module     ShaderModule
	EntryPoint string
	Targets    []ColorTargetState
}

// StencilFaceState describes stencil behavior for one face orientation.
type StencilFaceState struct {
	Compare     CompareFunction
	FailOp      StencilOperation
	DepthFailOp StencilOperation
	PassOp      StencilOperation
}

// DepthStencilState describes the depth/stencil stage of a render pipeline.
type DepthStencilState struct {
	Format TextureFormat

	DepthWriteEnabled bool
	DepthCompare      CompareFunction

	StencilFront StencilFaceState
	StencilBack  StencilFaceState

	// StencilReadMask and StencilWriteMask default to all bits when zero.
	StencilReadMask  uint32
	StencilWriteMask uint32

	DepthBias           int32
	DepthBiasSlopeScale float32
	DepthBiasClamp      float32
}

// PrimitiveState describes primitive assembly and rasterization.
type PrimitiveState struct {
	Topology         PrimitiveTopology
	StripIndexFormat IndexFormat
	FrontFace        FrontFace
	CullMode         CullMode
}

// MultisampleState describes multisampling for a render pipeline.
type MultisampleState struct {
	// Count is the sample count. Zero means 1.
	Count uint32

	// Mask is the sample mask. Zero means all samples (0xFFFFFFFF).
	Mask uint32

	AlphaToCoverageEnabled bool
}

// RenderPipelineDescriptor describes a render pipeline: compiled shader
// stages plus every piece of fixed-function state.
type RenderPipelineDescriptor struct {
	Label string

	// Layout is the explicit pipeline layout. Nil means "auto": the layout
	// is inferred from the shader interface and retrievable afterwards via
	// GetBindGroupLayout. GetBindGroupLayout on an explicitly laid out
	// pipeline is an error.
	Layout PipelineLayout

	// Vertex is required.
	Vertex VertexState

	Primitive    PrimitiveState
	DepthStencil *DepthStencilState
	Multisample  MultisampleState

	// Fragment is optional; depth-only pipelines omit it.
	Fragment *FragmentState
}

// Validate checks the descriptor invariants shared by all backends.
func (d *RenderPipelineDescriptor) Validate() error {
	if d.Vertex.Module == nil {
		return fmt.Errorf("%w: render pipeline requires a vertex shader module", ErrInvalidDescriptor)
	}
	if d.Fragment != nil && d.Fragment.Module == nil {
		return fmt.Errorf("%w: fragment state set without a shader module", ErrInvalidDescriptor)
	}
	return nil
}

// ProgrammableStage is a compute shader stage.
type ProgrammableStage struct {
	Module     ShaderModule
	EntryPoint string
}

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Label string

	// Layout is the explicit pipeline layout; nil means auto-infer.
	Layout PipelineLayout

	Compute ProgrammableStage
}

// RenderPassColorAttachment describes one color attachment of a render pass.
type RenderPassColorAttachment struct {
	View          TextureView
	ResolveTarget TextureView
	LoadOp        LoadOp
	StoreOp       StoreOp
	ClearValue    Color
}

// RenderPassDepthStencilAttachment describes the depth/stencil attachment
// of a render pass.
type RenderPassDepthStencilAttachment struct {
	View TextureView

	DepthLoadOp     LoadOp
	DepthStoreOp    StoreOp
	DepthClearValue float32

	StencilLoadOp     LoadOp
	StencilStoreOp    StoreOp
	StencilClearValue uint32
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []RenderPassColorAttachment
	DepthStencilAttachment *RenderPassDepthStencilAttachment
}
