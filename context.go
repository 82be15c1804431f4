// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// Context is the root session object: one per rendering surface. All GPU
// resources are created through its factory methods and all GPU work is
// recorded and submitted through it.
//
// A Context is created by the backend factory and destroyed explicitly by
// its owner; once destroyed, every handle obtained from it is invalid. The
// backend identity of a context never changes over its lifetime.
type Context interface {
	// Backend returns the backend tag ("webgpu" or "gl"). The tag is for
	// diagnostics and telemetry only; feature decisions must use Features.
	Backend() string

	// Stats returns the live resource and draw counters. The returned
	// pointer observes the context's bookkeeping; callers must not mutate it.
	Stats() *Stats

	// Limits returns the device capability limits.
	Limits() Limits

	// Features returns the device capability flags.
	Features() Features

	// PixelScale returns the surface's device-pixel to logical-pixel ratio.
	PixelScale() float64

	// SetPixelScale records the surface's pixel ratio (driven by the
	// embedding window system).
	SetPixelScale(scale float64)

	// CreateBuffer allocates a buffer. The handle's Size matches the
	// descriptor exactly. Fails when size is zero or the usage set is
	// empty or unsupported by the backend.
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)

	// CreateBufferInit allocates a buffer sized and filled from data.
	// The descriptor's Size is ignored; len(data) is used.
	CreateBufferInit(desc *BufferDescriptor, data []byte) (Buffer, error)

	// CreateTexture allocates a texture with resolved defaults
	// (mip=1, sample=1, depth=1).
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// CreateSampler creates a sampler.
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)

	// CreateShaderModule compiles backend-native shader source.
	// Compilation errors surface here, wrapped in ErrShaderCompile.
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)

	// CreateBindGroupLayout creates an immutable binding-interface layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup instantiates resources against a layout. The group
	// must supply exactly the bindings the layout declares.
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)

	// CreatePipelineLayout creates an ordered list of bind group layouts;
	// the order defines the group indices used during a pass.
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)

	// CreateRenderPipeline creates an immutable render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateComputePipeline creates an immutable compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)

	// CreateCommandEncoder starts recording a new command stream.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit enqueues command buffers for execution. Buffers execute in
	// array order, and successive Submit calls execute in program order.
	// Submit returns before the GPU completes the work.
	Submit(buffers ...CommandBuffer) error

	// WriteBuffer schedules a write of data into buf at offset. The data
	// is copied before WriteBuffer returns, so the caller may reuse it.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// WriteTexture schedules a write of tightly packed texel data into
	// mip level 0 of tex.
	WriteTexture(tex Texture, data []byte) error

	// ReadPixels blocks until the given region of the texture (mip 0) is
	// readable and returns it tightly packed. The texture must have been
	// created with TextureUsageCopySrc.
	ReadPixels(tex Texture, x, y, width, height uint32) ([]byte, error)

	// WaitForGPU blocks until all previously submitted work has retired
	// on the device queue. Use for correctness-sensitive readback, not
	// frame pacing.
	WaitForGPU() error

	// SurfaceFormat returns the format of the swap-surface texture, the
	// format pipelines rendering to CurrentTexture must target.
	SurfaceFormat() TextureFormat

	// CurrentTexture returns the swap-surface texture for the current
	// frame. The handle is valid until the next Present call; callers
	// must not cache it across frames. Destroy on it is a no-op (the
	// platform owns swap-chain memory).
	CurrentTexture() (Texture, error)

	// Present ends the current frame, presenting the surface texture and
	// invalidating handles returned by CurrentTexture.
	Present()

	// IsLost reports whether the device behind this context is lost.
	IsLost() bool

	// SetLost transitions the context to the lost state and notifies
	// OnLost observers. Driven by the backend or platform; exposed for
	// callers that learn about loss out of band (and for tests).
	SetLost(reason string)

	// Restore re-initializes backend-managed ephemeral resources after a
	// device restore and notifies OnRestored observers. Resources created
	// before the loss are NOT recreated; that remains the caller's job.
	// The optional extra resets run after backend reinitialization.
	Restore(extra ...func()) error

	// OnLost registers an observer for the lost transition.
	OnLost(fn func(reason string))

	// OnRestored registers an observer for the restored transition.
	OnRestored(fn func())

	// Destroy releases the context and its backend device. Idempotent.
	Destroy()
}

// Buffer is a linear block of GPU memory.
type Buffer interface {
	// ID is the process-unique identity of this handle.
	ID() uint64

	// Size returns the byte size, matching the creating descriptor exactly.
	Size() uint64

	// Usage returns the creating descriptor's usage set.
	Usage() BufferUsage

	// Label returns the debug label.
	Label() string

	// Read blocks until the full buffer contents are readable and returns
	// a copy. The buffer must have BufferUsageCopySrc.
	Read() ([]byte, error)

	// Destroy releases the buffer. Idempotent: repeated calls are no-ops
	// and the live-resource counter is decremented exactly once.
	Destroy()
}

// Texture is an image resource of one to three dimensions.
type Texture interface {
	ID() uint64
	Width() uint32
	Height() uint32
	Depth() uint32
	MipLevelCount() uint32
	SampleCount() uint32
	Format() TextureFormat
	Usage() TextureUsage
	Label() string

	// CreateView creates a view of this texture. Pass nil to view the
	// whole texture in its own format. The view holds a non-owning
	// reference: it must not outlive the texture.
	CreateView(desc *TextureViewDescriptor) (TextureView, error)

	// Destroy releases the texture. Idempotent. On swap-surface textures
	// it is a no-op.
	Destroy()
}

// TextureView is a shader-visible or attachable slice of a texture.
type TextureView interface {
	ID() uint64
	Format() TextureFormat
	Destroy()
}

// Sampler describes how textures are sampled.
type Sampler interface {
	ID() uint64
	Destroy()
}

// ShaderModule is a compiled shader program unit.
type ShaderModule interface {
	ID() uint64
	Label() string
	Destroy()
}

// BindGroupLayout declares the binding interface of one bind group slot.
// Immutable once created.
type BindGroupLayout interface {
	ID() uint64

	// Entries returns the declared bindings.
	Entries() []BindGroupLayoutEntry

	Destroy()
}

// BindGroup is a bundle of resource bindings matched against a layout.
type BindGroup interface {
	ID() uint64
	Destroy()
}

// PipelineLayout is an ordered list of bind group layouts.
type PipelineLayout interface {
	ID() uint64
	Destroy()
}

// RenderPipeline is compiled shader stages plus fixed-function state, the
// unit bound before issuing draws. Immutable on both backends: the gl
// backend snapshots the full state and replays it on every bind.
type RenderPipeline interface {
	ID() uint64
	Label() string

	// GetBindGroupLayout returns the inferred layout for the given group
	// index. Only valid on pipelines created with a nil (auto) layout;
	// returns ErrExplicitLayout otherwise.
	GetBindGroupLayout(index uint32) (BindGroupLayout, error)

	Destroy()
}

// ComputePipeline is a compiled compute program.
type ComputePipeline interface {
	ID() uint64
	Label() string
	GetBindGroupLayout(index uint32) (BindGroupLayout, error)
	Destroy()
}

// CommandEncoder accumulates passes and copies, finalized exactly once into
// a CommandBuffer. A finished encoder must not be reused.
type CommandEncoder interface {
	// BeginRenderPass starts a render pass. Only one pass may record at a
	// time per encoder.
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPassEncoder, error)

	// BeginComputePass starts a compute pass.
	BeginComputePass(label string) (ComputePassEncoder, error)

	// CopyBufferToBuffer records a buffer copy.
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset, size uint64) error

	// CopyTextureToBuffer records a copy of mip 0 of src into dst, with
	// rows padded to bytesPerRow (the explicit backend requires 256-byte
	// row alignment; ReadPixels handles padding for callers).
	CopyTextureToBuffer(src Texture, dst Buffer, bytesPerRow uint32) error

	// CopyTextureToTexture records a copy of the given extent between
	// mip 0 of two textures.
	CopyTextureToTexture(src, dst Texture, width, height uint32) error

	// Finish seals the encoder into a command buffer. The encoder must
	// not be used afterwards; the buffer may be submitted independent of
	// encoder lifetime.
	Finish() (CommandBuffer, error)
}

// CommandBuffer is a sealed, submittable recording.
type CommandBuffer interface {
	Label() string
}

// RenderPassEncoder records draws within one render pass. Draw order is
// execution order.
type RenderPassEncoder interface {
	// SetPipeline binds a pipeline. Pipelines are self-contained: no
	// fixed-function state leaks from previously bound pipelines.
	SetPipeline(p RenderPipeline) error

	// SetBindGroup supplies the bind group at the given group index, as
	// defined by the pipeline layout order.
	SetBindGroup(index uint32, group BindGroup, dynamicOffsets []uint32) error

	SetVertexBuffer(slot uint32, buf Buffer, offset uint64) error
	SetIndexBuffer(buf Buffer, format IndexFormat, offset uint64) error

	// SetViewport and SetScissorRect are the only genuinely dynamic
	// (per-pass) state.
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	SetScissorRect(x, y, width, height uint32)

	SetBlendConstant(color Color)
	SetStencilReference(ref uint32)

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// DrawIndirect issues a draw whose arguments live in buf at offset.
	// Requires Features().IndirectDraw.
	DrawIndirect(buf Buffer, offset uint64) error

	End() error
}

// ComputePassEncoder records dispatches within one compute pass.
type ComputePassEncoder interface {
	SetPipeline(p ComputePipeline) error
	SetBindGroup(index uint32, group BindGroup, dynamicOffsets []uint32) error
	DispatchWorkgroups(x, y, z uint32)
	DispatchWorkgroupsIndirect(buf Buffer, offset uint64) error
	End() error
}
