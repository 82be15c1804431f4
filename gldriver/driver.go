// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gldriver defines the stateful, binding-point driver boundary the
// compatibility backend is written against.
//
// The Device interface models an immediate-mode GL-style state machine:
// global current program, numbered binding points for buffers and texture
// units, and fixed-function state mutated by individual setters. The
// production implementation (NewOpenGL) runs over go-gl and requires a
// current GL context on the calling thread; tests drive the backend with a
// recording fake instead.
package gldriver

import "github.com/molviz/gpu"

// Handle types are native object names. Zero is "none" (or the default
// framebuffer for Framebuffer).
type (
	Buffer      uint32
	Texture     uint32
	Sampler     uint32
	Program     uint32
	Framebuffer uint32
)

// Face selects primitive faces for stencil and cull state.
type Face uint8

// Faces.
const (
	FaceFrontAndBack Face = iota
	FaceFront
	FaceBack
)

// ClearMask selects which aspects Clear touches.
type ClearMask uint8

// Clear mask bits.
const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil
)

// Caps reports what the underlying GL implementation supports. The backend
// maps this onto the abstract feature flags.
type Caps struct {
	Vendor   string
	Renderer string
	Version  string

	MaxTextureSize               int
	MaxColorAttachments          int
	MaxTextureUnits              int
	MaxUniformBufferBindings     int
	UniformBufferOffsetAlignment int

	// Compute, StorageBuffers and DrawIndirect require GL 4.3-class
	// support and are absent on older or constrained drivers.
	Compute        bool
	StorageBuffers bool
	DrawIndirect   bool
}

// TextureDesc describes a texture allocation.
type TextureDesc struct {
	Format  gpu.TextureFormat
	Width   int
	Height  int
	Layers  int // depth for 3D textures, 1 otherwise
	Levels  int
	Samples int
	Is3D    bool
}

// SamplerDesc describes a sampler object.
type SamplerDesc struct {
	WrapU, WrapV, WrapW gpu.AddressMode
	MagLinear           bool
	MinLinear           bool
	MipLinear           bool
	Compare             gpu.CompareFunction // zero disables comparison
	MaxAnisotropy       int
}

// VertexAttrib is one attribute binding applied to the global vertex
// array state. The adapter derives these from the bound pipeline's vertex
// layout plus the currently bound vertex buffers.
type VertexAttrib struct {
	Location    uint32
	Buffer      Buffer
	Format      gpu.VertexFormat
	Stride      int
	Offset      int
	PerInstance bool
}

// BindingInfo is one entry of a program's reflected binding interface,
// used for automatic pipeline layout inference. Bindings live in the
// driver's flat slot space; the backend folds them into (group, binding)
// pairs by its slot convention.
type BindingInfo struct {
	Name string
	Slot uint32
	Type gpu.BindingType
}

// Device is the stateful driver the compatibility backend adapts. All
// calls must come from the thread that owns the GL context.
type Device interface {
	// Init loads the API and prepares driver-owned state (the shared
	// vertex array object). Fails when no GL context is current.
	Init() error

	// Caps reports implementation limits. Valid after Init.
	Caps() Caps

	// Close releases driver-owned objects.
	Close()

	// NewBuffer allocates a buffer of the given byte size.
	NewBuffer(size int) (Buffer, error)
	BufferSubData(b Buffer, offset int, data []byte)
	// ReadBuffer copies len(dst) bytes from the buffer at offset.
	// Synchronous in this model.
	ReadBuffer(b Buffer, offset int, dst []byte) error
	CopyBuffer(src Buffer, srcOffset int, dst Buffer, dstOffset, size int)
	DeleteBuffer(b Buffer)

	NewTexture(desc TextureDesc) (Texture, error)
	TexSubImage(t Texture, level, x, y, width, height int, data []byte)
	CopyTexture(src, dst Texture, width, height int)
	// ReadTexturePixels reads a region of level 0 into dst, tightly
	// packed.
	ReadTexturePixels(t Texture, x, y, width, height int, dst []byte) error
	DeleteTexture(t Texture)

	NewSampler(desc SamplerDesc) (Sampler, error)
	DeleteSampler(s Sampler)

	// CompileProgram links a vertex+fragment program; fragmentSrc may be
	// empty for depth-only programs. Source is GLSL; no translation
	// happens below this point.
	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	CompileComputeProgram(src string) (Program, error)
	// ProgramBindings reflects the linked program's binding interface.
	ProgramBindings(p Program) []BindingInfo
	DeleteProgram(p Program)

	NewFramebuffer(colors []Texture, depthStencil Texture) (Framebuffer, error)
	DeleteFramebuffer(f Framebuffer)

	// Binding points (global state).
	BindProgram(p Program)
	BindFramebuffer(f Framebuffer)
	BindUniformBuffer(slot int, b Buffer, offset, size int)
	BindStorageBuffer(slot int, b Buffer, offset, size int)
	BindTexture(unit int, t Texture)
	BindSampler(unit int, s Sampler)
	BindIndexBuffer(b Buffer)
	SetVertexAttribs(attrs []VertexAttrib)

	// Fixed-function state (global state machine).
	SetBlendEnabled(on bool)
	SetBlendFunc(srcRGB, dstRGB, srcAlpha, dstAlpha gpu.BlendFactor)
	SetBlendEquation(rgb, alpha gpu.BlendOperation)
	SetBlendColor(r, g, b, a float32)
	SetColorMask(r, g, b, a bool)
	SetDepthTest(on bool)
	SetDepthMask(write bool)
	SetDepthFunc(f gpu.CompareFunction)
	SetPolygonOffset(factor, units float32)
	SetStencilTest(on bool)
	SetStencilFunc(face Face, f gpu.CompareFunction, ref int32, mask uint32)
	SetStencilOp(face Face, fail, depthFail, pass gpu.StencilOperation)
	SetStencilMask(face Face, mask uint32)
	SetCull(enabled bool, mode Face)
	SetFrontFace(f gpu.FrontFace)
	Viewport(x, y, width, height int)
	SetScissor(enabled bool, x, y, width, height int)

	Clear(mask ClearMask, color [4]float32, depth float32, stencil int32)

	// Draws execute immediately against the current state.
	Draw(topology gpu.PrimitiveTopology, first, count, instances int)
	DrawIndexed(topology gpu.PrimitiveTopology, count int, format gpu.IndexFormat, offset, instances, baseVertex int)
	DrawIndirect(topology gpu.PrimitiveTopology, b Buffer, offset int)
	DispatchCompute(x, y, z int)
	DispatchComputeIndirect(b Buffer, offset int)
	MemoryBarrier()

	// ReadPixels reads from the currently bound framebuffer.
	ReadPixels(x, y, width, height int, format gpu.TextureFormat, dst []byte) error

	// Finish blocks until all issued commands complete.
	Finish()
	Flush()
}
