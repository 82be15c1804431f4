// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gldriver

import (
	"fmt"

	"github.com/molviz/gpu"
)

// Fake is a recording Device for tests. Every call is appended to Calls
// as a readable string, buffer and texture contents are kept in host
// memory so reads round-trip, and compiled programs report the bindings
// queued on NextBindings. No GL context is required.
type Fake struct {
	// Calls records every driver call in order.
	Calls []string

	// InitErr, if set, is returned by Init. Simulates a missing context.
	InitErr error

	// CompileErr, if set, is returned by the next CompileProgram or
	// CompileComputeProgram call and then cleared.
	CompileErr error

	// NextBindings is consumed by the next program compile; ProgramBindings
	// reports it for that program.
	NextBindings []BindingInfo

	// DeviceCaps is what Caps returns. Zero value is replaced by generous
	// defaults in Init.
	DeviceCaps Caps

	next     uint32
	buffers  map[Buffer][]byte
	textures map[Texture]*fakeTexture
	bindings map[Program][]BindingInfo
}

type fakeTexture struct {
	desc   TextureDesc
	pixels []byte
}

// NewFake returns a recording fake device.
func NewFake() *Fake {
	return &Fake{
		buffers:  make(map[Buffer][]byte),
		textures: make(map[Texture]*fakeTexture),
		bindings: make(map[Program][]BindingInfo),
	}
}

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

// Reset clears the call log without touching live objects.
func (f *Fake) Reset() { f.Calls = nil }

func (f *Fake) handle() uint32 {
	f.next++
	return f.next
}

func (f *Fake) Init() error {
	if f.InitErr != nil {
		return f.InitErr
	}
	if f.DeviceCaps.MaxTextureSize == 0 {
		f.DeviceCaps = Caps{
			Vendor:                       "fake",
			Renderer:                     "recording",
			Version:                      "4.3",
			MaxTextureSize:               8192,
			MaxColorAttachments:          8,
			MaxTextureUnits:              64,
			MaxUniformBufferBindings:     64,
			UniformBufferOffsetAlignment: 256,
			Compute:                      true,
			StorageBuffers:               true,
			DrawIndirect:                 true,
		}
	}
	f.record("Init()")
	return nil
}

func (f *Fake) Caps() Caps { return f.DeviceCaps }

func (f *Fake) Close() { f.record("Close()") }

func (f *Fake) NewBuffer(size int) (Buffer, error) {
	b := Buffer(f.handle())
	f.buffers[b] = make([]byte, size)
	f.record("NewBuffer(%d) = %d", size, b)
	return b, nil
}

func (f *Fake) BufferSubData(b Buffer, offset int, data []byte) {
	copy(f.buffers[b][offset:], data)
	f.record("BufferSubData(%d, %d, %d bytes)", b, offset, len(data))
}

func (f *Fake) ReadBuffer(b Buffer, offset int, dst []byte) error {
	copy(dst, f.buffers[b][offset:])
	f.record("ReadBuffer(%d, %d, %d bytes)", b, offset, len(dst))
	return nil
}

func (f *Fake) CopyBuffer(src Buffer, srcOffset int, dst Buffer, dstOffset, size int) {
	copy(f.buffers[dst][dstOffset:dstOffset+size], f.buffers[src][srcOffset:])
	f.record("CopyBuffer(%d+%d -> %d+%d, %d)", src, srcOffset, dst, dstOffset, size)
}

func (f *Fake) DeleteBuffer(b Buffer) {
	delete(f.buffers, b)
	f.record("DeleteBuffer(%d)", b)
}

func (f *Fake) NewTexture(desc TextureDesc) (Texture, error) {
	t := Texture(f.handle())
	size := desc.Width * desc.Height * int(desc.Format.BytesPerTexel())
	if desc.Is3D {
		size *= desc.Layers
	}
	f.textures[t] = &fakeTexture{desc: desc, pixels: make([]byte, size)}
	f.record("NewTexture(%dx%d %s) = %d", desc.Width, desc.Height, desc.Format, t)
	return t, nil
}

func (f *Fake) TexSubImage(t Texture, level, x, y, width, height int, data []byte) {
	tex := f.textures[t]
	if tex != nil && level == 0 {
		bpt := int(tex.desc.Format.BytesPerTexel())
		for row := 0; row < height; row++ {
			dst := ((y+row)*tex.desc.Width + x) * bpt
			src := row * width * bpt
			copy(tex.pixels[dst:dst+width*bpt], data[src:])
		}
	}
	f.record("TexSubImage(%d, level %d, %d,%d %dx%d)", t, level, x, y, width, height)
}

func (f *Fake) CopyTexture(src, dst Texture, width, height int) {
	if s, d := f.textures[src], f.textures[dst]; s != nil && d != nil {
		copy(d.pixels, s.pixels)
	}
	f.record("CopyTexture(%d -> %d, %dx%d)", src, dst, width, height)
}

func (f *Fake) ReadTexturePixels(t Texture, x, y, width, height int, dst []byte) error {
	tex := f.textures[t]
	if tex != nil {
		bpt := int(tex.desc.Format.BytesPerTexel())
		for row := 0; row < height; row++ {
			src := ((y+row)*tex.desc.Width + x) * bpt
			copy(dst[row*width*bpt:(row+1)*width*bpt], tex.pixels[src:])
		}
	}
	f.record("ReadTexturePixels(%d, %d,%d %dx%d)", t, x, y, width, height)
	return nil
}

func (f *Fake) DeleteTexture(t Texture) {
	delete(f.textures, t)
	f.record("DeleteTexture(%d)", t)
}

func (f *Fake) NewSampler(desc SamplerDesc) (Sampler, error) {
	s := Sampler(f.handle())
	f.record("NewSampler() = %d", s)
	return s, nil
}

func (f *Fake) DeleteSampler(s Sampler) { f.record("DeleteSampler(%d)", s) }

func (f *Fake) compile(kind string) (Program, error) {
	if f.CompileErr != nil {
		err := f.CompileErr
		f.CompileErr = nil
		return 0, err
	}
	p := Program(f.handle())
	f.bindings[p] = f.NextBindings
	f.NextBindings = nil
	f.record("Compile%sProgram() = %d", kind, p)
	return p, nil
}

func (f *Fake) CompileProgram(vertexSrc, fragmentSrc string) (Program, error) {
	return f.compile("")
}

func (f *Fake) CompileComputeProgram(src string) (Program, error) {
	return f.compile("Compute")
}

func (f *Fake) ProgramBindings(p Program) []BindingInfo { return f.bindings[p] }

func (f *Fake) DeleteProgram(p Program) { f.record("DeleteProgram(%d)", p) }

func (f *Fake) NewFramebuffer(colors []Texture, depthStencil Texture) (Framebuffer, error) {
	fb := Framebuffer(f.handle())
	f.record("NewFramebuffer(%v, %d) = %d", colors, depthStencil, fb)
	return fb, nil
}

func (f *Fake) DeleteFramebuffer(fb Framebuffer) { f.record("DeleteFramebuffer(%d)", fb) }

func (f *Fake) BindProgram(p Program) { f.record("BindProgram(%d)", p) }

func (f *Fake) BindFramebuffer(fb Framebuffer) { f.record("BindFramebuffer(%d)", fb) }

func (f *Fake) BindUniformBuffer(slot int, b Buffer, offset, size int) {
	f.record("BindUniformBuffer(%d, %d, %d, %d)", slot, b, offset, size)
}

func (f *Fake) BindStorageBuffer(slot int, b Buffer, offset, size int) {
	f.record("BindStorageBuffer(%d, %d, %d, %d)", slot, b, offset, size)
}

func (f *Fake) BindTexture(unit int, t Texture) { f.record("BindTexture(%d, %d)", unit, t) }

func (f *Fake) BindSampler(unit int, s Sampler) { f.record("BindSampler(%d, %d)", unit, s) }

func (f *Fake) BindIndexBuffer(b Buffer) { f.record("BindIndexBuffer(%d)", b) }

func (f *Fake) SetVertexAttribs(attrs []VertexAttrib) {
	f.record("SetVertexAttribs(%d attrs)", len(attrs))
}

func (f *Fake) SetBlendEnabled(on bool) { f.record("SetBlendEnabled(%v)", on) }

func (f *Fake) SetBlendFunc(srcRGB, dstRGB, srcAlpha, dstAlpha gpu.BlendFactor) {
	f.record("SetBlendFunc(%s, %s, %s, %s)", srcRGB, dstRGB, srcAlpha, dstAlpha)
}

func (f *Fake) SetBlendEquation(rgb, alpha gpu.BlendOperation) {
	f.record("SetBlendEquation(%s, %s)", rgb, alpha)
}

func (f *Fake) SetBlendColor(r, g, b, a float32) {
	f.record("SetBlendColor(%g, %g, %g, %g)", r, g, b, a)
}

func (f *Fake) SetColorMask(r, g, b, a bool) {
	f.record("SetColorMask(%v, %v, %v, %v)", r, g, b, a)
}

func (f *Fake) SetDepthTest(on bool) { f.record("SetDepthTest(%v)", on) }

func (f *Fake) SetDepthMask(write bool) { f.record("SetDepthMask(%v)", write) }

func (f *Fake) SetDepthFunc(fn gpu.CompareFunction) { f.record("SetDepthFunc(%s)", fn) }

func (f *Fake) SetPolygonOffset(factor, units float32) {
	f.record("SetPolygonOffset(%g, %g)", factor, units)
}

func (f *Fake) SetStencilTest(on bool) { f.record("SetStencilTest(%v)", on) }

func (f *Fake) SetStencilFunc(face Face, fn gpu.CompareFunction, ref int32, mask uint32) {
	f.record("SetStencilFunc(%d, %s, %d, %#x)", face, fn, ref, mask)
}

func (f *Fake) SetStencilOp(face Face, fail, depthFail, pass gpu.StencilOperation) {
	f.record("SetStencilOp(%d, %s, %s, %s)", face, fail, depthFail, pass)
}

func (f *Fake) SetStencilMask(face Face, mask uint32) {
	f.record("SetStencilMask(%d, %#x)", face, mask)
}

func (f *Fake) SetCull(enabled bool, mode Face) { f.record("SetCull(%v, %d)", enabled, mode) }

func (f *Fake) SetFrontFace(ff gpu.FrontFace) { f.record("SetFrontFace(%s)", ff) }

func (f *Fake) Viewport(x, y, width, height int) {
	f.record("Viewport(%d, %d, %d, %d)", x, y, width, height)
}

func (f *Fake) SetScissor(enabled bool, x, y, width, height int) {
	f.record("SetScissor(%v, %d, %d, %d, %d)", enabled, x, y, width, height)
}

func (f *Fake) Clear(mask ClearMask, color [4]float32, depth float32, stencil int32) {
	f.record("Clear(%#x)", mask)
}

func (f *Fake) Draw(topology gpu.PrimitiveTopology, first, count, instances int) {
	f.record("Draw(%s, %d, %d, %d)", topology, first, count, instances)
}

func (f *Fake) DrawIndexed(topology gpu.PrimitiveTopology, count int, format gpu.IndexFormat, offset, instances, baseVertex int) {
	f.record("DrawIndexed(%s, %d, %s, %d, %d, %d)", topology, count, format, offset, instances, baseVertex)
}

func (f *Fake) DrawIndirect(topology gpu.PrimitiveTopology, b Buffer, offset int) {
	f.record("DrawIndirect(%s, %d, %d)", topology, b, offset)
}

func (f *Fake) DispatchCompute(x, y, z int) { f.record("DispatchCompute(%d, %d, %d)", x, y, z) }

func (f *Fake) DispatchComputeIndirect(b Buffer, offset int) {
	f.record("DispatchComputeIndirect(%d, %d)", b, offset)
}

func (f *Fake) MemoryBarrier() { f.record("MemoryBarrier()") }

func (f *Fake) ReadPixels(x, y, width, height int, format gpu.TextureFormat, dst []byte) error {
	f.record("ReadPixels(%d, %d, %d, %d, %s)", x, y, width, height, format)
	return nil
}

func (f *Fake) Finish() { f.record("Finish()") }

func (f *Fake) Flush() { f.record("Flush()") }

var _ Device = (*Fake)(nil)
