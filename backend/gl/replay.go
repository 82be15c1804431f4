// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gl

import (
	"fmt"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/gldriver"
)

// vertexBinding is one bound vertex buffer slot during replay.
type vertexBinding struct {
	buf    *buffer
	offset uint64
}

// groupBinding is one pending bind group during replay.
type groupBinding struct {
	group      *bindGroup
	dynOffsets []uint32
}

// executor replays a recorded op stream against the driver. It is the
// only code that touches the driver on behalf of encoders, so the
// record-then-replay contract holds by construction.
type executor struct {
	ctx *Context

	pipeline *renderPipeline
	compute  *computePipeline

	vertexBufs   [maxVertexBuffers]vertexBinding
	attribsDirty bool

	indexFormat gpu.IndexFormat
	indexOffset uint64
	hasIndex    bool

	groups      [maxBindGroups]groupBinding
	groupsDirty [maxBindGroups]bool

	fb    gldriver.Framebuffer
	hasFB bool

	stencilRef uint32
}

func (ex *executor) run(ops []op) error {
	for i := range ops {
		if err := ex.step(&ops[i]); err != nil {
			return err
		}
	}
	return nil
}

func (ex *executor) step(o *op) error {
	drv := ex.ctx.drv
	switch o.kind {
	case opBeginRenderPass:
		return ex.beginRenderPass(o.pass)

	case opEndRenderPass:
		if ex.hasFB {
			drv.BindFramebuffer(0)
			drv.DeleteFramebuffer(ex.fb)
			ex.hasFB = false
		}
		ex.resetPassState()

	case opBeginComputePass:
		ex.resetPassState()

	case opEndComputePass:
		ex.compute = nil

	case opSetRenderPipeline:
		ex.pipeline = o.rpipe
		drv.BindProgram(o.rpipe.program)
		o.rpipe.state.apply(drv, ex.stencilRef)
		ex.attribsDirty = true
		for i := range ex.groupsDirty {
			if ex.groups[i].group != nil {
				ex.groupsDirty[i] = true
			}
		}

	case opSetComputePipeline:
		ex.compute = o.cpipe
		drv.BindProgram(o.cpipe.program)
		for i := range ex.groupsDirty {
			if ex.groups[i].group != nil {
				ex.groupsDirty[i] = true
			}
		}

	case opSetBindGroup:
		ex.groups[o.groupIndex] = groupBinding{group: o.group, dynOffsets: o.dynOffsets}
		ex.groupsDirty[o.groupIndex] = true

	case opSetVertexBuffer:
		ex.vertexBufs[o.slot] = vertexBinding{buf: o.buf, offset: o.offset}
		ex.attribsDirty = true

	case opSetIndexBuffer:
		drv.BindIndexBuffer(o.buf.handle)
		ex.indexFormat = o.indexFormat
		ex.indexOffset = o.offset
		ex.hasIndex = true

	case opSetViewport:
		drv.Viewport(int(o.fargs[0]), int(o.fargs[1]), int(o.fargs[2]), int(o.fargs[3]))

	case opSetScissor:
		drv.SetScissor(true, int(o.uargs[0]), int(o.uargs[1]), int(o.uargs[2]), int(o.uargs[3]))

	case opSetBlendConstant:
		drv.SetBlendColor(o.fargs[0], o.fargs[1], o.fargs[2], o.fargs[3])

	case opSetStencilReference:
		ex.stencilRef = o.uargs[0]
		if ex.pipeline != nil {
			ex.pipeline.state.applyStencilRef(drv, ex.stencilRef)
		}

	case opDraw:
		if err := ex.flushDrawState(); err != nil {
			return err
		}
		drv.Draw(ex.pipeline.state.topology, int(o.uargs[2]), int(o.uargs[0]), int(o.uargs[1]))
		ex.ctx.stats.AddDraw(o.uargs[1])

	case opDrawIndexed:
		if err := ex.flushDrawState(); err != nil {
			return err
		}
		if !ex.hasIndex {
			return fmt.Errorf("%w: indexed draw without an index buffer", gpu.ErrInvalidDescriptor)
		}
		indexSize := uint64(4)
		if ex.indexFormat == gpu.IndexFormatUint16 {
			indexSize = 2
		}
		byteOffset := ex.indexOffset + uint64(o.uargs[2])*indexSize
		drv.DrawIndexed(ex.pipeline.state.topology, int(o.uargs[0]), ex.indexFormat,
			int(byteOffset), int(o.uargs[1]), int(o.baseVertex))
		ex.ctx.stats.AddDraw(o.uargs[1])

	case opDrawIndirect:
		if err := ex.flushDrawState(); err != nil {
			return err
		}
		drv.DrawIndirect(ex.pipeline.state.topology, o.buf.handle, int(o.offset))
		ex.ctx.stats.AddDraw(1)

	case opDispatch:
		if err := ex.flushComputeState(); err != nil {
			return err
		}
		drv.DispatchCompute(int(o.uargs[0]), int(o.uargs[1]), int(o.uargs[2]))
		drv.MemoryBarrier()
		ex.ctx.stats.AddDispatch()

	case opDispatchIndirect:
		if err := ex.flushComputeState(); err != nil {
			return err
		}
		drv.DispatchComputeIndirect(o.buf.handle, int(o.offset))
		drv.MemoryBarrier()
		ex.ctx.stats.AddDispatch()

	case opCopyBufferToBuffer:
		drv.CopyBuffer(o.buf.handle, int(o.offset), o.dstBuf.handle, int(o.dstOffset), int(o.size))

	case opCopyTextureToBuffer:
		return ex.copyTextureToBuffer(o)

	case opCopyTextureToTexture:
		drv.CopyTexture(o.tex.handle, o.dstTex.handle, int(o.uargs[0]), int(o.uargs[1]))
	}
	return nil
}

func (ex *executor) resetPassState() {
	ex.pipeline = nil
	ex.compute = nil
	ex.vertexBufs = [maxVertexBuffers]vertexBinding{}
	ex.attribsDirty = false
	ex.hasIndex = false
	ex.groups = [maxBindGroups]groupBinding{}
	ex.groupsDirty = [maxBindGroups]bool{}
	ex.stencilRef = 0
}

// beginRenderPass resolves attachments, rejects stale surface textures,
// builds the framebuffer and performs load-op clears.
func (ex *executor) beginRenderPass(desc *gpu.RenderPassDescriptor) error {
	drv := ex.ctx.drv
	ex.resetPassState()

	var (
		colors       []gldriver.Texture
		depthStencil gldriver.Texture
		width        = ex.ctx.width
		height       = ex.ctx.height
	)
	for _, att := range desc.ColorAttachments {
		v := att.View.(*textureView)
		if v.tex.surface && v.tex.frame != ex.ctx.frame {
			return fmt.Errorf("%w: surface texture from frame %d used in frame %d",
				gpu.ErrStaleSurfaceTexture, v.tex.frame, ex.ctx.frame)
		}
		colors = append(colors, v.tex.handle)
		width = int(v.tex.desc.Size.Width)
		height = int(v.tex.desc.Size.Height)
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		v := ds.View.(*textureView)
		depthStencil = v.tex.handle
		if len(colors) == 0 {
			width = int(v.tex.desc.Size.Width)
			height = int(v.tex.desc.Size.Height)
		}
	}

	fb, err := drv.NewFramebuffer(colors, depthStencil)
	if err != nil {
		return err
	}
	ex.fb = fb
	ex.hasFB = true
	drv.BindFramebuffer(fb)
	drv.Viewport(0, 0, width, height)
	// Scissor state would clip the load-op clear.
	drv.SetScissor(false, 0, 0, width, height)

	var mask gldriver.ClearMask
	var clearColor [4]float32
	var clearDepth float32 = 1
	var clearStencil int32
	if len(desc.ColorAttachments) > 0 && desc.ColorAttachments[0].LoadOp == gpu.LoadOpClear {
		cv := desc.ColorAttachments[0].ClearValue
		clearColor = [4]float32{float32(cv.R), float32(cv.G), float32(cv.B), float32(cv.A)}
		mask |= gldriver.ClearColor
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		if ds.DepthLoadOp == gpu.LoadOpClear {
			clearDepth = ds.DepthClearValue
			mask |= gldriver.ClearDepth
		}
		if ds.StencilLoadOp == gpu.LoadOpClear {
			clearStencil = int32(ds.StencilClearValue)
			mask |= gldriver.ClearStencil
		}
	}
	if mask != 0 {
		// Channel and stencil masks gate clears too.
		drv.SetColorMask(true, true, true, true)
		drv.SetStencilMask(gldriver.FaceFrontAndBack, 0xFFFFFFFF)
		drv.Clear(mask, clearColor, clearDepth, clearStencil)
	}
	return nil
}

// flushDrawState applies the deferred vertex attributes and bind groups
// before a draw executes.
func (ex *executor) flushDrawState() error {
	if ex.pipeline == nil {
		return fmt.Errorf("%w: draw without a bound pipeline", gpu.ErrInvalidDescriptor)
	}
	if ex.attribsDirty {
		var attrs []gldriver.VertexAttrib
		for slot, layout := range ex.pipeline.vertexBuffers {
			binding := ex.vertexBufs[slot]
			if binding.buf == nil {
				return fmt.Errorf("%w: vertex buffer slot %d not bound", gpu.ErrInvalidDescriptor, slot)
			}
			for _, a := range layout.Attributes {
				attrs = append(attrs, gldriver.VertexAttrib{
					Location:    a.ShaderLocation,
					Buffer:      binding.buf.handle,
					Format:      a.Format,
					Stride:      int(layout.ArrayStride),
					Offset:      int(binding.offset + a.Offset),
					PerInstance: layout.StepMode == gpu.VertexStepModeInstance,
				})
			}
		}
		ex.ctx.drv.SetVertexAttribs(attrs)
		ex.attribsDirty = false
	}
	return ex.flushGroups()
}

func (ex *executor) flushComputeState() error {
	if ex.compute == nil {
		return fmt.Errorf("%w: dispatch without a bound pipeline", gpu.ErrInvalidDescriptor)
	}
	return ex.flushGroups()
}

func (ex *executor) flushGroups() error {
	for i := range ex.groups {
		if !ex.groupsDirty[i] || ex.groups[i].group == nil {
			continue
		}
		if err := ex.groups[i].group.apply(uint32(i), ex.groups[i].dynOffsets); err != nil {
			return err
		}
		ex.groupsDirty[i] = false
	}
	return nil
}

// copyTextureToBuffer reads mip 0 tightly packed, then writes it into the
// destination buffer with rows padded to the recorded bytesPerRow.
func (ex *executor) copyTextureToBuffer(o *op) error {
	t := o.tex
	w := int(t.desc.Size.Width)
	h := int(t.desc.Size.Height)
	rowBytes := int(t.desc.Size.Width * t.desc.Format.BytesPerTexel())
	bytesPerRow := int(o.size)

	tight := make([]byte, rowBytes*h)
	if err := ex.ctx.drv.ReadTexturePixels(t.handle, 0, 0, w, h, tight); err != nil {
		return err
	}
	if bytesPerRow == rowBytes {
		ex.ctx.drv.BufferSubData(o.dstBuf.handle, 0, tight)
		return nil
	}
	padded := make([]byte, bytesPerRow*h)
	for row := 0; row < h; row++ {
		copy(padded[row*bytesPerRow:], tight[row*rowBytes:(row+1)*rowBytes])
	}
	ex.ctx.drv.BufferSubData(o.dstBuf.handle, 0, padded)
	return nil
}
