// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gl

import (
	"fmt"

	"github.com/molviz/gpu"
)

// opKind tags one recorded command.
type opKind uint8

const (
	opBeginRenderPass opKind = iota + 1
	opEndRenderPass
	opBeginComputePass
	opEndComputePass
	opSetRenderPipeline
	opSetComputePipeline
	opSetBindGroup
	opSetVertexBuffer
	opSetIndexBuffer
	opSetViewport
	opSetScissor
	opSetBlendConstant
	opSetStencilReference
	opDraw
	opDrawIndexed
	opDrawIndirect
	opDispatch
	opDispatchIndirect
	opCopyBufferToBuffer
	opCopyTextureToBuffer
	opCopyTextureToTexture
)

// op is one recorded command: a discriminated record, not a closure, so
// recordings stay inspectable and allocation stays flat. Unused fields are
// zero.
type op struct {
	kind opKind

	pass       *gpu.RenderPassDescriptor
	rpipe      *renderPipeline
	cpipe      *computePipeline
	group      *bindGroup
	groupIndex uint32
	dynOffsets []uint32

	buf    *buffer
	dstBuf *buffer
	tex    *texture
	dstTex *texture

	slot        uint32
	offset      uint64
	dstOffset   uint64
	size        uint64
	indexFormat gpu.IndexFormat

	fargs      [6]float32
	uargs      [5]uint32
	baseVertex int32
}

// commandBuffer is a sealed recording.
type commandBuffer struct {
	label string
	ops   []op
}

func (b *commandBuffer) Label() string { return b.label }

// commandEncoder records ops. The driver is never touched during
// recording; everything executes at Submit.
type commandEncoder struct {
	ctx        *Context
	label      string
	ops        []op
	activePass bool
	finished   bool
}

func (e *commandEncoder) checkRecord() error {
	if e.finished {
		return gpu.ErrEncoderFinished
	}
	return nil
}

// BeginRenderPass starts a render pass recording.
func (e *commandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPassEncoder, error) {
	if err := e.checkRecord(); err != nil {
		return nil, err
	}
	if e.activePass {
		return nil, gpu.ErrPassActive
	}
	if len(desc.ColorAttachments) == 0 && desc.DepthStencilAttachment == nil {
		return nil, fmt.Errorf("%w: render pass needs at least one attachment", gpu.ErrInvalidDescriptor)
	}
	for i, att := range desc.ColorAttachments {
		if _, ok := att.View.(*textureView); !ok {
			return nil, fmt.Errorf("%w: color attachment %d view from a different backend", gpu.ErrInvalidDescriptor, i)
		}
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		if _, ok := ds.View.(*textureView); !ok {
			return nil, fmt.Errorf("%w: depth attachment view from a different backend", gpu.ErrInvalidDescriptor)
		}
	}
	e.activePass = true
	e.ops = append(e.ops, op{kind: opBeginRenderPass, pass: desc})
	return &renderPassEncoder{enc: e}, nil
}

// BeginComputePass starts a compute pass recording.
func (e *commandEncoder) BeginComputePass(label string) (gpu.ComputePassEncoder, error) {
	if err := e.checkRecord(); err != nil {
		return nil, err
	}
	if e.activePass {
		return nil, gpu.ErrPassActive
	}
	e.activePass = true
	e.ops = append(e.ops, op{kind: opBeginComputePass})
	return &computePassEncoder{enc: e}, nil
}

// CopyBufferToBuffer records a buffer copy.
func (e *commandEncoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset, size uint64) error {
	if err := e.checkRecord(); err != nil {
		return err
	}
	if e.activePass {
		return gpu.ErrPassActive
	}
	sb, ok := src.(*buffer)
	db, ok2 := dst.(*buffer)
	if !ok || !ok2 {
		return fmt.Errorf("%w: copy between foreign buffers", gpu.ErrInvalidDescriptor)
	}
	if srcOffset+size > sb.size || dstOffset+size > db.size {
		return fmt.Errorf("%w: buffer copy range out of bounds", gpu.ErrInvalidDescriptor)
	}
	e.ops = append(e.ops, op{
		kind: opCopyBufferToBuffer,
		buf:  sb, dstBuf: db,
		offset: srcOffset, dstOffset: dstOffset, size: size,
	})
	return nil
}

// CopyTextureToBuffer records a readback copy with rows padded to
// bytesPerRow in the destination.
func (e *commandEncoder) CopyTextureToBuffer(src gpu.Texture, dst gpu.Buffer, bytesPerRow uint32) error {
	if err := e.checkRecord(); err != nil {
		return err
	}
	if e.activePass {
		return gpu.ErrPassActive
	}
	st, ok := src.(*texture)
	db, ok2 := dst.(*buffer)
	if !ok || !ok2 {
		return fmt.Errorf("%w: copy between foreign resources", gpu.ErrInvalidDescriptor)
	}
	if st.desc.Usage&gpu.TextureUsageCopySrc == 0 {
		return fmt.Errorf("%w: source texture lacks copy-src usage", gpu.ErrInvalidDescriptor)
	}
	if bytesPerRow < st.desc.Size.Width*st.desc.Format.BytesPerTexel() {
		return fmt.Errorf("%w: bytesPerRow %d smaller than a row", gpu.ErrInvalidDescriptor, bytesPerRow)
	}
	e.ops = append(e.ops, op{
		kind: opCopyTextureToBuffer,
		tex:  st, dstBuf: db,
		size: uint64(bytesPerRow),
	})
	return nil
}

// CopyTextureToTexture records a texture copy of the given extent.
func (e *commandEncoder) CopyTextureToTexture(src, dst gpu.Texture, width, height uint32) error {
	if err := e.checkRecord(); err != nil {
		return err
	}
	if e.activePass {
		return gpu.ErrPassActive
	}
	st, ok := src.(*texture)
	dt, ok2 := dst.(*texture)
	if !ok || !ok2 {
		return fmt.Errorf("%w: copy between foreign textures", gpu.ErrInvalidDescriptor)
	}
	e.ops = append(e.ops, op{
		kind: opCopyTextureToTexture,
		tex:  st, dstTex: dt,
		uargs: [5]uint32{width, height},
	})
	return nil
}

// Finish seals the recording. The encoder is unusable afterwards.
func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	if e.finished {
		return nil, gpu.ErrEncoderFinished
	}
	if e.activePass {
		return nil, gpu.ErrPassActive
	}
	e.finished = true
	e.ctx.stats.RemoveResource(gpu.KindCommandEncoder)
	return &commandBuffer{label: e.label, ops: e.ops}, nil
}

// renderPassEncoder records draw commands into its parent encoder.
type renderPassEncoder struct {
	enc   *commandEncoder
	ended bool
}

func (r *renderPassEncoder) record(o op) error {
	if r.ended {
		return gpu.ErrPassEnded
	}
	r.enc.ops = append(r.enc.ops, o)
	return nil
}

// SetPipeline records a pipeline bind; the full snapshot replays at
// Submit.
func (r *renderPassEncoder) SetPipeline(p gpu.RenderPipeline) error {
	rp, ok := p.(*renderPipeline)
	if !ok || rp.destroyed {
		return fmt.Errorf("%w: pipeline destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return r.record(op{kind: opSetRenderPipeline, rpipe: rp})
}

// SetBindGroup records the group for a group index; the property bag is
// applied to driver binding points just before the next draw.
func (r *renderPassEncoder) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) error {
	if index >= maxBindGroups {
		return fmt.Errorf("%w: bind group index %d exceeds maximum %d", gpu.ErrInvalidDescriptor, index, maxBindGroups-1)
	}
	g, ok := group.(*bindGroup)
	if !ok || g.destroyed {
		return fmt.Errorf("%w: bind group destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return r.record(op{
		kind:       opSetBindGroup,
		group:      g,
		groupIndex: index,
		dynOffsets: append([]uint32(nil), dynamicOffsets...),
	})
}

func (r *renderPassEncoder) SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64) error {
	if slot >= maxVertexBuffers {
		return fmt.Errorf("%w: vertex buffer slot %d exceeds maximum %d", gpu.ErrInvalidDescriptor, slot, maxVertexBuffers-1)
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: vertex buffer destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return r.record(op{kind: opSetVertexBuffer, buf: b, slot: slot, offset: offset})
}

func (r *renderPassEncoder) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat, offset uint64) error {
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: index buffer destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return r.record(op{kind: opSetIndexBuffer, buf: b, indexFormat: format, offset: offset})
}

func (r *renderPassEncoder) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	_ = r.record(op{kind: opSetViewport, fargs: [6]float32{x, y, width, height, minDepth, maxDepth}})
}

func (r *renderPassEncoder) SetScissorRect(x, y, width, height uint32) {
	_ = r.record(op{kind: opSetScissor, uargs: [5]uint32{x, y, width, height}})
}

func (r *renderPassEncoder) SetBlendConstant(color gpu.Color) {
	_ = r.record(op{kind: opSetBlendConstant, fargs: [6]float32{
		float32(color.R), float32(color.G), float32(color.B), float32(color.A),
	}})
}

func (r *renderPassEncoder) SetStencilReference(ref uint32) {
	_ = r.record(op{kind: opSetStencilReference, uargs: [5]uint32{ref}})
}

func (r *renderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	_ = r.record(op{kind: opDraw, uargs: [5]uint32{vertexCount, instanceCount, firstVertex, firstInstance}})
}

func (r *renderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	_ = r.record(op{
		kind:       opDrawIndexed,
		uargs:      [5]uint32{indexCount, instanceCount, firstIndex, firstInstance},
		baseVertex: baseVertex,
	})
}

// DrawIndirect records an indirect draw. Requires Features().IndirectDraw.
func (r *renderPassEncoder) DrawIndirect(buf gpu.Buffer, offset uint64) error {
	if !r.enc.ctx.features.IndirectDraw {
		return fmt.Errorf("%w: indirect draw not supported by this device", gpu.ErrInvalidDescriptor)
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: indirect buffer destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return r.record(op{kind: opDrawIndirect, buf: b, offset: offset})
}

// End closes the pass. The pass encoder is unusable afterwards.
func (r *renderPassEncoder) End() error {
	if r.ended {
		return gpu.ErrPassEnded
	}
	r.ended = true
	r.enc.activePass = false
	r.enc.ops = append(r.enc.ops, op{kind: opEndRenderPass})
	return nil
}

// computePassEncoder records dispatches into its parent encoder.
type computePassEncoder struct {
	enc   *commandEncoder
	ended bool
}

func (c *computePassEncoder) record(o op) error {
	if c.ended {
		return gpu.ErrPassEnded
	}
	c.enc.ops = append(c.enc.ops, o)
	return nil
}

func (c *computePassEncoder) SetPipeline(p gpu.ComputePipeline) error {
	cp, ok := p.(*computePipeline)
	if !ok || cp.destroyed {
		return fmt.Errorf("%w: pipeline destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return c.record(op{kind: opSetComputePipeline, cpipe: cp})
}

func (c *computePassEncoder) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) error {
	if index >= maxBindGroups {
		return fmt.Errorf("%w: bind group index %d exceeds maximum %d", gpu.ErrInvalidDescriptor, index, maxBindGroups-1)
	}
	g, ok := group.(*bindGroup)
	if !ok || g.destroyed {
		return fmt.Errorf("%w: bind group destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return c.record(op{
		kind:       opSetBindGroup,
		group:      g,
		groupIndex: index,
		dynOffsets: append([]uint32(nil), dynamicOffsets...),
	})
}

func (c *computePassEncoder) DispatchWorkgroups(x, y, z uint32) {
	_ = c.record(op{kind: opDispatch, uargs: [5]uint32{x, y, z}})
}

func (c *computePassEncoder) DispatchWorkgroupsIndirect(buf gpu.Buffer, offset uint64) error {
	if !c.enc.ctx.features.ComputeShaders {
		return fmt.Errorf("%w: compute not supported by this device", gpu.ErrInvalidDescriptor)
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: indirect buffer destroyed or from a different backend", gpu.ErrInvalidDescriptor)
	}
	return c.record(op{kind: opDispatchIndirect, buf: b, offset: offset})
}

func (c *computePassEncoder) End() error {
	if c.ended {
		return gpu.ErrPassEnded
	}
	c.ended = true
	c.enc.activePass = false
	c.enc.ops = append(c.enc.ops, op{kind: opEndComputePass})
	return nil
}
