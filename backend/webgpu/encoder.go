// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/molviz/gpu"
)

// commandBuffer is a sealed native recording plus the bookkeeping Submit
// needs: frame stamps of surface textures the passes rendered into, and
// the draw/dispatch tallies credited to stats when the buffer is
// submitted rather than when it is recorded.
type commandBuffer struct {
	label         string
	buf           *wgpu.CommandBuffer
	surfaceFrames []uint64
	drawInstances []uint32
	dispatches    int
}

func (b *commandBuffer) Label() string { return b.label }

func (b *commandBuffer) tally(stats *gpu.Stats) {
	for _, instances := range b.drawInstances {
		stats.AddDraw(instances)
	}
	for i := 0; i < b.dispatches; i++ {
		stats.AddDispatch()
	}
}

// commandEncoder wraps a native encoder with the portable state machine:
// one pass at a time, finish exactly once.
type commandEncoder struct {
	ctx   *Context
	label string
	enc   *wgpu.CommandEncoder

	surfaceFrames []uint64
	drawInstances []uint32
	dispatches    int

	activePass bool
	finished   bool
}

func (e *commandEncoder) state() error {
	if e.finished {
		return gpu.ErrEncoderFinished
	}
	if e.activePass {
		return gpu.ErrPassActive
	}
	return nil
}

// BeginRenderPass validates attachments and starts a native pass.
func (e *commandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) (gpu.RenderPassEncoder, error) {
	if err := e.state(); err != nil {
		return nil, err
	}
	if len(desc.ColorAttachments) == 0 && desc.DepthStencilAttachment == nil {
		return nil, fmt.Errorf("%w: render pass needs at least one attachment", gpu.ErrInvalidDescriptor)
	}

	colors := make([]wgpu.RenderPassColorAttachment, len(desc.ColorAttachments))
	for i, att := range desc.ColorAttachments {
		v, ok := att.View.(*textureView)
		if !ok || v.destroyed {
			return nil, fmt.Errorf("%w: color attachment %d view is destroyed or foreign",
				gpu.ErrInvalidDescriptor, i)
		}
		if v.tex.surface {
			e.surfaceFrames = append(e.surfaceFrames, v.tex.frame)
		}
		out := wgpu.RenderPassColorAttachment{
			View:    v.view,
			LoadOp:  loadOpToWGPU(att.LoadOp),
			StoreOp: storeOpToWGPU(att.StoreOp),
			ClearValue: wgpu.Color{
				R: att.ClearValue.R, G: att.ClearValue.G,
				B: att.ClearValue.B, A: att.ClearValue.A,
			},
		}
		if att.ResolveTarget != nil {
			rv, ok := att.ResolveTarget.(*textureView)
			if !ok || rv.destroyed {
				return nil, fmt.Errorf("%w: resolve target %d view is destroyed or foreign",
					gpu.ErrInvalidDescriptor, i)
			}
			if rv.tex.surface {
				e.surfaceFrames = append(e.surfaceFrames, rv.tex.frame)
			}
			out.ResolveTarget = rv.view
		}
		colors[i] = out
	}

	native := wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		v, ok := ds.View.(*textureView)
		if !ok || v.destroyed {
			return nil, fmt.Errorf("%w: depth-stencil attachment view is destroyed or foreign",
				gpu.ErrInvalidDescriptor)
		}
		native.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:              v.view,
			DepthLoadOp:       loadOpToWGPU(ds.DepthLoadOp),
			DepthStoreOp:      storeOpToWGPU(ds.DepthStoreOp),
			DepthClearValue:   ds.DepthClearValue,
			StencilLoadOp:     loadOpToWGPU(ds.StencilLoadOp),
			StencilStoreOp:    storeOpToWGPU(ds.StencilStoreOp),
			StencilClearValue: ds.StencilClearValue,
		}
	}

	pass := e.enc.BeginRenderPass(&native)
	e.activePass = true
	return &renderPassEncoder{enc: e, pass: pass}, nil
}

// BeginComputePass starts a native compute pass.
func (e *commandEncoder) BeginComputePass(label string) (gpu.ComputePassEncoder, error) {
	if err := e.state(); err != nil {
		return nil, err
	}
	pass := e.enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})
	e.activePass = true
	return &computePassEncoder{enc: e, pass: pass}, nil
}

// CopyBufferToBuffer records a buffer copy.
func (e *commandEncoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset, size uint64) error {
	if err := e.state(); err != nil {
		return err
	}
	s, ok := src.(*buffer)
	if !ok || s.destroyed {
		return fmt.Errorf("%w: copy source buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	d, ok := dst.(*buffer)
	if !ok || d.destroyed {
		return fmt.Errorf("%w: copy destination buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	if srcOffset+size > s.size || dstOffset+size > d.size {
		return fmt.Errorf("%w: copy of %d bytes exceeds buffer bounds", gpu.ErrInvalidDescriptor, size)
	}
	return e.enc.CopyBufferToBuffer(s.buf, srcOffset, d.buf, dstOffset, size)
}

// CopyTextureToBuffer records a copy of mip 0 with rows padded to
// bytesPerRow, which must meet the native 256-byte alignment.
func (e *commandEncoder) CopyTextureToBuffer(src gpu.Texture, dst gpu.Buffer, bytesPerRow uint32) error {
	if err := e.state(); err != nil {
		return err
	}
	t, ok := src.(*texture)
	if !ok || t.destroyed {
		return fmt.Errorf("%w: copy source texture is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	d, ok := dst.(*buffer)
	if !ok || d.destroyed {
		return fmt.Errorf("%w: copy destination buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	if t.desc.Usage&gpu.TextureUsageCopySrc == 0 {
		return fmt.Errorf("%w: texture lacks copy-src usage", gpu.ErrInvalidDescriptor)
	}
	if rowBytes := t.desc.Size.Width * t.desc.Format.BytesPerTexel(); bytesPerRow < rowBytes {
		return fmt.Errorf("%w: bytesPerRow %d below row size %d", gpu.ErrInvalidDescriptor, bytesPerRow, rowBytes)
	}
	if bytesPerRow%uint32(wgpu.CopyBytesPerRowAlignment) != 0 {
		return fmt.Errorf("%w: bytesPerRow %d not aligned to %d",
			gpu.ErrInvalidDescriptor, bytesPerRow, wgpu.CopyBytesPerRowAlignment)
	}
	return e.enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: d.buf,
			Layout: wgpu.TextureDataLayout{
				BytesPerRow:  bytesPerRow,
				RowsPerImage: t.desc.Size.Height,
			},
		},
		&wgpu.Extent3D{
			Width:              t.desc.Size.Width,
			Height:             t.desc.Size.Height,
			DepthOrArrayLayers: 1,
		},
	)
}

// CopyTextureToTexture records a copy of the extent between mip 0 of two
// textures.
func (e *commandEncoder) CopyTextureToTexture(src, dst gpu.Texture, width, height uint32) error {
	if err := e.state(); err != nil {
		return err
	}
	s, ok := src.(*texture)
	if !ok || s.destroyed {
		return fmt.Errorf("%w: copy source texture is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	d, ok := dst.(*texture)
	if !ok || d.destroyed {
		return fmt.Errorf("%w: copy destination texture is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	return e.enc.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: s.tex, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: d.tex, Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
}

// Finish seals the encoder into a submittable command buffer.
func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	if err := e.state(); err != nil {
		return nil, err
	}
	buf, err := e.enc.Finish(&wgpu.CommandBufferDescriptor{Label: e.label})
	if err != nil {
		return nil, fmt.Errorf("webgpu: finish encoder: %w", err)
	}
	e.finished = true
	e.enc.Release()
	e.ctx.stats.RemoveResource(gpu.KindCommandEncoder)
	return &commandBuffer{
		label:         e.label,
		buf:           buf,
		surfaceFrames: e.surfaceFrames,
		drawInstances: e.drawInstances,
		dispatches:    e.dispatches,
	}, nil
}

// renderPassEncoder wraps a native render pass.
type renderPassEncoder struct {
	enc   *commandEncoder
	pass  *wgpu.RenderPassEncoder
	ended bool
}

func (r *renderPassEncoder) state() error {
	if r.ended {
		return gpu.ErrPassEnded
	}
	return nil
}

// SetPipeline binds a pipeline.
func (r *renderPassEncoder) SetPipeline(p gpu.RenderPipeline) error {
	if err := r.state(); err != nil {
		return err
	}
	rp, ok := p.(*renderPipeline)
	if !ok || rp.destroyed {
		return fmt.Errorf("%w: pipeline is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	r.pass.SetPipeline(rp.pipeline)
	return nil
}

// SetBindGroup supplies the bind group at the given index.
func (r *renderPassEncoder) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) error {
	if err := r.state(); err != nil {
		return err
	}
	g, ok := group.(*bindGroup)
	if !ok || g.destroyed {
		return fmt.Errorf("%w: bind group is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	r.pass.SetBindGroup(index, g.group, dynamicOffsets)
	return nil
}

func (r *renderPassEncoder) SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64) error {
	if err := r.state(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: vertex buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	r.pass.SetVertexBuffer(slot, b.buf, offset, wgpu.WholeSize)
	return nil
}

func (r *renderPassEncoder) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat, offset uint64) error {
	if err := r.state(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: index buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	r.pass.SetIndexBuffer(b.buf, indexFormatToWGPU(format), offset, wgpu.WholeSize)
	return nil
}

func (r *renderPassEncoder) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	if r.ended {
		return
	}
	r.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (r *renderPassEncoder) SetScissorRect(x, y, width, height uint32) {
	if r.ended {
		return
	}
	r.pass.SetScissorRect(x, y, width, height)
}

func (r *renderPassEncoder) SetBlendConstant(color gpu.Color) {
	if r.ended {
		return
	}
	r.pass.SetBlendConstant(&wgpu.Color{R: color.R, G: color.G, B: color.B, A: color.A})
}

func (r *renderPassEncoder) SetStencilReference(ref uint32) {
	if r.ended {
		return
	}
	r.pass.SetStencilReference(ref)
}

func (r *renderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if r.ended {
		return
	}
	r.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	r.enc.drawInstances = append(r.enc.drawInstances, instanceCount)
}

func (r *renderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if r.ended {
		return
	}
	r.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
	r.enc.drawInstances = append(r.enc.drawInstances, instanceCount)
}

// DrawIndirect issues a draw whose arguments live in buf at offset.
func (r *renderPassEncoder) DrawIndirect(buf gpu.Buffer, offset uint64) error {
	if err := r.state(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: indirect buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	r.pass.DrawIndirect(b.buf, offset)
	r.enc.drawInstances = append(r.enc.drawInstances, 1)
	return nil
}

// End closes the pass.
func (r *renderPassEncoder) End() error {
	if err := r.state(); err != nil {
		return err
	}
	r.pass.End()
	r.pass.Release()
	r.ended = true
	r.enc.activePass = false
	return nil
}

// computePassEncoder wraps a native compute pass.
type computePassEncoder struct {
	enc   *commandEncoder
	pass  *wgpu.ComputePassEncoder
	ended bool
}

func (p *computePassEncoder) state() error {
	if p.ended {
		return gpu.ErrPassEnded
	}
	return nil
}

func (p *computePassEncoder) SetPipeline(pl gpu.ComputePipeline) error {
	if err := p.state(); err != nil {
		return err
	}
	cp, ok := pl.(*computePipeline)
	if !ok || cp.destroyed {
		return fmt.Errorf("%w: pipeline is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	p.pass.SetPipeline(cp.pipeline)
	return nil
}

func (p *computePassEncoder) SetBindGroup(index uint32, group gpu.BindGroup, dynamicOffsets []uint32) error {
	if err := p.state(); err != nil {
		return err
	}
	g, ok := group.(*bindGroup)
	if !ok || g.destroyed {
		return fmt.Errorf("%w: bind group is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	p.pass.SetBindGroup(index, g.group, dynamicOffsets)
	return nil
}

func (p *computePassEncoder) DispatchWorkgroups(x, y, z uint32) {
	if p.ended {
		return
	}
	p.pass.DispatchWorkgroups(x, y, z)
	p.enc.dispatches++
}

func (p *computePassEncoder) DispatchWorkgroupsIndirect(buf gpu.Buffer, offset uint64) error {
	if err := p.state(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: indirect buffer is destroyed or foreign", gpu.ErrInvalidDescriptor)
	}
	p.pass.DispatchWorkgroupsIndirect(b.buf, offset)
	p.enc.dispatches++
	return nil
}

// End closes the pass.
func (p *computePassEncoder) End() error {
	if err := p.state(); err != nil {
		return err
	}
	p.pass.End()
	p.pass.Release()
	p.ended = true
	p.enc.activePass = false
	return nil
}
