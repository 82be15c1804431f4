// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/molviz/gpu"
)

// bindGroupLayout wraps a native layout. Layouts created through
// CreateBindGroupLayout keep their declared entries for validation;
// layouts inferred from a pipeline are opaque (entries nil) and groups
// created against them are validated by the native driver instead.
type bindGroupLayout struct {
	ctx       *Context
	id        uint64
	label     string
	layout    *wgpu.BindGroupLayout
	entries   []gpu.BindGroupLayoutEntry
	inferred  bool
	destroyed bool
}

// CreateBindGroupLayout creates an immutable layout.
func (c *Context) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = layoutEntryToWGPU(e)
	}
	layout, err := c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create bind group layout: %w", err)
	}
	c.stats.AddResource(gpu.KindBindGroupLayout)
	return &bindGroupLayout{
		ctx:     c,
		id:      gpu.NextID(gpu.KindBindGroupLayout),
		label:   desc.Label,
		layout:  layout,
		entries: append([]gpu.BindGroupLayoutEntry(nil), desc.Entries...),
	}, nil
}

func (l *bindGroupLayout) ID() uint64 { return l.id }

func (l *bindGroupLayout) Entries() []gpu.BindGroupLayoutEntry {
	return append([]gpu.BindGroupLayoutEntry(nil), l.entries...)
}

func (l *bindGroupLayout) Destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	l.layout.Release()
	l.ctx.stats.RemoveResource(gpu.KindBindGroupLayout)
}

// bindGroup wraps a native bind group.
type bindGroup struct {
	ctx       *Context
	id        uint64
	label     string
	group     *wgpu.BindGroup
	destroyed bool
}

// CreateBindGroup instantiates resources against a layout.
func (c *Context) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	layout, ok := desc.Layout.(*bindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("%w: bind group layout from a different backend", gpu.ErrInvalidDescriptor)
	}
	// Inferred layouts have no declared entries; the native driver
	// validates those groups against the shader interface.
	if !layout.inferred {
		if err := desc.Validate(); err != nil {
			return nil, err
		}
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		out := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			b, ok := e.Buffer.(*buffer)
			if !ok || b.destroyed {
				return nil, fmt.Errorf("%w: binding %d references a destroyed buffer",
					gpu.ErrInvalidDescriptor, e.Binding)
			}
			out.Buffer = b.buf
			out.Offset = e.Offset
			out.Size = e.Size
			if out.Size == 0 {
				out.Size = b.size - e.Offset
			}
		case e.Sampler != nil:
			s, ok := e.Sampler.(*sampler)
			if !ok || s.destroyed {
				return nil, fmt.Errorf("%w: binding %d references a destroyed sampler",
					gpu.ErrInvalidDescriptor, e.Binding)
			}
			out.Sampler = s.smp
		case e.TextureView != nil:
			v, ok := e.TextureView.(*textureView)
			if !ok || v.destroyed || v.tex.destroyed {
				return nil, fmt.Errorf("%w: binding %d references a destroyed texture",
					gpu.ErrInvalidDescriptor, e.Binding)
			}
			out.TextureView = v.view
		default:
			return nil, fmt.Errorf("%w: binding %d supplies no resource", gpu.ErrInvalidDescriptor, e.Binding)
		}
		entries[i] = out
	}
	group, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create bind group: %w", err)
	}
	c.stats.AddResource(gpu.KindBindGroup)
	return &bindGroup{
		ctx:   c,
		id:    gpu.NextID(gpu.KindBindGroup),
		label: desc.Label,
		group: group,
	}, nil
}

func (g *bindGroup) ID() uint64 { return g.id }

func (g *bindGroup) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.group.Release()
	g.ctx.stats.RemoveResource(gpu.KindBindGroup)
}

// pipelineLayout wraps a native pipeline layout.
type pipelineLayout struct {
	ctx       *Context
	id        uint64
	label     string
	layout    *wgpu.PipelineLayout
	destroyed bool
}

// CreatePipelineLayout creates the ordered group-layout list.
func (c *Context) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		bl, ok := l.(*bindGroupLayout)
		if !ok {
			return nil, fmt.Errorf("%w: bind group layout %d from a different backend",
				gpu.ErrInvalidDescriptor, i)
		}
		layouts[i] = bl.layout
	}
	layout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create pipeline layout: %w", err)
	}
	c.stats.AddResource(gpu.KindPipelineLayout)
	return &pipelineLayout{
		ctx:    c,
		id:     gpu.NextID(gpu.KindPipelineLayout),
		label:  desc.Label,
		layout: layout,
	}, nil
}

func (l *pipelineLayout) ID() uint64 { return l.id }

func (l *pipelineLayout) Destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	l.layout.Release()
	l.ctx.stats.RemoveResource(gpu.KindPipelineLayout)
}
