// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gl

import (
	"fmt"
	"sort"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/gldriver"
)

// bindGroupLayout is an immutable binding-interface declaration.
type bindGroupLayout struct {
	ctx       *Context
	id        uint64
	label     string
	entries   []gpu.BindGroupLayoutEntry
	destroyed bool
}

// CreateBindGroupLayout copies the descriptor entries into an immutable
// layout.
func (c *Context) CreateBindGroupLayout(desc *gpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	for _, e := range desc.Entries {
		if e.Binding >= slotsPerGroup {
			return nil, fmt.Errorf("%w: binding %d exceeds the per-group maximum %d",
				gpu.ErrInvalidDescriptor, e.Binding, slotsPerGroup-1)
		}
	}
	c.stats.AddResource(gpu.KindBindGroupLayout)
	return &bindGroupLayout{
		ctx:     c,
		id:      gpu.NextID(gpu.KindBindGroupLayout),
		label:   desc.Label,
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
	l.ctx.stats.RemoveResource(gpu.KindBindGroupLayout)
}

// bindGroup is a property bag: resources matched against a layout,
// applied to the driver's flat binding points just before a draw or
// dispatch. Nothing touches the driver at creation time.
type bindGroup struct {
	ctx       *Context
	id        uint64
	label     string
	layout    *bindGroupLayout
	entries   []gpu.BindGroupEntry // sorted by binding index
	destroyed bool
}

// CreateBindGroup validates entries against the layout and stores them.
func (c *Context) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	layout, ok := desc.Layout.(*bindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("%w: bind group layout from a different backend", gpu.ErrInvalidDescriptor)
	}
	entries := append([]gpu.BindGroupEntry(nil), desc.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	c.stats.AddResource(gpu.KindBindGroup)
	return &bindGroup{
		ctx:     c,
		id:      gpu.NextID(gpu.KindBindGroup),
		label:   desc.Label,
		layout:  layout,
		entries: entries,
	}, nil
}

func (g *bindGroup) ID() uint64 { return g.id }

func (g *bindGroup) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.ctx.stats.RemoveResource(gpu.KindBindGroup)
}

// apply binds every entry to its flat driver slot. Dynamic offsets are
// consumed in increasing binding order, matching the explicit backend.
func (g *bindGroup) apply(groupIndex uint32, dynamicOffsets []uint32) error {
	drv := g.ctx.drv
	byBinding := make(map[uint32]gpu.BindGroupLayoutEntry, len(g.layout.entries))
	for _, le := range g.layout.entries {
		byBinding[le.Binding] = le
	}
	dyn := 0
	for _, e := range g.entries {
		le := byBinding[e.Binding]
		slot := int(groupIndex*slotsPerGroup + e.Binding)
		switch le.Type {
		case gpu.BindingTypeUniformBuffer, gpu.BindingTypeStorageBuffer, gpu.BindingTypeReadOnlyStorageBuffer:
			b, ok := e.Buffer.(*buffer)
			if !ok || b.destroyed {
				return fmt.Errorf("%w: binding %d references a destroyed buffer", gpu.ErrInvalidDescriptor, e.Binding)
			}
			offset := e.Offset
			if le.HasDynamicOffset {
				if dyn >= len(dynamicOffsets) {
					return fmt.Errorf("%w: binding %d needs a dynamic offset", gpu.ErrInvalidDescriptor, e.Binding)
				}
				offset += uint64(dynamicOffsets[dyn])
				dyn++
			}
			size := e.Size
			if size == 0 {
				size = b.size - offset
			}
			if le.Type == gpu.BindingTypeUniformBuffer {
				drv.BindUniformBuffer(slot, b.handle, int(offset), int(size))
			} else {
				drv.BindStorageBuffer(slot, b.handle, int(offset), int(size))
			}
		case gpu.BindingTypeSampler, gpu.BindingTypeComparisonSampler:
			s, ok := e.Sampler.(*sampler)
			if !ok || s.destroyed {
				return fmt.Errorf("%w: binding %d references a destroyed sampler", gpu.ErrInvalidDescriptor, e.Binding)
			}
			drv.BindSampler(slot, s.handle)
		case gpu.BindingTypeSampledTexture, gpu.BindingTypeStorageTexture:
			v, ok := e.TextureView.(*textureView)
			if !ok || v.destroyed || v.tex.destroyed {
				return fmt.Errorf("%w: binding %d references a destroyed texture", gpu.ErrInvalidDescriptor, e.Binding)
			}
			drv.BindTexture(slot, v.tex.handle)
		}
	}
	if dyn != len(dynamicOffsets) {
		return fmt.Errorf("%w: %d dynamic offsets supplied, %d consumed",
			gpu.ErrInvalidDescriptor, len(dynamicOffsets), dyn)
	}
	return nil
}

// pipelineLayout is an ordered list of bind group layouts.
type pipelineLayout struct {
	ctx       *Context
	id        uint64
	label     string
	groups    []*bindGroupLayout
	destroyed bool
}

// CreatePipelineLayout creates the ordered group-layout list.
func (c *Context) CreatePipelineLayout(desc *gpu.PipelineLayoutDescriptor) (gpu.PipelineLayout, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if len(desc.BindGroupLayouts) > maxBindGroups {
		return nil, fmt.Errorf("%w: %d bind group layouts exceeds the maximum %d",
			gpu.ErrInvalidDescriptor, len(desc.BindGroupLayouts), maxBindGroups)
	}
	groups := make([]*bindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		bl, ok := l.(*bindGroupLayout)
		if !ok {
			return nil, fmt.Errorf("%w: bind group layout %d from a different backend", gpu.ErrInvalidDescriptor, i)
		}
		groups[i] = bl
	}
	c.stats.AddResource(gpu.KindPipelineLayout)
	return &pipelineLayout{
		ctx:    c,
		id:     gpu.NextID(gpu.KindPipelineLayout),
		label:  desc.Label,
		groups: groups,
	}, nil
}

func (l *pipelineLayout) ID() uint64 { return l.id }

func (l *pipelineLayout) Destroy() {
	if l.destroyed {
		return
	}
	l.destroyed = true
	l.ctx.stats.RemoveResource(gpu.KindPipelineLayout)
}

// inferLayouts builds per-group layouts from a linked program's reflected
// bindings, folding flat slots back into (group, binding) pairs.
func inferLayouts(infos []gldriver.BindingInfo, visibility gpu.ShaderStage) map[uint32][]gpu.BindGroupLayoutEntry {
	groups := make(map[uint32][]gpu.BindGroupLayoutEntry)
	for _, info := range infos {
		group := info.Slot / slotsPerGroup
		groups[group] = append(groups[group], gpu.BindGroupLayoutEntry{
			Binding:    info.Slot % slotsPerGroup,
			Visibility: visibility,
			Type:       info.Type,
		})
	}
	for _, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	}
	return groups
}
