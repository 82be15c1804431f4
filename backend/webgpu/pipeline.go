// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/molviz/gpu"
)

// renderPipeline wraps a native render pipeline.
type renderPipeline struct {
	ctx       *Context
	id        uint64
	label     string
	pipeline  *wgpu.RenderPipeline
	explicit  bool
	inferred  map[uint32]*bindGroupLayout
	destroyed bool
}

// CreateRenderPipeline translates the full descriptor and creates the
// native pipeline. A nil Layout uses native auto-layout inference.
func (c *Context) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	vmod, ok := desc.Vertex.Module.(*shaderModule)
	if !ok || vmod.destroyed {
		return nil, fmt.Errorf("%w: vertex module from a different backend", gpu.ErrInvalidDescriptor)
	}
	buffers, err := vertexBuffersToWGPU(desc.Vertex.Buffers)
	if err != nil {
		return nil, err
	}

	native := wgpu.RenderPipelineDescriptor{
		Label: desc.Label,
		Vertex: wgpu.VertexState{
			Module:     vmod.mod,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         topologyToWGPU(desc.Primitive.Topology),
			StripIndexFormat: indexFormatToWGPU(desc.Primitive.StripIndexFormat),
			FrontFace:        frontFaceToWGPU(desc.Primitive.FrontFace),
			CullMode:         cullModeToWGPU(desc.Primitive.CullMode),
		},
		Multisample: multisampleToWGPU(desc.Multisample),
	}

	explicit := false
	if desc.Layout != nil {
		layout, ok := desc.Layout.(*pipelineLayout)
		if !ok {
			return nil, fmt.Errorf("%w: pipeline layout from a different backend", gpu.ErrInvalidDescriptor)
		}
		native.Layout = layout.layout
		explicit = true
	}

	if desc.Fragment != nil {
		fmod, ok := desc.Fragment.Module.(*shaderModule)
		if !ok || fmod.destroyed {
			return nil, fmt.Errorf("%w: fragment module from a different backend", gpu.ErrInvalidDescriptor)
		}
		targets := make([]wgpu.ColorTargetState, len(desc.Fragment.Targets))
		for i, t := range desc.Fragment.Targets {
			format, ok := textureFormatToWGPU(t.Format)
			if !ok {
				return nil, fmt.Errorf("%w: color target format %s", gpu.ErrInvalidDescriptor, t.Format)
			}
			out := wgpu.ColorTargetState{
				Format:    format,
				WriteMask: colorWriteMaskToWGPU(t.WriteMask),
			}
			if t.Blend != nil {
				out.Blend = &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: blendFactorToWGPU(t.Blend.Color.SrcFactor),
						DstFactor: blendFactorToWGPU(t.Blend.Color.DstFactor),
						Operation: blendOperationToWGPU(t.Blend.Color.Operation),
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: blendFactorToWGPU(t.Blend.Alpha.SrcFactor),
						DstFactor: blendFactorToWGPU(t.Blend.Alpha.DstFactor),
						Operation: blendOperationToWGPU(t.Blend.Alpha.Operation),
					},
				}
			}
			targets[i] = out
		}
		native.Fragment = &wgpu.FragmentState{
			Module:     fmod.mod,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    targets,
		}
	}

	if ds := desc.DepthStencil; ds != nil {
		format, ok := textureFormatToWGPU(ds.Format)
		if !ok {
			return nil, fmt.Errorf("%w: depth-stencil format %s", gpu.ErrInvalidDescriptor, ds.Format)
		}
		native.DepthStencil = &wgpu.DepthStencilState{
			Format:              format,
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        depthCompareToWGPU(ds.DepthCompare),
			StencilFront:        stencilFaceToWGPU(ds.StencilFront),
			StencilBack:         stencilFaceToWGPU(ds.StencilBack),
			StencilReadMask:     maskOrAll(ds.StencilReadMask),
			StencilWriteMask:    maskOrAll(ds.StencilWriteMask),
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
			DepthBiasClamp:      ds.DepthBiasClamp,
		}
	}

	pipeline, err := c.device.CreateRenderPipeline(&native)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", gpu.ErrShaderCompile, desc.Label, err)
	}
	c.stats.AddResource(gpu.KindRenderPipeline)
	return &renderPipeline{
		ctx:      c,
		id:       gpu.NextID(gpu.KindRenderPipeline),
		label:    desc.Label,
		pipeline: pipeline,
		explicit: explicit,
		inferred: make(map[uint32]*bindGroupLayout),
	}, nil
}

func vertexBuffersToWGPU(buffers []gpu.VertexBufferLayout) ([]wgpu.VertexBufferLayout, error) {
	out := make([]wgpu.VertexBufferLayout, len(buffers))
	for i, b := range buffers {
		attrs := make([]wgpu.VertexAttribute, len(b.Attributes))
		for j, a := range b.Attributes {
			format, ok := vertexFormatToWGPU(a.Format)
			if !ok {
				return nil, fmt.Errorf("%w: vertex format %s", gpu.ErrInvalidDescriptor, a.Format)
			}
			attrs[j] = wgpu.VertexAttribute{
				Format:         format,
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			}
		}
		out[i] = wgpu.VertexBufferLayout{
			ArrayStride: b.ArrayStride,
			StepMode:    vertexStepModeToWGPU(b.StepMode),
			Attributes:  attrs,
		}
	}
	return out, nil
}

func multisampleToWGPU(ms gpu.MultisampleState) wgpu.MultisampleState {
	out := wgpu.MultisampleState{
		Count:                  ms.Count,
		Mask:                   ms.Mask,
		AlphaToCoverageEnabled: ms.AlphaToCoverageEnabled,
	}
	if out.Count == 0 {
		out.Count = 1
	}
	if out.Mask == 0 {
		out.Mask = 0xFFFFFFFF
	}
	return out
}

// depthCompareToWGPU treats the zero value as "always", matching the
// portable depth/stencil contract.
func depthCompareToWGPU(f gpu.CompareFunction) wgpu.CompareFunction {
	if f == gpu.CompareFunctionUndefined {
		return wgpu.CompareFunctionAlways
	}
	return compareFunctionToWGPU(f)
}

func stencilFaceToWGPU(s gpu.StencilFaceState) wgpu.StencilFaceState {
	return wgpu.StencilFaceState{
		Compare:     depthCompareToWGPU(s.Compare),
		FailOp:      stencilOperationToWGPU(s.FailOp),
		DepthFailOp: stencilOperationToWGPU(s.DepthFailOp),
		PassOp:      stencilOperationToWGPU(s.PassOp),
	}
}

func maskOrAll(mask uint32) uint32 {
	if mask == 0 {
		return 0xFFFFFFFF
	}
	return mask
}

func (p *renderPipeline) ID() uint64    { return p.id }
func (p *renderPipeline) Label() string { return p.label }

// GetBindGroupLayout returns the native auto-inferred layout for the
// group index. Explicitly laid out pipelines reject the call.
func (p *renderPipeline) GetBindGroupLayout(index uint32) (gpu.BindGroupLayout, error) {
	if p.explicit {
		return nil, gpu.ErrExplicitLayout
	}
	if l, ok := p.inferred[index]; ok {
		return l, nil
	}
	native := p.pipeline.GetBindGroupLayout(index)
	if native == nil {
		return nil, fmt.Errorf("%w: no bindings in group %d", gpu.ErrInvalidDescriptor, index)
	}
	p.ctx.stats.AddResource(gpu.KindBindGroupLayout)
	l := &bindGroupLayout{
		ctx:      p.ctx,
		id:       gpu.NextID(gpu.KindBindGroupLayout),
		layout:   native,
		inferred: true,
	}
	p.inferred[index] = l
	return l, nil
}

func (p *renderPipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.pipeline.Release()
	p.ctx.stats.RemoveResource(gpu.KindRenderPipeline)
}

// computePipeline wraps a native compute pipeline.
type computePipeline struct {
	ctx       *Context
	id        uint64
	label     string
	pipeline  *wgpu.ComputePipeline
	explicit  bool
	inferred  map[uint32]*bindGroupLayout
	destroyed bool
}

// CreateComputePipeline creates a native compute pipeline.
func (c *Context) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	mod, ok := desc.Compute.Module.(*shaderModule)
	if !ok || mod.destroyed {
		return nil, fmt.Errorf("%w: compute module from a different backend", gpu.ErrInvalidDescriptor)
	}
	native := wgpu.ComputePipelineDescriptor{
		Label: desc.Label,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     mod.mod,
			EntryPoint: desc.Compute.EntryPoint,
		},
	}
	explicit := false
	if desc.Layout != nil {
		layout, ok := desc.Layout.(*pipelineLayout)
		if !ok {
			return nil, fmt.Errorf("%w: pipeline layout from a different backend", gpu.ErrInvalidDescriptor)
		}
		native.Layout = layout.layout
		explicit = true
	}
	pipeline, err := c.device.CreateComputePipeline(&native)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", gpu.ErrShaderCompile, desc.Label, err)
	}
	c.stats.AddResource(gpu.KindComputePipeline)
	return &computePipeline{
		ctx:      c,
		id:       gpu.NextID(gpu.KindComputePipeline),
		label:    desc.Label,
		pipeline: pipeline,
		explicit: explicit,
		inferred: make(map[uint32]*bindGroupLayout),
	}, nil
}

func (p *computePipeline) ID() uint64    { return p.id }
func (p *computePipeline) Label() string { return p.label }

func (p *computePipeline) GetBindGroupLayout(index uint32) (gpu.BindGroupLayout, error) {
	if p.explicit {
		return nil, gpu.ErrExplicitLayout
	}
	if l, ok := p.inferred[index]; ok {
		return l, nil
	}
	native := p.pipeline.GetBindGroupLayout(index)
	if native == nil {
		return nil, fmt.Errorf("%w: no bindings in group %d", gpu.ErrInvalidDescriptor, index)
	}
	p.ctx.stats.AddResource(gpu.KindBindGroupLayout)
	l := &bindGroupLayout{
		ctx:      p.ctx,
		id:       gpu.NextID(gpu.KindBindGroupLayout),
		layout:   native,
		inferred: true,
	}
	p.inferred[index] = l
	return l, nil
}

func (p *computePipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.pipeline.Release()
	p.ctx.stats.RemoveResource(gpu.KindComputePipeline)
}
