// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gl

import (
	"fmt"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/gldriver"
)

// pipelineState is the full fixed-function snapshot captured from a render
// pipeline descriptor. apply replays every field on every SetPipeline:
// with no diffing there is no state to leak between pipelines, which is
// the whole point of the snapshot model.
type pipelineState struct {
	topology gpu.PrimitiveTopology

	blendEnabled bool
	blend        gpu.BlendState
	colorMask    gpu.ColorWriteMask

	depthTest  bool
	depthWrite bool
	depthFunc  gpu.CompareFunction
	depthBias  int32
	slopeScale float32

	stencilTest      bool
	stencilFront     gpu.StencilFaceState
	stencilBack      gpu.StencilFaceState
	stencilReadMask  uint32
	stencilWriteMask uint32

	cullMode  gpu.CullMode
	frontFace gpu.FrontFace
}

func snapshotState(desc *gpu.RenderPipelineDescriptor) pipelineState {
	st := pipelineState{
		topology:  desc.Primitive.Topology,
		colorMask: gpu.ColorWriteMaskAll,
		depthFunc: gpu.CompareFunctionAlways,
		frontFace: desc.Primitive.FrontFace,
		cullMode:  desc.Primitive.CullMode,
		stencilFront: gpu.StencilFaceState{
			Compare: gpu.CompareFunctionAlways,
		},
		stencilBack: gpu.StencilFaceState{
			Compare: gpu.CompareFunctionAlways,
		},
		stencilReadMask:  0xFFFFFFFF,
		stencilWriteMask: 0xFFFFFFFF,
	}
	if desc.Fragment != nil && len(desc.Fragment.Targets) > 0 {
		t := desc.Fragment.Targets[0]
		if t.Blend != nil {
			st.blendEnabled = true
			st.blend = *t.Blend
		}
		if t.WriteMask != 0 {
			st.colorMask = t.WriteMask
		}
	}
	if ds := desc.DepthStencil; ds != nil {
		st.depthTest = ds.DepthCompare != gpu.CompareFunctionUndefined &&
			ds.DepthCompare != gpu.CompareFunctionAlways || ds.DepthWriteEnabled
		st.depthWrite = ds.DepthWriteEnabled
		st.depthFunc = ds.DepthCompare
		if st.depthFunc == gpu.CompareFunctionUndefined {
			st.depthFunc = gpu.CompareFunctionAlways
		}
		st.depthBias = ds.DepthBias
		st.slopeScale = ds.DepthBiasSlopeScale
		st.stencilTest = ds.StencilFront.Compare != gpu.CompareFunctionAlways ||
			ds.StencilBack.Compare != gpu.CompareFunctionAlways ||
			ds.StencilFront.PassOp != gpu.StencilOperationKeep ||
			ds.StencilBack.PassOp != gpu.StencilOperationKeep
		if ds.StencilFront.Compare != gpu.CompareFunctionUndefined {
			st.stencilFront = ds.StencilFront
		}
		if ds.StencilBack.Compare != gpu.CompareFunctionUndefined {
			st.stencilBack = ds.StencilBack
		}
		if ds.StencilReadMask != 0 {
			st.stencilReadMask = ds.StencilReadMask
		}
		if ds.StencilWriteMask != 0 {
			st.stencilWriteMask = ds.StencilWriteMask
		}
	}
	return st
}

// apply replays the complete snapshot into the driver's state machine.
func (st *pipelineState) apply(drv gldriver.Device, stencilRef uint32) {
	drv.SetBlendEnabled(st.blendEnabled)
	blend := st.blend
	if !st.blendEnabled {
		blend = gpu.BlendStateReplace
	}
	drv.SetBlendFunc(blend.Color.SrcFactor, blend.Color.DstFactor,
		blend.Alpha.SrcFactor, blend.Alpha.DstFactor)
	drv.SetBlendEquation(blend.Color.Operation, blend.Alpha.Operation)
	drv.SetColorMask(
		st.colorMask&gpu.ColorWriteMaskRed != 0,
		st.colorMask&gpu.ColorWriteMaskGreen != 0,
		st.colorMask&gpu.ColorWriteMaskBlue != 0,
		st.colorMask&gpu.ColorWriteMaskAlpha != 0,
	)
	drv.SetDepthTest(st.depthTest)
	drv.SetDepthMask(st.depthWrite)
	drv.SetDepthFunc(st.depthFunc)
	drv.SetPolygonOffset(st.slopeScale, float32(st.depthBias))
	drv.SetStencilTest(st.stencilTest)
	st.applyStencilRef(drv, stencilRef)
	drv.SetStencilOp(gldriver.FaceFront, st.stencilFront.FailOp, st.stencilFront.DepthFailOp, st.stencilFront.PassOp)
	drv.SetStencilOp(gldriver.FaceBack, st.stencilBack.FailOp, st.stencilBack.DepthFailOp, st.stencilBack.PassOp)
	drv.SetStencilMask(gldriver.FaceFrontAndBack, st.stencilWriteMask)
	switch st.cullMode {
	case gpu.CullModeFront:
		drv.SetCull(true, gldriver.FaceFront)
	case gpu.CullModeBack:
		drv.SetCull(true, gldriver.FaceBack)
	default:
		drv.SetCull(false, gldriver.FaceBack)
	}
	drv.SetFrontFace(st.frontFace)
}

// applyStencilRef re-issues the stencil functions with a new reference
// value, used by SetStencilReference without a full snapshot replay.
func (st *pipelineState) applyStencilRef(drv gldriver.Device, ref uint32) {
	drv.SetStencilFunc(gldriver.FaceFront, st.stencilFront.Compare, int32(ref), st.stencilReadMask)
	drv.SetStencilFunc(gldriver.FaceBack, st.stencilBack.Compare, int32(ref), st.stencilReadMask)
}

// renderPipeline is an immutable program + snapshot pair.
type renderPipeline struct {
	ctx           *Context
	id            uint64
	label         string
	program       gldriver.Program
	state         pipelineState
	vertexBuffers []gpu.VertexBufferLayout

	// explicit pipelines reject GetBindGroupLayout; auto pipelines serve
	// layouts inferred from the program's reflected bindings.
	explicit    bool
	inferred    map[uint32][]gpu.BindGroupLayoutEntry
	autoLayouts map[uint32]*bindGroupLayout

	destroyed bool
}

// CreateRenderPipeline links the stage modules and captures the full
// fixed-function snapshot. Shader errors surface here, wrapped in
// ErrShaderCompile.
func (c *Context) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	vs, ok := desc.Vertex.Module.(*shaderModule)
	if !ok {
		return nil, fmt.Errorf("%w: vertex module from a different backend", gpu.ErrInvalidDescriptor)
	}
	var fragSrc string
	visibility := gpu.ShaderStageVertex
	if desc.Fragment != nil {
		fs, ok := desc.Fragment.Module.(*shaderModule)
		if !ok {
			return nil, fmt.Errorf("%w: fragment module from a different backend", gpu.ErrInvalidDescriptor)
		}
		fragSrc = fs.code
		visibility |= gpu.ShaderStageFragment
	}
	prog, err := c.drv.CompileProgram(vs.code, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", gpu.ErrShaderCompile, desc.Label, err)
	}

	p := &renderPipeline{
		ctx:           c,
		id:            gpu.NextID(gpu.KindRenderPipeline),
		label:         desc.Label,
		program:       prog,
		state:         snapshotState(desc),
		vertexBuffers: append([]gpu.VertexBufferLayout(nil), desc.Vertex.Buffers...),
		autoLayouts:   make(map[uint32]*bindGroupLayout),
	}
	if desc.Layout != nil {
		if _, ok := desc.Layout.(*pipelineLayout); !ok {
			c.drv.DeleteProgram(prog)
			return nil, fmt.Errorf("%w: pipeline layout from a different backend", gpu.ErrInvalidDescriptor)
		}
		p.explicit = true
	} else {
		p.inferred = inferLayouts(c.drv.ProgramBindings(prog), visibility)
	}
	c.stats.AddResource(gpu.KindRenderPipeline)
	return p, nil
}

func (p *renderPipeline) ID() uint64    { return p.id }
func (p *renderPipeline) Label() string { return p.label }

// GetBindGroupLayout serves the inferred layout for a group index. Only
// valid on auto-laid-out pipelines.
func (p *renderPipeline) GetBindGroupLayout(index uint32) (gpu.BindGroupLayout, error) {
	if p.explicit {
		return nil, gpu.ErrExplicitLayout
	}
	if l, ok := p.autoLayouts[index]; ok {
		return l, nil
	}
	entries := p.inferred[index]
	p.ctx.stats.AddResource(gpu.KindBindGroupLayout)
	l := &bindGroupLayout{
		ctx:     p.ctx,
		id:      gpu.NextID(gpu.KindBindGroupLayout),
		entries: append([]gpu.BindGroupLayoutEntry(nil), entries...),
	}
	p.autoLayouts[index] = l
	return l, nil
}

func (p *renderPipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.ctx.drv.DeleteProgram(p.program)
	p.ctx.stats.RemoveResource(gpu.KindRenderPipeline)
}

// computePipeline is an immutable compute program.
type computePipeline struct {
	ctx         *Context
	id          uint64
	label       string
	program     gldriver.Program
	explicit    bool
	inferred    map[uint32][]gpu.BindGroupLayoutEntry
	autoLayouts map[uint32]*bindGroupLayout
	destroyed   bool
}

// CreateComputePipeline compiles and links a compute program. Requires
// Features().ComputeShaders.
func (c *Context) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if !c.features.ComputeShaders {
		return nil, fmt.Errorf("%w: compute shaders not supported by this device", gpu.ErrInvalidDescriptor)
	}
	cs, ok := desc.Compute.Module.(*shaderModule)
	if !ok {
		return nil, fmt.Errorf("%w: compute module from a different backend", gpu.ErrInvalidDescriptor)
	}
	prog, err := c.drv.CompileComputeProgram(cs.code)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", gpu.ErrShaderCompile, desc.Label, err)
	}
	p := &computePipeline{
		ctx:         c,
		id:          gpu.NextID(gpu.KindComputePipeline),
		label:       desc.Label,
		program:     prog,
		autoLayouts: make(map[uint32]*bindGroupLayout),
	}
	if desc.Layout != nil {
		if _, ok := desc.Layout.(*pipelineLayout); !ok {
			c.drv.DeleteProgram(prog)
			return nil, fmt.Errorf("%w: pipeline layout from a different backend", gpu.ErrInvalidDescriptor)
		}
		p.explicit = true
	} else {
		p.inferred = inferLayouts(c.drv.ProgramBindings(prog), gpu.ShaderStageCompute)
	}
	c.stats.AddResource(gpu.KindComputePipeline)
	return p, nil
}

func (p *computePipeline) ID() uint64    { return p.id }
func (p *computePipeline) Label() string { return p.label }

func (p *computePipeline) GetBindGroupLayout(index uint32) (gpu.BindGroupLayout, error) {
	if p.explicit {
		return nil, gpu.ErrExplicitLayout
	}
	if l, ok := p.autoLayouts[index]; ok {
		return l, nil
	}
	p.ctx.stats.AddResource(gpu.KindBindGroupLayout)
	l := &bindGroupLayout{
		ctx:     p.ctx,
		id:      gpu.NextID(gpu.KindBindGroupLayout),
		entries: append([]gpu.BindGroupLayoutEntry(nil), p.inferred[index]...),
	}
	p.autoLayouts[index] = l
	return l, nil
}

func (p *computePipeline) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.ctx.drv.DeleteProgram(p.program)
	p.ctx.stats.RemoveResource(gpu.KindComputePipeline)
}
