// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

// RenderState tracks desired fixed-function state between the imperative
// style of scene code ("enable blending, set depth func") and the
// pipeline-object model both backends ultimately run on.
//
// Setters only record fields. The tracked state is consumed when a
// pipeline descriptor is built (PipelineState, ApplyTo); nothing is sent
// to the device at set time. Viewport and scissor are the exception: they
// are genuinely dynamic per-pass values, stored here for the pass encoder
// to apply directly.
type RenderState struct {
	blendEnabled bool
	blend        BlendState
	writeMask    ColorWriteMask

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      CompareFunction

	stencilEnabled bool
	stencilFront   StencilFaceState
	stencilBack    StencilFaceState
	stencilRead    uint32
	stencilWrite   uint32

	cullMode  CullMode
	frontFace FrontFace

	viewport    Viewport
	hasViewport bool
	scissor     ScissorRect
	hasScissor  bool
}

// Viewport is the dynamic viewport rectangle with depth range.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// ScissorRect is the dynamic scissor rectangle.
type ScissorRect struct {
	X, Y, Width, Height uint32
}

// NewRenderState returns a tracker with the cross-backend defaults:
// no blending, depth test enabled with less-equal, back-face culling off,
// counter-clockwise front faces, all color channels written.
func NewRenderState() *RenderState {
	rs := &RenderState{}
	rs.Reset()
	return rs
}

// Reset restores the defaults.
func (rs *RenderState) Reset() {
	*rs = RenderState{
		writeMask:         ColorWriteMaskAll,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      CompareFunctionLessEqual,
		stencilFront:      StencilFaceState{Compare: CompareFunctionAlways},
		stencilBack:       StencilFaceState{Compare: CompareFunctionAlways},
		stencilRead:       0xFFFFFFFF,
		stencilWrite:      0xFFFFFFFF,
		frontFace:         FrontFaceCCW,
	}
}

// EnableBlend turns blending on or off for subsequently built pipelines.
func (rs *RenderState) EnableBlend(on bool) { rs.blendEnabled = on }

// SetBlend records the blend equation.
func (rs *RenderState) SetBlend(b BlendState) { rs.blend = b }

// SetColorWriteMask records which channels pipelines write.
func (rs *RenderState) SetColorWriteMask(m ColorWriteMask) { rs.writeMask = m }

// EnableDepthTest turns the depth test on or off.
func (rs *RenderState) EnableDepthTest(on bool) { rs.depthTestEnabled = on }

// SetDepthWrite records whether depth is written.
func (rs *RenderState) SetDepthWrite(on bool) { rs.depthWriteEnabled = on }

// SetDepthCompare records the depth comparison function.
func (rs *RenderState) SetDepthCompare(f CompareFunction) { rs.depthCompare = f }

// EnableStencil turns stencil testing on or off.
func (rs *RenderState) EnableStencil(on bool) { rs.stencilEnabled = on }

// SetStencil records per-face stencil operations.
func (rs *RenderState) SetStencil(front, back StencilFaceState) {
	rs.stencilFront = front
	rs.stencilBack = back
}

// SetStencilMasks records the stencil read and write masks.
func (rs *RenderState) SetStencilMasks(read, write uint32) {
	rs.stencilRead = read
	rs.stencilWrite = write
}

// SetCullMode records which faces are culled.
func (rs *RenderState) SetCullMode(m CullMode) { rs.cullMode = m }

// SetFrontFace records the front-face winding.
func (rs *RenderState) SetFrontFace(f FrontFace) { rs.frontFace = f }

// SetViewport records the dynamic viewport.
func (rs *RenderState) SetViewport(v Viewport) {
	rs.viewport = v
	rs.hasViewport = true
}

// Viewport returns the tracked viewport, if one was set.
func (rs *RenderState) Viewport() (Viewport, bool) {
	return rs.viewport, rs.hasViewport
}

// SetScissor records the dynamic scissor rectangle.
func (rs *RenderState) SetScissor(r ScissorRect) {
	rs.scissor = r
	rs.hasScissor = true
}

// Scissor returns the tracked scissor rectangle, if one was set.
func (rs *RenderState) Scissor() (ScissorRect, bool) {
	return rs.scissor, rs.hasScissor
}

// ColorTarget builds a color target for the given attachment format from
// the tracked blend state.
func (rs *RenderState) ColorTarget(format TextureFormat) ColorTargetState {
	t := ColorTargetState{Format: format, WriteMask: rs.writeMask}
	if rs.blendEnabled {
		b := rs.blend
		t.Blend = &b
	}
	return t
}

// DepthStencil builds the depth/stencil stage for the given attachment
// format, or nil when both depth and stencil are disabled.
func (rs *RenderState) DepthStencil(format TextureFormat) *DepthStencilState {
	if !rs.depthTestEnabled && !rs.stencilEnabled {
		return nil
	}
	ds := &DepthStencilState{
		Format:            format,
		DepthWriteEnabled: rs.depthWriteEnabled,
		DepthCompare:      rs.depthCompare,
		StencilFront:      StencilFaceState{Compare: CompareFunctionAlways},
		StencilBack:       StencilFaceState{Compare: CompareFunctionAlways},
		StencilReadMask:   rs.stencilRead,
		StencilWriteMask:  rs.stencilWrite,
	}
	if !rs.depthTestEnabled {
		ds.DepthCompare = CompareFunctionAlways
		ds.DepthWriteEnabled = false
	}
	if rs.stencilEnabled {
		ds.StencilFront = rs.stencilFront
		ds.StencilBack = rs.stencilBack
	}
	return ds
}

// Primitive builds the primitive stage for the given topology from the
// tracked cull and winding state.
func (rs *RenderState) Primitive(topology PrimitiveTopology) PrimitiveState {
	return PrimitiveState{
		Topology:  topology,
		FrontFace: rs.frontFace,
		CullMode:  rs.cullMode,
	}
}

// ApplyTo fills the state-derived fields of a render pipeline descriptor:
// the primitive stage, the depth/stencil stage (when depthFormat is a
// depth format and depth or stencil testing is on), and the blend and
// write mask of every fragment target.
func (rs *RenderState) ApplyTo(desc *RenderPipelineDescriptor, depthFormat TextureFormat) {
	desc.Primitive = rs.Primitive(desc.Primitive.Topology)
	if depthFormat.IsDepthOrStencil() {
		desc.DepthStencil = rs.DepthStencil(depthFormat)
	}
	if desc.Fragment == nil {
		return
	}
	for i := range desc.Fragment.Targets {
		t := rs.ColorTarget(desc.Fragment.Targets[i].Format)
		desc.Fragment.Targets[i].Blend = t.Blend
		desc.Fragment.Targets[i].WriteMask = t.WriteMask
	}
}
