// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderStateDefaults(t *testing.T) {
	rs := NewRenderState()

	ct := rs.ColorTarget(TextureFormatRGBA8Unorm)
	require.Nil(t, ct.Blend)
	require.Equal(t, ColorWriteMaskAll, ct.WriteMask)

	ds := rs.DepthStencil(TextureFormatDepth24Plus)
	require.NotNil(t, ds)
	require.True(t, ds.DepthWriteEnabled)
	require.Equal(t, CompareFunctionLessEqual, ds.DepthCompare)
	require.Equal(t, uint32(0xFFFFFFFF), ds.StencilReadMask)

	p := rs.Primitive(PrimitiveTopologyTriangleList)
	require.Equal(t, FrontFaceCCW, p.FrontFace)
	require.Equal(t, CullModeNone, p.CullMode)

	_, ok := rs.Viewport()
	require.False(t, ok)
	_, ok = rs.Scissor()
	require.False(t, ok)
}

func TestRenderStateBlendSnapshot(t *testing.T) {
	rs := NewRenderState()
	rs.EnableBlend(true)
	rs.SetBlend(BlendStatePremultipliedAlpha)

	ct := rs.ColorTarget(TextureFormatRGBA8Unorm)
	require.NotNil(t, ct.Blend)
	require.Equal(t, BlendStatePremultipliedAlpha, *ct.Blend)

	// The target owns a copy; later tracker changes must not leak in.
	rs.SetBlend(BlendStateReplace)
	require.Equal(t, BlendStatePremultipliedAlpha, *ct.Blend)
}

func TestRenderStateDepthDisabled(t *testing.T) {
	rs := NewRenderState()
	rs.EnableDepthTest(false)

	require.Nil(t, rs.DepthStencil(TextureFormatDepth24Plus))

	// Stencil alone keeps the stage, with depth neutralized.
	rs.EnableStencil(true)
	rs.SetStencil(
		StencilFaceState{Compare: CompareFunctionEqual, PassOp: StencilOperationReplace},
		StencilFaceState{Compare: CompareFunctionAlways},
	)
	ds := rs.DepthStencil(TextureFormatDepth24PlusStencil8)
	require.NotNil(t, ds)
	require.False(t, ds.DepthWriteEnabled)
	require.Equal(t, CompareFunctionAlways, ds.DepthCompare)
	require.Equal(t, CompareFunctionEqual, ds.StencilFront.Compare)
}

func TestRenderStateApplyTo(t *testing.T) {
	rs := NewRenderState()
	rs.SetCullMode(CullModeBack)
	rs.SetFrontFace(FrontFaceCW)
	rs.EnableBlend(true)
	rs.SetBlend(BlendStateReplace)

	desc := &RenderPipelineDescriptor{
		Primitive: PrimitiveState{Topology: PrimitiveTopologyLineList},
		Fragment: &FragmentState{
			Targets: []ColorTargetState{{Format: TextureFormatRGBA8Unorm}},
		},
	}
	rs.ApplyTo(desc, TextureFormatDepth32Float)

	require.Equal(t, PrimitiveTopologyLineList, desc.Primitive.Topology)
	require.Equal(t, CullModeBack, desc.Primitive.CullMode)
	require.Equal(t, FrontFaceCW, desc.Primitive.FrontFace)
	require.NotNil(t, desc.DepthStencil)
	require.Equal(t, TextureFormatDepth32Float, desc.DepthStencil.Format)
	require.NotNil(t, desc.Fragment.Targets[0].Blend)
}

func TestRenderStateApplyToNonDepthFormat(t *testing.T) {
	rs := NewRenderState()
	desc := &RenderPipelineDescriptor{}

	rs.ApplyTo(desc, TextureFormatRGBA8Unorm)
	require.Nil(t, desc.DepthStencil)
}

func TestRenderStateViewportScissor(t *testing.T) {
	rs := NewRenderState()

	rs.SetViewport(Viewport{Width: 800, Height: 600, MaxDepth: 1})
	v, ok := rs.Viewport()
	require.True(t, ok)
	require.Equal(t, float32(800), v.Width)

	rs.SetScissor(ScissorRect{X: 10, Y: 10, Width: 100, Height: 100})
	sc, ok := rs.Scissor()
	require.True(t, ok)
	require.Equal(t, uint32(100), sc.Width)
}

func TestRenderStateReset(t *testing.T) {
	rs := NewRenderState()
	rs.EnableBlend(true)
	rs.SetCullMode(CullModeFront)
	rs.SetViewport(Viewport{Width: 1})

	rs.Reset()

	require.Nil(t, rs.ColorTarget(TextureFormatRGBA8Unorm).Blend)
	require.Equal(t, CullModeNone, rs.Primitive(PrimitiveTopologyTriangleList).CullMode)
	_, ok := rs.Viewport()
	require.False(t, ok)
}

func TestLossTrackerTransitions(t *testing.T) {
	var lt LossTracker
	var lostReasons []string
	restored := 0

	lt.OnLost(func(reason string) { lostReasons = append(lostReasons, reason) })
	lt.OnRestored(func() { restored++ })

	require.False(t, lt.IsLost())

	lt.MarkLost("device removed")
	lt.MarkLost("again") // no-op while lost
	require.True(t, lt.IsLost())
	require.Equal(t, "device removed", lt.LostReason())
	require.Equal(t, []string{"device removed"}, lostReasons)

	lt.MarkRestored()
	lt.MarkRestored() // no-op while healthy
	require.False(t, lt.IsLost())
	require.Empty(t, lt.LostReason())
	require.Equal(t, 1, restored)
}
