// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/backend"
	"github.com/molviz/gpu/gldriver"
)

func newTestContext(t *testing.T) (*Context, *gldriver.Fake) {
	t.Helper()
	fake := gldriver.NewFake()
	ctx, err := New(backend.Options{Width: 64, Height: 64, Driver: fake})
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)
	return ctx, fake
}

func countCalls(fake *gldriver.Fake, prefix string) int {
	n := 0
	for _, c := range fake.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func callIndex(fake *gldriver.Fake, prefix string, from int) int {
	for i := from; i < len(fake.Calls); i++ {
		if strings.HasPrefix(fake.Calls[i], prefix) {
			return i
		}
	}
	return -1
}

func newShader(t *testing.T, ctx *Context, label string) gpu.ShaderModule {
	t.Helper()
	m, err := ctx.CreateShaderModule(&gpu.ShaderModuleDescriptor{Label: label, Code: "void main() {}"})
	require.NoError(t, err)
	return m
}

func newPipeline(t *testing.T, ctx *Context, mutate func(*gpu.RenderPipelineDescriptor)) gpu.RenderPipeline {
	t.Helper()
	desc := &gpu.RenderPipelineDescriptor{
		Vertex: gpu.VertexState{Module: newShader(t, ctx, "vs"), EntryPoint: "main"},
		Fragment: &gpu.FragmentState{
			Module:     newShader(t, ctx, "fs"),
			EntryPoint: "main",
			Targets:    []gpu.ColorTargetState{{Format: gpu.TextureFormatRGBA8Unorm}},
		},
	}
	if mutate != nil {
		mutate(desc)
	}
	p, err := ctx.CreateRenderPipeline(desc)
	require.NoError(t, err)
	return p
}

func newTarget(t *testing.T, ctx *Context) gpu.TextureView {
	t.Helper()
	tex, err := ctx.CreateTexture(&gpu.TextureDescriptor{
		Label:  "target",
		Size:   gpu.Extent3D{Width: 16, Height: 16},
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopySrc,
	})
	require.NoError(t, err)
	view, err := tex.CreateView(nil)
	require.NoError(t, err)
	return view
}

func passDesc(view gpu.TextureView) *gpu.RenderPassDescriptor {
	return &gpu.RenderPassDescriptor{
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gpu.LoadOpClear,
			ClearValue: gpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	}
}

func TestRecordingTouchesNothingBeforeSubmit(t *testing.T) {
	ctx, fake := newTestContext(t)
	view := newTarget(t, ctx)
	pipe := newPipeline(t, ctx, nil)

	fake.Reset()
	enc, err := ctx.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(pipe))
	pass.Draw(3, 1, 0, 0)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	require.Empty(t, fake.Calls, "recording must not reach the driver")

	require.NoError(t, ctx.Submit(cb))
	require.NotEmpty(t, fake.Calls)
	require.Equal(t, 1, countCalls(fake, "Draw("))
}

func TestSetPipelineReplaysFullSnapshot(t *testing.T) {
	ctx, fake := newTestContext(t)
	view := newTarget(t, ctx)
	opaque := newPipeline(t, ctx, nil)
	blended := newPipeline(t, ctx, func(d *gpu.RenderPipelineDescriptor) {
		b := gpu.BlendStatePremultipliedAlpha
		d.Fragment.Targets[0].Blend = &b
	})

	enc, err := ctx.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(blended))
	pass.Draw(3, 1, 0, 0)
	require.NoError(t, pass.SetPipeline(opaque))
	pass.Draw(3, 1, 0, 0)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	fake.Reset()
	require.NoError(t, ctx.Submit(cb))

	// Every pipeline bind replays the complete fixed-function snapshot,
	// so each state family appears once per SetPipeline.
	for _, prefix := range []string{
		"SetBlendEnabled", "SetBlendFunc", "SetBlendEquation",
		"SetDepthTest", "SetDepthMask", "SetDepthFunc",
		"SetStencilTest", "SetCull(", "SetFrontFace",
	} {
		require.Equal(t, 2, countCalls(fake, prefix),
			"state %s must be replayed on every pipeline bind", prefix)
	}
	// The load-op clear also touches the color mask, so it appears once
	// per bind plus once for the clear.
	require.Equal(t, 3, countCalls(fake, "SetColorMask"))

	// The second bind disables blending even though the first enabled it:
	// no leakage between pipelines.
	first := callIndex(fake, "SetBlendEnabled(true)", 0)
	second := callIndex(fake, "SetBlendEnabled(false)", first+1)
	require.Greater(t, first, -1)
	require.Greater(t, second, first)
}

func TestDrawOrderIsRecordingOrder(t *testing.T) {
	ctx, fake := newTestContext(t)
	view := newTarget(t, ctx)
	pipe := newPipeline(t, ctx, nil)

	enc, err := ctx.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(pipe))
	pass.Draw(3, 1, 0, 0)
	pass.Draw(6, 2, 0, 0)
	pass.Draw(9, 3, 0, 0)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	fake.Reset()
	require.NoError(t, ctx.Submit(cb))

	var draws []string
	for _, c := range fake.Calls {
		if strings.HasPrefix(c, "Draw(") {
			draws = append(draws, c)
		}
	}
	require.Len(t, draws, 3)
	require.Contains(t, draws[0], ", 0, 3, 1")
	require.Contains(t, draws[1], ", 0, 6, 2")
	require.Contains(t, draws[2], ", 0, 9, 3")
	require.Equal(t, uint64(3), ctx.Stats().DrawCount)
	require.Equal(t, uint64(6), ctx.Stats().InstanceCount)
}

func TestBindGroupsApplyBeforeDrawOnly(t *testing.T) {
	ctx, fake := newTestContext(t)
	view := newTarget(t, ctx)
	pipe := newPipeline(t, ctx, nil)

	layout, err := ctx.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{
		Entries: []gpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gpu.ShaderStageVertex,
			Type:       gpu.BindingTypeUniformBuffer,
		}},
	})
	require.NoError(t, err)
	ubo, err := ctx.CreateBuffer(&gpu.BufferDescriptor{Size: 256, Usage: gpu.BufferUsageUniform})
	require.NoError(t, err)
	group, err := ctx.CreateBindGroup(&gpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: []gpu.BindGroupEntry{{Binding: 0, Buffer: ubo}},
	})
	require.NoError(t, err)

	enc, err := ctx.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(pipe))
	require.NoError(t, pass.SetBindGroup(1, group, nil))
	pass.Draw(3, 1, 0, 0)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	fake.Reset()
	require.NoError(t, ctx.Submit(cb))

	// Group 1, binding 0 lands on flat slot 16, applied between the
	// pipeline bind and the draw.
	bind := callIndex(fake, "BindUniformBuffer(16,", 0)
	draw := callIndex(fake, "Draw(", 0)
	require.Greater(t, bind, -1)
	require.Greater(t, draw, bind)
}

func TestVertexAttribsDeriveFromPipelineAndBuffers(t *testing.T) {
	ctx, fake := newTestContext(t)
	view := newTarget(t, ctx)
	pipe := newPipeline(t, ctx, func(d *gpu.RenderPipelineDescriptor) {
		d.Vertex.Buffers = []gpu.VertexBufferLayout{{
			ArrayStride: 24,
			Attributes: []gpu.VertexAttribute{
				{Format: gpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			},
		}}
	})
	vbo, err := ctx.CreateBuffer(&gpu.BufferDescriptor{Size: 240, Usage: gpu.BufferUsageVertex})
	require.NoError(t, err)

	enc, err := ctx.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(pipe))
	require.NoError(t, pass.SetVertexBuffer(0, vbo, 0))
	pass.Draw(10, 1, 0, 0)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	fake.Reset()
	require.NoError(t, ctx.Submit(cb))
	require.Equal(t, 1, countCalls(fake, "SetVertexAttribs(2 attrs)"))
}

func TestDrawWithoutVertexBufferFails(t *testing.T) {
	ctx, _ := newTestContext(t)
	view := newTarget(t, ctx)
	pipe := newPipeline(t, ctx, func(d *gpu.RenderPipelineDescriptor) {
		d.Vertex.Buffers = []gpu.VertexBufferLayout{{
			ArrayStride: 12,
			Attributes:  []gpu.VertexAttribute{{Format: gpu.VertexFormatFloat32x3}},
		}}
	})

	enc, err := ctx.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(pipe))
	pass.Draw(3, 1, 0, 0)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	require.ErrorIs(t, ctx.Submit(cb), gpu.ErrInvalidDescriptor)
}

func TestAutoLayoutInference(t *testing.T) {
	ctx, fake := newTestContext(t)
	fake.NextBindings = []gldriver.BindingInfo{
		{Name: "Camera", Slot: 0, Type: gpu.BindingTypeUniformBuffer},
		{Name: "atoms", Slot: 1*slotsPerGroup + 2, Type: gpu.BindingTypeStorageBuffer},
		{Name: "colorMap", Slot: 1*slotsPerGroup + 0, Type: gpu.BindingTypeSampledTexture},
	}
	pipe := newPipeline(t, ctx, nil)

	l0, err := pipe.GetBindGroupLayout(0)
	require.NoError(t, err)
	require.Len(t, l0.Entries(), 1)
	require.Equal(t, gpu.BindingTypeUniformBuffer, l0.Entries()[0].Type)

	l1, err := pipe.GetBindGroupLayout(1)
	require.NoError(t, err)
	entries := l1.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, uint32(0), entries[0].Binding)
	require.Equal(t, gpu.BindingTypeSampledTexture, entries[0].Type)
	require.Equal(t, uint32(2), entries[1].Binding)
	require.Equal(t, gpu.BindingTypeStorageBuffer, entries[1].Type)

	// Repeated queries return the same layout object.
	again, err := pipe.GetBindGroupLayout(1)
	require.NoError(t, err)
	require.Equal(t, l1.ID(), again.ID())
}

func TestExplicitLayoutRejectsInference(t *testing.T) {
	ctx, _ := newTestContext(t)
	layout, err := ctx.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{})
	require.NoError(t, err)
	plLayout, err := ctx.CreatePipelineLayout(&gpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []gpu.BindGroupLayout{layout},
	})
	require.NoError(t, err)
	pipe := newPipeline(t, ctx, func(d *gpu.RenderPipelineDescriptor) {
		d.Layout = plLayout
	})

	_, err = pipe.GetBindGroupLayout(0)
	require.ErrorIs(t, err, gpu.ErrExplicitLayout)
}

func TestStaleSurfaceTextureRejected(t *testing.T) {
	ctx, _ := newTestContext(t)
	surf, err := ctx.CurrentTexture()
	require.NoError(t, err)
	view, err := surf.CreateView(nil)
	require.NoError(t, err)

	enc, err := ctx.CreateCommandEncoder("late")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	ctx.Present()
	require.ErrorIs(t, ctx.Submit(cb), gpu.ErrStaleSurfaceTexture)
}

func TestSurfaceTextureDestroyIsNoOp(t *testing.T) {
	ctx, fake := newTestContext(t)
	surf, err := ctx.CurrentTexture()
	require.NoError(t, err)
	fake.Reset()
	surf.Destroy()
	surf.Destroy()
	require.Equal(t, 0, countCalls(fake, "DeleteTexture"))
}

func TestDestroyIsIdempotent(t *testing.T) {
	ctx, fake := newTestContext(t)
	buf, err := ctx.CreateBuffer(&gpu.BufferDescriptor{Size: 128, Usage: gpu.BufferUsageVertex})
	require.NoError(t, err)
	require.Equal(t, int64(1), ctx.Stats().ResourceCount(gpu.KindBuffer))
	require.Equal(t, uint64(128), ctx.Stats().BufferBytes)

	buf.Destroy()
	buf.Destroy()
	buf.Destroy()
	require.Equal(t, int64(0), ctx.Stats().ResourceCount(gpu.KindBuffer))
	require.Equal(t, uint64(0), ctx.Stats().BufferBytes)
	require.Equal(t, 1, countCalls(fake, "DeleteBuffer"))
}

func TestBufferRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t)
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf, err := ctx.CreateBufferInit(&gpu.BufferDescriptor{
		Usage: gpu.BufferUsageVertex | gpu.BufferUsageCopySrc,
	}, data)
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), buf.Size())

	got, err := buf.Read()
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, ctx.WriteBuffer(buf, 4, []byte{9, 9, 9, 9}))
	got, err = buf.Read()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 9, 9, 9, 9}, got)
}

func TestReadPixelsRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t)
	tex, err := ctx.CreateTexture(&gpu.TextureDescriptor{
		Size:   gpu.Extent3D{Width: 2, Height: 2},
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageCopySrc | gpu.TextureUsageCopyDst,
	})
	require.NoError(t, err)
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}
	require.NoError(t, ctx.WriteTexture(tex, pixels))

	got, err := ctx.ReadPixels(tex, 0, 0, 2, 2)
	require.NoError(t, err)
	require.Equal(t, pixels, got)
}

func TestReadPixelsRequiresCopySrc(t *testing.T) {
	ctx, _ := newTestContext(t)
	tex, err := ctx.CreateTexture(&gpu.TextureDescriptor{
		Size:   gpu.Extent3D{Width: 2, Height: 2},
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)
	_, err = ctx.ReadPixels(tex, 0, 0, 2, 2)
	require.ErrorIs(t, err, gpu.ErrReadbackUnsupported)
}

func TestContextLossLifecycle(t *testing.T) {
	ctx, _ := newTestContext(t)
	var lostReason string
	restored := false
	ctx.OnLost(func(reason string) { lostReason = reason })
	ctx.OnRestored(func() { restored = true })

	ctx.SetLost("driver reset")
	require.True(t, ctx.IsLost())
	require.Equal(t, "driver reset", lostReason)

	_, err := ctx.CreateBuffer(&gpu.BufferDescriptor{Size: 4, Usage: gpu.BufferUsageVertex})
	require.ErrorIs(t, err, gpu.ErrContextLost)
	require.ErrorIs(t, ctx.Submit(), gpu.ErrContextLost)

	extraRan := false
	require.NoError(t, ctx.Restore(func() { extraRan = true }))
	require.False(t, ctx.IsLost())
	require.True(t, restored)
	require.True(t, extraRan)

	_, err = ctx.CreateBuffer(&gpu.BufferDescriptor{Size: 4, Usage: gpu.BufferUsageVertex})
	require.NoError(t, err)
}

func TestEncoderMisuse(t *testing.T) {
	ctx, _ := newTestContext(t)
	view := newTarget(t, ctx)

	enc, err := ctx.CreateCommandEncoder("misuse")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(passDesc(view))
	require.NoError(t, err)

	// A second pass while one records.
	_, err = enc.BeginRenderPass(passDesc(view))
	require.ErrorIs(t, err, gpu.ErrPassActive)

	// Finishing with an open pass.
	_, err = enc.Finish()
	require.ErrorIs(t, err, gpu.ErrPassActive)

	require.NoError(t, pass.End())
	require.ErrorIs(t, pass.End(), gpu.ErrPassEnded)
	require.ErrorIs(t, pass.SetBindGroup(0, nil, nil), gpu.ErrInvalidDescriptor)

	_, err = enc.Finish()
	require.NoError(t, err)
	_, err = enc.Finish()
	require.ErrorIs(t, err, gpu.ErrEncoderFinished)
	_, err = enc.BeginRenderPass(passDesc(view))
	require.ErrorIs(t, err, gpu.ErrEncoderFinished)
}

func TestShaderCompileErrorWrapped(t *testing.T) {
	ctx, fake := newTestContext(t)
	fake.CompileErr = errors.New("syntax error at line 3")
	pipe, err := ctx.CreateRenderPipeline(&gpu.RenderPipelineDescriptor{
		Label:  "bad",
		Vertex: gpu.VertexState{Module: newShader(t, ctx, "vs"), EntryPoint: "main"},
	})
	require.Nil(t, pipe)
	require.ErrorIs(t, err, gpu.ErrShaderCompile)
	require.Contains(t, err.Error(), "syntax error")
}

func TestComputeDispatch(t *testing.T) {
	ctx, fake := newTestContext(t)
	cs := newShader(t, ctx, "cs")
	pipe, err := ctx.CreateComputePipeline(&gpu.ComputePipelineDescriptor{
		Label:   "reduce",
		Compute: gpu.ProgrammableStage{Module: cs, EntryPoint: "main"},
	})
	require.NoError(t, err)

	enc, err := ctx.CreateCommandEncoder("compute")
	require.NoError(t, err)
	pass, err := enc.BeginComputePass("reduce")
	require.NoError(t, err)
	require.NoError(t, pass.SetPipeline(pipe))
	pass.DispatchWorkgroups(8, 4, 1)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	fake.Reset()
	require.NoError(t, ctx.Submit(cb))
	require.Equal(t, 1, countCalls(fake, "DispatchCompute(8, 4, 1)"))
	require.Equal(t, 1, countCalls(fake, "MemoryBarrier"))
	require.Equal(t, uint64(1), ctx.Stats().DispatchCount)
}

func TestDestroyedContextRejectsOperations(t *testing.T) {
	fake := gldriver.NewFake()
	ctx, err := New(backend.Options{Width: 8, Height: 8, Driver: fake})
	require.NoError(t, err)
	ctx.Destroy()
	ctx.Destroy()

	_, err = ctx.CreateBuffer(&gpu.BufferDescriptor{Size: 4, Usage: gpu.BufferUsageVertex})
	require.ErrorIs(t, err, gpu.ErrContextDestroyed)
	require.Equal(t, 1, countCalls(fake, "Close()"))
}
