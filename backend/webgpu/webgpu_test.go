// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/backend"
)

// Conversion tables are pure and testable without a device; everything
// touching wgpu-native skips when the library or an adapter is missing.

func TestTextureFormatRoundTrip(t *testing.T) {
	for f := gpu.TextureFormatR8Unorm; f <= gpu.TextureFormatDepth32Float; f++ {
		native, ok := textureFormatToWGPU(f)
		require.True(t, ok, "format %s has no native mapping", f)
		require.Equal(t, f, textureFormatFromWGPU(native), "format %s does not round-trip", f)
	}
}

func TestTextureFormatUndefinedHasNoMapping(t *testing.T) {
	_, ok := textureFormatToWGPU(gpu.TextureFormatUndefined)
	require.False(t, ok)
}

func TestVertexFormatsAllMapped(t *testing.T) {
	for f := gpu.VertexFormatUint8x2; f <= gpu.VertexFormatSint32x4; f++ {
		_, ok := vertexFormatToWGPU(f)
		require.True(t, ok, "vertex format %s has no native mapping", f)
	}
}

func TestBufferUsageMapsEveryBit(t *testing.T) {
	all := gpu.BufferUsageMapRead | gpu.BufferUsageMapWrite |
		gpu.BufferUsageCopySrc | gpu.BufferUsageCopyDst |
		gpu.BufferUsageIndex | gpu.BufferUsageVertex |
		gpu.BufferUsageUniform | gpu.BufferUsageStorage |
		gpu.BufferUsageIndirect | gpu.BufferUsageQueryResolve
	native := bufferUsageToWGPU(all)
	for _, bit := range bufferUsageBits {
		require.NotZero(t, native&bit.native, "usage bit %b lost in translation", bit.portable)
	}
	require.Zero(t, bufferUsageToWGPU(0))
}

func TestColorWriteMaskZeroMeansAll(t *testing.T) {
	require.Equal(t, colorWriteMaskToWGPU(gpu.ColorWriteMaskAll), colorWriteMaskToWGPU(0))
	require.NotEqual(t, colorWriteMaskToWGPU(gpu.ColorWriteMaskRed), colorWriteMaskToWGPU(0))
}

func TestLayoutEntryExpansion(t *testing.T) {
	e := layoutEntryToWGPU(gpu.BindGroupLayoutEntry{
		Binding:          2,
		Visibility:       gpu.ShaderStageVertex | gpu.ShaderStageFragment,
		Type:             gpu.BindingTypeUniformBuffer,
		HasDynamicOffset: true,
		MinBindingSize:   64,
	})
	require.Equal(t, uint32(2), e.Binding)
	require.True(t, e.Buffer.HasDynamicOffset)
	require.Equal(t, uint64(64), e.Buffer.MinBindingSize)

	s := layoutEntryToWGPU(gpu.BindGroupLayoutEntry{Binding: 0, Type: gpu.BindingTypeComparisonSampler})
	require.Zero(t, s.Buffer.MinBindingSize)
	require.NotZero(t, s.Sampler.Type)
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := New(backend.Options{Width: 64, Height: 64})
	if err != nil {
		t.Skipf("webgpu unavailable: %v", err)
	}
	t.Cleanup(c.Destroy)
	return c
}

func TestBufferWriteReadRoundTrip(t *testing.T) {
	c := newTestContext(t)

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf, err := c.CreateBufferInit(&gpu.BufferDescriptor{
		Label: "roundtrip",
		Usage: gpu.BufferUsageCopySrc | gpu.BufferUsageCopyDst,
	}, data)
	require.NoError(t, err)
	defer buf.Destroy()

	require.Equal(t, uint64(len(data)), buf.Size())
	got, err := buf.Read()
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestBufferReadRequiresCopySrc(t *testing.T) {
	c := newTestContext(t)

	buf, err := c.CreateBuffer(&gpu.BufferDescriptor{Size: 16, Usage: gpu.BufferUsageUniform})
	require.NoError(t, err)
	defer buf.Destroy()

	_, err = buf.Read()
	require.ErrorIs(t, err, gpu.ErrReadbackUnsupported)
}

func TestStatsAccounting(t *testing.T) {
	c := newTestContext(t)

	buf, err := c.CreateBuffer(&gpu.BufferDescriptor{Size: 256, Usage: gpu.BufferUsageUniform})
	require.NoError(t, err)
	require.Equal(t, int64(1), c.Stats().ResourceCount(gpu.KindBuffer))
	require.Equal(t, uint64(256), c.Stats().BufferBytes)

	buf.Destroy()
	buf.Destroy() // idempotent
	require.Equal(t, int64(0), c.Stats().ResourceCount(gpu.KindBuffer))
	require.Equal(t, uint64(0), c.Stats().BufferBytes)
}

func TestClearAndReadPixels(t *testing.T) {
	c := newTestContext(t)

	tex, err := c.CreateTexture(&gpu.TextureDescriptor{
		Label:  "target",
		Size:   gpu.Extent3D{Width: 4, Height: 4},
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopySrc,
	})
	require.NoError(t, err)
	defer tex.Destroy()

	view, err := tex.CreateView(nil)
	require.NoError(t, err)
	defer view.Destroy()

	enc, err := c.CreateCommandEncoder("clear")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(&gpu.RenderPassDescriptor{
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gpu.LoadOpClear,
			StoreOp:    gpu.StoreOpStore,
			ClearValue: gpu.Color{R: 1, A: 1},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, pass.End())

	cb, err := enc.Finish()
	require.NoError(t, err)
	require.NoError(t, c.Submit(cb))

	pixels, err := c.ReadPixels(tex, 0, 0, 4, 4)
	require.NoError(t, err)
	require.Len(t, pixels, 4*4*4)
	require.Equal(t, byte(0xFF), pixels[0]) // R
	require.Equal(t, byte(0x00), pixels[1]) // G
	require.Equal(t, byte(0xFF), pixels[3]) // A
}

func TestEncoderStateMachine(t *testing.T) {
	c := newTestContext(t)

	tex, err := c.CreateTexture(&gpu.TextureDescriptor{
		Size:   gpu.Extent3D{Width: 4, Height: 4},
		Format: gpu.TextureFormatRGBA8Unorm,
		Usage:  gpu.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)
	defer tex.Destroy()
	view, err := tex.CreateView(nil)
	require.NoError(t, err)
	defer view.Destroy()

	desc := &gpu.RenderPassDescriptor{
		ColorAttachments: []gpu.RenderPassColorAttachment{{View: view, LoadOp: gpu.LoadOpClear, StoreOp: gpu.StoreOpStore}},
	}

	enc, err := c.CreateCommandEncoder("state")
	require.NoError(t, err)

	pass, err := enc.BeginRenderPass(desc)
	require.NoError(t, err)

	// No second pass while one records, no finish either.
	_, err = enc.BeginRenderPass(desc)
	require.ErrorIs(t, err, gpu.ErrPassActive)
	_, err = enc.Finish()
	require.ErrorIs(t, err, gpu.ErrPassActive)

	require.NoError(t, pass.End())
	require.ErrorIs(t, pass.End(), gpu.ErrPassEnded)

	_, err = enc.Finish()
	require.NoError(t, err)
	_, err = enc.Finish()
	require.ErrorIs(t, err, gpu.ErrEncoderFinished)
}

func TestSurfaceTextureStaleAfterPresent(t *testing.T) {
	c := newTestContext(t)

	tex, err := c.CurrentTexture()
	require.NoError(t, err)
	view, err := tex.CreateView(nil)
	require.NoError(t, err)

	enc, err := c.CreateCommandEncoder("frame")
	require.NoError(t, err)
	pass, err := enc.BeginRenderPass(&gpu.RenderPassDescriptor{
		ColorAttachments: []gpu.RenderPassColorAttachment{{View: view, LoadOp: gpu.LoadOpClear, StoreOp: gpu.StoreOpStore}},
	})
	require.NoError(t, err)
	require.NoError(t, pass.End())
	cb, err := enc.Finish()
	require.NoError(t, err)

	c.Present()
	require.ErrorIs(t, c.Submit(cb), gpu.ErrStaleSurfaceTexture)
}

func TestContextLostGatesOperations(t *testing.T) {
	c := newTestContext(t)

	c.SetLost("test")
	_, err := c.CreateBuffer(&gpu.BufferDescriptor{Size: 4, Usage: gpu.BufferUsageUniform})
	require.ErrorIs(t, err, gpu.ErrContextLost)

	require.NoError(t, c.Restore())
	_, err = c.CreateBuffer(&gpu.BufferDescriptor{Size: 4, Usage: gpu.BufferUsageUniform})
	require.NoError(t, err)
}

func TestDestroyedContextRejectsEverything(t *testing.T) {
	c, err := New(backend.Options{Width: 8, Height: 8})
	if err != nil {
		t.Skipf("webgpu unavailable: %v", err)
	}
	c.Destroy()
	c.Destroy() // idempotent

	_, err = c.CreateCommandEncoder("late")
	require.ErrorIs(t, err, gpu.ErrContextDestroyed)
	require.ErrorIs(t, c.Submit(), gpu.ErrContextDestroyed)
}
