// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Enum string forms are a wire-level contract; downstream pipeline and
// shader descriptors are built against these literal identifiers.
func TestTextureFormatStrings(t *testing.T) {
	cases := map[TextureFormat]string{
		TextureFormatUndefined:           "undefined",
		TextureFormatRGBA8Unorm:          "rgba8unorm",
		TextureFormatRGBA8UnormSrgb:      "rgba8unorm-srgb",
		TextureFormatBGRA8Unorm:          "bgra8unorm",
		TextureFormatRGBA16Float:         "rgba16float",
		TextureFormatRGBA32Float:         "rgba32float",
		TextureFormatDepth24PlusStencil8: "depth24plus-stencil8",
		TextureFormatDepth32Float:        "depth32float",
	}
	for format, want := range cases {
		require.Equal(t, want, format.String())
	}
}

func TestVertexFormatStrings(t *testing.T) {
	cases := map[VertexFormat]string{
		VertexFormatFloat32:   "float32",
		VertexFormatFloat32x3: "float32x3",
		VertexFormatUint8x4:   "uint8x4",
		VertexFormatSnorm16x2: "snorm16x2",
		VertexFormatSint32x4:  "sint32x4",
	}
	for format, want := range cases {
		require.Equal(t, want, format.String())
	}
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "triangle-list", PrimitiveTopologyTriangleList.String())
	require.Equal(t, "line-strip", PrimitiveTopologyLineStrip.String())
	require.Equal(t, "one-minus-src-alpha", BlendFactorOneMinusSrcAlpha.String())
	require.Equal(t, "reverse-subtract", BlendOperationReverseSubtract.String())
	require.Equal(t, "less-equal", CompareFunctionLessEqual.String())
	require.Equal(t, "increment-clamp", StencilOperationIncrementClamp.String())
	require.Equal(t, "clear", LoadOpClear.String())
	require.Equal(t, "store", StoreOpStore.String())
	require.Equal(t, "mirror-repeat", AddressModeMirrorRepeat.String())
	require.Equal(t, "ccw", FrontFaceCCW.String())
	require.Equal(t, "back", CullModeBack.String())
}

func TestBytesPerTexel(t *testing.T) {
	require.Equal(t, uint32(1), TextureFormatR8Unorm.BytesPerTexel())
	require.Equal(t, uint32(4), TextureFormatRGBA8Unorm.BytesPerTexel())
	require.Equal(t, uint32(8), TextureFormatRGBA16Float.BytesPerTexel())
	require.Equal(t, uint32(16), TextureFormatRGBA32Float.BytesPerTexel())
}

func TestIsDepthOrStencil(t *testing.T) {
	require.True(t, TextureFormatDepth16Unorm.IsDepthOrStencil())
	require.True(t, TextureFormatDepth24PlusStencil8.IsDepthOrStencil())
	require.True(t, TextureFormatDepth32Float.IsDepthOrStencil())
	require.False(t, TextureFormatRGBA8Unorm.IsDepthOrStencil())
	require.False(t, TextureFormatR32Float.IsDepthOrStencil())
}

func TestBufferDescriptorValidate(t *testing.T) {
	err := (&BufferDescriptor{Usage: BufferUsageVertex}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)

	err = (&BufferDescriptor{Size: 16}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)

	err = (&BufferDescriptor{Size: 16, Usage: BufferUsageVertex | BufferUsageCopyDst}).Validate()
	require.NoError(t, err)
}

func TestTextureDescriptorValidate(t *testing.T) {
	good := TextureDescriptor{
		Size:   Extent3D{Width: 4, Height: 4},
		Format: TextureFormatRGBA8Unorm,
		Usage:  TextureUsageTextureBinding,
	}
	require.NoError(t, good.Validate())

	zero := good
	zero.Size.Width = 0
	require.ErrorIs(t, zero.Validate(), ErrInvalidDescriptor)

	noFormat := good
	noFormat.Format = TextureFormatUndefined
	require.ErrorIs(t, noFormat.Validate(), ErrInvalidDescriptor)

	noUsage := good
	noUsage.Usage = 0
	require.ErrorIs(t, noUsage.Validate(), ErrInvalidDescriptor)
}

func TestBindGroupDescriptorValidate(t *testing.T) {
	layout := stubLayout{entries: []BindGroupLayoutEntry{
		{Binding: 0, Type: BindingTypeUniformBuffer},
		{Binding: 1, Type: BindingTypeSampler},
	}}

	err := (&BindGroupDescriptor{
		Layout: layout,
		Entries: []BindGroupEntry{
			{Binding: 0, Buffer: stubBuffer{}},
			{Binding: 1, Sampler: stubSampler{}},
		},
	}).Validate()
	require.NoError(t, err)

	// Wrong resource class for the declared binding type.
	err = (&BindGroupDescriptor{
		Layout: layout,
		Entries: []BindGroupEntry{
			{Binding: 0, Sampler: stubSampler{}},
			{Binding: 1, Sampler: stubSampler{}},
		},
	}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)

	// Binding count mismatch.
	err = (&BindGroupDescriptor{
		Layout:  layout,
		Entries: []BindGroupEntry{{Binding: 0, Buffer: stubBuffer{}}},
	}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)

	// Undeclared binding index.
	err = (&BindGroupDescriptor{
		Layout: layout,
		Entries: []BindGroupEntry{
			{Binding: 0, Buffer: stubBuffer{}},
			{Binding: 7, Sampler: stubSampler{}},
		},
	}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestRenderPipelineDescriptorValidate(t *testing.T) {
	err := (&RenderPipelineDescriptor{}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)

	err = (&RenderPipelineDescriptor{
		Vertex:   VertexState{Module: stubModule{}},
		Fragment: &FragmentState{},
	}).Validate()
	require.ErrorIs(t, err, ErrInvalidDescriptor)

	err = (&RenderPipelineDescriptor{
		Vertex: VertexState{Module: stubModule{}},
	}).Validate()
	require.NoError(t, err)
}

func TestTextureDescriptorResolved(t *testing.T) {
	d := TextureDescriptor{
		Size:   Extent3D{Width: 8, Height: 8},
		Format: TextureFormatRGBA8Unorm,
		Usage:  TextureUsageTextureBinding,
	}
	r := d.Resolved()
	require.Equal(t, uint32(1), r.Size.DepthOrArrayLayers)
	require.Equal(t, uint32(1), r.MipLevelCount)
	require.Equal(t, uint32(1), r.SampleCount)
}

// Minimal handle stubs for descriptor validation, which only checks
// presence and declared types.
type stubLayout struct{ entries []BindGroupLayoutEntry }

func (stubLayout) ID() uint64 { return 1 }
func (s stubLayout) Entries() []BindGroupLayoutEntry {
	return s.entries
}
func (stubLayout) Destroy() {}

type stubBuffer struct{}

func (stubBuffer) ID() uint64            { return 1 }
func (stubBuffer) Size() uint64          { return 64 }
func (stubBuffer) Usage() BufferUsage    { return BufferUsageUniform }
func (stubBuffer) Label() string         { return "" }
func (stubBuffer) Read() ([]byte, error) { return nil, ErrReadbackUnsupported }
func (stubBuffer) Destroy()              {}

type stubSampler struct{}

func (stubSampler) ID() uint64 { return 1 }
func (stubSampler) Destroy()   {}

type stubModule struct{}

func (stubModule) ID() uint64    { return 1 }
func (stubModule) Label() string { return "" }
func (stubModule) Destroy()      {}
