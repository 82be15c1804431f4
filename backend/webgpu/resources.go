// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/molviz/gpu"
)

// buffer is the webgpu backend's gpu.Buffer.
type buffer struct {
	ctx       *Context
	id        uint64
	buf       *wgpu.Buffer
	size      uint64
	usage     gpu.BufferUsage
	label     string
	destroyed bool
}

// CreateBuffer allocates a device buffer.
func (c *Context) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: bufferUsageToWGPU(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create buffer: %w", err)
	}
	c.stats.AddResource(gpu.KindBuffer)
	c.stats.BufferBytes += desc.Size
	return &buffer{
		ctx:   c,
		id:    gpu.NextID(gpu.KindBuffer),
		buf:   buf,
		size:  desc.Size,
		usage: desc.Usage,
		label: desc.Label,
	}, nil
}

// CreateBufferInit allocates a buffer sized and filled from data.
func (c *Context) CreateBufferInit(desc *gpu.BufferDescriptor, data []byte) (gpu.Buffer, error) {
	d := *desc
	d.Size = uint64(len(data))
	buf, err := c.CreateBuffer(&d)
	if err != nil {
		return nil, err
	}
	if err := c.queue.WriteBuffer(buf.(*buffer).buf, 0, data); err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}

func (b *buffer) ID() uint64             { return b.id }
func (b *buffer) Size() uint64           { return b.size }
func (b *buffer) Usage() gpu.BufferUsage { return b.usage }
func (b *buffer) Label() string          { return b.label }

// Read copies the buffer into a mapped staging buffer and blocks until
// the copy retires.
func (b *buffer) Read() ([]byte, error) {
	if err := b.ctx.check(); err != nil {
		return nil, err
	}
	if b.destroyed {
		return nil, fmt.Errorf("%w: read from destroyed buffer", gpu.ErrInvalidDescriptor)
	}
	if b.usage&gpu.BufferUsageCopySrc == 0 {
		return nil, fmt.Errorf("%w: buffer lacks copy-src usage", gpu.ErrReadbackUnsupported)
	}
	staging, err := b.ctx.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  b.size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	enc, err := b.ctx.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	if err := enc.CopyBufferToBuffer(b.buf, 0, staging, 0, b.size); err != nil {
		enc.Release()
		return nil, err
	}
	cb, err := enc.Finish(nil)
	if err != nil {
		enc.Release()
		return nil, err
	}
	b.ctx.queue.Submit(cb)
	cb.Release()
	enc.Release()
	return b.ctx.mapRead(staging, b.size)
}

// Destroy releases the buffer. Idempotent.
func (b *buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.buf.Release()
	b.ctx.stats.RemoveResource(gpu.KindBuffer)
	b.ctx.stats.BufferBytes -= b.size
}

// texture is the webgpu backend's gpu.Texture. Surface textures (from
// CurrentTexture) carry the frame serial they were issued for and are not
// counted as resources: the swap chain owns the underlying memory.
type texture struct {
	ctx       *Context
	id        uint64
	tex       *wgpu.Texture
	desc      gpu.TextureDescriptor
	surface   bool
	frame     uint64
	destroyed bool
}

// CreateTexture allocates a device texture.
func (c *Context) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	r := desc.Resolved()
	format, ok := textureFormatToWGPU(r.Format)
	if !ok {
		return nil, fmt.Errorf("%w: texture format %s", gpu.ErrInvalidDescriptor, r.Format)
	}
	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: r.Label,
		Size: wgpu.Extent3D{
			Width:              r.Size.Width,
			Height:             r.Size.Height,
			DepthOrArrayLayers: r.Size.DepthOrArrayLayers,
		},
		MipLevelCount: r.MipLevelCount,
		SampleCount:   r.SampleCount,
		Dimension:     textureDimensionToWGPU(r.Dimension),
		Format:        format,
		Usage:         textureUsageToWGPU(r.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create texture: %w", err)
	}
	c.stats.AddResource(gpu.KindTexture)
	if !r.Format.IsDepthOrStencil() {
		c.stats.TextureBytes += uint64(r.Size.Width) * uint64(r.Size.Height) *
			uint64(r.Size.DepthOrArrayLayers) * uint64(r.Format.BytesPerTexel())
	}
	return &texture{
		ctx:  c,
		id:   gpu.NextID(gpu.KindTexture),
		tex:  tex,
		desc: r,
	}, nil
}

func (t *texture) ID() uint64                { return t.id }
func (t *texture) Width() uint32             { return t.desc.Size.Width }
func (t *texture) Height() uint32            { return t.desc.Size.Height }
func (t *texture) Depth() uint32             { return t.desc.Size.DepthOrArrayLayers }
func (t *texture) MipLevelCount() uint32     { return t.desc.MipLevelCount }
func (t *texture) SampleCount() uint32       { return t.desc.SampleCount }
func (t *texture) Format() gpu.TextureFormat { return t.desc.Format }
func (t *texture) Usage() gpu.TextureUsage   { return t.desc.Usage }
func (t *texture) Label() string             { return t.desc.Label }

// CreateView creates a native view of this texture.
func (t *texture) CreateView(desc *gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	if err := t.ctx.check(); err != nil {
		return nil, err
	}
	if t.destroyed {
		return nil, fmt.Errorf("%w: view of destroyed texture", gpu.ErrInvalidDescriptor)
	}
	format := t.desc.Format
	var native *wgpu.TextureView
	var err error
	if desc == nil {
		native, err = t.tex.CreateView(nil)
	} else {
		if desc.Format != gpu.TextureFormatUndefined {
			format = desc.Format
		}
		nf, ok := textureFormatToWGPU(format)
		if !ok {
			return nil, fmt.Errorf("%w: view format %s", gpu.ErrInvalidDescriptor, format)
		}
		mips := desc.MipLevelCount
		if mips == 0 {
			mips = t.desc.MipLevelCount - desc.BaseMipLevel
		}
		layers := desc.ArrayLayerCount
		if layers == 0 {
			layers = t.desc.Size.DepthOrArrayLayers - desc.BaseArrayLayer
		}
		native, err = t.tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           desc.Label,
			Format:          nf,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    desc.BaseMipLevel,
			MipLevelCount:   mips,
			BaseArrayLayer:  desc.BaseArrayLayer,
			ArrayLayerCount: layers,
			Aspect:          wgpu.TextureAspectAll,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("webgpu: create texture view: %w", err)
	}
	t.ctx.stats.AddResource(gpu.KindTextureView)
	return &textureView{
		tex:    t,
		id:     gpu.NextID(gpu.KindTextureView),
		view:   native,
		format: format,
	}, nil
}

// Destroy releases the texture. Idempotent; a no-op on surface textures.
func (t *texture) Destroy() {
	if t.destroyed || t.surface {
		return
	}
	t.destroyed = true
	t.tex.Release()
	t.ctx.stats.RemoveResource(gpu.KindTexture)
	if !t.desc.Format.IsDepthOrStencil() {
		t.ctx.stats.TextureBytes -= uint64(t.desc.Size.Width) * uint64(t.desc.Size.Height) *
			uint64(t.desc.Size.DepthOrArrayLayers) * uint64(t.desc.Format.BytesPerTexel())
	}
}

// textureView is a non-owning reference to a texture.
type textureView struct {
	tex       *texture
	id        uint64
	view      *wgpu.TextureView
	format    gpu.TextureFormat
	destroyed bool
}

func (v *textureView) ID() uint64                { return v.id }
func (v *textureView) Format() gpu.TextureFormat { return v.format }

func (v *textureView) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	v.view.Release()
	v.tex.ctx.stats.RemoveResource(gpu.KindTextureView)
}

// sampler is the webgpu backend's gpu.Sampler.
type sampler struct {
	ctx       *Context
	id        uint64
	smp       *wgpu.Sampler
	destroyed bool
}

// CreateSampler creates a device sampler.
func (c *Context) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	maxAniso := desc.MaxAnisotropy
	if maxAniso == 0 {
		maxAniso = 1
	}
	smp, err := c.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  addressModeToWGPU(desc.AddressModeU),
		AddressModeV:  addressModeToWGPU(desc.AddressModeV),
		AddressModeW:  addressModeToWGPU(desc.AddressModeW),
		MagFilter:     filterModeToWGPU(desc.MagFilter),
		MinFilter:     filterModeToWGPU(desc.MinFilter),
		MipmapFilter:  mipmapFilterToWGPU(desc.MipmapFilter),
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       compareFunctionToWGPU(desc.Compare),
		MaxAnisotropy: maxAniso,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create sampler: %w", err)
	}
	c.stats.AddResource(gpu.KindSampler)
	return &sampler{ctx: c, id: gpu.NextID(gpu.KindSampler), smp: smp}, nil
}

func (s *sampler) ID() uint64 { return s.id }

func (s *sampler) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.smp.Release()
	s.ctx.stats.RemoveResource(gpu.KindSampler)
}

// shaderModule wraps a compiled WGSL module. Unlike the gl backend,
// compilation errors surface here.
type shaderModule struct {
	ctx       *Context
	id        uint64
	mod       *wgpu.ShaderModule
	label     string
	destroyed bool
}

// CreateShaderModule compiles WGSL source.
func (c *Context) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if desc.Code == "" {
		return nil, fmt.Errorf("%w: shader module source is empty", gpu.ErrInvalidDescriptor)
	}
	mod, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", gpu.ErrShaderCompile, desc.Label, err)
	}
	c.stats.AddResource(gpu.KindShaderModule)
	return &shaderModule{
		ctx:   c,
		id:    gpu.NextID(gpu.KindShaderModule),
		mod:   mod,
		label: desc.Label,
	}, nil
}

func (m *shaderModule) ID() uint64    { return m.id }
func (m *shaderModule) Label() string { return m.label }

func (m *shaderModule) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.mod.Release()
	m.ctx.stats.RemoveResource(gpu.KindShaderModule)
}
