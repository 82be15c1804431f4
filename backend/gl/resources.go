// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gl

import (
	"fmt"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/gldriver"
)

// buffer is the gl backend's gpu.Buffer.
type buffer struct {
	ctx       *Context
	id        uint64
	handle    gldriver.Buffer
	size      uint64
	usage     gpu.BufferUsage
	label     string
	destroyed bool
}

// CreateBuffer allocates a driver buffer.
func (c *Context) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	h, err := c.drv.NewBuffer(int(desc.Size))
	if err != nil {
		return nil, err
	}
	c.stats.AddResource(gpu.KindBuffer)
	c.stats.BufferBytes += desc.Size
	return &buffer{
		ctx:    c,
		id:     gpu.NextID(gpu.KindBuffer),
		handle: h,
		size:   desc.Size,
		usage:  desc.Usage,
		label:  desc.Label,
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
	c.drv.BufferSubData(buf.(*buffer).handle, 0, data)
	return buf, nil
}

func (b *buffer) ID() uint64             { return b.id }
func (b *buffer) Size() uint64           { return b.size }
func (b *buffer) Usage() gpu.BufferUsage { return b.usage }
func (b *buffer) Label() string          { return b.label }

// Read blocks and returns a copy of the buffer contents.
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
	b.ctx.drv.Finish()
	dst := make([]byte, b.size)
	if err := b.ctx.drv.ReadBuffer(b.handle, 0, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// Destroy releases the buffer. Idempotent.
func (b *buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.ctx.drv.DeleteBuffer(b.handle)
	b.ctx.stats.RemoveResource(gpu.KindBuffer)
	b.ctx.stats.BufferBytes -= b.size
}

// texture is the gl backend's gpu.Texture. Surface textures (from
// CurrentTexture) carry the frame serial they were issued for and are not
// counted as resources: the backend owns the underlying target.
type texture struct {
	ctx       *Context
	id        uint64
	handle    gldriver.Texture
	desc      gpu.TextureDescriptor
	surface   bool
	frame     uint64
	destroyed bool
}

// CreateTexture allocates a driver texture.
func (c *Context) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	r := desc.Resolved()
	h, err := c.drv.NewTexture(gldriver.TextureDesc{
		Format:  r.Format,
		Width:   int(r.Size.Width),
		Height:  int(r.Size.Height),
		Layers:  int(r.Size.DepthOrArrayLayers),
		Levels:  int(r.MipLevelCount),
		Samples: int(r.SampleCount),
		Is3D:    r.Dimension == gpu.TextureDimension3D,
	})
	if err != nil {
		return nil, err
	}
	c.stats.AddResource(gpu.KindTexture)
	if !r.Format.IsDepthOrStencil() {
		c.stats.TextureBytes += uint64(r.Size.Width) * uint64(r.Size.Height) *
			uint64(r.Size.DepthOrArrayLayers) * uint64(r.Format.BytesPerTexel())
	}
	return &texture{
		ctx:    c,
		id:     gpu.NextID(gpu.KindTexture),
		handle: h,
		desc:   r,
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

// CreateView returns a view. GL core has no texture views; the view is a
// typed reference to the texture, always level 0 at this layer.
func (t *texture) CreateView(desc *gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	if err := t.ctx.check(); err != nil {
		return nil, err
	}
	if t.destroyed {
		return nil, fmt.Errorf("%w: view of destroyed texture", gpu.ErrInvalidDescriptor)
	}
	format := t.desc.Format
	if desc != nil && desc.Format != gpu.TextureFormatUndefined {
		format = desc.Format
	}
	t.ctx.stats.AddResource(gpu.KindTextureView)
	return &textureView{
		tex:    t,
		id:     gpu.NextID(gpu.KindTextureView),
		format: format,
	}, nil
}

// Destroy releases the texture. Idempotent; a no-op on surface textures.
func (t *texture) Destroy() {
	if t.destroyed || t.surface {
		return
	}
	t.destroyed = true
	t.ctx.drv.DeleteTexture(t.handle)
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
	v.tex.ctx.stats.RemoveResource(gpu.KindTextureView)
}

// sampler is the gl backend's gpu.Sampler.
type sampler struct {
	ctx       *Context
	id        uint64
	handle    gldriver.Sampler
	destroyed bool
}

// CreateSampler creates a driver sampler object.
func (c *Context) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	h, err := c.drv.NewSampler(gldriver.SamplerDesc{
		WrapU:         desc.AddressModeU,
		WrapV:         desc.AddressModeV,
		WrapW:         desc.AddressModeW,
		MagLinear:     desc.MagFilter == gpu.FilterModeLinear,
		MinLinear:     desc.MinFilter == gpu.FilterModeLinear,
		MipLinear:     desc.MipmapFilter == gpu.FilterModeLinear,
		Compare:       desc.Compare,
		MaxAnisotropy: int(desc.MaxAnisotropy),
	})
	if err != nil {
		return nil, err
	}
	c.stats.AddResource(gpu.KindSampler)
	return &sampler{ctx: c, id: gpu.NextID(gpu.KindSampler), handle: h}, nil
}

func (s *sampler) ID() uint64 { return s.id }

func (s *sampler) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.ctx.drv.DeleteSampler(s.handle)
	s.ctx.stats.RemoveResource(gpu.KindSampler)
}

// shaderModule holds single-stage GLSL source. Compilation happens when a
// pipeline links the module, so the program cache in the driver sees whole
// vertex+fragment pairs.
type shaderModule struct {
	ctx       *Context
	id        uint64
	label     string
	code      string
	destroyed bool
}

// CreateShaderModule records GLSL source for later linking.
func (c *Context) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if desc.Code == "" {
		return nil, fmt.Errorf("%w: shader module source is empty", gpu.ErrInvalidDescriptor)
	}
	c.stats.AddResource(gpu.KindShaderModule)
	return &shaderModule{
		ctx:   c,
		id:    gpu.NextID(gpu.KindShaderModule),
		label: desc.Label,
		code:  desc.Code,
	}, nil
}

func (m *shaderModule) ID() uint64    { return m.id }
func (m *shaderModule) Label() string { return m.label }

func (m *shaderModule) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.ctx.stats.RemoveResource(gpu.KindShaderModule)
}
