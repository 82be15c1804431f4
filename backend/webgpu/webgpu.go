// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package webgpu is the explicit backend: a thin adapter over wgpu-native.
//
// The explicit pipeline/command model maps almost one-to-one onto the
// native API, so this backend mostly translates descriptors and enforces
// the contracts the portable layer promises on both backends: idempotent
// destroy with exact stats accounting, encoder/pass state errors, and
// surface-texture staleness checked at Submit.
//
// Construction recovers from the panic wgpu raises when the native
// library is missing, turning it into an ordinary error so the factory
// can fall back to the gl backend.
package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/backend"
)

func init() {
	backend.Register(backend.WebGPU, func(opts backend.Options) (gpu.Context, error) {
		return New(opts)
	})
}

// Context is the webgpu backend's gpu.Context.
type Context struct {
	gpu.LossTracker

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// surface is non-nil when presenting to a window; ownsSurface marks
	// surfaces created here from a descriptor rather than handed in.
	surface     *wgpu.Surface
	ownsSurface bool

	stats    gpu.Stats
	limits   gpu.Limits
	features gpu.Features

	pixelScale    float64
	width, height int
	surfaceFormat gpu.TextureFormat

	// frame is the presentation serial; surface textures handed out by
	// CurrentTexture are stamped with it and rejected once it advances.
	frame  uint64
	curTex *texture

	// target backs CurrentTexture when no surface is attached.
	target *wgpu.Texture

	destroyed bool
}

// createInstance turns the panic wgpu raises without a native library
// into an error.
func createInstance() (instance *wgpu.Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()
	return wgpu.CreateInstance(nil), nil
}

// New constructs the webgpu backend context. opts.Surface may be a
// *wgpu.Surface from the embedding window system, a *wgpu.SurfaceDescriptor
// to create one here, or nil for a headless context rendering to an
// offscreen target.
func New(opts backend.Options) (*Context, error) {
	instance, err := createInstance()
	if err != nil {
		return nil, err
	}

	var surface *wgpu.Surface
	ownsSurface := false
	switch s := opts.Surface.(type) {
	case nil:
	case *wgpu.Surface:
		surface = s
	case *wgpu.SurfaceDescriptor:
		surface = instance.CreateSurface(s)
		ownsSurface = true
	default:
		instance.Release()
		return nil, fmt.Errorf("%w: unsupported surface type %T", gpu.ErrInvalidDescriptor, opts.Surface)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
		CompatibleSurface: surface,
	})
	if err != nil {
		if ownsSurface {
			surface.Release()
		}
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	info := adapter.GetInfo()

	limits := wgpu.DefaultLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "molviz",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		adapter.Release()
		if ownsSurface {
			surface.Release()
		}
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	queue := device.GetQueue()

	gpu.Logger().Info("webgpu: context created",
		"adapter", info.Name, "driver", info.DriverDescription)

	c := &Context{
		instance:      instance,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surface:       surface,
		ownsSurface:   ownsSurface,
		pixelScale:    opts.PixelScale,
		width:         opts.Width,
		height:        opts.Height,
		surfaceFormat: opts.SurfaceFormat,
	}
	if c.pixelScale == 0 {
		c.pixelScale = 1
	}
	c.limits = limitsFromWGPU(limits)
	c.features = gpu.Features{
		ComputeShaders:    true,
		StorageBuffers:    true,
		StorageTextures:   true,
		IndirectDraw:      true,
		Float32Filterable: true,
	}

	if surface != nil && c.width > 0 && c.height > 0 {
		c.configureSurface()
	} else if c.surfaceFormat == gpu.TextureFormatUndefined {
		c.surfaceFormat = gpu.TextureFormatRGBA8Unorm
	}
	return c, nil
}

// configureSurface negotiates the surface format against the adapter's
// capabilities and configures the swap chain.
func (c *Context) configureSurface() {
	caps := c.surface.GetCapabilities(c.adapter)
	format := caps.Formats[0]
	if want, ok := textureFormatToWGPU(c.surfaceFormat); ok {
		for _, f := range caps.Formats {
			if f == want {
				format = f
				break
			}
		}
	}
	c.surfaceFormat = textureFormatFromWGPU(format)
	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(c.width),
		Height:      uint32(c.height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})
}

func limitsFromWGPU(l wgpu.Limits) gpu.Limits {
	return gpu.Limits{
		MaxTextureDimension2D:             l.MaxTextureDimension2D,
		MaxTextureDimension3D:             l.MaxTextureDimension3D,
		MaxTextureArrayLayers:             l.MaxTextureArrayLayers,
		MaxBindGroups:                     l.MaxBindGroups,
		MaxBindingsPerBindGroup:           l.MaxBindingsPerBindGroup,
		MaxColorAttachments:               l.MaxColorAttachments,
		MaxVertexBuffers:                  l.MaxVertexBuffers,
		MaxVertexAttributes:               l.MaxVertexAttributes,
		MaxUniformBufferBindingSize:       l.MaxUniformBufferBindingSize,
		MaxStorageBufferBindingSize:       l.MaxStorageBufferBindingSize,
		MaxBufferSize:                     l.MaxBufferSize,
		MaxComputeWorkgroupSizeX:          l.MaxComputeWorkgroupSizeX,
		MaxComputeWorkgroupSizeY:          l.MaxComputeWorkgroupSizeY,
		MaxComputeWorkgroupSizeZ:          l.MaxComputeWorkgroupSizeZ,
		MaxComputeInvocationsPerWorkgroup: l.MaxComputeInvocationsPerWorkgroup,
		MaxComputeWorkgroupsPerDimension:  l.MaxComputeWorkgroupsPerDimension,
		MinUniformBufferOffsetAlignment:   l.MinUniformBufferOffsetAlignment,
		MinStorageBufferOffsetAlignment:   l.MinStorageBufferOffsetAlignment,
	}
}

// Backend returns "webgpu".
func (c *Context) Backend() string { return backend.WebGPU }

// Stats returns the live resource and draw counters.
func (c *Context) Stats() *gpu.Stats { return &c.stats }

// Limits returns the device limits.
func (c *Context) Limits() gpu.Limits { return c.limits }

// Features returns the capability flags.
func (c *Context) Features() gpu.Features { return c.features }

// PixelScale returns the surface pixel ratio.
func (c *Context) PixelScale() float64 { return c.pixelScale }

// SetPixelScale records the surface pixel ratio.
func (c *Context) SetPixelScale(scale float64) { c.pixelScale = scale }

// check gates every operation on the loss and destruction state.
func (c *Context) check() error {
	if c.destroyed {
		return gpu.ErrContextDestroyed
	}
	if c.IsLost() {
		return gpu.ErrContextLost
	}
	return nil
}

// CreateCommandEncoder starts recording a native command stream.
func (c *Context) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	enc, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	c.stats.AddResource(gpu.KindCommandEncoder)
	return &commandEncoder{ctx: c, label: label, enc: enc}, nil
}

// Submit rejects buffers recorded against a stale surface texture, then
// hands them to the device queue in array order.
func (c *Context) Submit(buffers ...gpu.CommandBuffer) error {
	if err := c.check(); err != nil {
		return err
	}
	native := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, cb := range buffers {
		b, ok := cb.(*commandBuffer)
		if !ok {
			return fmt.Errorf("%w: command buffer from a different backend", gpu.ErrInvalidDescriptor)
		}
		for _, frame := range b.surfaceFrames {
			if frame != c.frame {
				return fmt.Errorf("%w: surface texture from frame %d used in frame %d",
					gpu.ErrStaleSurfaceTexture, frame, c.frame)
			}
		}
		b.tally(&c.stats)
		native = append(native, b.buf)
	}
	c.queue.Submit(native...)
	return nil
}

// WriteBuffer copies data into buf at offset via the queue.
func (c *Context) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return fmt.Errorf("%w: write to destroyed or foreign buffer", gpu.ErrInvalidDescriptor)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: write of %d bytes at %d exceeds buffer size %d",
			gpu.ErrInvalidDescriptor, len(data), offset, b.size)
	}
	return c.queue.WriteBuffer(b.buf, offset, data)
}

// WriteTexture copies tightly packed texel data into mip 0 of tex.
func (c *Context) WriteTexture(tex gpu.Texture, data []byte) error {
	if err := c.check(); err != nil {
		return err
	}
	t, ok := tex.(*texture)
	if !ok || t.destroyed {
		return fmt.Errorf("%w: write to destroyed or foreign texture", gpu.ErrInvalidDescriptor)
	}
	w, h := t.desc.Size.Width, t.desc.Size.Height
	bpt := t.desc.Format.BytesPerTexel()
	if want := uint64(w) * uint64(h) * uint64(bpt); uint64(len(data)) < want {
		return fmt.Errorf("%w: texture write needs %d bytes, got %d",
			gpu.ErrInvalidDescriptor, want, len(data))
	}
	return c.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  w * bpt,
			RowsPerImage: h,
		},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

// ReadPixels copies the region into a mapped staging buffer with rows
// aligned to the native 256-byte requirement, then strips the padding.
func (c *Context) ReadPixels(tex gpu.Texture, x, y, width, height uint32) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	t, ok := tex.(*texture)
	if !ok || t.destroyed {
		return nil, fmt.Errorf("%w: read from destroyed or foreign texture", gpu.ErrInvalidDescriptor)
	}
	if t.desc.Usage&gpu.TextureUsageCopySrc == 0 {
		return nil, fmt.Errorf("%w: texture lacks copy-src usage", gpu.ErrReadbackUnsupported)
	}
	bpt := t.desc.Format.BytesPerTexel()
	if bpt == 0 {
		return nil, fmt.Errorf("%w: format %s", gpu.ErrReadbackUnsupported, t.desc.Format)
	}
	rowBytes := width * bpt
	align := uint32(wgpu.CopyBytesPerRowAlignment)
	paddedRow := (rowBytes + align - 1) / align * align

	staging, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  uint64(paddedRow) * uint64(height),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	defer staging.Release()

	enc, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	err = enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: x, Y: y},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: staging,
			Layout: wgpu.TextureDataLayout{
				BytesPerRow:  paddedRow,
				RowsPerImage: height,
			},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		enc.Release()
		return nil, err
	}
	cb, err := enc.Finish(nil)
	if err != nil {
		enc.Release()
		return nil, err
	}
	c.queue.Submit(cb)
	cb.Release()
	enc.Release()

	padded, err := c.mapRead(staging, uint64(paddedRow)*uint64(height))
	if err != nil {
		return nil, err
	}
	if paddedRow == rowBytes {
		return padded, nil
	}
	tight := make([]byte, uint64(rowBytes)*uint64(height))
	for row := uint32(0); row < height; row++ {
		copy(tight[row*rowBytes:(row+1)*rowBytes], padded[row*paddedRow:])
	}
	return tight, nil
}

// mapRead blocks until staging is mapped and returns a copy of its
// contents.
func (c *Context) mapRead(staging *wgpu.Buffer, size uint64) ([]byte, error) {
	var status wgpu.BufferMapAsyncStatus
	err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return nil, err
	}
	c.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("webgpu: buffer map failed with status %d", status)
	}
	out := append([]byte(nil), staging.GetMappedRange(0, uint(size))...)
	staging.Unmap()
	return out, nil
}

// WaitForGPU blocks until all submitted work retires on the queue.
func (c *Context) WaitForGPU() error {
	if err := c.check(); err != nil {
		return err
	}
	c.device.Poll(true, nil)
	return nil
}

// SurfaceFormat returns the negotiated swap-surface format.
func (c *Context) SurfaceFormat() gpu.TextureFormat { return c.surfaceFormat }

// CurrentTexture returns the frame's presentation target: the swap-chain
// texture when a surface is attached, an offscreen color target otherwise.
// The handle is stamped with the frame serial and rejected by Submit after
// the next Present.
func (c *Context) CurrentTexture() (gpu.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("%w: context has no surface dimensions", gpu.ErrNoSurface)
	}
	if c.curTex != nil {
		return c.curTex, nil
	}
	desc := gpu.TextureDescriptor{
		Label:  "surface",
		Size:   gpu.Extent3D{Width: uint32(c.width), Height: uint32(c.height)},
		Format: c.surfaceFormat,
		Usage:  gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopySrc,
	}
	var native *wgpu.Texture
	if c.surface != nil {
		t, err := c.surface.GetCurrentTexture()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gpu.ErrNoSurface, err)
		}
		native = t
	} else {
		if c.target == nil {
			format, _ := textureFormatToWGPU(c.surfaceFormat)
			t, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
				Label:         "surface",
				Size:          wgpu.Extent3D{Width: uint32(c.width), Height: uint32(c.height), DepthOrArrayLayers: 1},
				MipLevelCount: 1,
				SampleCount:   1,
				Dimension:     wgpu.TextureDimension2D,
				Format:        format,
				Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
			})
			if err != nil {
				return nil, err
			}
			c.target = t
		}
		native = c.target
	}
	c.curTex = &texture{
		ctx:     c,
		id:      gpu.NextID(gpu.KindTexture),
		tex:     native,
		desc:    desc.Resolved(),
		surface: true,
		frame:   c.frame,
	}
	return c.curTex, nil
}

// Present ends the frame. Handles from CurrentTexture become stale.
func (c *Context) Present() {
	if c.destroyed {
		return
	}
	if c.surface != nil && c.curTex != nil {
		c.surface.Present()
		c.curTex.tex.Release()
	}
	c.frame++
	c.curTex = nil
}

// SetLost transitions the context to the lost state.
func (c *Context) SetLost(reason string) { c.MarkLost(reason) }

// Restore re-requests the device and queue and reconfigures the surface
// after a device loss. Resources created before the loss are not recreated.
func (c *Context) Restore(extra ...func()) error {
	if c.destroyed {
		return gpu.ErrContextDestroyed
	}
	if !c.IsLost() {
		return nil
	}
	limits := wgpu.DefaultLimits()
	device, err := c.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "molviz",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return fmt.Errorf("webgpu: restore: %w", err)
	}
	c.device.Release()
	c.device = device
	c.queue = device.GetQueue()
	if c.target != nil {
		c.target.Release()
		c.target = nil
	}
	c.curTex = nil
	if c.surface != nil && c.width > 0 && c.height > 0 {
		c.configureSurface()
	}
	for _, fn := range extra {
		fn()
	}
	c.MarkRestored()
	return nil
}

// Destroy releases the device chain. Idempotent.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.target != nil {
		c.target.Release()
		c.target = nil
	}
	if c.ownsSurface && c.surface != nil {
		c.surface.Release()
	}
	c.queue.Release()
	c.device.Release()
	c.adapter.Release()
	c.instance.Release()
	gpu.Logger().Debug("webgpu: context destroyed", "stats", c.stats.Report())
}

var _ gpu.Context = (*Context)(nil)
