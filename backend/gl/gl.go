// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gl is the compatibility backend: the explicit pipeline/command
// model adapted onto a stateful GL-style driver.
//
// The adapter follows three rules. Pipelines snapshot every piece of
// fixed-function state at creation, and SetPipeline replays the entire
// snapshot, so no state leaks between pipelines. Encoders record commands
// as data and touch the driver only when the command buffer is submitted,
// preserving the deferred-execution contract of the explicit model. Bind
// groups are property bags applied to the driver's flat binding points
// just before each draw, using the slot convention group*16+binding.
//
// One contract difference from the explicit backend: shader modules hold
// GLSL source for a single stage and are compiled when the first pipeline
// links them, so shader errors surface from CreateRenderPipeline rather
// than CreateShaderModule (still wrapped in ErrShaderCompile).
package gl

import (
	"fmt"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/backend"
	"github.com/molviz/gpu/gldriver"
)

func init() {
	backend.Register(backend.GL, func(opts backend.Options) (gpu.Context, error) {
		return New(opts)
	})
}

const (
	maxBindGroups    = 4
	maxVertexBuffers = 8

	// slotsPerGroup folds (group, binding) pairs into the driver's flat
	// binding-slot space: slot = group*slotsPerGroup + binding. GLSL
	// sources written for this backend use layout(binding = slot) with
	// the same convention.
	slotsPerGroup = 16
)

// Context is the gl backend's gpu.Context.
type Context struct {
	gpu.LossTracker

	drv      gldriver.Device
	stats    gpu.Stats
	limits   gpu.Limits
	features gpu.Features

	pixelScale    float64
	width, height int
	surfaceFormat gpu.TextureFormat

	// frame is the presentation serial; surface textures handed out by
	// CurrentTexture are stamped with it and rejected once it advances.
	frame uint64

	// target is the offscreen presentation target backing CurrentTexture.
	target    gldriver.Texture
	hasTarget bool
	curTex    *texture

	destroyed bool
}

// New constructs the gl backend context. The caller must have a current
// GL context on this thread (or supply a fake driver via opts.Driver).
// opts.Surface is ignored: presentation (buffer swap) belongs to the
// embedding window system on this backend.
func New(opts backend.Options) (*Context, error) {
	drv := opts.Driver
	if drv == nil {
		drv = gldriver.NewOpenGL()
	}
	if err := drv.Init(); err != nil {
		return nil, fmt.Errorf("gl: driver init: %w", err)
	}
	caps := drv.Caps()
	gpu.Logger().Info("gl: context created",
		"renderer", caps.Renderer, "version", caps.Version, "compute", caps.Compute)

	format := opts.SurfaceFormat
	if format == gpu.TextureFormatUndefined {
		format = gpu.TextureFormatRGBA8Unorm
	}
	c := &Context{
		drv:           drv,
		pixelScale:    opts.PixelScale,
		width:         opts.Width,
		height:        opts.Height,
		surfaceFormat: format,
	}
	if c.pixelScale == 0 {
		c.pixelScale = 1
	}
	c.limits = limitsFromCaps(caps)
	c.features = featuresFromCaps(caps)
	return c, nil
}

func limitsFromCaps(caps gldriver.Caps) gpu.Limits {
	l := gpu.DefaultLimits()
	if caps.MaxTextureSize > 0 {
		l.MaxTextureDimension2D = uint32(caps.MaxTextureSize)
	}
	if caps.MaxColorAttachments > 0 {
		l.MaxColorAttachments = uint32(caps.MaxColorAttachments)
	}
	if caps.UniformBufferOffsetAlignment > 0 {
		l.MinUniformBufferOffsetAlignment = uint32(caps.UniformBufferOffsetAlignment)
	}
	l.MaxBindGroups = maxBindGroups
	l.MaxVertexBuffers = maxVertexBuffers
	l.MaxBindingsPerBindGroup = slotsPerGroup
	return l
}

func featuresFromCaps(caps gldriver.Caps) gpu.Features {
	return gpu.Features{
		ComputeShaders:    caps.Compute,
		StorageBuffers:    caps.StorageBuffers,
		StorageTextures:   caps.Compute,
		IndirectDraw:      caps.DrawIndirect,
		Float32Filterable: true,
	}
}

// Backend returns "gl".
func (c *Context) Backend() string { return backend.GL }

// Stats returns the live resource and draw counters.
func (c *Context) Stats() *gpu.Stats { return &c.stats }

// Limits returns the device limits derived from the driver caps.
func (c *Context) Limits() gpu.Limits { return c.limits }

// Features returns the capability flags derived from the driver caps.
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

// CreateCommandEncoder starts a deferred command recording.
func (c *Context) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	c.stats.AddResource(gpu.KindCommandEncoder)
	return &commandEncoder{ctx: c, label: label}, nil
}

// Submit replays recorded command buffers against the driver, in array
// order and program order.
func (c *Context) Submit(buffers ...gpu.CommandBuffer) error {
	if err := c.check(); err != nil {
		return err
	}
	ex := &executor{ctx: c}
	for _, cb := range buffers {
		b, ok := cb.(*commandBuffer)
		if !ok {
			return fmt.Errorf("%w: command buffer from a different backend", gpu.ErrInvalidDescriptor)
		}
		if err := ex.run(b.ops); err != nil {
			return err
		}
	}
	c.drv.Flush()
	return nil
}

// WriteBuffer copies data into buf at offset.
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
	c.drv.BufferSubData(b.handle, int(offset), data)
	return nil
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
	want := uint64(t.desc.Size.Width) * uint64(t.desc.Size.Height) * uint64(t.desc.Format.BytesPerTexel())
	if uint64(len(data)) < want {
		return fmt.Errorf("%w: texture write needs %d bytes, got %d",
			gpu.ErrInvalidDescriptor, want, len(data))
	}
	c.drv.TexSubImage(t.handle, 0, 0, 0, int(t.desc.Size.Width), int(t.desc.Size.Height), data)
	return nil
}

// ReadPixels blocks and returns the region tightly packed.
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
	c.drv.Finish()
	dst := make([]byte, uint64(width)*uint64(height)*uint64(t.desc.Format.BytesPerTexel()))
	if err := c.drv.ReadTexturePixels(t.handle, int(x), int(y), int(width), int(height), dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// WaitForGPU blocks until all submitted work retires.
func (c *Context) WaitForGPU() error {
	if err := c.check(); err != nil {
		return err
	}
	c.drv.Finish()
	return nil
}

// SurfaceFormat returns the presentation target format.
func (c *Context) SurfaceFormat() gpu.TextureFormat { return c.surfaceFormat }

// CurrentTexture returns the frame's presentation target: an offscreen
// color target owned by the backend, sized from the construction options.
// The handle is stamped with the frame serial and rejected by Submit after
// the next Present.
func (c *Context) CurrentTexture() (gpu.Texture, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("%w: context has no surface dimensions", gpu.ErrNoSurface)
	}
	if !c.hasTarget {
		h, err := c.drv.NewTexture(gldriver.TextureDesc{
			Format: c.surfaceFormat,
			Width:  c.width,
			Height: c.height,
			Layers: 1,
			Levels: 1,
		})
		if err != nil {
			return nil, err
		}
		c.target = h
		c.hasTarget = true
	}
	if c.curTex == nil {
		desc := gpu.TextureDescriptor{
			Label:  "surface",
			Size:   gpu.Extent3D{Width: uint32(c.width), Height: uint32(c.height)},
			Format: c.surfaceFormat,
			Usage:  gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopySrc,
		}
		c.curTex = &texture{
			ctx:     c,
			id:      gpu.NextID(gpu.KindTexture),
			handle:  c.target,
			desc:    desc.Resolved(),
			surface: true,
			frame:   c.frame,
		}
	}
	return c.curTex, nil
}

// Present ends the frame. Handles from CurrentTexture become stale; the
// actual buffer swap is the embedding window system's call (glfw
// SwapBuffers or equivalent) after Present returns.
func (c *Context) Present() {
	if c.destroyed {
		return
	}
	c.drv.Flush()
	c.frame++
	c.curTex = nil
}

// SetLost transitions the context to the lost state.
func (c *Context) SetLost(reason string) { c.MarkLost(reason) }

// Restore re-initializes the driver and backend-owned targets after the
// embedding layer has re-established a GL context. Resources created
// before the loss are not recreated.
func (c *Context) Restore(extra ...func()) error {
	if c.destroyed {
		return gpu.ErrContextDestroyed
	}
	if !c.IsLost() {
		return nil
	}
	if err := c.drv.Init(); err != nil {
		return fmt.Errorf("gl: restore: %w", err)
	}
	// Old driver handles died with the context.
	c.hasTarget = false
	c.curTex = nil
	for _, fn := range extra {
		fn()
	}
	c.MarkRestored()
	return nil
}

// Destroy releases the context. Idempotent.
func (c *Context) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.hasTarget {
		c.drv.DeleteTexture(c.target)
		c.hasTarget = false
	}
	c.drv.Close()
	gpu.Logger().Debug("gl: context destroyed", "stats", c.stats.Report())
}

var _ gpu.Context = (*Context)(nil)
