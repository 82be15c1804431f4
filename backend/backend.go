// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects and constructs a GPU context.
//
// Concrete backends live in subpackages and register themselves from
// init, so callers choose backends by importing them:
//
//	import (
//		_ "github.com/molviz/gpu/backend/gl"
//		_ "github.com/molviz/gpu/backend/webgpu"
//	)
//
//	res, err := backend.New(backend.Options{Preferred: backend.Auto})
//
// New negotiates: the preferred backend is tried first, and on failure
// the compatibility backend (gl) is tried as the universal fallback. The
// result reports which backend was actually constructed and whether the
// fallback was taken, so the application can surface degraded-capability
// warnings to the user.
package backend

import (
	"errors"
	"fmt"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/gldriver"
)

// Backend tags accepted in Options.Preferred.
const (
	// Auto selects the most capable registered backend.
	Auto = "auto"

	// WebGPU is the explicit, pipeline-object backend.
	WebGPU = "webgpu"

	// GL is the implicit, state-machine compatibility backend. It is the
	// universal fallback: every negotiation ends here before failing.
	GL = "gl"
)

// Negotiation errors.
var (
	// ErrUnknownBackend is returned when Options.Preferred names a tag
	// that no imported backend registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrNoBackend is returned when no backend could be constructed at
	// all, including the fallback.
	ErrNoBackend = errors.New("backend: no backend available")
)

// Options configures context construction. The zero value asks for
// automatic selection with no surface (offscreen rendering).
type Options struct {
	// Preferred is the requested backend tag: Auto, WebGPU or GL.
	// Empty means Auto.
	Preferred string

	// Width and Height size the rendering surface in device pixels.
	Width  int
	Height int

	// PixelScale is the device-pixel to logical-pixel ratio of the
	// surface. Zero means 1.
	PixelScale float64

	// Surface is the platform window handle to present to, in whatever
	// form the chosen backend's surface layer accepts (for example a
	// *glfw.Window). Nil means offscreen: CurrentTexture is served from
	// a backend-managed offscreen target.
	Surface any

	// SurfaceFormat is the desired swap-surface format. Zero means the
	// backend's preferred format (typically BGRA8Unorm).
	SurfaceFormat gpu.TextureFormat

	// Driver overrides the GL backend's device. Nil means the production
	// go-gl driver; tests substitute a fake.
	Driver gldriver.Device
}

// Result reports the outcome of negotiation.
type Result struct {
	// Context is the constructed context.
	Context gpu.Context

	// Backend is the tag of the backend actually constructed.
	Backend string

	// FallbackUsed is true when the preferred backend failed and the
	// compatibility backend was constructed instead. Applications should
	// surface this: features gated on Context.Features may be absent.
	FallbackUsed bool
}

// New constructs a context per the negotiation rules: try the preferred
// backend, fall back to gl, fail only when the fallback also fails. The
// returned error wraps every per-backend failure encountered.
func New(opts Options) (*Result, error) {
	preferred := opts.Preferred
	if preferred == "" {
		preferred = Auto
	}
	if opts.PixelScale == 0 {
		opts.PixelScale = 1
	}

	var order []string
	switch preferred {
	case Auto:
		order = priority()
		if len(order) == 0 {
			return nil, fmt.Errorf("%w: no backends registered (import a backend package)", ErrNoBackend)
		}
	case GL:
		order = []string{GL}
	default:
		if !IsRegistered(preferred) {
			return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, preferred, Available())
		}
		order = []string{preferred, GL}
	}

	var errs []error
	for i, name := range order {
		factory := Get(name)
		if factory == nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBackend, name))
			continue
		}
		ctx, err := factory(opts)
		if err != nil {
			gpu.Logger().Warn("backend: construction failed", "backend", name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		fellBack := i > 0
		if fellBack {
			gpu.Logger().Info("backend: using fallback", "requested", preferred, "backend", name)
		}
		return &Result{Context: ctx, Backend: name, FallbackUsed: fellBack}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}
