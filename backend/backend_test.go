// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molviz/gpu"
)

// stubContext is the minimal context used to observe negotiation.
type stubContext struct {
	gpu.Context
	backend string
}

func (c *stubContext) Backend() string { return c.backend }
func (c *stubContext) Destroy()        {}

func withRegistry(t *testing.T, reg map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = reg
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func ok(name string) Factory {
	return func(Options) (gpu.Context, error) {
		return &stubContext{backend: name}, nil
	}
}

func fail(err error) Factory {
	return func(Options) (gpu.Context, error) { return nil, err }
}

func TestNewPreferredSucceeds(t *testing.T) {
	withRegistry(t, map[string]Factory{WebGPU: ok(WebGPU), GL: ok(GL)})

	res, err := New(Options{Preferred: WebGPU})
	require.NoError(t, err)
	require.Equal(t, WebGPU, res.Backend)
	require.False(t, res.FallbackUsed)
	require.Equal(t, WebGPU, res.Context.Backend())
}

func TestNewFallsBackToGL(t *testing.T) {
	boom := errors.New("no adapter")
	withRegistry(t, map[string]Factory{WebGPU: fail(boom), GL: ok(GL)})

	res, err := New(Options{Preferred: WebGPU})
	require.NoError(t, err)
	require.Equal(t, GL, res.Backend)
	require.True(t, res.FallbackUsed)
}

func TestNewAutoPrefersWebGPU(t *testing.T) {
	withRegistry(t, map[string]Factory{WebGPU: ok(WebGPU), GL: ok(GL)})

	res, err := New(Options{})
	require.NoError(t, err)
	require.Equal(t, WebGPU, res.Backend)
	require.False(t, res.FallbackUsed)
}

func TestNewAutoFallsBack(t *testing.T) {
	withRegistry(t, map[string]Factory{WebGPU: fail(errors.New("nope")), GL: ok(GL)})

	res, err := New(Options{Preferred: Auto})
	require.NoError(t, err)
	require.Equal(t, GL, res.Backend)
	require.True(t, res.FallbackUsed)
}

func TestNewGLPreferredNoFallbackFlag(t *testing.T) {
	withRegistry(t, map[string]Factory{WebGPU: ok(WebGPU), GL: ok(GL)})

	res, err := New(Options{Preferred: GL})
	require.NoError(t, err)
	require.Equal(t, GL, res.Backend)
	require.False(t, res.FallbackUsed)
}

func TestNewFallbackFailureIsFatal(t *testing.T) {
	glErr := errors.New("no GL context")
	wgErr := errors.New("no adapter")
	withRegistry(t, map[string]Factory{WebGPU: fail(wgErr), GL: fail(glErr)})

	_, err := New(Options{Preferred: WebGPU})
	require.ErrorIs(t, err, ErrNoBackend)
	require.ErrorIs(t, err, glErr)
	require.ErrorIs(t, err, wgErr)
}

func TestNewUnknownPreferred(t *testing.T) {
	withRegistry(t, map[string]Factory{GL: ok(GL)})

	_, err := New(Options{Preferred: "vulkan"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewNoBackendsRegistered(t *testing.T) {
	withRegistry(t, map[string]Factory{})

	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoBackend)
}

func TestMaxFeatures(t *testing.T) {
	f, ok := MaxFeatures(WebGPU)
	require.True(t, ok)
	require.True(t, f.ComputeShaders)

	f, ok = MaxFeatures(GL)
	require.True(t, ok)
	require.True(t, f.StorageBuffers)
	require.False(t, f.MultiDrawIndirect)

	_, ok = MaxFeatures("vulkan")
	require.False(t, ok)
}

func TestRegistry(t *testing.T) {
	withRegistry(t, map[string]Factory{})

	require.False(t, IsRegistered("x"))
	Register("x", ok("x"))
	require.True(t, IsRegistered("x"))
	require.NotNil(t, Get("x"))
	require.Contains(t, Available(), "x")
	Unregister("x")
	require.False(t, IsRegistered("x"))
	require.Nil(t, Get("x"))
}
