// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceCountInvariant(t *testing.T) {
	var s Stats
	const n, m = 7, 4

	for i := 0; i < n; i++ {
		s.AddResource(KindBuffer)
	}
	for i := 0; i < m; i++ {
		s.RemoveResource(KindBuffer)
	}

	require.Equal(t, int64(n-m), s.ResourceCount(KindBuffer))
	require.Equal(t, int64(n-m), s.LiveTotal())
}

func TestStatsPerKindIsolation(t *testing.T) {
	var s Stats

	s.AddResource(KindBuffer)
	s.AddResource(KindTexture)
	s.AddResource(KindTexture)

	require.Equal(t, int64(1), s.ResourceCount(KindBuffer))
	require.Equal(t, int64(2), s.ResourceCount(KindTexture))
	require.Equal(t, int64(0), s.ResourceCount(KindSampler))
	require.Equal(t, int64(3), s.LiveTotal())
}

func TestStatsDrawAndDispatch(t *testing.T) {
	var s Stats

	s.AddDraw(1)
	s.AddDraw(100)
	s.AddDispatch()

	require.Equal(t, uint64(2), s.DrawCount)
	require.Equal(t, uint64(101), s.InstanceCount)
	require.Equal(t, uint64(1), s.DispatchCount)
}

func TestStatsReport(t *testing.T) {
	var s Stats

	s.AddResource(KindBuffer)
	s.AddResource(KindBuffer)
	s.AddDraw(3)

	r := s.Report()
	require.Contains(t, r, "draws=1")
	require.Contains(t, r, "instances=3")
	require.Contains(t, r, "buffer=2")
	require.NotContains(t, r, "texture=")
}

func TestStatsUnknownKind(t *testing.T) {
	var s Stats

	s.AddResource(numResourceKinds + 1)
	require.Equal(t, int64(0), s.ResourceCount(numResourceKinds+1))
	require.Equal(t, int64(0), s.LiveTotal())
}

func TestNextIDMonotonicPerKind(t *testing.T) {
	a := NextID(KindBuffer)
	b := NextID(KindBuffer)
	require.Greater(t, b, a)
	require.NotZero(t, a)
}

func TestResourceKindStrings(t *testing.T) {
	require.Equal(t, "buffer", KindBuffer.String())
	require.Equal(t, "commandEncoder", KindCommandEncoder.String())
	require.Equal(t, "unknown", (numResourceKinds + 5).String())
}
