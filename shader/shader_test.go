// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/backend"
	"github.com/molviz/gpu/backend/gl"
	"github.com/molviz/gpu/gldriver"
)

func newTestManager(t *testing.T) (*Manager, gpu.Context) {
	t.Helper()
	ctx, err := gl.New(backend.Options{Width: 16, Height: 16, Driver: gldriver.NewFake()})
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)
	m := NewManager(ctx)
	t.Cleanup(m.Destroy)
	return m, ctx
}

func TestVariantStrings(t *testing.T) {
	want := []string{"color", "pick", "depth", "marking", "emissive", "tracing"}
	for v := VariantColor; v < numVariants; v++ {
		require.Equal(t, want[v], v.String())
	}
}

func TestCompileIdempotent(t *testing.T) {
	m, ctx := newTestManager(t)

	def := Definition{
		Vertex: "void main() { vertex(); }",
		Fragments: map[Variant]string{
			VariantColor: "void main() { color(); }",
			VariantPick:  "void main() { pick(); }",
		},
	}

	first, err := m.Compile("spheres", def)
	require.NoError(t, err)
	require.Equal(t, int64(3), ctx.Stats().ResourceCount(gpu.KindShaderModule))

	again, err := m.Compile("spheres", def)
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Equal(t, int64(3), ctx.Stats().ResourceCount(gpu.KindShaderModule))
}

func TestContentAddressing(t *testing.T) {
	m, ctx := newTestManager(t)

	depth := "void main() { depth(); }"
	a := Definition{
		Vertex:    "void main() { vertexA(); }",
		Fragments: map[Variant]string{VariantDepth: depth},
	}
	b := Definition{
		Vertex:    "void main() { vertexB(); }",
		Fragments: map[Variant]string{VariantDepth: depth},
	}

	ca, err := m.Compile("a", a)
	require.NoError(t, err)
	cb, err := m.Compile("b", b)
	require.NoError(t, err)

	// Identical depth source shares one module across definitions.
	require.Equal(t, ca.Fragments[VariantDepth].ID(), cb.Fragments[VariantDepth].ID())
	require.NotEqual(t, ca.Vertex.ID(), cb.Vertex.ID())
	require.Equal(t, int64(3), ctx.Stats().ResourceCount(gpu.KindShaderModule))

	st := m.CacheStats()
	require.Equal(t, uint64(1), st.Hits)
	require.Equal(t, 3, st.Len)
}

func TestCompileRequiresVertexSource(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Compile("empty", Definition{})
	require.ErrorIs(t, err, gpu.ErrInvalidDescriptor)
}

func TestManagerDestroyReleasesModules(t *testing.T) {
	m, ctx := newTestManager(t)

	_, err := m.Compile("x", Definition{
		Vertex:    "void main() { vertex(); }",
		Fragments: map[Variant]string{VariantColor: "void main() { color(); }"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), ctx.Stats().ResourceCount(gpu.KindShaderModule))

	m.Destroy()
	m.Destroy() // idempotent
	require.Equal(t, int64(0), ctx.Stats().ResourceCount(gpu.KindShaderModule))

	_, ok := m.Lookup("x")
	require.False(t, ok)
}

func TestInjectDefinesPlacement(t *testing.T) {
	src := strings.Join([]string{
		"// sphere impostor",
		"/* multi",
		"   line */",
		"",
		"uniform mat4 uView;",
		"void main() {}",
	}, "\n")

	out, err := InjectDefines(src, DialectGLSL, map[string]any{
		"POINT_COUNT": 32,
		"FLAT":        true,
		"RADIUS":      1.5,
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	// Defines land after the comment block and blank line, before code,
	// sorted by name.
	require.Equal(t, "#define FLAT", lines[4])
	require.Equal(t, "#define POINT_COUNT 32", lines[5])
	require.Equal(t, "#define RADIUS 1.5", lines[6])
	require.Equal(t, "uniform mat4 uView;", lines[7])
}

func TestInjectDefinesWGSL(t *testing.T) {
	src := "// comment\n@vertex fn main() {}"

	out, err := InjectDefines(src, DialectWGSL, map[string]any{
		"lit":   true,
		"count": uint32(8),
		"scale": 2.0,
	})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Equal(t, "// comment", lines[0])
	require.Equal(t, "override count: u32 = 8;", lines[1])
	require.Equal(t, "override lit: bool = true;", lines[2])
	require.Equal(t, "override scale: f32 = 2.0;", lines[3])
	require.Equal(t, "@vertex fn main() {}", lines[4])
}

func TestInjectDefinesFalseFlagOmitted(t *testing.T) {
	src := "void main() {}"

	out, err := InjectDefines(src, DialectGLSL, map[string]any{"DISABLED": false})
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestInjectDefinesRejectsNonNumeric(t *testing.T) {
	_, err := InjectDefines("void main() {}", DialectGLSL, map[string]any{"NAME": "text"})
	require.ErrorIs(t, err, ErrDefineValue)
}

func TestInjectDefinesNoDefines(t *testing.T) {
	src := "void main() {}"
	out, err := InjectDefines(src, DialectGLSL, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}
