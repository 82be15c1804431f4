// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command gpuinfo constructs a GPU context and reports which backend was
// negotiated, its limits and features. Useful for diagnosing fallback
// behaviour on a target machine.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/molviz/gpu"
	"github.com/molviz/gpu/backend"
	_ "github.com/molviz/gpu/backend/gl"
	_ "github.com/molviz/gpu/backend/webgpu"
)

func main() {
	var (
		preferred = flag.String("backend", backend.Auto, "preferred backend: auto, webgpu or gl")
		width     = flag.Int("width", 256, "offscreen surface width")
		height    = flag.Int("height", 256, "offscreen surface height")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		gpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	res, err := backend.New(backend.Options{
		Preferred: *preferred,
		Width:     *width,
		Height:    *height,
	})
	if err != nil {
		log.Fatalf("no usable backend: %v", err)
	}
	ctx := res.Context
	defer ctx.Destroy()

	fmt.Printf("backend:  %s\n", res.Backend)
	fmt.Printf("fallback: %v\n", res.FallbackUsed)

	l := ctx.Limits()
	fmt.Println("limits:")
	fmt.Printf("  maxTextureDimension2D: %d\n", l.MaxTextureDimension2D)
	fmt.Printf("  maxColorAttachments:   %d\n", l.MaxColorAttachments)
	fmt.Printf("  maxBindGroups:         %d\n", l.MaxBindGroups)
	fmt.Printf("  maxVertexAttributes:   %d\n", l.MaxVertexAttributes)
	fmt.Printf("  maxBufferSize:         %d\n", l.MaxBufferSize)
	fmt.Printf("  maxUniformBinding:     %d\n", l.MaxUniformBufferBindingSize)
	fmt.Printf("  maxStorageBinding:     %d\n", l.MaxStorageBufferBindingSize)
	fmt.Printf("  computeWorkgroupSize:  %dx%dx%d\n",
		l.MaxComputeWorkgroupSizeX, l.MaxComputeWorkgroupSizeY, l.MaxComputeWorkgroupSizeZ)

	f := ctx.Features()
	fmt.Println("features:")
	fmt.Printf("  computeShaders:    %v\n", f.ComputeShaders)
	fmt.Printf("  storageBuffers:    %v\n", f.StorageBuffers)
	fmt.Printf("  storageTextures:   %v\n", f.StorageTextures)
	fmt.Printf("  indirectDraw:      %v\n", f.IndirectDraw)
	fmt.Printf("  multiDrawIndirect: %v\n", f.MultiDrawIndirect)
	fmt.Printf("  float32Filterable: %v\n", f.Float32Filterable)
}
