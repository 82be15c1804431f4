// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu defines the backend-independent GPU contract used by the
// molviz rendering stack.
//
// # Overview
//
// The central type is [Context]: one instance per rendering surface, created
// through the backend factory (see the backend subpackage). Everything a
// caller allocates (buffers, textures, pipelines, bind groups) is created
// through Context factory methods and used exclusively through the
// interfaces in this package, so the same scene and representation code
// runs unchanged over both supported backends:
//
//   - backend/webgpu: explicit device/queue API with object bind groups and
//     immutable pipelines (cogentcore/webgpu).
//   - backend/gl: stateful binding-point API, adapted behind the same
//     contract by deferring and replaying recorded state (go-gl).
//
// # Quick start
//
//	import (
//	    "github.com/molviz/gpu"
//	    "github.com/molviz/gpu/backend"
//	    _ "github.com/molviz/gpu/backend/gl"
//	    _ "github.com/molviz/gpu/backend/webgpu"
//	)
//
//	res, err := backend.New(backend.Options{Preferred: backend.Auto})
//	if err != nil { ... }
//	ctx := res.Context
//	defer ctx.Destroy()
//
//	buf, err := ctx.CreateBuffer(&gpu.BufferDescriptor{
//	    Size:  64,
//	    Usage: gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
//	})
//
// # Contract notes
//
// All Context operations are single-logical-thread: the package performs no
// internal locking beyond registry and ID allocation, matching a render-loop
// ownership model. Blocking operations are Buffer.Read, Context.ReadPixels,
// Context.WaitForGPU and backend construction; everything else returns
// without waiting for the device.
//
// Feature decisions must branch on [Context.Features] (or the static tables
// in the backend package), never on the backend tag, which exists for
// diagnostics only.
package gpu
