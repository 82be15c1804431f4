package gpu

import "errors"

// Common errors shared by both backends.
var (
	// ErrInvalidDescriptor is returned when a resource descriptor violates
	// the cross-backend contract (zero-size buffer, empty usage set,
	// unknown format, bind group/layout mismatch).
	ErrInvalidDescriptor = errors.New("gpu: invalid descriptor")

	// ErrContextLost is returned by operations attempted against a context
	// whose device has been lost. Loss itself is not an error: it is a
	// state transition observed via OnLost/OnRestored.
	ErrContextLost = errors.New("gpu: context lost")

	// ErrContextDestroyed is returned by operations on a destroyed context.
	ErrContextDestroyed = errors.New("gpu: context destroyed")

	// ErrEncoderFinished is returned when recording operations are called
	// on an encoder that has already been finished.
	ErrEncoderFinished = errors.New("gpu: command encoder already finished")

	// ErrPassEnded is returned when encoding operations are called on a
	// pass encoder after End.
	ErrPassEnded = errors.New("gpu: pass already ended")

	// ErrPassActive is returned when an encoder operation requires no
	// active pass but one is still recording.
	ErrPassActive = errors.New("gpu: pass in progress")

	// ErrExplicitLayout is returned by GetBindGroupLayout on a pipeline
	// created with an explicit (non-auto) layout.
	ErrExplicitLayout = errors.New("gpu: pipeline layout was explicit, not auto")

	// ErrNoSurface is returned by CurrentTexture on a context created
	// without a presentation surface.
	ErrNoSurface = errors.New("gpu: context has no surface")

	// ErrStaleSurfaceTexture is returned when a swap-surface texture
	// handle is used after the frame it was acquired for has ended.
	ErrStaleSurfaceTexture = errors.New("gpu: surface texture is stale")

	// ErrShaderCompile is returned when shader module compilation fails.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrReadbackUnsupported is returned when a readback is requested from
	// a resource that was not created with the required copy-src usage.
	ErrReadbackUnsupported = errors.New("gpu: resource not readable")
)
