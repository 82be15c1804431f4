// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package gldriver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/all-core/gl"

	"github.com/molviz/gpu"
)

// Driver errors.
var (
	// ErrNoContext is returned by Init when no GL context is current on
	// the calling thread.
	ErrNoContext = errors.New("gldriver: no current GL context")

	// ErrCompile is returned when shader compilation or linking fails.
	ErrCompile = errors.New("gldriver: program compile failed")

	// ErrFramebufferIncomplete is returned when attachments do not form a
	// complete framebuffer.
	ErrFramebufferIncomplete = errors.New("gldriver: framebuffer incomplete")
)

// openGL is the production Device over go-gl. All methods assume the
// owning context is current on the calling thread; this is the embedding
// application's contract, established before backend construction.
type openGL struct {
	caps Caps

	// vao is the single shared vertex array object. GL core profile
	// requires one bound; attribute state is rewritten through
	// SetVertexAttribs on every pipeline/vertex-buffer change.
	vao uint32

	// enabledAttribs tracks locations enabled by the last SetVertexAttribs
	// so stale attributes are disabled on the next call.
	enabledAttribs map[uint32]bool
}

// NewOpenGL returns the go-gl backed Device. Call Init with a current GL
// context before any other method.
func NewOpenGL() Device {
	return &openGL{enabledAttribs: make(map[uint32]bool)}
}

func (d *openGL) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoContext, err)
	}
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major == 0 {
		return ErrNoContext
	}

	var maxTex, maxColor, maxUnits, maxUBO, uboAlign int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	gl.GetIntegerv(gl.MAX_COLOR_ATTACHMENTS, &maxColor)
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &maxUnits)
	gl.GetIntegerv(gl.MAX_UNIFORM_BUFFER_BINDINGS, &maxUBO)
	gl.GetIntegerv(gl.UNIFORM_BUFFER_OFFSET_ALIGNMENT, &uboAlign)

	gl43 := major > 4 || (major == 4 && minor >= 3)
	gl40 := major >= 4

	d.caps = Caps{
		Vendor:                       gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:                     gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:                      gl.GoStr(gl.GetString(gl.VERSION)),
		MaxTextureSize:               int(maxTex),
		MaxColorAttachments:          int(maxColor),
		MaxTextureUnits:              int(maxUnits),
		MaxUniformBufferBindings:     int(maxUBO),
		UniformBufferOffsetAlignment: int(uboAlign),
		Compute:                      gl43,
		StorageBuffers:               gl43,
		DrawIndirect:                 gl40,
	}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	return nil
}

func (d *openGL) Caps() Caps { return d.caps }

func (d *openGL) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func (d *openGL) NewBuffer(size int) (Buffer, error) {
	var b uint32
	gl.GenBuffers(1, &b)
	gl.BindBuffer(gl.ARRAY_BUFFER, b)
	gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	if err := gl.GetError(); err != gl.NO_ERROR {
		gl.DeleteBuffers(1, &b)
		return 0, fmt.Errorf("gldriver: buffer alloc of %d bytes failed (0x%04x)", size, err)
	}
	return Buffer(b), nil
}

func (d *openGL) BufferSubData(b Buffer, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.BufferSubData(gl.ARRAY_BUFFER, offset, len(data), gl.Ptr(data))
}

func (d *openGL) ReadBuffer(b Buffer, offset int, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	gl.GetBufferSubData(gl.ARRAY_BUFFER, offset, len(dst), gl.Ptr(dst))
	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("gldriver: buffer read failed (0x%04x)", err)
	}
	return nil
}

func (d *openGL) CopyBuffer(src Buffer, srcOffset int, dst Buffer, dstOffset, size int) {
	gl.BindBuffer(gl.COPY_READ_BUFFER, uint32(src))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, uint32(dst))
	gl.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.COPY_WRITE_BUFFER, srcOffset, dstOffset, size)
}

func (d *openGL) DeleteBuffer(b Buffer) {
	n := uint32(b)
	gl.DeleteBuffers(1, &n)
}

// texFormat maps a cross-backend format to (internal, format, type).
func texFormat(f gpu.TextureFormat) (int32, uint32, uint32, error) {
	switch f {
	case gpu.TextureFormatR8Unorm:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE, nil
	case gpu.TextureFormatRG8Unorm:
		return gl.RG8, gl.RG, gl.UNSIGNED_BYTE, nil
	case gpu.TextureFormatRGBA8Unorm:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case gpu.TextureFormatRGBA8UnormSrgb:
		return gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case gpu.TextureFormatBGRA8Unorm, gpu.TextureFormatBGRA8UnormSrgb:
		// Stored as RGBA; BGRA is a swizzle at upload/readback time.
		return gl.RGBA8, gl.BGRA, gl.UNSIGNED_BYTE, nil
	case gpu.TextureFormatR16Float:
		return gl.R16F, gl.RED, gl.HALF_FLOAT, nil
	case gpu.TextureFormatRG16Float:
		return gl.RG16F, gl.RG, gl.HALF_FLOAT, nil
	case gpu.TextureFormatRGBA16Float:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, nil
	case gpu.TextureFormatR32Float:
		return gl.R32F, gl.RED, gl.FLOAT, nil
	case gpu.TextureFormatRG32Float:
		return gl.RG32F, gl.RG, gl.FLOAT, nil
	case gpu.TextureFormatRGBA32Float:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, nil
	case gpu.TextureFormatR32Uint:
		return gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT, nil
	case gpu.TextureFormatDepth16Unorm:
		return gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT, nil
	case gpu.TextureFormatDepth24Plus:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, nil
	case gpu.TextureFormatDepth24PlusStencil8:
		return gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, nil
	case gpu.TextureFormatDepth32Float:
		return gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT, nil
	}
	return 0, 0, 0, fmt.Errorf("gldriver: unsupported texture format %s", f)
}

func (d *openGL) NewTexture(desc TextureDesc) (Texture, error) {
	internal, format, xtype, err := texFormat(desc.Format)
	if err != nil {
		return 0, err
	}
	var t uint32
	gl.GenTextures(1, &t)
	levels := desc.Levels
	if levels < 1 {
		levels = 1
	}
	switch {
	case desc.Is3D:
		gl.BindTexture(gl.TEXTURE_3D, t)
		w, h, depth := desc.Width, desc.Height, desc.Layers
		for level := 0; level < levels; level++ {
			gl.TexImage3D(gl.TEXTURE_3D, int32(level), internal, int32(w), int32(h), int32(depth), 0, format, xtype, nil)
			w, h, depth = max(1, w/2), max(1, h/2), max(1, depth/2)
		}
		gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MAX_LEVEL, int32(levels-1))
	case desc.Samples > 1:
		gl.BindTexture(gl.TEXTURE_2D_MULTISAMPLE, t)
		gl.TexImage2DMultisample(gl.TEXTURE_2D_MULTISAMPLE, int32(desc.Samples), uint32(internal), int32(desc.Width), int32(desc.Height), true)
	default:
		gl.BindTexture(gl.TEXTURE_2D, t)
		w, h := desc.Width, desc.Height
		for level := 0; level < levels; level++ {
			gl.TexImage2D(gl.TEXTURE_2D, int32(level), internal, int32(w), int32(h), 0, format, xtype, nil)
			w, h = max(1, w/2), max(1, h/2)
		}
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(levels-1))
	}
	if err := gl.GetError(); err != gl.NO_ERROR {
		gl.DeleteTextures(1, &t)
		return 0, fmt.Errorf("gldriver: texture alloc %dx%d %s failed (0x%04x)", desc.Width, desc.Height, desc.Format, err)
	}
	return Texture(t), nil
}

func (d *openGL) TexSubImage(t Texture, level, x, y, width, height int, data []byte) {
	// The caller tracks the format; re-deriving it per call would need a
	// shadow table, so uploads go through the sized query instead.
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	var internal int32
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, int32(level), gl.TEXTURE_INTERNAL_FORMAT, &internal)
	format, xtype := uploadFormatFor(internal)
	gl.TexSubImage2D(gl.TEXTURE_2D, int32(level), int32(x), int32(y), int32(width), int32(height), format, xtype, gl.Ptr(data))
}

// uploadFormatFor maps a sized internal format back to (format, type) for
// uploads and readback.
func uploadFormatFor(internal int32) (uint32, uint32) {
	switch internal {
	case gl.R8:
		return gl.RED, gl.UNSIGNED_BYTE
	case gl.RG8:
		return gl.RG, gl.UNSIGNED_BYTE
	case gl.R16F:
		return gl.RED, gl.HALF_FLOAT
	case gl.RG16F:
		return gl.RG, gl.HALF_FLOAT
	case gl.RGBA16F:
		return gl.RGBA, gl.HALF_FLOAT
	case gl.R32F:
		return gl.RED, gl.FLOAT
	case gl.RG32F:
		return gl.RG, gl.FLOAT
	case gl.RGBA32F:
		return gl.RGBA, gl.FLOAT
	case gl.R32UI:
		return gl.RED_INTEGER, gl.UNSIGNED_INT
	default:
		return gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func (d *openGL) CopyTexture(src, dst Texture, width, height int) {
	var fbos [2]uint32
	gl.GenFramebuffers(2, &fbos[0])
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbos[0])
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(src), 0)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, fbos[1])
	gl.FramebufferTexture2D(gl.DRAW_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(dst), 0)
	gl.BlitFramebuffer(0, 0, int32(width), int32(height), 0, 0, int32(width), int32(height), gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(2, &fbos[0])
}

func (d *openGL) ReadTexturePixels(t Texture, x, y, width, height int, dst []byte) error {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	defer gl.DeleteFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(t), 0)
	if gl.CheckFramebufferStatus(gl.READ_FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		return ErrFramebufferIncomplete
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	var internal int32
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_INTERNAL_FORMAT, &internal)
	format, xtype := uploadFormatFor(internal)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), format, xtype, gl.Ptr(dst))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("gldriver: texture readback failed (0x%04x)", err)
	}
	return nil
}

func (d *openGL) DeleteTexture(t Texture) {
	n := uint32(t)
	gl.DeleteTextures(1, &n)
}

func wrapMode(m gpu.AddressMode) int32 {
	switch m {
	case gpu.AddressModeRepeat:
		return gl.REPEAT
	case gpu.AddressModeMirrorRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *openGL) NewSampler(desc SamplerDesc) (Sampler, error) {
	var s uint32
	gl.GenSamplers(1, &s)
	gl.SamplerParameteri(s, gl.TEXTURE_WRAP_S, wrapMode(desc.WrapU))
	gl.SamplerParameteri(s, gl.TEXTURE_WRAP_T, wrapMode(desc.WrapV))
	gl.SamplerParameteri(s, gl.TEXTURE_WRAP_R, wrapMode(desc.WrapW))
	mag := int32(gl.NEAREST)
	if desc.MagLinear {
		mag = gl.LINEAR
	}
	gl.SamplerParameteri(s, gl.TEXTURE_MAG_FILTER, mag)
	var min int32
	switch {
	case desc.MinLinear && desc.MipLinear:
		min = gl.LINEAR_MIPMAP_LINEAR
	case desc.MinLinear:
		min = gl.LINEAR_MIPMAP_NEAREST
	case desc.MipLinear:
		min = gl.NEAREST_MIPMAP_LINEAR
	default:
		min = gl.NEAREST_MIPMAP_NEAREST
	}
	gl.SamplerParameteri(s, gl.TEXTURE_MIN_FILTER, min)
	if desc.Compare != 0 {
		gl.SamplerParameteri(s, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.SamplerParameteri(s, gl.TEXTURE_COMPARE_FUNC, int32(compareFunc(desc.Compare)))
	}
	if desc.MaxAnisotropy > 1 {
		gl.SamplerParameterf(s, gl.TEXTURE_MAX_ANISOTROPY, float32(desc.MaxAnisotropy))
	}
	return Sampler(s), nil
}

func (d *openGL) DeleteSampler(s Sampler) {
	n := uint32(s)
	gl.DeleteSamplers(1, &n)
}

func compileShader(kind uint32, src string) (uint32, error) {
	sh := gl.CreateShader(kind)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)
	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%w: %s", ErrCompile, strings.TrimRight(log, "\x00"))
	}
	return sh, nil
}

func linkProgram(shaders ...uint32) (Program, error) {
	p := gl.CreateProgram()
	for _, sh := range shaders {
		gl.AttachShader(p, sh)
	}
	gl.LinkProgram(p)
	for _, sh := range shaders {
		gl.DetachShader(p, sh)
		gl.DeleteShader(sh)
	}
	var status int32
	gl.GetProgramiv(p, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(p, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(p, logLen, nil, gl.Str(log))
		gl.DeleteProgram(p)
		return 0, fmt.Errorf("%w: link: %s", ErrCompile, strings.TrimRight(log, "\x00"))
	}
	return Program(p), nil
}

func (d *openGL) CompileProgram(vertexSrc, fragmentSrc string) (Program, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	if fragmentSrc == "" {
		return linkProgram(vs)
	}
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, fmt.Errorf("fragment: %w", err)
	}
	return linkProgram(vs, fs)
}

func (d *openGL) CompileComputeProgram(src string) (Program, error) {
	cs, err := compileShader(gl.COMPUTE_SHADER, src)
	if err != nil {
		return 0, fmt.Errorf("compute: %w", err)
	}
	return linkProgram(cs)
}

func (d *openGL) ProgramBindings(p Program) []BindingInfo {
	var infos []BindingInfo
	prog := uint32(p)

	// Uniform blocks: the layout(binding=N) slot is the block binding.
	var nBlocks int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_BLOCKS, &nBlocks)
	for i := int32(0); i < nBlocks; i++ {
		var binding, nameLen int32
		gl.GetActiveUniformBlockiv(prog, uint32(i), gl.UNIFORM_BLOCK_BINDING, &binding)
		gl.GetActiveUniformBlockiv(prog, uint32(i), gl.UNIFORM_BLOCK_NAME_LENGTH, &nameLen)
		name := strings.Repeat("\x00", int(nameLen+1))
		gl.GetActiveUniformBlockName(prog, uint32(i), nameLen, nil, gl.Str(name))
		infos = append(infos, BindingInfo{
			Name: strings.TrimRight(name, "\x00"),
			Slot: uint32(binding),
			Type: gpu.BindingTypeUniformBuffer,
		})
	}

	// Shader storage blocks (GL 4.3 program interface query).
	if d.caps.StorageBuffers {
		var nSSB int32
		gl.GetProgramInterfaceiv(prog, gl.SHADER_STORAGE_BLOCK, gl.ACTIVE_RESOURCES, &nSSB)
		for i := int32(0); i < nSSB; i++ {
			props := [1]uint32{gl.BUFFER_BINDING}
			var binding int32
			gl.GetProgramResourceiv(prog, gl.SHADER_STORAGE_BLOCK, uint32(i), 1, &props[0], 1, nil, &binding)
			infos = append(infos, BindingInfo{
				Slot: uint32(binding),
				Type: gpu.BindingTypeStorageBuffer,
			})
		}
	}

	// Sampler uniforms: texture unit assignment comes from layout(binding=N).
	var nUniforms int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &nUniforms)
	for i := int32(0); i < nUniforms; i++ {
		var size, nameLen int32
		var xtype uint32
		nameBuf := strings.Repeat("\x00", 256)
		gl.GetActiveUniform(prog, uint32(i), 255, &nameLen, &size, &xtype, gl.Str(nameBuf))
		if !isSamplerType(xtype) {
			continue
		}
		name := nameBuf[:nameLen]
		loc := gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
		if loc < 0 {
			continue
		}
		var unit int32
		gl.GetUniformiv(prog, loc, &unit)
		infos = append(infos, BindingInfo{
			Name: name,
			Slot: uint32(unit),
			Type: gpu.BindingTypeSampledTexture,
		})
	}
	return infos
}

func isSamplerType(t uint32) bool {
	switch t {
	case gl.SAMPLER_2D, gl.SAMPLER_3D, gl.SAMPLER_CUBE, gl.SAMPLER_2D_SHADOW,
		gl.SAMPLER_2D_ARRAY, gl.INT_SAMPLER_2D, gl.UNSIGNED_INT_SAMPLER_2D,
		gl.SAMPLER_2D_MULTISAMPLE:
		return true
	}
	return false
}

func (d *openGL) DeleteProgram(p Program) {
	gl.DeleteProgram(uint32(p))
}

func (d *openGL) NewFramebuffer(colors []Texture, depthStencil Texture) (Framebuffer, error) {
	var f uint32
	gl.GenFramebuffers(1, &f)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f)
	drawBufs := make([]uint32, len(colors))
	for i, t := range colors {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, uint32(gl.COLOR_ATTACHMENT0+i), gl.TEXTURE_2D, uint32(t), 0)
		drawBufs[i] = uint32(gl.COLOR_ATTACHMENT0 + i)
	}
	if len(drawBufs) > 0 {
		gl.DrawBuffers(int32(len(drawBufs)), &drawBufs[0])
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}
	if depthStencil != 0 {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, uint32(depthStencil), 0)
	}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &f)
		return 0, fmt.Errorf("%w (0x%04x)", ErrFramebufferIncomplete, status)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return Framebuffer(f), nil
}

func (d *openGL) DeleteFramebuffer(f Framebuffer) {
	n := uint32(f)
	gl.DeleteFramebuffers(1, &n)
}

func (d *openGL) BindProgram(p Program) {
	gl.UseProgram(uint32(p))
}

func (d *openGL) BindFramebuffer(f Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
}

func (d *openGL) BindUniformBuffer(slot int, b Buffer, offset, size int) {
	gl.BindBufferRange(gl.UNIFORM_BUFFER, uint32(slot), uint32(b), offset, size)
}

func (d *openGL) BindStorageBuffer(slot int, b Buffer, offset, size int) {
	gl.BindBufferRange(gl.SHADER_STORAGE_BUFFER, uint32(slot), uint32(b), offset, size)
}

func (d *openGL) BindTexture(unit int, t Texture) {
	gl.ActiveTexture(uint32(gl.TEXTURE0 + unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *openGL) BindSampler(unit int, s Sampler) {
	gl.BindSampler(uint32(unit), uint32(s))
}

func (d *openGL) BindIndexBuffer(b Buffer) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(b))
}

// attribGLType maps a vertex format to (components, type, normalized, integer).
func attribGLType(f gpu.VertexFormat) (int32, uint32, bool, bool) {
	switch f {
	case gpu.VertexFormatUint8x2:
		return 2, gl.UNSIGNED_BYTE, false, true
	case gpu.VertexFormatUint8x4:
		return 4, gl.UNSIGNED_BYTE, false, true
	case gpu.VertexFormatSint8x2:
		return 2, gl.BYTE, false, true
	case gpu.VertexFormatSint8x4:
		return 4, gl.BYTE, false, true
	case gpu.VertexFormatUnorm8x2:
		return 2, gl.UNSIGNED_BYTE, true, false
	case gpu.VertexFormatUnorm8x4:
		return 4, gl.UNSIGNED_BYTE, true, false
	case gpu.VertexFormatSnorm8x2:
		return 2, gl.BYTE, true, false
	case gpu.VertexFormatSnorm8x4:
		return 4, gl.BYTE, true, false
	case gpu.VertexFormatUint16x2:
		return 2, gl.UNSIGNED_SHORT, false, true
	case gpu.VertexFormatUint16x4:
		return 4, gl.UNSIGNED_SHORT, false, true
	case gpu.VertexFormatSint16x2:
		return 2, gl.SHORT, false, true
	case gpu.VertexFormatSint16x4:
		return 4, gl.SHORT, false, true
	case gpu.VertexFormatUnorm16x2:
		return 2, gl.UNSIGNED_SHORT, true, false
	case gpu.VertexFormatUnorm16x4:
		return 4, gl.UNSIGNED_SHORT, true, false
	case gpu.VertexFormatSnorm16x2:
		return 2, gl.SHORT, true, false
	case gpu.VertexFormatSnorm16x4:
		return 4, gl.SHORT, true, false
	case gpu.VertexFormatFloat16x2:
		return 2, gl.HALF_FLOAT, false, false
	case gpu.VertexFormatFloat16x4:
		return 4, gl.HALF_FLOAT, false, false
	case gpu.VertexFormatFloat32:
		return 1, gl.FLOAT, false, false
	case gpu.VertexFormatFloat32x2:
		return 2, gl.FLOAT, false, false
	case gpu.VertexFormatFloat32x3:
		return 3, gl.FLOAT, false, false
	case gpu.VertexFormatFloat32x4:
		return 4, gl.FLOAT, false, false
	case gpu.VertexFormatUint32:
		return 1, gl.UNSIGNED_INT, false, true
	case gpu.VertexFormatUint32x2:
		return 2, gl.UNSIGNED_INT, false, true
	case gpu.VertexFormatUint32x3:
		return 3, gl.UNSIGNED_INT, false, true
	case gpu.VertexFormatUint32x4:
		return 4, gl.UNSIGNED_INT, false, true
	case gpu.VertexFormatSint32:
		return 1, gl.INT, false, true
	case gpu.VertexFormatSint32x2:
		return 2, gl.INT, false, true
	case gpu.VertexFormatSint32x3:
		return 3, gl.INT, false, true
	case gpu.VertexFormatSint32x4:
		return 4, gl.INT, false, true
	}
	return 4, gl.FLOAT, false, false
}

func (d *openGL) SetVertexAttribs(attrs []VertexAttrib) {
	seen := make(map[uint32]bool, len(attrs))
	for _, a := range attrs {
		gl.BindBuffer(gl.ARRAY_BUFFER, uint32(a.Buffer))
		comps, xtype, normalized, integer := attribGLType(a.Format)
		if integer {
			gl.VertexAttribIPointer(a.Location, comps, xtype, int32(a.Stride), gl.PtrOffset(a.Offset))
		} else {
			gl.VertexAttribPointer(a.Location, comps, xtype, normalized, int32(a.Stride), gl.PtrOffset(a.Offset))
		}
		div := uint32(0)
		if a.PerInstance {
			div = 1
		}
		gl.VertexAttribDivisor(a.Location, div)
		gl.EnableVertexAttribArray(a.Location)
		seen[a.Location] = true
	}
	for loc := range d.enabledAttribs {
		if !seen[loc] {
			gl.DisableVertexAttribArray(loc)
		}
	}
	d.enabledAttribs = seen
}

func blendFactor(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendFactorOne:
		return gl.ONE
	case gpu.BlendFactorSrc:
		return gl.SRC_COLOR
	case gpu.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR
	case gpu.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA
	case gpu.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	case gpu.BlendFactorDst:
		return gl.DST_COLOR
	case gpu.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR
	case gpu.BlendFactorDstAlpha:
		return gl.DST_ALPHA
	case gpu.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA
	case gpu.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE
	case gpu.BlendFactorConstant:
		return gl.CONSTANT_COLOR
	case gpu.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR
	}
	return gl.ZERO
}

func blendOp(o gpu.BlendOperation) uint32 {
	switch o {
	case gpu.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT
	case gpu.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT
	case gpu.BlendOperationMin:
		return gl.MIN
	case gpu.BlendOperationMax:
		return gl.MAX
	}
	return gl.FUNC_ADD
}

func compareFunc(f gpu.CompareFunction) uint32 {
	switch f {
	case gpu.CompareFunctionNever:
		return gl.NEVER
	case gpu.CompareFunctionLess:
		return gl.LESS
	case gpu.CompareFunctionEqual:
		return gl.EQUAL
	case gpu.CompareFunctionLessEqual:
		return gl.LEQUAL
	case gpu.CompareFunctionGreater:
		return gl.GREATER
	case gpu.CompareFunctionNotEqual:
		return gl.NOTEQUAL
	case gpu.CompareFunctionGreaterEqual:
		return gl.GEQUAL
	}
	return gl.ALWAYS
}

func stencilOp(o gpu.StencilOperation) uint32 {
	switch o {
	case gpu.StencilOperationZero:
		return gl.ZERO
	case gpu.StencilOperationReplace:
		return gl.REPLACE
	case gpu.StencilOperationInvert:
		return gl.INVERT
	case gpu.StencilOperationIncrementClamp:
		return gl.INCR
	case gpu.StencilOperationDecrementClamp:
		return gl.DECR
	case gpu.StencilOperationIncrementWrap:
		return gl.INCR_WRAP
	case gpu.StencilOperationDecrementWrap:
		return gl.DECR_WRAP
	}
	return gl.KEEP
}

func glFace(f Face) uint32 {
	switch f {
	case FaceFront:
		return gl.FRONT
	case FaceBack:
		return gl.BACK
	}
	return gl.FRONT_AND_BACK
}

func (d *openGL) SetBlendEnabled(on bool) {
	if on {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (d *openGL) SetBlendFunc(srcRGB, dstRGB, srcAlpha, dstAlpha gpu.BlendFactor) {
	gl.BlendFuncSeparate(blendFactor(srcRGB), blendFactor(dstRGB), blendFactor(srcAlpha), blendFactor(dstAlpha))
}

func (d *openGL) SetBlendEquation(rgb, alpha gpu.BlendOperation) {
	gl.BlendEquationSeparate(blendOp(rgb), blendOp(alpha))
}

func (d *openGL) SetBlendColor(r, g, b, a float32) {
	gl.BlendColor(r, g, b, a)
}

func (d *openGL) SetColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (d *openGL) SetDepthTest(on bool) {
	if on {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

func (d *openGL) SetDepthMask(write bool) {
	gl.DepthMask(write)
}

func (d *openGL) SetDepthFunc(f gpu.CompareFunction) {
	gl.DepthFunc(compareFunc(f))
}

func (d *openGL) SetPolygonOffset(factor, units float32) {
	if factor != 0 || units != 0 {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(factor, units)
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}
}

func (d *openGL) SetStencilTest(on bool) {
	if on {
		gl.Enable(gl.STENCIL_TEST)
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}
}

func (d *openGL) SetStencilFunc(face Face, f gpu.CompareFunction, ref int32, mask uint32) {
	gl.StencilFuncSeparate(glFace(face), compareFunc(f), ref, mask)
}

func (d *openGL) SetStencilOp(face Face, fail, depthFail, pass gpu.StencilOperation) {
	gl.StencilOpSeparate(glFace(face), stencilOp(fail), stencilOp(depthFail), stencilOp(pass))
}

func (d *openGL) SetStencilMask(face Face, mask uint32) {
	gl.StencilMaskSeparate(glFace(face), mask)
}

func (d *openGL) SetCull(enabled bool, mode Face) {
	if enabled {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(glFace(mode))
	} else {
		gl.Disable(gl.CULL_FACE)
	}
}

func (d *openGL) SetFrontFace(f gpu.FrontFace) {
	if f == gpu.FrontFaceCW {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
}

func (d *openGL) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *openGL) SetScissor(enabled bool, x, y, width, height int) {
	if enabled {
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(int32(x), int32(y), int32(width), int32(height))
	} else {
		gl.Disable(gl.SCISSOR_TEST)
	}
}

func (d *openGL) Clear(mask ClearMask, color [4]float32, depth float32, stencil int32) {
	var bits uint32
	if mask&ClearColor != 0 {
		gl.ClearColor(color[0], color[1], color[2], color[3])
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&ClearDepth != 0 {
		gl.ClearDepthf(depth)
		// Depth writes must be on for the clear to land.
		gl.DepthMask(true)
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&ClearStencil != 0 {
		gl.ClearStencil(stencil)
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

func topologyMode(t gpu.PrimitiveTopology) uint32 {
	switch t {
	case gpu.PrimitiveTopologyPointList:
		return gl.POINTS
	case gpu.PrimitiveTopologyLineList:
		return gl.LINES
	case gpu.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP
	case gpu.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

func indexType(f gpu.IndexFormat) (uint32, int) {
	if f == gpu.IndexFormatUint16 {
		return gl.UNSIGNED_SHORT, 2
	}
	return gl.UNSIGNED_INT, 4
}

func (d *openGL) Draw(topology gpu.PrimitiveTopology, first, count, instances int) {
	gl.DrawArraysInstanced(topologyMode(topology), int32(first), int32(count), int32(instances))
}

func (d *openGL) DrawIndexed(topology gpu.PrimitiveTopology, count int, format gpu.IndexFormat, offset, instances, baseVertex int) {
	xtype, _ := indexType(format)
	gl.DrawElementsInstancedBaseVertex(topologyMode(topology), int32(count), xtype, gl.PtrOffset(offset), int32(instances), int32(baseVertex))
}

func (d *openGL) DrawIndirect(topology gpu.PrimitiveTopology, b Buffer, offset int) {
	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, uint32(b))
	gl.DrawArraysIndirect(topologyMode(topology), gl.PtrOffset(offset))
}

func (d *openGL) DispatchCompute(x, y, z int) {
	gl.DispatchCompute(uint32(x), uint32(y), uint32(z))
}

func (d *openGL) DispatchComputeIndirect(b Buffer, offset int) {
	gl.BindBuffer(gl.DISPATCH_INDIRECT_BUFFER, uint32(b))
	gl.DispatchComputeIndirect(offset)
}

func (d *openGL) MemoryBarrier() {
	gl.MemoryBarrier(gl.ALL_BARRIER_BITS)
}

func (d *openGL) ReadPixels(x, y, width, height int, format gpu.TextureFormat, dst []byte) error {
	_, glFormat, xtype, err := texFormat(format)
	if err != nil {
		return err
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), glFormat, xtype, gl.Ptr(dst))
	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("gldriver: ReadPixels failed (0x%04x)", e)
	}
	return nil
}

func (d *openGL) Finish() { gl.Finish() }

func (d *openGL) Flush() { gl.Flush() }

var _ Device = (*openGL)(nil)
