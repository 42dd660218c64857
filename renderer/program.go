package renderer

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/clipplane"
	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/shaderbuilder"
	"github.com/solarvol/voxrender/slicer"
)

// Program is one compiled WGSL vertex+fragment pair together with the
// pipeline state built from it, mirroring how voxelrt/rt/app/app.go
// pairs a shader module with a bind group layout, pipeline layout, and
// render pipeline per rendering pass.
type Program struct {
	vertex   *shaderbuilder.Source
	fragment *shaderbuilder.Source

	module           *wgpu.ShaderModule
	bindGroupLayouts []*wgpu.BindGroupLayout
	pipelineLayout   *wgpu.PipelineLayout
	pipeline         *wgpu.RenderPipeline
}

// buildVolumeProgram assembles the vertex and fragment sources for the
// plane-stack volume pass: the vertex stage turns a (VertexIdx, PlaneIdx)
// pair plus the active DrawCall's uniforms into a clip-space position and
// a field-texture coordinate (Salama-Kolb box/plane intersection, ported
// conceptually from view_aligned_planes.c's edge-walk rather than
// line-for-line since WGSL has no goto); the fragment stage samples the
// field texture (C) and looks the result up in the transfer function
// (D), discarding samples outside the clip planes (E).
func buildVolumeProgram() (*shaderbuilder.Source, *shaderbuilder.Source, error) {
	vs := shaderbuilder.New()
	vs.AddVertexInput(0, "u32", "vertex_idx")
	vs.AddVertexInput(1, "u32", "plane_idx")
	vs.AddUniform("mat4x4<f32>", "mvp")
	vs.AddUniform("vec3<f32>", "brick_offset")
	vs.AddUniform("vec3<f32>", "brick_extent")
	vs.AddUniform("vec3<f32>", "sub_brick_offset")
	vs.AddUniform("vec3<f32>", "sub_brick_extent")
	vs.AddUniform("vec3<f32>", "pad_fraction_lo")
	vs.AddUniform("vec3<f32>", "pad_fraction_hi")
	vs.AddUniform("u32", "orientation")
	vs.AddUniform("f32", "back_plane_dist")
	vs.AddUniform("u32", "back_corner_index")
	vs.AddOutput("vec4<f32>", "clip_position")
	vs.AddOutput("vec3<f32>", "texture_coord")
	vs.AddOutput("vec3<f32>", "world_position")

	positionSnippet := `
    let plane_separation: f32 = sampling_correction;
    let plane_dist: f32 = back_plane_dist - f32(plane_idx) * plane_separation;
    let local_pos: vec3<f32> = edge_intersect(vertex_idx, back_corner_index, plane_dist);
    let world_pos: vec3<f32> = sub_brick_offset + local_pos * sub_brick_extent;
    let padded_coord: vec3<f32> = pad_fraction_lo + (local_pos * (vec3<f32>(1.0, 1.0, 1.0) - pad_fraction_lo - pad_fraction_hi));`
	localPos, err := vs.AddSnippet("vec4<f32>", "mvp * vec4<f32>(world_pos, 1.0)", positionSnippet, []string{"mvp", "brick_offset", "brick_extent", "sub_brick_offset", "sub_brick_extent", "pad_fraction_lo", "pad_fraction_hi", "back_plane_dist", "back_corner_index"}, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := vs.AssignToOutput(localPos, "clip_position"); err != nil {
		return nil, nil, err
	}

	coordVar, err := vs.AddSnippet("vec3<f32>", "padded_coord", "", nil, []int{localPos})
	if err != nil {
		return nil, nil, err
	}
	if err := vs.AssignToOutput(coordVar, "texture_coord"); err != nil {
		return nil, nil, err
	}

	worldPosVar, err := vs.AddSnippet("vec3<f32>", "world_pos", "", nil, []int{localPos})
	if err != nil {
		return nil, nil, err
	}
	if err := vs.AssignToOutput(worldPosVar, "world_position"); err != nil {
		return nil, nil, err
	}

	fs := shaderbuilder.New()
	fs.AddSampler3D("field_texture")
	fs.AddSampler1D("transfer_function")
	fs.AddGlobal("texture_coord", "@location(0) texture_coord: vec3<f32>,")
	fs.AddGlobal("world_position", "@location(1) world_position: vec3<f32>,")
	fs.AddArrayUniform("vec3<f32>", "clip_plane_normal", clipplane.MaxPlanes)
	fs.AddArrayUniform("f32", "clip_plane_origin_distance", clipplane.MaxPlanes)
	fs.AddOutput("vec4<f32>", "frag_color")

	// clipEngine exists only to drive EmitShaderSnippet's unrolling; its
	// plane values are irrelevant since the emitted code reads the
	// actual normals/distances from the uniform arrays above at
	// runtime. Padding entries beyond the active plane count carry a
	// zero normal (PackFrameUniforms in uniforms.go), so
	// `dot(clip_pos, 0) < 0` never discards for an inactive plane and
	// the shader never needs recompiling when the active count changes.
	clipEngine := clipplane.New()
	for i := 0; i < clipplane.MaxPlanes; i++ {
		if err := clipEngine.SetPlane(i, mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}); err != nil {
			return nil, nil, err
		}
	}
	clipGuard, err := fs.AddSnippet("bool", "true", clipEngine.EmitShaderSnippet("world_position"),
		[]string{"world_position", "clip_plane_normal", "clip_plane_origin_distance"}, nil)
	if err != nil {
		return nil, nil, err
	}

	fsCoordVar, err := fs.AddSnippet("vec3<f32>", "texture_coord",
		"    if (any(texture_coord < vec3<f32>(0.0)) || any(texture_coord > vec3<f32>(1.0))) {\n        discard;\n    }",
		[]string{"texture_coord"}, []int{clipGuard})
	if err != nil {
		return nil, nil, err
	}
	sample, err := fs.SampleFieldTexture("field_texture", fsCoordVar)
	if err != nil {
		return nil, nil, err
	}
	colorVar, err := fs.ApplyTransferFunction("transfer_function", sample)
	if err != nil {
		return nil, nil, err
	}
	if err := fs.AssignToOutput(colorVar, "frag_color"); err != nil {
		return nil, nil, err
	}

	return vs, fs, nil
}

// buildIndicatorProgram assembles the vertex and fragment sources for
// the boundary-wireframe pass: a plain transformed line list with a
// per-cube solid color, no texture or transfer-function sampling.
func buildIndicatorProgram() (*shaderbuilder.Source, *shaderbuilder.Source, error) {
	vs := shaderbuilder.New()
	vs.AddVertexInput(0, "vec3<f32>", "position")
	vs.AddUniform("mat4x4<f32>", "mvp")
	vs.AddOutput("vec4<f32>", "clip_position")

	transformed, err := vs.TransformInput("mvp", "position")
	if err != nil {
		return nil, nil, err
	}
	if err := vs.AssignToOutput(transformed, "clip_position"); err != nil {
		return nil, nil, err
	}

	fs := shaderbuilder.New()
	fs.AddUniform("vec3<f32>", "line_color")
	fs.AddOutput("vec4<f32>", "frag_color")
	colorVar, err := fs.AddSnippet("vec4<f32>", "vec4<f32>(line_color, 1.0)", "", []string{"line_color"}, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := fs.AssignToOutput(colorVar, "frag_color"); err != nil {
		return nil, nil, err
	}

	return vs, fs, nil
}

// Compile generates WGSL from the program's vertex and fragment sources
// and builds the wgpu pipeline state, following
// voxelrt/rt/app/app.go's setupTransparentOverlayPipeline sequence:
// shader module, bind group layout(s), pipeline layout, render pipeline
// with alpha blending over the target.
func (p *Program) Compile(device *wgpu.Device, label string, vertexStride uint32, vertexAttrs []wgpu.VertexAttribute, bglEntries []wgpu.BindGroupLayoutEntry, colorFormat wgpu.TextureFormat, topology wgpu.PrimitiveTopology) error {
	vertexCode, err := p.vertex.Generate()
	if err != nil {
		return rterr.Wrap(rterr.ShaderCompileError, err, "generating "+label+" vertex shader")
	}
	fragmentCode, err := p.fragment.Generate()
	if err != nil {
		return rterr.Wrap(rterr.ShaderCompileError, err, "generating "+label+" fragment shader")
	}

	vsModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + " vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexCode},
	})
	if err != nil {
		return rterr.Wrap(rterr.ShaderCompileError, err, "compiling "+label+" vertex shader")
	}
	fsModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + " fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentCode},
	})
	if err != nil {
		return rterr.Wrap(rterr.ShaderCompileError, err, "compiling "+label+" fragment shader")
	}

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + " bind group layout",
		Entries: bglEntries,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating "+label+" bind group layout")
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating "+label+" pipeline layout")
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: "main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(vertexStride),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  vertexAttrs,
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: "main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: colorFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
						Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: topology,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating "+label+" render pipeline")
	}

	p.module = vsModule
	p.bindGroupLayouts = []*wgpu.BindGroupLayout{bgl}
	p.pipelineLayout = layout
	p.pipeline = pipeline
	return nil
}

// Pipeline and BindGroupLayout expose the compiled GPU state a frame
// presenter needs to build per-draw bind groups and issue draws; both
// are nil until Compile has run.
func (p *Program) Pipeline() *wgpu.RenderPipeline        { return p.pipeline }
func (p *Program) BindGroupLayout() *wgpu.BindGroupLayout { return p.bindGroupLayouts[0] }

// volumeVertexAttributes describes slicer.PlaneVertex's GPU layout.
func volumeVertexAttributes() (uint32, []wgpu.VertexAttribute) {
	var v slicer.PlaneVertex
	stride := uint32(unsafe.Sizeof(v))
	return stride, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatUint32, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatUint32, Offset: 4, ShaderLocation: 1},
	}
}
