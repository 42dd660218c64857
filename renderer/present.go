package renderer

import (
	"encoding/binary"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/indicator"
	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/slicer"
)

// RenderFrame encodes and submits one Step output's draw calls and
// indicator wireframes against view, following
// voxelrt/rt/app/app.go's Render sequence: one command encoder, one
// render pass holding every draw, Finish, Submit. A no-op on a headless
// driver, since there is no swapchain to draw into.
func (d *Driver) RenderFrame(view *wgpu.TextureView, frame Frame) error {
	if d.device == nil {
		return nil
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating frame command encoder")
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{0, 0, 0, 1},
			},
		},
	})

	fieldCube, rest := splitFieldBoundaryCube(frame.IndicatorCubes, d.fieldBoundaryTag)

	if fieldCube != nil {
		backEdges := indicator.FieldBoundaryEdges(fieldCube, d.cam.LookAxis(), indicator.BackPass)
		if err := d.drawIndicatorEdges(pass, *fieldCube, backEdges); err != nil {
			return err
		}
	}

	if len(frame.DrawCalls) > 0 {
		if err := d.drawVolume(pass, frame.DrawCalls); err != nil {
			return err
		}
	}

	if fieldCube != nil {
		frontEdges := indicator.FieldBoundaryEdges(fieldCube, d.cam.LookAxis(), indicator.FrontPass)
		if err := d.drawIndicatorEdges(pass, *fieldCube, frontEdges); err != nil {
			return err
		}
	}
	if len(rest) > 0 {
		if err := d.drawIndicators(pass, rest); err != nil {
			return err
		}
	}

	if err := pass.End(); err != nil {
		return rterr.Wrap(rterr.GpuError, err, "ending frame render pass")
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "finishing frame command buffer")
	}
	d.device.GetQueue().Submit(cmd)
	return nil
}

// ensureStackBuffers uploads slicer.Stack's vertex/index buffers to the
// GPU, re-uploading whenever the stack has grown since the last upload
// (the same rare-growth assumption slicer.Stack.Grow itself makes).
func (d *Driver) ensureStackBuffers() error {
	if d.stackBuffersPmax == d.stack.Pmax() && d.stackVertexBuffer != nil {
		return nil
	}

	verts := d.stack.Vertices()
	vertBytes := make([]byte, len(verts)*8)
	for i, v := range verts {
		putU32(vertBytes, i*8, v.VertexIdx)
		putU32(vertBytes, i*8+4, v.PlaneIdx)
	}
	vb, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "plane-stack-vertices",
		Size:             uint64(len(vertBytes)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating plane stack vertex buffer")
	}
	d.device.GetQueue().WriteBuffer(vb, 0, vertBytes)

	idx := d.stack.Indices()
	idxBytes := make([]byte, len(idx)*4)
	for i, v := range idx {
		putU32(idxBytes, i*4, v)
	}
	ib, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "plane-stack-indices",
		Size:             uint64(len(idxBytes)),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating plane stack index buffer")
	}
	d.device.GetQueue().WriteBuffer(ib, 0, idxBytes)

	d.stackVertexBuffer, d.stackIndexBuffer, d.stackBuffersPmax = vb, ib, d.stack.Pmax()
	return nil
}

// ensureFrameUniformBuffer lazily allocates the per-frame uniform
// buffer once; its size never changes across the driver's lifetime.
func (d *Driver) ensureFrameUniformBuffer() error {
	if d.frameUniformBuffer != nil {
		return nil
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "frame-uniforms",
		Size:             uint64(frameUniformSize),
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating frame uniform buffer")
	}
	d.frameUniformBuffer = buf
	return nil
}

func (d *Driver) drawVolume(pass *wgpu.RenderPassEncoder, calls []slicer.DrawCall) error {
	if err := d.ensureStackBuffers(); err != nil {
		return err
	}
	if err := d.ensureFrameUniformBuffer(); err != nil {
		return err
	}

	samplingCorrection := float32(1)
	if d.sep != nil {
		samplingCorrection = d.sep.SamplingCorrection()
	}
	frameBytes := PackFrameUniforms(d.cam.MVP(), d.clip.Planes(), samplingCorrection)
	d.device.GetQueue().WriteBuffer(d.frameUniformBuffer, 0, frameBytes)

	pass.SetPipeline(d.volumeProgram.Pipeline())
	pass.SetVertexBuffer(0, d.stackVertexBuffer, 0, d.stackVertexBuffer.GetSize())
	pass.SetIndexBuffer(d.stackIndexBuffer, wgpu.IndexFormatUint32, 0, d.stackIndexBuffer.GetSize())

	for _, dc := range calls {
		if dc.NumRequiredPlanes <= 0 {
			continue
		}
		h, ok := d.BrickTextureHandle(dc.Brick)
		if !ok {
			continue
		}
		entry, ok := d.textures.Lookup(h)
		if !ok {
			continue
		}

		drawBuf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            "draw-uniforms",
			Size:             uint64(drawUniformSize),
			Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return rterr.Wrap(rterr.GpuError, err, "creating draw uniform buffer")
		}
		d.device.GetQueue().WriteBuffer(drawBuf, 0, PackDrawUniforms(dc))

		bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "volume-draw",
			Layout: d.volumeProgram.BindGroupLayout(),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: d.frameUniformBuffer, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: drawBuf, Size: wgpu.WholeSize},
				{Binding: 2, TextureView: entry.View},
				{Binding: 3, Sampler: entry.Sampler},
				{Binding: 4, TextureView: d.tfView},
				{Binding: 5, Sampler: d.tfSampler},
			},
		})
		if err != nil {
			return rterr.Wrap(rterr.GpuError, err, "creating volume draw bind group")
		}

		pass.SetBindGroup(0, bindGroup, nil)
		pass.DrawIndexed(uint32(dc.NumRequiredPlanes*12), 1, 0, 0, 0)
	}
	return nil
}

// splitFieldBoundaryCube pulls the field boundary cube (if present and
// named tag) out of cubes so RenderFrame can draw its front/back edge
// sets on either side of the volume pass; the remaining cubes (brick
// and sub-brick tree outlines) keep the single full-edge draw.
func splitFieldBoundaryCube(cubes []indicator.Cube, tag string) (*indicator.Cube, []indicator.Cube) {
	for i := range cubes {
		if cubes[i].Name == tag {
			field := cubes[i]
			rest := make([]indicator.Cube, 0, len(cubes)-1)
			rest = append(rest, cubes[:i]...)
			rest = append(rest, cubes[i+1:]...)
			return &field, rest
		}
	}
	return nil, cubes
}

// drawIndicators draws every cube's full edge set, for the brick and
// sub-brick tree outlines that have no front/back split.
func (d *Driver) drawIndicators(pass *wgpu.RenderPassEncoder, cubes []indicator.Cube) error {
	for _, cube := range cubes {
		if err := d.drawIndicatorEdges(pass, cube, cube.Edges()); err != nil {
			return err
		}
	}
	return nil
}

// drawIndicatorEdges draws a single cube's selected edge subset as a
// line list (the cube's edge endpoint positions, matching
// buildIndicatorProgram's single vec3 input), the shared tail of
// drawIndicators and RenderFrame's field-boundary front/back passes.
func (d *Driver) drawIndicatorEdges(pass *wgpu.RenderPassEncoder, cube indicator.Cube, edges []indicator.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	pass.SetPipeline(d.indicatorProgram.Pipeline())

	verts := make([]mgl32.Vec3, 0, len(edges)*2)
	for _, e := range edges {
		verts = append(verts, cube.Positions[e.A], cube.Positions[e.B])
	}
	vertBytes := make([]byte, len(verts)*12)
	for i, v := range verts {
		putFloat32(vertBytes, i*12, v[0])
		putFloat32(vertBytes, i*12+4, v[1])
		putFloat32(vertBytes, i*12+8, v[2])
	}
	vb, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "indicator-vertices",
		Size:             uint64(len(vertBytes)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating indicator vertex buffer")
	}
	d.device.GetQueue().WriteBuffer(vb, 0, vertBytes)

	if err := d.ensureFrameUniformBuffer(); err != nil {
		return err
	}
	mvpBytes := make([]byte, 64)
	putMat4(mvpBytes, 0, d.cam.MVP())
	mvpBuf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "indicator-mvp",
		Size:             64,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating indicator mvp buffer")
	}
	d.device.GetQueue().WriteBuffer(mvpBuf, 0, mvpBytes)

	colorBytes := make([]byte, 16)
	putVec3(colorBytes, 0, cube.Color)
	colorBuf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "indicator-color",
		Size:             16,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating indicator color buffer")
	}
	d.device.GetQueue().WriteBuffer(colorBuf, 0, colorBytes)

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "indicator-draw",
		Layout: d.indicatorProgram.BindGroupLayout(),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: mvpBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: colorBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating indicator bind group")
	}

	pass.SetBindGroup(0, bindGroup, nil)
	pass.SetVertexBuffer(0, vb, 0, vb.GetSize())
	pass.Draw(uint32(len(verts)), 1, 0, 0)
	return nil
}

func putU32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}
