package renderer

import (
	"io"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/camera"
	"github.com/solarvol/voxrender/clipplane"
	"github.com/solarvol/voxrender/field"
	"github.com/solarvol/voxrender/gputexture"
	"github.com/solarvol/voxrender/indicator"
	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/internal/rtlog"
	"github.com/solarvol/voxrender/slicer"
	"github.com/solarvol/voxrender/transferfunction"
)

// Frame is one step's drawable output: the plane-stack draw calls for the
// active bricked field plus any indicator wireframes due this frame.
type Frame struct {
	DrawCalls      []slicer.DrawCall
	IndicatorCubes []indicator.Cube
}

// Driver owns every subsystem instance for one renderer session and
// drives the per-frame sequence the way voxelrt/rt/app/app.go's App
// drives its GPU state, but built around the volume slicer instead of a
// deferred rasterizer. A nil device is accepted so the traversal and
// bricking logic can run (and be tested) without a live GPU context;
// GPU-side texture upload and shader compilation are skipped in that
// mode, matching how the teacher's own subpackage tests
// (voxelrt/rt/volume, voxelrt/rt/bvh) exercise CPU logic without a
// wgpu.Device.
type Driver struct {
	cfg Config
	log rtlog.Logger

	device   *wgpu.Device
	textures *gputexture.Registry

	transferFunctions *transferfunction.Registry
	activeTF          transferfunction.Handle
	lowerLimit        float32
	upperLimit        float32

	clip *clipplane.Engine
	cam  *camera.Camera

	indicators       *indicator.Set
	brickTextures    map[*brick.Brick]gputexture.Handle
	fieldBoundaryTag string

	field *brick.BrickedField
	stack *slicer.Stack
	sep   *slicer.Separation

	volumeProgram    *Program
	indicatorProgram *Program

	tfTexture *wgpu.Texture
	tfView    *wgpu.TextureView
	tfSampler *wgpu.Sampler

	stackVertexBuffer *wgpu.Buffer
	stackIndexBuffer  *wgpu.Buffer
	stackBuffersPmax  int

	frameUniformBuffer *wgpu.Buffer

	needsVisibilityRecompute bool
	needsRedraw              bool
}

// New returns a Driver configured per opts, applied over DefaultConfig.
// device may be nil for headless/CPU-only use.
func New(device *wgpu.Device, log rtlog.Logger, opts ...Option) *Driver {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Driver{
		cfg:               cfg,
		log:               rtlog.Or(log),
		device:            device,
		transferFunctions: transferfunction.NewRegistry(log),
		clip:              clipplane.New(),
		cam:               camera.New(),
		indicators:        indicator.NewSet(),
		brickTextures:     make(map[*brick.Brick]gputexture.Handle),
		stack:             slicer.NewStack(),
		lowerLimit:        0,
		upperLimit:        1,
		fieldBoundaryTag:  "field",
	}
	if device != nil {
		d.textures = gputexture.NewRegistry(device, cfg.MaxTextures, log)
	}
	d.activeTF = d.transferFunctions.Add()
	return d
}

// CompilePrograms builds and links the volume and indicator shader
// programs against colorFormat (the swapchain's surface format),
// following the per-pass setup order voxelrt/rt/app/app.go's Init uses
// for its own pipelines. A no-op when the driver was constructed with a
// nil device.
func (d *Driver) CompilePrograms(colorFormat wgpu.TextureFormat) error {
	if d.device == nil {
		return nil
	}

	volumeVS, volumeFS, err := buildVolumeProgram()
	if err != nil {
		return err
	}
	d.volumeProgram = &Program{vertex: volumeVS, fragment: volumeFS}
	stride, attrs := volumeVertexAttributes()
	volumeBindings := []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 1, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 2, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension3D}},
		{Binding: 3, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
		{Binding: 4, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
		{Binding: 5, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
	}
	if err := d.volumeProgram.Compile(d.device, "volume", stride, attrs, volumeBindings, colorFormat, wgpu.PrimitiveTopologyTriangleList); err != nil {
		return err
	}

	indicatorVS, indicatorFS, err := buildIndicatorProgram()
	if err != nil {
		return err
	}
	d.indicatorProgram = &Program{vertex: indicatorVS, fragment: indicatorFS}
	indicatorBindings := []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Visibility: wgpu.ShaderStageVertex, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 1, Visibility: wgpu.ShaderStageFragment, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
	}
	indicatorStride := uint32(3 * 4)
	indicatorAttrs := []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}}
	return d.indicatorProgram.Compile(d.device, "indicators", indicatorStride, indicatorAttrs, indicatorBindings, colorFormat, wgpu.PrimitiveTopologyLineList)
}

// Camera, ClipPlanes, Indicators, TransferFunctions expose the owned
// subsystems K needs to route host operations to.
func (d *Driver) Camera() *camera.Camera                          { return d.cam }
func (d *Driver) ClipPlanes() *clipplane.Engine                   { return d.clip }
func (d *Driver) Indicators() *indicator.Set                      { return d.indicators }
func (d *Driver) TransferFunctions() *transferfunction.Registry   { return d.transferFunctions }
func (d *Driver) ActiveTransferFunction() transferfunction.Handle { return d.activeTF }
func (d *Driver) Field() *brick.BrickedField                      { return d.field }
func (d *Driver) Config() Config                                  { return d.cfg }

// SetBrickSizePowerOfTwo sets the requested brick size to 2^exponent,
// taking effect on the next LoadField.
func (d *Driver) SetBrickSizePowerOfTwo(exponent int) error {
	if exponent < 0 {
		return rterr.New(rterr.InvalidConfig, "brick size exponent must be >= 0")
	}
	d.cfg.Brick.RequestedBrickSize = 1 << uint(exponent)
	return nil
}

// SetMinimumSubBrickSize sets the sub-brick recursion terminator, taking
// effect on the next LoadField.
func (d *Driver) SetMinimumSubBrickSize(size int) error {
	if size <= 0 {
		return rterr.New(rterr.InvalidConfig, "minimum sub-brick size must be positive")
	}
	d.cfg.Brick.MinSubBrickSize = size
	return nil
}

// SetIndicatorToggles sets which boundary wireframes are (re)built on the
// next LoadField, per the host API's "applied next bricking" semantics.
func (d *Driver) SetIndicatorToggles(field, brick, subBrick bool) {
	d.cfg.FieldIndicator = field
	d.cfg.BrickIndicator = brick
	d.cfg.SubBrickIndicator = subBrick
}

// EnableAutorefresh / DisableAutorefresh toggle whether
// MarkVisibilityDirty sets the visibility dirty bit after
// transfer-function edits; RefreshFrame's redraw bit is set regardless.
func (d *Driver) EnableAutorefresh()  { d.cfg.Autorefresh = true }
func (d *Driver) DisableAutorefresh() { d.cfg.Autorefresh = false }

// LowerLimit / UpperLimit report the active field's visibility window in
// texture units, the value transferfunction.UpdateVisibility remaps raw
// voxel values through before indexing alpha.
func (d *Driver) LowerLimit() float32 { return d.lowerLimit }
func (d *Driver) UpperLimit() float32 { return d.upperLimit }

// SetLowerLimit and SetUpperLimit move the active field's visibility
// window (in texture units already converted from field units by the
// caller) and mark visibility dirty, honoring autorefresh. This is
// distinct from a transfer function component's own node 0/N-1 value:
// the window clips which voxels the alpha lookup sees at all, the same
// scalar pair transferfunction.UpdateVisibility takes, not a per-channel
// LUT edit.
func (d *Driver) SetLowerLimit(v float32) {
	d.lowerLimit = v
	d.MarkVisibilityDirty()
}

func (d *Driver) SetUpperLimit(v float32) {
	d.upperLimit = v
	d.MarkVisibilityDirty()
}

// SetLowerVisibilityThreshold and SetUpperVisibilityThreshold set the
// traversal culling thresholds a sub-brick's visibility ratio is
// compared against. Both must lie in [0,1] and lower must not exceed
// upper.
func (d *Driver) SetLowerVisibilityThreshold(t float32) error {
	if t < 0 || t > 1 || t > d.cfg.Thresholds.Upper {
		return rterr.New(rterr.InvalidConfig, "lower visibility threshold must be in [0,1] and not exceed the upper threshold")
	}
	d.cfg.Thresholds.Lower = t
	d.MarkVisibilityDirty()
	return nil
}

func (d *Driver) SetUpperVisibilityThreshold(t float32) error {
	if t < 0 || t > 1 || t < d.cfg.Thresholds.Lower {
		return rterr.New(rterr.InvalidConfig, "upper visibility threshold must be in [0,1] and not be below the lower threshold")
	}
	d.cfg.Thresholds.Upper = t
	d.MarkVisibilityDirty()
	return nil
}

// Close releases GPU resources held by the driver. Safe to call on a
// headless (nil device) driver.
func (d *Driver) Close() {
	if d.textures != nil {
		d.textures.ReleaseAll()
	}
	d.tfTexture, d.tfView, d.tfSampler = nil, nil, nil
	d.stackVertexBuffer, d.stackIndexBuffer, d.stackBuffersPmax = nil, nil, 0
	d.frameUniformBuffer = nil
}

// TransferFunctionTexture returns the GPU view and sampler for the
// active transfer function's LUT texture, rebuilt by the last
// RefreshVisibility call. Both are nil on a headless driver or before
// the first visibility refresh.
func (d *Driver) TransferFunctionTexture() (*wgpu.TextureView, *wgpu.Sampler) {
	return d.tfView, d.tfSampler
}

// RefreshVisibility unconditionally recomputes brick visibility ratios
// for the active field, the synchronous counterpart to the
// needs_visibility_recompute dirty bit.
func (d *Driver) RefreshVisibility() {
	if d.field == nil {
		return
	}
	tf, err := d.transferFunctions.Get(d.activeTF)
	if err != nil {
		d.log.Warnf("renderer: active transfer function missing, skipping visibility refresh")
		return
	}
	transferfunction.UpdateVisibility(tf, d.field, d.lowerLimit, d.upperLimit, d.cfg.Thresholds.Lower)
	if err := d.updateTransferFunctionTexture(tf); err != nil {
		d.log.Warnf("renderer: uploading transfer function texture: %v", err)
	}
	d.needsVisibilityRecompute = false
	d.needsRedraw = true
}

// RefreshFrame marks the current frame dirty without recomputing
// visibility, for edits (camera, clip planes) that only change what is
// drawn, not which nodes are visible.
func (d *Driver) RefreshFrame() {
	d.needsRedraw = true
}

// MarkVisibilityDirty sets needs_visibility_recompute, honoring the
// autorefresh toggle: when autorefresh is off the caller must invoke
// RefreshVisibility explicitly later.
func (d *Driver) MarkVisibilityDirty() {
	if d.cfg.Autorefresh {
		d.needsVisibilityRecompute = true
	}
}

// LoadField parses and bricks a new field, destroying any prior one,
// replacing its texture set, resetting the active transfer function to
// identity, reframing the camera, and rebuilding the boundary indicators
// enabled in the config. Matches set_field_from_bifrost_file's
// destroy-then-rebuild sequencing.
func (d *Driver) LoadField(header *field.Header, data io.Reader) error {
	f, err := field.Load(header, data)
	if err != nil {
		return err
	}

	bf, err := brick.Build(f, d.cfg.Brick)
	if err != nil {
		return err
	}

	if d.textures != nil {
		d.textures.ReleaseAll()
	}
	d.brickTextures = make(map[*brick.Brick]gputexture.Handle)
	d.field = bf

	if d.textures != nil {
		for _, b := range bf.Bricks {
			n := b.PaddedSize[0] * b.PaddedSize[1] * b.PaddedSize[2]
			h, err := d.textures.CreateBrickTexture(b, bf.Data[b.DataOffset:b.DataOffset+n])
			if err != nil {
				return err
			}
			d.brickTextures[b] = h
		}
	}

	tf, err := d.transferFunctions.Get(d.activeTF)
	if err != nil {
		return err
	}
	tf.Reset()
	d.lowerLimit, d.upperLimit = 0, 1

	d.sep, err = slicer.NewSeparation(d.stack, f.VoxelExtent, bf.BrickSize, d.cfg.SpacingMultiplier)
	if err != nil {
		return err
	}

	d.cam.SetViewDistance(2)

	d.rebuildIndicators()

	d.needsVisibilityRecompute = true
	d.needsRedraw = true
	return nil
}

func (d *Driver) rebuildIndicators() {
	d.indicators.Remove(d.fieldBoundaryTag)
	if d.field == nil {
		return
	}
	if d.cfg.FieldIndicator {
		he := d.field.Field.HalfExtent
		offset := mgl32.Vec3{-he[0], -he[1], -he[2]}
		extent := mgl32.Vec3{2 * he[0], 2 * he[1], 2 * he[2]}
		_, _ = d.indicators.AddCube(d.fieldBoundaryTag, offset, extent, mgl32.Vec3{1, 1, 1})
	}
}

// Step runs one frame's internal sequence (visibility recompute, then
// draw) per §5's ordering, excluding input polling and swap which belong
// to the window collaborator (cmd/voxrender). Returns the frame's
// drawable output, or a zero Frame if nothing was dirty.
func (d *Driver) Step(orthographic bool) Frame {
	if d.needsVisibilityRecompute {
		d.RefreshVisibility()
	}
	if !d.needsRedraw || d.field == nil {
		return Frame{}
	}
	d.needsRedraw = false

	calls := slicer.Traverse(d.field, d.cam.Position(), d.cam.LookAxis(), orthographic, d.clip, d.cfg.Thresholds, d.sep, d.stack)

	var cubes []indicator.Cube
	if d.cfg.BrickIndicator {
		cubes = append(cubes, indicator.VisibleBrickTreeEdges(d.field.Tree)...)
	}
	if d.cfg.SubBrickIndicator {
		for _, b := range d.field.Bricks {
			cubes = append(cubes, indicator.VisibleSubBrickTreeEdges(b.Tree)...)
		}
	}
	if d.cfg.FieldIndicator {
		if c, err := d.indicators.Get(d.fieldBoundaryTag); err == nil {
			cubes = append(cubes, *c)
		}
	}

	return Frame{DrawCalls: calls, IndicatorCubes: cubes}
}

// BrickTextureHandle looks up the GPU texture handle for a brick loaded
// by the current field, for use when issuing a DrawCall's texture bind.
func (d *Driver) BrickTextureHandle(b *brick.Brick) (gputexture.Handle, bool) {
	h, ok := d.brickTextures[b]
	return h, ok
}
