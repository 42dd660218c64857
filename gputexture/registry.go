// Package gputexture owns the lifetime of one 3-D GPU texture per brick.
// It hands back opaque handles so the rest of the renderer never touches
// a *wgpu.Texture directly, and enforces the registry's texture-count
// ceiling.
package gputexture

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/internal/rtlog"
)

// Handle identifies one registered brick texture. The zero Handle never
// names a live entry.
type Handle uuid.UUID

// Entry is a brick's GPU-side texture plus the sampler state the slicer
// expects. Sampling is trilinear (linear mag/min/mipmap) with
// clamp-to-edge addressing: the WebGPU binding this module targets has no
// clamp-to-border mode, so the volume fragment shader discards samples
// whose texture coordinate falls outside [0,1] instead of relying on a
// zero border color.
type Entry struct {
	Handle  Handle
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler *wgpu.Sampler
	Size    [3]int // padded voxel size, matches Brick.PaddedSize
}

// Registry creates, tracks, and releases one texture per brick.
type Registry struct {
	device      *wgpu.Device
	log         rtlog.Logger
	maxTextures int
	entries     map[Handle]*Entry
}

// NewRegistry returns a Registry bound to device, rejecting creation past
// maxTextures live entries.
func NewRegistry(device *wgpu.Device, maxTextures int, log rtlog.Logger) *Registry {
	return &Registry{
		device:      device,
		log:         rtlog.Or(log),
		maxTextures: maxTextures,
		entries:     make(map[Handle]*Entry),
	}
}

// Count reports the number of live textures.
func (r *Registry) Count() int {
	return len(r.entries)
}

// CreateBrickTexture uploads b's packed voxel data into a new R32Float 3-D
// texture sized to the brick's padded extents and returns its handle.
func (r *Registry) CreateBrickTexture(b *brick.Brick, data []float32) (Handle, error) {
	if len(r.entries) >= r.maxTextures {
		return Handle{}, rterr.New(rterr.TextureLimitExceeded, "field-texture registry is at capacity")
	}

	size := b.PaddedSize
	tex, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "brick-texture",
		Size: wgpu.Extent3D{
			Width:              uint32(size[0]),
			Height:             uint32(size[1]),
			DepthOrArrayLayers: uint32(size[2]),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension3D,
		Format:        wgpu.TextureFormatR32Float,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return Handle{}, rterr.Wrap(rterr.GpuError, err, "creating brick texture")
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		return Handle{}, rterr.Wrap(rterr.GpuError, err, "creating brick texture view")
	}

	sampler, err := r.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
		LodMinClamp:  0,
		LodMaxClamp:  0,
		Compare:      wgpu.CompareFunctionUndefined,
	})
	if err != nil {
		return Handle{}, rterr.Wrap(rterr.GpuError, err, "creating brick sampler")
	}

	payload := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(payload[i*4:i*4+4], math.Float32bits(v))
	}

	r.device.GetQueue().WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, MipLevel: 0, Aspect: wgpu.TextureAspectAll},
		payload,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(size[0] * 4),
			RowsPerImage: uint32(size[1]),
		},
		&wgpu.Extent3D{Width: uint32(size[0]), Height: uint32(size[1]), DepthOrArrayLayers: uint32(size[2])},
	)

	h := Handle(uuid.New())
	r.entries[h] = &Entry{Handle: h, Texture: tex, View: view, Sampler: sampler, Size: size}
	r.log.Debugf("gputexture: created %v (%dx%dx%d), %d/%d in use", h, size[0], size[1], size[2], len(r.entries), r.maxTextures)
	return h, nil
}

// Lookup returns the entry for h, or (nil, false) if it does not exist.
func (r *Registry) Lookup(h Handle) (*Entry, bool) {
	e, ok := r.entries[h]
	return e, ok
}

// Release destroys the GPU texture behind h and removes it from the
// registry. Called when the owning brick is destroyed.
func (r *Registry) Release(h Handle) {
	e, ok := r.entries[h]
	if !ok {
		return
	}
	e.Texture.Release()
	delete(r.entries, h)
}

// ReleaseAll destroys every live texture, used when a field is unloaded.
func (r *Registry) ReleaseAll() {
	for h := range r.entries {
		r.Release(h)
	}
}
