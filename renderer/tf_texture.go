package renderer

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/transferfunction"
)

// updateTransferFunctionTexture (re)uploads tf's 256-entry LUT into a
// Size-by-1 RGBA32Float texture, sampled by the fragment shader as
// vec2(coord, 0.5) per shaderbuilder.ApplyTransferFunction. Rebuilt on
// every RefreshVisibility call rather than cached per edit, the same
// full-rebuild-over-incremental-update tradeoff slicer.Stack.Grow makes
// for the plane geometry. A no-op on a headless driver.
func (d *Driver) updateTransferFunctionTexture(tf *transferfunction.TransferFunction) error {
	if d.device == nil {
		return nil
	}

	payload := make([]byte, transferfunction.Size*4*4)
	for k := 0; k < transferfunction.Size; k++ {
		base := k * 16
		binary.LittleEndian.PutUint32(payload[base:base+4], math.Float32bits(tf.Value(transferfunction.Red, k)))
		binary.LittleEndian.PutUint32(payload[base+4:base+8], math.Float32bits(tf.Value(transferfunction.Green, k)))
		binary.LittleEndian.PutUint32(payload[base+8:base+12], math.Float32bits(tf.Value(transferfunction.Blue, k)))
		binary.LittleEndian.PutUint32(payload[base+12:base+16], math.Float32bits(tf.Value(transferfunction.Alpha, k)))
	}

	if d.tfTexture == nil {
		tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "transfer-function-texture",
			Size: wgpu.Extent3D{
				Width:              transferfunction.Size,
				Height:             1,
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        wgpu.TextureFormatRGBA32Float,
			Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		})
		if err != nil {
			return rterr.Wrap(rterr.GpuError, err, "creating transfer function texture")
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			return rterr.Wrap(rterr.GpuError, err, "creating transfer function texture view")
		}
		sampler, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
			AddressModeU: wgpu.AddressModeClampToEdge,
			AddressModeV: wgpu.AddressModeClampToEdge,
			AddressModeW: wgpu.AddressModeClampToEdge,
			MagFilter:    wgpu.FilterModeLinear,
			MinFilter:    wgpu.FilterModeLinear,
			MipmapFilter: wgpu.MipmapFilterModeNearest,
			LodMinClamp:  0,
			LodMaxClamp:  0,
			Compare:      wgpu.CompareFunctionUndefined,
		})
		if err != nil {
			return rterr.Wrap(rterr.GpuError, err, "creating transfer function sampler")
		}
		d.tfTexture, d.tfView, d.tfSampler = tex, view, sampler
	}

	d.device.GetQueue().WriteTexture(
		&wgpu.ImageCopyTexture{Texture: d.tfTexture, MipLevel: 0, Aspect: wgpu.TextureAspectAll},
		payload,
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: transferfunction.Size * 16, RowsPerImage: 1},
		&wgpu.Extent3D{Width: transferfunction.Size, Height: 1, DepthOrArrayLayers: 1},
	)
	return nil
}
