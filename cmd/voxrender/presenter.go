package main

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/renderer"
)

// swapchainPresenter satisfies hostapi.FrameRenderer by acquiring the
// surface's current texture, handing the view to the renderer driver,
// and presenting, following voxelrt/rt/app/app.go's Render sequence
// (GetCurrentTexture, CreateView, draw, Present).
type swapchainPresenter struct {
	surface *wgpu.Surface
	device  *wgpu.Device
	driver  *renderer.Driver
}

func (p *swapchainPresenter) RenderFrame(frame renderer.Frame) error {
	texture, err := p.surface.GetCurrentTexture()
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "acquiring swapchain texture")
	}
	defer texture.Release()

	view, err := texture.CreateView(nil)
	if err != nil {
		return rterr.Wrap(rterr.GpuError, err, "creating swapchain texture view")
	}
	defer view.Release()

	if err := p.driver.RenderFrame(view, frame); err != nil {
		return err
	}

	p.surface.Present()
	p.device.Poll(false, nil)
	return nil
}
