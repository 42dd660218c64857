// Command voxrender is the reference host for the renderer: a glfw
// window driving a hostapi.API through its webgpu surface, following
// voxelrt/rt_main.go's window/callback/main-loop structure.
package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/camera"
	"github.com/solarvol/voxrender/hostapi"
	"github.com/solarvol/voxrender/internal/rtlog"
	"github.com/solarvol/voxrender/transferfunction"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	fieldBase := flag.String("field", "", "bifrost field file base (loads base+.dat / base+.raw)")
	debug := flag.Bool("debug", false, "enable debug logging")
	dumpLUTPreview := flag.String("dump-lut-preview", "", "write a PNG strip of the active transfer function's LUT to this path and exit")
	flag.Parse()

	log := rtlog.NewDefaultLogger("voxrender", *debug)

	failed := false
	defer func() {
		if failed {
			os.Exit(1)
		}
	}()

	if err := glfw.Init(); err != nil {
		log.Errorf("glfw init: %v", err)
		failed = true
		return
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "voxrender", nil, nil)
	if err != nil {
		log.Errorf("creating window: %v", err)
		failed = true
		return
	}
	defer window.Destroy()

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		log.Errorf("requesting adapter: %v", err)
		failed = true
		return
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		log.Errorf("requesting device: %v", err)
		failed = true
		return
	}

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	colorFormat := caps.Formats[0]
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      colorFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	api := hostapi.New(log)
	presenter := &swapchainPresenter{surface: surface, device: device}
	if err := api.Initialize(device, colorFormat, window, presenter); err != nil {
		log.Errorf("initializing renderer: %v", err)
		failed = true
		return
	}
	defer api.Cleanup()
	presenter.driver = api.Driver()

	if err := api.Driver().Camera().SetAspectRatio(float32(width) / float32(height)); err != nil {
		log.Warnf("setting initial aspect ratio: %v", err)
	}

	if *fieldBase != "" {
		api.SetFieldFromBifrostFile(*fieldBase, *fieldBase)
	}

	if *dumpLUTPreview != "" {
		tf, err := api.Driver().TransferFunctions().Get(api.Driver().ActiveTransferFunction())
		if err != nil {
			log.Errorf("dumping LUT preview: %v", err)
			return
		}
		if err := transferfunction.DumpLUTPreview(tf, *dumpLUTPreview, 32); err != nil {
			log.Errorf("dumping LUT preview: %v", err)
			return
		}
		log.Infof("wrote transfer function LUT preview to %s", *dumpLUTPreview)
		return
	}

	input := &cameraInput{cam: api.Driver().Camera(), log: log}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		config.Width = uint32(width)
		config.Height = uint32(height)
		surface.Configure(adapter, device, config)
		if err := api.Driver().Camera().SetAspectRatio(float32(width) / float32(height)); err != nil {
			log.Warnf("resizing: %v", err)
			return
		}
		api.Driver().RefreshFrame()
	})

	window.SetCursorPosCallback(input.onCursorPos)
	window.SetMouseButtonCallback(input.onMouseButton)
	window.SetScrollCallback(input.onScroll)

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		if key == glfw.KeyP && action == glfw.Press {
			if err := api.UsePerspectiveCameraProjection(); err != nil {
				log.Warnf("switching to perspective: %v", err)
			}
		}
		if key == glfw.KeyO && action == glfw.Press {
			if err := api.UseOrthographicCameraProjection(); err != nil {
				log.Warnf("switching to orthographic: %v", err)
			}
		}
	})

	for {
		glfw.PollEvents()
		keepRunning, err := api.Step()
		if err != nil {
			log.Errorf("stepping frame: %v", err)
			failed = true
			return
		}
		if !keepRunning {
			return
		}
	}
}

// cameraInput turns raw glfw mouse input into trackball-style camera
// rotation and dolly zoom, the mouse-driven equivalent of
// voxelrt/rt_main.go's yaw/pitch cursor callback.
type cameraInput struct {
	cam *camera.Camera
	log rtlog.Logger

	dragging     bool
	lastX, lastY float64
}

func (c *cameraInput) onMouseButton(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	if action == glfw.Press {
		c.dragging = true
		c.lastX, c.lastY = w.GetCursorPos()
	} else if action == glfw.Release {
		c.dragging = false
	}
}

func (c *cameraInput) onCursorPos(w *glfw.Window, xpos, ypos float64) {
	if !c.dragging {
		return
	}
	dx := float32(xpos - c.lastX)
	dy := float32(ypos - c.lastY)
	c.lastX, c.lastY = xpos, ypos

	const sensitivity = 0.005
	c.cam.ApplyOriginCenteredViewRotation(mgl32.Vec3{0, 1, 0}, dx*sensitivity)
	c.cam.ApplyOriginCenteredViewRotation(mgl32.Vec3{1, 0, 0}, dy*sensitivity)
}

func (c *cameraInput) onScroll(w *glfw.Window, xoff, yoff float64) {
	const zoomScale = 0.5
	c.cam.ApplyTranslation(mgl32.Vec3{0, 0, float32(yoff) * zoomScale})
}
