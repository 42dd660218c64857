// Package hostapi is the single entry point an embedding host (the
// process owning the window and the event loop) drives the renderer
// through, mirroring the flat vt_* function table the original exposed
// to its Python bindings: one operation per host action, synchronous,
// no hidden state beyond what Initialize establishes.
//
// Two error-handling classes apply, per the renderer's recovery policy.
// Configuration setters (brick size, camera projection, visibility
// thresholds, indicator toggles) validate their argument and return the
// error synchronously: the host is expected to have validated already,
// so a non-nil return means a programming error on the host's side.
// Field and transfer-function edits never return an error; a bad edit
// (out-of-range component, missing field, stale handle) is logged and
// ignored, leaving the prior state in place, matching the original's
// print_warning_message-then-continue behavior for the same operations.
package hostapi

import (
	"os"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/solarvol/voxrender/camera"
	"github.com/solarvol/voxrender/field"
	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/internal/rtlog"
	"github.com/solarvol/voxrender/renderer"
	"github.com/solarvol/voxrender/transferfunction"
)

// Window is the subset of a window handle the host API needs: whether
// the host loop should keep stepping, and focusing it on demand. The
// concrete type (a *glfw.Window in cmd/voxrender) satisfies this without
// hostapi importing glfw.
type Window interface {
	ShouldClose() bool
	Focus()
}

// FrameRenderer submits one Step's drawable output to the GPU. The
// concrete implementation (cmd/voxrender) owns the swapchain, command
// encoder, and bind groups; the API only hands it the frame.
type FrameRenderer interface {
	RenderFrame(renderer.Frame) error
}

// API wraps a single renderer.Driver with the host operation table.
// Unlike the original's global state, every call targets this instance;
// nothing here is process-wide.
type API struct {
	log rtlog.Logger

	driver  *renderer.Driver
	window  Window
	present FrameRenderer

	initialized bool
}

// New returns an API with no active driver. Call Initialize before any
// other operation.
func New(log rtlog.Logger) *API {
	return &API{log: rtlog.Or(log)}
}

// Initialize creates the renderer driver and compiles its shader
// programs against colorFormat. device may be nil for a headless API
// (tests, CPU-only tooling); window and present may be nil when the
// caller does not need Step to poll a window or submit draws.
func (a *API) Initialize(device *wgpu.Device, colorFormat wgpu.TextureFormat, window Window, present FrameRenderer, opts ...renderer.Option) error {
	a.driver = renderer.New(device, a.log, opts...)
	if err := a.driver.CompilePrograms(colorFormat); err != nil {
		a.driver = nil
		return err
	}
	a.window = window
	a.present = present
	a.initialized = true
	return nil
}

// IsInitialized reports whether Initialize has run without a matching
// Cleanup.
func (a *API) IsInitialized() bool {
	return a.initialized
}

// Driver exposes the underlying renderer driver for a FrameRenderer
// implementation to submit draws against; nil before Initialize.
func (a *API) Driver() *renderer.Driver {
	return a.driver
}

// Cleanup tears down the active driver, releasing its GPU resources.
// No-op if not initialized.
func (a *API) Cleanup() {
	if !a.initialized {
		return
	}
	a.driver.Close()
	a.driver = nil
	a.window = nil
	a.present = nil
	a.initialized = false
}

func (a *API) requireInitialized() error {
	if !a.initialized {
		return rterr.New(rterr.InvalidConfig, "host operation called before initialize")
	}
	return nil
}

// warnAndIgnore logs a non-fatal field/transfer-function editing error
// and drops it, the redesigned equivalent of the original's
// print_warning_message-then-return.
func (a *API) warnAndIgnore(op string, err error) {
	if err == nil {
		return
	}
	a.log.Warnf("hostapi: %s: %v", op, err)
}

// SetBrickSizePowerOfTwo sets the requested brick size to 2^exponent,
// applied on the next SetFieldFromBifrostFile.
func (a *API) SetBrickSizePowerOfTwo(exponent int) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	return a.driver.SetBrickSizePowerOfTwo(exponent)
}

// SetMinimumSubBrickSize sets the sub-brick recursion terminator,
// applied on the next SetFieldFromBifrostFile.
func (a *API) SetMinimumSubBrickSize(size int) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	return a.driver.SetMinimumSubBrickSize(size)
}

// SetFieldFromBifrostFile destroys any prior field, loads the field
// named by fileBase+".dat" (header) and fileBase+".raw" (voxel data),
// rebricks it, and marks visibility and the frame dirty. fieldName is
// carried only for diagnostics; the driver holds a single active field,
// not a name-keyed table, since only one field is ever rendered at a
// time. Failure of any kind (missing files, malformed header, bad data)
// is a field-editing error: it is logged and ignored, leaving whatever
// field was previously loaded (or none) in place.
func (a *API) SetFieldFromBifrostFile(fieldName, fileBase string) {
	if err := a.requireInitialized(); err != nil {
		a.warnAndIgnore("set_field_from_bifrost_file", err)
		return
	}

	headerFile, err := os.Open(fileBase + ".dat")
	if err != nil {
		a.warnAndIgnore("set_field_from_bifrost_file", rterr.Wrap(rterr.BadHeader, err, "opening field header"))
		return
	}
	defer headerFile.Close()

	header, err := field.ParseHeader(headerFile)
	if err != nil {
		a.warnAndIgnore("set_field_from_bifrost_file", err)
		return
	}

	dataFile, err := os.Open(fileBase + ".raw")
	if err != nil {
		a.warnAndIgnore("set_field_from_bifrost_file", rterr.Wrap(rterr.BadFieldData, err, "opening field data"))
		return
	}
	defer dataFile.Close()

	if err := a.driver.LoadField(header, dataFile); err != nil {
		a.warnAndIgnore("set_field_from_bifrost_file", err)
		return
	}
	a.log.Infof("hostapi: loaded field %q from %s", fieldName, fileBase)
}

// Step processes one frame: recomputes visibility if dirty, traverses
// and redraws if dirty, hands the result to the FrameRenderer, and
// reports whether the host loop should keep running (false once the
// window has asked to close). A nil window always reports true.
func (a *API) Step() (bool, error) {
	if err := a.requireInitialized(); err != nil {
		return false, err
	}
	if a.window != nil && a.window.ShouldClose() {
		return false, nil
	}

	orthographic := a.driver.Camera().ProjectionType() == camera.Orthographic
	frame := a.driver.Step(orthographic)

	if a.present != nil {
		if err := a.present.RenderFrame(frame); err != nil {
			return false, err
		}
	}

	return a.window == nil || !a.window.ShouldClose(), nil
}

// RefreshVisibility unconditionally recomputes brick visibility ratios.
func (a *API) RefreshVisibility() {
	if a.initialized {
		a.driver.RefreshVisibility()
	}
}

// RefreshFrame unconditionally marks the frame dirty.
func (a *API) RefreshFrame() {
	if a.initialized {
		a.driver.RefreshFrame()
	}
}

// EnableAutorefresh / DisableAutorefresh toggle implicit dirty-bit
// setting after edits.
func (a *API) EnableAutorefresh() {
	if a.initialized {
		a.driver.EnableAutorefresh()
	}
}

func (a *API) DisableAutorefresh() {
	if a.initialized {
		a.driver.DisableAutorefresh()
	}
}

// BringWindowToFront focuses the host window. No-op without a window.
func (a *API) BringWindowToFront() {
	if a.window != nil {
		a.window.Focus()
	}
}
