package hostapi

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarvol/voxrender/camera"
	"github.com/solarvol/voxrender/transferfunction"
)

func newHeadlessAPI(t *testing.T) *API {
	t.Helper()
	a := New(nil)
	require.NoError(t, a.Initialize(nil, wgpu.TextureFormat(0), nil, nil))
	return a
}

func writeBifrostFiles(t *testing.T, base string, values []float32) {
	t.Helper()
	header := "element_kind: f\n" +
		"element_size: 4\n" +
		"endianness: l\n" +
		"dimensions: 3\n" +
		"order: C\n" +
		"x_size: 2\n" +
		"y_size: 2\n" +
		"z_size: 2\n" +
		"dx: 1.0\n" +
		"dy: 1.0\n" +
		"dz: 1.0\n"
	require.NoError(t, os.WriteFile(base+".dat", []byte(header), 0o644))

	buf := new(bytes.Buffer)
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	require.NoError(t, os.WriteFile(base+".raw", buf.Bytes(), 0o644))
}

func TestIsInitialized_BeforeAndAfterInitialize(t *testing.T) {
	a := New(nil)
	assert.False(t, a.IsInitialized())

	require.NoError(t, a.Initialize(nil, wgpu.TextureFormat(0), nil, nil))
	assert.True(t, a.IsInitialized())

	a.Cleanup()
	assert.False(t, a.IsInitialized())
}

func TestOperationsBeforeInitialize_ReturnError(t *testing.T) {
	a := New(nil)
	assert.Error(t, a.SetBrickSizePowerOfTwo(4))
	assert.Error(t, a.SetMinimumSubBrickSize(6))
	assert.Error(t, a.SetCameraFieldOfView(60))
	assert.Error(t, a.SetClipPlaneDistances(0.1, 100))
	assert.Error(t, a.SetLowerVisibilityThreshold(0.1))
}

func TestSetBrickSizePowerOfTwo_RejectsNegativeExponent(t *testing.T) {
	a := newHeadlessAPI(t)
	assert.Error(t, a.SetBrickSizePowerOfTwo(-1))
	assert.NoError(t, a.SetBrickSizePowerOfTwo(6))
}

func TestSetFieldFromBifrostFile_LoadsAndParsesHeader(t *testing.T) {
	a := newHeadlessAPI(t)
	require.NoError(t, a.SetBrickSizePowerOfTwo(1)) // the 2x2x2 test field only fits a brick size of 2
	base := t.TempDir() + "/field"
	writeBifrostFiles(t, base, []float32{0, 10, 20, 30, 40, 50, 60, 100})

	a.SetFieldFromBifrostFile("density", base)
	require.NotNil(t, a.driver.Field())
}

func TestSetFieldFromBifrostFile_MissingFileWarnsAndIgnores(t *testing.T) {
	a := newHeadlessAPI(t)
	a.SetFieldFromBifrostFile("density", t.TempDir()+"/missing")
	assert.Nil(t, a.driver.Field())
}

func TestDumpActiveTransferFunctionPreview_WritesPNG(t *testing.T) {
	a := newHeadlessAPI(t)
	require.NoError(t, a.SetBrickSizePowerOfTwo(1))
	base := t.TempDir() + "/field"
	writeBifrostFiles(t, base, []float32{0, 10, 20, 30, 40, 50, 60, 100})
	a.SetFieldFromBifrostFile("density", base)

	tf, err := a.driver.TransferFunctions().Get(a.driver.ActiveTransferFunction())
	require.NoError(t, err)

	previewPath := t.TempDir() + "/lut_preview.png"
	require.NoError(t, transferfunction.DumpLUTPreview(tf, previewPath, 16))

	info, err := os.Stat(previewPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSetCameraFieldOfView_RejectsOutOfRange(t *testing.T) {
	a := newHeadlessAPI(t)
	assert.Error(t, a.SetCameraFieldOfView(0))
	assert.Error(t, a.SetCameraFieldOfView(180))
	assert.NoError(t, a.SetCameraFieldOfView(45))
}

func TestProjectionToggle_SwitchesType(t *testing.T) {
	a := newHeadlessAPI(t)
	require.NoError(t, a.UseOrthographicCameraProjection())
	assert.Equal(t, camera.Orthographic, a.driver.Camera().ProjectionType())
	require.NoError(t, a.UsePerspectiveCameraProjection())
	assert.Equal(t, camera.Perspective, a.driver.Camera().ProjectionType())
}

func TestIndicatorCreation_RejectsInvalidState(t *testing.T) {
	a := newHeadlessAPI(t)
	assert.Error(t, a.SetFieldBoundaryIndicatorCreation(2))
	assert.Error(t, a.SetFieldBoundaryIndicatorCreation(-1))
	assert.NoError(t, a.SetFieldBoundaryIndicatorCreation(1))
}

func TestTransferFunctionNodeEdits_NoFieldStillSafe(t *testing.T) {
	a := newHeadlessAPI(t)
	a.UpdateTransferFunctionNodeValue(3, 128, 1.0)
	a.RemoveTransferFunctionNode(3, 128)
	a.UseLogarithmicTransferFunctionComponent(3)
	a.ResetTransferFunctionComponent(3)
	a.SetCustomTransferFunctionComponent(0, make([]float32, 254))
}

func TestTransferFunctionNodeEdits_InvalidComponentIsIgnored(t *testing.T) {
	a := newHeadlessAPI(t)
	a.UpdateTransferFunctionNodeValue(7, 128, 1.0)
	a.UpdateTransferFunctionLowerNodeValue(-1, 0.5)
}

func TestSetTransferFunctionLimits_ConvertFieldUnits(t *testing.T) {
	a := newHeadlessAPI(t)
	require.NoError(t, a.SetBrickSizePowerOfTwo(1))
	base := t.TempDir() + "/field"
	writeBifrostFiles(t, base, []float32{0, 10, 20, 30, 40, 50, 60, 100})
	a.SetFieldFromBifrostFile("density", base)

	f := a.driver.Field().Field
	a.SetTransferFunctionLowerLimit(f.MinValue)
	assert.InDelta(t, 0, a.driver.LowerLimit(), 1e-6)

	a.SetTransferFunctionUpperLimit(f.MaxValue)
	assert.InDelta(t, 1, a.driver.UpperLimit(), 1e-6)
}

func TestVisibilityThresholds_RejectOutOfOrderOrRange(t *testing.T) {
	a := newHeadlessAPI(t)
	assert.Error(t, a.SetLowerVisibilityThreshold(-0.1))
	assert.Error(t, a.SetUpperVisibilityThreshold(1.1))
	require.NoError(t, a.SetLowerVisibilityThreshold(0.2))
	assert.Error(t, a.SetUpperVisibilityThreshold(0.1))
}

func TestStep_WithoutWindowAlwaysContinues(t *testing.T) {
	a := newHeadlessAPI(t)
	cont, err := a.Step()
	require.NoError(t, err)
	assert.True(t, cont)
}

type closingWindow struct{ closed bool }

func (w *closingWindow) ShouldClose() bool { return w.closed }
func (w *closingWindow) Focus()            {}

func TestStep_StopsWhenWindowShouldClose(t *testing.T) {
	a := New(nil)
	win := &closingWindow{}
	require.NoError(t, a.Initialize(nil, wgpu.TextureFormat(0), win, nil))

	cont, err := a.Step()
	require.NoError(t, err)
	assert.True(t, cont)

	win.closed = true
	cont, err = a.Step()
	require.NoError(t, err)
	assert.False(t, cont)
}

func TestBringWindowToFront_NoopWithoutWindow(t *testing.T) {
	a := newHeadlessAPI(t)
	a.BringWindowToFront()
}
