package renderer

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/solarvol/voxrender/field"
)

func validHeaderText() string {
	return "element_kind: f\n" +
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
}

func encodeVoxels(values []float32) []byte {
	buf := new(bytes.Buffer)
	for _, v := range values {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func testHeader(t *testing.T) *field.Header {
	t.Helper()
	h, err := field.ParseHeader(strings.NewReader(validHeaderText()))
	if err != nil {
		t.Fatalf("parse header: %v", err)
	}
	return h
}

func TestNew_StartsWithNoField(t *testing.T) {
	d := New(nil, nil)
	if d.Field() != nil {
		t.Error("expected no field loaded before LoadField")
	}
	if d.textures != nil {
		t.Error("expected nil texture registry with a nil device")
	}
}

func TestLoadField_BricksAndMarksDirty(t *testing.T) {
	d := New(nil, nil)
	if err := d.SetBrickSizePowerOfTwo(1); err != nil { // the 2x2x2 test field only fits a brick size of 2
		t.Fatal(err)
	}
	values := []float32{0, 10, 20, 30, 40, 50, 60, 100}
	if err := d.LoadField(testHeader(t), bytes.NewReader(encodeVoxels(values))); err != nil {
		t.Fatalf("LoadField: %v", err)
	}

	if d.Field() == nil {
		t.Fatal("expected a bricked field after LoadField")
	}
	if !d.needsVisibilityRecompute {
		t.Error("expected needs_visibility_recompute set after LoadField")
	}
	if !d.needsRedraw {
		t.Error("expected needs_redraw set after LoadField")
	}
}

func TestStep_RecomputesVisibilityThenClearsDirtyBits(t *testing.T) {
	d := New(nil, nil)
	if err := d.SetBrickSizePowerOfTwo(1); err != nil {
		t.Fatal(err)
	}
	values := []float32{0, 10, 20, 30, 40, 50, 60, 100}
	if err := d.LoadField(testHeader(t), bytes.NewReader(encodeVoxels(values))); err != nil {
		t.Fatalf("LoadField: %v", err)
	}

	frame := d.Step(false)
	if d.needsVisibilityRecompute {
		t.Error("expected needs_visibility_recompute cleared after Step")
	}
	if d.needsRedraw {
		t.Error("expected needs_redraw cleared after Step")
	}
	if frame.DrawCalls == nil && len(frame.DrawCalls) != 0 {
		t.Error("expected a (possibly empty) draw call slice, not nil semantics mismatch")
	}

	second := d.Step(false)
	if len(second.DrawCalls) != 0 || second.IndicatorCubes != nil {
		t.Error("expected an empty Frame on a second Step with nothing dirty")
	}
}

func TestRefreshFrame_RedrawsWithoutRecomputingVisibility(t *testing.T) {
	d := New(nil, nil)
	if err := d.SetBrickSizePowerOfTwo(1); err != nil {
		t.Fatal(err)
	}
	values := []float32{0, 10, 20, 30, 40, 50, 60, 100}
	if err := d.LoadField(testHeader(t), bytes.NewReader(encodeVoxels(values))); err != nil {
		t.Fatalf("LoadField: %v", err)
	}
	d.Step(false)

	d.RefreshFrame()
	if d.needsVisibilityRecompute {
		t.Error("expected RefreshFrame to leave visibility recompute untouched")
	}
	if !d.needsRedraw {
		t.Error("expected RefreshFrame to set needs_redraw")
	}
}

func TestMarkVisibilityDirty_RespectsAutorefreshToggle(t *testing.T) {
	d := New(nil, nil)
	d.DisableAutorefresh()
	d.needsVisibilityRecompute = false
	d.MarkVisibilityDirty()
	if d.needsVisibilityRecompute {
		t.Error("expected MarkVisibilityDirty to no-op while autorefresh is disabled")
	}

	d.EnableAutorefresh()
	d.MarkVisibilityDirty()
	if !d.needsVisibilityRecompute {
		t.Error("expected MarkVisibilityDirty to set the dirty bit once autorefresh is enabled")
	}
}

func TestSetBrickSizePowerOfTwo_RejectsNegativeExponent(t *testing.T) {
	d := New(nil, nil)
	if err := d.SetBrickSizePowerOfTwo(-1); err == nil {
		t.Fatal("expected error for negative exponent")
	}
}

func TestSetMinimumSubBrickSize_RejectsNonPositive(t *testing.T) {
	d := New(nil, nil)
	if err := d.SetMinimumSubBrickSize(0); err == nil {
		t.Fatal("expected error for non-positive minimum sub-brick size")
	}
}

func TestCompilePrograms_NoOpWithNilDevice(t *testing.T) {
	d := New(nil, nil)
	if err := d.CompilePrograms(0); err != nil {
		t.Fatalf("expected no error compiling programs with a nil device, got %v", err)
	}
}

func TestSetIndicatorToggles_AppliesOnNextLoadField(t *testing.T) {
	d := New(nil, nil)
	if err := d.SetBrickSizePowerOfTwo(1); err != nil {
		t.Fatal(err)
	}
	d.SetIndicatorToggles(true, false, false)

	values := []float32{0, 10, 20, 30, 40, 50, 60, 100}
	if err := d.LoadField(testHeader(t), bytes.NewReader(encodeVoxels(values))); err != nil {
		t.Fatalf("LoadField: %v", err)
	}

	if _, err := d.Indicators().Get("field"); err != nil {
		t.Errorf("expected a field boundary indicator to exist, got %v", err)
	}
}
