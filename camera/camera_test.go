package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approxEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func vecApproxEqual(a, b mgl32.Vec3, eps float32) bool {
	return approxEqual(a[0], b[0], eps) && approxEqual(a[1], b[1], eps) && approxEqual(a[2], b[2], eps)
}

func TestNew_DefaultsToIdentityTransform(t *testing.T) {
	c := New()
	if c.Model() != mgl32.Ident4() {
		t.Error("expected identity model matrix")
	}
	if c.View() != mgl32.Ident4() {
		t.Error("expected identity view matrix")
	}
}

func TestSetViewDistance_MovesCameraPositionAlongLookAxis(t *testing.T) {
	c := New()
	c.SetViewDistance(10)

	if !vecApproxEqual(c.Position(), mgl32.Vec3{0, 0, 10}, 1e-4) {
		t.Errorf("expected camera at (0,0,10), got %v", c.Position())
	}
	if !vecApproxEqual(c.LookAxis(), mgl32.Vec3{0, 0, 1}, 1e-4) {
		t.Errorf("expected look axis (0,0,1), got %v", c.LookAxis())
	}
}

func TestApplyScale_RejectsNonPositive(t *testing.T) {
	c := New()
	if err := c.ApplyScale(0); err == nil {
		t.Fatal("expected error for zero scale")
	}
	if err := c.ApplyScale(-1); err == nil {
		t.Fatal("expected error for negative scale")
	}
}

func TestSetProjection_RejectsDegenerateRange(t *testing.T) {
	c := New()
	if err := c.SetProjection(Perspective, 60, 1, 10, 5); err == nil {
		t.Fatal("expected error when far <= near")
	}
	if err := c.SetProjection(Perspective, 60, 0, 0.1, 100); err == nil {
		t.Fatal("expected error for non-positive aspect ratio")
	}
}

func TestApplyOriginCenteredViewRotation_PreservesTranslation(t *testing.T) {
	c := New()
	c.SetViewDistance(10)
	before := c.View().Col(3)

	c.Orbit(mgl32.Vec3{0, 1, 0}, float32(math.Pi)/4)

	after := c.View().Col(3)
	if !vecApproxEqual(mgl32.Vec3{before[0], before[1], before[2]}, mgl32.Vec3{after[0], after[1], after[2]}, 1e-4) {
		t.Errorf("expected translation preserved across orbit, before=%v after=%v", before, after)
	}
}

func TestDolly_ScalesModelExponentially(t *testing.T) {
	c := New()
	if err := c.Dolly(100, DefaultZoomRateModifier); err != nil {
		t.Fatalf("Dolly: %v", err)
	}
	got := c.Model().At(0, 0)
	want := float32(math.Exp(DefaultZoomRateModifier * 100))
	if !approxEqual(got, want, 1e-4) {
		t.Errorf("expected model x-scale %f, got %f", want, got)
	}
}

func TestSetClipPlanes_LeavesFieldOfViewAndAspectUnchanged(t *testing.T) {
	c := New()
	c.SetFieldOfView(45)
	if err := c.SetAspectRatio(1.5); err != nil {
		t.Fatal(err)
	}
	if err := c.SetClipPlanes(1, 50); err != nil {
		t.Fatal(err)
	}
	if c.FieldOfView() != 45 {
		t.Errorf("expected field of view unchanged at 45, got %f", c.FieldOfView())
	}
	if c.AspectRatio() != 1.5 {
		t.Errorf("expected aspect ratio unchanged at 1.5, got %f", c.AspectRatio())
	}
	if c.Near() != 1 || c.Far() != 50 {
		t.Errorf("expected near/far updated to 1/50, got %f/%f", c.Near(), c.Far())
	}
}

func TestSetClipPlanes_RejectsDegenerateRange(t *testing.T) {
	c := New()
	if err := c.SetClipPlanes(10, 5); err == nil {
		t.Fatal("expected error when far <= near")
	}
}

func TestSetProjectionType_PreservesOtherParameters(t *testing.T) {
	c := New()
	c.SetFieldOfView(45)
	c.SetProjectionType(Orthographic)
	if c.ProjectionType() != Orthographic {
		t.Error("expected projection type switched to orthographic")
	}
	if c.FieldOfView() != 45 {
		t.Errorf("expected field of view unchanged at 45, got %f", c.FieldOfView())
	}
}

func TestMVP_IsProjectionTimesViewTimesModel(t *testing.T) {
	c := New()
	c.ApplyTranslation(mgl32.Vec3{1, 2, 3})
	c.SetViewDistance(5)

	want := c.Projection().Mul4(c.View().Mul4(c.Model()))
	got := c.MVP()
	for i := 0; i < 16; i++ {
		if !approxEqual(want[i], got[i], 1e-4) {
			t.Fatalf("MVP mismatch at index %d: want %f got %f", i, want[i], got[i])
		}
	}
}
