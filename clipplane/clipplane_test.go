package clipplane

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSetPlane_RejectsOutOfRangeIndex(t *testing.T) {
	e := New()
	if err := e.SetPlane(MaxPlanes, mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}); err == nil {
		t.Fatal("expected error for out-of-range plane index")
	}
}

func TestBoxFullyClipped_BoxEntirelyBehindPlane(t *testing.T) {
	e := New()
	// Plane at x=0.5 keeping x >= 0.5 (normal points +x).
	if err := e.SetPlane(0, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	// Box spanning [0,0.4] on x is entirely on the excluded side.
	clipped := e.BoxFullyClipped(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0.4, 1, 1})
	if !clipped {
		t.Error("expected box fully on the excluded side of the plane to be culled")
	}
}

func TestBoxFullyClipped_BoxStraddlingPlaneSurvives(t *testing.T) {
	e := New()
	if err := e.SetPlane(0, mgl32.Vec3{0.5, 0, 0}, mgl32.Vec3{1, 0, 0}); err != nil {
		t.Fatal(err)
	}

	// Box spans [0,1] on x, so its front corner (x=1) is inside the
	// kept half-space; it must not be culled.
	clipped := e.BoxFullyClipped(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	if clipped {
		t.Error("expected box straddling the plane to survive the cull")
	}
}

func TestBoxFullyClipped_NoActivePlanesNeverClips(t *testing.T) {
	e := New()
	if e.BoxFullyClipped(mgl32.Vec3{100, 100, 100}, mgl32.Vec3{1, 1, 1}) {
		t.Error("expected no culling with zero active planes")
	}
}

func TestFrontBackCornerTables_AreAntipodal(t *testing.T) {
	normals := []mgl32.Vec3{
		{1, 1, 1}, {-1, 1, 1}, {1, -1, 1}, {1, 1, -1},
		{-1, -1, 1}, {-1, 1, -1}, {1, -1, -1}, {-1, -1, -1},
	}
	for _, n := range normals {
		front := unitCubeCorners[FrontCornerForNormal(n)]
		back := unitCubeCorners[BackCornerForNormal(n)]
		sum := front.Add(back)
		if sum != (mgl32.Vec3{1, 1, 1}) {
			t.Errorf("normal %v: front %v and back %v are not antipodal on the unit cube", n, front, back)
		}
	}
}

func TestEmitShaderSnippet_EmptyWhenNoPlanes(t *testing.T) {
	e := New()
	if got := e.EmitShaderSnippet("world_pos"); got != "" {
		t.Errorf("expected empty snippet with no active planes, got %q", got)
	}
}

func TestEmitShaderSnippet_OneDiscardPerActivePlane(t *testing.T) {
	e := New()
	e.SetPlane(0, mgl32.Vec3{}, mgl32.Vec3{1, 0, 0})
	e.SetPlane(1, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})

	snippet := e.EmitShaderSnippet("world_pos")
	count := 0
	for i := 0; i < len(snippet); i++ {
		if i+7 <= len(snippet) && snippet[i:i+7] == "discard" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 discard statements for 2 active planes, got %d", count)
	}
}
