package slicer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/clipplane"
)

func TestStackGrow_RejectsFewerThanTwoPlanes(t *testing.T) {
	s := NewStack()
	if err := s.Grow(1); err == nil {
		t.Fatal("expected error growing to fewer than 2 planes")
	}
}

func TestStackGrow_BuildsSixVerticesAndTwelveIndicesPerPlane(t *testing.T) {
	s := NewStack()
	if err := s.Grow(4); err != nil {
		t.Fatal(err)
	}
	if len(s.Vertices()) != 4*6 {
		t.Errorf("expected %d vertices, got %d", 4*6, len(s.Vertices()))
	}
	if len(s.Indices()) != 4*12 {
		t.Errorf("expected %d indices, got %d", 4*12, len(s.Indices()))
	}
}

func TestStackGrow_NoOpWhenAlreadyLargeEnough(t *testing.T) {
	s := NewStack()
	s.Grow(10)
	before := len(s.Vertices())
	if err := s.Grow(5); err != nil {
		t.Fatal(err)
	}
	if len(s.Vertices()) != before {
		t.Error("expected Grow to a smaller Pmax to be a no-op")
	}
}

func TestNewSeparation_GrowsStackToRequiredPmax(t *testing.T) {
	s := NewStack()
	sep, err := NewSeparation(s, [3]float32{1, 1, 1}, 32, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Pmax() < 2 {
		t.Errorf("expected stack grown to a usable Pmax, got %d", s.Pmax())
	}
	if sep.SamplingCorrection() != 1 {
		t.Errorf("expected initial sampling correction of 1, got %f", sep.SamplingCorrection())
	}
}

func TestSeparation_SamplingCorrectionTracksMultiplierChange(t *testing.T) {
	s := NewStack()
	sep, err := NewSeparation(s, [3]float32{1, 1, 1}, 32, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if err := sep.Set(s, [3]float32{1, 1, 1}, 32, 2.0); err != nil {
		t.Fatal(err)
	}
	if sep.SamplingCorrection() <= 1 {
		t.Errorf("expected sampling correction > 1 after doubling spacing, got %f", sep.SamplingCorrection())
	}
}

func TestTraverse_SkipsInvisibleBrickSubtree(t *testing.T) {
	bf := &brick.BrickedField{
		Tree: &brick.BrickTree{
			Root: 0,
			Nodes: []brick.BrickTreeNode{
				{LowerChild: -1, UpperChild: -1, BrickIndex: 0, VisibilityRatio: 0, SpatialExtent: mgl32.Vec3{1, 1, 1}},
			},
		},
		Bricks: []*brick.Brick{{}},
	}

	engine := clipplane.New()
	s := NewStack()
	sep, _ := NewSeparation(s, [3]float32{1, 1, 1}, 8, 1.0)

	calls := Traverse(bf, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, -1}, false, engine, Thresholds{Lower: 0.01, Upper: 0.9}, sep, s)
	if len(calls) != 0 {
		t.Errorf("expected no draw calls for an invisible leaf, got %d", len(calls))
	}
	if bf.Tree.Nodes[0].Visibility != brick.VisibilityInvisible {
		t.Error("expected leaf marked invisible after traversal")
	}
}

func TestTraverse_DrawsVisibleLeafSubBrick(t *testing.T) {
	b := &brick.Brick{
		SpatialExtent: mgl32.Vec3{1, 1, 1},
		Tree: &brick.SubBrickTree{
			Root: 0,
			Nodes: []brick.SubBrickTreeNode{
				{LowerChild: -1, UpperChild: -1, VisibilityRatio: 1, SpatialExtent: mgl32.Vec3{1, 1, 1}},
			},
		},
	}
	bf := &brick.BrickedField{
		Tree: &brick.BrickTree{
			Root: 0,
			Nodes: []brick.BrickTreeNode{
				{LowerChild: -1, UpperChild: -1, BrickIndex: 0, VisibilityRatio: 1, SpatialExtent: mgl32.Vec3{1, 1, 1}},
			},
		},
		Bricks: []*brick.Brick{b},
	}

	engine := clipplane.New()
	s := NewStack()
	sep, _ := NewSeparation(s, [3]float32{1, 1, 1}, 8, 1.0)

	calls := Traverse(bf, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, -1}, false, engine, Thresholds{Lower: 0.01, Upper: 0.9}, sep, s)
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 draw call, got %d", len(calls))
	}
	if calls[0].NumRequiredPlanes < 1 {
		t.Errorf("expected at least 1 required plane, got %d", calls[0].NumRequiredPlanes)
	}
}

func TestTraverse_ClippedBrickSubtreeIsSkipped(t *testing.T) {
	bf := &brick.BrickedField{
		Tree: &brick.BrickTree{
			Root: 0,
			Nodes: []brick.BrickTreeNode{
				{LowerChild: -1, UpperChild: -1, BrickIndex: 0, VisibilityRatio: 1, SpatialOffset: mgl32.Vec3{10, 10, 10}, SpatialExtent: mgl32.Vec3{1, 1, 1}},
			},
		},
		Bricks: []*brick.Brick{{
			SpatialOffset: mgl32.Vec3{10, 10, 10},
			SpatialExtent: mgl32.Vec3{1, 1, 1},
			Tree: &brick.SubBrickTree{
				Root: 0,
				Nodes: []brick.SubBrickTreeNode{
					{LowerChild: -1, UpperChild: -1, VisibilityRatio: 1, SpatialOffset: mgl32.Vec3{10, 10, 10}, SpatialExtent: mgl32.Vec3{1, 1, 1}},
				},
			},
		}},
	}

	engine := clipplane.New()
	engine.SetPlane(0, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-1, 0, 0}) // keeps x <= 0
	s := NewStack()
	sep, _ := NewSeparation(s, [3]float32{1, 1, 1}, 8, 1.0)

	calls := Traverse(bf, mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, -1}, false, engine, Thresholds{Lower: 0.01, Upper: 0.9}, sep, s)
	if len(calls) != 0 {
		t.Errorf("expected no draw calls for a fully clipped leaf, got %d", len(calls))
	}
}
