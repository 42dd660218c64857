package brick

import (
	"testing"

	"github.com/solarvol/voxrender/field"
)

// uniformField builds an already-normalised Field of the given size whose
// data is a simple ramp over [0, 1).
func uniformField(sx, sy, sz int) *field.Field {
	n := sx * sy * sz
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i%n) / float32(n)
	}
	return &field.Field{
		SizeX: sx, SizeY: sy, SizeZ: sz,
		HalfExtent:  [3]float32{1, 1, 1},
		VoxelWidth:  [3]float32{2 / float32(sx), 2 / float32(sy), 2 / float32(sz)},
		VoxelExtent: [3]float32{1, 1, 1},
		MinValue:    0, MaxValue: 1,
		Data: data,
	}
}

func sumUnpaddedVolume(bf *BrickedField) int {
	sum := 0
	for _, b := range bf.Bricks {
		sum += b.Size[0] * b.Size[1] * b.Size[2]
	}
	return sum
}

func TestBuild_SingleBrickField(t *testing.T) {
	f := uniformField(64, 64, 64)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(bf.Bricks) != 1 {
		t.Fatalf("expected 1 brick, got %d", len(bf.Bricks))
	}
	if bf.Pad != 0 {
		t.Errorf("expected pad 0 for matching field/brick size, got %d", bf.Pad)
	}
	b := bf.Bricks[0]
	if b.PaddedSize != [3]int{64, 64, 64} {
		t.Errorf("expected padded size 64^3, got %v", b.PaddedSize)
	}
	if bf.Tree == nil || len(bf.Tree.Nodes) != 1 {
		t.Fatalf("expected a single-node brick tree, got %+v", bf.Tree)
	}
	if len(b.Tree.Nodes) < 1 {
		t.Errorf("expected at least one sub-brick tree node")
	}
}

func TestBuild_EvenTiling(t *testing.T) {
	f := uniformField(128, 128, 128)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(bf.Bricks) != 8 {
		t.Fatalf("expected 8 bricks, got %d", len(bf.Bricks))
	}
	if bf.Counts != [3]int{2, 2, 2} {
		t.Fatalf("expected counts 2,2,2 got %v", bf.Counts)
	}
	for _, b := range bf.Bricks {
		wantCycle := (b.Index[0] + b.Index[1] + b.Index[2]) % 3
		if int(b.Orientation) != wantCycle {
			t.Errorf("brick %v: expected orientation %d, got %d", b.Index, wantCycle, b.Orientation)
		}
	}
}

func TestBuild_UnevenTiling(t *testing.T) {
	f := uniformField(130, 96, 64)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bf.Counts != [3]int{3, 2, 1} {
		t.Fatalf("expected counts 3,2,1 got %v", bf.Counts)
	}
	// The rightmost brick along x (index 2) should have unpadded size 2.
	for _, b := range bf.Bricks {
		if b.Index[0] == 2 {
			if b.Size[0] != 2 {
				t.Errorf("expected rightmost x brick to have unpadded size 2, got %d", b.Size[0])
			}
		}
	}
}

func TestBuild_UnpaddedVolumeSumsToFieldSize(t *testing.T) {
	f := uniformField(130, 96, 64)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := sumUnpaddedVolume(bf)
	want := 130 * 96 * 64
	if got != want {
		t.Errorf("expected unpadded volume sum %d, got %d", want, got)
	}
}

func TestBuild_FaceAdjacentBricksHaveDifferentOrientation(t *testing.T) {
	f := uniformField(128, 128, 128)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	at := func(i, j, k int) *Brick {
		idx := (k*bf.Counts[1]+j)*bf.Counts[0] + i
		return bf.Bricks[idx]
	}
	for k := 0; k < bf.Counts[2]; k++ {
		for j := 0; j < bf.Counts[1]; j++ {
			for i := 0; i < bf.Counts[0]; i++ {
				b := at(i, j, k)
				if i+1 < bf.Counts[0] {
					n := at(i+1, j, k)
					if b.Orientation == n.Orientation {
						t.Errorf("x-adjacent bricks %v,%v share orientation %d", b.Index, n.Index, b.Orientation)
					}
				}
				if j+1 < bf.Counts[1] {
					n := at(i, j+1, k)
					if b.Orientation == n.Orientation {
						t.Errorf("y-adjacent bricks %v,%v share orientation %d", b.Index, n.Index, b.Orientation)
					}
				}
				if k+1 < bf.Counts[2] {
					n := at(i, j, k+1)
					if b.Orientation == n.Orientation {
						t.Errorf("z-adjacent bricks %v,%v share orientation %d", b.Index, n.Index, b.Orientation)
					}
				}
			}
		}
	}
}

func TestBuild_RejectsBrickLargerThanField(t *testing.T) {
	f := uniformField(32, 32, 32)
	if _, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6}); err == nil {
		t.Fatal("expected error when brick size exceeds field dimension")
	}
}

func TestBrickTree_InternalNodeExtentIsUnionOfChildren(t *testing.T) {
	f := uniformField(128, 128, 128)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, n := range bf.Tree.Nodes {
		if n.IsLeaf() {
			continue
		}
		lower := bf.Tree.Nodes[n.LowerChild]
		upper := bf.Tree.Nodes[n.UpperChild]
		axis := n.SplitAxis
		sum := lower.SpatialExtent[axis] + upper.SpatialExtent[axis]
		if abs32(sum-n.SpatialExtent[axis]) > 1e-5 {
			t.Errorf("node extent[%d]=%f, want sum of children %f", axis, n.SpatialExtent[axis], sum)
		}
		for other := 0; other < 3; other++ {
			if other == axis {
				continue
			}
			if abs32(lower.SpatialExtent[other]-n.SpatialExtent[other]) > 1e-5 {
				t.Errorf("non-split axis %d: lower child extent %f != node extent %f", other, lower.SpatialExtent[other], n.SpatialExtent[other])
			}
		}
	}
}

func TestSubBrickTree_TerminatesBeforeSpanDropsBelowTwiceMin(t *testing.T) {
	f := uniformField(64, 64, 64)
	bf, err := Build(f, Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tree := bf.Bricks[0].Tree
	for _, n := range tree.Nodes {
		if !n.IsLeaf() {
			continue
		}
		for axis := 0; axis < 3; axis++ {
			if n.Size[axis] < 1 {
				t.Errorf("leaf sub-brick has non-positive size on axis %d: %v", axis, n.Size)
			}
			if n.Size[axis] >= 2*6 {
				t.Errorf("leaf sub-brick span %d on axis %d is not below twice the minimum size: %v", n.Size[axis], axis, n.Size)
			}
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
