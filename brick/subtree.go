package brick

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/internal/rterr"
)

// SubBrickTreeNode is one node of a Brick's SubBrickTree. Every node,
// leaf or internal, carries its own voxel offset/size and spatial
// offset/extent within the brick; only internal nodes have children.
type SubBrickTreeNode struct {
	SplitAxis  int // -1 on a leaf
	LowerChild int32
	UpperChild int32

	Offset [3]int // voxel offset into the field (brick offset + local start)
	Size   [3]int // voxel size of this sub-region

	SpatialOffset mgl32.Vec3
	SpatialExtent mgl32.Vec3

	Visibility      Visibility
	VisibilityRatio float32
}

// SubBrickTree is a Brick's back-to-front traversal hierarchy over its own
// unpadded voxel extent, stored as a dense node array like BrickTree.
type SubBrickTree struct {
	Nodes []SubBrickTreeNode
	Root  int32
}

// buildSubBrickTree recursively bisects a brick's unpadded voxel range
// (cycling the split axis on level%3) until every axis of a range has
// span smaller than 2*minSize.
func buildSubBrickTree(b *Brick, minSize int) (*SubBrickTree, error) {
	for axis := 0; axis < 3; axis++ {
		if b.Size[axis] <= 0 {
			return nil, rterr.New(rterr.InvalidConfig, "brick has zero size on an axis")
		}
	}

	t := &SubBrickTree{}
	start := [3]int{0, 0, 0}
	t.Root = buildSubBrickTreeNodes(t, b, minSize, 0, start, b.Size)
	return t, nil
}

func buildSubBrickTreeNodes(t *SubBrickTree, b *Brick, minSize, level int, start, end [3]int) int32 {
	idx := appendSubBrickNode(t, b, start, end)

	limit := 2 * minSize
	axis := level % 3
	if end[axis]-start[axis] < limit {
		level++
		axis = level % 3
		if end[axis]-start[axis] < limit {
			level++
			axis = level % 3
			if end[axis]-start[axis] < limit {
				return idx
			}
		}
	}

	mid := start[axis] + (end[axis]-start[axis])/2

	lowerEnd := end
	lowerEnd[axis] = mid
	lowerIdx := buildSubBrickTreeNodes(t, b, minSize, level+1, start, lowerEnd)

	upperStart := start
	upperStart[axis] = mid
	upperIdx := buildSubBrickTreeNodes(t, b, minSize, level+1, upperStart, end)

	node := t.Nodes[idx]
	node.SplitAxis = axis
	node.LowerChild = lowerIdx
	node.UpperChild = upperIdx
	t.Nodes[idx] = node

	return idx
}

func appendSubBrickNode(t *SubBrickTree, b *Brick, start, end [3]int) int32 {
	var offset, size [3]int
	var spatialOffset, spatialExtent mgl32.Vec3

	for axis := 0; axis < 3; axis++ {
		offset[axis] = b.Offset[axis] + start[axis]
		size[axis] = end[axis] - start[axis]
	}

	voxelWidth := brickVoxelWidth(b)
	for axis := 0; axis < 3; axis++ {
		spatialOffset[axis] = b.SpatialOffset[axis] + float32(start[axis])*voxelWidth[axis]
		spatialExtent[axis] = float32(size[axis]) * voxelWidth[axis]
	}

	node := SubBrickTreeNode{
		SplitAxis:       -1,
		LowerChild:      noChild,
		UpperChild:      noChild,
		Offset:          offset,
		Size:            size,
		SpatialOffset:   spatialOffset,
		SpatialExtent:   spatialExtent,
		VisibilityRatio: 1,
	}
	t.Nodes = append(t.Nodes, node)
	return int32(len(t.Nodes) - 1)
}

// brickVoxelWidth derives each axis's model-space voxel width from the
// brick's own spatial extent and unpadded voxel size, rather than
// threading the field through the sub-brick builder.
func brickVoxelWidth(b *Brick) [3]float32 {
	var w [3]float32
	for axis := 0; axis < 3; axis++ {
		if b.Size[axis] > 0 {
			w[axis] = b.SpatialExtent[axis] / float32(b.Size[axis])
		}
	}
	return w
}

// IsLeaf reports whether n has no children.
func (n SubBrickTreeNode) IsLeaf() bool {
	return n.LowerChild == noChild && n.UpperChild == noChild
}
