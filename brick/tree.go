package brick

import "github.com/go-gl/mathgl/mgl32"

// BrickTreeNode is one node of a BrickTree, stored by value in the tree's
// flat arena. Leaves have BrickIndex >= 0 and no children; internal nodes
// have SplitAxis >= 0 and both child indices set.
type BrickTreeNode struct {
	SplitAxis  int // 0, 1 or 2; -1 on a leaf
	LowerChild int32
	UpperChild int32
	BrickIndex int // index into BrickedField.Bricks; -1 on an internal node

	SpatialOffset mgl32.Vec3
	SpatialExtent mgl32.Vec3

	Visibility      Visibility
	VisibilityRatio float32
}

const noChild int32 = -1

// BrickTree is the top-level visibility hierarchy over a BrickedField's
// bricks, stored as a dense node array with child indices rather than a
// pointer tree so the whole structure can be walked and reset without
// per-node allocation.
type BrickTree struct {
	Nodes []BrickTreeNode
	Root  int32
}

// buildBrickTree recursively bisects the brick index grid along x, y, z
// (cycling on level%3) until every axis of a range has span 1, at which
// point the range names a single leaf brick.
func buildBrickTree(bf *BrickedField) *BrickTree {
	t := &BrickTree{}
	start := [3]int{0, 0, 0}
	end := bf.Counts
	t.Root = buildBrickTreeNodes(t, bf, 0, start, end)
	return t
}

func buildBrickTreeNodes(t *BrickTree, bf *BrickedField, level int, start, end [3]int) int32 {
	axis := level % 3

	if end[axis]-start[axis] == 1 {
		level++
		axis = level % 3
		if end[axis]-start[axis] == 1 {
			level++
			axis = level % 3
			if end[axis]-start[axis] == 1 {
				return appendBrickLeaf(t, bf, start)
			}
		}
	}

	mid := start[axis] + (end[axis]-start[axis]+1)/2

	lowerEnd := end
	lowerEnd[axis] = mid
	lowerIdx := buildBrickTreeNodes(t, bf, level+1, start, lowerEnd)

	upperStart := start
	upperStart[axis] = mid
	upperIdx := buildBrickTreeNodes(t, bf, level+1, upperStart, end)

	lower := t.Nodes[lowerIdx]
	upper := t.Nodes[upperIdx]

	offset := lower.SpatialOffset
	offset[axis] = minFloat32(lower.SpatialOffset[axis], upper.SpatialOffset[axis])

	extent := lower.SpatialExtent
	extent[axis] = lower.SpatialExtent[axis] + upper.SpatialExtent[axis]

	node := BrickTreeNode{
		SplitAxis:       axis,
		LowerChild:      lowerIdx,
		UpperChild:      upperIdx,
		BrickIndex:      -1,
		SpatialOffset:   offset,
		SpatialExtent:   extent,
		VisibilityRatio: 1,
	}
	t.Nodes = append(t.Nodes, node)
	return int32(len(t.Nodes) - 1)
}

func appendBrickLeaf(t *BrickTree, bf *BrickedField, index [3]int) int32 {
	idx := (index[2]*bf.Counts[1]+index[1])*bf.Counts[0] + index[0]
	b := bf.Bricks[idx]

	node := BrickTreeNode{
		SplitAxis:       -1,
		LowerChild:      noChild,
		UpperChild:      noChild,
		BrickIndex:      idx,
		SpatialOffset:   b.SpatialOffset,
		SpatialExtent:   b.SpatialExtent,
		VisibilityRatio: 1,
	}
	t.Nodes = append(t.Nodes, node)
	return int32(len(t.Nodes) - 1)
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// IsLeaf reports whether n names a single brick rather than a split.
func (n BrickTreeNode) IsLeaf() bool {
	return n.LowerChild == noChild && n.UpperChild == noChild
}
