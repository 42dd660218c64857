package slicer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/clipplane"
)

// DrawCall is one sub-brick's worth of plane-stack geometry, the
// uniforms draw_sub_brick/draw_brick upload before issuing
// draw_plane_faces(n_required_planes).
type DrawCall struct {
	Brick             *brick.Brick
	BrickOffset       mgl32.Vec3
	BrickExtent       mgl32.Vec3
	PadFractionLo     [3]float32
	PadFractionHi     [3]float32
	Orientation       brick.Orientation
	SubBrickOffset    mgl32.Vec3
	SubBrickExtent    mgl32.Vec3
	BackPlaneDist     float32
	BackCornerIndex   int
	NumRequiredPlanes int
}

// Thresholds bundles the two visibility cutoffs the traversal checks at
// every node.
type Thresholds struct {
	Lower float32 // visibility_ratio <= Lower -> invisible, branch skipped
	Upper float32 // visibility_ratio >= Upper -> draw without recursing further
}

// cameraComponent returns the component of (cameraPosition - point)
// along axis, used to decide which of two sibling subtrees is farther
// from the camera: a non-negative value puts the camera on the upper
// side of point, so the upper subtree is the nearer one. Matches
// get_component_of_vector_from_model_point_to_camera for the
// perspective case; orthographic projections use the look axis
// component directly since there is no single camera point to subtract
// from.
func cameraComponent(point, cameraPosition, lookAxis mgl32.Vec3, axis int, orthographic bool) float32 {
	if orthographic {
		return lookAxis[axis]
	}
	return cameraPosition[axis] - point[axis]
}

// Traverse walks bf's brick tree and each visited brick's sub-brick
// tree back-to-front relative to the camera, emitting one DrawCall per
// drawn sub-brick. cameraPosition/lookAxis come from the active camera
// (F); engine is the active clip-plane set (E); thresholds gate
// recursion and leaf drawing per §4.G.
func Traverse(bf *brick.BrickedField, cameraPosition, lookAxis mgl32.Vec3, orthographic bool, engine *clipplane.Engine, thresholds Thresholds, sep *Separation, stack *Stack) []DrawCall {
	if bf == nil || bf.Tree == nil || len(bf.Tree.Nodes) == 0 {
		return nil
	}

	backCornerIdx := clipplane.BackCornerForNormal(lookAxis)
	frontCornerIdx := oppositeCorner(backCornerIdx)
	pMax := stack.Pmax()

	var calls []DrawCall

	var visitBrickNode func(idx int32)
	visitBrickNode = func(idx int32) {
		node := bf.Tree.Nodes[idx]

		if node.VisibilityRatio <= thresholds.Lower {
			node.Visibility = brick.VisibilityInvisible
			bf.Tree.Nodes[idx] = node
			return
		}

		if node.IsLeaf() {
			b := bf.Bricks[node.BrickIndex]
			calls = append(calls, visitSubBrickTree(b, cameraPosition, lookAxis, orthographic, engine, thresholds, sep, pMax, backCornerIdx, frontCornerIdx)...)
			node.Visibility = brick.VisibilityVisible
			bf.Tree.Nodes[idx] = node
			return
		}

		lowerClipped := engine.BoxFullyClipped(bf.Tree.Nodes[node.LowerChild].SpatialOffset, bf.Tree.Nodes[node.LowerChild].SpatialExtent)
		upperClipped := engine.BoxFullyClipped(bf.Tree.Nodes[node.UpperChild].SpatialOffset, bf.Tree.Nodes[node.UpperChild].SpatialExtent)

		upperIsNearer := cameraComponent(bf.Tree.Nodes[node.UpperChild].SpatialOffset, cameraPosition, lookAxis, node.SplitAxis, orthographic) >= 0

		visitOrClip := func(childIdx int32, clipped bool) {
			if clipped {
				child := bf.Tree.Nodes[childIdx]
				child.Visibility = brick.VisibilityClipped
				bf.Tree.Nodes[childIdx] = child
				return
			}
			visitBrickNode(childIdx)
		}

		if upperIsNearer {
			visitOrClip(node.LowerChild, lowerClipped)
			visitOrClip(node.UpperChild, upperClipped)
		} else {
			visitOrClip(node.UpperChild, upperClipped)
			visitOrClip(node.LowerChild, lowerClipped)
		}

		node.Visibility = brick.VisibilityUndetermined
		bf.Tree.Nodes[idx] = node
	}

	root := bf.Tree.Nodes[bf.Tree.Root]
	if engine.BoxFullyClipped(root.SpatialOffset, root.SpatialExtent) {
		root.Visibility = brick.VisibilityClipped
		bf.Tree.Nodes[bf.Tree.Root] = root
		return nil
	}

	visitBrickNode(bf.Tree.Root)
	return calls
}

func visitSubBrickTree(b *brick.Brick, cameraPosition, lookAxis mgl32.Vec3, orthographic bool, engine *clipplane.Engine, thresholds Thresholds, sep *Separation, pMax int, backCornerIdx, frontCornerIdx int) []DrawCall {
	if b.Tree == nil || len(b.Tree.Nodes) == 0 {
		return nil
	}

	var calls []DrawCall

	var visit func(idx int32)
	visit = func(idx int32) {
		node := b.Tree.Nodes[idx]

		if node.VisibilityRatio <= thresholds.Lower {
			node.Visibility = brick.VisibilityInvisible
			b.Tree.Nodes[idx] = node
			return
		}

		if node.VisibilityRatio < thresholds.Upper && !node.IsLeaf() {
			lowerClipped := engine.BoxFullyClipped(b.Tree.Nodes[node.LowerChild].SpatialOffset, b.Tree.Nodes[node.LowerChild].SpatialExtent)
			upperClipped := engine.BoxFullyClipped(b.Tree.Nodes[node.UpperChild].SpatialOffset, b.Tree.Nodes[node.UpperChild].SpatialExtent)

			upperIsNearer := cameraComponent(b.Tree.Nodes[node.UpperChild].SpatialOffset, cameraPosition, lookAxis, node.SplitAxis, orthographic) >= 0

			visitOrClip := func(childIdx int32, clipped bool) {
				if clipped {
					child := b.Tree.Nodes[childIdx]
					child.Visibility = brick.VisibilityClipped
					b.Tree.Nodes[childIdx] = child
					return
				}
				visit(childIdx)
			}

			if upperIsNearer {
				visitOrClip(node.LowerChild, lowerClipped)
				visitOrClip(node.UpperChild, upperClipped)
			} else {
				visitOrClip(node.UpperChild, upperClipped)
				visitOrClip(node.LowerChild, lowerClipped)
			}

			node.Visibility = brick.VisibilityUndetermined
			b.Tree.Nodes[idx] = node
			return
		}

		calls = append(calls, drawSubBrick(b, node, lookAxis, sep, pMax, backCornerIdx, frontCornerIdx))
		node.Visibility = brick.VisibilityVisible
		b.Tree.Nodes[idx] = node
	}

	visit(b.Tree.Root)
	return calls
}

func drawSubBrick(b *brick.Brick, node brick.SubBrickTreeNode, lookAxis mgl32.Vec3, sep *Separation, pMax int, backCornerIdx, frontCornerIdx int) DrawCall {
	planeDistOffset := node.SpatialOffset.Dot(lookAxis)

	backCorner := unitCubeCorner(backCornerIdx)
	scaledBackCorner := mgl32.Vec3{
		backCorner[0] * node.SpatialExtent[0],
		backCorner[1] * node.SpatialExtent[1],
		backCorner[2] * node.SpatialExtent[2],
	}
	backPlaneDist := scaledBackCorner.Dot(lookAxis) + planeDistOffset

	frontCorner := unitCubeCorner(frontCornerIdx)
	scaledFrontCorner := mgl32.Vec3{
		frontCorner[0] * node.SpatialExtent[0],
		frontCorner[1] * node.SpatialExtent[1],
		frontCorner[2] * node.SpatialExtent[2],
	}
	frontPlaneDist := scaledFrontCorner.Dot(lookAxis) + planeDistOffset

	backPlaneDist += 0.5 * sep.Value

	n := int((frontPlaneDist-backPlaneDist)/sep.Value) + 1
	if n > pMax {
		n = pMax
	}
	if n < 0 {
		n = 0
	}

	return DrawCall{
		Brick:             b,
		BrickOffset:       b.SpatialOffset,
		BrickExtent:       b.SpatialExtent,
		PadFractionLo:     b.PadFractionLo,
		PadFractionHi:     b.PadFractionHi,
		Orientation:       b.Orientation,
		SubBrickOffset:    node.SpatialOffset,
		SubBrickExtent:    node.SpatialExtent,
		BackPlaneDist:     backPlaneDist,
		BackCornerIndex:   backCornerIdx,
		NumRequiredPlanes: n,
	}
}

var unitCubeCorners = [8]mgl32.Vec3{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	{1, 0, 1}, {1, 1, 0}, {0, 1, 1}, {1, 1, 1},
}

var oppositeCornerTable = [8]int{7, 6, 4, 5, 2, 3, 1, 0}

func unitCubeCorner(idx int) mgl32.Vec3 {
	return unitCubeCorners[idx]
}

func oppositeCorner(idx int) int {
	return oppositeCornerTable[idx]
}
