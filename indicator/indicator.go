// Package indicator implements wireframe cube indicators: the field
// boundary outline and the brick/sub-brick tree outlines used for
// debugging and camera framing.
package indicator

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/internal/rterr"
)

// Edge is a pair of indices into a Cube's Positions.
type Edge struct {
	A, B int
}

// cubeEdges are the 12 edges of a unit cube, in the corner numbering
// used throughout this module (SetBounds below and slicer's
// unitCubeCorners use the same numbering).
var cubeEdges = [12]Edge{
	{0, 1}, {1, 5}, {5, 2}, {2, 0},
	{0, 3}, {3, 6}, {6, 2}, {1, 4},
	{4, 7}, {7, 5}, {3, 4}, {6, 7},
}

// Cube is a named wireframe box: 8 positions, a fixed edge list, and a
// constant color.
type Cube struct {
	Name      string
	Positions [8]mgl32.Vec3
	Color     mgl32.Vec3
}

// NewCube builds a wireframe cube spanning [offset, offset+extent].
func NewCube(name string, offset, extent, color mgl32.Vec3) *Cube {
	c := &Cube{Name: name, Color: color}
	c.SetBounds(offset, extent)
	return c
}

// SetBounds repositions the cube's 8 corners.
func (c *Cube) SetBounds(offset, extent mgl32.Vec3) {
	c.Positions[0] = offset
	c.Positions[1] = offset.Add(mgl32.Vec3{extent[0], 0, 0})
	c.Positions[2] = offset.Add(mgl32.Vec3{0, extent[1], 0})
	c.Positions[3] = offset.Add(mgl32.Vec3{0, 0, extent[2]})
	c.Positions[4] = offset.Add(mgl32.Vec3{extent[0], 0, extent[2]})
	c.Positions[5] = offset.Add(mgl32.Vec3{extent[0], extent[1], 0})
	c.Positions[6] = offset.Add(mgl32.Vec3{0, extent[1], extent[2]})
	c.Positions[7] = offset.Add(mgl32.Vec3{extent[0], extent[1], extent[2]})
}

// Edges returns the cube's 12 edges.
func (c *Cube) Edges() []Edge {
	return cubeEdges[:]
}

// Pass selects which half of a field-boundary cube's faces to draw. The
// renderer draws the back pass before the volume and the front pass
// after it, so the front edges composite over the volume.
type Pass int

const (
	FrontPass Pass = iota
	BackPass
)

// FieldBoundaryEdges splits a field boundary cube's 12 edges into a
// front-facing set (the 3 faces whose outward normal points toward the
// camera) and the remaining back set, following the original's
// two-pass field-boundary draw (front pass over the volume, back pass
// under it). An edge belongs to the front set if it lies on at least
// one of the three front-facing faces.
func FieldBoundaryEdges(cube *Cube, lookAxis mgl32.Vec3, pass Pass) []Edge {
	// lookAxis points from the scene toward the camera (camera.LookAxis),
	// so the upper face along axis i faces the camera when lookAxis[i] > 0
	// and the lower face does otherwise. Vertex k lies on the upper face
	// along axis i when (k's unit-cube coordinate)[i] == 1.
	corners := unitCubeCornerCoords(cube)

	frontUpper := [3]bool{lookAxis[0] > 0, lookAxis[1] > 0, lookAxis[2] > 0}

	onFrontFace := func(v int) bool {
		for axis := 0; axis < 3; axis++ {
			onUpper := corners[v][axis] > 0.5
			if onUpper == frontUpper[axis] {
				return true
			}
		}
		return false
	}

	var out []Edge
	for _, e := range cubeEdges {
		isFront := onFrontFace(e.A) && onFrontFace(e.B)
		if (pass == FrontPass) == isFront {
			out = append(out, e)
		}
	}
	return out
}

func unitCubeCornerCoords(cube *Cube) [8][3]float32 {
	_ = cube
	return [8][3]float32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 0, 1}, {1, 1, 0}, {0, 1, 1}, {1, 1, 1},
	}
}

// Set owns every registered cube indicator, keyed by name, replacing
// the original's string-keyed EdgeSet hash map.
type Set struct {
	cubes map[string]*Cube
}

// NewSet returns an empty indicator set.
func NewSet() *Set {
	return &Set{cubes: make(map[string]*Cube)}
}

// AddCube registers a new named cube. Returns an error if name is
// already in use.
func (s *Set) AddCube(name string, offset, extent, color mgl32.Vec3) (*Cube, error) {
	if _, exists := s.cubes[name]; exists {
		return nil, rterr.New(rterr.InvalidConfig, "indicator with this name already exists")
	}
	c := NewCube(name, offset, extent, color)
	s.cubes[name] = c
	return c, nil
}

// Get returns the named cube.
func (s *Set) Get(name string) (*Cube, error) {
	c, ok := s.cubes[name]
	if !ok {
		return nil, rterr.New(rterr.UnknownName, "unknown indicator name")
	}
	return c, nil
}

// Remove deletes a named cube. No-op if it doesn't exist.
func (s *Set) Remove(name string) {
	delete(s.cubes, name)
}

// VisibleBrickTreeEdges collects the edges of every visible brick-tree
// leaf's spatial bounds, for drawing a brick outline overlay. Only
// leaves with brick.VisibilityVisible are included, per the spec's
// visible-leaves-only draw rule for tree indicators.
func VisibleBrickTreeEdges(tree *brick.BrickTree) []Cube {
	if tree == nil || len(tree.Nodes) == 0 {
		return nil
	}
	var out []Cube
	var visit func(idx int32)
	visit = func(idx int32) {
		node := tree.Nodes[idx]
		if node.IsLeaf() {
			if node.Visibility == brick.VisibilityVisible {
				out = append(out, *NewCube("brick", node.SpatialOffset, node.SpatialExtent, mgl32.Vec3{1, 1, 0}))
			}
			return
		}
		visit(node.LowerChild)
		visit(node.UpperChild)
	}
	visit(tree.Root)
	return out
}

// VisibleSubBrickTreeEdges is VisibleBrickTreeEdges' counterpart for a
// single brick's sub-brick tree.
func VisibleSubBrickTreeEdges(tree *brick.SubBrickTree) []Cube {
	if tree == nil || len(tree.Nodes) == 0 {
		return nil
	}
	var out []Cube
	var visit func(idx int32)
	visit = func(idx int32) {
		node := tree.Nodes[idx]
		if node.IsLeaf() {
			if node.Visibility == brick.VisibilityVisible {
				out = append(out, *NewCube("sub_brick", node.SpatialOffset, node.SpatialExtent, mgl32.Vec3{0, 1, 1}))
			}
			return
		}
		visit(node.LowerChild)
		visit(node.UpperChild)
	}
	visit(tree.Root)
	return out
}
