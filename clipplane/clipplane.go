// Package clipplane implements the half-space clip planes that cut away
// part of a bricked field, and the CPU-side box/plane cull used by the
// plane-stack traversal (G) to skip geometry outside every active plane.
package clipplane

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/internal/rterr"
)

// MaxPlanes bounds the number of simultaneously active clip planes, same
// limit the original enforces via a fixed-size uniform array.
const MaxPlanes = 3

// unitCubeCorners are the 8 corner positions of a unit axis-aligned cube,
// indexed the same way as the front/back corner lookup tables below.
var unitCubeCorners = [8]mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 0},
	{0, 1, 1},
	{1, 1, 1},
}

// frontCorners[sx][sy][sz] gives the index into unitCubeCorners of the
// corner farthest along a normal whose components have the given signs
// (1 = negative). Ported directly from the original's 2x2x2 table so the
// two implementations agree on cull behavior bit for bit.
var frontCorners = [2][2][2]int{
	{{7, 5}, {4, 1}},
	{{6, 2}, {3, 0}},
}

// backCorners is frontCorners' counterpart for the nearest corner, used
// by the plane-stack traversal's back-to-front ordering (G), not by the
// cull test here.
var backCorners = [2][2][2]int{
	{{0, 3}, {2, 6}},
	{{1, 4}, {5, 7}},
}

func signIndex(v float32) int {
	if v < 0 {
		return 1
	}
	return 0
}

// FrontCornerForNormal returns the index of the unit cube's front-most
// corner with respect to n.
func FrontCornerForNormal(n mgl32.Vec3) int {
	return frontCorners[signIndex(n[0])][signIndex(n[1])][signIndex(n[2])]
}

// BackCornerForNormal returns the index of the unit cube's back-most
// corner with respect to n.
func BackCornerForNormal(n mgl32.Vec3) int {
	return backCorners[signIndex(n[0])][signIndex(n[1])][signIndex(n[2])]
}

// Plane is one half-space clip, keeping any point p with dot(p, Normal) >=
// dot(Origin, Normal).
type Plane struct {
	Origin mgl32.Vec3
	Normal mgl32.Vec3
}

func (p Plane) originDistance() float32 {
	return p.Origin.Dot(p.Normal)
}

// Engine owns the active set of clip planes and performs box culling
// against them.
type Engine struct {
	planes []Plane
}

// New returns an Engine with no active planes.
func New() *Engine {
	return &Engine{planes: make([]Plane, 0, MaxPlanes)}
}

// Count reports the number of active clip planes.
func (e *Engine) Count() int {
	return len(e.planes)
}

// Planes returns the active planes in activation order.
func (e *Engine) Planes() []Plane {
	return e.planes
}

// SetPlane activates or replaces the plane at idx. idx must be in
// [0, MaxPlanes).
func (e *Engine) SetPlane(idx int, origin, normal mgl32.Vec3) error {
	if idx < 0 || idx >= MaxPlanes {
		return rterr.New(rterr.InvalidConfig, "clip plane index out of range")
	}
	for len(e.planes) <= idx {
		e.planes = append(e.planes, Plane{})
	}
	e.planes[idx] = Plane{Origin: origin, Normal: normal.Normalize()}
	return nil
}

// Clear deactivates every clip plane.
func (e *Engine) Clear() {
	e.planes = e.planes[:0]
}

// BoxFullyClipped reports whether the axis-aligned box with the given
// offset and extent lies entirely outside at least one active clip
// plane's half-space, using the front-most corner with respect to each
// plane's normal.
func (e *Engine) BoxFullyClipped(offset, extent mgl32.Vec3) bool {
	for _, plane := range e.planes {
		cornerIdx := FrontCornerForNormal(plane.Normal)
		corner := unitCubeCorners[cornerIdx]
		frontCorner := mgl32.Vec3{
			offset[0] + corner[0]*extent[0],
			offset[1] + corner[1]*extent[1],
			offset[2] + corner[2]*extent[2],
		}
		if frontCorner.Dot(plane.Normal) < plane.originDistance() {
			return true
		}
	}
	return false
}
