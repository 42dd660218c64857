// Package slicer implements the Salama-Kolb view-aligned plane stack:
// a lazily grown GPU-side quad fan per plane, the back-to-front tree
// traversal that decides which sub-bricks to draw, and the per-draw
// uniforms each drawn sub-brick needs.
package slicer

import (
	"math"

	"github.com/solarvol/voxrender/internal/rterr"
)

// PlaneVertex is one of the 6 vertices of a single view-aligned plane's
// quad fan. The actual world position is computed in the vertex shader
// from (VertexIdx, PlaneIdx) via the Salama-Kolb box-plane intersection;
// nothing else needs to travel to the GPU per vertex.
type PlaneVertex struct {
	VertexIdx uint32
	PlaneIdx  uint32
}

// planeFaceIndexOffsets are the 12 triangle indices (4 triangles) that fan a
// single plane's 6-vertex hexagon, ported from update_plane_buffer_data.
var planeFaceIndexOffsets = [12]uint32{0, 2, 4, 0, 1, 2, 2, 3, 4, 4, 5, 0}

// Stack is the lazily grown buffer of up to Pmax view-aligned quads.
type Stack struct {
	vertices []PlaneVertex
	indices  []uint32
	pMax     int
}

// NewStack returns an empty plane stack; Grow must be called before use.
func NewStack() *Stack {
	return &Stack{}
}

// Pmax reports the current plane capacity.
func (s *Stack) Pmax() int {
	return s.pMax
}

// Vertices and Indices expose the buffers a renderer driver uploads to
// the GPU vertex/index buffers.
func (s *Stack) Vertices() []PlaneVertex { return s.vertices }
func (s *Stack) Indices() []uint32       { return s.indices }

// Grow reallocates the stack to hold at least pMax planes, rebuilding
// both buffers from scratch (the original's allocate_plane_buffers +
// update_plane_buffer_data does the same full rebuild rather than an
// incremental append, since plane count changes are rare — driven only
// by a user changing the sampling density).
func (s *Stack) Grow(pMax int) error {
	if pMax < 2 {
		return rterr.New(rterr.InvalidConfig, "cannot create fewer than two planes")
	}
	if pMax <= s.pMax {
		return nil
	}

	s.pMax = pMax
	s.vertices = make([]PlaneVertex, 0, pMax*6)
	s.indices = make([]uint32, 0, pMax*12)

	for i := 0; i < pMax; i++ {
		for v := uint32(0); v < 6; v++ {
			s.vertices = append(s.vertices, PlaneVertex{VertexIdx: v, PlaneIdx: uint32(i)})
		}
		offset := uint32(6 * i)
		for _, idx := range planeFaceIndexOffsets {
			s.indices = append(s.indices, offset+idx)
		}
	}
	return nil
}

// Separation derives the plane-to-plane spacing from a field's voxel
// extents and tracks the growth needed when the spacing multiplier
// changes.
type Separation struct {
	Value              float32
	originalValue      float32
	multiplier         float32
	samplingCorrection float32
}

// NewSeparation computes the initial plane separation for a bricked
// field with the given per-axis voxel extents and brick size, growing
// stack to the required Pmax. spacingMultiplier must be positive.
func NewSeparation(stack *Stack, voxelExtent [3]float32, brickSize int, spacingMultiplier float32) (*Separation, error) {
	sep := &Separation{}
	if err := sep.Set(stack, voxelExtent, brickSize, spacingMultiplier); err != nil {
		return nil, err
	}
	sep.originalValue = sep.Value
	sep.samplingCorrection = 1
	return sep, nil
}

// Set updates the separation for a new spacing multiplier, growing the
// plane stack if the new separation requires more planes than currently
// allocated. sep = min(dx,dy,dz) * spacingMultiplier; Pmax grows to
// ceil(B * sqrt(dx^2+dy^2+dz^2) / sep) + 1 when that exceeds capacity.
func (sep *Separation) Set(stack *Stack, voxelExtent [3]float32, brickSize int, spacingMultiplier float32) error {
	if spacingMultiplier <= 0 {
		return rterr.New(rterr.InvalidConfig, "plane spacing multiplier must be positive")
	}

	minExtent := minFloat32(voxelExtent[0], minFloat32(voxelExtent[1], voxelExtent[2]))
	maxExtent := float32(math.Sqrt(float64(
		voxelExtent[0]*voxelExtent[0] + voxelExtent[1]*voxelExtent[1] + voxelExtent[2]*voxelExtent[2])))

	sep.Value = minExtent * spacingMultiplier
	sep.multiplier = spacingMultiplier

	maxPlanes := int(math.Ceil(float64(float32(brickSize)*maxExtent/sep.Value))) + 1
	if maxPlanes > stack.Pmax() {
		if err := stack.Grow(maxPlanes); err != nil {
			return err
		}
	}

	if sep.originalValue == 0 {
		sep.originalValue = sep.Value
	}
	sep.samplingCorrection = sep.Value / sep.originalValue
	return nil
}

// SamplingCorrection is sep/sep_initial, the factor the fragment shader
// uses to keep opacity integration consistent across sampling densities:
// compositing transparency scales as 1 - (1-alpha)^correction.
func (sep *Separation) SamplingCorrection() float32 {
	return sep.samplingCorrection
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// TrianglesToDraw returns the index-buffer triangle count for drawing
// the first n planes of the stack.
func TrianglesToDraw(n int) int {
	return n * 4
}
