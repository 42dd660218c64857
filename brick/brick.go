// Package brick splits a Field into padded, orientation-cycled bricks and
// builds the two hierarchical visibility trees (brick tree, per-brick
// sub-brick tree) that the plane-stack slicer traverses back to front.
package brick

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/field"
	"github.com/solarvol/voxrender/internal/rterr"
)

// Config holds the bricking engine's inputs: requested brick size (power
// of two), interpolation kernel size, and minimum sub-brick size.
type Config struct {
	RequestedBrickSize int
	KernelSize         int
	MinSubBrickSize    int
}

// DefaultConfig matches the defaults named in the host operation table.
func DefaultConfig() Config {
	return Config{RequestedBrickSize: 64, KernelSize: 2, MinSubBrickSize: 6}
}

func (c Config) validate() error {
	if c.RequestedBrickSize <= 0 || c.RequestedBrickSize&(c.RequestedBrickSize-1) != 0 {
		return rterr.New(rterr.InvalidConfig, "requested brick size must be a positive power of two")
	}
	if c.KernelSize <= 0 {
		return rterr.New(rterr.InvalidConfig, "kernel size must be positive")
	}
	if c.MinSubBrickSize <= 0 {
		return rterr.New(rterr.InvalidConfig, "minimum sub-brick size must be positive")
	}
	return nil
}

// Orientation identifies which physical axis is fastest-varying in a
// brick's stored (possibly cycled) memory layout.
type Orientation int

const (
	OrientationZYX Orientation = iota // x fastest
	OrientationXZY                    // y fastest, x slowest
	OrientationYXZ                    // z fastest, y slowest
)

// permutations[cycle][physicalAxis] gives the storage rank (0 = fastest
// varying, 2 = slowest) of that physical axis under the given cycle.
// Kept as a lookup table, not three hand-unrolled copy loops, per the
// project's preference for expressing axis cycling as data.
var permutations = [3][3]int{
	{0, 1, 2},
	{2, 0, 1},
	{1, 2, 0},
}

// Brick is one padded axis-aligned sub-cube of a field, stored once in a
// BrickedField's shared, contiguous voxel buffer.
type Brick struct {
	Index       [3]int // brick index (bi, bj, bk)
	Offset      [3]int // unpadded voxel offset into the field
	Size        [3]int // unpadded voxel size
	PadLow      [3]int
	PadHigh     [3]int
	PaddedSize  [3]int
	DataOffset  int // offset into BrickedField.Data
	Orientation Orientation

	SpatialOffset mgl32.Vec3 // unpadded region, in model space
	SpatialExtent mgl32.Vec3
	PadFractionLo [3]float32
	PadFractionHi [3]float32

	Tree *SubBrickTree
}

// padSize computes P = kernel_size - 1.
func padSize(kernelSize int) int {
	return kernelSize - 1
}

// unpaddedBrickSize grows the requested brick size so the padded size is
// at least 8 and at least 3*pad. Special case: when the requested size
// equals the field size on every axis, pad collapses to 0 (single brick).
func unpaddedBrickSize(fieldSize [3]int, requested int, kernelSize int) (brickSize int, pad int) {
	if fieldSize[0] == requested && fieldSize[1] == requested && fieldSize[2] == requested {
		return requested, 0
	}
	pad = padSize(kernelSize)
	brickSize = requested
	for brickSize+2*pad < 8 || brickSize+2*pad < 3*pad {
		brickSize++
	}
	return brickSize, pad
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// BrickedField is a Field plus its brick array and the two traversal trees.
type BrickedField struct {
	Field      *field.Field
	Bricks     []*Brick
	Counts     [3]int // Nx, Ny, Nz
	BrickSize  int    // unpadded brick size actually used
	Pad        int
	Data       []float32 // contiguous storage for every brick's padded data
	Tree       *BrickTree
	MinSubSize int
}

// Build splits f into bricks per cfg, packs their (possibly cycled) data
// into one contiguous buffer, and constructs the brick tree and, for each
// brick, its sub-brick tree.
func Build(f *field.Field, cfg Config) (*BrickedField, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fieldSize := [3]int{f.SizeX, f.SizeY, f.SizeZ}
	brickSize, pad := unpaddedBrickSize(fieldSize, cfg.RequestedBrickSize, cfg.KernelSize)
	for _, size := range fieldSize {
		if brickSize > size {
			return nil, rterr.New(rterr.BrickTooLarge, "unpadded brick dimension exceeds field dimension")
		}
	}

	counts := [3]int{
		ceilDiv(fieldSize[0], brickSize),
		ceilDiv(fieldSize[1], brickSize),
		ceilDiv(fieldSize[2], brickSize),
	}

	bf := &BrickedField{
		Field: f, Counts: counts, BrickSize: brickSize, Pad: pad,
		MinSubSize: cfg.MinSubBrickSize,
	}

	bf.Bricks = make([]*Brick, counts[0]*counts[1]*counts[2])

	dataOffset := 0
	for bk := 0; bk < counts[2]; bk++ {
		for bj := 0; bj < counts[1]; bj++ {
			for bi := 0; bi < counts[0]; bi++ {
				brick, packed := buildBrick(f, [3]int{bi, bj, bk}, brickSize, pad, fieldSize, dataOffset)
				bf.Data = append(bf.Data, packed...)
				dataOffset += len(packed)

				idx := (bk*counts[1]+bj)*counts[0] + bi
				bf.Bricks[idx] = brick

				sub, err := buildSubBrickTree(brick, cfg.MinSubBrickSize)
				if err != nil {
					return nil, err
				}
				brick.Tree = sub
			}
		}
	}

	bf.Tree = buildBrickTree(bf)

	return bf, nil
}

func buildBrick(f *field.Field, index [3]int, brickSize, pad int, fieldSize [3]int, dataOffset int) (*Brick, []float32) {
	b := &Brick{Index: index, DataOffset: dataOffset}

	for axis := 0; axis < 3; axis++ {
		start := index[axis] * brickSize
		end := start + brickSize
		if end > fieldSize[axis] {
			end = fieldSize[axis]
		}
		b.Offset[axis] = start
		b.Size[axis] = end - start

		if start > 0 {
			b.PadLow[axis] = pad
		}
		if end < fieldSize[axis] {
			b.PadHigh[axis] = pad
		}
		b.PaddedSize[axis] = b.Size[axis] + b.PadLow[axis] + b.PadHigh[axis]
	}

	cycle := (index[0] + index[1] + index[2]) % 3
	b.Orientation = Orientation(cycle)

	voxelWidth := f.VoxelWidth
	halfExtent := f.HalfExtent
	for axis := 0; axis < 3; axis++ {
		axisSize := float32(fieldSize[axis])
		lowModel := -halfExtent[axis] + float32(b.Offset[axis])*voxelWidth[axis]
		sizeModel := float32(b.Size[axis]) * voxelWidth[axis]
		switch axis {
		case 0:
			b.SpatialOffset[0] = lowModel
			b.SpatialExtent[0] = sizeModel
		case 1:
			b.SpatialOffset[1] = lowModel
			b.SpatialExtent[1] = sizeModel
		case 2:
			b.SpatialOffset[2] = lowModel
			b.SpatialExtent[2] = sizeModel
		}
		if b.PaddedSize[axis] > 0 {
			b.PadFractionLo[axis] = float32(b.PadLow[axis]) / float32(b.PaddedSize[axis])
			b.PadFractionHi[axis] = float32(b.PadHigh[axis]) / float32(b.PaddedSize[axis])
		}
		_ = axisSize
	}

	packed := packBrickData(f, b, cycle)
	return b, packed
}

// packBrickData copies the brick's padded voxel region out of the field's
// row-major storage into a destination buffer whose axis order is cycled
// per the orientation permutation table, so neighbouring bricks never
// share a fastest-varying axis.
func packBrickData(f *field.Field, b *Brick, cycle int) []float32 {
	paddedStart := [3]int{
		b.Offset[0] - b.PadLow[0],
		b.Offset[1] - b.PadLow[1],
		b.Offset[2] - b.PadLow[2],
	}

	rank := permutations[cycle]
	// destSize[rank] gives the padded size of the axis holding that rank.
	var destSizeByRank [3]int
	for axis := 0; axis < 3; axis++ {
		destSizeByRank[rank[axis]] = b.PaddedSize[axis]
	}
	var strideByRank [3]int
	strideByRank[0] = 1
	strideByRank[1] = destSizeByRank[0]
	strideByRank[2] = destSizeByRank[0] * destSizeByRank[1]

	var strideByAxis [3]int
	for axis := 0; axis < 3; axis++ {
		strideByAxis[axis] = strideByRank[rank[axis]]
	}

	total := b.PaddedSize[0] * b.PaddedSize[1] * b.PaddedSize[2]
	dst := make([]float32, total)

	for lz := 0; lz < b.PaddedSize[2]; lz++ {
		fz := paddedStart[2] + lz
		for ly := 0; ly < b.PaddedSize[1]; ly++ {
			fy := paddedStart[1] + ly
			for lx := 0; lx < b.PaddedSize[0]; lx++ {
				fx := paddedStart[0] + lx
				destIndex := lx*strideByAxis[0] + ly*strideByAxis[1] + lz*strideByAxis[2]
				dst[destIndex] = f.At(fx, fy, fz)
			}
		}
	}

	return dst
}
