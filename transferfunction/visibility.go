package transferfunction

import (
	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/field"
)

// remap maps a normalised field value into [0,1] using the window's
// lower/upper limits before it is used to index the LUT. Sampling the
// LUT directly on the unwindowed field value is the bug this function
// exists to avoid: the window is the lower/upper pair (in texture units)
// passed to UpdateVisibility, separate from the transfer function's own
// node values, and every alpha lookup for visibility purposes goes
// through it.
func remap(v, lower, upper float32) float32 {
	if upper <= lower {
		return 0
	}
	t := (v - lower) / (upper - lower)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t
}

// UpdateVisibility recomputes visibility_ratio for every node of bf's
// brick tree and every brick's sub-brick tree, using tf's alpha channel
// remapped through [lower, upper]. Ratios at or below lowerThreshold mark the
// node invisible; this is the hook the plane-stack traversal (G) uses to
// skip invisible branches.
func UpdateVisibility(tf *TransferFunction, bf *brick.BrickedField, lower, upper, lowerThreshold float32) {
	for _, b := range bf.Bricks {
		updateSubBrickVisibility(tf, bf.Field, b, lower, upper, lowerThreshold)
	}
	updateBrickTreeVisibility(bf, lowerThreshold)
}

func updateSubBrickVisibility(tf *TransferFunction, f *field.Field, b *brick.Brick, lower, upper, lowerThreshold float32) {
	tree := b.Tree
	if tree == nil || len(tree.Nodes) == 0 {
		return
	}
	var visit func(idx int32) (ratio float32, voxels int)
	visit = func(idx int32) (float32, int) {
		node := tree.Nodes[idx]
		if node.IsLeaf() {
			n := node.Size[0] * node.Size[1] * node.Size[2]
			sum := float32(0)
			for z := 0; z < node.Size[2]; z++ {
				for y := 0; y < node.Size[1]; y++ {
					for x := 0; x < node.Size[0]; x++ {
						v := f.At(node.Offset[0]+x, node.Offset[1]+y, node.Offset[2]+z)
						sum += tf.Sample(remap(v, lower, upper))[Alpha]
					}
				}
			}
			ratio := float32(0)
			if n > 0 {
				ratio = sum / float32(n)
			}
			node.VisibilityRatio = ratio
			node.Visibility = visibilityFor(ratio, lowerThreshold)
			tree.Nodes[idx] = node
			return ratio, n
		}

		lowerRatio, lowerVoxels := visit(node.LowerChild)
		upperRatio, upperVoxels := visit(node.UpperChild)
		total := lowerVoxels + upperVoxels
		ratio := float32(0)
		if total > 0 {
			ratio = (lowerRatio*float32(lowerVoxels) + upperRatio*float32(upperVoxels)) / float32(total)
		}
		node.VisibilityRatio = ratio
		node.Visibility = visibilityFor(ratio, lowerThreshold)
		tree.Nodes[idx] = node
		return ratio, total
	}
	visit(tree.Root)
}

func updateBrickTreeVisibility(bf *brick.BrickedField, lowerThreshold float32) {
	tree := bf.Tree
	if tree == nil || len(tree.Nodes) == 0 {
		return
	}
	volumeOf := func(n brick.BrickTreeNode) float32 {
		return n.SpatialExtent[0] * n.SpatialExtent[1] * n.SpatialExtent[2]
	}

	var visit func(idx int32) float32
	visit = func(idx int32) float32 {
		node := tree.Nodes[idx]
		if node.IsLeaf() {
			b := bf.Bricks[node.BrickIndex]
			ratio := float32(0)
			if b.Tree != nil && len(b.Tree.Nodes) > 0 {
				ratio = b.Tree.Nodes[b.Tree.Root].VisibilityRatio
			}
			node.VisibilityRatio = ratio
			node.Visibility = visibilityFor(ratio, lowerThreshold)
			tree.Nodes[idx] = node
			return ratio
		}

		lowerRatio := visit(node.LowerChild)
		upperRatio := visit(node.UpperChild)
		lowerVol := volumeOf(tree.Nodes[node.LowerChild])
		upperVol := volumeOf(tree.Nodes[node.UpperChild])
		totalVol := lowerVol + upperVol
		ratio := float32(0)
		if totalVol > 0 {
			ratio = (lowerRatio*lowerVol + upperRatio*upperVol) / totalVol
		}
		node.VisibilityRatio = ratio
		node.Visibility = visibilityFor(ratio, lowerThreshold)
		tree.Nodes[idx] = node
		return ratio
	}
	visit(tree.Root)
}

func visibilityFor(ratio, lowerThreshold float32) brick.Visibility {
	if ratio <= lowerThreshold {
		return brick.VisibilityInvisible
	}
	return brick.VisibilityUndetermined
}
