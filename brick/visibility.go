package brick

// Visibility is the traversal state of a brick- or sub-brick-tree node.
type Visibility int

const (
	VisibilityUndetermined Visibility = iota
	VisibilityVisible
	VisibilityInvisible
	VisibilityClipped
)
