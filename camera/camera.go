// Package camera implements the model/view/projection transform stack
// and the camera state derived from it.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarvol/voxrender/internal/rterr"
)

// ProjectionType selects the camera's projection matrix shape.
type ProjectionType int

const (
	Perspective ProjectionType = iota
	Orthographic
)

// Camera owns the model, view, and projection matrices along with the
// values derived from them each time one of the three changes.
type Camera struct {
	model mgl32.Mat4
	view  mgl32.Mat4

	projectionType ProjectionType
	fieldOfView    float32
	aspectRatio    float32
	near           float32
	far            float32
	projection     mgl32.Mat4

	modelview   mgl32.Mat4
	mvp         mgl32.Mat4
	inverseView mgl32.Mat4
	position    mgl32.Vec3
	lookAxis    mgl32.Vec3
}

// New returns a Camera with identity model/view and a default
// perspective projection, matching the original's initialization
// constants.
func New() *Camera {
	c := &Camera{
		model:          mgl32.Ident4(),
		view:           mgl32.Ident4(),
		projectionType: Perspective,
		fieldOfView:    60,
		aspectRatio:    1,
		near:           0.1,
		far:            100,
	}
	c.updateProjection()
	return c
}

// Model, View, Projection, Modelview, MVP, InverseView return the current
// matrix state.
func (c *Camera) Model() mgl32.Mat4       { return c.model }
func (c *Camera) View() mgl32.Mat4        { return c.view }
func (c *Camera) Projection() mgl32.Mat4  { return c.projection }
func (c *Camera) Modelview() mgl32.Mat4   { return c.modelview }
func (c *Camera) MVP() mgl32.Mat4         { return c.mvp }
func (c *Camera) InverseView() mgl32.Mat4 { return c.inverseView }

// Position returns the camera's world-space position, the 4th column of
// the inverse view matrix.
func (c *Camera) Position() mgl32.Vec3 { return c.position }

// LookAxis returns the camera's normalised look axis, the 3rd column of
// the inverse view matrix. It points from the scene toward the camera:
// the camera views along its negative.
func (c *Camera) LookAxis() mgl32.Vec3 { return c.lookAxis }

// SetModel replaces the model matrix directly (used by ApplyScale /
// ApplyTranslation, and available for tests).
func (c *Camera) SetModel(m mgl32.Mat4) {
	c.model = m
	c.syncTransformation()
}

// SetView replaces the view matrix directly.
func (c *Camera) SetView(v mgl32.Mat4) {
	c.view = v
	c.syncTransformation()
}

// ApplyScale uniformly scales the model matrix. scale must be positive.
func (c *Camera) ApplyScale(scale float32) error {
	if scale <= 0 {
		return rterr.New(rterr.InvalidConfig, "model scale must be positive")
	}
	c.model = c.model.Mul4(mgl32.Scale3D(scale, scale, scale))
	c.syncTransformation()
	return nil
}

// ApplyTranslation translates the model matrix.
func (c *Camera) ApplyTranslation(d mgl32.Vec3) {
	c.model = c.model.Mul4(mgl32.Translate3D(d[0], d[1], d[2]))
	c.syncTransformation()
}

// ApplyViewRotation rotates the view matrix about axis by angle radians,
// leaving its translation untouched.
func (c *Camera) ApplyViewRotation(axis mgl32.Vec3, angle float32) {
	c.view = c.view.Mul4(mgl32.HomogRotate3D(angle, axis))
	c.syncTransformation()
}

// ApplyOriginCenteredViewRotation rotates the view matrix about axis by
// angle radians about the world origin, preserving the view's current
// translation afterward. This is what a trackball drag uses: rotating
// about the origin rather than about the camera keeps orbiting centered
// on the scene rather than spinning the camera in place.
func (c *Camera) ApplyOriginCenteredViewRotation(axis mgl32.Vec3, angle float32) {
	translation := c.view.Col(3)
	untranslated := c.view
	untranslated.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	untranslated = untranslated.Mul4(mgl32.HomogRotate3D(angle, axis))
	untranslated.SetCol(3, translation)
	c.view = untranslated
	c.syncTransformation()
}

// SetViewDistance sets the view matrix's translation to place the camera
// distance units back along its local Z axis, used for the initial
// framing of a newly loaded field.
func (c *Camera) SetViewDistance(distance float32) {
	c.view.SetCol(3, mgl32.Vec4{0, 0, -distance, 1})
	c.syncTransformation()
}

// SetProjection updates the projection parameters and type, rebuilding
// the projection matrix.
func (c *Camera) SetProjection(projType ProjectionType, fieldOfView, aspectRatio, near, far float32) error {
	if aspectRatio <= 0 || near <= 0 || far <= near {
		return rterr.New(rterr.InvalidConfig, "invalid camera projection parameters")
	}
	c.projectionType = projType
	c.fieldOfView = fieldOfView
	c.aspectRatio = aspectRatio
	c.near = near
	c.far = far
	c.updateProjection()
	return nil
}

// SetFieldOfView updates only the field of view (perspective) or
// vertical extent (orthographic), rebuilding the projection matrix.
func (c *Camera) SetFieldOfView(fieldOfView float32) {
	c.fieldOfView = fieldOfView
	c.updateProjection()
}

// SetAspectRatio updates only the aspect ratio, as on a window resize.
func (c *Camera) SetAspectRatio(aspectRatio float32) error {
	if aspectRatio <= 0 {
		return rterr.New(rterr.InvalidConfig, "aspect ratio must be positive")
	}
	c.aspectRatio = aspectRatio
	c.updateProjection()
	return nil
}

// SetClipPlanes updates only the near/far distances, rebuilding the
// projection matrix.
func (c *Camera) SetClipPlanes(near, far float32) error {
	if near <= 0 || far <= near {
		return rterr.New(rterr.InvalidConfig, "far clip plane must exceed a positive near clip plane")
	}
	c.near = near
	c.far = far
	c.updateProjection()
	return nil
}

// SetProjectionType switches between perspective and orthographic,
// keeping field of view, aspect ratio, and clip distances unchanged.
func (c *Camera) SetProjectionType(projType ProjectionType) {
	c.projectionType = projType
	c.updateProjection()
}

// ProjectionType, FieldOfView, AspectRatio, Near, Far report the
// current projection parameters.
func (c *Camera) ProjectionType() ProjectionType { return c.projectionType }
func (c *Camera) FieldOfView() float32           { return c.fieldOfView }
func (c *Camera) AspectRatio() float32           { return c.aspectRatio }
func (c *Camera) Near() float32                  { return c.near }
func (c *Camera) Far() float32                   { return c.far }

func (c *Camera) updateProjection() {
	if c.projectionType == Perspective {
		c.projection = mgl32.Perspective(mgl32.DegToRad(c.fieldOfView), c.aspectRatio, c.near, c.far)
	} else {
		halfHeight := c.fieldOfView / 2
		halfWidth := halfHeight * c.aspectRatio
		c.projection = mgl32.Ortho(-halfWidth, halfWidth, -halfHeight, halfHeight, c.near, c.far)
	}
	c.syncTransformation()
}

func (c *Camera) syncTransformation() {
	c.modelview = c.view.Mul4(c.model)
	c.mvp = c.projection.Mul4(c.modelview)
	c.inverseView = c.view.Inv()
	c.syncCamera()
}

func (c *Camera) syncCamera() {
	thirdCol := c.inverseView.Col(2)
	fourthCol := c.inverseView.Col(3)
	c.lookAxis = mgl32.Vec3{thirdCol[0], thirdCol[1], thirdCol[2]}.Normalize()
	c.position = mgl32.Vec3{fourthCol[0], fourthCol[1], fourthCol[2]}
}
