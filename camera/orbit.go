package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit/Dolly are the camera-side state transitions a trackball UI would
// drive (drag_start/drag/drag_end/scroll_callback in the original). The
// input-device mapping itself (mouse coordinates, scroll wheel) is out of
// scope; these two methods are the minimal state machine that survives
// that exclusion: a rotation about a world-space axis, and an
// exponential zoom.

// DefaultZoomRateModifier matches the original's scroll-to-scale
// exponent scale factor.
const DefaultZoomRateModifier = 1e-2

// Orbit rotates the view about axis (in world space) by angle radians,
// pivoting about the world origin so the rotation reads as an orbit
// around the scene rather than a spin in place.
func (c *Camera) Orbit(axis mgl32.Vec3, angle float32) {
	c.ApplyOriginCenteredViewRotation(axis, angle)
}

// Dolly scales the model uniformly by exp(zoomRateModifier * amount),
// the same exponential mapping the original's scroll callback uses so a
// constant physical scroll motion feels like a constant relative zoom
// regardless of current scale.
func (c *Camera) Dolly(amount, zoomRateModifier float32) error {
	scale := float32(math.Exp(float64(zoomRateModifier * amount)))
	return c.ApplyScale(scale)
}
