package hostapi

import (
	"github.com/solarvol/voxrender/camera"
	"github.com/solarvol/voxrender/internal/rterr"
)

// SetCameraFieldOfView updates the projection's field of view (degrees,
// perspective) or vertical extent (orthographic). fov must lie in
// (0,180).
func (a *API) SetCameraFieldOfView(fov float32) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	if fov <= 0 || fov >= 180 {
		return rterr.New(rterr.InvalidConfig, "field of view must be in (0,180)")
	}
	a.driver.Camera().SetFieldOfView(fov)
	a.driver.RefreshFrame()
	return nil
}

// SetClipPlaneDistances updates the projection's near/far clip
// distances. near must be positive and less than far.
func (a *API) SetClipPlaneDistances(near, far float32) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	if err := a.driver.Camera().SetClipPlanes(near, far); err != nil {
		return err
	}
	a.driver.RefreshFrame()
	return nil
}

// UsePerspectiveCameraProjection and UseOrthographicCameraProjection
// switch the projection type, keeping field of view, aspect ratio, and
// clip distances unchanged.
func (a *API) UsePerspectiveCameraProjection() error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	a.driver.Camera().SetProjectionType(camera.Perspective)
	a.driver.RefreshFrame()
	return nil
}

func (a *API) UseOrthographicCameraProjection() error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	a.driver.Camera().SetProjectionType(camera.Orthographic)
	a.driver.RefreshFrame()
	return nil
}

// SetLowerVisibilityThreshold and SetUpperVisibilityThreshold set the
// traversal culling thresholds a sub-brick's visibility ratio is
// compared against. Both must lie in [0,1], lower must not exceed upper.
func (a *API) SetLowerVisibilityThreshold(t float32) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	return a.driver.SetLowerVisibilityThreshold(t)
}

func (a *API) SetUpperVisibilityThreshold(t float32) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	return a.driver.SetUpperVisibilityThreshold(t)
}

// validIndicatorState checks the argument range a host boundary-toggle
// call takes. The original source's equivalent validator tested
// `state != 0 || state != 1`, which is always true and so never actually
// rejected anything; the intended check, implemented here, is
// `state != 0 && state != 1`.
func validIndicatorState(state int) error {
	if state != 0 && state != 1 {
		return rterr.New(rterr.InvalidConfig, "indicator creation state must be 0 or 1")
	}
	return nil
}

// SetFieldBoundaryIndicatorCreation, SetBrickBoundaryIndicatorCreation,
// and SetSubBrickBoundaryIndicatorCreation toggle the corresponding
// debug wireframe, applied on the next SetFieldFromBifrostFile.
func (a *API) SetFieldBoundaryIndicatorCreation(state int) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	if err := validIndicatorState(state); err != nil {
		return err
	}
	cfg := a.driver.Config()
	a.driver.SetIndicatorToggles(state == 1, cfg.BrickIndicator, cfg.SubBrickIndicator)
	return nil
}

func (a *API) SetBrickBoundaryIndicatorCreation(state int) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	if err := validIndicatorState(state); err != nil {
		return err
	}
	cfg := a.driver.Config()
	a.driver.SetIndicatorToggles(cfg.FieldIndicator, state == 1, cfg.SubBrickIndicator)
	return nil
}

func (a *API) SetSubBrickBoundaryIndicatorCreation(state int) error {
	if err := a.requireInitialized(); err != nil {
		return err
	}
	if err := validIndicatorState(state); err != nil {
		return err
	}
	cfg := a.driver.Config()
	a.driver.SetIndicatorToggles(cfg.FieldIndicator, cfg.BrickIndicator, state == 1)
	return nil
}
