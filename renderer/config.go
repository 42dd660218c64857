// Package renderer wires the field, bricking, texture, transfer-function,
// clip-plane, camera, slicer, shader-builder, and indicator subsystems
// into the two shader programs (volume, indicators) and the per-frame
// driver that holds them, replacing the original's file-scope mutable
// singletons with fields on a single owned Driver.
package renderer

import (
	"github.com/solarvol/voxrender/brick"
	"github.com/solarvol/voxrender/slicer"
)

// Config bundles every constructor-time default the driver needs, built
// with functional options in the style voxelrt/rt/app/app.go's NewApp
// takes a *glfw.Window directly rather than a config-file loader — there
// is no external config format in the teacher or the rest of the pack to
// borrow, so this module keeps the same "plain struct plus options"
// shape instead of introducing one.
type Config struct {
	Brick             brick.Config
	SpacingMultiplier float32
	Thresholds        slicer.Thresholds
	MaxTextures       int
	FieldIndicator    bool
	BrickIndicator    bool
	SubBrickIndicator bool
	Autorefresh       bool
}

// DefaultConfig matches the host operation table's stated defaults.
func DefaultConfig() Config {
	return Config{
		Brick:             brick.DefaultConfig(),
		SpacingMultiplier: 1.0,
		Thresholds:        slicer.Thresholds{Lower: 0.01, Upper: 0.99},
		MaxTextures:       64,
		Autorefresh:       true,
	}
}

// Option mutates a Config at construction time.
type Option func(*Config)

// WithBrickConfig overrides the bricking engine's parameters.
func WithBrickConfig(cfg brick.Config) Option {
	return func(c *Config) { c.Brick = cfg }
}

// WithSpacingMultiplier overrides the initial plane-spacing multiplier.
func WithSpacingMultiplier(m float32) Option {
	return func(c *Config) { c.SpacingMultiplier = m }
}

// WithThresholds overrides the visibility-culling thresholds.
func WithThresholds(t slicer.Thresholds) Option {
	return func(c *Config) { c.Thresholds = t }
}

// WithMaxTextures overrides the field-texture registry's capacity.
func WithMaxTextures(n int) Option {
	return func(c *Config) { c.MaxTextures = n }
}

// WithIndicators overrides which boundary wireframes are built on the
// next field load.
func WithIndicators(field, brick, subBrick bool) Option {
	return func(c *Config) {
		c.FieldIndicator = field
		c.BrickIndicator = brick
		c.SubBrickIndicator = subBrick
	}
}

// WithAutorefresh overrides whether MarkVisibilityDirty, called after
// transfer-function edits, sets the visibility dirty bit. The redraw bit
// that camera edits set through RefreshFrame does not depend on it.
func WithAutorefresh(enabled bool) Option {
	return func(c *Config) { c.Autorefresh = enabled }
}
