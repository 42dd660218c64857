package transferfunction

import (
	"github.com/google/uuid"

	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/internal/rtlog"
)

// Handle is an opaque, never-reused identifier for a registered transfer
// function.
type Handle uuid.UUID

// Registry owns a set of transfer functions keyed by Handle. Unlike the original's
// fixed MAX_TRANSFER_FUNCTIONS=2 array, any number may be registered; the
// upper bound that mattered in the original was GPU texture-unit count,
// which this module's field-texture registry (C) enforces separately.
type Registry struct {
	log       rtlog.Logger
	functions map[Handle]*TransferFunction
}

// NewRegistry returns an empty Registry.
func NewRegistry(log rtlog.Logger) *Registry {
	return &Registry{log: rtlog.Or(log), functions: make(map[Handle]*TransferFunction)}
}

// Add registers a new transfer function reset to its identity ramp and
// returns its handle.
func (r *Registry) Add() Handle {
	h := Handle(uuid.New())
	r.functions[h] = New()
	return h
}

// Remove deletes a registered transfer function. No-op if h is unknown.
func (r *Registry) Remove(h Handle) {
	delete(r.functions, h)
}

// Get returns the transfer function for h, or an UnknownName error.
func (r *Registry) Get(h Handle) (*TransferFunction, error) {
	tf, ok := r.functions[h]
	if !ok {
		return nil, rterr.New(rterr.UnknownName, "unknown transfer function handle")
	}
	return tf, nil
}

// warnf logs a non-fatal editing warning ("inactive" lookups, etc.),
// matching the original's print_warning_message + ignore policy for
// field/transfer-function edits.
func (r *Registry) warnf(format string, args ...interface{}) {
	r.log.Warnf(format, args...)
}

// SetNode edits a registered function's node, warning and ignoring the
// call if the handle does not name an active function.
func (r *Registry) SetNode(h Handle, c Component, textureCoordinate, v float32) {
	tf, err := r.Get(h)
	if err != nil {
		r.warnf("cannot modify inactive transfer function %v", h)
		return
	}
	tf.SetNode(c, textureCoordinate, v)
}
