package hostapi

import (
	"github.com/solarvol/voxrender/internal/rterr"
	"github.com/solarvol/voxrender/transferfunction"
)

// activeTransferFunction resolves the active field's transfer function,
// warning and returning false if the API is not initialized or the
// handle has gone stale (should not happen in practice; New always
// registers one before handing back a Handle).
func (a *API) activeTransferFunction(op string) (*transferfunction.TransferFunction, bool) {
	if err := a.requireInitialized(); err != nil {
		a.warnAndIgnore(op, err)
		return nil, false
	}
	tf, err := a.driver.TransferFunctions().Get(a.driver.ActiveTransferFunction())
	if err != nil {
		a.warnAndIgnore(op, err)
		return nil, false
	}
	return tf, true
}

func validComponent(c int) bool {
	return c >= 0 && c <= int(transferfunction.Alpha)
}

// nodeCoordinate converts an interior node index in [1, Size-2] to the
// [0,1] texture coordinate transferfunction.TransferFunction's node
// operations key off of.
func nodeCoordinate(node int) float32 {
	return float32(node) / float32(transferfunction.Size-1)
}

// SetTransferFunctionLowerLimit and SetTransferFunctionUpperLimit move
// the active field's visibility window: v is given in field units,
// converted to texture units via the loaded field's normalisation. This
// clips which voxels the alpha lookup even considers; it does not touch
// any component's own node 0/N-1 value (update_transfer_function_lower
// _node_value / upper_node_value does that, per component, below).
func (a *API) SetTransferFunctionLowerLimit(v float32) {
	if err := a.requireInitialized(); err != nil {
		a.warnAndIgnore("set_transfer_function_lower_limit", err)
		return
	}
	f := a.driver.Field()
	if f == nil {
		a.warnAndIgnore("set_transfer_function_lower_limit", rterr.New(rterr.InvalidConfig, "no field loaded"))
		return
	}
	a.driver.SetLowerLimit(f.Field.ToTextureValue(v))
}

func (a *API) SetTransferFunctionUpperLimit(v float32) {
	if err := a.requireInitialized(); err != nil {
		a.warnAndIgnore("set_transfer_function_upper_limit", err)
		return
	}
	f := a.driver.Field()
	if f == nil {
		a.warnAndIgnore("set_transfer_function_upper_limit", rterr.New(rterr.InvalidConfig, "no field loaded"))
		return
	}
	a.driver.SetUpperLimit(f.Field.ToTextureValue(v))
}

// UpdateTransferFunctionLowerNodeValue and UpperNodeValue set a single
// component's node 0 or node N-1 endpoint value directly.
func (a *API) UpdateTransferFunctionLowerNodeValue(component int, value float32) {
	const op = "update_transfer_function_lower_node_value"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) || value < 0 || value > 1 {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component or value out of range"))
		return
	}
	tf.SetLowerLimit(transferfunction.Component(component), value)
	a.driver.MarkVisibilityDirty()
}

func (a *API) UpdateTransferFunctionUpperNodeValue(component int, value float32) {
	const op = "update_transfer_function_upper_node_value"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) || value < 0 || value > 1 {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component or value out of range"))
		return
	}
	tf.SetUpperLimit(transferfunction.Component(component), value)
	a.driver.MarkVisibilityDirty()
}

// UpdateTransferFunctionNodeValue inserts or replaces an interior
// piecewise-linear node (node in [1, Size-2]) for component.
func (a *API) UpdateTransferFunctionNodeValue(component, node int, value float32) {
	const op = "update_transfer_function_node_value"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) || node < 1 || node > transferfunction.Size-2 {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component or node out of range"))
		return
	}
	tf.SetNode(transferfunction.Component(component), nodeCoordinate(node), value)
	a.driver.MarkVisibilityDirty()
}

// RemoveTransferFunctionNode unfixes a previously set interior node.
func (a *API) RemoveTransferFunctionNode(component, node int) {
	const op = "remove_transfer_function_node"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) || node < 1 || node > transferfunction.Size-2 {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component or node out of range"))
		return
	}
	tf.RemoveNode(transferfunction.Component(component), nodeCoordinate(node))
	a.driver.MarkVisibilityDirty()
}

// UseLogarithmicTransferFunctionComponent switches component to
// logarithmic mode spanning the full [0,1] coordinate and value range.
func (a *API) UseLogarithmicTransferFunctionComponent(component int) {
	const op = "use_logarithmic_transfer_function_component"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component out of range"))
		return
	}
	a.warnAndIgnore(op, tf.SetLogarithmic(transferfunction.Component(component), 0, 1, 0, 1))
	a.driver.MarkVisibilityDirty()
}

// SetCustomTransferFunctionComponent installs a full custom LUT for the
// interior nodes of component. values must have Size-2 entries.
func (a *API) SetCustomTransferFunctionComponent(component int, values []float32) {
	const op = "set_custom_transfer_function_component"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component out of range"))
		return
	}
	a.warnAndIgnore(op, tf.SetCustom(transferfunction.Component(component), values))
	a.driver.MarkVisibilityDirty()
}

// ResetTransferFunctionComponent reverts component to the identity ramp
// (alpha: constant 1).
func (a *API) ResetTransferFunctionComponent(component int) {
	const op = "reset_transfer_function_component"
	tf, ok := a.activeTransferFunction(op)
	if !ok {
		return
	}
	if !validComponent(component) {
		a.warnAndIgnore(op, rterr.New(rterr.InvalidConfig, "component out of range"))
		return
	}
	tf.ResetComponent(transferfunction.Component(component))
	a.driver.MarkVisibilityDirty()
}
