package widget

import (
	"pageanalytics/internal/event"
	"pageanalytics/internal/host"
	"pageanalytics/internal/logging"
)

// Redacted replaces element values when masking applies.
const Redacted = "[REDACTED]"

// textInputTypes are the element types covered by Masking.TextInputs.
var textInputTypes = map[string]bool{
	"text_input": true,
	"text_area":  true,
}

// Masking selects which element values are redacted before logging.
type Masking struct {
	TextInputs bool
	All        bool
}

// Applies reports whether values of elementType must be redacted.
func (m Masking) Applies(elementType string) bool {
	return m.All || (m.TextInputs && textInputTypes[elementType])
}

// Emitter forwards a finished event to the tracker.
type Emitter func(event.Event)

// CallbackLogger stands in for an element's callback. The host calls it only
// when a real user action happened; each call emits exactly one event and then
// runs the developer's own callback, if any.
type CallbackLogger struct {
	element  *event.Element
	action   event.ActionKind
	original host.Callback
	emit     Emitter
	state    host.StateReader
	masking  Masking
}

// NewCallbackLogger binds a logger to one element instance.
// original, emit and state may be nil.
func NewCallbackLogger(element *event.Element, action event.ActionKind, original host.Callback, emit Emitter, state host.StateReader, masking Masking) *CallbackLogger {
	return &CallbackLogger{
		element:  element,
		action:   action,
		original: original,
		emit:     emit,
		state:    state,
		masking:  masking,
	}
}

// Call records the action and forwards args and kwargs unchanged to the
// original callback, returning its result.
func (c *CallbackLogger) Call(args []any, kwargs map[string]any) any {
	c.refreshValue()

	if c.emit != nil {
		snapshot := *c.element
		if snapshot.Values.Current != nil && c.masking.Applies(snapshot.Type) {
			snapshot.Values.Current = Redacted
		}
		c.emit(event.Event{
			Action:  c.action,
			Element: &snapshot,
			Extra: map[string]any{
				"args":   args,
				"kwargs": kwargs,
			},
		})
	}

	if c.original != nil {
		return c.original(args, kwargs)
	}
	return nil
}

// refreshValue reads the element's current value from host state for change
// actions. Lookup failures are logged and leave the value untouched.
func (c *CallbackLogger) refreshValue() {
	if c.action != event.ActionChange || c.state == nil {
		return
	}

	snapshot := c.state()
	if snapshot == nil {
		logging.Get(logging.CategoryWidget).Warn("extracting widget value %s (%s): render state unavailable", c.element.ID, c.element.Type)
		return
	}
	value, ok := snapshot[c.element.ID]
	if !ok {
		logging.Get(logging.CategoryWidget).Warn("extracting widget value %s (%s): no entry in render state", c.element.ID, c.element.Type)
		return
	}
	if value == nil {
		return
	}

	if c.masking.Applies(c.element.Type) {
		value = Redacted
	}
	c.element.UpdateValue(value)
}
