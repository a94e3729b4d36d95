package widget

import (
	"pageanalytics/internal/event"
	"pageanalytics/internal/host"
	"pageanalytics/internal/logging"
	"pageanalytics/internal/recipe"
)

// Origin marks bindings installed by an Interceptor.
const Origin = "pageanalytics/widget"

// KeyParam is the keyword the host reads an element's identity from when the
// recipe declares no key field of its own.
const KeyParam = "key"

// Interceptor replaces one host element function. Every call is split by the
// element's recipe, given a stable identifier, has its callback wrapped, and
// is then forwarded to the original function.
type Interceptor struct {
	recipe   recipe.Recipe
	original *host.Binding
	emit     Emitter
	state    host.StateReader
	masking  Masking
}

// NewInterceptor creates an interceptor in front of original.
func NewInterceptor(r recipe.Recipe, original *host.Binding, emit Emitter, state host.StateReader, masking Masking) *Interceptor {
	return &Interceptor{
		recipe:   r,
		original: original,
		emit:     emit,
		state:    state,
		masking:  masking,
	}
}

// Binding returns a namespace binding that routes calls through i.
func (i *Interceptor) Binding() *host.Binding {
	return &host.Binding{Fn: i.Call, Origin: Origin}
}

// Call handles one element-creation call and returns the original function's
// result unchanged.
func (i *Interceptor) Call(args []any, kwargs map[string]any) any {
	ex := Extract(i.recipe, args, kwargs)

	label := stringValue(ex.Field(recipe.FieldLabel))
	id := ResolveID(stringValue(ex.Field(recipe.FieldKey)), label, IDPrefix)

	initial := i.initialValue(ex, kwargs)
	extraKwargs, _ := event.Clean(event.Normalize(kwargs)).(map[string]any)
	if i.masking.Applies(i.recipe.Element) {
		if initial != nil {
			initial = Redacted
		}
		keyword := recipe.FieldValue
		if spec, ok := i.recipe.Field(recipe.FieldValue); ok {
			keyword = spec.Keyword
		}
		if _, ok := extraKwargs[keyword]; ok {
			extraKwargs[keyword] = Redacted
		}
	}

	element := &event.Element{
		ID:     id,
		Type:   i.recipe.Element,
		Label:  label,
		Values: event.Values{Current: initial},
		Extra: map[string]any{
			"args":   event.Clean(event.Normalize(args)),
			"kwargs": extraKwargs,
		},
	}

	callArgs := make([]any, 0, len(ex.Args)+1)
	callArgs = append(callArgs, label)
	callArgs = append(callArgs, ex.Args...)
	callKwargs := ex.Kwargs

	if spec, ok := i.recipe.Field(recipe.FieldAction); ok {
		raw := ex.Field(recipe.FieldAction)
		original, callable := host.AsCallback(raw)
		if !isNil(raw) && !callable {
			logging.Get(logging.CategoryWidget).Warn("%s %s: callback of type %T is not callable, dropping it", element.Type, element.ID, raw)
		}
		logger := NewCallbackLogger(element, i.recipe.Action, original, i.emit, i.state, i.masking)
		callKwargs[spec.Keyword] = host.Callback(logger.Call)
	}

	keyParam := KeyParam
	if spec, ok := i.recipe.Field(recipe.FieldKey); ok {
		keyParam = spec.Keyword
	}
	callKwargs[keyParam] = id

	logging.WidgetDebug("Created wrapped element: %s (id:%s)", element.Type, element.ID)
	return i.original.Call(callArgs, callKwargs)
}

// initialValue is the recipe's value field when declared, otherwise a "value"
// keyword left in the call.
func (i *Interceptor) initialValue(ex Extraction, kwargs map[string]any) any {
	if _, ok := i.recipe.Field(recipe.FieldValue); ok {
		return ex.Field(recipe.FieldValue)
	}
	return kwargs[recipe.FieldValue]
}
