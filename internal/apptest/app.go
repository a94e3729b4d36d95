// Package apptest simulates a re-rendering UI host so instrumentation can be
// exercised end to end.
//
// An App owns a primary namespace ("st") and a sidebar namespace
// ("st.sidebar") populated with element functions, plus per-session render
// state keyed by element identifier. Every Run re-executes the whole script.
// Interactions (Click, SetValue) change state and queue the element's callback;
// queued callbacks fire at the start of the next Run, before the script, which
// is when a real host reports user actions.
package apptest

import (
	"errors"
	"fmt"
	"maps"
	"reflect"

	"pageanalytics/internal/host"
	"pageanalytics/internal/logging"
)

// Namespace names used by App.
const (
	MainNamespace    = "st"
	SidebarNamespace = "st.sidebar"
)

// ErrDuplicateKey is reported when two elements in one run share a key.
var ErrDuplicateKey = errors.New("duplicate element key")

// Script is one render pass of the application.
type Script func(main, sidebar *host.Namespace)

// elementKinds maps every element type the simulated host provides to the
// keyword carrying its callback. An empty keyword means no callback.
var elementKinds = map[string]string{
	"button":        "on_click",
	"checkbox":      "on_change",
	"radio":         "on_change",
	"selectbox":     "on_change",
	"multiselect":   "on_change",
	"slider":        "on_change",
	"select_slider": "on_change",
	"text_input":    "on_change",
	"number_input":  "on_change",
	"text_area":     "on_change",
	"date_input":    "on_change",
	"time_input":    "on_change",
	"file_uploader": "on_change",
	"color_picker":  "on_change",
	"write":         "",
}

type pendingCallback struct {
	fn     host.Callback
	args   []any
	kwargs map[string]any
}

// App is one simulated session.
type App struct {
	Main    *host.Namespace
	Sidebar *host.Namespace

	script   Script
	state    map[string]any
	clicked  map[string]bool
	elements []*Element
	byKey    map[string]*Element
	pending  []pendingCallback
	runs     int
}

// New creates an App that renders script.
func New(script Script) *App {
	a := &App{
		Main:    host.NewNamespace(MainNamespace),
		Sidebar: host.NewNamespace(SidebarNamespace),
		script:  script,
		state:   make(map[string]any),
		clicked: make(map[string]bool),
		byKey:   make(map[string]*Element),
	}
	for typ, callbackParam := range elementKinds {
		a.Main.Define(typ, a.elementFunc(MainNamespace, typ, callbackParam))
		a.Sidebar.Define(typ, a.elementFunc(SidebarNamespace, typ, callbackParam))
	}
	return a
}

// Run fires queued callbacks, then re-executes the script. A panic in either
// is returned as an error.
func (a *App) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("run %d: %w", a.runs, e)
			} else {
				err = fmt.Errorf("run %d: %v", a.runs, r)
			}
		}
		clear(a.clicked)
	}()

	a.runs++
	pending := a.pending
	a.pending = nil
	for _, cb := range pending {
		cb.fn(cb.args, cb.kwargs)
	}

	a.elements = nil
	clear(a.byKey)
	logging.AppTestDebug("run %d: %d callbacks dispatched", a.runs, len(pending))
	a.script(a.Main, a.Sidebar)

	for key := range a.clicked {
		a.state[key] = false
	}
	return nil
}

// Runs returns how many times the script has been executed.
func (a *App) Runs() int {
	return a.runs
}

// State returns a snapshot of the render state. It satisfies host.StateReader.
func (a *App) State() map[string]any {
	return maps.Clone(a.state)
}

// SetState writes a render-state entry directly.
func (a *App) SetState(key string, value any) {
	a.state[key] = value
}

// Elements returns the elements of typ created in the last run, in order.
// An empty typ returns every element.
func (a *App) Elements(typ string) []*Element {
	var out []*Element
	for _, e := range a.elements {
		if typ == "" || e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Element returns the element with key from the last run.
func (a *App) Element(key string) (*Element, bool) {
	e, ok := a.byKey[key]
	return e, ok
}

func (a *App) elementFunc(namespace, typ, callbackParam string) host.Func {
	return func(args []any, kwargs map[string]any) any {
		label, rest := splitLabel(args, kwargs)
		key, _ := kwargs["key"].(string)
		if key == "" {
			key = fmt.Sprintf("$$auto-%s-%s", typ, label)
		}
		if _, dup := a.byKey[key]; dup {
			panic(fmt.Errorf("%w: %q", ErrDuplicateKey, key))
		}

		e := &Element{
			app:       a,
			Namespace: namespace,
			Type:      typ,
			Label:     label,
			Key:       key,
			Args:      rest,
			Kwargs:    kwargs,
		}
		if callbackParam != "" {
			e.callback, _ = host.AsCallback(kwargs[callbackParam])
			e.callbackArgs, _ = kwargs["args"].([]any)
			e.callbackKwargs, _ = kwargs["kwargs"].(map[string]any)
		}
		a.elements = append(a.elements, e)
		a.byKey[key] = e

		if typ == "write" {
			return nil
		}
		if typ == "button" {
			a.state[key] = a.clicked[key]
			return a.clicked[key]
		}
		if v, ok := a.state[key]; ok {
			return v
		}
		v := defaultValue(typ, rest, kwargs)
		a.state[key] = v
		return v
	}
}

func splitLabel(args []any, kwargs map[string]any) (string, []any) {
	if len(args) > 0 {
		return fmt.Sprint(args[0]), args[1:]
	}
	if l, ok := kwargs["label"]; ok && l != nil {
		return fmt.Sprint(l), nil
	}
	return "", nil
}

// defaultValue picks an element's first-render value from its arguments.
func defaultValue(typ string, rest []any, kwargs map[string]any) any {
	if v, ok := kwargs["value"]; ok {
		return v
	}
	arg := func(i int) (any, bool) {
		if i < len(rest) && rest[i] != nil {
			return rest[i], true
		}
		return nil, false
	}

	switch typ {
	case "checkbox":
		return false
	case "text_input", "text_area":
		return ""
	case "number_input":
		return 0.0
	case "multiselect":
		return []any{}
	case "radio", "selectbox", "select_slider":
		options, ok := kwargs["options"]
		if !ok {
			options, ok = arg(0)
		}
		if !ok {
			return nil
		}
		index := 0
		if i, ok := kwargs["index"].(int); ok {
			index = i
		} else if v, ok := arg(1); ok {
			index, _ = v.(int)
		}
		rv := reflect.ValueOf(options)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && index >= 0 && index < rv.Len() {
			return rv.Index(index).Interface()
		}
		return nil
	case "slider":
		// label, min_value, max_value, value
		if v, ok := arg(2); ok {
			return v
		}
		if v, ok := kwargs["min_value"]; ok {
			return v
		}
		if v, ok := arg(0); ok {
			return v
		}
		return 0
	}
	return nil
}

// Element is one element created during the last run.
type Element struct {
	app *App

	Namespace string
	Type      string
	Label     string
	Key       string
	// Args and Kwargs are what the element function received, label excluded.
	Args   []any
	Kwargs map[string]any

	callback       host.Callback
	callbackArgs   []any
	callbackKwargs map[string]any
}

// Value returns the element's current render-state value.
func (e *Element) Value() any {
	return e.app.state[e.Key]
}

// HasCallback reports whether the element was created with a callback.
func (e *Element) HasCallback() bool {
	return e.callback != nil
}

// Click presses a button. Its value is true for the next run only.
func (e *Element) Click() {
	e.app.clicked[e.Key] = true
	e.app.state[e.Key] = true
	e.queue()
}

// SetValue changes the element's value. The change callback is queued only
// when the value actually differs.
func (e *Element) SetValue(v any) {
	if old, ok := e.app.state[e.Key]; ok && reflect.DeepEqual(old, v) {
		return
	}
	e.app.state[e.Key] = v
	e.queue()
}

func (e *Element) queue() {
	if e.callback == nil {
		return
	}
	e.app.pending = append(e.app.pending, pendingCallback{
		fn:     e.callback,
		args:   e.callbackArgs,
		kwargs: e.callbackKwargs,
	})
}
