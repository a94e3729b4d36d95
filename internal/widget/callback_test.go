package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pageanalytics/internal/event"
	"pageanalytics/internal/host"
	"pageanalytics/internal/logging"
)

type recorder struct {
	events []event.Event
}

func (r *recorder) emit(ev event.Event) {
	r.events = append(r.events, ev)
}

func stateOf(m map[string]any) func() map[string]any {
	return func() map[string]any { return m }
}

func TestCallbackLoggerEmitsThenCallsOriginal(t *testing.T) {
	rec := &recorder{}
	var order []string
	original := func(args []any, kwargs map[string]any) any {
		order = append(order, "original")
		assert.Equal(t, []any{"a"}, args)
		assert.Equal(t, map[string]any{"b": 1}, kwargs)
		return "result"
	}
	el := &event.Element{ID: "k", Type: "button", Label: "Go"}
	cl := NewCallbackLogger(el, event.ActionClick, original, func(ev event.Event) {
		order = append(order, "emit")
		rec.emit(ev)
	}, nil, Masking{})

	got := cl.Call([]any{"a"}, map[string]any{"b": 1})

	assert.Equal(t, "result", got)
	assert.Equal(t, []string{"emit", "original"}, order)
	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, event.ActionClick, ev.Action)
	assert.Equal(t, "k", ev.Element.ID)
	assert.Equal(t, []any{"a"}, ev.Extra["args"])
}

func TestCallbackLoggerWithoutOriginal(t *testing.T) {
	rec := &recorder{}
	cl := NewCallbackLogger(&event.Element{ID: "k", Type: "button"}, event.ActionClick, nil, rec.emit, nil, Masking{})
	assert.Nil(t, cl.Call(nil, nil))
	assert.Len(t, rec.events, 1)
}

func TestCallbackLoggerChangeReadsState(t *testing.T) {
	rec := &recorder{}
	el := &event.Element{ID: "name", Type: "text_input", Values: event.Values{Current: ""}}
	state := map[string]any{"name": "Ada"}
	cl := NewCallbackLogger(el, event.ActionChange, nil, rec.emit, stateOf(state), Masking{})

	cl.Call(nil, nil)
	state["name"] = "Grace"
	cl.Call(nil, nil)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "Ada", rec.events[0].Element.Values.Current)
	assert.Equal(t, "Grace", rec.events[1].Element.Values.Current)
	assert.Equal(t, "Ada", rec.events[1].Element.Values.Previous)
}

func TestCallbackLoggerClickIgnoresState(t *testing.T) {
	rec := &recorder{}
	el := &event.Element{ID: "b", Type: "button"}
	cl := NewCallbackLogger(el, event.ActionClick, nil, rec.emit, stateOf(map[string]any{"b": true}), Masking{})
	cl.Call(nil, nil)
	assert.Nil(t, rec.events[0].Element.Values.Current)
}

func observeWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	logging.UseLogger(zap.New(core), logging.Settings{})
	t.Cleanup(logging.Reset)
	return logs
}

func TestCallbackLoggerStateFailures(t *testing.T) {
	tests := []struct {
		name     string
		state    func() map[string]any
		warnings int
	}{
		{"unavailable", stateOf(nil), 1},
		{"missing key", stateOf(map[string]any{"other": 1}), 1},
		{"nil value", stateOf(map[string]any{"c": nil}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeWarnings(t)
			rec := &recorder{}
			el := &event.Element{ID: "c", Type: "checkbox", Values: event.Values{Current: false}}
			cl := NewCallbackLogger(el, event.ActionChange, nil, rec.emit, tt.state, Masking{})

			cl.Call(nil, nil)

			require.Len(t, rec.events, 1)
			assert.Equal(t, false, rec.events[0].Element.Values.Current)
			warnings := logs.FilterLoggerName("widget").All()
			require.Len(t, warnings, tt.warnings)
			for _, w := range warnings {
				assert.Contains(t, w.Message, "extracting widget value c (checkbox)")
			}
		})
	}
}

// The value an element was created with must be redacted even when render
// state cannot supply a fresh one.
func TestCallbackLoggerMasksValueWithoutState(t *testing.T) {
	tests := map[string]func() map[string]any{
		"no reader":   nil,
		"unavailable": stateOf(nil),
		"missing key": stateOf(map[string]any{}),
		"nil value":   stateOf(map[string]any{"pw": nil}),
	}
	for name, state := range tests {
		t.Run(name, func(t *testing.T) {
			for _, masking := range []Masking{{All: true}, {TextInputs: true}} {
				rec := &recorder{}
				el := &event.Element{ID: "pw", Type: "text_input", Values: event.Values{Current: "hunter2"}}
				var reader host.StateReader
				if state != nil {
					reader = state
				}
				cl := NewCallbackLogger(el, event.ActionChange, nil, rec.emit, reader, masking)

				cl.Call(nil, nil)

				require.Len(t, rec.events, 1)
				assert.Equal(t, Redacted, rec.events[0].Element.Values.Current, "masking %+v", masking)
			}
		})
	}
}

func TestMasking(t *testing.T) {
	tests := []struct {
		name    string
		masking Masking
		typ     string
		want    any
	}{
		{"off", Masking{}, "text_input", "secret"},
		{"text inputs", Masking{TextInputs: true}, "text_input", Redacted},
		{"text area", Masking{TextInputs: true}, "text_area", Redacted},
		{"text inputs leaves others", Masking{TextInputs: true}, "selectbox", "secret"},
		{"all", Masking{All: true}, "selectbox", Redacted},
		{"all wins", Masking{TextInputs: false, All: true}, "text_input", Redacted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			el := &event.Element{ID: "x", Type: tt.typ}
			cl := NewCallbackLogger(el, event.ActionChange, nil, rec.emit, stateOf(map[string]any{"x": "secret"}), tt.masking)
			cl.Call(nil, nil)
			assert.Equal(t, tt.want, rec.events[0].Element.Values.Current)
		})
	}
}

func TestEmittedSnapshotIsIndependent(t *testing.T) {
	rec := &recorder{}
	state := map[string]any{"n": 1}
	el := &event.Element{ID: "n", Type: "number_input"}
	cl := NewCallbackLogger(el, event.ActionChange, nil, rec.emit, stateOf(state), Masking{})

	cl.Call(nil, nil)
	state["n"] = 2
	cl.Call(nil, nil)

	assert.Equal(t, 1, rec.events[0].Element.Values.Current)
	assert.Equal(t, 2, rec.events[1].Element.Values.Current)
}
