package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageanalytics/internal/apptest"
	"pageanalytics/internal/host"
)

// session wires a tracker into a simulated app whose script starts tracking
// on page before rendering.
type session struct {
	app     *apptest.App
	tracker *Tracker
	events  *capture
	page    string
}

func newSession(t *testing.T, opts Options, render func(st, sidebar *host.Namespace)) *session {
	t.Helper()
	s := &session{page: "Test Page"}
	s.app = apptest.New(func(st, sidebar *host.Namespace) {
		s.tracker.StartTracking(s.page)
		render(st, sidebar)
	})
	s.tracker, s.events = newTracker(t, Host{
		Namespaces: []*host.Namespace{s.app.Main, s.app.Sidebar},
		State:      s.app.State,
	}, opts)
	t.Cleanup(s.tracker.StopTracking)
	return s
}

func (s *session) run(t *testing.T) {
	t.Helper()
	require.NoError(t, s.app.Run())
}

func (s *session) only(t *testing.T, typ string) *apptest.Element {
	t.Helper()
	els := s.app.Elements(typ)
	require.Len(t, els, 1, "rendered %s elements", typ)
	return els[0]
}

func call(ns *host.Namespace, element string, args []any, kwargs map[string]any) any {
	v, err := ns.Call(element, args, kwargs)
	if err != nil {
		panic(err)
	}
	return v
}

func TestButtonWithoutKeyClickedOnce(t *testing.T) {
	s := newSession(t, Options{SessionID: "s", UserID: "u"}, func(st, _ *host.Namespace) {
		call(st, "button", []any{"Test Button Without Key"}, nil)
	})

	for i := 0; i < 3; i++ {
		s.run(t)
	}
	assert.Empty(t, s.events.actions(t, "click"), "rendering alone must not emit clicks")

	btn := s.only(t, "button")
	assert.Equal(t, "pg-trk-15113830", btn.Key)
	btn.Click()
	s.run(t)

	clicks := s.events.actions(t, "click")
	require.Len(t, clicks, 1)
	w := clicks[0]["widget"].(map[string]any)
	assert.Equal(t, "pg-trk-15113830", w["id"])
	assert.Equal(t, "button", w["type"])
	assert.Equal(t, "Test Button Without Key", w["label"])
	assert.Equal(t, "s", clicks[0]["session_id"])
	assert.Equal(t, "u", clicks[0]["user_id"])
	assert.Equal(t, "Test Page", clicks[0]["page_name"])

	assert.Len(t, s.events.actions(t, "start_tracking"), 1)
}

func TestIdentifierStableAcrossRenders(t *testing.T) {
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "button", []any{"Test Button Without Key"}, nil)
	})
	s.run(t)
	first := s.only(t, "button").Key
	s.run(t)
	assert.Equal(t, first, s.only(t, "button").Key)
}

func TestButtonReturnsClickedOnce(t *testing.T) {
	var results []any
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		results = append(results, call(st, "button", []any{"Go"}, nil))
	})
	s.run(t)
	s.only(t, "button").Click()
	s.run(t)
	s.run(t)
	assert.Equal(t, []any{false, true, false}, results)
}

func TestMultipleClicks(t *testing.T) {
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "button", []any{"Go"}, map[string]any{"key": "go"})
	})
	s.run(t)
	for i := 0; i < 3; i++ {
		s.only(t, "button").Click()
		s.run(t)
	}
	clicks := s.events.actions(t, "click")
	require.Len(t, clicks, 3)
	for _, c := range clicks {
		assert.Equal(t, "go", c["widget"].(map[string]any)["id"])
	}
}

func TestDeveloperCallbackStillRuns(t *testing.T) {
	var got []any
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "button", []any{"Go"}, map[string]any{
			"on_click": func(args ...any) { got = append(got, args...) },
			"args":     []any{"hello", 2},
		})
	})
	s.run(t)
	s.only(t, "button").Click()
	s.run(t)

	assert.Equal(t, []any{"hello", 2}, got)
	clicks := s.events.actions(t, "click")
	require.Len(t, clicks, 1)
	assert.Equal(t, map[string]any{"args": []any{"hello", float64(2)}}, clicks[0]["extra"])
}

func TestTextInputChange(t *testing.T) {
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "text_input", []any{"Test Text Input without key"}, nil)
	})
	s.run(t)
	s.run(t)

	input := s.only(t, "text_input")
	assert.Equal(t, "pg-trk-1613747494", input.Key)
	input.SetValue("hello")
	s.run(t)

	changes := s.events.actions(t, "change")
	require.Len(t, changes, 1)
	w := changes[0]["widget"].(map[string]any)
	assert.Equal(t, "pg-trk-1613747494", w["id"])
	assert.Equal(t, map[string]any{"current": "hello"}, w["values"])
}

func TestUnchangedValueEmitsNothing(t *testing.T) {
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "text_input", []any{"Name"}, nil)
	})
	s.run(t)
	s.only(t, "text_input").SetValue("")
	s.run(t)
	assert.Empty(t, s.events.actions(t, "change"))
}

func TestMasking(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantText  any
		wantCheck any
	}{
		{"off", Options{}, "secret", true},
		{"text inputs", Options{MaskTextInputValues: true}, "[REDACTED]", true},
		{"all", Options{MaskAllValues: true}, "[REDACTED]", "[REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, tt.opts, func(st, _ *host.Namespace) {
				call(st, "text_input", []any{"Password"}, map[string]any{"key": "pw"})
				call(st, "checkbox", []any{"Remember me"}, map[string]any{"key": "remember"})
			})
			s.run(t)
			el, _ := s.app.Element("pw")
			el.SetValue("secret")
			el, _ = s.app.Element("remember")
			el.SetValue(true)
			s.run(t)

			changes := s.events.actions(t, "change")
			require.Len(t, changes, 2)
			values := map[string]any{}
			for _, c := range changes {
				w := c["widget"].(map[string]any)
				values[w["id"].(string)] = w["values"].(map[string]any)["current"]
			}
			assert.Equal(t, tt.wantText, values["pw"])
			assert.Equal(t, tt.wantCheck, values["remember"])
		})
	}
}

func TestPositionalRadio(t *testing.T) {
	// radio(label, options, index, format_func, help, key)
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "radio", []any{"Pick", []any{"a", "b"}, 1, nil, "help", "rk"}, nil)
	})
	s.run(t)

	radio := s.only(t, "radio")
	assert.Equal(t, "rk", radio.Key)
	assert.Equal(t, "b", radio.Value())
	radio.SetValue("a")
	s.run(t)

	changes := s.events.actions(t, "change")
	require.Len(t, changes, 1)
	w := changes[0]["widget"].(map[string]any)
	assert.Equal(t, "rk", w["id"])
	assert.Equal(t, "Pick", w["label"])
	assert.Equal(t, map[string]any{"current": "a"}, w["values"])
}

func TestPositionalSlider(t *testing.T) {
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "slider", []any{"Level", 0, 10, 5}, nil)
	})
	s.run(t)
	slider := s.only(t, "slider")
	assert.Equal(t, 5, slider.Value())

	slider.SetValue(7)
	s.run(t)

	changes := s.events.actions(t, "change")
	require.Len(t, changes, 1)
	w := changes[0]["widget"].(map[string]any)
	assert.Equal(t, map[string]any{"current": float64(7)}, w["values"])
}

func TestSidebarElementsTracked(t *testing.T) {
	s := newSession(t, Options{}, func(_, sidebar *host.Namespace) {
		call(sidebar, "selectbox", []any{"Theme", []any{"light", "dark"}}, map[string]any{"key": "theme"})
	})
	s.run(t)
	el, ok := s.app.Element("theme")
	require.True(t, ok)
	assert.Equal(t, apptest.SidebarNamespace, el.Namespace)
	assert.Equal(t, "light", el.Value())

	el.SetValue("dark")
	s.run(t)
	changes := s.events.actions(t, "change")
	require.Len(t, changes, 1)
	assert.Equal(t, "theme", changes[0]["widget"].(map[string]any)["id"])
}

func TestPageSwitchDuringSession(t *testing.T) {
	s := newSession(t, Options{}, func(st, _ *host.Namespace) {
		call(st, "button", []any{"Go"}, nil)
	})
	s.run(t)
	s.run(t)
	s.page = "Settings"
	s.run(t)
	s.run(t)

	pages := s.events.actions(t, "start_tracking")
	require.Len(t, pages, 2)
	assert.Equal(t, "Test Page", pages[0]["page_name"])
	assert.Equal(t, "Settings", pages[1]["page_name"])
}

func TestSessionsAreIsolated(t *testing.T) {
	render := func(st, _ *host.Namespace) {
		call(st, "button", []any{"Go"}, nil)
	}
	a := newSession(t, Options{SessionID: "a"}, render)
	b := newSession(t, Options{SessionID: "b"}, render)

	a.run(t)
	b.run(t)
	a.only(t, "button").Click()
	a.run(t)
	b.run(t)

	assert.Len(t, a.events.actions(t, "click"), 1)
	assert.Empty(t, b.events.actions(t, "click"))
	for _, rec := range a.events.records(t) {
		assert.Equal(t, "a", rec["session_id"])
	}
}

func TestStopTrackingStopsEvents(t *testing.T) {
	app := apptest.New(func(st, _ *host.Namespace) {
		call(st, "button", []any{"Go"}, nil)
	})
	tr, c := newTracker(t, Host{Namespaces: []*host.Namespace{app.Main, app.Sidebar}, State: app.State}, Options{})

	tr.StartTracking("")
	require.NoError(t, app.Run())
	tr.StopTracking()
	require.NoError(t, app.Run())

	app.Elements("button")[0].Click()
	require.NoError(t, app.Run())
	assert.Empty(t, c.lines)
}
