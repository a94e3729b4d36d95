// Package tracker installs event-logging interceptors over a host's element
// functions and emits one structured record per user action.
//
// A Tracker belongs to one session. It is not safe for concurrent use; hosts
// serving several sessions construct one Tracker per session.
package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"pageanalytics/internal/event"
	"pageanalytics/internal/host"
	"pageanalytics/internal/logging"
	"pageanalytics/internal/recipe"
	"pageanalytics/internal/sink"
	"pageanalytics/internal/widget"
)

// ErrNotEvent is returned by LogEvent for anything that is not an event.
var ErrNotEvent = errors.New("expected event.Event")

// ErrInvalidLevel is returned by New for event levels outside debug to error.
var ErrInvalidLevel = errors.New("invalid event level")

const (
	DefaultName      = "pageanalytics"
	DefaultSessionID = "unknown"
	DefaultUserID    = "unknown"
)

// Host is what a Tracker instruments.
type Host struct {
	// Namespaces are patched in order, e.g. the primary namespace then the sidebar.
	Namespaces []*host.Namespace
	// State reads element values for change events. May be nil.
	State host.StateReader
	// Version optionally names the host release, checked against the recipe table.
	Version string
}

// Options configure a Tracker. Zero values select the defaults.
type Options struct {
	Name      string
	SessionID string
	UserID    string
	// LogLevel is the severity every event is written at, debug through error.
	// Defaults to info.
	LogLevel zapcore.Level
	// Sink receives the events. Defaults to a zap logger on stdout named Name.
	Sink                sink.Sink
	MaskTextInputValues bool
	MaskAllValues       bool
	// Recipes defaults to the built-in table.
	Recipes *recipe.Table
}

type installKey struct {
	namespace string
	element   string
}

// Tracker is the instrumentation controller for one session.
type Tracker struct {
	name      string
	sessionID string
	userID    string
	level     zapcore.Level
	sink      sink.Sink
	masking   widget.Masking
	recipes   *recipe.Table
	host      Host

	namespaces map[string]*host.Namespace
	originals  map[installKey]*host.Binding
	lastPage   string
}

// New creates an uninstalled Tracker.
func New(h Host, opts Options) (*Tracker, error) {
	if opts.LogLevel < zapcore.DebugLevel || opts.LogLevel > zapcore.ErrorLevel {
		return nil, fmt.Errorf("%w: %s (allowed: debug, info, warn, error)", ErrInvalidLevel, opts.LogLevel)
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.SessionID == "" {
		opts.SessionID = DefaultSessionID
	}
	if opts.UserID == "" {
		opts.UserID = DefaultUserID
	}
	if opts.Recipes == nil {
		opts.Recipes = recipe.Default()
	}
	if opts.Sink == nil {
		s, err := sink.NewDefault(opts.Name, opts.LogLevel)
		if err != nil {
			return nil, err
		}
		opts.Sink = s
	}

	namespaces := make(map[string]*host.Namespace, len(h.Namespaces))
	for _, ns := range h.Namespaces {
		namespaces[ns.Name()] = ns
	}

	if h.Version != "" && opts.Recipes.HostVersion != "" && h.Version != opts.Recipes.HostVersion {
		logging.Get(logging.CategoryTracker).Warn("recipes were written for host %s, running on %s: positional extraction may be misattributed",
			opts.Recipes.HostVersion, h.Version)
	}

	return &Tracker{
		name:      opts.Name,
		sessionID: opts.SessionID,
		userID:    opts.UserID,
		level:     opts.LogLevel,
		sink:      opts.Sink,
		masking: widget.Masking{
			TextInputs: opts.MaskTextInputValues,
			All:        opts.MaskAllValues,
		},
		recipes:    opts.Recipes,
		host:       h,
		namespaces: namespaces,
		originals:  make(map[installKey]*host.Binding),
	}, nil
}

// StartTracking installs the interceptors; calling it again is a no-op for
// every function already intercepted. A non-blank page different from the
// last one seen emits a start_tracking event. Page comparison is exact.
func (t *Tracker) StartTracking(page string) {
	t.install()
	t.trackPage(page)
}

// StopTracking restores every intercepted function.
func (t *Tracker) StopTracking() {
	for key, original := range t.originals {
		ns, ok := t.namespaces[key.namespace]
		if !ok {
			continue
		}
		ns.Bind(key.element, original)
		logging.TrackerDebug("Restored %s.%s", key.namespace, key.element)
	}
	clear(t.originals)
}

// Track runs fn with tracking started and always stops tracking afterwards.
func (t *Tracker) Track(page string, fn func()) {
	t.StartTracking(page)
	defer t.StopTracking()
	fn()
}

// Name returns the tracker's name.
func (t *Tracker) Name() string {
	return t.name
}

// IsInstalled reports whether any interceptor is currently installed.
func (t *Tracker) IsInstalled() bool {
	return len(t.originals) > 0
}

// SetUserID changes the user id stamped on subsequent events.
func (t *Tracker) SetUserID(id string) {
	t.userID = id
}

// SetSessionID changes the session id stamped on subsequent events.
func (t *Tracker) SetSessionID(id string) {
	t.sessionID = id
}

// UserID returns the current user id.
func (t *Tracker) UserID() string {
	return t.userID
}

// SessionID returns the current session id.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// LogEvent stamps the session and user ids onto a copy of v and writes it to
// the sink. v must be an event.Event or a non-nil *event.Event.
func (t *Tracker) LogEvent(v any) error {
	switch ev := v.(type) {
	case event.Event:
		t.emit(ev)
	case *event.Event:
		if ev == nil {
			return fmt.Errorf("%w, got nil %T", ErrNotEvent, v)
		}
		t.emit(*ev)
	default:
		return fmt.Errorf("%w, got %T", ErrNotEvent, v)
	}
	return nil
}

// emit stamps the session identity, and the last tracked page when the event
// names none, then writes the event.
func (t *Tracker) emit(ev event.Event) {
	ev = ev.WithSessionID(t.sessionID).WithUserID(t.userID)
	if ev.PageName == "" && t.lastPage != "" {
		ev = ev.WithPageName(t.lastPage)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Get(logging.CategoryTracker).Warn("dropping %s event: %v", ev.Action, err)
		return
	}
	t.sink.Log(t.level, string(data))
}

func (t *Tracker) install() {
	for _, r := range t.recipes.Recipes {
		for _, ns := range t.host.Namespaces {
			current, ok := ns.Lookup(r.Element)
			if !ok {
				continue
			}
			if current.Origin == widget.Origin {
				// don't rewrap
				continue
			}
			ic := widget.NewInterceptor(r, current, t.emit, t.host.State, t.masking)
			t.originals[installKey{namespace: ns.Name(), element: r.Element}] = current
			ns.Bind(r.Element, ic.Binding())
			logging.TrackerDebug("Wrapped %s.%s", ns.Name(), r.Element)
		}
	}
}

func (t *Tracker) trackPage(page string) {
	if strings.TrimSpace(page) == "" || page == t.lastPage {
		return
	}
	t.lastPage = page
	logging.Tracker("page %q viewed in session %s", page, t.sessionID)
	t.emit(event.Event{
		Action:   event.ActionStartTracking,
		PageName: page,
		Extra:    map[string]any{"page_name": page},
	})
}
