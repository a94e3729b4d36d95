// Package event defines the user-interaction records emitted by the tracker
// and their flattened JSON form.
package event

import (
	"encoding/json"
)

// Event is one user action, built right before it is logged.
type Event struct {
	SessionID string
	UserID    string
	PageName  string
	Action    ActionKind
	Element   *Element
	Extra     map[string]any
}

// New builds an event, rejecting unknown action strings.
func New(action string, element *Element, extra map[string]any) (Event, error) {
	kind, err := ParseActionKind(action)
	if err != nil {
		return Event{}, err
	}
	return Event{Action: kind, Element: element, Extra: extra}, nil
}

// WithSessionID returns a copy of e carrying id.
func (e Event) WithSessionID(id string) Event {
	e.SessionID = id
	return e
}

// WithUserID returns a copy of e carrying id.
func (e Event) WithUserID(id string) Event {
	e.UserID = id
	return e
}

// WithPageName returns a copy of e carrying name.
func (e Event) WithPageName(name string) Event {
	e.PageName = name
	return e
}

// Record flattens e into a map with empty values removed recursively.
// An action outside the known set is recorded as "other".
func (e Event) Record() map[string]any {
	action := e.Action
	if !action.Valid() {
		action = ActionOther
	}
	rec := map[string]any{
		"session_id": e.SessionID,
		"user_id":    e.UserID,
		"page_name":  e.PageName,
		"action":     string(action),
	}
	if e.Element != nil {
		rec["widget"] = e.Element.Record()
	}
	if len(e.Extra) > 0 {
		rec["extra"] = Normalize(e.Extra)
	}
	cleaned, _ := Clean(rec).(map[string]any)
	return cleaned
}

// MarshalJSON encodes the cleaned record.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Record())
}
