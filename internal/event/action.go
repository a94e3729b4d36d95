package event

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned for action strings outside the known set.
var ErrInvalidAction = errors.New("invalid action kind")

// ActionKind is the category of a user interaction.
type ActionKind string

const (
	ActionStartTracking ActionKind = "start_tracking"
	ActionClick         ActionKind = "click"
	ActionChange        ActionKind = "change"
	ActionSubmit        ActionKind = "submit"
	ActionOther         ActionKind = "other"
)

var actionKinds = map[ActionKind]struct{}{
	ActionStartTracking: {},
	ActionClick:         {},
	ActionChange:        {},
	ActionSubmit:        {},
	ActionOther:         {},
}

// ParseActionKind converts s into an ActionKind. Matching is exact.
func ParseActionKind(s string) (ActionKind, error) {
	a := ActionKind(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// Valid reports whether a is one of the known action kinds.
func (a ActionKind) Valid() bool {
	_, ok := actionKinds[a]
	return ok
}

func (a ActionKind) String() string {
	return string(a)
}
