// Package host models a UI toolkit's element-creation functions as an explicit,
// injectable function table.
//
// Application code calls elements through a Namespace (for example "st" or
// "st.sidebar"). Instrumentation swaps the Binding stored under an element name
// and later puts the original Binding back, so call sites never change.
package host

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownElement is returned when a namespace has no binding for a name.
var ErrUnknownElement = errors.New("unknown element")

// Func is a host element-creation function. It accepts arbitrary positional
// and keyword arguments and returns whatever the element yields to the script.
type Func func(args []any, kwargs map[string]any) any

// Callback is a user-action callback as the host invokes it.
type Callback func(args []any, kwargs map[string]any) any

// StateReader returns a snapshot of host render state keyed by element identifier.
// A nil snapshot means the state container is unavailable.
type StateReader func() map[string]any

// Binding is one entry of a Namespace. Bindings are compared by pointer, so a
// restored binding is identical to the one that was replaced.
type Binding struct {
	Fn Func
	// Origin marks who installed the binding. Host-defined bindings leave it empty.
	Origin string
}

// Call invokes the bound function.
func (b *Binding) Call(args []any, kwargs map[string]any) any {
	return b.Fn(args, kwargs)
}

// Namespace is a named table of element-creation functions.
type Namespace struct {
	mu       sync.RWMutex
	name     string
	bindings map[string]*Binding
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:     name,
		bindings: make(map[string]*Binding),
	}
}

// Name returns the namespace name, e.g. "st.sidebar".
func (n *Namespace) Name() string {
	return n.name
}

// Define registers a host function under element and returns its binding.
func (n *Namespace) Define(element string, fn Func) *Binding {
	b := &Binding{Fn: fn}
	n.Bind(element, b)
	return b
}

// Lookup returns the binding currently stored under element.
func (n *Namespace) Lookup(element string) (*Binding, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.bindings[element]
	return b, ok
}

// Bind stores b under element, replacing any existing binding.
func (n *Namespace) Bind(element string, b *Binding) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bindings[element] = b
}

// Call invokes the binding stored under element.
func (n *Namespace) Call(element string, args []any, kwargs map[string]any) (any, error) {
	b, ok := n.Lookup(element)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", n.name, element, ErrUnknownElement)
	}
	return b.Call(args, kwargs), nil
}

// Names returns the bound element names in sorted order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.bindings))
	for name := range n.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
