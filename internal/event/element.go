package event

// Values holds the value state of an element.
// Previous is tracked but never serialized.
type Values struct {
	Current  any
	Previous any
}

// Element is one UI element as seen during a single element-creation call.
type Element struct {
	ID    string
	Type  string
	Label string

	Values Values
	Extra  map[string]any
}

// UpdateValue shifts the current value into Previous and stores v.
func (e *Element) UpdateValue(v any) {
	e.Values.Previous = e.Values.Current
	e.Values.Current = v
}

// Record flattens the element into its serialized form.
func (e *Element) Record() map[string]any {
	rec := map[string]any{
		"id":    e.ID,
		"type":  e.Type,
		"label": e.Label,
		"values": map[string]any{
			"current": Normalize(e.Values.Current),
		},
	}
	if len(e.Extra) > 0 {
		rec["extra"] = Normalize(e.Extra)
	}
	return rec
}
