// Package widget intercepts host element-creation calls: it extracts the
// label, identity key and callback from a call, resolves a stable element
// identifier, and wraps the callback so each user action emits one event.
package widget

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"pageanalytics/internal/recipe"
)

// Extraction is the outcome of applying a recipe to one call.
type Extraction struct {
	// Args and Kwargs are what remains once the declared fields are removed.
	Args   []any
	Kwargs map[string]any
	// Fields maps every declared field name to its value, nil when absent.
	Fields map[string]any
}

// Field returns the extracted value for name.
func (e Extraction) Field(name string) any {
	return e.Fields[name]
}

// Extract pulls the recipe's fields out of copies of args and kwargs.
//
// Fields are taken in declaration order. A keyword argument wins over a
// positional one. A positional index is read against the argument list as it
// stands after earlier fields were removed, and a nil at that index, typed or
// not, counts as absent. A missing field is not an error.
func Extract(r recipe.Recipe, args []any, kwargs map[string]any) Extraction {
	ex := Extraction{
		Args:   slices.Clone(args),
		Kwargs: maps.Clone(kwargs),
		Fields: make(map[string]any, len(r.Fields)),
	}
	if ex.Kwargs == nil {
		ex.Kwargs = make(map[string]any)
	}
	for _, f := range r.Fields {
		ex.Fields[f.Name] = ex.take(f)
	}
	return ex
}

func (e *Extraction) take(f recipe.FieldSpec) any {
	if v, ok := e.Kwargs[f.Keyword]; ok {
		delete(e.Kwargs, f.Keyword)
		return v
	}
	if f.Index == nil {
		return nil
	}
	i := *f.Index
	if i >= len(e.Args) || isNil(e.Args[i]) {
		return nil
	}
	v := e.Args[i]
	e.Args = slices.Delete(e.Args, i, i+1)
	return v
}

// isNil reports whether v is nil or a typed nil func, pointer, map, slice,
// channel or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// stringValue renders an extracted field as a string; nil becomes "".
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
