// Package recipe holds the table of extraction recipes: for every host element
// type, where its label, identity key and callback sit in the call signature.
package recipe

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"pageanalytics/internal/event"
)

// Canonical field names.
const (
	FieldLabel  = "label"
	FieldKey    = "key"
	FieldAction = "action"
	FieldValue  = "value"
)

// ErrInvalidRecipe wraps every validation failure.
var ErrInvalidRecipe = errors.New("invalid recipe")

//go:embed recipes.yaml
var defaultTable []byte

// FieldSpec locates one field in a call: by keyword, or else by position.
type FieldSpec struct {
	Name    string `yaml:"name"`
	Index   *int   `yaml:"index,omitempty"`
	Keyword string `yaml:"keyword"`
}

// Recipe describes how to extract fields from one element type's call.
// Fields are processed in declaration order.
type Recipe struct {
	Element string           `yaml:"element"`
	Action  event.ActionKind `yaml:"action"`
	Fields  []FieldSpec      `yaml:"fields"`
	DocURL  string           `yaml:"doc_url,omitempty"`
}

// Field returns the spec declared under name.
func (r Recipe) Field(name string) (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// HasCallback reports whether the element type accepts a user-action callback.
func (r Recipe) HasCallback() bool {
	_, ok := r.Field(FieldAction)
	return ok
}

// Validate checks the recipe in isolation.
func (r Recipe) Validate() error {
	var errs []error
	if r.Element == "" {
		errs = append(errs, fmt.Errorf("%w: element name is empty", ErrInvalidRecipe))
	}
	if !r.Action.Valid() {
		errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidRecipe, r.Element, event.ErrInvalidAction))
	}

	names := make(map[string]bool, len(r.Fields))
	keywords := make(map[string]bool, len(r.Fields))
	indexes := make(map[int]bool, len(r.Fields))
	for _, f := range r.Fields {
		switch {
		case f.Name == "":
			errs = append(errs, fmt.Errorf("%w: %s: field without a name", ErrInvalidRecipe, r.Element))
			continue
		case f.Keyword == "":
			errs = append(errs, fmt.Errorf("%w: %s.%s: keyword is empty", ErrInvalidRecipe, r.Element, f.Name))
		}
		if names[f.Name] {
			errs = append(errs, fmt.Errorf("%w: %s: field %q declared twice", ErrInvalidRecipe, r.Element, f.Name))
		}
		names[f.Name] = true
		if f.Keyword != "" {
			if keywords[f.Keyword] {
				errs = append(errs, fmt.Errorf("%w: %s: keyword %q used twice", ErrInvalidRecipe, r.Element, f.Keyword))
			}
			keywords[f.Keyword] = true
		}
		if f.Index != nil {
			if *f.Index < 0 {
				errs = append(errs, fmt.Errorf("%w: %s.%s: negative index %d", ErrInvalidRecipe, r.Element, f.Name, *f.Index))
			} else if indexes[*f.Index] {
				errs = append(errs, fmt.Errorf("%w: %s: index %d used twice", ErrInvalidRecipe, r.Element, *f.Index))
			}
			indexes[*f.Index] = true
		}
	}
	if !names[FieldLabel] {
		errs = append(errs, fmt.Errorf("%w: %s: no %q field", ErrInvalidRecipe, r.Element, FieldLabel))
	}
	return errors.Join(errs...)
}

// Table is the full set of recipes, keyed by element name.
type Table struct {
	// HostVersion optionally records the host release the indices were taken from.
	HostVersion string   `yaml:"host_version,omitempty"`
	Recipes     []Recipe `yaml:"recipes"`
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("recipe: built-in table is invalid: %v", err))
	}
	return t
}

// Parse decodes and validates a YAML table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and validates a YAML table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipes: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Validate checks every recipe and that element names are unique.
func (t *Table) Validate() error {
	var errs []error
	if len(t.Recipes) == 0 {
		errs = append(errs, fmt.Errorf("%w: table has no recipes", ErrInvalidRecipe))
	}
	seen := make(map[string]bool, len(t.Recipes))
	for _, r := range t.Recipes {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
		if r.Element != "" && seen[r.Element] {
			errs = append(errs, fmt.Errorf("%w: element %q declared twice", ErrInvalidRecipe, r.Element))
		}
		seen[r.Element] = true
	}
	return errors.Join(errs...)
}

// Lookup returns the recipe for element.
func (t *Table) Lookup(element string) (Recipe, bool) {
	for _, r := range t.Recipes {
		if r.Element == element {
			return r, true
		}
	}
	return Recipe{}, false
}

// Names returns the element names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Recipes))
	for _, r := range t.Recipes {
		names = append(names, r.Element)
	}
	sort.Strings(names)
	return names
}
