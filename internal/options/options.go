// Package options implements the typed, scoped key/value tree that
// configures server, session, window, and pane behavior at runtime,
// distinct from the static startup file in internal/config: options can
// change while the server is running and are looked up most-specific
// scope first.
package options

import "fmt"

// Scope identifies where in the entity hierarchy an option value lives.
type Scope int

const (
	ScopeGlobalServer Scope = iota
	ScopeGlobalSession
	ScopeSession
	ScopeGlobalWindow
	ScopeWindow
	ScopePane
)

// Kind is the value type of an option.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindFlag
	KindColor
	KindKeyCode
	KindChoice
	KindArray
)

// Value holds one option's typed payload.
type Value struct {
	Kind    Kind
	String  string
	Number  int64
	Flag    bool
	Choices []string // valid values when Kind == KindChoice; String holds the selected one
	Array   []string
}

// Spec describes a known option: its kind and default value, used both
// for validation and to seed the global-server scope from config.
type Spec struct {
	Name    string
	Kind    Kind
	Default Value
}

// Table is one scope's worth of option values, keyed by name.
type Table map[string]Value

// Tree resolves option lookups across the scope chain for one entity,
// falling back from the most specific scope (e.g. pane) up to
// global-server, matching tmux's option inheritance.
type Tree struct {
	specs  map[string]Spec
	scopes []Table // ordered most-specific-first
}

// NewTree builds a lookup chain over the given scope tables, ordered
// from most specific (index 0) to least specific (global-server last).
func NewTree(specs map[string]Spec, scopes ...Table) *Tree {
	return &Tree{specs: specs, scopes: scopes}
}

// Get resolves name through the scope chain, then the registered
// default, returning false if name is unknown anywhere.
func (t *Tree) Get(name string) (Value, bool) {
	for _, s := range t.scopes {
		if v, ok := s[name]; ok {
			return v, true
		}
	}
	if spec, ok := t.specs[name]; ok {
		return spec.Default, true
	}
	return Value{}, false
}

func (t *Tree) String(name string) string {
	v, _ := t.Get(name)
	return v.String
}

func (t *Tree) Number(name string) int64 {
	v, _ := t.Get(name)
	return v.Number
}

func (t *Tree) Flag(name string) bool {
	v, _ := t.Get(name)
	return v.Flag
}

// Set assigns name within scope's table, validating against the
// registered spec's kind and (for KindChoice) its allowed values.
func Set(specs map[string]Spec, scope Table, name string, v Value) error {
	spec, ok := specs[name]
	if !ok {
		return fmt.Errorf("options: unknown option %q", name)
	}
	if spec.Kind != v.Kind {
		return fmt.Errorf("options: %q expects %v, got %v", name, spec.Kind, v.Kind)
	}
	if spec.Kind == KindChoice {
		valid := false
		for _, c := range spec.Default.Choices {
			if c == v.String {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("options: %q: invalid choice %q", name, v.String)
		}
	}
	scope[name] = v
	return nil
}

// Unset removes name from scope's table, letting lookups fall back to a
// less-specific scope or the default.
func Unset(scope Table, name string) {
	delete(scope, name)
}
