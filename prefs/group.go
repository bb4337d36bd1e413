package prefs

import (
	"fmt"
	"slices"

	"github.com/arthur-debert/nanoprefs/internal/validation"
)

// Group is a flat, insertion-ordered collection of preferences. A group made
// by a Binder remembers the struct it was derived from and can copy values
// between that struct type and its preferences on demand; it never syncs on
// its own.
//
// Group is not safe for concurrent mutation.
type Group struct {
	description string
	names       []string
	prefs       map[string]Preference
	binding     *binding
	attached    bool
}

// NewGroup creates an empty group.
func NewGroup(description string) *Group {
	return &Group{
		description: validation.ProcessDescription(description),
		prefs:       make(map[string]Preference),
	}
}

// Description returns the group description.
func (g *Group) Description() string { return g.description }

// SetDescription replaces the group description.
func (g *Group) SetDescription(description string) {
	g.description = validation.ProcessDescription(description)
}

// Len returns the number of preferences.
func (g *Group) Len() int { return len(g.names) }

// Names returns preference names in insertion order.
func (g *Group) Names() []string { return slices.Clone(g.names) }

// Preferences returns the preferences in insertion order.
func (g *Group) Preferences() []Preference {
	out := make([]Preference, len(g.names))
	for i, name := range g.names {
		out[i] = g.prefs[name]
	}
	return out
}

// Add inserts p under its name; duplicates are rejected.
func (g *Group) Add(p Preference) error {
	if p == nil {
		return fmt.Errorf("%w: nil preference", ErrInvalidArgument)
	}
	name, err := ProcessName(p.Name())
	if err != nil {
		return err
	}
	if _, exists := g.prefs[name]; exists {
		return fmt.Errorf("%w: %q already exists in group", ErrDuplicateName, name)
	}
	if preferenceAttached(p) {
		return fmt.Errorf("%w: preference %q is already attached to another container", ErrInvalidOperation, name)
	}
	g.prefs[name] = p
	g.names = append(g.names, name)
	markPreference(p, true)
	return nil
}

// UpdateOrAdd inserts p, replacing a preference with the same name.
func (g *Group) UpdateOrAdd(p Preference) error {
	if p == nil {
		return fmt.Errorf("%w: nil preference", ErrInvalidArgument)
	}
	name, err := ProcessName(p.Name())
	if err != nil {
		return err
	}
	old, exists := g.prefs[name]
	if exists && old == p {
		return nil
	}
	if preferenceAttached(p) {
		return fmt.Errorf("%w: preference %q is already attached to another container", ErrInvalidOperation, name)
	}
	if exists {
		markPreference(old, false)
	} else {
		g.names = append(g.names, name)
	}
	g.prefs[name] = p
	markPreference(p, true)
	return nil
}

// Remove deletes the preference under name.
func (g *Group) Remove(name string) error {
	processed, err := ProcessName(name)
	if err != nil {
		return err
	}
	p, exists := g.prefs[processed]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, processed)
	}
	markPreference(p, false)
	delete(g.prefs, processed)
	g.names = slices.DeleteFunc(g.names, func(n string) bool { return n == processed })
	return nil
}

// Get returns the preference under name, or ErrNotFound.
func (g *Group) Get(name string) (Preference, error) {
	processed, err := ProcessName(name)
	if err != nil {
		return nil, err
	}
	p, ok := g.prefs[processed]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, processed)
	}
	return p, nil
}

// TryGet returns the preference under name.
func (g *Group) TryGet(name string) (Preference, bool) {
	p, err := g.Get(name)
	return p, err == nil
}

// Contains reports whether name is present.
func (g *Group) Contains(name string) bool {
	_, ok := g.TryGet(name)
	return ok
}

// FieldName returns the struct field a preference was bound from.
func (g *Group) FieldName(name string) (string, bool) {
	if g.binding == nil {
		return "", false
	}
	processed, err := ProcessName(name)
	if err != nil {
		return "", false
	}
	for _, f := range g.binding.fields {
		if f.prefName == processed {
			return f.fieldName, true
		}
	}
	return "", false
}

// UpdateValuesFrom copies the bound struct fields of obj into the
// preferences, running each value through its pipeline. obj must be the
// struct type (or a pointer to it) the group was bound from. All fields are
// attempted; failures are joined.
func (g *Group) UpdateValuesFrom(obj any) error {
	if g.binding == nil {
		return fmt.Errorf("%w: group is not bound to a struct", ErrInvalidOperation)
	}
	return g.binding.readFrom(g, obj)
}

// UpdateValuesTo copies the preferences' values into the bound struct fields
// of obj, which must be a pointer to the bound struct type. A null value
// writes the default; when both are null pointer fields are set to nil and
// other fields are left unchanged.
func (g *Group) UpdateValuesTo(obj any) error {
	if g.binding == nil {
		return fmt.Errorf("%w: group is not bound to a struct", ErrInvalidOperation)
	}
	return g.binding.writeTo(g, obj)
}

func (g *Group) walk(prefix []string, fn func([]string, Preference) error) error {
	for _, name := range g.names {
		if err := fn(append(slices.Clone(prefix), name), g.prefs[name]); err != nil {
			return err
		}
	}
	return nil
}
