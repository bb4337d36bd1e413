package prefs

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/arthur-debert/nanoprefs/internal/validation"
)

// Store is an insertion-ordered, name-keyed collection of items. Stores nest:
// an item may itself be a store or an array of stores, forming a strict tree.
// A preference, group or store can be attached to at most one parent at a
// time.
//
// Store is not safe for concurrent mutation.
type Store struct {
	description string
	names       []string
	items       map[string]StoreItem
	attached    bool
}

// Entry is a name/item pair in store order.
type Entry struct {
	Name string
	Item StoreItem
}

// NewStore creates an empty store.
func NewStore(description string) *Store {
	return &Store{
		description: validation.ProcessDescription(description),
		items:       make(map[string]StoreItem),
	}
}

// Description returns the store description.
func (s *Store) Description() string { return s.description }

// SetDescription replaces the store description.
func (s *Store) SetDescription(description string) {
	s.description = validation.ProcessDescription(description)
}

// Len returns the number of items.
func (s *Store) Len() int { return len(s.names) }

// Names returns the item names in insertion order.
func (s *Store) Names() []string { return slices.Clone(s.names) }

// Entries returns the items in insertion order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.names))
	for i, name := range s.names {
		out[i] = Entry{Name: name, Item: s.items[name]}
	}
	return out
}

// Contains reports whether name is present.
func (s *Store) Contains(name string) bool {
	_, ok := s.TryGetItem(name)
	return ok
}

// Add inserts item under name. It fails when the name is taken.
func (s *Store) Add(name string, item StoreItem) error {
	processed, err := s.checkInsert(name, item)
	if err != nil {
		return err
	}
	if _, exists := s.items[processed]; exists {
		return fmt.Errorf("%w: %q already exists in store", ErrDuplicateName, processed)
	}
	return s.put(processed, item)
}

// AddPreference inserts p under its own name.
func (s *Store) AddPreference(p Preference) error {
	if p == nil {
		return fmt.Errorf("%w: nil preference", ErrInvalidArgument)
	}
	return s.Add(p.Name(), PreferenceItem(p))
}

// UpdateOrAdd inserts item under name, replacing any existing item.
func (s *Store) UpdateOrAdd(name string, item StoreItem) error {
	processed, err := s.checkInsert(name, item)
	if err != nil {
		return err
	}
	if old, exists := s.items[processed]; exists {
		// Release the old payload first so the same group or store can be
		// re-inserted under its own name.
		setAttached(old, false)
		if err := s.checkOwnership(item); err != nil {
			setAttached(old, true)
			return err
		}
		s.items[processed] = item
		setAttached(item, true)
		return nil
	}
	return s.put(processed, item)
}

// Remove deletes the item under name.
func (s *Store) Remove(name string) error {
	processed, err := ProcessName(name)
	if err != nil {
		return err
	}
	item, exists := s.items[processed]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, processed)
	}
	setAttached(item, false)
	delete(s.items, processed)
	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == processed })
	return nil
}

// Get returns the item under name, or ErrNotFound.
func (s *Store) Get(name string) (StoreItem, error) {
	processed, err := ProcessName(name)
	if err != nil {
		return StoreItem{}, err
	}
	item, ok := s.items[processed]
	if !ok {
		return StoreItem{}, fmt.Errorf("%w: %q", ErrNotFound, processed)
	}
	return item, nil
}

// TryGetItem returns the item under name.
func (s *Store) TryGetItem(name string) (StoreItem, bool) {
	item, err := s.Get(name)
	return item, err == nil
}

// TryGetPreference returns the preference under name; false when missing or
// of another kind.
func (s *Store) TryGetPreference(name string) (Preference, bool) {
	item, ok := s.TryGetItem(name)
	if !ok {
		return nil, false
	}
	p, err := item.Preference()
	return p, err == nil
}

// TryGetGroup returns the group under name.
func (s *Store) TryGetGroup(name string) (*Group, bool) {
	item, ok := s.TryGetItem(name)
	if !ok {
		return nil, false
	}
	g, err := item.Group()
	return g, err == nil
}

// TryGetGroups returns the array of groups under name.
func (s *Store) TryGetGroups(name string) ([]*Group, bool) {
	item, ok := s.TryGetItem(name)
	if !ok {
		return nil, false
	}
	gs, err := item.Groups()
	return gs, err == nil
}

// TryGetStore returns the nested store under name.
func (s *Store) TryGetStore(name string) (*Store, bool) {
	item, ok := s.TryGetItem(name)
	if !ok {
		return nil, false
	}
	st, err := item.Store()
	return st, err == nil
}

// TryGetStores returns the array of stores under name.
func (s *Store) TryGetStores(name string) ([]*Store, bool) {
	item, ok := s.TryGetItem(name)
	if !ok {
		return nil, false
	}
	ss, err := item.Stores()
	return ss, err == nil
}

func (s *Store) checkInsert(name string, item StoreItem) (string, error) {
	processed, err := ProcessName(name)
	if err != nil {
		return "", err
	}
	if item.IsNone() {
		return "", fmt.Errorf("%w: cannot store an item of kind none under %q", ErrInvalidOperation, processed)
	}
	return processed, nil
}

func (s *Store) put(name string, item StoreItem) error {
	if err := s.checkOwnership(item); err != nil {
		return err
	}
	s.items[name] = item
	s.names = append(s.names, name)
	setAttached(item, true)
	return nil
}

// checkOwnership rejects payloads already owned elsewhere, arrays that hold
// the same container twice and payloads that would make the tree cyclic.
func (s *Store) checkOwnership(item StoreItem) error {
	if item.kind == ItemPreference && preferenceAttached(item.preference) {
		return fmt.Errorf("%w: preference %q is already attached to another container", ErrInvalidOperation, item.preference.Name())
	}
	groups, stores := item.containers()
	for i, g := range groups {
		if g.attached {
			return fmt.Errorf("%w: group is already attached to another store", ErrInvalidOperation)
		}
		if slices.Contains(groups[:i], g) {
			return fmt.Errorf("%w: group appears more than once in the array", ErrInvalidOperation)
		}
	}
	for i, st := range stores {
		if st == s || st.reaches(s) {
			return fmt.Errorf("%w: store cannot contain itself", ErrInvalidOperation)
		}
		if st.attached {
			return fmt.Errorf("%w: store is already attached to another store", ErrInvalidOperation)
		}
		if slices.Contains(stores[:i], st) {
			return fmt.Errorf("%w: store appears more than once in the array", ErrInvalidOperation)
		}
	}
	return nil
}

func (s *Store) reaches(target *Store) bool {
	for _, item := range s.items {
		_, stores := item.containers()
		for _, st := range stores {
			if st == target || st.reaches(target) {
				return true
			}
		}
	}
	return false
}

func setAttached(item StoreItem, attached bool) {
	if item.kind == ItemPreference {
		markPreference(item.preference, attached)
	}
	groups, stores := item.containers()
	for _, g := range groups {
		g.attached = attached
	}
	for _, st := range stores {
		st.attached = attached
	}
}

// LookupPath resolves a dot separated path such as "editor.tab_size" or
// "servers.0.host". Array elements are addressed by index.
func (s *Store) LookupPath(path string) (Preference, error) {
	return s.Lookup(strings.Split(path, ".")...)
}

// Lookup resolves a path of names through nested stores, groups and arrays
// to a preference.
func (s *Store) Lookup(path ...string) (Preference, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}

	item, err := s.Get(path[0])
	if err != nil {
		return nil, err
	}
	rest := path[1:]

	switch item.kind {
	case ItemPreference:
		if len(rest) > 0 {
			return nil, fmt.Errorf("%w: %q is a preference and has no children", ErrNotFound, path[0])
		}
		return item.preference, nil
	case ItemGroup:
		return lookupInGroup(item.group, path[0], rest)
	case ItemStore:
		if len(rest) == 0 {
			return nil, item.mismatch(ItemPreference)
		}
		return item.store.Lookup(rest...)
	case ItemGroups:
		idx, err := arrayIndex(path[0], rest, len(item.groups))
		if err != nil {
			return nil, err
		}
		return lookupInGroup(item.groups[idx], path[0], rest[1:])
	case ItemStores:
		idx, err := arrayIndex(path[0], rest, len(item.stores))
		if err != nil {
			return nil, err
		}
		if len(rest) < 2 {
			return nil, item.mismatch(ItemPreference)
		}
		return item.stores[idx].Lookup(rest[1:]...)
	}
	return nil, item.mismatch(ItemPreference)
}

func lookupInGroup(g *Group, name string, rest []string) (Preference, error) {
	if len(rest) != 1 {
		return nil, fmt.Errorf("%w: group %q needs exactly one preference name in path", ErrNotFound, name)
	}
	return g.Get(rest[0])
}

func arrayIndex(name string, rest []string, n int) (int, error) {
	if len(rest) == 0 {
		return 0, fmt.Errorf("%w: %q is an array and needs an index", ErrNotFound, name)
	}
	idx, err := strconv.Atoi(rest[0])
	if err != nil || idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: index %q out of range for %q (len %d)", ErrNotFound, rest[0], name, n)
	}
	return idx, nil
}

// Walk calls fn for every preference in the tree, depth first in store
// order, with the path leading to it. Array elements contribute their index.
func (s *Store) Walk(fn func(path []string, p Preference) error) error {
	return s.walk(nil, fn)
}

func (s *Store) walk(prefix []string, fn func([]string, Preference) error) error {
	for _, name := range s.names {
		item := s.items[name]
		path := append(slices.Clone(prefix), name)
		switch item.kind {
		case ItemPreference:
			if err := fn(path, item.preference); err != nil {
				return err
			}
		case ItemGroup:
			if err := item.group.walk(path, fn); err != nil {
				return err
			}
		case ItemGroups:
			for i, g := range item.groups {
				if err := g.walk(append(slices.Clone(path), strconv.Itoa(i)), fn); err != nil {
					return err
				}
			}
		case ItemStore:
			if err := item.store.walk(path, fn); err != nil {
				return err
			}
		case ItemStores:
			for i, st := range item.stores {
				if err := st.walk(append(slices.Clone(path), strconv.Itoa(i)), fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
