package prefs

import (
	"fmt"
	"slices"
)

// ItemKind discriminates the payload of a StoreItem.
type ItemKind uint8

const (
	// ItemNone marks the zero StoreItem. It is never stored.
	ItemNone ItemKind = iota
	ItemPreference
	ItemGroup
	ItemGroups
	ItemStore
	ItemStores
)

// String returns the kind name.
func (k ItemKind) String() string {
	switch k {
	case ItemPreference:
		return "preference"
	case ItemGroup:
		return "group"
	case ItemGroups:
		return "array of groups"
	case ItemStore:
		return "store"
	case ItemStores:
		return "array of stores"
	default:
		return "none"
	}
}

// StoreItem is the value type of a Store entry: exactly one of a
// preference, a group, an array of groups, a store or an array of stores.
// The zero StoreItem has kind ItemNone and is rejected by every store.
type StoreItem struct {
	kind        ItemKind
	description string
	preference  Preference
	group       *Group
	groups      []*Group
	store       *Store
	stores      []*Store
}

// PreferenceItem wraps a preference. A nil preference yields a none item.
func PreferenceItem(p Preference) StoreItem {
	if p == nil {
		return StoreItem{}
	}
	return StoreItem{kind: ItemPreference, preference: p}
}

// GroupItem wraps a group.
func GroupItem(g *Group) StoreItem {
	if g == nil {
		return StoreItem{}
	}
	return StoreItem{kind: ItemGroup, group: g}
}

// GroupsItem wraps an array of groups. Arrays carry their own description.
func GroupsItem(description string, groups ...*Group) StoreItem {
	if slices.Contains(groups, nil) {
		return StoreItem{}
	}
	return StoreItem{kind: ItemGroups, description: description, groups: slices.Clone(groups)}
}

// NestedStoreItem wraps a store.
func NestedStoreItem(s *Store) StoreItem {
	if s == nil {
		return StoreItem{}
	}
	return StoreItem{kind: ItemStore, store: s}
}

// StoresItem wraps an array of stores.
func StoresItem(description string, stores ...*Store) StoreItem {
	if slices.Contains(stores, nil) {
		return StoreItem{}
	}
	return StoreItem{kind: ItemStores, description: description, stores: slices.Clone(stores)}
}

// Kind returns the payload kind.
func (i StoreItem) Kind() ItemKind { return i.kind }

// IsNone reports whether the item is the zero item.
func (i StoreItem) IsNone() bool { return i.kind == ItemNone }

// Description returns the description of the payload. Arrays return the
// description given at construction.
func (i StoreItem) Description() string {
	switch i.kind {
	case ItemPreference:
		return i.preference.Description()
	case ItemGroup:
		return i.group.Description()
	case ItemStore:
		return i.store.Description()
	default:
		return i.description
	}
}

func (i StoreItem) mismatch(want ItemKind) error {
	return fmt.Errorf("%w: item is %s, not %s", ErrKindMismatch, i.kind, want)
}

// Preference returns the wrapped preference.
func (i StoreItem) Preference() (Preference, error) {
	if i.kind != ItemPreference {
		return nil, i.mismatch(ItemPreference)
	}
	return i.preference, nil
}

// Group returns the wrapped group.
func (i StoreItem) Group() (*Group, error) {
	if i.kind != ItemGroup {
		return nil, i.mismatch(ItemGroup)
	}
	return i.group, nil
}

// Groups returns the wrapped groups.
func (i StoreItem) Groups() ([]*Group, error) {
	if i.kind != ItemGroups {
		return nil, i.mismatch(ItemGroups)
	}
	return slices.Clone(i.groups), nil
}

// Store returns the wrapped store.
func (i StoreItem) Store() (*Store, error) {
	if i.kind != ItemStore {
		return nil, i.mismatch(ItemStore)
	}
	return i.store, nil
}

// Stores returns the wrapped stores.
func (i StoreItem) Stores() ([]*Store, error) {
	if i.kind != ItemStores {
		return nil, i.mismatch(ItemStores)
	}
	return slices.Clone(i.stores), nil
}

// containers returns every group and store directly owned by the item.
func (i StoreItem) containers() ([]*Group, []*Store) {
	switch i.kind {
	case ItemGroup:
		return []*Group{i.group}, nil
	case ItemGroups:
		return i.groups, nil
	case ItemStore:
		return nil, []*Store{i.store}
	case ItemStores:
		return nil, i.stores
	}
	return nil, nil
}
