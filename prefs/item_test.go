package prefs_test

import (
	"errors"
	"testing"

	"github.com/arthur-debert/nanoprefs/prefs"
)

func TestStoreItemKinds(t *testing.T) {
	p := prefs.Int32("n").MustBuild()
	g := prefs.NewGroup("group")
	s := prefs.NewStore("store")

	tests := []struct {
		name string
		item prefs.StoreItem
		want prefs.ItemKind
		desc string
	}{
		{name: "preference", item: prefs.PreferenceItem(p), want: prefs.ItemPreference},
		{name: "group", item: prefs.GroupItem(g), want: prefs.ItemGroup, desc: "group"},
		{name: "groups", item: prefs.GroupsItem("servers", prefs.NewGroup("")), want: prefs.ItemGroups, desc: "servers"},
		{name: "store", item: prefs.NestedStoreItem(s), want: prefs.ItemStore, desc: "store"},
		{name: "stores", item: prefs.StoresItem("profiles", prefs.NewStore("")), want: prefs.ItemStores, desc: "profiles"},
		{name: "nil preference", item: prefs.PreferenceItem(nil), want: prefs.ItemNone},
		{name: "nil group", item: prefs.GroupItem(nil), want: prefs.ItemNone},
		{name: "nil in array", item: prefs.GroupsItem("", g, nil), want: prefs.ItemNone},
		{name: "zero", item: prefs.StoreItem{}, want: prefs.ItemNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.item.Kind() != tt.want {
				t.Errorf("expected kind %s, got %s", tt.want, tt.item.Kind())
			}
			if tt.item.Description() != tt.desc {
				t.Errorf("expected description %q, got %q", tt.desc, tt.item.Description())
			}
		})
	}
}

func TestStoreItemKindMismatch(t *testing.T) {
	item := prefs.GroupItem(prefs.NewGroup(""))

	if _, err := item.Group(); err != nil {
		t.Errorf("expected group access to succeed, got %v", err)
	}
	if _, err := item.Preference(); !errors.Is(err, prefs.ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
	if _, err := item.Store(); !errors.Is(err, prefs.ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
	if _, err := item.Groups(); !errors.Is(err, prefs.ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
	if _, err := item.Stores(); !errors.Is(err, prefs.ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}
