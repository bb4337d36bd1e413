package testutil

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoprefs/prefs"
)

func TestLoadSettings(t *testing.T) {
	store, data := LoadSettings(t)

	var paths []string
	err := store.Walk(func(path []string, p prefs.Preference) error {
		paths = append(paths, strings.Join(path, "."))
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if diff := cmp.Diff(Paths, paths); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}

	p, err := store.LookupPath("editor.tab_size")
	if err != nil {
		t.Fatalf("failed to look up tab_size: %v", err)
	}
	if p != prefs.Preference(data.TabSize) {
		t.Error("expected typed handle to be the stored preference")
	}
	if v, _ := data.TabSize.Value(); v != 2 {
		t.Errorf("expected tab_size 2, got %d", v)
	}
	if len(data.Hosts) != 2 || len(data.ProfileNames) != 2 {
		t.Errorf("expected 2 hosts and 2 profiles, got %d and %d", len(data.Hosts), len(data.ProfileNames))
	}
}
