// Package testutil builds the representative preference tree shared by the
// package tests.
package testutil

import (
	"net/netip"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// SettingsData provides typed access to the fixture preferences
type SettingsData struct {
	// Root level preferences
	Theme    *prefs.TypedPreference[string] // "theme": strict dark/light/solarized, default light, value dark
	Language *prefs.TypedPreference[string] // "language": default "en", no value

	// editor group
	TabSize  *prefs.TypedPreference[int32]   // "editor.tab_size": 1..16, default 4, value 2
	WordWrap *prefs.TypedPreference[bool]    // "editor.word_wrap": default true, no value
	FontSize *prefs.TypedPreference[float64] // "editor.font_size": value 13.5

	// servers array of groups
	Hosts []*prefs.TypedPreference[string] // "servers.N.host"
	Ports []*prefs.TypedPreference[uint16] // "servers.N.port", default 443

	// network nested store
	Timeout *prefs.TypedPreference[time.Duration]   // "network.timeout": default 30s
	Bind    *prefs.TypedPreference[netip.Addr]      // "network.bind": value 127.0.0.1
	Rate    *prefs.TypedPreference[decimal.Decimal] // "network.rate": sorted 1.0/2.0/3.0, strict, value 2.0

	// profiles array of stores
	ProfileNames []*prefs.TypedPreference[string] // "profiles.N.name"
}

// Paths lists every preference path in the fixture in walk order
var Paths = []string{
	"theme",
	"language",
	"editor.tab_size",
	"editor.word_wrap",
	"editor.font_size",
	"servers.0.host",
	"servers.0.port",
	"servers.1.host",
	"servers.1.port",
	"network.timeout",
	"network.bind",
	"network.rate",
	"profiles.0.name",
	"profiles.1.name",
}

// LoadSettings creates the fixture store and returns it together with typed
// handles to its preferences.
func LoadSettings(t *testing.T) (*prefs.Store, *SettingsData) {
	t.Helper()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("failed to build fixture: %v", err)
		}
	}

	data := &SettingsData{}
	var err error

	root := prefs.NewStore("Application settings")

	data.Theme, err = prefs.String("theme").
		WithDescription("Color theme").
		WithAllowedValues("dark", "light", "solarized").
		AllowOnlyDefinedValues().
		WithDefaultValue("light").
		WithValue("dark").
		Build()
	must(err)
	must(root.AddPreference(data.Theme))

	data.Language, err = prefs.String("language").WithDefaultValue("en").Build()
	must(err)
	must(root.AddPreference(data.Language))

	// editor group
	editor := prefs.NewGroup("Editor behaviour")
	data.TabSize, err = prefs.Int32("tab_size").
		WithDescription("Spaces per tab").
		WithValidityProcessor(prefs.Range(prefs.Int32Type, 1, 16)).
		WithDefaultValue(4).
		WithValue(2).
		Build()
	must(err)
	must(editor.Add(data.TabSize))

	data.WordWrap, err = prefs.Bool("word_wrap").WithDefaultValue(true).Build()
	must(err)
	must(editor.Add(data.WordWrap))

	data.FontSize, err = prefs.Float64("font_size").WithValue(13.5).Build()
	must(err)
	must(editor.Add(data.FontSize))
	must(root.Add("editor", prefs.GroupItem(editor)))

	// servers array of groups
	var servers []*prefs.Group
	for _, host := range []string{"a.example.com", "b.example.com"} {
		g := prefs.NewGroup("")
		hostPref, err := prefs.String("host").WithValue(host).Build()
		must(err)
		must(g.Add(hostPref))
		portPref, err := prefs.Uint16("port").WithDefaultValue(443).Build()
		must(err)
		must(g.Add(portPref))

		data.Hosts = append(data.Hosts, hostPref)
		data.Ports = append(data.Ports, portPref)
		servers = append(servers, g)
	}
	must(root.Add("servers", prefs.GroupsItem("Upstream servers", servers...)))

	// network nested store
	network := prefs.NewStore("Network")
	data.Timeout, err = prefs.Duration("timeout").WithDefaultValue(30 * time.Second).Build()
	must(err)
	must(network.AddPreference(data.Timeout))

	data.Bind, err = prefs.IPAddr("bind").WithValue(netip.MustParseAddr("127.0.0.1")).Build()
	must(err)
	must(network.AddPreference(data.Bind))

	data.Rate, err = prefs.Decimal("rate").
		WithAllowedValuesAndSort(
			decimal.RequireFromString("3.0"),
			decimal.RequireFromString("1.0"),
			decimal.RequireFromString("2.0"),
		).
		AllowOnlyDefinedValues().
		WithValue(decimal.RequireFromString("2.0")).
		Build()
	must(err)
	must(network.AddPreference(data.Rate))
	must(root.Add("network", prefs.NestedStoreItem(network)))

	// profiles array of stores
	var profiles []*prefs.Store
	for _, name := range []string{"work", "home"} {
		st := prefs.NewStore("")
		p, err := prefs.String("name").WithValue(name).Build()
		must(err)
		must(st.AddPreference(p))
		data.ProfileNames = append(data.ProfileNames, p)
		profiles = append(profiles, st)
	}
	must(root.Add("profiles", prefs.StoresItem("Profiles", profiles...)))

	return root, data
}
