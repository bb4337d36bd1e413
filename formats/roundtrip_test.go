package formats_test

import (
	"net/netip"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/arthur-debert/nanoprefs/formats"
	"github.com/arthur-debert/nanoprefs/testutil"
)

func TestRoundTrip(t *testing.T) {
	for _, name := range formats.List() {
		t.Run(name, func(t *testing.T) {
			format, err := formats.Get(name)
			if err != nil {
				t.Fatalf("failed to get format: %v", err)
			}

			store, data := testutil.LoadSettings(t)
			doc, err := format.Marshal(store, formats.WriteOptions{Comments: true})
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			// Scramble every value that was written, then read the document back.
			mustSet := func(err error) {
				t.Helper()
				if err != nil {
					t.Fatalf("failed to change value: %v", err)
				}
			}
			mustSet(data.Theme.SetValue("light"))
			mustSet(data.TabSize.SetValue(9))
			mustSet(data.FontSize.SetValue(20))
			mustSet(data.Hosts[0].SetValue("z.example.com"))
			mustSet(data.Bind.SetValue(netip.MustParseAddr("::1")))
			mustSet(data.Rate.SetValue(decimal.RequireFromString("3")))
			mustSet(data.ProfileNames[1].SetValue("away"))

			if err := format.Unmarshal(doc, store, formats.ReadOptions{DisallowUnknownKeys: true}); err != nil {
				t.Fatalf("failed to unmarshal:\n%s\nerror: %v", doc, err)
			}

			if v, _ := data.Theme.Value(); v != "dark" {
				t.Errorf("theme: expected dark, got %q", v)
			}
			if v, _ := data.TabSize.Value(); v != 2 {
				t.Errorf("tab_size: expected 2, got %d", v)
			}
			if v, _ := data.FontSize.Value(); v != 13.5 {
				t.Errorf("font_size: expected 13.5, got %v", v)
			}
			if v, _ := data.Hosts[0].Value(); v != "a.example.com" {
				t.Errorf("host: expected a.example.com, got %q", v)
			}
			if v, _ := data.Bind.Value(); v != netip.MustParseAddr("127.0.0.1") {
				t.Errorf("bind: expected 127.0.0.1, got %s", v)
			}
			if v, _ := data.Rate.Value(); !v.Equal(decimal.RequireFromString("2.0")) {
				t.Errorf("rate: expected 2, got %s", v)
			}
			if v, _ := data.ProfileNames[1].Value(); v != "home" {
				t.Errorf("profile: expected home, got %q", v)
			}
			if data.Language.HasValue() {
				t.Error("language: expected no value")
			}
			if v, _ := data.Timeout.EffectiveValue(); v.Seconds() != 30 {
				t.Errorf("timeout: expected default 30s, got %s", v)
			}
		})
	}
}
