package formats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// JSON is plain JSON without comments. The document is assembled key by key
// and then pretty-printed.
var JSON = &Format{
	Name:      "json",
	Extension: ".json",
	Marshal:   marshalJSON,
	Unmarshal: func(data []byte, s *prefs.Store, opts ReadOptions) error {
		return unmarshalJSON("json", data, s, opts)
	},
}

func init() {
	mustRegister(JSON)
}

func marshalJSON(s *prefs.Store, opts WriteOptions) ([]byte, error) {
	b := &jsonBuilder{doc: []byte("{}"), opts: opts}
	b.store("", s)
	if b.err != nil {
		return nil, b.err
	}
	return pretty.PrettyOptions(b.doc, &pretty.Options{
		Width:  80,
		Indent: opts.indent(),
	}), nil
}

type jsonBuilder struct {
	doc  []byte
	opts WriteOptions
	err  error
}

func (b *jsonBuilder) set(path string, raw string) {
	if b.err != nil {
		return
	}
	doc, err := sjson.SetRawBytes(b.doc, path, []byte(raw))
	if err != nil {
		b.err = fmt.Errorf("json: setting %s: %w", path, err)
		return
	}
	b.doc = doc
}

// escapeKey escapes the characters sjson treats as path syntax.
func escapeKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', ':', '!':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func (b *jsonBuilder) store(prefix string, s *prefs.Store) {
	for _, e := range s.Entries() {
		path := join(prefix, escapeKey(e.Name))
		switch e.Item.Kind() {
		case prefs.ItemPreference:
			p, _ := e.Item.Preference()
			b.set(path, literal(valueToken(p, b.opts)))
		case prefs.ItemGroup:
			g, _ := e.Item.Group()
			b.set(path, "{}")
			b.group(path, g)
		case prefs.ItemGroups:
			groups, _ := e.Item.Groups()
			b.set(path, "[]")
			for i, g := range groups {
				b.set(path+".-1", "{}")
				b.group(join(path, strconv.Itoa(i)), g)
			}
		case prefs.ItemStore:
			st, _ := e.Item.Store()
			b.set(path, "{}")
			b.store(path, st)
		case prefs.ItemStores:
			stores, _ := e.Item.Stores()
			b.set(path, "[]")
			for i, st := range stores {
				b.set(path+".-1", "{}")
				b.store(join(path, strconv.Itoa(i)), st)
			}
		}
	}
}

func (b *jsonBuilder) group(prefix string, g *prefs.Group) {
	for _, p := range g.Preferences() {
		b.set(join(prefix, escapeKey(p.Name())), literal(valueToken(p, b.opts)))
	}
}
