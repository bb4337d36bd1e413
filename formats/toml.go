package formats

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// TOML maps stores and groups to tables and arrays to arrays of tables. TOML
// has no null, so preferences without a value are omitted, and keys are
// written in sorted order without comments.
var TOML = &Format{
	Name:      "toml",
	Extension: ".toml",
	Marshal:   marshalTOML,
	Unmarshal: unmarshalTOML,
}

func init() {
	mustRegister(TOML)
}

func marshalTOML(s *prefs.Store, opts WriteOptions) ([]byte, error) {
	tree := tomlStore(s, opts)

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentSymbol(opts.indent())
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return buf.Bytes(), nil
}

func tomlStore(s *prefs.Store, opts WriteOptions) map[string]any {
	out := make(map[string]any)
	for _, e := range s.Entries() {
		switch e.Item.Kind() {
		case prefs.ItemPreference:
			p, _ := e.Item.Preference()
			if v, ok := tomlValue(valueToken(p, opts)); ok {
				out[e.Name] = v
			}
		case prefs.ItemGroup:
			g, _ := e.Item.Group()
			out[e.Name] = tomlGroup(g, opts)
		case prefs.ItemGroups:
			groups, _ := e.Item.Groups()
			tables := make([]map[string]any, len(groups))
			for i, g := range groups {
				tables[i] = tomlGroup(g, opts)
			}
			out[e.Name] = tables
		case prefs.ItemStore:
			st, _ := e.Item.Store()
			out[e.Name] = tomlStore(st, opts)
		case prefs.ItemStores:
			stores, _ := e.Item.Stores()
			tables := make([]map[string]any, len(stores))
			for i, st := range stores {
				tables[i] = tomlStore(st, opts)
			}
			out[e.Name] = tables
		}
	}
	return out
}

func tomlGroup(g *prefs.Group, opts WriteOptions) map[string]any {
	out := make(map[string]any)
	for _, p := range g.Preferences() {
		if v, ok := tomlValue(valueToken(p, opts)); ok {
			out[p.Name()] = v
		}
	}
	return out
}

// tomlValue converts a token to a TOML-encodable value. Integers beyond
// int64 are written as strings.
func tomlValue(tok prefs.Token) (any, bool) {
	switch tok.Kind {
	case prefs.TokenNull:
		return nil, false
	case prefs.TokenBool:
		return tok.Text == "true", true
	case prefs.TokenInteger:
		if i, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
			return i, true
		}
		return tok.Text, true
	case prefs.TokenFloat:
		if f, err := strconv.ParseFloat(tok.Text, 64); err == nil {
			return f, true
		}
		return tok.Text, true
	default:
		return tok.Text, true
	}
}

func unmarshalTOML(data []byte, s *prefs.Store, opts ReadOptions) error {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		perr := &ParseError{Format: "toml", Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return perr
	}
	if tree == nil {
		return nil
	}
	return apply("toml", tomlNode{v: tree}, s, opts)
}

type tomlNode struct {
	v any
}

func (n tomlNode) kind() nodeKind {
	switch n.v.(type) {
	case map[string]any:
		return objectNode
	case []any, []map[string]any:
		return arrayNode
	default:
		return scalarNode
	}
}

func (n tomlNode) token() (prefs.Token, error) {
	switch v := n.v.(type) {
	case nil:
		return prefs.NullToken, nil
	case bool:
		return prefs.Token{Kind: prefs.TokenBool, Text: strconv.FormatBool(v)}, nil
	case int64:
		return prefs.Token{Kind: prefs.TokenInteger, Text: strconv.FormatInt(v, 10)}, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return floatToken(v), nil
		}
		return prefs.Token{Kind: prefs.TokenFloat, Text: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case string:
		return prefs.StringToken(v), nil
	case fmt.Stringer:
		return prefs.StringToken(v.String()), nil
	}
	return prefs.StringToken(fmt.Sprint(n.v)), nil
}

func (n tomlNode) entries() []entry {
	m, _ := n.v.(map[string]any)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]entry, len(keys))
	for i, k := range keys {
		out[i] = entry{key: k, value: tomlNode{v: m[k]}}
	}
	return out
}

func (n tomlNode) elems() []node {
	var out []node
	switch v := n.v.(type) {
	case []any:
		for _, el := range v {
			out = append(out, tomlNode{v: el})
		}
	case []map[string]any:
		for _, el := range v {
			out = append(out, tomlNode{v: el})
		}
	}
	return out
}

func (n tomlNode) position() (int, int) {
	return 0, 0
}
