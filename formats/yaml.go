package formats

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// YAML writes block-style YAML with # comments and reads any YAML mapping.
var YAML = &Format{
	Name:      "yaml",
	Extension: ".yaml",
	Aliases:   []string{".yml"},
	Marshal:   marshalYAML,
	Unmarshal: unmarshalYAML,
}

func init() {
	mustRegister(YAML)
}

func yamlComment(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "# " + strings.TrimRight(line, " \t\r")
	}
	return strings.Join(out, "\n")
}

type yamlWriter struct {
	opts WriteOptions
}

func marshalYAML(s *prefs.Store, opts WriteOptions) ([]byte, error) {
	w := yamlWriter{opts: opts}
	doc := &yaml.Node{Kind: yaml.DocumentNode}
	root := w.store(s)
	if opts.Comments {
		doc.HeadComment = yamlComment(descriptionLines(s.Description()))
	}
	doc.Content = []*yaml.Node{root}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(max(2, len(opts.indent())))
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func (w yamlWriter) key(name string, comment []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
	if w.opts.Comments {
		n.HeadComment = yamlComment(comment)
	}
	return n
}

func (w yamlWriter) store(s *prefs.Store) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range s.Entries() {
		var key, value *yaml.Node
		switch e.Item.Kind() {
		case prefs.ItemPreference:
			p, _ := e.Item.Preference()
			key = w.key(e.Name, commentLines(p, w.opts))
			value = yamlScalar(valueToken(p, w.opts))
		case prefs.ItemGroup:
			g, _ := e.Item.Group()
			key = w.key(e.Name, descriptionLines(g.Description()))
			value = w.group(g)
		case prefs.ItemGroups:
			groups, _ := e.Item.Groups()
			key = w.key(e.Name, descriptionLines(e.Item.Description()))
			value = &yaml.Node{Kind: yaml.SequenceNode}
			for _, g := range groups {
				value.Content = append(value.Content, w.group(g))
			}
		case prefs.ItemStore:
			st, _ := e.Item.Store()
			key = w.key(e.Name, descriptionLines(st.Description()))
			value = w.store(st)
		case prefs.ItemStores:
			stores, _ := e.Item.Stores()
			key = w.key(e.Name, descriptionLines(e.Item.Description()))
			value = &yaml.Node{Kind: yaml.SequenceNode}
			for _, st := range stores {
				value.Content = append(value.Content, w.store(st))
			}
		default:
			continue
		}
		m.Content = append(m.Content, key, value)
	}
	return m
}

func (w yamlWriter) group(g *prefs.Group) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range g.Preferences() {
		m.Content = append(m.Content, w.key(p.Name(), commentLines(p, w.opts)), yamlScalar(valueToken(p, w.opts)))
	}
	return m
}

// yamlScalar leaves non-string scalars untagged so they are written plain and
// resolve to their natural YAML type when read back.
func yamlScalar(tok prefs.Token) *yaml.Node {
	switch tok.Kind {
	case prefs.TokenNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case prefs.TokenBool, prefs.TokenInteger, prefs.TokenFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: tok.Text}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: tok.Text}
	}
}

func unmarshalYAML(data []byte, s *prefs.Store, opts ReadOptions) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return yamlParseError(err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil
	}
	return apply("yaml", yamlNode{n: doc.Content[0]}, s, opts)
}

func yamlParseError(err error) error {
	perr := &ParseError{Format: "yaml", Message: err.Error(), Err: err}
	// yaml.v3 reports "yaml: line N: message".
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	if rest, ok := strings.CutPrefix(msg, "line "); ok {
		if num, tail, ok := strings.Cut(rest, ":"); ok {
			if line, convErr := strconv.Atoi(num); convErr == nil {
				perr.Line = line
				perr.Message = strings.TrimSpace(tail)
			}
		}
	}
	return perr
}

type yamlNode struct {
	n *yaml.Node
}

func (y yamlNode) resolved() *yaml.Node {
	n := y.n
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func (y yamlNode) kind() nodeKind {
	switch y.resolved().Kind {
	case yaml.MappingNode:
		return objectNode
	case yaml.SequenceNode:
		return arrayNode
	default:
		return scalarNode
	}
}

func (y yamlNode) token() (prefs.Token, error) {
	n := y.resolved()
	switch n.ShortTag() {
	case "!!null":
		return prefs.NullToken, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return prefs.Token{}, err
		}
		return prefs.Token{Kind: prefs.TokenBool, Text: strconv.FormatBool(b)}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return prefs.Token{Kind: prefs.TokenInteger, Text: strconv.FormatInt(i, 10)}, nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return prefs.Token{}, err
		}
		return prefs.Token{Kind: prefs.TokenInteger, Text: strconv.FormatUint(u, 10)}, nil
	case "!!float":
		if _, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return prefs.Token{Kind: prefs.TokenFloat, Text: n.Value}, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return prefs.Token{}, err
		}
		return floatToken(f), nil
	}
	return prefs.StringToken(n.Value), nil
}

// floatToken spells infinities and NaN as strings, the way value types
// encode them.
func floatToken(f float64) prefs.Token {
	switch {
	case math.IsInf(f, 1):
		return prefs.StringToken("Infinity")
	case math.IsInf(f, -1):
		return prefs.StringToken("-Infinity")
	case math.IsNaN(f):
		return prefs.StringToken("NaN")
	}
	return prefs.Token{Kind: prefs.TokenFloat, Text: strconv.FormatFloat(f, 'g', -1, 64)}
}

func (y yamlNode) entries() []entry {
	n := y.resolved()
	var out []entry
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, entry{key: n.Content[i].Value, value: yamlNode{n: n.Content[i+1]}})
	}
	return out
}

func (y yamlNode) elems() []node {
	n := y.resolved()
	out := make([]node, len(n.Content))
	for i, c := range n.Content {
		out[i] = yamlNode{n: c}
	}
	return out
}

func (y yamlNode) position() (int, int) {
	return y.n.Line, y.n.Column
}
