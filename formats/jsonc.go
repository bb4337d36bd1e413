package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// JSONC is JSON with comments. Descriptions, defaults and allowed values are
// written as // comments above each entry; the reader accepts // and /* */
// comments and trailing commas.
var JSONC = &Format{
	Name:      "jsonc",
	Extension: ".jsonc",
	Marshal:   marshalJSONC,
	Unmarshal: func(data []byte, s *prefs.Store, opts ReadOptions) error {
		return unmarshalJSON("jsonc", data, s, opts)
	},
}

func init() {
	mustRegister(JSONC)
}

type jsoncWriter struct {
	buf    bytes.Buffer
	opts   WriteOptions
	indent string
}

func marshalJSONC(s *prefs.Store, opts WriteOptions) ([]byte, error) {
	w := &jsoncWriter{opts: opts, indent: opts.indent()}
	if opts.Comments {
		w.comments(0, descriptionLines(s.Description()))
	}
	w.store(s, 0)
	w.buf.WriteByte('\n')
	return w.buf.Bytes(), nil
}

func (w *jsoncWriter) pad(depth int) {
	w.buf.WriteString(strings.Repeat(w.indent, depth))
}

func (w *jsoncWriter) comments(depth int, lines []string) {
	if !w.opts.Comments {
		return
	}
	for _, line := range lines {
		w.pad(depth)
		w.buf.WriteString("// ")
		w.buf.WriteString(strings.TrimRight(line, " \t\r"))
		w.buf.WriteByte('\n')
	}
}

// object writes "{", one member per call of each, and "}". The opening brace
// continues the current line.
func (w *jsoncWriter) object(depth int, n int, each func(i int)) {
	if n == 0 {
		w.buf.WriteString("{}")
		return
	}
	w.buf.WriteString("{\n")
	for i := 0; i < n; i++ {
		each(i)
		if i < n-1 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteByte('\n')
	}
	w.pad(depth)
	w.buf.WriteByte('}')
}

func (w *jsoncWriter) array(depth int, n int, each func(i int)) {
	if n == 0 {
		w.buf.WriteString("[]")
		return
	}
	w.buf.WriteString("[\n")
	for i := 0; i < n; i++ {
		w.pad(depth + 1)
		each(i)
		if i < n-1 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteByte('\n')
	}
	w.pad(depth)
	w.buf.WriteByte(']')
}

func (w *jsoncWriter) key(depth int, name string) {
	w.pad(depth)
	w.buf.WriteString(quote(name))
	w.buf.WriteString(": ")
}

func (w *jsoncWriter) store(s *prefs.Store, depth int) {
	entries := s.Entries()
	w.object(depth, len(entries), func(i int) {
		e := entries[i]
		w.item(e.Name, e.Item, depth+1)
	})
}

func (w *jsoncWriter) item(name string, item prefs.StoreItem, depth int) {
	switch item.Kind() {
	case prefs.ItemPreference:
		p, _ := item.Preference()
		w.comments(depth, commentLines(p, w.opts))
		w.key(depth, name)
		w.buf.WriteString(literal(valueToken(p, w.opts)))
	case prefs.ItemGroup:
		g, _ := item.Group()
		w.comments(depth, descriptionLines(g.Description()))
		w.key(depth, name)
		w.group(g, depth)
	case prefs.ItemGroups:
		groups, _ := item.Groups()
		w.comments(depth, descriptionLines(item.Description()))
		w.key(depth, name)
		w.array(depth, len(groups), func(i int) { w.group(groups[i], depth+1) })
	case prefs.ItemStore:
		st, _ := item.Store()
		w.comments(depth, descriptionLines(st.Description()))
		w.key(depth, name)
		w.store(st, depth)
	case prefs.ItemStores:
		stores, _ := item.Stores()
		w.comments(depth, descriptionLines(item.Description()))
		w.key(depth, name)
		w.array(depth, len(stores), func(i int) { w.store(stores[i], depth+1) })
	}
}

func (w *jsoncWriter) group(g *prefs.Group, depth int) {
	list := g.Preferences()
	w.object(depth, len(list), func(i int) {
		p := list[i]
		w.comments(depth+1, commentLines(p, w.opts))
		w.key(depth+1, p.Name())
		w.buf.WriteString(literal(valueToken(p, w.opts)))
	})
}

// unmarshalJSON reads JSON or JSONC. Comments and trailing commas are blanked
// out, which keeps byte offsets (and so line numbers) intact.
func unmarshalJSON(format string, data []byte, s *prefs.Store, opts ReadOptions) error {
	src := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(src)) == 0 {
		return nil
	}
	if err := checkSyntax(format, src); err != nil {
		return err
	}
	return apply(format, jsonNode{r: gjson.ParseBytes(src), src: src}, s, opts)
}

func checkSyntax(format string, src []byte) error {
	if gjson.ValidBytes(src) {
		return nil
	}
	perr := &ParseError{Format: format, Message: "invalid JSON"}
	var v any
	err := json.Unmarshal(src, &v)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		perr.Line, perr.Column = lineCol(src, int(syntaxErr.Offset))
		perr.Message = syntaxErr.Error()
		perr.Err = err
	}
	return perr
}

type jsonNode struct {
	r   gjson.Result
	src []byte
}

func (n jsonNode) kind() nodeKind {
	switch {
	case n.r.IsObject():
		return objectNode
	case n.r.IsArray():
		return arrayNode
	default:
		return scalarNode
	}
}

func (n jsonNode) token() (prefs.Token, error) {
	return jsonToken(n.r)
}

func jsonToken(r gjson.Result) (prefs.Token, error) {
	switch r.Type {
	case gjson.Null:
		return prefs.NullToken, nil
	case gjson.True:
		return prefs.Token{Kind: prefs.TokenBool, Text: "true"}, nil
	case gjson.False:
		return prefs.Token{Kind: prefs.TokenBool, Text: "false"}, nil
	case gjson.Number:
		if strings.ContainsAny(r.Raw, ".eE") {
			return prefs.Token{Kind: prefs.TokenFloat, Text: r.Raw}, nil
		}
		return prefs.Token{Kind: prefs.TokenInteger, Text: r.Raw}, nil
	case gjson.String:
		return prefs.StringToken(r.Str), nil
	}
	return prefs.Token{}, fmt.Errorf("expected a value, got %s", r.Raw)
}

func (n jsonNode) entries() []entry {
	var out []entry
	n.r.ForEach(func(key, value gjson.Result) bool {
		out = append(out, entry{key: key.Str, value: jsonNode{r: value, src: n.src}})
		return true
	})
	return out
}

func (n jsonNode) elems() []node {
	var out []node
	for _, el := range n.r.Array() {
		out = append(out, jsonNode{r: el, src: n.src})
	}
	return out
}

func (n jsonNode) position() (int, int) {
	if n.r.Index <= 0 {
		return 0, 0
	}
	return lineCol(n.src, n.r.Index)
}
