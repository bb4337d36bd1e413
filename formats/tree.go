package formats

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/arthur-debert/nanoprefs/prefs"
)

type nodeKind uint8

const (
	scalarNode nodeKind = iota
	objectNode
	arrayNode
)

func (k nodeKind) String() string {
	switch k {
	case objectNode:
		return "object"
	case arrayNode:
		return "array"
	default:
		return "value"
	}
}

type entry struct {
	key   string
	value node
}

// node is the parsed document as seen by the tree walker. Each reader
// adapts its parser's output to it.
type node interface {
	kind() nodeKind
	token() (prefs.Token, error)
	entries() []entry
	elems() []node
	// position returns the 1-based line and column, or zeros when unknown.
	position() (int, int)
}

// applier walks a parsed document alongside a store, assigning values and
// collecting every failure.
type applier struct {
	format string
	opts   ReadOptions
	log    *slog.Logger
	errs   []error
}

func apply(format string, root node, s *prefs.Store, opts ReadOptions) error {
	a := &applier{format: format, opts: opts, log: opts.logger()}
	a.store(s, root, nil)
	return errors.Join(a.errs...)
}

func (a *applier) fail(n node, path []string, format string, args ...any) {
	line, col := n.position()
	a.errs = append(a.errs, &ParseError{
		Format:  a.format,
		Path:    strings.Join(path, "."),
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	})
}

func (a *applier) expect(n node, path []string, want nodeKind) bool {
	if n.kind() != want {
		a.fail(n, path, "expected %s, got %s", want, n.kind())
		return false
	}
	return true
}

func (a *applier) unknown(n node, path []string) {
	if a.opts.DisallowUnknownKeys {
		a.fail(n, path, "unknown key")
		return
	}
	a.log.Debug("skipping unknown key", "format", a.format, "path", strings.Join(path, "."))
}

func extend(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func (a *applier) store(s *prefs.Store, n node, path []string) {
	if !a.expect(n, path, objectNode) {
		return
	}
	for _, e := range n.entries() {
		childPath := extend(path, e.key)
		item, ok := s.TryGetItem(e.key)
		if !ok {
			a.unknown(e.value, childPath)
			continue
		}
		a.item(item, e.value, childPath)
	}
}

func (a *applier) item(item prefs.StoreItem, n node, path []string) {
	switch item.Kind() {
	case prefs.ItemPreference:
		p, _ := item.Preference()
		a.preference(p, n, path)
	case prefs.ItemGroup:
		g, _ := item.Group()
		a.group(g, n, path)
	case prefs.ItemGroups:
		groups, _ := item.Groups()
		a.array(n, path, len(groups), func(i int, el node, elPath []string) {
			a.group(groups[i], el, elPath)
		})
	case prefs.ItemStore:
		st, _ := item.Store()
		a.store(st, n, path)
	case prefs.ItemStores:
		stores, _ := item.Stores()
		a.array(n, path, len(stores), func(i int, el node, elPath []string) {
			a.store(stores[i], el, elPath)
		})
	}
}

func (a *applier) group(g *prefs.Group, n node, path []string) {
	if !a.expect(n, path, objectNode) {
		return
	}
	for _, e := range n.entries() {
		childPath := extend(path, e.key)
		p, ok := g.TryGet(e.key)
		if !ok {
			a.unknown(e.value, childPath)
			continue
		}
		a.preference(p, e.value, childPath)
	}
}

// array applies elements positionally. Arrays in a store have a fixed
// length; surplus document elements are treated like unknown keys.
func (a *applier) array(n node, path []string, size int, fn func(int, node, []string)) {
	if !a.expect(n, path, arrayNode) {
		return
	}
	for i, el := range n.elems() {
		elPath := extend(path, strconv.Itoa(i))
		if i >= size {
			a.unknown(el, elPath)
			continue
		}
		fn(i, el, elPath)
	}
}

func (a *applier) preference(p prefs.Preference, n node, path []string) {
	if !a.expect(n, path, scalarNode) {
		return
	}
	tok, err := n.token()
	if err != nil {
		a.fail(n, path, "%v", err)
		return
	}
	if err := p.DecodeValue(tok); err != nil {
		line, col := n.position()
		a.errs = append(a.errs, &ParseError{
			Format:  a.format,
			Path:    strings.Join(path, "."),
			Line:    line,
			Column:  col,
			Message: err.Error(),
			Err:     err,
		})
	}
}
