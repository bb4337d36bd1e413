// Package schema builds preference stores from YAML schema documents.
//
// A schema lists entries in order. Each entry has a type: a value kind
// ("int32", "string", "duration", ...) declares a preference, "group" and
// "store" declare containers with nested preferences, and "groups" and
// "stores" declare arrays of containers under items:
//
//	description: Application settings
//	preferences:
//	  theme:
//	    type: string
//	    allowed: [dark, light]
//	    strict: true
//	    default: light
//	  editor:
//	    type: group
//	    preferences:
//	      tab_size: {type: int32, min: 1, max: 16, default: 4}
//	  servers:
//	    type: groups
//	    items:
//	      - preferences:
//	          host: {type: string}
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// Container types. Any other type names a value kind.
const (
	TypeGroup  = "group"
	TypeGroups = "groups"
	TypeStore  = "store"
	TypeStores = "stores"
)

// ErrInvalidSchema is returned for documents that are well-formed YAML but
// do not describe a valid store.
var ErrInvalidSchema = errors.New("invalid schema")

// Document is the root of a schema.
type Document struct {
	Description string  `yaml:"description"`
	Preferences Entries `yaml:"preferences"`
}

// Item is one element of a groups or stores array.
type Item struct {
	Description string  `yaml:"description"`
	Preferences Entries `yaml:"preferences"`
}

// Entry declares a preference or a container.
type Entry struct {
	Name        string `yaml:"-"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`

	Value   any      `yaml:"value"`
	Default any      `yaml:"default"`
	Allowed []any    `yaml:"allowed"`
	Members []string `yaml:"members"`
	Strict  bool     `yaml:"strict"`
	Sort    bool     `yaml:"sort"`

	Min     any    `yaml:"min"`
	Max     any    `yaml:"max"`
	Pattern string `yaml:"pattern"`

	Preferences Entries `yaml:"preferences"`
	Items       []Item  `yaml:"items"`
}

var entryKeys = []string{
	"type", "description", "value", "default", "allowed", "members", "strict",
	"sort", "min", "max", "pattern", "preferences", "items",
}

// Entries is an ordered mapping from names to entries.
type Entries []Entry

// UnmarshalYAML keeps the mapping order of the document.
func (e *Entries) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %w: preferences must be a mapping", node.Line, ErrInvalidSchema)
	}
	out := make(Entries, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: %w: entry %q must be a mapping", value.Line, ErrInvalidSchema, key.Value)
		}
		for j := 0; j+1 < len(value.Content); j += 2 {
			if k := value.Content[j].Value; !slices.Contains(entryKeys, k) {
				return fmt.Errorf("line %d: %w: entry %q has unknown field %q", value.Content[j].Line, ErrInvalidSchema, key.Value, k)
			}
		}

		var entry Entry
		if err := value.Decode(&entry); err != nil {
			return err
		}
		entry.Name = key.Value
		out = append(out, entry)
	}
	*e = out
	return nil
}

// Parse decodes a schema document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &doc, nil
}

// Load reads and builds the schema at path.
func Load(fs afero.Fs, path string) (*prefs.Store, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read schema %q: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	store, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Build creates the store described by the document.
func (d *Document) Build() (*prefs.Store, error) {
	return buildStore(d.Description, d.Preferences, nil)
}

func buildStore(description string, entries Entries, path []string) (*prefs.Store, error) {
	s := prefs.NewStore(description)
	for _, e := range entries {
		item, err := e.item(append(slices.Clone(path), e.Name))
		if err != nil {
			return nil, err
		}
		if err := s.Add(e.Name, item); err != nil {
			return nil, fmt.Errorf("%s: %w", dotted(path, e.Name), err)
		}
	}
	return s, nil
}

func buildGroup(description string, entries Entries, path []string) (*prefs.Group, error) {
	g := prefs.NewGroup(description)
	for _, e := range entries {
		if e.isContainer() {
			return nil, fmt.Errorf("%s: %w: groups hold only preferences, got %s", dotted(path, e.Name), ErrInvalidSchema, e.Type)
		}
		p, err := e.preference()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dotted(path, e.Name), err)
		}
		if err := g.Add(p); err != nil {
			return nil, fmt.Errorf("%s: %w", dotted(path, e.Name), err)
		}
	}
	return g, nil
}

func dotted(path []string, name string) string {
	return strings.Join(append(slices.Clone(path), name), ".")
}

func (e Entry) isContainer() bool {
	switch strings.ToLower(e.Type) {
	case TypeGroup, TypeGroups, TypeStore, TypeStores:
		return true
	}
	return false
}

func (e Entry) item(path []string) (prefs.StoreItem, error) {
	switch strings.ToLower(e.Type) {
	case TypeGroup:
		g, err := buildGroup(e.Description, e.Preferences, path)
		if err != nil {
			return prefs.StoreItem{}, err
		}
		return prefs.GroupItem(g), nil

	case TypeStore:
		s, err := buildStore(e.Description, e.Preferences, path)
		if err != nil {
			return prefs.StoreItem{}, err
		}
		return prefs.NestedStoreItem(s), nil

	case TypeGroups:
		groups := make([]*prefs.Group, len(e.Items))
		for i, it := range e.Items {
			g, err := buildGroup(it.Description, it.Preferences, append(slices.Clone(path), fmt.Sprint(i)))
			if err != nil {
				return prefs.StoreItem{}, err
			}
			groups[i] = g
		}
		return prefs.GroupsItem(e.Description, groups...), nil

	case TypeStores:
		stores := make([]*prefs.Store, len(e.Items))
		for i, it := range e.Items {
			s, err := buildStore(it.Description, it.Preferences, append(slices.Clone(path), fmt.Sprint(i)))
			if err != nil {
				return prefs.StoreItem{}, err
			}
			stores[i] = s
		}
		return prefs.StoresItem(e.Description, stores...), nil
	}

	p, err := e.preference()
	if err != nil {
		return prefs.StoreItem{}, fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}
	return prefs.PreferenceItem(p), nil
}

func (e Entry) preference() (prefs.Preference, error) {
	if e.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidSchema)
	}
	kind, err := prefs.ParseKind(e.Type)
	if err != nil {
		return nil, err
	}
	if len(e.Items) > 0 || len(e.Preferences) > 0 {
		return nil, fmt.Errorf("%w: %s entries cannot have preferences or items", ErrInvalidSchema, e.Type)
	}

	validator, err := e.validator(kind)
	if err != nil {
		return nil, err
	}

	return prefs.Build(kind, e.Name, prefs.Spec{
		Description:      e.Description,
		Value:            e.Value,
		DefaultValue:     e.Default,
		Allowed:          e.Allowed,
		Sort:             e.Sort,
		AllowOnlyDefined: e.Strict,
		Validator:        validator,
		Members:          e.Members,
	})
}
