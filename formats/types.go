package formats

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// Format defines how a preference store is written to and read from text.
//
// Marshal writes the whole tree. Unmarshal applies the document's values onto
// an existing store whose shape (names, kinds and types) is already defined;
// keys absent from the document leave their preference untouched.
type Format struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".jsonc")
	Extension string

	// Aliases are additional extensions recognized by ForPath
	Aliases []string

	// Marshal serializes the store
	Marshal func(s *prefs.Store, opts WriteOptions) ([]byte, error)

	// Unmarshal applies a serialized document onto the store
	Unmarshal func(data []byte, s *prefs.Store, opts ReadOptions) error
}

// WriteOptions control serialization.
type WriteOptions struct {
	// Effective writes each preference's effective value (falling back to
	// its default) instead of its raw value.
	Effective bool
	// Comments emits descriptions, defaults and allowed values as comments
	// in formats that support them.
	Comments bool
	// Indent is the indentation unit; empty means two spaces.
	Indent string
}

func (o WriteOptions) indent() string {
	if o.Indent == "" {
		return "  "
	}
	return o.Indent
}

// ReadOptions control deserialization.
type ReadOptions struct {
	// DisallowUnknownKeys reports document keys that match no store entry
	// instead of skipping them.
	DisallowUnknownKeys bool
	// Logger receives debug messages about skipped keys. Nil discards them.
	Logger *slog.Logger
}

func (o ReadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Default is the name of the format used when none is configured.
const Default = "jsonc"

// registry holds all available formats
var registry = make(map[string]*Format)

// Register adds a new format to the registry
func Register(format *Format) error {
	// Validate format name (alphanumeric, dashes, underscores, lowercase)
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}
	if format.Marshal == nil || format.Unmarshal == nil {
		return fmt.Errorf("format %q must define Marshal and Unmarshal", format.Name)
	}

	// Normalize extensions
	format.Extension = normalizeExtension(format.Extension)
	for i, alias := range format.Aliases {
		format.Aliases[i] = normalizeExtension(alias)
	}

	// Check if format already exists
	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}

	registry[format.Name] = format
	return nil
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Get returns a format by name
func Get(name string) (*Format, error) {
	format, exists := registry[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return format, nil
}

// ForPath picks a format from a file name's extension
func ForPath(path string) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, fmt.Errorf("cannot infer format of %q: no extension", path)
	}
	for _, name := range List() {
		format := registry[name]
		if format.Extension == ext || slices.Contains(format.Aliases, ext) {
			return format, nil
		}
	}
	return nil, fmt.Errorf("no format handles %q files", ext)
}

// List returns all registered format names, sorted
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func mustRegister(format *Format) {
	if err := Register(format); err != nil {
		panic(err)
	}
}
