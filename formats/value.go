package formats

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// MarshalValue renders a preference's value as a JSON literal ("null" when
// unset).
func MarshalValue(p prefs.Preference) []byte {
	return []byte(literal(p.EncodeValue()))
}

// UnmarshalValue parses a JSON literal and assigns it as the preference's
// value. Strings go through the type's text parsing, so "0x1F" sets an
// integer preference to 31.
func UnmarshalValue(p prefs.Preference, data []byte) error {
	tok, err := parseLiteral(data)
	if err != nil {
		return err
	}
	return p.DecodeValue(tok)
}

// SetFromText assigns a value typed by a person: valid JSON literals are
// used as such, anything else is taken as a bare string.
func SetFromText(p prefs.Preference, text string) error {
	tok, err := parseLiteral([]byte(text))
	if err != nil {
		tok = prefs.StringToken(text)
	}
	return p.DecodeValue(tok)
}

func parseLiteral(data []byte) (prefs.Token, error) {
	src := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(src) == 0 || !gjson.ValidBytes(src) {
		return prefs.Token{}, &ParseError{Format: "json", Message: fmt.Sprintf("invalid JSON literal %q", data)}
	}
	r := gjson.ParseBytes(src)
	if r.IsObject() || r.IsArray() {
		return prefs.Token{}, &ParseError{Format: "json", Message: "expected a single value, got " + r.Raw}
	}
	return jsonToken(r)
}
