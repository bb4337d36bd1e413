package formats

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/arthur-debert/nanoprefs/prefs"
)

// Literal renders a token as a JSON literal: null, true, 42, "text".
func Literal(tok prefs.Token) string {
	return literal(tok)
}

func literal(tok prefs.Token) string {
	switch tok.Kind {
	case prefs.TokenNull:
		return "null"
	case prefs.TokenBool, prefs.TokenInteger, prefs.TokenFloat:
		return tok.Text
	default:
		return quote(tok.Text)
	}
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a string cannot fail.
		panic(err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func literals(toks []prefs.Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = literal(tok)
	}
	return strings.Join(parts, ", ")
}

// valueToken picks the raw or effective value according to opts.
func valueToken(p prefs.Preference, opts WriteOptions) prefs.Token {
	if opts.Effective {
		return p.EncodeEffectiveValue()
	}
	return p.EncodeValue()
}

// commentLines returns the comment text written above a preference: its
// description, its default when raw values are written, and its allowed
// values.
func commentLines(p prefs.Preference, opts WriteOptions) []string {
	var lines []string
	if d := p.Description(); d != "" {
		lines = append(lines, strings.Split(d, "\n")...)
	}
	if !opts.Effective && p.HasDefaultValue() {
		lines = append(lines, "Default: "+literal(p.EncodeDefaultValue()))
	}
	if allowed := p.EncodeAllowedValues(); len(allowed) > 0 {
		label := "Allowed values: "
		if !p.AllowUndefinedValues() {
			label = "Allowed values (strict): "
		}
		lines = append(lines, label+literals(allowed))
	}
	return lines
}

func descriptionLines(description string) []string {
	if description == "" {
		return nil
	}
	return strings.Split(description, "\n")
}
