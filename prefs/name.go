package prefs

import (
	"fmt"

	"github.com/arthur-debert/nanoprefs/internal/validation"
)

// ProcessName canonicalises a name: surrounding whitespace is trimmed and
// empty results are rejected with ErrInvalidName. Processing an already
// processed name returns it unchanged.
func ProcessName(name string) (string, error) {
	processed, err := validation.ProcessName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}
	return processed, nil
}
