// Package pathutil normalizes raw path strings into absolute, encoding-safe,
// long-path-safe forms before any filesystem operation touches them.
package pathutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyPath is returned when the input path is empty.
var ErrEmptyPath = errors.New("empty path")

// Resolve converts a raw path string into its resolved form: absolute
// (relative inputs are interpreted against the current working directory),
// NFC-normalized UTF-8, platform-native separators, and on Windows prefixed
// so it opts out of the MAX_PATH ceiling. The result must never be
// re-interpreted relative to a different working directory.
func Resolve(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyPath
	}

	s, err := normalizeEncoding(raw)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", raw, err)
	}

	s = filepath.FromSlash(s)

	abs, err := filepath.Abs(s)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", raw, err)
	}

	if runtime.GOOS == "windows" {
		abs = longPath(abs)
	}
	return abs, nil
}

// normalizeEncoding returns the input as NFC-normalized UTF-8. Invalid UTF-8
// is retried through the legacy Windows-1252 codepage before failing, so
// paths handed over from legacy-encoded sources still resolve.
func normalizeEncoding(s string) (string, error) {
	if !utf8.ValidString(s) {
		decoded, err := charmap.Windows1252.NewDecoder().String(s)
		if err != nil {
			return "", fmt.Errorf("not valid UTF-8 and legacy decode failed: %w", err)
		}
		s = decoded
	}
	return norm.NFC.String(s), nil
}
