// Package theme maps semantic element names to style class strings.
//
// A Theme is consulted by node implementations when they create or patch
// rendered elements. Entries are optional: a missing entry means the
// element is rendered without a class attribute.
//
// Nested tables (as produced by TOML or JSON decoders) are flattened to
// dotted names, so
//
//	[theme.text]
//	bold = "my-bold-class"
//
// becomes the entry "text.bold".
package theme

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Theme is an immutable-by-convention mapping from semantic name to class.
type Theme map[string]string

// Class returns the class configured for name.
// Empty entries are treated as absent.
func (t Theme) Class(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	c, ok := t[name]
	if !ok || c == "" {
		return "", false
	}
	return c, true
}

// Names returns the configured semantic names in sorted order.
func (t Theme) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

// Clone returns a copy of the theme.
func (t Theme) Clone() Theme {
	if t == nil {
		return nil
	}
	return maps.Clone(t)
}

// Equal reports whether both themes hold the same entries.
func (t Theme) Equal(other Theme) bool {
	return maps.Equal(t, other)
}

// FromMap builds a theme from a decoded table, flattening nested tables.
// Leaf values must be strings.
func FromMap(m map[string]any) (Theme, error) {
	t := make(Theme)
	if err := flatten(t, "", m); err != nil {
		return nil, err
	}
	return t, nil
}

func flatten(dst Theme, prefix string, m map[string]any) error {
	for k, v := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			dst[name] = strings.TrimSpace(val)
		case map[string]any:
			if err := flatten(dst, name, val); err != nil {
				return err
			}
		default:
			return fmt.Errorf("theme entry %q: expected string or table, got %T", name, v)
		}
	}
	return nil
}
