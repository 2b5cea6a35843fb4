package node

import "strings"

// Flags is a bitmask of generic presentation and structural attributes.
type Flags uint32

// Generic flags. Concrete types give them meaning.
const (
	// FlagImmutable marks a node whose content should not be edited in place.
	FlagImmutable Flags = 1 << iota

	// FlagSegmented marks a node edited segment by segment.
	FlagSegmented

	// FlagInert marks a node that is rendered but not interactive.
	FlagInert

	// FlagUnmergeable marks a text-like node that must not merge with siblings.
	FlagUnmergeable
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagImmutable, "immutable"},
	{FlagSegmented, "segmented"},
	{FlagInert, "inert"},
	{FlagUnmergeable, "unmergeable"},
}

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

// With returns f with x set.
func (f Flags) With(x Flags) Flags {
	return f | x
}

// Without returns f with x cleared.
func (f Flags) Without(x Flags) Flags {
	return f &^ x
}

// String returns the set flag names joined by "|".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
			f = f.Without(fn.flag)
		}
	}
	if f != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// ParseFlags parses names joined by "|", as produced by String.
// "none" and the empty string are the empty set.
func ParseFlags(s string) (Flags, bool) {
	var f Flags
	if s == "" || s == "none" {
		return 0, true
	}
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, fn := range flagNames {
			if fn.name == strings.TrimSpace(part) {
				f = f.With(fn.flag)
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return f, true
}
