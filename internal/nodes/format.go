package nodes

import "strings"

// Format is the set of inline styles applied to a text node.
type Format uint8

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatUnderline
	FormatStrikethrough
	FormatCode
)

// Has reports whether all of x are set.
func (f Format) Has(x Format) bool {
	return f&x == x
}

// String returns the set styles joined with "|".
func (f Format) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, s := range formatNames {
		if f.Has(s.format) {
			parts = append(parts, s.name)
		}
	}
	return strings.Join(parts, "|")
}

// formatNames lists the theme names under "text." in rendering order.
var formatNames = []struct {
	format Format
	name   string
}{
	{FormatBold, "bold"},
	{FormatItalic, "italic"},
	{FormatUnderline, "underline"},
	{FormatStrikethrough, "strikethrough"},
	{FormatCode, "code"},
}

// ParseFormat parses a "|" or "," separated list of style names.
func ParseFormat(s string) (Format, bool) {
	var f Format
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range formatNames {
			if n.name == part {
				f |= n.format
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
