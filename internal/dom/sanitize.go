package dom

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Sanitizer cleans rendered HTML before it leaves the process.
// *bluemonday.Policy satisfies it.
type Sanitizer interface {
	Sanitize(s string) string
}

var classPattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]*$`)

// NewPolicy returns a policy that keeps the elements node types render
// to, plus their class attribute, and strips everything else.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "p", "span", "br")
	p.AllowAttrs("class").Matching(classPattern).OnElements("div", "p", "span")
	return p
}

// SanitizedOuterHTML renders el and passes the result through s.
// A nil sanitizer returns the raw rendering.
func SanitizedOuterHTML(el *html.Node, s Sanitizer) string {
	out := OuterHTML(el)
	if s == nil {
		return out
	}
	return s.Sanitize(out)
}
