package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/richtext/internal/engine/editor"
	"github.com/dshills/richtext/internal/engine/node"
	"github.com/dshills/richtext/internal/engine/state"
	"github.com/dshills/richtext/internal/nodes"
)

func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	e, err := editor.New(editor.WithStateValidation())
	if err != nil {
		t.Fatalf("editor.New: %v", err)
	}
	return e
}

// shape renders the published tree as "type(child,...)" for comparison.
func shape(s *state.EditorState) string {
	var visit func(k node.Key) string
	visit = func(k node.Key) string {
		n, _ := s.Node(k)
		kids := node.RawChildren(n)
		if len(kids) == 0 {
			return n.Type()
		}
		parts := make([]string, len(kids))
		for i, c := range kids {
			parts[i] = visit(c)
		}
		return n.Type() + "(" + strings.Join(parts, ",") + ")"
	}
	return visit(node.RootKey)
}

// ============================================================================
// Building
// ============================================================================

func TestRunBuildsDocument(t *testing.T) {
	e := newEditor(t)
	code := `
doc.paragraph()
doc.text("hello ", "bold")
doc.link("docs", "https://example.com")
doc.linebreak()
doc.paragraph()
doc.text("second")
`
	if err := New().Run(context.Background(), e, "build.lua", code); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := e.State()
	if got, want := shape(s), "root(paragraph(text,link,linebreak),paragraph(text))"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got, want := s.Root().TextContent(), "hello docs\n\n\nsecond"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	first, _ := s.Node(node.RawChildren(s.Root())[0])
	txt, _ := s.Node(node.RawChildren(first)[0])
	if got := txt.(*nodes.Text).Format(); got != nodes.FormatBold {
		t.Errorf("expected format %v, got %v", nodes.FormatBold, got)
	}
}

func TestLeafCreatesImplicitParagraph(t *testing.T) {
	e := newEditor(t)
	if err := New().Run(context.Background(), e, "implicit.lua", `doc.text("a"); doc.text("b")`); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := shape(e.State()), "root(paragraph(text,text))"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSelectAndInsert(t *testing.T) {
	e := newEditor(t)
	code := `
local k = doc.text("helo")
doc.select(k, 3)
doc.insert("l")
print(doc.content())
`
	var out bytes.Buffer
	if err := New(WithOutput(&out)).Run(context.Background(), e, "insert.lua", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "hello\n" {
		t.Errorf("expected %q, got %q", "hello\n", got)
	}
	sel, ok := e.State().Selection()
	if !ok || sel.Anchor.Offset != 4 {
		t.Errorf("expected caret at offset 4, got %v (ok=%v)", sel, ok)
	}
}

func TestFlags(t *testing.T) {
	e := newEditor(t)
	code := `
local k = doc.text("locked")
doc.flags(k, "immutable|unmergeable")
doc.select(k, 6)
doc.insert("!")
`
	if err := New().Run(context.Background(), e, "flags.lua", code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// An immutable text refuses trailing text, so the insert lands in a new node.
	if got, want := shape(e.State()), "root(paragraph(text,text))"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	first, _ := e.State().Node("1")
	if f := first.Flags(); f != node.FlagImmutable|node.FlagUnmergeable {
		t.Errorf("expected flags %v, got %v", node.FlagImmutable|node.FlagUnmergeable, f)
	}
}

func TestExecJoinsOuterUpdate(t *testing.T) {
	e := newEditor(t)
	r := New()
	err := e.Update(context.Background(), func(tx *editor.Txn) error {
		if err := r.Exec(tx, "a.lua", `doc.paragraph()`); err != nil {
			return err
		}
		return r.Exec(tx, "b.lua", `doc.text("x")`)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Each Exec starts without a current paragraph.
	if got, want := shape(e.State()), "root(paragraph,paragraph(text))"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// ============================================================================
// Failures
// ============================================================================

func TestScriptErrorDiscardsEdits(t *testing.T) {
	tests := []struct {
		name string
		code string
		is   error
	}{
		{"syntax", `doc.paragraph(`, ErrScript},
		{"raised", `doc.paragraph(); error("boom")`, ErrScript},
		{"bad link", `doc.paragraph(); doc.link("", "/")`, node.ErrInvalidArgument},
		{"bad selection", `doc.select("999", 0)`, state.ErrInvalidSelection},
		{"insert without selection", `doc.insert("x")`, editor.ErrNoSelection},
		{"bad format", `doc.text("x", "loud")`, ErrScript},
		{"bad flags", `doc.flags(doc.text("x"), "shiny")`, ErrScript},
		{"flags on missing node", `doc.flags("999", "inert")`, node.ErrNodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t)
			before := e.State()
			err := New().Run(context.Background(), e, "fail.lua", tt.code)
			if !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
			if !errors.Is(err, ErrScript) {
				t.Errorf("expected ErrScript, got %v", err)
			}
			if e.State() != before {
				t.Error("failed script should not publish a state")
			}
		})
	}
}

func TestSandboxRemovesLoaders(t *testing.T) {
	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		t.Run(fn, func(t *testing.T) {
			e := newEditor(t)
			var out bytes.Buffer
			if err := New(WithOutput(&out)).Run(context.Background(), e, "sandbox.lua", "print(type("+fn+"))"); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != "nil" {
				t.Errorf("expected %s to be nil, got %q", fn, got)
			}
		})
	}
}

func TestTimeoutStopsScript(t *testing.T) {
	e := newEditor(t)
	start := time.Now()
	err := New(WithTimeout(50*time.Millisecond)).Run(context.Background(), e, "loop.lua", `while true do end`)
	if !errors.Is(err, ErrScript) {
		t.Errorf("expected ErrScript, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not stop the script promptly")
	}
}
