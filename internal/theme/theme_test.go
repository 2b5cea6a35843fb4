package theme

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassMissing(t *testing.T) {
	var th Theme
	if _, ok := th.Class("link"); ok {
		t.Error("nil theme should not resolve any class")
	}

	th = Theme{"link": ""}
	if _, ok := th.Class("link"); ok {
		t.Error("empty entry should be treated as absent")
	}
}

func TestClassPresent(t *testing.T) {
	th := Theme{"link": "my-link-class"}
	c, ok := th.Class("link")
	if !ok || c != "my-link-class" {
		t.Errorf("expected %q, got %q (ok=%v)", "my-link-class", c, ok)
	}
}

func TestFromMapFlattens(t *testing.T) {
	th, err := FromMap(map[string]any{
		"link": "my-link-class",
		"text": map[string]any{
			"bold":   "my-bold-class",
			"italic": " my-italic-class ",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Theme{
		"link":        "my-link-class",
		"text.bold":   "my-bold-class",
		"text.italic": "my-italic-class",
	}
	if diff := cmp.Diff(want, th); diff != "" {
		t.Errorf("theme mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"link", "text.bold", "text.italic"}, th.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFromMapRejectsNonString(t *testing.T) {
	_, err := FromMap(map[string]any{"link": 42})
	if err == nil {
		t.Error("expected error for non-string entry")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	th := Theme{"link": "a"}
	c := th.Clone()
	c["link"] = "b"
	if th["link"] != "a" {
		t.Error("clone should not share storage with the original")
	}
	if th.Equal(c) {
		t.Error("themes should differ after modifying the clone")
	}
}
