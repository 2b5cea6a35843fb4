package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/richtext/internal/nodes"
)

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []item
		wantErr bool
	}{
		{
			name:  "paragraph with text",
			specs: []string{"paragraph", "text:hello"},
			want: []item{
				{typ: nodes.ParagraphType},
				{typ: nodes.TextType, args: []string{"hello"}},
			},
		},
		{
			name:  "aliases",
			specs: []string{"p", "br"},
			want: []item{
				{typ: nodes.ParagraphType},
				{typ: nodes.LineBreakType},
			},
		},
		{
			name:  "formatted text keeps colons in content",
			specs: []string{"text[bold|italic]:a:b"},
			want: []item{
				{typ: nodes.TextType, args: []string{"a:b"}, format: nodes.FormatBold | nodes.FormatItalic},
			},
		},
		{
			name:  "link with url",
			specs: []string{"link:docs,https://example.com"},
			want: []item{
				{typ: nodes.LinkType, args: []string{"docs", "https://example.com"}},
			},
		},
		{
			name:  "content is normalized",
			specs: []string{"text:e\u0301"},
			want: []item{
				{typ: nodes.TextType, args: []string{"\u00e9"}},
			},
		},
		{name: "unknown type", specs: []string{"table"}, wantErr: true},
		{name: "empty text", specs: []string{"text:"}, wantErr: true},
		{name: "link without url", specs: []string{"link:docs"}, wantErr: true},
		{name: "link without text", specs: []string{"link:,/"}, wantErr: true},
		{name: "paragraph with content", specs: []string{"paragraph:x"}, wantErr: true},
		{name: "unknown format", specs: []string{"text[loud]:x"}, wantErr: true},
		{name: "unterminated format", specs: []string{"text[bold:x"}, wantErr: true},
		{name: "format on link", specs: []string{"link[bold]:a,/"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseItems(tt.specs)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseItems: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(item{})); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
