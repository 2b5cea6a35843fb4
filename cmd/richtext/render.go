package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/richtext/internal/config"
	"github.com/dshills/richtext/internal/dom"
	"github.com/dshills/richtext/internal/engine/editor"
	"github.com/dshills/richtext/internal/engine/state"
	"github.com/dshills/richtext/internal/script"
)

type renderOptions struct {
	sanitize bool
	ops      bool
	script   string
}

func newRenderCmd(g *globalOptions) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render [node]...",
		Short: "Render a document to HTML",
		Long: `The render command builds a document and prints the HTML the engine
renders for it. The document is built from the node descriptions given
as arguments, then from a Lua script (--script), inside one update.

Example:
  richtext render paragraph text:hello 'link:docs,https://example.com'
  richtext render 'text[bold]:loud' br text:quiet --sanitize
  richtext render -c richtext.toml paragraph text:themed --ops
  richtext render --script build.lua`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, g, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Pass the output through the HTML sanitizer")
	cmd.Flags().BoolVar(&opts.ops, "ops", false, "Print the rendered tree operations before the output")
	cmd.Flags().StringVar(&opts.script, "script", "", "Run a Lua script to build the document")
	return cmd
}

func runRender(cmd *cobra.Command, g *globalOptions, opts *renderOptions, args []string) error {
	if len(args) == 0 && opts.script == "" {
		return fmt.Errorf("nothing to render: give node descriptions or --script")
	}
	items, err := parseItems(args)
	if err != nil {
		return err
	}
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}

	fill := []func(*editor.Txn) error{
		func(tx *editor.Txn) error {
			return build(tx, items)
		},
	}
	if opts.script != "" {
		code, err := os.ReadFile(opts.script)
		if err != nil {
			return err
		}
		runner := script.New(script.WithOutput(cmd.ErrOrStderr()), script.WithLogger(logger))
		fill = append(fill, func(tx *editor.Txn) error {
			return runner.Exec(tx, opts.script, string(code))
		})
	}

	out := cmd.OutOrStdout()
	var opsOut io.Writer
	if opts.ops {
		opsOut = out
	}
	e, err := newDocument(cmd.Context(), cfg, logger, opsOut, nil, fill...)
	if err != nil {
		return err
	}
	defer e.Close()

	return writeHTML(cmd.Context(), out, e, opts.sanitize)
}

// newDocument creates an editor mounted into a fresh host element and
// runs fill inside one update. When ops is non-nil every tree operation
// of the commit is printed to it.
func newDocument(ctx context.Context, cfg *config.Config, logger *slog.Logger, ops io.Writer, extra []editor.Option, fill ...func(*editor.Txn) error) (*editor.Editor, error) {
	opts := []editor.Option{
		editor.WithTheme(cfg.Theme),
		editor.WithLogger(logger),
		editor.WithRootElement(dom.NewElement("div", "")),
	}
	if cfg.Editor.ValidateStates {
		opts = append(opts, editor.WithStateValidation())
	}
	e, err := editor.New(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}

	if ops != nil {
		unregister := e.RegisterUpdateListener(func(ev editor.UpdateEvent) {
			for _, op := range ev.Patch.Ops {
				fmt.Fprintln(ops, op.String())
			}
		})
		defer unregister()
	}

	if err := e.Update(ctx, func(tx *editor.Txn) error {
		for _, f := range fill {
			if err := f(tx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// renderHTML renders the editor's tree. It reads under the editor's gate
// so that a concurrent theme change is never observed half applied.
func renderHTML(ctx context.Context, e *editor.Editor, sanitize bool) (string, error) {
	var s dom.Sanitizer
	if sanitize {
		s = dom.NewPolicy()
	}
	var out string
	err := e.Read(ctx, func(*state.EditorState) error {
		out = dom.SanitizedOuterHTML(e.RootElement(), s)
		return nil
	})
	return out, err
}

// writeHTML prints the editor's rendered tree.
func writeHTML(ctx context.Context, w io.Writer, e *editor.Editor, sanitize bool) error {
	out, err := renderHTML(ctx, e, sanitize)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
