package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/richtext/internal/engine/editor"
	"github.com/dshills/richtext/internal/logging"
)

// DefaultTimeout bounds a script's execution.
const DefaultTimeout = 5 * time.Second

// Runner executes scripts against editors.
type Runner struct {
	timeout time.Duration
	output  io.Writer
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the execution timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithOutput receives what scripts print.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.output = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		timeout: DefaultTimeout,
		output:  io.Discard,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes code in its own update on e. name labels errors.
func (r *Runner) Run(ctx context.Context, e *editor.Editor, name, code string) error {
	return e.Update(ctx, func(tx *editor.Txn) error {
		return r.Exec(tx, name, code)
	})
}

// Exec executes code inside the update tx belongs to.
func (r *Runner) Exec(tx *editor.Txn, name, code string) error {
	ctx := tx.Context()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	L := newState(r.output)
	defer L.Close()
	L.SetContext(ctx)

	b := &builder{tx: tx}
	b.install(L)

	start := time.Now()
	err := doWithRecovery(func() error {
		fn, err := L.LoadString(code)
		if err != nil {
			return err
		}
		L.Push(fn)
		return L.PCall(0, lua.MultRet, nil)
	})
	if b.err != nil {
		err = b.err
	}
	if err != nil {
		r.logger.Debug("script failed", "script", name, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrScript, name, err)
	}
	r.logger.Debug("script finished", "script", name, "nodes", b.created, "duration", time.Since(start))
	return nil
}

// newState opens the restricted set of libraries and routes print to out.
func newState(out io.Writer) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			if i > 1 {
				fmt.Fprint(out, "\t")
			}
			fmt.Fprint(out, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(out)
		return 0
	}))
	return L
}

func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
