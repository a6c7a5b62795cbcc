// Package shell implements the interactive planning shell. Commands are
// registered as name + {apply, describe} pairs and dispatched by exact
// match, unique prefix, or fuzzy suggestion.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/planforge/craftplan/internal/planner/engine"
	"github.com/planforge/craftplan/internal/planner/store"
)

// errQuit signals a clean exit from the command loop.
var errQuit = errors.New("quit")

// Shell drives a Calculator from an interactive command stream.
type Shell struct {
	calc          *engine.Calculator
	store         *store.Store
	logger        *slog.Logger
	defaultMethod string

	in  *bufio.Scanner
	out io.Writer
}

// New creates a shell around the given calculator. The store may be nil, in
// which case the session commands report persistence as unavailable.
func New(calc *engine.Calculator, st *store.Store, logger *slog.Logger, defaultMethod string, in io.Reader, out io.Writer) *Shell {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Shell{
		calc:          calc,
		store:         st,
		logger:        logger,
		defaultMethod: defaultMethod,
		in:            bufio.NewScanner(in),
		out:           out,
	}
}

// Run reads commands until EOF, quit, or context cancellation. Command
// errors are printed, never fatal.
func (sh *Shell) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(sh.out, "$ ")
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			return sh.in.Err()
		}
		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}

		name, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		cmd, err := sh.lookup(name)
		if err != nil {
			fmt.Fprintln(sh.out, err)
			continue
		}

		if err := cmd.apply(ctx, sh, args); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(sh.out, "error:", err)
			sh.logger.Debug("command failed", "command", cmd.name, "error", err)
		}
	}
}

// lookup resolves a typed command name: exact match first, then a unique
// prefix, then a fuzzy suggestion for the error message.
func (sh *Shell) lookup(name string) (*command, error) {
	var prefixed []*command
	for _, c := range commands {
		if c.name == name {
			return c, nil
		}
		if strings.HasPrefix(c.name, name) {
			prefixed = append(prefixed, c)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
		if guess, ok := suggest(name); ok {
			return nil, fmt.Errorf("unknown command %q, did you mean %q? (try `help`)", name, guess)
		}
		return nil, fmt.Errorf("unknown command %q (try `help`)", name)
	default:
		names := make([]string, len(prefixed))
		for i, c := range prefixed {
			names[i] = c.name
		}
		return nil, fmt.Errorf("ambiguous command %q: %s", name, strings.Join(names, ", "))
	}
}

// prompt prints a label and reads one trimmed line. io.EOF when the input
// stream ends mid-prompt.
func (sh *Shell) prompt(label string) (string, error) {
	fmt.Fprintf(sh.out, "%s: ", label)
	if !sh.in.Scan() {
		if err := sh.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(sh.in.Text()), nil
}
