package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
)

const prefix = "cmd "

// ErrEmpty is returned by Execute for a blank line.
var ErrEmpty = errors.New("missing command")

// Command is a subcommand with its own flags and a Run function.
// Flags are defined on FlagSet; Run is called after Parse and can read flag
// state and positional arguments (FlagSet.Args()).
type Command struct {
	Name    string
	Usage   string
	FlagSet *flag.FlagSet
	Run     func() error
}

// Registry holds subcommands by name. Add commands with Register; run with Execute.
type Registry struct {
	cmds map[string]*Command
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Command)}
}

// NewFlagSet returns a FlagSet that reports errors instead of exiting and
// prints nothing.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// Register adds a subcommand. name is the first token of a line (e.g. "mode").
// fs is that command's FlagSet; run is called after fs.Parse(args[1:]) succeeds.
func (r *Registry) Register(name, usage string, fs *flag.FlagSet, run func() error) {
	if fs == nil {
		fs = NewFlagSet(name)
	}
	r.cmds[name] = &Command{Name: name, Usage: usage, FlagSet: fs, Run: run}
}

// Parse tokenizes a terminal line. The legacy "cmd " prefix is accepted and
// dropped. Double-quoted tokens may contain spaces.
func Parse(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
	var (
		args  []string
		cur   strings.Builder
		quote bool
		have  bool
	)
	for _, c := range line {
		switch {
		case c == '"':
			quote = !quote
			have = true
		case c == ' ' && !quote:
			if have {
				args = append(args, cur.String())
				cur.Reset()
				have = false
			}
		default:
			cur.WriteRune(c)
			have = true
		}
	}
	if have {
		args = append(args, cur.String())
	}
	return args
}

// Execute runs the subcommand in args[0] with args[1:] as flag/positional arguments.
// Returns an error for unknown command, parse error, or from Run().
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		return ErrEmpty
	}
	name := args[0]
	cmd, ok := r.cmds[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (try help)", name)
	}
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		return fmt.Errorf("%s: %w (usage: %s)", name, err, cmd.Usage)
	}
	return cmd.Run()
}

// Help returns one usage line per command, sorted by name.
func (r *Registry) Help() []string {
	names := make([]string, 0, len(r.cmds))
	for n := range r.cmds {
		names = append(names, n)
	}
	slices.Sort(names)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.cmds[n].Usage
	}
	return out
}

// Toggle registers a command taking --show or --hide and passes the result to set.
func (r *Registry) Toggle(name string, set func(show bool) error) {
	fs := NewFlagSet(name)
	show := fs.Bool("show", false, "show")
	hide := fs.Bool("hide", false, "hide")
	r.Register(name, name+" --show|--hide", fs, func() error {
		s, h := *show, *hide
		// The flag set is reused between lines.
		*show, *hide = false, false
		if s == h {
			return fmt.Errorf("%s: pass exactly one of --show or --hide", name)
		}
		return set(s)
	})
}
