package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one cms subcommand. The shell and the command line dispatch to
// the same values, so flags are reset before every run.
type Command struct {
	// Flags holds the command's own flags. Its name is unused.
	Flags *flag.FlagSet

	// Usage starts with the command name, followed by its arguments,
	// e.g. "page <slug>" or "submissions [--form id]".
	Usage string

	// Short is the line shown in the command listing.
	Short string

	// Long is shown by "cms <cmd> --help". Short is used when empty.
	Long string

	// Exec receives the positional arguments left after flag parsing.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	return strings.Fields(c.Usage)[0]
}

// HelpLine is the command's row in the global usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

func (c *Command) help() string {
	var b strings.Builder

	b.WriteString("Usage: cms " + c.Usage + "\n\n")

	if c.Long != "" {
		b.WriteString(c.Long + "\n")
	} else {
		b.WriteString(c.Short + "\n")
	}

	if c.Flags.HasFlags() {
		b.WriteString("\nFlags:\n")
		b.WriteString(c.Flags.FlagUsages())
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Run parses args, executes the command and returns its exit code. A flag
// error prints the help to stderr; --help prints it to stdout.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.resetFlags()
	c.Flags.SetOutput(&strings.Builder{})

	err := c.Flags.Parse(args)

	switch {
	case errors.Is(err, flag.ErrHelp):
		o.Println(c.help())

		return 0
	case err != nil:
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		o.ErrPrintln(c.help())

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}

func (c *Command) resetFlags() {
	c.Flags.VisitAll(func(f *flag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

var errUsage = errors.New("usage")

func usageError(usage string) error {
	return fmt.Errorf("%w: cms %s", errUsage, usage)
}
