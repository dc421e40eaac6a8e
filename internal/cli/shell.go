package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

const (
	historyFileName = ".sitecms_history"
	shellPrompt     = "cms> "
)

// lineReader is the part of [liner.State] the shell needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scanReader reads lines from a non-terminal input.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return r.sc.Text(), nil
}

func (r *scanReader) AppendHistory(string) {}

// dispatchFunc runs one command line and returns its exit code.
type dispatchFunc func(ctx context.Context, o *IO, args []string) int

// ShellCmd returns the interactive shell command. Each line is split on
// whitespace and dispatched like a command-line invocation. The terminal
// gets line editing, history in ~/.sitecms_history and tab completion;
// any other input is read line by line.
func ShellCmd(in io.Reader, env map[string]string, names []string, dispatch dispatchFunc) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive console",
		Long:  "Start an interactive console. Type 'help' for commands and 'exit' to leave.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if f, ok := in.(*os.File); ok && f == os.Stdin {
				return runTerminalShell(ctx, o, env, names, dispatch)
			}

			if in == nil {
				in = strings.NewReader("")
			}

			return runShell(ctx, o, &scanReader{sc: bufio.NewScanner(in)}, dispatch)
		},
	}
}

func historyPath(env map[string]string) string {
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, historyFileName)
	}

	return ""
}

func runTerminalShell(ctx context.Context, o *IO, env map[string]string, names []string, dispatch dispatchFunc) error {
	state := liner.NewLiner()
	defer state.Close()

	state.SetCtrlCAborts(true)
	state.SetCompleter(completer(names))

	path := historyPath(env)

	if f, err := os.Open(path); err == nil {
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}

	err := runShell(ctx, o, state, dispatch)

	if path != "" {
		if f, createErr := os.Create(path); createErr == nil {
			_, _ = state.WriteHistory(f)
			_ = f.Close()
		}
	}

	return err
}

func runShell(ctx context.Context, o *IO, lr lineReader, dispatch dispatchFunc) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := lr.Prompt(shellPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lr.AppendHistory(line)

		args := strings.Fields(line)

		switch args[0] {
		case "exit", "quit":
			return nil
		case "help", "?":
			args = []string{"--help"}
		case "shell":
			o.ErrPrintln("error: already in the shell")

			continue
		}

		dispatch(ctx, o, args)
	}
}

// completer completes the first word of a line to a command name.
func completer(names []string) liner.Completer {
	all := append(slices.Clone(names), "help", "exit")
	slices.Sort(all)

	return func(line string) []string {
		if strings.Contains(line, " ") {
			return nil
		}

		var out []string

		for _, n := range all {
			if strings.HasPrefix(n, line) {
				out = append(out, n)
			}
		}

		return out
	}
}
