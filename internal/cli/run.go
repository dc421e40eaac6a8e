package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
	"github.com/calvinalkan/sitecms/internal/config"
	"github.com/calvinalkan/sitecms/internal/fs"
	"github.com/calvinalkan/sitecms/internal/routes"
)

// Run is the main entry point. Returns exit code.
// sigCh cancels the running command when a signal arrives; it may be nil.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := newGlobalFlags()

	err := globals.fs.Parse(args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, globals, nil)

			return 0
		}

		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, nil)

		return 1
	}

	rest := globals.fs.Args()

	if len(rest) == 0 {
		printUsage(out, globals, nil)

		return 0
	}

	if env == nil {
		env = map[string]string{}
	}

	dataDir, _ := globals.fs.GetString("data-dir")
	if globals.fs.Changed("data-dir") && dataDir == "" {
		fprintln(errOut, "error: --data-dir cannot be empty")
		printUsage(errOut, globals, nil)

		return 1
	}

	workDir, _ := globals.fs.GetString("cwd")
	configPath, _ := globals.fs.GetString("config")

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: workDir,
		ConfigPath:      configPath,
		DataDirOverride: dataDir,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	db, err := openDB(cfg, errOut)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	commands := allCommands(db, &cfg)

	var dispatch dispatchFunc

	dispatch = func(ctx context.Context, o *IO, args []string) int {
		name := args[0]

		if name == "-h" || name == "--help" {
			printUsage(o.Out(), globals, commands)

			return 0
		}

		if name == "shell" {
			return ShellCmd(in, env, commandNames(commands), dispatch).Run(ctx, o, args[1:])
		}

		for _, c := range commands {
			if c.Name() == name {
				return c.Run(ctx, o, args[1:])
			}
		}

		o.ErrPrintln("error: unknown command:", name)

		return 1
	}

	return dispatch(ctx, NewIO(out, errOut), rest)
}

type globalFlags struct {
	fs *flag.FlagSet
}

func newGlobalFlags() globalFlags {
	set := flag.NewFlagSet("cms", flag.ContinueOnError)
	set.SetInterspersed(false)
	set.SetOutput(&strings.Builder{})
	set.StringP("cwd", "C", "", "Run as if started in `dir`")
	set.StringP("config", "c", "", "Use specified config `file`")
	set.String("data-dir", "", "Override the data `dir`")

	return globalFlags{fs: set}
}

func openDB(cfg config.Config, logOut io.Writer) (*cmsdb.DB, error) {
	dbCfg := cmsdb.Config{
		Dir:           cfg.DataDirAbs,
		CacheTTL:      -1,
		LockTimeout:   time.Duration(cfg.LockTimeout),
		RequiredPages: cfg.RequiredPages,
		ContactPage:   cfg.ContactPage,
		Logger:        config.NewLogger(cfg, logOut),
	}

	if cfg.RoutesDirAbs != "" {
		dbCfg.DiscoverRoutes = routes.Source(fs.NewReal(), cfg.RoutesDirAbs)
	}

	db, err := cmsdb.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return db, nil
}

func allCommands(db *cmsdb.DB, cfg *config.Config) []*Command {
	return []*Command{
		PagesCmd(db),
		PageCmd(db),
		ReconcileCmd(db, cfg),
		SettingsCmd(db),
		FormsCmd(db),
		UsersCmd(db),
		UserAddCmd(db),
		ResetTokenCmd(db),
		ResetCmd(db),
		TwoFACmd(db),
		SubmissionsCmd(db),
		JobsCmd(db),
		PrintConfigCmd(cfg),
	}
}

func commandNames(commands []*Command) []string {
	names := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		names = append(names, c.Name())
	}

	return append(names, "shell")
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals globalFlags, commands []*Command) {
	fprintln(w, `cms - site content store admin

Usage: cms [flags] <command> [args]

Global flags:`)
	fprintln(w, strings.TrimRight(globals.fs.FlagUsages(), "\n"))
	fprintln(w)
	fprintln(w, "Commands:")

	if commands == nil {
		commands = allCommands(nil, nil)
	}

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}

	fprintln(w, ShellCmd(nil, nil, nil, nil).HelpLine())
	fprintln(w)
	fprintln(w, "Run 'cms <command> --help' for command flags.")
}
