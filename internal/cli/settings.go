package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

// SettingsCmd returns the settings command.
func SettingsCmd(db *cmsdb.DB) *Command {
	return &Command{
		Flags: flag.NewFlagSet("settings", flag.ContinueOnError),
		Usage: "settings",
		Short: "Show site settings as JSON",
		Long:  "Show site settings as JSON. A legacy contact form is migrated on first read.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			s, err := db.GetSettings(ctx)
			if err != nil {
				return err
			}

			return printJSON(io, s)
		},
	}
}

// FormsCmd returns the forms command.
func FormsCmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("forms", flag.ContinueOnError)
	fs.String("page", "", "Only forms placed on this page, top first")

	return &Command{
		Flags: fs,
		Usage: "forms [--page slug]",
		Short: "List form configurations",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			var (
				forms []cmsdb.FormConfig
				err   error
			)

			if fs.Changed("page") {
				page, _ := fs.GetString("page")
				forms, err = db.FormsForPage(ctx, page)
			} else {
				forms, err = db.GetForms(ctx)
			}

			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(forms))
			for _, f := range forms {
				rows = append(rows, []string{f.ID, f.Name, f.Placement.Page, f.Placement.Position})
			}

			return printTable(io, []string{"ID", "NAME", "PAGE", "POSITION"}, rows)
		},
	}
}
