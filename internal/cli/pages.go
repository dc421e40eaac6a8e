package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
	"github.com/calvinalkan/sitecms/internal/config"
)

// PagesCmd returns the pages command.
func PagesCmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("pages", flag.ContinueOnError)
	fs.String("status", "", "Filter by status (draft|published|archived)")

	return &Command{
		Flags: fs,
		Usage: "pages [--status s]",
		Short: "List pages",
		Long:  "List all pages. Missing required and discovered pages are created first.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			status, _ := fs.GetString("status")

			pages, err := db.GetPages(ctx)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(pages))

			for _, p := range pages {
				if status != "" && string(p.Status) != status {
					continue
				}

				rows = append(rows, []string{p.Slug, string(p.Status), p.Title, p.ID})
			}

			return printTable(io, []string{"SLUG", "STATUS", "TITLE", "ID"}, rows)
		},
	}
}

// PageCmd returns the page command.
func PageCmd(db *cmsdb.DB) *Command {
	return &Command{
		Flags: flag.NewFlagSet("page", flag.ContinueOnError),
		Usage: "page <slug>",
		Short: "Show a page as JSON",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			if len(args) != 1 {
				return usageError("page <slug>")
			}

			page, err := db.GetPageBySlug(ctx, args[0])
			if err != nil {
				return err
			}

			return printJSON(io, page)
		},
	}
}

// ReconcileCmd returns the reconcile command.
func ReconcileCmd(db *cmsdb.DB, cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("reconcile", flag.ContinueOnError),
		Usage: "reconcile",
		Short: "Create missing required and discovered pages",
		Long: "Create a published placeholder for every required or discovered " +
			"slug that has no page yet. Existing pages are never changed.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			if cfg.RoutesDirAbs == "" {
				io.Warn("route discovery disabled", "set routes_dir to also create pages for renderer routes")
			}

			pages, err := db.GetPages(ctx)
			if err != nil {
				return err
			}

			synthesized := 0

			for _, p := range pages {
				if p.CreatedBy == cmsdb.SystemAuthor {
					synthesized++
				}
			}

			io.Printf("%d pages (%d created by %s)\n", len(pages), synthesized, cmsdb.SystemAuthor)

			return nil
		},
	}
}
