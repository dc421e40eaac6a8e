package cli

import (
	"context"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

// SubmissionsCmd returns the submissions command.
func SubmissionsCmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("submissions", flag.ContinueOnError)
	fs.String("form", "", "Only submissions of this form id")

	return &Command{
		Flags: fs,
		Usage: "submissions [--form id]",
		Short: "List form submissions as JSON",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			formID, _ := fs.GetString("form")

			subs, err := db.GetSubmissions(ctx, formID)
			if err != nil {
				return err
			}

			return printJSON(io, subs)
		},
	}
}

// JobsCmd returns the jobs command.
func JobsCmd(db *cmsdb.DB) *Command {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	fs.Bool("visible", false, "Only jobs shown on the careers page")

	return &Command{
		Flags: fs,
		Usage: "jobs [--visible]",
		Short: "List job postings",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			visibleOnly, _ := fs.GetBool("visible")

			var (
				jobs []cmsdb.Job
				err  error
			)

			if visibleOnly {
				jobs, err = db.GetVisibleJobs(ctx)
			} else {
				jobs, err = db.GetJobs(ctx)
			}

			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(jobs))
			for _, j := range jobs {
				rows = append(rows, []string{
					j.ID, j.Title, j.Location, strconv.FormatBool(j.Visible),
					strconv.Itoa(j.Applicants), j.CreatedAt.Format(time.DateOnly),
				})
			}

			return printTable(io, []string{"ID", "TITLE", "LOCATION", "VISIBLE", "APPLICANTS", "CREATED"}, rows)
		},
	}
}
