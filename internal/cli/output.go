package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
)

// printJSON writes v as indented JSON.
func printJSON(o *IO, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	o.Println(string(data))

	return nil
}

// printTable writes tab separated rows as aligned columns.
func printTable(o *IO, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.Out(), 0, 0, 2, ' ', 0)

	writeRow := func(cols []string) {
		for i, c := range cols {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}

			_, _ = fmt.Fprint(tw, c)
		}

		_, _ = fmt.Fprintln(tw)
	}

	writeRow(header)

	for _, r := range rows {
		writeRow(r)
	}

	return tw.Flush()
}
