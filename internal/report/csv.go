package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kvit-s/veribench/internal/model"
)

// writeCSV emits the same rows as the text log in comma-separated
// form, the third of §4.9's "XML/TXT/HTML/CSV" output family (HTML
// rendering itself is an external template consumer, out of scope —
// see spec's "Out of scope" list).
func writeCSV(out io.Writer, rs *model.RunSet) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{"sourcefile", "status", "category", "cputime", "walltime"}
	for _, c := range columnTitlesOf(rs) {
		header = append(header, c)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, run := range rs.Runs {
		row := []string{
			run.Identifier,
			statusOrPending(run),
			string(run.Category),
			formatSeconds(run.CPUTime),
			formatSeconds(run.WallTime),
		}
		for _, c := range run.Columns {
			row = append(row, c.Value)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", run.Identifier, err)
		}
	}
	return nil
}

func columnTitlesOf(rs *model.RunSet) []string {
	for _, run := range rs.Runs {
		if len(run.Columns) > 0 {
			titles := make([]string, len(run.Columns))
			for i, c := range run.Columns {
				titles[i] = c.Title
			}
			return titles
		}
	}
	return nil
}
