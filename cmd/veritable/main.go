// Command veritable is the table generator (§4.10, §6.4): it merges
// one or more result XML files into the table data model and prints a
// summary — per-column statistics, the difference table, and an
// optional regression count. Rendering to HTML is out of scope (see
// internal/tablegen's package doc comment); this driver dumps the
// computed model as JSON when asked to produce a file a separate
// rendering step could consume.
package main

import (
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kvit-s/veribench/internal/tablegen"
	"github.com/kvit-s/veribench/internal/xmlbench"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		tableDefinition = flag.String("x", "", "a table-definition.xml listing the input result files")
		outputPath      = flag.String("o", "", "output path for --dump (default: stdout)")
		name            = flag.String("n", "", "table name override")
		common          = flag.Bool("common", false, "accepted for CLI compatibility; has no effect: every task of every input is kept")
		noDiff          = flag.Bool("no-diff", false, "skip the difference table")
		correctOnly     = flag.Bool("correct-only", false, "restrict the difference table to rows where at least one input is correct")
		allColumns      = flag.Bool("all-columns", false, "include every column from every input, not just the common ones (out of scope: this driver already includes every column per row, since no HTML template narrows the view)")
		ignoreErroneous = flag.Bool("ignore-erroneous-benchmarks", false, "skip inputs that are missing or empty files")
		ignoreFlapping  = flag.Bool("ignore-flapping-timeout-regressions", false, "don't count a TIMEOUT that previously occurred as a regression")
		dump            = flag.Bool("dump", false, "write the merged table model as JSON instead of a human summary")
		offline         = flag.Bool("offline", false, "accepted for CLI compatibility; this driver never fetches anything over the network")
		show            = flag.Bool("show", false, "open the rendered table in a browser (out of scope: no HTML template exists here)")
	)
	flag.Parse()

	if *show {
		fmt.Fprintln(os.Stderr, "veritable: --show is out of scope (HTML template rendering is not implemented); ignoring")
	}
	_ = offline
	_ = allColumns
	_ = common

	paths := flag.Args()
	if *tableDefinition != "" {
		defPaths, err := loadTableDefinition(*tableDefinition)
		if err != nil {
			fmt.Fprintf(os.Stderr, "veritable: %v\n", err)
			return 1
		}
		paths = append(paths, defPaths...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: veritable [options] result.xml...")
		return 2
	}

	if *ignoreErroneous {
		paths = filterErroneous(paths)
	}

	table, err := tablegen.Merge(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritable: %v\n", err)
		return 1
	}

	tableName := *name
	if tableName == "" {
		tableName = "table"
	}

	if *dump {
		return dumpJSON(table, *outputPath)
	}

	printSummary(table, tableName, *noDiff, *correctOnly, *ignoreFlapping)
	return 0
}

func printSummary(table *tablegen.Table, name string, noDiff, correctOnly, ignoreFlapping bool) {
	fmt.Printf("%s: %d inputs, %d tasks\n", name, len(table.Columns), len(table.Rows))
	for i, col := range table.Columns {
		counts := tablegen.ComputeStatusCounts(cellsOfColumn(table, i))
		fmt.Printf("  [%d] %s (%s/%s): total=%d correct=%d wrong-true=%d wrong-false=%d wrong-property=%d score=%d\n",
			i, col.Path, col.Tool, col.Version, counts.Total, counts.Correct, counts.WrongTrue, counts.WrongFalse, counts.WrongProperty, counts.Score)
	}

	if len(table.Columns) >= 2 {
		regressions := tablegen.CountRegressions(table, ignoreFlapping)
		fmt.Printf("regressions (last two inputs): %d\n", regressions)
	}

	if noDiff {
		return
	}
	diffs := tablegen.DiffRows(table)
	if correctOnly {
		diffs = filterCorrectOnly(diffs)
	}
	if len(diffs) == 0 {
		fmt.Println("no differences")
		return
	}
	fmt.Printf("differences (%d tasks):\n", len(diffs))
	for _, row := range diffs {
		fmt.Printf("  %s:", row.Task)
		for _, cell := range row.Cells {
			if !cell.Present {
				fmt.Print(" -")
				continue
			}
			fmt.Printf(" %s", cell.Status)
		}
		fmt.Println()
	}
}

func cellsOfColumn(table *tablegen.Table, index int) []tablegen.Cell {
	cells := make([]tablegen.Cell, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells = append(cells, row.Cells[index])
	}
	return cells
}

func filterCorrectOnly(rows []*tablegen.Row) []*tablegen.Row {
	var out []*tablegen.Row
	for _, row := range rows {
		for _, cell := range row.Cells {
			if cell.Present && cell.Category == "correct" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func filterErroneous(paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			fmt.Fprintf(os.Stderr, "veritable: ignoring erroneous benchmark input %s\n", p)
			continue
		}
		out = append(out, p)
	}
	return out
}

func dumpJSON(table *tablegen.Table, outputPath string) int {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritable: %v\n", err)
		return 1
	}
	if outputPath == "" {
		os.Stdout.Write(data)
		fmt.Println()
		return 0
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "veritable: %v\n", err)
		return 1
	}
	return 0
}

// tableDefinitionResult is one <result filename="..."/> entry in a
// table-definition XML, per table-generator.py's getRunSetResultsFromXML.
type tableDefinitionResult struct {
	Filename string `xml:"filename,attr"`
}

type tableDefinitionXML struct {
	XMLName xml.Name                `xml:"table"`
	Results []tableDefinitionResult `xml:"result"`
}

// loadTableDefinition reads a table-definition XML and expands each
// <result filename="..."/> entry's (possibly wildcarded) path relative
// to the definition file's own directory.
func loadTableDefinition(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table definition %s: %w", path, err)
	}
	var doc tableDefinitionXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse table definition %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	var out []string
	for _, r := range doc.Results {
		matches, err := xmlbench.ExpandGlob(r.Filename, baseDir)
		if err != nil {
			return nil, fmt.Errorf("expand result filename %q: %w", r.Filename, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}
