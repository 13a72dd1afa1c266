package tablegen

// Cell is one input's result for one task; Present is false for the
// synthesized placeholder rows §4.10's "source-file merging" inserts
// when a task is missing from a given input.
type Cell struct {
	Present      bool
	Status       string
	Category     string
	CPUTime      string
	WallTime     string
	Columns      map[string]string
}

// Row is one task across every merged input, in union order.
type Row struct {
	Task  string
	Cells []Cell // len == len(Table.Columns)
}

// Table is the merged, column-aligned view over N result XML inputs.
type Table struct {
	Columns []ColumnSource // one per input file, in input order
	Rows    []*Row
}

// ColumnSource identifies one merged-in input file.
type ColumnSource struct {
	Path          string
	Benchmark     string
	RunSet        string
	Tool          string
	Version       string
}

// Merge loads each path in paths and merges them into one Table,
// synthesizing a union of task names that preserves first-seen order
// across inputs and inserting empty placeholder cells for tasks a
// given input lacks (§4.10 "source-file merging").
func Merge(paths []string) (*Table, error) {
	docs := make([]*xmlRunSetResult, len(paths))
	for i, p := range paths {
		doc, err := loadResultXML(p)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}

	var order []string
	seen := make(map[string]bool)
	byTaskByInput := make([]map[string]xmlRunResult, len(docs))
	for i, doc := range docs {
		byTaskByInput[i] = make(map[string]xmlRunResult, len(doc.Runs))
		for _, run := range doc.Runs {
			byTaskByInput[i][run.Name] = run
			if !seen[run.Name] {
				seen[run.Name] = true
				order = append(order, run.Name)
			}
		}
	}

	table := &Table{}
	for i, doc := range docs {
		table.Columns = append(table.Columns, ColumnSource{
			Path:      paths[i],
			Benchmark: doc.Benchmark,
			RunSet:    doc.RunSet,
			Tool:      doc.Tool,
			Version:   doc.Version,
		})
	}

	for _, task := range order {
		row := &Row{Task: task, Cells: make([]Cell, len(docs))}
		for i := range docs {
			run, ok := byTaskByInput[i][task]
			if !ok {
				row.Cells[i] = Cell{Present: false}
				continue
			}
			cols := make(map[string]string, len(run.Columns))
			for _, c := range run.Columns {
				cols[c.Title] = c.Value
			}
			row.Cells[i] = Cell{
				Present:  true,
				Status:   run.Status,
				Category: run.Category,
				CPUTime:  run.CPUTime,
				WallTime: run.WallTime,
				Columns:  cols,
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// DiffRows returns every row with at least two distinct status values
// across its present cells (§4.10 "difference tables": "if any row
// has at least two distinct status values across inputs, emit a diff
// table containing only such rows; otherwise skip").
func DiffRows(t *Table) []*Row {
	var out []*Row
	for _, row := range t.Rows {
		statuses := make(map[string]bool)
		for _, cell := range row.Cells {
			if cell.Present {
				statuses[cell.Status] = true
			}
		}
		if len(statuses) >= 2 {
			out = append(out, row)
		}
	}
	return out
}
