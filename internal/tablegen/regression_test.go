package tablegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(statuses ...string) *Row {
	cells := make([]Cell, len(statuses))
	for i, s := range statuses {
		if s == "" {
			cells[i] = Cell{Present: false}
			continue
		}
		category := "wrong"
		if s == "true" {
			category = "correct"
		}
		cells[i] = Cell{Present: true, Status: s, Category: category}
	}
	return &Row{Cells: cells}
}

func TestCountRegressions_CountsStatusChangeToIncorrect(t *testing.T) {
	table := &Table{
		Columns: []ColumnSource{{}, {}},
		Rows: []*Row{
			row("true", "true"),
			row("true", "false(reach)"),
		},
	}
	assert.Equal(t, 1, CountRegressions(table, false))
}

func TestCountRegressions_IgnoresTimeoutOOMPair(t *testing.T) {
	table := &Table{
		Columns: []ColumnSource{{}, {}},
		Rows: []*Row{
			row("TIMEOUT", "OUT OF MEMORY"),
			row("OUT OF MEMORY", "TIMEOUT"),
		},
	}
	assert.Equal(t, 0, CountRegressions(table, false))
}

func TestCountRegressions_FlappingTimeoutIgnoredOnlyWhenRequested(t *testing.T) {
	table := &Table{
		Columns: []ColumnSource{{}, {}, {}},
		Rows: []*Row{
			row("TIMEOUT", "true", "TIMEOUT"),
		},
	}
	assert.Equal(t, 1, CountRegressions(table, false))
	assert.Equal(t, 0, CountRegressions(table, true))
}

func TestCountRegressions_CorrectNewStatusNeverCounted(t *testing.T) {
	table := &Table{
		Columns: []ColumnSource{{}, {}},
		Rows: []*Row{
			row("false(reach)", "true"),
		},
	}
	assert.Equal(t, 0, CountRegressions(table, false))
}

func TestCountRegressions_FewerThanTwoColumns(t *testing.T) {
	table := &Table{Columns: []ColumnSource{{}}, Rows: []*Row{row("true")}}
	assert.Equal(t, 0, CountRegressions(table, false))
}
