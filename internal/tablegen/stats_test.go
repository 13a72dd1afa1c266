package tablegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cell(category, status string) Cell {
	return Cell{Present: true, Category: category, Status: status}
}

func TestComputeStatusCounts_PartitionsWrongByFalseKind(t *testing.T) {
	cells := []Cell{
		cell("correct", "true"),
		cell("correct", "false(reach)"),
		cell("wrong", "true"),
		cell("wrong", "false(reach)"),
		cell("wrong", "false(valid-deref)"),
		cell("wrong", "false(valid-free)"),
		cell("unknown", "unknown"),
		{Present: false},
	}
	c := ComputeStatusCounts(cells)
	assert.Equal(t, 7, c.Total)
	assert.Equal(t, 2, c.Correct)
	assert.Equal(t, 1, c.WrongTrue)
	assert.Equal(t, 1, c.WrongFalse)
	assert.Equal(t, 2, c.WrongProperty)
}

func TestComputeNumberColumnStats_SplitsCputimeByPartition(t *testing.T) {
	cells := []Cell{
		{Present: true, Category: "correct", Status: "true", CPUTime: "1.0s"},
		{Present: true, Category: "correct", Status: "false(reach)", CPUTime: "2.0s"},
		{Present: true, Category: "wrong", Status: "false(reach)", CPUTime: "3.0s"},
		{Present: true, Category: "wrong", Status: "false(valid-deref)", CPUTime: "4.0s"},
		{Present: false, CPUTime: "99s"},
	}
	stats := ComputeNumberColumnStats(cells, "cputime")
	assert.Equal(t, 4, stats.Total.Count)
	assert.InDelta(t, 10.0, stats.Total.Sum, 0.0001)

	assert.Equal(t, 2, stats.Correct.Count)
	assert.InDelta(t, 1.5, stats.Correct.Mean, 0.0001)

	assert.Equal(t, 1, stats.WrongFalse.Count)
	assert.InDelta(t, 3.0, stats.WrongFalse.Sum, 0.0001)

	assert.Equal(t, 1, stats.WrongProperty.Count)
	assert.InDelta(t, 4.0, stats.WrongProperty.Sum, 0.0001)

	assert.Equal(t, 0, stats.WrongTrue.Count)
}

func TestNewStatValue_Empty(t *testing.T) {
	sv := newStatValue(nil)
	assert.Equal(t, 0, sv.Count)
	assert.Equal(t, 0.0, sv.Sum)
}
