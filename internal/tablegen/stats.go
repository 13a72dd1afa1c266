package tablegen

import (
	"sort"

	"github.com/kvit-s/veribench/internal/classify"
	"github.com/kvit-s/veribench/internal/model"
)

// StatValue is sum/min/max/mean/median over one partition of values,
// ported from table-generator.py's StatValue.fromList.
type StatValue struct {
	Count  int
	Sum    float64
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

func newStatValue(values []float64) StatValue {
	if len(values) == 0 {
		return StatValue{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range values {
		sum += v
	}
	return StatValue{
		Count:  len(values),
		Sum:    sum,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   sum / float64(len(values)),
		Median: sorted[len(sorted)/2],
	}
}

// wrongBucket classifies a wrong run's status into the wrong-true /
// wrong-false / wrong-property split table-generator.py's
// getCategoryCount makes: "false(reach)" is wrong-false, every other
// false(<kind>) is wrong-property, "true" is wrong-true.
type wrongBucket int

const (
	bucketNone wrongBucket = iota
	bucketWrongTrue
	bucketWrongFalse
	bucketWrongProperty
)

func classifyWrongBucket(status string) wrongBucket {
	switch status {
	case "true":
		return bucketWrongTrue
	case "false(reach)":
		return bucketWrongFalse
	case "false(termination)", "false(valid-deref)", "false(valid-free)", "false(valid-memtrack)":
		return bucketWrongProperty
	default:
		return bucketNone
	}
}

// StatusCounts is the status column's own statistics row: total,
// correct, wrong-true, wrong-false, wrong-property and score (§4.10).
type StatusCounts struct {
	Total         int
	Correct       int
	WrongTrue     int
	WrongFalse    int
	WrongProperty int
	Score         int
}

// ComputeStatusCounts tallies one column's worth of cells (i.e. one
// input file's results) by category and wrong-bucket.
func ComputeStatusCounts(cells []Cell) StatusCounts {
	var c StatusCounts
	for _, cell := range cells {
		if !cell.Present || cell.Status == "" {
			continue
		}
		c.Total++
		c.Score += classify.CalculateScore(model.ResultCategory(cell.Category), cell.Status)

		switch cell.Category {
		case string(model.CategoryCorrect):
			c.Correct++
		case string(model.CategoryWrong):
			switch classifyWrongBucket(cell.Status) {
			case bucketWrongTrue:
				c.WrongTrue++
			case bucketWrongFalse:
				c.WrongFalse++
			case bucketWrongProperty:
				c.WrongProperty++
			}
		}
	}
	return c
}

// NumberColumnStats is one numeric column's statistics, partitioned
// the same way as StatusCounts but holding a StatValue per partition
// instead of a count (table-generator.py's getStatsOfNumberColumn).
type NumberColumnStats struct {
	Total         StatValue
	Correct       StatValue
	WrongTrue     StatValue
	WrongFalse    StatValue
	WrongProperty StatValue
}

// ComputeNumberColumnStats reads columnTitle out of each cell (falling
// back to the built-in cputime/walltime fields for those two titles)
// and computes sum/min/max/mean/median per partition, stripping
// trailing units via parseNumber.
func ComputeNumberColumnStats(cells []Cell, columnTitle string) NumberColumnStats {
	var all, correct, wrongTrue, wrongFalse, wrongProperty []float64

	for _, cell := range cells {
		if !cell.Present {
			continue
		}
		raw, ok := valueFor(cell, columnTitle)
		if !ok {
			continue
		}
		v, ok := parseNumber(raw)
		if !ok {
			continue
		}
		all = append(all, v)

		switch cell.Category {
		case string(model.CategoryCorrect):
			correct = append(correct, v)
		case string(model.CategoryWrong):
			switch classifyWrongBucket(cell.Status) {
			case bucketWrongTrue:
				wrongTrue = append(wrongTrue, v)
			case bucketWrongFalse:
				wrongFalse = append(wrongFalse, v)
			case bucketWrongProperty:
				wrongProperty = append(wrongProperty, v)
			}
		}
	}

	return NumberColumnStats{
		Total:         newStatValue(all),
		Correct:       newStatValue(correct),
		WrongTrue:     newStatValue(wrongTrue),
		WrongFalse:    newStatValue(wrongFalse),
		WrongProperty: newStatValue(wrongProperty),
	}
}

func valueFor(cell Cell, columnTitle string) (string, bool) {
	switch columnTitle {
	case "cputime":
		return cell.CPUTime, cell.CPUTime != ""
	case "walltime":
		return cell.WallTime, cell.WallTime != ""
	default:
		v, ok := cell.Columns[columnTitle]
		return v, ok
	}
}
