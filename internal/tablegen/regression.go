package tablegen

import "github.com/kvit-s/veribench/internal/model"

const (
	statusTimeout   = "TIMEOUT"
	statusOutOfMem  = "OUT OF MEMORY"
)

// CountRegressions compares only the last two columns of t (ported
// from table-generator.py's getRegressionCount, which always diffs
// "the previous run and the most recent one"). A regression is a row
// whose status changed and whose new status isn't itself correct,
// excluding two kinds of noise:
//   - a "flapping timeout": the row timed out at some point before the
//     last column, the old status wasn't itself TIMEOUT, and the new
//     status is TIMEOUT again — only excluded when ignoreFlappingTimeouts
//     is set.
//   - a TIMEOUT<->"OUT OF MEMORY" pair, excluded unconditionally since
//     both are resource exhaustion, not a classification change.
func CountRegressions(t *Table, ignoreFlappingTimeouts bool) int {
	n := len(t.Columns)
	if n < 2 {
		return 0
	}
	oldIdx, newIdx := n-2, n-1

	everTimedOutBefore := make(map[int]bool)
	for ri, row := range t.Rows {
		for ci := 0; ci < newIdx; ci++ {
			if row.Cells[ci].Present && row.Cells[ci].Status == statusTimeout {
				everTimedOutBefore[ri] = true
				break
			}
		}
	}

	regressions := 0
	for ri, row := range t.Rows {
		oldCell, newCell := row.Cells[oldIdx], row.Cells[newIdx]
		if !newCell.Present || oldCell.Status == newCell.Status {
			continue
		}
		if newCell.Category == string(model.CategoryCorrect) {
			continue
		}
		if isTimeoutOOMPair(oldCell.Status, newCell.Status) {
			continue
		}
		if ignoreFlappingTimeouts && everTimedOutBefore[ri] &&
			oldCell.Status != statusTimeout && newCell.Status == statusTimeout {
			continue
		}
		regressions++
	}
	return regressions
}

func isTimeoutOOMPair(oldStatus, newStatus string) bool {
	return (oldStatus == statusTimeout && newStatus == statusOutOfMem) ||
		(oldStatus == statusOutOfMem && newStatus == statusTimeout)
}
