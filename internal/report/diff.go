package report

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kvit-s/veribench/internal/model"
)

// expectedVerdict returns the text shown on the "expected" side of a
// wrong run's diff. For a run in CategoryWrong it is a fixed line
// naming the run's property file; it does not derive a concrete
// "true"/"false(kind)" verdict from the task file name. For any other
// run it returns the run's own status.
func expectedVerdict(run *model.Run) string {
	if run.Category == model.CategoryWrong {
		return "expected verdict consistent with " + run.PropertyFile
	}
	return run.Status
}

// wrongRunDiff produces a unified diff between the expected and the
// actually reported status for one wrongly-classified run, reusing
// the teacher's internal/benchmark/validator.go generateDiff shape
// (FromFile "expected" / ToFile "actual", 3 lines of context) so the
// report's embedded diff blocks are byte-for-byte the same style a
// reader of that file would recognize.
func wrongRunDiff(run *model.Run) (string, error) {
	if run.Category != model.CategoryWrong {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expectedVerdict(run)),
		B:        difflib.SplitLines(run.Status),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff run %s: %w", run.Identifier, err)
	}
	return text, nil
}
