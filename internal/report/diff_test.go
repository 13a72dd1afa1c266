package report

import (
	"strings"
	"testing"

	"github.com/kvit-s/veribench/internal/model"
)

func TestWrongRunDiff_EmptyForNonWrongRuns(t *testing.T) {
	run := &model.Run{Category: model.CategoryCorrect, Status: "true"}
	diff, err := wrongRunDiff(run)
	if err != nil {
		t.Fatalf("wrongRunDiff: %v", err)
	}
	if diff != "" {
		t.Errorf("diff = %q, want empty for a correct run", diff)
	}
}

func TestWrongRunDiff_ProducesUnifiedDiffForWrongRuns(t *testing.T) {
	run := &model.Run{
		Identifier:   "b_false-valid-free.c",
		PropertyFile: "valid-memsafety.prp",
		Status:       "true",
		Category:     model.CategoryWrong,
	}
	diff, err := wrongRunDiff(run)
	if err != nil {
		t.Fatalf("wrongRunDiff: %v", err)
	}
	if !strings.Contains(diff, "--- expected") || !strings.Contains(diff, "+++ actual") {
		t.Errorf("diff missing unified-diff markers: %s", diff)
	}
}
