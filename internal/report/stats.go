package report

import (
	"fmt"
	"strings"

	"github.com/kvit-s/veribench/internal/classify"
	"github.com/kvit-s/veribench/internal/model"
)

// Stats is the per-category counter the output handler accumulates
// across one run set's completed runs (§4.9's "statistics counter
// across categories"), generalizing the flat successes/failures split
// in internal/benchmark/report.go's AggregatedStats into the closed
// five-category set §4.8 classifies into, split further by the
// reported true/false verdict for scoring.
type Stats struct {
	Total        int
	CorrectTrue  int
	CorrectFalse int
	WrongTrue    int
	WrongFalse   int
	Unknown      int
	Error        int
	Missing      int
	Score        int
}

// Add folds one completed run into the counters. It is safe to call
// concurrently only under the caller's own lock (Handler serializes
// this the same way internal/benchmark/report.go's ReportGenerator
// assumes single-threaded access to its accumulator).
func (s *Stats) Add(run *model.Run) {
	s.Total++
	s.Score += classify.CalculateScore(run.Category, run.Status)

	isTrue := strings.HasPrefix(run.Status, "true")
	switch run.Category {
	case model.CategoryCorrect:
		if isTrue {
			s.CorrectTrue++
		} else {
			s.CorrectFalse++
		}
	case model.CategoryWrong:
		if isTrue {
			s.WrongTrue++
		} else {
			s.WrongFalse++
		}
	case model.CategoryUnknown:
		s.Unknown++
	case model.CategoryError:
		s.Error++
	case model.CategoryMissing:
		s.Missing++
	}
}

// Summary renders the post-run-set block §4.9 requires: total plus
// the five-way correct/wrong-by-verdict/unknown breakdown.
func (s *Stats) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "results:\n")
	fmt.Fprintf(&sb, "  total files:            %d\n", s.Total)
	fmt.Fprintf(&sb, "  correct:                %d\n", s.CorrectTrue+s.CorrectFalse)
	fmt.Fprintf(&sb, "    correct true:         %d\n", s.CorrectTrue)
	fmt.Fprintf(&sb, "    correct false:        %d\n", s.CorrectFalse)
	fmt.Fprintf(&sb, "  wrong:                  %d\n", s.WrongTrue+s.WrongFalse)
	fmt.Fprintf(&sb, "    wrong true:           %d\n", s.WrongTrue)
	fmt.Fprintf(&sb, "    wrong false:          %d\n", s.WrongFalse)
	fmt.Fprintf(&sb, "  unknown:                %d\n", s.Unknown)
	fmt.Fprintf(&sb, "  error:                  %d\n", s.Error)
	fmt.Fprintf(&sb, "  missing:                %d\n", s.Missing)
	fmt.Fprintf(&sb, "  score:                  %d\n", s.Score)
	return sb.String()
}
