//go:build linux

package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kvit-s/veribench/internal/localengine"
	"github.com/kvit-s/veribench/internal/model"
)

func TestReporter_StartRunSetAnnouncesRunCount(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	rs := &model.RunSet{Name: "reachability", Runs: []*model.Run{{}, {}}}

	r.StartRunSet(rs)

	out := buf.String()
	if !strings.Contains(out, "reachability") || !strings.Contains(out, "2 runs") {
		t.Errorf("output = %q", out)
	}
}

func TestReporter_RunCompletedTracksCategoryCounts(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	rs := &model.RunSet{Name: "reach", Runs: []*model.Run{{}, {}}}
	r.StartRunSet(rs)

	r.RunCompleted(localengine.WorkItem{RunSet: rs, Run: &model.Run{Identifier: "a.c", Category: model.CategoryCorrect, Status: "true"}})
	r.RunCompleted(localengine.WorkItem{RunSet: rs, Run: &model.Run{Identifier: "b.c", Category: model.CategoryWrong, Status: "true"}})

	if r.completed != 2 {
		t.Fatalf("completed = %d, want 2", r.completed)
	}
	if r.byCategory[model.CategoryCorrect] != 1 || r.byCategory[model.CategoryWrong] != 1 {
		t.Errorf("byCategory = %v", r.byCategory)
	}
}

func TestReporter_FinishPrintsSummaryAndTableCommand(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	rs := &model.RunSet{Name: "reach", Runs: []*model.Run{{}}}
	r.StartRunSet(rs)
	r.RunCompleted(localengine.WorkItem{RunSet: rs, Run: &model.Run{Identifier: "a.c", Category: model.CategoryCorrect, Status: "true"}})

	r.Finish("veritable results/*.results.xml")

	out := buf.String()
	if !strings.Contains(out, "correct: 1") {
		t.Errorf("summary missing correct count: %s", out)
	}
	if !strings.Contains(out, "veritable results/*.results.xml") {
		t.Errorf("summary missing table command reminder: %s", out)
	}
}
