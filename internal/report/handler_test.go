//go:build linux

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kvit-s/veribench/internal/localengine"
	"github.com/kvit-s/veribench/internal/logging"
	"github.com/kvit-s/veribench/internal/model"
)

func TestHandler_FinishWritesXMLTextAndCSV(t *testing.T) {
	dir := t.TempDir()
	bench := &model.Benchmark{Name: "suite", ToolName: "mytool", ToolVersion: "1.0"}
	rs := &model.RunSet{Index: 1, Name: "reach"}
	run := &model.Run{Identifier: "a.c", Status: "true", Category: model.CategoryCorrect}
	rs.Runs = []*model.Run{run}

	log := logging.NewStderr(false)
	h := New(bench, dir, log)
	h.RunCompleted(localengine.WorkItem{RunSet: rs, Run: run})

	stats, err := h.Finish(rs)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if stats.Total != 1 || stats.CorrectTrue != 1 {
		t.Errorf("stats = %+v", stats)
	}

	files := h.CreatedFiles(rs)
	if len(files) != 3 {
		t.Fatalf("CreatedFiles = %v, want 3 entries", files)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected file %s to exist: %v", f, err)
		}
	}

	xmlPath := filepath.Join(dir, "suite.reach.results.xml")
	if _, err := os.Stat(xmlPath); err != nil {
		t.Errorf("expected %s to exist: %v", xmlPath, err)
	}
}

func TestHandler_SecondRunWithinIntervalDoesNotReflush(t *testing.T) {
	dir := t.TempDir()
	bench := &model.Benchmark{Name: "suite"}
	rs := &model.RunSet{Index: 1, Name: "reach"}
	first := &model.Run{Identifier: "a.c", Status: "true", Category: model.CategoryCorrect}
	second := &model.Run{Identifier: "b.c", Status: "", Category: model.CategoryMissing}
	rs.Runs = []*model.Run{first, second}

	log := logging.NewStderr(false)
	h := New(bench, dir, log)

	// The first completion flushes immediately (no prior flush to throttle against).
	h.RunCompleted(localengine.WorkItem{RunSet: rs, Run: first})
	xmlPath := filepath.Join(dir, "suite.reach.results.xml")
	firstBody, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatalf("read xml after first flush: %v", err)
	}

	// A second completion immediately after should be throttled: the
	// on-disk XML must still be the one written at the first flush, where
	// b.c has no status yet.
	second.Status = "unknown"
	h.RunCompleted(localengine.WorkItem{RunSet: rs, Run: second})
	secondBody, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatalf("read xml after second completion: %v", err)
	}
	if string(firstBody) != string(secondBody) {
		t.Errorf("expected throttled second completion to leave the xml unchanged")
	}

	// Finish forces the definitive flush, picking up both runs.
	stats, err := h.Finish(rs)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	finalBody, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatalf("read xml after Finish: %v", err)
	}
	if !strings.Contains(string(finalBody), `status="unknown"`) {
		t.Errorf("expected final flush to include the second run: %s", finalBody)
	}
}
