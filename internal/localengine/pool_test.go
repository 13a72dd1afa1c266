//go:build linux

package localengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kvit-s/veribench/internal/logging"
	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/toolplugin"
)

type echoTool struct{}

func (echoTool) Name() string                { return "echo" }
func (echoTool) Executable() (string, error) { return "/bin/sh", nil }
func (echoTool) Version(string) string       { return "" }
func (echoTool) Cmdline(executable string, options, sourceFiles []string, propertyFile string, limits toolplugin.Rlimits) []string {
	return []string{"-c", "echo VERIFICATION SUCCESSFUL"}
}
func (echoTool) WorkingDirectory(string) string                     { return "." }
func (echoTool) Environments(string) toolplugin.Environment          { return toolplugin.Environment{} }
func (echoTool) ProgramFiles(string) []string                        { return nil }
func (echoTool) DetermineResult(returnCode int, signal *int, outputLines []string, isTimeout bool) string {
	return "true"
}
func (echoTool) AddColumnValues(lines []string, cols []model.Column) []model.Column { return cols }

type collectingSink struct{ completed []string }

func (s *collectingSink) RunCompleted(item WorkItem) { s.completed = append(s.completed, item.Run.Identifier) }

func TestPool_RunProcessesEveryItem(t *testing.T) {
	dir := t.TempDir()
	rs := &model.RunSet{
		Name: "main",
		Runs: []*model.Run{
			{Identifier: "task1.c", LogFile: filepath.Join(dir, "task1.log")},
			{Identifier: "task2.c", LogFile: filepath.Join(dir, "task2.log")},
		},
	}
	q := NewQueue([]*model.RunSet{rs})

	sink := &collectingSink{}
	pool := New(q, echoTool{}, logging.NewStderr(true), Config{NumWorkers: 2}, sink)

	if err := pool.Run(context.Background(), 2); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.completed) != 2 {
		t.Fatalf("completed %d runs, want 2", len(sink.completed))
	}
	for _, run := range rs.Runs {
		if run.Status != "true" {
			t.Errorf("run %s status = %q, want true", run.Identifier, run.Status)
		}
		if run.Category != model.CategoryMissing {
			t.Errorf("run %s category = %q, want missing (no property file configured)", run.Identifier, run.Category)
		}
	}
}

func TestPool_RunStopsOnCancellation(t *testing.T) {
	dir := t.TempDir()
	var runs []*model.Run
	for i := 0; i < 50; i++ {
		runs = append(runs, &model.Run{Identifier: "t.c", LogFile: filepath.Join(dir, "log"+string(rune('a'+i))+".txt")})
	}
	rs := &model.RunSet{Name: "main", Runs: runs}
	q := NewQueue([]*model.RunSet{rs})

	pool := New(q, echoTool{}, logging.NewStderr(true), Config{NumWorkers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Run(ctx, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if q.Len() == 0 {
		t.Error("expected cancellation before the queue drained")
	}
}

func TestMergeEnvironment(t *testing.T) {
	os.Setenv("VERIBENCH_TEST_PATH", "/orig")
	defer os.Unsetenv("VERIBENCH_TEST_PATH")

	env := toolplugin.Environment{
		Set:     map[string]string{"FOO": "bar"},
		Prepend: map[string]string{"VERIBENCH_TEST_PATH": "/extra"},
	}
	merged := mergeEnvironment(env)
	if merged["FOO"] != "bar" {
		t.Errorf("FOO = %q", merged["FOO"])
	}
	want := "/extra" + string(os.PathListSeparator) + "/orig"
	if merged["VERIBENCH_TEST_PATH"] != want {
		t.Errorf("VERIBENCH_TEST_PATH = %q, want %q", merged["VERIBENCH_TEST_PATH"], want)
	}
}
