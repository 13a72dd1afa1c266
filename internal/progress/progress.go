//go:build linux

// Package progress renders the live per-run-set terminal status line
// and the final summary block (§4.9's "prints a summary block... and
// a reminder of the table generator command"), grounded on
// internal/benchmark/progress.go's Progress type generalized from a
// single sequential run loop into a localengine.ResultSink fed by
// concurrent workers.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/kvit-s/veribench/internal/localengine"
	"github.com/kvit-s/veribench/internal/model"
)

// Reporter is a localengine.ResultSink that prints one overwritten
// status line per completed run and a final summary, the live-status
// counterpart to internal/report.Handler's file outputs.
type Reporter struct {
	mu sync.Mutex

	out       io.Writer
	total     int
	completed int
	byCategory map[model.ResultCategory]int
	startTime time.Time

	currentRunSet string
	lastLineWidth int
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:        out,
		byCategory: make(map[model.ResultCategory]int),
		startTime:  time.Now(),
	}
}

// NewStderrReporter is the convenience constructor the driver CLI
// uses by default, matching internal/ui's preference for stderr when
// progress output shares a terminal with a program's real stdout.
func NewStderrReporter() *Reporter {
	return NewReporter(os.Stderr)
}

// StartRunSet announces a run set beginning (§5's ordering guarantee:
// "run-set-level start precedes any run-in-set start") and adds its
// run count to the running total so the percentage reflects every
// selected run set, not just the first.
func (r *Reporter) StartRunSet(rs *model.RunSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total += len(rs.Runs)
	r.currentRunSet = rs.Name
	headerColor.Fprintf(r.out, "\n=== run set %q: %d runs ===\n", rs.Name, len(rs.Runs))
}

// RunCompleted implements localengine.ResultSink.
func (r *Reporter) RunCompleted(item localengine.WorkItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	r.byCategory[item.Run.Category]++

	line := r.statusLine(item.Run)
	r.clearLineLocked()
	categoryColorFor(item.Run.Category).Fprint(r.out, line)
	r.lastLineWidth = len(stripANSIWidth(line))
}

func (r *Reporter) statusLine(run *model.Run) string {
	percent := 0
	if r.total > 0 {
		percent = r.completed * 100 / r.total
	}
	return fmt.Sprintf("\r[%d/%d %d%%] %s: %s (%s)", r.completed, r.total, percent, run.Identifier, run.Category, statusOrEmpty(run.Status))
}

func statusOrEmpty(status string) string {
	if status == "" {
		return "no status"
	}
	return status
}

// clearLineLocked overwrites the previous status line with spaces
// before printing a new one, the same carriage-return technique
// internal/ui/writer.go's ToolProgress uses for its animated dots.
func (r *Reporter) clearLineLocked() {
	if r.lastLineWidth == 0 {
		return
	}
	fmt.Fprint(r.out, "\r"+strings.Repeat(" ", r.lastLineWidth))
}

func categoryColorFor(category model.ResultCategory) *color.Color {
	switch category {
	case model.CategoryCorrect:
		return correctColor
	case model.CategoryWrong:
		return wrongColor
	case model.CategoryError:
		return wrongColor
	default:
		return unknownColor
	}
}

// stripANSIWidth approximates the printable width of line for the
// overwrite-with-spaces trick; exact ANSI-escape accounting is not
// worth it here since the terminal simply truncates extra spaces.
func stripANSIWidth(line string) int {
	return len(line)
}

// Finish prints the final summary block §4.9 requires: overall
// counts by category and the table-generator command reminder.
func (r *Reporter) Finish(tableCommand string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLineLocked()
	elapsed := time.Since(r.startTime)

	headerColor.Fprintf(r.out, "\n\n=== summary ===\n")
	fmt.Fprintf(r.out, "total:   %d\n", r.completed)
	fmt.Fprintf(r.out, "correct: %d\n", r.byCategory[model.CategoryCorrect])
	fmt.Fprintf(r.out, "wrong:   %d\n", r.byCategory[model.CategoryWrong])
	fmt.Fprintf(r.out, "unknown: %d\n", r.byCategory[model.CategoryUnknown])
	fmt.Fprintf(r.out, "error:   %d\n", r.byCategory[model.CategoryError])
	fmt.Fprintf(r.out, "missing: %d\n", r.byCategory[model.CategoryMissing])
	fmt.Fprintf(r.out, "elapsed: %s\n", elapsed.Round(time.Second))

	if tableCommand != "" {
		dimColor.Fprintf(r.out, "\nrun '%s' to generate a cross-benchmark table\n", tableCommand)
	}
}
