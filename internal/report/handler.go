//go:build linux

// Package report is the output handler / aggregator (§4.9): it
// accumulates per-run-set XML entries, a plain-text log with aligned
// columns, and a statistics counter, flushing the XML throttled during
// execution and once more after the run set finishes.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kvit-s/veribench/internal/localengine"
	"github.com/kvit-s/veribench/internal/logging"
	"github.com/kvit-s/veribench/internal/model"
)

// flushInterval is the throttle §4.9 specifies ("at most once every ~10s").
const flushInterval = 10 * time.Second

// runSetState is the mutable per-run-set accumulator the Handler
// guards with its single mutex (§5 "Shared resources": "the output
// handler's XML/text/statistics state, exclusive-access mutex around
// every mutation and flush").
type runSetState struct {
	runSet      *model.RunSet
	stats       Stats
	lastFlush   time.Time
	createdFiles []string
}

// Handler is the localengine.ResultSink implementation that turns
// completed runs into the files §4.9 requires. It generalizes
// internal/benchmark/report.go's single end-of-batch ReportGenerator
// into an incremental writer invoked once per completed run.
type Handler struct {
	mu       sync.Mutex
	outDir   string
	bench    *model.Benchmark
	log      *logging.Logger
	byRunSet map[int]*runSetState
}

// New creates a Handler writing into outDir, one XML/TXT/CSV file trio
// per run set, named after the benchmark and the run set.
func New(bench *model.Benchmark, outDir string, log *logging.Logger) *Handler {
	return &Handler{
		outDir:   outDir,
		bench:    bench,
		log:      log,
		byRunSet: make(map[int]*runSetState),
	}
}

// RunCompleted implements localengine.ResultSink. It folds the run
// into its run set's statistics and flushes the XML/TXT/CSV trio if
// more than flushInterval has passed since the last flush for that
// run set.
func (h *Handler) RunCompleted(item localengine.WorkItem) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.stateFor(item.RunSet)
	state.stats.Add(item.Run)

	if time.Since(state.lastFlush) < flushInterval {
		return
	}
	if err := h.flushLocked(state); err != nil {
		h.log.Error("flush run set results", err)
		return
	}
	state.lastFlush = time.Now()
}

func (h *Handler) stateFor(rs *model.RunSet) *runSetState {
	state, ok := h.byRunSet[rs.Index]
	if !ok {
		state = &runSetState{runSet: rs}
		h.byRunSet[rs.Index] = state
	}
	return state
}

// Finish performs the final, unconditional flush §4.9 requires after
// a run set completes and returns the run set's statistics; it prints
// nothing. Call once per run set once its queue segment has fully
// drained.
func (h *Handler) Finish(rs *model.RunSet) (Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.stateFor(rs)
	if err := h.flushLocked(state); err != nil {
		return state.stats, err
	}
	return state.stats, nil
}

// CreatedFiles returns every output path written for rs so far,
// matching §4.9's "the list of created files".
func (h *Handler) CreatedFiles(rs *model.RunSet) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.stateFor(rs)
	out := make([]string, len(state.createdFiles))
	copy(out, state.createdFiles)
	return out
}

func (h *Handler) flushLocked(state *runSetState) error {
	base := filepath.Join(h.outDir, fmt.Sprintf("%s.%s", h.bench.BaseName(), sanitizeName(state.runSet.Name)))
	if err := os.MkdirAll(h.outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	xmlPath := base + ".results.xml"
	doc := buildRunSetXML(h.bench, state.runSet)
	body, err := marshalRunSetXML(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(xmlPath, body, 0644); err != nil {
		return fmt.Errorf("write %s: %w", xmlPath, err)
	}
	state.createdFiles = appendUnique(state.createdFiles, xmlPath)

	txtPath := base + ".results.txt"
	txtFile, err := os.Create(txtPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", txtPath, err)
	}
	log := newTextLog(txtFile)
	if err := log.writeHeader(h.bench.Columns); err != nil {
		txtFile.Close()
		return err
	}
	for _, run := range state.runSet.Runs {
		if err := log.writeRun(run); err != nil {
			txtFile.Close()
			return err
		}
	}
	if err := txtFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", txtPath, err)
	}
	state.createdFiles = appendUnique(state.createdFiles, txtPath)

	csvPath := base + ".results.csv"
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", csvPath, err)
	}
	if err := writeCSV(csvFile, state.runSet); err != nil {
		csvFile.Close()
		return err
	}
	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", csvPath, err)
	}
	state.createdFiles = appendUnique(state.createdFiles, csvPath)

	return nil
}

func appendUnique(list []string, path string) []string {
	for _, existing := range list {
		if existing == path {
			return list
		}
	}
	return append(list, path)
}

func sanitizeName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
