//go:build linux

// Package localengine runs a benchmark's flattened run list on the
// local machine: a fixed worker pool pulls from a FIFO queue, each
// worker pinned to its own core assignment, every run going through
// the run executor and the result classifier before being handed to
// the reporter.
package localengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kvit-s/veribench/internal/classify"
	"github.com/kvit-s/veribench/internal/logging"
	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/runexec"
	"github.com/kvit-s/veribench/internal/toolplugin"
)

// ResultSink receives one completed run at a time, in whatever order
// workers finish them (not necessarily queue order). The reporter
// implements this to flush throttled/final XML and progress implements
// it to update the terminal status line.
type ResultSink interface {
	RunCompleted(item WorkItem)
}

// Pool runs every item in a Queue across a fixed number of concurrent
// workers, each confined to its own core set when cpuset pinning is
// available. It generalizes internal/benchmark/runner.go's Runner
// (there, a single sequential loop over benchmarks) into N concurrent
// workers draining a shared queue, matching §4.6's local engine.
type Pool struct {
	queue    *Queue
	tool     toolplugin.Tool
	executor *runexec.Executor
	log      *logging.Logger
	sinks    []ResultSink

	coreAssignment Assignment // len == numWorkers, empty entries mean "no pinning"
	cgroupSubsystems []string
	maxLogSizeBytes  int64
	limits           model.Limits
}

// Config configures a Pool.
type Config struct {
	NumWorkers       int
	CoreAssignment   Assignment // optional; nil disables core pinning
	CgroupSubsystems []string
	MaxLogSizeBytes  int64
	Limits           model.Limits // the benchmark's resolved resource limits
}

// New builds a Pool over queue using tool to build command lines and
// classify to score results once the executor returns.
func New(queue *Queue, tool toolplugin.Tool, log *logging.Logger, cfg Config, sinks ...ResultSink) *Pool {
	return &Pool{
		queue:            queue,
		tool:             tool,
		executor:         runexec.New(log),
		log:              log,
		sinks:            sinks,
		coreAssignment:   cfg.CoreAssignment,
		cgroupSubsystems: cfg.CgroupSubsystems,
		maxLogSizeBytes:  cfg.MaxLogSizeBytes,
		limits:           cfg.Limits,
	}
}

// Run drains the queue across numWorkers goroutines (at least one), blocking
// until every item is processed or ctx is cancelled. Cancellation is
// cooperative: a worker finishes (or is killed out of) its current
// run and then stops picking up new work, matching the original's
// Esc/Ctrl+C "skip current, then stop" semantics carried over from
// internal/benchmark/runner.go's RunAll.
func (p *Pool) Run(ctx context.Context, numWorkers int) error {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	var mu sync.Mutex // guards queue.Pop, which is not itself goroutine-safe
	var wg sync.WaitGroup
	errs := make([]error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerIndex int) {
			defer wg.Done()
			cores := p.coresForWorker(workerIndex)
			p.log.WorkerStarted(workerIndex, cores)
			defer p.log.WorkerStopped(workerIndex)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				mu.Lock()
				item, ok := p.queue.Pop()
				mu.Unlock()
				if !ok {
					return
				}

				if err := p.runOne(ctx, item, cores); err != nil {
					errs[workerIndex] = err
					p.log.Error("run failed", err)
				}

				for _, sink := range p.sinks {
					sink.RunCompleted(item)
				}
			}
		}(w)
	}

	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) coresForWorker(workerIndex int) []int {
	if workerIndex < len(p.coreAssignment) {
		return p.coreAssignment[workerIndex]
	}
	return nil
}

// runOne builds the command line for one run via the tool plug-in,
// executes it, classifies the result and writes it back onto the Run
// (§4.3's result slots, §4.8 classification).
func (p *Pool) runOne(ctx context.Context, item WorkItem, cores []int) error {
	run := item.Run

	executable, err := p.tool.Executable()
	if err != nil {
		run.Status = "error (tool not found)"
		run.Category = model.CategoryError
		return fmt.Errorf("resolve executable for run %s: %w", run.Identifier, err)
	}

	rlimits := toolplugin.Rlimits{
		MemoryMB:  p.limits.MemoryMB,
		HardTimeS: p.limits.HardTimeS,
		SoftTimeS: p.limits.SoftTimeS,
		Cores:     len(cores),
	}
	args := p.tool.Cmdline(executable, run.Options, run.SourceFiles, run.PropertyFile, rlimits)
	env := p.tool.Environments(executable)

	spec := runexec.Spec{
		Executable:       executable,
		Args:             args,
		WorkingDirectory: p.tool.WorkingDirectory(executable),
		Env:              mergeEnvironment(env),
		LogPath:          run.LogFile,
		MemoryLimitMB:    p.limits.MemoryMB,
		HardTimeLimitS:   p.limits.HardTimeS,
		SoftTimeLimitS:   p.limits.SoftTimeS,
		Cores:            cores,
		CgroupSubsystems: p.cgroupSubsystems,
		MaxLogSizeBytes:  p.maxLogSizeBytes,
	}

	start := time.Now()
	result, err := p.executor.Run(ctx, spec)
	wallTime := time.Since(start)
	if err != nil {
		run.Status = "error (executor failure)"
		run.Category = model.CategoryError
		return fmt.Errorf("execute run %s: %w", run.Identifier, err)
	}

	run.WallTime = wallTime
	run.CPUTime = result.CPUTime
	if result.MemoryKnown {
		run.MemUsage = result.MemoryUsageBytes
	}

	status := p.tool.DetermineResult(result.Status.ExitCode, result.Status.Signal, result.OutputLines, result.IsTimeout)
	// A normal verdict (or none) seen together with a timeout becomes
	// TIMEOUT; a likely out-of-memory kill becomes OUT OF MEMORY.
	normal := status == "" || status == "true" || status == "unknown" || (len(status) >= 5 && status[:5] == "false")
	if result.IsTimeout && normal {
		status = "TIMEOUT"
	}
	if runexec.IsLikelyOOM(spec, result) {
		status = "OUT OF MEMORY"
	}
	run.Status = status
	run.Category = classify.GetResultCategory(filepath.Base(run.Identifier), status, run.PropertyFile)

	run.Columns = p.tool.AddColumnValues(result.OutputLines, run.Columns)

	return nil
}

// mergeEnvironment applies a plug-in's requested environment mutations
// against the current process's environment: Set overrides outright,
// Prepend/Append extend an existing variable (e.g. PATH) with a
// separator, matching the original runexecutor.py's three-way
// environment-merge contract (§4.4).
func mergeEnvironment(env toolplugin.Environment) map[string]string {
	merged := make(map[string]string, len(env.Set)+len(env.Prepend)+len(env.Append))
	for k, v := range env.Set {
		merged[k] = v
	}
	for k, v := range env.Prepend {
		merged[k] = v + string(os.PathListSeparator) + os.Getenv(k)
	}
	for k, v := range env.Append {
		merged[k] = os.Getenv(k) + string(os.PathListSeparator) + v
	}
	return merged
}
