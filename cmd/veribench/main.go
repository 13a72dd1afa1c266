//go:build linux

// Command veribench is the benchmark driver (§6.4): it expands one or
// more benchmark-definition XML files into flattened run lists and
// executes them, either on the local machine or dispatched to a
// cluster client, writing the XML/TXT/CSV result trio and a live
// terminal status line as it goes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kvit-s/veribench/internal/classify"
	"github.com/kvit-s/veribench/internal/config"
	"github.com/kvit-s/veribench/internal/localengine"
	"github.com/kvit-s/veribench/internal/lock"
	"github.com/kvit-s/veribench/internal/logging"
	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/progress"
	"github.com/kvit-s/veribench/internal/remote"
	"github.com/kvit-s/veribench/internal/report"
	"github.com/kvit-s/veribench/internal/toolplugin"
	_ "github.com/kvit-s/veribench/internal/toolplugin/builtin"
	"github.com/kvit-s/veribench/internal/xmlbench"
	"go.uber.org/zap"
)

// stringSliceFlag collects repeated occurrences of a flag into a
// slice, grounded on golang-benchmarks' cmd/bent counterFlag pattern
// of implementing flag.Value for a repeatable option.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return fmt.Sprint([]string(*s)) }

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		debug         = flag.Bool("debug", false, "enable development logging")
		runDefs       stringSliceFlag
		sourceFiles   stringSliceFlag
		name          = flag.String("n", "", "benchmark name override (also --name)")
		nameLong      = flag.String("name", "", "benchmark name override")
		outputPath    = flag.String("o", "", "output path override (also --outputpath)")
		outputLong    = flag.String("outputpath", "", "output path override")
		timeLimit     = flag.Int64("T", 0, "hard time limit override in seconds (also --timelimit)")
		timeLong      = flag.Int64("timelimit", 0, "hard time limit override in seconds")
		memLimit      = flag.Int64("M", 0, "memory limit override in MB (also --memorylimit)")
		memLong       = flag.Int64("memorylimit", 0, "memory limit override in MB")
		numThreads    = flag.Int("N", 0, "worker thread count override (also --numOfThreads)")
		numThreadsLg  = flag.Int("numOfThreads", 0, "worker thread count override")
		limitCores    = flag.Int("c", 0, "cores per run override (also --limitCores)")
		limitCoresLg  = flag.Int("limitCores", 0, "cores per run override")
		moduloAndRest = flag.String("x", "", "a,b: run only the run sets whose 1-based index i has i mod a == b (also --moduloAndRest)")
		commit        = flag.Bool("commit", false, "commit results to a git repository (out of scope; logged and ignored)")
		_             = flag.String("message", "", "commit message (out of scope; logged and ignored)")
		configPath    = flag.String("config", "", "path to an operator config YAML file")
		cloud         = flag.Bool("cloud", false, "dispatch runs to the cluster client instead of running locally")
		cloudMaster   = flag.String("cloudMaster", "", "cluster master address")
		cloudPriority = flag.String("cloudPriority", "", "one of IDLE, LOW, HIGH, URGENT")
		cloudCPUModel = flag.String("cloudCPUModel", "", "substring match against a worker's reported CPU model")
	)
	flag.Var(&runDefs, "r", "run-definition name to select (repeatable; also --rundefinition)")
	flag.Var(&runDefs, "rundefinition", "run-definition name to select (repeatable)")
	flag.Var(&sourceFiles, "s", "source-file-set name to select (repeatable; also --sourcefiles)")
	flag.Var(&sourceFiles, "sourcefiles", "source-file-set name to select (repeatable)")
	flag.Parse()

	if *commit {
		fmt.Fprintln(os.Stderr, "veribench: --commit is out of scope (git commit helpers are not implemented); ignoring")
	}

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: veribench [options] benchmark-definition.xml...")
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "veribench: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *cloudCPUModel != "" {
		// The value is accepted but not used: unlike cloudMaster and
		// cloudPriority it is not passed to the cluster client, and it
		// does not replace the benchmark's cpuModel requirement.
	}

	limitOverrides := xmlbench.LimitOverrides{}
	if v := firstNonZeroInt64(*timeLimit, *timeLong); v != 0 {
		limitOverrides.HardTimeS, limitOverrides.HasHardTimeS = v, true
	}
	if v := firstNonZeroInt64(*memLimit, *memLong); v != 0 {
		limitOverrides.MemoryMB, limitOverrides.HasMemoryMB = v, true
	}
	if v := firstNonZero(*limitCores, *limitCoresLg); v != 0 {
		limitOverrides.Cores, limitOverrides.HasCores = v, true
	}

	threads := firstNonZero(*numThreads, *numThreadsLg)

	var moduloAndRestPair *[2]int
	if *moduloAndRest != "" {
		pair, err := parseModuloAndRest(*moduloAndRest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "veribench: %v\n", err)
			return 1
		}
		moduloAndRestPair = pair
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()
	// SIGTERM is caught and dropped so the driver survives it; children
	// still get the default disposition.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGTERM)

	exitCode := 0
	for _, path := range paths {
		opts := xmlbench.ExpandOptions{
			Name:               firstNonEmpty(*name, *nameLong),
			OutputPath:         firstNonEmpty(*outputPath, *outputLong),
			RunDefinitionNames: runDefs,
			SourceFileSetNames: sourceFiles,
			Limits:             limitOverrides,
			Threads:            threads,
			HasThreads:         threads != 0,
			ModuloAndRest:      moduloAndRestPair,
			NoLocalExecutable:  *cloud,
			DefaultThreads:     cfg.Limits.DefaultThreads,
		}
		if err := processBenchmark(ctx, path, opts, cfg, *debug, *cloud, *cloudMaster, *cloudPriority); err != nil {
			fmt.Fprintf(os.Stderr, "veribench: %s: %v\n", path, err)
			exitCode = 1
		}
	}
	return exitCode
}

func processBenchmark(ctx context.Context, path string, opts xmlbench.ExpandOptions, cfg *config.Config, debug, cloud bool, cloudMaster, cloudPriority string) error {
	doc, err := xmlbench.Load(path)
	if err != nil {
		return fmt.Errorf("load benchmark definition: %w", err)
	}
	bench, warnings, err := xmlbench.Expand(doc, path, opts)
	if err != nil {
		return fmt.Errorf("expand benchmark definition: %w", err)
	}
	for _, w := range warnings.Messages() {
		fmt.Fprintf(os.Stderr, "veribench: warning: %s\n", w)
	}

	l, err := lock.Acquire(bench.LogFolder, func() {})
	if err != nil {
		return fmt.Errorf("lock output folder: %w", err)
	}
	defer l.Release()

	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = filepath.Join(bench.LogFolder, "veribench.log")
	}
	log, err := logging.New(logPath, debug || cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Close()

	tool, err := toolplugin.New(bench.ToolName)
	if err != nil {
		return fmt.Errorf("resolve tool plug-in %q: %w", bench.ToolName, err)
	}

	handler := report.New(bench, bench.LogFolder, log)
	reporter := progress.NewStderrReporter()
	tableCommand := fmt.Sprintf("veritable %s.*.results.xml", bench.BaseName())

	if cloud {
		client := remote.NewClient(cfg.Cloud.ClientExecutable, firstNonEmpty(cloudMaster, cfg.Cloud.Master), firstNonEmpty(cloudPriority, cfg.Cloud.Priority), cfg.Cloud.Token, log)
		for _, rs := range bench.RunSets {
			reporter.StartRunSet(rs)
			if err := runRemote(ctx, client, bench, rs, tool, handler, reporter); err != nil {
				log.Error("remote run set failed", err)
				fmt.Fprintf(os.Stderr, "veribench: run set %s: %v\n", rs.Name, err)
			}
			if _, err := handler.Finish(rs); err != nil {
				log.Error("finish run set results", err)
			}
		}
		reporter.Finish(tableCommand)
		return nil
	}

	topology, err := localengine.DiscoverTopology()
	if err != nil {
		log.Warn("CPU topology discovery failed, core pinning disabled", zap.Error(err))
	}

	for _, rs := range bench.RunSets {
		reporter.StartRunSet(rs)
		queue := localengine.NewQueue([]*model.RunSet{rs})

		numWorkers := bench.Threads
		if numWorkers <= 0 {
			numWorkers = 1
		}

		var assignment localengine.Assignment
		if topology != nil {
			assignment, err = localengine.AssignCores(topology, bench.Limits.Cores, numWorkers)
			if err != nil {
				log.Warn("core assignment failed, running unpinned", zap.Error(err))
				assignment = nil
			}
		}

		poolCfg := localengine.Config{
			NumWorkers:       numWorkers,
			CoreAssignment:   assignment,
			CgroupSubsystems: cfg.ResourceGroups.Subsystems,
			MaxLogSizeBytes:  cfg.Limits.OutputMaxSizeBytes,
			Limits:           bench.Limits,
		}
		pool := localengine.New(queue, tool, log, poolCfg, handler, reporter)
		if err := pool.Run(ctx, numWorkers); err != nil {
			log.Error("run set execution failed", err)
			fmt.Fprintf(os.Stderr, "veribench: run set %s: %v\n", rs.Name, err)
		}

		if _, err := handler.Finish(rs); err != nil {
			log.Error("finish run set results", err)
		}
	}
	reporter.Finish(tableCommand)
	return nil
}

// runRemote dispatches one run set's runs through the cluster client
// and folds each returned sidecar back into the run the same way the
// local executor would have: DetermineResult, then classify.
func runRemote(ctx context.Context, client *remote.Client, bench *model.Benchmark, rs *model.RunSet, tool toolplugin.Tool, handler *report.Handler, reporter *progress.Reporter) error {
	executable := bench.ToolExecutable
	if executable == "" {
		if exe, err := tool.Executable(); err == nil {
			executable = exe
		} else {
			executable = tool.Name()
		}
	}

	runs := rs.AllRuns()
	records := make([]remote.Record, len(runs))
	for i, r := range runs {
		rlimits := toolplugin.Rlimits{
			MemoryMB:  bench.Limits.MemoryMB,
			HardTimeS: bench.Limits.HardTimeS,
			SoftTimeS: bench.Limits.SoftTimeS,
			Cores:     bench.Limits.Cores,
		}
		args := tool.Cmdline(executable, r.Options, r.SourceFiles, r.PropertyFile, rlimits)
		env := tool.Environments(executable)
		records[i] = remote.Record{
			Args:           args,
			Env:            env.Set,
			MemoryLimitMB:  bench.Limits.MemoryMB,
			HardTimeLimitS: bench.Limits.HardTimeS,
			Cores:          bench.Limits.Cores,
			OutputFileName: r.LogFile,
		}
	}

	if _, err := client.Dispatch(ctx, filepath.Dir(rs.LogFolder), runs, records); err != nil {
		return fmt.Errorf("dispatch to cluster client: %w", err)
	}

	for _, r := range runs {
		result, err := remote.ParseSidecar(r.LogFile + ".stdOut")
		if err != nil {
			r.Status = "unknown"
			r.Category = model.CategoryUnknown
			handler.RunCompleted(localengine.WorkItem{RunSet: rs, Run: r})
			reporter.RunCompleted(localengine.WorkItem{RunSet: rs, Run: r})
			continue
		}
		r.WallTime = result.WallTime
		r.CPUTime = result.CPUTime
		r.MemUsage = result.MemUsage

		status := tool.DetermineResult(result.Status.ExitCode, result.Status.Signal, result.Output, false)
		if status == "" {
			status = "unknown"
		}
		r.Status = status
		r.Category = classify.GetResultCategory(filepath.Base(r.Identifier), status, r.PropertyFile)
		r.Columns = tool.AddColumnValues(result.Output, r.Columns)

		handler.RunCompleted(localengine.WorkItem{RunSet: rs, Run: r})
		reporter.RunCompleted(localengine.WorkItem{RunSet: rs, Run: r})
	}
	return nil
}

func parseModuloAndRest(value string) (*[2]int, error) {
	var a, b int
	if _, err := fmt.Sscanf(value, "%d,%d", &a, &b); err != nil {
		return nil, fmt.Errorf("invalid -x/--moduloAndRest value %q, expected \"a,b\"", value)
	}
	return &[2]int{a, b}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroInt64(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
