//go:build linux

// Package runexec launches a single verification run under resource
// limits and reports back what happened: wall time, CPU time, peak
// memory, the raw termination status and the captured log output.
// It is the Go counterpart of the original's run executor
// (SPEC_FULL.md §4.5), generalizing internal/tools/shell.go's
// process-group launch-and-kill pattern with cgroup accounting, rlimit
// installation and timeout/OOM reclassification.
package runexec

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kvit-s/veribench/internal/logging"
)

// Spec describes one run to execute.
type Spec struct {
	Executable       string
	Args             []string
	WorkingDirectory string
	Env              map[string]string // additional/overriding env vars for the child only

	LogPath string // merged stdout+stderr destination, truncated on open

	MemoryLimitMB int64 // 0 means unset
	HardTimeLimitS int64
	SoftTimeLimitS int64 // rlimit installed as a per-process RLIMIT_CPU; falls back to HardTimeLimitS when unset
	Cores          []int // physical core IDs to pin via cpuset, empty means unrestricted

	CgroupSubsystems []string // e.g. []string{"cpuacct", "cpuset", "memory"}
	MaxLogSizeBytes  int64    // 0 means unbounded
}

// Result reports what happened to a single run.
type Result struct {
	Status     ProcessStatus
	WallTime   time.Duration
	CPUTime    time.Duration
	CPUTimeKnown bool
	MemoryUsageBytes int64
	MemoryKnown      bool
	IsTimeout  bool
	OutputLines []string
}

// Executor runs one Spec at a time; it is not safe for concurrent use
// by multiple goroutines over the same instance because child
// processes are tracked one at a time, mirroring the original's
// one-executor-per-worker-slot model (§4.6 delegates concurrency to
// the worker pool, not to this type).
type Executor struct {
	log *logging.Logger
}

// New returns an Executor that logs warnings (leftover processes,
// unavailable cgroup subsystems) through log.
func New(log *logging.Logger) *Executor {
	return &Executor{log: log}
}

// Run executes spec to completion or until ctx is cancelled,
// whichever comes first. Cancellation is treated like a wall-timeout:
// the process group is killed and partial output is still returned.
func (e *Executor) Run(ctx context.Context, spec Spec) (Result, error) {
	var result Result

	logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return result, fmt.Errorf("open log file %s: %w", spec.LogPath, err)
	}
	defer logFile.Close()

	group, err := CreateGroup(spec.CgroupSubsystems, e.log)
	if err != nil {
		return result, fmt.Errorf("create resource group: %w", err)
	}
	defer group.Remove(e.log)

	if spec.MemoryLimitMB > 0 {
		if err := group.SetMemoryLimitBytes(spec.MemoryLimitMB * 1024 * 1024); err != nil {
			e.log.ResourceGroupWarning("could not set memory limit", spec.Executable, err)
		}
	}
	if len(spec.Cores) > 0 {
		if err := group.SetCores(spec.Cores); err != nil {
			e.log.ResourceGroupWarning("could not pin cores", spec.Executable, err)
		}
	}

	argv, workDir := e.buildCommand(spec)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if len(spec.Env) > 0 {
		env := os.Environ()
		for k, v := range spec.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("start %s: %w", spec.Executable, err)
	}

	if err := group.AddTask(cmd.Process.Pid); err != nil {
		e.log.ResourceGroupWarning("could not add process to resource group", spec.Executable, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var hardDeadline <-chan time.Time
	if spec.HardTimeLimitS > 0 {
		timer := time.NewTimer(time.Duration(spec.HardTimeLimitS) * time.Second)
		defer timer.Stop()
		hardDeadline = timer.C
	}

	select {
	case <-ctx.Done():
		e.killProcessGroup(cmd, group)
		result.Status = decodeWaitErr(<-done)
		result.IsTimeout = false
	case <-hardDeadline:
		e.killProcessGroup(cmd, group)
		<-done
		result.IsTimeout = true
	case waitErr := <-done:
		result.Status = decodeWaitErr(waitErr)
	}
	result.WallTime = time.Since(start)

	if result.IsTimeout {
		result.Status = ProcessStatus{ExitCode: 0}
		sig := int(unix.SIGKILL)
		result.Status.Signal = &sig
	}

	if cpu, ok := group.ReadCPUTime(); ok {
		result.CPUTime = cpu
		result.CPUTimeKnown = true
	}
	if mem, ok := group.ReadPeakMemory(); ok {
		result.MemoryUsageBytes = mem
		result.MemoryKnown = true
	}

	group.KillAllTasks(e.log)

	if spec.MaxLogSizeBytes > 0 {
		if err := truncateKeepingTail(spec.LogPath, spec.MaxLogSizeBytes); err != nil {
			e.log.Warn(fmt.Sprintf("could not truncate oversized log %s: %v", spec.LogPath, err))
		}
	}

	lines, err := readLines(spec.LogPath)
	if err != nil {
		e.log.Warn(fmt.Sprintf("could not re-read log file %s: %v", spec.LogPath, err))
	}
	result.OutputLines = lines

	result.IsTimeout = result.IsTimeout || e.isLikelyTimeout(spec, result)

	return result, nil
}

// effectiveSoftTimeLimitS returns the CPU-time rlimit to install: the
// soft limit itself, in whole seconds with no overhead margin added,
// falling back to the hard limit when no soft limit was resolved —
// xmlbench/limits.go already
// guarantees SoftTimeLimitS holds the resolved value whenever the
// benchmark definition specifies either limit.
func effectiveSoftTimeLimitS(spec Spec) int64 {
	if spec.SoftTimeLimitS > 0 {
		return spec.SoftTimeLimitS
	}
	return spec.HardTimeLimitS
}

// buildCommand wraps the executable in a `sh -c 'ulimit -t N; exec
// "$@"'` invocation when a CPU-time limit is requested. Go's os/exec
// has no preexec_fn-equivalent hook to call setrlimit in the child
// between fork and exec without cgo, so the limit is installed by the
// shell instead, matching the effect (not the mechanism) of the
// original's RLIMIT_CPU call. This installs the soft limit, not the
// hard one: the hard limit is enforced separately by the parent's wall
// timer in Run, which kills the process group outright.
func (e *Executor) buildCommand(spec Spec) (argv []string, workDir string) {
	workDir = spec.WorkingDirectory
	if workDir == "" {
		workDir = "."
	}

	softLimit := effectiveSoftTimeLimitS(spec)
	if softLimit <= 0 {
		return append([]string{spec.Executable}, spec.Args...), workDir
	}

	shArgs := append([]string{spec.Executable}, spec.Args...)
	script := fmt.Sprintf("ulimit -t %d; exec \"$@\"", softLimit)
	wrapped := append([]string{"sh", "-c", script, "sh"}, shArgs...)
	return wrapped, workDir
}

// killProcessGroup sends the process group a graduated kill sequence,
// generalizing shell.go's single-SIGKILL killProcessGroup with the
// SIGTERM-before-SIGKILL escalation the original applies to benchmark
// runs (SPEC_FULL.md §4.5).
func (e *Executor) killProcessGroup(cmd *exec.Cmd, group *Group) {
	pgid, err := unix.Getpgid(cmd.Process.Pid)
	if err != nil {
		cmd.Process.Kill()
		return
	}
	unix.Kill(-pgid, unix.SIGTERM)
	time.Sleep(200 * time.Millisecond)
	unix.Kill(-pgid, unix.SIGKILL)
	group.KillAllTasks(e.log)
}

func decodeWaitErr(waitErr error) ProcessStatus {
	if waitErr == nil {
		return ProcessStatus{ExitCode: 0}
	}
	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return ProcessStatus{ExitCode: -1}
	}
	// os/exec always reports Sys() as the stdlib syscall.WaitStatus,
	// regardless of the unix.Kill/Getpgid calls used elsewhere here.
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return ProcessStatus{ExitCode: exitErr.ExitCode()}
	}
	if status.Signaled() {
		sig := int(status.Signal())
		return ProcessStatus{ExitCode: 0, Signal: &sig}
	}
	return ProcessStatus{ExitCode: status.ExitStatus()}
}

// isLikelyTimeout applies the post-hoc reclassification of §4.5: a run
// that exited "normally" but consumed CPU time at or above 99% of the
// rlimit actually installed (the soft limit, falling back to hard) is still a
// timeout, since some tools catch SIGXCPU and exit cleanly.
func (e *Executor) isLikelyTimeout(spec Spec, result Result) bool {
	softLimit := effectiveSoftTimeLimitS(spec)
	if softLimit <= 0 || !result.CPUTimeKnown {
		return false
	}
	limit := time.Duration(softLimit) * time.Second
	return result.CPUTime >= limit*99/100
}

// IsLikelyOOM reports whether result looks like an out-of-memory kill:
// signal 9, a memory limit was configured, and measured peak usage is
// at or above 99.9% of it. Memory usage being unknown is treated as
// "not OOM" rather than "maybe OOM", an explicit choice documented in
// SPEC_FULL.md's Open Question (a): a classification this consequential
// should never be guessed from absence of data.
func IsLikelyOOM(spec Spec, result Result) bool {
	if spec.MemoryLimitMB <= 0 || !result.MemoryKnown {
		return false
	}
	if result.Status.Signal == nil || *result.Status.Signal != int(unix.SIGKILL) {
		return false
	}
	limitBytes := spec.MemoryLimitMB * 1024 * 1024
	return result.MemoryUsageBytes*1000 >= limitBytes*999
}

func truncateKeepingTail(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() <= maxBytes {
		return nil
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	tail := make([]byte, maxBytes)
	if _, err := f.ReadAt(tail, info.Size()-maxBytes); err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	marker := []byte(fmt.Sprintf("[... output truncated, showing last %d bytes ...]\n", maxBytes))
	if _, err := f.WriteAt(append(marker, tail...), 0); err != nil {
		return err
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
