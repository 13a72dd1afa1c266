//go:build linux

package runexec

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kvit-s/veribench/internal/logging"
)

const cgroupNamePrefix = "benchmark_"

// allKnownSubsystems mirrors the original's ALL_KNOWN_SUBSYSTEMS; the
// freezer subsystem is detected but intentionally never used (the
// original never freezes tasks either — see SPEC_FULL.md item 4).
var allKnownSubsystems = map[string]bool{
	"cpuacct": true,
	"cpuset":  true,
	"freezer": true,
	"memory":  true,
}

// mountInfo records where each cgroup subsystem is mounted and the
// calling process's own path within it, mirroring _findCgroupMounts
// and _findOwnCgroups in cgroups.py.
type mountInfo struct {
	mounts map[string]string // subsystem -> mount point
	own    map[string]string // subsystem -> this process's cgroup path
}

func discoverMounts() (*mountInfo, error) {
	mi := &mountInfo{mounts: make(map[string]string), own: make(map[string]string)}

	procMounts, err := os.Open("/proc/mounts")
	if err != nil {
		return nil, fmt.Errorf("read /proc/mounts: %w", err)
	}
	defer procMounts.Close()

	scanner := bufio.NewScanner(procMounts)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[2] != "cgroup" {
			continue
		}
		mountPoint := fields[1]
		for _, opt := range strings.Split(fields[3], ",") {
			if allKnownSubsystems[opt] {
				mi.mounts[opt] = mountPoint
			}
		}
	}

	selfCgroup, err := os.Open("/proc/self/cgroup")
	if err != nil {
		return nil, fmt.Errorf("read /proc/self/cgroup: %w", err)
	}
	defer selfCgroup.Close()

	scanner = bufio.NewScanner(selfCgroup)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 3)
		if len(parts) != 3 {
			continue
		}
		for _, subsystem := range strings.Split(parts[1], ",") {
			if allKnownSubsystems[subsystem] {
				mi.own[subsystem] = parts[2]
			}
		}
	}

	return mi, nil
}

// Group is a scoped cgroup hierarchy spanning one or more subsystems,
// created for a single run.
type Group struct {
	dirs map[string]string // subsystem -> absolute cgroup directory
}

// CreateGroup attempts to create a scoped cgroup for subsystems,
// warning (not failing) for each subsystem that is unavailable or
// unwritable, matching initCgroup's "subsystem not enabled" fallback.
func CreateGroup(subsystems []string, log *logging.Logger) (*Group, error) {
	mi, err := discoverMounts()
	if err != nil {
		return nil, err
	}

	g := &Group{dirs: make(map[string]string)}
	createdParents := make(map[string]string) // mount point -> created dir, reused across subsystems sharing a hierarchy

	for _, subsystem := range subsystems {
		mountPoint, ok := mi.mounts[subsystem]
		if !ok {
			log.Warn(fmt.Sprintf("cgroup subsystem %s not enabled on this machine; limit will only be observed, not enforced", subsystem))
			continue
		}
		ownPath, ok := mi.own[subsystem]
		if !ok {
			ownPath = "/"
		}
		parent := filepath.Join(mountPoint, ownPath)

		if existing, ok := createdParents[parent]; ok {
			g.dirs[subsystem] = existing
			continue
		}

		dir, err := os.MkdirTemp(parent, cgroupNamePrefix)
		if err != nil {
			log.Warn(fmt.Sprintf("could not create cgroup under %s for subsystem %s (check permissions, e.g. chmod o+wt %s): %v", parent, subsystem, parent, err))
			continue
		}

		if subsystem == "cpuset" {
			copyCgroupFile(parent, dir, "cpuset.cpus")
			copyCgroupFile(parent, dir, "cpuset.mems")
		}

		createdParents[parent] = dir
		g.dirs[subsystem] = dir
	}

	return g, nil
}

func copyCgroupFile(parent, dir, name string) {
	content, err := os.ReadFile(filepath.Join(parent, name))
	if err != nil {
		return
	}
	os.WriteFile(filepath.Join(dir, name), content, 0644)
}

// AddTask adds pid to every subsystem in the group.
func (g *Group) AddTask(pid int) error {
	for subsystem, dir := range g.dirs {
		path := filepath.Join(dir, "tasks")
		if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644); err != nil {
			return fmt.Errorf("add task to %s cgroup: %w", subsystem, err)
		}
	}
	return nil
}

// SetMemoryLimitBytes writes the memory subsystem's hard limit, if
// the memory subsystem is part of this group.
func (g *Group) SetMemoryLimitBytes(limit int64) error {
	dir, ok := g.dirs["memory"]
	if !ok {
		return nil
	}
	return os.WriteFile(filepath.Join(dir, "memory.limit_in_bytes"), []byte(strconv.FormatInt(limit, 10)), 0644)
}

// SetCores pins the group to the given physical core IDs, if the
// cpuset subsystem is part of this group.
func (g *Group) SetCores(cores []int) error {
	dir, ok := g.dirs["cpuset"]
	if !ok {
		return nil
	}
	parts := make([]string, len(cores))
	for i, c := range cores {
		parts[i] = strconv.Itoa(c)
	}
	return os.WriteFile(filepath.Join(dir, "cpuset.cpus"), []byte(strings.Join(parts, ",")), 0644)
}

// ReadCPUTime reads accumulated CPU time from the cpuacct subsystem.
// It returns (0, false) if the subsystem isn't part of this group.
func (g *Group) ReadCPUTime() (time.Duration, bool) {
	dir, ok := g.dirs["cpuacct"]
	if !ok {
		return 0, false
	}
	content, err := os.ReadFile(filepath.Join(dir, "cpuacct.usage"))
	if err != nil {
		return 0, false
	}
	nanos, err := strconv.ParseInt(strings.TrimSpace(string(content)), 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(nanos), true
}

// ReadPeakMemory reads the peak memory usage from the memory
// subsystem. It returns (0, false) if unavailable.
func (g *Group) ReadPeakMemory() (int64, bool) {
	dir, ok := g.dirs["memory"]
	if !ok {
		return 0, false
	}
	content, err := os.ReadFile(filepath.Join(dir, "memory.max_usage_in_bytes"))
	if err != nil {
		return 0, false
	}
	bytes, err := strconv.ParseInt(strings.TrimSpace(string(content)), 10, 64)
	if err != nil {
		return 0, false
	}
	return bytes, true
}

// KillAllTasks reaps every task left in the group, escalating
// SIGINT -> SIGTERM -> SIGKILL across three rounds with a pause
// between tries, ported verbatim from killAllTasksInCgroup
// (SPEC_FULL.md item 2).
func (g *Group) KillAllTasks(log *logging.Logger) {
	signals := []unix.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGKILL}
	for attempt, sig := range signals {
		pids := g.readTasks()
		if len(pids) == 0 {
			return
		}
		for _, pid := range pids {
			log.LeftoverProcess(pid, sig.String(), attempt+1)
			unix.Kill(pid, sig)
		}
		if attempt == len(signals)-1 {
			if remaining := g.readTasks(); len(remaining) > 0 {
				log.Warn(fmt.Sprintf("cgroup still has %d left-over process(es) after third try; giving up", len(remaining)))
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	for _, pid := range g.readTasks() {
		log.Warn(fmt.Sprintf("run has left-over process with pid %d that could not be killed", pid))
	}
}

func (g *Group) readTasks() []int {
	// Any subsystem's tasks file lists the same set of PIDs when they
	// share a hierarchy; cpuacct is checked first, falling back to
	// whichever subsystem is present.
	for _, subsystem := range []string{"cpuacct", "memory", "cpuset"} {
		dir, ok := g.dirs[subsystem]
		if !ok {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, "tasks"))
		if err != nil {
			continue
		}
		var pids []int
		for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
			if line == "" {
				continue
			}
			if pid, err := strconv.Atoi(line); err == nil {
				pids = append(pids, pid)
			}
		}
		return pids
	}
	return nil
}

// Remove deletes the cgroup directories, retrying once on failure, as
// removeCgroup does; it does not check that the tasks file is empty
// first.
func (g *Group) Remove(log *logging.Logger) {
	for subsystem, dir := range g.dirs {
		if err := os.Remove(dir); err != nil {
			time.Sleep(100 * time.Millisecond)
			if err2 := os.Remove(dir); err2 != nil {
				log.Warn(fmt.Sprintf("could not remove %s cgroup %s, abandoning it: %v", subsystem, dir, err2))
			}
		}
	}
}
