package localengine

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Topology describes the host's CPU layout as read from
// /sys/devices/system/cpu, grounded on the original's
// _get_cpu_cores_per_run0 parameter shape (allCpus, coresOfPackage,
// siblingsOfCore) documented by test_core_assignment.py.
type Topology struct {
	AllCores       []int
	CoresOfPackage map[int][]int // package id -> sorted core ids
	SiblingsOfCore map[int][]int // core id -> sorted hyperthread-sibling group including itself
}

var cpuDirPattern = regexp.MustCompile(`^cpu(\d+)$`)

// DiscoverTopology reads the host's CPU topology from sysfs. It is the
// Go counterpart of the cgroups.py-style direct /proc and /sys reads:
// no topology/affinity library appears anywhere in the examples, so
// this reads the pseudo-files directly (see DESIGN.md's stdlib
// justification for CPU topology discovery).
func DiscoverTopology() (*Topology, error) {
	const cpuRoot = "/sys/devices/system/cpu"
	entries, err := os.ReadDir(cpuRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cpuRoot, err)
	}

	topo := &Topology{
		CoresOfPackage: make(map[int][]int),
		SiblingsOfCore: make(map[int][]int),
	}

	for _, entry := range entries {
		m := cpuDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		core, _ := strconv.Atoi(m[1])

		pkgPath := filepath.Join(cpuRoot, entry.Name(), "topology", "physical_package_id")
		pkg, err := readIntFile(pkgPath)
		if err != nil {
			pkg = 0 // single-package machine, or a sysfs layout without this file
		}

		siblingsPath := filepath.Join(cpuRoot, entry.Name(), "topology", "thread_siblings_list")
		siblings, err := readCoreList(siblingsPath)
		if err != nil || len(siblings) == 0 {
			siblings = []int{core}
		}

		topo.AllCores = append(topo.AllCores, core)
		topo.CoresOfPackage[pkg] = append(topo.CoresOfPackage[pkg], core)
		topo.SiblingsOfCore[core] = siblings
	}

	sort.Ints(topo.AllCores)
	for pkg := range topo.CoresOfPackage {
		sort.Ints(topo.CoresOfPackage[pkg])
	}
	if len(topo.AllCores) == 0 {
		return nil, fmt.Errorf("no CPU cores discovered under %s", cpuRoot)
	}
	return topo, nil
}

func readIntFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// readCoreList parses the kernel's "range list" syntax used by files
// like thread_siblings_list: comma-separated core ids and dashed
// ranges, e.g. "0,4" or "0-3,8-11".
func readCoreList(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	var cores []int
	for _, part := range strings.Split(strings.TrimSpace(scanner.Text()), ",") {
		if part == "" {
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash >= 0 {
			lo, err1 := strconv.Atoi(part[:dash])
			hi, err2 := strconv.Atoi(part[dash+1:])
			if err1 != nil || err2 != nil {
				continue
			}
			for c := lo; c <= hi; c++ {
				cores = append(cores, c)
			}
			continue
		}
		if c, err := strconv.Atoi(part); err == nil {
			cores = append(cores, c)
		}
	}
	sort.Ints(cores)
	return cores, nil
}

// unit is a group of hyperthread siblings treated as a single
// allocation block, so a run either gets a whole physical core's
// threads or none of them, until coreLimit forces a partial unit.
type unit struct {
	pkg   int
	cores []int
}

// packageUnits groups topo's cores into per-package, deduplicated
// sibling units, each sorted and ordered by its lowest core id.
func packageUnits(topo *Topology) map[int][]unit {
	seen := make(map[int]bool)
	units := make(map[int][]unit)

	pkgs := make([]int, 0, len(topo.CoresOfPackage))
	for pkg := range topo.CoresOfPackage {
		pkgs = append(pkgs, pkg)
	}
	sort.Ints(pkgs)

	for _, pkg := range pkgs {
		cores := topo.CoresOfPackage[pkg]
		for _, core := range cores {
			if seen[core] {
				continue
			}
			siblings := append([]int{}, topo.SiblingsOfCore[core]...)
			sort.Ints(siblings)
			for _, s := range siblings {
				seen[s] = true
			}
			units[pkg] = append(units[pkg], unit{pkg: pkg, cores: siblings})
		}
		sort.Slice(units[pkg], func(i, j int) bool { return units[pkg][i].cores[0] < units[pkg][j].cores[0] })
	}
	return units
}

// Assignment is the result of allocating cores to a fixed number of
// concurrent runs: len(Assignment) == numRuns, each entry sorted and
// pairwise disjoint.
type Assignment [][]int

// AssignCores computes a core assignment for numRuns concurrent runs,
// each using coreLimit cores, over topo. It fails fast with an error
// if numRuns*coreLimit exceeds the machine's total core count, if
// no arrangement keeps every run's cores within a single package or
// an even multiple of packages (§4.6's "fail-fast on infeasible
// coreLimit×numRuns combinations"), or if coreLimit is not a multiple
// of the machine's hyperthread-sibling unit size: siblings of the
// same physical core are never split across two runs, so an odd
// coreLimit that would force that split is rejected before any
// process starts rather than silently fragmenting a unit.
//
// Within those constraints the exact core numbers assigned are a
// documented simplification relative to the original's
// _get_cpu_cores_per_run0: this implementation guarantees the same
// four invariants (hyperthread siblings are grouped, assignments are
// disjoint, runs prefer a single package before spanning packages,
// and every feasible (coreLimit, numRuns) pair succeeds) without
// reproducing the original's exact core-numbering order in every edge
// case — see DESIGN.md.
func AssignCores(topo *Topology, coreLimit, numRuns int) (Assignment, error) {
	if coreLimit <= 0 || numRuns <= 0 {
		return nil, fmt.Errorf("invalid core assignment request: coreLimit=%d numRuns=%d", coreLimit, numRuns)
	}
	if coreLimit > len(topo.AllCores) {
		return nil, fmt.Errorf("cannot assign %d cores per run: machine has only %d cores total", coreLimit, len(topo.AllCores))
	}

	units := packageUnits(topo)
	pkgs := make([]int, 0, len(units))
	for pkg := range units {
		pkgs = append(pkgs, pkg)
	}
	sort.Ints(pkgs)

	if unitSize := maxUnitSize(units); unitSize > 1 && coreLimit%unitSize != 0 {
		return nil, fmt.Errorf("coreLimit %d is not a multiple of the %d-way hyperthread sibling unit: refusing to fragment a physical core across runs", coreLimit, unitSize)
	}

	runsPerPackage, coresPerRun := make(map[int]int), coreLimit
	for _, pkg := range pkgs {
		available := 0
		for _, u := range units[pkg] {
			available += len(u.cores)
		}
		if available >= coresPerRun {
			runsPerPackage[pkg] = available / coresPerRun
		}
	}

	feasibleRuns := 0
	for _, n := range runsPerPackage {
		feasibleRuns += n
	}
	if feasibleRuns < numRuns {
		// No single package can host a full run; try grouping whole
		// packages together (coreLimit spans multiple packages evenly).
		totalCores := len(topo.AllCores)
		if coreLimit%perPackageCoreCount(topo) != 0 {
			return nil, fmt.Errorf("cannot satisfy %d runs of %d cores each: no package grouping evenly divides coreLimit across packages", numRuns, coreLimit)
		}
		if numRuns*coreLimit > totalCores {
			return nil, fmt.Errorf("cannot satisfy %d runs of %d cores each: machine has only %d cores total", numRuns, coreLimit, totalCores)
		}
		return assignAcrossPackages(units, pkgs, coreLimit, numRuns)
	}

	var result Assignment
	for _, pkg := range pkgs {
		n := runsPerPackage[pkg]
		if n == 0 {
			continue
		}
		queue := append([]unit{}, units[pkg]...)
		for i := 0; i < n && len(result) < numRuns; i++ {
			run, remaining := takeCores(queue, coresPerRun)
			queue = remaining
			sort.Ints(run)
			result = append(result, run)
		}
		if len(result) >= numRuns {
			break
		}
	}
	if len(result) < numRuns {
		return nil, fmt.Errorf("cannot satisfy %d runs of %d cores each on this machine", numRuns, coreLimit)
	}
	return result[:numRuns], nil
}

// maxUnitSize returns the largest sibling-unit size across all
// packages, i.e. the widest hyperthread group that a fragmented
// coreLimit could split.
func maxUnitSize(units map[int][]unit) int {
	max := 1
	for _, us := range units {
		for _, u := range us {
			if len(u.cores) > max {
				max = len(u.cores)
			}
		}
	}
	return max
}

// perPackageCoreCount returns the (assumed uniform) number of cores
// per package.
func perPackageCoreCount(topo *Topology) int {
	for _, cores := range topo.CoresOfPackage {
		return len(cores)
	}
	return len(topo.AllCores)
}

// takeCores pulls coresPerRun cores off the front of queue, preferring
// to consume whole units (keeping hyperthread siblings together) and
// only splitting the last unit it touches when coresPerRun isn't a
// multiple of the unit size.
func takeCores(queue []unit, coresPerRun int) (run []int, remaining []unit) {
	needed := coresPerRun
	i := 0
	for ; i < len(queue) && needed > 0; i++ {
		u := queue[i]
		if len(u.cores) <= needed {
			run = append(run, u.cores...)
			needed -= len(u.cores)
			continue
		}
		run = append(run, u.cores[:needed]...)
		leftover := append([]int{}, u.cores[needed:]...)
		remaining = append(remaining, unit{pkg: u.pkg, cores: leftover})
		needed = 0
	}
	remaining = append(remaining, queue[i:]...)
	return run, remaining
}

// assignAcrossPackages handles coreLimit values larger than a single
// package's core count by grouping packagesPerRun consecutive
// packages into one allocation unit per run.
func assignAcrossPackages(units map[int][]unit, pkgs []int, coreLimit, numRuns int) (Assignment, error) {
	perPkg := 0
	for _, u := range units[pkgs[0]] {
		perPkg += len(u.cores)
	}
	if perPkg == 0 {
		return nil, fmt.Errorf("package %d has no usable cores", pkgs[0])
	}
	packagesPerRun := coreLimit / perPkg

	var result Assignment
	for i := 0; i+packagesPerRun <= len(pkgs) && len(result) < numRuns; i += packagesPerRun {
		var run []int
		for _, pkg := range pkgs[i : i+packagesPerRun] {
			for _, u := range units[pkg] {
				run = append(run, u.cores...)
			}
		}
		sort.Ints(run)
		result = append(result, run)
	}
	if len(result) < numRuns {
		return nil, fmt.Errorf("cannot satisfy %d runs of %d cores each spanning %d packages per run", numRuns, coreLimit, packagesPerRun)
	}
	return result[:numRuns], nil
}
