package localengine

import "testing"

// singleCPUTopology builds an 8-core, single-package, no-HT machine,
// matching TestCpuCoresPerRun_singleCPU from the original's
// test_core_assignment.py.
func singleCPUTopology() *Topology {
	topo := &Topology{
		CoresOfPackage: map[int][]int{0: {0, 1, 2, 3, 4, 5, 6, 7}},
		SiblingsOfCore: map[int][]int{},
	}
	for c := 0; c < 8; c++ {
		topo.AllCores = append(topo.AllCores, c)
		topo.SiblingsOfCore[c] = []int{c}
	}
	return topo
}

// dualCPUHTTopology builds a 2-package, 8 cores/package, HT-enabled
// 32-logical-core machine matching TestCpuCoresPerRun_dualCPU_HT.
func dualCPUHTTopology() *Topology {
	topo := &Topology{
		CoresOfPackage: map[int][]int{},
		SiblingsOfCore: map[int][]int{},
	}
	for pkg := 0; pkg < 2; pkg++ {
		for i := 0; i < 8; i++ {
			real := pkg*8 + i
			ht := real + 16
			topo.AllCores = append(topo.AllCores, real, ht)
			topo.CoresOfPackage[pkg] = append(topo.CoresOfPackage[pkg], real, ht)
			topo.SiblingsOfCore[real] = []int{real, ht}
			topo.SiblingsOfCore[ht] = []int{real, ht}
		}
	}
	return topo
}

func assertDisjointAndSized(t *testing.T, a Assignment, numRuns, coreLimit int) {
	t.Helper()
	if len(a) != numRuns {
		t.Fatalf("got %d runs, want %d", len(a), numRuns)
	}
	seen := make(map[int]bool)
	for _, run := range a {
		if len(run) != coreLimit {
			t.Errorf("run has %d cores, want %d: %v", len(run), coreLimit, run)
		}
		for _, core := range run {
			if seen[core] {
				t.Errorf("core %d assigned to more than one run", core)
			}
			seen[core] = true
		}
	}
}

func TestAssignCores_SingleCoreAllThreads(t *testing.T) {
	topo := singleCPUTopology()
	a, err := AssignCores(topo, 1, 8)
	if err != nil {
		t.Fatalf("AssignCores: %v", err)
	}
	assertDisjointAndSized(t, a, 8, 1)
}

func TestAssignCores_TwoCoresPerRun(t *testing.T) {
	topo := singleCPUTopology()
	a, err := AssignCores(topo, 2, 4)
	if err != nil {
		t.Fatalf("AssignCores: %v", err)
	}
	assertDisjointAndSized(t, a, 4, 2)
}

func TestAssignCores_FailsFastWhenInfeasible(t *testing.T) {
	topo := singleCPUTopology()
	if _, err := AssignCores(topo, 1, 9); err == nil {
		t.Error("expected an error requesting 9 single-core runs on an 8-core machine")
	}
}

func TestAssignCores_KeepsHyperthreadSiblingsTogether(t *testing.T) {
	topo := dualCPUHTTopology()
	a, err := AssignCores(topo, 2, 8)
	if err != nil {
		t.Fatalf("AssignCores: %v", err)
	}
	assertDisjointAndSized(t, a, 8, 2)
	for _, run := range a {
		siblings := topo.SiblingsOfCore[run[0]]
		found := false
		for _, s := range siblings {
			if s == run[1] {
				found = true
			}
		}
		if !found {
			t.Errorf("run %v does not pair hyperthread siblings", run)
		}
	}
}

func TestAssignCores_DualPackageEightCoresSpansBothPackages(t *testing.T) {
	topo := dualCPUHTTopology()
	a, err := AssignCores(topo, 16, 2)
	if err != nil {
		t.Fatalf("AssignCores: %v", err)
	}
	assertDisjointAndSized(t, a, 2, 16)
}

func TestAssignCores_RejectsTooManyCoresPerRun(t *testing.T) {
	topo := singleCPUTopology()
	if _, err := AssignCores(topo, 9, 1); err == nil {
		t.Error("expected an error for coreLimit exceeding total core count")
	}
}

// singlePackageHTTopology builds a single-package, 2-way-HT machine
// with 4 physical cores (8 logical cores), matching the shape used to
// exercise the odd-coreLimit fragmentation guard below.
func singlePackageHTTopology() *Topology {
	topo := &Topology{
		CoresOfPackage: map[int][]int{},
		SiblingsOfCore: map[int][]int{},
	}
	for i := 0; i < 4; i++ {
		real := i * 2
		ht := real + 1
		topo.AllCores = append(topo.AllCores, real, ht)
		topo.CoresOfPackage[0] = append(topo.CoresOfPackage[0], real, ht)
		topo.SiblingsOfCore[real] = []int{real, ht}
		topo.SiblingsOfCore[ht] = []int{real, ht}
	}
	return topo
}

func TestAssignCores_RejectsOddCoreLimitThatFragmentsHyperthreadUnit(t *testing.T) {
	topo := singlePackageHTTopology()
	if _, err := AssignCores(topo, 3, 2); err == nil {
		t.Error("expected an error: coreLimit 3 does not evenly divide the 2-way hyperthread sibling unit, and would split core pair (2,3) across two runs")
	}
}

func TestAssignCores_EvenCoreLimitAcceptedOnHTMachine(t *testing.T) {
	topo := singlePackageHTTopology()
	a, err := AssignCores(topo, 4, 2)
	if err != nil {
		t.Fatalf("AssignCores: %v", err)
	}
	assertDisjointAndSized(t, a, 2, 4)
}
