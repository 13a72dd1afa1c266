// Package classify implements the result classifier: a pure mapping
// from a tool-reported status, a task file name and a property file's
// content into a result category and score.
package classify

import (
	"os"
	"strings"

	"github.com/kvit-s/veribench/internal/model"
)

const (
	strTrue    = "true"
	strFalse   = "false"
	strUnknown = "unknown"
)

// Known, publicly reportable status strings. Anything else is category error.
var knownStatuses = map[string]bool{
	strTrue:    true,
	strUnknown: true,
	"false(reach)":         true,
	"false(termination)":   true,
	"false(valid-deref)":   true,
	"false(valid-free)":    true,
	"false(valid-memtrack)": true,
	strFalse:              true,
}

// fileMarker maps a substring found in a task's file name to the
// verdict and property kinds it asserts.
type fileMarker struct {
	substring string
	expectTrue bool
	kinds      []model.PropertyKind
}

// Every marker whose substring occurs in the file name contributes its
// pairs, so the order of this table does not affect the result
// ("valid-memsafety" expands to three kinds).
var fileMarkers = []fileMarker{
	{"_true-unreach-call", true, []model.PropertyKind{model.PropertyReach}},
	{"_false-unreach-call", false, []model.PropertyKind{model.PropertyReach}},
	{"_true-unreach-label", true, []model.PropertyKind{model.PropertyReach}},
	{"_false-unreach-label", false, []model.PropertyKind{model.PropertyReach}},
	{"_true-termination", true, []model.PropertyKind{model.PropertyTermination}},
	{"_false-termination", false, []model.PropertyKind{model.PropertyTermination}},
	{"_true-valid-deref", true, []model.PropertyKind{model.PropertyValidDeref}},
	{"_false-valid-deref", false, []model.PropertyKind{model.PropertyValidDeref}},
	{"_true-valid-free", true, []model.PropertyKind{model.PropertyValidFree}},
	{"_false-valid-free", false, []model.PropertyKind{model.PropertyValidFree}},
	{"_true-valid-memtrack", true, []model.PropertyKind{model.PropertyValidMemtrack}},
	{"_false-valid-memtrack", false, []model.PropertyKind{model.PropertyValidMemtrack}},
	{"_true-valid-memsafety", true, []model.PropertyKind{model.PropertyValidDeref, model.PropertyValidFree, model.PropertyValidMemtrack}},
	{"_false-valid-memsafety", false, []model.PropertyKind{model.PropertyValidDeref, model.PropertyValidFree, model.PropertyValidMemtrack}},
}

// propertyMatcher maps a substring of a property file's content to the
// property kind it selects.
var propertyMatcher = []struct {
	substring string
	kind      model.PropertyKind
}{
	{"LTL(G ! label(", model.PropertyReach},
	{"LTL(G ! call(__VERIFIER_error())", model.PropertyReach},
	{"LTL(F end)", model.PropertyTermination},
	{"LTL(G valid-free)", model.PropertyValidFree},
	{"LTL(G valid-deref)", model.PropertyValidDeref},
	{"LTL(G valid-memtrack)", model.PropertyValidMemtrack},
}

// taskStatus is one (expectedVerdict, propertyKind) pair asserted by a
// task file name.
type taskStatus struct {
	expectTrue bool
	kind       model.PropertyKind
}

func statusesOfFile(filename string) []taskStatus {
	var out []taskStatus
	for _, m := range fileMarkers {
		if strings.Contains(filename, m.substring) {
			for _, k := range m.kinds {
				out = append(out, taskStatus{expectTrue: m.expectTrue, kind: k})
			}
		}
	}
	return out
}

// statusesOfPropertyFile reads the property file and returns the set
// of property kinds its content selects. Per the original, a property
// file is expected to contain the literal substring "CHECK"; if that
// substring is absent, or the file can't be read, or no matcher fires,
// nil is returned and the caller treats the run as unknown.
func statusesOfPropertyFile(path string) []model.PropertyKind {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	text := string(content)
	if !strings.Contains(text, "CHECK") {
		return nil
	}
	var kinds []model.PropertyKind
	seen := make(map[model.PropertyKind]bool)
	for _, pm := range propertyMatcher {
		if strings.Contains(text, pm.substring) && !seen[pm.kind] {
			kinds = append(kinds, pm.kind)
			seen[pm.kind] = true
		}
	}
	return kinds
}

// GetResultCategory classifies a run outcome. propertyFile is the path
// to the property file on disk, or "" if none was supplied.
func GetResultCategory(filename, status, propertyFile string) model.ResultCategory {
	if propertyFile == "" {
		return model.CategoryMissing
	}
	if status == strUnknown {
		return model.CategoryUnknown
	}
	if !knownStatuses[status] {
		return model.CategoryError
	}

	fileStatuses := statusesOfFile(filename)
	propKinds := statusesOfPropertyFile(propertyFile)
	if len(fileStatuses) == 0 || len(propKinds) == 0 {
		return model.CategoryUnknown
	}

	propKindSet := make(map[model.PropertyKind]bool, len(propKinds))
	for _, k := range propKinds {
		propKindSet[k] = true
	}

	var searched []taskStatus
	for _, ts := range fileStatuses {
		if propKindSet[ts.kind] {
			searched = append(searched, ts)
		}
	}
	if len(searched) == 0 {
		return model.CategoryUnknown
	}

	if status == strTrue {
		for _, ts := range searched {
			if !ts.expectTrue {
				return model.CategoryWrong
			}
		}
		return model.CategoryCorrect
	}

	// status is "false(<kind>)": correct iff some searched entry
	// expects false for that exact kind.
	for _, ts := range searched {
		if !ts.expectTrue && "false("+string(ts.kind)+")" == status {
			return model.CategoryCorrect
		}
	}
	return model.CategoryWrong
}

// CalculateScore assigns the fixed integer score to a (category,
// status) pair. It is a total, referentially transparent function: it
// never inspects anything beyond its two arguments.
func CalculateScore(category model.ResultCategory, status string) int {
	switch category {
	case model.CategoryCorrect:
		if status == strTrue {
			return 2
		}
		return 1
	case model.CategoryWrong:
		if status == strTrue {
			return -8
		}
		return -4
	case model.CategoryUnknown, model.CategoryMissing, model.CategoryError:
		return 0
	default:
		return 0
	}
}
