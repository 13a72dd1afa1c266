package xmlbench

import (
	"strconv"
	"strings"

	"github.com/kvit-s/veribench/internal/model"
)

// parseLimitAttr parses an XML limit attribute. An empty string means
// "not set" (ok=false). The sentinel "-1" means "explicitly removed"
// and is reported as ok=true, value=-1 so the caller can distinguish
// "unset" from "removed".
func parseLimitAttr(raw string) (value int64, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// resolveLimit merges an XML-declared limit with a CLI override. The
// CLI override, when present, always wins; "-1" from either source
// removes the limit (resolves to 0, the "unset" sentinel in
// model.Limits).
func resolveLimit(xmlValue int64, xmlOK bool, cliValue int64, cliOK bool) int64 {
	value, ok := xmlValue, xmlOK
	if cliOK {
		value, ok = cliValue, true
	}
	if !ok || value == -1 {
		return 0
	}
	return value
}

// resolveTimeLimits applies the hard/soft invariant of §3: if both are
// set, hard must be >= soft (soft is silently dropped with a warning
// otherwise, per §8); if only one is set, the other takes its value.
func resolveTimeLimits(hard, soft int64) (resolvedHard, resolvedSoft int64, warning string) {
	switch {
	case hard != 0 && soft != 0:
		if soft > hard {
			return hard, hard, "soft CPU-time limit exceeds hard limit; soft limit dropped"
		}
		return hard, soft, ""
	case hard != 0:
		return hard, hard, ""
	case soft != 0:
		return soft, soft, ""
	default:
		return 0, 0, ""
	}
}

// buildLimits resolves the full model.Limits from the XML attributes
// and CLI overrides.
func buildLimits(doc *xmlBenchmark, override LimitOverrides) (model.Limits, []string, error) {
	var warnings []string

	memXML, memOK, err := parseLimitAttr(doc.MemLimit)
	if err != nil {
		return model.Limits{}, nil, err
	}
	timeXML, timeOK, err := parseLimitAttr(doc.TimeLimit)
	if err != nil {
		return model.Limits{}, nil, err
	}
	hardXML, hardOK, err := parseLimitAttr(doc.HardTimeLimit)
	if err != nil {
		return model.Limits{}, nil, err
	}
	coresXML, coresOK, err := parseLimitAttr(doc.CPUCores)
	if err != nil {
		return model.Limits{}, nil, err
	}

	mem := resolveLimit(memXML, memOK, override.MemoryMB, override.HasMemoryMB)
	soft := resolveLimit(timeXML, timeOK, override.SoftTimeS, override.HasSoftTimeS)
	hard := resolveLimit(hardXML, hardOK, override.HardTimeS, override.HasHardTimeS)
	cores := resolveLimit(coresXML, coresOK, int64(override.Cores), override.HasCores)

	hard, soft, warn := resolveTimeLimits(hard, soft)
	if warn != "" {
		warnings = append(warnings, warn)
	}

	return model.Limits{
		MemoryMB:  mem,
		HardTimeS: hard,
		SoftTimeS: soft,
		Cores:     int(cores),
	}, warnings, nil
}

// LimitOverrides carries the CLI-supplied limit overrides (§6.4:
// -T/--timelimit, -M/--memorylimit, -c/--limitCores). A zero Has* flag
// means "the CLI did not specify this limit", distinct from a
// specified value of 0.
type LimitOverrides struct {
	MemoryMB     int64
	HasMemoryMB  bool
	SoftTimeS    int64
	HasSoftTimeS bool
	HardTimeS    int64
	HasHardTimeS bool
	Cores        int
	HasCores     bool
}
