// Package builtin holds example tool plug-ins registered at init time,
// demonstrating the capability set of toolplugin.Tool end to end.
package builtin

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/toolplugin"
)

func init() {
	toolplugin.Register("satabs", func() toolplugin.Tool { return &satabsTool{} })
}

// satabsTool wraps the SatAbs predicate-abstraction model checker.
type satabsTool struct{}

func (t *satabsTool) Name() string { return "SatAbs" }

func (t *satabsTool) Executable() (string, error) {
	path, err := exec.LookPath("satabs")
	if err != nil {
		return "", fmt.Errorf("satabs executable not found on PATH: %w", err)
	}
	return path, nil
}

func (t *satabsTool) Version(executable string) string {
	out, err := exec.Command(executable, "--version").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func (t *satabsTool) Cmdline(executable string, options, sourceFiles []string, propertyFile string, limits toolplugin.Rlimits) []string {
	argv := append([]string{}, options...)
	argv = append(argv, sourceFiles...)
	return argv
}

func (t *satabsTool) WorkingDirectory(executable string) string {
	return toolplugin.DefaultWorkingDirectory(executable)
}

func (t *satabsTool) Environments(executable string) toolplugin.Environment {
	return toolplugin.Environment{}
}

func (t *satabsTool) ProgramFiles(executable string) []string { return nil }

func (t *satabsTool) DetermineResult(returnCode int, signal *int, outputLines []string, isTimeout bool) string {
	output := strings.Join(outputLines, "\n")
	switch {
	case strings.Contains(output, "VERIFICATION SUCCESSFUL"):
		return "true"
	case strings.Contains(output, "VERIFICATION FAILED"):
		return "false(reach)"
	case signal != nil && *signal == 9:
		return "TIMEOUT"
	case signal != nil && *signal == 6:
		if strings.Contains(output, "Assertion `!counterexample.steps.empty()' failed") {
			return "COUNTEREXAMPLE FAILED"
		}
		return "OUT OF MEMORY"
	case returnCode == 1 && strings.Contains(output, "PARSING ERROR"):
		return "PARSING ERROR"
	default:
		return "FAILURE"
	}
}

func (t *satabsTool) AddColumnValues(outputLines []string, columns []model.Column) []model.Column {
	return defaultAddColumnValues(outputLines, columns)
}
