package builtin

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/toolplugin"
)

func init() {
	toolplugin.Register("acsar", func() toolplugin.Tool { return &acsarTool{} })
}

// acsarTool wraps the Acsar predicate abstraction verifier. Unlike the
// original, it does not rewrite the source file before invocation
// (sourcefile preprocessing is out of scope for this plug-in layer —
// see §1 Non-goals, "the system does not compile or interpret the
// tasks it runs").
type acsarTool struct{}

func (t *acsarTool) Name() string { return "Acsar" }

func (t *acsarTool) Executable() (string, error) {
	path, err := exec.LookPath("acsar")
	if err != nil {
		return "", fmt.Errorf("acsar executable not found on PATH: %w", err)
	}
	return path, nil
}

func (t *acsarTool) Version(executable string) string { return "" }

func (t *acsarTool) Cmdline(executable string, options, sourceFiles []string, propertyFile string, limits toolplugin.Rlimits) []string {
	if len(sourceFiles) != 1 {
		return nil
	}
	argv := []string{"--file", sourceFiles[0]}
	return append(argv, options...)
}

func (t *acsarTool) WorkingDirectory(executable string) string {
	return toolplugin.DefaultWorkingDirectory(executable)
}

func (t *acsarTool) Environments(executable string) toolplugin.Environment {
	return toolplugin.Environment{}
}

func (t *acsarTool) ProgramFiles(executable string) []string { return nil }

func (t *acsarTool) DetermineResult(returnCode int, signal *int, outputLines []string, isTimeout bool) string {
	output := strings.Join(outputLines, "\n")
	switch {
	case strings.Contains(output, "syntax error"):
		return "SYNTAX ERROR"
	case strings.Contains(output, "runtime error"):
		return "RUNTIME ERROR"
	case strings.Contains(output, "error while loading shared libraries:"):
		return "LIBRARY ERROR"
	case strings.Contains(output, "is not defined"):
		return "NO MAIN"
	case strings.Contains(output, "I don't Know"):
		return "TIMEOUT"
	case signal != nil && *signal == 6:
		return "ABORT"
	case signal != nil && *signal == 11:
		return "SEGFAULT"
	case signal != nil && *signal == 15:
		return "KILLED"
	case strings.Contains(output, "is not reachable"):
		return "true"
	case strings.Contains(output, "is reachable via the following path"):
		return "false(reach)"
	default:
		return "unknown"
	}
}

func (t *acsarTool) AddColumnValues(outputLines []string, columns []model.Column) []model.Column {
	return defaultAddColumnValues(outputLines, columns)
}
