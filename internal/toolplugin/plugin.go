// Package toolplugin defines the capability set every verification
// tool implements, and a compile-time registry mapping a tool name to
// a constructor for it.
package toolplugin

import "github.com/kvit-s/veribench/internal/model"

// Rlimits carries the resolved per-run resource limits a plug-in may
// need to see while building a command line (some tools accept their
// own --timeout flag instead of relying purely on the executor).
type Rlimits struct {
	MemoryMB  int64
	HardTimeS int64
	SoftTimeS int64
	Cores     int
}

// Environment describes the environment mutations a plug-in wants
// applied to its child process only.
type Environment struct {
	Set     map[string]string
	Prepend map[string]string
	Append  map[string]string
}

// Tool is the capability set every verification-tool plug-in
// implements. cmdline, determineResult and addColumnValues must be
// pure functions of their arguments: no I/O, no hidden state.
type Tool interface {
	// Name returns the tool's registry name.
	Name() string

	// Executable locates the binary, searching PATH plus any
	// plug-in-chosen fallback locations. It returns an error with a
	// clear diagnostic if the binary cannot be found.
	Executable() (string, error)

	// Version returns a version string for the given executable.
	// Plug-ins that cannot determine a version return "".
	Version(executable string) string

	// Cmdline builds the full argv (excluding the executable itself)
	// for one run.
	Cmdline(executable string, options []string, sourceFiles []string, propertyFile string, limits Rlimits) []string

	// WorkingDirectory returns the directory the child process should
	// be started in. The default is the directory containing executable.
	WorkingDirectory(executable string) string

	// Environments returns the environment variable mutations to
	// apply to the child only.
	Environments(executable string) Environment

	// ProgramFiles lists supplementary files the tool needs copied or
	// referenced alongside the executable (e.g. a support library).
	ProgramFiles(executable string) []string

	// DetermineResult parses the recorded log output into a status
	// string. It must be a pure function of its arguments.
	DetermineResult(returnCode int, signal *int, outputLines []string, isTimeout bool) string

	// AddColumnValues fills each column's Value field by pattern
	// matching against outputLines, returning an updated slice.
	AddColumnValues(outputLines []string, columns []model.Column) []model.Column
}

// DefaultWorkingDirectory implements the plug-in default described in
// §4.4: the directory containing the executable.
func DefaultWorkingDirectory(executable string) string {
	dir := "."
	for i := len(executable) - 1; i >= 0; i-- {
		if executable[i] == '/' {
			dir = executable[:i]
			break
		}
	}
	return dir
}
