package progress

import "github.com/fatih/color"

// Color definitions mirroring the teacher's internal/ui/writer.go
// package-level color vars: one color.Color per semantic meaning,
// reused across every print rather than constructed per call.
var (
	correctColor = color.New(color.FgGreen)
	wrongColor   = color.New(color.FgRed)
	unknownColor = color.New(color.FgYellow)
	dimColor     = color.New(color.FgWhite, color.Faint)
	headerColor  = color.New(color.FgCyan, color.Bold)
)
