package xmlbench

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/toolplugin"
)

// ExpandOptions carries the CLI/config inputs that steer expansion
// (§6.4) on top of the parsed XML document.
type ExpandOptions struct {
	Name               string
	OutputPath         string
	RunDefinitionNames []string // -r/--rundefinition; empty = all
	SourceFileSetNames []string // -s/--sourcefiles; empty = all
	Limits             LimitOverrides
	Threads            int
	HasThreads         bool
	ModuloAndRest      *[2]int // -x/--moduloAndRest a b
	Reprocess          bool    // allow an existing log folder
	NoLocalExecutable  bool    // remote-only: skip executable resolution
	Instance           string  // if empty, a short id is generated
	Registry           *toolplugin.Registry
	DefaultThreads     int
}

// Warnings accumulates non-fatal diagnostics produced during
// expansion (§7 "local errors are surfaced, not swallowed").
type Warnings struct {
	messages []string
}

func (w *Warnings) add(format string, args ...any) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
}

// Messages returns the accumulated warning strings, in emission order.
func (w *Warnings) Messages() []string { return append([]string(nil), w.messages...) }

// builtinColumns are always present and precede user columns (§4.3).
func builtinColumns() []model.Column {
	return []model.Column{
		{Pattern: "status", Title: "status"},
		{Pattern: "cputime", Title: "cputime"},
		{Pattern: "walltime", Title: "walltime"},
	}
}

func registryOrDefault(r *toolplugin.Registry) func(string) (toolplugin.Tool, error) {
	if r == nil {
		return toolplugin.New
	}
	return r.New
}

// Expand materializes doc into a fully populated Benchmark (§4.1).
func Expand(doc *xmlBenchmark, xmlPath string, opts ExpandOptions) (*model.Benchmark, *Warnings, error) {
	warnings := &Warnings{}
	baseDir := filepath.Dir(xmlPath)

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(xmlPath), filepath.Ext(xmlPath))
	}

	instance := opts.Instance
	if instance == "" {
		instance = uuid.New().String()[:8]
	}

	now := time.Now()
	b := &model.Benchmark{
		Name:           name,
		Timestamp:      now,
		TimestampHuman: now.Format("2006-01-02T15:04:05"),
		Instance:       instance,
	}
	b.OutputBase = filepath.Join(opts.OutputPath, b.BaseName())
	b.LogFolder = filepath.Join(b.OutputBase, name+".logfiles")

	if _, err := os.Stat(b.LogFolder); err == nil && !opts.Reprocess {
		return nil, warnings, fmt.Errorf("log folder %q already exists; refusing to overwrite prior results", b.LogFolder)
	}
	if err := os.MkdirAll(b.LogFolder, 0755); err != nil {
		return nil, warnings, fmt.Errorf("create log folder %q: %w", b.LogFolder, err)
	}

	newTool := registryOrDefault(opts.Registry)
	tool, err := newTool(doc.Tool)
	if err != nil {
		return nil, warnings, err
	}
	b.ToolName = tool.Name()
	if !opts.NoLocalExecutable {
		exe, err := tool.Executable()
		if err != nil {
			return nil, warnings, err
		}
		b.ToolExecutable = exe
		b.ToolVersion = tool.Version(exe)
	}

	limits, limitWarnings, err := buildLimits(doc, opts.Limits)
	if err != nil {
		return nil, warnings, fmt.Errorf("parse resource limits: %w", err)
	}
	for _, w := range limitWarnings {
		warnings.add("%s", w)
	}
	b.Limits = limits

	b.Threads = opts.DefaultThreads
	if b.Threads == 0 {
		b.Threads = 1
	}
	if raw := doc.Threads; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			b.Threads = n
		}
	}
	if opts.HasThreads && opts.Threads > 0 {
		b.Threads = opts.Threads
	}

	b.GlobalOptions = flattenOptions(doc.Options)
	b.GlobalPropertyFiles = doc.PropertyFiles
	b.GlobalRequiredFiles, err = expandRequiredFiles(doc.RequiredFiles, baseDir)
	if err != nil {
		return nil, warnings, err
	}

	b.Columns = append(builtinColumns(), xmlColumnsToModel(doc.Columns)...)

	if len(doc.Requires) > 0 {
		req, err := mergeRequirements(doc.Requires)
		if err != nil {
			return nil, warnings, err
		}
		b.Requirements = req
	}

	benchSubs := NewBenchmarkSubstitutions(
		name, b.TimestampHuman, instance,
		baseDir, mustAbs(baseDir),
		xmlPath, mustAbs(xmlPath),
		b.LogFolder, mustAbs(b.LogFolder),
		"",
	)

	benchPropertyFile := lastNonEmpty(doc.PropertyFiles)

	for i, rs := range doc.RunDefinitions {
		index := i + 1
		if !runSetSelected(rs.Name, index, opts) {
			warnings.add("skipping run set %q (index %d): excluded by selection filters", rs.Name, index)
			continue
		}

		runSetSubs := benchSubs
		runSetSubs["${rundefinition_name}"] = rs.Name
		runSetSubs["${test_name}"] = rs.Name

		runSetPropertyFile := benchPropertyFile
		if rsLast := lastNonEmpty(rs.PropertyFiles); rsLast != "" {
			runSetPropertyFile = rsLast
		}

		runSetRequired, err := expandRequiredFiles(rs.RequiredFiles, baseDir)
		if err != nil {
			return nil, warnings, err
		}

		runSetOptions := flattenOptions(rs.Options)

		runSet := &model.RunSet{
			Name:         rs.Name,
			Index:        index,
			Options:      append(append([]string{}, b.GlobalOptions...), runSetOptions...),
			PropertyFile: runSetPropertyFile,
			LogFolder:    filepath.Join(b.LogFolder, rs.Name),
		}

		sfsBlocks := append(append([]xmlSourcefiles{}, doc.GlobalSourcefiles...), rs.Sourcefiles...)
		seenLogFiles := make(map[string]int)

		for _, sfs := range sfsBlocks {
			if !sourceFileSetSelected(sfs.Name, opts) {
				continue
			}

			sfsPropertyFile := runSetPropertyFile
			if sfsLast := lastNonEmpty(sfs.PropertyFiles); sfsLast != "" {
				sfsPropertyFile = sfsLast
			}

			sfsRequired, err := expandRequiredFiles(sfs.RequiredFiles, baseDir)
			if err != nil {
				return nil, warnings, err
			}
			required := unionSets(unionSets(b.GlobalRequiredFiles, runSetRequired), sfsRequired)
			if sfsPropertyFile != "" {
				required[sfsPropertyFile] = struct{}{}
			}

			sfsOptions := flattenOptions(sfs.Options)
			fullOptions := append(append([]string{}, runSet.Options...), sfsOptions...)

			includes, err := resolveIncludes(sfs, runSetSubs, baseDir, warnings)
			if err != nil {
				return nil, warnings, err
			}
			excludes, err := resolveExcludes(sfs, runSetSubs, baseDir, warnings)
			if err != nil {
				return nil, warnings, err
			}
			primaryFiles := subtractSorted(includes, excludes)
			primaryFiles = warnDuplicates(primaryFiles, sfs.Name, warnings)

			set := model.SourceFileSet{Name: sfs.Name}

			for _, primary := range primaryFiles {
				run, err := buildRun(primary, sfs, runSetSubs, fullOptions, sfsPropertyFile, required, b.Columns, baseDir, warnings)
				if err != nil {
					return nil, warnings, err
				}
				run.RunSetIndex = index
				assignLogFile(run, b.LogFolder, rs.Name, len(doc.RunDefinitions) > 1, seenLogFiles, warnings)
				set.Runs = append(set.Runs, run)
			}

			for _, literal := range sfs.WithoutFile {
				text, _ := runSetSubs.Apply(literal)
				run := &model.Run{
					Identifier:    text,
					Options:       append([]string{}, fullOptions...),
					PropertyFile:  sfsPropertyFile,
					RequiredFiles: required,
					Columns:       cloneColumns(b.Columns),
					RunSetIndex:   index,
				}
				assignLogFile(run, b.LogFolder, rs.Name, len(doc.RunDefinitions) > 1, seenLogFiles, warnings)
				set.Runs = append(set.Runs, run)
			}

			if len(set.Runs) == 0 {
				warnings.add("source-file set %q in run set %q is empty; skipped", sfs.Name, rs.Name)
				continue
			}
			runSet.SourceFileSets = append(runSet.SourceFileSets, set)
			runSet.Runs = append(runSet.Runs, set.Runs...)
		}

		if len(runSet.Runs) == 0 {
			warnings.add("run set %q has no runs; skipped", rs.Name)
			continue
		}
		b.RunSets = append(b.RunSets, runSet)
	}

	return b, warnings, nil
}

func mustAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func flattenOptions(opts []xmlOption) []string {
	var out []string
	for _, o := range opts {
		if o.Name != "" {
			out = append(out, o.Name)
		}
		v := strings.TrimSpace(o.Value)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func xmlColumnsToModel(cols *xmlColumns) []model.Column {
	if cols == nil {
		return nil
	}
	out := make([]model.Column, 0, len(cols.Columns))
	for _, c := range cols.Columns {
		title := c.Title
		if title == "" {
			title = strings.TrimSpace(c.Pattern)
		}
		out = append(out, model.Column{
			Pattern: strings.TrimSpace(c.Pattern),
			Title:   title,
			Digits:  c.NumberOfDigits,
		})
	}
	return out
}

func cloneColumns(cols []model.Column) []model.Column {
	out := make([]model.Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}

func expandRequiredFiles(patterns []string, baseDir string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, p := range patterns {
		matches, err := ExpandGlob(p, baseDir)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			set[m] = struct{}{}
		}
	}
	return set, nil
}

func unionSets(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func mergeRequirements(reqs []xmlRequire) (*model.Requirements, error) {
	out := &model.Requirements{}
	var haveCPUModel, haveCPUCores, haveMemory bool
	for _, r := range reqs {
		if r.CPUModel != "" {
			if haveCPUModel {
				return nil, fmt.Errorf("cpuModel specified more than once in <require>")
			}
			out.CPUModel = r.CPUModel
			haveCPUModel = true
		}
		if r.CPUCores != 0 {
			if haveCPUCores {
				return nil, fmt.Errorf("cpuCores specified more than once in <require>")
			}
			out.CPUCores = r.CPUCores
			haveCPUCores = true
		}
		if r.Memory != 0 {
			if haveMemory {
				return nil, fmt.Errorf("memory specified more than once in <require>")
			}
			out.Memory = r.Memory
			haveMemory = true
		}
	}
	return out, nil
}

func lastNonEmpty(items []string) string {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] != "" {
			return items[i]
		}
	}
	return ""
}

func runSetSelected(name string, index int, opts ExpandOptions) bool {
	if len(opts.RunDefinitionNames) > 0 {
		found := false
		for _, n := range opts.RunDefinitionNames {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if opts.ModuloAndRest != nil {
		mod, rest := opts.ModuloAndRest[0], opts.ModuloAndRest[1]
		if mod > 0 && index%mod != rest {
			return false
		}
	}
	return true
}

func sourceFileSetSelected(name string, opts ExpandOptions) bool {
	if len(opts.SourceFileSetNames) == 0 {
		return true
	}
	for _, n := range opts.SourceFileSetNames {
		if n == name {
			return true
		}
	}
	return false
}

func resolveIncludes(sfs xmlSourcefiles, subs Substitutions, baseDir string, warnings *Warnings) ([]string, error) {
	patterns := append([]string{}, sfs.Include...)
	for _, f := range sfs.IncludesFile {
		resolved, _ := subs.Apply(f)
		list, err := ParseListFile(resolved)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, list...)
	}
	return expandPatterns(patterns, subs, baseDir, warnings)
}

func resolveExcludes(sfs xmlSourcefiles, subs Substitutions, baseDir string, warnings *Warnings) ([]string, error) {
	patterns := append([]string{}, sfs.Exclude...)
	for _, f := range sfs.ExcludesFile {
		resolved, _ := subs.Apply(f)
		list, err := ParseListFile(resolved)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, list...)
	}
	return expandPatterns(patterns, subs, baseDir, warnings)
}

func expandPatterns(patterns []string, subs Substitutions, baseDir string, warnings *Warnings) ([]string, error) {
	var all []string
	for _, p := range patterns {
		resolved, surviving := subs.Apply(p)
		if surviving {
			warnings.add("pattern %q retains an unresolved ${...} placeholder", p)
		}
		matches, err := ExpandGlob(resolved, baseDir)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			warnings.add("pattern %q matched no files", resolved)
			continue
		}
		all = append(all, matches...)
	}
	return all, nil
}

func subtractSorted(includes, excludes []string) []string {
	excluded := make(map[string]struct{}, len(excludes))
	for _, e := range excludes {
		excluded[e] = struct{}{}
	}
	var out []string
	for _, in := range includes {
		if _, ok := excluded[in]; !ok {
			out = append(out, in)
		}
	}
	return out
}

func warnDuplicates(files []string, setName string, warnings *Warnings) []string {
	seen := make(map[string]int, len(files))
	for _, f := range files {
		seen[f]++
	}
	for f, n := range seen {
		if n > 1 {
			warnings.add("source-file set %q contains %q %d times; duplicates are kept", setName, f, n)
		}
	}
	return files
}

func buildRun(primary string, sfs xmlSourcefiles, subs Substitutions, options []string, propertyFile string, required map[string]struct{}, columns []model.Column, baseDir string, warnings *Warnings) (*model.Run, error) {
	name := filepath.Base(primary)
	fileSubs := subs.WithSourceFile(name, primary, mustAbs(primary))

	sourceFiles, err := ExpandPathToFiles(primary)
	if err != nil {
		return nil, err
	}
	for _, pattern := range sfs.Append {
		resolved, surviving := fileSubs.Apply(pattern)
		if surviving {
			warnings.add("append pattern %q retains an unresolved ${...} placeholder", pattern)
		}
		matches, err := ExpandGlob(resolved, baseDir)
		if err != nil {
			return nil, err
		}
		sourceFiles = append(sourceFiles, matches...)
	}

	resolvedOptions := make([]string, len(options))
	for i, o := range options {
		resolved, surviving := fileSubs.Apply(o)
		if surviving {
			warnings.add("option %q retains an unresolved ${...} placeholder", o)
		}
		resolvedOptions[i] = resolved
	}

	return &model.Run{
		Identifier:    primary,
		SourceFiles:   sourceFiles,
		Options:       resolvedOptions,
		PropertyFile:  propertyFile,
		RequiredFiles: required,
		Columns:       cloneColumns(columns),
	}, nil
}

func assignLogFile(run *model.Run, logFolder, runSetName string, multipleRunSets bool, seen map[string]int, warnings *Warnings) {
	base := filepath.Base(run.Identifier)
	var original string
	if multipleRunSets {
		original = runSetName + "." + base + ".log"
	} else {
		original = base + ".log"
	}

	name := original
	if n := seen[original]; n > 0 {
		warnings.add("duplicate log-file basename %q in run set %q; disambiguating", original, runSetName)
		ext := filepath.Ext(original)
		stem := strings.TrimSuffix(original, ext)
		name = fmt.Sprintf("%s_%d%s", stem, n+1, ext)
	}
	seen[original]++
	run.LogFile = filepath.Join(logFolder, name)
}
