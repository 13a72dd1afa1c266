package xmlbench

import "regexp"

var placeholderPattern = regexp.MustCompile(`\$\{[^}]*\}`)

// Substitutions holds the fixed variable table of §6.2. Keys include
// the surrounding "${...}" already.
type Substitutions map[string]string

// NewBenchmarkSubstitutions builds the substitution table available
// without a source file in scope.
func NewBenchmarkSubstitutions(name, dateHuman, instance, benchmarkPath, benchmarkPathAbs, benchmarkFile, benchmarkFileAbs, logFilePath, logFilePathAbs, runSetName string) Substitutions {
	s := Substitutions{
		"${benchmark_name}":      name,
		"${benchmark_date}":      dateHuman,
		"${benchmark_instance}":  instance,
		"${benchmark_path}":      benchmarkPath,
		"${benchmark_path_abs}":  benchmarkPathAbs,
		"${benchmark_file}":      benchmarkFile,
		"${benchmark_file_abs}":  benchmarkFileAbs,
		"${logfile_path}":        logFilePath,
		"${logfile_path_abs}":    logFilePathAbs,
		"${rundefinition_name}":  runSetName,
		"${test_name}":           runSetName, // legacy alias
	}
	return s
}

// WithSourceFile returns a copy of s extended with the per-source-file
// variables, available only once a file is in scope.
func (s Substitutions) WithSourceFile(name, path, pathAbs string) Substitutions {
	out := make(Substitutions, len(s)+3)
	for k, v := range s {
		out[k] = v
	}
	out["${sourcefile_name}"] = name
	out["${sourcefile_path}"] = path
	out["${sourcefile_path_abs}"] = pathAbs
	return out
}

// Apply performs a single, non-recursive textual replacement pass.
// Substitution keys are unique, so ordering does not matter. It
// returns the substituted string and whether any "${...}" token
// survived (unrecognized placeholders are left verbatim and reported,
// per §4.2: "emits a warning but the string is kept verbatim").
func (s Substitutions) Apply(input string) (result string, hasSurvivingPlaceholder bool) {
	result = placeholderPattern.ReplaceAllStringFunc(input, func(token string) string {
		if v, ok := s[token]; ok {
			return v
		}
		return token
	})
	hasSurvivingPlaceholder = placeholderPattern.MatchString(result)
	return result, hasSurvivingPlaceholder
}

// ApplyAll substitutes every string in a slice, reporting true if any
// one of them retained a surviving placeholder.
func (s Substitutions) ApplyAll(inputs []string) (results []string, anySurviving bool) {
	results = make([]string, len(inputs))
	for i, in := range inputs {
		r, surviving := s.Apply(in)
		results[i] = r
		anySurviving = anySurviving || surviving
	}
	return results, anySurviving
}
