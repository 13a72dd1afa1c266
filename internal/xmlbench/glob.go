package xmlbench

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ParseListFile reads an <includesfile>/<excludesfile> and returns its
// patterns: blank lines and "#"/"//" comment lines are skipped, each
// remaining line is trimmed. A line that looks like code — contains a
// "{" that is not part of a "${...}" substitution — is rejected,
// since includesfile is a plain pattern list, not a script (§4.1).
func ParseListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open includes/excludes file %q: %w", path, err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if looksLikeCode(line) {
			return nil, fmt.Errorf("%s:%d: looks like code, not a file pattern: %q", path, lineNo, line)
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read includes/excludes file %q: %w", path, err)
	}
	return patterns, nil
}

// looksLikeCode rejects any line containing a "{" that is not part of
// a "${...}" substitution token.
func looksLikeCode(line string) bool {
	withoutSubstitutions := placeholderPattern.ReplaceAllString(line, "")
	return strings.Contains(withoutSubstitutions, "{")
}

// ExpandGlob expands pattern (already substituted) against baseDir
// when pattern is relative, returning matches sorted lexicographically
// for deterministic ordering. A pattern matching nothing returns an
// empty, non-error result; the caller emits the "missing pattern"
// warning.
func ExpandGlob(pattern, baseDir string) ([]string, error) {
	full := pattern
	if !filepath.IsAbs(pattern) {
		full = filepath.Join(baseDir, pattern)
	}
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, fmt.Errorf("expand pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// ExpandPathToFiles expands path to the concrete file list it denotes:
// itself if it is a regular file, or every non-dotfile it recursively
// contains if it is a directory (§3 Run.sourcefiles).
func ExpandPathToFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(p), ".") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %q: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
