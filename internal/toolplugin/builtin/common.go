package builtin

import "github.com/kvit-s/veribench/internal/model"

// defaultAddColumnValues implements the default column-extraction rule
// of §4.4: the first output line containing the column's pattern,
// with the trailing "pattern: value" group taken as the value.
func defaultAddColumnValues(outputLines []string, columns []model.Column) []model.Column {
	out := make([]model.Column, len(columns))
	for i, col := range columns {
		out[i] = col
		for _, line := range outputLines {
			idx := indexOf(line, col.Pattern)
			if idx < 0 {
				continue
			}
			rest := line[idx+len(col.Pattern):]
			out[i].Value = extractValue(rest)
			break
		}
	}
	return out
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}

// extractValue trims a leading colon and surrounding whitespace,
// matching the "pattern: value" convention most tool output follows.
func extractValue(rest string) string {
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	if i < len(rest) && rest[i] == ':' {
		i++
	}
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	j := len(rest)
	for j > i && (rest[j-1] == ' ' || rest[j-1] == '\t' || rest[j-1] == '\r' || rest[j-1] == '\n') {
		j--
	}
	return rest[i:j]
}
