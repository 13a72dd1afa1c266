package xmlbench

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Load reads and parses a benchmark-definition XML file.
func Load(path string) (*xmlBenchmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read benchmark file %q: %w", path, err)
	}
	var doc xmlBenchmark
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse benchmark XML %q: %w", path, err)
	}
	if doc.Tool == "" {
		return nil, fmt.Errorf("%s: <benchmark> is missing the required tool attribute", path)
	}
	// Legacy <test> blocks are a structural alias for <rundefinition>;
	// normalize them onto the same slice, preserving declaration order
	// within each kind (mixed interleaving across the two tag names is
	// not reconstructed, matching how encoding/xml groups repeated
	// elements by tag).
	doc.RunDefinitions = append(doc.RunDefinitions, doc.LegacyTests...)
	doc.LegacyTests = nil
	return &doc, nil
}
