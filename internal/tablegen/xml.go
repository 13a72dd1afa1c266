// Package tablegen is the table generator (§4.10): it merges one or
// more result XML documents §4.9 produces by task name, computes
// per-column statistics, and optionally counts status regressions
// between the last two inputs. Rendering itself is an external
// template's job (spec.md's "Out of scope" list); this package only
// builds the data model a template would consume.
package tablegen

import (
	"encoding/xml"
	"fmt"
	"os"
)

// xmlColumnValue mirrors internal/report/xml.go's own (unexported,
// package-private) type of the same shape: the two packages share a
// wire format, not code, the same way the original's benchmark.py and
// table-generator.py are separate programs agreeing only on the XML
// schema between them.
type xmlColumnValue struct {
	Title string `xml:"title,attr"`
	Value string `xml:"value,attr"`
}

type xmlRunResult struct {
	Name         string           `xml:"name,attr"`
	Files        string           `xml:"files,attr"`
	PropertyFile string           `xml:"properties,attr"`
	Status       string           `xml:"status,attr"`
	Category     string           `xml:"category,attr"`
	CPUTime      string           `xml:"cputime,attr"`
	WallTime     string           `xml:"walltime,attr"`
	MemUsage     int64            `xml:"memUsage,attr"`
	Host         string           `xml:"host,attr"`
	Columns      []xmlColumnValue `xml:"column"`
}

type xmlRunSetResult struct {
	XMLName   xml.Name       `xml:"result"`
	Benchmark string         `xml:"benchmarkname,attr"`
	RunSet    string         `xml:"name,attr"`
	Tool      string         `xml:"tool,attr"`
	Version   string         `xml:"version,attr"`
	Timestamp string         `xml:"starttime,attr"`
	Runs      []xmlRunResult `xml:"run"`
}

// loadResultXML reads and parses one result XML file produced by
// internal/report.
func loadResultXML(path string) (*xmlRunSetResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result xml %s: %w", path, err)
	}
	var doc xmlRunSetResult
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse result xml %s: %w", path, err)
	}
	return &doc, nil
}
