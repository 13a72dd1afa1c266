package report

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/kvit-s/veribench/internal/model"
)

// xmlColumnValue is one <column title="..." value="..."/> entry in a
// run's result record, mirroring xmlbench's xmlColumn attribute
// naming so the two XML vocabularies read as one family.
type xmlColumnValue struct {
	Title string `xml:"title,attr"`
	Value string `xml:"value,attr"`
}

// xmlRunResult is one <run> element: the resolved identity the
// benchmark definition assigned it, plus every result slot §4.3
// defines.
type xmlRunResult struct {
	Name         string           `xml:"name,attr"`
	Files        string           `xml:"files,attr"`
	PropertyFile string           `xml:"properties,attr,omitempty"`
	Status       string           `xml:"status,attr"`
	Category     string           `xml:"category,attr"`
	CPUTime      string           `xml:"cputime,attr"`
	WallTime     string           `xml:"walltime,attr"`
	MemUsage     int64            `xml:"memUsage,attr,omitempty"`
	Host         string           `xml:"host,attr,omitempty"`
	Columns      []xmlColumnValue `xml:"column"`
}

// xmlRunSetResult is the per-run-set result document §4.9 maintains
// and flushes throttled during execution, matching xmlbench's
// xmlBenchmark/xmlRunSet naming for its own attributes.
type xmlRunSetResult struct {
	XMLName   xml.Name       `xml:"result"`
	Benchmark string         `xml:"benchmarkname,attr"`
	RunSet    string         `xml:"name,attr,omitempty"`
	Tool      string         `xml:"tool,attr"`
	Version   string         `xml:"version,attr"`
	Timestamp string         `xml:"starttime,attr"`
	Runs      []xmlRunResult `xml:"run"`
}

// formatSeconds renders a duration the way the original's columns do:
// a decimal second count with a trailing unit, parsed back by the
// table generator's trailing-unit-stripping numeric reader (§4.10).
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// buildRunSetXML converts one run set's completed runs into the
// result document §4.9 flushes to disk.
func buildRunSetXML(bench *model.Benchmark, rs *model.RunSet) *xmlRunSetResult {
	doc := &xmlRunSetResult{
		Benchmark: bench.Name,
		RunSet:    rs.Name,
		Tool:      bench.ToolName,
		Version:   bench.ToolVersion,
		Timestamp: bench.TimestampHuman,
	}
	for _, run := range rs.Runs {
		entry := xmlRunResult{
			Name:         run.Identifier,
			Files:        joinFiles(run.SourceFiles),
			PropertyFile: run.PropertyFile,
			Status:       run.Status,
			Category:     string(run.Category),
			CPUTime:      formatSeconds(run.CPUTime),
			WallTime:     formatSeconds(run.WallTime),
			MemUsage:     run.MemUsage,
			Host:         run.Host,
		}
		for _, col := range run.Columns {
			entry.Columns = append(entry.Columns, xmlColumnValue{Title: col.Title, Value: col.Value})
		}
		doc.Runs = append(doc.Runs, entry)
	}
	return doc
}

func joinFiles(files []string) string {
	if len(files) == 0 {
		return ""
	}
	out := files[0]
	for _, f := range files[1:] {
		out += " " + f
	}
	return out
}

// marshalRunSetXML renders doc as an indented XML document with the
// standard declaration, matching the pretty-printed style the
// teacher's own configuration loads (gopkg.in/yaml.v3) rather than
// reading, but which `encoding/xml`'s MarshalIndent produces natively.
func marshalRunSetXML(doc *xmlRunSetResult) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result xml: %w", err)
	}
	out := []byte(xml.Header)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
