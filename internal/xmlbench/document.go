// Package xmlbench parses a benchmark-definition XML document (§6.1)
// and expands it into a fully materialized model.Benchmark (§4.1).
package xmlbench

import "encoding/xml"

// xmlOption is a single <option name="...">value</option> entry. Both
// the name attribute and the body are emitted as separate argv items.
type xmlOption struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlRequire struct {
	CPUModel string `xml:"cpuModel,attr"`
	CPUCores int    `xml:"cpuCores,attr"`
	Memory   int64  `xml:"memory,attr"`
}

type xmlColumn struct {
	Title         string `xml:"title,attr"`
	NumberOfDigits int    `xml:"numberOfDigits,attr"`
	Pattern       string `xml:",chardata"`
}

type xmlColumns struct {
	Columns []xmlColumn `xml:"column"`
}

// xmlSourcefiles models a <sourcefiles name="..."> block and is also
// reused (minus the Name) for the implicit global source-file scope.
type xmlSourcefiles struct {
	Name          string   `xml:"name,attr"`
	Include       []string `xml:"include"`
	IncludesFile  []string `xml:"includesfile"`
	Exclude       []string `xml:"exclude"`
	ExcludesFile  []string `xml:"excludesfile"`
	WithoutFile   []string `xml:"withoutfile"`
	Append        []string `xml:"append"`
	Options       []xmlOption `xml:"option"`
	PropertyFiles []string `xml:"propertyfile"`
	RequiredFiles []string `xml:"requiredfiles"`
}

// xmlRunSet models a <rundefinition> block (legacy alias <test>).
type xmlRunSet struct {
	Name          string           `xml:"name,attr"`
	Options       []xmlOption      `xml:"option"`
	PropertyFiles []string         `xml:"propertyfile"`
	RequiredFiles []string         `xml:"requiredfiles"`
	Sourcefiles   []xmlSourcefiles `xml:"sourcefiles"`
}

// xmlBenchmark is the root <benchmark> element.
type xmlBenchmark struct {
	XMLName xml.Name `xml:"benchmark"`

	Tool          string `xml:"tool,attr"`
	MemLimit      string `xml:"memlimit,attr"`
	TimeLimit     string `xml:"timelimit,attr"`
	HardTimeLimit string `xml:"hardtimelimit,attr"`
	CPUCores      string `xml:"cpuCores,attr"`
	Threads       string `xml:"threads,attr"`

	RequiredFiles []string    `xml:"requiredfiles"`
	ResultFiles   []string    `xml:"resultfiles"`
	Requires      []xmlRequire `xml:"require"`
	Options       []xmlOption `xml:"option"`
	PropertyFiles []string    `xml:"propertyfile"`
	Columns       *xmlColumns `xml:"columns"`

	GlobalSourcefiles []xmlSourcefiles `xml:"sourcefiles"`

	RunDefinitions []xmlRunSet `xml:"rundefinition"`
	LegacyTests    []xmlRunSet `xml:"test"` // legacy alias, merged with RunDefinitions
}
