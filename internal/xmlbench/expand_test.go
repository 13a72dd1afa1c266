package xmlbench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kvit-s/veribench/internal/model"
	"github.com/kvit-s/veribench/internal/toolplugin"
)

type stubTool struct{}

func (s *stubTool) Name() string                { return "stub" }
func (s *stubTool) Executable() (string, error) { return "/bin/true", nil }
func (s *stubTool) Version(string) string       { return "1.0" }
func (s *stubTool) Cmdline(executable string, options, sourceFiles []string, propertyFile string, limits toolplugin.Rlimits) []string {
	return append(append([]string{}, options...), sourceFiles...)
}
func (s *stubTool) WorkingDirectory(string) string  { return "." }
func (s *stubTool) Environments(string) toolplugin.Environment { return toolplugin.Environment{} }
func (s *stubTool) ProgramFiles(string) []string    { return nil }
func (s *stubTool) DetermineResult(int, *int, []string, bool) string { return "unknown" }
func (s *stubTool) AddColumnValues(lines []string, cols []model.Column) []model.Column { return cols }

func writeXML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "bench.xml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExpand_SingleSourcefilesRunSet(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a_true-unreach-call.c"), []byte("int main(){return 0;}"), 0644); err != nil {
		t.Fatal(err)
	}

	xmlContent := `<?xml version="1.0"?>
<benchmark tool="stub" memlimit="2000" timelimit="100">
  <rundefinition name="main">
    <sourcefiles name="set1">
      <include>*.c</include>
    </sourcefiles>
  </rundefinition>
</benchmark>`
	xmlPath := writeXML(t, dir, xmlContent)

	doc, err := Load(xmlPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reg := toolplugin.NewRegistry()
	reg.Register("stub", func() toolplugin.Tool { return &stubTool{} })

	outDir := t.TempDir()
	b, warnings, err := Expand(doc, xmlPath, ExpandOptions{
		OutputPath: outDir,
		Registry:   reg,
		Instance:   "test1",
	})
	if err != nil {
		t.Fatalf("Expand: %v (warnings: %v)", err, warnings.Messages())
	}

	if len(b.RunSets) != 1 {
		t.Fatalf("RunSets = %d, want 1", len(b.RunSets))
	}
	rs := b.RunSets[0]
	if len(rs.Runs) != 1 {
		t.Fatalf("Runs = %d, want 1", len(rs.Runs))
	}
	run := rs.Runs[0]
	if filepath.Base(run.Identifier) != "a_true-unreach-call.c" {
		t.Errorf("Identifier = %q", run.Identifier)
	}
	if run.LogFile == "" {
		t.Error("LogFile should be set")
	}
	if b.Limits.MemoryMB != 2000 {
		t.Errorf("MemoryMB = %d, want 2000", b.Limits.MemoryMB)
	}
	if b.Limits.HardTimeS != 100 || b.Limits.SoftTimeS != 100 {
		t.Errorf("time limits = hard:%d soft:%d, want both 100", b.Limits.HardTimeS, b.Limits.SoftTimeS)
	}
}

func TestExpand_ModuloAndRestSelection(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.c", "b.c"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	xmlContent := `<?xml version="1.0"?>
<benchmark tool="stub">
  <rundefinition name="one"><sourcefiles><include>a.c</include></sourcefiles></rundefinition>
  <rundefinition name="two"><sourcefiles><include>b.c</include></sourcefiles></rundefinition>
</benchmark>`
	xmlPath := writeXML(t, dir, xmlContent)
	doc, err := Load(xmlPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reg := toolplugin.NewRegistry()
	reg.Register("stub", func() toolplugin.Tool { return &stubTool{} })

	mod := [2]int{2, 0}
	b, _, err := Expand(doc, xmlPath, ExpandOptions{
		OutputPath:    t.TempDir(),
		Registry:      reg,
		Instance:      "test2",
		ModuloAndRest: &mod,
	})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(b.RunSets) != 1 {
		t.Fatalf("RunSets = %d, want 1 (only index 2 selected)", len(b.RunSets))
	}
	if b.RunSets[0].Name != "two" {
		t.Errorf("selected run set = %q, want two", b.RunSets[0].Name)
	}
}

func TestExpand_RefusesExistingLogFolder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.c"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	xmlContent := `<?xml version="1.0"?>
<benchmark tool="stub">
  <rundefinition name="one"><sourcefiles><include>a.c</include></sourcefiles></rundefinition>
</benchmark>`
	xmlPath := writeXML(t, dir, xmlContent)
	doc, err := Load(xmlPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reg := toolplugin.NewRegistry()
	reg.Register("stub", func() toolplugin.Tool { return &stubTool{} })

	outDir := t.TempDir()
	opts := ExpandOptions{OutputPath: outDir, Registry: reg, Instance: "dup"}
	if _, _, err := Expand(doc, xmlPath, opts); err != nil {
		t.Fatalf("first Expand: %v", err)
	}
	if _, _, err := Expand(doc, xmlPath, opts); err == nil {
		t.Fatal("expected error on re-expansion of an existing log folder")
	}
	opts.Reprocess = true
	if _, _, err := Expand(doc, xmlPath, opts); err != nil {
		t.Fatalf("Expand with Reprocess=true: %v", err)
	}
}
