package remote

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSidecar_ParsesHeaderAndOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stdout")
	content := "Walltime: 1.5\nCpuTime: 1.2\nMemoryUsage: 104857600\nReturnvalue: 2304\nVERIFICATION SUCCESSFUL\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := ParseSidecar(path)
	if err != nil {
		t.Fatalf("ParseSidecar: %v", err)
	}
	if result.WallTime.Seconds() != 1.5 {
		t.Errorf("WallTime = %v", result.WallTime)
	}
	if result.MemUsage != 104857600 {
		t.Errorf("MemUsage = %d", result.MemUsage)
	}
	if result.Status.ExitCode != 9 {
		t.Errorf("ExitCode = %d, want 9 (2304 = 9<<8)", result.Status.ExitCode)
	}
	if len(result.Output) != 1 || result.Output[0] != "VERIFICATION SUCCESSFUL" {
		t.Errorf("Output = %v", result.Output)
	}
}

func TestParseHostInformation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hostInformation.txt")
	content := "name=worker-3\ncpuModel=Intel Xeon\ncpuCores=16\nmemoryMB=65536\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := ParseHostInformation(path)
	if err != nil {
		t.Fatalf("ParseHostInformation: %v", err)
	}
	if info.Name != "worker-3" || info.CPUCores != 16 || info.MemoryMB != 65536 {
		t.Errorf("info = %+v", info)
	}
}
