package remote

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kvit-s/veribench/internal/runexec"
)

// SidecarResult is one run's measurements as reported by the remote
// worker's stdOut sidecar file, grounded on cloudRunexecutor.py's
// four `print` lines (Walltime/CpuTime/MemoryUsage/Returnvalue).
type SidecarResult struct {
	WallTime time.Duration
	CPUTime  time.Duration
	MemUsage int64
	Status   runexec.ProcessStatus
	Output   []string
}

// ParseSidecar reads a stdOut file in the "Key: value" line format the
// remote worker writes, followed by the run's captured log output.
func ParseSidecar(path string) (SidecarResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SidecarResult{}, fmt.Errorf("open sidecar %s: %w", path, err)
	}
	defer f.Close()

	var result SidecarResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			if key, value, ok := strings.Cut(line, ": "); ok {
				if err := applySidecarField(&result, key, value); err == nil {
					continue
				}
			}
			inHeader = false
		}
		result.Output = append(result.Output, line)
	}
	if err := scanner.Err(); err != nil {
		return SidecarResult{}, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	return result, nil
}

func applySidecarField(result *SidecarResult, key, value string) error {
	switch key {
	case "Walltime":
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		result.WallTime = time.Duration(seconds * float64(time.Second))
	case "CpuTime":
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		result.CPUTime = time.Duration(seconds * float64(time.Second))
	case "MemoryUsage":
		mem, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		result.MemUsage = mem
	case "Returnvalue":
		raw, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		result.Status = runexec.DecodeEncoded16(raw)
	default:
		return fmt.Errorf("unrecognized sidecar field %q", key)
	}
	return nil
}

// HostInformation is the per-worker description the cluster client
// writes once per batch (§6.3's hostInformation.txt).
type HostInformation struct {
	Name     string
	CPUModel string
	CPUCores int
	MemoryMB int64
}

// ParseHostInformation reads a hostInformation.txt in "key=value" form.
func ParseHostInformation(path string) (HostInformation, error) {
	f, err := os.Open(path)
	if err != nil {
		return HostInformation{}, fmt.Errorf("open host information %s: %w", path, err)
	}
	defer f.Close()

	var info HostInformation
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "name":
			info.Name = value
		case "cpuModel":
			info.CPUModel = value
		case "cpuCores":
			info.CPUCores, _ = strconv.Atoi(value)
		case "memoryMB":
			info.MemoryMB, _ = strconv.ParseInt(value, 10, 64)
		}
	}
	if err := scanner.Err(); err != nil {
		return HostInformation{}, fmt.Errorf("read host information %s: %w", path, err)
	}
	return info, nil
}
