package remote

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/kvit-s/veribench/internal/logging"
	"github.com/kvit-s/veribench/internal/model"
)

// Client wraps the external cluster client binary (§6.3: "the cloud
// client is a separate executable this tool shells out to, never a Go
// library"), grounded on cloudRunexecutor.py's role as the thing that
// gets invoked per run, generalized here into one process managing a
// whole batch via the dispatch file.
type Client struct {
	Executable string
	Master     string
	Priority   string
	Token      string
	log        *logging.Logger
}

// NewClient builds a Client from resolved configuration.
func NewClient(executable, master, priority, token string, log *logging.Logger) *Client {
	return &Client{Executable: executable, Master: master, Priority: priority, Token: token, log: log}
}

// Dispatch writes one Record per run to a dispatch file under dir and
// invokes the cluster client against it, retrying transient failures
// with backoff the way internal/tools/shell.go's executeCommand treats
// a timed-out external command: log and continue rather than abort the
// whole batch on one flaky invocation.
func (c *Client) Dispatch(ctx context.Context, dir string, runs []*model.Run, records []Record) (string, error) {
	if len(runs) != len(records) {
		return "", fmt.Errorf("dispatch: %d runs but %d records", len(runs), len(records))
	}

	dispatchPath := filepath.Join(dir, "dispatch.txt")
	f, err := os.OpenFile(dispatchPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create dispatch file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, r := range records {
		line, err := EncodeRecord(r)
		if err != nil {
			f.Close()
			return "", fmt.Errorf("encode record: %w", err)
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return "", fmt.Errorf("write dispatch file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush dispatch file: %w", err)
	}
	f.Close()

	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.invoke(ctx, dispatchPath); err != nil {
			lastErr = err
			c.log.DispatchWarning(fmt.Sprintf("cluster client invocation %d/%d failed", attempt, maxAttempts), err)
			select {
			case <-ctx.Done():
				return dispatchPath, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			continue
		}
		return dispatchPath, nil
	}
	return dispatchPath, fmt.Errorf("cluster client failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) invoke(ctx context.Context, dispatchPath string) error {
	args := []string{"--master", c.Master, "--priority", c.Priority, "--input", dispatchPath}
	cmd := exec.CommandContext(ctx, c.Executable, args...)
	if c.Token != "" {
		cmd.Env = append(os.Environ(), "VERIBENCH_CLOUD_TOKEN="+c.Token)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
