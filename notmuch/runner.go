package notmuch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes one notmuch subcommand and returns its stdout
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// CLIRunner drives the notmuch command line tool
type CLIRunner struct {
	Binary       string
	DatabasePath string // Exported as NOTMUCH_DATABASE when set
}

// Run executes the binary with args. Failures include notmuch's stderr.
func (r *CLIRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Env = os.Environ()
	if r.DatabasePath != "" {
		cmd.Env = append(cmd.Env, "NOTMUCH_DATABASE="+r.DatabasePath)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("notmuch %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("notmuch %s: %w: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}
