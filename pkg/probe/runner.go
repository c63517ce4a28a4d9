package probe

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes an external command. It matches docker.Runner so one
// implementation serves both.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec, killing them when ctx expires.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// powerShell runs a single script with a non-interactive shell.
func powerShell(ctx context.Context, r Runner, script string) ([]byte, []byte, error) {
	return r.Run(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script)
}
