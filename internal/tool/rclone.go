// Package tool builds and runs delegated transfer-tool invocations. The tool
// receives its credentials through process-scoped environment variables, so
// concurrent runs with different credentials never share a config file.
package tool

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/xtech-analytics/data-unifier/errors"
	"github.com/xtech-analytics/data-unifier/internal/filter"
	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

// DefaultProgram is the delegated transfer tool looked up on PATH.
const DefaultProgram = "rclone"

// remoteName is the rclone remote configured through the environment. The
// RCLONE_CONFIG_<REMOTE>_* variables below must match it.
const remoteName = "unifier"

// Invocation is a fully resolved tool command: program, arguments, and the
// execution-scoped environment carrying the credentials.
type Invocation struct {
	Program string
	Args    []string

	// Env is appended to the process environment for this run only
	Env map[string]string
}

// Runner locates and executes the delegated transfer tool.
type Runner struct {
	program string
	logger  *slog.Logger

	// overridable for tests
	lookPath func(string) (string, error)
	runCmd   func(*exec.Cmd) error
}

// NewRunner creates a Runner for the given program name. An empty name falls
// back to DefaultProgram.
func NewRunner(program string, logger *slog.Logger) *Runner {
	if program == "" {
		program = DefaultProgram
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		program:  program,
		logger:   logger,
		lookPath: exec.LookPath,
		runCmd:   func(cmd *exec.Cmd) error { return cmd.Run() },
	}
}

// Available reports whether the tool is present on the host.
func (r *Runner) Available() bool {
	_, err := r.lookPath(r.program)
	return err == nil
}

// BuildInvocation assembles the copy command for one replication run. The
// source always ends with a path separator so the tool treats it as a
// directory rather than a single object. Folder filters are rewritten to the
// tool's recursive glob form and passed as include rules.
func (r *Runner) BuildInvocation(
	manifest *unifiertypes.Manifest,
	targetDir string,
	bandwidthLimitMB int,
	filters []string,
) *Invocation {
	source := remoteName + ":" + manifest.DataPath()
	if !strings.HasSuffix(source, "/") {
		source += "/"
	}

	args := []string{"copy", source, targetDir, "--progress"}
	if bandwidthLimitMB > 0 {
		args = append(args, "--bwlimit", fmt.Sprintf("%dM", bandwidthLimitMB))
	}
	for _, pattern := range filters {
		args = append(args, "--include", filter.Rewrite(pattern))
	}

	env := map[string]string{
		"RCLONE_CONFIG_UNIFIER_TYPE":              "s3",
		"RCLONE_CONFIG_UNIFIER_ACCESS_KEY_ID":     manifest.AccessKeyID,
		"RCLONE_CONFIG_UNIFIER_SECRET_ACCESS_KEY": manifest.SecretAccessKey,
		"RCLONE_CONFIG_UNIFIER_REGION":            manifest.Region,
	}
	if manifest.Endpoint != "" {
		env["RCLONE_CONFIG_UNIFIER_ENDPOINT"] = manifest.Endpoint
	}

	return &Invocation{Program: r.program, Args: args, Env: env}
}

// Execute runs the invocation to completion. A non-zero exit or a spawn
// failure is returned as a tool execution error carrying the exit status and
// the tail of stderr.
func (r *Runner) Execute(ctx context.Context, inv *Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Env = os.Environ()
	for k, v := range inv.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	r.logger.Info("running delegated tool", "program", inv.Program, "args", inv.Args)

	if err := r.runCmd(cmd); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return errors.NewError("tool",
				fmt.Errorf("%w: %s exited with code %d: %s",
					errors.ErrToolExecution, inv.Program, exitErr.ExitCode(), lastLine(stderr.String())))
		}
		return errors.NewError("tool",
			fmt.Errorf("%w: spawn %s: %v", errors.ErrToolExecution, inv.Program, err))
	}
	return nil
}

// lastLine returns the final non-empty line of captured output.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
