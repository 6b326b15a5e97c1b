// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package runner executes the external cluster CLIs (kubectl, crossplane, helm).
// Every cluster operation outside the live-diff watch goes through this
// boundary: one OS process per call, output buffered in memory.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Result holds the collected output of a finished subprocess.
type Result struct {
	Stdout string
	Stderr string
}

// SpawnError indicates the executable could not be launched at all
// (not found, not executable). The operation was never attempted.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot launch %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ProcessError indicates the subprocess ran and exited non-zero.
type ProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "(no stderr)"
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, msg)
}

// Runner runs an external command to completion.
//
// Implementations must fully write and close stdin, when provided, before
// exit detection proceeds.
type Runner interface {
	Run(ctx context.Context, command string, args []string, stdin string) (*Result, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates a Runner. logger may be nil.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Run executes command with args, optionally piping stdin, and returns the
// buffered output. No timeout is imposed here; cancellation comes from ctx
// and the CLI's own deadlines govern cluster latency.
func (r *ExecRunner) Run(ctx context.Context, command string, args []string, stdin string) (*Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		// os/exec writes the reader to the child and closes the pipe
		// before Wait observes exit.
		cmd.Stdin = strings.NewReader(stdin)
	}

	r.logger.Debug("exec", zap.String("command", command), zap.Strings("args", args))

	err := cmd.Run()
	if err == nil {
		return &Result{Stdout: stdout.String(), Stderr: stderr.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		perr := &ProcessError{
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
		r.logger.Debug("exec failed", zap.String("command", command), zap.Int("exit_code", perr.ExitCode))
		return nil, perr
	}

	return nil, &SpawnError{Command: command, Err: err}
}
