// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// StreamHandlers receives output from a long-lived subprocess.
// OnData is called with raw chunks interleaved from stdout and stderr;
// OnExit is called exactly once after the process ends and all data has
// been delivered.
type StreamHandlers struct {
	OnData func(chunk []byte)
	OnExit func(exitCode int, err error)
}

// StreamProcess is a running long-lived subprocess (log tailing and similar).
// It has no completion contract beyond Kill.
type StreamProcess struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	killed bool
}

// Kill terminates the subprocess. Safe to call more than once; the
// handlers' OnExit still fires exactly once, from the reader goroutine.
func (p *StreamProcess) Kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.killed {
		return
	}
	p.killed = true
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// Stream starts command and forwards its combined output chunk-by-chunk to
// handlers until the process exits or is killed. stdin, if non-empty, is
// fully written and closed before any exit detection.
func (r *ExecRunner) Stream(ctx context.Context, command string, args []string, stdin string, handlers StreamHandlers) (*StreamProcess, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Command: command, Err: err}
	}
	cmd.Stderr = cmd.Stdout // one interleaved stream, same as a terminal

	var stdinPipe io.WriteCloser
	if stdin != "" {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			return nil, &SpawnError{Command: command, Err: err}
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: command, Err: err}
	}

	if stdinPipe != nil {
		// Synchronous write-then-close, ordered before the read loop
		// can observe EOF.
		_, _ = io.Copy(stdinPipe, strings.NewReader(stdin))
		_ = stdinPipe.Close()
	}

	proc := &StreamProcess{cmd: cmd}

	go func() {
		buf := make([]byte, 4096)
		for {
			n, readErr := stdout.Read(buf)
			if n > 0 && handlers.OnData != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				handlers.OnData(chunk)
			}
			if readErr != nil {
				break
			}
		}

		waitErr := cmd.Wait()
		code := 0
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		}
		r.logger.Debug("stream exited", zap.String("command", command), zap.Int("exit_code", code))
		if handlers.OnExit != nil {
			handlers.OnExit(code, waitErr)
		}
	}()

	return proc, nil
}
