// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation against a Fake.
type Call struct {
	Command string
	Args    []string
	Stdin   string
}

// Fake is an in-memory Runner for tests. Responses are matched by substring
// against "command args..."; the first match wins. Unmatched calls return an
// empty Result.
type Fake struct {
	mu        sync.Mutex
	calls     []Call
	responses []fakeResponse

	// Delay, when non-nil, is closed by the test to release in-flight
	// calls. Used to hold a fetch open while asserting coalescing.
	Delay chan struct{}
}

type fakeResponse struct {
	match  string
	result *Result
	err    error
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{}
}

// Respond registers stdout for any call whose command line contains match.
func (f *Fake) Respond(match, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{match: match, result: &Result{Stdout: stdout}})
}

// RespondErr registers an error for any call whose command line contains match.
func (f *Fake) RespondErr(match string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeResponse{match: match, err: err})
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, command string, args []string, stdin string) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Command: command, Args: args, Stdin: stdin})
	delay := f.Delay
	line := command + " " + strings.Join(args, " ")
	var res *Result
	var err error
	matched := false
	for _, r := range f.responses {
		if strings.Contains(line, r.match) {
			res, err = r.result, r.err
			matched = true
			break
		}
	}
	f.mu.Unlock()

	if delay != nil {
		select {
		case <-delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !matched {
		return &Result{}, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Calls returns a copy of all recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many calls contained match in their command line.
func (f *Fake) CallCount(match string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		line := c.Command + " " + strings.Join(c.Args, " ")
		if strings.Contains(line, match) {
			n++
		}
	}
	return n
}
