// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/confighub/xp-console/internal/clierr"
	"github.com/confighub/xp-console/pkg/runner"
)

// PausedAnnotation marks a Crossplane resource whose reconciliation is paused.
const PausedAnnotation = "crossplane.io/paused"

// listWrapperKind is the generic kind the CLI returns when a get resolved
// to a collection rather than a single object.
const listWrapperKind = "List"

// Client performs single-object operations through the kubectl subprocess
// boundary.
type Client struct {
	run     runner.Runner
	kubectl string
	logger  *zap.Logger
}

// NewClient creates a Client using the given kubectl binary name.
func NewClient(run runner.Runner, kubectl string, logger *zap.Logger) *Client {
	if kubectl == "" {
		kubectl = "kubectl"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{run: run, kubectl: kubectl, logger: logger}
}

// Get fetches one object as unstructured data. A response carrying the
// generic list wrapper kind is rejected with AmbiguousTargetError: the
// caller addressed a collection, not a single object.
func (c *Client) Get(ctx context.Context, id Identity) (*unstructured.Unstructured, error) {
	res, err := c.run.Run(ctx, c.kubectl, GetArgs(id.Kind, id.Name, id.Namespace, "json"), "")
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	var obj unstructured.Unstructured
	if err := json.Unmarshal([]byte(res.Stdout), &obj.Object); err != nil {
		return nil, &clierr.ParseError{Err: err}
	}

	if obj.GetKind() == listWrapperKind {
		return nil, &clierr.AmbiguousTargetError{Kind: obj.GetKind()}
	}
	return &obj, nil
}

// Delete removes the object. With force, grace period zero is requested.
func (c *Client) Delete(ctx context.Context, id Identity, force bool) error {
	args := append([]string{"delete"}, TargetArgs(id.Kind, id.Name, id.Namespace)...)
	if force {
		args = append(args, "--force", "--grace-period=0")
	}
	if _, err := c.run.Run(ctx, c.kubectl, args, ""); err != nil {
		return classifyCommandErr("delete", err)
	}
	return nil
}

// Pause annotates the resource crossplane.io/paused=true and re-reads the
// annotation to confirm. Pausing an already-paused resource succeeds.
func (c *Client) Pause(ctx context.Context, id Identity) error {
	return c.setPaused(ctx, id, "true")
}

// Resume clears the paused state by setting the annotation to false.
func (c *Client) Resume(ctx context.Context, id Identity) error {
	return c.setPaused(ctx, id, "false")
}

func (c *Client) setPaused(ctx context.Context, id Identity, value string) error {
	args := append([]string{"annotate"}, TargetArgs(id.Kind, id.Name, id.Namespace)...)
	args = append(args, PausedAnnotation+"="+value, "--overwrite")
	if _, err := c.run.Run(ctx, c.kubectl, args, ""); err != nil {
		return classifyCommandErr("annotate", err)
	}

	// Verify the annotation landed. --overwrite makes the annotate call
	// idempotent, so an already-set value is success, not an error.
	obj, err := c.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("verify %s annotation: %w", PausedAnnotation, err)
	}
	if got := obj.GetAnnotations()[PausedAnnotation]; got != value {
		return fmt.Errorf("annotation %s is %q after annotate, want %q", PausedAnnotation, got, value)
	}
	return nil
}

// classifyCommandErr promotes a ProcessError whose stderr carries RBAC
// denial markers to a PermissionError.
func classifyCommandErr(op string, err error) error {
	if perr, ok := err.(*runner.ProcessError); ok && clierr.IsPermissionDenied(perr.Stderr) {
		return &clierr.PermissionError{Op: op, Stderr: perr.Stderr}
	}
	return fmt.Errorf("%s: %w", op, err)
}
