// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package clierr provides error classification and user-friendly error formatting
// for cluster operations. Every failure a command surfaces to the user passes
// through one of these types so the hosting command can distinguish a missing
// binary from a denied apply from a malformed document.
package clierr

import (
	"fmt"
	"strings"
)

// Common error types for CLI output.
const (
	TypeSpawn      = "spawn"      // Executable not found / not launchable
	TypeProcess    = "process"    // Subprocess exited non-zero
	TypePermission = "permission" // RBAC access denied
	TypeAmbiguous  = "ambiguous"  // Get resolved to a list wrapper, not one object
	TypeParse      = "parse"      // Document text failed structured parsing
	TypeWatch      = "watch"      // Watch target could not be resolved
	TypeInternal   = "internal"   // Internal/unexpected errors
)

// AmbiguousTargetError indicates a get call resolved to the generic list
// wrapper kind instead of a single object. The caller selected a plural or
// otherwise ambiguous target and must re-select a concrete object.
type AmbiguousTargetError struct {
	Kind string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("got a %s instead of a single object: select a concrete resource, not a collection", e.Kind)
}

// ParseError indicates document text failed to parse as the expected
// structured format. Nothing was sent to the cluster.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document is not valid YAML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PermissionError indicates the cluster rejected an operation for RBAC
// reasons, detected from the subprocess error stream.
type PermissionError struct {
	Op     string
	Stderr string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied during %s: %s", e.Op, strings.TrimSpace(e.Stderr))
}

// WatchResolutionError indicates the type definition for a watched kind could
// not be resolved, so no subscription was created.
type WatchResolutionError struct {
	Kind string
	Err  error
}

func (e *WatchResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve type definition for %q: %v", e.Kind, e.Err)
}

func (e *WatchResolutionError) Unwrap() error { return e.Err }

// IsPermissionDenied reports whether subprocess stderr indicates an RBAC
// denial. Matching is case-insensitive on the conventional markers.
func IsPermissionDenied(stderr string) bool {
	msg := strings.ToLower(stderr)
	return strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "permission")
}

// IsNotFound checks if the error indicates a missing resource or CRD.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "no matches for kind") ||
		strings.Contains(msg, "the server could not find")
}

// IsNetworkError checks if the error is a connection/network error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "context deadline exceeded")
}

// Pretty formats an error with a user-friendly message and actionable hints.
func Pretty(err error) string {
	if err == nil {
		return ""
	}

	baseMsg := err.Error()
	switch {
	case IsPermissionDenied(baseMsg):
		return fmt.Sprintf("Access denied: %s\n\nHint: Check your RBAC permissions. You may need:\n"+
			"  - ClusterRole with get/list permissions for the resources you're accessing\n"+
			"  - kubectl auth can-i list <resource> to verify permissions", baseMsg)

	case IsNotFound(err):
		if strings.Contains(strings.ToLower(baseMsg), "no matches for kind") ||
			strings.Contains(strings.ToLower(baseMsg), "the server could not find") {
			return fmt.Sprintf("CRD not installed: %s\n\nHint: The Custom Resource Definition may not be installed.\n"+
				"  - Run kubectl get xrds to check installed Crossplane definitions", baseMsg)
		}
		return fmt.Sprintf("Not found: %s", baseMsg)

	case IsNetworkError(err):
		return fmt.Sprintf("Connection error: %s\n\nHint: Check your cluster connectivity:\n"+
			"  - kubectl cluster-info to verify connection\n"+
			"  - Ensure your kubeconfig is correct", baseMsg)

	default:
		return fmt.Sprintf("Error: %s", baseMsg)
	}
}

// WrapWithHint wraps an error with an additional hint message.
func WrapWithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\n\nHint: %s", err, hint)
}
