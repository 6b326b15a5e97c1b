// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package diffwatch maintains long-lived per-resource watch subscriptions
// and renders structural diffs between successive object states. This is
// the only component that talks to the Kubernetes API server directly;
// everything else goes through the CLI subprocess boundary.
package diffwatch

import (
	"k8s.io/apimachinery/pkg/runtime"
)

// noisyMetadataFields change on every reconciliation pass and would drown
// the meaningful diff in churn.
var noisyMetadataFields = []string{
	"managedFields",
	"resourceVersion",
	"creationTimestamp",
	"generation",
	"uid",
}

// CleanForDiff returns a deep copy of obj with reconciliation-churn fields
// removed: the noisy metadata fields and the status condition list. The
// operation is idempotent and never mutates its input.
func CleanForDiff(obj map[string]interface{}) map[string]interface{} {
	if obj == nil {
		return nil
	}
	out := runtime.DeepCopyJSON(obj)

	if meta, ok := out["metadata"].(map[string]interface{}); ok {
		for _, f := range noisyMetadataFields {
			delete(meta, f)
		}
	}
	if status, ok := out["status"].(map[string]interface{}); ok {
		delete(status, "conditions")
		if len(status) == 0 {
			delete(out, "status")
		}
	}
	return out
}
