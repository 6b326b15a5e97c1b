// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const lastAppliedAnnotation = "kubectl.kubernetes.io/last-applied-configuration"

// volatileMetadataFields are server-managed and stripped before editing;
// submitting them back causes conflicts or is silently ignored.
var volatileMetadataFields = []string{
	"uid",
	"resourceVersion",
	"creationTimestamp",
	"managedFields",
	"generation",
}

// Sanitize returns a deep copy of obj with volatile metadata, the
// last-applied-configuration annotation, and the entire status subtree
// removed. The input is never mutated; callers may hold it in caches.
func Sanitize(obj *unstructured.Unstructured) *unstructured.Unstructured {
	out := obj.DeepCopy()

	meta, found, _ := unstructured.NestedMap(out.Object, "metadata")
	if found {
		for _, f := range volatileMetadataFields {
			delete(meta, f)
		}
		if annotations, ok := meta["annotations"].(map[string]interface{}); ok {
			delete(annotations, lastAppliedAnnotation)
			if len(annotations) == 0 {
				delete(meta, "annotations")
			}
		}
		out.Object["metadata"] = meta
	}

	delete(out.Object, "status")
	return out
}
