// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package tree

import (
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ClaimKey identifies the claim owning a composite resource.
type ClaimKey struct {
	Kind      string
	Name      string
	Namespace string
}

// GroupByClaim partitions composite objects by their claim reference.
//
// Composites with a claim reference are grouped under that claim; composites
// with neither a claim reference nor an owner reference are root XRs
// (standalone composites); composites owned by another composite are nested
// and belong to neither top-level view.
func GroupByClaim(composites []*unstructured.Unstructured) (map[ClaimKey][]*unstructured.Unstructured, []*unstructured.Unstructured) {
	byClaim := make(map[ClaimKey][]*unstructured.Unstructured)
	var roots []*unstructured.Unstructured

	for _, xr := range composites {
		if xr == nil {
			continue
		}
		if key, ok := claimRefOf(xr); ok {
			byClaim[key] = append(byClaim[key], xr)
			continue
		}
		if len(xr.GetOwnerReferences()) == 0 {
			roots = append(roots, xr)
		}
	}

	for _, group := range byClaim {
		sort.Slice(group, func(i, j int) bool {
			return group[i].GetName() < group[j].GetName()
		})
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].GetName() < roots[j].GetName()
	})

	return byClaim, roots
}

// claimRefOf extracts the owning claim reference from spec.claimRef.
func claimRefOf(xr *unstructured.Unstructured) (ClaimKey, bool) {
	ref, found, _ := unstructured.NestedMap(xr.Object, "spec", "claimRef")
	if !found {
		return ClaimKey{}, false
	}
	name, _ := ref["name"].(string)
	if name == "" {
		return ClaimKey{}, false
	}
	kind, _ := ref["kind"].(string)
	namespace, _ := ref["namespace"].(string)
	return ClaimKey{Kind: kind, Name: name, Namespace: namespace}, true
}

// ResourceRefs reads the resolved reference list of a composite object.
// Each entry names one composed resource, possibly another composite.
func ResourceRefs(xr *unstructured.Unstructured) []CompositeRef {
	refs, found, _ := unstructured.NestedSlice(xr.Object, "spec", "resourceRefs")
	if !found {
		return nil
	}

	var out []CompositeRef
	for _, r := range refs {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		ref := CompositeRef{}
		ref.Kind, _ = m["kind"].(string)
		ref.Name, _ = m["name"].(string)
		ref.APIVersion, _ = m["apiVersion"].(string)
		ref.Namespace, _ = m["namespace"].(string)
		if ref.Kind == "" || ref.Name == "" {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// CompositeRef is one entry of a composite's spec.resourceRefs list.
type CompositeRef struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
}
