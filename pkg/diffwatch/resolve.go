// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diffwatch

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/confighub/xp-console/internal/clierr"
)

var crdGVR = schema.GroupVersionResource{
	Group:    "apiextensions.k8s.io",
	Version:  "v1",
	Resource: "customresourcedefinitions",
}

// WatchTarget is a kind resolved to something the dynamic client can watch.
type WatchTarget struct {
	GVR        schema.GroupVersionResource
	Namespaced bool
}

// ResolveWatchTarget maps a kind plus its apiVersion to a watchable
// GroupVersionResource by fetching the kind's CRD. Custom resources follow
// the naming convention "<plural>.<group>" where the plural is the
// lowercased kind with an "s" suffix, which holds for Crossplane-managed
// CRDs. Kinds without a CRD cannot be watched this way.
func ResolveWatchTarget(ctx context.Context, client dynamic.Interface, kind, apiVersion string) (*WatchTarget, error) {
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return nil, &clierr.WatchResolutionError{Kind: kind, Err: err}
	}
	if gv.Group == "" {
		return nil, &clierr.WatchResolutionError{Kind: kind, Err: fmt.Errorf("core kind %q has no custom resource definition", kind)}
	}

	crdName := strings.ToLower(kind) + "s." + gv.Group
	crd, err := client.Resource(crdGVR).Get(ctx, crdName, metav1.GetOptions{})
	if err != nil {
		return nil, &clierr.WatchResolutionError{Kind: kind, Err: fmt.Errorf("fetch crd %s: %w", crdName, err)}
	}

	return targetFromCRD(kind, crd)
}

func targetFromCRD(kind string, crd *unstructured.Unstructured) (*WatchTarget, error) {
	group, _, _ := unstructured.NestedString(crd.Object, "spec", "group")
	plural, _, _ := unstructured.NestedString(crd.Object, "spec", "names", "plural")
	scope, _, _ := unstructured.NestedString(crd.Object, "spec", "scope")
	if group == "" || plural == "" {
		return nil, &clierr.WatchResolutionError{Kind: kind, Err: fmt.Errorf("crd %s has no group or plural", crd.GetName())}
	}

	version, err := servedVersion(crd)
	if err != nil {
		return nil, &clierr.WatchResolutionError{Kind: kind, Err: err}
	}

	return &WatchTarget{
		GVR: schema.GroupVersionResource{
			Group:    group,
			Version:  version,
			Resource: plural,
		},
		Namespaced: scope == "Namespaced",
	}, nil
}

// servedVersion picks the first served version, preferring the storage one.
func servedVersion(crd *unstructured.Unstructured) (string, error) {
	versions, found, _ := unstructured.NestedSlice(crd.Object, "spec", "versions")
	if !found || len(versions) == 0 {
		return "", fmt.Errorf("crd %s lists no versions", crd.GetName())
	}

	var firstServed string
	for _, v := range versions {
		vm, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := vm["name"].(string)
		served, _ := vm["served"].(bool)
		storage, _ := vm["storage"].(bool)
		if !served || name == "" {
			continue
		}
		if storage {
			return name, nil
		}
		if firstServed == "" {
			firstServed = name
		}
	}
	if firstServed == "" {
		return "", fmt.Errorf("crd %s has no served version", crd.GetName())
	}
	return firstServed, nil
}
