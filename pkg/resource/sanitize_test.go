// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func fixtureObject() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "s3.aws.upbound.io/v1beta1",
		"kind":       "Bucket",
		"metadata": map[string]interface{}{
			"name":              "media",
			"namespace":         "prod",
			"uid":               "f9d3a1c2",
			"resourceVersion":   "123456",
			"creationTimestamp": "2026-01-01T00:00:00Z",
			"generation":        int64(4),
			"managedFields":     []interface{}{map[string]interface{}{"manager": "crossplane"}},
			"annotations": map[string]interface{}{
				"kubectl.kubernetes.io/last-applied-configuration": "{}",
				"crossplane.io/external-name":                      "media-bucket",
			},
			"labels": map[string]interface{}{"team": "platform"},
		},
		"spec": map[string]interface{}{
			"forProvider": map[string]interface{}{
				"region": "eu-west-1",
				"tags":   map[string]interface{}{"env": "prod"},
			},
		},
		"status": map[string]interface{}{
			"conditions": []interface{}{
				map[string]interface{}{"type": "Synced", "status": "True"},
			},
			"atProvider": map[string]interface{}{"arn": "arn:aws:s3:::media"},
		},
	}}
}

func TestSanitizeStripsVolatileFields(t *testing.T) {
	obj := fixtureObject()
	out := Sanitize(obj)

	meta, found, err := unstructured.NestedMap(out.Object, "metadata")
	require.NoError(t, err)
	require.True(t, found)

	for _, f := range []string{"uid", "resourceVersion", "creationTimestamp", "generation", "managedFields"} {
		_, present := meta[f]
		assert.False(t, present, "metadata.%s should be removed", f)
	}

	annotations := out.GetAnnotations()
	assert.NotContains(t, annotations, "kubectl.kubernetes.io/last-applied-configuration")
	assert.Equal(t, "media-bucket", annotations["crossplane.io/external-name"], "other annotations survive")

	_, hasStatus := out.Object["status"]
	assert.False(t, hasStatus, "status subtree must be removed entirely")

	// Durable fields survive.
	assert.Equal(t, "media", out.GetName())
	assert.Equal(t, "prod", out.GetNamespace())
	region, _, _ := unstructured.NestedString(out.Object, "spec", "forProvider", "region")
	assert.Equal(t, "eu-west-1", region)
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	obj := fixtureObject()
	_ = Sanitize(obj)

	// The live object may alias cached data; it must be untouched.
	assert.Equal(t, "f9d3a1c2", string(obj.GetUID()))
	_, hasStatus := obj.Object["status"]
	assert.True(t, hasStatus)
	assert.Contains(t, obj.GetAnnotations(), "kubectl.kubernetes.io/last-applied-configuration")
}

func TestSanitizeDropsEmptyAnnotations(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name": "cm",
			"annotations": map[string]interface{}{
				"kubectl.kubernetes.io/last-applied-configuration": "{}",
			},
		},
	}}

	out := Sanitize(obj)
	meta, _, _ := unstructured.NestedMap(out.Object, "metadata")
	_, has := meta["annotations"]
	assert.False(t, has, "annotation map left empty should be dropped")
}
