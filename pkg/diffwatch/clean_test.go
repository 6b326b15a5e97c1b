// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diffwatch

import (
	"reflect"
	"testing"
)

func sampleObject() map[string]interface{} {
	return map[string]interface{}{
		"apiVersion": "s3.aws.upbound.io/v1beta1",
		"kind":       "Bucket",
		"metadata": map[string]interface{}{
			"name":              "prod-assets",
			"uid":               "aaaa-bbbb",
			"resourceVersion":   "12345",
			"creationTimestamp": "2026-01-01T00:00:00Z",
			"generation":        int64(4),
			"managedFields":     []interface{}{map[string]interface{}{"manager": "crossplane"}},
			"labels":            map[string]interface{}{"team": "platform"},
		},
		"spec": map[string]interface{}{
			"forProvider": map[string]interface{}{"region": "eu-west-1"},
		},
		"status": map[string]interface{}{
			"conditions": []interface{}{
				map[string]interface{}{"type": "Ready", "status": "True"},
			},
			"atProvider": map[string]interface{}{"arn": "arn:aws:s3:::prod-assets"},
		},
	}
}

func TestCleanForDiffStripsChurnFields(t *testing.T) {
	cleaned := CleanForDiff(sampleObject())

	meta := cleaned["metadata"].(map[string]interface{})
	for _, f := range noisyMetadataFields {
		if _, ok := meta[f]; ok {
			t.Errorf("metadata.%s survived cleaning", f)
		}
	}
	if _, ok := meta["labels"]; !ok {
		t.Error("metadata.labels should survive cleaning")
	}

	status := cleaned["status"].(map[string]interface{})
	if _, ok := status["conditions"]; ok {
		t.Error("status.conditions survived cleaning")
	}
	if _, ok := status["atProvider"]; !ok {
		t.Error("status.atProvider should survive cleaning")
	}
}

func TestCleanForDiffIdempotent(t *testing.T) {
	once := CleanForDiff(sampleObject())
	twice := CleanForDiff(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("cleaning is not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestCleanForDiffDoesNotMutateInput(t *testing.T) {
	obj := sampleObject()
	CleanForDiff(obj)

	meta := obj["metadata"].(map[string]interface{})
	if meta["resourceVersion"] != "12345" {
		t.Error("input metadata mutated")
	}
	if _, ok := obj["status"].(map[string]interface{})["conditions"]; !ok {
		t.Error("input status mutated")
	}
}

func TestCleanForDiffDropsEmptyStatus(t *testing.T) {
	obj := map[string]interface{}{
		"kind": "Bucket",
		"status": map[string]interface{}{
			"conditions": []interface{}{},
		},
	}
	cleaned := CleanForDiff(obj)
	if _, ok := cleaned["status"]; ok {
		t.Error("status holding only conditions should be dropped entirely")
	}
}

func TestCleanForDiffNil(t *testing.T) {
	if CleanForDiff(nil) != nil {
		t.Error("nil input should stay nil")
	}
}
