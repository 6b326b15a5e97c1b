// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package tree

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/confighub/xp-console/pkg/resource"
)

// conditionRule maps a kind class to the condition consulted for display
// status and the labels derived from it.
type conditionRule struct {
	Condition  string
	TrueLabel  string
	FalseLabel string
}

var statusRules = map[resource.KindClass]conditionRule{
	resource.KindProvider: {Condition: "Healthy", TrueLabel: "Healthy", FalseLabel: "Unhealthy"},
	resource.KindFunction: {Condition: "Healthy", TrueLabel: "Healthy", FalseLabel: "Unhealthy"},
}

var defaultStatusRule = conditionRule{Condition: "Synced", TrueLabel: "Synced", FalseLabel: "NotSynced"}

// StatusUnknown is reported when the consulted condition is absent.
const StatusUnknown = "Unknown"

// Status derives the display status for an object. Most kinds are judged by
// their Synced condition, providers and functions by Healthy, and CRD-like
// listings report their scope field instead of a condition.
func Status(class resource.Classification, obj *unstructured.Unstructured) string {
	if class.Class == resource.KindCRD {
		if scope, found, _ := unstructured.NestedString(obj.Object, "spec", "scope"); found {
			return scope
		}
		return StatusUnknown
	}

	rule, ok := statusRules[class.Class]
	if !ok {
		rule = defaultStatusRule
	}

	conditions, found, _ := unstructured.NestedSlice(obj.Object, "status", "conditions")
	if !found {
		return StatusUnknown
	}
	for _, c := range conditions {
		cond, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if cond["type"] != rule.Condition {
			continue
		}
		if cond["status"] == "True" {
			return rule.TrueLabel
		}
		return rule.FalseLabel
	}
	return StatusUnknown
}
