// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diffwatch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ChangeType classifies one leaf-level difference.
type ChangeType int

const (
	ChangeEdited ChangeType = iota
	ChangeAdded
	ChangeRemoved
)

// Change is one leaf difference between two object states.
type Change struct {
	Path []string
	Type ChangeType
	Old  interface{}
	New  interface{}
}

// Diff computes the structural leaf differences between prev and next.
// A subtree present on only one side contributes one change per leaf;
// a leaf present on both sides with differing values is an edit. Maps are
// descended; everything else (scalars, lists) is a leaf. Results are in
// deterministic path order.
func Diff(prev, next map[string]interface{}) []Change {
	var changes []Change
	diffMaps(nil, prev, next, &changes)
	return changes
}

func diffMaps(path []string, prev, next map[string]interface{}, out *[]Change) {
	keys := make([]string, 0, len(prev)+len(next))
	seen := make(map[string]bool)
	for k := range prev {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range next {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		childPath := append(append([]string{}, path...), k)
		oldVal, inPrev := prev[k]
		newVal, inNext := next[k]

		switch {
		case inPrev && !inNext:
			emitSubtree(childPath, oldVal, ChangeRemoved, out)
		case !inPrev && inNext:
			emitSubtree(childPath, newVal, ChangeAdded, out)
		default:
			oldMap, oldIsMap := oldVal.(map[string]interface{})
			newMap, newIsMap := newVal.(map[string]interface{})
			if oldIsMap && newIsMap {
				diffMaps(childPath, oldMap, newMap, out)
				continue
			}
			if !reflect.DeepEqual(oldVal, newVal) {
				*out = append(*out, Change{Path: childPath, Type: ChangeEdited, Old: oldVal, New: newVal})
			}
		}
	}
}

// emitSubtree expands a one-sided subtree into per-leaf additions or removals.
func emitSubtree(path []string, val interface{}, t ChangeType, out *[]Change) {
	if m, ok := val.(map[string]interface{}); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			emitSubtree(append(append([]string{}, path...), k), m[k], t, out)
		}
		return
	}
	c := Change{Path: path, Type: t}
	if t == ChangeRemoved {
		c.Old = val
	} else {
		c.New = val
	}
	*out = append(*out, c)
}

// Render formats changes as the line-oriented live-diff output:
//
//	# [MODIFIED] event (resourceVersion: 42)
//	spec:
//	  forProvider:
//	    region:
//	      ~ "eu-west-1" → "us-east-1"
//
// Parent path context is printed once per new branch, indentation grows
// with path depth, and values are JSON-encoded. No changes yields no
// lines at all.
func Render(eventType, resourceVersion string, changes []Change) []string {
	if len(changes) == 0 {
		return nil
	}
	if resourceVersion == "" {
		resourceVersion = "-"
	}

	lines := []string{fmt.Sprintf("# [%s] event (resourceVersion: %s)", eventType, resourceVersion)}

	var printed []string
	for _, c := range changes {
		parents := c.Path[:len(c.Path)-1]
		common := 0
		for common < len(printed) && common < len(parents) && printed[common] == parents[common] {
			common++
		}
		for i := common; i < len(parents); i++ {
			lines = append(lines, strings.Repeat("  ", i)+parents[i]+":")
		}
		printed = parents

		depth := len(parents)
		leaf := c.Path[len(c.Path)-1]
		lines = append(lines, strings.Repeat("  ", depth)+leaf+":")

		indent := strings.Repeat("  ", depth+1)
		switch c.Type {
		case ChangeEdited:
			lines = append(lines, fmt.Sprintf("%s~ %s → %s", indent, jsonValue(c.Old), jsonValue(c.New)))
		case ChangeAdded:
			lines = append(lines, fmt.Sprintf("%s+ %s", indent, jsonValue(c.New)))
		case ChangeRemoved:
			lines = append(lines, fmt.Sprintf("%s- %s", indent, jsonValue(c.Old)))
		}
	}
	return lines
}

func jsonValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
