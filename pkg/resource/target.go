// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import "strings"

// knownSpecialKinds are addressed with a bare "kind name" invocation even
// though their kind strings look group-qualifiable. Exact-match lookup runs
// before the dotted heuristic.
var knownSpecialKinds = map[string]bool{
	"crd":          true,
	"crds":         true,
	"xrd":          true,
	"xrds":         true,
	"composition":  true,
	"compositions": true,
	"provider":     true,
	"providers":    true,
	"function":     true,
	"functions":    true,
}

// TargetArgs builds the kubectl argument form addressing one object.
//
// Resolution order: known-special kinds (exact match, bare "kind name") →
// dotted kinds (single "kind/name" token) → fallback bare form. A namespace
// appends the -n flag.
func TargetArgs(kind, name, namespace string) []string {
	var args []string

	lower := strings.ToLower(kind)
	switch {
	case knownSpecialKinds[lower]:
		args = []string{lower, name}
	case strings.Contains(kind, "."):
		args = []string{lower + "/" + name}
	default:
		args = []string{lower, name}
	}

	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	return args
}

// GetArgs builds a full "get" argv for one object in the given output format.
func GetArgs(kind, name, namespace, format string) []string {
	args := append([]string{"get"}, TargetArgs(kind, name, namespace)...)
	return append(args, "-o", format)
}
