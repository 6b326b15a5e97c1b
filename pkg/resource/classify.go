// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import "strings"

// KindClass is a closed classification of resource kinds. It is computed
// once per object and carried on display nodes so call sites never re-derive
// it from string heuristics.
type KindClass int

const (
	// KindStandard is any plain kind with no special handling.
	KindStandard KindClass = iota
	// KindDotted is a group-qualified kind ("buckets.s3.aws.upbound.io")
	// that the CLI addresses as a single kind/name token.
	KindDotted
	// KindComposite is a Crossplane composite resource (XR).
	KindComposite
	// KindClaim is a user-facing Crossplane claim.
	KindClaim
	// KindProvider is a Crossplane provider package.
	KindProvider
	// KindFunction is a Crossplane composition function package.
	KindFunction
	// KindCRD is a CustomResourceDefinition or XRD listing entry.
	KindCRD
)

func (c KindClass) String() string {
	switch c {
	case KindDotted:
		return "dotted"
	case KindComposite:
		return "composite"
	case KindClaim:
		return "claim"
	case KindProvider:
		return "provider"
	case KindFunction:
		return "function"
	case KindCRD:
		return "crd"
	default:
		return "standard"
	}
}

// Classification carries the class and, for dotted kinds, the API group.
type Classification struct {
	Class KindClass
	Group string
}

// ClassifyKind classifies a kind given its apiVersion. Composite resources
// follow the Crossplane "X"-prefix convention; claims carry a claimRef-style
// kind resolved by the tree's grouping logic, so only the XR-side convention
// is checked here.
func ClassifyKind(kind, apiVersion string) Classification {
	group := ""
	if idx := strings.Index(apiVersion, "/"); idx > 0 {
		group = apiVersion[:idx]
	}

	switch strings.ToLower(kind) {
	case "provider", "providerrevision":
		return Classification{Class: KindProvider, Group: group}
	case "function", "functionrevision":
		return Classification{Class: KindFunction, Group: group}
	case "customresourcedefinition", "compositeresourcedefinition":
		return Classification{Class: KindCRD, Group: group}
	}

	if strings.Contains(kind, ".") {
		// Already group-qualified, e.g. "buckets.s3.aws.upbound.io".
		parts := strings.SplitN(kind, ".", 2)
		return Classification{Class: KindDotted, Group: parts[1]}
	}

	if isCompositeKind(kind) {
		return Classification{Class: KindComposite, Group: group}
	}

	return Classification{Class: KindStandard, Group: group}
}

// isCompositeKind applies the XR naming convention: kind starts with an
// upper-case "X" followed by another upper-case letter ("XNetwork", "XSQLInstance").
func isCompositeKind(kind string) bool {
	if len(kind) < 2 || kind[0] != 'X' {
		return false
	}
	c := kind[1]
	return c >= 'A' && c <= 'Z'
}
