// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package tree maintains the lazily-expanded hierarchical view of cluster
// objects: fixed category roots, claim → XR → managed-resource chains, and
// derived display state. All listing goes through the kubectl subprocess
// boundary; nothing here talks to the API server directly.
package tree

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/confighub/xp-console/pkg/resource"
)

// Category identifies one of the fixed top-level groupings.
type Category string

const (
	CategoryClaims       Category = "claims"
	CategoryComposites   Category = "composite resources"
	CategoryManaged      Category = "managed resources"
	CategoryProviders    Category = "providers"
	CategoryFunctions    Category = "functions"
	CategoryCompositions Category = "compositions"
	CategoryXRDs         Category = "xrds"
	CategoryCRDs         Category = "crds"
	CategoryPods         Category = "crossplane pods"
)

// rootCategories is the display order of the fixed top-level list.
var rootCategories = []Category{
	CategoryClaims,
	CategoryComposites,
	CategoryManaged,
	CategoryProviders,
	CategoryFunctions,
	CategoryCompositions,
	CategoryXRDs,
	CategoryCRDs,
	CategoryPods,
}

// Capability tags controlling which actions apply to a node.
const (
	TagProvider        = "provider"
	TagFunction        = "function"
	TagCompositeXR     = "composite-xr"
	TagClaim           = "claim"
	TagManagedResource = "managed-resource"
	TagCrossplanePod   = "crossplane-pod"
	TagDefinition      = "definition"
)

// Node is one entry in the resource tree: either a category grouping or a
// concrete cluster resource. Nodes are recreated from fresh cluster state on
// every expansion of their parent; the only durable identity across refreshes
// is Identity, used for session and watch correlation.
type Node struct {
	Label      string
	Kind       string
	APIVersion string
	Category   Category
	Identity   *resource.Identity
	Class      resource.Classification
	Expandable bool
	Tags       []string

	// children is pre-resolved at grouping time for claim nodes; nil for
	// everything resolved lazily.
	children []*Node
}

// IsCategory reports whether the node is a category grouping.
func (n *Node) IsCategory() bool { return n.Category != "" && n.Identity == nil }

// HasTag reports whether the node carries the given capability tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// categoryNode builds a fresh category node. Category nodes are stateless
// and recreated identically on every root expansion.
func categoryNode(c Category) *Node {
	label := titleCaser.String(string(c))
	if c == CategoryXRDs {
		label = "XRDs"
	}
	if c == CategoryCRDs {
		label = "CRDs"
	}
	return &Node{Label: label, Category: c, Expandable: true}
}
