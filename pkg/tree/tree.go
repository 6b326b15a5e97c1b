// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/confighub/xp-console/internal/clierr"
	"github.com/confighub/xp-console/pkg/resource"
	"github.com/confighub/xp-console/pkg/runner"
)

// bulkKindByCategory maps bulk-fetchable categories to the kind filtered out
// of the one combined list call.
var bulkKindByCategory = map[Category]string{
	CategoryProviders:    "Provider",
	CategoryFunctions:    "Function",
	CategoryCompositions: "Composition",
	CategoryXRDs:         "CompositeResourceDefinition",
	CategoryCRDs:         "CustomResourceDefinition",
}

// bulkFetchArg addresses all bulk-fetchable kinds in a single list call.
// One subprocess round-trip serves every bulk category expansion.
const bulkFetchArg = "providers.pkg.crossplane.io," +
	"functions.pkg.crossplane.io," +
	"compositions.apiextensions.crossplane.io," +
	"compositeresourcedefinitions.apiextensions.crossplane.io," +
	"customresourcedefinitions.apiextensions.k8s.io"

// crossplaneNamespace hosts the Crossplane control-plane pods.
const crossplaneNamespace = "crossplane-system"

// Config wires a Model.
type Config struct {
	Kubectl string
	// Denylist excludes CRD names carrying one of these suffixes from the
	// CRD listing. Display-level only.
	Denylist []string
	Logger   *zap.Logger
	// OnUpdate signals a re-render after an asynchronous cache population
	// or an explicit refresh. May be nil.
	OnUpdate func()
	// Notify surfaces a user-visible error notice. May be nil.
	Notify func(msg string)
}

// Model answers "what are the children of this node". It owns the combined
// bulk-fetch cache and its loading flag; expansion never propagates errors
// past the tree boundary, degrading to an empty child list instead.
type Model struct {
	run      runner.Runner
	kubectl  string
	denylist []string
	logger   *zap.Logger
	onUpdate func()
	notify   func(string)

	mu      sync.Mutex
	all     []*unstructured.Unstructured
	haveAll bool
	loading bool
}

// New creates a tree model.
func New(run runner.Runner, cfg Config) *Model {
	if cfg.Kubectl == "" {
		cfg.Kubectl = "kubectl"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.OnUpdate == nil {
		cfg.OnUpdate = func() {}
	}
	if cfg.Notify == nil {
		cfg.Notify = func(string) {}
	}
	return &Model{
		run:      run,
		kubectl:  cfg.Kubectl,
		denylist: cfg.Denylist,
		logger:   cfg.Logger,
		onUpdate: cfg.OnUpdate,
		notify:   cfg.Notify,
	}
}

// Refresh invalidates the combined cache unconditionally and signals a
// re-render. The next bulk expansion re-fetches.
func (m *Model) Refresh() {
	m.mu.Lock()
	m.all = nil
	m.haveAll = false
	m.mu.Unlock()
	m.onUpdate()
}

// Root returns the fixed top-level category list. Order matters for display
// but not semantics.
func (m *Model) Root() []*Node {
	nodes := make([]*Node, 0, len(rootCategories))
	for _, c := range rootCategories {
		nodes = append(nodes, categoryNode(c))
	}
	return nodes
}

// GetChildren resolves the children of node. A nil node means the root.
// Subprocess failures surface a notification and resolve to an empty list.
func (m *Model) GetChildren(ctx context.Context, node *Node) []*Node {
	if node == nil {
		return m.Root()
	}

	if node.IsCategory() {
		switch node.Category {
		case CategoryClaims:
			return m.claimNodes(ctx)
		case CategoryComposites:
			return m.rootXRNodes(ctx)
		case CategoryManaged:
			return m.managedNodes(ctx)
		case CategoryPods:
			return m.podNodes(ctx)
		default:
			if kind, ok := bulkKindByCategory[node.Category]; ok {
				return m.bulkNodes(ctx, node.Category, kind)
			}
			return nil
		}
	}

	if len(node.children) > 0 {
		// Pre-grouped at claim-grouping time; not re-fetched.
		return node.children
	}

	if node.Class.Class == resource.KindComposite || node.HasTag(TagCompositeXR) {
		return m.compositeChildren(ctx, node)
	}
	return nil
}

// bulkNodes serves a bulk-fetchable category from the combined cache,
// triggering the single combined fetch on first access. Concurrent
// expansions while the fetch is in flight return immediately and rely on
// the cache-population update signal to re-trigger rendering.
func (m *Model) bulkNodes(ctx context.Context, category Category, kind string) []*Node {
	m.mu.Lock()
	if m.haveAll {
		all := m.all
		m.mu.Unlock()
		return m.filterBulk(all, category, kind)
	}
	if m.loading {
		m.mu.Unlock()
		return nil
	}
	m.loading = true
	m.mu.Unlock()

	items, err := m.list(ctx, []string{"get", bulkFetchArg, "-o", "json"})

	m.mu.Lock()
	m.loading = false
	if err == nil {
		m.all = items
		m.haveAll = true
	}
	all := m.all
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("bulk fetch failed", zap.Error(err))
		m.notify(clierr.Pretty(err))
		return nil
	}

	m.onUpdate()
	return m.filterBulk(all, category, kind)
}

func (m *Model) filterBulk(all []*unstructured.Unstructured, category Category, kind string) []*Node {
	var nodes []*Node
	for _, obj := range all {
		if obj.GetKind() != kind {
			continue
		}
		if category == CategoryCRDs && m.denied(obj.GetName()) {
			continue
		}
		nodes = append(nodes, m.resourceNode(obj, tagForCategory(category), false))
	}
	return nodes
}

// denied reports whether a CRD name carries a denylisted suffix. This keeps
// high-risk core CRDs out of the edit surface; it filters display only.
func (m *Model) denied(name string) bool {
	for _, suffix := range m.denylist {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// claimNodes lists all composites once and groups them by claim reference.
// Each claim node carries its child composites pre-resolved.
func (m *Model) claimNodes(ctx context.Context) []*Node {
	composites, err := m.list(ctx, []string{"get", "composite", "-o", "json"})
	if err != nil {
		m.notify(clierr.Pretty(err))
		return nil
	}

	byClaim, _ := GroupByClaim(composites)

	var nodes []*Node
	for key, group := range byClaim {
		children := make([]*Node, 0, len(group))
		for _, xr := range group {
			children = append(children, m.xrNode(xr))
		}
		kind := key.Kind
		if kind == "" {
			kind = "Claim"
		}
		label := fmt.Sprintf("%s/%s", kind, key.Name)
		if key.Namespace != "" {
			label += " (" + key.Namespace + ")"
		}
		nodes = append(nodes, &Node{
			Label:      label,
			Kind:       kind,
			Identity:   &resource.Identity{Kind: kind, Namespace: key.Namespace, Name: key.Name},
			Class:      resource.Classification{Class: resource.KindClaim},
			Expandable: true,
			Tags:       []string{TagClaim},
			children:   children,
		})
	}
	sortNodes(nodes)
	return nodes
}

// rootXRNodes returns composites with neither a claim reference nor an
// owner reference.
func (m *Model) rootXRNodes(ctx context.Context) []*Node {
	composites, err := m.list(ctx, []string{"get", "composite", "-o", "json"})
	if err != nil {
		m.notify(clierr.Pretty(err))
		return nil
	}

	_, roots := GroupByClaim(composites)
	nodes := make([]*Node, 0, len(roots))
	for _, xr := range roots {
		nodes = append(nodes, m.xrNode(xr))
	}
	return nodes
}

func (m *Model) managedNodes(ctx context.Context) []*Node {
	items, err := m.list(ctx, []string{"get", "managed", "-o", "json"})
	if err != nil {
		m.notify(clierr.Pretty(err))
		return nil
	}
	nodes := make([]*Node, 0, len(items))
	for _, obj := range items {
		nodes = append(nodes, m.resourceNode(obj, TagManagedResource, false))
	}
	return nodes
}

func (m *Model) podNodes(ctx context.Context) []*Node {
	items, err := m.list(ctx, []string{"get", "pods", "-n", crossplaneNamespace, "-o", "json"})
	if err != nil {
		m.notify(clierr.Pretty(err))
		return nil
	}
	nodes := make([]*Node, 0, len(items))
	for _, obj := range items {
		nodes = append(nodes, m.resourceNode(obj, TagCrossplanePod, false))
	}
	return nodes
}

// compositeChildren issues a targeted fetch for one composite and classifies
// each resolved reference as a nested composite or a managed-resource leaf.
func (m *Model) compositeChildren(ctx context.Context, node *Node) []*Node {
	if node.Identity == nil {
		return nil
	}

	fetchKind := node.Kind
	if node.Class.Group != "" && !strings.Contains(fetchKind, ".") {
		fetchKind = strings.ToLower(fetchKind) + "." + node.Class.Group
	}

	res, err := m.run.Run(ctx, m.kubectl, resource.GetArgs(fetchKind, node.Identity.Name, node.Identity.Namespace, "json"), "")
	if err != nil {
		m.notify(clierr.Pretty(err))
		return nil
	}

	var obj unstructured.Unstructured
	if err := json.Unmarshal([]byte(res.Stdout), &obj.Object); err != nil {
		m.notify(clierr.Pretty(&clierr.ParseError{Err: err}))
		return nil
	}

	refs := ResourceRefs(&obj)
	nodes := make([]*Node, 0, len(refs))
	for _, ref := range refs {
		class := resource.ClassifyKind(ref.Kind, ref.APIVersion)
		child := &Node{
			Label:      ref.Kind + "/" + ref.Name,
			Kind:       ref.Kind,
			APIVersion: ref.APIVersion,
			Identity:   &resource.Identity{Kind: ref.Kind, Namespace: ref.Namespace, Name: ref.Name},
			Class:      class,
		}
		if class.Class == resource.KindComposite {
			child.Expandable = true
			child.Tags = []string{TagCompositeXR}
		} else {
			child.Tags = []string{TagManagedResource}
		}
		nodes = append(nodes, child)
	}
	return nodes
}

// list runs a kubectl list call and unwraps the returned collection.
func (m *Model) list(ctx context.Context, args []string) ([]*unstructured.Unstructured, error) {
	res, err := m.run.Run(ctx, m.kubectl, args, "")
	if err != nil {
		return nil, err
	}

	var ul unstructured.UnstructuredList
	if err := json.Unmarshal([]byte(res.Stdout), &ul); err != nil {
		return nil, &clierr.ParseError{Err: err}
	}

	items := make([]*unstructured.Unstructured, 0, len(ul.Items))
	for i := range ul.Items {
		items = append(items, &ul.Items[i])
	}
	return items, nil
}

// xrNode builds the display node for one composite resource.
func (m *Model) xrNode(xr *unstructured.Unstructured) *Node {
	node := m.resourceNode(xr, TagCompositeXR, true)
	node.Class = resource.Classification{Class: resource.KindComposite, Group: groupOf(xr.GetAPIVersion())}
	return node
}

// resourceNode builds a display node from freshly fetched cluster state,
// annotating the label with the derived status.
func (m *Model) resourceNode(obj *unstructured.Unstructured, tag string, expandable bool) *Node {
	class := resource.ClassifyKind(obj.GetKind(), obj.GetAPIVersion())
	label := obj.GetName()
	if status := Status(class, obj); status != "" {
		label = fmt.Sprintf("%s [%s]", label, status)
	}
	node := &Node{
		Label:      label,
		Kind:       obj.GetKind(),
		APIVersion: obj.GetAPIVersion(),
		Identity: &resource.Identity{
			Kind:      obj.GetKind(),
			Namespace: obj.GetNamespace(),
			Name:      obj.GetName(),
		},
		Class:      class,
		Expandable: expandable,
	}
	if tag != "" {
		node.Tags = []string{tag}
	}
	return node
}

func tagForCategory(c Category) string {
	switch c {
	case CategoryProviders:
		return TagProvider
	case CategoryFunctions:
		return TagFunction
	case CategoryXRDs, CategoryCRDs:
		return TagDefinition
	default:
		return ""
	}
}

func groupOf(apiVersion string) string {
	if idx := strings.Index(apiVersion, "/"); idx > 0 {
		return apiVersion[:idx]
	}
	return ""
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Label < nodes[j].Label })
}
