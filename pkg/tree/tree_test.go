// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package tree

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confighub/xp-console/pkg/resource"
	"github.com/confighub/xp-console/pkg/runner"
)

const bulkListJSON = `{
  "apiVersion": "v1",
  "kind": "List",
  "items": [
    {
      "apiVersion": "pkg.crossplane.io/v1",
      "kind": "Provider",
      "metadata": {"name": "provider-aws"},
      "status": {"conditions": [{"type": "Healthy", "status": "True"}]}
    },
    {
      "apiVersion": "pkg.crossplane.io/v1",
      "kind": "Function",
      "metadata": {"name": "function-patch-and-transform"},
      "status": {"conditions": [{"type": "Healthy", "status": "False"}]}
    },
    {
      "apiVersion": "apiextensions.k8s.io/v1",
      "kind": "CustomResourceDefinition",
      "metadata": {"name": "buckets.s3.aws.upbound.io"},
      "spec": {"scope": "Cluster"}
    },
    {
      "apiVersion": "apiextensions.k8s.io/v1",
      "kind": "CustomResourceDefinition",
      "metadata": {"name": "certificates.cert-manager.k8s.io"},
      "spec": {"scope": "Namespaced"}
    }
  ]
}`

const compositeListJSON = `{
  "apiVersion": "v1",
  "kind": "List",
  "items": [
    {
      "apiVersion": "platform.example.org/v1alpha1",
      "kind": "XNetwork",
      "metadata": {"name": "team-net-x1"},
      "spec": {"claimRef": {"kind": "NetworkClaim", "name": "team-net", "namespace": "team-a"}},
      "status": {"conditions": [{"type": "Synced", "status": "True"}]}
    },
    {
      "apiVersion": "platform.example.org/v1alpha1",
      "kind": "XNetwork",
      "metadata": {"name": "team-net-x2"},
      "spec": {"claimRef": {"kind": "NetworkClaim", "name": "team-net", "namespace": "team-a"}}
    },
    {
      "apiVersion": "platform.example.org/v1alpha1",
      "kind": "XNetwork",
      "metadata": {"name": "shared-net"},
      "spec": {}
    }
  ]
}`

func TestRootCategoriesAreStableAndOrdered(t *testing.T) {
	m := New(runner.NewFake(), Config{})

	first := m.Root()
	second := m.Root()
	require.Equal(t, len(first), len(second))
	require.Equal(t, Category("claims"), first[0].Category)

	for i := range first {
		assert.Equal(t, first[i].Label, second[i].Label, "category nodes are recreated identically")
		assert.True(t, first[i].Expandable)
		assert.True(t, first[i].IsCategory())
	}
}

func TestBulkCategoriesShareOneFetch(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get providers.pkg.crossplane.io", bulkListJSON)

	m := New(fake, Config{})
	ctx := context.Background()

	providers := m.GetChildren(ctx, categoryNode(CategoryProviders))
	functions := m.GetChildren(ctx, categoryNode(CategoryFunctions))

	require.Len(t, providers, 1)
	assert.Equal(t, "provider-aws [Healthy]", providers[0].Label)
	require.Len(t, functions, 1)
	assert.Equal(t, "function-patch-and-transform [Unhealthy]", functions[0].Label)

	assert.Equal(t, 1, fake.CallCount("get providers.pkg.crossplane.io"),
		"N category expansions must share one combined list call")
}

func TestConcurrentExpansionCoalesces(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get providers.pkg.crossplane.io", bulkListJSON)
	fake.Delay = make(chan struct{})

	m := New(fake, Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.GetChildren(ctx, categoryNode(CategoryProviders))
	}()

	// Wait for the first expansion to enter its fetch.
	deadline := time.Now().Add(5 * time.Second)
	for fake.CallCount("get providers.pkg.crossplane.io") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	// A second expansion while the fetch is outstanding returns
	// immediately without spawning a duplicate subprocess.
	got := m.GetChildren(ctx, categoryNode(CategoryFunctions))
	assert.Nil(t, got)

	close(fake.Delay)
	wg.Wait()

	assert.Equal(t, 1, fake.CallCount("get providers.pkg.crossplane.io"),
		"concurrent expansions must not issue duplicate subprocess calls")
}

func TestRefreshInvalidatesCache(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get providers.pkg.crossplane.io", bulkListJSON)

	updates := 0
	m := New(fake, Config{OnUpdate: func() { updates++ }})
	ctx := context.Background()

	m.GetChildren(ctx, categoryNode(CategoryProviders))
	m.Refresh()
	m.GetChildren(ctx, categoryNode(CategoryProviders))

	assert.Equal(t, 2, fake.CallCount("get providers.pkg.crossplane.io"),
		"refresh must invalidate unconditionally")
	assert.GreaterOrEqual(t, updates, 2, "both cache population and refresh signal a re-render")
}

func TestCRDDenylistFiltersDisplayOnly(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get providers.pkg.crossplane.io", bulkListJSON)

	m := New(fake, Config{Denylist: []string{"cert-manager.k8s.io"}})
	crds := m.GetChildren(context.Background(), categoryNode(CategoryCRDs))

	require.Len(t, crds, 1)
	assert.Contains(t, crds[0].Label, "buckets.s3.aws.upbound.io")
}

func TestClaimGrouping(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get composite", compositeListJSON)

	m := New(fake, Config{})
	ctx := context.Background()

	claims := m.GetChildren(ctx, categoryNode(CategoryClaims))
	require.Len(t, claims, 1, "two composites with identical claim refs yield one claim node")
	assert.True(t, claims[0].HasTag(TagClaim))

	children := m.GetChildren(ctx, claims[0])
	require.Len(t, children, 2)
	assert.Equal(t, 1, fake.CallCount("get composite"),
		"claim expansion returns pre-grouped children without re-fetching")

	roots := m.GetChildren(ctx, categoryNode(CategoryComposites))
	require.Len(t, roots, 1, "exactly one unparented root XR")
	assert.Contains(t, roots[0].Label, "shared-net")
}

func TestCompositeExpansionClassifiesRefs(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get xnetwork.platform.example.org/team-net-x1", `{
	  "apiVersion": "platform.example.org/v1alpha1",
	  "kind": "XNetwork",
	  "metadata": {"name": "team-net-x1"},
	  "spec": {"resourceRefs": [
	    {"apiVersion": "ec2.aws.upbound.io/v1beta1", "kind": "VPC", "name": "net-vpc"},
	    {"apiVersion": "platform.example.org/v1alpha1", "kind": "XSubnets", "name": "net-subnets"}
	  ]}
	}`)

	m := New(fake, Config{})
	node := &Node{
		Kind:       "XNetwork",
		APIVersion: "platform.example.org/v1alpha1",
		Identity:   &resource.Identity{Kind: "XNetwork", Name: "team-net-x1"},
		Class:      resource.Classification{Class: resource.KindComposite, Group: "platform.example.org"},
		Expandable: true,
		Tags:       []string{TagCompositeXR},
	}

	children := m.GetChildren(context.Background(), node)
	require.Len(t, children, 2)

	assert.True(t, children[0].HasTag(TagManagedResource))
	assert.False(t, children[0].Expandable)

	assert.True(t, children[1].HasTag(TagCompositeXR), "X-prefixed kind is a nested composite")
	assert.True(t, children[1].Expandable)
}

func TestExpansionFailureDegradesToEmpty(t *testing.T) {
	fake := runner.NewFake()
	fake.RespondErr("get composite", &runner.ProcessError{Command: "kubectl", ExitCode: 1, Stderr: "no route to host"})

	var notices []string
	m := New(fake, Config{Notify: func(msg string) { notices = append(notices, msg) }})

	got := m.GetChildren(context.Background(), categoryNode(CategoryClaims))
	assert.Empty(t, got, "subprocess failure must degrade to an empty child list")
	assert.NotEmpty(t, notices, "and surface an error notification")
}
