// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package helm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confighub/xp-console/internal/clierr"
	"github.com/confighub/xp-console/pkg/runner"
)

const listJSON = `[
  {"name": "ingress", "namespace": "kube-system", "revision": "3",
   "updated": "2026-08-01 10:00:00", "status": "deployed",
   "chart": "ingress-nginx-4.11.2", "app_version": "1.11.2"},
  {"name": "crossplane", "namespace": "crossplane-system", "revision": "1",
   "updated": "2026-07-15 09:30:00", "status": "deployed",
   "chart": "crossplane-1.17.1", "app_version": "1.17.1"},
  {"name": "cert-manager", "namespace": "kube-system", "revision": "2",
   "updated": "2026-06-20 14:00:00", "status": "deployed",
   "chart": "cert-manager-v1.15.3", "app_version": "v1.15.3"}
]`

const historyJSON = `[
  {"revision": 2, "updated": "2026-08-01", "status": "deployed",
   "chart": "crossplane-1.17.1", "app_version": "1.17.1", "description": "Upgrade complete"},
  {"revision": 1, "updated": "2026-07-15", "status": "superseded",
   "chart": "crossplane-1.16.0", "app_version": "1.16.0", "description": "Install complete"}
]`

func TestListByNamespaceGroupsAndSorts(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm list -A -o json", listJSON)
	client := NewClient(fake, "helm", nil)

	grouped, namespaces, err := client.ListByNamespace(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"crossplane-system", "kube-system"}, namespaces)
	require.Len(t, grouped["kube-system"], 2)
	assert.Equal(t, "cert-manager", grouped["kube-system"][0].Name)
	assert.Equal(t, "ingress", grouped["kube-system"][1].Name)
	assert.Equal(t, "ingress-nginx-4.11.2", grouped["kube-system"][1].Chart)
}

func TestHistoryOldestFirst(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm history crossplane -o json -n crossplane-system", historyJSON)
	client := NewClient(fake, "helm", nil)

	revisions, err := client.History(context.Background(), "crossplane", "crossplane-system")
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, 1, revisions[0].Revision)
	assert.Equal(t, "superseded", revisions[0].Status)
	assert.Equal(t, 2, revisions[1].Revision)
}

func TestValuesAllFlag(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm get values crossplane -o yaml --all -n crossplane-system", "replicas: 2\n")
	client := NewClient(fake, "helm", nil)

	values, err := client.Values(context.Background(), "crossplane", "crossplane-system", true)
	require.NoError(t, err)
	assert.Equal(t, "replicas: 2\n", values)
}

func TestManifestPassthrough(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm get manifest ingress -n kube-system", "apiVersion: v1\nkind: Service\n")
	client := NewClient(fake, "helm", nil)

	manifest, err := client.Manifest(context.Background(), "ingress", "kube-system")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(manifest, "apiVersion: v1"))
}

func TestRollbackDefaultsToPreviousRevision(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm rollback ingress -n kube-system", "")
	client := NewClient(fake, "helm", nil)

	require.NoError(t, client.Rollback(context.Background(), "ingress", "kube-system", 0))
	assert.Equal(t, 1, fake.CallCount("rollback ingress -n kube-system"))
	assert.Equal(t, 0, fake.CallCount("rollback ingress 0"))
}

func TestRollbackToRevision(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm rollback ingress 2 -n kube-system", "")
	client := NewClient(fake, "helm", nil)

	require.NoError(t, client.Rollback(context.Background(), "ingress", "kube-system", 2))
	assert.Equal(t, 1, fake.CallCount("rollback ingress 2"))
}

func TestUpgradeBuildsFlags(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm upgrade ingress ingress-nginx/ingress-nginx", "")
	client := NewClient(fake, "helm", nil)

	err := client.Upgrade(context.Background(), "ingress", "kube-system", UpgradeOptions{
		Chart:       "ingress-nginx/ingress-nginx",
		Version:     "4.12.0",
		ValuesFiles: []string{"prod.yaml"},
		ReuseValues: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.CallCount("--version 4.12.0 -f prod.yaml --reuse-values -n kube-system"))
}

func TestUpgradeRequiresChart(t *testing.T) {
	fake := runner.NewFake()
	client := NewClient(fake, "helm", nil)

	err := client.Upgrade(context.Background(), "ingress", "kube-system", UpgradeOptions{})
	require.Error(t, err)
	assert.Equal(t, 0, fake.CallCount("upgrade"))
}

func TestUninstallPermissionClassification(t *testing.T) {
	fake := runner.NewFake()
	fake.RespondErr("helm uninstall ingress", &runner.ProcessError{
		Command:  "helm uninstall ingress -n kube-system",
		ExitCode: 1,
		Stderr:   `Error: release: "ingress" is forbidden: User cannot delete`,
	})
	client := NewClient(fake, "helm", nil)

	err := client.Uninstall(context.Background(), "ingress", "kube-system")
	var perm *clierr.PermissionError
	require.True(t, errors.As(err, &perm))
	assert.Equal(t, "uninstall release", perm.Op)
}

func TestListParseFailure(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("helm list", "Error: not json")
	client := NewClient(fake, "helm", nil)

	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse helm list output")
}
