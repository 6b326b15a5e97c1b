// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confighub/xp-console/internal/clierr"
	"github.com/confighub/xp-console/pkg/runner"
)

func TestGetSingleObject(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get bucket media", `{"apiVersion":"s3.aws.upbound.io/v1beta1","kind":"Bucket","metadata":{"name":"media"}}`)

	c := NewClient(fake, "kubectl", nil)
	obj, err := c.Get(context.Background(), Identity{Kind: "Bucket", Name: "media"})
	require.NoError(t, err)
	assert.Equal(t, "Bucket", obj.GetKind())
	assert.Equal(t, "media", obj.GetName())
}

func TestGetRejectsListWrapper(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("get bucket", `{"apiVersion":"v1","kind":"List","items":[]}`)

	c := NewClient(fake, "kubectl", nil)
	_, err := c.Get(context.Background(), Identity{Kind: "Bucket", Name: "media"})

	var aerr *clierr.AmbiguousTargetError
	require.True(t, errors.As(err, &aerr), "expected AmbiguousTargetError, got %v", err)
}

func TestPauseAlreadyPausedSucceeds(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("annotate", "bucket/media annotated")
	fake.Respond("get bucket media",
		`{"apiVersion":"s3.aws.upbound.io/v1beta1","kind":"Bucket","metadata":{"name":"media","annotations":{"crossplane.io/paused":"true"}}}`)

	c := NewClient(fake, "kubectl", nil)
	err := c.Pause(context.Background(), Identity{Kind: "Bucket", Name: "media"})
	require.NoError(t, err, "pausing an already-paused resource must not error")

	calls := fake.Calls()
	require.NotEmpty(t, calls)
	assert.Contains(t, calls[0].Args, "crossplane.io/paused=true")
	assert.Contains(t, calls[0].Args, "--overwrite")
}

func TestPauseVerificationMismatch(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("annotate", "annotated")
	fake.Respond("get bucket media",
		`{"apiVersion":"s3.aws.upbound.io/v1beta1","kind":"Bucket","metadata":{"name":"media"}}`)

	c := NewClient(fake, "kubectl", nil)
	err := c.Pause(context.Background(), Identity{Kind: "Bucket", Name: "media"})
	require.Error(t, err, "missing annotation after annotate must surface")
}

func TestDeleteForceFlags(t *testing.T) {
	fake := runner.NewFake()
	c := NewClient(fake, "kubectl", nil)
	require.NoError(t, c.Delete(context.Background(), Identity{Kind: "Bucket", Name: "media"}, true))

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Args, "--force")
	assert.Contains(t, calls[0].Args, "--grace-period=0")
}

func TestPermissionClassification(t *testing.T) {
	fake := runner.NewFake()
	fake.RespondErr("delete", &runner.ProcessError{
		Command:  "kubectl",
		ExitCode: 1,
		Stderr:   `Error from server (Forbidden): buckets "media" is forbidden`,
	})

	c := NewClient(fake, "kubectl", nil)
	err := c.Delete(context.Background(), Identity{Kind: "Bucket", Name: "media"}, false)

	var perr *clierr.PermissionError
	require.True(t, errors.As(err, &perr), "forbidden stderr should classify as PermissionError, got %v", err)
}
