// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package resource

import "testing"

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		apiVersion string
		wantClass  KindClass
		wantGroup  string
	}{
		{
			name:       "plain kind",
			kind:       "Deployment",
			apiVersion: "apps/v1",
			wantClass:  KindStandard,
			wantGroup:  "apps",
		},
		{
			name:       "composite by X prefix",
			kind:       "XNetwork",
			apiVersion: "platform.example.org/v1alpha1",
			wantClass:  KindComposite,
			wantGroup:  "platform.example.org",
		},
		{
			name:       "Xylophone-style kind is not composite",
			kind:       "Xylophone",
			apiVersion: "music.example.org/v1",
			wantClass:  KindStandard,
			wantGroup:  "music.example.org",
		},
		{
			name:      "dotted kind",
			kind:      "buckets.s3.aws.upbound.io",
			wantClass: KindDotted,
			wantGroup: "s3.aws.upbound.io",
		},
		{
			name:       "provider",
			kind:       "Provider",
			apiVersion: "pkg.crossplane.io/v1",
			wantClass:  KindProvider,
			wantGroup:  "pkg.crossplane.io",
		},
		{
			name:       "function",
			kind:       "Function",
			apiVersion: "pkg.crossplane.io/v1",
			wantClass:  KindFunction,
			wantGroup:  "pkg.crossplane.io",
		},
		{
			name:       "crd",
			kind:       "CustomResourceDefinition",
			apiVersion: "apiextensions.k8s.io/v1",
			wantClass:  KindCRD,
			wantGroup:  "apiextensions.k8s.io",
		},
		{
			name:       "xrd",
			kind:       "CompositeResourceDefinition",
			apiVersion: "apiextensions.crossplane.io/v1",
			wantClass:  KindCRD,
			wantGroup:  "apiextensions.crossplane.io",
		},
		{
			name:       "core group",
			kind:       "Pod",
			apiVersion: "v1",
			wantClass:  KindStandard,
			wantGroup:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyKind(tt.kind, tt.apiVersion)
			if got.Class != tt.wantClass {
				t.Errorf("ClassifyKind(%q).Class = %v, want %v", tt.kind, got.Class, tt.wantClass)
			}
			if got.Group != tt.wantGroup {
				t.Errorf("ClassifyKind(%q).Group = %q, want %q", tt.kind, got.Group, tt.wantGroup)
			}
		})
	}
}

func TestIdentityAsMapKey(t *testing.T) {
	sessions := map[Identity]string{}

	view := Identity{Kind: "XNetwork", Name: "net-a", Mode: ModeView}
	edit := view.WithMode(ModeEdit)

	sessions[view] = "/tmp/a"
	sessions[edit] = "/tmp/b"

	if len(sessions) != 2 {
		t.Fatalf("identities differing only by mode must be distinct keys, got %d entries", len(sessions))
	}
	if sessions[view] != "/tmp/a" || sessions[edit] != "/tmp/b" {
		t.Error("map lookups by structural equality failed")
	}
}

func TestIdentityString(t *testing.T) {
	id := Identity{Kind: "Bucket", Name: "media", Namespace: "prod", Mode: ModeEdit}
	want := "Bucket/media in prod (edit)"
	if got := id.String(); got != want {
		t.Errorf("Identity.String() = %q, want %q", got, want)
	}
}
