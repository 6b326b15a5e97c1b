// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package helm wraps the helm CLI behind the same subprocess boundary the
// rest of the console uses for kubectl. Releases and revisions come back as
// parsed JSON; values and manifests are passed through as text.
package helm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/confighub/xp-console/internal/clierr"
	"github.com/confighub/xp-console/pkg/runner"
)

// Release is one installed chart as reported by `helm list`.
type Release struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Revision   string `json:"revision"`
	Updated    string `json:"updated"`
	Status     string `json:"status"`
	Chart      string `json:"chart"`
	AppVersion string `json:"app_version"`
}

// Revision is one entry of a release's history.
type Revision struct {
	Revision    int    `json:"revision"`
	Updated     string `json:"updated"`
	Status      string `json:"status"`
	Chart       string `json:"chart"`
	AppVersion  string `json:"app_version"`
	Description string `json:"description"`
}

// UpgradeOptions carries the optional knobs of an upgrade.
type UpgradeOptions struct {
	// Chart is the chart reference to upgrade to. Required.
	Chart string
	// Version pins a chart version; empty means latest.
	Version string
	// ValuesFiles are passed through as repeated -f flags.
	ValuesFiles []string
	// ReuseValues carries the previous release's values forward.
	ReuseValues bool
}

// Client runs helm operations through a Runner.
type Client struct {
	run    runner.Runner
	helm   string
	logger *zap.Logger
}

func NewClient(run runner.Runner, helmBin string, logger *zap.Logger) *Client {
	if helmBin == "" {
		helmBin = "helm"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{run: run, helm: helmBin, logger: logger}
}

// List returns every release across all namespaces.
func (c *Client) List(ctx context.Context) ([]Release, error) {
	res, err := c.run.Run(ctx, c.helm, []string{"list", "-A", "-o", "json"}, "")
	if err != nil {
		return nil, classifyHelmErr("list releases", err)
	}

	var releases []Release
	if err := json.Unmarshal([]byte(res.Stdout), &releases); err != nil {
		return nil, fmt.Errorf("parse helm list output: %w", err)
	}
	return releases, nil
}

// ListByNamespace groups all releases by namespace. Namespaces returns the
// group keys in sorted order so callers render deterministically.
func (c *Client) ListByNamespace(ctx context.Context) (map[string][]Release, []string, error) {
	releases, err := c.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	grouped := make(map[string][]Release)
	for _, r := range releases {
		grouped[r.Namespace] = append(grouped[r.Namespace], r)
	}
	namespaces := make([]string, 0, len(grouped))
	for ns := range grouped {
		namespaces = append(namespaces, ns)
		sort.Slice(grouped[ns], func(i, j int) bool {
			return grouped[ns][i].Name < grouped[ns][j].Name
		})
	}
	sort.Strings(namespaces)
	return grouped, namespaces, nil
}

// History returns a release's revision history, oldest first.
func (c *Client) History(ctx context.Context, name, namespace string) ([]Revision, error) {
	args := []string{"history", name, "-o", "json"}
	args = appendNamespace(args, namespace)

	res, err := c.run.Run(ctx, c.helm, args, "")
	if err != nil {
		return nil, classifyHelmErr("release history", err)
	}

	var revisions []Revision
	if err := json.Unmarshal([]byte(res.Stdout), &revisions); err != nil {
		return nil, fmt.Errorf("parse helm history output: %w", err)
	}
	sort.Slice(revisions, func(i, j int) bool { return revisions[i].Revision < revisions[j].Revision })
	return revisions, nil
}

// Values returns the release's values as YAML text. When all is set the
// computed values are included, not just the user-supplied overrides.
func (c *Client) Values(ctx context.Context, name, namespace string, all bool) (string, error) {
	args := []string{"get", "values", name, "-o", "yaml"}
	if all {
		args = append(args, "--all")
	}
	args = appendNamespace(args, namespace)

	res, err := c.run.Run(ctx, c.helm, args, "")
	if err != nil {
		return "", classifyHelmErr("release values", err)
	}
	return res.Stdout, nil
}

// Manifest returns the rendered manifest of the release's current revision.
func (c *Client) Manifest(ctx context.Context, name, namespace string) (string, error) {
	args := appendNamespace([]string{"get", "manifest", name}, namespace)

	res, err := c.run.Run(ctx, c.helm, args, "")
	if err != nil {
		return "", classifyHelmErr("release manifest", err)
	}
	return res.Stdout, nil
}

// Rollback reverts a release. A zero revision means "previous revision",
// matching the CLI's own default.
func (c *Client) Rollback(ctx context.Context, name, namespace string, revision int) error {
	args := []string{"rollback", name}
	if revision > 0 {
		args = append(args, strconv.Itoa(revision))
	}
	args = appendNamespace(args, namespace)

	if _, err := c.run.Run(ctx, c.helm, args, ""); err != nil {
		return classifyHelmErr("rollback release", err)
	}
	c.logger.Info("release rolled back",
		zap.String("release", name),
		zap.String("namespace", namespace),
		zap.Int("revision", revision))
	return nil
}

// Upgrade moves a release to a new chart revision.
func (c *Client) Upgrade(ctx context.Context, name, namespace string, opts UpgradeOptions) error {
	if opts.Chart == "" {
		return errors.New("upgrade requires a chart reference")
	}

	args := []string{"upgrade", name, opts.Chart}
	if opts.Version != "" {
		args = append(args, "--version", opts.Version)
	}
	for _, f := range opts.ValuesFiles {
		args = append(args, "-f", f)
	}
	if opts.ReuseValues {
		args = append(args, "--reuse-values")
	}
	args = appendNamespace(args, namespace)

	if _, err := c.run.Run(ctx, c.helm, args, ""); err != nil {
		return classifyHelmErr("upgrade release", err)
	}
	c.logger.Info("release upgraded",
		zap.String("release", name),
		zap.String("namespace", namespace),
		zap.String("chart", opts.Chart))
	return nil
}

// Uninstall removes a release.
func (c *Client) Uninstall(ctx context.Context, name, namespace string) error {
	args := appendNamespace([]string{"uninstall", name}, namespace)

	if _, err := c.run.Run(ctx, c.helm, args, ""); err != nil {
		return classifyHelmErr("uninstall release", err)
	}
	c.logger.Info("release uninstalled",
		zap.String("release", name),
		zap.String("namespace", namespace))
	return nil
}

func appendNamespace(args []string, namespace string) []string {
	if namespace != "" {
		return append(args, "-n", namespace)
	}
	return args
}

// classifyHelmErr promotes permission-denied command failures to the typed
// error the UI layer renders with a hint.
func classifyHelmErr(op string, err error) error {
	var procErr *runner.ProcessError
	if errors.As(err, &procErr) && clierr.IsPermissionDenied(procErr.Stderr) {
		return &clierr.PermissionError{Op: op, Stderr: procErr.Stderr}
	}
	return fmt.Errorf("%s: %w", op, err)
}
