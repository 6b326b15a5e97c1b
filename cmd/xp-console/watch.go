// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/diffwatch"
	"github.com/confighub/xp-console/pkg/resource"
)

var watchNamespace string

var watchCmd = &cobra.Command{
	Use:   "watch <kind> <name>",
	Short: "Watch one resource and print field-level diffs as it changes",
	Long: `Watch a single resource and print a structural diff for every change.

Server-managed churn (managed fields, resource version, timestamps, status
conditions) is stripped before diffing, so only meaningful field movement is
printed. Press Ctrl-C to stop.

Examples:
  xp-console watch bucket prod-assets
  xp-console watch release my-db-release -n team-a
`,
	Args: cobra.ExactArgs(2),
	RunE: runWatchCmd,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchNamespace, "namespace", "n", "", "Resource namespace")
}

// stdoutSink writes diff lines to standard output.
type stdoutSink struct{}

func (stdoutSink) WriteLine(line string) { fmt.Println(line) }
func (stdoutSink) Close()                {}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := resource.Identity{Kind: args[0], Namespace: watchNamespace, Name: args[1]}

	// The apiVersion drives CRD resolution; fetch the object once to read it.
	obj, err := a.client.Get(ctx, id)
	if err != nil {
		return err
	}
	id.Kind = obj.GetKind()

	dynClient, err := newDynamicClient()
	if err != nil {
		return err
	}
	engine := diffwatch.NewEngine(dynClient, func(resource.Identity) (diffwatch.Sink, error) {
		return stdoutSink{}, nil
	}, a.logger)

	if err := engine.Start(ctx, id, obj.GetAPIVersion()); err != nil {
		return err
	}
	defer engine.Stop(id)

	<-ctx.Done()
	return nil
}
