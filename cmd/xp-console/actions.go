// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/resource"
)

var (
	actionNamespace string
	deleteForce     bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <name>",
	Short: "Delete a resource",
	Long: `Delete a cluster resource.

With --force the deletion skips the grace period, which can unstick managed
resources whose external object is already gone.

Examples:
  xp-console delete bucket stale-assets
  xp-console delete claim my-db -n team-a --force
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id := resource.Identity{Kind: args[0], Namespace: actionNamespace, Name: args[1]}
		if err := a.client.Delete(cmd.Context(), id, deleteForce); err != nil {
			return err
		}
		fmt.Printf("Deleted %s/%s\n", args[0], args[1])
		return nil
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <kind> <name>",
	Short: "Pause reconciliation of a Crossplane resource",
	Long: `Annotate a Crossplane resource so its controller stops reconciling it.

Pausing an already-paused resource succeeds and leaves it paused.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id := resource.Identity{Kind: args[0], Namespace: actionNamespace, Name: args[1]}
		if err := a.client.Pause(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Paused %s/%s\n", args[0], args[1])
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <kind> <name>",
	Short: "Resume reconciliation of a paused Crossplane resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		id := resource.Identity{Kind: args[0], Namespace: actionNamespace, Name: args[1]}
		if err := a.client.Resume(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Resumed %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)

	for _, c := range []*cobra.Command{deleteCmd, pauseCmd, resumeCmd} {
		c.Flags().StringVarP(&actionNamespace, "namespace", "n", "", "Resource namespace")
	}
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip the grace period")
}
