// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	traceNamespace string
	traceWide      bool
)

var traceCmd = &cobra.Command{
	Use:   "trace <kind> <name>",
	Short: "Trace a claim or XR through its resource chain",
	Long: `Trace a claim or composite resource down to its managed resources
using the crossplane CLI.

Examples:
  xp-console trace postgresqlinstance my-db -n team-a
  xp-console trace xpostgresqlinstance my-db-abc12 --wide
`,
	Args: cobra.ExactArgs(2),
	RunE: runTraceCmd,
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringVarP(&traceNamespace, "namespace", "n", "", "Resource namespace")
	traceCmd.Flags().BoolVar(&traceWide, "wide", false, "Show additional columns")
}

func runTraceCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	traceArgs := []string{"beta", "trace", args[0] + "/" + args[1]}
	if traceNamespace != "" {
		traceArgs = append(traceArgs, "-n", traceNamespace)
	}
	if traceWide {
		traceArgs = append(traceArgs, "-o", "wide")
	}

	res, err := a.run.Run(cmd.Context(), a.cfg.CrossplaneBin, traceArgs, "")
	if err != nil {
		return fmt.Errorf("trace %s/%s: %w", args[0], args[1], err)
	}
	fmt.Print(res.Stdout)
	return nil
}
