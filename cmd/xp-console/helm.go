// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/helm"
)

var (
	helmNamespace   string
	helmValuesAll   bool
	helmRevision    int
	helmChart       string
	helmVersion     string
	helmValuesFiles []string
	helmReuseValues bool
)

var helmCmd = &cobra.Command{
	Use:   "helm",
	Short: "Inspect and manage Helm releases",
	Long: `Inspect and manage Helm releases through the helm CLI.

Examples:
  xp-console helm list
  xp-console helm history crossplane -n crossplane-system
  xp-console helm values crossplane -n crossplane-system --all
  xp-console helm rollback ingress -n kube-system --revision 2
  xp-console helm upgrade ingress --chart ingress-nginx/ingress-nginx -n kube-system
  xp-console helm uninstall stale-release -n team-a
`,
}

var helmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List releases across all namespaces, grouped by namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		grouped, namespaces, err := a.helm.ListByNamespace(cmd.Context())
		if err != nil {
			return err
		}
		if len(namespaces) == 0 {
			fmt.Println("No releases found")
			return nil
		}
		for _, ns := range namespaces {
			fmt.Println(ns)
			releases := grouped[ns]
			for i, r := range releases {
				connector := "├──"
				if i == len(releases)-1 {
					connector = "└──"
				}
				fmt.Printf("%s %s  rev %s  [%s]  %s\n", connector, r.Name, r.Revision, r.Status, r.Chart)
			}
		}
		return nil
	},
}

var helmHistoryCmd = &cobra.Command{
	Use:   "history <release>",
	Short: "Show a release's revision history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		revisions, err := a.helm.History(cmd.Context(), args[0], helmNamespace)
		if err != nil {
			return err
		}
		for _, rev := range revisions {
			fmt.Printf("%d\t%s\t%s\t%s\t%s\n", rev.Revision, rev.Updated, rev.Status, rev.Chart, rev.Description)
		}
		return nil
	},
}

var helmValuesCmd = &cobra.Command{
	Use:   "values <release>",
	Short: "Print a release's values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		values, err := a.helm.Values(cmd.Context(), args[0], helmNamespace, helmValuesAll)
		if err != nil {
			return err
		}
		fmt.Print(values)
		return nil
	},
}

var helmManifestCmd = &cobra.Command{
	Use:   "manifest <release>",
	Short: "Print a release's rendered manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		manifest, err := a.helm.Manifest(cmd.Context(), args[0], helmNamespace)
		if err != nil {
			return err
		}
		fmt.Print(manifest)
		return nil
	},
}

var helmRollbackCmd = &cobra.Command{
	Use:   "rollback <release>",
	Short: "Roll a release back to an earlier revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.helm.Rollback(cmd.Context(), args[0], helmNamespace, helmRevision); err != nil {
			return err
		}
		fmt.Printf("Rolled back %s\n", args[0])
		return nil
	},
}

var helmUpgradeCmd = &cobra.Command{
	Use:   "upgrade <release>",
	Short: "Upgrade a release to a new chart revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		err = a.helm.Upgrade(cmd.Context(), args[0], helmNamespace, helm.UpgradeOptions{
			Chart:       helmChart,
			Version:     helmVersion,
			ValuesFiles: helmValuesFiles,
			ReuseValues: helmReuseValues,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Upgraded %s\n", args[0])
		return nil
	},
}

var helmUninstallCmd = &cobra.Command{
	Use:   "uninstall <release>",
	Short: "Uninstall a release",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.helm.Uninstall(cmd.Context(), args[0], helmNamespace); err != nil {
			return err
		}
		fmt.Printf("Uninstalled %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(helmCmd)
	helmCmd.AddCommand(helmListCmd)
	helmCmd.AddCommand(helmHistoryCmd)
	helmCmd.AddCommand(helmValuesCmd)
	helmCmd.AddCommand(helmManifestCmd)
	helmCmd.AddCommand(helmRollbackCmd)
	helmCmd.AddCommand(helmUpgradeCmd)
	helmCmd.AddCommand(helmUninstallCmd)

	for _, c := range []*cobra.Command{
		helmHistoryCmd, helmValuesCmd, helmManifestCmd,
		helmRollbackCmd, helmUpgradeCmd, helmUninstallCmd,
	} {
		c.Flags().StringVarP(&helmNamespace, "namespace", "n", "", "Release namespace")
	}
	helmValuesCmd.Flags().BoolVar(&helmValuesAll, "all", false, "Include computed values, not just overrides")
	helmRollbackCmd.Flags().IntVar(&helmRevision, "revision", 0, "Target revision (default: previous)")
	helmUpgradeCmd.Flags().StringVar(&helmChart, "chart", "", "Chart reference (required)")
	helmUpgradeCmd.Flags().StringVar(&helmVersion, "version", "", "Chart version (default: latest)")
	helmUpgradeCmd.Flags().StringSliceVarP(&helmValuesFiles, "values", "f", nil, "Values files")
	helmUpgradeCmd.Flags().BoolVar(&helmReuseValues, "reuse-values", false, "Carry the previous release's values forward")
	_ = helmUpgradeCmd.MarkFlagRequired("chart")
}
