// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/tree"
)

var (
	treeJSON     bool
	treeDepth    int
	treeCategory string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the Crossplane resource hierarchy",
	Long: `Show the cluster's Crossplane resource hierarchy.

The tree groups resources into fixed categories and expands them lazily:

  claims                Claim → composite → managed-resource chains
  composite resources   Root XRs without a claim
  managed resources     All managed resources flat
  providers, functions, compositions, XRDs, CRDs, crossplane pods

Examples:
  # Full tree, two levels deep
  xp-console tree

  # Expand everything under one category
  xp-console tree --category claims --depth 4

  # Machine-readable output
  xp-console tree --json
`,
	RunE: runTreeCmd,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Output as JSON")
	treeCmd.Flags().IntVar(&treeDepth, "depth", 2, "Expansion depth below each category")
	treeCmd.Flags().StringVar(&treeCategory, "category", "", "Expand only this category")
}

func runTreeCmd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	model := tree.New(a.run, tree.Config{
		Kubectl:  a.cfg.KubectlBin,
		Denylist: a.cfg.CRDSuffixDenylist,
		Logger:   a.logger,
		Notify:   func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	})

	ctx := cmd.Context()
	roots := model.Root()
	if treeCategory != "" {
		roots = filterCategory(roots, treeCategory)
		if len(roots) == 0 {
			return fmt.Errorf("unknown category: %s", treeCategory)
		}
	}

	if treeJSON {
		return printTreeJSON(ctx, model, roots)
	}

	fmt.Printf("Cluster: %s\n\n", getCurrentContext())
	for _, root := range roots {
		fmt.Println(root.Label)
		printChildren(ctx, model, root, "", treeDepth)
	}
	return nil
}

func filterCategory(roots []*tree.Node, category string) []*tree.Node {
	for _, r := range roots {
		if strings.EqualFold(string(r.Category), category) {
			return []*tree.Node{r}
		}
	}
	return nil
}

func printChildren(ctx context.Context, model *tree.Model, node *tree.Node, prefix string, depth int) {
	if depth <= 0 {
		return
	}
	children := model.GetChildren(ctx, node)
	for i, child := range children {
		connector := "├──"
		childPrefix := prefix + "│   "
		if i == len(children)-1 {
			connector = "└──"
			childPrefix = prefix + "    "
		}
		fmt.Printf("%s%s %s\n", prefix, connector, child.Label)
		if child.Expandable {
			printChildren(ctx, model, child, childPrefix, depth-1)
		}
	}
}

// jsonNode is the machine-readable projection of a tree node.
type jsonNode struct {
	Label    string     `json:"label"`
	Kind     string     `json:"kind,omitempty"`
	Category string     `json:"category,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

func printTreeJSON(ctx context.Context, model *tree.Model, roots []*tree.Node) error {
	out := make([]jsonNode, 0, len(roots))
	for _, root := range roots {
		out = append(out, buildJSONNode(ctx, model, root, treeDepth))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildJSONNode(ctx context.Context, model *tree.Model, node *tree.Node, depth int) jsonNode {
	jn := jsonNode{
		Label:    node.Label,
		Kind:     node.Kind,
		Category: string(node.Category),
		Tags:     node.Tags,
	}
	if depth <= 0 || !node.Expandable {
		return jn
	}
	for _, child := range model.GetChildren(ctx, node) {
		jn.Children = append(jn.Children, buildJSONNode(ctx, model, child, depth-1))
	}
	return jn
}
