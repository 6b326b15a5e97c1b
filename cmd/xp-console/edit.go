// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/resource"
	"github.com/confighub/xp-console/pkg/session"
)

var editNamespace string

var editCmd = &cobra.Command{
	Use:   "edit <kind> <name>",
	Short: "Edit a live resource through a temp-file YAML round-trip",
	Long: `Edit a live resource in your editor and apply the result.

The resource is fetched, sanitized (server-managed metadata and the status
subtree removed), and written to a temporary file opened in $EDITOR. Saving
and quitting applies the file with server-side apply and forced conflicts;
quitting without changes applies nothing new. The temp file is removed when
the session ends.

Examples:
  xp-console edit bucket prod-assets
  xp-console edit composition xpostgresqlinstances.database.example.org
  xp-console edit claim my-db -n team-a
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditSession(cmd, args, resource.ModeEdit)
	},
}

var viewCmd = &cobra.Command{
	Use:   "view <kind> <name>",
	Short: "View a live resource read-only",
	Long: `Open a read-only snapshot of a live resource in your editor.

Unlike edit, the snapshot keeps the status subtree and server-managed
metadata, and closing the editor never applies anything.
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditSession(cmd, args, resource.ModeView)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(viewCmd)

	editCmd.Flags().StringVarP(&editNamespace, "namespace", "n", "", "Resource namespace")
	viewCmd.Flags().StringVarP(&editNamespace, "namespace", "n", "", "Resource namespace")
}

// consoleUI implements session.UI on stdout/stderr. Documents are "opened"
// by the editor subprocess the command spawns afterwards, so OpenDocument
// only has to check the file is reachable.
type consoleUI struct{}

func (consoleUI) OpenDocument(path string) error {
	_, err := os.Stat(path)
	return err
}
func (consoleUI) CloseDocument(string) {}
func (consoleUI) Info(msg string)      { fmt.Println(msg) }
func (consoleUI) Warn(msg string)      { fmt.Fprintln(os.Stderr, "Warning: "+msg) }
func (consoleUI) Error(msg string)     { fmt.Fprintln(os.Stderr, "Error: "+msg) }

func runEditSession(cmd *cobra.Command, args []string, mode resource.Mode) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	mgr := session.NewManager(a.run, session.Config{
		Kubectl:          a.cfg.KubectlBin,
		Logger:           a.logger,
		UI:               consoleUI{},
		VerifyAfterApply: true,
	})

	id := resource.Identity{
		Kind:      args[0],
		Namespace: editNamespace,
		Name:      args[1],
		Mode:      mode,
	}

	path, err := mgr.Open(ctx, id)
	if err != nil {
		return err
	}
	defer mgr.HandleClose(path)

	if err := spawnEditor(path); err != nil {
		return err
	}

	if mode != resource.ModeEdit {
		return nil
	}
	edited, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read edited file: %w", err)
	}
	return mgr.HandleSave(ctx, path, string(edited))
}

func spawnEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	ed := exec.Command(editor, path)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	if err := ed.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", editor, err)
	}
	return nil
}
