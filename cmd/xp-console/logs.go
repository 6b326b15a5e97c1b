// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/confighub/xp-console/pkg/runner"
)

var (
	logsNamespace string
	logsContainer string
	logsTail      int
)

var logsCmd = &cobra.Command{
	Use:   "logs <pod>",
	Short: "Stream logs from a pod",
	Long: `Stream logs from a pod until interrupted.

Defaults to the crossplane-system namespace, which hosts the provider and
function pods the tree surfaces.

Examples:
  xp-console logs crossplane-6b5f6d5b9-x7k2p
  xp-console logs provider-aws-s3-abc123 --tail 200
  xp-console logs my-app-pod -n team-a -c sidecar
`,
	Args: cobra.ExactArgs(1),
	RunE: runLogsCmd,
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsNamespace, "namespace", "n", "crossplane-system", "Pod namespace")
	logsCmd.Flags().StringVarP(&logsContainer, "container", "c", "", "Container name")
	logsCmd.Flags().IntVar(&logsTail, "tail", 100, "Number of recent lines to show before following")
}

func runLogsCmd(cmd *cobra.Command, cmdArgs []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := []string{"logs", cmdArgs[0], "-f", "--tail", strconv.Itoa(logsTail), "-n", logsNamespace}
	if logsContainer != "" {
		args = append(args, "-c", logsContainer)
	}

	done := make(chan error, 1)
	proc, err := a.run.Stream(ctx, a.cfg.KubectlBin, args, "", runner.StreamHandlers{
		OnData: func(chunk []byte) { _, _ = os.Stdout.Write(chunk) },
		OnExit: func(code int, err error) { done <- err },
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		proc.Kill()
		<-done
		return nil
	case err := <-done:
		return err
	}
}
