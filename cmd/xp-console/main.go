// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Command xp-console explores and operates on Crossplane resources and Helm
// releases through a navigable tree, temp-file edit/apply sessions, and live
// field-level diff watches.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/confighub/xp-console/internal/config"
	"github.com/confighub/xp-console/internal/logging"
	"github.com/confighub/xp-console/pkg/helm"
	"github.com/confighub/xp-console/pkg/resource"
	"github.com/confighub/xp-console/pkg/runner"
)

var (
	// BuildTag is set during build
	BuildTag = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "xp-console",
	Short: "Explore and operate on Crossplane resources and Helm releases",
	Long: `xp-console - a cluster-resource explorer and operations console

xp-console layers a navigable model over kubectl, helm, and the crossplane
CLI. It provides commands for:

  - Browsing the claim → composite → managed-resource hierarchy
  - Editing live resources through temp-file YAML round-trips
  - Watching a single resource and printing field-level diffs as it changes
  - Inspecting and managing Helm releases and their revision history
  - Pausing, resuming, and deleting Crossplane resources

All cluster operations go through the CLI tools; only the live-diff watch
talks to the API server directly.

Environment Variables:
  KUBECONFIG              Path to kubeconfig file (default: ~/.kube/config)
  XP_CONSOLE_*            Overrides for any config file key
`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.xp-console/config.yaml)")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xp-console version %s (built %s)\n", BuildTag, BuildDate)
		},
	})

	// Add completion command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for xp-console.

Bash:
  $ source <(xp-console completion bash)

Zsh:
  $ xp-console completion zsh > "${fpath[1]}/_xp-console"

Fish:
  $ xp-console completion fish | source

PowerShell:
  PS> xp-console completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})
}

// app bundles the shared wiring every command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	run    *runner.ExecRunner
	client *resource.Client
	helm   *helm.Client
}

func newApp() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFile)
	run := runner.NewExecRunner(logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		run:    run,
		client: resource.NewClient(run, cfg.KubectlBin, logger),
		helm:   helm.NewClient(run, cfg.HelmBin, logger),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// buildConfig builds a Kubernetes client config for the live-diff watch.
func buildConfig() (*rest.Config, error) {
	// Try in-cluster config first
	cfg, err := rest.InClusterConfig()
	if err == nil {
		return cfg, nil
	}

	// Fall back to kubeconfig
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		home, _ := os.UserHomeDir()
		kubeconfig = home + "/.kube/config"
	}

	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

func newDynamicClient() (dynamic.Interface, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, fmt.Errorf("build kubernetes config: %w", err)
	}
	return dynamic.NewForConfig(cfg)
}

// getCurrentContext returns the current kubectl context name
func getCurrentContext() string {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	configOverrides := &clientcmd.ConfigOverrides{}
	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, configOverrides)

	rawConfig, err := kubeConfig.RawConfig()
	if err != nil {
		return "unknown"
	}

	if rawConfig.CurrentContext == "" {
		return "default"
	}

	return rawConfig.CurrentContext
}
