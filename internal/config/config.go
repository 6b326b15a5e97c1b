// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package config loads xp-console settings from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultCRDSuffixDenylist holds the conventional ecosystem suffixes excluded
// from bulk CRD listings. These cover core machinery whose objects should not
// be casually surfaced for editing; the filter affects display only, the
// underlying CLI calls are unchanged.
var DefaultCRDSuffixDenylist = []string{
	"crossplane.io",
	"k8s.io",
	"helm.sh",
}

// Config holds the application configuration.
type Config struct {
	// External tool binaries. Resolved via PATH unless absolute.
	KubectlBin    string `mapstructure:"kubectl_bin"`
	HelmBin       string `mapstructure:"helm_bin"`
	CrossplaneBin string `mapstructure:"crossplane_bin"`

	// CRDSuffixDenylist excludes CRDs whose name carries one of these
	// suffixes from bulk listings.
	CRDSuffixDenylist []string `mapstructure:"crd_suffix_denylist"`

	// LintImage is the container image used by the auxiliary lint tool.
	LintImage string `mapstructure:"lint_image"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// Load loads configuration from file and environment. A missing config file
// is not an error; defaults apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("tools.kubectl", "kubectl")
	v.SetDefault("tools.helm", "helm")
	v.SetDefault("tools.crossplane", "crossplane")

	v.SetDefault("tree.crd_suffix_denylist", DefaultCRDSuffixDenylist)
	v.SetDefault("lint.image", "xpkg.upbound.io/crossplane/crossplane-lint:latest")

	v.SetDefault("logging.level", "info")
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("logging.file", filepath.Join(home, ".xp-console", "xp-console.log"))
	} else {
		v.SetDefault("logging.file", "/tmp/xp-console.log")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.xp-console")
		v.AddConfigPath("/etc/xp-console")
	}

	v.SetEnvPrefix("XP_CONSOLE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		KubectlBin:        v.GetString("tools.kubectl"),
		HelmBin:           v.GetString("tools.helm"),
		CrossplaneBin:     v.GetString("tools.crossplane"),
		CRDSuffixDenylist: v.GetStringSlice("tree.crd_suffix_denylist"),
		LintImage:         v.GetString("lint.image"),
		LogLevel:          v.GetString("logging.level"),
		LogFile:           v.GetString("logging.file"),
	}

	if cfg.KubectlBin == "" {
		cfg.KubectlBin = "kubectl"
	}
	if cfg.HelmBin == "" {
		cfg.HelmBin = "helm"
	}
	if cfg.CrossplaneBin == "" {
		cfg.CrossplaneBin = "crossplane"
	}
	if len(cfg.CRDSuffixDenylist) == 0 {
		cfg.CRDSuffixDenylist = DefaultCRDSuffixDenylist
	}

	return cfg, nil
}
