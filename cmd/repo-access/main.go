// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the repo-access CLI, an operator
// harness over the repository access layer: search, metadata lookup,
// full-text discovery, raw OAI-PMH harvesting, capability probing and
// PDF download.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/repo-access/internal/access"
	"github.com/pdiddy/repo-access/internal/logging"
	"github.com/pdiddy/repo-access/internal/platform"
	"github.com/pdiddy/repo-access/internal/registry"
	"github.com/pdiddy/repo-access/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the repo-access CLI.
var rootCmd = &cobra.Command{
	Use:   "repo-access",
	Short: "Query Brazilian institutional repositories through whatever access method works",
	Long: `repo-access drives the repository access layer from the command line.
For each repository it tries the platform adapter (BDTD, SciELO, USP) when
there is one, then OAI-PMH, DSpace REST and HTML scraping, remembering
which methods answered for an hour.

Repositories come from a YAML or JSON registry (--registry); a bare base URL
can be passed wherever a repository id is expected.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := types.DefaultAccessConfig()
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./repo-access.yaml or ~/.config/repo-access/repo-access.yaml)")
	pf.String("registry", defaults.RegistryPath, "repository registry file (YAML or JSON)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.Duration("timeout", defaults.HTTP.Timeout, "per-attempt HTTP timeout")
	pf.Int("max-retries", defaults.HTTP.MaxRetries, "HTTP attempts per request")
	pf.Float64("rate", defaults.Rate.DefaultPerSecond, "requests per second per host")

	_ = viper.BindPFlag("registry_path", pf.Lookup("registry"))
	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("http.timeout", pf.Lookup("timeout"))
	_ = viper.BindPFlag("http.max_retries", pf.Lookup("max-retries"))
	_ = viper.BindPFlag("rate.default_per_second", pf.Lookup("rate"))
}

func initConfig() {
	// A local .env may carry REPO_ACCESS_* overrides.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("repo-access")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "repo-access"))
		}
	}

	defaults := types.DefaultAccessConfig()
	viper.SetDefault("http.insecure_tls", defaults.HTTP.InsecureTLS)
	viper.SetDefault("capability_ttl", defaults.CapabilityTTL)
	viper.SetDefault("default_max_results", defaults.DefaultMaxResults)
	viper.SetDefault("batch_size", defaults.BatchSize)
	viper.SetDefault("download_dir", defaults.DownloadDir)

	viper.SetEnvPrefix("REPO_ACCESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// accessConfig assembles the access layer settings from flags, environment
// and config file.
func accessConfig() types.AccessConfig {
	cfg := types.AccessConfig{
		HTTP: types.HTTPConfig{
			Timeout:     viper.GetDuration("http.timeout"),
			MaxRetries:  viper.GetInt("http.max_retries"),
			InsecureTLS: viper.GetBool("http.insecure_tls"),
			UserAgents:  viper.GetStringSlice("http.user_agents"),
		},
		Rate: types.RateConfig{
			DefaultPerSecond: viper.GetFloat64("rate.default_per_second"),
		},
		CapabilityTTL:     viper.GetDuration("capability_ttl"),
		DefaultMaxResults: viper.GetInt("default_max_results"),
		BatchSize:         viper.GetInt("batch_size"),
		RegistryPath:      viper.GetString("registry_path"),
		DownloadDir:       viper.GetString("download_dir"),
	}
	_ = viper.UnmarshalKey("rate.per_host", &cfg.Rate.PerHost)
	return cfg
}

func newLogger() *slog.Logger {
	return logging.New(viper.GetString("log_level"), os.Stderr)
}

func newStrategy(cfg types.AccessConfig, log *slog.Logger) *access.Strategy {
	return access.NewFromConfig(cfg, log)
}

// loadRegistry reads the configured registry. A missing default registry
// is not an error: commands then accept base URLs only.
func loadRegistry(cfg types.AccessConfig, required bool) (*registry.Registry, error) {
	reg, err := registry.Load(cfg.RegistryPath)
	if err == nil {
		return reg, nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return registry.New(nil)
	}
	return nil, err
}

// resolveRepo finds ref in the registry, or builds an ad-hoc entry when
// ref is a base URL.
func resolveRepo(reg *registry.Registry, ref, platformName string) (types.RepositoryEntry, error) {
	if e, ok := reg.ByID(ref); ok {
		return e, nil
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || !strings.HasPrefix(u.Scheme, "http") {
		return types.RepositoryEntry{}, fmt.Errorf("unknown repository %q (not in registry, not a URL)", ref)
	}
	return types.RepositoryEntry{
		ID:       u.Host,
		Name:     u.Host,
		BaseURL:  strings.TrimRight(ref, "/"),
		Platform: platformName,
		Kind:     platform.KindFor("", ref),
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
