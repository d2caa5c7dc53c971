// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sourcegraph/conc/iter"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repo-access/pkg/types"
)

var probeCmd = &cobra.Command{
	Use:   "probe [repository...]",
	Short: "Detect which access methods work for repositories",
	Long: `Probe runs capability detection (OAI-PMH Identify across the known endpoint
paths, DSpace REST root) and prints what answered. With --all every active
registry entry is probed; with --stats only the registry summary is printed.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().Bool("all", false, "probe every active repository in the registry")
	probeCmd.Flags().Bool("stats", false, "print registry statistics and exit")
	probeCmd.Flags().String("platform", "", "declared platform for ad-hoc URLs (e.g. dspace7)")

	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	stats, _ := cmd.Flags().GetBool("stats")
	platformName, _ := cmd.Flags().GetString("platform")

	cfg := accessConfig()
	reg, err := loadRegistry(cfg, all || stats)
	if err != nil {
		return err
	}
	if stats {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(reg.Stats())
	}

	var repos []types.RepositoryEntry
	if all {
		repos = reg.Active()
	}
	for _, ref := range args {
		repo, err := resolveRepo(reg, ref, platformName)
		if err != nil {
			return err
		}
		repos = append(repos, repo)
	}
	if len(repos) == 0 {
		return fmt.Errorf("provide repositories or --all")
	}

	strategy := newStrategy(cfg, newLogger())
	ctx := context.Background()
	start := time.Now()
	lines := iter.Mapper[types.RepositoryEntry, string]{MaxGoroutines: cfg.BatchSize}.Map(repos,
		func(repo *types.RepositoryEntry) string {
			caps := strategy.Capabilities(ctx, *repo)
			endpoint := caps.OAIEndpoint
			if endpoint == "" {
				endpoint = "-"
			}
			return fmt.Sprintf("%-14s  %-8s  %-6t  %-6t  %s",
				truncate(repo.ID, 14), repo.EffectiveKind(), caps.OAIPMH, caps.REST, endpoint)
		})

	fmt.Printf("%-14s  %-8s  %-6s  %-6s  %s\n", "Repository", "Kind", "OAI", "REST", "Endpoint")
	fmt.Println(strings.Repeat("-", 90))
	for _, l := range lines {
		fmt.Println(l)
	}
	fmt.Fprintf(os.Stderr, "\nprobed %d repositor(ies) in %s\n", len(repos), time.Since(start).Round(time.Millisecond))
	return nil
}
