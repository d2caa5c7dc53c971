// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repo-access/internal/access"
	"github.com/pdiddy/repo-access/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search one or more repositories",
	Long: `Search runs the access cascade on each selected repository and prints
the merged results. Select repositories with --repo (repeatable; registry id
or base URL), --state, or --all for every active registry entry.

Tier failures never abort the search; they are listed on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSlice("repo", nil, "repository id or base URL (repeatable)")
	searchCmd.Flags().Bool("all", false, "search every active repository in the registry")
	searchCmd.Flags().String("state", "", "search active repositories of one state (UF)")
	searchCmd.Flags().String("platform", "", "declared platform for ad-hoc URLs (e.g. dspace7)")
	searchCmd.Flags().String("title", "", "title filter")
	searchCmd.Flags().String("author", "", "author filter")
	searchCmd.Flags().String("from", "", "earliest date (YYYY or YYYY-MM-DD)")
	searchCmd.Flags().String("until", "", "latest date (YYYY-MM-DD)")
	searchCmd.Flags().String("degree-type", "", "degree type for theses (masters, doctoral)")
	searchCmd.Flags().String("subject-area", "", "subject area filter")
	searchCmd.Flags().String("issn", "", "journal ISSN for article aggregators")
	searchCmd.Flags().String("set", "", "OAI-PMH set spec")
	searchCmd.Flags().Int("max-results", 0, "maximum results per repository (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	opts := searchOptionsFromFlags(cmd)
	if query == "" && opts.Title == "" && opts.Author == "" {
		return fmt.Errorf("provide a query, --title or --author")
	}

	cfg := accessConfig()
	repos, err := selectRepos(cmd, cfg)
	if err != nil {
		return err
	}

	log := newLogger()
	strategy := newStrategy(cfg, log)
	reports := strategy.SearchMany(context.Background(), repos, query, opts)
	results, failures := access.Collect(reports)

	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "warning: %s\n", f)
	}
	for _, r := range reports {
		if r.Tier != "" {
			fmt.Fprintf(os.Stderr, "%s: %d result(s) via %s\n", r.RepositoryID, len(r.Results), r.Tier)
		} else {
			fmt.Fprintf(os.Stderr, "%s: no results\n", r.RepositoryID)
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func searchOptionsFromFlags(cmd *cobra.Command) types.SearchOptions {
	var opts types.SearchOptions
	opts.Title, _ = cmd.Flags().GetString("title")
	opts.Author, _ = cmd.Flags().GetString("author")
	opts.DateFrom, _ = cmd.Flags().GetString("from")
	opts.DateUntil, _ = cmd.Flags().GetString("until")
	opts.DegreeType, _ = cmd.Flags().GetString("degree-type")
	opts.SubjectArea, _ = cmd.Flags().GetString("subject-area")
	opts.ISSN, _ = cmd.Flags().GetString("issn")
	opts.Set, _ = cmd.Flags().GetString("set")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")
	return opts
}

func selectRepos(cmd *cobra.Command, cfg types.AccessConfig) ([]types.RepositoryEntry, error) {
	refs, _ := cmd.Flags().GetStringSlice("repo")
	all, _ := cmd.Flags().GetBool("all")
	state, _ := cmd.Flags().GetString("state")
	platformName, _ := cmd.Flags().GetString("platform")

	reg, err := loadRegistry(cfg, all || state != "")
	if err != nil {
		return nil, err
	}

	var repos []types.RepositoryEntry
	switch {
	case all:
		repos = reg.Active()
	case state != "":
		for _, e := range reg.ByState(state) {
			if e.Status == "active" {
				repos = append(repos, e)
			}
		}
	}
	for _, ref := range refs {
		repo, err := resolveRepo(reg, ref, platformName)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories selected: use --repo, --state or --all")
	}
	return repos, nil
}

func formatSearchOutput(results []types.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-60s  %-10s  %-14s  %s\n",
		"Repository", "Title", "Date", "Method", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 130))

	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-14s  %-60s  %-10s  %-14s  %s\n",
			truncate(r.RepositoryID, 14), truncate(r.Title, 60), truncate(r.Date, 10), r.AccessMethod, r.URL)
	}
	fmt.Fprintf(os.Stdout, "\n%d result(s)\n", len(results))
	return nil
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
