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
	"github.com/pdiddy/repo-access/internal/oaipmh"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest <repository|endpoint>",
	Short: "Run raw OAI-PMH requests against a repository",
	Long: `Harvest issues OAI-PMH requests directly, bypassing query matching.
The argument is a registry id, a base URL (the working endpoint is probed),
or an OAI-PMH endpoint URL ending in /request.

--verb selects records (default), identifiers, sets, formats or identify.
Records and headers are printed as JSON lines.`,
	Args: cobra.ExactArgs(1),
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("verb", "records", "records, identifiers, sets, formats or identify")
	harvestCmd.Flags().String("prefix", "oai_dc", "metadataPrefix")
	harvestCmd.Flags().String("from", "", "from datestamp (YYYY-MM-DD)")
	harvestCmd.Flags().String("until", "", "until datestamp (YYYY-MM-DD)")
	harvestCmd.Flags().String("set", "", "set spec")
	harvestCmd.Flags().Int("max", oaipmh.DefaultMaxRecords, "maximum records to harvest")
	harvestCmd.Flags().String("platform", "", "declared platform for ad-hoc URLs (e.g. dspace7)")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := accessConfig()
	log := newLogger()
	hc := access.NewHTTPClient(cfg)
	client := oaipmh.NewClient(hc, log)

	endpoint, err := harvestEndpoint(ctx, cmd, args[0])
	if err != nil {
		return err
	}

	verb, _ := cmd.Flags().GetString("verb")
	prefix, _ := cmd.Flags().GetString("prefix")
	from, _ := cmd.Flags().GetString("from")
	until, _ := cmd.Flags().GetString("until")
	set, _ := cmd.Flags().GetString("set")
	maxRecords, _ := cmd.Flags().GetInt("max")
	opts := oaipmh.ListOptions{MetadataPrefix: prefix, From: from, Until: until, Set: set}

	enc := json.NewEncoder(os.Stdout)
	switch verb {
	case "identify":
		id, err := client.Identify(ctx, endpoint)
		if err != nil {
			return err
		}
		enc.SetIndent("", "  ")
		return enc.Encode(id)
	case "sets":
		sets, err := client.ListSets(ctx, endpoint)
		if err != nil {
			return err
		}
		for _, s := range sets {
			fmt.Printf("%s\t%s\n", s.Spec, s.Name)
		}
		return nil
	case "formats":
		formats, err := client.ListMetadataFormats(ctx, endpoint)
		if err != nil {
			return err
		}
		for _, f := range formats {
			fmt.Printf("%s\t%s\n", f.Prefix, f.Namespace)
		}
		return nil
	case "identifiers":
		page, err := client.ListIdentifiers(ctx, endpoint, opts)
		if err != nil {
			return err
		}
		for _, h := range page.Headers {
			if err := enc.Encode(h); err != nil {
				return err
			}
		}
		if page.ResumptionToken != "" {
			fmt.Fprintf(os.Stderr, "resumptionToken: %s (complete list size %d)\n", page.ResumptionToken, page.CompleteListSize)
		}
		return nil
	case "records":
		records, err := client.ListAllRecords(ctx, endpoint, opts, maxRecords)
		for _, r := range records {
			if encErr := enc.Encode(r); encErr != nil {
				return encErr
			}
		}
		fmt.Fprintf(os.Stderr, "%d record(s) from %s\n", len(records), endpoint)
		return err
	default:
		return fmt.Errorf("unknown verb %q", verb)
	}
}

// harvestEndpoint returns ref when it already names an OAI-PMH endpoint,
// and otherwise probes the repository for its working endpoint.
func harvestEndpoint(ctx context.Context, cmd *cobra.Command, ref string) (string, error) {
	if strings.HasSuffix(strings.TrimRight(ref, "/"), "/request") {
		return ref, nil
	}
	cfg := accessConfig()
	reg, err := loadRegistry(cfg, false)
	if err != nil {
		return "", err
	}
	platformName, _ := cmd.Flags().GetString("platform")
	repo, err := resolveRepo(reg, ref, platformName)
	if err != nil {
		return "", err
	}
	caps := newStrategy(cfg, newLogger()).Capabilities(ctx, repo)
	if !caps.OAIPMH {
		return "", fmt.Errorf("no working OAI-PMH endpoint for %s", repo.ID)
	}
	fmt.Fprintf(os.Stderr, "using endpoint %s\n", caps.OAIEndpoint)
	return caps.OAIEndpoint, nil
}
