// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

// --- metadata subcommand ---

var metadataCmd = &cobra.Command{
	Use:   "metadata <repository> <identifier>",
	Short: "Print the Dublin Core record of one item",
	Long: `Metadata looks up a single record through the first access method that
answers (platform adapter, OAI-PMH GetRecord, DSpace REST item, item page
meta tags) and prints it as YAML.`,
	Args: cobra.ExactArgs(2),
	RunE: runMetadata,
}

func runMetadata(cmd *cobra.Command, args []string) error {
	cfg := accessConfig()
	reg, err := loadRegistry(cfg, false)
	if err != nil {
		return err
	}
	platformName, _ := cmd.Flags().GetString("platform")
	repo, err := resolveRepo(reg, args[0], platformName)
	if err != nil {
		return err
	}

	dc := newStrategy(cfg, newLogger()).GetMetadata(context.Background(), repo, args[1])
	if dc.IsEmpty() {
		return fmt.Errorf("no metadata found for %s in %s", args[1], repo.ID)
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(dc)
}

// --- pdf subcommand ---

var pdfCmd = &cobra.Command{
	Use:   "pdf <repository> <identifier>",
	Short: "Print a direct full-text link for one item",
	Args:  cobra.ExactArgs(2),
	RunE:  runPDF,
}

func runPDF(cmd *cobra.Command, args []string) error {
	cfg := accessConfig()
	reg, err := loadRegistry(cfg, false)
	if err != nil {
		return err
	}
	platformName, _ := cmd.Flags().GetString("platform")
	repo, err := resolveRepo(reg, args[0], platformName)
	if err != nil {
		return err
	}

	link := newStrategy(cfg, newLogger()).FindPDFURL(context.Background(), repo, args[1])
	if link == "" {
		return fmt.Errorf("no full-text link found for %s", args[1])
	}
	fmt.Println(link)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{metadataCmd, pdfCmd} {
		c.Flags().String("platform", "", "declared platform for ad-hoc URLs (e.g. dspace7)")
		rootCmd.AddCommand(c)
	}
}
