// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repo-access/internal/access"
	"github.com/pdiddy/repo-access/internal/fulltext"
	"github.com/pdiddy/repo-access/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download <repository> <identifier>",
	Short: "Download and validate the full-text PDF of one item",
	Long: `Download finds a full-text link for the item (or uses --url), fetches it,
rejects HTML served in place of a PDF, and stores the file under
<download-dir>/raw with a YAML sidecar under <download-dir>/metadata.
Items already on disk are skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("url", "", "full-text URL to fetch instead of discovering one")
	downloadCmd.Flags().String("dir", "", "download directory (default from config)")
	downloadCmd.Flags().String("platform", "", "declared platform for ad-hoc URLs (e.g. dspace7)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := accessConfig()
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.DownloadDir = dir
	}
	reg, err := loadRegistry(cfg, false)
	if err != nil {
		return err
	}
	platformName, _ := cmd.Flags().GetString("platform")
	repo, err := resolveRepo(reg, args[0], platformName)
	if err != nil {
		return err
	}
	identifier := args[1]

	log := newLogger()
	hc := access.NewHTTPClient(cfg)
	strategy := access.NewWithClient(hc, cfg, log)

	pdfURL, _ := cmd.Flags().GetString("url")
	if pdfURL == "" {
		pdfURL = strategy.FindPDFURL(ctx, repo, identifier)
		if pdfURL == "" {
			return fmt.Errorf("no full-text link found for %s", identifier)
		}
	}

	dc := strategy.GetMetadata(ctx, repo, identifier)
	result := types.SearchResult{
		RepositoryID:   repo.ID,
		RepositoryName: repo.Name,
		Identifier:     identifier,
		Title:          firstOf(dc.Title),
		Creators:       dc.Creator,
		Description:    firstOf(dc.Description),
		Date:           firstOf(dc.Date),
		Type:           firstOf(dc.Type),
		PDFURL:         pdfURL,
	}

	d, err := fulltext.NewDownloader(hc, cfg.DownloadDir, log).Download(ctx, result, pdfURL)
	if err != nil {
		return err
	}
	if d.Skipped {
		fmt.Printf("skipped: %s (already exists)\n", d.Slug)
		return nil
	}
	fmt.Printf("downloaded: %s (%d pages)\n  %s\n  %s\n", d.Slug, d.Pages, d.PDFPath, d.SidecarPath)
	return nil
}

func firstOf(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}
