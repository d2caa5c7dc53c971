// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext downloads and validates full-text PDFs found by the
// access layer and records where each one came from.
package fulltext

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/pkg/types"
)

const (
	rawDir          = "raw"
	metadataDir     = "metadata"
	downloadTimeout = 120 * time.Second
)

// Fetcher is the HTTP surface the downloader needs.
type Fetcher interface {
	FetchBuffer(ctx context.Context, url string, opts httputil.RequestOptions) (httputil.Buffer, error)
}

// Sidecar is the YAML record written next to every PDF.
type Sidecar struct {
	Result       types.SearchResult `yaml:"result"`
	SourceURL    string             `yaml:"source_url"`
	SizeBytes    int                `yaml:"size_bytes"`
	Pages        int                `yaml:"pages"`
	DownloadedAt time.Time          `yaml:"downloaded_at"`
}

// Download is the outcome of one download.
type Download struct {
	Slug        string
	PDFPath     string
	SidecarPath string
	Pages       int
	Skipped     bool
}

// Downloader writes PDFs under dir/raw and sidecars under dir/metadata.
type Downloader struct {
	fetch Fetcher
	dir   string
	now   func() time.Time
	log   *slog.Logger
}

// NewDownloader creates a Downloader rooted at dir.
func NewDownloader(f Fetcher, dir string, log *slog.Logger) *Downloader {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Downloader{fetch: f, dir: dir, now: time.Now, log: log}
}

// Download fetches pdfURL for result. An existing PDF for the same record
// is not fetched again. The body is validated before anything is written;
// the PDF lands through a temporary file and a rename.
func (d *Downloader) Download(ctx context.Context, result types.SearchResult, pdfURL string) (Download, error) {
	if pdfURL == "" {
		return Download{}, fmt.Errorf("no full-text URL for %q", result.Identifier)
	}
	slug := Slug(result)
	out := Download{
		Slug:        slug,
		PDFPath:     filepath.Join(d.dir, rawDir, slug+".pdf"),
		SidecarPath: filepath.Join(d.dir, metadataDir, slug+".yaml"),
	}

	if _, err := os.Stat(out.PDFPath); err == nil {
		out.Skipped = true
		if sc, err := ReadSidecar(out.SidecarPath); err == nil {
			out.Pages = sc.Pages
		}
		d.log.Info("pdf already present", "slug", slug)
		return out, nil
	}

	buf, err := d.fetch.FetchBuffer(ctx, pdfURL, httputil.RequestOptions{
		Timeout: downloadTimeout,
		Headers: map[string]string{"Accept": "application/pdf"},
	})
	if err != nil {
		return Download{}, fmt.Errorf("downloading %s: %w", slug, err)
	}

	v := Validate(buf.Data)
	if !v.Valid {
		d.log.Warn("rejected download", "slug", slug, "url", pdfURL,
			"content_type", buf.ContentType, "reason", v.Reason)
		return Download{}, fmt.Errorf("%s: %s: %w", pdfURL, v.Reason, ErrNotPDF)
	}
	out.Pages = v.Pages

	for _, dir := range []string{filepath.Dir(out.PDFPath), filepath.Dir(out.SidecarPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Download{}, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	if err := writeAtomic(out.PDFPath, buf.Data); err != nil {
		return Download{}, fmt.Errorf("writing %s: %w", slug, err)
	}

	sc := Sidecar{
		Result:       result,
		SourceURL:    pdfURL,
		SizeBytes:    len(buf.Data),
		Pages:        v.Pages,
		DownloadedAt: d.now().UTC(),
	}
	if err := writeSidecar(sc, out.SidecarPath); err != nil {
		return Download{}, fmt.Errorf("writing metadata for %s: %w", slug, err)
	}
	d.log.Info("downloaded", "slug", slug, "bytes", len(buf.Data), "pages", v.Pages)
	return out, nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place.
func writeAtomic(destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fulltext-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeSidecar(sc Sidecar, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshaling sidecar: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSidecar reads a sidecar written by Download.
func ReadSidecar(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, err
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Sidecar{}, fmt.Errorf("parsing sidecar: %w", err)
	}
	return sc, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Slug returns a filesystem-safe file stem for result: the repository id
// followed by the sanitized identifier. Identifiers that sanitize to
// nothing, or grow too long, are replaced by a hash.
func Slug(result types.SearchResult) string {
	id := result.Identifier
	if i := strings.LastIndex(id, "://"); i >= 0 {
		id = id[i+3:]
	}
	stem := strings.Trim(unsafeChars.ReplaceAllString(id, "-"), "-.")
	if stem == "" || len(stem) > 80 {
		h := sha256.Sum256([]byte(result.Identifier))
		stem = fmt.Sprintf("id-%x", h[:8])
	}
	if result.RepositoryID == "" {
		return stem
	}
	return unsafeChars.ReplaceAllString(result.RepositoryID, "-") + "_" + stem
}
