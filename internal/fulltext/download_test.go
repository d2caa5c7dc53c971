// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 0
}

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	doc := minimalPDF(3)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/bitstream/tese.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(doc)
		case "/bitstream/paywall.pdf":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<!doctype html><html><body>Acesso restrito</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestDownloader(ts *httptest.Server, dir string) *Downloader {
	hc := httputil.New(types.HTTPConfig{MaxRetries: 1}, httputil.WithHTTPClient(ts.Client()))
	d := NewDownloader(hc, dir, nil)
	d.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return d
}

var testResult = types.SearchResult{
	RepositoryID: "BR-UFX-0001",
	Identifier:   "oai:repositorio.ufx.br:123/456",
	Title:        "Clima urbano",
	Creators:     []string{"Silva, A."},
}

func TestDownload(t *testing.T) {
	var hits int32
	ts := newTestServer(t, &hits)
	defer ts.Close()

	dir := t.TempDir()
	got, err := newTestDownloader(ts, dir).Download(context.Background(), testResult, ts.URL+"/bitstream/tese.pdf")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got.Skipped {
		t.Error("expected download, got skipped")
	}
	if got.Pages != 3 {
		t.Errorf("Pages = %d, want 3", got.Pages)
	}
	if want := filepath.Join(dir, "raw", "BR-UFX-0001_oai-repositorio.ufx.br-123-456.pdf"); got.PDFPath != want {
		t.Errorf("PDFPath = %q, want %q", got.PDFPath, want)
	}

	data, err := os.ReadFile(got.PDFPath)
	if err != nil {
		t.Fatalf("reading pdf: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("stored file is not the PDF body")
	}

	sc, err := ReadSidecar(got.SidecarPath)
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if sc.Result.Title != "Clima urbano" {
		t.Errorf("sidecar title = %q", sc.Result.Title)
	}
	if sc.SourceURL != ts.URL+"/bitstream/tese.pdf" {
		t.Errorf("sidecar source = %q", sc.SourceURL)
	}
	if sc.SizeBytes != len(data) || sc.Pages != 3 {
		t.Errorf("sidecar size/pages = %d/%d", sc.SizeBytes, sc.Pages)
	}
	if !sc.DownloadedAt.Equal(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("sidecar time = %v", sc.DownloadedAt)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "raw"))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDownloadSkipExisting(t *testing.T) {
	var hits int32
	ts := newTestServer(t, &hits)
	defer ts.Close()

	dir := t.TempDir()
	d := newTestDownloader(ts, dir)
	if _, err := d.Download(context.Background(), testResult, ts.URL+"/bitstream/tese.pdf"); err != nil {
		t.Fatalf("first Download: %v", err)
	}
	got, err := d.Download(context.Background(), testResult, ts.URL+"/bitstream/tese.pdf")
	if err != nil {
		t.Fatalf("second Download: %v", err)
	}
	if !got.Skipped {
		t.Error("expected skipped on second download")
	}
	if got.Pages != 3 {
		t.Errorf("Pages from sidecar = %d, want 3", got.Pages)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestDownloadRejectsMaskedHTML(t *testing.T) {
	var hits int32
	ts := newTestServer(t, &hits)
	defer ts.Close()

	dir := t.TempDir()
	_, err := newTestDownloader(ts, dir).Download(context.Background(), testResult, ts.URL+"/bitstream/paywall.pdf")
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "raw")); !os.IsNotExist(statErr) {
		t.Error("nothing should be written for a rejected body")
	}
}

func TestDownloadErrors(t *testing.T) {
	var hits int32
	ts := newTestServer(t, &hits)
	defer ts.Close()
	d := newTestDownloader(ts, t.TempDir())

	if _, err := d.Download(context.Background(), testResult, ""); err == nil {
		t.Error("expected error for empty URL")
	}
	_, err := d.Download(context.Background(), testResult, ts.URL+"/missing.pdf")
	if !errors.Is(err, types.ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name   string
		result types.SearchResult
		want   string
	}{
		{"oai identifier", types.SearchResult{RepositoryID: "R1", Identifier: "oai:repo.br:123/4"}, "R1_oai-repo.br-123-4"},
		{"url", types.SearchResult{RepositoryID: "USP-001", Identifier: "https://repositorio.usp.br/item/0031"}, "USP-001_repositorio.usp.br-item-0031"},
		{"no repository", types.SearchResult{Identifier: "S0102-311X2024000100001"}, "S0102-311X2024000100001"},
		{"unsafe only", types.SearchResult{Identifier: "///"}, "id-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.result)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Slug() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
