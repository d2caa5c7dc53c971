// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scraper extracts search hits, metadata and PDF links from
// repository HTML pages when no structured API is available.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/pkg/types"
)

const (
	pageTimeout    = 30 * time.Second
	searchRetries  = 2
	maxRowsPerPage = 20
	minTitleLength = 3
)

// SearchPaths are tried in order against the repository base URL. They
// cover DSpace 7 Angular, JSPUI and XMLUI layouts.
var SearchPaths = []string{
	"/discover",
	"/simple-search",
	"/jspui/simple-search",
	"/xmlui/simple-search",
	"/jspui/discover",
	"/xmlui/discover",
}

// MetaTag maps an HTML meta name onto a Dublin Core field name.
type MetaTag struct {
	Name  string
	Field string
}

// ItemMetaTags is the extraction table for item pages, in order.
var ItemMetaTags = []MetaTag{
	{"citation_title", "title"},
	{"citation_author", "creator"},
	{"citation_date", "date"},
	{"DC.title", "title"},
	{"DC.creator", "creator"},
	{"DC.date", "date"},
	{"DC.description", "description"},
	{"DC.subject", "subject"},
	{"DC.language", "language"},
	{"DC.type", "type"},
	{"DC.publisher", "publisher"},
	{"DCTERMS.abstract", "description"},
}

// Fetcher retrieves a URL as text. *httputil.Client satisfies it.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string, opts httputil.RequestOptions) (string, error)
}

// Scraper is the generic HTML fallback.
type Scraper struct {
	fetcher Fetcher
	log     *slog.Logger
}

// New returns a Scraper. A nil logger discards.
func New(f Fetcher, log *slog.Logger) *Scraper {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scraper{fetcher: f, log: log}
}

// Search tries each of SearchPaths and returns the hits of the first one
// that yields any. Results from different paths are never merged. The
// error is non-nil only when every path failed to fetch.
func (s *Scraper) Search(ctx context.Context, repo types.RepositoryEntry, query string, maxResults int) ([]types.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = types.DefaultMaxResults
	}
	base := strings.TrimRight(repo.BaseURL, "/")

	var errs []error
	for _, p := range SearchPaths {
		params := url.Values{}
		params.Set("query", query)
		params.Set("rpp", strconv.Itoa(min(maxResults, maxRowsPerPage)))
		searchURL := base + p + "?" + params.Encode()

		html, err := s.fetcher.FetchText(ctx, searchURL, httputil.RequestOptions{
			Timeout:    pageTimeout,
			MaxRetries: searchRetries,
		})
		if err != nil {
			s.log.Debug("scraper search path failed", "url", searchURL, "error", err)
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		hits, err := ParseSearchPage(html, base, repo)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(hits) > 0 {
			if len(hits) > maxResults {
				hits = hits[:maxResults]
			}
			return hits, nil
		}
	}
	if len(errs) == len(SearchPaths) {
		return nil, fmt.Errorf("scraping %s: %w", base, errors.Join(errs...))
	}
	return []types.SearchResult{}, nil
}

// GetItemMetadata reads citation and Dublin Core meta tags from an item page.
func (s *Scraper) GetItemMetadata(ctx context.Context, itemURL string) (types.DublinCore, error) {
	html, err := s.fetcher.FetchText(ctx, itemURL, httputil.RequestOptions{Timeout: pageTimeout})
	if err != nil {
		return types.DublinCore{}, fmt.Errorf("fetching item page: %w", err)
	}
	return ParseItemPage(html)
}

// FindPDFURL returns an absolute PDF URL found on an item page, or "" when
// the page offers none.
func (s *Scraper) FindPDFURL(ctx context.Context, itemURL string) (string, error) {
	html, err := s.fetcher.FetchText(ctx, itemURL, httputil.RequestOptions{Timeout: pageTimeout})
	if err != nil {
		return "", fmt.Errorf("fetching item page: %w", err)
	}
	return FindPDFLink(html, itemURL)
}

// ParseSearchPage extracts item links from a search results page. An item
// link points at a /handle/ path, carries no query string and has a title
// of at least three characters. Duplicate targets are dropped.
func ParseSearchPage(html, baseURL string, repo types.RepositoryEntry) ([]types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing search page: %v", types.ErrParse, err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	results := []types.SearchResult{}
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/handle/") {
			return
		}
		if strings.Contains(href, "?") || strings.Contains(href, "sort_by") || strings.Contains(href, "filtername") {
			return
		}
		title := strings.TrimSpace(a.Text())
		if len([]rune(title)) < minTitleLength {
			return
		}

		target := href
		if !strings.HasPrefix(href, "http") {
			sep := "/"
			if strings.HasPrefix(href, "/") {
				sep = ""
			}
			target = base.Scheme + "://" + base.Host + sep + href
		}
		if seen[target] {
			return
		}
		seen[target] = true

		results = append(results, types.SearchResult{
			RepositoryID:   repo.ID,
			RepositoryName: repo.Name,
			Identifier:     href,
			Title:          title,
			Creators:       []string{},
			URL:            target,
			AccessMethod:   types.MethodHTMLScraper,
		})
	})
	return results, nil
}

// ParseItemPage maps the page's meta tags onto Dublin Core using ItemMetaTags.
func ParseItemPage(html string) (types.DublinCore, error) {
	return ParseMetaTags(html, ItemMetaTags)
}

// ParseMetaTags collects meta tag contents into Dublin Core fields. Only
// fields with at least one non-blank tag are set; tags not in the table
// are ignored.
func ParseMetaTags(html string, tags []MetaTag) (types.DublinCore, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return types.DublinCore{}, fmt.Errorf("%w: parsing item page: %v", types.ErrParse, err)
	}

	var dc types.DublinCore
	for _, tag := range tags {
		doc.Find(`meta[name="` + tag.Name + `"]`).Each(func(_ int, m *goquery.Selection) {
			content := strings.TrimSpace(m.AttrOr("content", ""))
			if content == "" {
				return
			}
			if field := dc.Field(tag.Field); field != nil {
				*field = append(*field, content)
			}
		})
	}
	return dc, nil
}

// FindPDFLink picks the first PDF candidate on a page: the citation_pdf_url
// meta tag, then a bitstream anchor ending in .pdf, then any anchor ending
// in .pdf. The hit is resolved against pageURL.
func FindPDFLink(html, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: parsing item page: %v", types.ErrParse, err)
	}

	if content, ok := doc.Find(`meta[name="citation_pdf_url"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		return resolve(pageURL, strings.TrimSpace(content)), nil
	}

	var hit string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		lower := strings.ToLower(a.AttrOr("href", ""))
		if strings.Contains(lower, "bitstream") && strings.HasSuffix(lower, ".pdf") {
			hit = a.AttrOr("href", "")
			return false
		}
		return true
	})
	if hit == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if strings.HasSuffix(strings.ToLower(a.AttrOr("href", "")), ".pdf") {
				hit = a.AttrOr("href", "")
				return false
			}
			return true
		})
	}
	if hit == "" {
		return "", nil
	}
	return resolve(pageURL, hit), nil
}

func resolve(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
