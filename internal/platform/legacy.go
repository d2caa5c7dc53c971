// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/internal/scraper"
	"github.com/pdiddy/repo-access/pkg/types"
)

// DefaultLegacyBaseURL is the institutional repository with a result.php search.
const DefaultLegacyBaseURL = "https://repositorio.usp.br"

const (
	legacyTimeout        = 30 * time.Second
	legacyDefaultLimit   = 50
	legacyMinTitleLength = 5
	legacyInstitution    = "Universidade de São Paulo"
	legacyState          = "SP"
)

var doiPattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:A-Z0-9]+`)

// legacyNoise marks navigation links on the result page.
var legacyNoise = []string{"filter[]=", "order=", "pag=", "q="}

var legacyMetaTags = []scraper.MetaTag{
	{Name: "DC.title", Field: "title"},
	{Name: "DC.creator", Field: "creator"},
	{Name: "DC.date", Field: "date"},
	{Name: "DC.description", Field: "description"},
	{Name: "DC.subject", Field: "subject"},
	{Name: "DC.language", Field: "language"},
	{Name: "DC.type", Field: "type"},
	{Name: "DC.publisher", Field: "publisher"},
	{Name: "citation_title", Field: "title"},
	{Name: "citation_author", Field: "creator"},
	{Name: "citation_date", Field: "date"},
}

// Legacy scrapes an institutional search page served by result.php.
type Legacy struct {
	fetcher Fetcher
	baseURL string
	log     *slog.Logger
}

// NewLegacy returns a result.php client. An empty baseURL selects DefaultLegacyBaseURL.
func NewLegacy(f Fetcher, baseURL string, log *slog.Logger) *Legacy {
	if baseURL == "" {
		baseURL = DefaultLegacyBaseURL
	}
	return &Legacy{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), log: discard(log)}
}

// Search queries result.php with the title option, or the free query.
func (l *Legacy) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	term := query
	if opts.Title != "" {
		term = opts.Title
	}
	u := l.baseURL + "/result.php?q=" + url.QueryEscape(term)
	html, err := l.fetcher.FetchText(ctx, u, httputil.RequestOptions{Timeout: legacyTimeout})
	if err != nil {
		return nil, fmt.Errorf("legacy search: %w", err)
	}
	return l.ParseResults(html, opts.Limit(legacyDefaultLimit))
}

// ParseResults extracts record links from a result page. Navigation links
// (filters, ordering, paging, query echoes) and titles shorter than five
// characters are dropped. A DOI in the surrounding text is kept.
func (l *Legacy) ParseResults(html string, maxResults int) ([]types.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing result page: %v", types.ErrParse, err)
	}

	results := []types.SearchResult{}
	seen := map[string]bool{}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		href := a.AttrOr("href", "")
		if !strings.Contains(href, "result.php?id=") && !strings.Contains(href, "/result.php?") {
			return true
		}
		for _, noise := range legacyNoise {
			if strings.Contains(href, noise) {
				return true
			}
		}
		title := strings.TrimSpace(a.Text())
		if len([]rune(title)) < legacyMinTitleLength {
			return true
		}

		target := href
		if !strings.HasPrefix(href, "http") {
			target = l.baseURL + "/" + strings.TrimLeft(href, "/")
		}
		if seen[target] {
			return true
		}
		seen[target] = true

		results = append(results, types.SearchResult{
			RepositoryID:   "USP-001",
			RepositoryName: "Repositório USP",
			Identifier:     href,
			Title:          title,
			Creators:       []string{},
			Type:           thesisType,
			URL:            target,
			DOI:            doiPattern.FindString(a.Parent().Text()),
			Institution:    legacyInstitution,
			State:          legacyState,
			AccessMethod:   types.MethodUSP,
		})
		return true
	})
	return results, nil
}

// GetItemMetadata reads Dublin Core and citation meta tags from an item page.
func (l *Legacy) GetItemMetadata(ctx context.Context, itemURL string) (types.DublinCore, error) {
	html, err := l.fetcher.FetchText(ctx, itemURL, httputil.RequestOptions{Timeout: legacyTimeout})
	if err != nil {
		return types.DublinCore{}, fmt.Errorf("legacy item page: %w", err)
	}
	return scraper.ParseMetaTags(html, legacyMetaTags)
}

// GetMetadata resolves a search identifier (an absolute URL or a path
// relative to the base) and reads the item page.
func (l *Legacy) GetMetadata(ctx context.Context, identifier string) (types.DublinCore, error) {
	itemURL := identifier
	if !strings.HasPrefix(identifier, "http") {
		itemURL = l.baseURL + "/" + strings.TrimLeft(identifier, "/")
	}
	return l.GetItemMetadata(ctx, itemURL)
}
