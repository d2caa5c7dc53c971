// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/pdiddy/repo-access/pkg/types"
)

// DefaultArticlesBaseURL is the ArticleMeta API root.
const DefaultArticlesBaseURL = "http://articlemeta.scielo.org/api/v1"

const (
	articlesCollection     = "scl"
	articlesSearchTimeout  = 30 * time.Second
	articlesDetailTimeout  = 15 * time.Second
	articlesDefaultLimit   = 20
	articlesOverFetch      = 5
	articlesMaxIdentifiers = 200
	articlesBatchSize      = 5
	defaultJournalLimit    = 100
)

// Article is an ArticleMeta article. Title, Abstract and the entries of
// Fulltexts are objects keyed by language.
type Article struct {
	Code       string          `json:"code"`
	Collection string          `json:"collection"`
	DOI        string          `json:"doi"`
	Title      json.RawMessage `json:"title"`
	Authors    []struct {
		GivenNames  string   `json:"given_names"`
		Surname     string   `json:"surname"`
		Xref        []string `json:"xref"`
		Affiliation string   `json:"affiliation"`
	} `json:"authors"`
	PublicationDate    string                     `json:"publication_date"`
	Abstract           json.RawMessage            `json:"abstract"`
	SubjectAreas       []string                   `json:"subject_areas"`
	SubjectDescriptors []string                   `json:"subject_descriptors"`
	Languages          []string                   `json:"languages"`
	Fulltexts          map[string]json.RawMessage `json:"fulltexts"`
	Journal            *struct {
		V100 []struct {
			Value string `json:"_"`
		} `json:"v100"`
		V435 []struct {
			Value string `json:"_"`
		} `json:"v435"`
	} `json:"journal"`
	JournalTitle string `json:"journal_title"`
	ISSN         string `json:"issn"`
	DocumentType string `json:"document_type"`
}

// Titles returns every title in document order.
func (a *Article) Titles() []string { return orderedStrings(a.Title) }

// Abstracts returns every abstract in document order.
func (a *Article) Abstracts() []string { return orderedStrings(a.Abstract) }

// AuthorNames renders authors as "given surname".
func (a *Article) AuthorNames() []string {
	names := make([]string, 0, len(a.Authors))
	for _, au := range a.Authors {
		names = append(names, au.GivenNames+" "+au.Surname)
	}
	return names
}

// PreferredTitle picks Portuguese, then English, then the first title.
func (a *Article) PreferredTitle() string { return preferLanguage(a.Title) }

// PDFURL returns the first full-text PDF link, if any.
func (a *Article) PDFURL() string {
	return first(orderedStrings(a.Fulltexts["pdf"]))
}

// Journal identifies a journal in the collection.
type Journal struct {
	Code string `json:"code" yaml:"code"`
	ISSN string `json:"issn" yaml:"issn"`
}

// Articles searches an identifier-only article metadata API. The API has
// no full-text search, so Search over-fetches identifiers, loads their
// details in small concurrent batches and filters them locally.
type Articles struct {
	fetcher Fetcher
	baseURL string
	log     *slog.Logger
}

// NewArticles returns an article client. An empty baseURL selects DefaultArticlesBaseURL.
func NewArticles(f Fetcher, baseURL string, log *slog.Logger) *Articles {
	if baseURL == "" {
		baseURL = DefaultArticlesBaseURL
	}
	return &Articles{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), log: discard(log)}
}

// Search lists up to five times the requested number of identifiers, then
// keeps articles whose title, abstract or subjects contain the query and
// which pass the title, author and subject-area filters. It stops as soon
// as enough matches are collected. Articles whose detail fetch fails are
// skipped.
func (a *Articles) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	limit := opts.Limit(articlesDefaultLimit)

	params := url.Values{}
	params.Set("collection", articlesCollection)
	params.Set("limit", strconv.Itoa(min(limit*articlesOverFetch, articlesMaxIdentifiers)))
	if opts.DateFrom != "" {
		params.Set("from", opts.DateFrom)
	}
	if opts.DateUntil != "" {
		params.Set("until", opts.DateUntil)
	}
	if opts.ISSN != "" {
		params.Set("issn", opts.ISSN)
	}

	body, err := a.fetcher.FetchText(ctx, a.baseURL+"/article/identifiers/?"+params.Encode(), jsonRequest(articlesSearchTimeout))
	if err != nil {
		return nil, fmt.Errorf("article identifiers: %w", err)
	}
	var ids struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
		Objects []struct {
			Code           string `json:"code"`
			Collection     string `json:"collection"`
			ProcessingDate string `json:"processing_date"`
		} `json:"objects"`
	}
	if err := json.Unmarshal([]byte(body), &ids); err != nil {
		return nil, fmt.Errorf("%w: article identifiers: %v", types.ErrParse, err)
	}

	codes := make([]string, 0, len(ids.Objects))
	for _, o := range ids.Objects {
		codes = append(codes, o.Code)
	}

	filter := newArticleFilter(query, opts)
	results := []types.SearchResult{}
	mapper := iter.Mapper[string, *Article]{MaxGoroutines: articlesBatchSize}
	for start := 0; start < len(codes) && len(results) < limit; start += articlesBatchSize {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		batch := codes[start:min(start+articlesBatchSize, len(codes))]
		articles := mapper.Map(batch, func(code *string) *Article {
			art, err := a.GetArticle(ctx, *code)
			if err != nil {
				a.log.Debug("article detail failed", "code", *code, "error", err)
				return nil
			}
			return &art
		})

		for _, art := range articles {
			if art == nil || !filter.match(art) {
				continue
			}
			results = append(results, articleResult(art))
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// GetArticle fetches one article by code.
func (a *Articles) GetArticle(ctx context.Context, code string) (Article, error) {
	params := url.Values{}
	params.Set("collection", articlesCollection)
	params.Set("code", code)
	body, err := a.fetcher.FetchText(ctx, a.baseURL+"/article/?"+params.Encode(), jsonRequest(articlesDetailTimeout))
	if err != nil {
		return Article{}, fmt.Errorf("article %s: %w", code, err)
	}
	var art Article
	if err := json.Unmarshal([]byte(body), &art); err != nil {
		return Article{}, fmt.Errorf("%w: article %s: %v", types.ErrParse, code, err)
	}
	return art, nil
}

// GetMetadata returns an article as Dublin Core. The identifier list holds
// the article code and, when known, the DOI as "doi:<doi>".
func (a *Articles) GetMetadata(ctx context.Context, code string) (types.DublinCore, error) {
	art, err := a.GetArticle(ctx, code)
	if err != nil {
		return types.DublinCore{}, err
	}
	dc := types.DublinCore{
		Title:       nonNil(art.Titles()),
		Creator:     art.AuthorNames(),
		Date:        []string{},
		Description: nonNil(art.Abstracts()),
		Subject:     append(append([]string{}, art.SubjectAreas...), art.SubjectDescriptors...),
		Language:    nonNil(art.Languages),
		Identifier:  []string{art.Code},
	}
	if art.PublicationDate != "" {
		dc.Date = []string{art.PublicationDate}
	}
	if art.DOI != "" {
		dc.Identifier = append(dc.Identifier, "doi:"+art.DOI)
	}
	return dc, nil
}

// FindPDFURL returns the first full-text PDF link of an article, or "".
func (a *Articles) FindPDFURL(ctx context.Context, code string) (string, error) {
	art, err := a.GetArticle(ctx, code)
	if err != nil {
		return "", err
	}
	return art.PDFURL(), nil
}

// ListJournals lists journal codes in the collection. A non-positive
// limit lists up to 100.
func (a *Articles) ListJournals(ctx context.Context, limit int) ([]Journal, error) {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	params := url.Values{}
	params.Set("collection", articlesCollection)
	params.Set("limit", strconv.Itoa(limit))
	body, err := a.fetcher.FetchText(ctx, a.baseURL+"/journal/identifiers/?"+params.Encode(), jsonRequest(articlesDetailTimeout))
	if err != nil {
		return nil, fmt.Errorf("journal identifiers: %w", err)
	}
	var resp struct {
		Objects []struct {
			Code string `json:"code"`
		} `json:"objects"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: journal identifiers: %v", types.ErrParse, err)
	}
	journals := make([]Journal, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		// Journal codes in this collection are the print ISSN.
		journals = append(journals, Journal{Code: o.Code, ISSN: o.Code})
	}
	return journals, nil
}

type articleFilter struct {
	query, title, author, subjectArea string
}

func newArticleFilter(query string, opts types.SearchOptions) articleFilter {
	return articleFilter{
		query:       strings.ToLower(query),
		title:       strings.ToLower(opts.Title),
		author:      strings.ToLower(opts.Author),
		subjectArea: strings.ToLower(opts.SubjectArea),
	}
}

func (f articleFilter) match(art *Article) bool {
	if f.query != "" {
		var parts []string
		parts = append(parts, art.Titles()...)
		parts = append(parts, art.Abstracts()...)
		parts = append(parts, art.SubjectAreas...)
		parts = append(parts, art.SubjectDescriptors...)
		if !strings.Contains(strings.ToLower(strings.Join(parts, " ")), f.query) {
			return false
		}
	}
	if f.title != "" && !strings.Contains(strings.ToLower(strings.Join(art.Titles(), " ")), f.title) {
		return false
	}
	if f.author != "" && !strings.Contains(strings.ToLower(strings.Join(art.AuthorNames(), " ")), f.author) {
		return false
	}
	if f.subjectArea != "" {
		found := false
		for _, area := range art.SubjectAreas {
			if strings.Contains(strings.ToLower(area), f.subjectArea) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func articleResult(art *Article) types.SearchResult {
	itemURL := "https://www.scielo.br/j/article/" + art.Code
	if art.DOI != "" {
		itemURL = "https://doi.org/" + art.DOI
	}

	journal, issn := art.JournalTitle, art.ISSN
	if art.Journal != nil {
		if journal == "" && len(art.Journal.V100) > 0 {
			journal = art.Journal.V100[0].Value
		}
		if issn == "" && len(art.Journal.V435) > 0 {
			issn = art.Journal.V435[0].Value
		}
	}

	docType := art.DocumentType
	if docType == "" {
		docType = "article"
	}

	return types.SearchResult{
		RepositoryID:   ArticlesRepositoryID,
		RepositoryName: "SciELO",
		Identifier:     art.Code,
		Title:          art.PreferredTitle(),
		Creators:       art.AuthorNames(),
		Description:    preferLanguage(art.Abstract),
		Date:           art.PublicationDate,
		Type:           docType,
		URL:            itemURL,
		DOI:            art.DOI,
		PDFURL:         art.PDFURL(),
		Journal:        journal,
		ISSN:           issn,
		SubjectAreas:   art.SubjectAreas,
		Language:       first(art.Languages),
		AccessMethod:   types.MethodSciELO,
	}
}

// preferLanguage picks the "pt" value, then "en", then the first one.
func preferLanguage(raw json.RawMessage) string {
	if s := stringAt(raw, "pt"); s != "" {
		return s
	}
	if s := stringAt(raw, "en"); s != "" {
		return s
	}
	return first(orderedStrings(raw))
}
