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

	"github.com/pdiddy/repo-access/pkg/types"
)

// DefaultThesesBaseURL is the VuFind installation of the national theses library.
const DefaultThesesBaseURL = "https://bdtd.ibict.br/vufind"

const (
	thesesSearchTimeout = 30 * time.Second
	thesesRecordTimeout = 15 * time.Second
	thesesDefaultLimit  = 20
	thesisType          = "thesis/dissertation"
)

// DegreeTypes maps degree filter values onto VuFind degree_name_str facets.
var DegreeTypes = map[string]string{
	"graduacao":      "Graduação",
	"mestrado":       "Mestrado",
	"doutorado":      "Doutorado",
	"pos-doutorado":  "Pós-Doutorado",
	"livre-docencia": "Livre-Docência",
}

// ThesisRecord is a VuFind record as returned by the search and record APIs.
type ThesisRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Authors struct {
		// Primary and Secondary are objects keyed by author name.
		Primary   json.RawMessage `json:"primary"`
		Secondary json.RawMessage `json:"secondary"`
	} `json:"authors"`
	PublicationDates []string `json:"publicationDates"`
	URLs             []struct {
		URL  string `json:"url"`
		Desc string `json:"desc"`
	} `json:"urls"`
	Subjects       [][]string `json:"subjects"`
	Abstract       []string   `json:"abstract"`
	Languages      []string   `json:"languages"`
	Formats        []string   `json:"formats"`
	Institutions   []string   `json:"institutions"`
	DegreePrograms []string   `json:"degreePrograms"`
	DegreeNames    []string   `json:"degreeNames"`
}

// PrimaryAuthors returns the author names in document order.
func (r ThesisRecord) PrimaryAuthors() []string { return orderedKeys(r.Authors.Primary) }

// Advisors returns the secondary author names in document order.
func (r ThesisRecord) Advisors() []string { return orderedKeys(r.Authors.Secondary) }

// FlatSubjects flattens the nested subject headings.
func (r ThesisRecord) FlatSubjects() []string {
	var out []string
	for _, s := range r.Subjects {
		out = append(out, s...)
	}
	return out
}

// Theses searches a VuFind theses aggregator through its REST API.
type Theses struct {
	fetcher Fetcher
	baseURL string
	log     *slog.Logger
}

// NewTheses returns a theses client. An empty baseURL selects DefaultThesesBaseURL.
func NewTheses(f Fetcher, baseURL string, log *slog.Logger) *Theses {
	if baseURL == "" {
		baseURL = DefaultThesesBaseURL
	}
	return &Theses{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), log: discard(log)}
}

// Search runs a VuFind search. A title or author option replaces the free
// query and selects the matching search type; the remaining options become
// facet filters.
func (t *Theses) Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error) {
	u := t.baseURL + "/api/v1/search?" + ThesesSearchParams(query, opts).Encode()
	body, err := t.fetcher.FetchText(ctx, u, jsonRequest(thesesSearchTimeout))
	if err != nil {
		return nil, fmt.Errorf("theses search: %w", err)
	}

	var resp struct {
		ResultCount int            `json:"resultCount"`
		Records     []ThesisRecord `json:"records"`
		Status      string         `json:"status"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: theses search response: %v", types.ErrParse, err)
	}
	t.log.Debug("theses search", "query", query, "result_count", resp.ResultCount, "returned", len(resp.Records))

	results := make([]types.SearchResult, 0, len(resp.Records))
	for _, r := range resp.Records {
		results = append(results, t.toResult(r))
	}
	return results, nil
}

// ThesesSearchParams builds the VuFind query string for a search.
func ThesesSearchParams(query string, opts types.SearchOptions) url.Values {
	searchType, lookfor := "AllFields", query
	switch {
	case opts.Title != "":
		searchType, lookfor = "Title", opts.Title
	case opts.Author != "":
		searchType, lookfor = "Author", opts.Author
	}

	params := url.Values{}
	params.Set("lookfor", lookfor)
	params.Set("type", searchType)
	params.Set("limit", strconv.Itoa(opts.Limit(thesesDefaultLimit)))

	if opts.DegreeType != "" {
		degree := opts.DegreeType
		if mapped, ok := DegreeTypes[degree]; ok {
			degree = mapped
		}
		params.Add("filter[]", fmt.Sprintf("degree_name_str:%q", degree))
	}
	if opts.Institution != "" {
		params.Add("filter[]", fmt.Sprintf("institution_str:%q", opts.Institution))
	}
	if opts.State != "" {
		params.Add("filter[]", fmt.Sprintf("region_str:%q", opts.State))
	}
	if opts.DateFrom != "" || opts.DateUntil != "" {
		params.Add("filter[]", fmt.Sprintf("publishDate:[%s TO %s]", yearOrStar(opts.DateFrom), yearOrStar(opts.DateUntil)))
	}
	if opts.SubjectArea != "" {
		params.Add("filter[]", fmt.Sprintf("subject_str:%q", opts.SubjectArea))
	}
	return params
}

// GetRecord fetches a single record by VuFind id.
func (t *Theses) GetRecord(ctx context.Context, id string) (ThesisRecord, error) {
	u := t.baseURL + "/api/v1/record?id=" + url.QueryEscape(id)
	body, err := t.fetcher.FetchText(ctx, u, jsonRequest(thesesRecordTimeout))
	if err != nil {
		return ThesisRecord{}, fmt.Errorf("theses record %s: %w", id, err)
	}
	var resp struct {
		Records []ThesisRecord `json:"records"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return ThesisRecord{}, fmt.Errorf("%w: theses record %s: %v", types.ErrParse, id, err)
	}
	if len(resp.Records) == 0 {
		return ThesisRecord{}, fmt.Errorf("%w: theses record not found: %s", types.ErrParse, id)
	}
	return resp.Records[0], nil
}

// GetMetadata returns a record as Dublin Core. Advisors become contributors.
func (t *Theses) GetMetadata(ctx context.Context, id string) (types.DublinCore, error) {
	r, err := t.GetRecord(ctx, id)
	if err != nil {
		return types.DublinCore{}, err
	}
	dcType := r.DegreeNames
	if len(dcType) == 0 {
		dcType = []string{thesisType}
	}
	return types.DublinCore{
		Title:       []string{r.Title},
		Creator:     nonNil(r.PrimaryAuthors()),
		Date:        nonNil(r.PublicationDates),
		Description: nonNil(r.Abstract),
		Subject:     nonNil(r.FlatSubjects()),
		Language:    nonNil(r.Languages),
		Type:        dcType,
		Contributor: nonNil(r.Advisors()),
	}, nil
}

func (t *Theses) toResult(r ThesisRecord) types.SearchResult {
	creators := nonNil(r.PrimaryAuthors())
	for _, a := range r.Advisors() {
		creators = append(creators, a+" (orientador)")
	}

	itemURL := t.baseURL + "/Record/" + url.PathEscape(r.ID)
	if len(r.URLs) > 0 && r.URLs[0].URL != "" {
		itemURL = r.URLs[0].URL
	}

	return types.SearchResult{
		RepositoryID:   ThesesRepositoryID,
		RepositoryName: "BDTD (IBICT)",
		Identifier:     r.ID,
		Title:          r.Title,
		Creators:       creators,
		Description:    first(r.Abstract),
		Date:           first(r.PublicationDates),
		Type:           thesisType,
		URL:            itemURL,
		DegreeType:     firstOf(r.DegreeNames, r.Formats),
		Institution:    first(r.Institutions),
		SubjectAreas:   r.FlatSubjects(),
		Language:       first(r.Languages),
		AccessMethod:   types.MethodBDTD,
	}
}

// yearOrStar keeps the year of a date, or "*" for an open bound.
func yearOrStar(date string) string {
	if date == "" {
		return "*"
	}
	if len(date) > 4 {
		return date[:4]
	}
	return date
}

func first(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}

func firstOf(lists ...[]string) string {
	for _, l := range lists {
		if len(l) > 0 {
			return l[0]
		}
	}
	return ""
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
