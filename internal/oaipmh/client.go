// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oaipmh

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/repo-access/internal/httputil"
)

// DefaultMaxRecords caps ListAllRecords when the caller passes no limit.
const DefaultMaxRecords = 100

// Per-verb request timeouts.
const (
	identifyTimeout        = 15 * time.Second
	listRecordsTimeout     = 60 * time.Second
	getRecordTimeout       = 30 * time.Second
	listSetsTimeout        = 30 * time.Second
	listFormatsTimeout     = 15 * time.Second
	listIdentifiersTimeout = 60 * time.Second
)

// Fetcher retrieves a URL as text. *httputil.Client satisfies it.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string, opts httputil.RequestOptions) (string, error)
}

// ListOptions selects records for ListRecords and ListIdentifiers.
// When ResumptionToken is set every other field is ignored.
type ListOptions struct {
	MetadataPrefix  string
	From            string
	Until           string
	Set             string
	ResumptionToken string
}

// Client speaks OAI-PMH 2.0 to any endpoint.
type Client struct {
	fetcher Fetcher
	log     *slog.Logger
}

// NewClient returns a client that fetches through f. A nil logger discards.
func NewClient(f Fetcher, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{fetcher: f, log: log}
}

// Identify issues the Identify verb.
func (c *Client) Identify(ctx context.Context, endpoint string) (Identify, error) {
	body, err := c.fetch(ctx, endpoint, "Identify", nil, identifyTimeout)
	if err != nil {
		return Identify{}, err
	}
	return ParseIdentify([]byte(body))
}

// ListRecords fetches a single page.
func (c *Client) ListRecords(ctx context.Context, endpoint string, opts ListOptions) (RecordsPage, error) {
	body, err := c.fetch(ctx, endpoint, "ListRecords", listParams(opts), listRecordsTimeout)
	if err != nil {
		return RecordsPage{}, err
	}
	return ParseListRecords([]byte(body))
}

// ListAllRecords follows resumption tokens until the list is exhausted or
// maxRecords records are collected. Pages are concatenated in order and
// the result is truncated to maxRecords.
func (c *Client) ListAllRecords(ctx context.Context, endpoint string, opts ListOptions, maxRecords int) ([]Record, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	var all []Record
	seen := map[string]bool{}
	for {
		page, err := c.ListRecords(ctx, endpoint, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if len(all) >= maxRecords {
			return all[:maxRecords], nil
		}
		token := page.ResumptionToken
		if token == "" {
			return all, nil
		}
		if seen[token] {
			c.log.Warn("repeated resumption token, stopping harvest", "endpoint", endpoint, "token", token)
			return all, nil
		}
		seen[token] = true
		opts = ListOptions{ResumptionToken: token}
	}
}

// ListIdentifiers fetches a single page of headers.
func (c *Client) ListIdentifiers(ctx context.Context, endpoint string, opts ListOptions) (HeadersPage, error) {
	body, err := c.fetch(ctx, endpoint, "ListIdentifiers", listParams(opts), listIdentifiersTimeout)
	if err != nil {
		return HeadersPage{}, err
	}
	return ParseListIdentifiers([]byte(body))
}

// GetRecord fetches one record in the given prefix (oai_dc when empty).
func (c *Client) GetRecord(ctx context.Context, endpoint, identifier, metadataPrefix string) (Record, error) {
	if metadataPrefix == "" {
		metadataPrefix = "oai_dc"
	}
	params := url.Values{}
	params.Set("identifier", identifier)
	params.Set("metadataPrefix", metadataPrefix)
	body, err := c.fetch(ctx, endpoint, "GetRecord", params, getRecordTimeout)
	if err != nil {
		return Record{}, err
	}
	return ParseGetRecord([]byte(body))
}

// ListSets issues the ListSets verb. Only the first page is returned.
func (c *Client) ListSets(ctx context.Context, endpoint string) ([]Set, error) {
	body, err := c.fetch(ctx, endpoint, "ListSets", nil, listSetsTimeout)
	if err != nil {
		return nil, err
	}
	return ParseListSets([]byte(body))
}

// ListMetadataFormats issues the ListMetadataFormats verb.
func (c *Client) ListMetadataFormats(ctx context.Context, endpoint string) ([]MetadataFormat, error) {
	body, err := c.fetch(ctx, endpoint, "ListMetadataFormats", nil, listFormatsTimeout)
	if err != nil {
		return nil, err
	}
	return ParseListMetadataFormats([]byte(body))
}

func (c *Client) fetch(ctx context.Context, endpoint, verb string, params url.Values, timeout time.Duration) (string, error) {
	u := BuildURL(endpoint, verb, params)
	c.log.Debug("oai-pmh request", "verb", verb, "url", u)
	body, err := c.fetcher.FetchText(ctx, u, httputil.RequestOptions{
		Timeout: timeout,
		Headers: map[string]string{"Accept": "application/xml, text/xml;q=0.9, */*;q=0.5"},
	})
	if err != nil {
		return "", fmt.Errorf("OAI-PMH %s: %w", verb, err)
	}
	return body, nil
}

// BuildURL discards any query already on endpoint and sets the verb plus params.
func BuildURL(endpoint, verb string, params url.Values) string {
	base := endpoint
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	q := url.Values{}
	q.Set("verb", verb)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return base + "?" + q.Encode()
}

func listParams(opts ListOptions) url.Values {
	params := url.Values{}
	if opts.ResumptionToken != "" {
		params.Set("resumptionToken", opts.ResumptionToken)
		return params
	}
	prefix := opts.MetadataPrefix
	if prefix == "" {
		prefix = "oai_dc"
	}
	params.Set("metadataPrefix", prefix)
	if opts.From != "" {
		params.Set("from", opts.From)
	}
	if opts.Until != "" {
		params.Set("until", opts.Until)
	}
	if opts.Set != "" {
		params.Set("set", opts.Set)
	}
	return params
}
