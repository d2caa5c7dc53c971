// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dspace is a client for the DSpace 7 REST API (discovery search,
// item lookup and bitstream listing).
package dspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/pkg/types"
)

const (
	detectTimeout = 10 * time.Second
	searchTimeout = 30 * time.Second
	itemTimeout   = 15 * time.Second

	defaultPageSize = 20
)

// Fetcher retrieves a URL as text. *httputil.Client satisfies it.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string, opts httputil.RequestOptions) (string, error)
}

// Client talks to DSpace 7 installations.
type Client struct {
	fetcher Fetcher
	log     *slog.Logger
}

// NewClient returns a DSpace client. A nil logger discards.
func NewClient(f Fetcher, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{fetcher: f, log: log}
}

// APIRoot resolves the REST root for a repository base URL.
func APIRoot(baseURL string) string {
	clean := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasSuffix(clean, "/server/api"):
		return clean
	case strings.HasSuffix(clean, "/server"):
		return clean + "/api"
	default:
		return clean + "/server/api"
	}
}

// Detect reports whether a DSpace 7 REST API answers at baseURL. Any
// failure, including a non-JSON answer, is reported as false.
func (c *Client) Detect(ctx context.Context, baseURL string) bool {
	root := APIRoot(baseURL)
	body, err := c.get(ctx, root, detectTimeout, 1)
	if err != nil {
		c.log.Debug("dspace detect failed", "url", root, "error", err)
		return false
	}
	var probe struct {
		Links json.RawMessage `json:"_links"`
	}
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return false
	}
	return len(probe.Links) > 0 && string(probe.Links) != "null"
}

// Search runs an item-scoped discovery query. Objects that do not carry
// a usable indexable item are skipped.
func (c *Client) Search(ctx context.Context, baseURL, query string, opts SearchOptions) (SearchPage, error) {
	root := APIRoot(baseURL)
	params := url.Values{}
	params.Set("query", query)
	params.Set("dsoType", "ITEM")
	params.Set("page", strconv.Itoa(opts.Page))
	size := opts.Size
	if size <= 0 {
		size = defaultPageSize
	}
	params.Set("size", strconv.Itoa(size))
	if opts.Scope != "" {
		params.Set("scope", opts.Scope)
	}
	if opts.Sort != "" {
		params.Set("sort", opts.Sort)
	}

	body, err := c.get(ctx, root+"/discover/search/objects?"+params.Encode(), searchTimeout, 0)
	if err != nil {
		return SearchPage{}, fmt.Errorf("dspace search: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return SearchPage{}, fmt.Errorf("%w: dspace search response: %v", types.ErrParse, err)
	}

	var page SearchPage
	for _, raw := range resp.Embedded.SearchResult.Embedded.Objects {
		item, ok := decodeIndexable(raw)
		if !ok {
			c.log.Debug("skipping malformed dspace search object", "url", root)
			continue
		}
		page.Items = append(page.Items, item)
	}
	page.Page = resp.Embedded.SearchResult.Page
	if resp.Page != nil {
		page.Page = *resp.Page
	}
	if page.Page.Size == 0 && page.Page.TotalElements == 0 {
		page.Page = PageInfo{Size: size, TotalElements: len(page.Items), TotalPages: 1}
	}
	page.TotalElements = page.Page.TotalElements
	return page, nil
}

// GetItem fetches one item by UUID.
func (c *Client) GetItem(ctx context.Context, baseURL, uuid string) (Item, error) {
	body, err := c.get(ctx, APIRoot(baseURL)+"/core/items/"+url.PathEscape(uuid), itemTimeout, 0)
	if err != nil {
		return Item{}, fmt.Errorf("dspace item %s: %w", uuid, err)
	}
	var item Item
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return Item{}, fmt.Errorf("%w: dspace item %s: %v", types.ErrParse, uuid, err)
	}
	if item.Type == "" {
		item.Type = "item"
	}
	return item, nil
}

// GetBitstreams lists the files attached to an item with direct content links.
func (c *Client) GetBitstreams(ctx context.Context, baseURL, itemUUID string) ([]Bitstream, error) {
	root := APIRoot(baseURL)
	body, err := c.get(ctx, root+"/core/items/"+url.PathEscape(itemUUID)+"/bitstreams", itemTimeout, 0)
	if err != nil {
		return nil, fmt.Errorf("dspace bitstreams %s: %w", itemUUID, err)
	}
	var resp struct {
		Embedded struct {
			Bitstreams []struct {
				UUID      string `json:"uuid"`
				Name      string `json:"name"`
				SizeBytes int64  `json:"sizeBytes"`
				Format    *struct {
					MimeType string `json:"mimetype"`
				} `json:"_format"`
			} `json:"bitstreams"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: dspace bitstreams %s: %v", types.ErrParse, itemUUID, err)
	}

	out := make([]Bitstream, 0, len(resp.Embedded.Bitstreams))
	for _, b := range resp.Embedded.Bitstreams {
		mime := "application/octet-stream"
		if b.Format != nil && b.Format.MimeType != "" {
			mime = b.Format.MimeType
		}
		out = append(out, Bitstream{
			UUID:         b.UUID,
			Name:         b.Name,
			SizeBytes:    b.SizeBytes,
			MimeType:     mime,
			RetrieveLink: root + "/core/bitstreams/" + b.UUID + "/content",
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, u string, timeout time.Duration, retries int) (string, error) {
	return c.fetcher.FetchText(ctx, u, httputil.RequestOptions{
		Timeout:    timeout,
		MaxRetries: retries,
		Headers:    map[string]string{"Accept": "application/json"},
	})
}

type searchResponse struct {
	Embedded struct {
		SearchResult struct {
			Embedded struct {
				Objects []json.RawMessage `json:"objects"`
			} `json:"_embedded"`
			Page PageInfo `json:"page"`
		} `json:"searchResult"`
	} `json:"_embedded"`
	Page *PageInfo `json:"page"`
}

func decodeIndexable(raw json.RawMessage) (Item, bool) {
	var obj struct {
		Embedded struct {
			IndexableObject *Item `json:"indexableObject"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Item{}, false
	}
	item := obj.Embedded.IndexableObject
	if item == nil || item.UUID == "" {
		return Item{}, false
	}
	if item.Type == "" {
		item.Type = "item"
	}
	return *item, true
}
