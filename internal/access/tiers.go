// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"context"
	"fmt"

	"github.com/pdiddy/repo-access/internal/dspace"
	"github.com/pdiddy/repo-access/internal/oaipmh"
	"github.com/pdiddy/repo-access/pkg/types"
)

// Tier names reported in SearchReport and Failure.
const (
	TierPlatform = "platform"
	TierOAIPMH   = string(types.MethodOAIPMH)
	TierREST     = string(types.MethodDSpaceREST)
	TierScraper  = string(types.MethodHTMLScraper)
)

// oaiOverFetch is how many records are harvested per requested result,
// since matching happens after harvesting.
const oaiOverFetch = 3

// Harvester is the OAI-PMH surface the strategy uses. *oaipmh.Client satisfies it.
type Harvester interface {
	Identify(ctx context.Context, endpoint string) (oaipmh.Identify, error)
	ListAllRecords(ctx context.Context, endpoint string, opts oaipmh.ListOptions, maxRecords int) ([]oaipmh.Record, error)
	GetRecord(ctx context.Context, endpoint, identifier, metadataPrefix string) (oaipmh.Record, error)
}

// RESTClient is the DSpace surface the strategy uses. *dspace.Client satisfies it.
type RESTClient interface {
	Detect(ctx context.Context, baseURL string) bool
	Search(ctx context.Context, baseURL, query string, opts dspace.SearchOptions) (dspace.SearchPage, error)
	GetItem(ctx context.Context, baseURL, uuid string) (dspace.Item, error)
	GetBitstreams(ctx context.Context, baseURL, itemUUID string) ([]dspace.Bitstream, error)
}

// PageScraper is the HTML fallback. *scraper.Scraper satisfies it.
type PageScraper interface {
	Search(ctx context.Context, repo types.RepositoryEntry, query string, maxResults int) ([]types.SearchResult, error)
	GetItemMetadata(ctx context.Context, itemURL string) (types.DublinCore, error)
	FindPDFURL(ctx context.Context, itemURL string) (string, error)
}

// pdfFinder is implemented by platform adapters that know full-text links.
type pdfFinder interface {
	FindPDFURL(ctx context.Context, identifier string) (string, error)
}

// tier is one step of the cascade. A tier that does not apply to the
// repository returns an error wrapping types.ErrCapabilityUnavailable.
type tier interface {
	name() string
	// search reports done when the cascade should stop with these results.
	search(ctx context.Context, c *call, query string, opts types.SearchOptions, limit int) (results []types.SearchResult, done bool, err error)
	metadata(ctx context.Context, c *call, identifier string) (types.DublinCore, error)
	pdf(ctx context.Context, c *call, identifier string) (string, error)
}

func unavailable(t tier, why string) error {
	return fmt.Errorf("%s: %s: %w", t.name(), why, types.ErrCapabilityUnavailable)
}

// --- platform fast path ---

type platformTier struct{}

func (platformTier) name() string { return TierPlatform }

func (t platformTier) search(ctx context.Context, c *call, query string, opts types.SearchOptions, _ int) ([]types.SearchResult, bool, error) {
	route, ok := c.s.adapters.Lookup(c.repo.EffectiveKind())
	if !ok {
		return nil, false, unavailable(t, "no platform adapter")
	}
	results, err := route.Adapter.Search(ctx, query, opts)
	if err != nil {
		return nil, false, err
	}
	for i := range results {
		if c.repo.ID != "" {
			results[i].RepositoryID = c.repo.ID
		}
		if c.repo.Name != "" {
			results[i].RepositoryName = c.repo.Name
		}
	}
	return results, len(results) > 0 || !route.EmptyFallsThrough, nil
}

func (t platformTier) metadata(ctx context.Context, c *call, identifier string) (types.DublinCore, error) {
	route, ok := c.s.adapters.Lookup(c.repo.EffectiveKind())
	if !ok {
		return types.DublinCore{}, unavailable(t, "no platform adapter")
	}
	return route.Adapter.GetMetadata(ctx, identifier)
}

func (t platformTier) pdf(ctx context.Context, c *call, identifier string) (string, error) {
	route, ok := c.s.adapters.Lookup(c.repo.EffectiveKind())
	if !ok {
		return "", unavailable(t, "no platform adapter")
	}
	finder, ok := route.Adapter.(pdfFinder)
	if !ok {
		return "", unavailable(t, "adapter has no full-text links")
	}
	return finder.FindPDFURL(ctx, identifier)
}

// --- OAI-PMH ---

type oaiTier struct{}

func (oaiTier) name() string { return TierOAIPMH }

func (t oaiTier) search(ctx context.Context, c *call, query string, opts types.SearchOptions, limit int) ([]types.SearchResult, bool, error) {
	caps := c.capabilities(ctx)
	if !caps.OAIPMH || caps.OAIEndpoint == "" {
		return nil, false, unavailable(t, "no working endpoint")
	}
	records, err := c.s.oai.ListAllRecords(ctx, caps.OAIEndpoint, oaipmh.ListOptions{
		From:  opts.DateFrom,
		Until: opts.DateUntil,
		Set:   opts.Set,
	}, limit*oaiOverFetch)
	if err != nil {
		return nil, false, err
	}

	terms := QueryTerms(query)
	results := []types.SearchResult{}
	for _, rec := range records {
		if len(results) >= limit {
			break
		}
		if matchesTerms(rec, terms) {
			results = append(results, oaiResult(rec, c.repo))
		}
	}
	return results, len(results) > 0, nil
}

func (t oaiTier) metadata(ctx context.Context, c *call, identifier string) (types.DublinCore, error) {
	caps := c.capabilities(ctx)
	if !caps.OAIPMH || caps.OAIEndpoint == "" {
		return types.DublinCore{}, unavailable(t, "no working endpoint")
	}
	rec, err := c.s.oai.GetRecord(ctx, caps.OAIEndpoint, identifier, "oai_dc")
	if err != nil {
		return types.DublinCore{}, err
	}
	return rec.Metadata, nil
}

func (t oaiTier) pdf(context.Context, *call, string) (string, error) {
	return "", unavailable(t, "oai_dc carries no file links")
}

// --- DSpace REST ---

type restTier struct{}

func (restTier) name() string { return TierREST }

func (t restTier) search(ctx context.Context, c *call, query string, _ types.SearchOptions, limit int) ([]types.SearchResult, bool, error) {
	if !c.capabilities(ctx).REST {
		return nil, false, unavailable(t, "no REST API")
	}
	page, err := c.s.rest.Search(ctx, c.repo.BaseURL, query, dspace.SearchOptions{Size: limit})
	if err != nil {
		return nil, false, err
	}
	results := make([]types.SearchResult, 0, len(page.Items))
	for _, item := range page.Items {
		results = append(results, dspaceResult(item, c.repo))
	}
	return results, len(results) > 0, nil
}

func (t restTier) metadata(ctx context.Context, c *call, identifier string) (types.DublinCore, error) {
	if !looksLikeUUID(identifier) {
		return types.DublinCore{}, unavailable(t, "identifier is not an item UUID")
	}
	if !c.capabilities(ctx).REST {
		return types.DublinCore{}, unavailable(t, "no REST API")
	}
	item, err := c.s.rest.GetItem(ctx, c.repo.BaseURL, identifier)
	if err != nil {
		return types.DublinCore{}, err
	}
	return dspaceDublinCore(item), nil
}

func (t restTier) pdf(ctx context.Context, c *call, identifier string) (string, error) {
	if !looksLikeUUID(identifier) {
		return "", unavailable(t, "identifier is not an item UUID")
	}
	if !c.capabilities(ctx).REST {
		return "", unavailable(t, "no REST API")
	}
	bitstreams, err := c.s.rest.GetBitstreams(ctx, c.repo.BaseURL, identifier)
	if err != nil {
		return "", err
	}
	if b, ok := dspace.PreferPDF(bitstreams); ok {
		return b.RetrieveLink, nil
	}
	return "", nil
}

// --- HTML scraper ---

type scraperTier struct{}

func (scraperTier) name() string { return TierScraper }

func (scraperTier) search(ctx context.Context, c *call, query string, _ types.SearchOptions, limit int) ([]types.SearchResult, bool, error) {
	results, err := c.s.scraper.Search(ctx, c.repo, query, limit)
	if err != nil {
		return nil, false, err
	}
	return results, len(results) > 0, nil
}

func (scraperTier) metadata(ctx context.Context, c *call, identifier string) (types.DublinCore, error) {
	return c.s.scraper.GetItemMetadata(ctx, itemURL(c.repo, identifier))
}

func (scraperTier) pdf(ctx context.Context, c *call, identifier string) (string, error) {
	return c.s.scraper.FindPDFURL(ctx, itemURL(c.repo, identifier))
}
