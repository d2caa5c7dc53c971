// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package access picks, per repository, the method that actually works and
// returns normalized results. A platform adapter is tried first when the
// repository has one; otherwise OAI-PMH, DSpace REST and HTML scraping are
// tried in that order, guided by a TTL-bound capability cache. Failures
// fall through to the next tier and are recorded, never returned.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/iter"

	"github.com/pdiddy/repo-access/internal/dspace"
	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/internal/oaipmh"
	"github.com/pdiddy/repo-access/internal/platform"
	"github.com/pdiddy/repo-access/internal/ratelimit"
	"github.com/pdiddy/repo-access/internal/scraper"
	"github.com/pdiddy/repo-access/pkg/types"
)

const defaultConcurrency = 5

// Failure is an error swallowed by the cascade.
type Failure struct {
	Tier string
	Err  error
}

func (f Failure) String() string { return fmt.Sprintf("%s: %v", f.Tier, f.Err) }

// SearchReport is the outcome of a search on one repository. Tier is the
// tier that produced Results, or "" when every tier came up empty.
type SearchReport struct {
	RepositoryID string
	Results      []types.SearchResult
	Tier         string
	Failures     []Failure
}

// Deps are the clients the cascade drives.
type Deps struct {
	OAI      Harvester
	REST     RESTClient
	Scraper  PageScraper
	Adapters platform.Adapters
}

// Strategy orchestrates the access tiers for any repository.
type Strategy struct {
	oai         Harvester
	rest        RESTClient
	scraper     PageScraper
	adapters    platform.Adapters
	cache       *CapabilityCache
	prober      Prober
	tiers       []tier
	maxResults  int
	concurrency int
	log         *slog.Logger
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithCache injects the capability cache.
func WithCache(c *CapabilityCache) Option {
	return func(s *Strategy) { s.cache = c }
}

// WithProber replaces the network prober.
func WithProber(p Prober) Option {
	return func(s *Strategy) { s.prober = p }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Strategy) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxResults sets the result cap used when SearchOptions has none.
func WithMaxResults(n int) Option {
	return func(s *Strategy) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithConcurrency bounds how many repositories SearchMany queries at once.
func WithConcurrency(n int) Option {
	return func(s *Strategy) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New builds a Strategy over deps.
func New(deps Deps, opts ...Option) *Strategy {
	s := &Strategy{
		oai:         deps.OAI,
		rest:        deps.REST,
		scraper:     deps.Scraper,
		adapters:    deps.Adapters,
		maxResults:  types.DefaultMaxResults,
		concurrency: defaultConcurrency,
		log:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCapabilityCache(DefaultCapabilityTTL)
	}
	if s.prober == nil {
		s.prober = &NetworkProber{OAI: s.oai, REST: s.rest, Log: s.log}
	}

	if s.adapters != nil {
		s.tiers = append(s.tiers, platformTier{})
	}
	if s.oai != nil {
		s.tiers = append(s.tiers, oaiTier{})
	}
	if s.rest != nil {
		s.tiers = append(s.tiers, restTier{})
	}
	if s.scraper != nil {
		s.tiers = append(s.tiers, scraperTier{})
	}
	return s
}

// NewHTTPClient builds the HTTP client every protocol client shares: one
// per-host rate limiter in front of the retrying fetcher.
func NewHTTPClient(cfg types.AccessConfig) *httputil.Client {
	limiter := ratelimit.New(cfg.Rate.DefaultPerSecond)
	for host, r := range cfg.Rate.PerHost {
		limiter.SetRate(host, r)
	}
	return httputil.New(cfg.HTTP, httputil.WithLimiter(limiter))
}

// NewFromConfig wires the full stack over a fresh NewHTTPClient.
func NewFromConfig(cfg types.AccessConfig, log *slog.Logger) *Strategy {
	return NewWithClient(NewHTTPClient(cfg), cfg, log)
}

// NewWithClient wires every protocol client and platform adapter over hc.
func NewWithClient(hc *httputil.Client, cfg types.AccessConfig, log *slog.Logger) *Strategy {
	deps := Deps{
		OAI:      oaipmh.NewClient(hc, log),
		REST:     dspace.NewClient(hc, log),
		Scraper:  scraper.New(hc, log),
		Adapters: platform.NewAdapters(hc, platform.Config{}, log),
	}
	return New(deps,
		WithCache(NewCapabilityCache(cfg.CapabilityTTL)),
		WithLogger(log),
		WithMaxResults(cfg.DefaultMaxResults),
		WithConcurrency(cfg.BatchSize),
	)
}

// Search returns results for query from the first tier that yields any.
// It never fails: when nothing works the result is an empty slice.
func (s *Strategy) Search(ctx context.Context, repo types.RepositoryEntry, query string, opts types.SearchOptions) []types.SearchResult {
	return s.SearchWithReport(ctx, repo, query, opts).Results
}

// SearchWithReport is Search plus the winning tier and the failures that
// were swallowed on the way.
func (s *Strategy) SearchWithReport(ctx context.Context, repo types.RepositoryEntry, query string, opts types.SearchOptions) SearchReport {
	limit := opts.Limit(s.maxResults)
	c := &call{s: s, repo: repo}
	report := SearchReport{RepositoryID: repo.ID, Results: []types.SearchResult{}}

	for _, t := range s.tiers {
		results, done, err := t.search(ctx, c, query, opts, limit)
		if err != nil {
			s.recordFailure(&report.Failures, repo, t, err)
			continue
		}
		if done {
			if results == nil {
				results = []types.SearchResult{}
			}
			report.Results = results
			report.Tier = t.name()
			s.log.Debug("search answered", "repository", repo.ID, "tier", t.name(), "results", len(results))
			return report
		}
	}
	s.log.Info("no tier returned results", "repository", repo.ID, "failures", len(report.Failures))
	return report
}

// GetMetadata returns the record's Dublin Core from the first tier that
// answers, or an empty record.
func (s *Strategy) GetMetadata(ctx context.Context, repo types.RepositoryEntry, identifier string) types.DublinCore {
	c := &call{s: s, repo: repo}
	var failures []Failure
	for _, t := range s.tiers {
		dc, err := t.metadata(ctx, c, identifier)
		if err != nil {
			s.recordFailure(&failures, repo, t, err)
			continue
		}
		return dc
	}
	return types.DublinCore{}
}

// FindPDFURL returns a direct full-text link for the record, or "".
func (s *Strategy) FindPDFURL(ctx context.Context, repo types.RepositoryEntry, identifier string) string {
	c := &call{s: s, repo: repo}
	var failures []Failure
	for _, t := range s.tiers {
		link, err := t.pdf(ctx, c, identifier)
		if err != nil {
			s.recordFailure(&failures, repo, t, err)
			continue
		}
		if link != "" {
			return link
		}
	}
	return ""
}

// Capabilities returns the cached capabilities of repo, probing when the
// entry is missing or stale.
func (s *Strategy) Capabilities(ctx context.Context, repo types.RepositoryEntry) Capabilities {
	return s.resolve(ctx, repo)
}

// SearchMany searches every repository with bounded concurrency. Reports
// are returned in input order.
func (s *Strategy) SearchMany(ctx context.Context, repos []types.RepositoryEntry, query string, opts types.SearchOptions) []SearchReport {
	mapper := iter.Mapper[types.RepositoryEntry, SearchReport]{MaxGoroutines: s.concurrency}
	return mapper.Map(repos, func(repo *types.RepositoryEntry) SearchReport {
		return s.SearchWithReport(ctx, *repo, query, opts)
	})
}

// Collect flattens reports into one result list plus "repo/tier: error" lines.
func Collect(reports []SearchReport) ([]types.SearchResult, []string) {
	results := []types.SearchResult{}
	var failures []string
	for _, r := range reports {
		results = append(results, r.Results...)
		for _, f := range r.Failures {
			failures = append(failures, r.RepositoryID+"/"+f.String())
		}
	}
	return results, failures
}

func (s *Strategy) resolve(ctx context.Context, repo types.RepositoryEntry) Capabilities {
	key := cacheKey(repo)
	if caps, ok := s.cache.Lookup(key); ok {
		return caps
	}
	caps := s.prober.Probe(ctx, repo)
	if ctx.Err() != nil {
		// A cancelled probe says nothing about the repository.
		return caps
	}
	caps = s.cache.Store(key, caps)
	s.log.Info("capabilities detected", "repository", repo.ID,
		"oai_pmh", caps.OAIPMH, "oai_endpoint", caps.OAIEndpoint, "rest", caps.REST)
	return caps
}

func (s *Strategy) recordFailure(failures *[]Failure, repo types.RepositoryEntry, t tier, err error) {
	if errors.Is(err, types.ErrCapabilityUnavailable) {
		s.log.Debug("tier skipped", "repository", repo.ID, "tier", t.name(), "reason", err)
		return
	}
	*failures = append(*failures, Failure{Tier: t.name(), Err: err})
	s.log.Warn("tier failed", "repository", repo.ID, "tier", t.name(), "error", err)
}

func cacheKey(repo types.RepositoryEntry) string {
	if repo.ID != "" {
		return repo.ID
	}
	return repo.BaseURL
}

// call carries per-operation state; capabilities are resolved at most
// once and only when a tier needs them.
type call struct {
	s    *Strategy
	repo types.RepositoryEntry
	caps *Capabilities
}

func (c *call) capabilities(ctx context.Context) Capabilities {
	if c.caps == nil {
		caps := c.s.resolve(ctx, c.repo)
		c.caps = &caps
	}
	return *c.caps
}
