// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package platform holds clients for repositories that do not follow the
// standard OAI-PMH or DSpace conventions, and the lookup table that routes
// a repository's PlatformKind to its client.
package platform

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/pkg/types"
)

// Registry ids and hosts of the bespoke platforms.
const (
	ThesesRepositoryID   = "BR-AGG-0001"
	ArticlesRepositoryID = "BR-AGG-0002"

	thesesHost   = "bdtd.ibict.br"
	articlesHost = "scielo.br"
	legacyHost   = "repositorio.usp.br"
)

// Fetcher retrieves a URL as text. *httputil.Client satisfies it.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string, opts httputil.RequestOptions) (string, error)
}

// Adapter is a platform-specific search and metadata client.
type Adapter interface {
	Search(ctx context.Context, query string, opts types.SearchOptions) ([]types.SearchResult, error)
	GetMetadata(ctx context.Context, identifier string) (types.DublinCore, error)
}

// Route binds an Adapter to a PlatformKind. When EmptyFallsThrough is set
// an empty result is treated like a failure and the caller moves on.
type Route struct {
	Adapter           Adapter
	EmptyFallsThrough bool
}

// Adapters maps a PlatformKind to its route. KindGeneric has no entry.
type Adapters map[types.PlatformKind]Route

// Config overrides the platform base URLs. Empty fields keep the defaults.
type Config struct {
	ThesesBaseURL   string
	ArticlesBaseURL string
	LegacyBaseURL   string
}

// NewAdapters builds the lookup table for every bespoke platform.
func NewAdapters(f Fetcher, cfg Config, log *slog.Logger) Adapters {
	return Adapters{
		types.KindBDTD:   {Adapter: NewTheses(f, cfg.ThesesBaseURL, log)},
		types.KindSciELO: {Adapter: NewArticles(f, cfg.ArticlesBaseURL, log)},
		types.KindUSP:    {Adapter: NewLegacy(f, cfg.LegacyBaseURL, log), EmptyFallsThrough: true},
	}
}

// Lookup returns the route for kind.
func (a Adapters) Lookup(kind types.PlatformKind) (Route, bool) {
	r, ok := a[kind]
	return r, ok && r.Adapter != nil
}

// KindFor classifies a repository by registry id or base URL host.
func KindFor(id, baseURL string) types.PlatformKind {
	switch {
	case id == ThesesRepositoryID || strings.Contains(baseURL, thesesHost):
		return types.KindBDTD
	case id == ArticlesRepositoryID || strings.Contains(baseURL, articlesHost):
		return types.KindSciELO
	case strings.Contains(baseURL, legacyHost):
		return types.KindUSP
	}
	return types.KindGeneric
}

// ResolveOAIEndpoints lists the OAI-PMH paths to probe for a repository,
// most likely first. DSpace 7 moved the endpoint under /server.
func ResolveOAIEndpoints(baseURL string) []string {
	clean := strings.TrimRight(baseURL, "/")
	return []string{
		clean + "/server/oai/request",
		clean + "/oai/request",
		clean + "/jspui/oai/request",
		clean + "/xmlui/oai/request",
	}
}

func discard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}

func jsonRequest(timeout time.Duration) httputil.RequestOptions {
	return httputil.RequestOptions{
		Timeout: timeout,
		Headers: map[string]string{"Accept": "application/json"},
	}
}
