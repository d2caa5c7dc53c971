// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pdiddy/repo-access/internal/platform"
	"github.com/pdiddy/repo-access/pkg/types"
)

// DefaultCapabilityTTL is how long a probe result is trusted.
const DefaultCapabilityTTL = time.Hour

// Capabilities records which access methods answered for a repository.
// OAIEndpoint is the endpoint that actually passed Identify, which may
// differ from the one declared in the registry.
type Capabilities struct {
	OAIPMH      bool      `json:"oai_pmh" yaml:"oai_pmh"`
	OAIEndpoint string    `json:"oai_endpoint,omitempty" yaml:"oai_endpoint,omitempty"`
	REST        bool      `json:"rest" yaml:"rest"`
	CheckedAt   time.Time `json:"checked_at" yaml:"checked_at"`
}

// IsFresh reports whether entry was checked less than ttl before now.
func IsFresh(entry Capabilities, now time.Time, ttl time.Duration) bool {
	if entry.CheckedAt.IsZero() {
		return false
	}
	return now.Sub(entry.CheckedAt) < ttl
}

// CapabilityCache holds probe results per repository id. It is owned by a
// single Strategy and safe for concurrent use.
type CapabilityCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Capabilities
}

// CacheOption configures a CapabilityCache.
type CacheOption func(*CapabilityCache)

// WithClock replaces time.Now (tests use a fake clock).
func WithClock(now func() time.Time) CacheOption {
	return func(c *CapabilityCache) {
		c.now = now
	}
}

// NewCapabilityCache returns an empty cache. A non-positive ttl selects
// DefaultCapabilityTTL.
func NewCapabilityCache(ttl time.Duration, opts ...CacheOption) *CapabilityCache {
	if ttl <= 0 {
		ttl = DefaultCapabilityTTL
	}
	c := &CapabilityCache{ttl: ttl, now: time.Now, entries: make(map[string]Capabilities)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the entry for id when it is still fresh.
func (c *CapabilityCache) Lookup(id string) (Capabilities, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok || !IsFresh(entry, c.now(), c.ttl) {
		return Capabilities{}, false
	}
	return entry, true
}

// Store records caps for id, stamping CheckedAt with the cache clock.
func (c *CapabilityCache) Store(id string, caps Capabilities) Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	caps.CheckedAt = c.now()
	c.entries[id] = caps
	return caps
}

// Invalidate drops the entry for id.
func (c *CapabilityCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of entries, fresh or stale.
func (c *CapabilityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prober discovers the capabilities of a repository.
type Prober interface {
	Probe(ctx context.Context, repo types.RepositoryEntry) Capabilities
}

// NetworkProber probes OAI-PMH with Identify across the candidate
// endpoints and, for DSpace repositories, the REST API root.
type NetworkProber struct {
	OAI  Harvester
	REST RESTClient
	Log  *slog.Logger
}

// Probe never fails; unreachable methods are reported as unavailable.
func (p *NetworkProber) Probe(ctx context.Context, repo types.RepositoryEntry) Capabilities {
	var caps Capabilities
	if p.OAI != nil {
		caps.OAIEndpoint = p.firstIdentify(ctx, repo)
		caps.OAIPMH = caps.OAIEndpoint != ""
	}
	if repo.IsDSpace() && p.REST != nil && ctx.Err() == nil {
		caps.REST = p.REST.Detect(ctx, repo.BaseURL)
	}
	return caps
}

// firstIdentify returns the first candidate endpoint that answers Identify.
func (p *NetworkProber) firstIdentify(ctx context.Context, repo types.RepositoryEntry) string {
	for _, endpoint := range OAICandidates(repo) {
		if _, err := p.OAI.Identify(ctx, endpoint); err != nil {
			p.logger().Debug("oai-pmh identify failed", "repository", repo.ID, "endpoint", endpoint, "error", err)
			if ctx.Err() != nil {
				return ""
			}
			continue
		}
		return endpoint
	}
	return ""
}

func (p *NetworkProber) logger() *slog.Logger {
	if p.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Log
}

// OAICandidates lists the endpoints to probe: the declared endpoint first
// (when the registry marks OAI-PMH available), then the platform path
// variants, without duplicates.
func OAICandidates(repo types.RepositoryEntry) []string {
	var out []string
	seen := map[string]bool{}
	add := func(ep string) {
		if ep != "" && !seen[ep] {
			seen[ep] = true
			out = append(out, ep)
		}
	}
	if repo.OAIPMH.Available {
		add(repo.OAIPMH.Endpoint)
	}
	for _, ep := range platform.ResolveOAIEndpoints(repo.BaseURL) {
		add(ep)
	}
	return out
}
