// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repo-access/pkg/types"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestIsFresh(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		checked time.Time
		now     time.Time
		want    bool
	}{
		{"just checked", base, base, true},
		{"inside window", base, base.Add(59 * time.Minute), true},
		{"exactly ttl", base, base.Add(time.Hour), false},
		{"expired", base, base.Add(2 * time.Hour), false},
		{"never checked", time.Time{}, base, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFresh(Capabilities{CheckedAt: tt.checked}, tt.now, time.Hour))
		})
	}
}

func TestCapabilityCache(t *testing.T) {
	clock := newFakeClock()
	c := NewCapabilityCache(time.Hour, WithClock(clock.now))

	_, ok := c.Lookup("r1")
	assert.False(t, ok)

	stored := c.Store("r1", Capabilities{OAIPMH: true, OAIEndpoint: "https://r/oai"})
	assert.Equal(t, clock.t, stored.CheckedAt)

	got, ok := c.Lookup("r1")
	require.True(t, ok)
	assert.Equal(t, "https://r/oai", got.OAIEndpoint)

	clock.advance(61 * time.Minute)
	_, ok = c.Lookup("r1")
	assert.False(t, ok, "stale entries are not returned")
	assert.Equal(t, 1, c.Len())

	c.Store("r1", Capabilities{})
	c.Invalidate("r1")
	_, ok = c.Lookup("r1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCapabilityCache_DefaultTTL(t *testing.T) {
	c := NewCapabilityCache(0)
	assert.Equal(t, DefaultCapabilityTTL, c.ttl)
}

func TestOAICandidates(t *testing.T) {
	repo := types.RepositoryEntry{
		BaseURL: "https://repo.br/",
		OAIPMH:  types.OAIPMHAccess{Available: true, Endpoint: "https://repo.br/oai/request"},
	}
	assert.Equal(t, []string{
		"https://repo.br/oai/request",
		"https://repo.br/server/oai/request",
		"https://repo.br/jspui/oai/request",
		"https://repo.br/xmlui/oai/request",
	}, OAICandidates(repo))

	repo.OAIPMH.Available = false
	assert.Equal(t, "https://repo.br/server/oai/request", OAICandidates(repo)[0],
		"an endpoint not marked available is not tried first")

	repo.OAIPMH = types.OAIPMHAccess{Available: true, Endpoint: "https://oai.repo.br/request"}
	assert.Len(t, OAICandidates(repo), 5)
}
