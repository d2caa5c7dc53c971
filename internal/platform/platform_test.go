// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repo-access/internal/httputil"
	"github.com/pdiddy/repo-access/pkg/types"
)

func newFetcher(ts *httptest.Server) *httputil.Client {
	return httputil.New(types.HTTPConfig{MaxRetries: 1}, httputil.WithHTTPClient(ts.Client()))
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		name, id, url string
		want          types.PlatformKind
	}{
		{"theses by id", "BR-AGG-0001", "https://example.org", types.KindBDTD},
		{"theses by host", "X", "https://bdtd.ibict.br/vufind/", types.KindBDTD},
		{"articles by id", "BR-AGG-0002", "", types.KindSciELO},
		{"articles by host", "X", "https://www.scielo.br", types.KindSciELO},
		{"legacy by host", "BR-SP-0001", "https://repositorio.usp.br/", types.KindUSP},
		{"generic", "BR-RJ-0002", "https://repositorio.ufrj.br", types.KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindFor(tt.id, tt.url))
		})
	}
}

func TestResolveOAIEndpoints(t *testing.T) {
	got := ResolveOAIEndpoints("https://repo.br//")
	assert.Equal(t, []string{
		"https://repo.br/server/oai/request",
		"https://repo.br/oai/request",
		"https://repo.br/jspui/oai/request",
		"https://repo.br/xmlui/oai/request",
	}, got)
}

func TestNewAdapters(t *testing.T) {
	ad := NewAdapters(nil, Config{}, nil)

	r, ok := ad.Lookup(types.KindBDTD)
	require.True(t, ok)
	assert.IsType(t, &Theses{}, r.Adapter)
	assert.False(t, r.EmptyFallsThrough)

	r, ok = ad.Lookup(types.KindSciELO)
	require.True(t, ok)
	assert.IsType(t, &Articles{}, r.Adapter)

	r, ok = ad.Lookup(types.KindUSP)
	require.True(t, ok)
	assert.IsType(t, &Legacy{}, r.Adapter)
	assert.True(t, r.EmptyFallsThrough)

	_, ok = ad.Lookup(types.KindGeneric)
	assert.False(t, ok)
}

func TestOrderedJSON(t *testing.T) {
	raw := json.RawMessage(`{"zeta": ["x"], "alpha": {"role": []}, "mid": 1}`)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, orderedKeys(raw))

	vals := json.RawMessage(`{"es": "Hola", "en": "Hello", "n": 3, "pt": "Olá"}`)
	assert.Equal(t, []string{"Hola", "Hello", "Olá"}, orderedStrings(vals))
	assert.Equal(t, "Olá", preferLanguage(vals))
	assert.Equal(t, "Hello", preferLanguage(json.RawMessage(`{"es":"Hola","en":"Hello"}`)))
	assert.Equal(t, "Hola", preferLanguage(json.RawMessage(`{"es":"Hola"}`)))
	assert.Empty(t, preferLanguage(nil))

	assert.Nil(t, orderedKeys(json.RawMessage(`["a"]`)))
	assert.Nil(t, orderedKeys(nil))
}
