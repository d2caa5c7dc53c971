// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/repo-access/internal/oaipmh"
	"github.com/pdiddy/repo-access/pkg/types"
)

func TestItemURL(t *testing.T) {
	repo := types.RepositoryEntry{BaseURL: "https://repo.br/jspui/"}
	tests := []struct {
		identifier string
		want       string
	}{
		{"https://other.br/handle/1/2", "https://other.br/handle/1/2"},
		{"/jspui/handle/1/2", "https://repo.br/jspui/handle/1/2"},
		{"handle/1/2", "https://repo.br/jspui/handle/1/2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, itemURL(repo, tt.identifier), tt.identifier)
	}
}

func TestLooksLikeUUID(t *testing.T) {
	assert.True(t, looksLikeUUID("0b0c5d0e-1111-2222-3333-444455556666"))
	assert.False(t, looksLikeUUID("oai:repositorio.ufx.br:123456789/100"))
	assert.False(t, looksLikeUUID("zzzzzzzz-1111-2222-3333-444455556666"))
	assert.False(t, looksLikeUUID("0b0c5d0e111122223333444455556666"))
}

func TestOAIResult_FallbackURL(t *testing.T) {
	repo := types.RepositoryEntry{ID: "R", Name: "Repo", BaseURL: "https://repo.br/"}
	rec := oaipmh.Record{
		Header: oaipmh.Header{Identifier: "oai:repo.br:123456789/77"},
		Metadata: types.DublinCore{
			Title:      []string{"Título"},
			Identifier: []string{"10.1590/xyz", "https://repo.br/handle/123456789/77"},
			Date:       []string{"2023"},
		},
	}
	r := oaiResult(rec, repo)
	assert.Equal(t, "https://repo.br/handle/123456789/77", r.URL)
	assert.NotNil(t, r.Creators)
	assert.Equal(t, "2023", r.Date)

	rec.Metadata.Identifier = nil
	assert.Equal(t, "https://repo.br/handle/123456789/77", oaiResult(rec, repo).URL)
}
