// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repo-access/pkg/types"
)

const registryYAML = `
- id: BR-AGG-0001
  name: BDTD
  url: https://bdtd.ibict.br/vufind
  platform: vufind
  status: active
  institution: {name: IBICT, state: DF}
- id: BR-AGG-0002
  name: SciELO Brasil
  url: https://www.scielo.br
  platform: opac
  status: active
  institution: {name: SciELO, state: SP}
- id: USP-001
  name: Repositório da Produção USP
  url: https://repositorio.usp.br
  platform: custom
  status: active
  institution: {name: USP, state: sp}
- id: BR-UFX-0001
  name: Repositório UFX
  url: https://repositorio.ufx.br
  platform: dspace7
  status: active
  institution: {name: UFX, state: MG}
  oai_pmh: {available: true, endpoint: https://repositorio.ufx.br/server/oai/request, verified: true}
  rest_api: {available: true, version: 7}
- id: BR-UFY-0001
  name: Repositório UFY
  url: https://repositorio.ufy.br
  platform: dspace6
  status: inactive
  institution: {name: UFY, state: MG}
  oai_pmh: {available: true}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	r, err := Load(writeFile(t, "repositories.yaml", registryYAML))
	require.NoError(t, err)
	assert.Equal(t, 5, r.Len())

	bdtd, ok := r.ByID("BR-AGG-0001")
	require.True(t, ok)
	assert.Equal(t, types.KindBDTD, bdtd.Kind)

	scielo, _ := r.ByID("BR-AGG-0002")
	assert.Equal(t, types.KindSciELO, scielo.Kind)

	usp, _ := r.ByID("USP-001")
	assert.Equal(t, types.KindUSP, usp.Kind)

	ufx, _ := r.ByID("BR-UFX-0001")
	assert.Equal(t, types.KindGeneric, ufx.Kind)
	assert.Equal(t, "https://repositorio.ufx.br/server/oai/request", ufx.OAIPMH.Endpoint)
	assert.Equal(t, 7, ufx.REST.Version)

	_, ok = r.ByID("missing")
	assert.False(t, ok)
}

func TestLoad_JSON(t *testing.T) {
	doc := `[{"id":"X","url":"https://x.br","platform":"dspace7","kind":"usp","oai_pmh":{"available":false}}]`
	r, err := Load(writeFile(t, "repos.json", doc))
	require.NoError(t, err)
	x, ok := r.ByID("X")
	require.True(t, ok)
	assert.Equal(t, types.KindUSP, x.Kind, "an explicit kind is kept")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "- id: [unclosed"))
	assert.ErrorContains(t, err, "parsing registry")

	_, err = Load(writeFile(t, "noid.yaml", "- url: https://a.br\n"))
	assert.ErrorContains(t, err, "missing id")

	_, err = Load(writeFile(t, "nourl.yaml", "- id: A\n"))
	assert.ErrorContains(t, err, "missing url")

	_, err = Load(writeFile(t, "dup.yaml", "- {id: A, url: https://a.br}\n- {id: A, url: https://b.br}\n"))
	assert.ErrorContains(t, err, "duplicate id")
}

func TestQueries(t *testing.T) {
	r, err := Load(writeFile(t, "repositories.yaml", registryYAML))
	require.NoError(t, err)

	ids := func(es []types.RepositoryEntry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Len(t, r.All(), 5)
	assert.Equal(t, []string{"BR-AGG-0001", "BR-AGG-0002", "USP-001", "BR-UFX-0001"}, ids(r.Active()))
	assert.Equal(t, []string{"BR-AGG-0002", "USP-001"}, ids(r.ByState("SP")))
	assert.Equal(t, []string{"BR-UFX-0001"}, ids(r.ByPlatform("DSpace7")))
	assert.Equal(t, []string{"BR-UFX-0001"}, ids(r.WithOAIPMH()), "available without an endpoint is excluded")
	assert.Empty(t, r.ByState("RS"))
}

func TestAll_ReturnsCopy(t *testing.T) {
	r, err := New([]types.RepositoryEntry{{ID: "A", BaseURL: "https://a.br"}})
	require.NoError(t, err)
	all := r.All()
	all[0].ID = "changed"
	a, ok := r.ByID("A")
	require.True(t, ok)
	assert.Equal(t, "A", a.ID)
}

func TestStats(t *testing.T) {
	r, err := Load(writeFile(t, "repositories.yaml", registryYAML))
	require.NoError(t, err)

	s := r.Stats()
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 4, s.Active)
	assert.Equal(t, 2, s.ByState["MG"])
	assert.Equal(t, 1, s.ByState["sp"])
	assert.Equal(t, 1, s.ByPlatform["dspace6"])
	assert.Equal(t, 2, s.ByKind["generic"])
	assert.Equal(t, 1, s.ByKind["bdtd"])
	assert.Equal(t, 2, s.OAIAvailable)
	assert.Equal(t, 1, s.OAIVerified)
}
