// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repo-access/pkg/types"
)

const thesesSearchJSON = `{
  "resultCount": 2,
  "status": "OK",
  "records": [
    {
      "id": "UFRJ_abc",
      "title": "Educação ambiental crítica",
      "authors": {
        "primary": {"Silva, Ana": [], "Souza, João": []},
        "secondary": {"Lima, Pedro": {"role": ["orientador"]}}
      },
      "publicationDates": ["2021"],
      "urls": [{"url": "https://pantheon.ufrj.br/handle/11422/1", "desc": "Acesso"}],
      "subjects": [["Educação", "Meio ambiente"], ["Pedagogia"]],
      "abstract": ["Resumo em português.", "Abstract in English."],
      "languages": ["por"],
      "formats": ["masterThesis"],
      "institutions": ["UFRJ"],
      "degreeNames": ["Mestrado"]
    },
    {
      "id": "USP_xyz",
      "title": "Sem URL",
      "authors": {},
      "formats": ["doctoralThesis"]
    }
  ]
}`

func TestThesesSearchParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		opts    types.SearchOptions
		lookfor string
		typ     string
		limit   string
		filters []string
	}{
		{
			name: "all fields", query: "educação",
			lookfor: "educação", typ: "AllFields", limit: "20",
		},
		{
			name: "title wins over author", query: "q",
			opts:    types.SearchOptions{Title: "Clima", Author: "Silva", MaxResults: 5},
			lookfor: "Clima", typ: "Title", limit: "5",
		},
		{
			name: "author", query: "q",
			opts:    types.SearchOptions{Author: "Silva"},
			lookfor: "Silva", typ: "Author", limit: "20",
		},
		{
			name: "filters", query: "q",
			opts: types.SearchOptions{
				DegreeType: "doutorado", Institution: "UFRJ", State: "RJ",
				DateFrom: "2019-01-01", SubjectArea: "Educação",
			},
			lookfor: "q", typ: "AllFields", limit: "20",
			filters: []string{
				`degree_name_str:"Doutorado"`,
				`institution_str:"UFRJ"`,
				`region_str:"RJ"`,
				`publishDate:[2019 TO *]`,
				`subject_str:"Educação"`,
			},
		},
		{
			name: "unmapped degree and open start", query: "q",
			opts:    types.SearchOptions{DegreeType: "Especialização", DateUntil: "2020"},
			lookfor: "q", typ: "AllFields", limit: "20",
			filters: []string{`degree_name_str:"Especialização"`, `publishDate:[* TO 2020]`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ThesesSearchParams(tt.query, tt.opts)
			assert.Equal(t, tt.lookfor, p.Get("lookfor"))
			assert.Equal(t, tt.typ, p.Get("type"))
			assert.Equal(t, tt.limit, p.Get("limit"))
			assert.Equal(t, tt.filters, p["filter[]"])
		})
	}
}

func TestThesesSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vufind/api/v1/search", r.URL.Path)
		assert.Equal(t, "educação", r.URL.Query().Get("lookfor"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(thesesSearchJSON))
	}))
	defer ts.Close()

	th := NewTheses(newFetcher(ts), ts.URL+"/vufind/", nil)
	results, err := th.Search(context.Background(), "educação", types.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	r := results[0]
	assert.Equal(t, "UFRJ_abc", r.Identifier)
	assert.Equal(t, ThesesRepositoryID, r.RepositoryID)
	assert.Equal(t, []string{"Silva, Ana", "Souza, João", "Lima, Pedro (orientador)"}, r.Creators)
	assert.Equal(t, "Resumo em português.", r.Description)
	assert.Equal(t, "2021", r.Date)
	assert.Equal(t, "thesis/dissertation", r.Type)
	assert.Equal(t, "https://pantheon.ufrj.br/handle/11422/1", r.URL)
	assert.Equal(t, "Mestrado", r.DegreeType)
	assert.Equal(t, "UFRJ", r.Institution)
	assert.Equal(t, []string{"Educação", "Meio ambiente", "Pedagogia"}, r.SubjectAreas)
	assert.Equal(t, "por", r.Language)
	assert.Equal(t, types.MethodBDTD, r.AccessMethod)

	r = results[1]
	assert.Equal(t, ts.URL+"/vufind/Record/USP_xyz", r.URL)
	assert.Equal(t, "doctoralThesis", r.DegreeType, "formats used when degree names are absent")
	assert.NotNil(t, r.Creators)
}

func TestThesesSearch_BadResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer ts.Close()

	_, err := NewTheses(newFetcher(ts), ts.URL, nil).Search(context.Background(), "x", types.SearchOptions{})
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestThesesGetMetadata(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/record", r.URL.Path)
		assert.Equal(t, "UFRJ_abc", r.URL.Query().Get("id"))
		w.Write([]byte(`{"records": [{
			"id": "UFRJ_abc", "title": "Educação ambiental crítica",
			"authors": {"primary": {"Silva, Ana": []}, "secondary": {"Lima, Pedro": []}},
			"publicationDates": ["2021"], "subjects": [["Educação"]], "languages": ["por"]
		}]}`))
	}))
	defer ts.Close()

	dc, err := NewTheses(newFetcher(ts), ts.URL, nil).GetMetadata(context.Background(), "UFRJ_abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Educação ambiental crítica"}, dc.Title)
	assert.Equal(t, []string{"Silva, Ana"}, dc.Creator)
	assert.Equal(t, []string{"Lima, Pedro"}, dc.Contributor)
	assert.Equal(t, []string{"thesis/dissertation"}, dc.Type)
	assert.Equal(t, []string{"Educação"}, dc.Subject)
	assert.NotNil(t, dc.Description)
}

func TestThesesGetRecord_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"resultCount":0,"status":"OK"}`))
	}))
	defer ts.Close()

	_, err := NewTheses(newFetcher(ts), ts.URL, nil).GetRecord(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
