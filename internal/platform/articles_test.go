// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/repo-access/pkg/types"
)

// articleServer serves n identifiers; article i mentions "clima" when i is even.
func articleServer(t *testing.T, n int, details *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "scl", q.Get("collection"))
		switch r.URL.Path {
		case "/article/identifiers/":
			limit, _ := strconv.Atoi(q.Get("limit"))
			var objs []string
			for i := 0; i < min(n, limit); i++ {
				objs = append(objs, fmt.Sprintf(`{"code":"S%04d","collection":"scl"}`, i))
			}
			fmt.Fprintf(w, `{"meta":{"total":%d},"objects":[%s]}`, n, strings.Join(objs, ","))
		case "/article/":
			atomic.AddInt32(details, 1)
			code := q.Get("code")
			i, _ := strconv.Atoi(strings.TrimPrefix(code, "S"))
			if i == 3 {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			topic := "saúde"
			if i%2 == 0 {
				topic = "mudanças do clima"
			}
			fmt.Fprintf(w, `{"code":%q,"title":{"en":"Paper %d","pt":"Artigo sobre %s"},
				"authors":[{"given_names":"Ana","surname":"Silva"}],
				"abstract":{"pt":"Resumo %d"},"subject_areas":["Health Sciences"],
				"publication_date":"2020-05","languages":["pt"]}`, code, i, topic, i)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestArticlesSearch_FiltersAndStopsAtLimit(t *testing.T) {
	var details int32
	ts := articleServer(t, 40, &details)
	defer ts.Close()

	a := NewArticles(newFetcher(ts), ts.URL, nil)
	results, err := a.Search(context.Background(), "CLIMA", types.SearchOptions{MaxResults: 4})
	require.NoError(t, err)

	require.Len(t, results, 4)
	assert.Equal(t, "S0000", results[0].Identifier)
	assert.Equal(t, "S0002", results[1].Identifier)
	assert.Equal(t, "S0004", results[2].Identifier)
	assert.Equal(t, "S0006", results[3].Identifier)
	assert.Equal(t, "Artigo sobre mudanças do clima", results[0].Title)
	// Two batches of five cover codes 0..9; nothing beyond is fetched.
	assert.Equal(t, int32(10), atomic.LoadInt32(&details))
}

func TestArticlesSearch_OverFetchCapped(t *testing.T) {
	var gotLimit string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		assert.Equal(t, "1234-5678", r.URL.Query().Get("issn"))
		assert.Equal(t, "2020-01-01", r.URL.Query().Get("from"))
		w.Write([]byte(`{"meta":{"total":0},"objects":[]}`))
	}))
	defer ts.Close()

	a := NewArticles(newFetcher(ts), ts.URL, nil)
	results, err := a.Search(context.Background(), "x", types.SearchOptions{MaxResults: 100, ISSN: "1234-5678", DateFrom: "2020-01-01"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "200", gotLimit)
}

func TestArticlesSearch_SkipsFailedDetails(t *testing.T) {
	var details int32
	ts := articleServer(t, 5, &details)
	defer ts.Close()

	results, err := NewArticles(newFetcher(ts), ts.URL, nil).Search(context.Background(), "", types.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 4, "code S0003 fails and is skipped")
	for _, r := range results {
		assert.NotEqual(t, "S0003", r.Identifier)
	}
}

func TestArticleFilter(t *testing.T) {
	art := &Article{
		Title:        []byte(`{"pt":"Clima urbano","en":"Urban climate"}`),
		Abstract:     []byte(`{"pt":"Estudo de ilhas de calor"}`),
		SubjectAreas: []string{"Earth Sciences"},
	}
	art.Authors = append(art.Authors, struct {
		GivenNames  string   `json:"given_names"`
		Surname     string   `json:"surname"`
		Xref        []string `json:"xref"`
		Affiliation string   `json:"affiliation"`
	}{GivenNames: "Maria", Surname: "Costa"})

	tests := []struct {
		name  string
		query string
		opts  types.SearchOptions
		want  bool
	}{
		{"query in abstract", "ilhas de calor", types.SearchOptions{}, true},
		{"query in subject", "earth", types.SearchOptions{}, true},
		{"query missing", "oceano", types.SearchOptions{}, false},
		{"title filter", "", types.SearchOptions{Title: "urban"}, true},
		{"title filter miss", "", types.SearchOptions{Title: "rural"}, false},
		{"author filter", "", types.SearchOptions{Author: "maria costa"}, true},
		{"author filter miss", "", types.SearchOptions{Author: "silva"}, false},
		{"subject area", "", types.SearchOptions{SubjectArea: "EARTH"}, true},
		{"subject area miss", "", types.SearchOptions{SubjectArea: "health"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newArticleFilter(tt.query, tt.opts).match(art))
		})
	}
}

func TestArticleResult(t *testing.T) {
	art := &Article{
		Code:         "S0102",
		DOI:          "10.1590/abc",
		Title:        []byte(`{"es":"Título","en":"Title"}`),
		Fulltexts:    map[string]json.RawMessage{"pdf": json.RawMessage(`{"en":"https://scielo.br/a.pdf","pt":"https://scielo.br/b.pdf"}`)},
		Languages:    []string{"en", "pt"},
		SubjectAreas: []string{"Health"},
	}
	r := articleResult(art)
	assert.Equal(t, "https://doi.org/10.1590/abc", r.URL)
	assert.Equal(t, "Title", r.Title)
	assert.Equal(t, "https://scielo.br/a.pdf", r.PDFURL)
	assert.Equal(t, "article", r.Type)
	assert.Equal(t, "en", r.Language)
	assert.Equal(t, types.MethodSciELO, r.AccessMethod)

	r = articleResult(&Article{Code: "S9"})
	assert.Equal(t, "https://www.scielo.br/j/article/S9", r.URL)
	assert.Empty(t, r.PDFURL)
}

func TestArticlesGetMetadata(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "S1", r.URL.Query().Get("code"))
		w.Write([]byte(`{"code":"S1","doi":"10.1/x","title":{"pt":"A","en":"B"},
			"authors":[{"given_names":"Ana","surname":"Silva"}],"publication_date":"2019",
			"subject_areas":["Health"],"subject_descriptors":["covid"],"languages":["pt"]}`))
	}))
	defer ts.Close()

	dc, err := NewArticles(newFetcher(ts), ts.URL, nil).GetMetadata(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, dc.Title)
	assert.Equal(t, []string{"Ana Silva"}, dc.Creator)
	assert.Equal(t, []string{"2019"}, dc.Date)
	assert.Equal(t, []string{"Health", "covid"}, dc.Subject)
	assert.Equal(t, []string{"S1", "doi:10.1/x"}, dc.Identifier)
	assert.NotNil(t, dc.Description)
}

func TestListJournals(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/journal/identifiers/", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"objects":[{"code":"0034-8910"},{"code":"1413-8123"}]}`))
	}))
	defer ts.Close()

	journals, err := NewArticles(newFetcher(ts), ts.URL, nil).ListJournals(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []Journal{{Code: "0034-8910", ISSN: "0034-8910"}, {Code: "1413-8123", ISSN: "1413-8123"}}, journals)
}
