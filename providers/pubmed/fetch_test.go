package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper-shelf/config"
	"paper-shelf/providers"
)

const esummaryBody = `{
	"result": {
		"uids": ["12345"],
		"12345": {
			"title": "A Landmark Study",
			"lastauthor": "Doe J",
			"pubdate": "2022 Jan 2"
		}
	}
}`

const efetchBody = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <Abstract>
          <AbstractText>The abstract text.</AbstractText>
          <AbstractText>A second section.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

// newEutilsServer simuliert die drei verwendeten E-Utilities-Endpunkte.
func newEutilsServer(t *testing.T, idlist []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/esummary.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, esummaryBody)
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, efetchBody)
	})
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"idlist": [`)
		for i, id := range idlist {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%q", id)
		}
		fmt.Fprint(w, `]}}`)
	})
	return httptest.NewServer(mux)
}

func newTestFetcher(baseURL string) *Fetcher {
	return NewFetcher(&config.Config{PubMedBaseURL: baseURL, SearchRetMax: 5}, zap.NewNop())
}

func TestFetchMetadata(t *testing.T) {
	srv := newEutilsServer(t, nil)
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	meta, err := f.FetchMetadata(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "12345", meta.PMID)
	assert.Equal(t, "A Landmark Study", meta.Title)
	assert.Equal(t, "Doe J", meta.LastAuthor)
	assert.Equal(t, "2022 Jan 2", meta.PubDate)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345", meta.URL)
}

func TestFetchMetadata_MissingPMID(t *testing.T) {
	srv := newEutilsServer(t, nil)
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	_, err := f.FetchMetadata(context.Background(), "99999")
	assert.ErrorIs(t, err, providers.ErrUnavailable)
}

func TestFetchAbstract_UsesFirstSection(t *testing.T) {
	srv := newEutilsServer(t, nil)
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	abstract, err := f.FetchAbstract(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "The abstract text.", abstract)
}

func TestFetchAbstract_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	_, err := f.FetchAbstract(context.Background(), "12345")
	assert.ErrorIs(t, err, providers.ErrUnavailable)
}

func TestSearchIDs_InvalidYearRange(t *testing.T) {
	f := newTestFetcher("http://unreachable.invalid")

	_, err := f.SearchIDs(context.Background(), []string{"cancer"}, providers.SearchOptions{
		YearFrom: 2024,
		YearTo:   2020,
	})
	// Eingabefehler schlägt fehl, bevor der Anbieter kontaktiert wird.
	assert.ErrorIs(t, err, ErrYearRange)
}

func TestSearchAbstracts(t *testing.T) {
	srv := newEutilsServer(t, []string{"12345", "67890"})
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	abstracts, err := f.SearchAbstracts(context.Background(), []string{"cancer", "curcumin"}, providers.SearchOptions{MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, abstracts, 2)
	assert.Equal(t, "The abstract text.", abstracts[0])
}

func TestSearchAbstracts_SearchFailureYieldsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	abstracts, err := f.SearchAbstracts(context.Background(), []string{"cancer"}, providers.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, abstracts)
}

func TestSearchAbstracts_SkipsFailingFetches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"idlist": ["11111", "12345"]}}`)
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "11111" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, efetchBody)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	abstracts, err := f.SearchAbstracts(context.Background(), []string{"cancer"}, providers.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, abstracts, 1)
	assert.Equal(t, "The abstract text.", abstracts[0])
}
