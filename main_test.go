package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paper-shelf/config"
	"paper-shelf/models"
	"paper-shelf/providers"
	"paper-shelf/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBib liefert feste Antworten für die HTTP-Tests.
type fakeBib struct {
	meta      *providers.Metadata
	abstract  string
	abstracts []string
	err       error
}

func (f *fakeBib) FetchMetadata(ctx context.Context, pmid string) (*providers.Metadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.meta, nil
}

func (f *fakeBib) FetchAbstract(ctx context.Context, pmid string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.abstract, nil
}

func (f *fakeBib) SearchAbstracts(ctx context.Context, words []string, opts providers.SearchOptions) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.abstracts, nil
}

type fakeTranslator struct {
	result string
	err    error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, module providers.SummaryModule, vars providers.SummaryVars) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type testEnv struct {
	store  *models.Store
	bib    *fakeBib
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Paper{}, &models.PaperTag{},
		&models.ResultAbstTranslation{}, &models.ResultAbstSummary{}, &models.ResultPaperSummary{},
	))

	store := models.NewStore(db)
	bib := &fakeBib{
		meta: &providers.Metadata{
			PMID:       "12345",
			Title:      "A Landmark Study",
			LastAuthor: "Doe J",
			PubDate:    "2022-01-01",
			URL:        "https://pubmed.ncbi.nlm.nih.gov/12345",
		},
		abstract:  "The abstract text.",
		abstracts: []string{"The abstract text."},
	}
	cfg := &config.Config{SearchRetMax: 5}
	enrich := services.NewEnrichmentService(cfg, store, zap.NewNop(),
		bib, &fakeTranslator{result: "translated"}, &fakeSummarizer{summary: "summarized"})

	return &testEnv{
		store:  store,
		bib:    bib,
		router: newRouter(store, enrich, zap.NewNop()),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func (e *testEnv) seedUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.store.CreateUser(&models.User{ID: id, Name: "Alice", Email: "a@example.org"}))
}

func (e *testEnv) seedPaper(t *testing.T, userID string) *models.Paper {
	t.Helper()
	paper := &models.Paper{UserID: userID, PMID: "12345", Title: "A Landmark Study", Abstract: "The abstract text."}
	require.NoError(t, e.store.CreatePaper(paper))
	return paper
}

func TestRegisterUser(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/users",
		`{"user_id": "Alice", "name": "Alice", "email": "a@example.org"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["id"])
	assert.Equal(t, "Alice", user["name"])
	assert.NotEmpty(t, user["created_at"])
}

func TestRegisterUser_MissingField(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/users", `{"user_id": "alice", "name": "Alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(http.StatusBadRequest), body["error"])
}

func TestRegisterUser_DuplicateID(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")

	w, _ := env.do(t, http.MethodPost, "/api/users",
		`{"user_id": "ALICE", "name": "Other", "email": "o@example.org"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachPaper_AcceptsNumericAndStringPMID(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")

	w, body := env.do(t, http.MethodPost, "/api/users/alice/papers", `{"pmid": 12345}`)
	require.Equal(t, http.StatusOK, w.Code)
	paper := body["paper"].(map[string]any)
	assert.Equal(t, "A Landmark Study", paper["title"])

	w, _ = env.do(t, http.MethodPost, "/api/users/alice/papers", `{"pmid": "12345"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAttachPaper_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/users/ghost/papers", `{"pmid": "12345"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttachPaper_UpstreamMiss(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.bib.err = providers.ErrUnavailable

	w, _ := env.do(t, http.MethodPost, "/api/users/alice/papers", `{"pmid": "0"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPaper_IncludesEmptyTagList(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	paper := env.seedPaper(t, "alice")

	w, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/papers/%d", paper.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	got := body["paper"].(map[string]any)
	assert.Equal(t, "A Landmark Study", got["title"])
	tags, ok := got["tag"].([]any)
	require.True(t, ok)
	assert.Empty(t, tags)
}

func TestGetPaper_NonNumericID(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/papers/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchTags_AppendsRows(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	paper := env.seedPaper(t, "alice")

	w, body := env.do(t, http.MethodPatch, fmt.Sprintf("/api/papers/%d/tags", paper.ID),
		`{"tags": ["cancer", "cancer"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	got := body["paper"].(map[string]any)
	tags := got["tag"].([]any)
	require.Len(t, tags, 2)
	first := tags[0].(map[string]any)
	assert.Equal(t, "cancer", first["tag"])

	stored, err := env.store.TagsByPaper(paper.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestDeletePaper(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	paper := env.seedPaper(t, "alice")

	w, body := env.do(t, http.MethodDelete, fmt.Sprintf("/api/papers/%d", paper.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	deleted := body["deleted_paper"].(map[string]any)
	assert.Equal(t, "A Landmark Study", deleted["title"])

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/papers/%d", paper.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPapers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.seedPaper(t, "alice")
	env.seedPaper(t, "alice")

	w, body := env.do(t, http.MethodGet, "/api/users/alice/papers", "")
	require.Equal(t, http.StatusOK, w.Code)

	papers := body["papers"].([]any)
	assert.Len(t, papers, 2)
}

func TestTranslateAbstract(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	paper := env.seedPaper(t, "alice")

	w, body := env.do(t, http.MethodPost,
		fmt.Sprintf("/api/papers/%d/results-abst-translation", paper.ID),
		`{"language": "Japanese"}`)
	require.Equal(t, http.StatusOK, w.Code)

	result := body["result_abst_translation"].(map[string]any)
	assert.Equal(t, "translated", result["translated_abstract"])
	assert.Equal(t, "Japanese", result["language"])
}

func TestTranslateAbstract_MissingLanguage(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	paper := env.seedPaper(t, "alice")

	w, _ := env.do(t, http.MethodPost,
		fmt.Sprintf("/api/papers/%d/results-abst-translation", paper.ID), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummarizeSearchResults(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")

	w, body := env.do(t, http.MethodPost, "/api/users/alice/results-abst-summary",
		`{"search_words": ["cancer"], "language": "Japanese"}`)
	require.Equal(t, http.StatusOK, w.Code)

	result := body["result_abst_summary"].(map[string]any)
	assert.Equal(t, "summarized", result["abst_summary"])
	assert.Equal(t, "Japanese", result["language"])

	w, body = env.do(t, http.MethodGet, "/api/users/alice/results-abst-summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["results_abst_summary"].([]any), 1)
}

func TestSummarizeSearchResults_NoHits(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	env.bib.abstracts = []string{}

	w, _ := env.do(t, http.MethodPost, "/api/users/alice/results-abst-summary",
		`{"search_words": ["obscure"], "language": "English"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteResultAbstSummary(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice")
	require.NoError(t, env.store.CreateResultAbstSummary(&models.ResultAbstSummary{
		UserID: "alice", AbstSummary: "s", Language: "English",
	}))

	w, body := env.do(t, http.MethodDelete, "/api/results-abst-summary/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["results_abst_summary_id"])

	w, _ = env.do(t, http.MethodDelete, "/api/results-abst-summary/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteResultPaperSummary_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodDelete, "/api/results-paper-summary/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
