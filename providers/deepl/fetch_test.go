package deepl

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
)

func TestTranslate(t *testing.T) {
	var gotAuth, gotText, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotAuth = r.Header.Get("Authorization")
		gotText = r.PostForm.Get("text")
		gotLang = r.PostForm.Get("target_lang")
		fmt.Fprint(w, `{"translations": [{"text": "翻訳されたテキスト"}]}`)
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{DeepLBaseURL: srv.URL, DeepLAPIKey: "secret"}, zap.NewNop())
	translated, err := f.Translate(context.Background(), "some abstract", "Japanese")
	require.NoError(t, err)

	assert.Equal(t, "翻訳されたテキスト", translated)
	assert.Equal(t, "DeepL-Auth-Key secret", gotAuth)
	assert.Equal(t, "some abstract", gotText)
	assert.Equal(t, "JA", gotLang)
}

func TestTranslate_UnsupportedLanguage(t *testing.T) {
	f := NewFetcher(&config.Config{DeepLBaseURL: "http://unreachable.invalid"}, zap.NewNop())

	_, err := f.Translate(context.Background(), "text", "Klingon")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestTranslate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{DeepLBaseURL: srv.URL, DeepLAPIKey: "bad"}, zap.NewNop())
	_, err := f.Translate(context.Background(), "text", "English")
	assert.Error(t, err)
}

func TestTranslate_EmptyTranslationList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"translations": []}`)
	}))
	defer srv.Close()

	f := NewFetcher(&config.Config{DeepLBaseURL: srv.URL, DeepLAPIKey: "k"}, zap.NewNop())
	_, err := f.Translate(context.Background(), "text", "Chinese")
	assert.Error(t, err)
}
