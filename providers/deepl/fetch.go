// Package deepl kapselt die Logik für die DeepL-Übersetzungs-API.
package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-shelf/config"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// ErrUnsupportedLanguage meldet einen Sprachnamen ohne Eintrag in der
// Code-Tabelle.
var ErrUnsupportedLanguage = errors.New("deepl: unsupported target language")

// languageCodes bildet menschenlesbare Sprachnamen auf DeepL-Zielcodes ab.
var languageCodes = map[string]string{
	"English":  "EN",
	"Japanese": "JA",
	"Chinese":  "ZH",
}

// Response repräsentiert die JSON-Antwort der DeepL-API.
type Response struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Fetcher kapselt die Logik für DeepL.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen DeepL-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Translate übersetzt text in die Zielsprache. Der Sprachname muss in der
// Code-Tabelle stehen; Anbieterfehler werden unverändert weitergereicht,
// es gibt keinen lokalen Fallback.
func (f *Fetcher) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	code, ok := languageCodes[targetLanguage]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, targetLanguage)
	}

	log := f.Logger.With(zap.String("target_lang", code))
	log.Debug("Rufe DeepL API auf.")

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", code)

	endpoint := fmt.Sprintf("%s/translate", f.Config.DeepLBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+f.Config.DeepLAPIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepl request failed with status: %d", resp.StatusCode)
	}

	var dr Response
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return "", err
	}
	if len(dr.Translations) == 0 {
		return "", fmt.Errorf("deepl response contains no translations")
	}

	log.Debug("Übersetzung erfolgreich erhalten.")
	return dr.Translations[0].Text, nil
}
