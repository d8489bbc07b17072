package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"paper-shelf/config"
	"paper-shelf/providers"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// ErrYearRange meldet eine ungültige Jahresspanne (yearFrom > yearTo).
// Im Gegensatz zu providers.ErrUnavailable ist das ein Eingabefehler.
var ErrYearRange = errors.New("pubmed: yearFrom must not exceed yearTo")

// Fetcher kapselt die Interaktion mit den E-Utilities. NCBI erlaubt ohne
// API-Key nur 3 Anfragen pro Sekunde, der Limiter hält das ein.
type Fetcher struct {
	Config  *config.Config
	Logger  *zap.Logger
	limiter *rate.Limiter
}

// NewFetcher erstellt eine neue Instanz des PubMed-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config:  cfg,
		Logger:  logger,
		limiter: rate.NewLimiter(rate.Every(time.Second/3), 3),
	}
}

// FetchMetadata holt Titel, letzten Autor und Publikationsdatum via ESummary.
func (f *Fetcher) FetchMetadata(ctx context.Context, pmid string) (*providers.Metadata, error) {
	log := f.Logger.With(zap.String("pmid", pmid))

	summaryURL := fmt.Sprintf("%s/esummary.fcgi?db=pubmed&id=%s&retmode=json",
		f.Config.PubMedBaseURL, url.QueryEscape(pmid))
	body, err := f.get(ctx, f.withAPIKey(summaryURL))
	if err != nil {
		log.Warn("ESummary-Anfrage fehlgeschlagen", zap.Error(err))
		return nil, providers.ErrUnavailable
	}

	var envelope ESummaryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Warn("Fehler beim Parsen der ESummary-JSON-Antwort", zap.Error(err))
		return nil, providers.ErrUnavailable
	}

	raw, ok := envelope.Result[pmid]
	if !ok {
		log.Warn("ESummary-Antwort enthält keinen Eintrag für die PMID")
		return nil, providers.ErrUnavailable
	}
	var doc DocSummary
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn("Fehler beim Parsen des ESummary-Dokuments", zap.Error(err))
		return nil, providers.ErrUnavailable
	}

	log.Debug("Metadaten erfolgreich geholt", zap.String("title", doc.Title))
	return &providers.Metadata{
		PMID:       pmid,
		Title:      doc.Title,
		LastAuthor: doc.LastAuthor,
		PubDate:    doc.PubDate,
		URL:        fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s", pmid),
	}, nil
}

// FetchAbstract holt den Volltext-Record via EFetch und extrahiert den
// ersten AbstractText-Knoten.
func (f *Fetcher) FetchAbstract(ctx context.Context, pmid string) (string, error) {
	log := f.Logger.With(zap.String("pmid", pmid))

	efetchURL := fmt.Sprintf("%s/efetch.fcgi?db=pubmed&id=%s&retmode=xml",
		f.Config.PubMedBaseURL, url.QueryEscape(pmid))
	body, err := f.get(ctx, f.withAPIKey(efetchURL))
	if err != nil {
		log.Warn("EFetch-Anfrage fehlgeschlagen", zap.Error(err))
		return "", providers.ErrUnavailable
	}

	var articleSet PubmedArticleSet
	if err := xml.Unmarshal(body, &articleSet); err != nil {
		log.Warn("Fehler beim Parsen der EFetch-XML-Antwort", zap.Error(err))
		return "", providers.ErrUnavailable
	}

	if len(articleSet.PubmedArticle) == 0 {
		log.Warn("Kein PubmedArticle in EFetch-Antwort gefunden")
		return "", providers.ErrUnavailable
	}
	texts := articleSet.PubmedArticle[0].MedlineCitation.Article.Abstract.Text
	if len(texts) == 0 || texts[0] == "" {
		log.Warn("Kein AbstractText in EFetch-Antwort gefunden")
		return "", providers.ErrUnavailable
	}
	return texts[0], nil
}

// SearchIDs führt eine ESearch-Abfrage über die Suchwörter aus und gibt bis
// zu opts.MaxResults PMIDs in der Relevanz-Reihenfolge des Anbieters zurück.
func (f *Fetcher) SearchIDs(ctx context.Context, words []string, opts providers.SearchOptions) ([]string, error) {
	log := f.Logger.With(zap.Strings("words", words))

	if opts.YearFrom != 0 && opts.YearTo != 0 && opts.YearFrom > opts.YearTo {
		return nil, ErrYearRange
	}
	retmax := opts.MaxResults
	if retmax <= 0 {
		retmax = f.Config.SearchRetMax
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", strings.Join(words, ","))
	params.Set("datatype", "pdat")
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(retmax))
	if opts.YearFrom != 0 {
		params.Set("mindate", strconv.Itoa(opts.YearFrom))
	}
	if opts.YearTo != 0 {
		params.Set("maxdate", strconv.Itoa(opts.YearTo))
	}
	if f.Config.PubMedAPIKey != "" {
		params.Set("api_key", f.Config.PubMedAPIKey)
	}

	searchURL := fmt.Sprintf("%s/esearch.fcgi?%s", f.Config.PubMedBaseURL, params.Encode())
	body, err := f.get(ctx, searchURL)
	if err != nil {
		log.Warn("ESearch-Anfrage fehlgeschlagen", zap.Error(err))
		return nil, providers.ErrUnavailable
	}

	var esearchResp ESearchResponse
	if err := json.Unmarshal(body, &esearchResp); err != nil {
		log.Warn("Fehler beim Parsen der ESearch-JSON-Antwort", zap.Error(err))
		return nil, providers.ErrUnavailable
	}

	ids := esearchResp.ESearchResult.IdList
	log.Info("ESearch abgeschlossen", zap.Int("ids", len(ids)))
	return ids, nil
}

// SearchAbstracts komponiert SearchIDs und FetchAbstract. Einzelne
// fehlgeschlagene Abstract-Abrufe werden übersprungen; schlägt die ID-Suche
// selbst fehl, ist das Ergebnis eine leere Liste und kein Fehler.
func (f *Fetcher) SearchAbstracts(ctx context.Context, words []string, opts providers.SearchOptions) ([]string, error) {
	ids, err := f.SearchIDs(ctx, words, opts)
	if err != nil {
		if errors.Is(err, ErrYearRange) {
			return nil, err
		}
		f.Logger.Warn("ID-Suche nicht verfügbar, liefere leere Abstract-Liste", zap.Error(err))
		return []string{}, nil
	}

	abstracts := make([]string, 0, len(ids))
	for _, pmid := range ids {
		abstract, err := f.FetchAbstract(ctx, pmid)
		if err != nil {
			f.Logger.Warn("Abstract übersprungen", zap.String("pmid", pmid), zap.Error(err))
			continue
		}
		abstracts = append(abstracts, abstract)
	}
	return abstracts, nil
}

func (f *Fetcher) withAPIKey(u string) string {
	if f.Config.PubMedAPIKey != "" {
		return u + "&api_key=" + url.QueryEscape(f.Config.PubMedAPIKey)
	}
	return u
}

// get führt eine limitierte GET-Anfrage aus und liest den Body.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eutils request failed: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
