package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-shelf/config"
	"paper-shelf/models"
	"paper-shelf/providers"
)

// ErrNotFound meldet, dass der Besitzer, die Entität oder das Upstream-
// Ergebnis nicht existiert (404).
var ErrNotFound = errors.New("resource not found")

// ErrProcessing sammelt alle übrigen Fehlschläge einer Anreicherungs-
// Operation (422). Die ursprüngliche Ursache wird vor dem Kollabieren
// geloggt.
var ErrProcessing = errors.New("processing failed")

// EnrichmentService orchestriert die Adapter und die Persistenz zu den
// benannten Anreicherungs-Operationen. Alle Operationen sind synchron,
// single-pass und ohne Retry; ein Fehlschlag muss vom Aufrufer neu
// angestoßen werden.
type EnrichmentService struct {
	Config     *config.Config
	Store      *models.Store
	Logger     *zap.Logger
	Bib        providers.Bibliographic
	Translator providers.Translator
	Summarizer providers.Summarizer
}

// NewEnrichmentService erstellt eine neue Instanz des EnrichmentService.
func NewEnrichmentService(
	cfg *config.Config,
	store *models.Store,
	logger *zap.Logger,
	bib providers.Bibliographic,
	translator providers.Translator,
	summarizer providers.Summarizer,
) *EnrichmentService {
	return &EnrichmentService{
		Config:     cfg,
		Store:      store,
		Logger:     logger,
		Bib:        bib,
		Translator: translator,
		Summarizer: summarizer,
	}
}

// AttachPaper registriert ein Paper für den Benutzer anhand seiner PMID:
// Metadaten und Abstract werden vom bibliografischen Dienst geholt und als
// neues Paper persistiert.
func (e *EnrichmentService) AttachPaper(ctx context.Context, userID, pmid string) (*models.Paper, error) {
	log := e.Logger.With(zap.String("user_id", userID), zap.String("pmid", pmid))

	exists, err := e.Store.UserExists(userID)
	if err != nil {
		log.Error("Benutzer-Lookup fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("attach paper: %w", ErrProcessing)
	}
	if !exists {
		return nil, ErrNotFound
	}

	meta, err := e.Bib.FetchMetadata(ctx, pmid)
	if err != nil {
		if errors.Is(err, providers.ErrUnavailable) {
			return nil, ErrNotFound
		}
		log.Error("Metadaten-Abruf fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("attach paper: %w", ErrProcessing)
	}

	abstract, err := e.Bib.FetchAbstract(ctx, pmid)
	if err != nil {
		if errors.Is(err, providers.ErrUnavailable) {
			return nil, ErrNotFound
		}
		log.Error("Abstract-Abruf fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("attach paper: %w", ErrProcessing)
	}

	paper := &models.Paper{
		UserID:          userID,
		PMID:            meta.PMID,
		Title:           meta.Title,
		LastAuthor:      meta.LastAuthor,
		PublicationDate: parsePubDate(meta.PubDate),
		URL:             meta.URL,
		Abstract:        abstract,
	}
	if err := e.Store.CreatePaper(paper); err != nil {
		log.Error("Paper konnte nicht gespeichert werden", zap.Error(err))
		return nil, fmt.Errorf("attach paper: %w", ErrProcessing)
	}

	log.Info("Paper erfolgreich registriert", zap.Uint("paper_id", paper.ID))
	return paper, nil
}

// SummarizeSearchResults sucht Abstracts zu den Suchwörtern, fasst jeden
// einzeln zusammen und persistiert genau einen Historien-Eintrag für den
// Benutzer. Gespeichert wird die letzte Zusammenfassung der Sequenz; die
// Summaries selbst entstehen fix auf Englisch, das Ergebnis trägt die vom
// Aufrufer angefragte Sprache.
func (e *EnrichmentService) SummarizeSearchResults(ctx context.Context, userID string, words []string, language string) (*models.ResultAbstSummary, error) {
	log := e.Logger.With(zap.String("user_id", userID), zap.Strings("words", words))

	exists, err := e.Store.UserExists(userID)
	if err != nil {
		log.Error("Benutzer-Lookup fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("summarize search: %w", ErrProcessing)
	}
	if !exists {
		return nil, ErrNotFound
	}

	abstracts, err := e.Bib.SearchAbstracts(ctx, words, providers.SearchOptions{
		MaxResults: e.Config.SearchRetMax,
	})
	if err != nil {
		log.Error("Abstract-Suche fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("summarize search: %w", ErrProcessing)
	}
	if len(abstracts) == 0 {
		return nil, ErrNotFound
	}

	var lastSummary string
	for i, abstract := range abstracts {
		summary, err := e.Summarizer.Summarize(ctx, providers.AbstractSummary, providers.SummaryVars{
			Language: "English",
			Abstract: abstract,
		})
		if err != nil {
			log.Error("Zusammenfassung fehlgeschlagen", zap.Int("index", i), zap.Error(err))
			return nil, fmt.Errorf("summarize search: %w", ErrProcessing)
		}
		lastSummary = summary
		log.Info("Abstract zusammengefasst", zap.Int("n", i+1), zap.Int("total", len(abstracts)))
	}

	result := &models.ResultAbstSummary{
		UserID:      userID,
		AbstSummary: lastSummary,
		Language:    language,
	}
	if err := e.Store.CreateResultAbstSummary(result); err != nil {
		log.Error("Summary-Ergebnis konnte nicht gespeichert werden", zap.Error(err))
		return nil, fmt.Errorf("summarize search: %w", ErrProcessing)
	}
	return result, nil
}

// TranslateAbstract übersetzt den Abstract eines Papers in die Zielsprache
// und hängt das Ergebnis an dessen Übersetzungs-Historie an.
func (e *EnrichmentService) TranslateAbstract(ctx context.Context, paperID uint, language string) (*models.ResultAbstTranslation, error) {
	log := e.Logger.With(zap.Uint("paper_id", paperID), zap.String("language", language))

	paper, err := e.Store.GetPaper(paperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Error("Paper-Lookup fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("translate abstract: %w", ErrProcessing)
	}

	translated, err := e.Translator.Translate(ctx, paper.Abstract, language)
	if err != nil {
		log.Error("Übersetzung fehlgeschlagen", zap.Error(err))
		return nil, fmt.Errorf("translate abstract: %w", ErrProcessing)
	}

	result := &models.ResultAbstTranslation{
		PaperID:            paper.ID,
		TranslatedAbstract: translated,
		Language:           language,
	}
	if err := e.Store.CreateResultAbstTranslation(result); err != nil {
		log.Error("Übersetzungs-Ergebnis konnte nicht gespeichert werden", zap.Error(err))
		return nil, fmt.Errorf("translate abstract: %w", ErrProcessing)
	}
	return result, nil
}

// pubDateLayouts sind die bekannten Datumsformate des ESummary-Feldes.
var pubDateLayouts = []string{"2006-01-02", "2006 Jan 2", "2006 Jan", "2006"}

// parsePubDate parst das freie Publikationsdatum des Anbieters. Bei einem
// unbekannten Format bleibt das Feld leer, die Registrierung schlägt
// deswegen nicht fehl.
func parsePubDate(raw string) *time.Time {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
