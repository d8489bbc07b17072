// Package providers definiert die Schnittstellen zu den externen Diensten
// (Bibliografie-Lookup, Übersetzung, Zusammenfassung) sowie deren
// gemeinsames Fehlerbild.
package providers

import (
	"context"
	"errors"
)

// ErrUnavailable meldet, dass ein externer Aufruf keine verwertbaren Daten
// geliefert hat (Transportfehler, kaputte Antwort oder fehlender Datensatz).
// Adapter geben diesen Fehler zurück statt Ursachen nach außen zu werfen.
var ErrUnavailable = errors.New("upstream unavailable")

// Metadata sind die bibliografischen Kerndaten eines Papers.
// PubDate bleibt der rohe Datumsstring des Anbieters.
type Metadata struct {
	PMID       string
	Title      string
	LastAuthor string
	PubDate    string
	URL        string
}

// Bibliographic ist der Adapter für den bibliografischen Dienst.
type Bibliographic interface {
	// FetchMetadata holt Titel, letzten Autor und Publikationsdatum zu einer PMID.
	FetchMetadata(ctx context.Context, pmid string) (*Metadata, error)

	// FetchAbstract holt den Abstract-Text zu einer PMID.
	FetchAbstract(ctx context.Context, pmid string) (string, error)

	// SearchAbstracts sucht PMIDs zu den Suchwörtern und holt deren Abstracts
	// sequenziell. Fehlgeschlagene Einzelabrufe werden übersprungen; eine
	// fehlgeschlagene ID-Suche ergibt eine leere Liste, keinen Fehler.
	SearchAbstracts(ctx context.Context, words []string, opts SearchOptions) ([]string, error)
}

// SearchOptions begrenzen eine Wortsuche.
type SearchOptions struct {
	MaxResults int
	// Optionale Jahresgrenzen (einschließlich), 0 = unbegrenzt.
	YearFrom int
	YearTo   int
}

// Translator ist der Adapter für den Übersetzungsdienst.
type Translator interface {
	// Translate übersetzt text in die über ihren Namen angegebene Zielsprache.
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// SummaryModule ist der geschlossene Satz von Summarizer-Bausteinen. Jedes
// Modul ist zur Konstruktionszeit an sein Prompt-Template gebunden, eine
// unbekannte Modul-Kennung ist damit ein Konstruktionsfehler, kein
// Laufzeitfehler.
type SummaryModule int

const (
	// AbstractSummary fasst einen einzelnen Abstract zusammen.
	AbstractSummary SummaryModule = iota
	// AbstractSummaryFinal verdichtet eine Liste bereits
	// zusammengefasster Abstracts zu einem Gesamtergebnis.
	AbstractSummaryFinal
)

// SummaryVars sind die Variablen eines Summarize-Aufrufs.
type SummaryVars struct {
	Language     string
	Abstract     string
	AbstractList string
}

// Summarizer ist der Adapter für das Sprachmodell.
type Summarizer interface {
	// Summarize ruft das Modul mit den Variablen auf und liefert den
	// extrahierten Summary-Text.
	Summarize(ctx context.Context, module SummaryModule, vars SummaryVars) (string, error)
}
