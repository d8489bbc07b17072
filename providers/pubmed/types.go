// Package pubmed enthält die Logik für die Interaktion mit der
// PubMed-E-Utilities-API (ESearch, ESummary, EFetch).
package pubmed

import (
	"encoding/json"
	"encoding/xml"
)

// ESearchResponse repräsentiert die JSON-Antwort von ESearch für die ID-Suche.
type ESearchResponse struct {
	ESearchResult struct {
		IdList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// ESummaryResponse repräsentiert die JSON-Antwort von ESummary. Die
// Dokumente liegen unter result, verschlüsselt nach ihrer UID.
type ESummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// DocSummary ist ein einzelnes Dokument aus der ESummary-Antwort.
type DocSummary struct {
	Title      string `json:"title"`
	LastAuthor string `json:"lastauthor"`
	PubDate    string `json:"pubdate"`
}

// PubmedArticleSet repräsentiert das gesamte XML-Dokument von EFetch.
type PubmedArticleSet struct {
	XMLName       xml.Name        `xml:"PubmedArticleSet"`
	PubmedArticle []PubmedArticle `xml:"PubmedArticle"`
}

// PubmedArticle repräsentiert einen einzelnen Artikel in der XML-Antwort.
type PubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Text []string `xml:"AbstractText"`
			} `xml:"Abstract"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}
