package models

import "time"

// Paper repräsentiert eine über ihre PMID registrierte Studie samt Abstract.
type Paper struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"index;not null"`
	PMID            string     `json:"pmid" gorm:"column:pmid;not null"`
	Title           string     `json:"title" gorm:"not null"`
	LastAuthor      string     `json:"last_author"`
	PublicationDate *time.Time `json:"publication_date"`
	URL             string     `json:"url"`
	Abstract        string     `json:"abstract" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at"`

	Tags                   []PaperTag              `json:"-" gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE"`
	ResultsAbstTranslation []ResultAbstTranslation `json:"-" gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}

// Format projiziert das Paper auf seine API-Darstellung. Tags und Ergebnisse
// hängt der Aufrufer bei Bedarf selbst an.
func (p *Paper) Format() map[string]any {
	var pubDate any
	if p.PublicationDate != nil {
		pubDate = p.PublicationDate.Format("2006-01-02")
	}
	return map[string]any{
		"id":               p.ID,
		"title":            p.Title,
		"last_author":      p.LastAuthor,
		"publication_date": pubDate,
		"url":              p.URL,
		"abstract":         p.Abstract,
		"created_at":       p.CreatedAt,
	}
}
