package models

import "time"

// ResultPaperSummary ist ein Eintrag der Historie von Gesamt-Paper-
// Zusammenfassungen eines Benutzers. Append-only.
type ResultPaperSummary struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	PaperSummary string    `json:"paper_summary" gorm:"type:text;not null"`
	Length       string    `json:"length" gorm:"not null"`
	Language     string    `json:"language" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (ResultPaperSummary) TableName() string {
	return "results_paper_summary"
}

// Format projiziert das Ergebnis auf seine API-Darstellung.
func (r *ResultPaperSummary) Format() map[string]any {
	return map[string]any{
		"id":            r.ID,
		"paper_summary": r.PaperSummary,
		"length":        r.Length,
		"language":      r.Language,
		"created_at":    r.CreatedAt,
	}
}
