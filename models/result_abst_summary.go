package models

import "time"

// ResultAbstSummary ist ein Eintrag der Historie von Literatursuche-
// Zusammenfassungen eines Benutzers. Append-only.
type ResultAbstSummary struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;not null"`
	AbstSummary string    `json:"abst_summary" gorm:"type:text;not null"`
	Language    string    `json:"language" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (ResultAbstSummary) TableName() string {
	return "results_abst_summary"
}

// Format projiziert das Ergebnis auf seine API-Darstellung.
func (r *ResultAbstSummary) Format() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"abst_summary": r.AbstSummary,
		"language":     r.Language,
		"created_at":   r.CreatedAt,
	}
}
