package models

import "time"

// ResultAbstTranslation ist ein Eintrag der Übersetzungs-Historie eines
// Papers. Einträge werden nur angelegt oder gelöscht, nie verändert.
type ResultAbstTranslation struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	PaperID            uint      `json:"paper_id" gorm:"index;not null"`
	TranslatedAbstract string    `json:"translated_abstract" gorm:"type:text;not null"`
	Language           string    `json:"language" gorm:"not null"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (ResultAbstTranslation) TableName() string {
	return "results_abst_translation"
}

// Format projiziert das Ergebnis auf seine API-Darstellung.
func (r *ResultAbstTranslation) Format() map[string]any {
	return map[string]any{
		"id":                  r.ID,
		"paper_id":            r.PaperID,
		"translated_abstract": r.TranslatedAbstract,
		"language":            r.Language,
		"created_at":          r.CreatedAt,
	}
}
