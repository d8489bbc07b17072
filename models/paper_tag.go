package models

import "time"

// PaperTag ist ein Freitext-Label an einem Paper. Mehrere Tags pro Paper
// sind erlaubt, Duplikate werden nicht verhindert.
type PaperTag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PaperID   uint      `json:"paper_id" gorm:"index;not null"`
	Tag       string    `json:"tag" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (PaperTag) TableName() string {
	return "paper_tags"
}

// Format projiziert den Tag auf seine API-Darstellung.
func (t *PaperTag) Format() map[string]any {
	return map[string]any{
		"id":         t.ID,
		"paper_id":   t.PaperID,
		"tag":        t.Tag,
		"created_at": t.CreatedAt,
	}
}
