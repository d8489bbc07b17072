package models

import (
	"strings"
	"time"
)

// User repräsentiert einen registrierten Benutzer. Die ID ist ein
// opaker, kleingeschriebener String und der Primärschlüssel.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	Papers              []Paper              `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ResultsAbstSummary  []ResultAbstSummary  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ResultsPaperSummary []ResultPaperSummary `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName gibt explizit den Tabellennamen an.
func (User) TableName() string {
	return "users"
}

// NormalizeUserID normalisiert eine Benutzer-ID für Speicherung und Lookup.
func NormalizeUserID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Format projiziert den User auf seine API-Darstellung (ohne Relationen).
func (u *User) Format() map[string]any {
	return map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"created_at": u.CreatedAt,
	}
}
