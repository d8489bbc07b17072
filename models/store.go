package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrOwnerNotFound wird zurückgegeben, wenn beim Anlegen einer Kind-Entität
// der referenzierte Besitzer nicht existiert.
var ErrOwnerNotFound = errors.New("owner not found")

// ErrDuplicateUser wird zurückgegeben, wenn eine Benutzer-ID (case-insensitiv)
// bereits vergeben ist.
var ErrDuplicateUser = errors.New("user id already taken")

// Store kapselt alle Persistenz-Operationen. Jedes Create/Delete läuft in
// einer eigenen Transaktion; Integer-IDs vergibt die Datenbank.
type Store struct {
	db *gorm.DB
}

// NewStore erstellt einen Store über der gegebenen Datenbank.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB gibt die zugrunde liegende Verbindung zurück (für Migration und Cron-Jobs).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateUser legt einen Benutzer an. Die ID wird vor der Speicherung
// kleingeschrieben, Eindeutigkeit ist dadurch case-insensitiv.
func (s *Store) CreateUser(user *User) error {
	user.ID = NormalizeUserID(user.ID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUser
		}
		return tx.Create(user).Error
	})
}

// GetUser holt einen Benutzer über seine (normalisierte) ID.
func (s *Store) GetUser(id string) (*User, error) {
	var user User
	if err := s.db.First(&user, "id = ?", NormalizeUserID(id)).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists prüft, ob ein Benutzer existiert, ohne ihn zu laden.
func (s *Store) UserExists(id string) (bool, error) {
	var count int64
	err := s.db.Model(&User{}).Where("id = ?", NormalizeUserID(id)).Count(&count).Error
	return count > 0, err
}

// DeleteUser löscht einen Benutzer samt aller Papers (inklusive deren Tags
// und Übersetzungen) und Ergebnis-Historien.
func (s *Store) DeleteUser(user *User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var papers []Paper
		if err := tx.Where("user_id = ?", user.ID).Find(&papers).Error; err != nil {
			return err
		}
		for i := range papers {
			if err := deletePaperTx(tx, &papers[i]); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&ResultAbstSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&ResultPaperSummary{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}

// CreatePaper legt ein Paper an; der Besitzer muss existieren.
func (s *Store) CreatePaper(paper *Paper) error {
	paper.UserID = NormalizeUserID(paper.UserID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id = ?", paper.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOwnerNotFound
		}
		return tx.Create(paper).Error
	})
}

// GetPaper holt ein Paper samt seiner Tags.
func (s *Store) GetPaper(id uint) (*Paper, error) {
	var paper Paper
	if err := s.db.Preload("Tags").First(&paper, id).Error; err != nil {
		return nil, err
	}
	return &paper, nil
}

// PapersByUser listet alle Papers eines Benutzers aufsteigend nach ID.
func (s *Store) PapersByUser(userID string) ([]Paper, error) {
	var papers []Paper
	err := s.db.Preload("Tags").
		Where("user_id = ?", NormalizeUserID(userID)).
		Order("id asc").
		Find(&papers).Error
	return papers, err
}

// DeletePaper löscht ein Paper samt Tags und Übersetzungs-Historie.
func (s *Store) DeletePaper(paper *Paper) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return deletePaperTx(tx, paper)
	})
}

func deletePaperTx(tx *gorm.DB, paper *Paper) error {
	if err := tx.Where("paper_id = ?", paper.ID).Delete(&PaperTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("paper_id = ?", paper.ID).Delete(&ResultAbstTranslation{}).Error; err != nil {
		return err
	}
	return tx.Delete(paper).Error
}

// AddTags hängt die gegebenen Labels als neue Tag-Zeilen an ein Paper an.
// Bestehende Tags bleiben unberührt, Duplikate sind zulässig.
func (s *Store) AddTags(paper *Paper, tags []string) ([]PaperTag, error) {
	created := make([]PaperTag, 0, len(tags))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, tag := range tags {
			row := PaperTag{PaperID: paper.ID, Tag: tag}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			created = append(created, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// TagsByPaper listet alle Tags eines Papers aufsteigend nach ID.
func (s *Store) TagsByPaper(paperID uint) ([]PaperTag, error) {
	var tags []PaperTag
	err := s.db.Where("paper_id = ?", paperID).Order("id asc").Find(&tags).Error
	return tags, err
}

// CreateResultAbstTranslation legt einen Übersetzungs-Eintrag an; das
// zugehörige Paper muss existieren.
func (s *Store) CreateResultAbstTranslation(result *ResultAbstTranslation) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Paper{}).Where("id = ?", result.PaperID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOwnerNotFound
		}
		return tx.Create(result).Error
	})
}

// ResultsAbstTranslationByPaper listet die Übersetzungs-Historie eines Papers.
func (s *Store) ResultsAbstTranslationByPaper(paperID uint) ([]ResultAbstTranslation, error) {
	var results []ResultAbstTranslation
	err := s.db.Where("paper_id = ?", paperID).Order("id asc").Find(&results).Error
	return results, err
}

// CreateResultAbstSummary legt einen Summary-Eintrag an; der Benutzer muss existieren.
func (s *Store) CreateResultAbstSummary(result *ResultAbstSummary) error {
	result.UserID = NormalizeUserID(result.UserID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id = ?", result.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOwnerNotFound
		}
		return tx.Create(result).Error
	})
}

// ResultsAbstSummaryByUser listet die Summary-Historie eines Benutzers.
func (s *Store) ResultsAbstSummaryByUser(userID string) ([]ResultAbstSummary, error) {
	var results []ResultAbstSummary
	err := s.db.Where("user_id = ?", NormalizeUserID(userID)).Order("id asc").Find(&results).Error
	return results, err
}

// GetResultAbstSummary holt einen Summary-Eintrag über seine ID.
func (s *Store) GetResultAbstSummary(id uint) (*ResultAbstSummary, error) {
	var result ResultAbstSummary
	if err := s.db.First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteResultAbstSummary löscht einen Summary-Eintrag. Keine Kaskade nötig.
func (s *Store) DeleteResultAbstSummary(result *ResultAbstSummary) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(result).Error
	})
}

// CreateResultPaperSummary legt einen Paper-Summary-Eintrag an.
func (s *Store) CreateResultPaperSummary(result *ResultPaperSummary) error {
	result.UserID = NormalizeUserID(result.UserID)
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("id = ?", result.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOwnerNotFound
		}
		return tx.Create(result).Error
	})
}

// ResultsPaperSummaryByUser listet die Paper-Summary-Historie eines Benutzers.
func (s *Store) ResultsPaperSummaryByUser(userID string) ([]ResultPaperSummary, error) {
	var results []ResultPaperSummary
	err := s.db.Where("user_id = ?", NormalizeUserID(userID)).Order("id asc").Find(&results).Error
	return results, err
}

// GetResultPaperSummary holt einen Paper-Summary-Eintrag über seine ID.
func (s *Store) GetResultPaperSummary(id uint) (*ResultPaperSummary, error) {
	var result ResultPaperSummary
	if err := s.db.First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteResultPaperSummary löscht einen Paper-Summary-Eintrag.
func (s *Store) DeleteResultPaperSummary(result *ResultPaperSummary) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(result).Error
	})
}
