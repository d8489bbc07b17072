package services

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"paper-shelf/config"
	"paper-shelf/models"
	"paper-shelf/storage"
)

// ExportService schreibt die append-only Ergebnis-Historien periodisch als
// gzip-komprimiertes JSON nach S3. Der Job läuft per Cron und ist rein
// additiv; er verändert keine Datenbankzeilen.
type ExportService struct {
	Config   *config.Config
	Store    *models.Store
	S3Client *s3.Client
	Logger   *zap.Logger
}

// NewExportService erstellt eine neue Instanz des ExportService.
func NewExportService(cfg *config.Config, store *models.Store, s3Client *s3.Client, logger *zap.Logger) *ExportService {
	return &ExportService{Config: cfg, Store: store, S3Client: s3Client, Logger: logger}
}

type resultExport struct {
	ExportedAt             time.Time                      `json:"exported_at"`
	ResultsAbstTranslation []models.ResultAbstTranslation `json:"results_abst_translation"`
	ResultsAbstSummary     []models.ResultAbstSummary     `json:"results_abst_summary"`
	ResultsPaperSummary    []models.ResultPaperSummary    `json:"results_paper_summary"`
}

// Run exportiert alle Ergebnis-Tabellen in ein einzelnes Archiv und lädt es
// nach S3 hoch. Gibt den S3-Link des Archivs zurück.
func (e *ExportService) Run() (string, error) {
	log := e.Logger.With(zap.String("bucket", e.Config.ExportS3Bucket))
	log.Info("Starte Export der Ergebnis-Historien.")

	export := resultExport{ExportedAt: time.Now().UTC()}

	db := e.Store.DB()
	if err := db.Order("id asc").Find(&export.ResultsAbstTranslation).Error; err != nil {
		return "", fmt.Errorf("export translations: %w", err)
	}
	if err := db.Order("id asc").Find(&export.ResultsAbstSummary).Error; err != nil {
		return "", fmt.Errorf("export abst summaries: %w", err)
	}
	if err := db.Order("id asc").Find(&export.ResultsPaperSummary).Error; err != nil {
		return "", fmt.Errorf("export paper summaries: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(export); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("results-export-%s.json.gz", export.ExportedAt.Format("2006-01-02T15-04-05Z"))
	link, err := storage.UploadFile(e.S3Client, e.Config.ExportS3Bucket, key, buf.Bytes(), e.Config)
	if err != nil {
		return "", fmt.Errorf("export upload: %w", err)
	}

	log.Info("Export abgeschlossen",
		zap.String("key", key),
		zap.Int("translations", len(export.ResultsAbstTranslation)),
		zap.Int("abst_summaries", len(export.ResultsAbstSummary)),
		zap.Int("paper_summaries", len(export.ResultsPaperSummary)))
	return link, nil
}
