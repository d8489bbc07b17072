package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`

	PubMedBaseURL string `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey  string `envconfig:"PUBMED_API_KEY"`
	// Maximale Trefferzahl pro Wortsuche (ESearch retmax).
	SearchRetMax int `envconfig:"SEARCH_RETMAX" default:"5"`

	DeepLBaseURL string `envconfig:"DEEPL_BASE_URL" default:"https://api-free.deepl.com/v2"`
	DeepLAPIKey  string `envconfig:"DEEPL_API_KEY" required:"true"`

	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`

	// Export der Ergebnis-Historien nach S3. Ohne Bucket bleibt der Export deaktiviert.
	ExportCronSchedule string `envconfig:"EXPORT_CRON_SCHEDULE" default:"0 3 * * *"`
	ExportS3Key        string `envconfig:"EXPORT_S3_KEY"`
	ExportS3Secret     string `envconfig:"EXPORT_S3_SECRET"`
	ExportS3URL        string `envconfig:"EXPORT_S3_URL"`
	ExportS3Region     string `envconfig:"EXPORT_S3_REGION" default:"eu-central-1"`
	ExportS3Bucket     string `envconfig:"EXPORT_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// ExportEnabled meldet, ob die S3-Export-Konfiguration vollständig ist.
func (c *Config) ExportEnabled() bool {
	return c.ExportS3Bucket != "" && c.ExportS3URL != "" && c.ExportS3Key != "" && c.ExportS3Secret != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
