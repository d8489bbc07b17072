package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paper-shelf/config"
	"paper-shelf/models"
	"paper-shelf/providers/deepl"
	"paper-shelf/providers/openai"
	"paper-shelf/providers/pubmed"
	"paper-shelf/services"
	"paper-shelf/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	papersAttachedCounter prometheus.Counter
	summariesCounter      prometheus.Counter
	translationsCounter   prometheus.Counter
)

func init() {
	papersAttachedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "papers_attached_total",
		Help: "Total number of papers attached via PMID lookup.",
	})
	summariesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abstract_summaries_total",
		Help: "Total number of literature-search summaries generated.",
	})
	translationsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abstract_translations_total",
		Help: "Total number of abstract translations generated.",
	})
	prometheus.MustRegister(papersAttachedCounter, summariesCounter, translationsCounter)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(
		&models.User{},
		&models.Paper{},
		&models.PaperTag{},
		&models.ResultAbstTranslation{},
		&models.ResultAbstSummary{},
		&models.ResultPaperSummary{},
	)

	store := models.NewStore(db)

	// Setup Adapters: einmal konstruiert, per Referenz weitergereicht.
	bib := pubmed.NewFetcher(cfg, logging)
	translator := deepl.NewFetcher(cfg, logging)
	summarizer := openai.NewClient(cfg, logging)

	enrich := services.NewEnrichmentService(cfg, store, logging, bib, translator, summarizer)

	// Setup Router
	router := newRouter(store, enrich, logging)

	// Setup Cron: periodischer Export der Ergebnis-Historien nach S3.
	if cfg.ExportEnabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		exporter := services.NewExportService(cfg, store, s3Client, logging)
		cronScheduler := cron.New()
		cronScheduler.AddFunc(cfg.ExportCronSchedule, func() {
			if _, err := exporter.Run(); err != nil {
				logging.Error("Result export failed", zap.Error(err))
			}
		})
		cronScheduler.Start()
	} else {
		logging.Warn("Result export disabled: S3 export configuration incomplete")
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// newRouter baut den gin-Router mit allen API-Routen auf.
func newRouter(store *models.Store, enrich *services.EnrichmentService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello, World!")
	})

	setupUserRoutes(router, store, enrich, log)
	setupPaperRoutes(router, store, enrich, log)
	setupResultRoutes(router, store, log)

	return router
}

// abortWithError schreibt den JSON-Fehlerkörper zum Statuscode.
func abortWithError(c *gin.Context, status int) {
	messages := map[int]string{
		http.StatusBadRequest:          "bad request",
		http.StatusNotFound:            "resource not found",
		http.StatusUnprocessableEntity: "unprocessable",
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   status,
		"message": messages[status],
	})
}

// abortServiceError bildet die Fehler-Taxonomie des EnrichmentService auf
// Statuscodes ab: NotFound wird 404, alles übrige 422.
func abortServiceError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		abortWithError(c, http.StatusNotFound)
		return
	}
	abortWithError(c, http.StatusUnprocessableEntity)
}

// parseID liest einen numerischen Pfad-Parameter; ein nicht-numerischer
// Wert verhält sich wie eine unbekannte Ressource.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		abortWithError(c, http.StatusNotFound)
		return 0, false
	}
	return uint(id), true
}

// coercePMID akzeptiert die PMID als JSON-Zahl oder als String.
func coercePMID(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatInt(int64(t), 10), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

func setupUserRoutes(router *gin.Engine, store *models.Store, enrich *services.EnrichmentService, log *zap.Logger) {
	rg := router.Group("/api/users")

	// POST - Register a new user
	rg.POST("", func(c *gin.Context) {
		var req struct {
			UserID string `json:"user_id" binding:"required"`
			Name   string `json:"name" binding:"required"`
			Email  string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		user := &models.User{ID: req.UserID, Name: req.Name, Email: req.Email}
		if err := store.CreateUser(user); err != nil {
			log.Warn("Failed to create user", zap.String("user_id", req.UserID), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Format()})
	})

	// GET - User information
	rg.GET("/:id", func(c *gin.Context) {
		user, err := store.GetUser(c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound)
				return
			}
			log.Warn("Failed to fetch user", zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Format()})
	})

	// GET - Papers of the user, each with its tag labels
	rg.GET("/:id/papers", func(c *gin.Context) {
		if !requireUser(c, store, log) {
			return
		}
		papers, err := store.PapersByUser(c.Param("id"))
		if err != nil {
			log.Warn("Failed to list papers", zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		formatted := make([]map[string]any, 0, len(papers))
		for i := range papers {
			f := papers[i].Format()
			f["tag"] = tagLabels(papers[i].Tags)
			formatted = append(formatted, f)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "papers": formatted})
	})

	// GET - Paper summary history of the user
	rg.GET("/:id/results-paper-summary", func(c *gin.Context) {
		if !requireUser(c, store, log) {
			return
		}
		results, err := store.ResultsPaperSummaryByUser(c.Param("id"))
		if err != nil {
			log.Warn("Failed to list paper summaries", zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		formatted := make([]map[string]any, 0, len(results))
		for i := range results {
			formatted = append(formatted, results[i].Format())
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "results_paper_summary": formatted})
	})

	// POST - Summarize literature-search results into a new history entry
	rg.POST("/:id/results-abst-summary", func(c *gin.Context) {
		var req struct {
			SearchWords []string `json:"search_words" binding:"required"`
			Language    string   `json:"language" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		result, err := enrich.SummarizeSearchResults(c.Request.Context(), c.Param("id"), req.SearchWords, req.Language)
		if err != nil {
			abortServiceError(c, err)
			return
		}
		summariesCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"success": true, "result_abst_summary": result.Format()})
	})

	// GET - Abstract summary history of the user
	rg.GET("/:id/results-abst-summary", func(c *gin.Context) {
		if !requireUser(c, store, log) {
			return
		}
		results, err := store.ResultsAbstSummaryByUser(c.Param("id"))
		if err != nil {
			log.Warn("Failed to list abstract summaries", zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		formatted := make([]map[string]any, 0, len(results))
		for i := range results {
			formatted = append(formatted, results[i].Format())
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "results_abst_summary": formatted})
	})

	// POST - Attach a paper via PMID lookup
	rg.POST("/:id/papers", func(c *gin.Context) {
		var req struct {
			PMID any `json:"pmid" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}
		pmid, ok := coercePMID(req.PMID)
		if !ok {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		paper, err := enrich.AttachPaper(c.Request.Context(), c.Param("id"), pmid)
		if err != nil {
			abortServiceError(c, err)
			return
		}
		papersAttachedCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"success": true, "paper": paper.Format()})
	})
}

func setupPaperRoutes(router *gin.Engine, store *models.Store, enrich *services.EnrichmentService, log *zap.Logger) {
	rg := router.Group("/api/papers")

	// GET - Paper information with tag labels
	rg.GET("/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		paper, err := store.GetPaper(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound)
				return
			}
			log.Warn("Failed to fetch paper", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		f := paper.Format()
		f["tag"] = tagLabels(paper.Tags)
		c.JSON(http.StatusOK, gin.H{"success": true, "paper": f})
	})

	// PATCH - Append tags to a paper
	rg.PATCH("/:id/tags", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req struct {
			Tags []string `json:"tags" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		paper, err := store.GetPaper(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound)
				return
			}
			log.Warn("Failed to fetch paper", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}

		created, err := store.AddTags(paper, req.Tags)
		if err != nil {
			log.Warn("Failed to add tags", zap.Uint("paper_id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		formattedTags := make([]map[string]any, 0, len(created))
		for i := range created {
			formattedTags = append(formattedTags, created[i].Format())
		}
		f := paper.Format()
		f["tag"] = formattedTags
		c.JSON(http.StatusOK, gin.H{"success": true, "paper": f})
	})

	// DELETE - Paper with all tags and translation history
	rg.DELETE("/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		paper, err := store.GetPaper(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound)
				return
			}
			log.Warn("Failed to fetch paper", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		formatted := paper.Format()
		if err := store.DeletePaper(paper); err != nil {
			log.Warn("Failed to delete paper", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted_paper": formatted})
	})

	// POST - Translate the paper abstract into a new history entry
	rg.POST("/:id/results-abst-translation", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req struct {
			Language string `json:"language" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest)
			return
		}

		result, err := enrich.TranslateAbstract(c.Request.Context(), id, req.Language)
		if err != nil {
			abortServiceError(c, err)
			return
		}
		translationsCounter.Inc()
		c.JSON(http.StatusOK, gin.H{"success": true, "result_abst_translation": result.Format()})
	})
}

func setupResultRoutes(router *gin.Engine, store *models.Store, log *zap.Logger) {
	// DELETE - Paper summary history entry
	router.DELETE("/api/results-paper-summary/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		result, err := store.GetResultPaperSummary(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound)
				return
			}
			log.Warn("Failed to fetch paper summary", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		if err := store.DeleteResultPaperSummary(result); err != nil {
			log.Warn("Failed to delete paper summary", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "results_paper_summary_id": id})
	})

	// DELETE - Abstract summary history entry
	router.DELETE("/api/results-abst-summary/:id", func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		result, err := store.GetResultAbstSummary(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWithError(c, http.StatusNotFound)
				return
			}
			log.Warn("Failed to fetch abstract summary", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		if err := store.DeleteResultAbstSummary(result); err != nil {
			log.Warn("Failed to delete abstract summary", zap.Uint("id", id), zap.Error(err))
			abortWithError(c, http.StatusUnprocessableEntity)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "results_abst_summary_id": id})
	})
}

// requireUser prüft die Existenz des Benutzers aus dem Pfad-Parameter und
// schreibt andernfalls die 404-Antwort.
func requireUser(c *gin.Context, store *models.Store, log *zap.Logger) bool {
	exists, err := store.UserExists(c.Param("id"))
	if err != nil {
		log.Warn("User lookup failed", zap.Error(err))
		abortWithError(c, http.StatusUnprocessableEntity)
		return false
	}
	if !exists {
		abortWithError(c, http.StatusNotFound)
		return false
	}
	return true
}

// tagLabels extrahiert die reinen Labels einer Tag-Liste.
func tagLabels(tags []models.PaperTag) []string {
	labels := make([]string, 0, len(tags))
	for i := range tags {
		labels = append(labels, tags[i].Tag)
	}
	return labels
}
