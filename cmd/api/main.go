package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"biotriage/adapters/excel"
	"biotriage/adapters/llm"
	"biotriage/app"
	"biotriage/internal/config"
	"biotriage/ports"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	router := gin.Default()
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/api/runs", handleRun)

	log.Printf("[API] Listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("[API] Server failed: %v", err)
	}
}

// handleRun accepts a multipart CSV/XLSX upload, runs the triage pipeline
// in memory, and returns the summary plus per-row results as JSON. The
// HTTP surface never changes a classification: per-row failures are part
// of the result body, and only configuration errors produce a 4xx.
func handleRun(c *gin.Context) {
	profile := c.DefaultQuery("profile", "balanced")
	disableAPI := c.Query("disable_api") == "true"

	cfg, err := config.Load(profile, "")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	tmpDir, err := os.MkdirTemp("", "biotriage-upload-")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage upload"})
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to save upload: %v", err)})
		return
	}

	var client ports.CompletionClient
	if cfg.API.Enabled && !disableAPI {
		if lc, err := llm.NewClient(llm.Config{
			APIKey:        cfg.API.APIKey,
			BaseURL:       cfg.API.BaseURL,
			Model:         cfg.API.Model,
			SystemContext: cfg.API.SystemContext,
			Timeout:       cfg.API.Timeout,
			RetryAttempts: cfg.API.RetryAttempts,
		}); err == nil {
			client = lc
		} else {
			log.Printf("[API] Completion client unavailable, using fallback narratives: %v", err)
		}
	}

	triage := app.NewTriageService(client, app.TriageOptions{
		Workers:     cfg.Workers,
		MaxTokens:   cfg.API.MaxTokens,
		Temperature: cfg.API.Temperature,
	})
	pipeline := app.NewPipelineService(triage, excel.NewDataReader(tmpPath), nil, nil, nil)

	result, err := pipeline.Run(c.Request.Context(), cfg.Scoring, map[string]string{
		"source":  "api-upload",
		"file":    fileHeader.Filename,
		"profile": profile,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
