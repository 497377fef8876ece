package main

import (
	"os"

	"cert-evaluator-be/internal/config"
	"cert-evaluator-be/internal/model"
	"cert-evaluator-be/internal/pkg/logger"
	"cert-evaluator-be/pkg/database"
)

func main() {
	log := logger.NewConsoleLogger()
	defer log.Sync()

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Error("Migrate", "DB_CONNECTION_STRING is not set", nil)
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Error("Migrate", "Failed to connect to database", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// Step 1: extensions AutoMigrate cannot create
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Warn("Migrate", "Setup statement failed, continuing", map[string]interface{}{"sql": sql, "error": err.Error()})
		}
	}

	// Step 2: tables
	models := []interface{}{
		&model.Session{},
		&model.SessionTurn{},
		&model.CriteriaSet{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Evaluation{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Error("Migrate", "AutoMigrate failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	// Step 3: vector index for chunk search
	postSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_document_chunks_embedding ON document_chunks USING hnsw (embedding_value vector_cosine_ops);`,
	}
	for _, sql := range postSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Warn("Migrate", "Post-migration statement failed", map[string]interface{}{"sql": sql, "error": err.Error()})
		}
	}

	log.Info("Migrate", "Database migration completed", map[string]interface{}{"tables": len(models)})
}
