package main

import (
	"github.com/SeakMengs/certportal/internal/config"
	"github.com/SeakMengs/certportal/internal/database"
	"github.com/SeakMengs/certportal/internal/env"
	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/internal/util"
)

func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV, "migrate")
	defer logger.Sync()

	logger.Infof("Migrating database %s on %s:%s", cfg.DB.DB_DATABASE, cfg.DB.DB_HOST, cfg.DB.DB_PORT)

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	migrateErr := db.AutoMigrate(&model.Event{}, &model.Template{}, &model.Certificate{}, &model.GenerationLog{})
	if migrateErr != nil {
		logger.Panic(migrateErr)
	}

	// Public search goes through LOWER(email)
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_certificates_email_lower ON certificates (LOWER(email))`).Error; err != nil {
		logger.Panic(err)
	}

	logger.Info("Migration completed")
}
