package utils

import (
	"fmt"

	"eduadmin/backend/config"
	"eduadmin/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the Postgres connection and migrates the schema.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Unit{},
		&models.Topic{},
		&models.Subtopic{},
		&models.Paper{},
		&models.ImportSession{},
		&models.ReviewSession{},
		&models.ReviewStatus{},
		&models.Question{},
		&models.QuestionTopic{},
		&models.QuestionSubtopic{},
		&models.QuestionAttachment{},
		&models.SessionAttachment{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
