package db

import (
	"fmt"

	"brokenexp/internal/gamification"
	"brokenexp/internal/models"

	"github.com/charmbracelet/log/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open connects to postgres, migrates every table and seeds the badge catalog.
func Open(dsn string, l *log.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	l.Info("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	l.Info("database migration completed")

	if err := seedBadges(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Issue{},
		&models.Comment{},
		&models.Upvote{},
		&models.Bookmark{},
		&models.Badge{},
		&models.UserBadge{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// seedBadges keeps the badges table in line with the rule catalog.
func seedBadges(conn *gorm.DB) error {
	badges := gamification.Catalog()
	err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "points"}),
	}).Create(&badges).Error
	if err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	return nil
}
