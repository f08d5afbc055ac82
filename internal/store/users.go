package store

import (
	"context"
	"strings"

	"brokenexp/internal/models"

	"gorm.io/gorm"
)

// CreateUser stores credentials and the matching profile in one transaction.
// A taken email surfaces as apperr.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (models.User, error) {
	u := models.User{Email: normalizeEmail(email), Password: passwordHash}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{ID: u.ID, Name: displayName(name, u.Email)}).Error
	})
	if err != nil {
		return models.User{}, wrap("create user", err)
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", normalizeEmail(email)).Error; err != nil {
		return models.User{}, wrap("find user", err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return models.User{}, wrap("find user", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// displayName falls back to the local part of the email.
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "Neighbour"
	}
	return local
}
