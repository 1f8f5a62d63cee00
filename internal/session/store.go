// Package session owns the client-side session state: the cached identity
// mirror, the cross-component event bus, and bearer-token verification.
package session

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/models"
)

// ErrNoIdentity is returned by Load when no mirror exists for the user.
var ErrNoIdentity = errors.New("no cached identity")

// identityRecord is the persisted mirror of a user's profile. One row per
// user, fully overwritten on every successful fetch or edit.
type identityRecord struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(100)"`
	Fullname  string `gorm:"type:varchar(255)"`
	Email     string `gorm:"type:varchar(255)"`
	Phone     string `gorm:"type:varchar(32)"`
	Avatar    string `gorm:"type:varchar(512)"`
	UpdatedAt time.Time
}

func (identityRecord) TableName() string { return "identity_mirror" }

// Store persists the identity mirror in a local SQLite database. It is the
// only durable client-side state.
type Store struct {
	db *gorm.DB
}

// NewStore opens (and migrates) the mirror database at the given DSN.
func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.AutoMigrate(&identityRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}
	return &Store{db: db}, nil
}

// Save overwrites the user's mirror with the given profile in a single upsert.
func (s *Store) Save(p models.Profile) error {
	rec := identityRecord{
		UserID:   p.ID,
		Username: p.Username,
		Fullname: p.Fullname,
		Email:    p.Email,
		Phone:    p.Phone,
		Avatar:   p.Avatar,
	}
	if err := s.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("failed to save identity mirror for user %s: %w", p.ID, err)
	}
	return nil
}

// Load returns the cached profile for the user, or ErrNoIdentity.
func (s *Store) Load(userID string) (*models.Profile, error) {
	var rec identityRecord
	if err := s.db.First(&rec, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoIdentity
		}
		return nil, fmt.Errorf("failed to load identity mirror for user %s: %w", userID, err)
	}
	return &models.Profile{
		ID:       rec.UserID,
		Username: rec.Username,
		Fullname: rec.Fullname,
		Email:    rec.Email,
		Phone:    rec.Phone,
		Avatar:   rec.Avatar,
	}, nil
}

// Clear erases the user's mirror entirely.
func (s *Store) Clear(userID string) error {
	if err := s.db.Delete(&identityRecord{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to clear identity mirror for user %s: %w", userID, err)
	}
	return nil
}
