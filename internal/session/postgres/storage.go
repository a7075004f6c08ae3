package postgres

import (
	"context"
	"errors"
	"time"

	sessionDatamodel "github.com/frahmantamala/admin-console/internal/core/datamodel/session"
	"github.com/frahmantamala/admin-console/internal/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage keeps the session in the session_entries table. It works against
// both the postgres and sqlite dialects.
type Storage struct {
	db *gorm.DB
}

func NewStorage(db *gorm.DB) session.Storage {
	return &Storage{db: db}
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	var entry sessionDatamodel.Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	entry := sessionDatamodel.Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&sessionDatamodel.Entry{}).Error
}
