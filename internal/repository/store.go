package repository

import (
	"keytrace/internal/models"

	"gorm.io/gorm"
)

// Filter selects records for one session, optionally narrowed to one task type.
type Filter struct {
	SessionID string
	TaskType  models.TaskType
}

// Store is the append-only event store backed by GORM.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) scoped(db *gorm.DB, f Filter) (*gorm.DB, error) {
	if f.SessionID == "" {
		return nil, models.ErrMissingSession
	}
	db = db.Where("session_id = ?", f.SessionID)
	if f.TaskType != "" {
		db = db.Where("task_type = ?", string(f.TaskType))
	}
	return db, nil
}
