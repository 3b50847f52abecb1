package repository

import (
	"context"

	"keytrace/internal/models"

	"gorm.io/gorm/clause"
)

// AppendCompletion stores a task completion. A second completion for the same
// (session, task type) is ignored; the first one written stands.
func (s *Store) AppendCompletion(ctx context.Context, c models.TaskCompletion) error {
	if c.SessionID == "" {
		return models.ErrMissingSession
	}
	record := TaskCompletionRecord{
		SessionID: c.SessionID,
		TaskType:  string(c.TaskType),
		Duration:  c.Duration,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}

// Completions returns a session's task completions.
func (s *Store) Completions(ctx context.Context, f Filter) ([]models.TaskCompletion, error) {
	q, err := s.scoped(s.db.WithContext(ctx), f)
	if err != nil {
		return nil, err
	}

	var records []TaskCompletionRecord
	if err := q.Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	completions := make([]models.TaskCompletion, len(records))
	for i, r := range records {
		completions[i] = models.TaskCompletion{
			SessionID: r.SessionID,
			TaskType:  models.TaskType(r.TaskType),
			Duration:  r.Duration,
		}
	}
	return completions, nil
}
