package repository

import (
	"context"

	"keytrace/internal/models"
)

// AppendKeyEvent inserts one key event.
func (s *Store) AppendKeyEvent(ctx context.Context, e models.KeyEvent) error {
	if e.SessionID == "" {
		return models.ErrMissingSession
	}
	record := newKeyEventRecord(e)
	return s.db.WithContext(ctx).Create(&record).Error
}

// AppendPointerEvent inserts one pointer event.
func (s *Store) AppendPointerEvent(ctx context.Context, e models.PointerEvent) error {
	if e.SessionID == "" {
		return models.ErrMissingSession
	}
	record := newPointerEventRecord(e)
	return s.db.WithContext(ctx).Create(&record).Error
}

// KeyEvents returns a session's key events in timestamp order. Records sharing a
// timestamp keep their insertion order.
func (s *Store) KeyEvents(ctx context.Context, f Filter) ([]models.KeyEvent, error) {
	q, err := s.scoped(s.db.WithContext(ctx), f)
	if err != nil {
		return nil, err
	}

	var records []KeyEventRecord
	if err := q.Order("occurred_at ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	events := make([]models.KeyEvent, len(records))
	for i, r := range records {
		events[i] = r.model()
	}
	return events, nil
}

// PointerEvents returns a session's pointer events in timestamp order.
func (s *Store) PointerEvents(ctx context.Context, f Filter) ([]models.PointerEvent, error) {
	q, err := s.scoped(s.db.WithContext(ctx), f)
	if err != nil {
		return nil, err
	}

	var records []PointerEventRecord
	if err := q.Order("occurred_at ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	events := make([]models.PointerEvent, len(records))
	for i, r := range records {
		events[i] = r.model()
	}
	return events, nil
}
