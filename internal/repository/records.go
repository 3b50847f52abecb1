package repository

import (
	"time"

	"keytrace/internal/models"
)

// KeyEventRecord is the key_events row.
type KeyEventRecord struct {
	ID         uint64    `gorm:"primaryKey"`
	SessionID  string    `gorm:"size:255;not null;index:idx_key_events_lookup,priority:1"`
	TaskType   string    `gorm:"size:32;not null;index:idx_key_events_lookup,priority:2"`
	OccurredAt time.Time `gorm:"not null;index:idx_key_events_lookup,priority:3"`
	Key        string    `gorm:"size:64"`
	EventType  string    `gorm:"size:8;not null"`
	DwellTime  *float64
	FlightTime *float64
	CreatedAt  time.Time
}

func (KeyEventRecord) TableName() string { return "key_events" }

// PointerEventRecord is the pointer_events row.
type PointerEventRecord struct {
	ID           uint64    `gorm:"primaryKey"`
	SessionID    string    `gorm:"size:255;not null;index:idx_pointer_events_lookup,priority:1"`
	TaskType     string    `gorm:"size:32;not null;index:idx_pointer_events_lookup,priority:2"`
	OccurredAt   time.Time `gorm:"not null;index:idx_pointer_events_lookup,priority:3"`
	X            float64
	Y            float64
	EventType    string `gorm:"size:8;not null"`
	Speed        *float64
	Acceleration *float64
	CreatedAt    time.Time
}

func (PointerEventRecord) TableName() string { return "pointer_events" }

// TaskCompletionRecord is the task_completions row; at most one per (session, task type).
type TaskCompletionRecord struct {
	ID        uint64 `gorm:"primaryKey"`
	SessionID string `gorm:"size:255;not null;uniqueIndex:idx_task_completions_session_task,priority:1"`
	TaskType  string `gorm:"size:32;not null;uniqueIndex:idx_task_completions_session_task,priority:2"`
	Duration  int64  `gorm:"not null"`
	CreatedAt time.Time
}

func (TaskCompletionRecord) TableName() string { return "task_completions" }

// Tables lists the records managed by AutoMigrate.
func Tables() []any {
	return []any{&KeyEventRecord{}, &PointerEventRecord{}, &TaskCompletionRecord{}}
}

func newKeyEventRecord(e models.KeyEvent) KeyEventRecord {
	return KeyEventRecord{
		SessionID:  e.SessionID,
		TaskType:   string(e.TaskType),
		OccurredAt: e.Timestamp.Time(),
		Key:        e.Key,
		EventType:  string(e.Kind),
		DwellTime:  e.DwellTime,
		FlightTime: e.FlightTime,
	}
}

func (r KeyEventRecord) model() models.KeyEvent {
	return models.KeyEvent{
		SessionID:  r.SessionID,
		Timestamp:  models.MillisFromTime(r.OccurredAt),
		Key:        r.Key,
		Kind:       models.KeyKind(r.EventType),
		DwellTime:  r.DwellTime,
		FlightTime: r.FlightTime,
		TaskType:   models.TaskType(r.TaskType),
	}
}

func newPointerEventRecord(e models.PointerEvent) PointerEventRecord {
	return PointerEventRecord{
		SessionID:    e.SessionID,
		TaskType:     string(e.TaskType),
		OccurredAt:   e.Timestamp.Time(),
		X:            e.X,
		Y:            e.Y,
		EventType:    string(e.Kind),
		Speed:        e.Speed,
		Acceleration: e.Acceleration,
	}
}

func (r PointerEventRecord) model() models.PointerEvent {
	return models.PointerEvent{
		SessionID:    r.SessionID,
		Timestamp:    models.MillisFromTime(r.OccurredAt),
		X:            r.X,
		Y:            r.Y,
		Kind:         models.PointerKind(r.EventType),
		Speed:        r.Speed,
		Acceleration: r.Acceleration,
		TaskType:     models.TaskType(r.TaskType),
	}
}
