package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"keytrace/internal/models"
	"keytrace/internal/monitoring"

	"go.uber.org/zap"
)

// Sink is the append side of the event store.
type Sink interface {
	AppendKeyEvent(ctx context.Context, event models.KeyEvent) error
	AppendPointerEvent(ctx context.Context, event models.PointerEvent) error
	AppendCompletion(ctx context.Context, completion models.TaskCompletion) error
}

// State is the lifecycle state of a Recorder.
type State int

const (
	StateInactive State = iota
	StateCapturing
)

func (s State) String() string {
	if s == StateCapturing {
		return "capturing"
	}
	return "inactive"
}

// Outcome reports what a raw event turned into.
type Outcome int

const (
	Recorded Outcome = iota
	Dropped
)

// RawKey is a physical key transition as reported by the client.
type RawKey struct {
	Key       string
	Kind      models.KeyKind
	Timestamp models.Millis
}

// RawPointer is a pointer move or click as reported by the client.
type RawPointer struct {
	X, Y      float64
	Kind      models.PointerKind
	Timestamp models.Millis
}

// Recorder captures the events of one task screen visit. It owns the rolling key and
// pointer state for that visit only; a new visit gets a new Recorder.
type Recorder struct {
	id        string
	sessionID string
	taskType  models.TaskType
	startedAt time.Time
	clock     func() time.Time

	sink     Sink
	dispatch *Dispatcher
	log      *zap.Logger
	metrics  *monitoring.Metrics

	mu           sync.Mutex
	state        State
	keys         KeyTracker
	pointer      PointerTracker
	completed    bool
	lastActivity time.Time
}

func newRecorder(id, sessionID string, taskType models.TaskType, sink Sink, dispatch *Dispatcher, clock func() time.Time, log *zap.Logger, metrics *monitoring.Metrics) *Recorder {
	now := clock()
	return &Recorder{
		id:           id,
		sessionID:    sessionID,
		taskType:     taskType,
		startedAt:    now,
		clock:        clock,
		sink:         sink,
		dispatch:     dispatch,
		log:          log.With(zap.String("screen_id", id), zap.String("session_id", sessionID), zap.String("task_type", taskType.String())),
		metrics:      metrics,
		state:        StateCapturing,
		lastActivity: now,
	}
}

func (r *Recorder) ID() string                { return r.id }
func (r *Recorder) SessionID() string         { return r.sessionID }
func (r *Recorder) TaskType() models.TaskType { return r.taskType }
func (r *Recorder) StartedAt() time.Time      { return r.startedAt }

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastActivity is when the screen last received an event, or when it was attached.
func (r *Recorder) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// HandleKey derives timing for a key transition and appends the record.
func (r *Recorder) HandleKey(ev RawKey) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateCapturing {
		return Dropped, ErrInactive
	}
	r.lastActivity = r.clock()

	record := models.KeyEvent{
		SessionID: r.sessionID,
		Timestamp: ev.Timestamp,
		Key:       ev.Key,
		Kind:      ev.Kind,
		TaskType:  r.taskType,
	}

	switch ev.Kind {
	case models.KeyDown:
		r.keys.Down(ev.Key, ev.Timestamp)
	case models.KeyUp:
		timing := r.keys.Up(ev.Key, ev.Timestamp)
		if !timing.Paired {
			r.log.Debug("Key-up without a preceding key-down", zap.String("key", ev.Key))
		}
		record.DwellTime = models.Float(timing.Dwell)
		record.FlightTime = models.Float(timing.Flight)
	default:
		return Dropped, fmt.Errorf("%w: key event kind %q", ErrInvalidEvent, ev.Kind)
	}

	r.metrics.EventsCaptured.WithLabelValues("key"+string(ev.Kind), r.taskType.String()).Inc()
	r.dispatch.Go("key_events", func(ctx context.Context) error {
		return r.sink.AppendKeyEvent(ctx, record)
	}, zap.String("session_id", r.sessionID), zap.String("task_type", r.taskType.String()))

	return Recorded, nil
}

// HandlePointer derives kinematics for a pointer move, or records a click as-is.
// Moves with no elapsed time since the previous move are dropped.
func (r *Recorder) HandlePointer(ev RawPointer) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateCapturing {
		return Dropped, ErrInactive
	}
	r.lastActivity = r.clock()

	record := models.PointerEvent{
		SessionID: r.sessionID,
		Timestamp: ev.Timestamp,
		X:         ev.X,
		Y:         ev.Y,
		Kind:      ev.Kind,
		TaskType:  r.taskType,
	}

	switch ev.Kind {
	case models.PointerMove:
		motion, ok := r.pointer.Move(ev.X, ev.Y, ev.Timestamp)
		if !ok {
			r.metrics.EventsDropped.WithLabelValues("zero_elapsed").Inc()
			return Dropped, nil
		}
		record.Speed = models.Float(motion.Speed)
		record.Acceleration = models.Float(motion.Acceleration)
	case models.PointerClick:
	default:
		return Dropped, fmt.Errorf("%w: pointer event kind %q", ErrInvalidEvent, ev.Kind)
	}

	r.metrics.EventsCaptured.WithLabelValues(string(ev.Kind), r.taskType.String()).Inc()
	r.dispatch.Go("pointer_events", func(ctx context.Context) error {
		return r.sink.AppendPointerEvent(ctx, record)
	}, zap.String("session_id", r.sessionID), zap.String("task_type", r.taskType.String()))

	return Recorded, nil
}

// Complete writes the task completion for this visit. A positive duration (ms) supplied by
// the client is used as-is; otherwise the time since the screen was attached is used.
// Unlike raw events the write is synchronous, so the caller learns whether it landed.
func (r *Recorder) Complete(ctx context.Context, duration int64) (models.TaskCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateCapturing {
		return models.TaskCompletion{}, ErrInactive
	}
	if r.completed {
		return models.TaskCompletion{}, ErrAlreadyCompleted
	}

	if duration <= 0 {
		duration = r.clock().Sub(r.startedAt).Milliseconds()
	}
	completion := models.TaskCompletion{
		SessionID: r.sessionID,
		TaskType:  r.taskType,
		Duration:  duration,
	}

	if err := r.sink.AppendCompletion(context.WithoutCancel(ctx), completion); err != nil {
		r.metrics.WriteFailures.WithLabelValues("completions").Inc()
		return models.TaskCompletion{}, fmt.Errorf("append completion: %w", err)
	}
	r.completed = true
	r.log.Info("Task completed", zap.Int64("duration_ms", duration))

	return completion, nil
}

// Close stops capturing. Writes already dispatched still run to completion.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateInactive
}
