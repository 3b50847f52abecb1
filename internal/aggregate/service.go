package aggregate

import (
	"context"
	"fmt"

	"keytrace/internal/models"
	"keytrace/internal/monitoring"
	"keytrace/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reader is the query side of the event store.
type Reader interface {
	KeyEvents(ctx context.Context, f repository.Filter) ([]models.KeyEvent, error)
	PointerEvents(ctx context.Context, f repository.Filter) ([]models.PointerEvent, error)
	Completions(ctx context.Context, f repository.Filter) ([]models.TaskCompletion, error)
}

// FetchError reports which collection could not be read.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Service builds per-task summaries from the persisted event log.
type Service struct {
	store   Reader
	log     *zap.Logger
	metrics *monitoring.Metrics
}

func NewService(store Reader, log *zap.Logger, metrics *monitoring.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.New(nil)
	}
	return &Service{store: store, log: log, metrics: metrics}
}

// Summaries fetches completions, key events and pointer events for a session concurrently
// and summarizes them per task type. If any fetch fails nothing is returned.
func (s *Service) Summaries(ctx context.Context, sessionID string) (map[models.TaskType]Summary, error) {
	if sessionID == "" {
		return nil, models.ErrMissingSession
	}

	timer := prometheus.NewTimer(s.metrics.AggregationDuration)
	defer timer.ObserveDuration()

	filter := repository.Filter{SessionID: sessionID}
	var (
		completions []models.TaskCompletion
		keys        []models.KeyEvent
		pointer     []models.PointerEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if completions, err = s.store.Completions(gctx, filter); err != nil {
			return &FetchError{Collection: "completions", Err: err}
		}
		return nil
	})
	g.Go(func() (err error) {
		if keys, err = s.store.KeyEvents(gctx, filter); err != nil {
			return &FetchError{Collection: "key_events", Err: err}
		}
		return nil
	})
	g.Go(func() (err error) {
		if pointer, err = s.store.PointerEvents(gctx, filter); err != nil {
			return &FetchError{Collection: "pointer_events", Err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.metrics.AggregationFailures.Inc()
		s.log.Error("Failed to load session telemetry", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	summaries := Build(completions, keys, pointer)
	s.log.Debug("Summaries built",
		zap.String("session_id", sessionID),
		zap.Int("key_events", len(keys)),
		zap.Int("pointer_events", len(pointer)),
		zap.Int("completions", len(completions)),
	)
	return summaries, nil
}
