package capture

import (
	"context"
	"errors"
	"sync"

	"keytrace/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// memorySink is an in-memory Sink with failure injection.
type memorySink struct {
	mu          sync.Mutex
	keys        []models.KeyEvent
	pointers    []models.PointerEvent
	completions []models.TaskCompletion

	failKeys        bool
	failPointers    bool
	failCompletions bool
	block           chan struct{}
}

func (s *memorySink) wait() {
	if s.block != nil {
		<-s.block
	}
}

func (s *memorySink) AppendKeyEvent(_ context.Context, e models.KeyEvent) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failKeys {
		return errStoreDown
	}
	s.keys = append(s.keys, e)
	return nil
}

func (s *memorySink) AppendPointerEvent(_ context.Context, e models.PointerEvent) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPointers {
		return errStoreDown
	}
	s.pointers = append(s.pointers, e)
	return nil
}

func (s *memorySink) AppendCompletion(_ context.Context, c models.TaskCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCompletions {
		return errStoreDown
	}
	s.completions = append(s.completions, c)
	return nil
}

func (s *memorySink) keyEvents() []models.KeyEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.KeyEvent(nil), s.keys...)
}

func (s *memorySink) pointerEvents() []models.PointerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PointerEvent(nil), s.pointers...)
}
