package capture

import (
	"fmt"
	"sync"
	"time"

	"keytrace/internal/models"
	"keytrace/internal/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a Registry.
type Options struct {
	// MaxOutstandingWrites bounds concurrent store appends; 0 means unbounded.
	MaxOutstandingWrites int
	Logger               *zap.Logger
	Metrics              *monitoring.Metrics
	Clock                func() time.Time
	NewID                func() string
}

// Registry tracks the capturing screen of every session. Attaching a screen for a session
// tears down whichever screen that session had before, so listeners never accumulate and
// rolling state never carries over from one task to the next.
type Registry struct {
	sink     Sink
	dispatch *Dispatcher
	log      *zap.Logger
	metrics  *monitoring.Metrics
	clock    func() time.Time
	newID    func() string

	mu        sync.Mutex
	screens   map[string]*Recorder
	bySession map[string]string
	closed    bool
}

// NewRegistry creates a registry that appends to sink.
func NewRegistry(sink Sink, opts Options) *Registry {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.New(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Registry{
		sink:      sink,
		dispatch:  NewDispatcher(opts.MaxOutstandingWrites, log, metrics),
		log:       log,
		metrics:   metrics,
		clock:     clock,
		newID:     newID,
		screens:   make(map[string]*Recorder),
		bySession: make(map[string]string),
	}
}

// Attach starts capturing a task screen for a session and returns its recorder.
func (g *Registry) Attach(sessionID string, taskType models.TaskType) (*Recorder, error) {
	if sessionID == "" {
		return nil, models.ErrMissingSession
	}
	if !taskType.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownTaskType, taskType)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrClosed
	}
	if prevID, ok := g.bySession[sessionID]; ok {
		g.detachLocked(prevID)
		g.log.Debug("Replaced previous screen", zap.String("session_id", sessionID), zap.String("screen_id", prevID))
	}

	rec := newRecorder(g.newID(), sessionID, taskType, g.sink, g.dispatch, g.clock, g.log, g.metrics)
	g.screens[rec.id] = rec
	g.bySession[sessionID] = rec.id
	g.metrics.ActiveScreens.Inc()

	g.log.Info("Screen attached",
		zap.String("screen_id", rec.id),
		zap.String("session_id", sessionID),
		zap.String("task_type", taskType.String()),
	)
	return rec, nil
}

// Detach stops capturing a screen.
func (g *Registry) Detach(screenID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.screens[screenID]; !ok {
		return ErrScreenNotFound
	}
	g.detachLocked(screenID)
	g.log.Info("Screen detached", zap.String("screen_id", screenID))
	return nil
}

func (g *Registry) detachLocked(screenID string) {
	rec, ok := g.screens[screenID]
	if !ok {
		return
	}
	rec.Close()
	delete(g.screens, screenID)
	if g.bySession[rec.sessionID] == screenID {
		delete(g.bySession, rec.sessionID)
	}
	g.metrics.ActiveScreens.Dec()
}

// DetachIdle detaches every screen with no activity since cutoff and returns their ids.
func (g *Registry) DetachIdle(cutoff time.Time) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var idle []string
	for id, rec := range g.screens {
		if rec.LastActivity().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	for _, id := range idle {
		g.detachLocked(id)
	}
	return idle
}

// Now reads the registry clock.
func (g *Registry) Now() time.Time {
	return g.clock()
}

// Get returns the capturing recorder for a screen.
func (g *Registry) Get(screenID string) (*Recorder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.screens[screenID]
	if !ok {
		return nil, ErrScreenNotFound
	}
	return rec, nil
}

// Active returns the screen currently capturing for a session, if any.
func (g *Registry) Active(sessionID string) (*Recorder, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.bySession[sessionID]
	if !ok {
		return nil, false
	}
	return g.screens[id], true
}

// Wait blocks until all dispatched writes have finished.
func (g *Registry) Wait() {
	g.dispatch.Wait()
}

// Close detaches every screen, refuses further attaches and waits for outstanding writes.
// Detached recorders reject events, so no write is dispatched once Close holds the lock.
func (g *Registry) Close() {
	g.mu.Lock()
	g.closed = true
	for id := range g.screens {
		g.detachLocked(id)
	}
	g.mu.Unlock()

	g.dispatch.Wait()
}
