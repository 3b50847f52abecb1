package services

import (
	"context"
	"testing"
	"time"

	"keytrace/internal/capture"
	"keytrace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type discardSink struct{}

func (discardSink) AppendKeyEvent(context.Context, models.KeyEvent) error         { return nil }
func (discardSink) AppendPointerEvent(context.Context, models.PointerEvent) error { return nil }
func (discardSink) AppendCompletion(context.Context, models.TaskCompletion) error { return nil }

func TestScheduler_SweepDetachesIdleScreens(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	log := zaptest.NewLogger(t)
	registry := capture.NewRegistry(discardSink{}, capture.Options{Logger: log, Clock: clock})
	t.Cleanup(registry.Close)

	rec, err := registry.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	s := NewScheduler(log, registry, time.Minute, func() time.Duration { return 30 * time.Minute })
	assert.Equal(t, 0, s.Sweep())

	now = now.Add(31 * time.Minute)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, capture.StateInactive, rec.State())
	_, err = registry.Get(rec.ID())
	assert.ErrorIs(t, err, capture.ErrScreenNotFound)
}

func TestScheduler_DisabledWithoutTimeout(t *testing.T) {
	registry := capture.NewRegistry(discardSink{}, capture.Options{})
	t.Cleanup(registry.Close)
	s := NewScheduler(zaptest.NewLogger(t), registry, time.Minute, func() time.Duration { return 0 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	_, err := registry.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Sweep())
	_, ok := registry.Active("sess-1")
	assert.True(t, ok)
}

func TestScheduler_ReadsTimeoutOnEverySweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	registry := capture.NewRegistry(discardSink{}, capture.Options{Clock: func() time.Time { return now }})
	t.Cleanup(registry.Close)

	timeout := time.Hour
	s := NewScheduler(zaptest.NewLogger(t), registry, time.Minute, func() time.Duration { return timeout })

	_, err := registry.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	assert.Equal(t, 0, s.Sweep())

	timeout = 10 * time.Minute
	assert.Equal(t, 1, s.Sweep())
}
