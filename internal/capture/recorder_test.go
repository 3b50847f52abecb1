package capture

import (
	"context"
	"sort"
	"testing"
	"time"

	"keytrace/internal/models"
	"keytrace/internal/monitoring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T, sink Sink, opts Options) *Registry {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	return NewRegistry(sink, opts)
}

func byTimestamp[T any](items []T, ts func(T) models.Millis) {
	sort.SliceStable(items, func(i, j int) bool { return ts(items[i]) < ts(items[j]) })
}

func TestRecorderKeyScenario(t *testing.T) {
	sink := &memorySink{}
	reg := newTestRegistry(t, sink, Options{})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	for _, ev := range []RawKey{
		{Key: "a", Kind: models.KeyDown, Timestamp: 100},
		{Key: "a", Kind: models.KeyUp, Timestamp: 150},
		{Key: "b", Kind: models.KeyDown, Timestamp: 500},
		{Key: "b", Kind: models.KeyUp, Timestamp: 560},
	} {
		outcome, err := rec.HandleKey(ev)
		require.NoError(t, err)
		assert.Equal(t, Recorded, outcome)
	}
	reg.Wait()

	keys := sink.keyEvents()
	require.Len(t, keys, 4)
	// Writes complete in any order; the timestamp is the ordering.
	byTimestamp(keys, func(e models.KeyEvent) models.Millis { return e.Timestamp })

	assert.Nil(t, keys[0].DwellTime, "key-down carries no dwell time")
	assert.Nil(t, keys[0].FlightTime)

	assert.Equal(t, 50.0, *keys[1].DwellTime)
	assert.Equal(t, 0.0, *keys[1].FlightTime)

	assert.Equal(t, 60.0, *keys[3].DwellTime)
	assert.Equal(t, 350.0, *keys[3].FlightTime)

	for _, k := range keys {
		assert.Equal(t, "sess-1", k.SessionID)
		assert.Equal(t, models.TaskForm, k.TaskType)
	}
}

func TestRecorderUnpairedKeyUpIsRecordedWithZeroDwell(t *testing.T) {
	sink := &memorySink{}
	reg := newTestRegistry(t, sink, Options{})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	_, err = rec.HandleKey(RawKey{Key: "Shift", Kind: models.KeyUp, Timestamp: 40})
	require.NoError(t, err)
	reg.Wait()

	keys := sink.keyEvents()
	require.Len(t, keys, 1)
	assert.Equal(t, 0.0, *keys[0].DwellTime)
	assert.Equal(t, 0.0, *keys[0].FlightTime)
}

func TestRecorderPointerScenario(t *testing.T) {
	sink := &memorySink{}
	metrics := monitoring.New(nil)
	reg := newTestRegistry(t, sink, Options{Metrics: metrics})
	rec, err := reg.Attach("sess-1", models.TaskInteractive)
	require.NoError(t, err)

	outcomes := []Outcome{}
	for _, ev := range []RawPointer{
		{X: 0, Y: 0, Kind: models.PointerMove, Timestamp: 0},
		{X: 3, Y: 4, Kind: models.PointerMove, Timestamp: 10},
		{X: 6, Y: 8, Kind: models.PointerMove, Timestamp: 10},
		{X: 6, Y: 8, Kind: models.PointerClick, Timestamp: 10},
	} {
		outcome, err := rec.HandlePointer(ev)
		require.NoError(t, err)
		outcomes = append(outcomes, outcome)
	}
	reg.Wait()

	assert.Equal(t, []Outcome{Recorded, Recorded, Dropped, Recorded}, outcomes)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("zero_elapsed")))

	pointers := sink.pointerEvents()
	require.Len(t, pointers, 3)

	var moves []models.PointerEvent
	var clicks []models.PointerEvent
	for _, p := range pointers {
		if p.Kind == models.PointerMove {
			moves = append(moves, p)
		} else {
			clicks = append(clicks, p)
		}
	}
	byTimestamp(moves, func(e models.PointerEvent) models.Millis { return e.Timestamp })

	require.Len(t, moves, 2)
	assert.Equal(t, 0.0, *moves[0].Speed)
	assert.Equal(t, 0.0, *moves[0].Acceleration)
	assert.InDelta(t, 0.5, *moves[1].Speed, 1e-12)
	assert.Equal(t, 0.0, *moves[1].Acceleration)

	require.Len(t, clicks, 1)
	assert.Nil(t, clicks[0].Speed, "clicks carry no kinematics")
	assert.Nil(t, clicks[0].Acceleration)
}

func TestRecorderWriteFailureDoesNotStopCapture(t *testing.T) {
	sink := &memorySink{failKeys: true}
	metrics := monitoring.New(nil)
	reg := newTestRegistry(t, sink, Options{Metrics: metrics})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	_, err = rec.HandleKey(RawKey{Key: "a", Kind: models.KeyDown, Timestamp: 1})
	require.NoError(t, err)
	_, err = rec.HandleKey(RawKey{Key: "a", Kind: models.KeyUp, Timestamp: 2})
	require.NoError(t, err)

	outcome, err := rec.HandlePointer(RawPointer{X: 1, Y: 1, Kind: models.PointerClick, Timestamp: 3})
	require.NoError(t, err)
	assert.Equal(t, Recorded, outcome)

	reg.Wait()
	assert.Empty(t, sink.keyEvents())
	assert.Len(t, sink.pointerEvents(), 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.WriteFailures.WithLabelValues("key_events")))
	assert.Equal(t, StateCapturing, rec.State())
}

func TestRecorderCaptureNotBlockedByPendingWrites(t *testing.T) {
	sink := &memorySink{block: make(chan struct{})}
	metrics := monitoring.New(nil)
	reg := newTestRegistry(t, sink, Options{Metrics: metrics, MaxOutstandingWrites: 1})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_, _ = rec.HandleKey(RawKey{Key: "x", Kind: models.KeyDown, Timestamp: models.Millis(i * 10)})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("capture blocked on pending writes")
	}
	assert.Equal(t, 20.0, testutil.ToFloat64(metrics.OutstandingWrites))

	close(sink.block)
	reg.Wait()
	assert.Len(t, sink.keyEvents(), 20)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.OutstandingWrites))
}

func TestRecorderRejectsUnknownKinds(t *testing.T) {
	reg := newTestRegistry(t, &memorySink{}, Options{})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	_, err = rec.HandleKey(RawKey{Key: "a", Kind: "press", Timestamp: 1})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = rec.HandlePointer(RawPointer{Kind: "wheel", Timestamp: 1})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestRecorderComplete(t *testing.T) {
	sink := &memorySink{}
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := newTestRegistry(t, sink, Options{Clock: clock})

	rec, err := reg.Attach("sess-1", models.TaskBrowsing)
	require.NoError(t, err)

	now = now.Add(42 * time.Second)
	completion, err := rec.Complete(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42000), completion.Duration)
	assert.Equal(t, models.TaskBrowsing, completion.TaskType)

	_, err = rec.Complete(context.Background(), 10)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	require.Len(t, sink.completions, 1)
}

func TestRecorderCompleteUsesClientDuration(t *testing.T) {
	sink := &memorySink{}
	reg := newTestRegistry(t, sink, Options{})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	completion, err := rec.Complete(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), completion.Duration)
}

func TestRecorderCompleteFailureCanBeRetried(t *testing.T) {
	sink := &memorySink{failCompletions: true}
	reg := newTestRegistry(t, sink, Options{})
	rec, err := reg.Attach("sess-1", models.TaskForm)
	require.NoError(t, err)

	_, err = rec.Complete(context.Background(), 100)
	require.ErrorIs(t, err, errStoreDown)

	sink.mu.Lock()
	sink.failCompletions = false
	sink.mu.Unlock()

	_, err = rec.Complete(context.Background(), 100)
	require.NoError(t, err)
}
