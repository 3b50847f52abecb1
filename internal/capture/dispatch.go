package capture

import (
	"context"
	"sync"

	"keytrace/internal/monitoring"

	"go.uber.org/zap"
)

// Dispatcher issues store appends without blocking the caller.
// With a positive limit at most that many appends run at once; the rest wait in their
// own goroutine, so capture is never held up by a slow store.
type Dispatcher struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// NewDispatcher creates a dispatcher. maxOutstanding <= 0 means unbounded.
func NewDispatcher(maxOutstanding int, log *zap.Logger, metrics *monitoring.Metrics) *Dispatcher {
	d := &Dispatcher{log: log, metrics: metrics}
	if maxOutstanding > 0 {
		d.sem = make(chan struct{}, maxOutstanding)
	}
	return d
}

// Go runs write in the background. A failed write is logged and counted; it is never retried.
// Writes are not tied to any request context and have no deadline.
func (d *Dispatcher) Go(collection string, write func(ctx context.Context) error, fields ...zap.Field) {
	d.wg.Add(1)
	d.metrics.OutstandingWrites.Inc()

	go func() {
		defer d.wg.Done()
		defer d.metrics.OutstandingWrites.Dec()

		if d.sem != nil {
			d.sem <- struct{}{}
			defer func() { <-d.sem }()
		}

		if err := write(context.Background()); err != nil {
			d.metrics.WriteFailures.WithLabelValues(collection).Inc()
			d.log.Error("Failed to append telemetry record",
				append(fields, zap.String("collection", collection), zap.Error(err))...)
		}
	}()
}

// Wait blocks until every dispatched write has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
