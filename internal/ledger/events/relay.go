package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"

	"idledger/internal/ledger/metrics"
	"idledger/internal/ledger/models"
	"idledger/pkg/platform/circuit"
)

// Outbox is the unpublished tail of the ledger event log.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]*models.Event, error)
	MarkPublished(ctx context.Context, sequences []uint64, at time.Time) error
}

// ErrSinkUnavailable is returned when a sink's breaker is open.
var ErrSinkUnavailable = errors.New("sink unavailable")

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 100
)

// Relay drains the outbox to every configured sink in sequence order.
//
// A batch is marked published only after every sink accepted it. A sink
// failure stops the batch and it is retried on the next tick, so delivery is
// at-least-once and consumers deduplicate by event id.
type Relay struct {
	outbox   Outbox
	sinks    []Sink
	breakers map[string]*circuit.Breaker
	interval time.Duration
	batch    int
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	// tick serializes runs; cron may fire while a slow batch is in flight.
	tick sync.Mutex
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithBreakerOptions configures the per-sink circuit breakers.
func WithBreakerOptions(opts ...circuit.Option) Option {
	return func(r *Relay) {
		for name := range r.breakers {
			r.breakers[name] = circuit.New(name, opts...)
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

// NewRelay constructs a Relay. At least one sink is required.
func NewRelay(outbox Outbox, sinks []Sink, opts ...Option) (*Relay, error) {
	if outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if len(sinks) == 0 {
		return nil, errors.New("at least one sink is required")
	}
	r := &Relay{
		outbox:   outbox,
		sinks:    sinks,
		breakers: make(map[string]*circuit.Breaker, len(sinks)),
		interval: defaultInterval,
		batch:    defaultBatchSize,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, s := range sinks {
		r.breakers[s.Name()] = circuit.New(s.Name())
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run schedules RunOnce every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	c := cron.New()
	spec := fmt.Sprintf("@every %s", r.interval)
	if err := c.AddFunc(spec, func() { r.runTick(ctx) }); err != nil {
		return fmt.Errorf("schedule outbox relay: %w", err)
	}
	r.logger.InfoContext(ctx, "outbox relay started",
		"interval", r.interval.String(),
		"batch_size", r.batch,
		"sinks", r.sinkNames(),
	)
	c.Start()
	<-ctx.Done()
	c.Stop()

	// Final drain with a fresh deadline so events committed just before
	// shutdown are not left for the next process.
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	r.runTick(drainCtx)
	r.logger.InfoContext(ctx, "outbox relay stopped")
	return nil
}

func (r *Relay) runTick(ctx context.Context) {
	for {
		n, err := r.RunOnce(ctx)
		if err != nil {
			if !errors.Is(err, ErrSinkUnavailable) {
				r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
			}
			return
		}
		if n < r.batch {
			return
		}
	}
}

// RunOnce publishes at most one batch and returns how many events were
// delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	r.tick.Lock()
	defer r.tick.Unlock()

	for _, s := range r.sinks {
		if !r.breakers[s.Name()].Allow() {
			return 0, fmt.Errorf("%s: %w", s.Name(), ErrSinkUnavailable)
		}
	}

	batch, err := r.outbox.ListUnpublished(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("read outbox: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	for _, s := range r.sinks {
		breaker := r.breakers[s.Name()]
		if err := s.Publish(ctx, batch); err != nil {
			if _, change := breaker.RecordFailure(); change.Opened {
				r.logger.ErrorContext(ctx, "outbox sink circuit opened",
					"sink", s.Name(),
					"error", err,
				)
			}
			return 0, fmt.Errorf("publish to %s: %w", s.Name(), err)
		}
		if _, change := breaker.RecordSuccess(); change.Closed {
			r.logger.InfoContext(ctx, "outbox sink circuit closed", "sink", s.Name())
		}
	}

	sequences := make([]uint64, len(batch))
	for i, e := range batch {
		sequences[i] = e.Sequence
	}
	if err := r.outbox.MarkPublished(ctx, sequences, r.now()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	if r.metrics != nil {
		for _, s := range r.sinks {
			r.metrics.AddOutboxPublished(s.Name(), len(batch))
		}
	}
	r.logger.DebugContext(ctx, "outbox batch published",
		"count", len(batch),
		"first_sequence", sequences[0],
		"last_sequence", sequences[len(sequences)-1],
	)
	return len(batch), nil
}

func (r *Relay) sinkNames() []string {
	names := make([]string, len(r.sinks))
	for i, s := range r.sinks {
		names[i] = s.Name()
	}
	return names
}
