// Package checker drives one window aggregator per analysis run from bus events.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
	"github.com/zamyatin-zkex/cancelwatch/internal/event"
	"github.com/zamyatin-zkex/cancelwatch/internal/metrics"
	"github.com/zamyatin-zkex/cancelwatch/internal/service/aggregator"
	"github.com/zamyatin-zkex/cancelwatch/pkg/ebus"
)

type ResultStore interface {
	Store(ctx context.Context, result entity.Classification) error
}

// Checker serializes bus deliveries into its aggregator. A run ends on
// StreamFinished; the next record after that starts a new run, so the
// finished run stays queryable until then.
type Checker struct {
	mx sync.Mutex

	policy    aggregator.Policy
	agg       *aggregator.Aggregator
	runID     uuid.UUID
	startedAt time.Time
	processed int64
	rejected  int64
	finished  bool

	last    entity.Classification
	hasLast bool

	stores []ResultStore
	eBus   *ebus.EBus
	log    *slog.Logger
}

func NewChecker(policy aggregator.Policy, eBus *ebus.EBus, log *slog.Logger) *Checker {
	c := &Checker{
		policy: policy,
		eBus:   eBus,
		log:    log,
	}
	c.reset()
	return c
}

func (c *Checker) AddStore(store ResultStore) *Checker {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.stores = append(c.stores, store)
	return c
}

func (c *Checker) HandleOrder(ctx context.Context, received event.OrderReceived) error {
	c.mx.Lock()
	if c.finished {
		c.reset()
	}
	if c.startedAt.IsZero() {
		c.startedAt = time.Now()
	}
	step := c.agg.Process(received.Order)
	c.processed++
	runID := c.runID
	c.mx.Unlock()

	metrics.OrdersTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.TransitionsTotal.WithLabelValues(step.Transition.String()).Inc()

	if step.Transition != aggregator.Flagged {
		return nil
	}

	return c.flagged(ctx, runID, step)
}

func (c *Checker) HandleReject(ctx context.Context, rejected event.OrderRejected) error {
	c.mx.Lock()
	if c.finished {
		c.reset()
	}
	c.rejected++
	c.mx.Unlock()

	metrics.OrdersTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
	c.log.Debug("record skipped", "offset", rejected.Offset, "reason", rejected.Reason)

	return nil
}

func (c *Checker) HandleEnd(ctx context.Context, finished event.StreamFinished) error {
	c.mx.Lock()
	if c.finished {
		// back-to-back end markers: the second run is empty
		c.reset()
	}

	flags := c.agg.Flush()
	res := c.agg.Result()
	result := entity.Classification{
		RunID:       c.runID,
		Excessive:   res.Excessive,
		WellBehaved: res.WellBehavedCount(),
		Companies:   len(res.Companies),
		Processed:   c.processed,
		Rejected:    c.rejected,
		Offset:      finished.Offset,
		FinishedAt:  time.Now().UTC(),
	}
	c.finished = true
	c.last = result
	c.hasLast = true
	stats := c.statsLocked()
	startedAt := c.startedAt
	c.mx.Unlock()

	metrics.RunsTotal.Inc()
	if !startedAt.IsZero() {
		metrics.RunDuration.Observe(time.Since(startedAt).Seconds())
	}

	for _, step := range flags {
		metrics.TransitionsTotal.WithLabelValues(step.Transition.String()).Inc()
		if err := c.flagged(ctx, result.RunID, step); err != nil {
			return err
		}
	}

	if err := c.eBus.Notify(ctx, event.StatsUpdated{Stats: stats}); err != nil {
		return fmt.Errorf("notify stats: %w", err)
	}

	for _, store := range c.stores {
		if err := store.Store(ctx, result); err != nil {
			return fmt.Errorf("store result %s: %w", result.RunID, err)
		}
	}

	c.log.Info("run finished",
		"run", result.RunID,
		"companies", result.Companies,
		"excessive", len(result.Excessive),
		"processed", result.Processed,
		"rejected", result.Rejected,
	)

	return c.eBus.Notify(ctx, event.ResultPublished{Result: result})
}

func (c *Checker) Stats() entity.Stats {
	c.mx.Lock()
	defer c.mx.Unlock()

	return c.statsLocked()
}

// Result returns the classification of the last finished run.
func (c *Checker) Result() (entity.Classification, bool) {
	c.mx.Lock()
	defer c.mx.Unlock()

	return c.last, c.hasLast
}

func (c *Checker) flagged(ctx context.Context, runID uuid.UUID, step aggregator.Step) error {
	metrics.CompaniesFlaggedTotal.Inc()

	flag := event.CompanyFlagged{
		RunID:       runID,
		Company:     step.Company,
		WindowStart: step.Window.Start,
		Total:       step.Window.Total,
		Cancelled:   step.Window.Cancelled,
		Ratio:       step.Window.Ratio(),
	}

	c.log.Info("company flagged",
		"company", flag.Company,
		"window_start", flag.WindowStart,
		"total", flag.Total,
		"cancelled", flag.Cancelled,
		"ratio", flag.Ratio.StringFixed(4),
	)

	if err := c.eBus.Notify(ctx, flag); err != nil {
		return fmt.Errorf("notify flag %s: %w", step.Company, err)
	}

	return nil
}

func (c *Checker) statsLocked() entity.Stats {
	res := c.agg.Result()

	return entity.Stats{
		RunID:       c.runID,
		Excessive:   res.Excessive,
		WellBehaved: res.WellBehavedCount(),
		Companies:   len(res.Companies),
		Processed:   c.processed,
		Rejected:    c.rejected,
		Finished:    c.finished,
		Windows:     c.agg.Windows(),
	}
}

func (c *Checker) reset() {
	c.agg = aggregator.New(c.policy)
	c.runID = uuid.New()
	c.startedAt = time.Time{}
	c.processed = 0
	c.rejected = 0
	c.finished = false
}
