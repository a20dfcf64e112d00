// internal/workers/delivery/redeliver-events/handler.go
package redeliverevents

import (
	"context"
	"time"

	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/common/metrics"
	"provider-enrollment/internal/services/retryqueue"
	"provider-enrollment/internal/services/warehouse"
)

const (
	TaskType = "redeliver-events"
)

// EntryQueue is the subset of the Redis retry queue used by a sweep.
type EntryQueue interface {
	Claim(ctx context.Context) (*retryqueue.Entry, error)
	Ack(ctx context.Context, entry *retryqueue.Entry) error
	Requeue(ctx context.Context, entry *retryqueue.Entry, reason string) error
	DeadLetter(ctx context.Context, entry *retryqueue.Entry, reason string) error
	RecoverProcessing(ctx context.Context) (int, error)
	Depth(ctx context.Context) (*retryqueue.Depth, error)
}

type Resender interface {
	SendWithRetries(ctx context.Context, event interface{}, endpoint string, maxRetries int) *warehouse.Result
}

type Handler struct {
	config *Config
	queue  EntryQueue
	sender Resender
	logger logger.Logger
}

func NewHandler(config *Config, queue EntryQueue, sender Resender, log logger.Logger) *Handler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 10
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Handler{
		config: config,
		queue:  queue,
		sender: sender,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Run sweeps the queue every interval until ctx is done. Entries left in
// processing by a previous process are returned to pending first.
func (h *Handler) Run(ctx context.Context) error {
	recovered, err := h.queue.RecoverProcessing(ctx)
	if err != nil {
		h.logger.Error("failed to recover in-flight entries", map[string]interface{}{"error": err})
	} else if recovered > 0 {
		h.logger.Info("recovered in-flight entries", map[string]interface{}{"count": recovered})
	}

	ticker := time.NewTicker(h.config.Interval)
	defer ticker.Stop()

	h.logger.Info("redelivery worker started", map[string]interface{}{
		"interval":    h.config.Interval.String(),
		"batchSize":   h.config.BatchSize,
		"maxAttempts": h.config.MaxAttempts,
	})

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("redelivery worker stopped", nil)
			return nil
		case <-ticker.C:
			h.Sweep(ctx)
		}
	}
}

// Sweep processes up to BatchSize pending entries. Only entries pending when
// the sweep starts are claimed; requeued entries wait for the next tick.
func (h *Handler) Sweep(ctx context.Context) *SweepResult {
	result := &SweepResult{}

	limit := h.config.BatchSize
	depth, err := h.queue.Depth(ctx)
	if err != nil {
		h.logger.Warn("failed to read queue depth", map[string]interface{}{"error": err})
		return result
	}
	if int(depth.Pending) < limit {
		limit = int(depth.Pending)
	}

	for result.Claimed < limit {
		if ctx.Err() != nil {
			break
		}

		entry, err := h.queue.Claim(ctx)
		if err != nil {
			h.logger.Error("failed to claim queued event", map[string]interface{}{"error": err})
			metrics.WarehouseRedeliveries.WithLabelValues(OutcomeError).Inc()
			break
		}
		if entry == nil {
			break
		}
		result.Claimed++

		switch h.redeliver(ctx, entry) {
		case OutcomeDelivered:
			result.Delivered++
		case OutcomeRequeued:
			result.Requeued++
		case OutcomeDeadLettered:
			result.DeadLettered++
		}
	}

	h.recordDepth(ctx)

	if result.Claimed > 0 {
		h.logger.Info("redelivery sweep completed", map[string]interface{}{
			"claimed":      result.Claimed,
			"delivered":    result.Delivered,
			"requeued":     result.Requeued,
			"deadLettered": result.DeadLettered,
		})
	}
	return result
}

func (h *Handler) redeliver(ctx context.Context, entry *retryqueue.Entry) string {
	fields := map[string]interface{}{
		"entryId":  entry.ID,
		"endpoint": entry.Endpoint,
		"attempts": entry.Attempts,
	}

	res := h.sender.SendWithRetries(ctx, entry.Payload, entry.Endpoint, h.config.MaxRetries)
	if res.Success {
		if err := h.queue.Ack(ctx, entry); err != nil {
			fields["error"] = err
			h.logger.Error("delivered event could not be acknowledged", fields)
		}
		metrics.WarehouseRedeliveries.WithLabelValues(OutcomeDelivered).Inc()
		return OutcomeDelivered
	}

	reason := res.Error
	if res.Details != "" {
		reason = res.Error + ": " + res.Details
	}
	fields["reason"] = reason

	if entry.Attempts+1 >= h.config.MaxAttempts {
		if err := h.queue.DeadLetter(ctx, entry, reason); err != nil {
			fields["error"] = err
			h.logger.Error("failed to dead-letter event", fields)
			metrics.WarehouseRedeliveries.WithLabelValues(OutcomeError).Inc()
			return OutcomeError
		}
		h.logger.Warn("event moved to dead letter list", fields)
		metrics.WarehouseRedeliveries.WithLabelValues(OutcomeDeadLettered).Inc()
		return OutcomeDeadLettered
	}

	if err := h.queue.Requeue(ctx, entry, reason); err != nil {
		fields["error"] = err
		h.logger.Error("failed to requeue event", fields)
		metrics.WarehouseRedeliveries.WithLabelValues(OutcomeError).Inc()
		return OutcomeError
	}
	h.logger.Debug("redelivery failed, requeued", fields)
	metrics.WarehouseRedeliveries.WithLabelValues(OutcomeRequeued).Inc()
	return OutcomeRequeued
}

func (h *Handler) recordDepth(ctx context.Context) {
	depth, err := h.queue.Depth(ctx)
	if err != nil {
		h.logger.Warn("failed to read queue depth", map[string]interface{}{"error": err})
		return
	}
	metrics.WarehouseRetryQueueDepth.WithLabelValues("pending").Set(float64(depth.Pending))
	metrics.WarehouseRetryQueueDepth.WithLabelValues("processing").Set(float64(depth.Processing))
	metrics.WarehouseRetryQueueDepth.WithLabelValues("dead").Set(float64(depth.Dead))
}
