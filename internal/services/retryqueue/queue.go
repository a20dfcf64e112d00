// internal/services/retryqueue/queue.go
package retryqueue

import (
	"context"
	"encoding/json"

	"provider-enrollment/internal/common/logger"
)

// Queue records deliveries that exhausted their retries. Enqueue is
// idempotent for the same (endpoint, event) pair; a nil error means the
// entry is recorded.
type Queue interface {
	Enqueue(ctx context.Context, endpoint string, event interface{}) error
}

// LogQueue writes the failed delivery to the log and nothing else.
type LogQueue struct {
	logger logger.Logger
}

func NewLogQueue(log logger.Logger) *LogQueue {
	return &LogQueue{logger: log.WithFields(map[string]interface{}{"component": "retry-queue"})}
}

func (q *LogQueue) Enqueue(ctx context.Context, endpoint string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		q.logger.Warn("Queued failed delivery (unserializable event)", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err,
		})
		return nil
	}

	q.logger.Warn("Queued failed delivery for later retry", map[string]interface{}{
		"endpoint": endpoint,
		"event":    string(payload),
	})
	return nil
}
