// internal/services/retryqueue/redis.go
package retryqueue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"provider-enrollment/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const (
	PendingKey    = "warehouse:retry:pending"
	ProcessingKey = "warehouse:retry:processing"
	DeadKey       = "warehouse:retry:dead"
	seenKeyPrefix = "warehouse:retry:seen:"
)

var ErrUnknownList = errors.New("unknown queue list")

// enqueueScript marks the entry id seen and pushes the entry in one step, so
// a seen id always has an entry behind it. Returns 0 for a duplicate.
var enqueueScript = redis.NewScript(`
if redis.call("SET", KEYS[1], "1", "NX") then
	redis.call("LPUSH", KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// Entry is one failed delivery waiting for redelivery.
type Entry struct {
	ID         string          `json:"id"`
	Endpoint   string          `json:"endpoint"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	LastError  string          `json:"lastError,omitempty"`

	// raw is the exact list element, needed for LREM.
	raw string
}

// Depth is the length of each queue list.
type Depth struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Dead       int64 `json:"dead"`
}

// RedisQueue is a durable Queue on Redis lists. Entries move
// pending -> processing on Claim, and leave processing via Ack, Requeue or
// DeadLetter.
type RedisQueue struct {
	client redis.Cmdable
	logger logger.Logger
	now    func() time.Time
}

func NewRedisQueue(client redis.Cmdable, log logger.Logger) *RedisQueue {
	return &RedisQueue{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "redis-retry-queue"}),
		now:    time.Now,
	}
}

// EntryID is derived from the endpoint and serialized payload.
func EntryID(endpoint string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (q *RedisQueue) Enqueue(ctx context.Context, endpoint string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	entry := &Entry{
		ID:         EntryID(endpoint, payload),
		Endpoint:   endpoint,
		Payload:    payload,
		EnqueuedAt: q.now().UTC(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pushed, err := enqueueScript.Run(ctx, q.client,
		[]string{seenKeyPrefix + entry.ID, PendingKey}, string(raw)).Int()
	if err != nil {
		return fmt.Errorf("failed to push entry: %w", err)
	}
	if pushed == 0 {
		q.logger.Info("Delivery already queued", map[string]interface{}{
			"id":       entry.ID,
			"endpoint": endpoint,
		})
		return nil
	}

	q.logger.Warn("Queued failed delivery for later retry", map[string]interface{}{
		"id":       entry.ID,
		"endpoint": endpoint,
	})
	return nil
}

// Claim moves the oldest pending entry to processing. It returns nil, nil
// when the queue is empty.
func (q *RedisQueue) Claim(ctx context.Context) (*Entry, error) {
	raw, err := q.client.LMove(ctx, PendingKey, ProcessingKey, "RIGHT", "LEFT").Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim entry: %w", err)
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		// unreadable entries are parked instead of blocking the queue
		_, perr := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, ProcessingKey, 1, raw)
			pipe.LPush(ctx, DeadKey, raw)
			return nil
		})
		if perr != nil {
			return nil, fmt.Errorf("failed to park unreadable entry: %w", errors.Join(err, perr))
		}
		return nil, err
	}
	return entry, nil
}

// Ack removes a delivered entry.
func (q *RedisQueue) Ack(ctx context.Context, entry *Entry) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, ProcessingKey, 1, entry.raw)
		pipe.Del(ctx, seenKeyPrefix+entry.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ack entry %s: %w", entry.ID, err)
	}
	return nil
}

// Requeue returns entry to pending with its attempt count incremented.
func (q *RedisQueue) Requeue(ctx context.Context, entry *Entry, reason string) error {
	return q.move(ctx, entry, PendingKey, reason)
}

// DeadLetter parks entry on the dead list; it is not redelivered again.
func (q *RedisQueue) DeadLetter(ctx context.Context, entry *Entry, reason string) error {
	if err := q.move(ctx, entry, DeadKey, reason); err != nil {
		return err
	}
	if err := q.client.Del(ctx, seenKeyPrefix+entry.ID).Err(); err != nil {
		q.logger.Warn("Failed to release dead-lettered entry id", map[string]interface{}{
			"id":    entry.ID,
			"error": err.Error(),
		})
	}
	return nil
}

func (q *RedisQueue) move(ctx context.Context, entry *Entry, dest, reason string) error {
	next := *entry
	next.Attempts++
	next.LastError = reason

	raw, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, ProcessingKey, 1, entry.raw)
		pipe.LPush(ctx, dest, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to move entry %s to %s: %w", entry.ID, dest, err)
	}

	entry.Attempts = next.Attempts
	entry.LastError = reason
	entry.raw = string(raw)
	return nil
}

// RecoverProcessing returns entries left in processing by an interrupted
// sweep to pending.
func (q *RedisQueue) RecoverProcessing(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, ProcessingKey, PendingKey, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("failed to recover entries: %w", err)
		}
		moved++
	}
}

func (q *RedisQueue) Depth(ctx context.Context) (*Depth, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, PendingKey)
	processing := pipe.LLen(ctx, ProcessingKey)
	dead := pipe.LLen(ctx, DeadKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return &Depth{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Dead:       dead.Val(),
	}, nil
}

// Peek returns up to n entries of list, oldest first, without claiming them.
func (q *RedisQueue) Peek(ctx context.Context, list string, n int) ([]*Entry, error) {
	switch list {
	case PendingKey, ProcessingKey, DeadKey:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownList, list)
	}
	if n <= 0 {
		n = 10
	}

	raws, err := q.client.LRange(ctx, list, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", list, err)
	}

	entries := make([]*Entry, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		entry, err := decodeEntry(raws[i])
		if err != nil {
			q.logger.Warn("Skipping unreadable queue entry", map[string]interface{}{"error": err})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeEntry(raw string) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	entry.raw = raw
	return &entry, nil
}
