package redeliverevents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/services/retryqueue"
	"provider-enrollment/internal/services/warehouse"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

type fixture struct {
	queue  *retryqueue.RedisQueue
	status atomic.Int32

	mu       sync.Mutex
	received []map[string]interface{}
	server   *httptest.Server
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{queue: retryqueue.NewRedisQueue(client, logger.NewTestLogger(t))}
	f.status.Store(http.StatusOK)
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.received = append(f.received, body)
		f.mu.Unlock()
		w.WriteHeader(int(f.status.Load()))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) handler(t *testing.T, cfg *Config) *Handler {
	client := warehouse.NewClient(warehouse.Config{
		BaseURL: f.server.URL + "/api/events",
		Backoff: time.Millisecond,
		Timeout: time.Second,
	}, logger.NewTestLogger(t))
	return NewHandler(cfg, f.queue, client, logger.NewTestLogger(t))
}

func (f *fixture) deliveries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func (f *fixture) enqueue(t *testing.T, ids ...string) {
	for _, id := range ids {
		require.NoError(t, f.queue.Enqueue(context.Background(), "provider-enrollment",
			map[string]string{"id": id, "status": "Approved"}))
	}
}

func (f *fixture) depth(t *testing.T) *retryqueue.Depth {
	d, err := f.queue.Depth(context.Background())
	require.NoError(t, err)
	return d
}

// ==========================
// Sweep
// ==========================

func TestSweep_DeliversAndAcks(t *testing.T) {
	f := setup(t)
	f.enqueue(t, "app-1", "app-2")

	res := f.handler(t, &Config{BatchSize: 10}).Sweep(context.Background())

	assert.Equal(t, &SweepResult{Claimed: 2, Delivered: 2}, res)
	assert.Equal(t, 2, f.deliveries())
	// oldest first
	assert.Equal(t, "app-1", f.received[0]["id"])

	d := f.depth(t)
	assert.Zero(t, d.Pending)
	assert.Zero(t, d.Processing)
	assert.Zero(t, d.Dead)
}

func TestSweep_FailureRequeuesWithAttempt(t *testing.T) {
	f := setup(t)
	f.status.Store(http.StatusBadGateway)
	f.enqueue(t, "app-1")

	res := f.handler(t, &Config{BatchSize: 10, MaxAttempts: 5}).Sweep(context.Background())
	assert.Equal(t, 1, res.Requeued)

	entries, err := f.queue.Peek(context.Background(), retryqueue.PendingKey, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Attempts)
	assert.Contains(t, entries[0].LastError, "unexpected status 502")
}

func TestSweep_RequeuedEntryIsNotRetriedInSameSweep(t *testing.T) {
	f := setup(t)
	f.status.Store(http.StatusServiceUnavailable)
	f.enqueue(t, "app-1")

	h := f.handler(t, &Config{BatchSize: 10, MaxAttempts: 5})

	res := h.Sweep(context.Background())
	assert.Equal(t, &SweepResult{Claimed: 1, Requeued: 1}, res)
	assert.Equal(t, 1, f.deliveries())

	res = h.Sweep(context.Background())
	assert.Equal(t, &SweepResult{Claimed: 1, Requeued: 1}, res)
	assert.Equal(t, 2, f.deliveries())
}

func TestSweep_DeadLettersAfterMaxAttempts(t *testing.T) {
	f := setup(t)
	f.status.Store(http.StatusInternalServerError)
	f.enqueue(t, "app-1")

	res := f.handler(t, &Config{BatchSize: 10, MaxAttempts: 1}).Sweep(context.Background())
	assert.Equal(t, &SweepResult{Claimed: 1, DeadLettered: 1}, res)

	d := f.depth(t)
	assert.Zero(t, d.Pending)
	assert.EqualValues(t, 1, d.Dead)
}

func TestSweep_RespectsBatchSize(t *testing.T) {
	f := setup(t)
	f.enqueue(t, "app-1", "app-2", "app-3")

	res := f.handler(t, &Config{BatchSize: 2}).Sweep(context.Background())
	assert.Equal(t, 2, res.Delivered)
	assert.EqualValues(t, 1, f.depth(t).Pending)
}

func TestSweep_EmptyQueue(t *testing.T) {
	f := setup(t)
	res := f.handler(t, &Config{}).Sweep(context.Background())
	assert.Equal(t, &SweepResult{}, res)
	assert.Zero(t, f.deliveries())
}

// ==========================
// Run
// ==========================

func TestRun_RecoversInFlightAndStops(t *testing.T) {
	f := setup(t)
	f.enqueue(t, "app-1")

	// simulate a sweep interrupted after claiming
	entry, err := f.queue.Claim(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.EqualValues(t, 1, f.depth(t).Processing)

	h := f.handler(t, &Config{Interval: 10 * time.Millisecond, BatchSize: 5})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool { return f.deliveries() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	d := f.depth(t)
	assert.Zero(t, d.Pending)
	assert.Zero(t, d.Processing)
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler(&Config{MaxRetries: -1}, nil, nil, logger.NewNoOpLogger())
	assert.Equal(t, time.Minute, h.config.Interval)
	assert.Equal(t, 50, h.config.BatchSize)
	assert.Equal(t, 10, h.config.MaxAttempts)
	assert.Zero(t, h.config.MaxRetries)
}
