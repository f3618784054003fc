package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LastUsedRecorder records successful use of an access key.
type LastUsedRecorder interface {
	// UpdateLastUsed updates the last used timestamp for an access key.
	UpdateLastUsed(ctx context.Context, accessKeyID string) error
}

// LastUsedQueue hands last-used updates to a single background worker so
// requests never wait on the store. When the queue is full the update is
// dropped; the next request from the same key records it again.
type LastUsedQueue struct {
	recorder LastUsedRecorder
	timeout  time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	pending chan string
	done    chan struct{}
}

// NewLastUsedQueue starts a worker that applies up to size queued updates,
// each bounded by timeout.
func NewLastUsedQueue(recorder LastUsedRecorder, size int, timeout time.Duration, logger zerolog.Logger) *LastUsedQueue {
	if size < 1 {
		size = 1
	}
	q := &LastUsedQueue{
		recorder: recorder,
		timeout:  timeout,
		logger:   logger.With().Str("component", "last_used").Logger(),
		pending:  make(chan string, size),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue schedules an update for accessKeyID. It never blocks and reports
// whether the update was queued.
func (q *LastUsedQueue) Enqueue(accessKeyID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.pending <- accessKeyID:
		return true
	default:
		q.logger.Debug().Str("access_key_id", accessKeyID).Msg("Last used queue full, dropping update")
		return false
	}
}

// Close stops accepting updates and waits until queued ones are applied.
// Call it before closing the store.
func (q *LastUsedQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.pending)
	}
	q.mu.Unlock()

	<-q.done
}

func (q *LastUsedQueue) run() {
	defer close(q.done)

	for accessKeyID := range q.pending {
		ctx := context.Background()
		cancel := func() {}
		if q.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, q.timeout)
		}
		if err := q.recorder.UpdateLastUsed(ctx, accessKeyID); err != nil {
			q.logger.Warn().Err(err).Str("access_key_id", accessKeyID).Msg("Failed to update access key last used")
		}
		cancel()
	}
}
