package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

const (
	OpAppendActivity = "append_activity"
)

// PendingOp is one deferred persistence operation.
type PendingOp struct {
	Kind       string          `json:"kind"`
	UserID     uuid.UUID       `json:"user_id"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// OfflineQueue buffers persistence operations while the store is
// unreachable and replays them in original order once it recovers.
type OfflineQueue struct {
	rdb *goredis.Client
	key string
	log *logger.Logger
}

func NewOfflineQueue(rdb *goredis.Client, baseLog *logger.Logger) *OfflineQueue {
	return &OfflineQueue{
		rdb: rdb,
		key: "offline:pending",
		log: baseLog.With("client", "OfflineQueue"),
	}
}

func (q *OfflineQueue) Enqueue(ctx context.Context, op PendingOp) error {
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal pending op: %w", err)
	}
	return q.rdb.RPush(ctx, q.key, raw).Err()
}

func (q *OfflineQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// ReplayPending pops operations in enqueue order and hands them to apply.
// On the first apply failure the op is pushed back to the front so order is
// preserved for the next replay attempt.
func (q *OfflineQueue) ReplayPending(ctx context.Context, apply func(context.Context, PendingOp) error) (int, error) {
	replayed := 0
	for {
		raw, err := q.rdb.LPop(ctx, q.key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return replayed, nil
		}
		if err != nil {
			return replayed, fmt.Errorf("pop pending op: %w", err)
		}

		var op PendingOp
		if err := json.Unmarshal(raw, &op); err != nil {
			q.log.Error("dropping malformed pending op", "error", err)
			continue
		}

		if err := apply(ctx, op); err != nil {
			if pushErr := q.rdb.LPush(ctx, q.key, raw).Err(); pushErr != nil {
				q.log.Error("failed to requeue pending op", "error", pushErr)
			}
			return replayed, fmt.Errorf("apply pending op: %w", err)
		}
		replayed++
	}
}

// PurgeUser drops queued operations for a user (erasure path).
func (q *OfflineQueue) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	raws, err := q.rdb.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("scan pending ops: %w", err)
	}
	for _, raw := range raws {
		var op PendingOp
		if err := json.Unmarshal([]byte(raw), &op); err != nil {
			continue
		}
		if op.UserID == userID {
			if err := q.rdb.LRem(ctx, q.key, 1, raw).Err(); err != nil {
				return fmt.Errorf("remove pending op: %w", err)
			}
		}
	}
	return nil
}
