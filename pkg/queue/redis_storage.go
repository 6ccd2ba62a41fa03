package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "memberkit:queue:"
	taskKeyFmt    = keyPrefix + "task:%s"
	pendingKeyFmt = keyPrefix + "pending:%s"
	processingKey = keyPrefix + "processing"
	completedKey  = keyPrefix + "completed"
	dlqKeyFmt     = keyPrefix + "dlq:%s"
	dlqIndexKey   = keyPrefix + "dlq"

	dlqIndexMaxKept = 10000
)

// claimScript atomically pops the earliest due task id from a pending
// sorted set and parks it in the processing set scored by lock expiry.
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #ids == 0 then
	return false
end
redis.call('ZREM', KEYS[1], ids[1])
redis.call('ZADD', KEYS[2], ARGV[2], ids[1])
return ids[1]
`)

// RedisStorage implements both queue repository interfaces on Redis.
//
// Layout: each task is a JSON value under its own key; pending tasks per
// queue live in a sorted set scored by ScheduledAt; processing tasks live
// in one sorted set scored by lock expiry. Completed tasks get a TTL and
// a capped index list; dead tasks get a longer TTL.
type RedisStorage struct {
	client *redis.Client

	janitorCancel context.CancelFunc
}

// NewRedisClient builds a go-redis client from configuration. No
// connection attempt is made here: the Broker owns reachability, and an
// unreachable backend at startup just means starting in direct-delivery
// mode.
func NewRedisClient(cfg Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// NewRedisStorage creates a Redis-backed task repository and starts its
// lock-recovery janitor.
func NewRedisStorage(client *redis.Client) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrRepositoryNil
	}

	rs := &RedisStorage{client: client}

	ctx, cancel := context.WithCancel(context.Background())
	rs.janitorCancel = cancel
	go rs.runJanitor(ctx)

	return rs, nil
}

// Ping returns a broker liveness probe bound to this storage's client.
func (rs *RedisStorage) Ping() PingFunc {
	return func(ctx context.Context) error {
		return rs.client.Ping(ctx).Err()
	}
}

// Close stops the background janitor. The Redis client itself is owned by
// the caller.
func (rs *RedisStorage) Close() error {
	rs.janitorCancel()
	return nil
}

// CreateTask implements EnqueuerRepository.
func (rs *RedisStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, taskKey(task.ID), data, 0)
	pipe.ZAdd(ctx, pendingKey(task.Queue), redis.Z{
		Score:  float64(task.ScheduledAt.UnixMilli()),
		Member: task.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}

	return nil
}

// ClaimTask implements WorkerRepository. Queues are tried in order; the
// claim itself is atomic per queue.
func (rs *RedisStorage) ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	now := time.Now()
	lockUntil := now.Add(lockDuration)

	for _, queue := range queues {
		res, err := claimScript.Run(ctx, rs.client,
			[]string{pendingKey(queue), processingKey},
			now.UnixMilli(), lockUntil.UnixMilli(),
		).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("claim script failed: %w", err)
		}

		id, err := uuid.Parse(res.(string))
		if err != nil {
			return nil, fmt.Errorf("malformed task id in queue %q: %w", queue, err)
		}

		task, err := rs.getTask(ctx, id)
		if err != nil {
			return nil, err
		}

		task.Status = TaskStatusProcessing
		task.LockedUntil = &lockUntil
		task.LockedBy = &workerID
		if err := rs.putTask(ctx, task, 0); err != nil {
			return nil, err
		}

		return task, nil
	}

	return nil, ErrNoTaskToClaim
}

// CompleteTask implements WorkerRepository. Completed tasks expire after
// the retention window; the index list is capped, and entries trimmed off
// it still expire via their TTL.
func (rs *RedisStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := rs.getTask(ctx, taskID)
	if err != nil {
		return err
	}

	now := time.Now()
	task.Status = TaskStatusCompleted
	task.ProcessedAt = &now
	task.LockedUntil = nil
	task.LockedBy = nil

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, taskKey(taskID), data, CompletedTaskRetention)
	pipe.ZRem(ctx, processingKey, taskID.String())
	pipe.LPush(ctx, completedKey, taskID.String())
	pipe.LTrim(ctx, completedKey, 0, CompletedTaskMaxKept-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	return nil
}

// FailTask implements WorkerRepository.
func (rs *RedisStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error {
	task, err := rs.getTask(ctx, taskID)
	if err != nil {
		return err
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil

	pipe := rs.client.TxPipeline()
	pipe.ZRem(ctx, processingKey, taskID.String())

	if task.RetryCount >= task.MaxRetries {
		task.Status = TaskStatusFailed
	} else {
		task.Status = TaskStatusPending
		task.ScheduledAt = time.Now().Add(retryBackoff(task.RetryCount))
		pipe.ZAdd(ctx, pendingKey(task.Queue), redis.Z{
			Score:  float64(task.ScheduledAt.UnixMilli()),
			Member: taskID.String(),
		})
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	pipe.Set(ctx, taskKey(taskID), data, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record task failure: %w", err)
	}

	return nil
}

// MoveToDLQ implements WorkerRepository.
func (rs *RedisStorage) MoveToDLQ(ctx context.Context, taskID uuid.UUID) error {
	task, err := rs.getTask(ctx, taskID)
	if err != nil {
		return err
	}

	entry := DeadTask{
		ID:         uuid.New(),
		TaskID:     task.ID,
		Queue:      task.Queue,
		TaskName:   task.TaskName,
		Payload:    task.Payload,
		RetryCount: task.RetryCount,
		FailedAt:   time.Now(),
		CreatedAt:  task.CreatedAt,
	}
	if task.Error != nil {
		entry.Error = *task.Error
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead task: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, fmt.Sprintf(dlqKeyFmt, entry.ID), data, DeadTaskRetention)
	pipe.LPush(ctx, dlqIndexKey, entry.ID.String())
	pipe.LTrim(ctx, dlqIndexKey, 0, dlqIndexMaxKept-1)
	pipe.Del(ctx, taskKey(taskID))
	pipe.ZRem(ctx, processingKey, taskID.String())
	pipe.ZRem(ctx, pendingKey(task.Queue), taskID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to move task to DLQ: %w", err)
	}

	return nil
}

// ExtendLock implements WorkerRepository.
func (rs *RedisStorage) ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error {
	task, err := rs.getTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != TaskStatusProcessing {
		return fmt.Errorf("task %s is not in processing state", taskID)
	}

	lockUntil := time.Now().Add(duration)
	task.LockedUntil = &lockUntil

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, taskKey(taskID), data, 0)
	pipe.ZAdd(ctx, processingKey, redis.Z{
		Score:  float64(lockUntil.UnixMilli()),
		Member: taskID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}

	return nil
}

func (rs *RedisStorage) getTask(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	data, err := rs.client.Get(ctx, taskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task %s: %w", taskID, err)
	}
	return &task, nil
}

func (rs *RedisStorage) putTask(ctx context.Context, task *Task, ttl time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := rs.client.Set(ctx, taskKey(task.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}
	return nil
}

// runJanitor returns expired-lock tasks to their pending queue so work
// claimed by a crashed worker is not lost. The reschedule is not atomic
// with the scan; a task briefly seen twice is claimed once because the
// claim itself is.
func (rs *RedisStorage) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.recoverExpiredLocks(ctx)
		}
	}
}

func (rs *RedisStorage) recoverExpiredLocks(ctx context.Context) {
	now := time.Now().UnixMilli()

	ids, err := rs.client.ZRangeByScore(ctx, processingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now),
	}).Result()
	if err != nil {
		return
	}

	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			_ = rs.client.ZRem(ctx, processingKey, raw).Err()
			continue
		}

		task, err := rs.getTask(ctx, id)
		if err != nil {
			_ = rs.client.ZRem(ctx, processingKey, raw).Err()
			continue
		}

		task.Status = TaskStatusPending
		task.LockedUntil = nil
		task.LockedBy = nil

		data, err := json.Marshal(task)
		if err != nil {
			continue
		}

		pipe := rs.client.TxPipeline()
		pipe.Set(ctx, taskKey(id), data, 0)
		pipe.ZRem(ctx, processingKey, raw)
		pipe.ZAdd(ctx, pendingKey(task.Queue), redis.Z{
			Score:  float64(task.ScheduledAt.UnixMilli()),
			Member: raw,
		})
		_, _ = pipe.Exec(ctx)
	}
}

func taskKey(id uuid.UUID) string {
	return fmt.Sprintf(taskKeyFmt, id)
}

func pendingKey(queue string) string {
	return fmt.Sprintf(pendingKeyFmt, queue)
}
