package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/webitel/event-exporter/internal/model"
)

const (
	queueKey  = "event_exporter:export_queue"
	statusTTL = 24 * time.Hour
	popWait   = 2 * time.Second
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Ping Redis to check the connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cannot connect to Redis at %s: %w", addr, err)
	}

	return &RedisCache{client: rdb}, nil
}

func (r *RedisCache) Exists(taskID string) (bool, error) {
	count, err := r.client.Exists(context.Background(), statusKey(taskID)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RedisCache) PushExportTask(task model.ExportTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal export task: %w", err)
	}
	return r.client.LPush(context.Background(), queueKey, payload).Err()
}

// PopExportTask blocks for a short period and returns an error when the
// queue stays empty, so worker loops can back off and re-check shutdown.
func (r *RedisCache) PopExportTask() (model.ExportTask, error) {
	var task model.ExportTask
	res, err := r.client.BRPop(context.Background(), popWait, queueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return task, fmt.Errorf("queue empty (timeout)")
		}
		return task, err
	}
	if len(res) < 2 {
		return task, fmt.Errorf("malformed BRPOP reply")
	}
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return task, fmt.Errorf("unmarshal export task: %w", err)
	}
	return task, nil
}

func (r *RedisCache) SetExportStatus(taskID, status string) error {
	return r.client.Set(context.Background(), statusKey(taskID), status, statusTTL).Err()
}

func (r *RedisCache) GetExportStatus(taskID string) (string, error) {
	return r.client.Get(context.Background(), statusKey(taskID)).Result()
}

func (r *RedisCache) SetExportFile(taskID, path string) error {
	return r.client.Set(context.Background(), fileKey(taskID), path, statusTTL).Err()
}

func (r *RedisCache) GetExportFile(taskID string) (string, error) {
	return r.client.Get(context.Background(), fileKey(taskID)).Result()
}

func (r *RedisCache) SetExportHistoryID(taskID string, historyID int64) error {
	return r.client.Set(context.Background(), historyKey(taskID), historyID, statusTTL).Err()
}

func (r *RedisCache) GetExportHistoryID(taskID string) (int64, error) {
	return r.client.Get(context.Background(), historyKey(taskID)).Int64()
}

func (r *RedisCache) ClearExportTask(taskID string) error {
	return r.client.Del(context.Background(), statusKey(taskID), fileKey(taskID), historyKey(taskID)).Err()
}

// helpers to standardize keys
func statusKey(taskID string) string { return fmt.Sprintf("event_exporter:status:%s", taskID) }

func fileKey(taskID string) string { return fmt.Sprintf("event_exporter:file:%s", taskID) }

func historyKey(taskID string) string { return fmt.Sprintf("event_exporter:history:%s", taskID) }
