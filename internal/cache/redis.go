package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/legalbook/legalbook/config"
	"github.com/legalbook/legalbook/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps workflow instances (keyed by session) and the per-session
// action locks that enforce a single in-flight gateway call.
type RedisCache struct {
	client      *redis.Client
	instanceTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, instanceTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		instanceTTL: instanceTTL,
	}
}

func (c *RedisCache) GetWorkflow(ctx context.Context, sessionID string) (*domain.WorkflowInstance, error) {
	data, err := c.client.Get(ctx, workflowKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var instance domain.WorkflowInstance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

func (c *RedisCache) SaveWorkflow(ctx context.Context, instance *domain.WorkflowInstance) error {
	payload, err := json.Marshal(instance)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, workflowKey(instance.SessionID), payload, c.instanceTTL).Err()
}

func (c *RedisCache) DeleteWorkflow(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, workflowKey(sessionID)).Err()
}

func (c *RedisCache) AcquireActionLock(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, actionLockKey(sessionID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseActionLock(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, actionLockKey(sessionID)).Err()
}

func workflowKey(sessionID string) string {
	return fmt.Sprintf("workflow:%s", sessionID)
}

func actionLockKey(sessionID string) string {
	return fmt.Sprintf("lock:workflow:%s", sessionID)
}
