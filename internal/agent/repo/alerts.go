package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/manmitra-core/server/internal/agent/model"
	errx "github.com/manmitra-core/server/internal/core/error"
	logx "github.com/manmitra-core/server/pkg/logger"
)

const (
	AlertsKey = "bestie:crisis_alerts"
	// DefaultMaxAlerts bounds the queue; the oldest alerts are trimmed first.
	DefaultMaxAlerts = 1000
)

// ListStore is the subset of redis.Cmdable the alert queue uses.
type ListStore interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

type RedisAlertRepository struct {
	rdb     ListStore
	ttl     time.Duration
	maxSize int64
}

func NewRedisAlertRepository(rdb ListStore, ttl time.Duration) *RedisAlertRepository {
	return &RedisAlertRepository{rdb: rdb, ttl: ttl, maxSize: DefaultMaxAlerts}
}

func (r *RedisAlertRepository) Publish(ctx context.Context, alert *model.CrisisAlert) error {
	if alert == nil {
		return fmt.Errorf("alert is nil")
	}
	b, err := json.Marshal(alert)
	if err != nil {
		logx.Error().Err(err).Str("alertID", alert.ID).Msg("failed to marshal alert")
		return fmt.Errorf("marshal alert: %w", err)
	}

	if err := r.rdb.RPush(ctx, AlertsKey, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", AlertsKey).Msg("failed to push alert to redis")
		return errx.WrapRedis(err)
	}
	if err := r.rdb.LTrim(ctx, AlertsKey, -r.maxSize, -1).Err(); err != nil {
		logx.Warn().Err(err).Str("key", AlertsKey).Msg("failed to trim alert queue")
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, AlertsKey, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", AlertsKey).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", AlertsKey).Dur("ttl", r.ttl).Msg("failed to set TTL on alert queue")
		}
	}
	return nil
}

func (r *RedisAlertRepository) Recent(ctx context.Context, limit int) ([]*model.CrisisAlert, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	rows, err := r.rdb.LRange(ctx, AlertsKey, start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*model.CrisisAlert{}, nil
		}
		logx.Error().Err(err).Str("key", AlertsKey).Msg("failed to load alerts from redis")
		return nil, errx.WrapRedis(err)
	}

	alerts := make([]*model.CrisisAlert, 0, len(rows))
	for i, s := range rows {
		var a model.CrisisAlert
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			logx.Error().Err(err).Int("index", i).Msg("failed to unmarshal alert")
			return nil, fmt.Errorf("unmarshal alert at index %d: %w", i, err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}

func (r *RedisAlertRepository) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.LLen(ctx, AlertsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", AlertsKey).Msg("failed to get alert count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.AlertRepository = (*RedisAlertRepository)(nil)
