package pricesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
)

const defaultReportTTL = 7 * 24 * time.Hour

// ReportCache stores the most recent sync report.
type ReportCache interface {
	SaveLast(ctx context.Context, report *Report) error
	Last(ctx context.Context) (*Report, error)
}

type reportStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SyncReportKey() string
}

// RedisReportCache keeps the last report as JSON in Redis.
type RedisReportCache struct {
	client reportStore
	ttl    time.Duration
}

// NewRedisReportCache wraps the Redis client; ttl <= 0 uses seven days.
func NewRedisReportCache(client reportStore, ttl time.Duration) (*RedisReportCache, error) {
	if client == nil {
		return nil, errors.New("redis client required for report cache")
	}
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &RedisReportCache{client: client, ttl: ttl}, nil
}

func (c *RedisReportCache) SaveLast(ctx context.Context, report *Report) error {
	if report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return c.client.Set(ctx, c.client.SyncReportKey(), payload, c.ttl)
}

func (c *RedisReportCache) Last(ctx context.Context) (*Report, error) {
	raw, err := c.client.Get(ctx, c.client.SyncReportKey())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no sync report available")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read sync report")
	}
	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode sync report")
	}
	return &report, nil
}
