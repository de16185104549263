package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chatforge/backend/internal/analytics"
	"github.com/chatforge/backend/pkg/logger"
)

// Client caches analytics reports so dashboard refreshes don't recompute
// the window (and re-pay the sentiment call) on every hit.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("report_ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func reportKey(botID string) string {
	return fmt.Sprintf("analytics:%s", botID)
}

func (c *Client) GetReport(ctx context.Context, botID string, report *analytics.Report) (bool, error) {
	data, err := c.client.Get(ctx, reportKey(botID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cached report: %w", err)
	}

	if err := json.Unmarshal(data, report); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}

	logger.Debug("Report cache hit", zap.String("bot_id", botID))
	return true, nil
}

func (c *Client) SetReport(ctx context.Context, botID string, report *analytics.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := c.client.Set(ctx, reportKey(botID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}

	return nil
}

// InvalidateReport drops a bot's cached report, e.g. after a synthesis
// run changes what the dashboard should show.
func (c *Client) InvalidateReport(ctx context.Context, botID string) error {
	if err := c.client.Del(ctx, reportKey(botID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}
