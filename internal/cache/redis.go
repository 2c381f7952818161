package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr       string
	Password   string
	SeatMapTTL time.Duration
}

// Client caches the non-authoritative per-show seat map. Raw JSON is stored
// to skip a decode/encode round trip on cache hits. The authoritative state
// always lives in the relational store; every seat state transition must
// invalidate the show's entry.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: cfg.SeatMapTTL}, nil
}

func seatMapKey(showID int64) string {
	return fmt.Sprintf("seatmap:%d", showID)
}

func (c *Client) GetSeatMapRaw(ctx context.Context, showID int64) ([]byte, error) {
	data, err := c.rdb.Get(ctx, seatMapKey(showID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("seat map not cached")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

func (c *Client) SetSeatMap(ctx context.Context, showID int64, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal seat map: %w", err)
	}
	return c.rdb.Set(ctx, seatMapKey(showID), data, c.ttl).Err()
}

func (c *Client) InvalidateShow(ctx context.Context, showID int64) error {
	return c.rdb.Del(ctx, seatMapKey(showID)).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
