package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client used for the scan queue and the daily
// dashboard counters.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func dailyKey(day string) string { return "presence:daily:" + day }

// IncrDailyStatus bumps the per-status counter for a day (YYYY-MM-DD).
// Counters expire after 90 days; the record store stays the source of
// truth, these only feed the dashboard tile.
func (r *Redis) IncrDailyStatus(ctx context.Context, day, status string) error {
	key := dailyKey(day)
	if err := r.Client.HIncrBy(ctx, key, status, 1).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, key, 90*24*time.Hour).Err()
}

// DailyCounts returns the per-status counters for a day. A day with no
// scans yields an empty map.
func (r *Redis) DailyCounts(ctx context.Context, day string) (map[string]string, error) {
	return r.Client.HGetAll(ctx, dailyKey(day)).Result()
}
