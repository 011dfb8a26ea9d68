package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every broker failure surfaced to callers — the
// assignment store and messaging bus never swallow it (spec §7:
// broker-unavailable is never swallowed silently).
var ErrUnavailable = errors.New("broker unavailable")

// Client is a thin wrapper over a Redis connection exposing exactly the
// primitives the Assignment Store and Messaging Bus need. Reconnection
// on transient network failure is handled by the underlying go-redis
// pool. Watch optionally runs a background health ping so connectivity
// loss is observed and logged promptly rather than only at the next
// caller's round trip; New does not start it.
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger

	cancel context.CancelFunc
}

// Config parameterizes a new Client.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New builds the Redis client. It does not start the background health
// watcher; see Watch.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	c := &Client{rdb: rdb, logger: logger}
	return c
}

// Watch starts a background connectivity ping every interval, logging
// transitions between reachable and unreachable. It returns immediately;
// call the returned stop function to end the watcher.
func (c *Client) Watch(ctx context.Context, interval time.Duration) (stop func()) {
	watchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		healthy := true
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				err := c.rdb.Ping(watchCtx).Err()
				switch {
				case err != nil && healthy:
					healthy = false
					c.logger.Error("broker connection lost", "error", err)
				case err == nil && !healthy:
					healthy = true
					c.logger.Info("broker connection restored")
				}
			}
		}
	}()

	return cancel
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.rdb.Close()
}

// Ping verifies broker reachability with a single round trip.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ZAdd inserts member into the sorted set at key with the given score
// (lower score = earlier dispatch, per spec §3 Queue Entry).
func (c *Client) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if err := c.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("%w: zadd %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// ZPopMin atomically removes and returns the lowest-score member of the
// sorted set at key. ok is false when the set was empty — this is the
// sole claim mechanism guaranteeing at-most-one worker per task (§5).
func (c *Client) ZPopMin(ctx context.Context, key string) (member string, ok bool, err error) {
	res, err := c.rdb.ZPopMin(ctx, key, 1).Result()
	if err != nil {
		return "", false, fmt.Errorf("%w: zpopmin %s: %v", ErrUnavailable, key, err)
	}
	if len(res) == 0 {
		return "", false, nil
	}
	s, ok := res[0].Member.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: zpopmin %s: unexpected member type", ErrUnavailable, key)
	}
	return s, true, nil
}

// ZCard returns the cardinality of the sorted set at key.
func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: zcard %s: %v", ErrUnavailable, key, err)
	}
	return n, nil
}

// ZRange performs a non-destructive read of up to count lowest-score
// members (spec §4.3 peek).
func (c *Client) ZRange(ctx context.Context, key string, count int64) ([]string, error) {
	members, err := c.rdb.ZRange(ctx, key, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrange %s: %v", ErrUnavailable, key, err)
	}
	return members, nil
}

// HSetTTL writes fields as a hash at key and (re)sets its TTL, matching
// the "tracking record, refresh TTL on every write" semantics of
// spec §3 Tracking Record.
func (c *Client) HSetTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	pipe := c.rdb.TxPipeline()
	values := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}
	pipe.HSet(ctx, key, values...)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: hset+expire %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// HGetAll reads the full hash at key, returning (nil, nil) when it does
// not exist (matching the "None if empty" return of the original
// get_assignment_status).
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	res, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall %s: %v", ErrUnavailable, key, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res, nil
}

// Del deletes the given keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrUnavailable, err)
	}
	return nil
}

// Publish sends message on channel.
func (c *Client) Publish(ctx context.Context, channel string, message string) error {
	if err := c.rdb.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("%w: publish %s: %v", ErrUnavailable, channel, err)
	}
	return nil
}

// Subscribe returns a *redis.PubSub for the given channels; callers read
// from its Channel() and must Close() it when done.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channels...)
}

// Raw exposes the underlying client for callers that legitimately need a
// primitive not wrapped above (kept narrow deliberately; prefer adding a
// wrapper method over reaching through this escape hatch).
func (c *Client) Raw() *redis.Client {
	return c.rdb
}
