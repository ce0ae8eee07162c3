package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/redis/go-redis/v9"
)

// ConnectOptions describes the Redis endpoint and how hard to try reaching it at boot.
type ConnectOptions struct {
	Addr         string
	User         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // overall budget for the first successful ping
	RetryInterval  time.Duration // first wait between pings, doubled after each failure
	MaxWait        time.Duration // cap for the doubled wait
	PingTimeout    time.Duration // per-ping deadline
}

// ErrDisabled is returned when no Redis address is configured.
var ErrDisabled = errors.New("redis disabled")

func (o ConnectOptions) validate() error {
	switch {
	case o.Addr == "":
		return ErrDisabled
	case o.ConnectTimeout <= 0:
		return fmt.Errorf("redis connect timeout must be > 0, got %v", o.ConnectTimeout)
	case o.RetryInterval <= 0:
		return fmt.Errorf("redis retry interval must be > 0, got %v", o.RetryInterval)
	case o.MaxWait < o.RetryInterval:
		return fmt.Errorf("redis max wait (%v) must be >= retry interval (%v)", o.MaxWait, o.RetryInterval)
	case o.PingTimeout <= 0:
		return fmt.Errorf("redis ping timeout must be > 0, got %v", o.PingTimeout)
	}
	return nil
}

// New opens a Redis client and blocks until it answers a ping or the connect
// budget runs out. Boot fails fast on an unreachable Redis rather than serving
// sessions that cannot be persisted.
func New(ctx context.Context, opts ConnectOptions, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitForPing(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func waitForPing(ctx context.Context, client *redis.Client, opts ConnectOptions, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		err := Ping(ctx, client, opts.PingTimeout)
		if err == nil {
			fields := []logger.Field{logger.String("addr", opts.Addr)}
			if attempt > 1 {
				fields = append(fields,
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			}
			log.Info("connected to redis", fields...)
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
		}

		log.Warn("redis ping failed, retrying",
			logger.String("addr", opts.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))

		wait = min(wait*2, opts.MaxWait)
	}
}

// Ping checks the connection with its own deadline.
func Ping(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
