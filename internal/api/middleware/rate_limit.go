package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "yamdb:limiter"

// RateLimitMiddleware limits requests per client ip and route. Counters live
// in redis when REDIS_URL is set so every replica shares them, otherwise in
// process memory.
func RateLimitMiddleware(cfg *config.Config) (gin.HandlerFunc, error) {
	rate := limiter.Rate{
		Period: time.Second,
		Limit:  int64(cfg.RateLimitRPS),
	}

	store, err := newLimiterStore(cfg)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance, mgin.WithKeyGetter(rateLimitKey)), nil
}

// rateLimitKey buckets by client ip and route pattern, so /titles/1 and
// /titles/2 share a counter. ClientIP only honours forwarding headers from
// the engine's trusted proxies.
func rateLimitKey(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	return fmt.Sprintf("%s:%s", c.ClientIP(), route)
}

func newLimiterStore(cfg *config.Config) (limiter.Store, error) {
	if cfg.RedisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(options)

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: rateLimitPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	logger.WithFields(logrus.Fields{"addr": options.Addr}).Info("rate limiter using redis store")
	return store, nil
}
