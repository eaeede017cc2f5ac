package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"road-risk-api/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EstimatesChannel carries every freshly computed estimate as JSON.
const EstimatesChannel = "madlysafe:estimates"

// CacheService wraps Redis. A service without a client is a valid no-op cache
// so the API keeps serving when Redis is down.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig, attempts int) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		log.Warn().Err(lastErr).Msgf("redis ping attempt %d/%d failed", i+1, attempts)
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}

	_ = client.Close()
	return &CacheService{}, fmt.Errorf("redis ping failed after %d attempts: %w", attempts, lastErr)
}

// NewCacheServiceFromClient wraps an existing client. A nil client disables
// caching.
func NewCacheServiceFromClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Client() *redis.Client {
	return s.client
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

// GetJSON decodes the value at key into dest. It reports false on a miss or
// when the cache is disabled.
func (s *CacheService) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Available() {
		return false, nil
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheService) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message any) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns nil when the cache is disabled.
func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.Available() {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}
