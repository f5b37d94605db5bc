package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/demand-insight/backend-go/internal/config"
	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	recommendationsKeyPrefix  = "reorder:recommendations"
	recommendationScanBatchSz = 100
)

// RecommendationsFilter identifies one cached recommendations listing. The
// training version changes on every /train, so stale entries are never
// served even if invalidation lags.
type RecommendationsFilter struct {
	TrainingVersion string
	LeadTimeDays    int
	ServiceLevel    float64
}

type RecommendationsCache interface {
	Get(ctx context.Context, filter RecommendationsFilter) ([]domain.ReorderRecommendation, bool, error)
	Set(ctx context.Context, filter RecommendationsFilter, recs []domain.ReorderRecommendation) error
	InvalidateAll(ctx context.Context) error
}

type redisRecommendationsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecommendationsCache struct{}

func NewRecommendationsCache(cfg config.CacheConfig) (RecommendationsCache, error) {
	if !cfg.Enabled {
		return &noopRecommendationsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRecommendationsCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopRecommendationsCache() RecommendationsCache {
	return &noopRecommendationsCache{}
}

func (c *redisRecommendationsCache) Get(ctx context.Context, filter RecommendationsFilter) ([]domain.ReorderRecommendation, bool, error) {
	key := buildRecommendationsKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var recs []domain.ReorderRecommendation
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, false, fmt.Errorf("decode recommendations cache: %w", err)
	}

	return recs, true, nil
}

func (c *redisRecommendationsCache) Set(ctx context.Context, filter RecommendationsFilter, recs []domain.ReorderRecommendation) error {
	key := buildRecommendationsKey(filter)
	payload, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendations cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecommendationsCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, recommendationsKeyPrefix, recommendationScanBatchSz)
}

func (n *noopRecommendationsCache) Get(ctx context.Context, filter RecommendationsFilter) ([]domain.ReorderRecommendation, bool, error) {
	return nil, false, nil
}

func (n *noopRecommendationsCache) Set(ctx context.Context, filter RecommendationsFilter, recs []domain.ReorderRecommendation) error {
	return nil
}

func (n *noopRecommendationsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRecommendationsKey(filter RecommendationsFilter) string {
	raw := fmt.Sprintf("version=%s|lead_time=%d|service_level=%.4f",
		filter.TrainingVersion, filter.LeadTimeDays, filter.ServiceLevel)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", recommendationsKeyPrefix, hex.EncodeToString(sum[:]))
}
