package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"road-risk-api/models"
	"road-risk-api/risk"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// EstimateCache is the part of CacheService the estimate service uses.
type EstimateCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Publish(ctx context.Context, channel string, message any) error
}

// HistoryRepository stores and lists per-user estimates.
type HistoryRepository interface {
	Create(ctx context.Context, rec *models.EstimateRecord) error
	List(ctx context.Context, userID uint, cursor uint, limit int) ([]models.EstimateRecord, error)
}

// GormHistory keeps estimate history in Postgres.
type GormHistory struct {
	db *gorm.DB
}

func NewGormHistory(db *gorm.DB) *GormHistory {
	return &GormHistory{db: db}
}

func (h *GormHistory) Create(ctx context.Context, rec *models.EstimateRecord) error {
	return h.db.WithContext(ctx).Create(rec).Error
}

// List returns up to limit records for userID older than cursor, newest
// first. A zero cursor starts from the latest record.
func (h *GormHistory) List(ctx context.Context, userID uint, cursor uint, limit int) ([]models.EstimateRecord, error) {
	q := h.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var records []models.EstimateRecord
	if err := q.Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query estimate history: %w", err)
	}
	return records, nil
}

// EstimateService fronts the risk engine with a Redis response cache, a
// pub/sub broadcast of fresh results and per-user history. Every layer except
// the engine is optional.
type EstimateService struct {
	engine  *risk.Engine
	cache   EstimateCache
	history HistoryRepository
	ttl     time.Duration
	group   singleflight.Group
}

// NewEstimateService builds the service. A zero ttl disables response caching;
// a nil cache or history disables that layer.
func NewEstimateService(engine *risk.Engine, cache EstimateCache, history HistoryRepository, ttl time.Duration) *EstimateService {
	return &EstimateService{engine: engine, cache: cache, history: history, ttl: ttl}
}

// Estimate returns nil, nil for an incomplete scenario. A non-zero userID
// records the result in that user's history.
func (s *EstimateService) Estimate(ctx context.Context, raw risk.RawScenario, userID uint) (*risk.Estimate, error) {
	sc, ok := raw.Complete()
	if !ok {
		estimatesServed.WithLabelValues(outcomeIncomplete).Inc()
		return nil, nil
	}
	sc = risk.Normalize(sc)

	version, err := s.engine.ModelVersion()
	if err != nil {
		estimatesServed.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	key := CacheKey(version, sc)

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.compute(ctx, key, sc)
	})
	if err != nil {
		estimatesServed.WithLabelValues(outcomeError).Inc()
		return nil, err
	}
	estimatesServed.WithLabelValues(outcomeComplete).Inc()

	est := v.(*risk.Estimate)
	if userID != 0 {
		s.record(ctx, userID, est)
	}
	return est, nil
}

func (s *EstimateService) compute(ctx context.Context, key string, sc risk.Scenario) (*risk.Estimate, error) {
	if s.ttl > 0 && s.cache != nil {
		var cached risk.Estimate
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("estimate cache read failed")
		}
		if hit {
			estimateCacheHits.Inc()
			return &cached, nil
		}
	}

	est, err := s.engine.Estimate(sc.Raw())
	if err != nil {
		return nil, err
	}
	if est == nil {
		return nil, errors.New("engine returned no estimate for a complete scenario")
	}

	if s.cache == nil {
		return est, nil
	}
	if s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, key, est, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("estimate cache write failed")
		}
	}
	if err := s.cache.Publish(ctx, EstimatesChannel, est); err != nil {
		log.Warn().Err(err).Msg("estimate publish failed")
	}
	return est, nil
}

func (s *EstimateService) record(ctx context.Context, userID uint, est *risk.Estimate) {
	if s.history == nil {
		return
	}
	rec := models.NewEstimateRecord(userID, est)
	if err := s.history.Create(ctx, &rec); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("failed to store estimate history")
	}
}

// History lists userID's estimates older than cursor, newest first.
func (s *EstimateService) History(ctx context.Context, userID uint, cursor uint, limit int) ([]models.EstimateRecord, error) {
	if s.history == nil {
		return nil, errors.New("estimate history is not configured")
	}
	return s.history.List(ctx, userID, cursor, limit)
}

// CacheKey identifies a normalized scenario scored by a given model version.
func CacheKey(modelVersion string, sc risk.Scenario) string {
	parts := []string{
		"estimate", risk.SchemaVersion, modelVersion,
		sc.PersonType, sc.VehicleType, sc.AgeRange, sc.Sex,
		sc.District, sc.Weekday, string(sc.TimeWindow), sc.Weather,
	}
	return strings.Join(parts, ":")
}
