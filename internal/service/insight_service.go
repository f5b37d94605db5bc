// internal/service/insight_service.go
package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/demand-insight/backend-go/internal/cache"
	"github.com/demand-insight/backend-go/internal/config"
	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/demand-insight/backend-go/internal/forecast"
	"github.com/demand-insight/backend-go/internal/pipeline"
	"github.com/rs/zerolog/log"
)

const defaultForecastHorizonDays = 30

// TrainSummary is the /train response body.
type TrainSummary struct {
	ProductsTrained int                     `json:"products_trained"`
	PairsTrained    int                     `json:"pairs_trained"`
	Failures        int                     `json:"failures"`
	TrainedAt       time.Time               `json:"trained_at"`
	Metrics         []domain.ProductMetrics `json:"metrics"`
}

// InsightService owns the trained state. Models are held in memory only;
// a restart requires retraining.
type InsightService struct {
	cfg    *config.Config
	runner *pipeline.Runner
	cache  cache.RecommendationsCache

	mu              sync.RWMutex
	productOutcomes map[string]pipeline.Outcome
	pairOutcomes    map[string]pipeline.Outcome
	version         string
	trainedAt       time.Time
}

func NewInsightService(cfg *config.Config, recCache cache.RecommendationsCache) *InsightService {
	policy := forecast.Policy{
		SeasonalPeriod:     cfg.Forecast.SeasonalPeriod,
		MinHistoryDays:     cfg.Forecast.MinHistoryDays,
		ACFThreshold:       cfg.Forecast.ACFThreshold,
		GuardrailTolerance: cfg.Forecast.GuardrailTolerance,
		ToleranceBand:      cfg.Forecast.ToleranceBand,
		UpperBoundRatio:    cfg.Forecast.UpperBoundRatio,
		LowerBoundRatio:    cfg.Forecast.LowerBoundRatio,
		MaxHorizonDays:     cfg.Forecast.MaxHorizonDays,
	}
	runner := pipeline.NewRunner(policy, cfg.Batch.Workers, time.Duration(cfg.Batch.TimeoutSeconds)*time.Second)
	return &InsightService{
		cfg:             cfg,
		runner:          runner,
		cache:           recCache,
		productOutcomes: make(map[string]pipeline.Outcome),
		pairOutcomes:    make(map[string]pipeline.Outcome),
	}
}

// Train fits models for every product (aggregated across stores) and for
// every product/store pair, replacing any previous training state. Per-SKU
// failures are reported in the summary, never as a request error.
func (s *InsightService) Train(ctx context.Context, records []domain.ObservationRecord) (*TrainSummary, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records to train on", domain.ErrInvalidRequest)
	}

	productJobs, pairJobs := buildJobs(records)

	opts := pipeline.Options{
		Horizon:        defaultForecastHorizonDays,
		Scenario:       domain.ScenarioBaseline,
		WithReorder:    true,
		LeadTimeDays:   s.cfg.Reorder.DefaultLeadTimeDays,
		ServiceLevel:   s.cfg.Reorder.DefaultServiceLevel,
		OrderCoverDays: s.cfg.Reorder.RecommendedOrderDays,
	}

	productOutcomes := s.runner.Run(ctx, productJobs, opts)
	pairOutcomes := s.runner.Run(ctx, pairJobs, opts)

	now := time.Now().UTC()
	failures := 0

	s.mu.Lock()
	s.productOutcomes = make(map[string]pipeline.Outcome, len(productOutcomes))
	for _, out := range productOutcomes {
		s.productOutcomes[out.ProductID] = out
		if out.Err != nil {
			failures++
		}
	}
	s.pairOutcomes = make(map[string]pipeline.Outcome, len(pairOutcomes))
	for _, out := range pairOutcomes {
		s.pairOutcomes[pairKey(out.ProductID, out.StoreID)] = out
		if out.Err != nil {
			failures++
		}
	}
	s.trainedAt = now
	s.version = trainingVersion(now, len(productOutcomes), len(pairOutcomes))
	metrics := pipeline.BuildMetrics(productOutcomes)
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("service: recommendations cache invalidation failed")
	}

	log.Info().
		Int("products", len(productOutcomes)).
		Int("pairs", len(pairOutcomes)).
		Int("failures", failures).
		Msg("service: training complete")

	return &TrainSummary{
		ProductsTrained: len(productOutcomes),
		PairsTrained:    len(pairOutcomes),
		Failures:        failures,
		TrainedAt:       now,
		Metrics:         metrics,
	}, nil
}

// Forecast reprojects every trained product model under the given horizon and
// scenario and returns fresh metric rows. Accuracy figures come from the
// training backtest; only the demand projection changes per request.
func (s *InsightService) Forecast(ctx context.Context, horizonDays int, scenario domain.Scenario) ([]domain.ProductMetrics, error) {
	// zero means absent; anything else out of range is the caller's mistake
	if horizonDays == 0 {
		horizonDays = defaultForecastHorizonDays
	}
	if horizonDays < 1 || horizonDays > s.cfg.Forecast.MaxHorizonDays {
		return nil, fmt.Errorf("%w: horizon %d outside [1,%d]",
			domain.ErrInvalidRequest, horizonDays, s.cfg.Forecast.MaxHorizonDays)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.productOutcomes) == 0 {
		return nil, fmt.Errorf("%w: call train first", domain.ErrNotTrained)
	}

	outcomes := make([]pipeline.Outcome, 0, len(s.productOutcomes))
	for _, out := range s.productOutcomes {
		if out.Err != nil || out.Model == nil {
			outcomes = append(outcomes, out)
			continue
		}
		res, err := out.Model.Forecast(horizonDays, scenario)
		if err != nil {
			return nil, err
		}
		fresh := out
		fresh.Forecast = res
		outcomes = append(outcomes, fresh)
	}

	return pipeline.BuildMetrics(outcomes), nil
}

// CalculateROP computes the reorder point for one product/store pair using
// its trained model and the requested lead time and service level.
func (s *InsightService) CalculateROP(ctx context.Context, productID, storeID string, leadTimeDays int, serviceLevel float64) (*domain.ROPResult, error) {
	if leadTimeDays == 0 {
		leadTimeDays = s.cfg.Reorder.DefaultLeadTimeDays
	}
	if leadTimeDays < 1 {
		return nil, fmt.Errorf("%w: lead_time must be at least 1", domain.ErrInvalidRequest)
	}
	if serviceLevel <= 0 {
		serviceLevel = s.cfg.Reorder.DefaultServiceLevel
	}
	if serviceLevel <= 0 || serviceLevel >= 1 {
		return nil, fmt.Errorf("%w: service_level must be in (0, 1)", domain.ErrInvalidRequest)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.pairOutcomes) == 0 {
		return nil, fmt.Errorf("%w: call train first", domain.ErrNotTrained)
	}
	out, ok := s.pairOutcomes[pairKey(productID, storeID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", domain.ErrUnknownSKU, productID, storeID)
	}
	if out.Err != nil {
		return nil, out.Err
	}

	inputs := forecast.ReorderInputs{
		CurrentStock:   out.Model.Series.CurrentStock,
		LeadTimeDays:   leadTimeDays,
		ServiceLevel:   serviceLevel,
		OrderCoverDays: s.cfg.Reorder.RecommendedOrderDays,
	}
	res, err := out.Model.Forecast(forecast.HorizonFor(inputs), domain.ScenarioBaseline)
	if err != nil {
		return nil, err
	}
	decision := forecast.Decide(res, inputs)

	return &domain.ROPResult{
		ProductID: productID,
		StoreID:   storeID,
		Inputs: domain.ROPInputs{
			LeadTimeDays:        leadTimeDays,
			ServiceLevelPercent: serviceLevel * 100,
			ZScoreUsed:          forecast.ZScore(serviceLevel),
		},
		Decision: decision,
		Detail: domain.ForecastDetail{
			ModelUsed:           res.ModelUsed,
			ForecastAccuracy:    out.Accuracy.Confidence,
			ForecastedDemand7d:  res.Demand7d,
			ForecastedDemand14d: res.Demand14d,
			ForecastedDemand30d: res.Demand30d,
		},
	}, nil
}

// AllRecommendations lists reorder recommendations for every trained
// product/store pair, most urgent first. Results are cached per training
// version and parameter set.
func (s *InsightService) AllRecommendations(ctx context.Context, leadTimeDays int, serviceLevel float64) ([]domain.ReorderRecommendation, error) {
	if leadTimeDays <= 0 {
		leadTimeDays = s.cfg.Reorder.DefaultLeadTimeDays
	}
	if serviceLevel <= 0 {
		serviceLevel = s.cfg.Reorder.DefaultServiceLevel
	}
	if leadTimeDays < 1 || serviceLevel >= 1 {
		return nil, fmt.Errorf("%w: invalid lead time or service level", domain.ErrInvalidRequest)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.pairOutcomes) == 0 {
		return nil, fmt.Errorf("%w: call train first", domain.ErrNotTrained)
	}

	filter := cache.RecommendationsFilter{
		TrainingVersion: s.version,
		LeadTimeDays:    leadTimeDays,
		ServiceLevel:    serviceLevel,
	}
	if cached, hit, err := s.cache.Get(ctx, filter); err != nil {
		log.Warn().Err(err).Msg("service: recommendations cache read failed")
	} else if hit {
		return cached, nil
	}

	keys := make([]string, 0, len(s.pairOutcomes))
	for k := range s.pairOutcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outcomes := make([]pipeline.Outcome, 0, len(keys))
	for _, k := range keys {
		out := s.pairOutcomes[k]
		if out.Err != nil || out.Model == nil {
			outcomes = append(outcomes, out)
			continue
		}
		inputs := forecast.ReorderInputs{
			CurrentStock:   out.Model.Series.CurrentStock,
			LeadTimeDays:   leadTimeDays,
			ServiceLevel:   serviceLevel,
			OrderCoverDays: s.cfg.Reorder.RecommendedOrderDays,
		}
		res, err := out.Model.Forecast(forecast.HorizonFor(inputs), domain.ScenarioBaseline)
		if err != nil {
			out.Err = err
			outcomes = append(outcomes, out)
			continue
		}
		decision := forecast.Decide(res, inputs)
		out.Forecast = res
		out.Decision = &decision
		outcomes = append(outcomes, out)
	}

	recs := pipeline.BuildRecommendations(outcomes, leadTimeDays)

	if err := s.cache.Set(ctx, filter, recs); err != nil {
		log.Warn().Err(err).Msg("service: recommendations cache write failed")
	}

	return recs, nil
}

// Trained reports whether any training state exists.
func (s *InsightService) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.productOutcomes) > 0
}

func pairKey(productID, storeID string) string {
	return productID + "|" + storeID
}

func trainingVersion(at time.Time, products, pairs int) string {
	raw := fmt.Sprintf("%d|%d|%d", at.UnixNano(), products, pairs)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

// buildJobs groups raw records into product-level jobs (observations from all
// stores, aggregated per day during preparation) and pair-level jobs.
func buildJobs(records []domain.ObservationRecord) (productJobs, pairJobs []pipeline.Job) {
	byProduct := make(map[string][]forecast.Observation)
	byPair := make(map[string][]forecast.Observation)
	pairIDs := make(map[string][2]string)

	for _, rec := range records {
		obs := forecast.Observation{
			Date:            rec.Date,
			Units:           rec.UnitsSold,
			Price:           rec.Price,
			Discount:        rec.Discount,
			CompetitorPrice: rec.CompetitorPrice,
			Promotion:       rec.HolidayPromotion,
			InventoryLevel:  rec.InventoryLevel,
		}
		byProduct[rec.ProductID] = append(byProduct[rec.ProductID], obs)
		k := pairKey(rec.ProductID, rec.StoreID)
		byPair[k] = append(byPair[k], obs)
		pairIDs[k] = [2]string{rec.ProductID, rec.StoreID}
	}

	for productID, obs := range byProduct {
		productJobs = append(productJobs, pipeline.Job{ProductID: productID, Observations: obs})
	}
	for k, obs := range byPair {
		ids := pairIDs[k]
		pairJobs = append(pairJobs, pipeline.Job{ProductID: ids[0], StoreID: ids[1], Observations: obs})
	}
	return productJobs, pairJobs
}
