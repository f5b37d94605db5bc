package service

import (
	"context"
	"testing"
	"time"

	"github.com/demand-insight/backend-go/internal/cache"
	"github.com/demand-insight/backend-go/internal/config"
	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testRecords(products, stores, days int) []domain.ObservationRecord {
	var records []domain.ObservationRecord
	for p := 1; p <= products; p++ {
		for s := 1; s <= stores; s++ {
			for i := 0; i < days; i++ {
				date := testStart.AddDate(0, 0, i)
				units := 40.0 + float64(10*p)
				if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
					units *= 2
				}
				records = append(records, domain.ObservationRecord{
					Date:             date,
					StoreID:          storeID(s),
					ProductID:        productID(p),
					InventoryLevel:   300,
					UnitsSold:        units + float64(i%4),
					Price:            30 + float64(i%6)*0.5,
					Discount:         float64(i % 3 * 5),
					HolidayPromotion: float64((i % 13) / 12),
					CompetitorPrice:  29 + float64(i%5)*0.3,
				})
			}
		}
	}
	return records
}

func productID(p int) string { return "P00" + string(rune('0'+p)) }
func storeID(s int) string   { return "S00" + string(rune('0'+s)) }

func newTestService() *InsightService {
	return NewInsightService(config.Load(), cache.NewNoopRecommendationsCache())
}

func TestTrainSummary(t *testing.T) {
	svc := newTestService()
	summary, err := svc.Train(context.Background(), testRecords(2, 2, 60))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ProductsTrained)
	assert.Equal(t, 4, summary.PairsTrained)
	assert.Zero(t, summary.Failures)
	require.Len(t, summary.Metrics, 2)
	assert.Equal(t, "P001", summary.Metrics[0].ProductID)
	assert.Equal(t, "P002", summary.Metrics[1].ProductID)
	assert.True(t, svc.Trained())
}

func TestTrainRejectsEmptyUpload(t *testing.T) {
	svc := newTestService()
	_, err := svc.Train(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestForecastRequiresTraining(t *testing.T) {
	svc := newTestService()
	_, err := svc.Forecast(context.Background(), 14, domain.ScenarioBaseline)
	assert.ErrorIs(t, err, domain.ErrNotTrained)
}

func TestForecastScenarios(t *testing.T) {
	svc := newTestService()
	_, err := svc.Train(context.Background(), testRecords(1, 1, 70))
	require.NoError(t, err)

	baseline, err := svc.Forecast(context.Background(), 14, domain.ScenarioBaseline)
	require.NoError(t, err)
	require.Len(t, baseline, 1)
	assert.Greater(t, baseline[0].PredictedDemand, 0.0)

	holiday, err := svc.Forecast(context.Background(), 14, domain.ScenarioHoliday)
	require.NoError(t, err)
	require.Len(t, holiday, 1)
	assert.Greater(t, holiday[0].PredictedDemand, 0.0)
}

func TestForecastValidatesHorizon(t *testing.T) {
	svc := newTestService()
	_, err := svc.Train(context.Background(), testRecords(1, 1, 70))
	require.NoError(t, err)

	// zero means the caller left the horizon out, so the default applies
	metrics, err := svc.Forecast(context.Background(), 0, domain.ScenarioBaseline)
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	_, err = svc.Forecast(context.Background(), -5, domain.ScenarioBaseline)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Forecast(context.Background(), 10000, domain.ScenarioBaseline)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCalculateROP(t *testing.T) {
	svc := newTestService()
	_, err := svc.Train(context.Background(), testRecords(1, 2, 60))
	require.NoError(t, err)

	res, err := svc.CalculateROP(context.Background(), "P001", "S001", 7, 0.95)
	require.NoError(t, err)

	assert.Equal(t, "P001", res.ProductID)
	assert.Equal(t, "S001", res.StoreID)
	assert.Equal(t, 7, res.Inputs.LeadTimeDays)
	assert.Equal(t, 95.0, res.Inputs.ServiceLevelPercent)
	assert.Equal(t, 1.645, res.Inputs.ZScoreUsed)
	assert.Greater(t, res.Decision.ReorderPoint, 0)
	assert.Greater(t, res.Detail.ForecastedDemand30d, res.Detail.ForecastedDemand7d)
}

func TestCalculateROPValidation(t *testing.T) {
	svc := newTestService()
	_, err := svc.Train(context.Background(), testRecords(1, 1, 60))
	require.NoError(t, err)

	_, err = svc.CalculateROP(context.Background(), "P001", "S009", 7, 0.95)
	assert.ErrorIs(t, err, domain.ErrUnknownSKU)

	_, err = svc.CalculateROP(context.Background(), "P001", "S001", -2, 0.95)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestAllRecommendations(t *testing.T) {
	svc := newTestService()
	_, err := svc.Train(context.Background(), testRecords(2, 2, 60))
	require.NoError(t, err)

	recs, err := svc.AllRecommendations(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	// most urgent first, and never out of priority order
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i-1].Priority.Rank(), recs[i].Priority.Rank())
	}
	for _, rec := range recs {
		assert.NotEmpty(t, rec.SKUID)
		assert.NotEmpty(t, rec.SKUName)
		assert.GreaterOrEqual(t, rec.RecommendedOrder, 0)
	}
}

func TestAllRecommendationsRequiresTraining(t *testing.T) {
	svc := newTestService()
	_, err := svc.AllRecommendations(context.Background(), 3, 0.95)
	assert.ErrorIs(t, err, domain.ErrNotTrained)
}
