package forecast

import (
	"testing"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatResult(days int, daily float64) *Result {
	res := &Result{
		HorizonDays: days,
		StartDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Point:       make([]float64, days),
		Lower:       make([]float64, days),
		Upper:       make([]float64, days),
		ModelUsed:   string(ModelSeasonalARX),
	}
	for i := 0; i < days; i++ {
		res.Point[i] = daily
		res.Lower[i] = daily * 0.85
		res.Upper[i] = daily * 1.15
	}
	return res
}

func TestZScoreTable(t *testing.T) {
	assert.Equal(t, 1.28, ZScore(0.90))
	assert.Equal(t, 1.645, ZScore(0.95))
	assert.Equal(t, 2.05, ZScore(0.98))
	assert.Equal(t, 2.33, ZScore(0.99))
	assert.Equal(t, 1.645, ZScore(0.93), "unlisted levels fall back to 95%")
}

func TestDecideFlatDemand(t *testing.T) {
	res := flatResult(30, 50)
	dec := Decide(res, ReorderInputs{
		CurrentStock: 500,
		LeadTimeDays: 7,
		ServiceLevel: 0.95,
	})

	assert.InDelta(t, 50.0, dec.AvgDailyDemand, 1e-9)
	// flat path: spread comes from the interval half-width, 7.5/1.44
	assert.InDelta(t, 5.21, dec.StdDevDailyDemand, 0.01)
	assert.Equal(t, 23, dec.SafetyStock)
	assert.Equal(t, 373, dec.ReorderPoint)
	assert.Equal(t, domain.PriorityLow, dec.Priority)

	// stock runs out on day 11 of the horizon
	require.NotNil(t, dec.StockoutDate)
	assert.Equal(t, res.StartDate.AddDate(0, 0, 10), *dec.StockoutDate)

	// depletion within the horizon raises the order to full coverage
	assert.Equal(t, 1023, dec.RecommendedOrder)
}

func TestDecidePriorityTiers(t *testing.T) {
	res := flatResult(30, 50)

	high := Decide(res, ReorderInputs{CurrentStock: 100, LeadTimeDays: 7, ServiceLevel: 0.95})
	assert.Equal(t, domain.PriorityHigh, high.Priority)

	medium := Decide(res, ReorderInputs{CurrentStock: 360, LeadTimeDays: 7, ServiceLevel: 0.95})
	assert.Equal(t, domain.PriorityMedium, medium.Priority)

	low := Decide(flatResult(5, 50), ReorderInputs{CurrentStock: 1000, LeadTimeDays: 3, ServiceLevel: 0.95})
	assert.Equal(t, domain.PriorityLow, low.Priority)
	assert.Nil(t, low.StockoutDate)
	assert.Zero(t, low.RecommendedOrder)
}

func TestDecideHigherServiceLevelRaisesROP(t *testing.T) {
	res := flatResult(30, 50)
	at95 := Decide(res, ReorderInputs{CurrentStock: 500, LeadTimeDays: 7, ServiceLevel: 0.95})
	at99 := Decide(res, ReorderInputs{CurrentStock: 500, LeadTimeDays: 7, ServiceLevel: 0.99})

	assert.Greater(t, at99.SafetyStock, at95.SafetyStock)
	assert.Greater(t, at99.ReorderPoint, at95.ReorderPoint)
}

func TestDecideZeroSpreadUsesCVFallback(t *testing.T) {
	res := flatResult(14, 40)
	for i := range res.Point {
		res.Lower[i] = 40
		res.Upper[i] = 40
	}
	dec := Decide(res, ReorderInputs{CurrentStock: 2000, LeadTimeDays: 3, ServiceLevel: 0.95})
	assert.InDelta(t, 8.0, dec.StdDevDailyDemand, 1e-9)
}

func TestDecideRandomizedInvariants(t *testing.T) {
	g := newLCG(70)
	for trial := 0; trial < 200; trial++ {
		days := 7 + int(g.next()*40)
		res := &Result{
			HorizonDays: days,
			StartDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Point:       make([]float64, days),
			Lower:       make([]float64, days),
			Upper:       make([]float64, days),
		}
		for i := 0; i < days; i++ {
			v := 100 * g.next()
			res.Point[i] = v
			res.Lower[i] = v * 0.85
			res.Upper[i] = v * 1.15
		}

		in := ReorderInputs{
			CurrentStock: 2000 * g.next(),
			LeadTimeDays: 1 + int(g.next()*13),
			ServiceLevel: 0.95,
		}
		dec := Decide(res, in)

		assert.GreaterOrEqual(t, dec.SafetyStock, 0)
		assert.GreaterOrEqual(t, dec.ReorderPoint, dec.SafetyStock)
		assert.GreaterOrEqual(t, dec.RecommendedOrder, 0)
		if dec.Priority == domain.PriorityHigh {
			urgent := float64(dec.CurrentStock) < float64(dec.ReorderPoint)*0.5 ||
				dec.StockoutDate != nil
			assert.True(t, urgent, "high priority requires a concrete risk signal")
		}
		// ReorderPoint is ceiled, so ReorderPoint-1 bounds the raw value
		// from below and this condition implies the half-cover breach
		if in.CurrentStock < float64(dec.ReorderPoint-1)*0.5 {
			assert.Equal(t, domain.PriorityHigh, dec.Priority,
				"stock below half the reorder point must be high priority")
		}
	}
}

func TestHorizonFor(t *testing.T) {
	assert.Equal(t, 30, HorizonFor(ReorderInputs{LeadTimeDays: 3, OrderCoverDays: 14}))
	assert.Equal(t, 44, HorizonFor(ReorderInputs{LeadTimeDays: 30, OrderCoverDays: 14}))
}
