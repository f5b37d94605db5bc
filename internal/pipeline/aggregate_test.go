package pipeline

import (
	"fmt"
	"testing"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/demand-insight/backend-go/internal/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSKUNaming(t *testing.T) {
	assert.Equal(t, "P001_S001", SKUID("P001", "S001"))
	assert.Equal(t, "Product 001 (at S001)", SKUName("P001", "S001"))
	assert.Equal(t, "Product 042 (at S07)", SKUName("P042", "S07"))
}

func TestRecommendStrategies(t *testing.T) {
	cases := []struct {
		name  string
		model *forecast.FittedModel
		want  string
	}{
		{
			name:  "guardrail outranks everything",
			model: &forecast.FittedModel{GuardrailTriggered: true, Coefficients: map[string]float64{"discount": 5}},
			want:  "Fix Data Quality (Price ignored due to anomalies)",
		},
		{
			name:  "strong discount response",
			model: &forecast.FittedModel{Coefficients: map[string]float64{"discount": 2.1}},
			want:  "High Potential: Run aggressive promotion",
		},
		{
			name:  "strong promotion response",
			model: &forecast.FittedModel{Coefficients: map[string]float64{"promotion": 2.5}},
			want:  "Stock up for Holidays",
		},
		{
			name:  "price sensitive",
			model: &forecast.FittedModel{Coefficients: map[string]float64{"price_ratio": -3.2}},
			want:  "Sensitive: Consider small price reduction",
		},
		{
			name:  "nothing stands out",
			model: &forecast.FittedModel{Coefficients: map[string]float64{"discount": 0.4}},
			want:  "Maintain current strategy",
		},
		{
			name:  "no coefficients at all",
			model: &forecast.FittedModel{},
			want:  "Maintain current strategy",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Recommend(tc.model))
		})
	}
}

func TestBuildMetricsKeepsFailedProducts(t *testing.T) {
	outcomes := []Outcome{
		{ProductID: "P002", Err: domain.ErrInsufficientData},
		{ProductID: "P003", Err: fmt.Errorf("%w: singular design matrix", domain.ErrFitFailure)},
		{
			ProductID: "P001",
			Model:     &forecast.FittedModel{Drivers: []string{forecast.DriverBaseline}},
			Accuracy:  forecast.Accuracy{WMAPE: 0.2, SuccessRate: 0.8, Confidence: 0.8},
			Forecast:  &forecast.Result{Point: []float64{10, 10, 10}},
		},
	}

	metrics := BuildMetrics(outcomes)
	require.Len(t, metrics, 3)

	assert.Equal(t, "P001", metrics[0].ProductID)
	assert.InDelta(t, 30.0, metrics[0].PredictedDemand, 1e-9)
	assert.InDelta(t, 0.8, metrics[0].Confidence, 1e-9)

	assert.Equal(t, "P002", metrics[1].ProductID)
	assert.Zero(t, metrics[1].Confidence)
	assert.Contains(t, metrics[1].Recommendation, "Insufficient data")

	// a fit failure is not the user's data problem and must read differently
	assert.Equal(t, "P003", metrics[2].ProductID)
	assert.Contains(t, metrics[2].Recommendation, "Model fit failed")
	assert.NotContains(t, metrics[2].Recommendation, "Insufficient data")
}

func decisionOutcome(product, store string, priority domain.Priority, order int) Outcome {
	return Outcome{
		ProductID: product,
		StoreID:   store,
		Model:     &forecast.FittedModel{},
		Accuracy:  forecast.Accuracy{Confidence: 0.7},
		Forecast:  &forecast.Result{Demand7d: 70, Demand14d: 140, Demand30d: 300, ModelUsed: "seasonal_arx"},
		Decision: &domain.ReorderDecision{
			Priority:         priority,
			RecommendedOrder: order,
			CurrentStock:     100,
			ReorderPoint:     150,
		},
	}
}

func TestBuildRecommendationsOrdering(t *testing.T) {
	outcomes := []Outcome{
		decisionOutcome("P003", "S001", domain.PriorityLow, 500),
		decisionOutcome("P001", "S001", domain.PriorityHigh, 50),
		decisionOutcome("P002", "S001", domain.PriorityHigh, 200),
		decisionOutcome("P001", "S002", domain.PriorityHigh, 50),
		{ProductID: "P009", StoreID: "S001", Err: domain.ErrFitFailure},
	}

	recs := BuildRecommendations(outcomes, 3)
	require.Len(t, recs, 4, "failed pairs are excluded")

	assert.Equal(t, "P002_S001", recs[0].SKUID, "highest priority, largest order first")
	assert.Equal(t, "P001_S001", recs[1].SKUID, "ties break on identifier")
	assert.Equal(t, "P001_S002", recs[2].SKUID)
	assert.Equal(t, "P003_S001", recs[3].SKUID, "low priority sorts last despite the big order")

	for _, rec := range recs {
		assert.Equal(t, 3, rec.LeadTime)
		require.NotNil(t, rec.ForecastAccuracy)
		assert.InDelta(t, 0.7, *rec.ForecastAccuracy, 1e-9)
		require.NotNil(t, rec.ModelUsed)
		assert.Equal(t, "seasonal_arx", *rec.ModelUsed)
	}
}
