// internal/pipeline/aggregate.go
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/demand-insight/backend-go/internal/forecast"
)

// Coefficient thresholds for the per-product strategy hints. The values are
// on scaled features, so they are comparable across products.
const (
	discountOpportunityCoef = 1.5
	promotionStockUpCoef    = 2.0
	priceSensitiveCoef      = -2.0
)

// SKUID formats the external identifier of a product/store pair.
func SKUID(productID, storeID string) string {
	return productID + "_" + storeID
}

// SKUName renders a display name such as "Product 001 (at S001)". The
// numeric suffix of the product code is reused verbatim.
func SKUName(productID, storeID string) string {
	num := strings.TrimLeft(productID, "P")
	if num == "" {
		num = productID
	}
	return fmt.Sprintf("Product %s (at %s)", num, storeID)
}

// BuildMetrics converts product-level outcomes into dashboard metric rows.
// Failed products still get a row so the dashboard can show what went wrong;
// their numeric fields stay at zero.
func BuildMetrics(outcomes []Outcome) []domain.ProductMetrics {
	metrics := make([]domain.ProductMetrics, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Err != nil {
			metrics = append(metrics, domain.ProductMetrics{
				ProductID:      out.ProductID,
				Recommendation: failureAdvice(out.Err),
				Drivers:        []string{},
			})
			continue
		}
		metrics = append(metrics, domain.ProductMetrics{
			ProductID:          out.ProductID,
			SuccessRate:        out.Accuracy.SuccessRate,
			WMAPE:              out.Accuracy.WMAPE,
			GuardrailTriggered: out.Model.GuardrailTriggered,
			Drivers:            out.Model.Drivers,
			Recommendation:     Recommend(out.Model),
			PredictedDemand:    totalDemand(out.Forecast),
			Confidence:         out.Accuracy.Confidence,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].ProductID < metrics[j].ProductID
	})
	return metrics
}

// failureAdvice picks the dashboard wording for a product whose pipeline run
// produced no model. Only thin history is fixable by the user; everything
// else is a modelling failure on our side.
func failureAdvice(err error) string {
	if errors.Is(err, domain.ErrInsufficientData) {
		return "Insufficient data: collect more sales history"
	}
	return "Model fit failed: forecast unavailable"
}

// Recommend maps the fitted coefficients to a single strategy hint. A
// triggered guardrail outranks everything: the price signal in the data is
// not trustworthy, so no price advice is given.
func Recommend(m *forecast.FittedModel) string {
	if m.GuardrailTriggered {
		return "Fix Data Quality (Price ignored due to anomalies)"
	}
	coefs := m.Coefficients
	if coefs == nil {
		return "Maintain current strategy"
	}
	if coefs["discount"] > discountOpportunityCoef {
		return "High Potential: Run aggressive promotion"
	}
	if coefs["promotion"] > promotionStockUpCoef {
		return "Stock up for Holidays"
	}
	if coefs["price_ratio"] < priceSensitiveCoef {
		return "Sensitive: Consider small price reduction"
	}
	return "Maintain current strategy"
}

// BuildRecommendations converts pair-level outcomes into the external
// recommendations list. Pairs that failed the pipeline are skipped; the
// order is priority first, then largest order quantity, then identifier.
func BuildRecommendations(outcomes []Outcome, leadTimeDays int) []domain.ReorderRecommendation {
	recs := make([]domain.ReorderRecommendation, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Err != nil || out.Decision == nil || out.Forecast == nil {
			continue
		}
		rec := domain.ReorderRecommendation{
			SKUID:               SKUID(out.ProductID, out.StoreID),
			SKUName:             SKUName(out.ProductID, out.StoreID),
			CurrentStock:        out.Decision.CurrentStock,
			ReorderPoint:        out.Decision.ReorderPoint,
			RecommendedOrder:    out.Decision.RecommendedOrder,
			LeadTime:            leadTimeDays,
			Priority:            out.Decision.Priority,
			ForecastedDemand7d:  out.Forecast.Demand7d,
			ForecastedDemand14d: out.Forecast.Demand14d,
			ForecastedDemand30d: out.Forecast.Demand30d,
		}
		if out.Decision.StockoutDate != nil {
			s := out.Decision.StockoutDate.Format("2006-01-02")
			rec.EstimatedStockoutDate = &s
		}
		accuracy := out.Accuracy.Confidence
		rec.ForecastAccuracy = &accuracy
		model := out.Forecast.ModelUsed
		rec.ModelUsed = &model
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		ri, rj := recs[i], recs[j]
		if ri.Priority.Rank() != rj.Priority.Rank() {
			return ri.Priority.Rank() < rj.Priority.Rank()
		}
		if ri.RecommendedOrder != rj.RecommendedOrder {
			return ri.RecommendedOrder > rj.RecommendedOrder
		}
		return ri.SKUID < rj.SKUID
	})
	return recs
}

func totalDemand(res *forecast.Result) float64 {
	if res == nil {
		return 0
	}
	var total float64
	for _, v := range res.Point {
		total += v
	}
	return total
}
