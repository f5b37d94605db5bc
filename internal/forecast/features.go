// internal/forecast/features.go
package forecast

// Exogenous regressor names. priceRatioFeature is the one the guardrail
// watches: demand regressed on relative price must not slope upward.
const (
	priceRatioFeature    = "price_ratio"
	discountFeature      = "discount"
	promotionFeature     = "promotion"
	promotionLagFeature  = "promotion_lag1"
	competitorPriceFloor = 1e-6
)

var featureNames = []string{priceRatioFeature, discountFeature, promotionFeature, promotionLagFeature}

// featureRow builds the full exogenous vector for one day. lagPromotion is
// the previous day's promotion flag.
func featureRow(price, discount, competitor, promotion, lagPromotion float64) []float64 {
	return []float64{
		price / (competitor + competitorPriceFloor),
		discount,
		promotion,
		lagPromotion,
	}
}

// buildFeatureMatrix materializes the in-sample exogenous matrix, one row per
// series day.
func buildFeatureMatrix(s *Series) [][]float64 {
	rows := make([][]float64, len(s.Days))
	lag := 0.0
	for i, d := range s.Days {
		rows[i] = featureRow(d.Price, d.Discount, d.CompetitorPrice, d.Promotion, lag)
		lag = d.Promotion
	}
	return rows
}

// scaler standardizes exogenous features. It is fitted on the full feature
// list so future scenario inputs transform identically regardless of which
// features stay active after the guardrail pass.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(rows [][]float64) *scaler {
	if len(rows) == 0 {
		return &scaler{}
	}
	k := len(rows[0])
	sc := &scaler{mean: make([]float64, k), std: make([]float64, k)}
	col := make([]float64, len(rows))
	for j := 0; j < k; j++ {
		for i := range rows {
			col[i] = rows[i][j]
		}
		sc.mean[j] = mean(col)
		sc.std[j] = stdDev(col)
		if sc.std[j] == 0 {
			sc.std[j] = 1
		}
	}
	return sc
}

func (sc *scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - sc.mean[j]) / sc.std[j]
	}
	return out
}
