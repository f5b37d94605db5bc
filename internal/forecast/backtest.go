// internal/forecast/backtest.go
package forecast

import "math"

// Accuracy is the backtest summary for one series. Derived once per series
// and immutable afterward.
type Accuracy struct {
	WMAPE       float64 `json:"wmape"`
	SuccessRate float64 `json:"success_rate"`
	Confidence  float64 `json:"confidence"`
}

const minHoldoutDays = 7

// Backtest refits the model on a training prefix, forecasts across the
// trailing holdout window using the window's actual exogenous inputs, and
// scores the result. A zero-demand holdout yields defined sentinels
// (wmape 0, success 0) rather than NaN.
func Backtest(s *Series, pol Policy) Accuracy {
	n := s.Len()
	holdout := n / 5
	if holdout < minHoldoutDays {
		holdout = minHoldoutDays
	}
	if holdout >= n {
		holdout = n / 2
	}
	if holdout < 1 {
		return Accuracy{}
	}

	train := s.Prefix(n - holdout)
	m, err := Fit(train, pol)
	if err != nil {
		return Accuracy{}
	}

	var pred []float64
	switch m.Kind {
	case ModelSeasonalARX:
		// evaluate against the holdout's actual exogenous inputs
		exog := buildFeatureMatrix(s)
		pred = m.arx.path(holdout, exog[n-holdout:])
	case ModelHoltWinters:
		pred = m.hw.path(holdout)
	case ModelSeasonalNaive:
		pred = m.nv.path(holdout)
	default:
		pred = make([]float64, holdout)
		for i := range pred {
			pred[i] = m.mval
		}
	}
	clampNonNegative(pred)

	actual := s.Units()[n-holdout:]
	return Score(actual, pred, pol.ToleranceBand)
}

// Score computes WMAPE, the tolerance-band success rate, and the confidence
// derived from WMAPE. Exported so the scoring contract is testable on its
// own.
func Score(actual, pred []float64, tolerance float64) Accuracy {
	var absErrSum, actualSum float64
	hits := 0
	for i := range actual {
		absErrSum += math.Abs(actual[i] - pred[i])
		actualSum += math.Abs(actual[i])

		if actual[i] == 0 {
			// a zero-sales day counts as a hit only for a near-zero forecast
			if pred[i] <= 1 {
				hits++
			}
			continue
		}
		if math.Abs(actual[i]-pred[i]) <= tolerance*math.Abs(actual[i]) {
			hits++
		}
	}

	if actualSum == 0 {
		return Accuracy{WMAPE: 0, SuccessRate: 0, Confidence: 0}
	}

	wmape := absErrSum / actualSum
	return Accuracy{
		WMAPE:       wmape,
		SuccessRate: float64(hits) / float64(len(actual)),
		Confidence:  clamp01(1 - wmape),
	}
}
