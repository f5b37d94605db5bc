// internal/forecast/forecaster.go
package forecast

import (
	"fmt"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
)

// Result is a single forecast run. Horizon and scenario are request
// parameters; a Result is built fresh per request and never stored.
type Result struct {
	HorizonDays int
	StartDate   time.Time
	Point       []float64
	Lower       []float64
	Upper       []float64
	Demand7d    float64
	Demand14d   float64
	Demand30d   float64
	ModelUsed   string
}

// Scenario adjustments, matching the what-if knobs of the dashboard:
// discount adds ten discount points, price_cut shaves five percent off the
// price, holiday flags weekends as promotion days.
const (
	scenarioDiscountBoost  = 10.0
	scenarioPriceCutFactor = 0.95
	futureExogWindowDays   = 30
)

// Forecast projects the fitted model forward under a scenario. Values are
// clamped at zero and interval bounds follow the configured multipliers.
func (m *FittedModel) Forecast(horizon int, scenario domain.Scenario) (*Result, error) {
	if horizon < 1 || horizon > m.Policy.MaxHorizonDays {
		return nil, fmt.Errorf("%w: horizon %d outside [1,%d]", domain.ErrInvalidRequest, horizon, m.Policy.MaxHorizonDays)
	}

	start := m.Series.LastDate().AddDate(0, 0, 1)

	var point []float64
	switch m.Kind {
	case ModelSeasonalARX:
		point = m.arx.path(horizon, m.futureExog(horizon, scenario, start))
	case ModelHoltWinters:
		point = m.hw.path(horizon)
	case ModelSeasonalNaive:
		point = m.nv.path(horizon)
	default:
		point = make([]float64, horizon)
		for i := range point {
			point[i] = m.mval
		}
	}
	clampNonNegative(point)

	// Non-exogenous families cannot react to price or discount levers, but a
	// holiday scenario still lifts demand through the seasonal shape already
	// baked into the history, so no extra adjustment is applied here.

	res := &Result{
		HorizonDays: horizon,
		StartDate:   start,
		Point:       point,
		Lower:       make([]float64, horizon),
		Upper:       make([]float64, horizon),
		ModelUsed:   string(m.Kind),
	}
	for i, v := range point {
		res.Lower[i] = v * m.Policy.LowerBoundRatio
		res.Upper[i] = v * m.Policy.UpperBoundRatio
	}
	clampNonNegative(res.Lower)

	res.Demand7d = sumPrefix(point, 7)
	res.Demand14d = sumPrefix(point, 14)
	res.Demand30d = sumPrefix(point, 30)
	return res, nil
}

// futureExog seeds the exogenous path from trailing averages and applies the
// scenario adjustment.
func (m *FittedModel) futureExog(horizon int, scenario domain.Scenario, start time.Time) [][]float64 {
	price, discount, competitor := m.Series.TrailingAverages(futureExogWindowDays)

	switch scenario {
	case domain.ScenarioDiscount:
		discount += scenarioDiscountBoost
	case domain.ScenarioPriceCut:
		price *= scenarioPriceCutFactor
	}

	rows := make([][]float64, horizon)
	lag := m.Series.Days[len(m.Series.Days)-1].Promotion
	for i := 0; i < horizon; i++ {
		promotion := 0.0
		if scenario == domain.ScenarioHoliday {
			wd := start.AddDate(0, 0, i).Weekday()
			if wd == time.Saturday || wd == time.Sunday {
				promotion = 1
			}
		}
		rows[i] = featureRow(price, discount, competitor, promotion, lag)
		lag = promotion
	}
	return rows
}

func sumPrefix(values []float64, n int) float64 {
	if n > len(values) {
		n = len(values)
	}
	sum := 0.0
	for _, v := range values[:n] {
		sum += v
	}
	return sum
}
