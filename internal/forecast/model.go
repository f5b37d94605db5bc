// internal/forecast/model.go
package forecast

import (
	"errors"
	"math"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// ModelKind is the closed set of model families.
type ModelKind string

const (
	ModelSeasonalARX   ModelKind = "seasonal_arx"
	ModelHoltWinters   ModelKind = "exponential_smoothing"
	ModelSeasonalNaive ModelKind = "seasonal_naive"
	ModelMean          ModelKind = "mean_fallback"
)

// Driver labels surfaced with metrics. The guardrail flag is deliberately
// distinct from the causal driver names.
const (
	DriverPrice     = "Price_Sensitivity"
	DriverDiscount  = "Discount_Effect"
	DriverPromotion = "Promotion_Effect"
	DriverBaseline  = "Trend/Seasonality"
	DriverGuardrail = "Price effect neutralized (guardrail)"
)

// FittedModel is the trained state for one series. It lives only as long as
// the training state that produced it; nothing here is persisted.
type FittedModel struct {
	Kind   ModelKind
	Series *Series
	Policy Policy

	arx  *sarxModel
	hw   *holtWintersModel
	nv   *naiveModel
	mval float64

	ResidualStd        float64
	Coefficients       map[string]float64
	ActiveFeatures     []string
	GuardrailTriggered bool
	MainDriver         string
	Drivers            []string
}

// naiveModel repeats the last full seasonal cycle.
type naiveModel struct {
	period      int
	lastCycle   []float64
	residualStd float64
}

func (m *naiveModel) path(h int) []float64 {
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		v := m.lastCycle[i%m.period]
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}

// Fit selects and trains a model for the series, falling back to simpler
// families when a candidate cannot be estimated. The guardrail pass runs
// inside the seasonal fit: a positive price coefficient beyond tolerance is
// economically implausible, so the price regressor is dropped and the model
// refitted without it.
func Fit(s *Series, pol Policy) (*FittedModel, error) {
	units := s.Units()
	period := pol.SeasonalPeriod

	m := &FittedModel{
		Series:     s,
		Policy:     pol,
		MainDriver: DriverBaseline,
	}

	// The violation outlives a failed refit: even when the seasonal family
	// ends up unusable, the implausible price effect must stay visible on
	// whichever fallback serves the forecast.
	var priceViolated bool

	seasonalEligible := len(units) >= 2*period && autocorrelation(units, period) >= pol.ACFThreshold
	if seasonalEligible {
		fitted, violated := fitSeasonalWithGuardrail(s, pol)
		priceViolated = violated
		if fitted != nil {
			m.Kind = ModelSeasonalARX
			m.arx = fitted
			m.ResidualStd = fitted.residualStd
			m.ActiveFeatures = fitted.active
			m.Coefficients = make(map[string]float64, len(fitted.active))
			for i, name := range fitted.active {
				m.Coefficients[name] = fitted.exogCoef[i]
			}
			m.GuardrailTriggered = violated
			m.MainDriver = mainDriver(m.Coefficients)
			m.Drivers = []string{m.MainDriver}
			if m.GuardrailTriggered {
				m.Drivers = append(m.Drivers, DriverGuardrail)
			}
			return m, nil
		}
	}

	if hw, err := fitHoltWinters(units, period); err == nil {
		m.Kind = ModelHoltWinters
		m.hw = hw
		m.ResidualStd = hw.residualStd
		m.markFallback(priceViolated)
		return m, nil
	}

	if len(units) >= period {
		cycle := make([]float64, period)
		copy(cycle, units[len(units)-period:])
		var diffs []float64
		for t := period; t < len(units); t++ {
			diffs = append(diffs, units[t]-units[t-period])
		}
		m.Kind = ModelSeasonalNaive
		m.nv = &naiveModel{period: period, lastCycle: cycle, residualStd: stdDev(diffs)}
		m.ResidualStd = m.nv.residualStd
		m.markFallback(priceViolated)
		return m, nil
	}

	if len(units) > 0 {
		m.Kind = ModelMean
		m.mval = mean(units)
		m.ResidualStd = stdDev(units)
		m.markFallback(priceViolated)
		return m, nil
	}

	return nil, domain.ErrFitFailure
}

// markFallback labels a non-exogenous model. A guardrail violation seen
// during the seasonal attempt is preserved here: the fallback carries no
// price term, so the neutralization already holds, but the flag must still
// reach the metrics.
func (m *FittedModel) markFallback(guardrailViolated bool) {
	m.Drivers = []string{DriverBaseline}
	if guardrailViolated {
		m.GuardrailTriggered = true
		m.Drivers = append(m.Drivers, DriverGuardrail)
	}
}

// fitSeasonalWithGuardrail runs the fit/validate loop: at most one refit
// after dropping the price regressor. The second return reports whether the
// price effect was ever found implausible, regardless of whether a usable
// model came out.
func fitSeasonalWithGuardrail(s *Series, pol Policy) (*sarxModel, bool) {
	exog := buildFeatureMatrix(s)
	sc := fitScaler(exog)
	active := append([]string(nil), featureNames...)
	everViolated := false

	for attempt := 0; attempt < 2; attempt++ {
		fitted, err := fitSARX(s, exog, sc, active, pol.SeasonalPeriod)
		if err != nil {
			if !errors.Is(err, domain.ErrFitFailure) {
				log.Warn().Err(err).Str("product", s.ProductID).Msg("seasonal fit error")
			}
			return nil, everViolated
		}

		dropped, violated := validatePriceEffect(fitted, active, pol.GuardrailTolerance)
		if !violated {
			return fitted, everViolated
		}
		everViolated = true
		log.Warn().
			Str("product", s.ProductID).
			Str("store", s.StoreID).
			Float64("price_coef", mustCoefficient(fitted, priceRatioFeature)).
			Msg("guardrail: positive price elasticity, dropping price regressor")
		active = dropped
	}

	// Second attempt cannot violate again: the price feature is gone.
	return nil, everViolated
}

func mustCoefficient(m *sarxModel, name string) float64 {
	c, _ := m.coefficient(name)
	return c
}

// mainDriver maps the largest absolute exogenous coefficient to its business
// label.
func mainDriver(coefs map[string]float64) string {
	best := DriverBaseline
	bestAbs := 0.0
	// fixed iteration order keeps the choice deterministic
	for _, name := range featureNames {
		c, ok := coefs[name]
		if !ok {
			continue
		}
		if a := math.Abs(c); a > bestAbs {
			bestAbs = a
			best = driverLabel(name)
		}
	}
	return best
}

func driverLabel(feature string) string {
	switch feature {
	case priceRatioFeature:
		return DriverPrice
	case discountFeature:
		return DriverDiscount
	case promotionFeature, promotionLagFeature:
		return DriverPromotion
	default:
		return DriverBaseline
	}
}
