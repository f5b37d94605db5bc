// internal/forecast/holtwinters.go
package forecast

import (
	"fmt"
	"math"

	"github.com/demand-insight/backend-go/internal/domain"
)

// holtWintersModel is additive exponential smoothing with optional weekly
// seasonality and an optionally damped trend. Smoothing weights come from a
// coarse deterministic grid search; damped vs plain trend is decided by AIC.
type holtWintersModel struct {
	period      int
	alpha       float64
	beta        float64
	gamma       float64
	phi         float64
	damped      bool
	seasonal    bool
	level       float64
	trend       float64
	seasonals   []float64
	n           int
	residualStd float64
	aic         float64
}

var (
	hwAlphaGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	hwBetaGrid  = []float64{0.05, 0.1, 0.3}
	hwGammaGrid = []float64{0.05, 0.2}
	hwPhiGrid   = []float64{0.9, 0.98}
)

// fitHoltWinters fits both the plain-trend and damped-trend candidates and
// keeps the one with the lower AIC.
func fitHoltWinters(y []float64, period int) (*holtWintersModel, error) {
	if len(y) < 4 {
		return nil, fmt.Errorf("%w: series too short for exponential smoothing", domain.ErrFitFailure)
	}

	var best *holtWintersModel
	for _, damped := range []bool{false, true} {
		m := fitHoltWintersCandidate(y, period, damped)
		if m == nil {
			continue
		}
		if best == nil || m.aic < best.aic {
			best = m
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: exponential smoothing did not converge", domain.ErrFitFailure)
	}
	return best, nil
}

func fitHoltWintersCandidate(y []float64, period int, damped bool) *holtWintersModel {
	phis := []float64{1}
	if damped {
		phis = hwPhiGrid
	}

	var best *holtWintersModel
	bestSSE := math.Inf(1)
	seasonal := len(y) >= 2*period

	gammas := []float64{0}
	if seasonal {
		gammas = hwGammaGrid
	}

	for _, alpha := range hwAlphaGrid {
		for _, beta := range hwBetaGrid {
			for _, gamma := range gammas {
				for _, phi := range phis {
					m, sse := runHoltWinters(y, period, alpha, beta, gamma, phi, damped, seasonal)
					if m == nil {
						continue
					}
					if sse < bestSSE {
						bestSSE = sse
						best = m
					}
				}
			}
		}
	}

	if best != nil {
		n := float64(best.n)
		k := 3.0 // alpha, beta, level/trend init
		if seasonal {
			k++
		}
		if damped {
			k++
		}
		best.aic = n*math.Log(bestSSE/n+1e-9) + 2*k
	}
	return best
}

// runHoltWinters runs the smoothing recursion once and returns the model
// state after the last observation plus the one-step-ahead SSE.
func runHoltWinters(y []float64, period int, alpha, beta, gamma, phi float64, damped, seasonal bool) (*holtWintersModel, float64) {
	n := len(y)

	var level, trend float64
	seasonals := make([]float64, period)
	if seasonal {
		first := mean(y[:period])
		second := mean(y[period : 2*period])
		level = first
		trend = (second - first) / float64(period)
		for i := 0; i < period; i++ {
			seasonals[i] = y[i] - first
		}
	} else {
		level = y[0]
		trend = (y[n-1] - y[0]) / float64(n-1)
	}

	sse := 0.0
	for t := 0; t < n; t++ {
		si := t % period
		var seasonalTerm float64
		if seasonal {
			seasonalTerm = seasonals[si]
		}

		pred := level + phi*trend + seasonalTerm
		err := y[t] - pred
		sse += err * err

		prevLevel := level
		level = alpha*(y[t]-seasonalTerm) + (1-alpha)*(prevLevel+phi*trend)
		trend = beta*(level-prevLevel) + (1-beta)*phi*trend
		if seasonal {
			seasonals[si] = gamma*(y[t]-level) + (1-gamma)*seasonals[si]
		}

		if math.IsNaN(level) || math.IsInf(level, 0) {
			return nil, math.Inf(1)
		}
	}

	return &holtWintersModel{
		period:      period,
		alpha:       alpha,
		beta:        beta,
		gamma:       gamma,
		phi:         phi,
		damped:      damped,
		seasonal:    seasonal,
		level:       level,
		trend:       trend,
		seasonals:   seasonals,
		n:           n,
		residualStd: math.Sqrt(sse / float64(n)),
	}, sse
}

// path projects h steps ahead from the final smoothing state.
func (m *holtWintersModel) path(h int) []float64 {
	out := make([]float64, h)
	phiSum := 0.0
	phiPow := 1.0
	for i := 0; i < h; i++ {
		phiPow *= m.phi
		phiSum += phiPow
		v := m.level + phiSum*m.trend
		if m.seasonal {
			v += m.seasonals[(m.n+i)%m.period]
		}
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		out[i] = v
	}
	return out
}
