// internal/forecast/sarx.go
package forecast

import (
	"fmt"
	"math"

	"github.com/demand-insight/backend-go/internal/domain"
)

// sarxModel is a seasonal autoregression with drift and exogenous regressors:
//
//	y_t = c + b·t + φ1·y_{t-1} + φs·y_{t-period} + Σ βj·x_{j,t} + ε_t
//
// fitted by conditional least squares. It is the seasonal ARIMA-family
// candidate: the weekly lag carries the seasonal structure, the trend term
// the drift, and the exogenous block the causal effects.
type sarxModel struct {
	period      int
	intercept   float64
	trend       float64
	arLag1      float64
	arSeasonal  float64
	exogCoef    []float64 // aligned with active
	active      []string
	activeIdx   []int // indices into the full feature vector
	scaler      *scaler
	residualStd float64
	aic         float64
	history     []float64 // in-sample units, forecast continues from here
}

// fitSARX estimates the model on the series using only the active exogenous
// features. exog rows are unscaled full feature vectors.
func fitSARX(s *Series, exog [][]float64, sc *scaler, active []string, period int) (*sarxModel, error) {
	y := s.Units()
	n := len(y)
	k := 4 + len(active) // intercept, trend, two AR terms, exog block
	if n-period < k+3 {
		return nil, fmt.Errorf("%w: series too short for seasonal autoregression", domain.ErrFitFailure)
	}

	activeIdx := make([]int, len(active))
	for i, name := range active {
		for j, full := range featureNames {
			if full == name {
				activeIdx[i] = j
			}
		}
	}

	// Build design matrix over t = period..n-1
	rows := n - period
	design := make([][]float64, rows)
	target := make([]float64, rows)
	for r := 0; r < rows; r++ {
		t := r + period
		row := make([]float64, k)
		row[0] = 1
		row[1] = float64(t)
		row[2] = y[t-1]
		row[3] = y[t-period]
		scaled := sc.transform(exog[t])
		for i, idx := range activeIdx {
			row[4+i] = scaled[idx]
		}
		design[r] = row
		target[r] = y[t]
	}

	beta, err := solveOLS(design, target)
	if err != nil {
		return nil, err
	}

	m := &sarxModel{
		period:     period,
		intercept:  beta[0],
		trend:      beta[1],
		arLag1:     beta[2],
		arSeasonal: beta[3],
		exogCoef:   beta[4:],
		active:     active,
		activeIdx:  activeIdx,
		scaler:     sc,
		history:    y,
	}

	// In-sample residuals
	sse := 0.0
	for r := 0; r < rows; r++ {
		pred := 0.0
		for j, v := range design[r] {
			pred += beta[j] * v
		}
		d := target[r] - pred
		sse += d * d
	}
	m.residualStd = math.Sqrt(sse / float64(rows))
	m.aic = float64(rows)*math.Log(sse/float64(rows)+1e-9) + 2*float64(k)

	return m, nil
}

// solveOLS solves min ||X·beta − y|| via the normal equations.
func solveOLS(x [][]float64, y []float64) ([]float64, error) {
	rows := len(x)
	k := len(x[0])

	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for i := 0; i < k; i++ {
		xtx[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			sum := 0.0
			for r := 0; r < rows; r++ {
				sum += x[r][i] * x[r][j]
			}
			xtx[i][j] = sum
		}
		sum := 0.0
		for r := 0; r < rows; r++ {
			sum += x[r][i] * y[r]
		}
		xty[i] = sum
	}

	return solveLinearSystem(xtx, xty)
}

// coefficient returns the fitted coefficient for a named exogenous feature.
func (m *sarxModel) coefficient(name string) (float64, bool) {
	for i, a := range m.active {
		if a == name {
			return m.exogCoef[i], true
		}
	}
	return 0, false
}

// path projects the model forward h steps, reading future unscaled exogenous
// rows. Intermediate forecasts feed back into the autoregressive lags and are
// clamped at zero: negative demand cannot propagate.
func (m *sarxModel) path(h int, futureExog [][]float64) []float64 {
	y := make([]float64, len(m.history), len(m.history)+h)
	copy(y, m.history)
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		t := len(y)
		v := m.intercept + m.trend*float64(t) + m.arLag1*y[t-1] + m.arSeasonal*y[t-m.period]
		scaled := m.scaler.transform(futureExog[i])
		for j, idx := range m.activeIdx {
			v += m.exogCoef[j] * scaled[idx]
		}
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		out[i] = v
		y = append(y, v)
	}
	return out
}
