// internal/forecast/stats.go
package forecast

import (
	"fmt"
	"math"

	"github.com/demand-insight/backend-go/internal/domain"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// autocorrelation computes the sample autocorrelation of values at the given
// lag. Returns 0 for degenerate series (constant or too short).
func autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || n <= lag+1 {
		return 0
	}
	m := mean(values)
	var num, den float64
	for i := 0; i < n; i++ {
		d := values[i] - m
		den += d * d
	}
	if den == 0 {
		return 0
	}
	for i := lag; i < n; i++ {
		num += (values[i] - m) * (values[i-lag] - m)
	}
	return num / den
}

// solveLinearSystem solves A x = b in place via Gaussian elimination with
// partial pivoting. A near-singular system reports a fit failure so callers
// can fall back to a simpler model.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	const pivotEps = 1e-10

	for col := 0; col < n; col++ {
		// pick pivot
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < pivotEps {
			return nil, fmt.Errorf("%w: singular design matrix", domain.ErrFitFailure)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}

	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficients", domain.ErrFitFailure)
		}
	}
	return x, nil
}

func clampNonNegative(values []float64) {
	for i, v := range values {
		if v < 0 || math.IsNaN(v) {
			values[i] = 0
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
