// internal/forecast/reorder.go
package forecast

import (
	"math"

	"github.com/demand-insight/backend-go/internal/domain"
)

// zScores maps a target service level to its normal z-score.
var zScores = map[float64]float64{
	0.90: 1.28,
	0.95: 1.645,
	0.98: 2.05,
	0.99: 2.33,
}

const (
	defaultServiceLevel = 0.95
	// approxIntervalZ converts the ~85% interval half-spread back to a
	// standard deviation.
	approxIntervalZ = 1.44
	// fallbackCV assumes a 20% coefficient of variation when the forecast
	// carries no spread at all.
	fallbackCV = 0.2
)

// ZScore resolves a service level to a z-score, defaulting to 95%.
func ZScore(serviceLevel float64) float64 {
	if z, ok := zScores[serviceLevel]; ok {
		return z
	}
	return zScores[defaultServiceLevel]
}

// ReorderInputs are the decision parameters supplied by the caller.
type ReorderInputs struct {
	CurrentStock   float64
	LeadTimeDays   int
	ServiceLevel   float64
	OrderCoverDays int
}

// Decide converts a forecast into a reorder decision: safety stock sized by
// the service level, reorder point over the lead time, order quantity, a
// priority tier, and the projected stockout date.
func Decide(res *Result, in ReorderInputs) domain.ReorderDecision {
	lead := float64(in.LeadTimeDays)
	z := ZScore(in.ServiceLevel)

	meanDaily := mean(res.Point)

	// Daily demand spread: forecast variability first, interval spread as a
	// stand-in when the path is flat, then the CV assumption.
	sd := stdDev(res.Point)
	if sd == 0 {
		var spread float64
		for i := range res.Point {
			spread += (res.Upper[i] - res.Lower[i]) / 2
		}
		sd = spread / float64(len(res.Point)) / approxIntervalZ
	}
	if sd == 0 {
		sd = meanDaily * fallbackCV
	}

	safety := z * sd * math.Sqrt(lead)
	rop := meanDaily*lead + safety

	stockoutIdx := -1
	cum := 0.0
	for i, v := range res.Point {
		cum += v
		if cum > in.CurrentStock {
			stockoutIdx = i
			break
		}
	}

	qty := math.Max(0, rop-in.CurrentStock)
	if stockoutIdx >= 0 {
		// stock depletes within the horizon: order enough to cover it
		total := 0.0
		for _, v := range res.Point {
			total += v
		}
		qty = math.Max(qty, total+safety-in.CurrentStock)
	}

	priority := domain.PriorityLow
	switch {
	case in.CurrentStock < rop*0.5,
		stockoutIdx >= 0 && stockoutIdx < in.LeadTimeDays:
		priority = domain.PriorityHigh
	case in.CurrentStock < rop:
		priority = domain.PriorityMedium
	}

	decision := domain.ReorderDecision{
		AvgDailyDemand:    round2(meanDaily),
		StdDevDailyDemand: round2(sd),
		SafetyStock:       int(math.Ceil(safety)),
		ReorderPoint:      int(math.Ceil(rop)),
		CurrentStock:      int(in.CurrentStock),
		RecommendedOrder:  int(math.Ceil(qty)),
		Priority:          priority,
	}
	if stockoutIdx >= 0 {
		d := res.StartDate.AddDate(0, 0, stockoutIdx)
		decision.StockoutDate = &d
	}
	return decision
}

// HorizonFor returns the forecast horizon a reorder decision needs: enough
// to cover lead time plus the order window, and always the 30-day demand sum.
func HorizonFor(in ReorderInputs) int {
	h := in.LeadTimeDays + in.OrderCoverDays
	if h < 30 {
		h = 30
	}
	return h
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
