// internal/forecast/series.go
package forecast

import (
	"fmt"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
)

// Observation is one raw day of sales history for a product/store pair.
type Observation struct {
	Date            time.Time
	Units           float64
	Price           float64
	Discount        float64
	CompetitorPrice float64
	Promotion       float64
	InventoryLevel  float64
}

// Day is one entry of a dense daily series.
type Day struct {
	Date            time.Time
	Units           float64
	Price           float64
	Discount        float64
	CompetitorPrice float64
	Promotion       float64
}

// Series is a cleaned, gap-free daily sales series for one product/store
// pair (store may be empty for product-level aggregates).
type Series struct {
	ProductID    string
	StoreID      string
	Days         []Day
	CurrentStock float64 // inventory level on the latest observed day
}

// Policy carries the modelling policy constants. Values come from config;
// the zero value is not usable.
type Policy struct {
	SeasonalPeriod     int
	MinHistoryDays     int
	ACFThreshold       float64
	GuardrailTolerance float64
	ToleranceBand      float64
	UpperBoundRatio    float64
	LowerBoundRatio    float64
	MaxHorizonDays     int
}

// DefaultPolicy returns the reference policy used when no config override is
// in play (tests, CLI defaults).
func DefaultPolicy() Policy {
	return Policy{
		SeasonalPeriod:     7,
		MinHistoryDays:     14,
		ACFThreshold:       0.25,
		GuardrailTolerance: 0.05,
		ToleranceBand:      0.20,
		UpperBoundRatio:    1.15,
		LowerBoundRatio:    0.85,
		MaxHorizonDays:     90,
	}
}

// Prepare cleans raw observations into a dense daily series. Duplicate dates
// are aggregated (units summed, prices averaged, promotion OR'd). Missing
// days are filled with zero sales, while prices carry forward from the last
// observed day.
func Prepare(productID, storeID string, obs []Observation, pol Policy) (*Series, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no observations for %s/%s", domain.ErrInsufficientData, productID, storeID)
	}

	type bucket struct {
		units, price, discount, competitor, promotion, inventory float64
		count                                                    int
	}
	byDate := make(map[string]*bucket)
	var first, last time.Time
	for _, o := range obs {
		d := o.Date.Truncate(24 * time.Hour)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
		key := d.Format("2006-01-02")
		b, ok := byDate[key]
		if !ok {
			b = &bucket{}
			byDate[key] = b
		}
		b.units += o.Units
		b.price += o.Price
		b.discount += o.Discount
		b.competitor += o.CompetitorPrice
		b.inventory += o.InventoryLevel
		if o.Promotion > 0 {
			b.promotion = 1
		}
		b.count++
	}

	s := &Series{ProductID: productID, StoreID: storeID}
	var lastSeen *Day
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := Day{Date: d}
		if b, ok := byDate[d.Format("2006-01-02")]; ok {
			day.Units = b.units
			day.Price = b.price / float64(b.count)
			day.Discount = b.discount / float64(b.count)
			day.CompetitorPrice = b.competitor / float64(b.count)
			day.Promotion = b.promotion
			s.CurrentStock = b.inventory
		} else if lastSeen != nil {
			// gap day: zero sales, exogenous values carried forward
			day.Price = lastSeen.Price
			day.Discount = lastSeen.Discount
			day.CompetitorPrice = lastSeen.CompetitorPrice
		}
		s.Days = append(s.Days, day)
		lastSeen = &s.Days[len(s.Days)-1]
	}

	minDays := pol.MinHistoryDays
	if 2*pol.SeasonalPeriod > minDays {
		minDays = 2 * pol.SeasonalPeriod
	}
	if len(s.Days) < minDays {
		return nil, fmt.Errorf("%w: %s/%s has %d usable days, need %d",
			domain.ErrInsufficientData, productID, storeID, len(s.Days), minDays)
	}

	return s, nil
}

// Len returns the number of days in the series.
func (s *Series) Len() int { return len(s.Days) }

// Units extracts the sales values.
func (s *Series) Units() []float64 {
	out := make([]float64, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.Units
	}
	return out
}

// LastDate returns the final day of the series.
func (s *Series) LastDate() time.Time {
	return s.Days[len(s.Days)-1].Date
}

// Prefix returns a view over the first n days.
func (s *Series) Prefix(n int) *Series {
	if n > len(s.Days) {
		n = len(s.Days)
	}
	return &Series{
		ProductID:    s.ProductID,
		StoreID:      s.StoreID,
		Days:         s.Days[:n],
		CurrentStock: s.CurrentStock,
	}
}

// TrailingAverages returns mean price, discount and competitor price over the
// last window days, used to seed future exogenous inputs.
func (s *Series) TrailingAverages(window int) (price, discount, competitor float64) {
	start := len(s.Days) - window
	if start < 0 {
		start = 0
	}
	n := 0
	for _, d := range s.Days[start:] {
		price += d.Price
		discount += d.Discount
		competitor += d.CompetitorPrice
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	return price / float64(n), discount / float64(n), competitor / float64(n)
}
