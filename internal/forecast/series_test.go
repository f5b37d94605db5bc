package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// lcg is a tiny deterministic generator so fitted coefficients are stable
// across runs.
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg { return &lcg{state: seed} }

func (g *lcg) next() float64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return float64(g.state>>33) / float64(1<<31)
}

// weeklyObservations builds a series with a strong weekly shape plus
// per-day exogenous variation.
func weeklyObservations(days int, seed uint64) []Observation {
	g := newLCG(seed)
	obs := make([]Observation, 0, days)
	for i := 0; i < days; i++ {
		date := testStart.AddDate(0, 0, i)
		base := 40.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			base = 80.0
		}
		promotion := 0.0
		if i%11 == 0 {
			promotion = 1
		}
		price := 10 + 2*g.next()
		obs = append(obs, Observation{
			Date:            date,
			Units:           base + 4*g.next() - 2*(price-11),
			Price:           price,
			Discount:        5 * g.next(),
			CompetitorPrice: 10 + g.next(),
			Promotion:       promotion,
			InventoryLevel:  500,
		})
	}
	return obs
}

func TestPrepareFillsGaps(t *testing.T) {
	obs := weeklyObservations(21, 1)
	// remove one mid-series day
	gapDate := obs[10].Date
	obs = append(obs[:10], obs[11:]...)

	s, err := Prepare("P001", "S001", obs, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, 21, s.Len())

	gap := s.Days[10]
	assert.True(t, gap.Date.Equal(gapDate))
	assert.Zero(t, gap.Units)
	assert.Equal(t, s.Days[9].Price, gap.Price, "price carries forward over the gap")
}

func TestPrepareAggregatesDuplicateDates(t *testing.T) {
	obs := weeklyObservations(14, 2)
	dup := obs[3]
	dup.Units = 10
	dup.Price = obs[3].Price + 4
	dup.Promotion = 1
	obs = append(obs, dup)

	s, err := Prepare("P001", "S001", obs, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, 14, s.Len())

	day := s.Days[3]
	assert.InDelta(t, obs[3].Units+10, day.Units, 1e-9, "units on a duplicate date are summed")
	assert.InDelta(t, (obs[3].Price+dup.Price)/2, day.Price, 1e-9, "prices are averaged")
	assert.Equal(t, 1.0, day.Promotion)
}

func TestPrepareInsufficientData(t *testing.T) {
	_, err := Prepare("P001", "S001", weeklyObservations(5, 3), DefaultPolicy())
	require.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = Prepare("P001", "S001", nil, DefaultPolicy())
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestPrepareCurrentStock(t *testing.T) {
	obs := weeklyObservations(14, 4)
	obs[len(obs)-1].InventoryLevel = 123

	s, err := Prepare("P001", "S001", obs, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 123.0, s.CurrentStock)
}

func TestTrailingAverages(t *testing.T) {
	obs := make([]Observation, 0, 14)
	for i := 0; i < 14; i++ {
		obs = append(obs, Observation{
			Date:            testStart.AddDate(0, 0, i),
			Units:           10,
			Price:           float64(i),
			CompetitorPrice: 5,
		})
	}
	s, err := Prepare("P001", "S001", obs, DefaultPolicy())
	require.NoError(t, err)

	price, discount, competitor := s.TrailingAverages(4)
	assert.InDelta(t, (10.0+11+12+13)/4, price, 1e-9)
	assert.Zero(t, discount)
	assert.InDelta(t, 5.0, competitor, 1e-9)
}

func TestAutocorrelationWeeklySignal(t *testing.T) {
	s, err := Prepare("P001", "S001", weeklyObservations(56, 5), DefaultPolicy())
	require.NoError(t, err)

	acf := autocorrelation(s.Units(), 7)
	assert.Greater(t, acf, 0.25, "weekend-heavy demand shows a weekly autocorrelation")
	assert.False(t, math.IsNaN(acf))
}
