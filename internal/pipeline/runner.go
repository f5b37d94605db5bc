// internal/pipeline/runner.go
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/demand-insight/backend-go/internal/forecast"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Job is one series to push through the full pipeline.
type Job struct {
	ProductID    string
	StoreID      string
	Observations []forecast.Observation
}

// Outcome is the result of one pipeline run for one series. Err is per-SKU:
// a failed SKU never aborts the batch.
type Outcome struct {
	ProductID string
	StoreID   string
	Model     *forecast.FittedModel
	Accuracy  forecast.Accuracy
	Forecast  *forecast.Result
	Decision  *domain.ReorderDecision
	Err       error
}

// Options control the per-job forecast and reorder steps.
type Options struct {
	Horizon        int
	Scenario       domain.Scenario
	WithReorder    bool
	LeadTimeDays   int
	ServiceLevel   float64
	OrderCoverDays int
}

// Runner executes series pipelines with bounded parallelism. Model fitting
// dominates the cost, so the limit guards against CPU oversubscription.
type Runner struct {
	policy  forecast.Policy
	workers int
	timeout time.Duration
}

func NewRunner(policy forecast.Policy, workers int, timeout time.Duration) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{policy: policy, workers: workers, timeout: timeout}
}

// Run processes all jobs and returns one outcome per job, ordered by
// (product, store) regardless of completion order. Jobs left unprocessed
// when the batch deadline expires are reported as fit failures, never as
// partial results.
func (r *Runner) Run(ctx context.Context, jobs []Job, opts Options) []Outcome {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sorted := make([]Job, len(jobs))
	copy(sorted, jobs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].StoreID < sorted[j].StoreID
	})

	outcomes := make([]Outcome, len(sorted))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, job := range sorted {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{
					ProductID: job.ProductID,
					StoreID:   job.StoreID,
					Err:       fmt.Errorf("%w: batch deadline exceeded", domain.ErrFitFailure),
				}
				return nil
			}
			outcomes[i] = r.process(job, opts)
			return nil
		})
	}
	// workers only record per-job errors, so Wait cannot fail
	_ = g.Wait()

	return outcomes
}

// process runs one series through preparation, fitting, backtesting,
// forecasting and, optionally, the reorder decision.
func (r *Runner) process(job Job, opts Options) Outcome {
	out := Outcome{ProductID: job.ProductID, StoreID: job.StoreID}

	series, err := forecast.Prepare(job.ProductID, job.StoreID, job.Observations, r.policy)
	if err != nil {
		out.Err = err
		return out
	}

	model, err := forecast.Fit(series, r.policy)
	if err != nil {
		out.Err = err
		return out
	}
	out.Model = model
	out.Accuracy = forecast.Backtest(series, r.policy)

	horizon := opts.Horizon
	if opts.WithReorder {
		h := forecast.HorizonFor(forecast.ReorderInputs{
			LeadTimeDays:   opts.LeadTimeDays,
			OrderCoverDays: opts.OrderCoverDays,
		})
		if h > horizon {
			horizon = h
		}
	}

	result, err := model.Forecast(horizon, opts.Scenario)
	if err != nil {
		out.Err = err
		return out
	}
	out.Forecast = result

	if opts.WithReorder {
		decision := forecast.Decide(result, forecast.ReorderInputs{
			CurrentStock:   series.CurrentStock,
			LeadTimeDays:   opts.LeadTimeDays,
			ServiceLevel:   opts.ServiceLevel,
			OrderCoverDays: opts.OrderCoverDays,
		})
		out.Decision = &decision
	}

	log.Debug().
		Str("product", job.ProductID).
		Str("store", job.StoreID).
		Str("model", string(model.Kind)).
		Float64("wmape", out.Accuracy.WMAPE).
		Msg("pipeline: series processed")

	return out
}
