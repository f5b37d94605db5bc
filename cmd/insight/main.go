// cmd/insight/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/demand-insight/backend-go/internal/cache"
	"github.com/demand-insight/backend-go/internal/config"
	"github.com/demand-insight/backend-go/internal/ingest"
	"github.com/demand-insight/backend-go/internal/service"
	"github.com/demand-insight/backend-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDataFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "data",
		Usage:    "Path to the retail sales history CSV",
		Required: true,
		EnvVars:  []string{"INSIGHT_DATA_PATH"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "insight",
		Usage: "Demand forecasting and reorder analysis from the command line",
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "Fit models on a CSV export and print per-product metrics",
				Flags: []cli.Flag{
					newDataFlag(),
				},
				Action: runTrain,
			},
			{
				Name:  "recommend",
				Usage: "Fit models on a CSV export and print reorder recommendations",
				Flags: []cli.Flag{
					newDataFlag(),
					&cli.IntFlag{
						Name:    "lead-time",
						Usage:   "Supplier lead time in days",
						Value:   0,
						EnvVars: []string{"INSIGHT_LEAD_TIME_DAYS"},
					},
					&cli.Float64Flag{
						Name:    "service-level",
						Usage:   "Target service level as a fraction, e.g. 0.95",
						Value:   0,
						EnvVars: []string{"INSIGHT_SERVICE_LEVEL"},
					},
				},
				Action: runRecommend,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("insight command failed")
	}
}

func newService() *service.InsightService {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)
	return service.NewInsightService(cfg, cache.NewNoopRecommendationsCache())
}

func runTrain(c *cli.Context) error {
	records, err := ingest.ReadCSV(c.String("data"))
	if err != nil {
		return err
	}

	svc := newService()
	summary, err := svc.Train(c.Context, records)
	if err != nil {
		return err
	}

	fmt.Printf("trained %d products, %d pairs (%d failures)\n\n",
		summary.ProductsTrained, summary.PairsTrained, summary.Failures)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tWMAPE\tCONFIDENCE\tGUARDRAIL\tRECOMMENDATION")
	for _, m := range summary.Metrics {
		fmt.Fprintf(w, "%s\t%.3f\t%.2f\t%v\t%s\n",
			m.ProductID, m.WMAPE, m.Confidence, m.GuardrailTriggered, m.Recommendation)
	}
	return w.Flush()
}

func runRecommend(c *cli.Context) error {
	records, err := ingest.ReadCSV(c.String("data"))
	if err != nil {
		return err
	}

	svc := newService()
	if _, err := svc.Train(c.Context, records); err != nil {
		return err
	}

	recs, err := svc.AllRecommendations(c.Context, c.Int("lead-time"), c.Float64("service-level"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SKU\tPRIORITY\tSTOCK\tROP\tORDER\tSTOCKOUT")
	for _, r := range recs {
		stockout := "-"
		if r.EstimatedStockoutDate != nil {
			stockout = *r.EstimatedStockoutDate
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.SKUID, r.Priority, r.CurrentStock, r.ReorderPoint, r.RecommendedOrder, stockout)
	}
	return w.Flush()
}
