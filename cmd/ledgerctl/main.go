package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/sjperalta/car-ledger-api/internal/config"
	"github.com/sjperalta/car-ledger-api/internal/database"
	"github.com/sjperalta/car-ledger-api/internal/jobs"
	"github.com/sjperalta/car-ledger-api/internal/models"
	"github.com/sjperalta/car-ledger-api/internal/repository"
	"github.com/sjperalta/car-ledger-api/internal/services"
	"github.com/sjperalta/car-ledger-api/internal/storage"
	"github.com/sjperalta/car-ledger-api/pkg/logger"
)

// app wires the services for a single command
type app struct {
	cfg    *config.Config
	dbs    *database.Set
	worker *jobs.Worker
	svcs   *services.Services
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	// stdout carries the command's JSON output
	logger.SetupWriter(os.Stderr, cfg.Environment, cfg.LogLevel)

	dbs, err := database.OpenSet(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewLocalStorage(cfg.DataDir, cfg.ExportDir)
	if err != nil {
		dbs.Close()
		return nil, err
	}
	worker := jobs.NewWorker(1)
	svcs, err := services.NewServices(repository.NewRepositories(dbs), worker, store, cfg)
	if err != nil {
		worker.Shutdown()
		dbs.Close()
		return nil, err
	}
	return &app{cfg: cfg, dbs: dbs, worker: worker, svcs: svcs}, nil
}

func (a *app) close() {
	a.worker.Shutdown()
	a.dbs.Close()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDecimal(c *cli.Context, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.String(name))
	if err != nil {
		return decimal.Zero, cli.Exit(fmt.Sprintf("--%s must be a number", name), 2)
	}
	return d, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rateFlag := &cli.StringFlag{Name: "rate", Usage: "RON per EUR", Required: true}

	cliApp := &cli.App{
		Name:  "ledgerctl",
		Usage: "operator tasks on the CAR ledger databases",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "show whether the EUR conversion was applied",
				Action: func(c *cli.Context) error {
					a, err := setup()
					if err != nil {
						return err
					}
					defer a.close()
					status, err := a.svcs.Conversion.Status()
					if err != nil {
						return err
					}
					return printJSON(status)
				},
			},
			{
				Name:  "preview",
				Usage: "validate the databases and estimate the conversion",
				Flags: []cli.Flag{rateFlag},
				Action: func(c *cli.Context) error {
					rate, err := parseDecimal(c, "rate")
					if err != nil {
						return err
					}
					a, err := setup()
					if err != nil {
						return err
					}
					defer a.close()
					preview, err := a.svcs.Conversion.Preview(c.Context, rate)
					if err != nil {
						return err
					}
					return printJSON(preview)
				},
			},
			{
				Name:  "convert",
				Usage: "run the one-time RON to EUR conversion",
				Flags: []cli.Flag{
					rateFlag,
					&cli.StringFlag{Name: "actor", Usage: "operator recorded in the status marker", Value: os.Getenv("USER")},
					&cli.BoolFlag{Name: "acknowledge-integrity", Usage: "proceed although some members have ledger activity without registration"},
					&cli.StringFlag{Name: "report", Usage: "write the report to the export directory as csv or xlsx"},
				},
				Action: func(c *cli.Context) error {
					rate, err := parseDecimal(c, "rate")
					if err != nil {
						return err
					}
					a, err := setup()
					if err != nil {
						return err
					}
					defer a.close()

					report, err := a.svcs.Conversion.RunConversion(c.Context, services.ConversionRequest{
						Rate:                 rate,
						Actor:                c.String("actor"),
						AcknowledgeIntegrity: c.Bool("acknowledge-integrity"),
					}, func(percent int, message string) {
						fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", percent, message)
					})
					if err != nil {
						return err
					}

					if format := c.String("report"); format != "" {
						_, name, err := a.svcs.Export.Export(report, format)
						if err != nil {
							return err
						}
						fmt.Fprintf(os.Stderr, "report saved as %s\n", name)
					}
					return printJSON(summary(report))
				},
			},
			{
				Name:  "distribute-benefits",
				Usage: "split a year's profit over deposit balances and rebuild ACTIVI",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Required: true},
					&cli.StringFlag{Name: "profit", Required: true},
					&cli.BoolFlag{Name: "dry-run"},
				},
				Action: func(c *cli.Context) error {
					profit, err := parseDecimal(c, "profit")
					if err != nil {
						return err
					}
					a, err := setup()
					if err != nil {
						return err
					}
					defer a.close()

					var dist *services.BenefitDistribution
					if c.Bool("dry-run") {
						dist, err = a.svcs.Benefit.Calculate(c.Context, c.Int("year"), profit)
					} else {
						dist, err = a.svcs.Benefit.Distribute(c.Context, c.Int("year"), profit)
					}
					if err != nil {
						return err
					}
					return printJSON(dist)
				},
			},
			{
				Name:  "transfer-benefits",
				Usage: "add a year's distributed benefits to the next January contribution",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Required: true},
				},
				Action: func(c *cli.Context) error {
					a, err := setup()
					if err != nil {
						return err
					}
					defer a.close()

					result, err := a.svcs.Benefit.Transfer(c.Context, c.Int("year"))
					if err != nil {
						return err
					}
					if err := printJSON(result); err != nil {
						return err
					}
					if skipped := len(result.MissingJanuary) + len(result.Failed); skipped > 0 {
						return cli.Exit(fmt.Sprintf("%d member(s) not transferred", skipped), 1)
					}
					return nil
				},
			},
			{
				Name:  "recalculate",
				Usage: "recompute balances of every month after the given one",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "member", Required: true},
					&cli.StringFlag{Name: "after", Usage: "month as MM-YYYY", Required: true},
				},
				Action: func(c *cli.Context) error {
					period, err := models.ParsePeriod(c.String("after"))
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					a, err := setup()
					if err != nil {
						return err
					}
					defer a.close()

					months, err := a.svcs.Ledger.Recalculate(c.Context, c.Int("member"), period)
					if err != nil {
						return err
					}
					fmt.Printf("recalculated %d month(s) after %s\n", months, period)
					return nil
				},
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// summary drops the per-table detail already present in the exported report
func summary(r *models.ConversionReport) map[string]any {
	return map[string]any{
		"run_id":                    r.RunID,
		"rate":                      r.Rate,
		"actor":                     r.Actor,
		"tables":                    len(r.Tables),
		"copied":                    len(r.Copied),
		"total_original_ron":        r.TotalOriginalRON.StringFixed(2),
		"total_converted_eur":       r.TotalConvertedEUR.StringFixed(2),
		"total_theoretical_eur":     r.TotalTheoreticalEUR.StringFixed(2),
		"total_rounding_difference": r.TotalRoundingDifference.StringFixed(2),
		"warnings":                  r.Warnings,
	}
}
