// parcelcost CLI - parcel cost resolution and carrier mix optimization
//
// Usage:
//   parcelcost rate --shipments shipments.csv [--sink-clickhouse]
//   parcelcost optimize --shipments shipments.csv --min HDX=100 --min PSL=50
//   parcelcost cutoffs --shipments shipments.csv --low PSL --mid HDX --high HDX
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"carrier-cost/db/clickhouse"
	"carrier-cost/db/postgres"
	"carrier-cost/decision/optimizer"
	"carrier-cost/decision/ratecard"
	"carrier-cost/decision/ratecard/carriers"
	"carrier-cost/decision/rating"
	"carrier-cost/decision/shipment"
	"carrier-cost/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "parcelcost",
		Usage:   "Parcel cost resolution and constrained carrier-mix optimization",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"PARCELCOST_LOG_LEVEL"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Value:   platform.GetEnvInt("PARCELCOST_WORKERS", 8),
				Usage:   "Rating worker pool size",
				EnvVars: []string{"PARCELCOST_WORKERS"},
			},
		},

		Commands: []*cli.Command{
			rateCommand(),
			optimizeCommand(),
			cutoffsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// RATE COMMAND
// =============================================================================

func rateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "Rate shipments against every carrier contract",
		Flags: append(inputFlags(),
			&cli.BoolFlag{
				Name:  "sink-clickhouse",
				Usage: "Persist itemized breakdowns to ClickHouse",
			},
		),
		Action: runRate,
	}
}

func runRate(c *cli.Context) error {
	logger := platform.InitLogger(c.String("log-level"))

	result, err := rateShipments(c)
	if err != nil {
		return err
	}
	logger.Info("rating complete",
		"shipments", result.ShipmentsProcessed,
		"unserviceable", result.Unserviceable,
	)

	if c.Bool("sink-clickhouse") {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()
		runID := uuid.New()
		var all []*rating.Breakdown
		for _, ev := range result.Evaluations {
			all = append(all, ev.Breakdowns...)
		}
		if err := store.SaveBreakdowns(c.Context, runID, all); err != nil {
			return err
		}
		logger.Info("breakdowns persisted", "run_id", runID, "rows", len(all))
		return nil
	}

	return printJSON(result)
}

// =============================================================================
// OPTIMIZE COMMAND
// =============================================================================

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Assign groups to carriers under minimum-volume commitments",
		Flags: append(inputFlags(),
			&cli.StringSliceFlag{
				Name:  "min",
				Usage: "Minimum volume commitment, CARRIER=COUNT (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "repair-order",
				Usage: "Carrier processing order during constraint repair",
			},
			&cli.BoolFlag{
				Name:  "sink-clickhouse",
				Usage: "Persist the assignment to ClickHouse",
			},
		),
		Action: runOptimize,
	}
}

func runOptimize(c *cli.Context) error {
	logger := platform.InitLogger(c.String("log-level"))

	result, err := rateShipments(c)
	if err != nil {
		return err
	}

	constraints, err := parseConstraints(c.StringSlice("min"))
	if err != nil {
		return err
	}

	groups := rating.Aggregate(result.Evaluations)
	res := optimizer.Optimize(optimizer.Request{
		Groups:      groups,
		Constraints: constraints,
		RepairOrder: c.StringSlice("repair-order"),
	})

	logger.Info("optimization complete",
		"groups", len(groups),
		"total_cost", res.TotalCost.StringFixed(2),
		"feasible", res.Feasible,
	)
	if !res.Feasible {
		logger.Warn("assignment infeasible", "reason", res.Infeasibility)
	}

	if c.Bool("sink-clickhouse") {
		store, err := openStore(c)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveResult(c.Context, res); err != nil {
			return err
		}
		logger.Info("assignment persisted", "run_id", res.RunID, "groups", len(res.Assignment))
	}
	return printJSON(res)
}

// =============================================================================
// CUTOFFS COMMAND
// =============================================================================

func cutoffsCommand() *cli.Command {
	return &cli.Command{
		Name:  "cutoffs",
		Usage: "Grid-search weight cutoffs, threshold-aware",
		Flags: append(inputFlags(),
			&cli.StringFlag{Name: "low", Required: true, Usage: "Carrier for weights <= low cutoff"},
			&cli.StringFlag{Name: "mid", Required: true, Usage: "Carrier for weights <= high cutoff"},
			&cli.StringFlag{Name: "high", Required: true, Usage: "Carrier above the high cutoff"},
			&cli.StringFlag{Name: "threshold-carrier", Usage: "Carrier with an earned-discount threshold"},
			&cli.Float64Flag{Name: "threshold-spend", Usage: "Qualifying spend required"},
			&cli.Float64Flag{Name: "target-factor", Usage: "Rate factor earned at the threshold tier"},
			&cli.IntFlag{Name: "max-iterations", Value: 100000, Usage: "Grid search iteration cap"},
		),
		Action: runCutoffs,
	}
}

func runCutoffs(c *cli.Context) error {
	logger := platform.InitLogger(c.String("log-level"))

	result, err := rateShipments(c)
	if err != nil {
		return err
	}

	req := optimizer.CutoffRequest{
		Groups: rating.Aggregate(result.Evaluations),
		Route: optimizer.CutoffRoute{
			LowCarrier:  c.String("low"),
			MidCarrier:  c.String("mid"),
			HighCarrier: c.String("high"),
		},
		MaxIterations: c.Int("max-iterations"),
	}
	if tc := c.String("threshold-carrier"); tc != "" {
		req.Threshold = &optimizer.Threshold{
			Carrier:       tc,
			MinQualifying: decimal.NewFromFloat(c.Float64("threshold-spend")),
			TargetFactor:  c.Float64("target-factor"),
		}
	}

	res := optimizer.SearchCutoffs(req)
	logger.Info("cutoff search complete", "iterations", res.Iterations, "capped", res.Capped)
	if req.Threshold != nil && res.Qualified == nil {
		logger.Warn("threshold unreachable in searched space", "carrier", req.Threshold.Carrier)
	}
	return printJSON(res)
}

// =============================================================================
// SHARED INPUT HANDLING
// =============================================================================

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "shipments",
			Aliases: []string{"s"},
			Usage:   "Path to shipments CSV (id,ship_date,origin,dest_postal,package_type,length,width,height,weight)",
		},
		&cli.StringFlag{
			Name:    "postgres-dsn",
			Usage:   "Load shipments from Postgres instead of CSV",
			EnvVars: []string{"PARCELCOST_POSTGRES_DSN"},
		},
		&cli.StringFlag{
			Name:  "origin",
			Value: "LAX1",
			Usage: "Origin facility filter for the Postgres source",
		},
		&cli.StringSliceFlag{
			Name:  "cards",
			Usage: "Carrier contract JSON file (repeatable); bundled contracts when omitted",
		},
	}
}

// openStore connects to the analytics sink and ensures the output
// tables exist. Connection settings come from the CLICKHOUSE_* env
// vars with development defaults.
func openStore(c *cli.Context) (*clickhouse.Store, error) {
	store, err := clickhouse.NewStore(&clickhouse.Config{
		Host:     platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
		Port:     platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
		Database: platform.GetEnv("CLICKHOUSE_DATABASE", "carriercost"),
		Username: platform.GetEnv("CLICKHOUSE_USER", "default"),
		Password: platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(c.Context); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func rateShipments(c *cli.Context) (*rating.BatchResult, error) {
	shipments, err := loadShipments(c)
	if err != nil {
		return nil, err
	}

	contracts := carriers.All()
	if paths := c.StringSlice("cards"); len(paths) > 0 {
		contracts, err = ratecard.LoadCarriers(paths)
		if err != nil {
			return nil, err
		}
	}
	engine, err := rating.NewEngine(contracts...)
	if err != nil {
		return nil, fmt.Errorf("rate card configuration: %w", err)
	}
	return engine.RateAll(c.Context, shipments, c.Int("workers"))
}

func loadShipments(c *cli.Context) ([]shipment.Shipment, error) {
	if dsn := c.String("postgres-dsn"); dsn != "" {
		src, err := postgres.Open(dsn)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Load(c.Context, c.String("origin"))
	}
	path := c.String("shipments")
	if path == "" {
		return nil, fmt.Errorf("either --shipments or --postgres-dsn is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shipments file: %w", err)
	}
	defer f.Close()
	return readShipmentsCSV(f)
}

func readShipmentsCSV(r io.Reader) ([]shipment.Shipment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 9

	var shipments []shipment.Shipment
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read shipments CSV: %w", err)
		}
		line++
		if line == 1 && record[0] == "id" {
			continue // header
		}

		shipDate, err := time.Parse("2006-01-02", record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad ship_date %q: %w", line, record[1], err)
		}
		nums := make([]float64, 4)
		for i, col := range record[5:9] {
			v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad numeric field %q: %w", line, col, err)
			}
			nums[i] = v
		}

		shipments = append(shipments, shipment.Shipment{
			ID:             record[0],
			ShipDate:       shipDate,
			OriginFacility: record[2],
			DestPostal:     record[3],
			PackageType:    record[4],
			Length:         nums[0],
			Width:          nums[1],
			Height:         nums[2],
			ActualWeight:   nums[3],
		})
	}
	return shipments, nil
}

func parseConstraints(specs []string) ([]optimizer.Constraint, error) {
	var constraints []optimizer.Constraint
	for _, spec := range specs {
		parts := strings.SplitN(spec, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad --min %q, want CARRIER=COUNT", spec)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("bad --min count %q: %w", parts[1], err)
		}
		constraints = append(constraints, optimizer.Constraint{Carrier: parts[0], MinVolume: n})
	}
	return constraints, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
