// Package clickhouse persists rated cost breakdowns and optimizer
// results for downstream spend analytics. Columnar storage suits the
// write-once, aggregate-heavy shape of rating output. The decision
// engines never import this package; it is the boundary to the
// surrounding tooling.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"carrier-cost/decision/optimizer"
	"carrier-cost/decision/rating"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "carriercost",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store writes rating and optimization output to ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore opens a connection.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the output tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS cost_breakdowns (
			run_id UUID,
			shipment_id String,
			carrier LowCardinality(String),
			service LowCardinality(String),
			zone LowCardinality(String),
			remote_area UInt8,
			billable_weight Float64,
			oversize UInt8,
			component LowCardinality(String),
			amount Decimal(18, 4),
			subtotal Decimal(18, 4),
			total Decimal(18, 4),
			qualifying Decimal(18, 4),
			created_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (run_id, carrier, service, shipment_id, component)`,
		`CREATE TABLE IF NOT EXISTS optimizer_results (
			run_id UUID,
			package_type LowCardinality(String),
			dest_bucket LowCardinality(String),
			weight_lb Float64,
			carrier LowCardinality(String),
			total_cost Decimal(18, 4),
			feasible UInt8,
			infeasibility String,
			evaluated_at DateTime,
			created_at DateTime
		) ENGINE = MergeTree()
		ORDER BY (run_id, carrier, package_type, dest_bucket, weight_lb)`,
	}
	for _, q := range ddl {
		if err := s.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveBreakdowns batch-inserts itemized breakdowns, one row per cost
// component.
func (s *Store) SaveBreakdowns(ctx context.Context, runID uuid.UUID, breakdowns []*rating.Breakdown) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO cost_breakdowns (
			run_id, shipment_id, carrier, service, zone, remote_area,
			billable_weight, oversize, component, amount,
			subtotal, total, qualifying, created_at
		)`)
	if err != nil {
		return fmt.Errorf("failed to prepare breakdown batch: %w", err)
	}

	now := time.Now()
	for _, b := range breakdowns {
		for component, amount := range b.Components {
			if err := batch.Append(
				runID,
				b.ShipmentID,
				b.Carrier,
				b.Service,
				b.Zone,
				boolToUInt8(b.RemoteArea),
				b.BillableWeight,
				boolToUInt8(b.Oversize),
				component,
				amount,
				b.Subtotal,
				b.Total,
				b.Qualifying,
				now,
			); err != nil {
				return fmt.Errorf("failed to append breakdown row: %w", err)
			}
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert breakdowns: %w", err)
	}
	return nil
}

// SaveResult persists one optimizer run, one row per assigned group.
func (s *Store) SaveResult(ctx context.Context, res *optimizer.Result) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO optimizer_results (
			run_id, package_type, dest_bucket, weight_lb, carrier,
			total_cost, feasible, infeasibility, evaluated_at, created_at
		)`)
	if err != nil {
		return fmt.Errorf("failed to prepare result batch: %w", err)
	}

	now := time.Now()
	for key, carrier := range res.Assignment {
		if err := batch.Append(
			res.RunID,
			key.PackageType,
			key.DestBucket,
			key.WeightLb,
			carrier,
			res.TotalCost,
			boolToUInt8(res.Feasible),
			res.Infeasibility,
			res.EvaluatedAt,
			now,
		); err != nil {
			return fmt.Errorf("failed to append result row: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert optimizer result: %w", err)
	}
	return nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
