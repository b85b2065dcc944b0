package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"fairprice/models"
	"fairprice/utils"
)

// Builder computes a statistics snapshot from a CSV of cleaned historical
// listings using an in-memory DuckDB. The CSV needs at least the columns
// state, locality, price, bedrooms and bathrooms.
type Builder struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewBuilder opens an in-memory DuckDB.
func NewBuilder(logger *utils.Logger) (*Builder, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	if logger == nil {
		logger = utils.Discard()
	}
	return &Builder{db: db, logger: logger}, nil
}

// Build loads csvPath and aggregates it. Rows with no state, no locality or
// a non-positive price are ignored. Density is each locality's share of the
// remaining listings.
func (b *Builder) Build(ctx context.Context, csvPath string) (*models.StatisticsSnapshot, error) {
	if _, err := b.db.ExecContext(ctx, `DROP TABLE IF EXISTS listings`); err != nil {
		return nil, fmt.Errorf("duckdb: reset: %w", err)
	}

	load := fmt.Sprintf(`
		CREATE TABLE listings AS
		SELECT
			trim(CAST(state AS VARCHAR))    AS state,
			trim(CAST(locality AS VARCHAR)) AS locality,
			CAST(price AS DOUBLE)           AS price,
			CAST(bedrooms AS DOUBLE)        AS bedrooms,
			CAST(bathrooms AS DOUBLE)       AS bathrooms
		FROM read_csv_auto('%s', header = true)
		WHERE state IS NOT NULL AND trim(CAST(state AS VARCHAR)) <> ''
		  AND locality IS NOT NULL AND trim(CAST(locality AS VARCHAR)) <> ''
		  AND price IS NOT NULL AND CAST(price AS DOUBLE) > 0
	`, strings.ReplaceAll(csvPath, "'", "''"))
	if _, err := b.db.ExecContext(ctx, load); err != nil {
		return nil, fmt.Errorf("duckdb: load %s: %w", csvPath, err)
	}

	var total int64
	if err := b.db.QueryRowContext(ctx, `SELECT count(*) FROM listings`).Scan(&total); err != nil {
		return nil, fmt.Errorf("duckdb: count: %w", err)
	}
	if total == 0 {
		return nil, fmt.Errorf("duckdb: %s has no usable listings", csvPath)
	}

	snap := &models.StatisticsSnapshot{
		LocationDensity: make(map[string]float64),
		StateLocalities: make(map[string][]string),
	}

	var bedMean, bathMean sql.NullFloat64
	if err := b.db.QueryRowContext(ctx,
		`SELECT avg(bedrooms), avg(bathrooms) FROM listings`,
	).Scan(&bedMean, &bathMean); err != nil {
		return nil, fmt.Errorf("duckdb: global means: %w", err)
	}
	snap.Global.BedroomMean = bedMean.Float64
	snap.Global.BathroomMean = bathMean.Float64

	if err := b.localityStats(ctx, snap, total); err != nil {
		return nil, err
	}
	if err := b.stateMapping(ctx, snap); err != nil {
		return nil, err
	}

	b.logger.Info("[builder] %d listings → %d localities across %d states",
		total, len(snap.Localities), len(snap.Global.ValidStates))
	return snap, nil
}

func (b *Builder) localityStats(ctx context.Context, snap *models.StatisticsSnapshot, total int64) error {
	rows, err := b.db.QueryContext(ctx, `
		SELECT
			locality,
			quantile_cont(price, 0.25),
			quantile_cont(price, 0.5),
			quantile_cont(price, 0.75),
			count(*)
		FROM listings
		GROUP BY locality
		ORDER BY locality
	`)
	if err != nil {
		return fmt.Errorf("duckdb: locality quantiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l models.LocalityStatistics
			n int64
		)
		if err := rows.Scan(&l.Locality, &l.Q25, &l.Median, &l.Q75, &n); err != nil {
			return fmt.Errorf("duckdb: scan locality: %w", err)
		}
		snap.Localities = append(snap.Localities, l)
		snap.LocationDensity[l.Locality] = float64(n) / float64(total)
	}
	return rows.Err()
}

func (b *Builder) stateMapping(ctx context.Context, snap *models.StatisticsSnapshot) error {
	rows, err := b.db.QueryContext(ctx, `
		SELECT DISTINCT state, locality
		FROM listings
		ORDER BY state, locality
	`)
	if err != nil {
		return fmt.Errorf("duckdb: state mapping: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st, loc string
		if err := rows.Scan(&st, &loc); err != nil {
			return fmt.Errorf("duckdb: scan mapping: %w", err)
		}
		if _, seen := snap.StateLocalities[st]; !seen {
			snap.Global.ValidStates = append(snap.Global.ValidStates, st)
		}
		snap.StateLocalities[st] = append(snap.StateLocalities[st], loc)
	}
	return rows.Err()
}

func (b *Builder) Close() error {
	return b.db.Close()
}
