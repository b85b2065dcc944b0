package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"fairprice/models"
	"fairprice/utils"
)

// PostgresStore keeps precomputed locality statistics in PostgreSQL. It is
// both the serving-time StatisticsSource and the writer the offline tools
// seed it with.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it with the
// given retry policy, runs schema migrations, and returns a ready store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	if err := retry.Do(ctx, "postgres: ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, err
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS locality_stats (
			locality   TEXT             PRIMARY KEY,
			q25        DOUBLE PRECISION NOT NULL,
			median     DOUBLE PRECISION NOT NULL,
			q75        DOUBLE PRECISION NOT NULL,
			density    DOUBLE PRECISION
		);

		CREATE TABLE IF NOT EXISTS global_stats (
			id            SMALLINT         PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			bedroom_mean  DOUBLE PRECISION NOT NULL,
			bathroom_mean DOUBLE PRECISION NOT NULL
		);

		CREATE TABLE IF NOT EXISTS valid_states (
			state TEXT PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS state_localities (
			state    TEXT NOT NULL REFERENCES valid_states(state) ON DELETE CASCADE,
			locality TEXT NOT NULL,
			PRIMARY KEY (state, locality)
		);

		CREATE INDEX IF NOT EXISTS idx_state_localities_state ON state_localities(state);
	`)
	return err
}

// Clear deletes all statistics.
func (ps *PostgresStore) Clear(ctx context.Context) error {
	return ps.clear(ctx, ps.db)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (ps *PostgresStore) clear(ctx context.Context, ex execer) error {
	_, err := ex.ExecContext(ctx, `
		DELETE FROM state_localities;
		DELETE FROM valid_states;
		DELETE FROM global_stats;
		DELETE FROM locality_stats;
	`)
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the stored statistics with snap in one transaction.
func (ps *PostgresStore) Write(ctx context.Context, snap *models.StatisticsSnapshot) error {
	if snap == nil {
		return fmt.Errorf("postgres: write: nil snapshot")
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ps.clear(ctx, tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO global_stats (id, bedroom_mean, bathroom_mean) VALUES (1, $1, $2)`,
		snap.Global.BedroomMean, snap.Global.BathroomMean); err != nil {
		return fmt.Errorf("postgres: insert global stats: %w", err)
	}

	for _, st := range snap.Global.ValidStates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO valid_states (state) VALUES ($1) ON CONFLICT (state) DO NOTHING`, st); err != nil {
			return fmt.Errorf("postgres: insert state %q: %w", st, err)
		}
	}

	const batchSize = 50
	locs := snap.Localities
	for i := 0; i < len(locs); i += batchSize {
		end := i + batchSize
		if end > len(locs) {
			end = len(locs)
		}
		if err := insertLocalityBatch(ctx, tx, locs[i:end], snap.LocationDensity); err != nil {
			return err
		}
	}

	states := make([]string, 0, len(snap.StateLocalities))
	for st := range snap.StateLocalities {
		states = append(states, st)
	}
	sort.Strings(states)
	for _, st := range states {
		for _, loc := range snap.StateLocalities[st] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO state_localities (state, locality) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				st, loc); err != nil {
				return fmt.Errorf("postgres: insert mapping %s/%s: %w", st, loc, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertLocalityBatch(ctx context.Context, tx *sql.Tx, batch []models.LocalityStatistics, density map[string]float64) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	for idx, l := range batch {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))

		var d sql.NullFloat64
		if l.Density != nil {
			d = sql.NullFloat64{Float64: *l.Density, Valid: true}
		}
		if v, ok := density[l.Locality]; ok {
			d = sql.NullFloat64{Float64: v, Valid: true}
		}
		valueArgs = append(valueArgs, l.Locality, l.Q25, l.Median, l.Q75, d)
	}

	query := fmt.Sprintf(`
		INSERT INTO locality_stats (locality, q25, median, q75, density)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert locality batch: %w", err)
	}
	return nil
}

// Load reads the full snapshot.
func (ps *PostgresStore) Load(ctx context.Context) (*models.StatisticsSnapshot, error) {
	snap := &models.StatisticsSnapshot{
		LocationDensity: make(map[string]float64),
		StateLocalities: make(map[string][]string),
	}

	err := ps.db.QueryRowContext(ctx,
		`SELECT bedroom_mean, bathroom_mean FROM global_stats WHERE id = 1`,
	).Scan(&snap.Global.BedroomMean, &snap.Global.BathroomMean)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("postgres: load: global statistics missing")
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load global stats: %w", err)
	}

	states, err := ps.db.QueryContext(ctx, `SELECT state FROM valid_states ORDER BY state`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load states: %w", err)
	}
	for states.Next() {
		var st string
		if err := states.Scan(&st); err != nil {
			states.Close()
			return nil, fmt.Errorf("postgres: scan state: %w", err)
		}
		snap.Global.ValidStates = append(snap.Global.ValidStates, st)
	}
	states.Close()
	if err := states.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load states: %w", err)
	}

	rows, err := ps.db.QueryContext(ctx, `
		SELECT locality, q25, median, q75, density
		FROM locality_stats
		ORDER BY locality
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch localities: %w", err)
	}
	for rows.Next() {
		var (
			l models.LocalityStatistics
			d sql.NullFloat64
		)
		if err := rows.Scan(&l.Locality, &l.Q25, &l.Median, &l.Q75, &d); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: scan locality: %w", err)
		}
		if d.Valid {
			snap.LocationDensity[l.Locality] = d.Float64
		}
		snap.Localities = append(snap.Localities, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch localities: %w", err)
	}

	mapping, err := ps.db.QueryContext(ctx, `SELECT state, locality FROM state_localities ORDER BY state, locality`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch mapping: %w", err)
	}
	defer mapping.Close()
	for mapping.Next() {
		var st, loc string
		if err := mapping.Scan(&st, &loc); err != nil {
			return nil, fmt.Errorf("postgres: scan mapping: %w", err)
		}
		snap.StateLocalities[st] = append(snap.StateLocalities[st], loc)
	}
	return snap, mapping.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
