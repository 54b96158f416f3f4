package baseline

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oisentinel/models"
)

// PersistenceError wraps any baseline store failure. The manager maps it
// to WAITING so a cycle never alerts without a durable baseline.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("baseline store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Store persists the single daily baseline snapshot per
// (trading_date, expiry_label) in PostgreSQL.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a new store and ensures the schema exists
func NewStore(params ConnectionParams) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: log.With().Str("component", "baseline_store").Logger(),
	}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS oi_baseline (
			trading_date DATE NOT NULL,
			expiry_label TEXT NOT NULL,
			strike BIGINT NOT NULL,
			side TEXT NOT NULL,
			base_oi BIGINT NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (trading_date, expiry_label, strike, side)
		)
	`)
	return err
}

// Load retrieves the baseline snapshot for a key, nil when none exists.
func (s *Store) Load(tradingDate time.Time, expiryLabel string) (*models.BaselineSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT strike, side, base_oi, captured_at
		FROM oi_baseline
		WHERE trading_date = $1 AND expiry_label = $2
	`, tradingDate.Format("2006-01-02"), expiryLabel)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	defer rows.Close()

	snap := &models.BaselineSnapshot{
		TradingDate: tradingDate,
		ExpiryLabel: expiryLabel,
		OI:          make(map[int64]models.SideOI),
	}

	found := false
	for rows.Next() {
		var (
			strike     int64
			side       string
			baseOI     int64
			capturedAt time.Time
		)
		if err := rows.Scan(&strike, &side, &baseOI, &capturedAt); err != nil {
			return nil, &PersistenceError{Op: "load", Err: err}
		}
		found = true
		snap.CapturedAt = capturedAt

		oi := snap.OI[strike]
		switch models.OptionSide(side) {
		case models.SideCall:
			oi.CE = baseOI
		case models.SidePut:
			oi.PE = baseOI
		}
		snap.OI[strike] = oi
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	if !found {
		return nil, nil
	}
	return snap, nil
}

// Save writes a snapshot as a single logical replace for its key:
// delete-then-insert in one transaction. Only ever called on first
// capture for a (trading_date, expiry_label) pair.
func (s *Store) Save(snapshot *models.BaselineSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	defer tx.Rollback()

	date := snapshot.TradingDate.Format("2006-01-02")

	if _, err := tx.Exec(`
		DELETE FROM oi_baseline
		WHERE trading_date = $1 AND expiry_label = $2
	`, date, snapshot.ExpiryLabel); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO oi_baseline (trading_date, expiry_label, strike, side, base_oi, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	defer stmt.Close()

	for strike, oi := range snapshot.OI {
		if _, err := stmt.Exec(date, snapshot.ExpiryLabel, strike, string(models.SideCall), oi.CE, snapshot.CapturedAt); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}
		if _, err := stmt.Exec(date, snapshot.ExpiryLabel, strike, string(models.SidePut), oi.PE, snapshot.CapturedAt); err != nil {
			return &PersistenceError{Op: "save", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}

	s.logger.Info().
		Str("trading_date", date).
		Str("expiry", snapshot.ExpiryLabel).
		Int("strikes", len(snapshot.OI)).
		Msg("Baseline snapshot stored")
	return nil
}
