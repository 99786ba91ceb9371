package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver for goose
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// PostgresConfig configures the Postgres-backed audit store. Mirrors the
// validated-field shape of the teacher's repository.PostgresConfig,
// trimmed to what a single fixed-schema append log needs.
type PostgresConfig struct {
	DSN          string
	SchemaName   string
	MaxOpenConns int
	MaxIdleConns int
}

func (c PostgresConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("audit: DSN cannot be empty")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("audit: MaxOpenConns must be greater than 0")
	}
	return nil
}

// DefaultPostgresConfig mirrors repository.DefaultPostgresConfig's pool sizing.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		SchemaName:   "public",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}
}

// PostgresStore is an append-only audit log backed by PostgreSQL.
type PostgresStore struct {
	cfg  PostgresConfig
	pool *pgxpool.Pool
}

// NewPostgresStore connects, applies pending migrations via goose, and
// returns a ready store. Migrations run over database/sql (goose's
// requirement) through pgx's stdlib adapter; all subsequent traffic
// uses the native pgxpool driver, matching the split already present
// in the teacher's migrations package (goose_wrapper.go vs.
// postgres_adapter.go).
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("audit: opening migration connection: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(postgresMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("audit: setting goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations/postgres"); err != nil {
		return nil, fmt.Errorf("audit: running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("audit: parsing pool config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("audit: connecting pool: %w", err)
	}

	return &PostgresStore{cfg: cfg, pool: pool}, nil
}

func (s *PostgresStore) table() string {
	return fmt.Sprintf("%s.kernel_audit_log", s.cfg.SchemaName)
}

// Append inserts r as a new row.
func (s *PostgresStore) Append(ctx context.Context, r Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (ts, kind, victim, request_id, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.table())
	_, err := s.pool.Exec(ctx, query, r.Timestamp, string(r.Kind), r.Victim, r.RequestID, r.Status, r.Reason)
	if err != nil {
		return fmt.Errorf("audit: inserting record: %w", err)
	}
	return nil
}

// Recent returns the most recently appended records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT ts, kind, victim, request_id, status, reason
		FROM %s ORDER BY ts DESC LIMIT $1
	`, s.table())
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: querying records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var kind string
		if err := rows.Scan(&r.Timestamp, &kind, &r.Victim, &r.RequestID, &r.Status, &r.Reason); err != nil {
			return nil, fmt.Errorf("audit: scanning record: %w", err)
		}
		r.Kind = Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
