package store

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/punchamoorthee/settlebank/internal/domain"
)

const registrationsSchema = `CREATE TABLE IF NOT EXISTS registrations (
	seq           BIGSERIAL PRIMARY KEY,
	registered_at BIGINT NOT NULL CHECK (registered_at >= 0),
	user_id       TEXT   NOT NULL,
	pin           TEXT   NOT NULL,
	balance       BIGINT NOT NULL CHECK (balance >= 0)
)`

// PostgresRegistrations is an account bootstrap feed backed by Postgres.
type PostgresRegistrations struct {
	Db *pgxpool.Pool
}

func NewPostgresRegistrations(ctx context.Context, connString string) (*PostgresRegistrations, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresRegistrations{Db: pool}, nil
}

func (s *PostgresRegistrations) Close() {
	s.Db.Close()
}

// EnsureSchema creates the registrations table if it is missing.
func (s *PostgresRegistrations) EnsureSchema(ctx context.Context) error {
	if _, err := s.Db.Exec(ctx, registrationsSchema); err != nil {
		return fmt.Errorf("create registrations table: %w", err)
	}
	return nil
}

// Count returns the number of stored registrations.
func (s *PostgresRegistrations) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.Db.QueryRow(ctx, "SELECT COUNT(*) FROM registrations").Scan(&n)
	return n, err
}

// Load returns every registration in insertion order.
func (s *PostgresRegistrations) Load(ctx context.Context) ([]domain.Registration, error) {
	rows, err := s.Db.Query(ctx,
		"SELECT registered_at, user_id, pin, balance FROM registrations ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		var at, balance int64
		var reg domain.Registration
		if err := rows.Scan(&at, &reg.ID, &reg.PIN, &balance); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.RegisteredAt = domain.Timestamp(at)
		reg.Balance = uint64(balance)
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}
	return regs, nil
}

// CopyIn bulk-inserts regs with the COPY protocol.
func (s *PostgresRegistrations) CopyIn(ctx context.Context, regs []domain.Registration) (int64, error) {
	rows := make([][]any, 0, len(regs))
	for _, r := range regs {
		if uint64(r.RegisteredAt) > math.MaxInt64 || r.Balance > math.MaxInt64 {
			return 0, fmt.Errorf("registration %s does not fit in BIGINT", r.ID)
		}
		rows = append(rows, []any{int64(r.RegisteredAt), r.ID, r.PIN, int64(r.Balance)})
	}

	n, err := s.Db.CopyFrom(
		ctx,
		pgx.Identifier{"registrations"},
		[]string{"registered_at", "user_id", "pin", "balance"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}
	return n, nil
}

// Truncate removes every registration.
func (s *PostgresRegistrations) Truncate(ctx context.Context) error {
	_, err := s.Db.Exec(ctx, "TRUNCATE TABLE registrations RESTART IDENTITY")
	return err
}
