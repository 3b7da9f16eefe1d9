package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createStatusTableSQL = `CREATE TABLE IF NOT EXISTS chatbot_status (
	chat_id    BIGINT PRIMARY KEY,
	enabled_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectStatusSQL = `SELECT EXISTS(SELECT 1 FROM chatbot_status WHERE chat_id = $1)`
	insertStatusSQL = `INSERT INTO chatbot_status (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`
	deleteStatusSQL = `DELETE FROM chatbot_status WHERE chat_id = $1`
)

// PgConn is the subset of a Postgres connection used by PostgresStatusStore.
// *pgxpool.Conn satisfies it.
type PgConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connector hands out a connection for one operation along with its release func.
type Connector func(ctx context.Context) (PgConn, func(), error)

// PoolConnector acquires connections from pool; release returns them to it.
func PoolConnector(pool *pgxpool.Pool) Connector {
	return func(ctx context.Context) (PgConn, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conn, conn.Release, nil
	}
}

// NewPool opens a pgx pool for dsn and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}
	return pool, nil
}

// PostgresStatusStore keeps one row per enabled chat in chatbot_status.
type PostgresStatusStore struct {
	connect Connector
	timeout time.Duration
}

// NewPostgresStatusStore creates a status store that acquires a connection per call.
func NewPostgresStatusStore(connect Connector, timeout time.Duration) (*PostgresStatusStore, error) {
	if connect == nil {
		return nil, errors.New("repository: connector must not be nil")
	}
	return &PostgresStatusStore{connect: connect, timeout: timeout}, nil
}

func (s *PostgresStatusStore) withConn(ctx context.Context, op string, fn func(context.Context, PgConn) error) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	conn, release, err := s.connect(ctx)
	if err != nil {
		return unavailable(op+" acquire", err)
	}
	defer release()

	if err := fn(ctx, conn); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (s *PostgresStatusStore) IsEnabled(ctx context.Context, chatID int64) (bool, error) {
	var enabled bool
	err := s.withConn(ctx, "IsEnabled", func(ctx context.Context, conn PgConn) error {
		return conn.QueryRow(ctx, selectStatusSQL, chatID).Scan(&enabled)
	})
	if err != nil {
		return false, err
	}
	return enabled, nil
}

func (s *PostgresStatusStore) Enable(ctx context.Context, chatID int64) error {
	return s.withConn(ctx, "Enable", func(ctx context.Context, conn PgConn) error {
		_, err := conn.Exec(ctx, insertStatusSQL, chatID)
		return err
	})
}

func (s *PostgresStatusStore) Disable(ctx context.Context, chatID int64) error {
	return s.withConn(ctx, "Disable", func(ctx context.Context, conn PgConn) error {
		_, err := conn.Exec(ctx, deleteStatusSQL, chatID)
		return err
	})
}

// EnsureSchema creates chatbot_status when it is missing.
func (s *PostgresStatusStore) EnsureSchema(ctx context.Context) error {
	return s.withConn(ctx, "EnsureSchema", func(ctx context.Context, conn PgConn) error {
		_, err := conn.Exec(ctx, createStatusTableSQL)
		return err
	})
}
