package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/traykit/tray/internal/codec"
	"github.com/traykit/tray/internal/config"
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

type PostgresStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// OpenPostgres connects a pool sized from cfg, checks it answers and
// applies migrations.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	poolCfg.MinConns = int32(min(cfg.MaxIdleConns, int(poolCfg.MaxConns)))
	if cfg.ConnMaxLifetime.Duration > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime.Duration
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Debug("postgres store ready",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Duration("conn_lifetime", poolCfg.MaxConnLifetime))
	return &PostgresStore{pool: pool, log: log}, nil
}

func (s *PostgresStore) Save(ctx context.Context, t *text.Text) (bool, error) {
	r := newRecord(t)
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO texts (name, filepath, flags, mtime, digest, block, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (name) DO UPDATE SET
		     filepath = EXCLUDED.filepath, flags = EXCLUDED.flags, mtime = EXCLUDED.mtime,
		     digest = EXCLUDED.digest, block = EXCLUDED.block, updated_at = EXCLUDED.updated_at
		 WHERE texts.digest <> EXCLUDED.digest`,
		r.name, r.filepath, r.flags, r.mtime, r.digest, r.block, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Load(ctx context.Context, m *kernel.Main, name string) (*text.Text, error) {
	var block []byte
	err := s.pool.QueryRow(ctx,
		`SELECT block FROM texts WHERE name = $1`, name,
	).Scan(&block)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeText(m, block, s.log)
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, filepath, flags, mtime, length(block), updated_at
		 FROM texts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum   Summary
			flags int32
			size  int32
		)
		if err := rows.Scan(&sum.Name, &sum.Filepath, &flags, &sum.MTime, &size, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Flags = text.Flag(flags)
		sum.Size = int(size)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM texts WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
