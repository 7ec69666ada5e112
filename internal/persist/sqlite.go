package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/traykit/tray/internal/codec"
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens the database file at path, creating it if needed.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragma: %w", err)
	}
	if err := RunSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, t *text.Text) (bool, error) {
	r := newRecord(t)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO texts (name, filepath, flags, mtime, digest, block, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		     filepath = excluded.filepath, flags = excluded.flags, mtime = excluded.mtime,
		     digest = excluded.digest, block = excluded.block, updated_at = excluded.updated_at
		 WHERE texts.digest <> excluded.digest`,
		r.name, r.filepath, r.flags, r.mtime, r.digest, r.block, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Load(ctx context.Context, m *kernel.Main, name string) (*text.Text, error) {
	var block []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT block FROM texts WHERE name = ?`, name,
	).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return codec.DecodeText(m, block, s.log)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
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
			flags int
		)
		if err := rows.Scan(&sum.Name, &sum.Filepath, &flags, &sum.MTime, &sum.Size, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Flags = text.Flag(flags)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM texts WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
