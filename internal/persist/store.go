// Package persist stores encoded Text blocks in Postgres or SQLite.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/traykit/tray/internal/codec"
	"github.com/traykit/tray/internal/config"
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

var ErrNotFound = errors.New("persist: text not found")

// TextStore keeps one encoded block per text name.
type TextStore interface {
	// Save writes t and reports whether the stored block changed.
	Save(ctx context.Context, t *text.Text) (bool, error)
	// Load decodes the named text into m.
	Load(ctx context.Context, m *kernel.Main, name string) (*text.Text, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Summary describes a stored text without decoding it.
type Summary struct {
	Name      string
	Filepath  string
	Flags     text.Flag
	MTime     int64
	Size      int
	UpdatedAt time.Time
}

// Open connects to the configured database and applies migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (TextStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var (
		s   TextStore
		err error
	)
	switch cfg.Driver {
	case "postgres":
		s, err = OpenPostgres(ctx, cfg, log)
	case "sqlite", "sqlite3", "":
		s, err = OpenSQLite(ctx, cfg.DSN, log)
	default:
		return nil, fmt.Errorf("persist: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// record is a text ready to be written.
type record struct {
	name     string
	filepath string
	flags    int
	mtime    int64
	digest   []byte
	block    []byte
}

func newRecord(t *text.Text) record {
	block := codec.EncodeText(t)
	sum := blake2b.Sum256(block)
	return record{
		name:     t.Name(),
		filepath: t.Filepath,
		flags:    int(t.Flags),
		mtime:    t.MTime,
		digest:   sum[:],
		block:    block,
	}
}

// SaveAll saves every text, continuing past failures. It returns how many
// stored blocks changed and the combined errors.
func SaveAll(ctx context.Context, s TextStore, texts []*text.Text) (int, error) {
	var (
		saved int
		errs  error
	)
	for _, t := range texts {
		changed, err := s.Save(ctx, t)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("save %s: %w", t.Name(), err))
			continue
		}
		if changed {
			saved++
		}
	}
	return saved, errs
}
