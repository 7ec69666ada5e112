package persist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/traykit/tray/internal/config"
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

func openStores(t *testing.T) map[string]TextStore {
	t.Helper()
	ctx := context.Background()
	stores := make(map[string]TextStore)

	lite, err := Open(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "tray.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { lite.Close() })
	stores["sqlite"] = lite

	if dsn := os.Getenv("TRAY_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := Open(ctx, config.DatabaseConfig{Driver: "postgres", DSN: dsn}, zap.NewNop())
		if err != nil {
			t.Fatalf("open postgres: %v", err)
		}
		t.Cleanup(func() {
			pg.Delete(ctx, "script.py")
			pg.Delete(ctx, "notes")
			pg.Close()
		})
		stores["postgres"] = pg
	}
	return stores
}

func TestStoreSaveLoad(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := kernel.New()
			txt := text.Add(m, "script.py")
			txt.Write("print('hi')\n")

			changed, err := s.Save(ctx, txt)
			if err != nil || !changed {
				t.Fatalf("first save = %v, %v", changed, err)
			}
			changed, err = s.Save(ctx, txt)
			if err != nil || changed {
				t.Fatalf("unchanged save = %v, %v", changed, err)
			}
			txt.AddChar('#')
			if changed, err = s.Save(ctx, txt); err != nil || !changed {
				t.Fatalf("edited save = %v, %v", changed, err)
			}

			got, err := s.Load(ctx, kernel.New(), "script.py")
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != txt.String() {
				t.Errorf("loaded %q, want %q", got.String(), txt.String())
			}

			if _, err := s.Load(ctx, kernel.New(), "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load(missing) = %v", err)
			}
		})
	}
}

func TestStoreListDelete(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := kernel.New()
			a := text.Add(m, "script.py")
			b := text.Add(m, "notes")
			b.Write("x")

			saved, err := SaveAll(ctx, s, []*text.Text{a, b})
			if err != nil || saved != 2 {
				t.Fatalf("SaveAll = %d, %v", saved, err)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, sum := range list {
				names = append(names, sum.Name)
				if sum.Size == 0 || sum.UpdatedAt.IsZero() {
					t.Errorf("%s: incomplete summary %+v", sum.Name, sum)
				}
				if sum.Flags&text.FlagMem == 0 {
					t.Errorf("%s: flags %b", sum.Name, sum.Flags)
				}
			}
			if got := strings.Join(names, ","); got != "notes,script.py" {
				t.Errorf("List names = %s", got)
			}

			if err := s.Delete(ctx, "notes"); err != nil {
				t.Fatal(err)
			}
			if err := s.Delete(ctx, "notes"); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete = %v", err)
			}
		})
	}
}

type failingStore struct {
	TextStore
}

func (failingStore) Save(_ context.Context, t *text.Text) (bool, error) {
	if t.Name() == "bad" {
		return false, errors.New("disk full")
	}
	return true, nil
}

func TestSaveAllCollectsErrors(t *testing.T) {
	m := kernel.New()
	texts := []*text.Text{text.Add(m, "ok"), text.Add(m, "bad"), text.Add(m, "fine")}
	saved, err := SaveAll(context.Background(), failingStore{}, texts)
	if saved != 2 {
		t.Errorf("saved = %d", saved)
	}
	if err == nil || !strings.Contains(err.Error(), "save bad: disk full") {
		t.Errorf("err = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	if err == nil {
		t.Error("unknown driver accepted")
	}
}
