package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/traykit/tray/internal/config"
	"github.com/traykit/tray/internal/core/event"
	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/persist"
	"github.com/traykit/tray/internal/text"
)

var loadSave bool

var loadCmd = &cobra.Command{
	Use:   "load PATH...",
	Short: "Load files into a registry and report what was read",
	Long: `Load reads every file named, or every file under a named directory
whose extension is listed in [load].extensions, builds the relation index
and logs a summary. With --save the texts are written to the store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd.Context(), args, loadSave)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save PATH...",
	Short: "Load files and write them to the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd.Context(), args, true)
	},
}

func init() {
	loadCmd.Flags().BoolVar(&loadSave, "save", false, "write loaded texts to the store")
	rootCmd.AddCommand(loadCmd, saveCmd)
}

func runLoad(ctx context.Context, args []string, save bool) error {
	paths, err := expandPaths(args, cfg.Load.Extensions)
	if err != nil {
		return err
	}

	bus := event.NewBus()
	added := 0
	event.Subscribe(bus, func(event.IDAdded) { added++ })

	m, err := newMain(cfg.Kernel, kernel.WithBus(bus))
	if err != nil {
		return err
	}
	defer m.Free()

	texts, err := loadFiles(ctx, m, paths, cfg.Load.Workers, cfg.Text, log)
	if err != nil {
		return err
	}
	bus.Flush()

	m.Lock()
	rel := m.BuildRelations(relationsFlag(cfg.Kernel))
	m.Unlock()

	lines := 0
	for _, t := range texts {
		lines += t.LineCount()
	}
	log.Info("texts loaded",
		zap.Int("files", len(paths)),
		zap.Int("added", added),
		zap.Int("lines", lines),
		zap.Int("relations", rel.Len()))

	if !save {
		return nil
	}
	store, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	changed, err := persist.SaveAll(ctx, store, texts)
	log.Info("texts saved", zap.Int("changed", changed), zap.Int("total", len(texts)))
	return err
}

// expandPaths replaces each directory in args with the files beneath it
// that carry one of exts. Named files are kept whatever their extension.
func expandPaths(args, exts []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(exts, filepath.Ext(path)) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return out, nil
}

type fileData struct {
	data  []byte
	mtime int64
}

// loadFiles reads paths with up to workers goroutines and adds a text for
// each to m, in path order.
func loadFiles(ctx context.Context, m *kernel.Main, paths []string, workers int, tc config.TextConfig, log *zap.Logger) ([]*text.Text, error) {
	files := make([]fileData, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files[i].data = data
			if st, err := os.Stat(path); err == nil {
				files[i].mtime = st.ModTime().Unix()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := text.LoadOptions{
		Internal:     tc.Internal,
		TabsToSpaces: tc.TabsToSpaces,
		Log:          log,
	}
	m.Lock()
	defer m.Unlock()
	texts := make([]*text.Text, len(paths))
	for i, path := range paths {
		texts[i] = text.LoadBuffer(m, path, files[i].data, files[i].mtime, opts)
	}
	return texts, nil
}
