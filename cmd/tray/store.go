package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/persist"
	"github.com/traykit/tray/internal/text"
)

var catCmd = &cobra.Command{
	Use:   "cat NAME",
	Short: "Print a stored text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, m *kernel.Main, s persist.TextStore) error {
			return catText(ctx, cmd.OutOrStdout(), m, s, args[0])
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored texts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, _ *kernel.Main, s persist.TextStore) error {
			sums, err := s.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tFILE\tUPDATED")
			for _, s := range sums {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Name, s.Size, s.Filepath, s.UpdatedAt.Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm NAME...",
	Short: "Delete stored texts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, _ *kernel.Main, s persist.TextStore) error {
			for _, name := range args {
				if err := s.Delete(ctx, name); err != nil {
					return fmt.Errorf("delete %s: %w", name, err)
				}
			}
			return nil
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report stored texts whose files changed on disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, m *kernel.Main, s persist.TextStore) error {
			states, err := checkStored(ctx, m, s)
			if err != nil {
				return err
			}
			for _, name := range slices.Sorted(maps.Keys(states)) {
				if st := states[name]; st != text.ModUnchanged {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", st, name)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(catCmd, listCmd, rmCmd, checkCmd)
}

// withStore opens the configured store and a scratch registry for fn.
func withStore(ctx context.Context, fn func(context.Context, *kernel.Main, persist.TextStore) error) error {
	m, err := newMain(cfg.Kernel)
	if err != nil {
		return err
	}
	defer m.Free()

	s, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	return fn(ctx, m, s)
}

// catText writes the named stored text to out. Every line, the last
// included, ends with a line feed.
func catText(ctx context.Context, out io.Writer, m *kernel.Main, s persist.TextStore, name string) error {
	t, err := s.Load(ctx, m, name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, t.ToBuf())
	return err
}

// checkStored loads every file-backed stored text and reports its
// modification state by name.
func checkStored(ctx context.Context, m *kernel.Main, s persist.TextStore) (map[string]text.ModState, error) {
	sums, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	states := make(map[string]text.ModState)
	for _, sum := range sums {
		if sum.Filepath == "" {
			continue
		}
		t, err := s.Load(ctx, m, sum.Name)
		if err != nil {
			log.Warn("skip stored text", zap.String("name", sum.Name), zap.Error(err))
			continue
		}
		states[sum.Name] = t.FileModifiedCheck(m)
	}
	return states, nil
}
