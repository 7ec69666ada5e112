package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/traykit/tray/internal/kernel"
)

var statsCmd = &cobra.Command{
	Use:   "stats PATH...",
	Short: "Load files and print per-type datablock counts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandPaths(args, cfg.Load.Extensions)
		if err != nil {
			return err
		}
		m, err := newMain(cfg.Kernel)
		if err != nil {
			return err
		}
		defer m.Free()
		if _, err := loadFiles(cmd.Context(), m, paths, cfg.Load.Workers, cfg.Text, log); err != nil {
			return err
		}
		return printStats(cmd.OutOrStdout(), m)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// printStats writes one row per non-empty collection.
func printStats(out io.Writer, m *kernel.Main) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range m.Collections() {
		if c.Len() == 0 {
			continue
		}
		info := m.Types().Info(c.Code())
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.Code(), info.Plural, c.Len())
	}
	fmt.Fprintf(w, "\ttotal\t%d\n", m.Count())
	return w.Flush()
}
