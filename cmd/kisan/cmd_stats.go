package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"kisandoctor/internal/store"
	"kisandoctor/internal/usage"
)

// statsTraceWindow is how many recent traces feed the usage summary.
const statsTraceWindow = 1000

var tracesLimit int

// tracesCmd lists recent external model calls
var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Show recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return printTraces(cmdContext(cmd), st, cmd.OutOrStdout(), tracesLimit)
	},
}

// statsCmd prints row counts
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return printStats(cmdContext(cmd), st, cmd.OutOrStdout())
	},
}

func init() {
	tracesCmd.Flags().IntVarP(&tracesLimit, "limit", "n", 20, "Number of traces")
}

func printTraces(ctx context.Context, st *store.LocalStore, out io.Writer, limit int) error {
	traces, err := st.RecentTraces(ctx, limit)
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		fmt.Fprintln(out, "No model calls recorded.")
		return nil
	}
	for _, t := range traces {
		status := "ok"
		if !t.Success {
			status = "FAIL " + t.ErrorMessage
		}
		fmt.Fprintf(out, "%s  %-12s %-24s %5dms  %4d+%-4d tok  %s\n",
			t.Timestamp.Local().Format(time.DateTime), t.Mode, t.Model, t.DurationMs, t.PromptTokens, t.OutputTokens, status)
	}
	return nil
}

func printStats(ctx context.Context, st *store.LocalStore, out io.Writer) error {
	stats, err := st.GetStats(ctx)
	if err != nil {
		return err
	}
	tables := make([]string, 0, len(stats))
	for t := range stats {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	fmt.Fprintf(out, "Database (%s)\n", st.Driver())
	for _, t := range tables {
		fmt.Fprintf(out, "  %-14s %d\n", t, stats[t])
	}

	traces, err := st.RecentTraces(ctx, statsTraceWindow)
	if err != nil {
		return err
	}
	summary := usage.Summarize(traces)
	if summary.Total.Calls == 0 {
		return nil
	}
	fmt.Fprintf(out, "Model usage (last %d calls)\n", summary.Total.Calls)
	fmt.Fprintf(out, "  %-14s %d in / %d out, %d failed, avg %dms\n", "total",
		summary.Total.Input, summary.Total.Output, summary.Total.Failures, summary.AvgDurationMs)
	modes := make([]string, 0, len(summary.ByMode))
	for m := range summary.ByMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		c := summary.ByMode[m]
		fmt.Fprintf(out, "  %-14s %d calls, %d tokens\n", m, c.Calls, c.Total)
	}
	return nil
}
