package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/xcharge/config"
	"github.com/kilianp07/xcharge/core/journal"
	"github.com/kilianp07/xcharge/pkg/export"
)

var (
	exportFormat  string
	exportSummary bool
	exportSession string
	exportPod     int
	exportSince   time.Duration
	exportLimit   int
	exportOut     string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Session journal commands",
}

var journalExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump journal records as JSON, CSV or an HTML chart",
	RunE:  runJournalExport,
}

func init() {
	f := journalExportCmd.Flags()
	f.StringVarP(&exportFormat, "format", "f", export.FormatJSON, "output format: json, csv or html")
	f.BoolVar(&exportSummary, "summary", false, "one row per dispatch instead of raw records")
	f.StringVar(&exportSession, "session", "", "only this session id")
	f.IntVar(&exportPod, "pod", 0, "only this pod id")
	f.DurationVar(&exportSince, "since", 0, "only records newer than this (e.g. 24h)")
	f.IntVar(&exportLimit, "limit", 0, "keep the most recent N records")
	f.StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	journalCmd.AddCommand(journalExportCmd)
	rootCmd.AddCommand(journalCmd)
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Journal.Backend == journal.BackendMemory {
		return fmt.Errorf("journal backend %q keeps nothing to export", journal.BackendMemory)
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer closeQuietly(store)

	q := journal.Query{SessionID: exportSession, PodID: exportPod, Limit: exportLimit}
	if exportSince > 0 {
		q.Start = time.Now().Add(-exportSince)
	}
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer closeQuietly(f)
		out = f
	}
	if exportSummary {
		return export.WriteSummary(out, exportFormat, export.Summarize(recs))
	}
	return export.Write(out, exportFormat, recs)
}
