package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/xcharge/config"
	"github.com/kilianp07/xcharge/core/catalog"
)

var podsJSON bool

var podsCmd = &cobra.Command{
	Use:   "pods",
	Short: "Pod catalog commands",
}

var podsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the dispatchable pods",
	RunE:  runPodsLs,
}

func init() {
	podsLsCmd.Flags().BoolVar(&podsJSON, "json", false, "print the catalog as JSON")
	podsCmd.AddCommand(podsLsCmd)
	rootCmd.AddCommand(podsCmd)
}

func runPodsLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	out := cmd.OutOrStdout()
	if podsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.Pods())
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOWER\tETA\tDIST\tRELIABILITY\tCONFIDENCE")
	for _, p := range cat.Pods() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d min\t%s\t%.1f%%\t%d%%\n",
			p.ID, p.Name, p.Power, p.ETAMinutes, p.Distance, p.Reliability, p.Confidence())
	}
	return tw.Flush()
}
