package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the check runs and merges recorded for a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, cleanup, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		key := submissionKey()
		runs, err := d.CheckRuns(key, limit)
		if err != nil {
			return err
		}
		events, err := d.MergeEvents(key)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 && len(events) == 0 {
			fmt.Fprintf(out, "No history for %s\n", key)
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tKIND\tTARGET\tRESULT\tERRORS\tWARNINGS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", r.Timestamp, r.Kind, r.Target, passFail(r.Passed), r.NbError, r.NbWarning)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(events) > 0 {
			fmt.Fprintln(out)
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tANALYSIS\tMERGE\tOUTPUT")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Alias, e.MergeType, e.Output)
			}
			return tw.Flush()
		}
		return nil
	},
}

func passFail(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func init() {
	historyCmd.Flags().Int("limit", 50, "maximum number of check runs to show (0 for all)")
}
