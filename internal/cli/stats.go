package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/vcfsubmit/internal/analytics"
	"github.com/lucasnoah/vcfsubmit/internal/db"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate check and merge statistics across all submissions",
}

var statsCheckPassRateCmd = &cobra.Command{
	Use:   "check-pass-rate",
	Short: "Pass rate and average findings per check kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStatsDB(cmd, func(d *db.DB, since string) (any, func(io.Writer) error, error) {
			rates, err := analytics.QueryCheckPassRates(d, since)
			if err != nil {
				return nil, nil, err
			}
			return rates, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KIND\tRUNS\tPASS%\tAVG ERRORS\tAVG WARNINGS\tMOST FAILED")
				for _, r := range rates {
					fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.1f\t%s\n", r.Kind, r.Total, r.PassRate, r.AvgErrors, r.AvgWarnings, r.MostFailed)
				}
				return tw.Flush()
			}, nil
		})
	},
}

var statsRunDurationCmd = &cobra.Command{
	Use:   "run-duration",
	Short: "Average and percentile durations of validation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStatsDB(cmd, func(d *db.DB, since string) (any, func(io.Writer) error, error) {
			durations, err := analytics.QueryRunDurations(d, since)
			if err != nil {
				return nil, nil, err
			}
			return durations, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "runs: %d  avg: %.1fm  p50: %.1fm  p95: %.1fm\n",
					durations.Runs, durations.Avg, durations.P50, durations.P95)
				return err
			}, nil
		})
	},
}

var statsMergesCmd = &cobra.Command{
	Use:   "merges",
	Short: "Executed merges per merge type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStatsDB(cmd, func(d *db.DB, since string) (any, func(io.Writer) error, error) {
			counts, err := analytics.QueryMergeCounts(d, since)
			if err != nil {
				return nil, nil, err
			}
			return counts, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "MERGE\tCOUNT\tSUBMISSIONS")
				for _, c := range counts {
					fmt.Fprintf(tw, "%s\t%d\t%d\n", c.MergeType, c.Merges, c.Submissions)
				}
				return tw.Flush()
			}, nil
		})
	},
}

// withStatsDB opens the history database, runs query and prints its result
// as a table or, with --json, as indented JSON.
func withStatsDB(cmd *cobra.Command, query func(d *db.DB, since string) (any, func(io.Writer) error, error)) error {
	since, _ := cmd.Flags().GetString("since")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, cleanup, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	data, render, err := query(d, since)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return render(out)
}

func init() {
	statsCmd.PersistentFlags().String("since", "", "only include records at or after this date (YYYY-MM-DD)")
	statsCmd.PersistentFlags().Bool("json", false, "output as JSON")
	statsCmd.AddCommand(statsCheckPassRateCmd)
	statsCmd.AddCommand(statsRunDurationCmd)
	statsCmd.AddCommand(statsMergesCmd)
}
