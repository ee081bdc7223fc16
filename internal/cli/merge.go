package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Detect, and optionally run, the merges each valid analysis needs",
	Long: `Classifies the VCF files of every valid analysis as needing a horizontal
merge (same samples, different positions), a vertical merge (same positions,
different samples) or no merge, and records the decision. With --execute the
merges are run with bcftools and each analysis is pointed at its merged file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		execute, _ := cmd.Flags().GetBool("execute")

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.cleanup()

		if len(d.validator.ValidAnalyses()) == 0 {
			return fmt.Errorf("no valid analyses in %s; run validate first", submissionFile)
		}

		mergeErr := d.validator.DetectAndOptionallyMerge(cmd.Context(), execute)
		// Detected types and completed merges are kept even when a batch fails.
		if err := d.sub.Save(); err != nil {
			return fmt.Errorf("save submission config: %w", err)
		}
		if mergeErr != nil {
			return mergeErr
		}

		out := cmd.OutOrStdout()
		for _, a := range d.validator.ValidAnalyses() {
			fmt.Fprintf(out, "%s: %s\n", a.Alias, a.MergeType)
			for _, f := range a.Files {
				fmt.Fprintf(out, "  %s\n", f)
			}
		}
		return nil
	},
}

func init() {
	mergeCmd.Flags().Bool("execute", false, "run the detected merges")
}
