package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/vcfsubmit/internal/merge"
	"github.com/lucasnoah/vcfsubmit/internal/submission"
	"github.com/lucasnoah/vcfsubmit/internal/validation"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the validation report of a submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := submission.Load(submissionFile)
		if err != nil {
			return err
		}
		if !sub.Has("validation") {
			return fmt.Errorf("no validation results in %s", submissionFile)
		}
		v := validation.NewValidator(sub, merge.NewVCFDetector(logger), nil, nil, logger)
		return v.Report(cmd.OutOrStdout())
	},
}
