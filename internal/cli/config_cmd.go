package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/vcfsubmit/internal/config"
	"github.com/lucasnoah/vcfsubmit/internal/submission"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the tool configuration and edit the submission config",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the vcfsubmit configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			cmd.Println("Configuration is valid.")
			return nil
		}

		cmd.Println("Validation errors:")
		for _, e := range errs {
			cmd.Printf("  - %s\n", e)
		}
		return fmt.Errorf("config has %d validation error(s)", len(errs))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration with defaults merged",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}

		cmd.Print(string(data))
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key.path]",
	Short: "Print a value of the submission config",
	Long: `Prints the value stored at a dot-separated path of the submission config,
for example: vcfsubmit config get validation.merge_type.alias1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := submission.Load(submissionFile)
		if err != nil {
			return err
		}
		value, ok := sub.Query(splitKeyPath(args[0])...)
		if !ok {
			return fmt.Errorf("%s is not set", args[0])
		}
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshalling value: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key.path] [yaml-value]",
	Short: "Set a value of the submission config",
	Long: `Stores a YAML value at a dot-separated path of the submission config,
creating intermediate keys. Example:
  vcfsubmit config set submission.assembly_fasta /refs/GRCh38.fa
  vcfsubmit config set validation.valid.analyses.a1.vcf_files '[a.vcf.gz, b.vcf.gz]'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unset, _ := cmd.Flags().GetBool("unset")
		if !unset && len(args) != 2 {
			return fmt.Errorf("a value is required unless --unset is given")
		}
		sub, err := submission.Load(submissionFile)
		if err != nil {
			return err
		}
		keys := splitKeyPath(args[0])

		if unset {
			if !sub.Delete(keys...) {
				return fmt.Errorf("%s is not set", args[0])
			}
		} else {
			var value any
			if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("parsing value: %w", err)
			}
			if err := sub.Set(value, keys...); err != nil {
				return err
			}
		}
		return sub.Save()
	},
}

func splitKeyPath(path string) []string {
	var keys []string
	for _, k := range strings.Split(path, ".") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func init() {
	configSetCmd.Flags().Bool("unset", false, "remove the key instead of setting it")

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
