package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/vcfsubmit/internal/config"
	"github.com/lucasnoah/vcfsubmit/internal/metadata"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Inspect a metadata spreadsheet",
}

var metadataWorksheetsCmd = &cobra.Command{
	Use:   "worksheets [spreadsheet]",
	Short: "List the worksheets the schema knows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openSpreadsheet(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		for _, name := range r.ValidWorksheets() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var metadataRowsCmd = &cobra.Command{
	Use:   "rows [spreadsheet] [worksheet]",
	Short: "Print the rows of a worksheet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openSpreadsheet(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		rows, err := r.Rows(args[1])
		if err != nil {
			return err
		}
		ws, _ := r.Schema().Worksheet(args[1])
		fields := ws.Fields()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "ROW\t%s\n", strings.Join(fields, "\t"))
		for _, row := range rows {
			values := make([]string, len(fields))
			for i, f := range fields {
				values[i] = row.Get(f)
			}
			fmt.Fprintf(tw, "%d\t%s\n", row.Num, strings.Join(values, "\t"))
		}
		return tw.Flush()
	},
}

var metadataCheckCmd = &cobra.Command{
	Use:   "check [spreadsheet]",
	Short: "Check a spreadsheet against the schema without recording anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openSpreadsheet(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		errs := metadata.Check(r)
		if len(errs) == 0 {
			cmd.Println("Spreadsheet is valid.")
			return nil
		}
		cmd.Println("Metadata errors:")
		for _, e := range errs {
			cmd.Printf("  - %s\n", e)
		}
		return fmt.Errorf("spreadsheet has %d error(s)", len(errs))
	},
}

func openSpreadsheet(path string) (*metadata.Reader, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	schema, err := loadSchema(cfg)
	if err != nil {
		return nil, err
	}
	return metadata.Open(path, schema)
}

// loadSchema returns the worksheet schema named in cfg, or the built-in one.
func loadSchema(cfg *config.Config) (*metadata.Schema, error) {
	if cfg.Metadata.Schema == "" {
		return metadata.DefaultSchema(), nil
	}
	return metadata.LoadSchema(cfg.Metadata.Schema)
}

func init() {
	metadataCmd.AddCommand(metadataWorksheetsCmd)
	metadataCmd.AddCommand(metadataRowsCmd)
	metadataCmd.AddCommand(metadataCheckCmd)
}
