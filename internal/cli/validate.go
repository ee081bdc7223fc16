package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasnoah/vcfsubmit/internal/checks"
	"github.com/lucasnoah/vcfsubmit/internal/config"
	"github.com/lucasnoah/vcfsubmit/internal/metadata"
	"github.com/lucasnoah/vcfsubmit/internal/validation"
	"github.com/lucasnoah/vcfsubmit/internal/vcf"
)

const (
	vcfValidatorTool    = "vcf_validator"
	assemblyCheckerTool = "assembly_checker"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run every check on a submission and print the report",
	Long: `Checks the metadata spreadsheet, runs the VCF validator and the assembly
checker on every VCF file it declares, compares sample names between the
spreadsheet and the VCF headers, and marks analyses that pass every check as
valid for merging. Outcomes are stored in the submission config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := validateOptions{}
		opts.metadata, _ = cmd.Flags().GetString("metadata")
		opts.vcfDir, _ = cmd.Flags().GetString("vcf-dir")
		opts.fasta, _ = cmd.Flags().GetString("fasta")

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.cleanup()

		runErr := runValidation(cmd.Context(), d, opts)
		if err := d.sub.Save(); err != nil {
			return fmt.Errorf("save submission config: %w", err)
		}
		if runErr != nil && !errors.Is(runErr, errChecksFailed) {
			return runErr
		}
		if err := d.validator.Report(cmd.OutOrStdout()); err != nil {
			return err
		}
		return runErr
	},
}

var errChecksFailed = errors.New("checks failed")

type validateOptions struct {
	metadata string
	vcfDir   string
	fasta    string
}

// resolve fills options left empty from the submission config and records
// the ones given so that later runs can omit them.
func (o *validateOptions) resolve(d *deps) error {
	for _, opt := range []struct {
		value *string
		key   string
		flag  string
	}{
		{&o.metadata, "metadata_spreadsheet", "--metadata"},
		{&o.fasta, "assembly_fasta", "--fasta"},
	} {
		if *opt.value == "" {
			*opt.value = d.sub.String("submission", opt.key)
		}
		if *opt.value == "" {
			return fmt.Errorf("%s is required (or set submission.%s)", opt.flag, opt.key)
		}
		if err := d.sub.Set(*opt.value, "submission", opt.key); err != nil {
			return err
		}
	}
	if o.vcfDir == "" {
		o.vcfDir = filepath.Dir(o.metadata)
	}
	return nil
}

// runValidation runs every check of the submission and records the outcomes.
// It returns errChecksFailed when at least one analysis is not valid.
func runValidation(ctx context.Context, d *deps, opts validateOptions) error {
	if err := opts.resolve(d); err != nil {
		return err
	}
	v := d.validator
	runID, err := v.StartRun()
	if err != nil {
		return err
	}
	logger.Info("validation started", zap.String("run_id", runID), zap.String("metadata", opts.metadata))

	schema, err := loadSchema(d.cfg)
	if err != nil {
		return err
	}
	reader, err := metadata.Open(opts.metadata, schema)
	if err != nil {
		if rerr := v.Record(validation.MetadataOutcome(opts.metadata, []string{err.Error()})); rerr != nil {
			return rerr
		}
		return err
	}
	defer reader.Close()

	if err := v.Record(validation.MetadataOutcome(opts.metadata, metadata.Check(reader))); err != nil {
		return err
	}
	analyses, err := metadata.Analyses(reader)
	if err != nil {
		return fmt.Errorf("read analyses: %w", err)
	}

	runner := checks.NewRunner(newCommandRunner(), logger)
	failed := 0
	for _, a := range analyses {
		valid, err := validateAnalysis(ctx, d, runner, a, opts)
		if err != nil {
			return err
		}
		if valid {
			if err := v.MarkValid(a.Alias, resolveFiles(a.Files, opts.vcfDir)); err != nil {
				return err
			}
		} else {
			v.ClearValid(a.Alias)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses: %w", failed, len(analyses), errChecksFailed)
	}
	return nil
}

// validateAnalysis checks every file of a and the sample names between the
// spreadsheet and the files. It reports whether all checks passed.
func validateAnalysis(ctx context.Context, d *deps, runner *checks.Runner, a metadata.Analysis, opts validateOptions) (bool, error) {
	v := d.validator
	files := resolveFiles(a.Files, opts.vcfDir)
	valid := len(files) > 0
	if !valid {
		logger.Warn("analysis has no VCF files", zap.String("analysis", a.Alias))
	}

	var vcfSamples []string
	for _, file := range files {
		for _, o := range []validation.Outcome{
			checkVCFFormat(ctx, runner, d.cfg, file),
			checkAssembly(ctx, runner, d.cfg, file, opts.fasta),
		} {
			if err := v.Record(o); err != nil {
				return false, err
			}
			valid = valid && o.Pass
		}

		header, err := vcf.ReadHeader(file)
		if err != nil {
			logger.Warn("cannot read VCF header", zap.String("file", file), zap.Error(err))
			valid = false
			continue
		}
		vcfSamples = append(vcfSamples, header.Samples...)
	}

	inVCF, inMetadata := validation.CompareSamples(a.Samples, vcfSamples)
	o := validation.SampleNamesOutcome(a.Alias, inVCF, inMetadata)
	if err := v.Record(o); err != nil {
		return false, err
	}
	return valid && o.Pass, nil
}

func checkVCFFormat(ctx context.Context, runner *checks.Runner, cfg *config.Config, file string) validation.Outcome {
	res, err := runner.Run(ctx, toolConfig(vcfValidatorTool, cfg.Tools.VCFValidator), map[string]string{
		"vcf":        file,
		"output_dir": filepath.Join(cfg.OutputDir, "vcf_format", filepath.Base(file)),
	})
	if err != nil {
		return validation.VCFOutcome(file, failedRun(err), "")
	}
	reportPath := res.ReportPath
	if reportPath == "" {
		reportPath = res.LogPath
	}
	parsed, err := checks.ParseVCFCheckReportFile(reportPath)
	if err != nil {
		return validation.VCFOutcome(file, failedRun(err), "")
	}
	return validation.VCFOutcome(file, parsed, reportPath)
}

func checkAssembly(ctx context.Context, runner *checks.Runner, cfg *config.Config, file, fasta string) validation.Outcome {
	res, err := runner.Run(ctx, toolConfig(assemblyCheckerTool, cfg.Tools.AssemblyChecker), map[string]string{
		"vcf":        file,
		"fasta":      fasta,
		"output_dir": filepath.Join(cfg.OutputDir, "assembly_check", filepath.Base(file)),
	})
	if err != nil && !(errors.Is(err, checks.ErrNoReport) && res != nil) {
		return validation.AssemblyOutcome(file, checks.AssemblyLogResult{Errors: []string{err.Error()}, ErrorCount: 1}, checks.MismatchResult{}, "")
	}

	logResult, lerr := checks.ParseAssemblyCheckLogFile(res.LogPath)
	if lerr != nil {
		return validation.AssemblyOutcome(file, checks.AssemblyLogResult{Errors: []string{lerr.Error()}, ErrorCount: 1}, checks.MismatchResult{}, "")
	}
	var report checks.MismatchResult
	if res.ReportPath != "" {
		if report, err = checks.ParseAssemblyCheckReportFile(res.ReportPath); err != nil {
			logger.Warn("cannot read assembly report", zap.String("report", res.ReportPath), zap.Error(err))
		}
	} else if logResult.ErrorCount == 0 && err != nil {
		logger.Warn("assembly checker left no report", zap.String("file", file), zap.Error(err))
	}
	return validation.AssemblyOutcome(file, logResult, report, res.ReportPath)
}

func toolConfig(name string, t config.Tool) checks.ToolConfig {
	return checks.ToolConfig{
		Name:       name,
		Command:    t.Command,
		ReportGlob: t.ReportGlob,
		Timeout:    t.TimeoutDuration(),
	}
}

// failedRun turns a tool failure into a single error finding.
func failedRun(err error) checks.VCFCheckResult {
	return checks.VCFCheckResult{
		Findings:   []checks.Finding{{Severity: checks.SeverityError, Message: err.Error()}},
		ErrorCount: 1,
	}
}

// resolveFiles places the spreadsheet's file names in dir and makes them
// absolute, so the stored paths stay valid from any working directory.
func resolveFiles(names []string, dir string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		if abs, err := filepath.Abs(name); err == nil {
			name = abs
		}
		out = append(out, name)
	}
	return out
}

func init() {
	validateCmd.Flags().String("metadata", "", "path to the metadata spreadsheet (.xlsx)")
	validateCmd.Flags().String("vcf-dir", "", "directory holding the VCF files (default: the spreadsheet's directory)")
	validateCmd.Flags().String("fasta", "", "reference assembly FASTA used by the assembly checker")
}
