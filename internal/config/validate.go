package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requiredPlaceholders lists the placeholders each tool command must use.
var requiredPlaceholders = map[string][]string{
	"vcf_validator":    {"{vcf}"},
	"assembly_checker": {"{vcf}", "{fasta}"},
}

// Validate checks a Config for semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	for _, tool := range []struct {
		name string
		tool Tool
	}{
		{"vcf_validator", cfg.Tools.VCFValidator},
		{"assembly_checker", cfg.Tools.AssemblyChecker},
	} {
		prefix := "tools." + tool.name
		if tool.tool.Command == "" {
			errs = append(errs, ValidationError{Field: prefix + ".command", Message: "is required"})
		} else {
			for _, p := range requiredPlaceholders[tool.name] {
				if !strings.Contains(tool.tool.Command, p) {
					errs = append(errs, ValidationError{
						Field:   prefix + ".command",
						Message: fmt.Sprintf("must reference %s", p),
					})
				}
			}
		}
		if tool.tool.ReportGlob != "" {
			if _, err := filepath.Match(tool.tool.ReportGlob, ""); err != nil {
				errs = append(errs, ValidationError{
					Field:   prefix + ".report_glob",
					Message: fmt.Sprintf("invalid pattern %q", tool.tool.ReportGlob),
				})
			}
		}
		if tool.tool.Timeout != "" {
			if d, err := time.ParseDuration(tool.tool.Timeout); err != nil || d <= 0 {
				errs = append(errs, ValidationError{
					Field:   prefix + ".timeout",
					Message: fmt.Sprintf("invalid duration %q", tool.tool.Timeout),
				})
			}
		}
	}

	if cfg.Merge.Bcftools == "" {
		errs = append(errs, ValidationError{Field: "merge.bcftools", Message: "is required"})
	}
	if cfg.Merge.OutputDir == "" {
		errs = append(errs, ValidationError{Field: "merge.output_dir", Message: "is required"})
	}
	if cfg.OutputDir == "" {
		errs = append(errs, ValidationError{Field: "output_dir", Message: "is required"})
	}

	return errs
}
