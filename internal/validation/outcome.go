package validation

import (
	"github.com/lucasnoah/vcfsubmit/internal/checks"
)

// Kind identifies a family of checks.
type Kind string

const (
	KindMetadata    Kind = "metadata"
	KindVCF         Kind = "vcf"
	KindAssembly    Kind = "assembly"
	KindSampleNames Kind = "sample"
)

// Kinds lists every check kind in report order.
var Kinds = []Kind{KindMetadata, KindVCF, KindAssembly, KindSampleNames}

// configKey is the key under "validation" that holds this kind's outcomes.
func (k Kind) configKey() string {
	return string(k) + "_check"
}

// Title is the label used in the rendered report.
func (k Kind) Title() string {
	switch k {
	case KindMetadata:
		return "Metadata check"
	case KindVCF:
		return "VCF check"
	case KindAssembly:
		return "Assembly check"
	case KindSampleNames:
		return "Sample names check"
	}
	return string(k)
}

// MatchRatio is the share of variants whose reference allele matched the assembly.
type MatchRatio struct {
	Matched int `yaml:"matched"`
	Total   int `yaml:"total"`
}

// Outcome is the result of one check kind on one target: a spreadsheet,
// a VCF file or an analysis. A rerun replaces the previous outcome whole.
type Outcome struct {
	Kind   Kind   `yaml:"-"`
	Target string `yaml:"-"`

	Pass         bool             `yaml:"pass"`
	ErrorCount   int              `yaml:"nb_error"`
	WarningCount int              `yaml:"nb_warning"`
	Findings     []checks.Finding `yaml:"findings"`

	MismatchCount int              `yaml:"nb_mismatch,omitempty"`
	Mismatches    []checks.Finding `yaml:"mismatches,omitempty"`
	Match         *MatchRatio      `yaml:"match_results,omitempty"`
	ReportPath    string           `yaml:"report,omitempty"`

	InVCFNotInMetadata []string `yaml:"in_vcf_not_in_metadata,omitempty"`
	InMetadataNotInVCF []string `yaml:"in_metadata_not_in_vcf,omitempty"`
}

// Errors returns the error findings in report order.
func (o Outcome) Errors() []checks.Finding {
	return filter(o.Findings, checks.SeverityError)
}

// Warnings returns the warning findings in report order.
func (o Outcome) Warnings() []checks.Finding {
	return filter(o.Findings, checks.SeverityWarning)
}

// normalize derives the counters and the pass flag from the finding lists,
// so counts can never disagree with what was recorded.
func (o *Outcome) normalize() {
	if o.Findings == nil {
		o.Findings = []checks.Finding{}
	}
	o.ErrorCount = len(o.Errors())
	o.WarningCount = len(o.Warnings())
	o.MismatchCount = len(o.Mismatches)
	o.Pass = o.ErrorCount == 0 && o.MismatchCount == 0 &&
		len(o.InVCFNotInMetadata) == 0 && len(o.InMetadataNotInVCF) == 0
}

func filter(findings []checks.Finding, sev checks.Severity) []checks.Finding {
	var out []checks.Finding
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func errorFindings(messages []string) []checks.Finding {
	out := make([]checks.Finding, 0, len(messages))
	for _, m := range messages {
		out = append(out, checks.Finding{Severity: checks.SeverityError, Message: m})
	}
	return out
}

// MetadataOutcome builds the outcome of the spreadsheet check.
func MetadataOutcome(spreadsheet string, errs []string) Outcome {
	o := Outcome{Kind: KindMetadata, Target: spreadsheet, Findings: errorFindings(errs)}
	o.normalize()
	return o
}

// VCFOutcome builds the outcome of the VCF validator for one file.
func VCFOutcome(vcfFile string, r checks.VCFCheckResult, reportPath string) Outcome {
	o := Outcome{
		Kind:       KindVCF,
		Target:     vcfFile,
		Findings:   append([]checks.Finding(nil), r.Findings...),
		ReportPath: reportPath,
	}
	o.normalize()
	return o
}

// AssemblyOutcome builds the outcome of the assembly checker for one file
// from its log and, when the run completed, its text report.
func AssemblyOutcome(vcfFile string, log checks.AssemblyLogResult, report checks.MismatchResult, reportPath string) Outcome {
	o := Outcome{
		Kind:       KindAssembly,
		Target:     vcfFile,
		Findings:   append(errorFindings(log.Errors), errorFindings(report.Errors)...),
		ReportPath: reportPath,
	}
	for _, m := range report.Mismatches {
		o.Mismatches = append(o.Mismatches, checks.Finding{
			Severity: checks.SeverityError,
			Message:  m.String(),
			Line:     m.Line,
		})
	}
	if log.ErrorCount == 0 {
		o.Match = &MatchRatio{Matched: log.Matched, Total: log.Total}
	}
	o.normalize()
	return o
}

// SampleNamesOutcome builds the outcome of comparing an analysis' sample
// names between the metadata sheet and its VCF files.
func SampleNamesOutcome(alias string, inVCFOnly, inMetadataOnly []string) Outcome {
	o := Outcome{
		Kind:               KindSampleNames,
		Target:             alias,
		InVCFNotInMetadata: inVCFOnly,
		InMetadataNotInVCF: inMetadataOnly,
	}
	o.normalize()
	return o
}

// CompareSamples returns the names only found in the VCF files and the names
// only found in the metadata, each in first-seen order without duplicates.
func CompareSamples(metadata, vcf []string) (inVCFOnly, inMetadataOnly []string) {
	return difference(vcf, metadata), difference(metadata, vcf)
}

func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{})
	for _, s := range a {
		if _, skip := exclude[s]; skip {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
