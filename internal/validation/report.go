package validation

import (
	"fmt"
	"io"
	"strings"

	"github.com/lucasnoah/vcfsubmit/internal/checks"
	"github.com/lucasnoah/vcfsubmit/internal/merge"
)

const (
	separator  = "----------------------------------"
	previewMax = 10
)

// BuildReport renders the consolidated validation report from the recorded
// outcomes. Missing data renders as blank fields.
func (v *Validator) BuildReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validation performed on %s\n", v.ValidationDate())
	for _, kind := range Kinds {
		fmt.Fprintf(&b, "%s: %s\n", kind.Title(), v.rollupLabel(kind))
	}
	b.WriteString(separator + "\n\n")

	for _, kind := range Kinds {
		fmt.Fprintf(&b, "%s:\n", kind.Title())
		for _, o := range v.Outcomes(kind) {
			writeOutcome(&b, o)
		}
		b.WriteString("\n" + separator + "\n\n")
	}

	b.WriteString("VCF merge:\n")
	for _, alias := range v.cfg.Keys(rootKey, mergeTypeKey) {
		if t := v.MergeType(alias); t != merge.None {
			fmt.Fprintf(&b, "  * %s: %s\n", alias, t)
		}
	}
	b.WriteString("\n" + separator + "\n")
	return b.String()
}

// Report writes the report to w.
func (v *Validator) Report(w io.Writer) error {
	_, err := fmt.Fprintln(w, v.BuildReport())
	return err
}

func (v *Validator) rollupLabel(kind Kind) string {
	passed, ok := v.Passed(kind)
	if !ok {
		return ""
	}
	return passLabel(passed)
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func writeOutcome(b *strings.Builder, o Outcome) {
	fmt.Fprintf(b, "  * %s: %s\n", o.Target, passLabel(o.Pass))
	switch o.Kind {
	case KindMetadata:
		fmt.Fprintf(b, "    - number of error: %d\n", o.ErrorCount)
		fmt.Fprintf(b, "    - error messages: %s\n", preview(checks.Messages(o.Errors())))
	case KindVCF:
		fmt.Fprintf(b, "    - number of error: %d\n", o.ErrorCount)
		fmt.Fprintf(b, "    - number of warning: %d\n", o.WarningCount)
		fmt.Fprintf(b, "    - first %d errors: %s\n", previewMax, preview(checks.Messages(o.Errors())))
		fmt.Fprintf(b, "    - see report for detail: %s\n", o.ReportPath)
	case KindAssembly:
		fmt.Fprintf(b, "    - number of error: %d\n", o.ErrorCount)
		fmt.Fprintf(b, "    - match results: %s\n", o.Match.String())
		fmt.Fprintf(b, "    - first %d errors: %s\n", previewMax, preview(checks.Messages(o.Errors())))
		fmt.Fprintf(b, "    - first %d mismatches: %s\n", previewMax, preview(checks.Messages(o.Mismatches)))
		fmt.Fprintf(b, "    - see report for detail: %s\n", o.ReportPath)
	case KindSampleNames:
		fmt.Fprintf(b, "    - Samples that appear in the VCF but not in the Metadata sheet: %s\n", preview(o.InVCFNotInMetadata))
		fmt.Fprintf(b, "    - Samples that appear in the Metadata sheet but not in the VCF file(s): %s\n", preview(o.InMetadataNotInVCF))
	}
}

// String renders the ratio as "M/T (P%)"; a nil ratio renders blank.
func (m *MatchRatio) String() string {
	if m == nil {
		return ""
	}
	if m.Total == 0 {
		return fmt.Sprintf("%d/%d", m.Matched, m.Total)
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", m.Matched, m.Total, float64(m.Matched)*100/float64(m.Total))
}

func preview(items []string) string {
	if len(items) > previewMax {
		items = items[:previewMax]
	}
	return strings.Join(items, ", ")
}
