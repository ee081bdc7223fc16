package checks

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	vcfErrorMarker   = "Error:"
	vcfWarningMarker = "Warning:"
)

var (
	vcfLinePrefixRe = regexp.MustCompile(`^Line (\d+):`)
	vcfFirstLineRe  = regexp.MustCompile(`first time in line (\d+)`)
)

// VCFCheckResult is the outcome of a VCF validator report.
type VCFCheckResult struct {
	Valid        bool
	Findings     []Finding // errors and warnings, report order
	Errors       []string
	Warnings     []string
	ErrorCount   int
	WarningCount int
}

// Summary returns a one-line description of the report.
func (r VCFCheckResult) Summary() string {
	return fmt.Sprintf("%d errors, %d warnings", r.ErrorCount, r.WarningCount)
}

// ParseVCFCheckReport classifies the VCF validator report lines by their
// error or warning marker. Lines carrying neither marker, including the
// validator's own verdict line, are ignored: the file is valid exactly when
// no error line was found.
func ParseVCFCheckReport(r io.Reader) VCFCheckResult {
	result := VCFCheckResult{Errors: []string{}, Warnings: []string{}}
	eachLine(r, func(line string) {
		line = strings.TrimSpace(line)
		var sev Severity
		switch {
		case strings.Contains(line, vcfErrorMarker):
			sev = SeverityError
		case strings.Contains(line, vcfWarningMarker):
			sev = SeverityWarning
		default:
			return
		}
		f := Finding{Severity: sev, Message: line, Line: reportedLine(line)}
		result.Findings = append(result.Findings, f)
		if sev == SeverityError {
			result.Errors = append(result.Errors, line)
		} else {
			result.Warnings = append(result.Warnings, line)
		}
	})
	result.ErrorCount = len(result.Errors)
	result.WarningCount = len(result.Warnings)
	result.Valid = result.ErrorCount == 0
	return result
}

// ParseVCFCheckReportFile parses the validator report stored at path.
func ParseVCFCheckReportFile(path string) (VCFCheckResult, error) {
	return parseFile(path, ParseVCFCheckReport)
}

func reportedLine(line string) int {
	for _, re := range []*regexp.Regexp{vcfLinePrefixRe, vcfFirstLineRe} {
		if m := re.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n
			}
		}
	}
	return 0
}
