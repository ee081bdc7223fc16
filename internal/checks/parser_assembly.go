package checks

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	// assemblyErrorMarker tags error lines in the assembly checker log.
	assemblyErrorMarker = "[error]"
	// assemblyFailurePhrase marks a run that aborted before checking any variant.
	assemblyFailurePhrase = "could not be completed"
	// assemblySynonymPhrase marks a contig that maps to several assembly sequences.
	assemblySynonymPhrase = "Multiple synonyms"
)

var (
	assemblyMatchesRe = regexp.MustCompile(`Number of matches:\s*(\d+)\s*/\s*(\d+)`)
	// Line 15: Chromosome Chr14, position 7387, reference allele 'T' does not match the reference sequence, expected 'C'
	mismatchLineRe = regexp.MustCompile(`^Line (\d+): Chromosome (\S+), position (\d+), reference allele '([^']*)' does not match the reference sequence, expected '([^']*)'`)
)

// AssemblyLogResult is the outcome of an assembly checker log.
type AssemblyLogResult struct {
	Errors     []string // failure messages, verbatim after the error marker
	ErrorCount int
	Matched    int // variants whose reference allele matched the assembly
	Total      int // variants checked
}

// Summary returns a one-line description of the log.
func (r AssemblyLogResult) Summary() string {
	if r.ErrorCount > 0 {
		return fmt.Sprintf("%d errors", r.ErrorCount)
	}
	return fmt.Sprintf("%d/%d matches", r.Matched, r.Total)
}

// ParseAssemblyCheckLog scans the assembly checker log for aborted runs.
//
// A log without the failure phrase is a successful run and yields no errors.
// When the run aborted, the match counters are always reported as 0/0 since
// no variant was checked.
func ParseAssemblyCheckLog(r io.Reader) AssemblyLogResult {
	var result AssemblyLogResult
	eachLine(r, func(line string) {
		if strings.Contains(line, assemblyFailurePhrase) {
			msg := line
			if i := strings.Index(line, assemblyErrorMarker); i >= 0 {
				msg = line[i+len(assemblyErrorMarker):]
			}
			result.Errors = append(result.Errors, msg)
			return
		}
		if m := assemblyMatchesRe.FindStringSubmatch(line); m != nil {
			result.Matched, _ = strconv.Atoi(m[1])
			result.Total, _ = strconv.Atoi(m[2])
		}
	})
	result.ErrorCount = len(result.Errors)
	if result.ErrorCount > 0 {
		result.Matched, result.Total = 0, 0
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	return result
}

// ParseAssemblyCheckLogFile parses the log stored at path.
func ParseAssemblyCheckLogFile(path string) (AssemblyLogResult, error) {
	return parseFile(path, ParseAssemblyCheckLog)
}

// Mismatch is one reference allele that disagrees with the assembly.
type Mismatch struct {
	Line       int    `yaml:"line" json:"line"`
	Chromosome string `yaml:"chromosome" json:"chromosome"`
	Position   int64  `yaml:"position" json:"position"`
	Observed   string `yaml:"observed" json:"observed"`
	Expected   string `yaml:"expected" json:"expected"`
}

// String renders the mismatch with the checker's sentence template.
func (m Mismatch) String() string {
	return fmt.Sprintf("Line %d: Chromosome %s, position %d, reference allele '%s' does not match the reference sequence, expected '%s'",
		m.Line, m.Chromosome, m.Position, m.Observed, m.Expected)
}

// MismatchResult is the outcome of an assembly checker text report.
type MismatchResult struct {
	Mismatches []Mismatch
	Messages   []string // one sentence per mismatch, file order
	Count      int      // always len(Messages)
	Errors     []string // contigs with ambiguous synonyms
	ErrorCount int
}

// Summary returns a one-line description of the report.
func (r MismatchResult) Summary() string {
	return fmt.Sprintf("%d mismatches, %d errors", r.Count, r.ErrorCount)
}

// ParseAssemblyCheckReport extracts reference allele mismatches from the
// assembly checker text report. Alleles are kept as written; lines that do
// not follow the mismatch template are skipped.
func ParseAssemblyCheckReport(r io.Reader) MismatchResult {
	result := MismatchResult{Messages: []string{}, Errors: []string{}}
	eachLine(r, func(line string) {
		line = strings.TrimSpace(line)
		if m := mismatchLineRe.FindStringSubmatch(line); m != nil {
			lineNum, err := strconv.Atoi(m[1])
			if err != nil {
				return
			}
			pos, err := strconv.ParseInt(m[3], 10, 64)
			if err != nil {
				return
			}
			result.Mismatches = append(result.Mismatches, Mismatch{
				Line:       lineNum,
				Chromosome: m[2],
				Position:   pos,
				Observed:   m[4],
				Expected:   m[5],
			})
			result.Messages = append(result.Messages, m[0])
			return
		}
		if strings.Contains(line, assemblySynonymPhrase) {
			result.Errors = append(result.Errors, line)
		}
	})
	result.Count = len(result.Messages)
	result.ErrorCount = len(result.Errors)
	return result
}

// ParseAssemblyCheckReportFile parses the text report stored at path.
func ParseAssemblyCheckReportFile(path string) (MismatchResult, error) {
	return parseFile(path, ParseAssemblyCheckReport)
}
