package checks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const failedAssemblyLog = `[2020-11-03 10:12:01.234] [info] Reading from input VCF
[2020-11-03 10:12:01.240] [error] The assembly checking could not be completed: Contig '8' not found in assembly report
`

func TestParseAssemblyCheckLog_Failed(t *testing.T) {
	r := ParseAssemblyCheckLog(strings.NewReader(failedAssemblyLog))
	want := " The assembly checking could not be completed: Contig '8' not found in assembly report"
	if len(r.Errors) != 1 || r.Errors[0] != want {
		t.Fatalf("Errors = %q, want [%q]", r.Errors, want)
	}
	if r.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", r.ErrorCount)
	}
	if r.Matched != 0 || r.Total != 0 {
		t.Errorf("Matched/Total = %d/%d, want 0/0", r.Matched, r.Total)
	}
}

func TestParseAssemblyCheckLog_Success(t *testing.T) {
	for _, input := range []string{
		"",
		"[info] Reading from input VCF\n[info] Finished\n",
		"[error] something unrelated went sideways\n",
	} {
		r := ParseAssemblyCheckLog(strings.NewReader(input))
		if len(r.Errors) != 0 || r.ErrorCount != 0 || r.Matched != 0 || r.Total != 0 {
			t.Errorf("input %q: got %+v, want empty result", input, r)
		}
		if r.Errors == nil {
			t.Errorf("input %q: Errors should be an empty list, not nil", input)
		}
	}
}

func TestParseAssemblyCheckLog_MatchCounts(t *testing.T) {
	input := "[info] Number of matches: 20/20\n[info] Percentage of matches: 100%\n"
	r := ParseAssemblyCheckLog(strings.NewReader(input))
	if r.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", r.ErrorCount)
	}
	if r.Matched != 20 || r.Total != 20 {
		t.Errorf("Matched/Total = %d/%d, want 20/20", r.Matched, r.Total)
	}
	if r.Summary() != "20/20 matches" {
		t.Errorf("unexpected summary: %q", r.Summary())
	}
}

const mismatchReport = `Line 15: Chromosome Chr14, position 7387, reference allele 'T' does not match the reference sequence, expected 'C'
Line 18: Chromosome Chr14, position 8795, reference allele 'A' does not match the reference sequence, expected 'G'
this line is noise
Line 38: Chromosome Chr14, position 10200, reference allele 'A' does not match the reference sequence, expected 'c'
Line xx: Chromosome Chr14, position 1, reference allele 'A' does not match the reference sequence, expected 'c'
Line 55: Chromosome Chr14, position 11839, reference allele 'G' does not match the reference sequence, expected 'a'
Multiple synonyms found for contig 'Chr15'
`

func TestParseAssemblyCheckReport(t *testing.T) {
	r := ParseAssemblyCheckReport(strings.NewReader(mismatchReport))
	want := []string{
		"Line 15: Chromosome Chr14, position 7387, reference allele 'T' does not match the reference sequence, expected 'C'",
		"Line 18: Chromosome Chr14, position 8795, reference allele 'A' does not match the reference sequence, expected 'G'",
		"Line 38: Chromosome Chr14, position 10200, reference allele 'A' does not match the reference sequence, expected 'c'",
		"Line 55: Chromosome Chr14, position 11839, reference allele 'G' does not match the reference sequence, expected 'a'",
	}
	if r.Count != len(r.Messages) {
		t.Fatalf("Count = %d but %d messages", r.Count, len(r.Messages))
	}
	if len(r.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d: %q", len(r.Messages), len(want), r.Messages)
	}
	for i := range want {
		if r.Messages[i] != want[i] {
			t.Errorf("Messages[%d] = %q, want %q", i, r.Messages[i], want[i])
		}
		if r.Mismatches[i].String() != want[i] {
			t.Errorf("Mismatches[%d].String() = %q, want %q", i, r.Mismatches[i].String(), want[i])
		}
	}

	m := r.Mismatches[2]
	if m.Line != 38 || m.Chromosome != "Chr14" || m.Position != 10200 || m.Observed != "A" || m.Expected != "c" {
		t.Errorf("unexpected mismatch: %+v", m)
	}
	if r.ErrorCount != 1 || r.Errors[0] != "Multiple synonyms found for contig 'Chr15'" {
		t.Errorf("Errors = %q, want the synonym line", r.Errors)
	}
}

func TestParseAssemblyCheckReport_Empty(t *testing.T) {
	r := ParseAssemblyCheckReport(strings.NewReader(""))
	if r.Count != 0 || len(r.Messages) != 0 || r.ErrorCount != 0 {
		t.Errorf("expected empty result, got %+v", r)
	}
}

const failedVCFReport = `According to the VCF specification, the input file is not valid
Line 4: Error: Sample #11, field AD does not match the meta specification Number=R (expected 2 value(s))
Line 5: Error: Chromosome is not a string without colons or whitespaces
Warning: Reference and alternate alleles do not share the first nucleotide. This occurs 2 time(s), first time in line 9.
Error: Duplicated variant chr1:1000 A>T found. This occurs 1 time(s), first time in line 12.
`

func TestParseVCFCheckReport_Failed(t *testing.T) {
	r := ParseVCFCheckReport(strings.NewReader(failedVCFReport))
	if r.Valid {
		t.Error("expected valid=false")
	}
	if r.ErrorCount != 3 || len(r.Errors) != 3 {
		t.Errorf("ErrorCount = %d, len(Errors) = %d, want 3", r.ErrorCount, len(r.Errors))
	}
	if r.WarningCount != 1 || len(r.Warnings) != 1 {
		t.Errorf("WarningCount = %d, len(Warnings) = %d, want 1", r.WarningCount, len(r.Warnings))
	}
	if len(r.Findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(r.Findings))
	}
	if r.Findings[0].Line != 4 || r.Findings[0].Severity != SeverityError {
		t.Errorf("unexpected first finding: %+v", r.Findings[0])
	}
	if r.Findings[2].Line != 9 || r.Findings[2].Severity != SeverityWarning {
		t.Errorf("unexpected warning finding: %+v", r.Findings[2])
	}
	if r.Findings[3].Line != 12 {
		t.Errorf("expected line 12 from 'first time in line', got %d", r.Findings[3].Line)
	}
	if r.Summary() != "3 errors, 1 warnings" {
		t.Errorf("unexpected summary: %q", r.Summary())
	}
}

func TestParseVCFCheckReport_WarningsOnlyIsValid(t *testing.T) {
	input := "According to the VCF specification, the input file is valid\nWarning: a\nWarning: b\n"
	r := ParseVCFCheckReport(strings.NewReader(input))
	if !r.Valid {
		t.Error("expected valid=true with warnings only")
	}
	if r.ErrorCount != 0 || r.WarningCount != 2 {
		t.Errorf("got %d errors, %d warnings", r.ErrorCount, r.WarningCount)
	}
}

func TestParseVCFCheckReport_NoTrailingNewline(t *testing.T) {
	r := ParseVCFCheckReport(strings.NewReader("Error: last line"))
	if r.ErrorCount != 1 || r.Errors[0] != "Error: last line" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParseFile_Missing(t *testing.T) {
	r, err := ParseVCFCheckReportFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if r.Valid || r.ErrorCount != 0 {
		t.Errorf("expected zero result, got %+v", r)
	}
}

func TestParseFile_Reads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assembly_check.log")
	if err := os.WriteFile(path, []byte(failedAssemblyLog), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := ParseAssemblyCheckLogFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", r.ErrorCount)
	}
}

func TestMessages(t *testing.T) {
	got := Messages([]Finding{{Message: "a"}, {Message: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Messages = %q", got)
	}
}
