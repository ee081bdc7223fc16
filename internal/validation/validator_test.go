package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasnoah/vcfsubmit/internal/checks"
	"github.com/lucasnoah/vcfsubmit/internal/merge"
	"github.com/lucasnoah/vcfsubmit/internal/submission"
)

// fakeDetector returns results in call order, then None.
type fakeDetector struct {
	results []merge.Type
	calls   [][]string
}

func (d *fakeDetector) Detect(_ context.Context, files []string) merge.Type {
	d.calls = append(d.calls, files)
	if len(d.calls) > len(d.results) {
		return merge.None
	}
	return d.results[len(d.calls)-1]
}

type fakeMerger struct {
	horizontal map[string]string
	vertical   map[string]string
	err        error

	horizontalCalls []map[string][]string
	verticalCalls   []map[string][]string
}

func (m *fakeMerger) HorizontalMerge(_ context.Context, files map[string][]string) (map[string]string, error) {
	m.horizontalCalls = append(m.horizontalCalls, files)
	if m.err != nil {
		return nil, m.err
	}
	return m.horizontal, nil
}

func (m *fakeMerger) VerticalMerge(_ context.Context, files map[string][]string) (map[string]string, error) {
	m.verticalCalls = append(m.verticalCalls, files)
	if m.err != nil {
		return nil, m.err
	}
	return m.vertical, nil
}

type checkRun struct {
	kind, target string
	passed       bool
	nbError      int
}

type fakeHistory struct {
	runs   []checkRun
	merges []string
	err    error
}

func (h *fakeHistory) LogCheckRun(_ string, kind, target string, passed bool, nbError, _ int, _ string) error {
	h.runs = append(h.runs, checkRun{kind, target, passed, nbError})
	return h.err
}

func (h *fakeHistory) LogMergeEvent(_ string, alias, mergeType, output string) error {
	h.merges = append(h.merges, alias+":"+mergeType+":"+output)
	return h.err
}

var fixedNow = time.Date(2020, 11, 1, 10, 37, 54, 755607000, time.UTC)

func newValidator(d merge.Detector, m merge.Merger, h HistoryRecorder) *Validator {
	v := NewValidator(submission.New(""), d, m, h, nil)
	v.now = func() time.Time { return fixedNow }
	return v
}

func TestRecord_StoresOutcomeAndRollup(t *testing.T) {
	h := &fakeHistory{}
	v := newValidator(&fakeDetector{}, nil, h)

	require.NoError(t, v.Record(VCFOutcome("a.vcf", checks.VCFCheckResult{}, "/r/a.txt")))
	require.NoError(t, v.Record(VCFOutcome("b.vcf", checks.VCFCheckResult{
		Findings: []checks.Finding{{Severity: checks.SeverityError, Message: "bad", Line: 3}},
	}, "/r/b.txt")))

	outcomes := v.Outcomes(KindVCF)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "a.vcf", outcomes[0].Target)
	assert.True(t, outcomes[0].Pass)
	assert.Equal(t, "b.vcf", outcomes[1].Target)
	assert.False(t, outcomes[1].Pass)
	assert.Equal(t, 1, outcomes[1].ErrorCount)
	assert.Equal(t, 3, outcomes[1].Findings[0].Line)
	assert.Equal(t, "/r/b.txt", outcomes[1].ReportPath)

	pass, ok := v.Config().Query("validation", "vcf_check", "pass")
	require.True(t, ok)
	assert.Equal(t, false, pass)

	assert.Equal(t, "2020-11-01 10:37:54.755607", v.ValidationDate())
	assert.NotEmpty(t, v.Config().String("validation", "run_id"))
	assert.Equal(t, []checkRun{{"vcf", "a.vcf", true, 0}, {"vcf", "b.vcf", false, 1}}, h.runs)
}

func TestRecord_RerunReplacesWholeTarget(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, nil)
	failing := AssemblyOutcome("a.vcf",
		checks.AssemblyLogResult{Errors: []string{"boom"}, ErrorCount: 1},
		checks.MismatchResult{Mismatches: []checks.Mismatch{{Line: 4, Chromosome: "1", Position: 10, Observed: "A", Expected: "C"}}},
		"/r/a.txt")
	require.NoError(t, v.Record(failing))

	require.NoError(t, v.Record(AssemblyOutcome("a.vcf",
		checks.AssemblyLogResult{Errors: []string{}, Matched: 5, Total: 5},
		checks.MismatchResult{}, "")))

	outcomes := v.Outcomes(KindAssembly)
	require.Len(t, outcomes, 1)
	o := outcomes[0]
	assert.True(t, o.Pass)
	assert.Empty(t, o.Findings)
	assert.Empty(t, o.Mismatches)
	assert.Equal(t, 0, o.MismatchCount)
	assert.Equal(t, "", o.ReportPath)
	require.NotNil(t, o.Match)
	assert.Equal(t, MatchRatio{Matched: 5, Total: 5}, *o.Match)

	passed, ok := v.Passed(KindAssembly)
	assert.True(t, ok)
	assert.True(t, passed)
}

func TestRecord_CountsMatchLists(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, nil)
	o := VCFOutcome("x.vcf", checks.VCFCheckResult{
		Findings: []checks.Finding{
			{Severity: checks.SeverityError, Message: "e1"},
			{Severity: checks.SeverityWarning, Message: "w1"},
			{Severity: checks.SeverityError, Message: "e2"},
		},
		// Stale counters are ignored in favour of the finding lists.
		ErrorCount:   7,
		WarningCount: 0,
	}, "")
	o.ErrorCount = 99
	require.NoError(t, v.Record(o))

	got := v.Outcomes(KindVCF)[0]
	assert.Equal(t, len(got.Errors()), got.ErrorCount)
	assert.Equal(t, 2, got.ErrorCount)
	assert.Equal(t, len(got.Warnings()), got.WarningCount)
	assert.Equal(t, 1, got.WarningCount)
}

func TestRecord_EmptyTarget(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, nil)
	assert.Error(t, v.Record(Outcome{Kind: KindVCF}))
}

func TestRecord_HistoryFailureIsNotFatal(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, &fakeHistory{err: errors.New("db locked")})
	assert.NoError(t, v.Record(MetadataOutcome("/s.xlsx", nil)))
}

func TestPassed_NoTargets(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, nil)
	_, ok := v.Passed(KindMetadata)
	assert.False(t, ok)
	assert.Empty(t, v.Outcomes(KindMetadata))
}

func TestCompareSamples(t *testing.T) {
	inVCF, inMeta := CompareSamples([]string{"S1", "S2", "S2", "S4"}, []string{"S3", "S1", "S3"})
	assert.Equal(t, []string{"S3"}, inVCF)
	assert.Equal(t, []string{"S2", "S4"}, inMeta)

	inVCF, inMeta = CompareSamples([]string{"A"}, []string{"A"})
	assert.Empty(t, inVCF)
	assert.Empty(t, inMeta)
	assert.True(t, SampleNamesOutcome("a1", inVCF, inMeta).Pass)
	assert.False(t, SampleNamesOutcome("a1", []string{"X"}, nil).Pass)
}

func TestAssemblyOutcome_FailedLogHasNoRatio(t *testing.T) {
	o := AssemblyOutcome("a.vcf", checks.AssemblyLogResult{Errors: []string{"x"}, ErrorCount: 1}, checks.MismatchResult{}, "")
	assert.Nil(t, o.Match)
	assert.False(t, o.Pass)
	assert.Equal(t, "", o.Match.String())
}

func TestMatchRatio_String(t *testing.T) {
	assert.Equal(t, "20/20 (100.0%)", (&MatchRatio{20, 20}).String())
	assert.Equal(t, "1/3 (33.3%)", (&MatchRatio{1, 3}).String())
	assert.Equal(t, "0/0", (&MatchRatio{}).String())
}

func TestValidAnalyses(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, nil)
	require.NoError(t, v.MarkValid("b", []string{"b1"}))
	require.NoError(t, v.MarkValid("a", []string{"a1", "a2"}))
	require.NoError(t, v.Config().Set("vertical", "validation", "merge_type", "a"))

	assert.Equal(t, []Analysis{
		{Alias: "b", Files: []string{"b1"}, MergeType: merge.None},
		{Alias: "a", Files: []string{"a1", "a2"}, MergeType: merge.Vertical},
	}, v.ValidAnalyses())
}

func TestClearValid_DropsMergeState(t *testing.T) {
	v := newValidator(&fakeDetector{}, nil, nil)
	require.NoError(t, v.MarkValid("a", []string{"/out/a_merged.vcf.gz"}))
	require.NoError(t, v.MarkValid("b", []string{"b1", "b2"}))
	require.NoError(t, v.Config().Set("horizontal", "validation", "merge_type", "a"))
	require.NoError(t, v.Config().Set("/out/a_merged.vcf.gz", "validation", "merged_files", "a"))
	require.NoError(t, v.Config().Set("vertical", "validation", "merge_type", "b"))

	v.ClearValid("a")

	assert.False(t, v.Config().Has("validation", "valid", "analyses", "a"))
	assert.False(t, v.Config().Has("validation", "merge_type", "a"))
	assert.False(t, v.Config().Has("validation", "merged_files", "a"))
	assert.Equal(t, merge.Vertical, v.MergeType("b"))

	report := v.BuildReport()
	assert.Contains(t, report, "VCF merge:\n  * b: vertical\n")
	assert.NotContains(t, report, "  * a: horizontal")
}
