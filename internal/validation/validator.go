// Package validation aggregates validator results for a submission, decides
// which VCF files need merging and renders the consolidated report.
//
// All state lives in the submission configuration under the "validation"
// key; a Validator keeps nothing in memory between calls.
package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasnoah/vcfsubmit/internal/merge"
	"github.com/lucasnoah/vcfsubmit/internal/submission"
)

const (
	rootKey        = "validation"
	dateKey        = "validation_date"
	runIDKey       = "run_id"
	passKey        = "pass"
	targetsKey     = "targets"
	mergeTypeKey   = "merge_type"
	mergedFilesKey = "merged_files"
	validKey       = "valid"
	analysesKey    = "analyses"
	vcfFilesKey    = "vcf_files"

	dateLayout = "2006-01-02 15:04:05.000000"
)

// HistoryRecorder keeps an append-only log of check runs and merges.
type HistoryRecorder interface {
	LogCheckRun(runID string, kind string, target string, passed bool, nbError int, nbWarning int, summary string) error
	LogMergeEvent(runID string, alias string, mergeType string, output string) error
}

// Analysis is a valid analysis and the VCF files currently attached to it.
type Analysis struct {
	Alias     string
	Files     []string
	MergeType merge.Type
}

// Validator reads and writes the validation state of one submission.
type Validator struct {
	cfg      *submission.Config
	detector merge.Detector
	merger   merge.Merger
	history  HistoryRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewValidator creates a Validator over cfg. merger and history may be nil
// when no merge is executed or no history is kept.
func NewValidator(cfg *submission.Config, detector merge.Detector, merger merge.Merger, history HistoryRecorder, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		cfg:      cfg,
		detector: detector,
		merger:   merger,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

// Config returns the submission configuration the validator writes to.
func (v *Validator) Config() *submission.Config {
	return v.cfg
}

// StartRun stamps a new validation run id and date. Outcomes recorded
// afterwards are attributed to this run in the history log.
func (v *Validator) StartRun() (string, error) {
	id := uuid.NewString()
	if err := v.cfg.Set(id, rootKey, runIDKey); err != nil {
		return "", err
	}
	if err := v.cfg.Set(v.now().Format(dateLayout), rootKey, dateKey); err != nil {
		return "", err
	}
	return id, nil
}

// Record stores o, replacing any earlier outcome for the same kind and
// target, and recomputes the kind's overall pass flag.
func (v *Validator) Record(o Outcome) error {
	if o.Target == "" {
		return fmt.Errorf("record %s outcome: empty target", o.Kind)
	}
	o.normalize()

	if !v.cfg.Has(rootKey, runIDKey) {
		if _, err := v.StartRun(); err != nil {
			return fmt.Errorf("start validation run: %w", err)
		}
	} else if err := v.cfg.Set(v.now().Format(dateLayout), rootKey, dateKey); err != nil {
		return err
	}

	key := o.Kind.configKey()
	if err := v.cfg.Set(o, rootKey, key, targetsKey, o.Target); err != nil {
		return fmt.Errorf("record %s outcome for %s: %w", o.Kind, o.Target, err)
	}
	if err := v.cfg.Set(v.rollup(o.Kind), rootKey, key, passKey); err != nil {
		return fmt.Errorf("record %s rollup: %w", o.Kind, err)
	}

	v.logger.Info("check recorded",
		zap.String("kind", string(o.Kind)),
		zap.String("target", o.Target),
		zap.Bool("pass", o.Pass),
		zap.Int("errors", o.ErrorCount),
		zap.Int("warnings", o.WarningCount))

	if v.history != nil {
		summary := fmt.Sprintf("%d errors, %d warnings, %d mismatches", o.ErrorCount, o.WarningCount, o.MismatchCount)
		if err := v.history.LogCheckRun(v.cfg.String(rootKey, runIDKey), string(o.Kind), o.Target,
			o.Pass, o.ErrorCount, o.WarningCount, summary); err != nil {
			v.logger.Warn("history log failed", zap.Error(err))
		}
	}
	return nil
}

// Outcomes returns the recorded outcomes of kind in the order their targets
// were first recorded. Entries that cannot be decoded are skipped.
func (v *Validator) Outcomes(kind Kind) []Outcome {
	var out []Outcome
	for _, target := range v.cfg.Keys(rootKey, kind.configKey(), targetsKey) {
		o := Outcome{Kind: kind, Target: target}
		if _, err := v.cfg.Decode(&o, rootKey, kind.configKey(), targetsKey, target); err != nil {
			v.logger.Warn("skipping unreadable outcome", zap.String("kind", string(kind)), zap.String("target", target), zap.Error(err))
			continue
		}
		o.Kind, o.Target = kind, target
		out = append(out, o)
	}
	return out
}

// Passed reports the AND of every recorded outcome of kind. ok is false when
// nothing was recorded for kind yet.
func (v *Validator) Passed(kind Kind) (passed bool, ok bool) {
	outcomes := v.Outcomes(kind)
	if len(outcomes) == 0 {
		return false, false
	}
	for _, o := range outcomes {
		if !o.Pass {
			return false, true
		}
	}
	return true, true
}

func (v *Validator) rollup(kind Kind) bool {
	passed, _ := v.Passed(kind)
	return passed
}

// ValidationDate returns the date of the last recorded check, or "".
func (v *Validator) ValidationDate() string {
	return v.cfg.String(rootKey, dateKey)
}

// MarkValid attaches files to alias in the set of analyses that passed
// validation and are candidates for merging.
func (v *Validator) MarkValid(alias string, files []string) error {
	if err := v.cfg.Set(files, rootKey, validKey, analysesKey, alias, vcfFilesKey); err != nil {
		return fmt.Errorf("mark %s valid: %w", alias, err)
	}
	return nil
}

// ClearValid removes alias from the valid analyses together with its merge
// type and merged file, so an analysis that failed again is neither reported
// nor skipped as already merged.
func (v *Validator) ClearValid(alias string) {
	v.cfg.Delete(rootKey, validKey, analysesKey, alias)
	v.cfg.Delete(rootKey, mergeTypeKey, alias)
	v.cfg.Delete(rootKey, mergedFilesKey, alias)
}

// ValidAnalyses returns the valid analyses in declaration order.
func (v *Validator) ValidAnalyses() []Analysis {
	var out []Analysis
	for _, alias := range v.cfg.Keys(rootKey, validKey, analysesKey) {
		out = append(out, Analysis{
			Alias:     alias,
			Files:     v.cfg.Strings(rootKey, validKey, analysesKey, alias, vcfFilesKey),
			MergeType: v.MergeType(alias),
		})
	}
	return out
}

// MergeType returns the recorded merge type of alias.
func (v *Validator) MergeType(alias string) merge.Type {
	return merge.ParseType(v.cfg.String(rootKey, mergeTypeKey, alias))
}
