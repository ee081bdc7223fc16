package validation

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lucasnoah/vcfsubmit/internal/merge"
)

// DetectAndOptionallyMerge classifies the VCF files of every valid analysis
// and records the merge type. When execute is set, each merge type with at
// least one analysis is sent to the merger as a single batch and the merged
// file replaces the analysis' file list.
//
// Analyses whose merge already ran keep their recorded type and file.
// Merger failures are returned as is; file lists are only rewritten from a
// successful batch result.
func (v *Validator) DetectAndOptionallyMerge(ctx context.Context, execute bool) error {
	analyses := v.ValidAnalyses()
	groups := map[merge.Type]map[string][]string{}
	var order []string

	for _, a := range analyses {
		if v.alreadyMerged(a) {
			v.logger.Debug("merge already executed", zap.String("analysis", a.Alias))
			continue
		}
		t := v.detector.Detect(ctx, a.Files)
		var value any
		if t != merge.None {
			value = string(t)
		}
		if err := v.cfg.Set(value, rootKey, mergeTypeKey, a.Alias); err != nil {
			return fmt.Errorf("record merge type of %s: %w", a.Alias, err)
		}
		v.logger.Info("merge type detected",
			zap.String("analysis", a.Alias),
			zap.String("type", t.String()),
			zap.Int("files", len(a.Files)))

		if t == merge.None {
			continue
		}
		if groups[t] == nil {
			groups[t] = map[string][]string{}
		}
		groups[t][a.Alias] = a.Files
		order = append(order, a.Alias)
	}

	if !execute {
		return nil
	}

	for _, t := range []merge.Type{merge.Horizontal, merge.Vertical} {
		batch := groups[t]
		if len(batch) == 0 {
			continue
		}
		if v.merger == nil {
			return fmt.Errorf("%s merge requested but no merger configured", t)
		}
		merged, err := merge.Run(ctx, v.merger, t, batch)
		if err != nil {
			return fmt.Errorf("%s merge: %w", t, err)
		}
		for _, alias := range order {
			if _, inBatch := batch[alias]; !inBatch {
				continue
			}
			out, ok := merged[alias]
			if !ok || out == "" {
				v.logger.Warn("merger returned no file", zap.String("analysis", alias), zap.String("type", t.String()))
				continue
			}
			if err := v.applyMerge(alias, t, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *Validator) applyMerge(alias string, t merge.Type, out string) error {
	if err := v.cfg.Set([]string{out}, rootKey, validKey, analysesKey, alias, vcfFilesKey); err != nil {
		return fmt.Errorf("record merged file of %s: %w", alias, err)
	}
	if err := v.cfg.Set(out, rootKey, mergedFilesKey, alias); err != nil {
		return fmt.Errorf("record merged file of %s: %w", alias, err)
	}
	v.logger.Info("analysis merged", zap.String("analysis", alias), zap.String("type", t.String()), zap.String("output", out))
	if v.history != nil {
		if err := v.history.LogMergeEvent(v.cfg.String(rootKey, runIDKey), alias, string(t), out); err != nil {
			v.logger.Warn("history log failed", zap.Error(err))
		}
	}
	return nil
}

// alreadyMerged reports whether a's only file is the output of a merge that
// was executed earlier.
func (v *Validator) alreadyMerged(a Analysis) bool {
	out := v.cfg.String(rootKey, mergedFilesKey, a.Alias)
	return out != "" && slices.Equal(a.Files, []string{out})
}
