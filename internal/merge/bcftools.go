package merge

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/vcfsubmit/internal/checks"
)

var unsafeAliasChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// BcftoolsMerger merges files with bcftools: concat for horizontal merges and
// merge for vertical ones. Output goes to OutputDir as <alias>_merged.vcf.gz.
// Every path handed to bcftools is absolute since it runs inside OutputDir.
type BcftoolsMerger struct {
	cmd       checks.CommandRunner
	bcftools  string
	outputDir string
	logger    *zap.Logger
}

// NewBcftoolsMerger creates a merger invoking the bcftools binary at path.
func NewBcftoolsMerger(cmd checks.CommandRunner, bcftools, outputDir string, logger *zap.Logger) *BcftoolsMerger {
	if bcftools == "" {
		bcftools = "bcftools"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	// A relative binary path would be looked up from inside outputDir.
	if strings.ContainsRune(bcftools, filepath.Separator) && !filepath.IsAbs(bcftools) {
		if abs, err := filepath.Abs(bcftools); err == nil {
			bcftools = abs
		}
	}
	return &BcftoolsMerger{cmd: cmd, bcftools: bcftools, outputDir: outputDir, logger: logger}
}

// HorizontalMerge concatenates each alias' files in the order given.
func (m *BcftoolsMerger) HorizontalMerge(ctx context.Context, files map[string][]string) (map[string]string, error) {
	return m.batch(ctx, files, "concat")
}

// VerticalMerge joins each alias' files sample-wise.
func (m *BcftoolsMerger) VerticalMerge(ctx context.Context, files map[string][]string) (map[string]string, error) {
	return m.batch(ctx, files, "merge --merge all")
}

// OutputPath returns where the merged file of alias is written. Aliases
// that are not safe file names are sanitised and suffixed with a hash of the
// alias, so two aliases never share an output file.
func (m *BcftoolsMerger) OutputPath(alias string) string {
	name := unsafeAliasChars.ReplaceAllString(alias, "_")
	if name != alias {
		h := fnv.New32a()
		h.Write([]byte(alias))
		name = fmt.Sprintf("%s_%08x", name, h.Sum32())
	}
	return filepath.Join(m.outputDir, name+"_merged.vcf.gz")
}

// batch merges every alias in turn. The first failure aborts the batch and no
// partial result is returned.
func (m *BcftoolsMerger) batch(ctx context.Context, files map[string][]string, subcommand string) (map[string]string, error) {
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", m.outputDir, err)
	}

	aliases := make([]string, 0, len(files))
	for alias := range files {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	owners := make(map[string]string, len(aliases))
	for _, alias := range aliases {
		out := m.OutputPath(alias)
		if other, taken := owners[out]; taken {
			return nil, fmt.Errorf("merge %s: output %s already used by %s", alias, out, other)
		}
		owners[out] = alias
	}

	merged := make(map[string]string, len(files))
	for _, alias := range aliases {
		inputs := files[alias]
		if len(inputs) == 0 {
			return nil, fmt.Errorf("merge %s: no input files", alias)
		}
		out := m.OutputPath(alias)
		quoted := make([]string, len(inputs))
		for i, f := range inputs {
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, fmt.Errorf("merge %s: %w", alias, err)
			}
			quoted[i] = checks.Quote(abs)
		}
		command := fmt.Sprintf("%s %s --output-type z --output %s %s",
			checks.Quote(m.bcftools), subcommand, checks.Quote(out), strings.Join(quoted, " "))

		m.logger.Info("merging VCF files",
			zap.String("analysis", alias),
			zap.Int("files", len(inputs)),
			zap.String("output", out))
		_, stderr, exitCode, err := m.cmd.Run(ctx, m.outputDir, command)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", alias, err)
		}
		if exitCode != 0 {
			return nil, fmt.Errorf("merge %s: bcftools exited %d: %s", alias, exitCode, strings.TrimSpace(stderr))
		}
		merged[alias] = out
	}
	return merged, nil
}
