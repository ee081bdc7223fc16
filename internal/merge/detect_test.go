package merge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVCF(t *testing.T, dir, name string, samples []string, positions ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.2\n")
	b.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	if len(samples) > 0 {
		b.WriteString("\tFORMAT\t" + strings.Join(samples, "\t"))
	}
	b.WriteString("\n")
	for _, p := range positions {
		chrom, pos, _ := strings.Cut(p, ":")
		b.WriteString(chrom + "\t" + pos + "\t.\tA\tT\t.\tPASS\t.")
		for range samples {
			b.WriteString("\t0/1")
		}
		b.WriteString("\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestVCFDetector_Detect(t *testing.T) {
	dir := t.TempDir()
	s12 := []string{"S1", "S2"}
	s34 := []string{"S3", "S4"}
	s23 := []string{"S2", "S3"}

	chr1 := writeVCF(t, dir, "chr1.vcf", s12, "1:100", "1:200")
	chr2 := writeVCF(t, dir, "chr2.vcf", s12, "2:100", "2:200")
	chr1Copy := writeVCF(t, dir, "chr1_copy.vcf", s12, "1:200", "1:100")
	chr1Other := writeVCF(t, dir, "chr1_other.vcf", s34, "1:100", "1:200")
	chr1Overlap := writeVCF(t, dir, "chr1_overlap.vcf", s23, "1:100", "1:200")
	chr2Other := writeVCF(t, dir, "chr2_other.vcf", s34, "2:100", "2:200")
	chr1Dup := writeVCF(t, dir, "chr1_dup.vcf", s34, "1:100", "1:100", "1:200")
	chr1Subset := writeVCF(t, dir, "chr1_subset.vcf", s34, "1:100")
	chr1Superset := writeVCF(t, dir, "chr1_superset.vcf", s34, "1:100", "1:200", "1:300")

	tests := []struct {
		name  string
		files []string
		want  Type
	}{
		{"single file", []string{chr1}, None},
		{"no files", nil, None},
		{"same samples, different positions", []string{chr1, chr2}, Horizontal},
		{"same samples, same positions", []string{chr1, chr1Copy}, None},
		{"disjoint samples, same positions", []string{chr1, chr1Other}, Vertical},
		{"overlapping samples", []string{chr1, chr1Overlap}, None},
		{"disjoint samples, different positions", []string{chr1, chr2Other}, None},
		{"duplicate records, same positions", []string{chr1, chr1Dup}, Vertical},
		{"disjoint samples, subset of positions", []string{chr1, chr1Subset}, None},
		{"disjoint samples, superset of positions", []string{chr1, chr1Superset}, None},
		{"three files, same samples", []string{chr1, chr1Copy, chr2}, Horizontal},
		{"unreadable file", []string{chr1, filepath.Join(dir, "missing.vcf")}, None},
	}

	d := NewVCFDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(context.Background(), tt.files))
		})
	}
}

func TestVCFDetector_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	a := writeVCF(t, dir, "a.vcf", []string{"S1"}, "1:1")
	b := writeVCF(t, dir, "b.vcf", []string{"S1"}, "1:2")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, None, NewVCFDetector(nil).Detect(ctx, []string{a, b}))
}

func TestParseType(t *testing.T) {
	assert.Equal(t, Horizontal, ParseType("horizontal"))
	assert.Equal(t, Vertical, ParseType("vertical"))
	assert.Equal(t, None, ParseType(""))
	assert.Equal(t, None, ParseType("diagonal"))
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "horizontal", Horizontal.String())
}
