package merge

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"slices"

	"go.uber.org/zap"

	"github.com/lucasnoah/vcfsubmit/internal/vcf"
)

// VCFDetector classifies files by comparing their samples and positions.
type VCFDetector struct {
	logger *zap.Logger
}

// NewVCFDetector returns a detector that logs unreadable files to logger.
func NewVCFDetector(logger *zap.Logger) *VCFDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VCFDetector{logger: logger}
}

// Detect returns Horizontal when every file has the same sample list but
// the positions differ, Vertical when the sample lists are pairwise disjoint
// and every file covers the same positions, and None otherwise. A single
// file, or any file that cannot be read, is None.
//
// Headers are compared first; records are only read when the sample lists
// leave a merge possible.
func (d *VCFDetector) Detect(ctx context.Context, files []string) Type {
	if len(files) < 2 {
		return None
	}
	samples := make([][]string, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			return None
		}
		h, err := vcf.ReadHeader(f)
		if err != nil {
			d.logger.Warn("cannot read VCF for merge detection", zap.String("file", f), zap.Error(err))
			return None
		}
		samples = append(samples, h.Samples)
	}

	switch {
	case sameSamples(samples):
		same, ok := d.samePositions(ctx, files)
		if !ok || same {
			return None
		}
		return Horizontal
	case disjointSamples(samples):
		if same, ok := d.samePositions(ctx, files); ok && same {
			return Vertical
		}
	}
	return None
}

func sameSamples(s [][]string) bool {
	for _, other := range s[1:] {
		if !slices.Equal(s[0], other) {
			return false
		}
	}
	return true
}

func disjointSamples(s [][]string) bool {
	seen := make(map[string]struct{})
	for _, names := range s {
		for _, name := range names {
			if _, dup := seen[name]; dup {
				return false
			}
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}
	return true
}

// samePositions reports whether every file covers the same set of positions.
// Only the first file's set is held, as 64-bit hashes; the other files are
// streamed against it and the scan stops at the first unknown position.
// ok is false when a file cannot be read.
func (d *VCFDetector) samePositions(ctx context.Context, files []string) (same, ok bool) {
	ref := make(map[uint64]bool)
	if _, err := vcf.EachPosition(files[0], func(p vcf.Position) bool {
		ref[positionKey(p)] = false
		return true
	}); err != nil {
		d.logger.Warn("cannot read VCF for merge detection", zap.String("file", files[0]), zap.Error(err))
		return false, false
	}

	for _, f := range files[1:] {
		if ctx.Err() != nil {
			return false, false
		}
		for k := range ref {
			ref[k] = false
		}
		unknown := false
		_, err := vcf.EachPosition(f, func(p vcf.Position) bool {
			k := positionKey(p)
			if _, found := ref[k]; !found {
				unknown = true
				return false
			}
			ref[k] = true
			return true
		})
		if err != nil {
			d.logger.Warn("cannot read VCF for merge detection", zap.String("file", f), zap.Error(err))
			return false, false
		}
		if unknown {
			return false, true
		}
		for _, seen := range ref {
			if !seen {
				return false, true
			}
		}
	}
	return true, true
}

// positionKey hashes a CHROM/POS pair with FNV-1a.
func positionKey(p vcf.Position) uint64 {
	h := fnv.New64a()
	h.Write([]byte(p.Chrom))
	var buf [9]byte
	binary.LittleEndian.PutUint64(buf[1:], uint64(p.Pos))
	h.Write(buf[:])
	return h.Sum64()
}
