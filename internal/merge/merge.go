// Package merge decides whether the VCF files of one analysis must be merged
// and delegates the merge itself to an external tool.
package merge

import (
	"context"
	"fmt"
)

// Type is the axis along which an analysis' VCF files are merged.
type Type string

const (
	// None means the files are left as they are.
	None Type = ""
	// Horizontal concatenates files with the same samples and different positions.
	Horizontal Type = "horizontal"
	// Vertical joins files with the same positions and different samples.
	Vertical Type = "vertical"
)

// ParseType maps a persisted merge type back to a Type. Unknown values are None.
func ParseType(s string) Type {
	switch Type(s) {
	case Horizontal:
		return Horizontal
	case Vertical:
		return Vertical
	}
	return None
}

func (t Type) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// Detector classifies the VCF files of one analysis. It has no side effects
// and never fails: a file set it cannot classify is None.
type Detector interface {
	Detect(ctx context.Context, files []string) Type
}

// Merger runs merges in batches. Each call covers every analysis that needs
// that kind of merge, keyed by analysis alias, and returns the merged file
// of each alias.
type Merger interface {
	HorizontalMerge(ctx context.Context, files map[string][]string) (map[string]string, error)
	VerticalMerge(ctx context.Context, files map[string][]string) (map[string]string, error)
}

// Run dispatches a batch to the merger operation for t.
func Run(ctx context.Context, m Merger, t Type, files map[string][]string) (map[string]string, error) {
	switch t {
	case Horizontal:
		return m.HorizontalMerge(ctx, files)
	case Vertical:
		return m.VerticalMerge(ctx, files)
	}
	return nil, fmt.Errorf("no merge operation for type %s", t)
}
