// Package metadata reads submission spreadsheets against a fixed worksheet
// schema and extracts the analyses, files and samples they declare.
package metadata

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_schema.yaml
var defaultSchema []byte

// Worksheet describes one worksheet of the spreadsheet.
type Worksheet struct {
	Name      string   `yaml:"name"`
	HeaderRow int      `yaml:"header_row"`
	Required  []string `yaml:"required"`
	Optional  []string `yaml:"optional"`
}

// Fields returns the required fields followed by the optional ones.
func (w Worksheet) Fields() []string {
	out := make([]string, 0, len(w.Required)+len(w.Optional))
	out = append(out, w.Required...)
	return append(out, w.Optional...)
}

// Schema lists the worksheets a spreadsheet is read against.
type Schema struct {
	Worksheets []Worksheet `yaml:"worksheets"`
}

// Worksheet returns the schema entry for name.
func (s *Schema) Worksheet(name string) (Worksheet, bool) {
	for _, w := range s.Worksheets {
		if w.Name == name {
			return w, true
		}
	}
	return Worksheet{}, false
}

// DefaultSchema returns the built-in submission schema.
func DefaultSchema() *Schema {
	s, err := ParseSchema(defaultSchema)
	if err != nil {
		panic(fmt.Sprintf("built-in metadata schema: %v", err))
	}
	return s
}

// LoadSchema reads a schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata schema: %w", err)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// ParseSchema decodes a schema and checks that every worksheet is usable.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if len(s.Worksheets) == 0 {
		return nil, fmt.Errorf("schema declares no worksheets")
	}
	seen := make(map[string]bool)
	for i := range s.Worksheets {
		w := &s.Worksheets[i]
		if w.Name == "" {
			return nil, fmt.Errorf("worksheet %d: missing name", i)
		}
		if seen[w.Name] {
			return nil, fmt.Errorf("worksheet %q declared twice", w.Name)
		}
		seen[w.Name] = true
		if w.HeaderRow == 0 {
			w.HeaderRow = 1
		}
		if w.HeaderRow < 0 {
			return nil, fmt.Errorf("worksheet %q: header_row must be positive", w.Name)
		}
	}
	return &s, nil
}
