package config

import "time"

// Config is the top-level tool configuration parsed from YAML.
type Config struct {
	Tools     Tools    `yaml:"tools"`
	Merge     Merge    `yaml:"merge"`
	Metadata  Metadata `yaml:"metadata"`
	OutputDir string   `yaml:"output_dir"`
	HistoryDB string   `yaml:"history_db"`
}

// Tools holds the external validators run against each VCF file.
type Tools struct {
	VCFValidator    Tool `yaml:"vcf_validator"`
	AssemblyChecker Tool `yaml:"assembly_checker"`
}

// Tool defines how one external validator is invoked and where its
// report is found.
type Tool struct {
	Command    string `yaml:"command"`
	ReportGlob string `yaml:"report_glob"`
	Timeout    string `yaml:"timeout"`
}

// TimeoutDuration parses Timeout. An empty or invalid value yields zero,
// which callers treat as their own default.
func (t Tool) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(t.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Merge configures the merger used for analyses with several VCF files.
type Merge struct {
	Bcftools  string `yaml:"bcftools"`
	OutputDir string `yaml:"output_dir"`
}

// Metadata configures the spreadsheet reader.
type Metadata struct {
	Schema string `yaml:"schema"` // path to a worksheet schema; empty selects the built-in one
}
