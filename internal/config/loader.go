package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultVCFValidatorCommand    = "vcf_validator -i {vcf} -r summary,text -o {output_dir}"
	defaultVCFValidatorReport     = "*.errors.*.txt"
	defaultAssemblyCheckerCommand = "vcf_assembly_checker -i {vcf} -f {fasta} -r summary,text -o {output_dir}"
	defaultAssemblyCheckerReport  = "*valid_assembly_report*"
	defaultTimeout                = "30m"
	defaultBcftools               = "bcftools"
	defaultOutputDir              = "validation_output"
	defaultMergeDir               = "merged_files"
)

// Load reads and parses a tool configuration from the given YAML file path.
// After parsing, it fills in defaults for every setting left empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./vcfsubmit.yaml, ~/.vcfsubmit/config.yaml.
// When none exists the built-in defaults are returned.
func LoadDefault() (*Config, error) {
	candidates := []string{"vcfsubmit.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".vcfsubmit", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// applyDefaults fills every empty setting with its built-in value.
func applyDefaults(cfg *Config) {
	setDefaultTool(&cfg.Tools.VCFValidator, defaultVCFValidatorCommand, defaultVCFValidatorReport)
	setDefaultTool(&cfg.Tools.AssemblyChecker, defaultAssemblyCheckerCommand, defaultAssemblyCheckerReport)

	if cfg.Merge.Bcftools == "" {
		cfg.Merge.Bcftools = defaultBcftools
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	if cfg.Merge.OutputDir == "" {
		cfg.Merge.OutputDir = filepath.Join(cfg.OutputDir, defaultMergeDir)
	}
}

func setDefaultTool(t *Tool, command, reportGlob string) {
	if t.Command == "" {
		t.Command = command
		// A custom command keeps its own report pattern, even an empty one.
		if t.ReportGlob == "" {
			t.ReportGlob = reportGlob
		}
	}
	if t.Timeout == "" {
		t.Timeout = defaultTimeout
	}
}
