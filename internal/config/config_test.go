package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validConfig = `
tools:
  vcf_validator:
    command: "/opt/vcf_validator -i {vcf} -o {output_dir}"
    report_glob: "*.errors.*.txt"
    timeout: "10m"
  assembly_checker:
    command: "/opt/vcf_assembly_checker -i {vcf} -f {fasta} -o {output_dir}"
    report_glob: "*text_assembly_report*"
merge:
  bcftools: /opt/bcftools
  output_dir: /data/merged
metadata:
  schema: /etc/vcfsubmit/schema.yaml
output_dir: /data/validation
history_db: /data/history.db
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vcfsubmit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	v := cfg.Tools.VCFValidator
	if v.Command != "/opt/vcf_validator -i {vcf} -o {output_dir}" {
		t.Errorf("VCFValidator.Command = %q", v.Command)
	}
	if v.TimeoutDuration() != 10*time.Minute {
		t.Errorf("VCFValidator timeout = %v, want 10m", v.TimeoutDuration())
	}
	a := cfg.Tools.AssemblyChecker
	if a.ReportGlob != "*text_assembly_report*" {
		t.Errorf("AssemblyChecker.ReportGlob = %q", a.ReportGlob)
	}
	if a.Timeout != defaultTimeout {
		t.Errorf("AssemblyChecker.Timeout = %q, want default %q", a.Timeout, defaultTimeout)
	}
	if cfg.Merge.Bcftools != "/opt/bcftools" {
		t.Errorf("Merge.Bcftools = %q, want /opt/bcftools", cfg.Merge.Bcftools)
	}
	if cfg.Merge.OutputDir != "/data/merged" {
		t.Errorf("Merge.OutputDir = %q, want /data/merged", cfg.Merge.OutputDir)
	}
	if cfg.Metadata.Schema != "/etc/vcfsubmit/schema.yaml" {
		t.Errorf("Metadata.Schema = %q", cfg.Metadata.Schema)
	}
	if cfg.HistoryDB != "/data/history.db" {
		t.Errorf("HistoryDB = %q, want /data/history.db", cfg.HistoryDB)
	}

	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTestConfig(t, "tools: [unclosed")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Tools.VCFValidator.Command != defaultVCFValidatorCommand {
		t.Errorf("VCFValidator.Command = %q", cfg.Tools.VCFValidator.Command)
	}
	if cfg.Tools.AssemblyChecker.ReportGlob != defaultAssemblyCheckerReport {
		t.Errorf("AssemblyChecker.ReportGlob = %q", cfg.Tools.AssemblyChecker.ReportGlob)
	}
	if cfg.Merge.Bcftools != "bcftools" {
		t.Errorf("Merge.Bcftools = %q, want bcftools", cfg.Merge.Bcftools)
	}
	if want := filepath.Join(defaultOutputDir, defaultMergeDir); cfg.Merge.OutputDir != want {
		t.Errorf("Merge.OutputDir = %q, want %q", cfg.Merge.OutputDir, want)
	}
	if cfg.HistoryDB != "" {
		t.Errorf("HistoryDB = %q, want empty", cfg.HistoryDB)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate(Default()) = %v, want no errors", errs)
	}
}

func TestDefaults_CustomCommandKeepsEmptyReportGlob(t *testing.T) {
	path := writeTestConfig(t, `
tools:
  vcf_validator:
    command: "my_validator {vcf}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Tools.VCFValidator.ReportGlob != "" {
		t.Errorf("ReportGlob = %q, want empty", cfg.Tools.VCFValidator.ReportGlob)
	}
}

func TestTimeoutDuration_Invalid(t *testing.T) {
	if d := (Tool{Timeout: "soon"}).TimeoutDuration(); d != 0 {
		t.Errorf("TimeoutDuration() = %v, want 0", d)
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := &Config{
		Tools: Tools{
			VCFValidator:    Tool{Command: "vcf_validator", ReportGlob: "[", Timeout: "-1s"},
			AssemblyChecker: Tool{Command: "checker -i {vcf}"},
		},
	}
	errs := Validate(cfg)

	want := []string{
		"tools.vcf_validator.command: must reference {vcf}",
		"tools.vcf_validator.report_glob: invalid pattern \"[\"",
		"tools.vcf_validator.timeout: invalid duration \"-1s\"",
		"tools.assembly_checker.command: must reference {fasta}",
		"merge.bcftools: is required",
		"merge.output_dir: is required",
		"output_dir: is required",
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors, want %d: %v", len(errs), len(want), errs)
	}
	for i, e := range errs {
		if e.Error() != want[i] {
			t.Errorf("errs[%d] = %q, want %q", i, e.Error(), want[i])
		}
	}
}

func TestValidate_MissingCommand(t *testing.T) {
	cfg := Default()
	cfg.Tools.AssemblyChecker.Command = ""
	errs := Validate(cfg)
	if len(errs) != 1 || !strings.Contains(errs[0].Field, "assembly_checker.command") {
		t.Errorf("Validate() = %v, want one assembly_checker.command error", errs)
	}
}

func TestLoadDefault_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vcfsubmit.yaml"), []byte(validConfig), 0644); err != nil {
		t.Fatal(err)
	}
	chdirT(t, dir)

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}
	if cfg.HistoryDB != "/data/history.db" {
		t.Errorf("HistoryDB = %q, want /data/history.db", cfg.HistoryDB)
	}
}
