package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a tool run whose config sets no timeout.
const DefaultTimeout = 30 * time.Minute

// ErrNoReport is returned, together with the partial result, when a tool
// ran but left no file matching its report pattern.
var ErrNoReport = errors.New("no report produced")

// ToolConfig describes how to invoke one external validator.
type ToolConfig struct {
	Name       string
	Command    string // placeholders: {vcf}, {fasta}, {assembly_report}, {output_dir}
	ReportGlob string // matched inside {output_dir} after the run; empty for log-only tools
	Timeout    time.Duration
}

// ToolResult records where a validator run left its output.
type ToolResult struct {
	Tool       string `json:"tool"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int    `json:"duration_ms"`
	LogPath    string `json:"log_path"`
	ReportPath string `json:"report_path,omitempty"`
}

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Quote returns s quoted for a POSIX shell command line.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Expand substitutes {name} placeholders in command with shell-quoted values.
func Expand(command string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", Quote(vars[k]))
	}
	return strings.NewReplacer(pairs...).Replace(command)
}

// pathVars are the placeholders naming files or directories. The command
// runs inside output_dir, so their values are made absolute first.
var pathVars = []string{"vcf", "fasta", "assembly_report", "output_dir"}

// absPathVars returns a copy of vars with every relative path placeholder
// resolved against the current working directory.
func absPathVars(vars map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	for _, k := range pathVars {
		v := out[k]
		if v == "" || filepath.IsAbs(v) {
			continue
		}
		abs, err := filepath.Abs(v)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", k, err)
		}
		out[k] = abs
	}
	return out, nil
}

// Runner executes external validators and locates their reports.
type Runner struct {
	cmd    CommandRunner
	logger *zap.Logger
}

// NewRunner creates a Runner with the given command runner.
func NewRunner(cmd CommandRunner, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cmd: cmd, logger: logger}
}

// Run executes tool with vars substituted into its command. vars must carry
// output_dir; the tool's combined output is written there as <tool>.log.
//
// A non-zero exit code is not an error: validators exit non-zero on invalid
// input, and the report is what decides the outcome.
func (r *Runner) Run(ctx context.Context, tool ToolConfig, vars map[string]string) (*ToolResult, error) {
	if vars["output_dir"] == "" {
		return nil, fmt.Errorf("run %s: output_dir not set", tool.Name)
	}
	vars, err := absPathVars(vars)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", tool.Name, err)
	}
	outDir := vars["output_dir"]
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	timeout := tool.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	command := Expand(tool.Command, vars)
	r.logger.Debug("running validator", zap.String("tool", tool.Name), zap.String("command", command))

	start := time.Now()
	stdout, stderr, exitCode, err := r.cmd.Run(runCtx, outDir, command)
	durationMs := int(time.Since(start).Milliseconds())
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("run %s: timeout after %s", tool.Name, timeout)
		}
		return nil, fmt.Errorf("run %s: %w", tool.Name, err)
	}

	logPath := filepath.Join(outDir, tool.Name+".log")
	if err := os.WriteFile(logPath, []byte(stdout+stderr), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", logPath, err)
	}

	result := &ToolResult{
		Tool:       tool.Name,
		ExitCode:   exitCode,
		DurationMs: durationMs,
		LogPath:    logPath,
	}
	if tool.ReportGlob != "" {
		report, err := newestMatch(outDir, tool.ReportGlob)
		if err != nil {
			return result, fmt.Errorf("locate %s report: %w", tool.Name, err)
		}
		result.ReportPath = report
	}

	r.logger.Info("validator finished",
		zap.String("tool", tool.Name),
		zap.Int("exit_code", exitCode),
		zap.Int("duration_ms", durationMs),
		zap.String("report", result.ReportPath))
	return result, nil
}

// newestMatch returns the most recently modified file in dir matching pattern.
// Validators suffix reports with a run id, so several runs can leave several.
func newestMatch(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", err
	}
	var best string
	var bestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = m, info.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: no file matching %q in %s", ErrNoReport, pattern, dir)
	}
	return best, nil
}
