package checks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Severity classifies a Finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one issue reported by an external validator. Findings keep the
// order in which they appear in the source report.
type Finding struct {
	Severity Severity `yaml:"severity" json:"severity"`
	Message  string   `yaml:"message" json:"message"`
	Line     int      `yaml:"line,omitempty" json:"line,omitempty"` // 0 when the report gives no line
}

// Messages returns the message of every finding, in order.
func Messages(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Message)
	}
	return out
}

// eachLine calls fn for every line of r with the line terminator removed.
// Read errors end the scan early; whatever was read so far still counts.
func eachLine(r io.Reader, fn func(line string)) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return
		}
	}
}

// parseFile opens path and hands it to parse. A file that cannot be opened
// yields the zero result together with the error.
func parseFile[T any](path string, parse func(io.Reader) T) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return parse(f), nil
}
