// Package vcf reads the parts of a VCF file needed to classify and compare
// submission files: header lines, sample names and variant coordinates.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
)

// Header holds the meta-information and sample columns of a VCF file.
type Header struct {
	Meta    []string // ## lines, verbatim
	Samples []string // columns after FORMAT on the #CHROM line
}

// Position is the CHROM/POS coordinate of one record.
type Position struct {
	Chrom string
	Pos   int64
}

func (p Position) String() string {
	return p.Chrom + ":" + strconv.FormatInt(p.Pos, 10)
}

// Open returns a reader over the decompressed contents of path. Files ending
// in .gz are read as BGZF.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	bg, err := bgzf.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bgzf %s: %w", path, err)
	}
	return &bgzfFile{Reader: bg, file: f}, nil
}

type bgzfFile struct {
	*bgzf.Reader
	file *os.File
}

func (b *bgzfFile) Close() error {
	err := b.Reader.Close()
	if cerr := b.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadHeader reads the header of path, stopping at the #CHROM line.
func ReadHeader(path string) (Header, error) {
	var h Header
	err := scan(path, func(line string) bool {
		if strings.HasPrefix(line, "##") {
			h.Meta = append(h.Meta, line)
			return true
		}
		if strings.HasPrefix(line, "#CHROM") {
			h.Samples = samplesFrom(line)
		}
		return false
	})
	return h, err
}

// ReadPositions reads the header and every record coordinate of path.
// Records with fewer than two columns or a non-numeric POS are skipped.
func ReadPositions(path string) (Header, []Position, error) {
	var positions []Position
	h, err := EachPosition(path, func(p Position) bool {
		positions = append(positions, p)
		return true
	})
	return h, positions, err
}

// EachPosition reads the header of path and calls fn with the coordinate of
// every record in file order until fn returns false. Nothing is retained
// between records. Malformed records are skipped as in ReadPositions.
func EachPosition(path string, fn func(Position) bool) (Header, error) {
	var h Header
	err := scan(path, func(line string) bool {
		switch {
		case strings.HasPrefix(line, "##"):
			h.Meta = append(h.Meta, line)
		case strings.HasPrefix(line, "#CHROM"):
			h.Samples = samplesFrom(line)
		case line == "" || strings.HasPrefix(line, "#"):
		default:
			fields := strings.SplitN(line, "\t", 3)
			if len(fields) < 2 {
				return true
			}
			pos, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return true
			}
			return fn(Position{Chrom: fields[0], Pos: pos})
		}
		return true
	})
	return h, err
}

func samplesFrom(chromLine string) []string {
	fields := strings.Split(chromLine, "\t")
	if len(fields) <= 9 {
		return []string{}
	}
	return fields[9:]
}

// scan feeds each line of path to fn until fn returns false.
func scan(path string, fn func(line string) bool) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	const maxCapacity = 8 * 1000000 // 8 MB, long INFO/FORMAT lines are common
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)
	for scanner.Scan() {
		if !fn(strings.TrimRight(scanner.Text(), "\r")) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
