package metadata

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row of a worksheet. Fields holds every schema field of
// the worksheet; blank cells and missing columns are empty strings.
type Row struct {
	Num    int // 1-based row number in the worksheet
	Fields map[string]string
}

// Get returns the value of field.
func (r Row) Get(field string) string {
	return r.Fields[field]
}

// Reader reads a workbook against a schema.
type Reader struct {
	path   string
	file   *excelize.File
	schema *Schema
}

// Open opens the workbook at path. A nil schema selects DefaultSchema.
func Open(path string, schema *Schema) (*Reader, error) {
	if schema == nil {
		schema = DefaultSchema()
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return &Reader{path: path, file: f, schema: schema}, nil
}

// Close releases the workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Path returns the workbook file.
func (r *Reader) Path() string {
	return r.path
}

// Schema returns the schema the workbook is read against.
func (r *Reader) Schema() *Schema {
	return r.schema
}

// ValidWorksheets returns the workbook's worksheets that the schema knows,
// in workbook order.
func (r *Reader) ValidWorksheets() []string {
	var out []string
	for _, name := range r.file.GetSheetList() {
		if _, ok := r.schema.Worksheet(name); ok {
			out = append(out, name)
		}
	}
	return out
}

// Rows returns the non-blank data rows of sheet, below its header row.
func (r *Reader) Rows(sheet string) ([]Row, error) {
	ws, ok := r.schema.Worksheet(sheet)
	if !ok {
		return nil, fmt.Errorf("worksheet %q is not in the schema", sheet)
	}
	if !slices.Contains(r.file.GetSheetList(), sheet) {
		return nil, fmt.Errorf("worksheet %q not found in %s", sheet, r.path)
	}
	cells, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", sheet, err)
	}
	if len(cells) < ws.HeaderRow {
		return []Row{}, nil
	}

	columns := make(map[string]int)
	for i, h := range cells[ws.HeaderRow-1] {
		h = strings.TrimSpace(h)
		if _, dup := columns[h]; h != "" && !dup {
			columns[h] = i
		}
	}

	fields := ws.Fields()
	rows := []Row{}
	for i := ws.HeaderRow; i < len(cells); i++ {
		row := Row{Num: i + 1, Fields: make(map[string]string, len(fields))}
		blank := true
		for _, field := range fields {
			value := ""
			if col, ok := columns[field]; ok && col < len(cells[i]) {
				value = strings.TrimSpace(cells[i][col])
			}
			if value != "" {
				blank = false
			}
			row.Fields[field] = value
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
