package metadata

import (
	"fmt"
	"slices"
)

const (
	analysisSheet = "Analysis"
	sampleSheet   = "Sample"
	filesSheet    = "Files"

	analysisAliasField = "Analysis Alias"
	sampleNameField    = "Sample Name"
	fileNameField      = "File Name"
)

// Analysis is an analysis declared in the spreadsheet with its files and
// sample names, in sheet order.
type Analysis struct {
	Alias   string
	Files   []string
	Samples []string
}

// Check returns the problems found in the workbook: schema worksheets that
// are missing, and rows with a blank required field.
func Check(r *Reader) []string {
	errs := []string{}
	present := r.ValidWorksheets()
	for _, ws := range r.schema.Worksheets {
		if !slices.Contains(present, ws.Name) {
			errs = append(errs, fmt.Sprintf("Worksheet %s is missing", ws.Name))
			continue
		}
		rows, err := r.Rows(ws.Name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		for _, row := range rows {
			for _, field := range ws.Required {
				if row.Get(field) == "" {
					errs = append(errs, fmt.Sprintf("In %s, row %d, %s is required", ws.Name, row.Num, field))
				}
			}
		}
	}
	return errs
}

// Analyses returns every analysis declared in the Analysis worksheet, plus
// any alias only referenced from the Files or Sample worksheets.
func Analyses(r *Reader) ([]Analysis, error) {
	var order []string
	byAlias := make(map[string]*Analysis)
	get := func(alias string) *Analysis {
		a, ok := byAlias[alias]
		if !ok {
			a = &Analysis{Alias: alias}
			byAlias[alias] = a
			order = append(order, alias)
		}
		return a
	}

	rows, err := r.Rows(analysisSheet)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if alias := row.Get(analysisAliasField); alias != "" {
			get(alias)
		}
	}

	rows, err = r.Rows(filesSheet)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		alias, name := row.Get(analysisAliasField), row.Get(fileNameField)
		if alias != "" && name != "" {
			a := get(alias)
			a.Files = appendUnique(a.Files, name)
		}
	}

	samples, sampleOrder, err := samplesByAnalysis(r)
	if err != nil {
		return nil, err
	}
	for _, alias := range sampleOrder {
		get(alias)
	}

	out := make([]Analysis, 0, len(order))
	for _, alias := range order {
		a := byAlias[alias]
		a.Samples = samples[alias]
		out = append(out, *a)
	}
	return out, nil
}

// SamplesByAnalysis maps each analysis alias to the sample names declared
// for it in the Sample worksheet.
func SamplesByAnalysis(r *Reader) (map[string][]string, error) {
	out, _, err := samplesByAnalysis(r)
	return out, err
}

func samplesByAnalysis(r *Reader) (map[string][]string, []string, error) {
	rows, err := r.Rows(sampleSheet)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string][]string)
	var order []string
	for _, row := range rows {
		alias, name := row.Get(analysisAliasField), row.Get(sampleNameField)
		if alias == "" || name == "" {
			continue
		}
		if _, ok := out[alias]; !ok {
			order = append(order, alias)
		}
		out[alias] = appendUnique(out[alias], name)
	}
	return out, order, nil
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
