// Package dataset loads the two small reference tables the service is built
// from: a disease-to-symptom table and a disease-to-precaution table.  Both
// are read once at startup; a missing Disease column or an unreadable file is
// fatal there, never per query.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// SymptomRow is one source row of the symptom table.  A disease may appear in
// many rows; callers union the symptoms per disease.
type SymptomRow struct {
	Disease  string
	Symptoms []string
}

// PrecautionRow is one source row of the precaution table, up to four
// non-empty precautions.
type PrecautionRow struct {
	Disease     string
	Precautions []string
}

// LoadSymptomTable reads a CSV with a Disease column and any number of
// Symptom_N columns.  Blank cells are dropped; row order is preserved.
func LoadSymptomTable(path string) ([]SymptomRow, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	diseaseIdx, valueIdx, err := columnIndices(records[0], "Symptom")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rows := make([]SymptomRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := SymptomRow{Disease: strings.TrimSpace(cell(rec, diseaseIdx))}
		if row.Disease == "" {
			continue
		}
		for _, i := range valueIdx {
			if v := strings.TrimSpace(cell(rec, i)); v != "" {
				row.Symptoms = append(row.Symptoms, v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadPrecautionTable reads a CSV with a Disease column and Precaution_N
// columns.  Blank cells are dropped; row order is preserved.
func LoadPrecautionTable(path string) ([]PrecautionRow, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	diseaseIdx, valueIdx, err := columnIndices(records[0], "Precaution")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rows := make([]PrecautionRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := PrecautionRow{Disease: strings.TrimSpace(cell(rec, diseaseIdx))}
		if row.Disease == "" {
			continue
		}
		for _, i := range valueIdx {
			if v := strings.TrimSpace(cell(rec, i)); v != "" {
				row.Precautions = append(row.Precautions, v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	// Source rows are ragged: trailing blank columns are sometimes omitted.
	r.FieldsPerRecord = -1
	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty dataset", path)
	}
	return records, nil
}

// columnIndices locates the Disease column and every value column whose
// header contains the given prefix (Symptom_1..17, Precaution_1..4).
func columnIndices(header []string, valuePrefix string) (int, []int, error) {
	diseaseIdx := -1
	var valueIdx []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case strings.EqualFold(h, "Disease"):
			diseaseIdx = i
		case strings.Contains(h, valuePrefix):
			valueIdx = append(valueIdx, i)
		}
	}
	if diseaseIdx < 0 {
		return 0, nil, fmt.Errorf("missing required Disease column")
	}
	return diseaseIdx, valueIdx, nil
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
