package core

import (
	"sort"

	"healthmate/internal/dataset"
	"healthmate/pkg"
)

// PrecautionTable answers disease-to-precaution lookups.  It is built once
// from the precaution dataset and read-only afterwards.
type PrecautionTable struct {
	order       []string            // original row order, canonical casing
	names       []string            // normalized names, row order
	precautions map[string][]string // normalized name -> first row's precautions
	canonical   map[string]string   // normalized name -> canonical casing
}

// NewPrecautionTable indexes the precaution rows.  When a disease appears in
// several rows the first row wins, matching the source table semantics.
func NewPrecautionTable(rows []dataset.PrecautionRow) *PrecautionTable {
	t := &PrecautionTable{
		precautions: make(map[string][]string, len(rows)),
		canonical:   make(map[string]string, len(rows)),
	}
	for _, row := range rows {
		key := normalizeName(row.Disease)
		t.order = append(t.order, row.Disease)
		t.names = append(t.names, key)
		if _, ok := t.precautions[key]; !ok {
			t.precautions[key] = row.Precautions
			t.canonical[key] = row.Disease
		}
	}
	return t
}

// GetPrecautions resolves a possibly misspelled disease name and returns its
// precautions.  Matching is exact-first, then fuzzy against all known names.
func (t *PrecautionTable) GetPrecautions(query string) pkg.PrecautionResult {
	key := normalizeName(query)
	if _, ok := t.precautions[key]; !ok {
		if match, ok := closestMatch(key, t.names, fuzzyCutoff); ok {
			key = match
		}
	}
	if p, ok := t.precautions[key]; ok {
		return pkg.PrecautionResult{Disease: t.canonical[key], Precautions: p, Found: true}
	}
	return pkg.PrecautionResult{Disease: key, Precautions: []string{}, Found: false}
}

// AllDiseases returns every disease name in table order.  Duplicate rows are
// kept, mirroring the source table.
func (t *PrecautionTable) AllDiseases() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// SymptomTable answers disease-to-symptom lookups.  Symptoms for a disease
// are unioned across all of its source rows.
type SymptomTable struct {
	order     []string            // deduplicated canonical names, first-seen order
	names     []string            // normalized names, deduplicated
	symptoms  map[string][]string // normalized name -> sorted unique tokens
	canonical map[string]string
}

// NewSymptomTable indexes the symptom rows.  Tokens are normalized before
// being unioned so casing and spacing differences collapse.
func NewSymptomTable(rows []dataset.SymptomRow) *SymptomTable {
	t := &SymptomTable{
		symptoms:  make(map[string][]string, len(rows)),
		canonical: make(map[string]string, len(rows)),
	}
	sets := make(map[string]map[string]struct{}, len(rows))
	for _, row := range rows {
		key := normalizeName(row.Disease)
		if _, ok := sets[key]; !ok {
			sets[key] = make(map[string]struct{})
			t.order = append(t.order, row.Disease)
			t.names = append(t.names, key)
			t.canonical[key] = row.Disease
		}
		for _, s := range row.Symptoms {
			if tok := NormalizeToken(s); tok != "" {
				sets[key][tok] = struct{}{}
			}
		}
	}
	for key, set := range sets {
		tokens := make([]string, 0, len(set))
		for tok := range set {
			tokens = append(tokens, tok)
		}
		sort.Strings(tokens)
		t.symptoms[key] = tokens
	}
	return t
}

// GetSymptoms resolves a possibly misspelled disease name and returns its
// sorted symptom union.
func (t *SymptomTable) GetSymptoms(query string) pkg.SymptomResult {
	key := normalizeName(query)
	if _, ok := t.symptoms[key]; !ok {
		if match, ok := closestMatch(key, t.names, fuzzyCutoff); ok {
			key = match
		}
	}
	if s, ok := t.symptoms[key]; ok {
		out := make([]string, len(s))
		copy(out, s)
		return pkg.SymptomResult{Disease: t.canonical[key], Symptoms: out, Found: true}
	}
	return pkg.SymptomResult{Disease: key, Symptoms: []string{}, Found: false}
}

// AllDiseases returns the deduplicated disease names in first-seen order.
func (t *SymptomTable) AllDiseases() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
