package core

import (
	"sort"
	"strings"

	"healthmate/internal/dataset"
	"healthmate/pkg"
)

// SymptomMatcher maps a free-text symptom list to ranked candidate diseases.
// Two interchangeable implementations exist: OverlapMatcher scores token
// overlap against a symptom index, BayesMatcher runs a Bernoulli naive Bayes
// classifier.  Both are immutable after construction.
type SymptomMatcher interface {
	PredictDisease(symptoms []string) pkg.Prediction
	AllSymptoms() []string
}

// maxPredictions caps how many candidate diseases a matcher returns.
const maxPredictions = 5

// fallbackCount is how many common diseases are returned when nothing in the
// input matched the index.
const fallbackCount = 3

// OverlapMatcher ranks diseases by weighted token overlap: an exact index hit
// scores 1, a substring hit in either direction scores 0.5.  The fuzzy pass
// scans every index key per unmatched token, which is quadratic in the
// vocabulary; acceptable while the dataset stays small.
type OverlapMatcher struct {
	index    map[string][]string // token -> diseases exhibiting it
	tokens   []string            // index keys, first-seen order
	fallback []string            // most frequent diseases, for no-match input
}

// NewOverlapMatcher builds the symptom index and the frequency-based fallback
// list from the symptom rows.
func NewOverlapMatcher(rows []dataset.SymptomRow) *OverlapMatcher {
	m := &OverlapMatcher{index: make(map[string][]string)}
	freq := make(map[string]int)
	var diseaseOrder []string
	for _, row := range rows {
		if _, seen := freq[row.Disease]; !seen {
			diseaseOrder = append(diseaseOrder, row.Disease)
		}
		freq[row.Disease]++
		for _, s := range row.Symptoms {
			tok := NormalizeToken(s)
			if tok == "" {
				continue
			}
			if _, ok := m.index[tok]; !ok {
				m.tokens = append(m.tokens, tok)
			}
			if !contains(m.index[tok], row.Disease) {
				m.index[tok] = append(m.index[tok], row.Disease)
			}
		}
	}
	// Fallback: most frequent diseases, ties by table order.
	ranked := make([]string, len(diseaseOrder))
	copy(ranked, diseaseOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return freq[ranked[i]] > freq[ranked[j]]
	})
	if len(ranked) > fallbackCount {
		ranked = ranked[:fallbackCount]
	}
	m.fallback = ranked
	return m
}

// PredictDisease scores every disease touched by the input tokens and returns
// up to five in descending score order.  Input that matches nothing yields
// the fallback list with zero scores, never an empty result.
func (m *OverlapMatcher) PredictDisease(symptoms []string) pkg.Prediction {
	input := normalizeSymptoms(symptoms)
	scores := make(map[string]float64)
	var discovered []string
	bump := func(disease string, by float64) {
		if _, seen := scores[disease]; !seen {
			discovered = append(discovered, disease)
		}
		scores[disease] += by
	}
	for _, tok := range input {
		if diseases, ok := m.index[tok]; ok {
			for _, d := range diseases {
				bump(d, 1)
			}
			continue
		}
		// Fuzzy pass: any index key containing the token, or contained by
		// it, counts as a half match.
		for _, key := range m.tokens {
			if strings.Contains(key, tok) || strings.Contains(tok, key) {
				for _, d := range m.index[key] {
					bump(d, 0.5)
				}
			}
		}
	}
	sort.SliceStable(discovered, func(i, j int) bool {
		return scores[discovered[i]] > scores[discovered[j]]
	})
	if len(discovered) > maxPredictions {
		discovered = discovered[:maxPredictions]
	}
	if len(discovered) == 0 {
		out := pkg.Prediction{
			Diseases:      append([]string(nil), m.fallback...),
			Scores:        make(map[string]float64, len(m.fallback)),
			InputSymptoms: input,
		}
		for _, d := range m.fallback {
			out.Scores[d] = 0
		}
		return out
	}
	top := make(map[string]float64, len(discovered))
	for _, d := range discovered {
		top[d] = scores[d]
	}
	return pkg.Prediction{Diseases: discovered, Scores: top, InputSymptoms: input}
}

// AllSymptoms returns the index keys in first-seen order.
func (m *OverlapMatcher) AllSymptoms() []string {
	out := make([]string, len(m.tokens))
	copy(out, m.tokens)
	return out
}

// normalizeSymptoms normalizes the raw input list and drops tokens that
// normalize to nothing.
func normalizeSymptoms(symptoms []string) []string {
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if tok := NormalizeToken(s); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
