package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate/internal/dataset"
)

var (
	_ SymptomMatcher = (*OverlapMatcher)(nil)
	_ SymptomMatcher = (*BayesMatcher)(nil)
)

func TestOverlapExactTokensScoreOne(t *testing.T) {
	m := NewOverlapMatcher(testSymptomRows())
	pred := m.PredictDisease([]string{"itching", "skin rash"})

	require.NotEmpty(t, pred.Diseases)
	assert.Equal(t, "Fungal infection", pred.Diseases[0])
	assert.Equal(t, 2.0, pred.Scores["Fungal infection"])
	assert.Equal(t, 1.0, pred.Scores["Allergy"])
	assert.Equal(t, []string{"itching", "skin_rash"}, pred.InputSymptoms)
	assert.ElementsMatch(t, pred.Diseases, keysOf(pred.Scores))
}

func TestOverlapSubstringScoresHalf(t *testing.T) {
	m := NewOverlapMatcher(testSymptomRows())
	// "skin" is not an index key but is contained in skin_rash and
	// nodal_skin_eruptions
	pred := m.PredictDisease([]string{"skin"})

	assert.Equal(t, 1.0, pred.Scores["Fungal infection"]) // two half matches
	assert.Equal(t, 0.5, pred.Scores["Allergy"])
	assert.Equal(t, "Fungal infection", pred.Diseases[0])
}

func TestOverlapRankingMonotonicity(t *testing.T) {
	m := NewOverlapMatcher(testSymptomRows())
	// a disease whose full symptom set is covered by the input must not
	// rank below one sharing fewer tokens
	pred := m.PredictDisease([]string{"stomach pain", "acidity", "cough", "skin rash"})

	require.True(t, pred.Scores["GERD"] >= pred.Scores["Fungal infection"])
	idx := map[string]int{}
	for i, d := range pred.Diseases {
		idx[d] = i
	}
	assert.Less(t, idx["GERD"], idx["Fungal infection"])
}

func TestOverlapFallbackNeverEmpty(t *testing.T) {
	m := NewOverlapMatcher(testSymptomRows())
	for _, input := range [][]string{nil, {}, {"   "}, {"qqqxyzvv"}} {
		pred := m.PredictDisease(input)
		// 3 most frequent diseases, frequency descending then table order
		require.Equal(t, []string{"Allergy", "Fungal infection", "GERD"}, pred.Diseases, "input %v", input)
		for _, d := range pred.Diseases {
			assert.Zero(t, pred.Scores[d])
		}
	}
}

func TestOverlapCapsAtFivePredictions(t *testing.T) {
	rows := make([]dataset.SymptomRow, 0, 7)
	for i := 0; i < 7; i++ {
		rows = append(rows, dataset.SymptomRow{
			Disease:  fmt.Sprintf("Disease %d", i),
			Symptoms: []string{"fever"},
		})
	}
	m := NewOverlapMatcher(rows)
	pred := m.PredictDisease([]string{"fever"})
	assert.Len(t, pred.Diseases, 5)
	assert.Len(t, pred.Scores, 5)
	// equal scores keep discovery order
	assert.Equal(t, "Disease 0", pred.Diseases[0])
}

func TestOverlapAllSymptomsFirstSeenOrder(t *testing.T) {
	m := NewOverlapMatcher(testSymptomRows())
	all := m.AllSymptoms()
	assert.Equal(t, []string{"itching", "skin_rash", "nodal_skin_eruptions", "dischromic_patches"}, all[:4])
	assert.Len(t, all, 10)
}

func keysOf(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
