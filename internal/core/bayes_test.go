package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate/internal/dataset"
)

// bayesRows builds ten rows per disease with disjoint symptom sets, enough
// that every class survives the held-out split.
func bayesRows() []dataset.SymptomRow {
	symptoms := map[string][]string{
		"Fungal infection": {"itching", "skin rash", "nodal skin eruptions"},
		"Allergy":          {"continuous sneezing", "shivering", "watering from eyes"},
		"GERD":             {"stomach pain", "acidity", "cough"},
	}
	var rows []dataset.SymptomRow
	for _, disease := range []string{"Fungal infection", "Allergy", "GERD"} {
		for i := 0; i < 10; i++ {
			rows = append(rows, dataset.SymptomRow{Disease: disease, Symptoms: symptoms[disease]})
		}
	}
	return rows
}

func TestBayesVocabularyIsSorted(t *testing.T) {
	m := NewBayesMatcher(bayesRows())
	vocab := m.AllSymptoms()
	require.Len(t, vocab, 9)
	for i := 1; i < len(vocab); i++ {
		assert.Less(t, vocab[i-1], vocab[i])
	}
	assert.Contains(t, vocab, "nodal_skin_eruptions")
}

func TestBayesPredictsSeparableClasses(t *testing.T) {
	m := NewBayesMatcher(bayesRows())

	pred := m.PredictDisease([]string{"Itching", "skin rash"})
	require.NotEmpty(t, pred.Diseases)
	assert.Equal(t, "Fungal infection", pred.Diseases[0])
	assert.Greater(t, pred.Scores["Fungal infection"], 90.0)
	assert.Equal(t, []string{"itching", "skin_rash"}, pred.InputSymptoms)

	pred = m.PredictDisease([]string{"stomach pain", "acidity"})
	assert.Equal(t, "GERD", pred.Diseases[0])
}

func TestBayesPredictionShape(t *testing.T) {
	m := NewBayesMatcher(bayesRows())
	pred := m.PredictDisease([]string{"cough"})

	assert.LessOrEqual(t, len(pred.Diseases), 5)
	assert.ElementsMatch(t, pred.Diseases, keysOf(pred.Scores))
	var sum float64
	for i, d := range pred.Diseases {
		score := pred.Scores[d]
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		if i > 0 {
			assert.LessOrEqual(t, score, pred.Scores[pred.Diseases[i-1]])
		}
		sum += score
	}
	assert.InDelta(t, 100, sum, 0.1)
}

func TestBayesIgnoresUnknownTokens(t *testing.T) {
	m := NewBayesMatcher(bayesRows())
	known := m.PredictDisease([]string{"itching"})
	mixed := m.PredictDisease([]string{"itching", "totally made up symptom"})
	assert.Equal(t, known.Diseases, mixed.Diseases)
	assert.Equal(t, known.Scores, mixed.Scores)
	// the unrecognized token still echoes back normalized
	assert.Equal(t, []string{"itching", "totally_made_up_symptom"}, mixed.InputSymptoms)
}

func TestBayesEmptyInputDoesNotPanic(t *testing.T) {
	m := NewBayesMatcher(bayesRows())
	pred := m.PredictDisease(nil)
	assert.NotEmpty(t, pred.Diseases)
	assert.Empty(t, pred.InputSymptoms)
}

func TestBayesAccuracyOnSeparableData(t *testing.T) {
	m := NewBayesMatcher(bayesRows())
	assert.Equal(t, 100.0, m.Accuracy())
}

func TestBayesHandlesManyClasses(t *testing.T) {
	var rows []dataset.SymptomRow
	for i := 0; i < 8; i++ {
		for j := 0; j < 20; j++ {
			rows = append(rows, dataset.SymptomRow{
				Disease:  fmt.Sprintf("Disease %d", i),
				Symptoms: []string{fmt.Sprintf("symptom %d", i)},
			})
		}
	}
	m := NewBayesMatcher(rows)
	pred := m.PredictDisease([]string{"symptom 3"})
	require.Len(t, pred.Diseases, 5)
	assert.Equal(t, "Disease 3", pred.Diseases[0])
}
