package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate/internal/dataset"
)

func testSymptomRows() []dataset.SymptomRow {
	return []dataset.SymptomRow{
		{Disease: "Fungal infection", Symptoms: []string{"itching", "skin rash", "nodal skin eruptions"}},
		{Disease: "Fungal infection", Symptoms: []string{"itching", "dischromic patches"}},
		{Disease: "Allergy", Symptoms: []string{"continuous sneezing", "shivering", "skin rash"}},
		{Disease: "Allergy", Symptoms: []string{"watering from eyes"}},
		{Disease: "Allergy", Symptoms: []string{"continuous sneezing"}},
		{Disease: "GERD", Symptoms: []string{"stomach pain", "acidity", "cough"}},
	}
}

func testPrecautionRows() []dataset.PrecautionRow {
	return []dataset.PrecautionRow{
		{Disease: "Fungal infection", Precautions: []string{"bath twice", "use dettol or neem in bathing water", "keep infected area dry", "use clean cloths"}},
		{Disease: "Allergy", Precautions: []string{"apply calamine", "cover area with bandage"}},
		{Disease: "GERD", Precautions: []string{"avoid fatty spicy food", "avoid lying down after eating"}},
	}
}

func TestGetPrecautionsExactMatchIgnoresCaseAndWhitespace(t *testing.T) {
	table := NewPrecautionTable(testPrecautionRows())
	res := table.GetPrecautions("  FUNGAL INFECTION ")
	require.True(t, res.Found)
	assert.Equal(t, "Fungal infection", res.Disease)
	assert.Equal(t, []string{"bath twice", "use dettol or neem in bathing water", "keep infected area dry", "use clean cloths"}, res.Precautions)
}

func TestGetPrecautionsFuzzyMatch(t *testing.T) {
	table := NewPrecautionTable(testPrecautionRows())
	// misspelled with an extra letter, still within the cutoff
	res := table.GetPrecautions("fungal infections")
	require.True(t, res.Found)
	assert.Equal(t, "Fungal infection", res.Disease)
}

func TestGetPrecautionsNotFound(t *testing.T) {
	table := NewPrecautionTable(testPrecautionRows())
	res := table.GetPrecautions("  Zzzqq ")
	assert.False(t, res.Found)
	assert.Equal(t, "zzzqq", res.Disease)
	assert.Empty(t, res.Precautions)
}

func TestGetSymptomsSortedUnion(t *testing.T) {
	table := NewSymptomTable(testSymptomRows())
	res := table.GetSymptoms("fungal infections")
	require.True(t, res.Found)
	assert.Equal(t, "Fungal infection", res.Disease)
	// union across both source rows, normalized and sorted
	assert.Equal(t, []string{"dischromic_patches", "itching", "nodal_skin_eruptions", "skin_rash"}, res.Symptoms)
}

func TestGetSymptomsNotFound(t *testing.T) {
	table := NewSymptomTable(testSymptomRows())
	res := table.GetSymptoms("completely unrelated words")
	assert.False(t, res.Found)
	assert.Empty(t, res.Symptoms)
}

func TestAllDiseasesKeepsDuplicatesInPrecautionTable(t *testing.T) {
	rows := append(testPrecautionRows(), dataset.PrecautionRow{Disease: "Allergy", Precautions: []string{"repeat row"}})
	table := NewPrecautionTable(rows)
	assert.Equal(t, []string{"Fungal infection", "Allergy", "GERD", "Allergy"}, table.AllDiseases())

	// the first row for a disease wins
	res := table.GetPrecautions("allergy")
	require.True(t, res.Found)
	assert.Equal(t, []string{"apply calamine", "cover area with bandage"}, res.Precautions)
}

func TestAllDiseasesDeduplicatedInSymptomTable(t *testing.T) {
	table := NewSymptomTable(testSymptomRows())
	assert.Equal(t, []string{"Fungal infection", "Allergy", "GERD"}, table.AllDiseases())
}

func TestSimilarityCutoff(t *testing.T) {
	assert.Greater(t, similarity("fungal infection", "fungal infections"), 0.9)
	assert.Less(t, similarity("gerd", "fungal infection"), fuzzyCutoff)

	_, ok := closestMatch("qqq", []string{"fungal infection", "allergy"}, fuzzyCutoff)
	assert.False(t, ok)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "skin_rash", NormalizeToken("  Skin Rash "))
	assert.Equal(t, "", NormalizeToken("   "))
}
