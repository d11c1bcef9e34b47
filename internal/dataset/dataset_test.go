package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSymptomTable(t *testing.T) {
	path := writeCSV(t, "symptoms.csv", `Disease,Symptom_1,Symptom_2,Symptom_3
Fungal infection,itching, skin_rash,nodal_skin_eruptions
Fungal infection,itching,,
Allergy,continuous_sneezing,shivering
`)
	rows, err := LoadSymptomTable(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Fungal infection", rows[0].Disease)
	assert.Equal(t, []string{"itching", "skin_rash", "nodal_skin_eruptions"}, rows[0].Symptoms)
	// blank cells are dropped
	assert.Equal(t, []string{"itching"}, rows[1].Symptoms)
	// ragged rows are tolerated
	assert.Equal(t, []string{"continuous_sneezing", "shivering"}, rows[2].Symptoms)
}

func TestLoadPrecautionTable(t *testing.T) {
	path := writeCSV(t, "precautions.csv", `Disease,Precaution_1,Precaution_2,Precaution_3,Precaution_4
Drug Reaction,stop irritation,consult nearest hospital,stop taking drug,
Allergy,apply calamine,,,
`)
	rows, err := LoadPrecautionTable(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Drug Reaction", rows[0].Disease)
	assert.Equal(t, []string{"stop irritation", "consult nearest hospital", "stop taking drug"}, rows[0].Precautions)
	assert.Equal(t, []string{"apply calamine"}, rows[1].Precautions)
}

func TestMissingDiseaseColumnIsFatal(t *testing.T) {
	path := writeCSV(t, "bad.csv", `Name,Symptom_1
Fungal infection,itching
`)
	_, err := LoadSymptomTable(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Disease")
}

func TestUnreadableFileIsFatal(t *testing.T) {
	_, err := LoadSymptomTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)

	_, err = LoadPrecautionTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestRowsWithoutDiseaseAreSkipped(t *testing.T) {
	path := writeCSV(t, "sparse.csv", `Disease,Symptom_1
,orphaned
GERD,cough
`)
	rows, err := LoadSymptomTable(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GERD", rows[0].Disease)
}
