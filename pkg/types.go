package pkg

import (
	"errors"
	"time"
)

// TaskType identifies what kind of question the user asked.  It is produced
// by the query analysis step and decides which lookup or matcher handles the
// request.
type TaskType string

const (
	TaskSymptomToDisease    TaskType = "symptom_to_disease"
	TaskDiseaseToPrecaution TaskType = "disease_to_precaution"
	TaskDiseaseToSymptom    TaskType = "disease_to_symptom"
	TaskGeneralHealth       TaskType = "general_health"
)

// ErrInvalidArgument is returned when a caller supplies a malformed payload,
// for example a nil long-term memory update.
var ErrInvalidArgument = errors.New("invalid argument")

// PrecautionResult is the answer to a disease-to-precaution lookup.  Found is
// false when neither an exact nor a fuzzy match resolved the query; in that
// case Disease echoes the normalized query and Precautions is empty.
type PrecautionResult struct {
	Disease     string   `json:"disease"`
	Precautions []string `json:"precautions"`
	Found       bool     `json:"found"`
}

// SymptomResult is the answer to a disease-to-symptom lookup.  Symptoms is
// the sorted, deduplicated union of tokens recorded for the disease.
type SymptomResult struct {
	Disease  string   `json:"disease"`
	Symptoms []string `json:"symptoms"`
	Found    bool     `json:"found"`
}

// Prediction is the result of matching free-text symptoms against known
// diseases.  Diseases is ordered by descending score and its entries are
// exactly the keys of Scores.  InputSymptoms echoes the normalized input.
type Prediction struct {
	Diseases      []string           `json:"diseases"`
	Scores        map[string]float64 `json:"scores"`
	InputSymptoms []string           `json:"input_symptoms"`
}

// MemoryEntry is a single note in a user's recent memory log.
type MemoryEntry struct {
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory is the per-user memory document.  LongTerm holds durable key-value
// facts with last-write-wins semantics and no expiry.  Recent is a
// newest-first log capped in storage and filtered to a retention window at
// read time.
type Memory struct {
	LongTerm map[string]any `json:"long_term"`
	Recent   []MemoryEntry  `json:"recent"`
}

// User is a registered account.  The password hash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned from the memory-aware chat endpoint.
type ChatResponse struct {
	Response       string   `json:"response"`
	Status         string   `json:"status"`
	ContextUpdated bool     `json:"context_updated"`
	TaskType       TaskType `json:"task_type"`
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is returned from the stateless query endpoint.  RawOutput
// carries the structured lookup or matcher result that the phrased response
// was built from.
type QueryResponse struct {
	Status       string         `json:"status"`
	DetectedTask TaskType       `json:"detected_task"`
	RawOutput    map[string]any `json:"raw_output"`
	Response     string         `json:"response"`
}
