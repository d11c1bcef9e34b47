package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"healthmate/internal/llm"
	"healthmate/pkg"
)

// Analysis is the outcome of query classification: which pipeline handles the
// query and what was extracted from it (symptom list or disease name).
type Analysis struct {
	TaskType      pkg.TaskType
	ExtractedInfo []string
}

// analyzeQuery classifies the user query via the language model, falling back
// to keyword heuristics when the model is unreachable or returns garbage.
func (s *ChatService) analyzeQuery(ctx context.Context, query, memoryContext string) Analysis {
	prompt := fmt.Sprintf(analysisPrompt, memoryContext, query)
	resp, err := s.LLM.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return fallbackAnalysis(query)
	}
	a, err := parseAnalysis(resp)
	if err != nil {
		return fallbackAnalysis(query)
	}
	return a
}

// parseAnalysis decodes the model's JSON classification.  extracted_info may
// arrive as a string or a list; both are accepted.
func parseAnalysis(raw string) (Analysis, error) {
	var decoded struct {
		TaskType      string `json:"task_type"`
		ExtractedInfo any    `json:"extracted_info"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &decoded); err != nil {
		return Analysis{}, err
	}
	a := Analysis{TaskType: pkg.TaskType(decoded.TaskType)}
	switch v := decoded.ExtractedInfo.(type) {
	case string:
		a.ExtractedInfo = []string{v}
	case []any:
		for _, item := range v {
			a.ExtractedInfo = append(a.ExtractedInfo, fmt.Sprintf("%v", item))
		}
	}
	return a, nil
}

// stripFences removes a markdown code fence around a JSON payload.  Models
// wrap responses in ```json blocks despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[3:]
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// fallbackAnalysis is the keyword heuristic used when the language model is
// unavailable.  Precaution words win over symptom words; anything else is
// treated as a symptom description split on commas or "and".
func fallbackAnalysis(query string) Analysis {
	lower := strings.ToLower(query)
	for _, w := range []string{"precaution", "prevent", "avoid", "care", "safety", "protect"} {
		if strings.Contains(lower, w) {
			return Analysis{TaskType: pkg.TaskDiseaseToPrecaution, ExtractedInfo: []string{query}}
		}
	}
	for _, w := range []string{"symptom", "symptoms", "signs", "indication"} {
		if strings.Contains(lower, w) {
			return Analysis{TaskType: pkg.TaskDiseaseToSymptom, ExtractedInfo: []string{query}}
		}
	}
	var parts []string
	if strings.Contains(query, ",") {
		parts = strings.Split(query, ",")
	} else {
		parts = strings.Split(query, " and ")
	}
	symptoms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			symptoms = append(symptoms, p)
		}
	}
	return Analysis{TaskType: pkg.TaskSymptomToDisease, ExtractedInfo: symptoms}
}

// formatResponse phrases the structured result via the language model, with a
// deterministic plain-text fallback per task type.
func (s *ChatService) formatResponse(ctx context.Context, task pkg.TaskType, raw map[string]any, query, memoryContext string) string {
	encoded, err := json.Marshal(raw)
	if err == nil {
		prompt := fmt.Sprintf(formatPrompt, memoryContext, query, task, encoded)
		if resp, err := s.LLM.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}); err == nil && strings.TrimSpace(resp) != "" {
			return strings.TrimSpace(resp)
		}
	}
	return fallbackFormat(task, raw)
}

// fallbackFormat renders a raw result as plain text when the language model
// fails.  The structured data is still a usable answer.
func fallbackFormat(task pkg.TaskType, raw map[string]any) string {
	switch task {
	case pkg.TaskSymptomToDisease:
		diseases, _ := raw["top_diseases"].([]string)
		if len(diseases) == 0 {
			return "I couldn't find any diseases matching those symptoms. Could you provide more details?"
		}
		return fmt.Sprintf("Based on the symptoms you described, you might have: %s. Please consult a doctor for proper diagnosis.",
			strings.Join(diseases, ", "))
	case pkg.TaskDiseaseToPrecaution:
		if found, _ := raw["found"].(bool); !found {
			return fmt.Sprintf("I couldn't find information about precautions for '%v'. Could you check the disease name and try again?", raw["disease"])
		}
		precautions, _ := raw["precautions"].([]string)
		return fmt.Sprintf("Here are some precautions for %v: %s. Always follow your doctor's advice.",
			raw["disease"], strings.Join(precautions, ", "))
	case pkg.TaskDiseaseToSymptom:
		if found, _ := raw["found"].(bool); !found {
			return fmt.Sprintf("I couldn't find information about symptoms of '%v'. Could you check the disease name and try again?", raw["disease"])
		}
		symptoms, _ := raw["symptoms"].([]string)
		return fmt.Sprintf("Common symptoms of %v include: %s. If you experience these, please consult a healthcare professional.",
			raw["disease"], strings.Join(symptoms, ", "))
	}
	return "I've processed your health query. Please consult with a healthcare professional for personalized advice."
}
