package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthmate/internal/llm"
	"healthmate/pkg"
)

// ErrUnknownTask is returned by Answer when the analysis produced a task type
// the stateless pipeline cannot dispatch.
var ErrUnknownTask = errors.New("unknown task type")

// defaultConfidenceThreshold is the minimum top-prediction confidence (as a
// fraction) for persisting a disease prediction into long-term memory.
const defaultConfidenceThreshold = 0.70

// ChatService orchestrates a health query end to end: classify intent via the
// language model, consult the matcher or lookup tables, phrase the reply, and
// update the user's memory.  The matcher and tables are immutable; all
// per-user state lives in the MemoryStore.
type ChatService struct {
	LLM         llm.Client
	Matcher     SymptomMatcher
	Precautions *PrecautionTable
	Symptoms    *SymptomTable
	Memory      MemoryStore
	Notifier    MemoryNotifier

	// ConfidenceThreshold gates long-term persistence of predictions; a
	// fraction in [0,1] compared against the top percentage score.
	ConfidenceThreshold float64
}

// NewChatService constructs a ChatService with the default confidence
// threshold.  Memory and Notifier may be left nil for stateless use.
func NewChatService(client llm.Client, matcher SymptomMatcher, precautions *PrecautionTable, symptoms *SymptomTable, memory MemoryStore) *ChatService {
	return &ChatService{
		LLM:                 client,
		Matcher:             matcher,
		Precautions:         precautions,
		Symptoms:            symptoms,
		Memory:              memory,
		ConfidenceThreshold: defaultConfidenceThreshold,
	}
}

// ChatResult is the outcome of a memory-aware reply.  MemoryErr carries a
// memory read/write failure that did not block the answer; callers decide
// whether to log or surface it.
type ChatResult struct {
	Response       string
	TaskType       pkg.TaskType
	RawOutput      map[string]any
	ContextUpdated bool
	MemoryErr      error
}

// Reply answers a user message with the user's memory as context and records
// the exchange.  A memory failure degrades the reply to context-free rather
// than failing the request.
func (s *ChatService) Reply(ctx context.Context, userID, message string) ChatResult {
	var memoryContext string
	var memErr error
	if s.Memory != nil {
		mem, err := s.Memory.GetMemory(ctx, userID)
		if err != nil {
			memErr = err
		} else {
			memoryContext = MemoryPrompt(mem)
		}
	}

	analysis := s.analyzeQuery(ctx, message, memoryContext)
	task, raw := s.dispatch(analysis)
	response := s.formatResponse(ctx, task, raw, message, memoryContext)

	updated := false
	if s.Memory != nil && memErr == nil {
		var err error
		updated, err = s.memorize(ctx, userID, message, response, task, raw)
		if err != nil {
			memErr = err
		}
		if updated && s.Notifier != nil {
			// best effort; sibling instances only use this as a hint
			_ = s.Notifier.Notify(ctx, userID)
		}
	}

	return ChatResult{
		Response:       response,
		TaskType:       task,
		RawOutput:      raw,
		ContextUpdated: updated,
		MemoryErr:      memErr,
	}
}

// Answer runs the stateless pipeline used by the public query endpoint: no
// memory context, no persistence.
func (s *ChatService) Answer(ctx context.Context, query string) (pkg.QueryResponse, error) {
	analysis := s.analyzeQuery(ctx, query, "")
	task, raw := s.dispatch(analysis)
	if task == pkg.TaskGeneralHealth {
		return pkg.QueryResponse{}, fmt.Errorf("%w: %s", ErrUnknownTask, analysis.TaskType)
	}
	response := s.formatResponse(ctx, task, raw, query, "")
	return pkg.QueryResponse{
		Status:       "success",
		DetectedTask: task,
		RawOutput:    raw,
		Response:     response,
	}, nil
}

// dispatch routes an analysis to the matcher or a lookup table and shapes the
// structured raw output.  Unrecognized task types become general conversation.
func (s *ChatService) dispatch(a Analysis) (pkg.TaskType, map[string]any) {
	switch a.TaskType {
	case pkg.TaskSymptomToDisease:
		pred := s.Matcher.PredictDisease(a.ExtractedInfo)
		top := pred.Diseases
		if len(top) > 3 {
			top = top[:3]
		}
		return a.TaskType, map[string]any{
			"top_diseases":   top,
			"scores":         pred.Scores,
			"input_symptoms": pred.InputSymptoms,
		}
	case pkg.TaskDiseaseToPrecaution:
		res := s.Precautions.GetPrecautions(strings.Join(a.ExtractedInfo, " "))
		return a.TaskType, map[string]any{
			"disease":     res.Disease,
			"precautions": res.Precautions,
			"found":       res.Found,
		}
	case pkg.TaskDiseaseToSymptom:
		res := s.Symptoms.GetSymptoms(strings.Join(a.ExtractedInfo, " "))
		return a.TaskType, map[string]any{
			"disease":  res.Disease,
			"symptoms": res.Symptoms,
			"found":    res.Found,
		}
	}
	return pkg.TaskGeneralHealth, map[string]any{
		"task_type":               string(a.TaskType),
		"extracted_info":          a.ExtractedInfo,
		"is_general_conversation": true,
	}
}

// memorize records the exchange in recent memory and derives long-term facts
// from the structured result.  The current time is captured once so the entry
// stamp and the derived timestamps agree.
func (s *ChatService) memorize(ctx context.Context, userID, query, reply string, task pkg.TaskType, raw map[string]any) (bool, error) {
	now := time.Now().UTC()
	note := fmt.Sprintf("User: %s\nAssistant: %s", query, reply)
	if err := s.Memory.AddRecentMemory(ctx, userID, note, "conversation"); err != nil {
		return false, err
	}

	switch task {
	case pkg.TaskSymptomToDisease:
		diseases, _ := raw["top_diseases"].([]string)
		scores, _ := raw["scores"].(map[string]float64)
		if len(diseases) > 0 && scores[diseases[0]] >= s.ConfidenceThreshold*100 {
			kept := make(map[string]float64, len(diseases))
			for _, d := range diseases {
				kept[d] = scores[d]
			}
			err := s.Memory.UpdateLongTerm(ctx, userID, map[string]any{
				"recent_disease_prediction": map[string]any{
					"diseases":  diseases,
					"scores":    kept,
					"timestamp": now.Format(time.RFC3339),
				},
			})
			if err != nil {
				return true, err
			}
		}
	case pkg.TaskDiseaseToPrecaution, pkg.TaskDiseaseToSymptom:
		if found, _ := raw["found"].(bool); found {
			kind := "precautions"
			if task == pkg.TaskDiseaseToSymptom {
				kind = "symptoms"
			}
			err := s.Memory.UpdateLongTerm(ctx, userID, map[string]any{
				"last_discussed_disease": raw["disease"],
				"last_discussion_type":   kind,
				"last_discussion_time":   now.Format(time.RFC3339),
			})
			if err != nil {
				return true, err
			}
		}
	}

	if conditions := extractConditions(query + " " + reply); len(conditions) > 0 {
		updates := make(map[string]any, len(conditions)*2)
		for _, c := range conditions {
			key := strings.ReplaceAll(c, " ", "_")
			updates["has_"+key] = true
			updates["last_mentioned_"+key] = now.Format(time.RFC3339)
		}
		if err := s.Memory.UpdateLongTerm(ctx, userID, updates); err != nil {
			return true, err
		}
	}
	return true, nil
}
