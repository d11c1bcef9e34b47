package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"healthmate/pkg"
)

// MemoryStore is the per-user memory persistence contract.  Implementations
// must make AddRecentMemory's capped prepend and GetMemory's stale-entry
// rewrite atomic against the backing store, since several service instances
// may share it.
type MemoryStore interface {
	// GetMemory returns the user's document, lazily creating an empty one.
	// Recent entries older than the retention window are filtered out of
	// the result and pruned from storage as a side effect.
	GetMemory(ctx context.Context, userID string) (*pkg.Memory, error)
	// UpdateLongTerm merges key-value facts into long-term memory,
	// overwriting per key.  Nil or empty updates are an invalid argument.
	UpdateLongTerm(ctx context.Context, userID string, updates map[string]any) error
	// AddRecentMemory prepends a note to the recent log, truncating it to
	// the configured cap.
	AddRecentMemory(ctx context.Context, userID, text, memoryType string) error
}

// MemoryNotifier announces memory writes to sibling instances.  Best effort;
// callers log failures and move on.
type MemoryNotifier interface {
	Notify(ctx context.Context, userID string) error
}

// promptRecentLimit bounds how many recent notes are surfaced to the model.
const promptRecentLimit = 5

// MemoryPrompt renders a memory document as context lines for the language
// model.  Empty documents render as the empty string.
func MemoryPrompt(mem *pkg.Memory) string {
	if mem == nil {
		return ""
	}
	var parts []string
	if len(mem.LongTerm) > 0 {
		parts = append(parts, "Long-term medical context about the user:")
		for _, key := range sortedKeys(mem.LongTerm) {
			value := mem.LongTerm[key]
			if value == nil || value == "" {
				continue
			}
			readable := strings.TrimPrefix(strings.ReplaceAll(key, "_", " "), "has ")
			parts = append(parts, fmt.Sprintf("- User %s: %v", readable, value))
		}
	}
	if len(mem.Recent) > 0 {
		if len(parts) > 0 {
			parts = append(parts, "")
		}
		parts = append(parts, "Recent medical context:")
		for i, entry := range mem.Recent {
			if i >= promptRecentLimit {
				break
			}
			parts = append(parts, fmt.Sprintf("- %s (%s)", entry.Text, entry.Type))
		}
	}
	return strings.Join(parts, "\n")
}

// knownConditions are chronic conditions worth pinning into long-term memory
// when they come up in conversation.
var knownConditions = []string{
	"asthma", "diabetes", "hypertension", "high blood pressure", "migraine",
	"allergy", "allergies", "arthritis", "anxiety", "depression",
	"cancer", "cholesterol", "heart disease", "high cholesterol", "obesity",
	"osteoporosis", "stroke", "thyroid", "ulcer",
}

// extractConditions scans text for known condition mentions.  Plain substring
// matching; a production system would use proper entity extraction.
func extractConditions(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, c := range knownConditions {
		if strings.Contains(lower, c) {
			found = append(found, c)
		}
	}
	return found
}

// sortedKeys keeps prompt rendering deterministic across map iterations.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
