package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"healthmate/pkg"
)

const (
	// DefaultRecentCap is the stored size limit of the recent memory log.
	DefaultRecentCap = 50
	// DefaultRetentionDays is the read-time visibility window for recent
	// entries.
	DefaultRetentionDays = 30
)

// MemoryRepository persists per-user memory documents in Postgres, one jsonb
// row per user.  Every mutation is a single SQL statement so concurrent
// writers on different service instances cannot lose updates; there is no
// in-process locking.
type MemoryRepository struct {
	DB *sql.DB
	// RecentCap bounds the stored recent log; RetentionDays bounds what
	// reads return.  Both are independent: an entry can be within the cap
	// yet hidden by the retention window.
	RecentCap     int
	RetentionDays int
}

// NewMemoryRepository constructs a MemoryRepository with the default cap and
// retention window.  The caller owns the DB connection lifecycle.
func NewMemoryRepository(db *sql.DB) *MemoryRepository {
	return &MemoryRepository{DB: db, RecentCap: DefaultRecentCap, RetentionDays: DefaultRetentionDays}
}

// GetMemory returns the user's memory document, creating an empty one on
// first access.  Entries older than the retention window are dropped from
// the result; when any were dropped the stored list is rewritten by a single
// UPDATE that re-applies the filter inside SQL, so a concurrent prepend
// cannot be lost.
func (r *MemoryRepository) GetMemory(ctx context.Context, userID string) (*pkg.Memory, error) {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_memories (user_id) VALUES ($1)
         ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("ensure memory document: %w", err)
	}

	var longTermRaw, recentRaw []byte
	err := r.DB.QueryRowContext(ctx,
		`SELECT long_term, recent FROM user_memories WHERE user_id = $1`,
		userID,
	).Scan(&longTermRaw, &recentRaw)
	if err != nil {
		return nil, fmt.Errorf("load memory document: %w", err)
	}

	mem := &pkg.Memory{LongTerm: map[string]any{}}
	if err := json.Unmarshal(longTermRaw, &mem.LongTerm); err != nil {
		return nil, fmt.Errorf("decode long_term: %w", err)
	}
	var stored []pkg.MemoryEntry
	if err := json.Unmarshal(recentRaw, &stored); err != nil {
		return nil, fmt.Errorf("decode recent: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -r.RetentionDays)
	mem.Recent = make([]pkg.MemoryEntry, 0, len(stored))
	for _, e := range stored {
		if e.Timestamp.After(cutoff) {
			mem.Recent = append(mem.Recent, e)
		}
	}
	if len(mem.Recent) != len(stored) {
		if _, err := r.DB.ExecContext(ctx, `
            UPDATE user_memories
            SET recent = (
                SELECT COALESCE(jsonb_agg(elem ORDER BY ord), '[]'::jsonb)
                FROM jsonb_array_elements(recent) WITH ORDINALITY AS t(elem, ord)
                WHERE (elem->>'timestamp')::timestamptz > $2
            ), updated_at = NOW()
            WHERE user_id = $1`, userID, cutoff); err != nil {
			return nil, fmt.Errorf("prune stale memories: %w", err)
		}
	}
	return mem, nil
}

// UpdateLongTerm merges the updates into the user's long-term memory with
// per-key overwrite, creating the document if absent.  The jsonb || operator
// gives the shallow merge atomically.
func (r *MemoryRepository) UpdateLongTerm(ctx context.Context, userID string, updates map[string]any) error {
	if len(updates) == 0 {
		return fmt.Errorf("long_term updates: %w", pkg.ErrInvalidArgument)
	}
	encoded, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("encode long_term updates: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
        INSERT INTO user_memories (user_id, long_term, updated_at)
        VALUES ($1, $2::jsonb, NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET long_term = user_memories.long_term || EXCLUDED.long_term,
            updated_at = NOW()`, userID, encoded)
	if err != nil {
		return fmt.Errorf("update long_term: %w", err)
	}
	return nil
}

// AddRecentMemory prepends an entry to the user's recent log and truncates it
// to the cap, all in one upsert.  Prepending a jsonb object to a jsonb array
// with || plus an ordinality-limited re-aggregation is the Postgres
// equivalent of a capped $push at position 0.
func (r *MemoryRepository) AddRecentMemory(ctx context.Context, userID, text, memoryType string) error {
	if memoryType == "" {
		memoryType = "general"
	}
	entry := pkg.MemoryEntry{Text: text, Type: memoryType, Timestamp: time.Now().UTC()}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode memory entry: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, `
        INSERT INTO user_memories (user_id, recent, updated_at)
        VALUES ($1, jsonb_build_array($2::jsonb), NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET recent = (
            SELECT COALESCE(jsonb_agg(elem ORDER BY ord), '[]'::jsonb)
            FROM jsonb_array_elements($2::jsonb || user_memories.recent) WITH ORDINALITY AS t(elem, ord)
            WHERE ord <= $3
        ), updated_at = NOW()`, userID, encoded, r.RecentCap)
	if err != nil {
		return fmt.Errorf("add recent memory: %w", err)
	}
	return nil
}
