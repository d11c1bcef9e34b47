package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthmate/pkg"
)

func TestGetMemoryLazilyCreatesDocument(t *testing.T) {
	s := NewInMemoryMemoryStore()
	mem, err := s.GetMemory(context.Background(), "fresh")
	require.NoError(t, err)
	assert.NotNil(t, mem.LongTerm)
	assert.Empty(t, mem.LongTerm)
	assert.Empty(t, mem.Recent)
}

func TestAddRecentMemoryNewestFirst(t *testing.T) {
	s := NewInMemoryMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.AddRecentMemory(ctx, "u1", "first", "general"))
	require.NoError(t, s.AddRecentMemory(ctx, "u1", "second", ""))

	mem, err := s.GetMemory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mem.Recent, 2)
	assert.Equal(t, "second", mem.Recent[0].Text)
	assert.Equal(t, "general", mem.Recent[0].Type) // empty type defaults
	assert.Equal(t, "first", mem.Recent[1].Text)
}

func TestRecentCapKeepsNewestFifty(t *testing.T) {
	s := NewInMemoryMemoryStore()
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		require.NoError(t, s.AddRecentMemory(ctx, "u1", fmt.Sprintf("note-%d", i), "general"))
	}
	mem, err := s.GetMemory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mem.Recent, DefaultRecentCap)
	assert.Equal(t, "note-59", mem.Recent[0].Text)
	assert.Equal(t, "note-10", mem.Recent[len(mem.Recent)-1].Text)
}

func TestStaleEntriesHiddenAndPruned(t *testing.T) {
	s := NewInMemoryMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return base }
	require.NoError(t, s.AddRecentMemory(ctx, "u1", "old note", "general"))

	s.Now = func() time.Time { return base.AddDate(0, 0, 10) }
	require.NoError(t, s.AddRecentMemory(ctx, "u1", "fresh note", "general"))

	// 31 days after the first entry: it is outside the window, the second
	// is still inside.
	s.Now = func() time.Time { return base.AddDate(0, 0, 31) }
	mem, err := s.GetMemory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mem.Recent, 1)
	assert.Equal(t, "fresh note", mem.Recent[0].Text)

	// the read rewrote storage: the stale entry is gone for good
	s.mu.Lock()
	stored := len(s.docs["u1"].recent)
	s.mu.Unlock()
	assert.Equal(t, 1, stored)
}

func TestUpdateLongTermLastWriteWins(t *testing.T) {
	s := NewInMemoryMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.UpdateLongTerm(ctx, "u1", map[string]any{"k": "v", "other": 1}))
	require.NoError(t, s.UpdateLongTerm(ctx, "u1", map[string]any{"k": "v"}))
	require.NoError(t, s.UpdateLongTerm(ctx, "u1", map[string]any{"k": "v2"}))

	mem, err := s.GetMemory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "v2", mem.LongTerm["k"])
	assert.Equal(t, 1, mem.LongTerm["other"])
	assert.Len(t, mem.LongTerm, 2)
}

func TestUpdateLongTermRejectsEmptyUpdates(t *testing.T) {
	s := NewInMemoryMemoryStore()
	err := s.UpdateLongTerm(context.Background(), "u1", nil)
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
	err = s.UpdateLongTerm(context.Background(), "u1", map[string]any{})
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
}

func TestGetMemoryReturnsCopies(t *testing.T) {
	s := NewInMemoryMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.UpdateLongTerm(ctx, "u1", map[string]any{"k": "v"}))

	mem, _ := s.GetMemory(ctx, "u1")
	mem.LongTerm["k"] = "mutated"
	again, _ := s.GetMemory(ctx, "u1")
	assert.Equal(t, "v", again.LongTerm["k"])
}
