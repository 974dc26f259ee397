package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

func newTestStore(t *testing.T) *DBAuditStore {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db).Migrate(context.Background()))
	return NewDBAuditStore(db)
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := Entry{
		TenantID:     "tenant-a",
		Action:       "assessment.finalize",
		ResourceType: "assessment",
		ResourceID:   "res-1",
		ActorID:      "actor-1",
		Details:      "guardian evaluation",
		Metadata: map[string]any{
			"blocked":          true,
			"matched_rule_ids": []string{types.NewID().String()},
		},
	}
	require.NoError(t, store.Record(ctx, entry))

	entries, err := store.List(ctx, NewFilter("tenant-a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.False(t, got.ID.IsZero())
	assert.Equal(t, "assessment.finalize", got.Action)
	assert.Equal(t, "actor-1", got.ActorID)
	assert.Equal(t, true, got.Metadata["blocked"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestList_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	actions := []string{"assessment.finalize", "document.upload", "document.upload"}
	for i, action := range actions {
		require.NoError(t, store.Record(ctx, Entry{
			TenantID:     "tenant-a",
			Action:       action,
			ResourceType: "document",
			ResourceID:   "res-" + string(rune('a'+i)),
		}))
	}
	require.NoError(t, store.Record(ctx, Entry{TenantID: "tenant-b", Action: "document.upload"}))

	t.Run("by tenant", func(t *testing.T) {
		entries, err := store.List(ctx, NewFilter("tenant-a"))
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("by action", func(t *testing.T) {
		entries, err := store.List(ctx, NewFilter("tenant-a").WithAction("document.upload"))
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("by resource", func(t *testing.T) {
		entries, err := store.List(ctx, NewFilter("tenant-a").WithResource("document", "res-a"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("by date range", func(t *testing.T) {
		past := time.Now().UTC().Add(-time.Hour)
		future := time.Now().UTC().Add(time.Hour)
		entries, err := store.List(ctx, NewFilter("tenant-a").WithDateRange(past, future))
		require.NoError(t, err)
		assert.Len(t, entries, 3)

		entries, err = store.List(ctx, NewFilter("tenant-a").WithDateRange(future, future.Add(time.Hour)))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := store.List(ctx, NewFilter("tenant-a").WithLimit(2))
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestList_RequiresTenant(t *testing.T) {
	store := newTestStore(t)

	_, err := store.List(context.Background(), NewFilter(""))
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	_, err = store.List(context.Background(), nil)
	require.Error(t, err)
}
