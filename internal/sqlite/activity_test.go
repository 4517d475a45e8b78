package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	repo := NewActivityRepository(db)
	entry1 := &activity.Entry{
		ID:        "a1",
		Type:      activity.TypeStudentAdded,
		Subject:   "CS-2023-001",
		Summary:   "added student CS-2023-001",
		Actor:     "desk",
		CreatedAt: base,
	}
	entry2 := &activity.Entry{
		ID:        "a2",
		Type:      activity.TypeDistribution,
		Subject:   "run-1",
		Summary:   "distributed CS-2023-001 to 1/1 companies",
		CreatedAt: base.Add(time.Minute),
	}

	require.NoError(t, repo.Log(ctx, entry1))
	require.NoError(t, repo.Log(ctx, entry2))

	entries, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a2", entries[0].ID)
	require.Equal(t, "a1", entries[1].ID)
	require.Equal(t, "desk", entries[1].Actor)
	require.True(t, base.Equal(entries[1].CreatedAt))
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	for i, typ := range []activity.Type{activity.TypeSheetRead, activity.TypeSheetWrite, activity.TypeSheetWrite} {
		require.NoError(t, repo.Log(ctx, &activity.Entry{
			ID:        string(rune('a' + i)),
			Type:      typ,
			Subject:   "Students",
			Summary:   string(typ),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	writes := activity.TypeSheetWrite
	entries, err := repo.List(ctx, activity.ListOptions{Type: &writes})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = repo.List(ctx, activity.ListOptions{Since: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "c", entries[0].ID)

	entries, err = repo.List(ctx, activity.ListOptions{Subject: "Students", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].ID)

	entries, err = repo.List(ctx, activity.ListOptions{Subject: "Companies"})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestActivityRepository_KeepsNewestFifty(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	svc := activity.NewService(repo, nil)
	tick := 0
	svc.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	for i := 0; i < activity.DefaultCapacity+1; i++ {
		svc.Record(ctx, activity.Entry{
			ID:      fmt.Sprintf("e%02d", i),
			Type:    activity.TypeSheetRead,
			Subject: "Students",
			Summary: "read",
		})
	}

	stored, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, stored, activity.DefaultCapacity)
	require.Equal(t, "e50", stored[0].ID)
	require.Equal(t, "e01", stored[len(stored)-1].ID)

	entries, err := svc.GetRecentActivity(ctx, activity.ListOptions{Limit: 500})
	require.NoError(t, err)
	require.Len(t, entries, activity.DefaultCapacity)
}
