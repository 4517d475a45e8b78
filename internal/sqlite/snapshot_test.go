package sqlite

import (
	"context"
	"testing"

	"github.com/ganot/placement-desk/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepository(NewTestDB(t))

	_, _, err := repo.Load(ctx, "Students")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "Students", [][]string{{"CS-2023-001", "Asha"}}))
	require.NoError(t, repo.Save(ctx, "Students", [][]string{{"CS-2023-002", "Bo"}}))

	rows, savedAt, err := repo.Load(ctx, "Students")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"CS-2023-002", "Bo"}}, rows)
	require.False(t, savedAt.IsZero())
}
