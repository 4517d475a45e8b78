package sqlite

import (
	"context"
	"testing"

	"github.com/ganot/placement-desk/internal/repository"
	"github.com/stretchr/testify/require"
)

func newSheetTable(t *testing.T) *SheetTable {
	t.Helper()
	table := NewSheetTable(NewTestDB(t))
	require.NoError(t, table.Provision(context.Background(), "Students", []string{"Student ID", "Full Name"}))
	return table
}

func TestSheetTable_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	table := newSheetTable(t)

	res, err := table.Append(ctx, "Students!A1:J", [][]string{{"CS-2023-001", "Asha"}, {"CS-2023-002", "Bo", "x"}})
	require.NoError(t, err)
	require.Equal(t, "Students!A2:C3", res.UpdatedRange)
	require.Equal(t, 2, res.UpdatedRows)

	rows, err := table.Read(ctx, "Students!A2:J")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"CS-2023-001", "Asha"}, {"CS-2023-002", "Bo", "x"}}, rows)

	all, err := table.Read(ctx, "Students")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Student ID", all[0][0])
}

func TestSheetTable_ProvisionKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	table := newSheetTable(t)
	_, err := table.Append(ctx, "Students!A1:J", [][]string{{"CS-2023-001"}})
	require.NoError(t, err)

	require.NoError(t, table.Provision(ctx, "Students", []string{"Other"}))

	rows, err := table.Read(ctx, "Students!A1:J")
	require.NoError(t, err)
	require.Equal(t, "Student ID", rows[0][0])
	require.Len(t, rows, 2)

	names, err := table.Sheets(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Students"}, names)
}

func TestSheetTable_UpdateAndBatchUpdate(t *testing.T) {
	ctx := context.Background()
	table := newSheetTable(t)
	_, err := table.Append(ctx, "Students!A1:J", [][]string{{"A"}, {"B"}, {"C"}})
	require.NoError(t, err)

	_, err = table.Update(ctx, "Students!A3:J3", [][]string{{"B2"}})
	require.NoError(t, err)

	res, err := table.BatchUpdate(ctx, []repository.RangeValues{
		{Range: "Students!A2:J2", Values: [][]string{{"A2"}}},
		{Range: "Students!A4:J4", Values: [][]string{{"C2"}}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.UpdatedRows)

	rows, err := table.Read(ctx, "Students!A2:J")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"A2"}, {"B2"}, {"C2"}}, rows)
}

func TestSheetTable_MissingSheetIsRejected(t *testing.T) {
	ctx := context.Background()
	table := newSheetTable(t)

	_, err := table.Read(ctx, "COMP-001!A2:L")
	require.ErrorIs(t, err, repository.ErrRejected)
	require.NotErrorIs(t, err, repository.ErrTransport)

	_, err = table.Append(ctx, "COMP-001!A1:L", [][]string{{"x"}})
	require.ErrorIs(t, err, repository.ErrRejected)

	_, err = table.BatchUpdate(ctx, []repository.RangeValues{
		{Range: "Students!A2:J2", Values: [][]string{{"kept?"}}},
		{Range: "COMP-001!A2:L2", Values: [][]string{{"x"}}},
	})
	require.ErrorIs(t, err, repository.ErrRejected)

	rows, err := table.Read(ctx, "Students!A2:J")
	require.NoError(t, err)
	require.Empty(t, rows, "failed batch must roll back")
}

func TestSheetTable_ReadFillsGaps(t *testing.T) {
	ctx := context.Background()
	table := newSheetTable(t)
	_, err := table.Update(ctx, "Students!A4:J4", [][]string{{"late"}})
	require.NoError(t, err)

	rows, err := table.Read(ctx, "Students!A2:J")
	require.NoError(t, err)
	require.Equal(t, [][]string{{}, {}, {"late"}}, rows)
}
