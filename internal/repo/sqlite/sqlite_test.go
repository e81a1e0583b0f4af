package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/craftwatch/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_ServerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sv := &domain.Server{Name: "hub", Address: "hub.example", Port: 25565}
	require.NoError(t, s.Add(ctx, sv))
	require.NotZero(t, sv.ID)
	require.NotEmpty(t, sv.CreatedAt)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "hub.example", all[0].Address)

	got, err := s.GetByID(ctx, sv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, sv.Name, got.Name)

	missing, err := s.GetByID(ctx, sv.ID+100)
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, s.Delete(ctx, sv.ID))
	all, err = s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSQLiteStore_AppendAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	players := int64(5)
	r := &domain.PingResult{ServerID: 1, Online: true, PlayersOnline: &players}
	id, err := s.Append(ctx, r)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.NotEmpty(t, r.PingedAt)

	r2 := &domain.PingResult{ServerID: 1, Online: false}
	id2, err := s.Append(ctx, r2)
	require.NoError(t, err)
	require.Greater(t, id2, id, "ids must increase in append order")

	// offline rows carry no optional fields
	rows, err := s.History(ctx, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Nil(t, rows[1].PlayersOnline)
	require.Nil(t, rows[1].Version)
}

func TestSQLiteStore_HistoryFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 4; i++ {
		_, err := s.Append(ctx, &domain.PingResult{ServerID: 1, Online: i%2 == 0})
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, &domain.PingResult{ServerID: 2, Online: true})
	require.NoError(t, err)

	rows, err := s.History(ctx, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		require.LessOrEqual(t, rows[i-1].PingedAt, rows[i].PingedAt)
		require.Less(t, rows[i-1].ID, rows[i].ID)
	}

	since := rows[1].ID
	inc, err := s.History(ctx, 1, &since, nil)
	require.NoError(t, err)
	require.Len(t, inc, 2)
	require.Equal(t, rows[2].ID, inc[0].ID)

	// a generous window keeps the fresh rows
	window := int64(3600)
	recent, err := s.History(ctx, 1, nil, &window)
	require.NoError(t, err)
	require.Len(t, recent, 4)

	// unknown server: empty, not an error
	none, err := s.History(ctx, 42, nil, nil)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSQLiteStore_DeleteCascadesHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	sv := &domain.Server{Name: "hub", Address: "hub.example", Port: 25565}
	require.NoError(t, s.Add(ctx, sv))
	_, err := s.Append(ctx, &domain.PingResult{ServerID: sv.ID, Online: true})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, sv.ID))

	rows, err := s.History(ctx, sv.ID, nil, nil)
	require.NoError(t, err)
	require.Empty(t, rows, "history must not survive its server")
}

func TestSQLiteStore_Last(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	last, err := s.Last(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, last)

	_, err = s.Append(ctx, &domain.PingResult{ServerID: 1, Online: false})
	require.NoError(t, err)
	_, err = s.Append(ctx, &domain.PingResult{ServerID: 1, Online: true})
	require.NoError(t, err)

	last, err = s.Last(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, last)
	require.True(t, last.Online)
	require.Equal(t, int64(2), last.ID)
}
