package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRegistry(db), mock
}

func TestPutUpserts(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectExec("INSERT INTO refresh_sessions (.+) ON CONFLICT").
		WithArgs(int64(1), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Put(context.Background(), 1, "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectQuery("SELECT token FROM refresh_sessions").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"token"}).AddRow("r1"))
	mock.ExpectQuery("SELECT token FROM refresh_sessions").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"token"}))

	got, ok, err := r.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "r1", got)

	_, ok, err = r.Get(context.Background(), 2)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetError(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectQuery("SELECT token FROM refresh_sessions").WillReturnError(errors.New("connection reset"))

	_, _, err := r.Get(context.Background(), 1)
	require.Error(t, err)
}

func TestRemoveIsIdempotent(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectExec("DELETE FROM refresh_sessions").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM refresh_sessions").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.Remove(context.Background(), 3))
	require.NoError(t, r.Remove(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSwap(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectExec("UPDATE refresh_sessions SET token").
		WithArgs(int64(1), "r1", "r2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE refresh_sessions SET token").
		WithArgs(int64(1), "r1", "r3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	swapped, err := r.CompareAndSwap(context.Background(), 1, "r1", "r2")
	require.NoError(t, err)
	require.True(t, swapped)

	swapped, err = r.CompareAndSwap(context.Background(), 1, "r1", "r3")
	require.NoError(t, err)
	require.False(t, swapped)
	require.NoError(t, mock.ExpectationsWereMet())
}
